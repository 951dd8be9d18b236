// Package blockindex models the forest of known block headers as an arena of
// nodes addressed by block hash, together with the currently active chain.
// Parent, ancestor and fork-point queries are functions over the arena
// rather than pointer chases, so nodes can be shared across threads freely.
package blockindex

import (
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Status is a bit field representing the validation state of a block node.
type Status uint16

const (
	// StatusDataStored indicates that the block's payload is stored on
	// disk.
	StatusDataStored Status = 1 << iota

	// StatusValidTree indicates that the block's header chains to valid
	// headers all the way to genesis.
	StatusValidTree

	// StatusTxsDownloaded indicates transaction data for the block and
	// all of its ancestors has been downloaded.
	StatusTxsDownloaded

	// StatusValid indicates that the block has been fully validated,
	// scripts included.
	StatusValid

	// StatusValidateFailed indicates that the block has failed
	// validation.
	StatusValidateFailed

	// StatusInvalidAncestor indicates that one of the block's ancestors
	// has failed validation, thus the block is also invalid.
	StatusInvalidAncestor

	// StatusParked indicates the block has been parked and must not be
	// connected to the active chain.
	StatusParked

	// StatusParkedAncestor indicates one of the block's ancestors is
	// parked.
	StatusParkedAncestor
)

// KnownValid returns whether the block is known to be fully valid. This
// returns false for a valid block that has not been fully validated yet.
func (status Status) KnownValid() bool {
	return status&StatusValid != 0
}

// KnownInvalid returns whether the block is known to be invalid, either
// because it failed validation itself or descends from a block that did.
func (status Status) KnownInvalid() bool {
	return status&(StatusValidateFailed|StatusInvalidAncestor) != 0
}

// KnownParked returns whether the block or one of its ancestors is parked.
func (status Status) KnownParked() bool {
	return status&(StatusParked|StatusParkedAncestor) != 0
}

// TxsDownloaded returns whether transaction data for the block and all of
// its ancestors is available.
func (status Status) TxsDownloaded() bool {
	return status&StatusTxsDownloaded != 0
}

// ValidTree returns whether the block's headers are known valid.
func (status Status) ValidTree() bool {
	return status&StatusValidTree != 0
}

// Node is one entry of the block-index arena. Nodes are created once, when a
// header is accepted, and treated as read-only by this layer; ParentHash is
// the arena key of the parent, zero for genesis.
type Node struct {
	Hash       chainhash.Hash
	ParentHash chainhash.Hash
	Height     int32
	Status     Status

	// Work is the cumulative chain work up to and including this block.
	Work *big.Int

	// Time is the block timestamp in unix seconds.
	Time int64

	// TxCount is the number of transactions in the block.
	TxCount uint64

	// Remaining header fields, kept so the header can be reconstituted
	// without touching block storage.
	Version    int32
	MerkleRoot chainhash.Hash
	Bits       uint32
	Nonce      uint32
}

// IsGenesis returns whether the node has no parent.
func (node *Node) IsGenesis() bool {
	return node.Height == 0
}
