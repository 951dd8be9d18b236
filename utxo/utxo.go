// Package utxo defines the unspent-output model consumed by the query layer
// together with the two whole-set operations built on top of it: the set
// digest and the cancellable script scan.
package utxo

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// ErrCursorRead reports a cursor key with no readable value. It indicates an
// inconsistent store and is never silently swallowed.
var ErrCursorRead = errors.New("unable to read value from utxo cursor")

// Outpoint identifies an unspent output by owning transaction id and output
// index.
type Outpoint struct {
	TxID  chainhash.Hash
	Index uint32
}

// Coin is one unspent output.
type Coin struct {
	Value    btcutil.Amount
	PkScript []byte

	// Height is the height of the block creating the output.
	Height int32

	Coinbase bool
}

// Cursor iterates a point-in-time snapshot of the full unspent-output set.
// Outputs sharing a transaction id are contiguous; the set is not
// necessarily globally sorted.
type Cursor interface {
	// Valid reports whether the cursor points at an entry.
	Valid() bool

	// Next advances the cursor.
	Next()

	// Key returns the outpoint under the cursor.
	Key() (Outpoint, error)

	// Coin returns the output under the cursor.
	Coin() (*Coin, error)
}

// View is the narrow contract of the unspent-output store.
type View interface {
	// Cursor opens a cursor over a snapshot of the full set.
	Cursor() (Cursor, error)

	// BestBlock returns the hash of the block the snapshot is consistent
	// with.
	BestBlock() (chainhash.Hash, error)

	// EstimateDiskSize returns the store's estimate of its on-disk
	// footprint.
	EstimateDiskSize() (uint64, error)

	// CoinByOutpoint returns the coin for the outpoint, or nil when the
	// output does not exist or is spent.
	CoinByOutpoint(op Outpoint) (*Coin, error)
}
