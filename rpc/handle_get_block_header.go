package rpc

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/wire"

	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/rpcmodel"
)

// handleGetBlockHeader implements the getBlockHeader command. The header is
// reconstituted from the index node, so pruned blocks still answer.
func handleGetBlockHeader(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.GetBlockHeaderCmd)
	hash, err := parseHash(c.Hash)
	if err != nil {
		return nil, err
	}
	node := s.cfg.Chain.LookupNode(hash)
	if node == nil {
		return nil, rpcmodel.ErrUnknownBlock
	}

	header := wire.BlockHeader{
		Version:    node.Version,
		PrevBlock:  node.ParentHash,
		MerkleRoot: node.MerkleRoot,
		Timestamp:  time.Unix(node.Time, 0),
		Bits:       node.Bits,
		Nonce:      node.Nonce,
	}

	if c.Verbose != nil && !*c.Verbose {
		var buf bytes.Buffer
		if err := header.Serialize(&buf); err != nil {
			return nil, internalRPCError(err.Error(), "getBlockHeader")
		}
		return jsondoc.NewString(hex.EncodeToString(buf.Bytes())), nil
	}

	// Confirmations are relative to the active tip; -1 for a block off the
	// active chain.
	confirmations := int64(-1)
	onChain := s.cfg.Chain.Contains(node)
	if onChain {
		confirmations = int64(s.cfg.Chain.Height()-node.Height) + 1
	}
	difficulty, err := difficultyRatio(node.Bits, s.cfg.ChainParams)
	if err != nil {
		return nil, internalRPCError(err.Error(), "getBlockHeader")
	}

	result := jsondoc.NewObject()
	result.PushKV("hash", jsondoc.NewString(node.Hash.String()))
	result.PushKV("confirmations", jsondoc.NewInt(confirmations))
	result.PushKV("height", jsondoc.NewInt(int64(node.Height)))
	result.PushKV("version", jsondoc.NewInt(int64(node.Version)))
	result.PushKV("merkleroot", jsondoc.NewString(node.MerkleRoot.String()))
	result.PushKV("time", jsondoc.NewInt(node.Time))
	result.PushKV("mediantime", jsondoc.NewInt(medianTimeOf(s.cfg.Chain, node)))
	result.PushKV("nonce", jsondoc.NewUint(uint64(node.Nonce)))
	result.PushKV("bits", jsondoc.NewString(fmt.Sprintf("%08x", node.Bits)))
	result.PushKV("difficulty", difficulty)
	result.PushKV("chainwork", jsondoc.NewString(fmt.Sprintf("%064x", node.Work)))
	result.PushKV("nTx", jsondoc.NewUint(node.TxCount))
	if !node.IsGenesis() {
		result.PushKV("previousblockhash", jsondoc.NewString(node.ParentHash.String()))
	}
	if onChain {
		if next := s.cfg.Chain.NodeByHeight(node.Height + 1); next != nil {
			result.PushKV("nextblockhash", jsondoc.NewString(next.Hash.String()))
		}
	}
	return result, nil
}
