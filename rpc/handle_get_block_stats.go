package rpc

import (
	"github.com/pkg/errors"

	"github.com/ternlabs/ternd/blockindex"
	"github.com/ternlabs/ternd/blockstats"
	"github.com/ternlabs/ternd/rpcmodel"
)

// handleGetBlockStats implements the getBlockStats command.
func handleGetBlockStats(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.GetBlockStatsCmd)

	node, err := s.nodeFromHashOrHeight(c.HashOrHeight)
	if err != nil {
		return nil, err
	}
	if s.cfg.BlockFetcher == nil {
		return nil, rpcmodel.NewError(rpcmodel.ErrMisc, "Block data is not available")
	}
	block, err := s.cfg.BlockFetcher.FetchBlock(&node.Hash)
	if err != nil {
		return nil, internalRPCError(err.Error(), "getBlockStats")
	}

	var sel blockstats.Selection
	if c.Stats != nil {
		sel = blockstats.NewSelection(*c.Stats)
	}
	meta := &blockstats.Meta{
		Hash:       node.Hash,
		Height:     node.Height,
		Time:       node.Time,
		MedianTime: medianTimeOf(s.cfg.Chain, node),
		Subsidy:    subsidyAtHeight(node.Height, s.cfg.ChainParams),
	}

	result, err := blockstats.Compute(block, meta, s.cfg.TxFetcher, sel)
	switch {
	case errors.Is(err, blockstats.ErrUnknownStat):
		return nil, rpcmodel.NewErrorf(rpcmodel.ErrInvalidParameter, "%v", err)
	case errors.Is(err, blockstats.ErrTxIndexRequired):
		return nil, rpcmodel.NewErrorf(rpcmodel.ErrInvalidParameter, "%v", err)
	case err != nil:
		return nil, internalRPCError(err.Error(), "getBlockStats")
	}
	return result, nil
}

// nodeFromHashOrHeight resolves the polymorphic block argument. Strings are
// hashes, numbers are heights; either way the block must be on the active
// chain.
func (s *Server) nodeFromHashOrHeight(hashOrHeight interface{}) (*blockindex.Node, error) {
	switch v := hashOrHeight.(type) {
	case string:
		hash, err := parseHash(v)
		if err != nil {
			return nil, err
		}
		node := s.cfg.Chain.LookupNode(hash)
		if node == nil {
			return nil, rpcmodel.ErrUnknownBlock
		}
		if !s.cfg.Chain.Contains(node) {
			return nil, rpcmodel.NewError(rpcmodel.ErrInvalidParameter,
				"Block is not in chain")
		}
		return node, nil

	case int, int32, int64, float64:
		height := toInt64(v)
		if height < 0 {
			return nil, rpcmodel.NewErrorf(rpcmodel.ErrInvalidParameter,
				"Target block height %d is negative", height)
		}
		tipHeight := int64(s.cfg.Chain.Height())
		if height > tipHeight {
			return nil, rpcmodel.NewErrorf(rpcmodel.ErrInvalidParameter,
				"Target block height %d after current tip", height)
		}
		return s.cfg.Chain.NodeByHeight(int32(height)), nil
	}
	return nil, rpcmodel.NewError(rpcmodel.ErrInvalidParameter,
		"hash_or_height must be a block hash string or a height")
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}
