package rpc

import (
	"github.com/ternlabs/ternd/blockindex"
	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/rpcmodel"
)

// minBlocksToKeep is how many of the most recent blocks are never pruned.
const minBlocksToKeep = 288

// timestampThreshold separates height arguments from unix-time arguments.
const timestampThreshold = 1000000000

// handlePruneChain implements the pruneChain command. The argument is a
// height, or a unix timestamp which resolves to the last block at or before
// that time.
func handlePruneChain(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.PruneChainCmd)
	if s.cfg.Pruner == nil {
		return nil, rpcmodel.NewError(rpcmodel.ErrMisc,
			"Cannot prune: node is not running in prune mode")
	}

	height := c.Height
	if height < 0 {
		return nil, rpcmodel.NewError(rpcmodel.ErrInvalidParameter,
			"Negative block height")
	}
	if height > timestampThreshold {
		node := s.lastNodeBefore(height)
		if node == nil {
			return nil, rpcmodel.NewError(rpcmodel.ErrInvalidParameter,
				"Could not find block with at least the specified timestamp")
		}
		height = int64(node.Height)
	}

	tipHeight := int64(s.cfg.Chain.Height())
	if height > tipHeight {
		return nil, rpcmodel.NewError(rpcmodel.ErrInvalidParameter,
			"Blockchain is shorter than the attempted prune height")
	}
	if height > tipHeight-minBlocksToKeep {
		log.Warnf("pruneChain: retaining the last %d blocks", minBlocksToKeep)
		height = tipHeight - minBlocksToKeep
		if height < 0 {
			height = 0
		}
	}

	pruned, err := s.cfg.Pruner.PruneToHeight(int32(height))
	if err != nil {
		return nil, internalRPCError(err.Error(), "pruneChain")
	}
	return jsondoc.NewInt(int64(pruned)), nil
}

// lastNodeBefore returns the highest active-chain node whose timestamp is at
// or before the given unix time.
func (s *Server) lastNodeBefore(timestamp int64) *blockindex.Node {
	for height := s.cfg.Chain.Height(); height >= 0; height-- {
		node := s.cfg.Chain.NodeByHeight(height)
		if node != nil && node.Time <= timestamp {
			return node
		}
	}
	return nil
}
