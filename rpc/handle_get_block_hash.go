package rpc

import (
	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/rpcmodel"
)

// handleGetBlockHash implements the getBlockHash command.
func handleGetBlockHash(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.GetBlockHashCmd)
	if c.Height < 0 || c.Height > int64(s.cfg.Chain.Height()) {
		return nil, rpcmodel.NewError(rpcmodel.ErrInvalidParameter,
			"Block height out of range")
	}
	node := s.cfg.Chain.NodeByHeight(int32(c.Height))
	return jsondoc.NewString(node.Hash.String()), nil
}
