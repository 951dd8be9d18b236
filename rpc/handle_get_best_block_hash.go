package rpc

import (
	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/rpcmodel"
)

// handleGetBestBlockHash implements the getBestBlockHash command.
func handleGetBestBlockHash(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	tip := s.cfg.Chain.Tip()
	if tip == nil {
		return nil, rpcmodel.NewError(rpcmodel.ErrMisc, "Chain is empty")
	}
	return jsondoc.NewString(tip.Hash.String()), nil
}
