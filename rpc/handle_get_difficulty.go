package rpc

import "github.com/ternlabs/ternd/rpcmodel"

// handleGetDifficulty implements the getDifficulty command.
func handleGetDifficulty(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	tip := s.cfg.Chain.Tip()
	if tip == nil {
		return nil, rpcmodel.NewError(rpcmodel.ErrMisc, "Chain is empty")
	}
	difficulty, err := difficultyRatio(tip.Bits, s.cfg.ChainParams)
	if err != nil {
		return nil, internalRPCError(err.Error(), "getDifficulty")
	}
	return difficulty, nil
}
