package rpc

import "github.com/ternlabs/ternd/rpcmodel"

// handleWaitForBlock implements the waitForBlock command.
func handleWaitForBlock(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.WaitForBlockCmd)
	hash, err := parseHash(c.Hash)
	if err != nil {
		return nil, err
	}
	state := s.cfg.Notifier.WaitForBlock(*hash, waitTimeout(c.Timeout))
	return tipStateToJSON(state), nil
}
