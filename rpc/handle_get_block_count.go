package rpc

import "github.com/ternlabs/ternd/jsondoc"

// handleGetBlockCount implements the getBlockCount command.
func handleGetBlockCount(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	return jsondoc.NewInt(int64(s.cfg.Chain.Height())), nil
}
