package rpc

import "github.com/ternlabs/ternd/rpcmodel"

// handleGetRawMempool implements the getRawMempool command.
func handleGetRawMempool(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.GetRawMempoolCmd)
	entries := s.cfg.TxMemPool.Entries()
	return renderEntrySet(s, entries, c.Verbose != nil && *c.Verbose), nil
}
