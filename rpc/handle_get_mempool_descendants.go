package rpc

import (
	"github.com/pkg/errors"

	"github.com/ternlabs/ternd/mempool"
	"github.com/ternlabs/ternd/rpcmodel"
)

// handleGetMempoolDescendants implements the getMempoolDescendants command.
func handleGetMempoolDescendants(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.GetMempoolDescendantsCmd)
	txID, err := parseHash(c.TxID)
	if err != nil {
		return nil, err
	}

	descendants, err := s.cfg.TxMemPool.Descendants(txID)
	if err != nil {
		if errors.Is(err, mempool.ErrTxNotInPool) {
			return nil, rpcmodel.ErrTxNotInMempool
		}
		return nil, internalRPCError(err.Error(), "getMempoolDescendants")
	}
	return renderEntrySet(s, descendants, c.Verbose != nil && *c.Verbose), nil
}
