package rpc

import (
	"github.com/pkg/errors"

	"github.com/ternlabs/ternd/mempool"
	"github.com/ternlabs/ternd/rpcmodel"
)

// handleGetMempoolEntry implements the getMempoolEntry command.
func handleGetMempoolEntry(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.GetMempoolEntryCmd)
	txID, err := parseHash(c.TxID)
	if err != nil {
		return nil, err
	}

	entry, err := s.cfg.TxMemPool.Entry(txID)
	if err != nil {
		if errors.Is(err, mempool.ErrTxNotInPool) {
			return nil, rpcmodel.ErrTxNotInMempool
		}
		return nil, internalRPCError(err.Error(), "getMempoolEntry")
	}
	return mempoolEntryToJSON(s.cfg.TxMemPool, entry), nil
}
