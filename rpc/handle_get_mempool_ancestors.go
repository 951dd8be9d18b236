package rpc

import (
	"github.com/pkg/errors"

	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/mempool"
	"github.com/ternlabs/ternd/rpcmodel"
)

// handleGetMempoolAncestors implements the getMempoolAncestors command.
func handleGetMempoolAncestors(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.GetMempoolAncestorsCmd)
	txID, err := parseHash(c.TxID)
	if err != nil {
		return nil, err
	}

	ancestors, err := s.cfg.TxMemPool.Ancestors(txID, mempool.UnlimitedAncestry())
	if err != nil {
		if errors.Is(err, mempool.ErrTxNotInPool) {
			return nil, rpcmodel.ErrTxNotInMempool
		}
		return nil, internalRPCError(err.Error(), "getMempoolAncestors")
	}
	return renderEntrySet(s, ancestors, c.Verbose != nil && *c.Verbose), nil
}

// renderEntrySet renders a dependency query result either as a sorted id
// array or, verbosely, as an object keyed by id.
func renderEntrySet(s *Server, entries []*mempool.Entry, verbose bool) *jsondoc.Value {
	if !verbose {
		return idArray(sortedIDStrings(entries))
	}

	byID := make(map[string]*mempool.Entry, len(entries))
	for _, entry := range entries {
		byID[entry.TxID.String()] = entry
	}
	result := jsondoc.NewObject()
	for _, id := range sortedIDStrings(entries) {
		result.PushKV(id, mempoolEntryToJSON(s.cfg.TxMemPool, byID[id]))
	}
	return result
}
