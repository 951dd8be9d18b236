package rpc

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"

	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/rpcmodel"
	"github.com/ternlabs/ternd/utxo"
)

// handleGetTxOutSetInfo implements the getTxOutSetInfo command. It streams
// the whole set snapshot once, so it can take a while on a large set.
func handleGetTxOutSetInfo(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	stats, err := utxo.CalculateSetStats(s.cfg.UTXOView, func(hash *chainhash.Hash) (int32, error) {
		node := s.cfg.Chain.LookupNode(hash)
		if node == nil {
			return 0, errors.Errorf("utxo set best block %s is not indexed", hash)
		}
		return node.Height, nil
	})
	if err != nil {
		return nil, rpcmodel.NewErrorf(rpcmodel.ErrInternal,
			"Unable to read UTXO set: %v", err)
	}

	result := jsondoc.NewObject()
	result.PushKV("height", jsondoc.NewInt(int64(stats.Height)))
	result.PushKV("bestblock", jsondoc.NewString(stats.BestBlock.String()))
	result.PushKV("transactions", jsondoc.NewUint(stats.Transactions))
	result.PushKV("txouts", jsondoc.NewUint(stats.TxOuts))
	result.PushKV("bogosize", jsondoc.NewUint(stats.BogoSize))
	result.PushKV("muhash", jsondoc.NewString(stats.Digest.String()))
	result.PushKV("disk_size", jsondoc.NewUint(stats.DiskSize))
	result.PushKV("total_amount", jsondoc.NewAmount(stats.TotalAmount))
	return result, nil
}
