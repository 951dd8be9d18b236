package rpc

import "github.com/ternlabs/ternd/jsondoc"

// handleGetMempoolInfo implements the getMempoolInfo command.
func handleGetMempoolInfo(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	pool := s.cfg.TxMemPool

	result := jsondoc.NewObject()
	result.PushKV("size", jsondoc.NewInt(int64(pool.Count())))
	result.PushKV("bytes", jsondoc.NewInt(pool.TotalSize()))
	result.PushKV("usage", jsondoc.NewInt(pool.MemoryUsage()))
	result.PushKV("total_fee", jsondoc.NewAmount(pool.TotalFee()))
	result.PushKV("mempoolminfee", jsondoc.NewAmount(pool.MinFeeRatePerKB))
	return result, nil
}
