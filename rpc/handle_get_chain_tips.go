package rpc

import "github.com/ternlabs/ternd/jsondoc"

// handleGetChainTips implements the getChainTips command.
func handleGetChainTips(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	tips := s.cfg.Chain.ChainTips()

	result := jsondoc.NewArray()
	for _, tip := range tips {
		obj := jsondoc.NewObject()
		obj.PushKV("height", jsondoc.NewInt(int64(tip.Node.Height)))
		obj.PushKV("hash", jsondoc.NewString(tip.Node.Hash.String()))
		obj.PushKV("branchlen", jsondoc.NewInt(int64(tip.BranchLen)))
		obj.PushKV("status", jsondoc.NewString(string(tip.Status)))
		result.Append(obj)
	}
	return result, nil
}
