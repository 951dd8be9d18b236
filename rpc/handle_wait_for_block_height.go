package rpc

import (
	"math"

	"github.com/ternlabs/ternd/rpcmodel"
)

// handleWaitForBlockHeight implements the waitForBlockHeight command.
func handleWaitForBlockHeight(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.WaitForBlockHeightCmd)
	if c.Height < 0 || c.Height > math.MaxInt32 {
		return nil, rpcmodel.NewErrorf(rpcmodel.ErrInvalidParameter,
			"Block height %d out of range", c.Height)
	}
	state := s.cfg.Notifier.WaitForHeight(int32(c.Height), waitTimeout(c.Timeout))
	return tipStateToJSON(state), nil
}
