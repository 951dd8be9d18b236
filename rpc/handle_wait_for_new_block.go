package rpc

import (
	"time"

	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/notifier"
	"github.com/ternlabs/ternd/rpcmodel"
)

// handleWaitForNewBlock implements the waitForNewBlock command. It blocks the
// calling goroutine until the tip changes, the timeout elapses or the
// notifier shuts down; the caller tells a timeout apart from a change by
// comparing the returned tip against its own baseline.
func handleWaitForNewBlock(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.WaitForNewBlockCmd)
	baseline := s.cfg.Notifier.Tip()
	state := s.cfg.Notifier.WaitForNewBlock(baseline, waitTimeout(c.Timeout))
	return tipStateToJSON(state), nil
}

// waitTimeout converts the optional millisecond argument; zero or absent
// means wait indefinitely.
func waitTimeout(ms *int64) time.Duration {
	if ms == nil {
		return 0
	}
	return time.Duration(*ms) * time.Millisecond
}

func tipStateToJSON(state notifier.TipState) *jsondoc.Value {
	result := jsondoc.NewObject()
	result.PushKV("hash", jsondoc.NewString(state.Hash.String()))
	result.PushKV("height", jsondoc.NewInt(int64(state.Height)))
	return result
}
