// Package notifier implements the blocking wait primitive for tip changes.
// Its state is guarded by its own lock/condition pair, deliberately
// decoupled from the chain lock: publishing a tip change never waits on a
// slow reader and waiting readers never block block acceptance.
package notifier

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TipState is the shared notification record: the latest accepted tip. It is
// updated exactly once per accepted tip change.
type TipState struct {
	Hash   chainhash.Hash
	Height int32
}

// Notifier is the process-wide chain-change notification state. One instance
// is created at startup and lives until process exit.
type Notifier struct {
	mtx     sync.Mutex
	cond    *sync.Cond
	state   TipState
	serving bool
}

// New returns a serving notifier with the given initial tip.
func New(initial TipState) *Notifier {
	n := &Notifier{state: initial, serving: true}
	n.cond = sync.NewCond(&n.mtx)
	return n
}

// NotifyTip publishes a new tip. Called by the block-acceptance path.
func (n *Notifier) NotifyTip(hash chainhash.Hash, height int32) {
	n.mtx.Lock()
	n.state = TipState{Hash: hash, Height: height}
	n.mtx.Unlock()
	n.cond.Broadcast()
}

// Shutdown clears the serving flag and wakes every waiter. Waits issued
// after shutdown return immediately.
func (n *Notifier) Shutdown() {
	n.mtx.Lock()
	n.serving = false
	n.mtx.Unlock()
	n.cond.Broadcast()
}

// Tip returns the current notification state.
func (n *Notifier) Tip() TipState {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	return n.state
}

// WaitForNewBlock blocks until the tip differs from the baseline by hash or
// height, the timeout elapses or the notifier shuts down, and returns the
// state at wake-up. A zero timeout waits indefinitely. Callers distinguish
// timeout from change only by comparing the result to their baseline.
func (n *Notifier) WaitForNewBlock(baseline TipState, timeout time.Duration) TipState {
	return n.wait(timeout, func() bool {
		return n.state.Height != baseline.Height || n.state.Hash != baseline.Hash
	})
}

// WaitForBlock blocks until the given hash is the tip, the timeout elapses
// or the notifier shuts down.
func (n *Notifier) WaitForBlock(hash chainhash.Hash, timeout time.Duration) TipState {
	return n.wait(timeout, func() bool {
		return n.state.Hash == hash
	})
}

// WaitForHeight blocks until the tip height reaches at least the threshold,
// the timeout elapses or the notifier shuts down. It returns without
// blocking when the current height already qualifies.
func (n *Notifier) WaitForHeight(height int32, timeout time.Duration) TipState {
	return n.wait(timeout, func() bool {
		return n.state.Height >= height
	})
}

// wait re-evaluates the predicate, which is called with the lock held, every
// time the condition fires, and additionally enforces the timeout with a
// timer that issues a broadcast. Shutdown satisfies every wait.
func (n *Notifier) wait(timeout time.Duration, predicate func() bool) TipState {
	var timedOut bool
	if timeout > 0 {
		timer := time.AfterFunc(timeout, func() {
			n.mtx.Lock()
			timedOut = true
			n.mtx.Unlock()
			n.cond.Broadcast()
		})
		defer timer.Stop()
	}

	n.mtx.Lock()
	defer n.mtx.Unlock()
	for n.serving && !timedOut && !predicate() {
		n.cond.Wait()
	}
	return n.state
}
