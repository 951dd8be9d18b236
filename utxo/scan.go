package utxo

import (
	"sync"
	"sync/atomic"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/pkg/errors"
)

const (
	// abortPollInterval is how many scanned items pass between polls of
	// the abort flag.
	abortPollInterval = 8192

	// progressInterval is how many scanned items pass between progress
	// republications.
	progressInterval = 256
)

// ScanMatch is one unspent output whose locking script was in the needle
// set.
type ScanMatch struct {
	Outpoint Outpoint
	Coin     *Coin
}

// ScanResult is the outcome of a full-set scan. Completed is false when the
// scan was aborted before reaching the end of the cursor.
type ScanResult struct {
	Matches       []ScanMatch
	TotalAmount   btcutil.Amount
	SearchedItems int64
	Completed     bool
}

// ScanController is the process-wide reservation for the single long-running
// UTXO scan, plus its shared progress and abort state. Reservation is
// mutually exclusive across scan lifecycles; the progress counter and abort
// flag are plain atomics written by the scanning goroutine and read by
// status and abort callers.
type ScanController struct {
	mtx        sync.Mutex
	inProgress bool

	progress int32
	abort    int32
}

// NewScanController returns a controller with no scan running. One instance
// lives for the whole process.
func NewScanController() *ScanController {
	return &ScanController{}
}

// Reserve attempts to claim the scan reservation. It returns false when a
// scan is already in progress. A successful reservation must be paired with
// Release.
func (c *ScanController) Reserve() bool {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	if c.inProgress {
		return false
	}
	c.inProgress = true
	return true
}

// Release frees the reservation.
func (c *ScanController) Release() {
	c.mtx.Lock()
	c.inProgress = false
	c.mtx.Unlock()
}

// Progress returns the last published progress percentage.
func (c *ScanController) Progress() int32 {
	return atomic.LoadInt32(&c.progress)
}

// RequestAbort asks the running scan to stop at its next poll point.
func (c *ScanController) RequestAbort() {
	atomic.StoreInt32(&c.abort, 1)
}

func (c *ScanController) aborted() bool {
	return atomic.LoadInt32(&c.abort) != 0
}

// Scan streams the cursor and collects every output whose locking script is
// in the needle set, keyed by raw script bytes. The caller must hold the
// reservation. Progress is republished periodically as a percentage derived
// from a prefix of the current transaction id; it approximates position in
// the id space, not exact completion. The abort flag is polled at fixed
// batch intervals, so cancellation is cooperative and not immediate.
func (c *ScanController) Scan(cursor Cursor, needles map[string]struct{}) (*ScanResult, error) {
	atomic.StoreInt32(&c.progress, 0)
	atomic.StoreInt32(&c.abort, 0)

	result := &ScanResult{}
	for cursor.Valid() {
		key, err := cursor.Key()
		if err != nil {
			return nil, errors.Wrap(ErrCursorRead, err.Error())
		}
		coin, err := cursor.Coin()
		if err != nil {
			return nil, errors.Wrap(ErrCursorRead, err.Error())
		}
		result.SearchedItems++
		if result.SearchedItems%abortPollInterval == 0 && c.aborted() {
			return result, nil
		}
		if result.SearchedItems%progressInterval == 0 {
			high := 0x100*int(key.TxID[0]) + int(key.TxID[1])
			atomic.StoreInt32(&c.progress, int32(float64(high)*100.0/65536.0+0.5))
		}
		if _, match := needles[string(coin.PkScript)]; match {
			result.Matches = append(result.Matches, ScanMatch{Outpoint: key, Coin: coin})
			result.TotalAmount += coin.Value
		}
		cursor.Next()
	}

	atomic.StoreInt32(&c.progress, 100)
	result.Completed = true
	return result, nil
}
