package utxo

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// abortingCursor requests an abort on the controller after a fixed number of
// reads, making cooperative cancellation deterministic in tests.
type abortingCursor struct {
	*memCursor
	controller *ScanController
	abortAfter int64
	reads      int64
}

func (c *abortingCursor) Key() (Outpoint, error) {
	c.reads++
	if c.reads == c.abortAfter {
		c.controller.RequestAbort()
	}
	return c.memCursor.Key()
}

func manyItems(n int) []memItem {
	items := make([]memItem, 0, n)
	for i := 0; i < n; i++ {
		var op Outpoint
		op.TxID[0] = byte(i >> 8)
		op.TxID[1] = byte(i)
		op.Index = 0
		items = append(items, memItem{op, &Coin{Value: 1, PkScript: []byte{0x51}, Height: 1}})
	}
	return items
}

func TestScanFindsNeedles(t *testing.T) {
	needleScript := []byte{0x76, 0xa9, 0x14, 0x01}
	items := manyItems(500)
	items[10].coin = &Coin{Value: 5000, PkScript: needleScript, Height: 7}
	items[499].coin = &Coin{Value: 2500, PkScript: needleScript, Height: 9}

	controller := NewScanController()
	require.True(t, controller.Reserve())
	defer controller.Release()

	needles := map[string]struct{}{string(needleScript): {}}
	result, err := controller.Scan(newMemCursor(items), needles)
	require.NoError(t, err)

	require.True(t, result.Completed)
	require.Equal(t, int64(500), result.SearchedItems)
	require.Len(t, result.Matches, 2)
	require.Equal(t, int64(7500), int64(result.TotalAmount))
	require.Equal(t, items[10].op, result.Matches[0].Outpoint)
	require.Equal(t, int32(100), controller.Progress())
}

func TestScanAbort(t *testing.T) {
	controller := NewScanController()
	require.True(t, controller.Reserve())
	defer controller.Release()

	cursor := &abortingCursor{
		memCursor:  newMemCursor(manyItems(3 * abortPollInterval)),
		controller: controller,
		abortAfter: abortPollInterval - 1,
	}
	result, err := controller.Scan(cursor, map[string]struct{}{})
	require.NoError(t, err)

	// The abort flag is only polled at batch boundaries.
	require.False(t, result.Completed)
	require.Equal(t, int64(abortPollInterval), result.SearchedItems)
}

func TestScanReservationExclusive(t *testing.T) {
	controller := NewScanController()

	const attempts = 8
	results := make([]bool, attempts)
	var wg sync.WaitGroup
	var start sync.WaitGroup
	start.Add(1)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			start.Wait()
			results[i] = controller.Reserve()
		}(i)
	}
	start.Done()
	wg.Wait()

	succeeded := 0
	for _, ok := range results {
		if ok {
			succeeded++
		}
	}
	// Exactly one concurrent start wins, regardless of interleaving.
	require.Equal(t, 1, succeeded)

	controller.Release()
	require.True(t, controller.Reserve())
	controller.Release()
}

func TestScanCursorFailure(t *testing.T) {
	controller := NewScanController()
	require.True(t, controller.Reserve())
	defer controller.Release()

	cursor := newMemCursor(manyItems(10))
	cursor.failAt = 4
	_, err := controller.Scan(cursor, map[string]struct{}{})
	require.ErrorIs(t, err, ErrCursorRead)
}

func TestScanProgressHeuristic(t *testing.T) {
	// 512 items whose transaction ids walk the top of the id space; after
	// the second progress republication the percentage reflects the
	// first two txid bytes of the item under the cursor.
	items := manyItems(512)
	for i := range items {
		items[i].op.TxID[0] = 0x80
		items[i].op.TxID[1] = 0x00
	}

	controller := NewScanController()
	require.True(t, controller.Reserve())
	defer controller.Release()

	_, err := controller.Scan(newMemCursor(items), map[string]struct{}{})
	require.NoError(t, err)
	// Finished scans always land on 100.
	require.Equal(t, int32(100), controller.Progress())
}
