package utxo

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type memItem struct {
	op   Outpoint
	coin *Coin
}

// memCursor is an in-memory cursor over a fixed item list.
type memCursor struct {
	items []memItem
	pos   int

	// failAt makes Coin() fail at the given position, -1 to disable.
	failAt int
}

func newMemCursor(items []memItem) *memCursor {
	return &memCursor{items: items, failAt: -1}
}

func (c *memCursor) Valid() bool { return c.pos < len(c.items) }
func (c *memCursor) Next()       { c.pos++ }

func (c *memCursor) Key() (Outpoint, error) {
	return c.items[c.pos].op, nil
}

func (c *memCursor) Coin() (*Coin, error) {
	if c.pos == c.failAt {
		return nil, errors.New("corrupt record")
	}
	return c.items[c.pos].coin, nil
}

// memView is an in-memory store snapshot.
type memView struct {
	items     []memItem
	bestBlock chainhash.Hash
	diskSize  uint64
}

func (v *memView) Cursor() (Cursor, error) {
	return newMemCursor(v.items), nil
}

func (v *memView) BestBlock() (chainhash.Hash, error) {
	return v.bestBlock, nil
}

func (v *memView) EstimateDiskSize() (uint64, error) {
	return v.diskSize, nil
}

func (v *memView) CoinByOutpoint(op Outpoint) (*Coin, error) {
	for _, item := range v.items {
		if item.op == op {
			return item.coin, nil
		}
	}
	return nil, nil
}

func hashFromByte(b byte) chainhash.Hash {
	var hash chainhash.Hash
	hash[0] = b
	return hash
}

func constHeight(height int32) func(*chainhash.Hash) (int32, error) {
	return func(*chainhash.Hash) (int32, error) { return height, nil }
}

func TestSetStatsSingleTransaction(t *testing.T) {
	txID := hashFromByte(0xaa)
	best := hashFromByte(0x01)
	script1 := []byte{0x51}
	script2 := []byte{0x52, 0x53}

	view := &memView{
		items: []memItem{
			{Outpoint{txID, 0}, &Coin{Value: 5000, PkScript: script1, Height: 100}},
			{Outpoint{txID, 1}, &Coin{Value: 2500, PkScript: script2, Height: 100}},
		},
		bestBlock: best,
		diskSize:  4096,
	}

	stats, err := CalculateSetStats(view, constHeight(100))
	require.NoError(t, err)

	require.Equal(t, int32(100), stats.Height)
	require.Equal(t, best, stats.BestBlock)
	require.Equal(t, uint64(1), stats.Transactions)
	require.Equal(t, uint64(2), stats.TxOuts)
	require.Equal(t, int64(7500), int64(stats.TotalAmount))
	require.Equal(t, uint64(4096), stats.DiskSize)

	// 50 bytes of fixed overhead plus the script length, per output.
	require.Equal(t, uint64(50+1+50+2), stats.BogoSize)

	// The digest must equal hashing the best-block hash and then the
	// transaction's outputs in index order with the zero sentinel.
	mu := muhash.NewMuHash()
	mu.Add(best[:])
	mu.Add(SerializeCoinGroup(&txID, map[uint32]*Coin{
		0: {Value: 5000, PkScript: script1, Height: 100},
		1: {Value: 2500, PkScript: script2, Height: 100},
	}))
	finalized := mu.Finalize()
	require.Equal(t, chainhash.Hash(*finalized.AsArray()), stats.Digest)
}

func TestSetStatsOrderIndependence(t *testing.T) {
	best := hashFromByte(0x07)
	txA := hashFromByte(0x10)
	txB := hashFromByte(0x20)

	groupA := []memItem{
		{Outpoint{txA, 0}, &Coin{Value: 100, PkScript: []byte{0x51}, Height: 5}},
		{Outpoint{txA, 3}, &Coin{Value: 200, PkScript: []byte{0x52}, Height: 5}},
	}
	groupB := []memItem{
		{Outpoint{txB, 1}, &Coin{Value: 300, PkScript: []byte{0x53}, Height: 9, Coinbase: true}},
	}

	forward := &memView{items: append(append([]memItem{}, groupA...), groupB...), bestBlock: best}
	// Same logical snapshot with group order and intra-group order
	// changed; grouping by transaction id is preserved.
	reversed := &memView{
		items:     []memItem{groupB[0], groupA[1], groupA[0]},
		bestBlock: best,
	}

	statsFwd, err := CalculateSetStats(forward, constHeight(9))
	require.NoError(t, err)
	statsRev, err := CalculateSetStats(reversed, constHeight(9))
	require.NoError(t, err)

	require.Equal(t, statsFwd.Digest, statsRev.Digest)
	require.Equal(t, statsFwd.Transactions, statsRev.Transactions)
	require.Equal(t, statsFwd.TxOuts, statsRev.TxOuts)
	require.Equal(t, statsFwd.TotalAmount, statsRev.TotalAmount)
	require.Equal(t, statsFwd.BogoSize, statsRev.BogoSize)
}

func TestSetStatsCursorFailure(t *testing.T) {
	txID := hashFromByte(0x33)
	view := &memView{
		items: []memItem{
			{Outpoint{txID, 0}, &Coin{Value: 1, PkScript: []byte{0x51}, Height: 1}},
		},
		bestBlock: hashFromByte(0x02),
	}

	cursor := newMemCursor(view.items)
	cursor.failAt = 0
	failing := &failingView{memView: view, cursor: cursor}

	_, err := CalculateSetStats(failing, constHeight(1))
	require.ErrorIs(t, err, ErrCursorRead)
}

// failingView returns a pre-built cursor so tests can inject read failures.
type failingView struct {
	*memView
	cursor Cursor
}

func (v *failingView) Cursor() (Cursor, error) {
	return v.cursor, nil
}

func TestSetStatsEmpty(t *testing.T) {
	view := &memView{bestBlock: hashFromByte(0x05)}
	stats, err := CalculateSetStats(view, constHeight(0))
	require.NoError(t, err)
	require.Zero(t, stats.Transactions)
	require.Zero(t, stats.TxOuts)
	require.Zero(t, stats.TotalAmount)
}
