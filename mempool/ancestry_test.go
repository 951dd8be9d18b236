package mempool

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

var nextTxByte byte

func testID() chainhash.Hash {
	nextTxByte++
	var id chainhash.Hash
	id[0] = nextTxByte
	return id
}

// testEntry builds an entry spending output 0 of each given parent.
func testEntry(size int64, parents ...*Entry) *Entry {
	tx := &wire.MsgTx{Version: 1}
	for _, parent := range parents {
		tx.TxIn = append(tx.TxIn, &wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Hash: parent.TxID},
		})
	}
	if len(parents) == 0 {
		tx.TxIn = append(tx.TxIn, &wire.TxIn{
			PreviousOutPoint: wire.OutPoint{Hash: testID()},
		})
	}
	return &Entry{
		Tx:              tx,
		TxID:            testID(),
		Fee:             1000,
		ModFee:          1000,
		Size:            size,
		Time:            time.Unix(1700000000, 0),
		Height:          100,
		AncestorCount:   1,
		AncestorSize:    size,
		DescendantCount: 1,
		DescendantSize:  size,
	}
}

func ids(entries []*Entry) map[chainhash.Hash]bool {
	set := make(map[chainhash.Hash]bool, len(entries))
	for _, entry := range entries {
		set[entry.TxID] = true
	}
	return set
}

func TestAncestryChain(t *testing.T) {
	pool := New()
	a := testEntry(100)
	b := testEntry(200, a)
	c := testEntry(300, b)
	pool.Add(a)
	pool.Add(b)
	pool.Add(c)

	ancestors, err := pool.Ancestors(&c.TxID, UnlimitedAncestry())
	require.NoError(t, err)
	require.Equal(t, map[chainhash.Hash]bool{a.TxID: true, b.TxID: true}, ids(ancestors))

	descendants, err := pool.Descendants(&a.TxID)
	require.NoError(t, err)
	require.Equal(t, map[chainhash.Hash]bool{b.TxID: true, c.TxID: true}, ids(descendants))

	// The target is excluded from its own descendant set.
	require.False(t, ids(descendants)[a.TxID])
}

func TestAncestryInverse(t *testing.T) {
	pool := New()
	a := testEntry(100)
	b := testEntry(100, a)
	c := testEntry(100, a, b)
	d := testEntry(100, b)
	for _, entry := range []*Entry{a, b, c, d} {
		pool.Add(entry)
	}

	for _, target := range []*Entry{a, b, c, d} {
		ancestors, err := pool.Ancestors(&target.TxID, UnlimitedAncestry())
		require.NoError(t, err)
		for _, ancestor := range ancestors {
			descendants, err := pool.Descendants(&ancestor.TxID)
			require.NoError(t, err)
			require.Truef(t, ids(descendants)[target.TxID],
				"%s in ancestors(%s) but %s not in descendants(%s)",
				ancestor.TxID, target.TxID, target.TxID, ancestor.TxID)
		}
	}
}

func TestAncestryDiamondDeduplicates(t *testing.T) {
	pool := New()
	a := testEntry(100)
	b := testEntry(100, a)
	c := testEntry(100, a)
	d := testEntry(100, b, c)
	for _, entry := range []*Entry{a, b, c, d} {
		pool.Add(entry)
	}

	ancestors, err := pool.Ancestors(&d.TxID, UnlimitedAncestry())
	require.NoError(t, err)
	require.Len(t, ancestors, 3)

	descendants, err := pool.Descendants(&a.TxID)
	require.NoError(t, err)
	require.Len(t, descendants, 3)
}

func TestAncestryNotFound(t *testing.T) {
	pool := New()
	unknown := testID()

	_, err := pool.Ancestors(&unknown, UnlimitedAncestry())
	require.ErrorIs(t, err, ErrTxNotInPool)

	_, err = pool.Descendants(&unknown)
	require.ErrorIs(t, err, ErrTxNotInPool)
}

func TestAncestryLimits(t *testing.T) {
	pool := New()
	a := testEntry(100)
	b := testEntry(200, a)
	c := testEntry(300, b)
	for _, entry := range []*Entry{a, b, c} {
		pool.Add(entry)
	}

	limits := UnlimitedAncestry()
	limits.AncestorCount = 2
	_, err := pool.Ancestors(&c.TxID, limits)
	require.Error(t, err)
	require.Contains(t, err.Error(), "ancestors")

	limits = UnlimitedAncestry()
	limits.AncestorSize = 400
	_, err = pool.Ancestors(&c.TxID, limits)
	require.Error(t, err)
	require.Contains(t, err.Error(), "size")

	// Generous limits pass.
	limits = UnlimitedAncestry()
	limits.AncestorCount = 3
	limits.AncestorSize = 600
	ancestors, err := pool.Ancestors(&c.TxID, limits)
	require.NoError(t, err)
	require.Len(t, ancestors, 2)
}

func TestPoolAdjacencyAndInfo(t *testing.T) {
	pool := New()
	a := testEntry(100)
	b := testEntry(200, a)
	pool.Add(a)
	pool.Add(b)

	require.Equal(t, 2, pool.Count())
	require.Equal(t, int64(300), pool.TotalSize())
	require.True(t, pool.Have(&a.TxID))

	children := pool.Children(&a.TxID)
	require.Len(t, children, 1)
	require.Equal(t, b.TxID, children[0].TxID)

	parents := pool.Parents(&b.TxID)
	require.Len(t, parents, 1)
	require.Equal(t, a.TxID, parents[0].TxID)

	pool.Remove(&b.TxID)
	require.Equal(t, 1, pool.Count())
	require.Equal(t, int64(100), pool.TotalSize())
	require.Empty(t, pool.Children(&a.TxID))
}
