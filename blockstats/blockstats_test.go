package blockstats

import (
	"math"
	"strconv"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

type mapFetcher map[chainhash.Hash]*wire.MsgTx

func (m mapFetcher) FetchTx(txID *chainhash.Hash) (*wire.MsgTx, error) {
	tx, ok := m[*txID]
	if !ok {
		return nil, errNotFound
	}
	return tx, nil
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "no entry for transaction" }

func coinbaseTx(value int64) *wire.MsgTx {
	return &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Index: math.MaxUint32},
			SignatureScript:  []byte{0x01, 0x02},
		}},
		TxOut: []*wire.TxOut{{Value: value, PkScript: []byte{0x51}}},
	}
}

// testBlock builds a block with a coinbase and two spending transactions
// with fees 1000 and 3000, returning the block and a fetcher resolving the
// funded inputs.
func testBlock() (*wire.MsgBlock, mapFetcher) {
	var fund1, fund2 chainhash.Hash
	fund1[0] = 0xf1
	fund2[0] = 0xf2

	fetch := mapFetcher{
		fund1: {
			Version: 1,
			TxOut:   []*wire.TxOut{{Value: 10000, PkScript: []byte{0x51}}},
		},
		fund2: {
			Version: 1,
			TxOut:   []*wire.TxOut{{Value: 20000, PkScript: []byte{0x52}}},
		},
	}

	tx1 := &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Hash: fund1, Index: 0},
		}},
		TxOut: []*wire.TxOut{{Value: 9000, PkScript: []byte{0x53}}},
	}
	tx2 := &wire.MsgTx{
		Version: 1,
		TxIn: []*wire.TxIn{{
			PreviousOutPoint: wire.OutPoint{Hash: fund2, Index: 0},
		}},
		TxOut: []*wire.TxOut{{Value: 17000, PkScript: []byte{0x54}}},
	}

	block := &wire.MsgBlock{
		Transactions: []*wire.MsgTx{coinbaseTx(5000000000), tx1, tx2},
	}
	return block, fetch
}

func testMeta() *Meta {
	var hash chainhash.Hash
	hash[0] = 0xbb
	return &Meta{
		Hash:       hash,
		Height:     150,
		Time:       1700000100,
		MedianTime: 1700000000,
		Subsidy:    5000000000,
	}
}

func TestComputeTotals(t *testing.T) {
	block, fetch := testBlock()
	result, err := Compute(block, testMeta(), fetch, nil)
	require.NoError(t, err)

	totalOut, err := result.Key("total_out").NumText()
	require.NoError(t, err)
	// 9000 + 17000 satoshi; the coinbase reward is not counted.
	require.Equal(t, "0.00026000", totalOut)

	totalFee, err := result.Key("totalfee").NumText()
	require.NoError(t, err)
	require.Equal(t, "0.00004000", totalFee)

	avgFee, err := result.Key("avgfee").NumText()
	require.NoError(t, err)
	require.Equal(t, "0.00002000", avgFee)

	txs, err := result.Key("txs").Int()
	require.NoError(t, err)
	require.Equal(t, int64(3), txs)

	// The coinbase's fake input is not counted, its output is.
	ins, err := result.Key("ins").Int()
	require.NoError(t, err)
	require.Equal(t, int64(2), ins)
	outs, err := result.Key("outs").Int()
	require.NoError(t, err)
	require.Equal(t, int64(3), outs)

	medianFee, err := result.Key("medianfee").NumText()
	require.NoError(t, err)
	require.Equal(t, "0.00002000", medianFee)

	height, err := result.Key("height").Int()
	require.NoError(t, err)
	require.Equal(t, int64(150), height)
}

func TestPercentilesNonDecreasing(t *testing.T) {
	block, fetch := testBlock()
	result, err := Compute(block, testMeta(), fetch, nil)
	require.NoError(t, err)

	percentiles, err := result.Key("feerate_percentiles").Elems()
	require.NoError(t, err)
	require.Len(t, percentiles, 5)

	prev := -1.0
	for _, p := range percentiles {
		text, err := p.NumText()
		require.NoError(t, err)
		rate, err := strconv.ParseFloat(text, 64)
		require.NoError(t, err)
		require.GreaterOrEqual(t, rate, prev)
		prev = rate
	}
}

func TestSelectionFiltering(t *testing.T) {
	block, fetch := testBlock()

	result, err := Compute(block, testMeta(), fetch, NewSelection([]string{"txs", "outs"}))
	require.NoError(t, err)
	require.Equal(t, []string{"outs", "txs"}, result.Keys())

	_, err = Compute(block, testMeta(), fetch, NewSelection([]string{"no_such_stat"}))
	require.ErrorIs(t, err, ErrUnknownStat)
}

func TestInputStatsRequireFetcher(t *testing.T) {
	block, _ := testBlock()

	_, err := Compute(block, testMeta(), nil, NewSelection([]string{"totalfee"}))
	require.ErrorIs(t, err, ErrTxIndexRequired)

	// Output-only statistics work without an index.
	result, err := Compute(block, testMeta(), nil, NewSelection([]string{"total_out", "outs"}))
	require.NoError(t, err)
	text, err := result.Key("total_out").NumText()
	require.NoError(t, err)
	require.Equal(t, "0.00026000", text)
}

func TestCorruptIndexSurfaces(t *testing.T) {
	block, fetch := testBlock()
	// Drop one funding transaction to simulate a corrupt index.
	for id := range fetch {
		delete(fetch, id)
		break
	}
	_, err := Compute(block, testMeta(), fetch, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "tx index seems corrupt")
}

func TestTruncatedMedian(t *testing.T) {
	require.Equal(t, int64(0), truncatedMedianInt(nil))
	require.Equal(t, int64(5), truncatedMedianInt([]int64{5}))
	require.Equal(t, int64(7), truncatedMedianInt([]int64{9, 5, 7}))
	// Even counts average the two central elements with truncation.
	require.Equal(t, int64(6), truncatedMedianInt([]int64{5, 9, 8, 4}))
}

func TestPercentileBackfill(t *testing.T) {
	scores := []feeSizePair{{feerate: 2, size: 100}}
	result := percentilesBySize(scores, 1000)
	// A single element reaching only the first thresholds still fills the
	// rest with the maximum feerate.
	for _, p := range result {
		require.Equal(t, int64(2), int64(p))
	}

	var zero [5]btcutil.Amount
	require.Equal(t, zero, percentilesBySize(nil, 0))
}
