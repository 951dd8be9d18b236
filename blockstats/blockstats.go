// Package blockstats computes per-block aggregate statistics: fee and size
// totals, truncated medians and size-weighted feerate percentiles. Input
// value lookups go through an external by-id transaction index; statistics
// that need them fail when no index is configured.
package blockstats

import (
	"math"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"

	"github.com/ternlabs/ternd/jsondoc"
)

// ErrTxIndexRequired reports that a requested statistic needs historical
// input lookups but no transaction index is available.
var ErrTxIndexRequired = errors.New(
	"one or more of the selected stats requires a transaction index")

// ErrUnknownStat reports a requested statistic name that does not exist.
var ErrUnknownStat = errors.New("invalid selected statistic")

// perUTXOOverhead approximates the bookkeeping bytes a new unspent output
// adds beyond its serialized form: outpoint, height and coinbase flag.
const perUTXOOverhead = 32 + 4 + 4 + 1

// TxFetcher looks up a transaction by id across the whole history,
// independent of pool or chain membership.
type TxFetcher interface {
	FetchTx(txID *chainhash.Hash) (*wire.MsgTx, error)
}

// Meta carries the chain facts about the block under aggregation that the
// block itself does not contain.
type Meta struct {
	Hash       chainhash.Hash
	Height     int32
	Time       int64
	MedianTime int64
	Subsidy    btcutil.Amount
}

// Selection is the set of requested statistic names; empty means all.
type Selection map[string]struct{}

// NewSelection builds a Selection from a name list.
func NewSelection(names []string) Selection {
	sel := make(Selection, len(names))
	for _, name := range names {
		sel[name] = struct{}{}
	}
	return sel
}

func (sel Selection) all() bool { return len(sel) == 0 }

func (sel Selection) has(names ...string) bool {
	for _, name := range names {
		if _, ok := sel[name]; ok {
			return true
		}
	}
	return false
}

// Compute aggregates the block's transactions and returns the statistics
// object, filtered to the selection after the full result is computed so an
// unknown name is always detected. Coinbase transactions are excluded from
// every fee, input and size statistic but counted in output totals.
func Compute(block *wire.MsgBlock, meta *Meta, fetch TxFetcher, sel Selection) (*jsondoc.Value, error) {
	doAll := sel.all()
	doMedianTxSize := doAll || sel.has("mediantxsize")
	doMedianFee := doAll || sel.has("medianfee")
	doFeeratePercentiles := doAll || sel.has("feerate_percentiles", "medianfeerate")
	loopInputs := doAll || doMedianFee || doFeeratePercentiles ||
		sel.has("utxo_size_inc", "totalfee", "avgfee", "avgfeerate",
			"minfee", "maxfee", "minfeerate", "maxfeerate")
	loopOutputs := doAll || loopInputs || sel.has("total_out")
	doCalculateSize := doMedianTxSize || loopInputs ||
		sel.has("total_size", "avgtxsize", "mintxsize", "maxtxsize")

	var (
		maxFee, maxFeerate btcutil.Amount
		totalOut, totalFee btcutil.Amount
		inputs, outputs    int64
		maxTxSize          int64
		totalSize          int64
		utxoSizeInc        int64
		feeArray           []btcutil.Amount
		feerateArray       []feeSizePair
		txSizeArray        []int64
	)
	minFee := btcutil.Amount(btcutil.MaxSatoshi)
	minFeerate := btcutil.Amount(btcutil.MaxSatoshi)
	minTxSize := int64(math.MaxInt64)

	for _, tx := range block.Transactions {
		outputs += int64(len(tx.TxOut))
		var txTotalOut btcutil.Amount
		if loopOutputs {
			for _, out := range tx.TxOut {
				txTotalOut += btcutil.Amount(out.Value)
				utxoSizeInc += serializedTxOutSize(out) + perUTXOOverhead
			}
		}

		if isCoinBase(tx) {
			continue
		}

		// The coinbase's fake input and reward output are not counted.
		inputs += int64(len(tx.TxIn))
		totalOut += txTotalOut

		var txSize int64
		if doCalculateSize {
			txSize = int64(tx.SerializeSize())
			if doMedianTxSize {
				txSizeArray = append(txSizeArray, txSize)
			}
			if txSize > maxTxSize {
				maxTxSize = txSize
			}
			if txSize < minTxSize {
				minTxSize = txSize
			}
			totalSize += txSize
		}

		if loopInputs {
			if fetch == nil {
				return nil, ErrTxIndexRequired
			}
			var txTotalIn btcutil.Amount
			for _, in := range tx.TxIn {
				prevTx, err := fetch.FetchTx(&in.PreviousOutPoint.Hash)
				if err != nil {
					return nil, errors.Wrap(err,
						"unexpected internal error (tx index seems corrupt)")
				}
				if int(in.PreviousOutPoint.Index) >= len(prevTx.TxOut) {
					return nil, errors.Errorf(
						"unexpected internal error (tx index seems corrupt): "+
							"missing output %d of %s",
						in.PreviousOutPoint.Index, in.PreviousOutPoint.Hash)
				}
				prevOut := prevTx.TxOut[in.PreviousOutPoint.Index]
				txTotalIn += btcutil.Amount(prevOut.Value)
				utxoSizeInc -= serializedTxOutSize(prevOut) + perUTXOOverhead
			}

			txFee := txTotalIn - txTotalOut
			if doMedianFee {
				feeArray = append(feeArray, txFee)
			}
			if txFee > maxFee {
				maxFee = txFee
			}
			if txFee < minFee {
				minFee = txFee
			}
			totalFee += txFee

			var feerate btcutil.Amount
			if txSize != 0 {
				feerate = txFee / btcutil.Amount(txSize)
			}
			if doFeeratePercentiles {
				feerateArray = append(feerateArray, feeSizePair{feerate, txSize})
			}
			if feerate > maxFeerate {
				maxFeerate = feerate
			}
			if feerate < minFeerate {
				minFeerate = feerate
			}
		}
	}

	feeratePercentiles := percentilesBySize(feerateArray, totalSize)
	percentilesValue := jsondoc.NewArray()
	for _, p := range feeratePercentiles {
		percentilesValue.Append(jsondoc.NewAmount(p))
	}

	txCount := int64(len(block.Transactions))
	avgFee := btcutil.Amount(0)
	avgTxSize := int64(0)
	if txCount > 1 {
		avgFee = totalFee / btcutil.Amount(txCount-1)
		avgTxSize = totalSize / (txCount - 1)
	}
	avgFeerate := btcutil.Amount(0)
	if totalSize > 0 {
		avgFeerate = totalFee / btcutil.Amount(totalSize)
	}
	if minFee == btcutil.Amount(btcutil.MaxSatoshi) {
		minFee = 0
	}
	if minFeerate == btcutil.Amount(btcutil.MaxSatoshi) {
		minFeerate = 0
	}
	if minTxSize == math.MaxInt64 {
		minTxSize = 0
	}

	all := jsondoc.NewObject()
	all.PushKV("avgfee", jsondoc.NewAmount(avgFee))
	all.PushKV("avgfeerate", jsondoc.NewAmount(avgFeerate))
	all.PushKV("avgtxsize", jsondoc.NewInt(avgTxSize))
	all.PushKV("blockhash", jsondoc.NewString(meta.Hash.String()))
	all.PushKV("feerate_percentiles", percentilesValue)
	all.PushKV("height", jsondoc.NewInt(int64(meta.Height)))
	all.PushKV("ins", jsondoc.NewInt(inputs))
	all.PushKV("maxfee", jsondoc.NewAmount(maxFee))
	all.PushKV("maxfeerate", jsondoc.NewAmount(maxFeerate))
	all.PushKV("maxtxsize", jsondoc.NewInt(maxTxSize))
	all.PushKV("medianfee", jsondoc.NewAmount(truncatedMedianAmount(feeArray)))
	all.PushKV("medianfeerate", jsondoc.NewAmount(feeratePercentiles[2]))
	all.PushKV("mediantime", jsondoc.NewInt(meta.MedianTime))
	all.PushKV("mediantxsize", jsondoc.NewInt(truncatedMedianInt(txSizeArray)))
	all.PushKV("minfee", jsondoc.NewAmount(minFee))
	all.PushKV("minfeerate", jsondoc.NewAmount(minFeerate))
	all.PushKV("mintxsize", jsondoc.NewInt(minTxSize))
	all.PushKV("outs", jsondoc.NewInt(outputs))
	all.PushKV("subsidy", jsondoc.NewAmount(meta.Subsidy))
	all.PushKV("time", jsondoc.NewInt(meta.Time))
	all.PushKV("total_out", jsondoc.NewAmount(totalOut))
	all.PushKV("total_size", jsondoc.NewInt(totalSize))
	all.PushKV("totalfee", jsondoc.NewAmount(totalFee))
	all.PushKV("txs", jsondoc.NewInt(txCount))
	all.PushKV("utxo_increase", jsondoc.NewInt(outputs-inputs))
	all.PushKV("utxo_size_inc", jsondoc.NewInt(utxoSizeInc))

	if doAll {
		return all, nil
	}

	names := make([]string, 0, len(sel))
	for name := range sel {
		names = append(names, name)
	}
	sort.Strings(names)

	filtered := jsondoc.NewObject()
	for _, name := range names {
		value := all.Key(name)
		if value.IsNull() {
			return nil, errors.Wrap(ErrUnknownStat, name)
		}
		filtered.PushKV(name, value)
	}
	return filtered, nil
}

// feeSizePair pairs a transaction's feerate with its serialized size for
// size-weighted percentile selection.
type feeSizePair struct {
	feerate btcutil.Amount
	size    int64
}

// percentilesBySize returns the 10th, 25th, 50th, 75th and 90th percentile
// feerates weighted by transaction size. Each threshold takes the feerate of
// the first transaction, in ascending feerate order, whose cumulative size
// reaches it; thresholds past the end take the maximum feerate.
func percentilesBySize(scores []feeSizePair, totalSize int64) [5]btcutil.Amount {
	var result [5]btcutil.Amount
	if len(scores) == 0 {
		return result
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].feerate != scores[j].feerate {
			return scores[i].feerate < scores[j].feerate
		}
		return scores[i].size < scores[j].size
	})

	weights := [5]float64{
		float64(totalSize) / 10.0,
		float64(totalSize) / 4.0,
		float64(totalSize) / 2.0,
		float64(totalSize) * 3.0 / 4.0,
		float64(totalSize) * 9.0 / 10.0,
	}

	next := 0
	cumulative := int64(0)
	for _, score := range scores {
		cumulative += score.size
		for next < len(result) && float64(cumulative) >= weights[next] {
			result[next] = score.feerate
			next++
		}
	}
	for ; next < len(result); next++ {
		result[next] = scores[len(scores)-1].feerate
	}
	return result
}

func truncatedMedianAmount(scores []btcutil.Amount) btcutil.Amount {
	size := len(scores)
	if size == 0 {
		return 0
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i] < scores[j] })
	if size%2 == 0 {
		return (scores[size/2-1] + scores[size/2]) / 2
	}
	return scores[size/2]
}

func truncatedMedianInt(scores []int64) int64 {
	size := len(scores)
	if size == 0 {
		return 0
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i] < scores[j] })
	if size%2 == 0 {
		return (scores[size/2-1] + scores[size/2]) / 2
	}
	return scores[size/2]
}

func serializedTxOutSize(out *wire.TxOut) int64 {
	return 8 + int64(wire.VarIntSerializeSize(uint64(len(out.PkScript)))) +
		int64(len(out.PkScript))
}

func isCoinBase(tx *wire.MsgTx) bool {
	if len(tx.TxIn) != 1 {
		return false
	}
	prevOut := &tx.TxIn[0].PreviousOutPoint
	return prevOut.Index == math.MaxUint32 && prevOut.Hash == (chainhash.Hash{})
}
