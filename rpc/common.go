package rpc

import (
	"math/big"
	"sort"

	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/ternlabs/ternd/blockindex"
	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/mempool"
	"github.com/ternlabs/ternd/rpcmodel"
)

// parseHash turns a caller-supplied hash string into a chainhash, mapping
// malformed input onto the parameter error category.
func parseHash(hashStr string) (*chainhash.Hash, error) {
	hash, err := chainhash.NewHashFromStr(hashStr)
	if err != nil {
		return nil, rpcmodel.NewErrorf(rpcmodel.ErrInvalidParameter,
			"Invalid hash: %s", hashStr)
	}
	return hash, nil
}

// sortedIDStrings renders pool entries as a deterministic list of id strings.
func sortedIDStrings(entries []*mempool.Entry) []string {
	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.TxID.String())
	}
	sort.Strings(ids)
	return ids
}

// idArray renders a sorted id list as a jsondoc array.
func idArray(ids []string) *jsondoc.Value {
	arr := jsondoc.NewArray()
	for _, id := range ids {
		arr.Append(jsondoc.NewString(id))
	}
	return arr
}

// mempoolEntryToJSON renders the verbose form of a pool entry: its own fee
// and size figures, the ancestor/descendant aggregates, and the sorted direct
// dependency lists.
func mempoolEntryToJSON(pool *mempool.Pool, entry *mempool.Entry) *jsondoc.Value {
	fees := jsondoc.NewObject()
	fees.PushKV("base", jsondoc.NewAmount(entry.Fee))
	fees.PushKV("modified", jsondoc.NewAmount(entry.ModFee))
	fees.PushKV("ancestor", jsondoc.NewAmount(entry.AncestorFees))
	fees.PushKV("descendant", jsondoc.NewAmount(entry.DescendantFees))

	result := jsondoc.NewObject()
	result.PushKV("fees", fees)
	result.PushKV("size", jsondoc.NewInt(entry.Size))
	result.PushKV("fee", jsondoc.NewAmount(entry.Fee))
	result.PushKV("modifiedfee", jsondoc.NewAmount(entry.ModFee))
	result.PushKV("time", jsondoc.NewInt(entry.Time.Unix()))
	result.PushKV("height", jsondoc.NewInt(int64(entry.Height)))
	result.PushKV("descendantcount", jsondoc.NewInt(entry.DescendantCount))
	result.PushKV("descendantsize", jsondoc.NewInt(entry.DescendantSize))
	result.PushKV("descendantfees", jsondoc.NewInt(int64(entry.DescendantFees)))
	result.PushKV("ancestorcount", jsondoc.NewInt(entry.AncestorCount))
	result.PushKV("ancestorsize", jsondoc.NewInt(entry.AncestorSize))
	result.PushKV("ancestorfees", jsondoc.NewInt(int64(entry.AncestorFees)))
	result.PushKV("depends", idArray(sortedIDStrings(pool.Parents(&entry.TxID))))
	result.PushKV("spentby", idArray(sortedIDStrings(pool.Children(&entry.TxID))))
	return result
}

// medianTimeOf returns the median timestamp of the node and its closest ten
// ancestors, the usual median-time-past window.
func medianTimeOf(chain *blockindex.Index, node *blockindex.Node) int64 {
	const window = 11
	times := make([]int64, 0, window)
	for iter := node; iter != nil && len(times) < window; {
		times = append(times, iter.Time)
		iter = chain.LookupNode(&iter.ParentHash)
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	return times[len(times)/2]
}

// difficultyRatio renders the proof-of-work difficulty as a multiple of the
// network's minimum difficulty, computed in rational arithmetic so the eight
// decimal places are exact.
func difficultyRatio(bits uint32, params *chaincfg.Params) (*jsondoc.Value, error) {
	target := blockchain.CompactToBig(bits)
	if target.Sign() <= 0 {
		return jsondoc.NewInt(0), nil
	}
	ratio := new(big.Rat).SetFrac(blockchain.CompactToBig(params.PowLimitBits), target)
	return jsondoc.NewNumber(ratio.FloatString(8))
}

// subsidyAtHeight returns the block subsidy under the halving schedule of the
// given network.
func subsidyAtHeight(height int32, params *chaincfg.Params) btcutil.Amount {
	base := btcutil.Amount(50 * btcutil.SatoshiPerBitcoin)
	if params.SubsidyReductionInterval == 0 {
		return base
	}
	halvings := uint(height / params.SubsidyReductionInterval)
	if halvings >= 64 {
		return 0
	}
	return base >> halvings
}
