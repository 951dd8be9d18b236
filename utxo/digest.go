package utxo

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/kaspanet/go-muhash"
	"github.com/pkg/errors"
)

// perCoinOverhead is the storage-independent per-output size proxy:
// txid + vout index + height/coinbase field + amount + script length prefix.
const perCoinOverhead = 32 + 4 + 4 + 8 + 2

// SetStats summarizes the entire unspent-output set at one snapshot.
type SetStats struct {
	Height       int32
	BestBlock    chainhash.Hash
	Transactions uint64
	TxOuts       uint64

	// BogoSize is a synthetic size metric independent of the backing
	// store's representation.
	BogoSize uint64

	// Digest is the order-independent multiset hash over the snapshot.
	Digest chainhash.Hash

	DiskSize    uint64
	TotalAmount btcutil.Amount
}

// CalculateSetStats streams the full set once, folding each run of outputs
// sharing a transaction id into a multiset hash seeded with the snapshot's
// best-block hash, and accumulating the aggregate counters. heightOf maps
// the best-block hash to its chain height.
func CalculateSetStats(view View, heightOf func(*chainhash.Hash) (int32, error)) (*SetStats, error) {
	cursor, err := view.Cursor()
	if err != nil {
		return nil, err
	}

	stats := &SetStats{}
	stats.BestBlock, err = view.BestBlock()
	if err != nil {
		return nil, err
	}
	stats.Height, err = heightOf(&stats.BestBlock)
	if err != nil {
		return nil, err
	}

	mu := muhash.NewMuHash()
	mu.Add(stats.BestBlock[:])

	var prevTxID chainhash.Hash
	group := make(map[uint32]*Coin)
	for cursor.Valid() {
		key, err := cursor.Key()
		if err != nil {
			return nil, errors.Wrap(ErrCursorRead, err.Error())
		}
		coin, err := cursor.Coin()
		if err != nil {
			return nil, errors.Wrap(ErrCursorRead, err.Error())
		}
		if len(group) != 0 && key.TxID != prevTxID {
			applyGroup(stats, mu, &prevTxID, group)
			group = make(map[uint32]*Coin)
		}
		prevTxID = key.TxID
		group[key.Index] = coin
		cursor.Next()
	}
	if len(group) != 0 {
		applyGroup(stats, mu, &prevTxID, group)
	}

	finalized := mu.Finalize()
	stats.Digest = chainhash.Hash(*finalized.AsArray())
	stats.DiskSize, err = view.EstimateDiskSize()
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// applyGroup folds one transaction's unspent outputs into the digest and the
// running counters.
func applyGroup(stats *SetStats, mu *muhash.MuHash, txID *chainhash.Hash, group map[uint32]*Coin) {
	mu.Add(SerializeCoinGroup(txID, group))
	stats.Transactions++
	for _, coin := range group {
		stats.TxOuts++
		stats.TotalAmount += coin.Value
		stats.BogoSize += perCoinOverhead + uint64(len(coin.PkScript))
	}
}

// SerializeCoinGroup encodes one transaction's unspent outputs for hashing:
// the transaction id, the first output's height doubled plus its coinbase
// flag, then every output in index order as index+1, locking script and
// value, terminated by a zero sentinel.
func SerializeCoinGroup(txID *chainhash.Hash, group map[uint32]*Coin) []byte {
	indexes := make([]uint32, 0, len(group))
	for index := range group {
		indexes = append(indexes, index)
	}
	sort.Slice(indexes, func(i, j int) bool { return indexes[i] < indexes[j] })

	var buf bytes.Buffer
	buf.Write(txID[:])
	first := group[indexes[0]]
	code := uint64(first.Height) * 2
	if first.Coinbase {
		code++
	}
	writeVarInt(&buf, code)
	for _, index := range indexes {
		coin := group[index]
		writeVarInt(&buf, uint64(index)+1)
		wire.WriteVarBytes(&buf, 0, coin.PkScript)
		writeVarInt(&buf, uint64(coin.Value))
	}
	writeVarInt(&buf, 0)
	return buf.Bytes()
}

func writeVarInt(buf *bytes.Buffer, v uint64) {
	// bytes.Buffer writes never fail.
	_ = wire.WriteVarInt(buf, 0, v)
}
