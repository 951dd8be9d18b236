// Package coindb is a goleveldb-backed unspent-output store satisfying the
// utxo.View contract. Coin records are keyed by transaction id and output
// index, so cursor iteration naturally yields outputs of one transaction
// contiguously and in index order.
package coindb

import (
	"bytes"
	"encoding/binary"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/ternlabs/ternd/utxo"
)

var (
	coinPrefix   = []byte("c")
	bestBlockKey = []byte("B")
)

// DB is an unspent-output store.
type DB struct {
	ldb *leveldb.DB
}

// Open opens (creating if necessary) a store at the given path.
func Open(path string) (*DB, error) {
	ldb, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open coin store at %s", path)
	}
	return &DB{ldb: ldb}, nil
}

// OpenMem opens an in-memory store, used by tests and tooling.
func OpenMem() (*DB, error) {
	ldb, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &DB{ldb: ldb}, nil
}

// Close releases the underlying database.
func (db *DB) Close() error {
	return db.ldb.Close()
}

func coinKey(op utxo.Outpoint) []byte {
	key := make([]byte, 0, 1+chainhash.HashSize+4)
	key = append(key, coinPrefix...)
	key = append(key, op.TxID[:]...)
	var index [4]byte
	binary.BigEndian.PutUint32(index[:], op.Index)
	return append(key, index[:]...)
}

func serializeCoin(coin *utxo.Coin) []byte {
	var buf bytes.Buffer
	code := uint64(coin.Height) * 2
	if coin.Coinbase {
		code++
	}
	wire.WriteVarInt(&buf, 0, code)
	wire.WriteVarInt(&buf, 0, uint64(coin.Value))
	buf.Write(coin.PkScript)
	return buf.Bytes()
}

func deserializeCoin(serialized []byte) (*utxo.Coin, error) {
	reader := bytes.NewReader(serialized)
	code, err := wire.ReadVarInt(reader, 0)
	if err != nil {
		return nil, errors.Wrap(err, "corrupt coin record")
	}
	value, err := wire.ReadVarInt(reader, 0)
	if err != nil {
		return nil, errors.Wrap(err, "corrupt coin record")
	}
	script := make([]byte, reader.Len())
	reader.Read(script)
	return &utxo.Coin{
		Value:    btcutil.Amount(value),
		PkScript: script,
		Height:   int32(code / 2),
		Coinbase: code&1 == 1,
	}, nil
}

// PutCoin writes one unspent output.
func (db *DB) PutCoin(op utxo.Outpoint, coin *utxo.Coin) error {
	return db.ldb.Put(coinKey(op), serializeCoin(coin), nil)
}

// DeleteCoin removes one unspent output.
func (db *DB) DeleteCoin(op utxo.Outpoint) error {
	return db.ldb.Delete(coinKey(op), nil)
}

// SetBestBlock records the hash the stored set is consistent with.
func (db *DB) SetBestBlock(hash chainhash.Hash) error {
	return db.ldb.Put(bestBlockKey, hash[:], nil)
}

// BestBlock returns the hash of the block the set is consistent with.
func (db *DB) BestBlock() (chainhash.Hash, error) {
	var hash chainhash.Hash
	serialized, err := db.ldb.Get(bestBlockKey, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return hash, nil
	}
	if err != nil {
		return hash, err
	}
	copy(hash[:], serialized)
	return hash, nil
}

// CoinByOutpoint returns the coin for the outpoint, or nil when it does not
// exist.
func (db *DB) CoinByOutpoint(op utxo.Outpoint) (*utxo.Coin, error) {
	serialized, err := db.ldb.Get(coinKey(op), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return deserializeCoin(serialized)
}

// EstimateDiskSize returns the store's estimate of the coin records'
// on-disk footprint.
func (db *DB) EstimateDiskSize() (uint64, error) {
	r := util.BytesPrefix(coinPrefix)
	sizes, err := db.ldb.SizeOf([]util.Range{{Start: r.Start, Limit: r.Limit}})
	if err != nil {
		return 0, err
	}
	return uint64(sizes.Sum()), nil
}

// Cursor opens a cursor over a snapshot of all coin records.
func (db *DB) Cursor() (utxo.Cursor, error) {
	snap, err := db.ldb.GetSnapshot()
	if err != nil {
		return nil, err
	}
	iter := snap.NewIterator(util.BytesPrefix(coinPrefix), nil)
	cursor := &cursor{snap: snap, iter: iter}
	cursor.valid = iter.Next()
	if !cursor.valid {
		cursor.release()
	}
	return cursor, nil
}

type cursor struct {
	snap     *leveldb.Snapshot
	iter     iterator.Iterator
	valid    bool
	released bool
}

func (c *cursor) release() {
	if !c.released {
		c.iter.Release()
		c.snap.Release()
		c.released = true
	}
}

func (c *cursor) Valid() bool { return c.valid }

func (c *cursor) Next() {
	c.valid = c.iter.Next()
	if !c.valid {
		c.release()
	}
}

func (c *cursor) Key() (utxo.Outpoint, error) {
	key := c.iter.Key()
	if len(key) != 1+chainhash.HashSize+4 {
		return utxo.Outpoint{}, errors.Errorf("malformed coin key of length %d", len(key))
	}
	var op utxo.Outpoint
	copy(op.TxID[:], key[1:1+chainhash.HashSize])
	op.Index = binary.BigEndian.Uint32(key[1+chainhash.HashSize:])
	return op, nil
}

func (c *cursor) Coin() (*utxo.Coin, error) {
	return deserializeCoin(c.iter.Value())
}
