// Package mempool holds the unconfirmed-transaction pool model consumed by
// the query layer: an arena of entries keyed by transaction id with parent
// and child adjacency, and transitive ancestor/descendant set computation
// with resource-limit short-circuiting.
package mempool

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"
)

// ErrTxNotInPool is returned when a queried transaction id has no pool
// entry. Absence is a distinct condition, not an empty result.
var ErrTxNotInPool = errors.New("transaction is not in the pool")

// Entry is a pool-resident transaction together with its fee and size
// figures and the count/size/fee aggregates over its in-pool ancestors and
// descendants, each including the entry itself. The aggregates are
// maintained by the acceptance path and read-only here.
type Entry struct {
	Tx     *wire.MsgTx
	TxID   chainhash.Hash
	Fee    btcutil.Amount
	ModFee btcutil.Amount
	Size   int64
	Time   time.Time
	Height int32

	AncestorCount   int64
	AncestorSize    int64
	AncestorFees    btcutil.Amount
	DescendantCount int64
	DescendantSize  int64
	DescendantFees  btcutil.Amount
}

// Pool is the pool arena. Its lock is independent of the chain lock and is
// held for the duration of a dependency traversal.
type Pool struct {
	mtx sync.RWMutex

	entries  map[chainhash.Hash]*Entry
	parents  map[chainhash.Hash]map[chainhash.Hash]*Entry
	children map[chainhash.Hash]map[chainhash.Hash]*Entry

	totalSize int64
	totalFee  btcutil.Amount

	// MinFeeRatePerKB is the pool's acceptance floor, reported by info
	// queries.
	MinFeeRatePerKB btcutil.Amount
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{
		entries:  make(map[chainhash.Hash]*Entry),
		parents:  make(map[chainhash.Hash]map[chainhash.Hash]*Entry),
		children: make(map[chainhash.Hash]map[chainhash.Hash]*Entry),
	}
}

// Add inserts an entry and links it to any in-pool transactions its inputs
// spend. Called by the acceptance path.
func (p *Pool) Add(entry *Entry) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	p.entries[entry.TxID] = entry
	p.totalSize += entry.Size
	p.totalFee += entry.Fee

	for _, txIn := range entry.Tx.TxIn {
		parent, ok := p.entries[txIn.PreviousOutPoint.Hash]
		if !ok {
			continue
		}
		if p.parents[entry.TxID] == nil {
			p.parents[entry.TxID] = make(map[chainhash.Hash]*Entry)
		}
		p.parents[entry.TxID][parent.TxID] = parent
		if p.children[parent.TxID] == nil {
			p.children[parent.TxID] = make(map[chainhash.Hash]*Entry)
		}
		p.children[parent.TxID][entry.TxID] = entry
	}
}

// Remove deletes an entry and its adjacency links.
func (p *Pool) Remove(txID *chainhash.Hash) {
	p.mtx.Lock()
	defer p.mtx.Unlock()

	entry, ok := p.entries[*txID]
	if !ok {
		return
	}
	p.totalSize -= entry.Size
	p.totalFee -= entry.Fee
	for parentID := range p.parents[*txID] {
		delete(p.children[parentID], *txID)
	}
	for childID := range p.children[*txID] {
		delete(p.parents[childID], *txID)
	}
	delete(p.parents, *txID)
	delete(p.children, *txID)
	delete(p.entries, *txID)
}

// Entry returns the entry for the given id or ErrTxNotInPool.
func (p *Pool) Entry(txID *chainhash.Hash) (*Entry, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	entry, ok := p.entries[*txID]
	if !ok {
		return nil, ErrTxNotInPool
	}
	return entry, nil
}

// Have returns whether the id is pool-resident.
func (p *Pool) Have(txID *chainhash.Hash) bool {
	p.mtx.RLock()
	_, ok := p.entries[*txID]
	p.mtx.RUnlock()
	return ok
}

// Entries returns a snapshot of all entries.
func (p *Pool) Entries() []*Entry {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	entries := make([]*Entry, 0, len(p.entries))
	for _, entry := range p.entries {
		entries = append(entries, entry)
	}
	return entries
}

// TxIDs returns a snapshot of the pool's transaction ids.
func (p *Pool) TxIDs() []chainhash.Hash {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	ids := make([]chainhash.Hash, 0, len(p.entries))
	for id := range p.entries {
		ids = append(ids, id)
	}
	return ids
}

// Parents returns the entries the given transaction directly depends on.
func (p *Pool) Parents(txID *chainhash.Hash) []*Entry {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return collect(p.parents[*txID])
}

// Children returns the entries directly spending outputs of the given
// transaction.
func (p *Pool) Children(txID *chainhash.Hash) []*Entry {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return collect(p.children[*txID])
}

func collect(m map[chainhash.Hash]*Entry) []*Entry {
	entries := make([]*Entry, 0, len(m))
	for _, entry := range m {
		entries = append(entries, entry)
	}
	return entries
}

// Count returns the number of pool entries.
func (p *Pool) Count() int {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return len(p.entries)
}

// TotalSize returns the summed serialized size of all entries.
func (p *Pool) TotalSize() int64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.totalSize
}

// TotalFee returns the summed fee of all entries.
func (p *Pool) TotalFee() btcutil.Amount {
	p.mtx.RLock()
	defer p.mtx.RUnlock()
	return p.totalFee
}

// MemoryUsage approximates the dynamic memory used by the pool.
func (p *Pool) MemoryUsage() int64 {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	// Per-entry bookkeeping overhead on top of the serialized payload.
	const entryOverhead = 256
	return p.totalSize + int64(len(p.entries))*entryOverhead
}
