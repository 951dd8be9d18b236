package mempool

import (
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/pkg/errors"
)

// NoLimit disables a single traversal limit.
const NoLimit = int64(math.MaxInt64)

// AncestorLimits bounds an ancestor-set computation. A breached limit aborts
// the traversal with an error rather than truncating the result.
type AncestorLimits struct {
	// AncestorCount caps the number of in-pool ancestors, the queried
	// transaction included.
	AncestorCount int64

	// AncestorSize caps the cumulative serialized size of the queried
	// transaction plus all of its ancestors.
	AncestorSize int64

	// DescendantCount caps, for every ancestor, the number of
	// descendants the queried transaction would join.
	DescendantCount int64

	// DescendantSize caps, for every ancestor, the cumulative descendant
	// size the queried transaction would join.
	DescendantSize int64
}

// UnlimitedAncestry returns limits that never short-circuit.
func UnlimitedAncestry() AncestorLimits {
	return AncestorLimits{
		AncestorCount:   NoLimit,
		AncestorSize:    NoLimit,
		DescendantCount: NoLimit,
		DescendantSize:  NoLimit,
	}
}

// Ancestors returns every pool transaction whose outputs the queried
// transaction consumes, directly or transitively. The queried transaction
// itself is not part of the result.
func (p *Pool) Ancestors(txID *chainhash.Hash, limits AncestorLimits) ([]*Entry, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	entry, ok := p.entries[*txID]
	if !ok {
		return nil, ErrTxNotInPool
	}

	ancestors := make(map[chainhash.Hash]*Entry)
	totalSize := entry.Size

	queue := collect(p.parents[*txID])
	for len(queue) > 0 {
		stage := queue[0]
		queue = queue[1:]
		if _, seen := ancestors[stage.TxID]; seen {
			continue
		}
		ancestors[stage.TxID] = stage
		totalSize += stage.Size

		if int64(len(ancestors))+1 > limits.AncestorCount {
			return nil, errors.Errorf("too many unconfirmed ancestors [limit: %d]",
				limits.AncestorCount)
		}
		if totalSize > limits.AncestorSize {
			return nil, errors.Errorf("exceeds ancestor size limit [limit: %d]",
				limits.AncestorSize)
		}
		if stage.DescendantCount+1 > limits.DescendantCount {
			return nil, errors.Errorf("too many descendants for tx %s [limit: %d]",
				stage.TxID, limits.DescendantCount)
		}
		if stage.DescendantSize+entry.Size > limits.DescendantSize {
			return nil, errors.Errorf("exceeds descendant size limit for tx %s [limit: %d]",
				stage.TxID, limits.DescendantSize)
		}

		queue = append(queue, collect(p.parents[stage.TxID])...)
	}

	result := make([]*Entry, 0, len(ancestors))
	for _, ancestor := range ancestors {
		result = append(result, ancestor)
	}
	return result, nil
}

// Descendants returns every pool transaction spending outputs of the
// queried transaction, directly or transitively. The traversal visits the
// queried transaction but it is excluded from the result.
func (p *Pool) Descendants(txID *chainhash.Hash) ([]*Entry, error) {
	p.mtx.RLock()
	defer p.mtx.RUnlock()

	entry, ok := p.entries[*txID]
	if !ok {
		return nil, ErrTxNotInPool
	}

	visited := map[chainhash.Hash]*Entry{entry.TxID: entry}
	queue := []*Entry{entry}
	for len(queue) > 0 {
		stage := queue[0]
		queue = queue[1:]
		for _, child := range p.children[stage.TxID] {
			if _, seen := visited[child.TxID]; seen {
				continue
			}
			visited[child.TxID] = child
			queue = append(queue, child)
		}
	}
	delete(visited, entry.TxID)

	result := make([]*Entry, 0, len(visited))
	for _, descendant := range visited {
		result = append(result, descendant)
	}
	return result, nil
}
