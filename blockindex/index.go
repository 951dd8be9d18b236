package blockindex

import (
	"sync"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Index is the arena of known block nodes plus the active chain through it.
// One coarse reader/writer lock guards both: queries take the read side for
// the minimum span needed to read a consistent snapshot, while block
// processing (external to this layer) takes the write side to insert nodes
// and move the tip.
type Index struct {
	lock  sync.RWMutex
	index map[chainhash.Hash]*Node

	// chain holds the active chain indexed by height, genesis first.
	chain []*Node
}

// New returns an empty block index.
func New() *Index {
	return &Index{index: make(map[chainhash.Hash]*Node)}
}

// AddNode inserts a node into the arena. It does not affect the active
// chain.
func (idx *Index) AddNode(node *Node) {
	idx.lock.Lock()
	idx.index[node.Hash] = node
	idx.lock.Unlock()
}

// SetActiveChain replaces the active chain. The slice must be ordered by
// height starting at genesis and every node must already be in the arena.
func (idx *Index) SetActiveChain(chain []*Node) {
	idx.lock.Lock()
	idx.chain = chain
	idx.lock.Unlock()
}

// LookupNode returns the node for the given hash, or nil if the hash is not
// indexed.
func (idx *Index) LookupNode(hash *chainhash.Hash) *Node {
	idx.lock.RLock()
	node := idx.index[*hash]
	idx.lock.RUnlock()
	return node
}

// Tip returns the active chain tip, or nil for an empty chain.
func (idx *Index) Tip() *Node {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.tip()
}

func (idx *Index) tip() *Node {
	if len(idx.chain) == 0 {
		return nil
	}
	return idx.chain[len(idx.chain)-1]
}

// NodeByHeight returns the active-chain node at the given height, or nil
// when the height is past the tip or negative.
func (idx *Index) NodeByHeight(height int32) *Node {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.nodeByHeight(height)
}

func (idx *Index) nodeByHeight(height int32) *Node {
	if height < 0 || int(height) >= len(idx.chain) {
		return nil
	}
	return idx.chain[height]
}

// Contains returns whether the node is part of the active chain.
func (idx *Index) Contains(node *Node) bool {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.contains(node)
}

func (idx *Index) contains(node *Node) bool {
	return idx.nodeByHeight(node.Height) == node
}

// Ancestor returns the ancestor of node at the given height, walking parent
// references through the arena. It returns nil when height is greater than
// the node's height or the walk leaves the arena.
func (idx *Index) Ancestor(node *Node, height int32) *Node {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.ancestor(node, height)
}

func (idx *Index) ancestor(node *Node, height int32) *Node {
	if height < 0 || height > node.Height {
		return nil
	}
	for node != nil && node.Height != height {
		node = idx.index[node.ParentHash]
	}
	return node
}

// FindFork returns the nearest ancestor of node that is on the active chain:
// the fork point between the node's branch and the chain. A node already on
// the chain is its own fork point.
func (idx *Index) FindFork(node *Node) *Node {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	return idx.findFork(node)
}

func (idx *Index) findFork(node *Node) *Node {
	if node == nil {
		return nil
	}
	if tip := idx.tip(); tip != nil && node.Height > tip.Height {
		node = idx.ancestor(node, tip.Height)
	}
	for node != nil && !idx.contains(node) {
		node = idx.index[node.ParentHash]
	}
	return node
}

// Height returns the active tip height, or -1 for an empty chain.
func (idx *Index) Height() int32 {
	idx.lock.RLock()
	defer idx.lock.RUnlock()
	if len(idx.chain) == 0 {
		return -1
	}
	return idx.chain[len(idx.chain)-1].Height
}
