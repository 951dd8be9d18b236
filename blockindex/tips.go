package blockindex

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TipStatus classifies a chain tip relative to the active chain.
type TipStatus string

// Tip status values, from certainly-valid down to unknown.
const (
	// TipStatusActive is the tip of the active chain.
	TipStatusActive TipStatus = "active"

	// TipStatusInvalid marks a branch containing at least one invalid
	// block.
	TipStatusInvalid TipStatus = "invalid"

	// TipStatusParked marks a branch containing at least one parked
	// block.
	TipStatusParked TipStatus = "parked"

	// TipStatusHeadersOnly marks a branch whose headers are valid but for
	// which not all block data is available.
	TipStatusHeadersOnly TipStatus = "headers-only"

	// TipStatusValidFork marks a fully validated branch that is not part
	// of the active chain.
	TipStatusValidFork TipStatus = "valid-fork"

	// TipStatusValidHeaders marks a branch with all data available whose
	// blocks were never fully validated.
	TipStatusValidHeaders TipStatus = "valid-headers"

	// TipStatusUnknown is the fallback for nodes matching none of the
	// above.
	TipStatusUnknown TipStatus = "unknown"
)

// Tip describes one leaf of the block-index forest.
type Tip struct {
	Node *Node

	// BranchLen is the number of blocks between the tip and the fork
	// point with the active chain, zero for the active tip.
	BranchLen int32

	Status TipStatus
}

// ChainTips enumerates every leaf of the block-index forest: the active tip
// plus every orphan block no other orphan builds on. The result is ordered
// by descending height, ties broken by hash, so output is deterministic.
func (idx *Index) ChainTips() []Tip {
	idx.lock.RLock()
	defer idx.lock.RUnlock()

	// One pass over the arena picks out the blocks off the active chain
	// and the set of parents referenced by them. An off-chain block that
	// no other off-chain block points to is a tip.
	orphans := make(map[*Node]struct{})
	prevs := make(map[chainhash.Hash]struct{})
	for _, node := range idx.index {
		if !idx.contains(node) {
			orphans[node] = struct{}{}
			prevs[node.ParentHash] = struct{}{}
		}
	}

	var tipNodes []*Node
	for node := range orphans {
		if _, referenced := prevs[node.Hash]; !referenced {
			tipNodes = append(tipNodes, node)
		}
	}

	// Always report the currently active tip.
	if tip := idx.tip(); tip != nil {
		tipNodes = append(tipNodes, tip)
	}

	sort.Slice(tipNodes, func(i, j int) bool {
		if tipNodes[i].Height != tipNodes[j].Height {
			return tipNodes[i].Height > tipNodes[j].Height
		}
		return bytes.Compare(tipNodes[i].Hash[:], tipNodes[j].Hash[:]) < 0
	})

	tips := make([]Tip, 0, len(tipNodes))
	for _, node := range tipNodes {
		fork := idx.findFork(node)
		branchLen := int32(0)
		if fork != nil {
			branchLen = node.Height - fork.Height
		}
		tips = append(tips, Tip{
			Node:      node,
			BranchLen: branchLen,
			Status:    idx.classifyTip(node),
		})
	}
	return tips
}

func (idx *Index) classifyTip(node *Node) TipStatus {
	switch {
	case idx.contains(node):
		return TipStatusActive
	case node.Status.KnownInvalid():
		return TipStatusInvalid
	case node.Status.KnownParked():
		return TipStatusParked
	case !node.Status.TxsDownloaded():
		return TipStatusHeadersOnly
	case node.Status.KnownValid():
		return TipStatusValidFork
	case node.Status.ValidTree():
		return TipStatusValidHeaders
	}
	return TipStatusUnknown
}
