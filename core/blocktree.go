package core

import (
	"errors"
	"math/big"
	"sync"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/log"
)

// ErrNoPath is returned when a block's parent is unknown to the tree.
var ErrNoPath = errors.New("core: no path to block parent")

// treeNode is one node of the block tree: a block (nil for the sentinel
// root), its children and the cumulative difficulty along the path from
// the root.
type treeNode struct {
	block    *types.Block
	parent   *treeNode
	children map[types.Hash]*treeNode

	// totalDifficulty is the sum of difficulties from genesis to this
	// block.
	totalDifficulty *big.Int

	// maxDifficulty is the greatest totalDifficulty in this subtree,
	// propagated upward as blocks arrive.
	maxDifficulty *big.Int
}

func newTreeNode(block *types.Block, parent *treeNode) *treeNode {
	n := &treeNode{
		block:           block,
		parent:          parent,
		children:        make(map[types.Hash]*treeNode),
		totalDifficulty: new(big.Int),
		maxDifficulty:   new(big.Int),
	}
	if block != nil && parent != nil {
		n.totalDifficulty.Add(parent.totalDifficulty, block.Difficulty())
		n.maxDifficulty.Set(n.totalDifficulty)
	}
	return n
}

// BlockTree tracks every known block in a parent/child graph rooted at a
// sentinel above genesis. The canonical tip is the block with the highest
// cumulative difficulty; ties keep the first-seen block.
type BlockTree struct {
	mu    sync.RWMutex
	root  *treeNode
	nodes map[types.Hash]*treeNode
	tip   *treeNode
	log   *log.Logger
}

// NewBlockTree creates a tree containing only the sentinel root. The
// genesis block is added like any other block; its parent hash must be the
// zero hash.
func NewBlockTree() *BlockTree {
	return &BlockTree{
		root:  newTreeNode(nil, nil),
		nodes: make(map[types.Hash]*treeNode),
		log:   log.Default().Module("blocktree"),
	}
}

// AddBlock inserts a block under its parent. A block whose parent is not
// in the tree is rejected with ErrNoPath. Duplicate inserts are no-ops.
func (bt *BlockTree) AddBlock(block *types.Block) error {
	bt.mu.Lock()
	defer bt.mu.Unlock()

	hash := block.Hash()
	if _, ok := bt.nodes[hash]; ok {
		return nil
	}

	parent := bt.root
	if parentHash := block.ParentHash(); parentHash != (types.Hash{}) {
		p, ok := bt.nodes[parentHash]
		if !ok {
			return ErrNoPath
		}
		parent = p
	}

	node := newTreeNode(block, parent)
	if parent == bt.root {
		node.totalDifficulty.Set(block.Difficulty())
		node.maxDifficulty.Set(node.totalDifficulty)
	}
	parent.children[hash] = node
	bt.nodes[hash] = node

	// Propagate the heaviest-descendant difficulty toward the root.
	for anc := parent; anc != nil; anc = anc.parent {
		if anc.maxDifficulty.Cmp(node.totalDifficulty) < 0 {
			anc.maxDifficulty.Set(node.totalDifficulty)
		}
	}
	// Strictly heavier chains displace the tip; equal weight keeps the
	// first-seen tip.
	if bt.tip == nil || node.totalDifficulty.Cmp(bt.tip.totalDifficulty) > 0 {
		bt.tip = node
		bt.log.Debug("new canonical tip", "hash", hash.Hex(), "td", node.totalDifficulty)
	}
	return nil
}

// Has reports whether a block is in the tree.
func (bt *BlockTree) Has(hash types.Hash) bool {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	_, ok := bt.nodes[hash]
	return ok
}

// GetBlock returns a block by hash, or nil.
func (bt *BlockTree) GetBlock(hash types.Hash) *types.Block {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	if n, ok := bt.nodes[hash]; ok {
		return n.block
	}
	return nil
}

// TotalDifficulty returns the cumulative difficulty of the path from
// genesis to the given block, or nil if unknown.
func (bt *BlockTree) TotalDifficulty(hash types.Hash) *big.Int {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	if n, ok := bt.nodes[hash]; ok {
		return new(big.Int).Set(n.totalDifficulty)
	}
	return nil
}

// CanonicalTip returns the block with the highest cumulative difficulty,
// or nil for an empty tree.
func (bt *BlockTree) CanonicalTip() *types.Block {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	if bt.tip == nil {
		return nil
	}
	return bt.tip.block
}

// PathToRoot returns the chain of blocks from genesis to the given block,
// genesis first. Unknown blocks yield nil.
func (bt *BlockTree) PathToRoot(hash types.Hash) []*types.Block {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	n, ok := bt.nodes[hash]
	if !ok {
		return nil
	}
	var path []*types.Block
	for ; n != nil && n.block != nil; n = n.parent {
		path = append(path, n.block)
	}
	// Reverse into genesis-first order.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// CanonicalChain returns the path from genesis to the canonical tip.
func (bt *BlockTree) CanonicalChain() []*types.Block {
	tip := bt.CanonicalTip()
	if tip == nil {
		return nil
	}
	return bt.PathToRoot(tip.Hash())
}
