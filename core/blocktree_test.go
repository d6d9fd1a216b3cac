package core

import (
	"errors"
	"math/big"
	"testing"

	"github.com/hayesgm/exthereum/core/types"
)

// treeBlock builds a minimal block with the given parent and difficulty.
// Distinct extra data keeps sibling hashes distinct.
func treeBlock(parent types.Hash, difficulty int64, tag byte) *types.Block {
	header := &types.Header{
		ParentHash: parent,
		Difficulty: big.NewInt(difficulty),
		Number:     big.NewInt(0),
		Extra:      []byte{tag},
	}
	return types.NewBlock(header, nil, nil)
}

func TestBlockTreeCanonicalization(t *testing.T) {
	// Genesis (diff 100) with two children (110 and 120); the 110 branch
	// extends two more blocks of 120 each.
	tree := NewBlockTree()

	b10 := treeBlock(types.Hash{}, 100, 10)
	b20 := treeBlock(b10.Hash(), 110, 20)
	b21 := treeBlock(b10.Hash(), 120, 21)
	b30 := treeBlock(b20.Hash(), 120, 30)
	b40 := treeBlock(b30.Hash(), 120, 40)

	for _, b := range []*types.Block{b10, b20, b21, b30, b40} {
		if err := tree.AddBlock(b); err != nil {
			t.Fatal(err)
		}
	}

	if td := tree.TotalDifficulty(b40.Hash()); td.Int64() != 450 {
		t.Fatalf("td(40) = %v, want 450", td)
	}
	if td := tree.TotalDifficulty(b21.Hash()); td.Int64() != 220 {
		t.Fatalf("td(21) = %v, want 220", td)
	}
	tip := tree.CanonicalTip()
	if tip == nil || tip.Hash() != b40.Hash() {
		t.Fatalf("canonical tip = %v, want block 40", tip)
	}

	path := tree.PathToRoot(b40.Hash())
	if len(path) != 4 {
		t.Fatalf("path length = %d, want 4", len(path))
	}
	wantOrder := []*types.Block{b10, b20, b30, b40}
	for i, b := range wantOrder {
		if path[i].Hash() != b.Hash() {
			t.Fatalf("path[%d] = %s, want %s", i, path[i].Hash().Hex(), b.Hash().Hex())
		}
	}
	if chain := tree.CanonicalChain(); len(chain) != 4 || chain[3].Hash() != b40.Hash() {
		t.Fatal("canonical chain mismatch")
	}
}

func TestBlockTreeRejectsOrphans(t *testing.T) {
	tree := NewBlockTree()
	orphan := treeBlock(types.HexToHash("0xfeed"), 100, 1)
	if err := tree.AddBlock(orphan); !errors.Is(err, ErrNoPath) {
		t.Fatalf("err = %v, want ErrNoPath", err)
	}
	if tree.Has(orphan.Hash()) {
		t.Fatal("orphan entered the tree")
	}
}

func TestBlockTreeFirstSeenTieBreak(t *testing.T) {
	tree := NewBlockTree()
	genesis := treeBlock(types.Hash{}, 100, 0)
	if err := tree.AddBlock(genesis); err != nil {
		t.Fatal(err)
	}
	// Two children of equal difficulty: the first keeps the tip.
	first := treeBlock(genesis.Hash(), 50, 1)
	second := treeBlock(genesis.Hash(), 50, 2)
	if err := tree.AddBlock(first); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddBlock(second); err != nil {
		t.Fatal(err)
	}
	if tip := tree.CanonicalTip(); tip.Hash() != first.Hash() {
		t.Fatal("tie broke away from the first-seen block")
	}
}

func TestBlockTreeDuplicateInsert(t *testing.T) {
	tree := NewBlockTree()
	genesis := treeBlock(types.Hash{}, 100, 0)
	if err := tree.AddBlock(genesis); err != nil {
		t.Fatal(err)
	}
	if err := tree.AddBlock(genesis); err != nil {
		t.Fatalf("duplicate insert errored: %v", err)
	}
	if td := tree.TotalDifficulty(genesis.Hash()); td.Int64() != 100 {
		t.Fatalf("duplicate insert changed td: %v", td)
	}
}
