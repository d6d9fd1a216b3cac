package trie

import (
	"bytes"
	"testing"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/ethdb/memorydb"
)

func TestNodeDatabaseFlush(t *testing.T) {
	disk := memorydb.New()
	db := NewNodeDatabase(disk)

	tr := NewEmpty(db)
	mustUpdate(t, tr, "persist", "this value should survive a flush cycle")
	root, err := tr.Commit()
	if err != nil {
		t.Fatal(err)
	}
	if db.DirtyCount() == 0 {
		t.Fatal("commit left no dirty nodes")
	}
	if err := db.Flush(disk); err != nil {
		t.Fatal(err)
	}
	if db.DirtyCount() != 0 || db.DirtySize() != 0 {
		t.Fatal("flush did not clear the dirty layer")
	}

	// A fresh database over the same disk resolves the trie.
	reloaded, err := New(root, NewNodeDatabase(disk))
	if err != nil {
		t.Fatal(err)
	}
	got, err := reloaded.Get([]byte("persist"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "this value should survive a flush cycle" {
		t.Fatalf("reloaded value = %q", got)
	}
}

func TestNodeDatabaseBlob(t *testing.T) {
	db := NewNodeDatabase(nil)
	code := []byte{0x60, 0x00, 0x60, 0x00, 0xf3}
	hash := types.BytesToHash(crypto.Keccak256(code))
	db.InsertBlob(hash, code)

	got, err := db.Node(hash)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, code) {
		t.Fatalf("blob = %x, want %x", got, code)
	}
	if _, err := db.Node(types.Hash{}); err == nil {
		t.Fatal("zero hash resolved")
	}
}
