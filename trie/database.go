package trie

import (
	"errors"
	"sync"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/ethdb"
	"github.com/hayesgm/exthereum/log"
)

// ErrNodeNotFound is returned when a hashed child reference cannot be
// resolved. During normal operation this means the backing store has lost
// data; callers treat it as fatal.
var ErrNodeNotFound = errors.New("trie: node not found in database")

// NodeDatabase stores RLP-encoded trie nodes keyed by their keccak-256
// hash. Nodes produced by Commit land in a dirty in-memory layer first and
// are flushed to the backing store with Flush. Nodes are never mutated or
// deleted, so every historical root stays resolvable.
type NodeDatabase struct {
	mu    sync.RWMutex
	dirty map[types.Hash][]byte
	disk  ethdb.KeyValueReader // nil for memory-only operation
	size  int
	log   *log.Logger
}

// NewNodeDatabase creates a node database backed by the given reader.
// A nil reader yields a memory-only database.
func NewNodeDatabase(disk ethdb.KeyValueReader) *NodeDatabase {
	return &NodeDatabase{
		dirty: make(map[types.Hash][]byte),
		disk:  disk,
		log:   log.Default().Module("trie"),
	}
}

// Node retrieves the encoding of the node with the given hash, checking
// the dirty layer before the backing store.
func (db *NodeDatabase) Node(hash types.Hash) ([]byte, error) {
	if hash == (types.Hash{}) {
		return nil, ErrNodeNotFound
	}
	db.mu.RLock()
	data, ok := db.dirty[hash]
	db.mu.RUnlock()
	if ok {
		return data, nil
	}
	if db.disk != nil {
		data, err := db.disk.Get(hash[:])
		if err != nil {
			return nil, err
		}
		if data != nil {
			return data, nil
		}
	}
	return nil, ErrNodeNotFound
}

// InsertBlob records an arbitrary content-addressed blob, such as contract
// code keyed by its keccak-256 hash. Blobs share the node namespace: both
// are immutable data addressed by hash.
func (db *NodeDatabase) InsertBlob(hash types.Hash, data []byte) {
	db.insert(hash, data)
}

// insert records a node in the dirty layer.
func (db *NodeDatabase) insert(hash types.Hash, data []byte) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.dirty[hash]; !ok {
		db.size += len(data)
	}
	db.dirty[hash] = data
}

// DirtyCount returns the number of nodes awaiting a flush.
func (db *NodeDatabase) DirtyCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.dirty)
}

// DirtySize returns the total byte size of nodes awaiting a flush.
func (db *NodeDatabase) DirtySize() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.size
}

// Flush writes all dirty nodes to the given writer and clears the dirty
// layer.
func (db *NodeDatabase) Flush(w ethdb.KeyValueWriter) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for hash, data := range db.dirty {
		if err := w.Put(hash[:], data); err != nil {
			return err
		}
	}
	db.log.Debug("flushed trie nodes", "count", len(db.dirty), "bytes", db.size)
	db.dirty = make(map[types.Hash][]byte)
	db.size = 0
	return nil
}
