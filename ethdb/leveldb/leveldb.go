// Package leveldb implements ethdb.Database on top of a goleveldb store,
// giving the trie a durable, log-structured home for its nodes.
package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"github.com/hayesgm/exthereum/log"
)

// Database wraps a goleveldb instance.
type Database struct {
	path string
	db   *leveldb.DB
	log  *log.Logger
}

// New opens (or creates) a leveldb database at the given path.
func New(path string) (*Database, error) {
	opts := &opt.Options{
		OpenFilesCacheCapacity: 64,
		BlockCacheCapacity:     8 * opt.MiB,
		WriteBuffer:            4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	}
	db, err := leveldb.OpenFile(path, opts)
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		db, err = leveldb.RecoverFile(path, nil)
	}
	if err != nil {
		return nil, err
	}
	logger := log.Default().Module("ethdb").With("path", path)
	logger.Info("opened leveldb database")
	return &Database{path: path, db: db, log: logger}, nil
}

// Has reports whether key is present.
func (d *Database) Has(key []byte) (bool, error) {
	return d.db.Has(key, nil)
}

// Get retrieves the value for key, or nil when absent.
func (d *Database) Get(key []byte) ([]byte, error) {
	val, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Put stores value under key.
func (d *Database) Put(key, value []byte) error {
	return d.db.Put(key, value, nil)
}

// Delete removes key.
func (d *Database) Delete(key []byte) error {
	return d.db.Delete(key, nil)
}

// Close flushes and closes the underlying store.
func (d *Database) Close() error {
	d.log.Info("closing leveldb database")
	return d.db.Close()
}
