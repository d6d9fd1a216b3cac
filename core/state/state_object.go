// Package state implements the journaled, trie-backed world state: typed
// account accessors layered over the Merkle Patricia Trie, with
// snapshot/revert support for transaction atomicity.
package state

import (
	"bytes"
	"fmt"
	"math/big"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/trie"
)

// stateObject is the in-memory form of an account being read or modified.
// Writes accumulate in dirtyStorage and are folded into the account's
// storage trie at commit time.
type stateObject struct {
	address types.Address
	account *types.Account

	code      []byte // resolved contract code, nil until loaded
	dirtyCode bool

	originStorage map[types.Hash]types.Hash // committed slot cache
	dirtyStorage  map[types.Hash]types.Hash // uncommitted writes

	storageTrie *trie.Trie // lazily opened at account.Root

	suicided bool
}

func newStateObject(addr types.Address, account *types.Account) *stateObject {
	return &stateObject{
		address:       addr,
		account:       account,
		originStorage: make(map[types.Hash]types.Hash),
		dirtyStorage:  make(map[types.Hash]types.Hash),
	}
}

// empty reports whether the account has zero nonce, zero balance and no
// code.
func (obj *stateObject) empty() bool {
	return obj.account.Nonce == 0 &&
		obj.account.Balance.Sign() == 0 &&
		bytes.Equal(obj.account.CodeHash, types.EmptyCodeHash.Bytes())
}

// openStorageTrie resolves the account's storage trie.
func (obj *stateObject) openStorageTrie(db *trie.NodeDatabase) (*trie.Trie, error) {
	if obj.storageTrie == nil {
		t, err := trie.New(obj.account.Root, db)
		if err != nil {
			return nil, fmt.Errorf("state: open storage trie of %s: %w", obj.address, err)
		}
		obj.storageTrie = t
	}
	return obj.storageTrie, nil
}

// committedState returns the committed value of a storage slot, reading
// through to the storage trie on first access. Absent slots read as zero.
func (obj *stateObject) committedState(db *trie.NodeDatabase, key types.Hash) types.Hash {
	if value, ok := obj.originStorage[key]; ok {
		return value
	}
	t, err := obj.openStorageTrie(db)
	if err != nil {
		panic(err.Error()) // backing store lost a node
	}
	raw, err := t.Get(key.Bytes())
	if err != nil {
		panic("state: " + err.Error())
	}
	value := types.BytesToHash(raw)
	obj.originStorage[key] = value
	return value
}

// state returns the current value of a storage slot, dirty writes first.
func (obj *stateObject) state(db *trie.NodeDatabase, key types.Hash) types.Hash {
	if value, ok := obj.dirtyStorage[key]; ok {
		return value
	}
	return obj.committedState(db, key)
}

// commitStorage folds the dirty slots into the storage trie and updates
// the account's storage root. Slots are keyed and valued as raw 32-byte
// big-endian words; writing zero deletes the slot.
func (obj *stateObject) commitStorage(db *trie.NodeDatabase) error {
	if len(obj.dirtyStorage) == 0 {
		return nil
	}
	t, err := obj.openStorageTrie(db)
	if err != nil {
		return err
	}
	for key, value := range obj.dirtyStorage {
		obj.originStorage[key] = value
		if value == (types.Hash{}) {
			if err := t.Delete(key.Bytes()); err != nil {
				return err
			}
			continue
		}
		if err := t.Update(key.Bytes(), value.Bytes()); err != nil {
			return err
		}
	}
	obj.dirtyStorage = make(map[types.Hash]types.Hash)
	root, err := t.Commit()
	if err != nil {
		return err
	}
	obj.account.Root = root
	return nil
}

// setCode installs contract code on the object.
func (obj *stateObject) setCode(code []byte) {
	obj.code = code
	obj.account.CodeHash = crypto.Keccak256(code)
	obj.dirtyCode = true
}

// balance returns the account balance (never nil).
func (obj *stateObject) balance() *big.Int {
	if obj.account.Balance == nil {
		return new(big.Int)
	}
	return obj.account.Balance
}
