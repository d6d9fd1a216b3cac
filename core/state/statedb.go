package state

import (
	"fmt"
	"math/big"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/log"
	"github.com/hayesgm/exthereum/rlp"
	"github.com/hayesgm/exthereum/trie"
)

// StateDB is the world state: accounts keyed by address in a Merkle
// Patricia Trie, each with balance, nonce, code and its own storage trie.
//
// All mutations are journaled. Snapshot/RevertToSnapshot give VM frames
// transaction-local atomicity; Commit folds the changes into fresh trie
// roots without disturbing previously committed roots.
type StateDB struct {
	db   *trie.NodeDatabase
	trie *trie.Trie

	stateObjects map[types.Address]*stateObject

	refund  uint64
	logs    []*types.Log
	journal *journal

	log *log.Logger
}

// New creates a state database rooted at root.
func New(root types.Hash, db *trie.NodeDatabase) (*StateDB, error) {
	t, err := trie.New(root, db)
	if err != nil {
		return nil, fmt.Errorf("state: open account trie: %w", err)
	}
	return &StateDB{
		db:           db,
		trie:         t,
		stateObjects: make(map[types.Address]*stateObject),
		journal:      newJournal(),
		log:          log.Default().Module("state"),
	}, nil
}

// Database returns the underlying node database.
func (s *StateDB) Database() *trie.NodeDatabase { return s.db }

// getStateObject returns the account at addr, loading it from the trie on
// first access. Returns nil for absent accounts.
func (s *StateDB) getStateObject(addr types.Address) *stateObject {
	if obj, ok := s.stateObjects[addr]; ok {
		return obj
	}
	enc, err := s.trie.Get(addr.Bytes())
	if err != nil {
		panic("state: " + err.Error()) // backing store lost a node
	}
	if len(enc) == 0 {
		return nil
	}
	account := new(types.Account)
	if err := rlp.DecodeBytes(enc, account); err != nil {
		panic("state: corrupt account RLP: " + err.Error())
	}
	obj := newStateObject(addr, account)
	s.stateObjects[addr] = obj
	return obj
}

// getOrNewStateObject returns the account at addr, creating it if absent.
func (s *StateDB) getOrNewStateObject(addr types.Address) *stateObject {
	if obj := s.getStateObject(addr); obj != nil {
		return obj
	}
	obj := newStateObject(addr, types.NewAccount())
	s.stateObjects[addr] = obj
	s.journal.append(createAccountChange{addr: addr})
	return obj
}

// CreateAccount explicitly creates a fresh account at addr.
func (s *StateDB) CreateAccount(addr types.Address) {
	s.getOrNewStateObject(addr)
}

// Exist reports whether an account exists in the state.
func (s *StateDB) Exist(addr types.Address) bool {
	return s.getStateObject(addr) != nil
}

// Empty reports whether the account is absent or has zero nonce, zero
// balance and no code.
func (s *StateDB) Empty(addr types.Address) bool {
	obj := s.getStateObject(addr)
	return obj == nil || obj.empty()
}

// GetBalance returns the balance of addr (zero for absent accounts).
func (s *StateDB) GetBalance(addr types.Address) *big.Int {
	if obj := s.getStateObject(addr); obj != nil {
		return new(big.Int).Set(obj.balance())
	}
	return new(big.Int)
}

// AddBalance credits amount to addr, creating the account if needed.
func (s *StateDB) AddBalance(addr types.Address, amount *big.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: obj.account.Balance})
	obj.account.Balance = new(big.Int).Add(obj.balance(), amount)
}

// SubBalance debits amount from addr.
func (s *StateDB) SubBalance(addr types.Address, amount *big.Int) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(balanceChange{addr: addr, prev: obj.account.Balance})
	obj.account.Balance = new(big.Int).Sub(obj.balance(), amount)
}

// GetNonce returns the nonce of addr.
func (s *StateDB) GetNonce(addr types.Address) uint64 {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.account.Nonce
	}
	return 0
}

// SetNonce sets the nonce of addr.
func (s *StateDB) SetNonce(addr types.Address, nonce uint64) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(nonceChange{addr: addr, prev: obj.account.Nonce})
	obj.account.Nonce = nonce
}

// GetCode returns the code of addr.
func (s *StateDB) GetCode(addr types.Address) []byte {
	obj := s.getStateObject(addr)
	if obj == nil {
		return nil
	}
	if obj.code != nil {
		return obj.code
	}
	if !obj.account.HasCode() {
		return nil
	}
	code, err := s.db.Node(types.BytesToHash(obj.account.CodeHash))
	if err != nil {
		panic("state: missing code " + types.BytesToHash(obj.account.CodeHash).Hex())
	}
	obj.code = code
	return code
}

// GetCodeSize returns the code size of addr.
func (s *StateDB) GetCodeSize(addr types.Address) int {
	return len(s.GetCode(addr))
}

// GetCodeHash returns the code hash of addr, or the zero hash for absent
// accounts.
func (s *StateDB) GetCodeHash(addr types.Address) types.Hash {
	obj := s.getStateObject(addr)
	if obj == nil {
		return types.Hash{}
	}
	return types.BytesToHash(obj.account.CodeHash)
}

// SetCode installs code on addr; the code is persisted under its keccak
// hash at commit time.
func (s *StateDB) SetCode(addr types.Address, code []byte) {
	obj := s.getOrNewStateObject(addr)
	s.journal.append(codeChange{
		addr:     addr,
		prevCode: obj.code,
		prevHash: obj.account.CodeHash,
	})
	obj.setCode(code)
}

// GetState returns the current value of a storage slot, dirty writes
// included. Absent slots read as zero.
func (s *StateDB) GetState(addr types.Address, key types.Hash) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.state(s.db, key)
	}
	return types.Hash{}
}

// GetCommittedState returns the slot value as of the last commit.
func (s *StateDB) GetCommittedState(addr types.Address, key types.Hash) types.Hash {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.committedState(s.db, key)
	}
	return types.Hash{}
}

// SetState writes a storage slot.
func (s *StateDB) SetState(addr types.Address, key, value types.Hash) {
	obj := s.getOrNewStateObject(addr)
	prev, prevExists := obj.dirtyStorage[key]
	s.journal.append(storageChange{addr: addr, key: key, prev: prev, prevExists: prevExists})
	obj.dirtyStorage[key] = value
}

// Suicide marks addr for deletion at the end of the transaction and zeroes
// its balance. Returns false if the account does not exist.
func (s *StateDB) Suicide(addr types.Address) bool {
	obj := s.getStateObject(addr)
	if obj == nil {
		return false
	}
	s.journal.append(suicideChange{
		addr:        addr,
		prev:        obj.suicided,
		prevBalance: obj.account.Balance,
	})
	obj.suicided = true
	obj.account.Balance = new(big.Int)
	return true
}

// HasSuicided reports whether addr is scheduled for deletion.
func (s *StateDB) HasSuicided(addr types.Address) bool {
	if obj := s.getStateObject(addr); obj != nil {
		return obj.suicided
	}
	return false
}

// Suicides returns the addresses scheduled for deletion, for substate
// accounting.
func (s *StateDB) Suicides() []types.Address {
	var addrs []types.Address
	for addr, obj := range s.stateObjects {
		if obj.suicided {
			addrs = append(addrs, addr)
		}
	}
	return addrs
}

// AddRefund accumulates gas into the transaction's refund counter.
func (s *StateDB) AddRefund(gas uint64) {
	s.journal.append(refundChange{prev: s.refund})
	s.refund += gas
}

// GetRefund returns the transaction's refund counter.
func (s *StateDB) GetRefund() uint64 { return s.refund }

// AddLog appends a log to the transaction's ordered log series.
func (s *StateDB) AddLog(l *types.Log) {
	s.journal.append(logChange{prevLen: len(s.logs)})
	s.logs = append(s.logs, l)
}

// Logs returns the logs accumulated so far.
func (s *StateDB) Logs() []*types.Log { return s.logs }

// Snapshot marks the current state and returns an identifier for
// RevertToSnapshot.
func (s *StateDB) Snapshot() int {
	return s.journal.snapshot()
}

// RevertToSnapshot undoes every change made after the snapshot was taken.
func (s *StateDB) RevertToSnapshot(id int) {
	s.journal.revertToSnapshot(id, s)
}

// TxFinalise clears the per-transaction journal, refund counter and log
// buffer. Called by the executor between transactions, after the substate
// has been consumed.
func (s *StateDB) TxFinalise() {
	s.journal.reset()
	s.refund = 0
	s.logs = nil
}

// Commit folds every loaded account into the account trie, commits the
// storage tries and returns the new state root. Suicided accounts are
// removed. The resulting nodes live in the node database's dirty layer
// until it is flushed.
func (s *StateDB) Commit() (types.Hash, error) {
	for addr, obj := range s.stateObjects {
		if obj.suicided {
			if err := s.trie.Delete(addr.Bytes()); err != nil {
				return types.Hash{}, err
			}
			delete(s.stateObjects, addr)
			continue
		}
		if err := obj.commitStorage(s.db); err != nil {
			return types.Hash{}, err
		}
		if obj.dirtyCode {
			s.db.InsertBlob(types.BytesToHash(obj.account.CodeHash), obj.code)
			obj.dirtyCode = false
		}
		enc, err := rlp.EncodeToBytes(obj.account)
		if err != nil {
			return types.Hash{}, err
		}
		if err := s.trie.Update(addr.Bytes(), enc); err != nil {
			return types.Hash{}, err
		}
	}
	root, err := s.trie.Commit()
	if err != nil {
		return types.Hash{}, err
	}
	s.log.Debug("committed state", "root", root.Hex())
	return root, nil
}

// StorageTrie returns the storage trie of addr at its committed root, for
// inspection and tests.
func (s *StateDB) StorageTrie(addr types.Address) (*trie.Trie, error) {
	obj := s.getStateObject(addr)
	if obj == nil {
		return trie.NewEmpty(s.db), nil
	}
	return trie.New(obj.account.Root, s.db)
}
