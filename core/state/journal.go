package state

import (
	"math/big"

	"github.com/hayesgm/exthereum/core/types"
)

// journalEntry is a single revertible change to the state.
type journalEntry interface {
	revert(s *StateDB)
}

// journal records state changes in order so that any suffix can be undone,
// giving nested VM frames cheap snapshot/revert.
type journal struct {
	entries   []journalEntry
	snapshots map[int]int // snapshot id -> entry count at creation
	nextID    int
}

func newJournal() *journal {
	return &journal{snapshots: make(map[int]int)}
}

func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

func (j *journal) snapshot() int {
	id := j.nextID
	j.nextID++
	j.snapshots[id] = len(j.entries)
	return id
}

func (j *journal) revertToSnapshot(id int, s *StateDB) {
	idx, ok := j.snapshots[id]
	if !ok {
		return
	}
	for i := len(j.entries) - 1; i >= idx; i-- {
		j.entries[i].revert(s)
	}
	j.entries = j.entries[:idx]
	// Snapshots taken after this one are no longer meaningful.
	for sid := range j.snapshots {
		if sid >= id {
			delete(j.snapshots, sid)
		}
	}
}

// reset drops all entries and snapshots, used between transactions.
func (j *journal) reset() {
	j.entries = j.entries[:0]
	j.snapshots = make(map[int]int)
	j.nextID = 0
}

// --- concrete entries ---

type createAccountChange struct {
	addr types.Address
}

func (ch createAccountChange) revert(s *StateDB) {
	delete(s.stateObjects, ch.addr)
}

type balanceChange struct {
	addr types.Address
	prev *big.Int
}

func (ch balanceChange) revert(s *StateDB) {
	if obj := s.stateObjects[ch.addr]; obj != nil {
		obj.account.Balance = ch.prev
	}
}

type nonceChange struct {
	addr types.Address
	prev uint64
}

func (ch nonceChange) revert(s *StateDB) {
	if obj := s.stateObjects[ch.addr]; obj != nil {
		obj.account.Nonce = ch.prev
	}
}

type codeChange struct {
	addr     types.Address
	prevCode []byte
	prevHash []byte
}

func (ch codeChange) revert(s *StateDB) {
	if obj := s.stateObjects[ch.addr]; obj != nil {
		obj.code = ch.prevCode
		obj.account.CodeHash = ch.prevHash
		obj.dirtyCode = false
	}
}

type storageChange struct {
	addr       types.Address
	key        types.Hash
	prev       types.Hash
	prevExists bool // whether the slot was already dirty
}

func (ch storageChange) revert(s *StateDB) {
	if obj := s.stateObjects[ch.addr]; obj != nil {
		if ch.prevExists {
			obj.dirtyStorage[ch.key] = ch.prev
		} else {
			delete(obj.dirtyStorage, ch.key)
		}
	}
}

type suicideChange struct {
	addr        types.Address
	prev        bool
	prevBalance *big.Int
}

func (ch suicideChange) revert(s *StateDB) {
	if obj := s.stateObjects[ch.addr]; obj != nil {
		obj.suicided = ch.prev
		obj.account.Balance = ch.prevBalance
	}
}

type refundChange struct {
	prev uint64
}

func (ch refundChange) revert(s *StateDB) {
	s.refund = ch.prev
}

type logChange struct {
	prevLen int
}

func (ch logChange) revert(s *StateDB) {
	s.logs = s.logs[:ch.prevLen]
}
