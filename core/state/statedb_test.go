package state

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/trie"
)

func newTestState(t *testing.T) (*StateDB, *trie.NodeDatabase) {
	t.Helper()
	db := trie.NewNodeDatabase(nil)
	statedb, err := New(types.EmptyRootHash, db)
	if err != nil {
		t.Fatal(err)
	}
	return statedb, db
}

var (
	addrA = types.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	addrB = types.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func TestBalanceAndNonce(t *testing.T) {
	s, _ := newTestState(t)
	s.AddBalance(addrA, big.NewInt(1000))
	s.SubBalance(addrA, big.NewInt(300))
	if got := s.GetBalance(addrA); got.Int64() != 700 {
		t.Fatalf("balance = %v, want 700", got)
	}
	s.SetNonce(addrA, 9)
	if got := s.GetNonce(addrA); got != 9 {
		t.Fatalf("nonce = %d, want 9", got)
	}
	// Absent accounts read as zero.
	if got := s.GetBalance(addrB); got.Sign() != 0 {
		t.Fatalf("absent balance = %v", got)
	}
	if s.Exist(addrB) {
		t.Fatal("absent account exists")
	}
}

func TestSnapshotRevert(t *testing.T) {
	s, _ := newTestState(t)
	s.AddBalance(addrA, big.NewInt(100))
	s.SetState(addrA, types.HexToHash("0x01"), types.HexToHash("0x11"))

	snap := s.Snapshot()
	s.AddBalance(addrA, big.NewInt(50))
	s.SetState(addrA, types.HexToHash("0x01"), types.HexToHash("0x22"))
	s.SetState(addrA, types.HexToHash("0x02"), types.HexToHash("0x33"))
	s.CreateAccount(addrB)
	s.AddRefund(15000)
	s.AddLog(&types.Log{Address: addrA})
	s.Suicide(addrA)

	s.RevertToSnapshot(snap)

	if got := s.GetBalance(addrA); got.Int64() != 100 {
		t.Fatalf("balance after revert = %v, want 100", got)
	}
	if got := s.GetState(addrA, types.HexToHash("0x01")); got != types.HexToHash("0x11") {
		t.Fatalf("slot 1 after revert = %s", got.Hex())
	}
	if got := s.GetState(addrA, types.HexToHash("0x02")); got != (types.Hash{}) {
		t.Fatalf("slot 2 after revert = %s", got.Hex())
	}
	if s.Exist(addrB) {
		t.Fatal("created account survived revert")
	}
	if s.GetRefund() != 0 {
		t.Fatal("refund survived revert")
	}
	if len(s.Logs()) != 0 {
		t.Fatal("log survived revert")
	}
	if s.HasSuicided(addrA) {
		t.Fatal("suicide survived revert")
	}
}

func TestNestedSnapshots(t *testing.T) {
	s, _ := newTestState(t)
	s.AddBalance(addrA, big.NewInt(1))
	outer := s.Snapshot()
	s.AddBalance(addrA, big.NewInt(10))
	inner := s.Snapshot()
	s.AddBalance(addrA, big.NewInt(100))

	s.RevertToSnapshot(inner)
	if got := s.GetBalance(addrA); got.Int64() != 11 {
		t.Fatalf("after inner revert = %v, want 11", got)
	}
	s.RevertToSnapshot(outer)
	if got := s.GetBalance(addrA); got.Int64() != 1 {
		t.Fatalf("after outer revert = %v, want 1", got)
	}
}

func TestCommitDeterminism(t *testing.T) {
	build := func(order []types.Address) types.Hash {
		s, _ := newTestState(t)
		for _, addr := range order {
			s.AddBalance(addr, big.NewInt(int64(1000+int(addr[0]))))
			s.SetNonce(addr, 1)
		}
		root, err := s.Commit()
		if err != nil {
			t.Fatal(err)
		}
		return root
	}
	r1 := build([]types.Address{addrA, addrB})
	r2 := build([]types.Address{addrB, addrA})
	if r1 != r2 {
		t.Fatalf("commit order changed root: %s vs %s", r1.Hex(), r2.Hex())
	}
}

func TestStorageCommitAndEnumerate(t *testing.T) {
	s, db := newTestState(t)
	s.CreateAccount(addrA)

	key := types.BytesToHash([]byte{5})
	val := types.BytesToHash([]byte{3})
	s.SetState(addrA, key, val)
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}

	st, err := s.StorageTrie(addrA)
	if err != nil {
		t.Fatal(err)
	}
	items, err := st.Items()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 {
		t.Fatalf("storage has %d entries, want 1", len(items))
	}
	if !bytes.Equal(items[0].Key, key.Bytes()) || !bytes.Equal(items[0].Value, val.Bytes()) {
		t.Fatalf("storage entry = (%x, %x)", items[0].Key, items[0].Value)
	}

	// The storage root is deterministic: a fresh state with the same slot
	// converges.
	s2, err := New(types.EmptyRootHash, db)
	if err != nil {
		t.Fatal(err)
	}
	s2.CreateAccount(addrA)
	s2.SetState(addrA, key, val)
	if _, err := s2.Commit(); err != nil {
		t.Fatal(err)
	}
	t1, _ := s.StorageTrie(addrA)
	t2, _ := s2.StorageTrie(addrA)
	if t1.Hash() != t2.Hash() {
		t.Fatal("storage roots diverge")
	}
}

func TestStorageZeroDeletes(t *testing.T) {
	s, _ := newTestState(t)
	s.CreateAccount(addrA)
	key := types.HexToHash("0x07")
	s.SetState(addrA, key, types.HexToHash("0x09"))
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	s.SetState(addrA, key, types.Hash{})
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	st, err := s.StorageTrie(addrA)
	if err != nil {
		t.Fatal(err)
	}
	if items, _ := st.Items(); len(items) != 0 {
		t.Fatalf("storage has %d entries after clearing, want 0", len(items))
	}
	if st.Hash() != types.EmptyRootHash {
		t.Fatal("cleared storage root is not the empty root")
	}
}

func TestCodeStorage(t *testing.T) {
	s, db := newTestState(t)
	code := []byte{0x60, 0x01, 0x60, 0x02, 0x01, 0x00}
	s.CreateAccount(addrA)
	s.SetCode(addrA, code)
	if got := s.GetCode(addrA); !bytes.Equal(got, code) {
		t.Fatalf("code = %x", got)
	}
	if got := s.GetCodeSize(addrA); got != len(code) {
		t.Fatalf("code size = %d", got)
	}
	root, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}

	// Reload from the committed root; code resolves by hash.
	s2, err := New(root, db)
	if err != nil {
		t.Fatal(err)
	}
	if got := s2.GetCode(addrA); !bytes.Equal(got, code) {
		t.Fatalf("reloaded code = %x", got)
	}
	if s2.GetCodeHash(addrA) != s.GetCodeHash(addrA) {
		t.Fatal("code hash mismatch after reload")
	}
}

func TestSuicideReaping(t *testing.T) {
	s, _ := newTestState(t)
	s.AddBalance(addrA, big.NewInt(500))
	s.AddBalance(addrB, big.NewInt(1))
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}

	if !s.Suicide(addrA) {
		t.Fatal("suicide of existing account failed")
	}
	if got := s.GetBalance(addrA); got.Sign() != 0 {
		t.Fatalf("balance after suicide = %v", got)
	}
	if got := s.Suicides(); len(got) != 1 || got[0] != addrA {
		t.Fatalf("suicide set = %v", got)
	}
	if _, err := s.Commit(); err != nil {
		t.Fatal(err)
	}
	if s.Exist(addrA) {
		t.Fatal("suicided account survived commit")
	}
	if !s.Exist(addrB) {
		t.Fatal("innocent account reaped")
	}
	if s.Suicide(addrB) == false {
		t.Fatal("existing account not suicidable")
	}
}

func TestReloadAccount(t *testing.T) {
	s, db := newTestState(t)
	s.AddBalance(addrA, big.NewInt(424242))
	s.SetNonce(addrA, 3)
	root, err := s.Commit()
	if err != nil {
		t.Fatal(err)
	}

	s2, err := New(root, db)
	if err != nil {
		t.Fatal(err)
	}
	if got := s2.GetBalance(addrA); got.Int64() != 424242 {
		t.Fatalf("reloaded balance = %v", got)
	}
	if got := s2.GetNonce(addrA); got != 3 {
		t.Fatalf("reloaded nonce = %d", got)
	}
}

func TestTxFinalise(t *testing.T) {
	s, _ := newTestState(t)
	s.AddRefund(100)
	s.AddLog(&types.Log{Address: addrA})
	s.TxFinalise()
	if s.GetRefund() != 0 || len(s.Logs()) != 0 {
		t.Fatal("TxFinalise left transaction residue")
	}
}
