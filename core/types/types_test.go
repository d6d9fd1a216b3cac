package types

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/rlp"
)

func TestEmptyHashConstants(t *testing.T) {
	if got := BytesToHash(crypto.Keccak256(nil)); got != EmptyCodeHash {
		t.Fatalf("keccak(\"\") = %s, want EmptyCodeHash", got.Hex())
	}
	if got := BytesToHash(crypto.Keccak256([]byte{0x80})); got != EmptyRootHash {
		t.Fatalf("keccak(rlp(\"\")) = %s, want EmptyRootHash", got.Hex())
	}
	enc, _ := rlp.EncodeToBytes([]*Header{})
	if got := BytesToHash(crypto.Keccak256(enc)); got != EmptyUncleHash {
		t.Fatalf("keccak(rlp([])) = %s, want EmptyUncleHash", got.Hex())
	}
	if got := CalcOmmersHash(nil); got != EmptyUncleHash {
		t.Fatalf("CalcOmmersHash(nil) = %s, want EmptyUncleHash", got.Hex())
	}
}

func TestAddressPadding(t *testing.T) {
	a := BytesToAddress([]byte{1})
	want := Address{}
	want[19] = 1
	if a != want {
		t.Fatalf("BytesToAddress padding wrong: %x", a)
	}
	if h := a.Hash(); h[11] != 0 || h[31] != 1 {
		t.Fatalf("address hash padding wrong: %x", h)
	}
}

func TestAccountRLPRoundtrip(t *testing.T) {
	acct := &Account{
		Nonce:    5,
		Balance:  big.NewInt(400000),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}
	enc, err := rlp.EncodeToBytes(acct)
	if err != nil {
		t.Fatal(err)
	}
	dec := new(Account)
	if err := rlp.DecodeBytes(enc, dec); err != nil {
		t.Fatal(err)
	}
	if dec.Nonce != 5 || dec.Balance.Cmp(acct.Balance) != 0 ||
		dec.Root != acct.Root || !bytes.Equal(dec.CodeHash, acct.CodeHash) {
		t.Fatalf("roundtrip mismatch: %+v", dec)
	}
}

func TestTransactionRLPRoundtrip(t *testing.T) {
	to := HexToAddress("0x1111111111111111111111111111111111111111")
	tx := NewTransaction(3, to, big.NewInt(1000), 21000, big.NewInt(5), []byte{0xca, 0xfe})
	enc, err := tx.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeTransaction(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Nonce() != 3 || dec.Gas() != 21000 || dec.Value().Int64() != 1000 ||
		dec.GasPrice().Int64() != 5 || *dec.To() != to || !bytes.Equal(dec.Data(), []byte{0xca, 0xfe}) {
		t.Fatalf("roundtrip mismatch")
	}
	if dec.Hash() != tx.Hash() {
		t.Fatal("hash changed across roundtrip")
	}
}

func TestCreationTransactionRecipient(t *testing.T) {
	tx := NewContractCreation(0, big.NewInt(5), 100000, big.NewInt(3), []byte{0x00})
	if !tx.IsContractCreation() || tx.To() != nil {
		t.Fatal("creation transaction has a recipient")
	}
	enc, err := tx.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeTransaction(enc)
	if err != nil {
		t.Fatal(err)
	}
	if !dec.IsContractCreation() {
		t.Fatal("decoded creation transaction has a recipient")
	}
}

func TestSignAndRecover(t *testing.T) {
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	from := KeyAddress(key)
	signer := HomesteadSigner{}

	tx := NewTransaction(0, HexToAddress("0x2222222222222222222222222222222222222222"),
		big.NewInt(10), 21000, big.NewInt(1), nil)
	signed, err := SignTx(tx, signer, key)
	if err != nil {
		t.Fatal(err)
	}
	v, r, s := signed.RawSignatureValues()
	if vb := v.Uint64(); vb != 27 && vb != 28 {
		t.Fatalf("v = %d, want 27 or 28", vb)
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		t.Fatal("r or s not positive")
	}
	recovered, err := signer.Sender(signed)
	if err != nil {
		t.Fatal(err)
	}
	if recovered != from {
		t.Fatalf("recovered %s, want %s", recovered.Hex(), from.Hex())
	}
}

func TestSenderRejectsUnsigned(t *testing.T) {
	tx := NewTransaction(0, Address{}, big.NewInt(1), 21000, big.NewInt(1), nil)
	if _, err := (HomesteadSigner{}).Sender(tx); err == nil {
		t.Fatal("unsigned transaction yielded a sender")
	}
}

func TestCreateAddress(t *testing.T) {
	sender := HexToAddress("0x0f572e5295c57f15886f9b263e2f6d2d6c7b5ec6")
	// Structural check against a hand-built encoding of [sender, nonce].
	payload := append([]byte{0x94}, sender.Bytes()...)
	payload = append(payload, 0x05)
	enc := append([]byte{0xd6}, payload...)
	want := BytesToAddress(crypto.Keccak256(enc)[12:])
	if got := CreateAddress(sender, 5); got != want {
		t.Fatalf("CreateAddress = %s, want %s", got.Hex(), want.Hex())
	}
	if CreateAddress(sender, 5) == CreateAddress(sender, 6) {
		t.Fatal("nonce does not affect created address")
	}
}

func TestHeaderHashStable(t *testing.T) {
	h := &Header{
		Difficulty: big.NewInt(131072),
		Number:     big.NewInt(1),
		GasLimit:   3141592,
		Time:       1438269988,
	}
	first := h.Hash()
	if first != h.Hash() {
		t.Fatal("header hash not stable")
	}
	other := h.Copy()
	other.GasUsed = 1
	if other.Hash() == first {
		t.Fatal("different headers share a hash")
	}
}

func TestBlockRLPRoundtrip(t *testing.T) {
	header := &Header{
		ParentHash: HexToHash("0xdead"),
		UncleHash:  EmptyUncleHash,
		Difficulty: big.NewInt(131072),
		Number:     big.NewInt(7),
		GasLimit:   3141592,
		Time:       99,
	}
	tx := NewTransaction(0, Address{}, big.NewInt(1), 21000, big.NewInt(1), nil)
	block := NewBlock(header, Transactions{tx}, nil)

	enc, err := block.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeBlock(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec.Hash() != block.Hash() {
		t.Fatal("block hash changed across roundtrip")
	}
	if len(dec.Transactions()) != 1 || dec.Transactions()[0].Hash() != tx.Hash() {
		t.Fatal("transactions changed across roundtrip")
	}
}

func TestReceiptRLPRoundtrip(t *testing.T) {
	r := NewReceipt(HexToHash("0xabcd"), 21000, []*Log{{
		Address: HexToAddress("0x3333333333333333333333333333333333333333"),
		Topics:  []Hash{HexToHash("0x01")},
		Data:    []byte{0xff},
	}})
	enc, err := r.EncodeRLP()
	if err != nil {
		t.Fatal(err)
	}
	dec, err := DecodeReceipt(enc)
	if err != nil {
		t.Fatal(err)
	}
	if dec.PostState != r.PostState || dec.CumulativeGasUsed != 21000 ||
		len(dec.Logs) != 1 || dec.Logs[0].Address != r.Logs[0].Address {
		t.Fatalf("roundtrip mismatch: %+v", dec)
	}
	if dec.Bloom != r.Bloom {
		t.Fatal("bloom changed across roundtrip")
	}
}

func TestLogsBloom(t *testing.T) {
	addr := HexToAddress("0x4444444444444444444444444444444444444444")
	topic := HexToHash("0x99")
	bloom := LogsBloom([]*Log{{Address: addr, Topics: []Hash{topic}}})
	if !bloom.Contains(addr.Bytes()) {
		t.Fatal("bloom misses the log address")
	}
	if !bloom.Contains(topic.Bytes()) {
		t.Fatal("bloom misses the topic")
	}
	if bloom.Contains([]byte("unrelated data almost surely absent")) {
		t.Fatal("bloom false positive on a fixed probe")
	}
}
