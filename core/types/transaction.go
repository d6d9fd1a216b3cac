package types

import (
	"errors"
	"math/big"
	"sync/atomic"

	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/rlp"
)

// ErrInvalidSig is returned when a transaction's signature values are
// malformed or fail recovery.
var ErrInvalidSig = errors.New("types: invalid transaction v, r, s values")

// txdata is the consensus content of a transaction:
// [nonce, gas price, gas limit, to, value, payload, v, r, s].
// Recipient is nil for contract creation, in which case Payload is the
// init code; otherwise Payload is the call data.
type txdata struct {
	AccountNonce uint64
	Price        *big.Int
	GasLimit     uint64
	Recipient    *Address
	Amount       *big.Int
	Payload      []byte
	V            *big.Int
	R            *big.Int
	S            *big.Int
}

// Transaction is a signed (or yet unsigned) transaction.
type Transaction struct {
	data txdata

	// Caches; not serialized.
	hash atomic.Pointer[Hash]
	from atomic.Pointer[Address]
}

// NewTransaction creates a message-call transaction.
func NewTransaction(nonce uint64, to Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, &to, amount, gasLimit, gasPrice, data)
}

// NewContractCreation creates a contract-creation transaction; data is the
// init code.
func NewContractCreation(nonce uint64, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	return newTransaction(nonce, nil, amount, gasLimit, gasPrice, data)
}

func newTransaction(nonce uint64, to *Address, amount *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) *Transaction {
	d := txdata{
		AccountNonce: nonce,
		Recipient:    to,
		GasLimit:     gasLimit,
		Amount:       new(big.Int),
		Price:        new(big.Int),
		Payload:      append([]byte{}, data...),
		V:            new(big.Int),
		R:            new(big.Int),
		S:            new(big.Int),
	}
	if amount != nil {
		d.Amount.Set(amount)
	}
	if gasPrice != nil {
		d.Price.Set(gasPrice)
	}
	return &Transaction{data: d}
}

// Nonce returns the sender account nonce the transaction consumes.
func (tx *Transaction) Nonce() uint64 { return tx.data.AccountNonce }

// GasPrice returns the wei paid per unit of gas.
func (tx *Transaction) GasPrice() *big.Int { return new(big.Int).Set(tx.data.Price) }

// Gas returns the transaction gas limit.
func (tx *Transaction) Gas() uint64 { return tx.data.GasLimit }

// To returns the recipient, or nil for contract creation.
func (tx *Transaction) To() *Address {
	if tx.data.Recipient == nil {
		return nil
	}
	to := *tx.data.Recipient
	return &to
}

// IsContractCreation reports whether the transaction creates a contract.
func (tx *Transaction) IsContractCreation() bool { return tx.data.Recipient == nil }

// Value returns the wei endowment transferred to the recipient.
func (tx *Transaction) Value() *big.Int { return new(big.Int).Set(tx.data.Amount) }

// Data returns the call input (or init code for creations).
func (tx *Transaction) Data() []byte { return append([]byte{}, tx.data.Payload...) }

// RawSignatureValues returns the v, r, s fields.
func (tx *Transaction) RawSignatureValues() (v, r, s *big.Int) {
	return tx.data.V, tx.data.R, tx.data.S
}

// EncodeRLP returns the consensus encoding of the transaction.
func (tx *Transaction) EncodeRLP() ([]byte, error) {
	return rlp.EncodeToBytes(&tx.data)
}

// DecodeTransaction decodes a consensus-encoded transaction.
func DecodeTransaction(b []byte) (*Transaction, error) {
	var d txdata
	if err := rlp.DecodeBytes(b, &d); err != nil {
		return nil, err
	}
	return &Transaction{data: d}, nil
}

// Hash returns the keccak256 of the full signed encoding, identifying the
// transaction.
func (tx *Transaction) Hash() Hash {
	if cached := tx.hash.Load(); cached != nil {
		return *cached
	}
	enc, err := tx.EncodeRLP()
	if err != nil {
		panic("transaction: " + err.Error())
	}
	h := BytesToHash(crypto.Keccak256(enc))
	tx.hash.Store(&h)
	return h
}

// sigHashData is the unsigned content hashed for signing:
// the first six consensus fields.
type sigHashData struct {
	AccountNonce uint64
	Price        *big.Int
	GasLimit     uint64
	Recipient    *Address
	Amount       *big.Int
	Payload      []byte
}

// SigHash returns the hash signed by the sender.
func (tx *Transaction) SigHash() Hash {
	enc, err := rlp.EncodeToBytes(&sigHashData{
		AccountNonce: tx.data.AccountNonce,
		Price:        tx.data.Price,
		GasLimit:     tx.data.GasLimit,
		Recipient:    tx.data.Recipient,
		Amount:       tx.data.Amount,
		Payload:      tx.data.Payload,
	})
	if err != nil {
		panic("transaction: " + err.Error())
	}
	return BytesToHash(crypto.Keccak256(enc))
}

// WithSignature returns a copy of the transaction carrying the given
// 65-byte signature (R || S || recovery id).
func (tx *Transaction) WithSignature(sig []byte) (*Transaction, error) {
	if len(sig) != crypto.SignatureLength {
		return nil, ErrInvalidSig
	}
	cpy := &Transaction{data: tx.data}
	cpy.data.R = new(big.Int).SetBytes(sig[:32])
	cpy.data.S = new(big.Int).SetBytes(sig[32:64])
	cpy.data.V = new(big.Int).SetInt64(int64(sig[64]) + 27)
	return cpy, nil
}

// Transactions is a slice of transactions.
type Transactions []*Transaction

// Len returns the number of transactions.
func (s Transactions) Len() int { return len(s) }

// EncodeIndex returns the consensus encoding of the i'th transaction, for
// building the transactions trie.
func (s Transactions) EncodeIndex(i int) []byte {
	enc, err := s[i].EncodeRLP()
	if err != nil {
		panic("transaction: " + err.Error())
	}
	return enc
}
