// Package types defines the core data structures of the exthereum engine:
// hashes, addresses, accounts, logs, headers, transactions, blocks and
// receipts, together with their consensus encodings.
package types

import (
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	HashLength    = 32
	AddressLength = 20
	BloomLength   = 256
	NonceLength   = 8
)

// Hash is the 32-byte keccak-256 hash of arbitrary data.
type Hash [HashLength]byte

// Address is the 20-byte identifier of an account.
type Address [AddressLength]byte

// Bloom is a 2048-bit log bloom filter.
type Bloom [BloomLength]byte

// BlockNonce is the 8-byte proof-of-work nonce field of a header.
type BlockNonce [NonceLength]byte

// BytesToHash converts bytes to a Hash, left-padding if shorter than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string (with optional 0x prefix) to a Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the hex string representation of the hash.
func (h Hash) Hex() string { return fmt.Sprintf("0x%x", h[:]) }

// SetBytes sets the hash from a byte slice, keeping the rightmost 32 bytes
// and left-padding shorter input.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// IsZero reports whether the hash is all zeros.
func (h Hash) IsZero() bool { return h == Hash{} }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// BytesToAddress converts bytes to an Address, left-padding if shorter than
// 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string to an Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the hex string representation of the address.
func (a Address) Hex() string { return fmt.Sprintf("0x%x", a[:]) }

// Hash returns the address left-padded to 32 bytes.
func (a Address) Hash() Hash { return BytesToHash(a[:]) }

// SetBytes sets the address from a byte slice.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// IsZero reports whether the address is all zeros.
func (a Address) IsZero() bool { return a == Address{} }

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// Uint64 returns the nonce as an integer.
func (n BlockNonce) Uint64() uint64 {
	var v uint64
	for _, b := range n {
		v = v<<8 | uint64(b)
	}
	return v
}

// EncodeNonce converts an integer to a BlockNonce (big-endian).
func EncodeNonce(v uint64) BlockNonce {
	var n BlockNonce
	for i := NonceLength - 1; i >= 0; i-- {
		n[i] = byte(v)
		v >>= 8
	}
	return n
}

// Account is the consensus representation of an account: the value stored
// under the account's address in the state trie, RLP-encoded as the list
// [nonce, balance, storage root, code hash].
type Account struct {
	Nonce    uint64
	Balance  *big.Int
	Root     Hash   // root of the account's storage trie
	CodeHash []byte // keccak256 of the account's code
}

// NewAccount returns an account with zero balance, no code and empty storage.
func NewAccount() *Account {
	return &Account{
		Balance:  new(big.Int),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}
}

// Copy returns a deep copy of the account.
func (a *Account) Copy() *Account {
	cp := &Account{
		Nonce:    a.Nonce,
		Balance:  new(big.Int),
		Root:     a.Root,
		CodeHash: make([]byte, len(a.CodeHash)),
	}
	if a.Balance != nil {
		cp.Balance.Set(a.Balance)
	}
	copy(cp.CodeHash, a.CodeHash)
	return cp
}

// HasCode reports whether the account has deployed code.
func (a *Account) HasCode() bool {
	return len(a.CodeHash) == HashLength && BytesToHash(a.CodeHash) != EmptyCodeHash
}

// Log is a contract log event emitted by the LOG0..LOG4 opcodes.
type Log struct {
	// Consensus fields.
	Address Address
	Topics  []Hash
	Data    []byte

	// Derived fields, filled in during block processing.
	BlockNumber uint64
	TxHash      Hash
	TxIndex     uint
	BlockHash   Hash
	Index       uint
}

var (
	// EmptyRootHash is the root hash of an empty trie: keccak256(rlp("")).
	EmptyRootHash = HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

	// EmptyCodeHash is keccak256 of empty bytecode; the code hash of every
	// account without code.
	EmptyCodeHash = HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")

	// EmptyUncleHash is keccak256 of the RLP of an empty header list.
	EmptyUncleHash = HexToHash("1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347")
)

// fromHex decodes a hex string, stripping an optional "0x" prefix.
func fromHex(s string) []byte {
	if has0xPrefix(s) {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func has0xPrefix(s string) bool {
	return len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X')
}
