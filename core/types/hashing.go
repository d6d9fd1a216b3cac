package types

import (
	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/rlp"
)

// CalcOmmersHash computes the header's ommers commitment:
// keccak256 of the RLP of the ommer-header list. An empty list yields
// EmptyUncleHash.
func CalcOmmersHash(ommers []*Header) Hash {
	if ommers == nil {
		ommers = []*Header{}
	}
	enc, err := rlp.EncodeToBytes(ommers)
	if err != nil {
		panic("types: " + err.Error())
	}
	return BytesToHash(crypto.Keccak256(enc))
}

// DerivableList is a list whose items can be hashed into a trie root:
// transactions, receipts and ommer-header lists satisfy it.
type DerivableList interface {
	Len() int
	EncodeIndex(i int) []byte
}

// TrieHasher is the minimal trie surface needed for list-root derivation.
// The trie package's Trie satisfies it; keeping it as an interface avoids a
// types -> trie dependency.
type TrieHasher interface {
	Update(key, value []byte) error
	Hash() Hash
}

// DeriveSha computes the root of a trie keyed by the RLP encoding of each
// item's index, as committed into block headers for transactions and
// receipts. The header's ommers field is computed by CalcOmmersHash instead.
func DeriveSha(list DerivableList, t TrieHasher) Hash {
	for i := 0; i < list.Len(); i++ {
		key, err := rlp.EncodeToBytes(uint64(i))
		if err != nil {
			panic("types: " + err.Error())
		}
		if err := t.Update(key, list.EncodeIndex(i)); err != nil {
			panic("types: " + err.Error())
		}
	}
	return t.Hash()
}

// HeaderList adapts a slice of headers to DerivableList for the ommers
// root.
type HeaderList []*Header

// Len returns the number of headers.
func (hl HeaderList) Len() int { return len(hl) }

// EncodeIndex returns the consensus encoding of the i'th header.
func (hl HeaderList) EncodeIndex(i int) []byte {
	enc, err := rlp.EncodeToBytes(hl[i])
	if err != nil {
		panic("types: " + err.Error())
	}
	return enc
}
