package types

import (
	"math/big"
	"sync/atomic"

	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/rlp"
)

// Header is a block header. The fields are in consensus order; the RLP of a
// header is the 15-tuple of its exported fields.
type Header struct {
	ParentHash  Hash
	UncleHash   Hash
	Coinbase    Address
	Root        Hash
	TxHash      Hash
	ReceiptHash Hash
	Bloom       Bloom
	Difficulty  *big.Int
	Number      *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Time        uint64
	Extra       []byte
	MixDigest   Hash
	Nonce       BlockNonce

	// hash caches the header hash; not serialized.
	hash atomic.Pointer[Hash]
}

// Hash returns the keccak256 of the RLP-encoded header. The result is
// cached; headers must not be mutated after the first call.
func (h *Header) Hash() Hash {
	if cached := h.hash.Load(); cached != nil {
		return *cached
	}
	enc, err := rlp.EncodeToBytes(h)
	if err != nil {
		panic("header: " + err.Error())
	}
	hash := BytesToHash(crypto.Keccak256(enc))
	h.hash.Store(&hash)
	return hash
}

// Copy returns a deep copy of the header with a fresh hash cache.
func (h *Header) Copy() *Header {
	cp := &Header{
		ParentHash:  h.ParentHash,
		UncleHash:   h.UncleHash,
		Coinbase:    h.Coinbase,
		Root:        h.Root,
		TxHash:      h.TxHash,
		ReceiptHash: h.ReceiptHash,
		Bloom:       h.Bloom,
		GasLimit:    h.GasLimit,
		GasUsed:     h.GasUsed,
		Time:        h.Time,
		MixDigest:   h.MixDigest,
		Nonce:       h.Nonce,
	}
	if h.Difficulty != nil {
		cp.Difficulty = new(big.Int).Set(h.Difficulty)
	}
	if h.Number != nil {
		cp.Number = new(big.Int).Set(h.Number)
	}
	if len(h.Extra) > 0 {
		cp.Extra = append([]byte{}, h.Extra...)
	}
	return cp
}

// NumberU64 returns the block number as a uint64.
func (h *Header) NumberU64() uint64 {
	if h.Number == nil {
		return 0
	}
	return h.Number.Uint64()
}
