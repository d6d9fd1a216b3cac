package vm

import (
	"crypto/sha256"
	"math/big"

	"golang.org/x/crypto/ripemd160"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/crypto"
)

// PrecompiledContract is a built-in contract at a reserved low address.
type PrecompiledContract interface {
	// RequiredGas is the cost of running the precompile on input.
	RequiredGas(input []byte) uint64

	// Run executes the precompile.
	Run(input []byte) ([]byte, error)
}

// precompiled maps the four reserved addresses to their implementations.
var precompiled = map[types.Address]PrecompiledContract{
	types.BytesToAddress([]byte{1}): &ecrecover{},
	types.BytesToAddress([]byte{2}): &sha256hash{},
	types.BytesToAddress([]byte{3}): &ripemd160hash{},
	types.BytesToAddress([]byte{4}): &identity{},
}

// Precompiled exposes the precompile set, e.g. for tests.
func Precompiled() map[types.Address]PrecompiledContract {
	return precompiled
}

// runPrecompile charges the precompile's gas and executes it. A failed
// precompile consumes all gas handed to it.
func runPrecompile(p PrecompiledContract, input []byte, gas uint64) ([]byte, uint64, error) {
	cost := p.RequiredGas(input)
	if gas < cost {
		return nil, 0, ErrOutOfGas
	}
	out, err := p.Run(input)
	if err != nil {
		return nil, 0, err
	}
	return out, gas - cost, nil
}

// Gas costs of the precompiles.
const (
	ecrecoverGas        uint64 = 3000
	sha256BaseGas       uint64 = 60
	sha256WordGas       uint64 = 12
	ripemd160BaseGas    uint64 = 600
	ripemd160WordGas    uint64 = 120
	identityBaseGas     uint64 = 15
	identityWordGas     uint64 = 3
)

// ecrecover recovers the signer address from input
// [hash(32) || v(32) || r(32) || s(32)], returning the address left-padded
// to 32 bytes. Malformed input yields empty output rather than an error.
type ecrecover struct{}

func (c *ecrecover) RequiredGas(input []byte) uint64 { return ecrecoverGas }

func (c *ecrecover) Run(input []byte) ([]byte, error) {
	const inputLen = 128
	input = rightPad(input, inputLen)

	v := new(big.Int).SetBytes(input[32:64])
	r := new(big.Int).SetBytes(input[64:96])
	s := new(big.Int).SetBytes(input[96:128])
	if !v.IsUint64() || (v.Uint64() != 27 && v.Uint64() != 28) {
		return nil, nil
	}
	recid := byte(v.Uint64() - 27)
	if !crypto.ValidateSignatureValues(recid, r, s, false) {
		return nil, nil
	}

	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = recid

	pub, err := crypto.Ecrecover(input[:32], sig)
	if err != nil {
		return nil, nil
	}
	out := make([]byte, 32)
	copy(out[12:], crypto.PubkeyBytesToAddress(pub))
	return out, nil
}

// sha256hash is the SHA-256 precompile.
type sha256hash struct{}

func (c *sha256hash) RequiredGas(input []byte) uint64 {
	return sha256BaseGas + toWords(uint64(len(input)))*sha256WordGas
}

func (c *sha256hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// ripemd160hash is the RIPEMD-160 precompile; the 20-byte digest is
// left-padded to 32 bytes.
type ripemd160hash struct{}

func (c *ripemd160hash) RequiredGas(input []byte) uint64 {
	return ripemd160BaseGas + toWords(uint64(len(input)))*ripemd160WordGas
}

func (c *ripemd160hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	out := make([]byte, 32)
	copy(out[12:], h.Sum(nil))
	return out, nil
}

// identity copies its input to its output.
type identity struct{}

func (c *identity) RequiredGas(input []byte) uint64 {
	return identityBaseGas + toWords(uint64(len(input)))*identityWordGas
}

func (c *identity) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// rightPad extends b with zeros to exactly size bytes.
func rightPad(b []byte, size int) []byte {
	if len(b) >= size {
		return b[:size]
	}
	out := make([]byte, size)
	copy(out, b)
	return out
}
