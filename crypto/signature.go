package crypto

import (
	"errors"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	decdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	// SignatureLength is the length of a recoverable signature:
	// R (32) || S (32) || recovery id (1).
	SignatureLength = 65

	// DigestLength is the length of the message hashes being signed.
	DigestLength = 32
)

var (
	ErrInvalidSignatureLen = errors.New("crypto: signature must be 65 bytes")
	ErrInvalidMsgLen       = errors.New("crypto: message hash must be 32 bytes")
	ErrRecoverFailed       = errors.New("crypto: public key recovery failed")

	secp256k1N     = secp256k1.S256().N
	secp256k1HalfN = new(big.Int).Rsh(secp256k1N, 1)
)

// GenerateKey creates a new secp256k1 private key.
func GenerateKey() (*secp256k1.PrivateKey, error) {
	return secp256k1.GeneratePrivateKey()
}

// Sign produces a recoverable signature over the given 32-byte hash.
// The returned signature is R || S || recovery id, with the recovery id in
// [0, 1]. S is always in the lower half of the curve order.
func Sign(hash []byte, priv *secp256k1.PrivateKey) ([]byte, error) {
	if len(hash) != DigestLength {
		return nil, ErrInvalidMsgLen
	}
	// SignCompact returns header(1) || R(32) || S(32) with the recovery id
	// folded into the header byte; rearrange into the engine layout.
	compact := decdsa.SignCompact(priv, hash, false)
	sig := make([]byte, SignatureLength)
	copy(sig[:64], compact[1:])
	sig[64] = compact[0] - 27
	return sig, nil
}

// Ecrecover recovers the uncompressed public key (65 bytes, 0x04 prefixed)
// that produced the signature over hash. The signature must be in the
// R || S || recovery-id layout with the recovery id in [0, 1].
func Ecrecover(hash, sig []byte) ([]byte, error) {
	if len(sig) != SignatureLength {
		return nil, ErrInvalidSignatureLen
	}
	if len(hash) != DigestLength {
		return nil, ErrInvalidMsgLen
	}
	if sig[64] >= 2 {
		return nil, ErrRecoverFailed
	}
	compact := make([]byte, SignatureLength)
	compact[0] = sig[64] + 27
	copy(compact[1:], sig[:64])
	pub, _, err := decdsa.RecoverCompact(compact, hash)
	if err != nil {
		return nil, ErrRecoverFailed
	}
	return pub.SerializeUncompressed(), nil
}

// PubkeyBytesToAddress derives the 20-byte account address from an
// uncompressed public key: the rightmost 20 bytes of keccak256 of the key
// material without the 0x04 prefix.
func PubkeyBytesToAddress(pub []byte) []byte {
	return Keccak256(pub[1:])[12:]
}

// PubkeyToAddress derives the account address of a public key.
func PubkeyToAddress(pub *secp256k1.PublicKey) []byte {
	return PubkeyBytesToAddress(pub.SerializeUncompressed())
}

// ValidateSignatureValues checks signature components for validity.
// Under Homestead rules an S value in the upper half of the curve order is
// rejected to eliminate signature malleability.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil || r.Sign() < 1 || s.Sign() < 1 {
		return false
	}
	if homestead && s.Cmp(secp256k1HalfN) > 0 {
		return false
	}
	return r.Cmp(secp256k1N) < 0 && s.Cmp(secp256k1N) < 0 && (v == 0 || v == 1)
}
