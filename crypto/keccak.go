// Package crypto bundles the primitives the engine consumes: keccak-256 for
// content addressing and secp256k1 recovery for transaction senders. It
// deliberately has no dependency on the engine's own types so every layer
// can use it.
package crypto

import (
	"golang.org/x/crypto/sha3"
)

// Keccak256 calculates the Keccak-256 hash of the given data.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}
