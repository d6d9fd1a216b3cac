package trie

import (
	"bytes"
	"errors"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/crypto"
)

var (
	// ErrProofInvalid is returned when a Merkle proof does not check out
	// against the claimed root.
	ErrProofInvalid = errors.New("trie: invalid proof")

	// ErrNotFound is returned by proof operations for absent keys.
	ErrNotFound = errors.New("trie: key not found")
)

// Prove builds a Merkle proof for key: the RLP encodings of the nodes on
// the path from the root to the value, outermost first. Inline nodes are
// embedded in their parent's encoding and do not appear separately.
func (t *Trie) Prove(key []byte) ([][]byte, error) {
	hex := keybytesToHex(key)
	var proof [][]byte
	n := t.root
	pos := 0
	for {
		switch cur := n.(type) {
		case nil:
			return nil, ErrNotFound

		case valueNode:
			return proof, nil

		case *shortNode:
			collapsed, _ := (&hasher{}).hashChildren(cur)
			if enc := encodeNode(collapsed); len(enc) >= 32 || len(proof) == 0 {
				proof = append(proof, enc)
			}
			if len(hex)-pos < len(cur.Key) || !bytes.Equal(cur.Key, hex[pos:pos+len(cur.Key)]) {
				return nil, ErrNotFound
			}
			pos += len(cur.Key)
			n = cur.Val

		case *fullNode:
			collapsed, _ := (&hasher{}).hashChildren(cur)
			if enc := encodeNode(collapsed); len(enc) >= 32 || len(proof) == 0 {
				proof = append(proof, enc)
			}
			if pos >= len(hex) {
				return nil, ErrProofInvalid
			}
			n = cur.Children[hex[pos]]
			pos++

		case hashNode:
			resolved, err := t.resolveHash(cur, hex[:pos])
			if err != nil {
				return nil, err
			}
			n = resolved

		default:
			return nil, ErrProofInvalid
		}
	}
}

// VerifyProof checks a Merkle proof produced by Prove against a root hash
// and returns the proven value.
func VerifyProof(root types.Hash, key []byte, proof [][]byte) ([]byte, error) {
	if len(proof) == 0 {
		return nil, ErrProofInvalid
	}
	hex := keybytesToHex(key)
	want := root.Bytes()
	idx := 0

	// consume pops the next proof element, which must hash to want.
	consume := func() (node, error) {
		if idx >= len(proof) {
			return nil, ErrProofInvalid
		}
		enc := proof[idx]
		idx++
		if !bytes.Equal(crypto.Keccak256(enc), want) {
			return nil, ErrProofInvalid
		}
		return decodeNode(hashNode(want), enc)
	}

	n, err := consume()
	if err != nil {
		return nil, err
	}
	pos := 0
	for {
		switch cur := n.(type) {
		case nil:
			return nil, ErrNotFound

		case valueNode:
			if pos != len(hex) {
				return nil, ErrProofInvalid
			}
			return []byte(cur), nil

		case *shortNode:
			if len(hex)-pos < len(cur.Key) || !bytes.Equal(cur.Key, hex[pos:pos+len(cur.Key)]) {
				return nil, ErrNotFound
			}
			pos += len(cur.Key)
			n = cur.Val

		case *fullNode:
			if pos >= len(hex) {
				return nil, ErrProofInvalid
			}
			n = cur.Children[hex[pos]]
			pos++

		case hashNode:
			want = []byte(cur)
			n, err = consume()
			if err != nil {
				return nil, err
			}

		default:
			return nil, ErrProofInvalid
		}
	}
}
