package trie

import (
	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/rlp"
)

// hasher folds a node tree into hash references. A node whose RLP encoding
// is shorter than 32 bytes stays inline in its parent; anything else is
// replaced by the keccak-256 of its encoding. When a NodeDatabase is
// supplied, every hashed encoding is recorded there.
type hasher struct {
	db *NodeDatabase // nil when only the hash is wanted
}

// hash returns the hashed reference for n together with a cached version of
// n whose flags remember the computed hash. force ensures the root node is
// always hashed even when its encoding is small.
func (h *hasher) hash(n node, force bool) (node, node) {
	if hash, dirty := n.cache(); hash != nil && !dirty {
		return hash, n
	}
	collapsed, cached := h.hashChildren(n)
	hashed := h.store(collapsed, force)
	if hn, ok := hashed.(hashNode); ok {
		switch cn := cached.(type) {
		case *shortNode:
			cn.flags.hash = hn
			cn.flags.dirty = false
		case *fullNode:
			cn.flags.hash = hn
			cn.flags.dirty = false
		}
	}
	return hashed, cached
}

// hashChildren replaces the children of n by their hashed references,
// returning the collapsed node (for encoding) and the cached node (for
// keeping in memory).
func (h *hasher) hashChildren(original node) (node, node) {
	switch n := original.(type) {
	case *shortNode:
		collapsed, cached := n.copy(), n.copy()
		collapsed.Key = hexToCompact(n.Key)
		if _, ok := n.Val.(valueNode); !ok {
			childH, childC := h.hash(n.Val, false)
			collapsed.Val = childH
			cached.Val = childC
		}
		return collapsed, cached
	case *fullNode:
		collapsed, cached := n.copy(), n.copy()
		for i := 0; i < 16; i++ {
			if n.Children[i] != nil {
				childH, childC := h.hash(n.Children[i], false)
				collapsed.Children[i] = childH
				cached.Children[i] = childC
			}
		}
		return collapsed, cached
	default:
		return n, n
	}
}

// store encodes a collapsed node and decides between the inline and hashed
// representation. Hashed encodings are written to the node database.
func (h *hasher) store(n node, force bool) node {
	switch n.(type) {
	case hashNode, valueNode, nil:
		return n
	}
	enc := encodeNode(n)
	if len(enc) < 32 && !force {
		return n
	}
	hash := crypto.Keccak256(enc)
	if h.db != nil {
		h.db.insert(types.BytesToHash(hash), enc)
	}
	return hashNode(hash)
}

// encodeNode produces the consensus RLP of a collapsed node:
// a 2-element list [HP key, value-or-ref] for short nodes, a 17-element
// list of child refs for full nodes. The short node's key must already be
// in compact form.
func encodeNode(n node) []byte {
	switch n := n.(type) {
	case *shortNode:
		payload := mustEncode(n.Key)
		payload = append(payload, encodeRef(n.Val)...)
		return rlp.WrapList(payload)
	case *fullNode:
		var payload []byte
		for i := 0; i < 17; i++ {
			payload = append(payload, encodeRef(n.Children[i])...)
		}
		return rlp.WrapList(payload)
	case hashNode:
		return []byte(n)
	case valueNode:
		return mustEncode([]byte(n))
	default:
		// The empty node encodes as the empty string.
		return []byte{0x80}
	}
}

// encodeRef encodes a child reference for inclusion in its parent:
// nil becomes the empty string, value and hash nodes become RLP strings,
// and small inline nodes contribute their raw encoding.
func encodeRef(n node) []byte {
	switch n := n.(type) {
	case nil:
		return []byte{0x80}
	case valueNode:
		return mustEncode([]byte(n))
	case hashNode:
		return mustEncode([]byte(n))
	default:
		return encodeNode(n)
	}
}

// mustEncode RLP-encodes a byte string. Byte strings cannot fail to encode.
func mustEncode(b []byte) []byte {
	enc, err := rlp.EncodeToBytes(b)
	if err != nil {
		panic("trie: " + err.Error())
	}
	return enc
}
