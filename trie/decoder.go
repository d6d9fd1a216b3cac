package trie

import (
	"errors"
	"fmt"
)

var errDecodeInvalid = errors.New("trie: invalid encoded node")

// decodeNode decodes the RLP encoding of a trie node. The hash, when known,
// is remembered in the node's flags so re-hashing is free.
func decodeNode(hash hashNode, data []byte) (node, error) {
	if len(data) == 0 {
		return nil, errDecodeInvalid
	}
	elems, err := splitNodeList(data)
	if err != nil {
		return nil, fmt.Errorf("trie decode: %w", err)
	}
	switch len(elems) {
	case 2:
		return decodeShort(hash, elems)
	case 17:
		return decodeFull(hash, elems)
	default:
		return nil, fmt.Errorf("%w: %d list elements", errDecodeInvalid, len(elems))
	}
}

// decodeShort decodes a 2-element list into a leaf or extension node.
func decodeShort(hash hashNode, elems [][]byte) (node, error) {
	key := compactToHex(elems[0])
	flags := nodeFlag{hash: hash}
	if hasTerm(key) {
		// Leaf: the second element is the value itself.
		return &shortNode{Key: key, Val: valueNode(elems[1]), flags: flags}, nil
	}
	// Extension: the second element references the child.
	child, err := decodeRef(elems[1])
	if err != nil {
		return nil, err
	}
	return &shortNode{Key: key, Val: child, flags: flags}, nil
}

// decodeFull decodes a 17-element list into a branch node.
func decodeFull(hash hashNode, elems [][]byte) (node, error) {
	n := &fullNode{flags: nodeFlag{hash: hash}}
	for i := 0; i < 16; i++ {
		if len(elems[i]) == 0 {
			continue
		}
		child, err := decodeRef(elems[i])
		if err != nil {
			return nil, err
		}
		n.Children[i] = child
	}
	if len(elems[16]) > 0 {
		n.Children[16] = valueNode(elems[16])
	}
	return n, nil
}

// decodeRef decodes a child reference: a 32-byte string is a hash
// reference, anything else is an inline node encoding.
func decodeRef(data []byte) (node, error) {
	switch {
	case len(data) == 0:
		return nil, nil
	case len(data) == 32:
		// Inline encodings are shorter than 32 bytes, so this is a hash
		// whatever its first byte.
		return hashNode(data), nil
	case data[0] >= 0xc0:
		// Inline node: the raw encoding was embedded in the parent.
		return decodeNode(nil, data)
	default:
		// Inline value reference inside an extension slot.
		return valueNode(data), nil
	}
}

// splitNodeList splits the RLP encoding of a node into its top-level
// elements. String elements are returned as their payload; nested list
// elements (inline nodes) keep their header so they can be decoded
// recursively.
func splitNodeList(data []byte) ([][]byte, error) {
	payload, err := listPayload(data)
	if err != nil {
		return nil, err
	}
	var elems [][]byte
	for len(payload) > 0 {
		elem, rest, err := nextElement(payload)
		if err != nil {
			return nil, err
		}
		elems = append(elems, elem)
		payload = rest
	}
	return elems, nil
}

// listPayload strips the list header from data and returns the content.
func listPayload(data []byte) ([]byte, error) {
	prefix := data[0]
	if prefix < 0xc0 {
		return nil, fmt.Errorf("%w: not a list (prefix 0x%02x)", errDecodeInvalid, prefix)
	}
	if prefix <= 0xf7 {
		size := int(prefix - 0xc0)
		if 1+size > len(data) {
			return nil, errDecodeInvalid
		}
		return data[1 : 1+size], nil
	}
	lenOfLen := int(prefix - 0xf7)
	if 1+lenOfLen > len(data) {
		return nil, errDecodeInvalid
	}
	size := beInt(data[1 : 1+lenOfLen])
	if 1+lenOfLen+size > len(data) {
		return nil, errDecodeInvalid
	}
	return data[1+lenOfLen : 1+lenOfLen+size], nil
}

// nextElement reads one element from the front of a list payload. Strings
// are stripped to their content; nested lists are returned whole.
func nextElement(data []byte) (elem, rest []byte, err error) {
	prefix := data[0]
	switch {
	case prefix <= 0x7f:
		return data[:1], data[1:], nil

	case prefix <= 0xb7:
		size := int(prefix - 0x80)
		if 1+size > len(data) {
			return nil, nil, errDecodeInvalid
		}
		return data[1 : 1+size], data[1+size:], nil

	case prefix <= 0xbf:
		lenOfLen := int(prefix - 0xb7)
		if 1+lenOfLen > len(data) {
			return nil, nil, errDecodeInvalid
		}
		size := beInt(data[1 : 1+lenOfLen])
		end := 1 + lenOfLen + size
		if end > len(data) {
			return nil, nil, errDecodeInvalid
		}
		return data[1+lenOfLen : end], data[end:], nil

	case prefix <= 0xf7:
		size := int(prefix - 0xc0)
		end := 1 + size
		if end > len(data) {
			return nil, nil, errDecodeInvalid
		}
		return data[:end], data[end:], nil

	default:
		lenOfLen := int(prefix - 0xf7)
		if 1+lenOfLen > len(data) {
			return nil, nil, errDecodeInvalid
		}
		size := beInt(data[1 : 1+lenOfLen])
		end := 1 + lenOfLen + size
		if end > len(data) {
			return nil, nil, errDecodeInvalid
		}
		return data[:end], data[end:], nil
	}
}

// beInt interprets data as a big-endian integer.
func beInt(data []byte) int {
	var n int
	for _, b := range data {
		n = n<<8 | int(b)
	}
	return n
}
