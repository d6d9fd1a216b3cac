package trie

// Enumeration of trie contents. The walk is depth-first in nibble order, so
// pairs come out sorted lexicographically by key.

// KV is one enumerated key/value pair.
type KV struct {
	Key   []byte
	Value []byte
}

// ForEach walks the whole trie and invokes fn for every key/value pair, in
// lexicographic key order. The callback may stop the walk by returning an
// error, which is passed through.
func (t *Trie) ForEach(fn func(key, value []byte) error) error {
	return t.forEach(t.root, nil, fn)
}

func (t *Trie) forEach(n node, path []byte, fn func(key, value []byte) error) error {
	switch n := n.(type) {
	case nil:
		return nil

	case valueNode:
		return fn(hexToKeybytes(path), []byte(n))

	case *shortNode:
		childPath := append(append([]byte{}, path...), n.Key...)
		return t.forEach(n.Val, childPath, fn)

	case *fullNode:
		// The value slot holds the key ending at this branch, which sorts
		// before every longer key below it.
		if n.Children[16] != nil {
			valPath := append(append([]byte{}, path...), terminatorNibble)
			if err := t.forEach(n.Children[16], valPath, fn); err != nil {
				return err
			}
		}
		for i := 0; i < 16; i++ {
			if n.Children[i] == nil {
				continue
			}
			childPath := append(append([]byte{}, path...), byte(i))
			if err := t.forEach(n.Children[i], childPath, fn); err != nil {
				return err
			}
		}
		return nil

	case hashNode:
		resolved, err := t.resolveHash(n, path)
		if err != nil {
			return err
		}
		return t.forEach(resolved, path, fn)

	default:
		return nil
	}
}

// Items collects every key/value pair in the trie, sorted by key.
func (t *Trie) Items() ([]KV, error) {
	var items []KV
	err := t.ForEach(func(key, value []byte) error {
		items = append(items, KV{Key: key, Value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}
