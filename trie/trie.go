package trie

import (
	"bytes"
	"fmt"

	"github.com/hayesgm/exthereum/core/types"
)

// emptyRoot is the hash of an empty trie, keccak256(rlp("")).
var emptyRoot = types.EmptyRootHash

// Trie is a Merkle Patricia Trie over a node database. All mutations are
// copy-on-write: shared subtrees are referenced by hash in the new version,
// so holding an old root keeps the old contents reachable.
//
// Trie is not safe for concurrent use, reads included: Get and Hash store
// resolved and hashed nodes back into the trie's root.
type Trie struct {
	root node
	db   *NodeDatabase
}

// NewEmpty creates an empty trie on the given database. db may be nil when
// the trie is only used in memory (e.g. for list-root derivation).
func NewEmpty(db *NodeDatabase) *Trie {
	return &Trie{db: db}
}

// New creates a trie with the given root, resolving the root node from the
// database. The zero hash and the empty-trie root both yield an empty trie.
func New(root types.Hash, db *NodeDatabase) (*Trie, error) {
	t := &Trie{db: db}
	if root == (types.Hash{}) || root == emptyRoot {
		return t, nil
	}
	rn, err := t.resolveHash(hashNode(root.Bytes()), nil)
	if err != nil {
		return nil, err
	}
	t.root = rn
	return t, nil
}

// newFlag returns the flag set for a freshly modified node.
func (t *Trie) newFlag() nodeFlag {
	return nodeFlag{dirty: true}
}

// Get returns the value stored under key, or nil if the key is absent.
// An error means a hashed node could not be resolved, which indicates
// store corruption rather than a missing key.
func (t *Trie) Get(key []byte) ([]byte, error) {
	value, newroot, err := t.get(t.root, keybytesToHex(key), 0)
	if err != nil {
		return nil, err
	}
	t.root = newroot
	return value, nil
}

func (t *Trie) get(n node, key []byte, pos int) ([]byte, node, error) {
	switch n := n.(type) {
	case nil:
		return nil, nil, nil
	case valueNode:
		return n, n, nil
	case *shortNode:
		if len(key)-pos < len(n.Key) || !bytes.Equal(n.Key, key[pos:pos+len(n.Key)]) {
			return nil, n, nil
		}
		value, newnode, err := t.get(n.Val, key, pos+len(n.Key))
		if err == nil && newnode != nil {
			n = n.copy()
			n.Val = newnode
		}
		return value, n, err
	case *fullNode:
		value, newnode, err := t.get(n.Children[key[pos]], key, pos+1)
		if err == nil && newnode != nil {
			n = n.copy()
			n.Children[key[pos]] = newnode
		}
		return value, n, err
	case hashNode:
		child, err := t.resolveHash(n, key[:pos])
		if err != nil {
			return nil, n, err
		}
		value, newnode, err := t.get(child, key, pos)
		return value, newnode, err
	default:
		panic(fmt.Sprintf("trie: invalid node type %T", n))
	}
}

// Update associates key with value. An empty value deletes the key.
func (t *Trie) Update(key, value []byte) error {
	k := keybytesToHex(key)
	if len(value) == 0 {
		n, err := t.delete(t.root, nil, k)
		if err != nil {
			return err
		}
		t.root = n
		return nil
	}
	n, err := t.insert(t.root, nil, k, valueNode(value))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

// Delete removes key from the trie.
func (t *Trie) Delete(key []byte) error {
	n, err := t.delete(t.root, nil, keybytesToHex(key))
	if err != nil {
		return err
	}
	t.root = n
	return nil
}

// insert adds value under the remaining key below n, returning the
// replacement node. prefix is the path already consumed, used only for
// resolving hash references.
func (t *Trie) insert(n node, prefix, key []byte, value node) (node, error) {
	if len(key) == 0 {
		return value, nil
	}
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		// The whole short-node key matches: descend.
		if matchlen == len(n.Key) {
			nn, err := t.insert(n.Val, append(prefix, key[:matchlen]...), key[matchlen:], value)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: nn, flags: t.newFlag()}, nil
		}
		// Paths diverge: build a branch at the fork point.
		branch := &fullNode{flags: t.newFlag()}
		var err error
		branch.Children[n.Key[matchlen]], err = t.insert(nil, append(prefix, n.Key[:matchlen+1]...), n.Key[matchlen+1:], n.Val)
		if err != nil {
			return nil, err
		}
		branch.Children[key[matchlen]], err = t.insert(nil, append(prefix, key[:matchlen+1]...), key[matchlen+1:], value)
		if err != nil {
			return nil, err
		}
		if matchlen == 0 {
			return branch, nil
		}
		// Shared prefix survives as an extension above the branch.
		return &shortNode{Key: key[:matchlen], Val: branch, flags: t.newFlag()}, nil

	case *fullNode:
		nn, err := t.insert(n.Children[key[0]], append(prefix, key[0]), key[1:], value)
		if err != nil {
			return nil, err
		}
		n = n.copy()
		n.flags = t.newFlag()
		n.Children[key[0]] = nn
		return n, nil

	case nil:
		return &shortNode{Key: key, Val: value, flags: t.newFlag()}, nil

	case hashNode:
		rn, err := t.resolveHash(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.insert(rn, prefix, key, value)

	default:
		panic(fmt.Sprintf("trie: invalid node type %T", n))
	}
}

// delete removes the remaining key below n, collapsing degenerate nodes on
// the way back up so the structural invariants (extensions point at
// branches, branches have two or more occupied slots) keep holding.
func (t *Trie) delete(n node, prefix, key []byte) (node, error) {
	switch n := n.(type) {
	case *shortNode:
		matchlen := prefixLen(key, n.Key)
		if matchlen < len(n.Key) {
			return n, nil // key absent
		}
		if matchlen == len(key) {
			return nil, nil // exact match, remove the leaf
		}
		child, err := t.delete(n.Val, append(prefix, key[:len(n.Key)]...), key[len(n.Key):])
		if err != nil {
			return nil, err
		}
		switch child := child.(type) {
		case *shortNode:
			// Merge the surviving child path into this node.
			merged := make([]byte, 0, len(n.Key)+len(child.Key))
			merged = append(merged, n.Key...)
			merged = append(merged, child.Key...)
			return &shortNode{Key: merged, Val: child.Val, flags: t.newFlag()}, nil
		default:
			return &shortNode{Key: n.Key, Val: child, flags: t.newFlag()}, nil
		}

	case *fullNode:
		nn, err := t.delete(n.Children[key[0]], append(prefix, key[0]), key[1:])
		if err != nil {
			return nil, err
		}
		n = n.copy()
		n.flags = t.newFlag()
		n.Children[key[0]] = nn

		// Count the occupied slots. With two or more the branch stays.
		pos := -1
		for i, child := range &n.Children {
			if child != nil {
				if pos == -1 {
					pos = i
				} else {
					pos = -2
					break
				}
			}
		}
		if pos == -2 {
			return n, nil
		}
		if pos != 16 {
			// A single child remains: fold the branch into it. The child
			// must be resolved since merging needs its key.
			cnode, err := t.resolve(n.Children[pos], append(prefix, byte(pos)))
			if err != nil {
				return nil, err
			}
			if cnode, ok := cnode.(*shortNode); ok {
				k := append([]byte{byte(pos)}, cnode.Key...)
				return &shortNode{Key: k, Val: cnode.Val, flags: t.newFlag()}, nil
			}
			return &shortNode{Key: []byte{byte(pos)}, Val: n.Children[pos], flags: t.newFlag()}, nil
		}
		// Only the value slot remains.
		return &shortNode{Key: []byte{terminatorNibble}, Val: n.Children[16], flags: t.newFlag()}, nil

	case valueNode:
		return nil, nil

	case nil:
		return nil, nil

	case hashNode:
		rn, err := t.resolveHash(n, prefix)
		if err != nil {
			return nil, err
		}
		return t.delete(rn, prefix, key)

	default:
		panic(fmt.Sprintf("trie: invalid node type %T", n))
	}
}

// resolve loads n from the database when it is a hash reference.
func (t *Trie) resolve(n node, prefix []byte) (node, error) {
	if hn, ok := n.(hashNode); ok {
		return t.resolveHash(hn, prefix)
	}
	return n, nil
}

func (t *Trie) resolveHash(hn hashNode, prefix []byte) (node, error) {
	if t.db == nil {
		return nil, ErrNodeNotFound
	}
	data, err := t.db.Node(types.BytesToHash(hn))
	if err != nil {
		return nil, fmt.Errorf("%w (path %x)", err, prefix)
	}
	return decodeNode(hn, data)
}

// Hash computes the root hash without writing anything to the database.
func (t *Trie) Hash() types.Hash {
	if t.root == nil {
		return emptyRoot
	}
	h := &hasher{}
	hashed, cached := h.hash(t.root, true)
	t.root = cached
	return types.BytesToHash(hashed.(hashNode))
}

// Commit computes the root hash and records every dirty node's encoding in
// the node database. The nodes stay in the database's dirty layer until it
// is flushed to a backing store.
func (t *Trie) Commit() (types.Hash, error) {
	if t.root == nil {
		return emptyRoot, nil
	}
	if t.db == nil {
		return types.Hash{}, fmt.Errorf("trie: commit without database")
	}
	h := &hasher{db: t.db}
	hashed, cached := h.hash(t.root, true)
	t.root = cached
	return types.BytesToHash(hashed.(hashNode)), nil
}
