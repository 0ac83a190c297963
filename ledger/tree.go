package ledger

import (
	"sync"
)

// FullTree is the complete off-chain tree: every filled leaf and every
// internal node that differs from an empty subtree. Unset nodes read as the
// zero-subtree hash for their level.
type FullTree struct {
	mu      sync.RWMutex
	height  int
	levels  []map[uint64]Hash // levels[0] = leaves, levels[height] = root
	nextIdx uint64
}

// NewFullTree creates an empty tree.
func NewFullTree(height int) (*FullTree, error) {
	if err := checkHeight(height); err != nil {
		return nil, err
	}
	levels := make([]map[uint64]Hash, height+1)
	for i := range levels {
		levels[i] = make(map[uint64]Hash)
	}
	return &FullTree{height: height, levels: levels}, nil
}

// Height returns the tree height.
func (t *FullTree) Height() int { return t.height }

// Capacity returns the number of leaf slots, 2^height.
func (t *FullTree) Capacity() uint64 { return 1 << uint(t.height) }

// Root returns the current root.
func (t *FullTree) Root() Hash {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.node(t.height, 0)
}

// Size returns the number of slots handed out by Insert.
func (t *FullTree) Size() uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nextIdx
}

// NextIndex returns the slot the next Insert will use.
func (t *FullTree) NextIndex() uint64 { return t.Size() }

// Leaf returns the value at index.
func (t *FullTree) Leaf(index uint64) (Hash, error) {
	if index >= t.Capacity() {
		return Hash{}, ErrBadIndex
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.node(0, index), nil
}

// Insert places leaf at the next free index, which grows strictly from 0,
// and returns that index with its witness under the new root.
func (t *FullTree) Insert(leaf Hash) (uint64, Witness, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.nextIdx >= t.Capacity() {
		return 0, Witness{}, ErrTreeFull
	}
	idx := t.nextIdx
	t.setLeaf(idx, leaf)
	t.nextIdx++
	return idx, t.witness(idx), nil
}

// SetLeaf writes leaf at an arbitrary index. Indices past the insertion
// cursor advance it.
func (t *FullTree) SetLeaf(index uint64, leaf Hash) error {
	if index >= t.Capacity() {
		return ErrBadIndex
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.setLeaf(index, leaf)
	if index >= t.nextIdx {
		t.nextIdx = index + 1
	}
	return nil
}

// WitnessFor returns the authentication path for index under the current root.
func (t *FullTree) WitnessFor(index uint64) (Witness, error) {
	if index >= t.Capacity() {
		return Witness{}, ErrBadIndex
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.witness(index), nil
}

// node reads a stored node, defaulting to the empty subtree hash.
func (t *FullTree) node(level int, index uint64) Hash {
	if h, ok := t.levels[level][index]; ok {
		return h
	}
	return zeroHashes[level]
}

// setLeaf writes a leaf and rehashes its path to the root.
func (t *FullTree) setLeaf(index uint64, leaf Hash) {
	t.put(0, index, leaf)
	cur := leaf
	for level := 0; level < t.height; level++ {
		if index%2 == 0 {
			cur = hashNode(cur, t.node(level, index+1))
		} else {
			cur = hashNode(t.node(level, index-1), cur)
		}
		index /= 2
		t.put(level+1, index, cur)
	}
}

// put stores h, dropping entries equal to the empty subtree.
func (t *FullTree) put(level int, index uint64, h Hash) {
	if h == zeroHashes[level] {
		delete(t.levels[level], index)
		return
	}
	t.levels[level][index] = h
}

func (t *FullTree) witness(index uint64) Witness {
	w := Witness{
		Siblings: make([]Hash, t.height),
		IsLeft:   make([]bool, t.height),
	}
	for level := 0; level < t.height; level++ {
		left := index%2 == 0
		w.IsLeft[level] = left
		if left {
			w.Siblings[level] = t.node(level, index+1)
		} else {
			w.Siblings[level] = t.node(level, index-1)
		}
		index /= 2
	}
	return w
}
