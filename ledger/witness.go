package ledger

import (
	"fmt"
)

// Witness is an authentication path from one leaf to the root. Entry i
// belongs to level i counted from the leaves: Siblings[i] is the hash next
// to the path node, IsLeft[i] says the path node is the left child.
type Witness struct {
	Siblings []Hash `json:"siblings"`
	IsLeft   []bool `json:"isLeft"`
}

// Height returns the number of levels the witness spans.
func (w Witness) Height() int { return len(w.Siblings) }

// Index recovers the leaf index from the direction bits.
func (w Witness) Index() uint64 {
	var idx uint64
	for i, left := range w.IsLeft {
		if !left {
			idx |= 1 << uint(i)
		}
	}
	return idx
}

// Validate checks the witness shape against a tree height.
func (w Witness) Validate(height int) error {
	if err := checkHeight(height); err != nil {
		return err
	}
	if len(w.Siblings) != height || len(w.IsLeft) != height {
		return fmt.Errorf("%w: want %d levels, got %d siblings and %d directions",
			ErrBadWitness, height, len(w.Siblings), len(w.IsLeft))
	}
	return nil
}

// RootFromWitness folds leaf up the path. It is the single definition of
// node ordering shared by proof checking and tree construction. Callers
// validate the witness shape first; a ragged witness is folded only as far
// as both slices reach.
func RootFromWitness(w Witness, leaf Hash) Hash {
	n := len(w.Siblings)
	if len(w.IsLeft) < n {
		n = len(w.IsLeft)
	}
	cur := leaf
	for i := 0; i < n; i++ {
		if w.IsLeft[i] {
			cur = hashNode(cur, w.Siblings[i])
		} else {
			cur = hashNode(w.Siblings[i], cur)
		}
	}
	return cur
}

// Clone returns a deep copy.
func (w Witness) Clone() Witness {
	return Witness{
		Siblings: append([]Hash(nil), w.Siblings...),
		IsLeft:   append([]bool(nil), w.IsLeft...),
	}
}
