package ledger

// Commitment is the root-only view of the ledger that contract state holds.
// It is a value type; Advance returns a new Commitment.
type Commitment struct {
	root   Hash
	height int
}

// NewCommitment returns the commitment to an empty tree.
func NewCommitment(height int) (Commitment, error) {
	if err := checkHeight(height); err != nil {
		return Commitment{}, err
	}
	return Commitment{root: zeroHashes[height], height: height}, nil
}

// CommitmentAt wraps an already committed root.
func CommitmentAt(root Hash, height int) (Commitment, error) {
	if err := checkHeight(height); err != nil {
		return Commitment{}, err
	}
	return Commitment{root: root, height: height}, nil
}

// Root returns the committed root.
func (c Commitment) Root() Hash { return c.root }

// Height returns the tree height.
func (c Commitment) Height() int { return c.height }

// VerifyMember reports whether leaf sits at the witnessed index under this root.
func (c Commitment) VerifyMember(w Witness, leaf Hash) bool {
	if w.Validate(c.height) != nil {
		return false
	}
	return RootFromWitness(w, leaf) == c.root
}

// VerifyEmpty reports whether the witnessed slot holds ZeroLeaf under this root.
func (c Commitment) VerifyEmpty(w Witness) bool {
	return c.VerifyMember(w, ZeroLeaf)
}

// Advance places leaf into the witnessed slot, which must currently be empty.
func (c Commitment) Advance(w Witness, leaf Hash) (Commitment, error) {
	if err := w.Validate(c.height); err != nil {
		return c, err
	}
	if RootFromWitness(w, ZeroLeaf) != c.root {
		return c, ErrSlotNotEmpty
	}
	return Commitment{root: RootFromWitness(w, leaf), height: c.height}, nil
}
