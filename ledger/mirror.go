package ledger

import (
	"fmt"
	"sync"
)

// Mirror is the bet-placing party's shadow of the committed ledger. It
// keeps the full tree plus the bet list and only ever advances after the
// matching PlaceBet has been applied on-chain.
//
// Usage: Sync against the committed root, take NextWitness to build the
// proposal, submit it, then Confirm with the bet and the newly committed
// root. If the submission was rejected, re-read the committed root,
// rebuild the mirror if needed and start over.
type Mirror struct {
	mu   sync.Mutex
	tree *FullTree
	bets []Placement
}

// Placement is a bet together with the slot it occupies.
type Placement struct {
	Index uint64
	Bet   Bet
}

// NewMirror creates a mirror of an empty ledger.
func NewMirror(height int) (*Mirror, error) {
	tree, err := NewFullTree(height)
	if err != nil {
		return nil, err
	}
	return &Mirror{tree: tree}, nil
}

// RebuildMirror replays placements in the order given. Slots may be
// sparse; the insertion cursor ends one past the highest slot.
func RebuildMirror(height int, placed []Placement) (*Mirror, error) {
	m, err := NewMirror(height)
	if err != nil {
		return nil, err
	}
	for _, p := range placed {
		if err := m.tree.SetLeaf(p.Index, p.Bet.Hash()); err != nil {
			return nil, fmt.Errorf("ledger: replay bet %d: %w", p.Index, err)
		}
		m.bets = append(m.bets, p)
	}
	return m, nil
}

// Height returns the tree height.
func (m *Mirror) Height() int { return m.tree.Height() }

// Root returns the mirror's current root.
func (m *Mirror) Root() Hash { return m.tree.Root() }

// Size returns the number of bets mirrored.
func (m *Mirror) Size() uint64 { return m.tree.Size() }

// Sync checks that the mirror matches the committed root.
func (m *Mirror) Sync(committed Hash) error {
	if root := m.tree.Root(); root != committed {
		return fmt.Errorf("%w: mirror %s, committed %s", ErrOutOfSync, root, committed)
	}
	return nil
}

// NextWitness returns the next free index and its emptiness witness.
func (m *Mirror) NextWitness() (uint64, Witness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.tree.NextIndex()
	if idx >= m.tree.Capacity() {
		return 0, Witness{}, ErrTreeFull
	}
	w, err := m.tree.WitnessFor(idx)
	return idx, w, err
}

// WitnessFor returns the witness for any index under the mirror's root.
func (m *Mirror) WitnessFor(index uint64) (Witness, error) {
	return m.tree.WitnessFor(index)
}

// insert appends bet without consulting the committed root. Outside this
// package the mirror only advances through Confirm and ConfirmAt.
func (m *Mirror) insert(bet Bet) (uint64, Witness, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, w, err := m.tree.Insert(bet.Hash())
	if err != nil {
		return 0, Witness{}, err
	}
	m.bets = append(m.bets, Placement{Index: idx, Bet: bet})
	return idx, w, nil
}

// Confirm records bet once PlaceBet has been applied and committed is the
// root it produced. Nothing changes if inserting bet at the next index
// would not yield committed.
func (m *Mirror) Confirm(bet Bet, committed Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmAt(m.tree.NextIndex(), bet, committed)
}

// ConfirmAt is Confirm for a bet placed at an explicit slot.
func (m *Mirror) ConfirmAt(index uint64, bet Bet, committed Hash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmAt(index, bet, committed)
}

// confirmAt requires m.mu.
func (m *Mirror) confirmAt(index uint64, bet Bet, committed Hash) error {
	if index >= m.tree.Capacity() {
		return ErrTreeFull
	}
	w, err := m.tree.WitnessFor(index)
	if err != nil {
		return err
	}
	if RootFromWitness(w, ZeroLeaf) != m.tree.Root() {
		return fmt.Errorf("%w: index %d", ErrSlotNotEmpty, index)
	}
	if got := RootFromWitness(w, bet.Hash()); got != committed {
		return fmt.Errorf("%w: inserting at %d gives %s, committed %s", ErrOutOfSync, index, got, committed)
	}
	if err := m.tree.SetLeaf(index, bet.Hash()); err != nil {
		return err
	}
	m.bets = append(m.bets, Placement{Index: index, Bet: bet})
	return nil
}

// Bets returns the mirrored bets in the order they were confirmed.
func (m *Mirror) Bets() []Placement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Placement(nil), m.bets...)
}
