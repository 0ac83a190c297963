// Package ledger implements the bet ledger's commitment structure: a
// fixed-height sparse Merkle tree over bet-hash leaves, the authentication
// witnesses that fold a leaf up to a root, and the two views kept on either
// side of the commitment boundary.
//
// Commitment carries only the root and is what the contract state stores.
// FullTree holds every leaf and can produce witnesses; Mirror wraps it for
// the party that places bets and keeps it in lockstep with the committed
// root.
package ledger

import (
	"errors"

	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
)

// DefaultHeight gives 2^8 = 256 bet slots.
const DefaultHeight = 8

// MaxHeight bounds the tree so indices fit a uint64 with room to spare and
// the zero-subtree table stays small.
const MaxHeight = 32

// Ledger errors.
var (
	ErrBadHeight    = errors.New("ledger: height out of range")
	ErrBadWitness   = errors.New("ledger: malformed witness")
	ErrBadIndex     = errors.New("ledger: index out of range")
	ErrTreeFull     = errors.New("ledger: tree is full")
	ErrSlotNotEmpty = errors.New("ledger: slot is not empty")
	ErrOutOfSync    = errors.New("ledger: mirror root differs from committed root")
)

// Hash is a tree node value: a leaf hash, an internal node or a root.
type Hash field.Scalar

// ZeroLeaf is the value of every unused slot.
var ZeroLeaf = Hash(field.Zero)

// Scalar returns h as a field element.
func (h Hash) Scalar() field.Scalar { return field.Scalar(h) }

// Bytes returns the canonical 32-byte encoding.
func (h Hash) Bytes() [field.Size]byte { return field.Scalar(h).Bytes() }

// String returns the decimal representation.
func (h Hash) String() string { return field.Scalar(h).String() }

// MarshalText encodes h in decimal.
func (h Hash) MarshalText() ([]byte, error) { return field.Scalar(h).MarshalText() }

// UnmarshalText decodes a decimal hash.
func (h *Hash) UnmarshalText(b []byte) error {
	return (*field.Scalar)(h).UnmarshalText(b)
}

// HashFromBytes decodes a canonical 32-byte encoding.
func HashFromBytes(b []byte) (Hash, error) {
	s, err := field.FromBytes(b)
	return Hash(s), err
}

// hashNode combines two children. Left/right order is significant.
func hashNode(left, right Hash) Hash {
	return Hash(crypto.Hash2(field.Scalar(left), field.Scalar(right)))
}

// zeroHashes[i] is the root of an empty subtree of height i (0 = leaf).
var zeroHashes [MaxHeight + 1]Hash

func init() {
	zeroHashes[0] = ZeroLeaf
	for i := 1; i <= MaxHeight; i++ {
		zeroHashes[i] = hashNode(zeroHashes[i-1], zeroHashes[i-1])
	}
}

// checkHeight validates a tree height.
func checkHeight(height int) error {
	if height < 1 || height > MaxHeight {
		return ErrBadHeight
	}
	return nil
}

// EmptyRoot returns the root of a tree of the given height with every slot
// holding ZeroLeaf. It panics on an invalid height.
func EmptyRoot(height int) Hash {
	if err := checkHeight(height); err != nil {
		panic(err)
	}
	return zeroHashes[height]
}

// Bet is one user's wager.
type Bet struct {
	User   crypto.PublicKey `json:"user"`
	TeamID field.Scalar     `json:"teamID"`
	Amount field.Scalar     `json:"amount"`
}

// Scalars returns the bet's encoded field vector: the user key chunks
// followed by team id and amount.
func (b Bet) Scalars() []field.Scalar {
	out := b.User.Scalars()
	return append(out, b.TeamID, b.Amount)
}

// Hash returns the bet's leaf value.
func (b Bet) Hash() Hash { return LeafHash(b) }

// LeafHash hashes a bet's encoded fields. The user key is length-prefixed,
// so the vector layout is unambiguous.
func LeafHash(b Bet) Hash {
	return Hash(crypto.PoseidonHash(b.Scalars()...))
}
