// Package crypto holds the ledger's hash and signature primitives.
//
// poseidon.go is the ledger hash: Poseidon2 over the BN254 scalar field with
// gnark-crypto's default parameters (width 2, 6 full and 50 partial rounds).
// Merkle nodes use the 2-to-1 compression directly; bet leaves and signed
// messages use the Merkle-Damgard hasher built on the same compression, so a
// gnark circuit using std/hash/poseidon2 recomputes both.
package crypto

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"

	"github.com/dar7an/zk-cricket-trader/field"
)

// Poseidon2 instance parameters. These must match the circuit side.
const (
	PoseidonWidth         = 2
	PoseidonFullRounds    = 6
	PoseidonPartialRounds = 50
)

// compressor is stateless after construction and safe for concurrent use.
var compressor = poseidon2.NewPermutation(PoseidonWidth, PoseidonFullRounds, PoseidonPartialRounds)

// Hash2 is the two-to-one compression used for Merkle nodes:
// P(left, right)[1] + right, the same feed-forward as Permutation.Compress.
func Hash2(left, right field.Scalar) field.Scalar {
	x := [PoseidonWidth]fr.Element{left.Element(), right.Element()}
	if err := compressor.Permutation(x[:]); err != nil {
		// Only a wrong buffer width fails, and x is sized by the constant.
		panic(err)
	}
	r := right.Element()
	x[1].Add(&x[1], &r)
	return field.FromElement(x[1])
}

// PoseidonHash absorbs inputs one block at a time into a zero initial
// state. Every input is a full block, so no padding ambiguity arises, but
// callers hashing variable-length vectors still commit to the length
// themselves (see MessageDigest).
func PoseidonHash(inputs ...field.Scalar) field.Scalar {
	h := poseidon2.NewMerkleDamgardHasher()
	for _, in := range inputs {
		b := in.Bytes()
		// Writes fail only on non-canonical blocks; Bytes is canonical.
		if _, err := h.Write(b[:]); err != nil {
			panic(err)
		}
	}
	out, err := field.FromBytes(h.Sum(nil))
	if err != nil {
		panic(err)
	}
	return out
}
