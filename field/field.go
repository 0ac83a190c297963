// Package field maps external payload values (fixture ids, team ids,
// millisecond timestamps, status codes, amounts) into the BN254 scalar
// field used for hashing and signing.
//
// Encoding never reduces modulo r: a negative value or one at or above the
// modulus is rejected with an *EncodingError before it reaches any
// cryptographic code, so two distinct payloads can never encode to the same
// scalar vector.
package field

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/holiman/uint256"
)

// Size is the byte length of a canonical big-endian scalar encoding.
const Size = fr.Bytes

// ChunkSize is the number of bytes packed into one scalar by SplitBytes.
// 16 bytes always fit below the ~254-bit modulus.
const ChunkSize = 16

// ErrEncoding is matched by every *EncodingError via errors.Is.
var ErrEncoding = errors.New("field: invalid encoding")

// EncodingError reports an external value that cannot be mapped into the
// scalar domain.
type EncodingError struct {
	Value  string
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("field: cannot encode %q: %s", e.Value, e.Reason)
}

// Unwrap lets errors.Is(err, ErrEncoding) match.
func (e *EncodingError) Unwrap() error { return ErrEncoding }

// modulus is the BN254 scalar field order r.
var modulus = fr.Modulus()

// Modulus returns a copy of the scalar field order.
func Modulus() *big.Int {
	return new(big.Int).Set(modulus)
}

// Scalar is a canonical element of the scalar field. The zero value is 0.
// Scalars are comparable with ==.
type Scalar struct {
	e fr.Element
}

// Zero is the additive identity.
var Zero Scalar

// FromUint64 encodes v. Every uint64 is below the modulus, so this cannot fail.
func FromUint64(v uint64) Scalar {
	var s Scalar
	s.e.SetUint64(v)
	return s
}

// FromInt64 encodes v, rejecting negatives.
func FromInt64(v int64) (Scalar, error) {
	if v < 0 {
		return Scalar{}, &EncodingError{Value: fmt.Sprint(v), Reason: "negative value"}
	}
	return FromUint64(uint64(v)), nil
}

// FromBig encodes v, rejecting nil, negatives and values >= r.
func FromBig(v *big.Int) (Scalar, error) {
	if v == nil {
		return Scalar{}, &EncodingError{Value: "<nil>", Reason: "missing value"}
	}
	if v.Sign() < 0 {
		return Scalar{}, &EncodingError{Value: v.String(), Reason: "negative value"}
	}
	if v.Cmp(modulus) >= 0 {
		return Scalar{}, &EncodingError{Value: v.String(), Reason: "exceeds field modulus"}
	}
	var s Scalar
	s.e.SetBigInt(v)
	return s, nil
}

// FromUint256 encodes v, rejecting values >= r.
func FromUint256(v *uint256.Int) (Scalar, error) {
	if v == nil {
		return Scalar{}, &EncodingError{Value: "<nil>", Reason: "missing value"}
	}
	return FromBig(v.ToBig())
}

// FromDecimal parses a base-10 string.
func FromDecimal(s string) (Scalar, error) {
	if s == "" {
		return Scalar{}, &EncodingError{Value: s, Reason: "empty string"}
	}
	if strings.HasPrefix(s, "-") {
		return Scalar{}, &EncodingError{Value: s, Reason: "negative value"}
	}
	u, err := uint256.FromDecimal(s)
	if err != nil {
		return Scalar{}, &EncodingError{Value: s, Reason: err.Error()}
	}
	return FromUint256(u)
}

// FromMillis encodes t as milliseconds since the Unix epoch. Instants before
// the epoch are rejected.
func FromMillis(t time.Time) (Scalar, error) {
	return FromInt64(t.UnixMilli())
}

// FromBytes decodes a canonical 32-byte big-endian encoding, the inverse of
// Bytes.
func FromBytes(b []byte) (Scalar, error) {
	if len(b) != Size {
		return Scalar{}, &EncodingError{Value: fmt.Sprintf("%x", b), Reason: fmt.Sprintf("want %d bytes, got %d", Size, len(b))}
	}
	var s Scalar
	if err := s.e.SetBytesCanonical(b); err != nil {
		return Scalar{}, &EncodingError{Value: fmt.Sprintf("%x", b), Reason: "non-canonical encoding"}
	}
	return s, nil
}

// Big returns the integer value of s.
func (s Scalar) Big() *big.Int {
	return s.e.BigInt(new(big.Int))
}

// Uint64 returns the value of s and whether it fits a uint64.
func (s Scalar) Uint64() (uint64, bool) {
	if !s.e.IsUint64() {
		return 0, false
	}
	return s.e.Uint64(), true
}

// Bytes returns the canonical big-endian encoding.
func (s Scalar) Bytes() [Size]byte {
	return s.e.Bytes()
}

// IsZero reports whether s is 0.
func (s Scalar) IsZero() bool {
	return s.e.IsZero()
}

// Element exposes the underlying field element for arithmetic.
func (s Scalar) Element() fr.Element {
	return s.e
}

// FromElement wraps an fr.Element. Elements are always reduced, so this
// cannot fail.
func FromElement(e fr.Element) Scalar {
	return Scalar{e: e}
}

// String returns the decimal representation.
func (s Scalar) String() string {
	return s.Big().String()
}

// MarshalText encodes s in decimal.
func (s Scalar) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a decimal string with the same checks as FromDecimal.
func (s *Scalar) UnmarshalText(b []byte) error {
	v, err := FromDecimal(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// SplitBytes encodes an arbitrary byte string as [len, chunk0, chunk1, ...]
// where each chunk is up to ChunkSize big-endian bytes. The length prefix
// makes the mapping injective across inputs of different sizes.
func SplitBytes(b []byte) []Scalar {
	out := make([]Scalar, 0, 1+(len(b)+ChunkSize-1)/ChunkSize)
	out = append(out, FromUint64(uint64(len(b))))
	for i := 0; i < len(b); i += ChunkSize {
		end := i + ChunkSize
		if end > len(b) {
			end = len(b)
		}
		var s Scalar
		s.e.SetBigInt(new(big.Int).SetBytes(b[i:end]))
		out = append(out, s)
	}
	return out
}
