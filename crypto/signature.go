package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/dar7an/zk-cricket-trader/field"
)

// Domain separates the message spaces signed by the different parties, so
// an oracle signature can never be replayed as a deploy authorisation or a
// bet envelope.
type Domain uint64

const (
	DomainOracle Domain = 1 + iota
	DomainDeploy
	DomainBet
)

func (d Domain) String() string {
	switch d {
	case DomainOracle:
		return "oracle"
	case DomainDeploy:
		return "deploy"
	case DomainBet:
		return "bet"
	default:
		return fmt.Sprintf("domain(%d)", uint64(d))
	}
}

// Digest is the 32-byte value a signature scheme actually signs.
type Digest [32]byte

// MessageDigest commits to an ordered scalar vector. The vector is hashed as
// [domain, len, m0, m1, ...]; reordering, truncating or zero-extending the
// vector changes the digest.
func MessageDigest(domain Domain, msg []field.Scalar) Digest {
	in := make([]field.Scalar, 0, len(msg)+2)
	in = append(in, field.FromUint64(uint64(domain)), field.FromUint64(uint64(len(msg))))
	in = append(in, msg...)
	return Digest(PoseidonHash(in...).Bytes())
}

// PublicKey is a serialized verification key. The encoding is owned by the
// scheme that produced it.
type PublicKey []byte

// Equal reports whether two keys have identical encodings.
func (k PublicKey) Equal(o PublicKey) bool { return bytes.Equal(k, o) }

// Scalars encodes the key for inclusion in a signed or hashed vector.
func (k PublicKey) Scalars() []field.Scalar { return field.SplitBytes(k) }

// Hex returns the lowercase hex encoding.
func (k PublicKey) Hex() string { return hex.EncodeToString(k) }

func (k PublicKey) String() string { return k.Hex() }

// MarshalText encodes k as hex.
func (k PublicKey) MarshalText() ([]byte, error) { return []byte(k.Hex()), nil }

// UnmarshalText decodes hex, with or without 0x.
func (k *PublicKey) UnmarshalText(b []byte) error {
	raw, err := DecodeHex(string(b))
	if err != nil {
		return err
	}
	*k = raw
	return nil
}

// Signature is a serialized signature.
type Signature []byte

// Hex returns the lowercase hex encoding.
func (s Signature) Hex() string { return hex.EncodeToString(s) }

// MarshalText encodes s as hex.
func (s Signature) MarshalText() ([]byte, error) { return []byte(s.Hex()), nil }

// UnmarshalText decodes hex, with or without 0x.
func (s *Signature) UnmarshalText(b []byte) error {
	raw, err := DecodeHex(string(b))
	if err != nil {
		return err
	}
	*s = raw
	return nil
}

// DecodeHex parses a hex string with or without a 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("crypto: bad hex: %w", err)
	}
	return b, nil
}

// Scheme verifies signatures over digests. Implementations must be pure and
// must return false, never panic, on malformed keys or signatures.
type Scheme interface {
	Name() string
	VerifyDigest(pub PublicKey, d Digest, sig Signature) bool
	ParsePublicKey(b []byte) (PublicKey, error)
}

// Signer produces signatures for one key.
type Signer interface {
	Public() PublicKey
	SignDigest(d Digest) (Signature, error)
}

// Verify checks sig over the ordered scalar vector msg in the given domain.
func Verify(s Scheme, pub PublicKey, domain Domain, msg []field.Scalar, sig Signature) bool {
	if s == nil || len(pub) == 0 || len(sig) == 0 {
		return false
	}
	return s.VerifyDigest(pub, MessageDigest(domain, msg), sig)
}

// Sign signs the ordered scalar vector msg in the given domain.
func Sign(signer Signer, domain Domain, msg []field.Scalar) (Signature, error) {
	if signer == nil {
		return nil, ErrNoSigner
	}
	return signer.SignDigest(MessageDigest(domain, msg))
}

// Registry errors.
var (
	ErrNoSigner      = errors.New("crypto: no signer")
	ErrUnknownScheme = errors.New("crypto: unknown signature scheme")
	ErrBadPublicKey  = errors.New("crypto: invalid public key")
	ErrBadPrivateKey = errors.New("crypto: invalid private key")
)

var (
	schemesMu sync.RWMutex
	schemes   = map[string]Scheme{}
)

// RegisterScheme makes a scheme available to SchemeByName. Backends
// compiled in behind build tags register themselves from init.
func RegisterScheme(s Scheme) {
	schemesMu.Lock()
	defer schemesMu.Unlock()
	schemes[s.Name()] = s
}

// SchemeByName looks up a registered scheme.
func SchemeByName(name string) (Scheme, error) {
	schemesMu.RLock()
	defer schemesMu.RUnlock()
	s, ok := schemes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, name)
	}
	return s, nil
}

// SchemeNames lists registered schemes in sorted order.
func SchemeNames() []string {
	schemesMu.RLock()
	defer schemesMu.RUnlock()
	names := make([]string, 0, len(schemes))
	for n := range schemes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
