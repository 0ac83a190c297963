//go:build blst

// BLS12-381 oracle backend using the supranational/blst library.
//
// Deployments whose oracle signs with BLS build with -tags blst and set
// the signature scheme to "bls12381". MinPk layout:
//   - Public keys in G1 (48-byte compressed P1Affine)
//   - Signatures in G2 (96-byte compressed P2Affine)
package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	blst "github.com/supranational/blst/bindings/go"
)

// BLSName is the registry name of the BLS scheme.
const BLSName = "bls12381"

// blsDST is the hash-to-curve domain separation tag.
var blsDST = []byte("ZKBET_BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_")

const (
	blsPubkeySize = 48
	blsSigSize    = 96
	blsSecretSize = 32
)

var (
	ErrBLSKeyGenFailed = errors.New("crypto: bls key generation failed")
	ErrBLSSignFailed   = errors.New("crypto: bls signing failed")
)

// BLS implements Scheme with blst.
type BLS struct{}

func init() {
	RegisterScheme(BLS{})
}

// Name returns the scheme identifier.
func (BLS) Name() string { return BLSName }

// VerifyDigest checks a single BLS signature over d.
func (BLS) VerifyDigest(pub PublicKey, d Digest, sig Signature) bool {
	if len(pub) != blsPubkeySize || len(sig) != blsSigSize {
		return false
	}
	pk := new(blst.P1Affine).Uncompress(pub)
	if pk == nil {
		return false
	}
	s := new(blst.P2Affine).Uncompress(sig)
	if s == nil {
		return false
	}
	return s.Verify(true, pk, true, d[:], blsDST)
}

// ParsePublicKey checks that b is a valid compressed G1 point.
func (BLS) ParsePublicKey(b []byte) (PublicKey, error) {
	if len(b) != blsPubkeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrBadPublicKey, blsPubkeySize, len(b))
	}
	pk := new(blst.P1Affine).Uncompress(b)
	if pk == nil || !pk.KeyValidate() {
		return nil, ErrBadPublicKey
	}
	return PublicKey(append([]byte(nil), b...)), nil
}

// GenerateKey implements KeyScheme.
func (BLS) GenerateKey() (PrivateKey, error) {
	k, err := GenerateBLSKey()
	if err != nil {
		return nil, err
	}
	return k, nil
}

// PrivateKeyFromBytes implements KeyScheme.
func (BLS) PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	k, err := BLSKeyFromBytes(b)
	if err != nil {
		return nil, err
	}
	return k, nil
}

// BLSKey is a BLS secret key.
type BLSKey struct {
	sk *blst.SecretKey
}

// GenerateBLSKey derives a key from 32 bytes of fresh randomness.
func GenerateBLSKey() (*BLSKey, error) {
	var ikm [32]byte
	if _, err := rand.Read(ikm[:]); err != nil {
		return nil, err
	}
	sk := blst.KeyGen(ikm[:])
	if sk == nil {
		return nil, ErrBLSKeyGenFailed
	}
	return &BLSKey{sk: sk}, nil
}

// BLSKeyFromBytes loads a serialized 32-byte secret key.
func BLSKeyFromBytes(b []byte) (*BLSKey, error) {
	if len(b) != blsSecretSize {
		return nil, ErrBadPrivateKey
	}
	sk := new(blst.SecretKey).Deserialize(b)
	if sk == nil {
		return nil, ErrBadPrivateKey
	}
	return &BLSKey{sk: sk}, nil
}

// Bytes returns the serialized secret key.
func (k *BLSKey) Bytes() []byte { return k.sk.Serialize() }

// Public returns the compressed G1 public key.
func (k *BLSKey) Public() PublicKey {
	return PublicKey(new(blst.P1Affine).From(k.sk).Compress())
}

// SignDigest signs d.
func (k *BLSKey) SignDigest(d Digest) (Signature, error) {
	sig := new(blst.P2Affine).Sign(k.sk, d[:], blsDST)
	if sig == nil {
		return nil, ErrBLSSignFailed
	}
	return Signature(sig.Compress()), nil
}
