package crypto

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

// SchnorrName is the registry name of the default scheme.
const SchnorrName = "schnorr-secp256k1"

// Key and signature sizes for EC-Schnorr-DCRv0.
const (
	SchnorrPubKeySize  = secp256k1.PubKeyBytesLenCompressed
	SchnorrSigSize     = schnorr.SignatureSize
	SchnorrPrivKeySize = secp256k1.PrivKeyBytesLen
)

// Schnorr is EC-Schnorr-DCRv0 over secp256k1. Public keys are 33-byte
// compressed points, signatures are 64-byte r || s.
type Schnorr struct{}

func init() {
	RegisterScheme(Schnorr{})
}

// Name returns the scheme identifier.
func (Schnorr) Name() string { return SchnorrName }

// VerifyDigest checks sig over d.
func (Schnorr) VerifyDigest(pub PublicKey, d Digest, sig Signature) bool {
	if len(pub) != SchnorrPubKeySize || len(sig) != SchnorrSigSize {
		return false
	}
	pk, err := secp256k1.ParsePubKey(pub)
	if err != nil {
		return false
	}
	s, err := schnorr.ParseSignature(sig)
	if err != nil {
		return false
	}
	return s.Verify(d[:], pk)
}

// ParsePublicKey validates a compressed or uncompressed point and returns
// its compressed encoding.
func (Schnorr) ParsePublicKey(b []byte) (PublicKey, error) {
	pk, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPublicKey, err)
	}
	return PublicKey(pk.SerializeCompressed()), nil
}

// GenerateKey implements KeyScheme.
func (Schnorr) GenerateKey() (PrivateKey, error) {
	k, err := GenerateSchnorrKey()
	if err != nil {
		return nil, err
	}
	return k, nil
}

// PrivateKeyFromBytes implements KeyScheme.
func (Schnorr) PrivateKeyFromBytes(b []byte) (PrivateKey, error) {
	k, err := SchnorrKeyFromBytes(b)
	if err != nil {
		return nil, err
	}
	return k, nil
}

// SchnorrKey is a secp256k1 private key that signs with Schnorr.
type SchnorrKey struct {
	k *secp256k1.PrivateKey
}

// GenerateSchnorrKey creates a random key.
func GenerateSchnorrKey() (*SchnorrKey, error) {
	k, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	return &SchnorrKey{k: k}, nil
}

// SchnorrKeyFromBytes loads a 32-byte big-endian private scalar. Values
// of zero or at least the group order are rejected rather than reduced.
func SchnorrKeyFromBytes(b []byte) (*SchnorrKey, error) {
	if len(b) != SchnorrPrivKeySize {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrBadPrivateKey, SchnorrPrivKeySize, len(b))
	}
	var scalar secp256k1.ModNScalar
	if overflow := scalar.SetByteSlice(b); overflow {
		return nil, fmt.Errorf("%w: scalar not below the group order", ErrBadPrivateKey)
	}
	if scalar.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrBadPrivateKey)
	}
	return &SchnorrKey{k: secp256k1.NewPrivateKey(&scalar)}, nil
}

// SchnorrKeyFromHex loads a hex-encoded private key.
func SchnorrKeyFromHex(s string) (*SchnorrKey, error) {
	b, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	return SchnorrKeyFromBytes(b)
}

// Bytes returns the 32-byte private scalar.
func (k *SchnorrKey) Bytes() []byte { return k.k.Serialize() }

// Public returns the compressed public key.
func (k *SchnorrKey) Public() PublicKey {
	return PublicKey(k.k.PubKey().SerializeCompressed())
}

// SignDigest signs d.
func (k *SchnorrKey) SignDigest(d Digest) (Signature, error) {
	sig, err := schnorr.Sign(k.k, d[:])
	if err != nil {
		return nil, err
	}
	return Signature(sig.Serialize()), nil
}
