package crypto

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// PrivateKey is a Signer whose secret can be exported.
type PrivateKey interface {
	Signer
	Bytes() []byte
}

// KeyScheme is a Scheme that can also create and load private keys. Every
// scheme the CLI signs with implements it.
type KeyScheme interface {
	Scheme
	GenerateKey() (PrivateKey, error)
	PrivateKeyFromBytes(b []byte) (PrivateKey, error)
}

func keySchemeByName(name string) (KeyScheme, error) {
	s, err := SchemeByName(name)
	if err != nil {
		return nil, err
	}
	ks, ok := s.(KeyScheme)
	if !ok {
		return nil, fmt.Errorf("%w: %q cannot create keys", ErrUnknownScheme, name)
	}
	return ks, nil
}

// GenerateKey creates a random key for the named scheme.
func GenerateKey(scheme string) (PrivateKey, error) {
	ks, err := keySchemeByName(scheme)
	if err != nil {
		return nil, err
	}
	return ks.GenerateKey()
}

// PrivateKeyFromHex loads a hex-encoded key for the named scheme.
func PrivateKeyFromHex(scheme, s string) (PrivateKey, error) {
	ks, err := keySchemeByName(scheme)
	if err != nil {
		return nil, err
	}
	b, err := DecodeHex(s)
	if err != nil {
		return nil, err
	}
	return ks.PrivateKeyFromBytes(b)
}

// Address names a key in logs and CLI output: 0x followed by the last 20
// bytes of Keccak-256 over the key encoding.
func (k PublicKey) Address() string {
	h := sha3.NewLegacyKeccak256()
	h.Write(k)
	sum := h.Sum(nil)
	return "0x" + hex.EncodeToString(sum[len(sum)-20:])
}
