package crypto

import (
	"bytes"
	"errors"
	"testing"

	"github.com/dar7an/zk-cricket-trader/field"
)

func fixtureVector() []field.Scalar {
	return []field.Scalar{
		field.FromUint64(59210),
		field.FromUint64(9),
		field.FromUint64(7),
		field.FromUint64(1714658400000),
	}
}

func TestMessageDigestOrderMatters(t *testing.T) {
	msg := fixtureVector()
	swapped := []field.Scalar{msg[1], msg[0], msg[2], msg[3]}
	if MessageDigest(DomainOracle, msg) == MessageDigest(DomainOracle, swapped) {
		t.Fatal("reordering fields must change the digest")
	}
}

func TestMessageDigestLengthAndDomain(t *testing.T) {
	msg := fixtureVector()
	extended := append(append([]field.Scalar{}, msg...), field.Zero)
	if MessageDigest(DomainOracle, msg) == MessageDigest(DomainOracle, extended) {
		t.Fatal("zero-extension must change the digest")
	}
	if MessageDigest(DomainOracle, msg) == MessageDigest(DomainDeploy, msg) {
		t.Fatal("domain must change the digest")
	}
}

func TestSchnorrSignVerify(t *testing.T) {
	k, err := GenerateSchnorrKey()
	if err != nil {
		t.Fatalf("GenerateSchnorrKey: %v", err)
	}
	msg := fixtureVector()
	sig, err := Sign(k, DomainOracle, msg)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) != SchnorrSigSize {
		t.Fatalf("signature length %d", len(sig))
	}
	if !Verify(Schnorr{}, k.Public(), DomainOracle, msg, sig) {
		t.Fatal("valid signature rejected")
	}
}

func TestSchnorrRejects(t *testing.T) {
	k, _ := GenerateSchnorrKey()
	other, _ := GenerateSchnorrKey()
	msg := fixtureVector()
	sig, err := Sign(k, DomainOracle, msg)
	if err != nil {
		t.Fatal(err)
	}

	tampered := append([]field.Scalar{}, msg...)
	tampered[0] = field.FromUint64(59204)

	flipped := append(Signature{}, sig...)
	flipped[10] ^= 0x01

	tests := []struct {
		name   string
		pub    PublicKey
		domain Domain
		msg    []field.Scalar
		sig    Signature
	}{
		{"wrong key", other.Public(), DomainOracle, msg, sig},
		{"tampered message", k.Public(), DomainOracle, tampered, sig},
		{"wrong domain", k.Public(), DomainDeploy, msg, sig},
		{"flipped bit", k.Public(), DomainOracle, msg, flipped},
		{"short sig", k.Public(), DomainOracle, msg, sig[:63]},
		{"empty sig", k.Public(), DomainOracle, msg, nil},
		{"garbage key", PublicKey(bytes.Repeat([]byte{0x05}, 33)), DomainOracle, msg, sig},
		{"empty key", nil, DomainOracle, msg, sig},
	}
	for _, tt := range tests {
		if Verify(Schnorr{}, tt.pub, tt.domain, tt.msg, tt.sig) {
			t.Errorf("%s: signature accepted", tt.name)
		}
	}
	if Verify(nil, k.Public(), DomainOracle, msg, sig) {
		t.Error("nil scheme must reject")
	}
}

func TestSchnorrKeyRoundTrip(t *testing.T) {
	k, _ := GenerateSchnorrKey()
	k2, err := SchnorrKeyFromHex("0x" + PublicKey(k.Bytes()).Hex())
	if err != nil {
		t.Fatalf("SchnorrKeyFromHex: %v", err)
	}
	if !k.Public().Equal(k2.Public()) {
		t.Fatal("reloaded key has a different public key")
	}
	if _, err := SchnorrKeyFromBytes(make([]byte, 32)); !errors.Is(err, ErrBadPrivateKey) {
		t.Fatalf("zero key must be rejected, got %v", err)
	}
	if _, err := SchnorrKeyFromBytes(make([]byte, 31)); !errors.Is(err, ErrBadPrivateKey) {
		t.Fatalf("short key must be rejected, got %v", err)
	}
}

func TestSchnorrParsePublicKey(t *testing.T) {
	k, _ := GenerateSchnorrKey()
	pk, err := Schnorr{}.ParsePublicKey(k.Public())
	if err != nil {
		t.Fatalf("ParsePublicKey: %v", err)
	}
	if !pk.Equal(k.Public()) {
		t.Fatal("compressed key must round trip")
	}
	if _, err := (Schnorr{}).ParsePublicKey([]byte{0x02, 0x01}); !errors.Is(err, ErrBadPublicKey) {
		t.Fatalf("expected ErrBadPublicKey, got %v", err)
	}
}

func TestSchemeRegistry(t *testing.T) {
	s, err := SchemeByName(SchnorrName)
	if err != nil {
		t.Fatalf("SchemeByName: %v", err)
	}
	if s.Name() != SchnorrName {
		t.Fatalf("got scheme %q", s.Name())
	}
	if _, err := SchemeByName("rsa"); !errors.Is(err, ErrUnknownScheme) {
		t.Fatalf("expected ErrUnknownScheme, got %v", err)
	}
	found := false
	for _, n := range SchemeNames() {
		if n == SchnorrName {
			found = true
		}
	}
	if !found {
		t.Fatal("schnorr missing from SchemeNames")
	}
}

func TestSignNilSigner(t *testing.T) {
	if _, err := Sign(nil, DomainOracle, nil); !errors.Is(err, ErrNoSigner) {
		t.Fatalf("expected ErrNoSigner, got %v", err)
	}
}

func TestPublicKeyScalars(t *testing.T) {
	k, _ := GenerateSchnorrKey()
	if n := len(k.Public().Scalars()); n != 4 {
		t.Fatalf("compressed key should encode to 4 scalars, got %d", n)
	}
}

func TestKeyAndSignatureText(t *testing.T) {
	k, _ := GenerateSchnorrKey()
	sig, err := Sign(k, DomainBet, []field.Scalar{field.FromUint64(1)})
	if err != nil {
		t.Fatal(err)
	}

	text, _ := k.Public().MarshalText()
	var pub PublicKey
	if err := pub.UnmarshalText(append([]byte("0x"), text...)); err != nil {
		t.Fatal(err)
	}
	if !pub.Equal(k.Public()) {
		t.Fatal("public key text round trip")
	}

	text, _ = sig.MarshalText()
	var got Signature
	if err := got.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, sig) {
		t.Fatal("signature text round trip")
	}
	if err := got.UnmarshalText([]byte("xyz")); err == nil {
		t.Fatal("expected hex error")
	}
}
