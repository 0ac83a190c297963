package field

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/holiman/uint256"
)

func TestFromUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 9, 59210, 1714658400000, ^uint64(0)} {
		s := FromUint64(v)
		got, ok := s.Uint64()
		if !ok || got != v {
			t.Fatalf("Uint64() = %d,%v want %d", got, ok, v)
		}
	}
}

func TestFromInt64RejectsNegative(t *testing.T) {
	_, err := FromInt64(-1)
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("expected *EncodingError, got %T", err)
	}
	if encErr.Value != "-1" {
		t.Fatalf("Value = %q, want %q", encErr.Value, "-1")
	}
}

func TestFromBigBounds(t *testing.T) {
	r := Modulus()
	below := new(big.Int).Sub(r, big.NewInt(1))

	tests := []struct {
		name    string
		in      *big.Int
		wantErr bool
	}{
		{"nil", nil, true},
		{"negative", big.NewInt(-5), true},
		{"zero", big.NewInt(0), false},
		{"r-1", below, false},
		{"r", r, true},
		{"r+1", new(big.Int).Add(r, big.NewInt(1)), true},
	}
	for _, tt := range tests {
		s, err := FromBig(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrEncoding) {
				t.Errorf("%s: expected ErrEncoding, got %v", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
			continue
		}
		if s.Big().Cmp(tt.in) != 0 {
			t.Errorf("%s: round trip = %s, want %s", tt.name, s.Big(), tt.in)
		}
	}
}

func TestModulusIsCopy(t *testing.T) {
	m := Modulus()
	m.SetInt64(7)
	if Modulus().Cmp(big.NewInt(7)) == 0 {
		t.Fatal("Modulus must return a copy")
	}
}

func TestFromDecimal(t *testing.T) {
	s, err := FromDecimal("1714658400000")
	if err != nil {
		t.Fatalf("FromDecimal: %v", err)
	}
	if s != FromUint64(1714658400000) {
		t.Fatalf("decimal and uint64 encodings differ")
	}

	for _, bad := range []string{"", "-3", "12a", "0x10", Modulus().String()} {
		if _, err := FromDecimal(bad); !errors.Is(err, ErrEncoding) {
			t.Errorf("FromDecimal(%q) error = %v, want ErrEncoding", bad, err)
		}
	}
}

func TestFromUint256(t *testing.T) {
	s, err := FromUint256(uint256.NewInt(100))
	if err != nil || s != FromUint64(100) {
		t.Fatalf("FromUint256(100) = %v, %v", s, err)
	}
	max := new(uint256.Int).SetAllOne()
	if _, err := FromUint256(max); !errors.Is(err, ErrEncoding) {
		t.Fatalf("2^256-1 must not encode, got %v", err)
	}
	if _, err := FromUint256(nil); !errors.Is(err, ErrEncoding) {
		t.Fatalf("nil must not encode, got %v", err)
	}
}

func TestFromMillis(t *testing.T) {
	start := time.UnixMilli(1714658400000).UTC()
	s, err := FromMillis(start)
	if err != nil {
		t.Fatalf("FromMillis: %v", err)
	}
	if s != FromUint64(1714658400000) {
		t.Fatalf("FromMillis = %s", s)
	}
	if _, err := FromMillis(time.Unix(-10, 0)); !errors.Is(err, ErrEncoding) {
		t.Fatalf("pre-epoch instant must be rejected, got %v", err)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	want, err := FromDecimal("21888242871839275222246405745257275088548364400416034343698204186575808495616")
	if err != nil {
		t.Fatal(err)
	}
	b := want.Bytes()
	got, err := FromBytes(b[:])
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != want {
		t.Fatalf("round trip mismatch: %s != %s", got, want)
	}

	if _, err := FromBytes(b[:31]); !errors.Is(err, ErrEncoding) {
		t.Fatalf("short input must be rejected, got %v", err)
	}
	var over [Size]byte
	for i := range over {
		over[i] = 0xff
	}
	if _, err := FromBytes(over[:]); !errors.Is(err, ErrEncoding) {
		t.Fatalf("non-canonical input must be rejected, got %v", err)
	}
}

func TestTextRoundTrip(t *testing.T) {
	in := FromUint64(59210)
	txt, err := in.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(txt) != "59210" {
		t.Fatalf("MarshalText = %q", txt)
	}
	var out Scalar
	if err := out.UnmarshalText(txt); err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatalf("UnmarshalText = %s", out)
	}
	if err := out.UnmarshalText([]byte("-1")); !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected ErrEncoding, got %v", err)
	}
}

func TestSplitBytesInjective(t *testing.T) {
	a := SplitBytes([]byte{0x00, 0x01})
	b := SplitBytes([]byte{0x01})
	if len(a) != 2 || len(b) != 2 {
		t.Fatalf("unexpected lengths %d %d", len(a), len(b))
	}
	if a[0] == b[0] {
		t.Fatal("length prefix must distinguish inputs")
	}

	key := make([]byte, 33)
	key[0] = 0x02
	chunks := SplitBytes(key)
	if len(chunks) != 4 {
		t.Fatalf("33-byte key should give 4 scalars, got %d", len(chunks))
	}
	if n, _ := chunks[0].Uint64(); n != 33 {
		t.Fatalf("length prefix = %d", n)
	}
}

func TestZeroValue(t *testing.T) {
	var s Scalar
	if !s.IsZero() || s != Zero || s != FromUint64(0) {
		t.Fatal("zero value must equal encoded 0")
	}
}
