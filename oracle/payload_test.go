package oracle

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
)

const fixtureJSON = `{
  "data": {"fixtureID": 59210, "localTeamID": "9", "visitorTeamID": 7, "startingAt": 1714658400000},
  "signature": ""
}`

func TestNumberDecoding(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{`59210`, "59210", false},
		{`"59210"`, "59210", false},
		{`1714658400000`, "1714658400000", false},
		{`"21888242871839275222246405745257275088548364400416034343698204186575808495616"`, "21888242871839275222246405745257275088548364400416034343698204186575808495616", false},
		{`true`, "", true},
		{`{}`, "", true},
	}
	for _, tt := range tests {
		var n Number
		err := json.Unmarshal([]byte(tt.in), &n)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: %v", tt.in, err)
		}
		if string(n) != tt.want {
			t.Errorf("%s: got %q, want %q", tt.in, n, tt.want)
		}
	}
}

func TestNumberScalarRejects(t *testing.T) {
	// r itself, a negative, a fraction, an exponent, and a missing value.
	for _, in := range []Number{
		"21888242871839275222246405745257275088548364400416034343698204186575808495617",
		"-1",
		"1.5",
		"1e3",
		"",
	} {
		if _, err := in.Scalar(); !errors.Is(err, field.ErrEncoding) {
			t.Errorf("%q: expected encoding error, got %v", in, err)
		}
	}
}

func TestFixtureToScalars(t *testing.T) {
	var p FixturePayload
	if err := json.Unmarshal([]byte(fixtureJSON), &p); err != nil {
		t.Fatal(err)
	}
	got, err := FixtureToScalars(p.Data)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{59210, 9, 7, 1714658400000}
	if len(got) != len(want) {
		t.Fatalf("got %d scalars", len(got))
	}
	for i := range want {
		if got[i] != field.FromUint64(want[i]) {
			t.Errorf("scalar %d: got %s, want %d", i, got[i], want[i])
		}
	}
}

func TestFixtureToScalarsNamesBadField(t *testing.T) {
	d := FixtureData{FixtureID: "1", LocalTeamID: "-9", VisitorTeamID: "7", StartingAt: "0"}
	_, err := FixtureToScalars(d)
	if !errors.Is(err, field.ErrEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
	var encErr *field.EncodingError
	if !errors.As(err, &encErr) || encErr.Value != "-9" {
		t.Fatalf("expected EncodingError for -9, got %v", err)
	}
}

func TestStatusToScalarsLayouts(t *testing.T) {
	d := StatusData{FixtureID: "59210", Status: "1", WinnerTeamID: "0"}

	short, err := StatusToScalars(d, contract.StatusOnly)
	if err != nil {
		t.Fatal(err)
	}
	if len(short) != 3 || short[0] != field.FromUint64(59210) || short[1] != field.FromUint64(1) || !short[2].IsZero() {
		t.Fatalf("unexpected status vector %v", short)
	}

	// The long layout needs the fixture fields.
	if _, err := StatusToScalars(d, contract.StatusWithFixture); !errors.Is(err, field.ErrEncoding) {
		t.Fatalf("expected encoding error, got %v", err)
	}
	d.LocalTeamID, d.VisitorTeamID, d.StartingAt = "9", "7", "1714658400000"
	long, err := StatusToScalars(d, contract.StatusWithFixture)
	if err != nil {
		t.Fatal(err)
	}
	want := []uint64{59210, 9, 7, 1714658400000, 1, 0}
	for i := range want {
		if long[i] != field.FromUint64(want[i]) {
			t.Errorf("scalar %d: got %s, want %d", i, long[i], want[i])
		}
	}
}

func TestSignedPayloadsVerify(t *testing.T) {
	key, err := crypto.GenerateSchnorrKey()
	if err != nil {
		t.Fatal(err)
	}
	fx := contract.Fixture{
		FixtureID:     field.FromUint64(59210),
		LocalTeamID:   field.FromUint64(9),
		VisitorTeamID: field.FromUint64(7),
		StartingAt:    field.FromUint64(1714658400000),
	}
	st := contract.FixtureStatus{Status: field.FromUint64(1), WinnerTeamID: field.FromUint64(0)}

	fp, err := SignFixture(key, fx)
	if err != nil {
		t.Fatal(err)
	}
	raw, err := json.Marshal(fp)
	if err != nil {
		t.Fatal(err)
	}
	var decoded FixturePayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatal(err)
	}
	gotFx, sig, err := decoded.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if gotFx != fx {
		t.Fatalf("fixture mismatch: %+v", gotFx)
	}
	if !crypto.Verify(crypto.Schnorr{}, key.Public(), crypto.DomainOracle, contract.FixtureMessage(gotFx), sig) {
		t.Fatal("fixture signature does not verify")
	}

	for _, layout := range []contract.StatusMessage{contract.StatusOnly, contract.StatusWithFixture} {
		sp, err := SignStatus(key, layout, fx, st)
		if err != nil {
			t.Fatal(err)
		}
		f, gotSt, sig, err := sp.Decode(layout)
		if err != nil {
			t.Fatal(err)
		}
		if gotSt != st || f.FixtureID != fx.FixtureID {
			t.Fatalf("%s: decoded %+v %+v", layout, f, gotSt)
		}
		if !crypto.Verify(crypto.Schnorr{}, key.Public(), crypto.DomainOracle, contract.StatusMessageFor(layout, f, gotSt), sig) {
			t.Fatalf("%s: status signature does not verify", layout)
		}
	}
}

func TestDecodeMissingSignature(t *testing.T) {
	var p FixturePayload
	if err := json.Unmarshal([]byte(fixtureJSON), &p); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.Decode(); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("expected ErrMissingSignature, got %v", err)
	}
	p.Signature = "zz"
	if _, _, err := p.Decode(); err == nil {
		t.Fatal("expected hex error")
	}
}

func TestPayloadVerifyRejectsForeignKey(t *testing.T) {
	key, err := crypto.GenerateSchnorrKey()
	if err != nil {
		t.Fatal(err)
	}
	other, err := crypto.GenerateSchnorrKey()
	if err != nil {
		t.Fatal(err)
	}
	fx := contract.Fixture{FixtureID: field.FromUint64(59210), StartingAt: field.FromUint64(1714658400000)}
	st := contract.FixtureStatus{Status: field.FromUint64(2), WinnerTeamID: field.FromUint64(9)}

	fp, err := SignFixture(key, fx)
	if err != nil {
		t.Fatal(err)
	}
	if err := fp.Verify(crypto.Schnorr{}, key.Public()); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if err := fp.Verify(crypto.Schnorr{}, other.Public()); !errors.Is(err, contract.ErrSignature) {
		t.Fatalf("fixture under foreign key: expected ErrSignature, got %v", err)
	}
	tampered := fp
	tampered.Data.StartingAt = "1714658400001"
	if err := tampered.Verify(crypto.Schnorr{}, key.Public()); !errors.Is(err, contract.ErrSignature) {
		t.Fatalf("tampered fixture: expected ErrSignature, got %v", err)
	}
	fp.Signature = ""
	if err := fp.Verify(crypto.Schnorr{}, key.Public()); !errors.Is(err, ErrMissingSignature) {
		t.Fatalf("unsigned fixture: expected ErrMissingSignature, got %v", err)
	}

	for _, layout := range []contract.StatusMessage{contract.StatusOnly, contract.StatusWithFixture} {
		sp, err := SignStatus(key, layout, fx, st)
		if err != nil {
			t.Fatal(err)
		}
		if err := sp.Verify(crypto.Schnorr{}, key.Public(), layout); err != nil {
			t.Fatalf("%s: %v", layout, err)
		}
		if err := sp.Verify(crypto.Schnorr{}, other.Public(), layout); !errors.Is(err, contract.ErrSignature) {
			t.Fatalf("%s under foreign key: expected ErrSignature, got %v", layout, err)
		}
		sp.Data.WinnerTeamID = "7"
		if err := sp.Verify(crypto.Schnorr{}, key.Public(), layout); !errors.Is(err, contract.ErrSignature) {
			t.Fatalf("%s tampered: expected ErrSignature, got %v", layout, err)
		}
	}
}
