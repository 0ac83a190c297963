// Package oracle speaks the oracle's wire format: signed fixture and status
// payloads, their conversion into the scalar vectors the contract verifies,
// oracle-side signing helpers, and an HTTP feed with a matching client.
package oracle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
)

// ErrMissingSignature is returned when a payload carries no signature.
var ErrMissingSignature = errors.New("oracle: payload has no signature")

// Number is an integer payload value. It decodes from either a JSON number
// or a decimal string and always encodes as a JSON number.
type Number string

// UnmarshalJSON accepts 59210 and "59210" alike.
func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = Number(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("oracle: not a number: %s", b)
	}
	*n = Number(num)
	return nil
}

// MarshalJSON emits n as a bare JSON number.
func (n Number) MarshalJSON() ([]byte, error) {
	if n == "" {
		return []byte("null"), nil
	}
	return []byte(n), nil
}

// Scalar encodes n. Fractions, exponents, negatives and values at or above
// the field modulus are rejected.
func (n Number) Scalar() (field.Scalar, error) {
	return field.FromDecimal(string(n))
}

// NumberOf renders a scalar as a payload number.
func NumberOf(s field.Scalar) Number { return Number(s.String()) }

// FixtureData is the body of a fixture payload.
type FixtureData struct {
	FixtureID     Number `json:"fixtureID"`
	LocalTeamID   Number `json:"localTeamID"`
	VisitorTeamID Number `json:"visitorTeamID"`
	StartingAt    Number `json:"startingAt"`
}

// StatusData is the body of a status payload. The oracle echoes the
// fixture fields alongside the outcome.
type StatusData struct {
	FixtureID     Number `json:"fixtureID"`
	LocalTeamID   Number `json:"localTeamID,omitempty"`
	VisitorTeamID Number `json:"visitorTeamID,omitempty"`
	StartingAt    Number `json:"startingAt,omitempty"`
	Status        Number `json:"status"`
	WinnerTeamID  Number `json:"winnerTeamID"`
}

// FixturePayload is the JSON document served for the current fixture.
type FixturePayload struct {
	Data      FixtureData `json:"data"`
	Signature string      `json:"signature"`
}

// StatusPayload is the JSON document served for a fixture status.
type StatusPayload struct {
	Data      StatusData `json:"data"`
	Signature string     `json:"signature"`
}

type namedNumber struct {
	name string
	n    Number
}

func encodeAll(nums ...namedNumber) ([]field.Scalar, error) {
	out := make([]field.Scalar, len(nums))
	for i, nn := range nums {
		s, err := nn.n.Scalar()
		if err != nil {
			return nil, fmt.Errorf("oracle: %s: %w", nn.name, err)
		}
		out[i] = s
	}
	return out, nil
}

// Fixture converts the payload body into a contract fixture.
func (d FixtureData) Fixture() (contract.Fixture, error) {
	v, err := encodeAll(
		namedNumber{"fixtureID", d.FixtureID},
		namedNumber{"localTeamID", d.LocalTeamID},
		namedNumber{"visitorTeamID", d.VisitorTeamID},
		namedNumber{"startingAt", d.StartingAt},
	)
	if err != nil {
		return contract.Fixture{}, err
	}
	return contract.Fixture{FixtureID: v[0], LocalTeamID: v[1], VisitorTeamID: v[2], StartingAt: v[3]}, nil
}

// FixtureToScalars is the message vector the oracle signs for d.
func FixtureToScalars(d FixtureData) ([]field.Scalar, error) {
	f, err := d.Fixture()
	if err != nil {
		return nil, err
	}
	return contract.FixtureMessage(f), nil
}

// Decode returns the typed status and the fixture it refers to. Under
// StatusOnly only the fixture id is required; under StatusWithFixture all
// fixture fields must be present.
func (d StatusData) Decode(layout contract.StatusMessage) (contract.Fixture, contract.FixtureStatus, error) {
	nums := []namedNumber{
		{"fixtureID", d.FixtureID},
		{"status", d.Status},
		{"winnerTeamID", d.WinnerTeamID},
	}
	if layout == contract.StatusWithFixture {
		nums = append(nums,
			namedNumber{"localTeamID", d.LocalTeamID},
			namedNumber{"visitorTeamID", d.VisitorTeamID},
			namedNumber{"startingAt", d.StartingAt},
		)
	}
	v, err := encodeAll(nums...)
	if err != nil {
		return contract.Fixture{}, contract.FixtureStatus{}, err
	}
	f := contract.Fixture{FixtureID: v[0]}
	if layout == contract.StatusWithFixture {
		f.LocalTeamID, f.VisitorTeamID, f.StartingAt = v[3], v[4], v[5]
	}
	return f, contract.FixtureStatus{Status: v[1], WinnerTeamID: v[2]}, nil
}

// StatusToScalars is the message vector the oracle signs for d under layout.
func StatusToScalars(d StatusData, layout contract.StatusMessage) ([]field.Scalar, error) {
	f, st, err := d.Decode(layout)
	if err != nil {
		return nil, err
	}
	return contract.StatusMessageFor(layout, f, st), nil
}

// FixtureDataOf renders f as a payload body.
func FixtureDataOf(f contract.Fixture) FixtureData {
	return FixtureData{
		FixtureID:     NumberOf(f.FixtureID),
		LocalTeamID:   NumberOf(f.LocalTeamID),
		VisitorTeamID: NumberOf(f.VisitorTeamID),
		StartingAt:    NumberOf(f.StartingAt),
	}
}

// StatusDataOf renders a status and its fixture as a payload body.
func StatusDataOf(f contract.Fixture, st contract.FixtureStatus) StatusData {
	return StatusData{
		FixtureID:     NumberOf(f.FixtureID),
		LocalTeamID:   NumberOf(f.LocalTeamID),
		VisitorTeamID: NumberOf(f.VisitorTeamID),
		StartingAt:    NumberOf(f.StartingAt),
		Status:        NumberOf(st.Status),
		WinnerTeamID:  NumberOf(st.WinnerTeamID),
	}
}

// SignFixture produces a signed fixture payload.
func SignFixture(signer crypto.Signer, f contract.Fixture) (FixturePayload, error) {
	sig, err := crypto.Sign(signer, crypto.DomainOracle, contract.FixtureMessage(f))
	if err != nil {
		return FixturePayload{}, err
	}
	return FixturePayload{Data: FixtureDataOf(f), Signature: sig.Hex()}, nil
}

// SignStatus produces a signed status payload for the given message layout.
func SignStatus(signer crypto.Signer, layout contract.StatusMessage, f contract.Fixture, st contract.FixtureStatus) (StatusPayload, error) {
	sig, err := crypto.Sign(signer, crypto.DomainOracle, contract.StatusMessageFor(layout, f, st))
	if err != nil {
		return StatusPayload{}, err
	}
	return StatusPayload{Data: StatusDataOf(f, st), Signature: sig.Hex()}, nil
}

func decodeSignature(s string) (crypto.Signature, error) {
	if s == "" {
		return nil, ErrMissingSignature
	}
	b, err := crypto.DecodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("oracle: signature: %w", err)
	}
	return b, nil
}

// Decode returns the typed fixture and signature.
func (p FixturePayload) Decode() (contract.Fixture, crypto.Signature, error) {
	f, err := p.Data.Fixture()
	if err != nil {
		return contract.Fixture{}, nil, err
	}
	sig, err := decodeSignature(p.Signature)
	if err != nil {
		return contract.Fixture{}, nil, err
	}
	return f, sig, nil
}

// Decode returns the typed fixture, status and signature.
func (p StatusPayload) Decode(layout contract.StatusMessage) (contract.Fixture, contract.FixtureStatus, crypto.Signature, error) {
	f, st, err := p.Data.Decode(layout)
	if err != nil {
		return contract.Fixture{}, contract.FixtureStatus{}, nil, err
	}
	sig, err := decodeSignature(p.Signature)
	if err != nil {
		return contract.Fixture{}, contract.FixtureStatus{}, nil, err
	}
	return f, st, sig, nil
}

// Verify checks that pub signed the fixture. Forged or malformed payloads
// are rejected before they reach a sequencer.
func (p FixturePayload) Verify(scheme crypto.Scheme, pub crypto.PublicKey) error {
	f, sig, err := p.Decode()
	if err != nil {
		return err
	}
	if !crypto.Verify(scheme, pub, crypto.DomainOracle, contract.FixtureMessage(f), sig) {
		return fmt.Errorf("%w: fixture %s", contract.ErrSignature, f.FixtureID)
	}
	return nil
}

// Verify checks that pub signed the status under layout.
func (p StatusPayload) Verify(scheme crypto.Scheme, pub crypto.PublicKey, layout contract.StatusMessage) error {
	f, st, sig, err := p.Decode(layout)
	if err != nil {
		return err
	}
	if !crypto.Verify(scheme, pub, crypto.DomainOracle, contract.StatusMessageFor(layout, f, st), sig) {
		return fmt.Errorf("%w: status for fixture %s", contract.ErrSignature, f.FixtureID)
	}
	return nil
}
