// Package contract defines the ledger's state transition function: the
// committed state cells, the policy knobs fixed per deployment, the
// proposals callers submit, and the accept/reject rules applied to each
// proposal against whatever state is current when it is applied.
//
// Transitions are pure. Apply takes a State value and returns a new one;
// on any failure it returns the input unchanged together with an error, so
// a rejected proposal never leaves a partial update behind.
package contract

import (
	"fmt"

	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/ledger"
)

// Phase distinguishes a deployed but uninitialised contract from a live one.
type Phase uint8

const (
	PhaseUninitialized Phase = iota
	PhaseActive
)

func (p Phase) String() string {
	switch p {
	case PhaseUninitialized:
		return "uninitialized"
	case PhaseActive:
		return "active"
	default:
		return fmt.Sprintf("phase(%d)", uint8(p))
	}
}

// Fixture identifies one sporting event.
type Fixture struct {
	FixtureID     field.Scalar `json:"fixtureID"`
	LocalTeamID   field.Scalar `json:"localTeamID"`
	VisitorTeamID field.Scalar `json:"visitorTeamID"`
	StartingAt    field.Scalar `json:"startingAt"`
}

// FixtureStatus is the outcome of a fixture.
type FixtureStatus struct {
	Status       field.Scalar `json:"status"`
	WinnerTeamID field.Scalar `json:"winnerTeamID"`
}

// State is the committed contract state. Besides the three cells (oracle
// key, fixture, bets root) it carries the phase flag, presence flags for
// the fixture and status cells, and the status cell itself when the
// deployment persists statuses.
type State struct {
	Phase           Phase
	OraclePublicKey crypto.PublicKey
	HasFixture      bool
	Fixture         Fixture
	HasStatus       bool
	Status          FixtureStatus
	BetsRoot        ledger.Hash
}

// Equal compares two states cell by cell.
func (s State) Equal(o State) bool {
	return s.Phase == o.Phase &&
		s.OraclePublicKey.Equal(o.OraclePublicKey) &&
		s.HasFixture == o.HasFixture &&
		s.Fixture == o.Fixture &&
		s.HasStatus == o.HasStatus &&
		s.Status == o.Status &&
		s.BetsRoot == o.BetsRoot
}

// Clone returns a copy that shares no memory with s.
func (s State) Clone() State {
	c := s
	if s.OraclePublicKey != nil {
		c.OraclePublicKey = append(crypto.PublicKey(nil), s.OraclePublicKey...)
	}
	return c
}

// FixtureMessage is the ordered vector the oracle signs for a fixture.
func FixtureMessage(f Fixture) []field.Scalar {
	return []field.Scalar{f.FixtureID, f.LocalTeamID, f.VisitorTeamID, f.StartingAt}
}

// StatusMessageFor is the ordered vector the oracle signs for a status
// under the given message layout.
func StatusMessageFor(layout StatusMessage, f Fixture, st FixtureStatus) []field.Scalar {
	if layout == StatusWithFixture {
		return []field.Scalar{f.FixtureID, f.LocalTeamID, f.VisitorTeamID, f.StartingAt, st.Status, st.WinnerTeamID}
	}
	return []field.Scalar{f.FixtureID, st.Status, st.WinnerTeamID}
}

// InitMessage is the vector the deploy authority signs to initialise a
// contract bound to oracleKey with a ledger of the given height.
func InitMessage(oracleKey crypto.PublicKey, height int) []field.Scalar {
	msg := oracleKey.Scalars()
	return append(msg, field.FromUint64(uint64(height)))
}
