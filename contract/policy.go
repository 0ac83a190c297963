package contract

import (
	"fmt"
	"strings"
)

// FixturePolicy selects how much of a fixture is committed.
type FixturePolicy uint8

const (
	// FullFixture stores all four fixture fields.
	FullFixture FixturePolicy = iota
	// FixtureIDOnly stores only the fixture id; the rest lives in the most
	// recent signed payload.
	FixtureIDOnly
)

// StatusPolicy selects whether a verified status is committed.
type StatusPolicy uint8

const (
	// PersistStatus stores the verified status.
	PersistStatus StatusPolicy = iota
	// CheckOnly verifies the status and discards it.
	CheckOnly
)

// StatusMessage selects the vector the oracle signs for a status.
type StatusMessage uint8

const (
	// StatusOnly signs [fixtureID, status, winnerTeamID].
	StatusOnly StatusMessage = iota
	// StatusWithFixture signs the fixture fields followed by the status
	// fields. With FullFixture the fixture fields must also match the
	// stored record.
	StatusWithFixture
)

// Policy is fixed when a deployment is constructed.
type Policy struct {
	Fixture       FixturePolicy
	Status        StatusPolicy
	StatusMessage StatusMessage
}

// DefaultPolicy stores the full fixture, persists statuses and uses the
// short status message.
func DefaultPolicy() Policy {
	return Policy{Fixture: FullFixture, Status: PersistStatus, StatusMessage: StatusOnly}
}

func (p FixturePolicy) String() string {
	switch p {
	case FullFixture:
		return "full"
	case FixtureIDOnly:
		return "id-only"
	}
	return fmt.Sprintf("fixture-policy(%d)", uint8(p))
}

func (p StatusPolicy) String() string {
	switch p {
	case PersistStatus:
		return "persist"
	case CheckOnly:
		return "check-only"
	}
	return fmt.Sprintf("status-policy(%d)", uint8(p))
}

func (m StatusMessage) String() string {
	switch m {
	case StatusOnly:
		return "status"
	case StatusWithFixture:
		return "status+fixture"
	}
	return fmt.Sprintf("status-message(%d)", uint8(m))
}

// ParseFixturePolicy parses the String form.
func ParseFixturePolicy(s string) (FixturePolicy, error) {
	switch strings.ToLower(s) {
	case "full", "":
		return FullFixture, nil
	case "id-only", "id":
		return FixtureIDOnly, nil
	}
	return 0, fmt.Errorf("contract: unknown fixture policy %q", s)
}

// ParseStatusPolicy parses the String form.
func ParseStatusPolicy(s string) (StatusPolicy, error) {
	switch strings.ToLower(s) {
	case "persist", "":
		return PersistStatus, nil
	case "check-only", "check":
		return CheckOnly, nil
	}
	return 0, fmt.Errorf("contract: unknown status policy %q", s)
}

// ParseStatusMessage parses the String form.
func ParseStatusMessage(s string) (StatusMessage, error) {
	switch strings.ToLower(s) {
	case "status", "":
		return StatusOnly, nil
	case "status+fixture", "with-fixture":
		return StatusWithFixture, nil
	}
	return 0, fmt.Errorf("contract: unknown status message %q", s)
}

func (p Policy) String() string {
	return fmt.Sprintf("fixture=%s status=%s message=%s", p.Fixture, p.Status, p.StatusMessage)
}
