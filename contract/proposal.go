package contract

import (
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/ledger"
)

// Op names a transition.
type Op uint8

const (
	OpInitialize Op = iota
	OpIngestFixture
	OpIngestStatus
	OpPlaceBet
)

func (o Op) String() string {
	switch o {
	case OpInitialize:
		return "initialize"
	case OpIngestFixture:
		return "ingest_fixture"
	case OpIngestStatus:
		return "ingest_status"
	case OpPlaceBet:
		return "place_bet"
	default:
		return "unknown"
	}
}

// Proposal is a transition submitted against the committed state.
type Proposal interface {
	Op() Op
}

// Initialize activates the contract. Signature is the deploy authority's
// signature over InitMessage.
type Initialize struct {
	Signature crypto.Signature
}

// IngestFixture replaces the current fixture with an oracle-signed one.
type IngestFixture struct {
	Fixture         Fixture
	Signature       crypto.Signature
	PinnedOracleKey crypto.PublicKey
}

// IngestStatus attests to the outcome of the current fixture. Only
// Fixture.FixtureID is read under the StatusOnly message layout.
type IngestStatus struct {
	Fixture         Fixture
	Status          FixtureStatus
	Signature       crypto.Signature
	PinnedOracleKey crypto.PublicKey
	PinnedFixtureID field.Scalar
}

// PlaceBet inserts a bet into the witnessed empty slot. Sender is the
// identity the hosting system authenticated for this submission.
type PlaceBet struct {
	Bet        ledger.Bet
	Witness    ledger.Witness
	PinnedRoot ledger.Hash
	Sender     crypto.PublicKey
}

func (Initialize) Op() Op    { return OpInitialize }
func (IngestFixture) Op() Op { return OpIngestFixture }
func (IngestStatus) Op() Op  { return OpIngestStatus }
func (PlaceBet) Op() Op      { return OpPlaceBet }

// ProposeFixture builds an IngestFixture pinned to the oracle key in read.
func ProposeFixture(read State, f Fixture, sig crypto.Signature) IngestFixture {
	return IngestFixture{Fixture: f, Signature: sig, PinnedOracleKey: read.OraclePublicKey}
}

// ProposeStatus builds an IngestStatus pinned to the oracle key and fixture
// id in read.
func ProposeStatus(read State, f Fixture, st FixtureStatus, sig crypto.Signature) IngestStatus {
	return IngestStatus{
		Fixture:         f,
		Status:          st,
		Signature:       sig,
		PinnedOracleKey: read.OraclePublicKey,
		PinnedFixtureID: read.Fixture.FixtureID,
	}
}

// ProposeBet builds a PlaceBet pinned to the bets root in read.
func ProposeBet(read State, bet ledger.Bet, w ledger.Witness, sender crypto.PublicKey) PlaceBet {
	return PlaceBet{Bet: bet, Witness: w, PinnedRoot: read.BetsRoot, Sender: sender}
}
