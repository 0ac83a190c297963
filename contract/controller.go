package contract

import (
	"errors"
	"fmt"

	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/ledger"
)

// Config fixes a deployment.
type Config struct {
	// Scheme verifies oracle and authority signatures.
	Scheme crypto.Scheme
	// OracleKey becomes the immutable oracle public key at Initialize.
	OracleKey crypto.PublicKey
	// AuthorityKey must sign the Initialize proposal.
	AuthorityKey crypto.PublicKey
	// Height is the bets tree height.
	Height int
	// Policy selects the fixture/status variants.
	Policy Policy
}

// Controller applies proposals to states. It holds no mutable state and is
// safe for concurrent use.
type Controller struct {
	cfg       Config
	emptyRoot ledger.Hash
}

// NewController validates cfg.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Scheme == nil {
		return nil, errors.New("contract: no signature scheme")
	}
	if len(cfg.OracleKey) == 0 {
		return nil, errors.New("contract: no oracle key")
	}
	if len(cfg.AuthorityKey) == 0 {
		return nil, errors.New("contract: no authority key")
	}
	c, err := ledger.NewCommitment(cfg.Height)
	if err != nil {
		return nil, fmt.Errorf("contract: %w", err)
	}
	return &Controller{cfg: cfg, emptyRoot: c.Root()}, nil
}

// Config returns the deployment configuration.
func (c *Controller) Config() Config { return c.cfg }

// Height returns the bets tree height.
func (c *Controller) Height() int { return c.cfg.Height }

// Policy returns the deployment policy.
func (c *Controller) Policy() Policy { return c.cfg.Policy }

// InitMessage is what the deploy authority signs for this deployment.
func (c *Controller) InitMessage() []field.Scalar {
	return InitMessage(c.cfg.OracleKey, c.cfg.Height)
}

// Apply dispatches p. On error the returned state is s.
func (c *Controller) Apply(s State, p Proposal) (State, error) {
	switch p := p.(type) {
	case Initialize:
		return c.Initialize(s, p)
	case IngestFixture:
		return c.IngestFixture(s, p)
	case IngestStatus:
		return c.IngestStatus(s, p)
	case PlaceBet:
		return c.PlaceBet(s, p)
	case *Initialize:
		return c.Initialize(s, *p)
	case *IngestFixture:
		return c.IngestFixture(s, *p)
	case *IngestStatus:
		return c.IngestStatus(s, *p)
	case *PlaceBet:
		return c.PlaceBet(s, *p)
	default:
		return s, fmt.Errorf("%w: %T", ErrUnknownProposal, p)
	}
}

// Initialize sets the oracle key and the empty bets root. It fires once.
func (c *Controller) Initialize(s State, p Initialize) (State, error) {
	if s.Phase != PhaseUninitialized {
		return s, ErrAlreadyInitialized
	}
	if !crypto.Verify(c.cfg.Scheme, c.cfg.AuthorityKey, crypto.DomainDeploy, c.InitMessage(), p.Signature) {
		return s, fmt.Errorf("%w: deploy authority", ErrSignature)
	}
	return State{
		Phase:           PhaseActive,
		OraclePublicKey: append(crypto.PublicKey(nil), c.cfg.OracleKey...),
		BetsRoot:        c.emptyRoot,
	}, nil
}

// IngestFixture commits an oracle-signed fixture.
func (c *Controller) IngestFixture(s State, p IngestFixture) (State, error) {
	if s.Phase != PhaseActive {
		return s, ErrNotInitialized
	}
	if !s.OraclePublicKey.Equal(p.PinnedOracleKey) {
		return s, fmt.Errorf("%w: oracle key", ErrStaleRead)
	}
	if !crypto.Verify(c.cfg.Scheme, s.OraclePublicKey, crypto.DomainOracle, FixtureMessage(p.Fixture), p.Signature) {
		return s, fmt.Errorf("%w: fixture %s", ErrSignature, p.Fixture.FixtureID)
	}

	next := s.Clone()
	next.HasFixture = true
	if c.cfg.Policy.Fixture == FixtureIDOnly {
		next.Fixture = Fixture{FixtureID: p.Fixture.FixtureID}
	} else {
		next.Fixture = p.Fixture
	}
	// A new fixture supersedes any status attested for the previous one.
	next.HasStatus = false
	next.Status = FixtureStatus{}
	return next, nil
}

// IngestStatus verifies an oracle-signed status for the current fixture and,
// under PersistStatus, commits it.
func (c *Controller) IngestStatus(s State, p IngestStatus) (State, error) {
	if s.Phase != PhaseActive {
		return s, ErrNotInitialized
	}
	if !s.OraclePublicKey.Equal(p.PinnedOracleKey) {
		return s, fmt.Errorf("%w: oracle key", ErrStaleRead)
	}
	if s.Fixture.FixtureID != p.PinnedFixtureID {
		return s, fmt.Errorf("%w: fixture id", ErrStaleRead)
	}
	msg := StatusMessageFor(c.cfg.Policy.StatusMessage, p.Fixture, p.Status)
	if !crypto.Verify(c.cfg.Scheme, s.OraclePublicKey, crypto.DomainOracle, msg, p.Signature) {
		return s, fmt.Errorf("%w: status for fixture %s", ErrSignature, p.Fixture.FixtureID)
	}
	if !s.HasFixture {
		return s, fmt.Errorf("%w: no fixture ingested", ErrFixtureMismatch)
	}
	if p.Fixture.FixtureID != s.Fixture.FixtureID {
		return s, fmt.Errorf("%w: got %s, committed %s", ErrFixtureMismatch, p.Fixture.FixtureID, s.Fixture.FixtureID)
	}
	if c.cfg.Policy.StatusMessage == StatusWithFixture && c.cfg.Policy.Fixture == FullFixture && p.Fixture != s.Fixture {
		return s, fmt.Errorf("%w: fixture fields differ", ErrFixtureMismatch)
	}

	if c.cfg.Policy.Status == CheckOnly {
		return s, nil
	}
	next := s.Clone()
	next.HasStatus = true
	next.Status = p.Status
	return next, nil
}

// PlaceBet inserts a bet into an empty slot of the committed ledger.
func (c *Controller) PlaceBet(s State, p PlaceBet) (State, error) {
	if s.Phase != PhaseActive {
		return s, ErrNotInitialized
	}
	if err := p.Witness.Validate(c.cfg.Height); err != nil {
		return s, fmt.Errorf("%w: %v", ErrBadWitness, err)
	}
	if s.BetsRoot != p.PinnedRoot {
		return s, fmt.Errorf("%w: bets root", ErrStaleRead)
	}
	if len(p.Sender) == 0 || !p.Sender.Equal(p.Bet.User) {
		return s, ErrIdentityMismatch
	}
	commitment, err := ledger.CommitmentAt(s.BetsRoot, c.cfg.Height)
	if err != nil {
		return s, err
	}
	advanced, err := commitment.Advance(p.Witness, ledger.LeafHash(p.Bet))
	if errors.Is(err, ledger.ErrSlotNotEmpty) {
		return s, fmt.Errorf("%w: index %d", ErrSlotConflict, p.Witness.Index())
	}
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrBadWitness, err)
	}

	next := s.Clone()
	next.BetsRoot = advanced.Root()
	return next, nil
}
