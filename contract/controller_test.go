package contract

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/ledger"
)

type deployment struct {
	oracle    *crypto.SchnorrKey
	authority *crypto.SchnorrKey
	ctrl      *Controller
}

func newDeployment(t *testing.T, policy Policy) *deployment {
	t.Helper()
	oracle, err := crypto.GenerateSchnorrKey()
	require.NoError(t, err)
	authority, err := crypto.GenerateSchnorrKey()
	require.NoError(t, err)
	ctrl, err := NewController(Config{
		Scheme:       crypto.Schnorr{},
		OracleKey:    oracle.Public(),
		AuthorityKey: authority.Public(),
		Height:       ledger.DefaultHeight,
		Policy:       policy,
	})
	require.NoError(t, err)
	return &deployment{oracle: oracle, authority: authority, ctrl: ctrl}
}

func (d *deployment) initialized(t *testing.T) State {
	t.Helper()
	sig, err := crypto.Sign(d.authority, crypto.DomainDeploy, d.ctrl.InitMessage())
	require.NoError(t, err)
	s, err := d.ctrl.Apply(State{}, Initialize{Signature: sig})
	require.NoError(t, err)
	return s
}

func (d *deployment) signFixture(t *testing.T, key crypto.Signer, f Fixture) crypto.Signature {
	t.Helper()
	sig, err := crypto.Sign(key, crypto.DomainOracle, FixtureMessage(f))
	require.NoError(t, err)
	return sig
}

func (d *deployment) signStatus(t *testing.T, key crypto.Signer, f Fixture, st FixtureStatus) crypto.Signature {
	t.Helper()
	sig, err := crypto.Sign(key, crypto.DomainOracle, StatusMessageFor(d.ctrl.Policy().StatusMessage, f, st))
	require.NoError(t, err)
	return sig
}

func (d *deployment) withFixture(t *testing.T, f Fixture) State {
	t.Helper()
	s := d.initialized(t)
	s, err := d.ctrl.Apply(s, ProposeFixture(s, f, d.signFixture(t, d.oracle, f)))
	require.NoError(t, err)
	return s
}

func fixture59210() Fixture {
	return Fixture{
		FixtureID:     field.FromUint64(59210),
		LocalTeamID:   field.FromUint64(9),
		VisitorTeamID: field.FromUint64(7),
		StartingAt:    field.FromUint64(1714658400000),
	}
}

func newUser(t *testing.T) *crypto.SchnorrKey {
	t.Helper()
	k, err := crypto.GenerateSchnorrKey()
	require.NoError(t, err)
	return k
}

func betFor(user *crypto.SchnorrKey, team, amount uint64) ledger.Bet {
	return ledger.Bet{User: user.Public(), TeamID: field.FromUint64(team), Amount: field.FromUint64(amount)}
}

func TestNewControllerValidation(t *testing.T) {
	k := newUser(t)
	base := Config{Scheme: crypto.Schnorr{}, OracleKey: k.Public(), AuthorityKey: k.Public(), Height: 8}

	cfg := base
	cfg.Scheme = nil
	_, err := NewController(cfg)
	require.Error(t, err)

	cfg = base
	cfg.OracleKey = nil
	_, err = NewController(cfg)
	require.Error(t, err)

	cfg = base
	cfg.AuthorityKey = nil
	_, err = NewController(cfg)
	require.Error(t, err)

	cfg = base
	cfg.Height = 0
	_, err = NewController(cfg)
	require.ErrorIs(t, err, ledger.ErrBadHeight)

	_, err = NewController(base)
	require.NoError(t, err)
}

func TestInitialize(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	s := d.initialized(t)

	require.Equal(t, PhaseActive, s.Phase)
	require.True(t, s.OraclePublicKey.Equal(d.oracle.Public()))
	require.Equal(t, ledger.EmptyRoot(ledger.DefaultHeight), s.BetsRoot)
	require.False(t, s.HasFixture)

	// Fires exactly once.
	sig, _ := crypto.Sign(d.authority, crypto.DomainDeploy, d.ctrl.InitMessage())
	again, err := d.ctrl.Apply(s, Initialize{Signature: sig})
	require.ErrorIs(t, err, ErrAlreadyInitialized)
	require.True(t, again.Equal(s))
}

func TestInitializeRequiresAuthority(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())

	// The oracle is not the deploy authority.
	sig, _ := crypto.Sign(d.oracle, crypto.DomainDeploy, d.ctrl.InitMessage())
	s, err := d.ctrl.Apply(State{}, Initialize{Signature: sig})
	require.ErrorIs(t, err, ErrSignature)
	require.Equal(t, PhaseUninitialized, s.Phase)

	// Right key, wrong domain.
	sig, _ = crypto.Sign(d.authority, crypto.DomainOracle, d.ctrl.InitMessage())
	_, err = d.ctrl.Apply(State{}, Initialize{Signature: sig})
	require.ErrorIs(t, err, ErrSignature)
}

func TestTransitionsRequireActive(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	var s State
	f := fixture59210()

	_, err := d.ctrl.Apply(s, ProposeFixture(s, f, d.signFixture(t, d.oracle, f)))
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = d.ctrl.Apply(s, ProposeStatus(s, f, FixtureStatus{}, nil))
	require.ErrorIs(t, err, ErrNotInitialized)

	u := newUser(t)
	_, err = d.ctrl.Apply(s, ProposeBet(s, betFor(u, 1, 1), ledger.Witness{}, u.Public()))
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestIngestFixtureCommits(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	s := d.initialized(t)
	f := fixture59210()

	next, err := d.ctrl.Apply(s, ProposeFixture(s, f, d.signFixture(t, d.oracle, f)))
	require.NoError(t, err)
	require.True(t, next.HasFixture)
	require.Equal(t, f, next.Fixture)
	require.Equal(t, s.BetsRoot, next.BetsRoot)
	id, _ := next.Fixture.FixtureID.Uint64()
	require.Equal(t, uint64(59210), id)
}

func TestIngestFixtureRejectsForeignSignature(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	s := d.initialized(t)
	before := s.Clone()
	f := fixture59210()

	impostor := newUser(t)
	next, err := d.ctrl.Apply(s, ProposeFixture(s, f, d.signFixture(t, impostor, f)))
	require.ErrorIs(t, err, ErrSignature)
	require.True(t, next.Equal(before))
	require.True(t, s.Equal(before), "input state must not be mutated")

	// Valid signature over different data.
	other := f
	other.StartingAt = field.FromUint64(1714658400001)
	_, err = d.ctrl.Apply(s, ProposeFixture(s, f, d.signFixture(t, d.oracle, other)))
	require.ErrorIs(t, err, ErrSignature)
}

func TestIngestFixtureStalePin(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	s := d.initialized(t)
	f := fixture59210()

	p := ProposeFixture(s, f, d.signFixture(t, d.oracle, f))
	p.PinnedOracleKey = newUser(t).Public()
	_, err := d.ctrl.Apply(s, p)
	require.ErrorIs(t, err, ErrStaleRead)
	require.True(t, Retryable(err))
}

func TestIngestStatusMismatchedFixture(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	s := d.withFixture(t, fixture59210())

	stale := fixture59210()
	stale.FixtureID = field.FromUint64(59204)
	st := FixtureStatus{Status: field.FromUint64(1), WinnerTeamID: field.FromUint64(0)}

	next, err := d.ctrl.Apply(s, ProposeStatus(s, stale, st, d.signStatus(t, d.oracle, stale, st)))
	require.ErrorIs(t, err, ErrFixtureMismatch)
	require.False(t, Retryable(err))
	require.True(t, next.Equal(s))
}

func TestIngestStatusWithoutFixture(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	s := d.initialized(t)
	f := Fixture{}
	st := FixtureStatus{Status: field.FromUint64(1)}
	_, err := d.ctrl.Apply(s, ProposeStatus(s, f, st, d.signStatus(t, d.oracle, f, st)))
	require.ErrorIs(t, err, ErrFixtureMismatch)
}

func TestIngestStatusPersist(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	f := fixture59210()
	s := d.withFixture(t, f)
	st := FixtureStatus{Status: field.FromUint64(1), WinnerTeamID: field.FromUint64(9)}

	next, err := d.ctrl.Apply(s, ProposeStatus(s, f, st, d.signStatus(t, d.oracle, f, st)))
	require.NoError(t, err)
	require.True(t, next.HasStatus)
	require.Equal(t, st, next.Status)

	// A new fixture supersedes the status, and the old one is now stale.
	f2 := f
	f2.FixtureID = field.FromUint64(59211)
	next2, err := d.ctrl.Apply(next, ProposeFixture(next, f2, d.signFixture(t, d.oracle, f2)))
	require.NoError(t, err)
	require.False(t, next2.HasStatus)

	_, err = d.ctrl.Apply(next2, ProposeStatus(next, f, st, d.signStatus(t, d.oracle, f, st)))
	require.ErrorIs(t, err, ErrStaleRead)
}

func TestIngestStatusRejectsForeignSignature(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	f := fixture59210()
	s := d.withFixture(t, f)
	st := FixtureStatus{Status: field.FromUint64(1), WinnerTeamID: field.FromUint64(9)}

	next, err := d.ctrl.Apply(s, ProposeStatus(s, f, st, d.signStatus(t, newUser(t), f, st)))
	require.ErrorIs(t, err, ErrSignature)
	require.True(t, next.Equal(s))
}

func TestIngestStatusCheckOnly(t *testing.T) {
	policy := DefaultPolicy()
	policy.Status = CheckOnly
	d := newDeployment(t, policy)
	f := fixture59210()
	s := d.withFixture(t, f)
	st := FixtureStatus{Status: field.FromUint64(1), WinnerTeamID: field.FromUint64(9)}

	next, err := d.ctrl.Apply(s, ProposeStatus(s, f, st, d.signStatus(t, d.oracle, f, st)))
	require.NoError(t, err)
	require.True(t, next.Equal(s), "check-only must not change state")
	require.False(t, next.HasStatus)

	_, err = d.ctrl.Apply(s, ProposeStatus(s, f, st, d.signStatus(t, newUser(t), f, st)))
	require.ErrorIs(t, err, ErrSignature)
}

func TestFixtureIDOnly(t *testing.T) {
	policy := DefaultPolicy()
	policy.Fixture = FixtureIDOnly
	d := newDeployment(t, policy)
	f := fixture59210()
	s := d.withFixture(t, f)

	require.Equal(t, Fixture{FixtureID: f.FixtureID}, s.Fixture)
}

func TestStatusWithFixtureFullRevalidates(t *testing.T) {
	policy := Policy{Fixture: FullFixture, Status: PersistStatus, StatusMessage: StatusWithFixture}
	d := newDeployment(t, policy)
	f := fixture59210()
	s := d.withFixture(t, f)
	st := FixtureStatus{Status: field.FromUint64(1), WinnerTeamID: field.FromUint64(7)}

	next, err := d.ctrl.Apply(s, ProposeStatus(s, f, st, d.signStatus(t, d.oracle, f, st)))
	require.NoError(t, err)
	require.Equal(t, st, next.Status)

	// Same id, different kickoff: the oracle signed it, but it contradicts
	// the stored record.
	moved := f
	moved.StartingAt = field.FromUint64(1714662000000)
	_, err = d.ctrl.Apply(s, ProposeStatus(s, moved, st, d.signStatus(t, d.oracle, moved, st)))
	require.ErrorIs(t, err, ErrFixtureMismatch)

	// The short message is not accepted under this layout.
	short, _ := crypto.Sign(d.oracle, crypto.DomainOracle, StatusMessageFor(StatusOnly, f, st))
	_, err = d.ctrl.Apply(s, ProposeStatus(s, f, st, short))
	require.ErrorIs(t, err, ErrSignature)
}

func TestStatusWithFixtureIDOnly(t *testing.T) {
	policy := Policy{Fixture: FixtureIDOnly, Status: PersistStatus, StatusMessage: StatusWithFixture}
	d := newDeployment(t, policy)
	f := fixture59210()
	s := d.withFixture(t, f)
	st := FixtureStatus{Status: field.FromUint64(1), WinnerTeamID: field.FromUint64(7)}

	_, err := d.ctrl.Apply(s, ProposeStatus(s, f, st, d.signStatus(t, d.oracle, f, st)))
	require.NoError(t, err)
}

func TestApplyPointerAndUnknown(t *testing.T) {
	d := newDeployment(t, DefaultPolicy())
	s := d.initialized(t)
	f := fixture59210()
	p := ProposeFixture(s, f, d.signFixture(t, d.oracle, f))

	next, err := d.ctrl.Apply(s, &p)
	require.NoError(t, err)
	require.True(t, next.HasFixture)

	type bogus struct{ IngestFixture }
	_, err = d.ctrl.Apply(s, bogus{})
	require.ErrorIs(t, err, ErrUnknownProposal)
}

func TestReason(t *testing.T) {
	tests := map[error]string{
		nil:                       "ok",
		ErrSignature:              "signature",
		ErrStaleRead:              "stale_read",
		ErrSlotConflict:           "slot_conflict",
		ErrIdentityMismatch:       "identity_mismatch",
		ErrFixtureMismatch:        "fixture_mismatch",
		ErrNotInitialized:         "not_initialized",
		errors.New("disk on fire"): "other",
	}
	for err, want := range tests {
		require.Equal(t, want, Reason(err))
	}
	_, encErr := field.FromInt64(-1)
	require.Equal(t, "encoding", Reason(encErr))
}
