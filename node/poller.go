package node

import (
	"context"
	"errors"
	"time"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/oracle"
)

// pollOracle ingests new fixtures and statuses from the oracle feed until
// ctx is cancelled. Fetch and ingestion failures are logged and retried on
// the next tick.
func (n *Node) pollOracle(ctx context.Context) error {
	ticker := time.NewTicker(n.config.PollInterval)
	defer ticker.Stop()

	var lastStatus *oracle.StatusPayload
	for {
		lastStatus = n.pollOnce(ctx, lastStatus)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// pollOnce performs one fixture and status round and returns the last
// status payload ingested.
func (n *Node) pollOnce(ctx context.Context, lastStatus *oracle.StatusPayload) *oracle.StatusPayload {
	state := n.State()
	if state.Phase != contract.PhaseActive {
		n.log.Debug("ledger not initialized, skipping oracle poll")
		return lastStatus
	}

	fp, err := n.oracle.Fixture(ctx)
	if err != nil {
		n.log.Warn("fetch fixture failed", "err", err)
		return lastStatus
	}
	if f, err := fp.Data.Fixture(); err != nil {
		n.log.Warn("bad fixture payload", "err", err)
		return lastStatus
	} else if !state.HasFixture || !sameFixture(n.ctrl.Policy(), state.Fixture, f) {
		if state, err = n.IngestFixture(ctx, fp); err != nil {
			if errors.Is(err, contract.ErrSignature) {
				n.log.Warn("dropping forged fixture", "fixture", f.FixtureID, "oracle", state.OraclePublicKey.Address())
			} else {
				n.log.Warn("ingest fixture failed", "fixture", f.FixtureID, "err", err)
			}
			return lastStatus
		}
		lastStatus = nil
	}

	sp, err := n.oracle.Status(ctx, state.Fixture.FixtureID)
	if err != nil {
		n.log.Debug("fetch status failed", "fixture", state.Fixture.FixtureID, "err", err)
		return lastStatus
	}
	if lastStatus != nil && *lastStatus == sp {
		return lastStatus
	}
	if _, err := n.IngestStatus(ctx, sp); err != nil {
		if errors.Is(err, contract.ErrSignature) {
			n.log.Warn("dropping forged status", "fixture", state.Fixture.FixtureID, "oracle", state.OraclePublicKey.Address())
			return lastStatus
		}
		n.log.Warn("ingest status failed", "fixture", state.Fixture.FixtureID, "err", err)
		return lastStatus
	}
	return &sp
}

func sameFixture(p contract.Policy, committed, f contract.Fixture) bool {
	if p.Fixture == contract.FixtureIDOnly {
		return committed.FixtureID == f.FixtureID
	}
	return committed == f
}
