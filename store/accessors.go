package store

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/rlp"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/ledger"
)

type scalarBytes = [field.Size]byte

type fixtureRecord struct {
	FixtureID     scalarBytes
	LocalTeamID   scalarBytes
	VisitorTeamID scalarBytes
	StartingAt    scalarBytes
}

type statusRecord struct {
	Status       scalarBytes
	WinnerTeamID scalarBytes
}

type placementRecord struct {
	Index  uint64
	User   []byte
	TeamID scalarBytes
	Amount scalarBytes
}

func decodeScalars(raw ...scalarBytes) ([]field.Scalar, error) {
	out := make([]field.Scalar, len(raw))
	for i := range raw {
		s, err := field.FromBytes(raw[i][:])
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func readRLP(db KeyValueReader, key []byte, v any) (bool, error) {
	data, err := db.Get(key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := rlp.DecodeBytes(data, v); err != nil {
		return false, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

func writeRLP(db KeyValueWriter, key []byte, v any) error {
	data, err := rlp.EncodeToBytes(v)
	if err != nil {
		return err
	}
	return db.Put(key, data)
}

// --- State Accessors ---

// ReadState loads the committed state. An empty database yields the zero
// (uninitialized) state.
func ReadState(db KeyValueReader) (contract.State, error) {
	var s contract.State

	var phase uint64
	if _, err := readRLP(db, phaseKey, &phase); err != nil {
		return s, err
	}
	s.Phase = contract.Phase(phase)

	var oracle []byte
	ok, err := readRLP(db, oracleKey, &oracle)
	if err != nil {
		return s, err
	}
	if ok {
		s.OraclePublicKey = crypto.PublicKey(oracle)
	}

	var fx fixtureRecord
	if s.HasFixture, err = readRLP(db, fixtureKey, &fx); err != nil {
		return s, err
	}
	if s.HasFixture {
		v, err := decodeScalars(fx.FixtureID, fx.LocalTeamID, fx.VisitorTeamID, fx.StartingAt)
		if err != nil {
			return s, fmt.Errorf("store: fixture: %w", err)
		}
		s.Fixture = contract.Fixture{FixtureID: v[0], LocalTeamID: v[1], VisitorTeamID: v[2], StartingAt: v[3]}
	}

	var sr statusRecord
	if s.HasStatus, err = readRLP(db, statusKey, &sr); err != nil {
		return s, err
	}
	if s.HasStatus {
		v, err := decodeScalars(sr.Status, sr.WinnerTeamID)
		if err != nil {
			return s, fmt.Errorf("store: status: %w", err)
		}
		s.Status = contract.FixtureStatus{Status: v[0], WinnerTeamID: v[1]}
	}

	var root scalarBytes
	ok, err = readRLP(db, rootKey, &root)
	if err != nil {
		return s, err
	}
	if ok {
		if s.BetsRoot, err = ledger.HashFromBytes(root[:]); err != nil {
			return s, fmt.Errorf("store: root: %w", err)
		}
	}
	return s, nil
}

// WriteState stores every cell of s. Absent fixture and status cells are
// deleted.
func WriteState(db KeyValueWriter, s contract.State) error {
	if err := writeRLP(db, phaseKey, uint64(s.Phase)); err != nil {
		return err
	}
	if err := writeRLP(db, oracleKey, []byte(s.OraclePublicKey)); err != nil {
		return err
	}
	if s.HasFixture {
		f := s.Fixture
		rec := fixtureRecord{f.FixtureID.Bytes(), f.LocalTeamID.Bytes(), f.VisitorTeamID.Bytes(), f.StartingAt.Bytes()}
		if err := writeRLP(db, fixtureKey, &rec); err != nil {
			return err
		}
	} else if err := db.Delete(fixtureKey); err != nil {
		return err
	}
	if s.HasStatus {
		rec := statusRecord{s.Status.Status.Bytes(), s.Status.WinnerTeamID.Bytes()}
		if err := writeRLP(db, statusKey, &rec); err != nil {
			return err
		}
	} else if err := db.Delete(statusKey); err != nil {
		return err
	}
	return writeRLP(db, rootKey, s.BetsRoot.Bytes())
}

// --- Bet History Accessors ---

// ReadBetCount returns the number of recorded placements.
func ReadBetCount(db KeyValueReader) (uint64, error) {
	var n uint64
	_, err := readRLP(db, betCountKey, &n)
	return n, err
}

// WritePlacement records p as the seq-th placement and bumps the counter.
func WritePlacement(db KeyValueWriter, seq uint64, p ledger.Placement) error {
	rec := placementRecord{
		Index:  p.Index,
		User:   []byte(p.Bet.User),
		TeamID: p.Bet.TeamID.Bytes(),
		Amount: p.Bet.Amount.Bytes(),
	}
	if err := writeRLP(db, betKey(seq), &rec); err != nil {
		return err
	}
	return writeRLP(db, betCountKey, seq+1)
}

// ReadPlacement loads the seq-th placement.
func ReadPlacement(db KeyValueReader, seq uint64) (ledger.Placement, error) {
	var rec placementRecord
	ok, err := readRLP(db, betKey(seq), &rec)
	if err != nil {
		return ledger.Placement{}, err
	}
	if !ok {
		return ledger.Placement{}, fmt.Errorf("%w: bet %d", ErrNotFound, seq)
	}
	v, err := decodeScalars(rec.TeamID, rec.Amount)
	if err != nil {
		return ledger.Placement{}, fmt.Errorf("store: bet %d: %w", seq, err)
	}
	return ledger.Placement{
		Index: rec.Index,
		Bet:   ledger.Bet{User: crypto.PublicKey(rec.User), TeamID: v[0], Amount: v[1]},
	}, nil
}

// ReadPlacements loads the whole bet history in placement order.
func ReadPlacements(db KeyValueReader) ([]ledger.Placement, error) {
	n, err := ReadBetCount(db)
	if err != nil {
		return nil, err
	}
	out := make([]ledger.Placement, 0, n)
	for seq := uint64(0); seq < n; seq++ {
		p, err := ReadPlacement(db, seq)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Commit writes s and, if placed is not nil, appends it to the bet history,
// all in one batch.
func Commit(db Database, s contract.State, placed *ledger.Placement) error {
	batch := db.NewBatch()
	if err := WriteState(batch, s); err != nil {
		return err
	}
	if placed != nil {
		seq, err := ReadBetCount(db)
		if err != nil {
			return err
		}
		if err := WritePlacement(batch, seq, *placed); err != nil {
			return err
		}
	}
	return batch.Write()
}
