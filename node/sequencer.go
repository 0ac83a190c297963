package node

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/ledger"
	"github.com/dar7an/zk-cricket-trader/log"
	"github.com/dar7an/zk-cricket-trader/metrics"
	"github.com/dar7an/zk-cricket-trader/store"
)

// ErrStopped is returned by Submit once the sequencer has shut down.
var ErrStopped = errors.New("node: sequencer stopped")

// CommitHook observes each committed transition. It runs on the sequencer
// goroutine before the submitter is released.
type CommitHook func(prev, next contract.State, p contract.Proposal)

type submission struct {
	p    contract.Proposal
	done chan result
}

type result struct {
	state contract.State
	err   error
}

// Sequencer applies proposals one at a time against the committed state
// and persists each accepted transition with a single batch. The order in
// which it dequeues submissions is the serial order of the ledger.
type Sequencer struct {
	ctrl    *contract.Controller
	db      store.Database
	metrics *metrics.Metrics
	log     *log.Logger
	hooks   []CommitHook

	queue    chan *submission
	stopped  chan struct{}
	stopOnce sync.Once

	mu    sync.RWMutex
	state contract.State
	bets  uint64
}

// NewSequencer loads the committed state from db.
func NewSequencer(ctrl *contract.Controller, db store.Database, m *metrics.Metrics, logger *log.Logger, queueSize int) (*Sequencer, error) {
	state, err := store.ReadState(db)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	bets, err := store.ReadBetCount(db)
	if err != nil {
		return nil, fmt.Errorf("load bet count: %w", err)
	}
	if m == nil {
		m = metrics.New(false)
	}
	if logger == nil {
		logger = log.Default()
	}
	if queueSize < 1 {
		queueSize = 1
	}
	m.Bets.Set(float64(bets))
	return &Sequencer{
		ctrl:    ctrl,
		db:      db,
		metrics: m,
		log:     logger.Module("sequencer"),
		queue:   make(chan *submission, queueSize),
		stopped: make(chan struct{}),
		state:   state,
		bets:    bets,
	}, nil
}

// OnCommit registers a hook. Hooks must be registered before Run.
func (s *Sequencer) OnCommit(h CommitHook) {
	s.hooks = append(s.hooks, h)
}

// State returns the committed state.
func (s *Sequencer) State() contract.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// BetCount returns the number of committed bets.
func (s *Sequencer) BetCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bets
}

// Submit enqueues p and waits for its outcome. The returned state is the
// committed state after p was applied or rejected.
func (s *Sequencer) Submit(ctx context.Context, p contract.Proposal) (contract.State, error) {
	sub := &submission{p: p, done: make(chan result, 1)}
	// Count before the send so Run never decrements first.
	s.metrics.QueueDepth.Inc()
	select {
	case s.queue <- sub:
	case <-s.stopped:
		s.metrics.QueueDepth.Dec()
		return s.State(), ErrStopped
	case <-ctx.Done():
		s.metrics.QueueDepth.Dec()
		return s.State(), ctx.Err()
	}
	select {
	case r := <-sub.done:
		return r.state, r.err
	case <-s.stopped:
		return s.State(), ErrStopped
	case <-ctx.Done():
		// The proposal may still be applied.
		return s.State(), ctx.Err()
	}
}

// Run drains the queue until ctx is cancelled.
func (s *Sequencer) Run(ctx context.Context) error {
	defer s.stopOnce.Do(func() { close(s.stopped) })
	s.log.Info("sequencer started", "phase", s.State().Phase, "bets", s.BetCount())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sequencer stopped")
			return nil
		case sub := <-s.queue:
			s.metrics.QueueDepth.Dec()
			state, err := s.apply(sub.p)
			sub.done <- result{state: state, err: err}
		}
	}
}

func (s *Sequencer) apply(p contract.Proposal) (contract.State, error) {
	start := time.Now()
	op := "unknown"
	if p != nil {
		op = p.Op().String()
	}

	prev := s.State()
	next, err := s.ctrl.Apply(prev, p)
	if err == nil {
		err = s.commit(prev, next, p)
	}
	s.metrics.Observe(op, contract.Reason(err), time.Since(start))
	if err != nil {
		if contract.Retryable(err) {
			s.log.Debug("proposal rejected", "op", op, "err", err)
		} else {
			s.log.Warn("proposal rejected", "op", op, "err", err)
		}
		return prev, err
	}
	s.log.Info("proposal applied", "op", op, "root", next.BetsRoot)
	return next.Clone(), nil
}

func (s *Sequencer) commit(prev, next contract.State, p contract.Proposal) error {
	var placed *ledger.Placement
	if pb, ok := placeBet(p); ok {
		placed = &ledger.Placement{Index: pb.Witness.Index(), Bet: pb.Bet}
	}
	if err := store.Commit(s.db, next, placed); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.mu.Lock()
	s.state = next.Clone()
	if placed != nil {
		s.bets++
	}
	bets := s.bets
	s.mu.Unlock()

	s.metrics.Bets.Set(float64(bets))
	for _, h := range s.hooks {
		h(prev, next, p)
	}
	return nil
}

func placeBet(p contract.Proposal) (contract.PlaceBet, bool) {
	switch v := p.(type) {
	case contract.PlaceBet:
		return v, true
	case *contract.PlaceBet:
		return *v, true
	}
	return contract.PlaceBet{}, false
}
