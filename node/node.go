package node

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/ledger"
	"github.com/dar7an/zk-cricket-trader/log"
	"github.com/dar7an/zk-cricket-trader/metrics"
	"github.com/dar7an/zk-cricket-trader/oracle"
	"github.com/dar7an/zk-cricket-trader/store"
)

// Node is one hosted ledger.
type Node struct {
	config  Config
	log     *log.Logger
	db      store.Database
	ctrl    *contract.Controller
	seq     *Sequencer
	metrics *metrics.Metrics
	oracle  *oracle.Client

	mirrorMu sync.RWMutex
	mirror   *ledger.Mirror

	mu      sync.Mutex
	running bool
}

// New opens the store, restores the bet mirror and builds the sequencer.
// Nothing runs until Run is called.
func New(config Config, logger *log.Logger) (*Node, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = log.Default()
	}
	cc, err := config.ContractConfig()
	if err != nil {
		return nil, err
	}
	ctrl, err := contract.NewController(cc)
	if err != nil {
		return nil, err
	}

	db, err := store.Open(config.DB, config.ResolvePath("chaindata"))
	if err != nil {
		return nil, err
	}
	n := &Node{
		config:  config,
		log:     logger.Module("node"),
		db:      db,
		ctrl:    ctrl,
		metrics: metrics.New(config.MetricsAddr != ""),
	}
	if config.OracleURL != "" {
		n.oracle = oracle.NewClient(config.OracleURL, nil)
	}

	if n.seq, err = NewSequencer(ctrl, db, n.metrics, logger, config.QueueSize); err != nil {
		db.Close()
		return nil, err
	}
	if err := n.restoreMirror(); err != nil {
		db.Close()
		return nil, err
	}
	n.seq.OnCommit(n.confirmBet)
	return n, nil
}

func (n *Node) restoreMirror() error {
	placed, err := store.ReadPlacements(n.db)
	if err != nil {
		return fmt.Errorf("load bets: %w", err)
	}
	mirror, err := ledger.RebuildMirror(n.config.Height, placed)
	if err != nil {
		return err
	}
	state := n.seq.State()
	if state.Phase == contract.PhaseActive {
		if err := mirror.Sync(state.BetsRoot); err != nil {
			return fmt.Errorf("restore mirror: %w", err)
		}
	}
	n.mirrorMu.Lock()
	n.mirror = mirror
	n.mirrorMu.Unlock()
	n.log.Info("restored ledger", "phase", state.Phase.String(), "bets", len(placed), "root", state.BetsRoot)
	return nil
}

func (n *Node) confirmBet(_, next contract.State, p contract.Proposal) {
	pb, ok := placeBet(p)
	if !ok {
		return
	}
	if err := n.ledgerMirror().ConfirmAt(pb.Witness.Index(), pb.Bet, next.BetsRoot); err != nil {
		// The store is authoritative; a diverged mirror is rebuilt from it.
		n.log.Error("mirror diverged, rebuilding", "err", err)
		if err := n.restoreMirror(); err != nil {
			n.log.Error("mirror rebuild failed", "err", err)
		}
	}
}

// Run starts the sequencer, the metrics endpoint and the oracle poller and
// blocks until ctx is cancelled or one of them fails.
func (n *Node) Run(ctx context.Context) error {
	n.mu.Lock()
	if n.running {
		n.mu.Unlock()
		return errors.New("node already running")
	}
	n.running = true
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.running = false
		n.mu.Unlock()
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.seq.Run(ctx) })
	if n.config.MetricsAddr != "" {
		g.Go(func() error { return n.serveMetrics(ctx) })
	}
	if n.oracle != nil {
		g.Go(func() error { return n.pollOracle(ctx) })
	}
	return g.Wait()
}

func (n *Node) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", n.metrics.Handler())
	srv := &http.Server{Addr: n.config.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() {
		n.log.Info("metrics server listening", "addr", n.config.MetricsAddr)
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}

// Close releases the store. Call it after Run has returned.
func (n *Node) Close() error {
	return n.db.Close()
}

// Config returns the node configuration.
func (n *Node) Config() Config { return n.config }

// Controller returns the transition controller.
func (n *Node) Controller() *contract.Controller { return n.ctrl }

// Metrics returns the node's collectors.
func (n *Node) Metrics() *metrics.Metrics { return n.metrics }

// State returns the committed state.
func (n *Node) State() contract.State { return n.seq.State() }

// Submit passes p to the sequencer.
func (n *Node) Submit(ctx context.Context, p contract.Proposal) (contract.State, error) {
	return n.seq.Submit(ctx, p)
}

// Initialize activates the ledger with the deploy authority's signature.
func (n *Node) Initialize(ctx context.Context, sig crypto.Signature) (contract.State, error) {
	return n.seq.Submit(ctx, contract.Initialize{Signature: sig})
}

// IngestFixture submits an oracle fixture payload, pinned to the current
// oracle key. Once the ledger is active, payloads that key did not sign are
// dropped before they reach the sequencer.
func (n *Node) IngestFixture(ctx context.Context, p oracle.FixturePayload) (contract.State, error) {
	state := n.State()
	f, sig, err := p.Decode()
	if err != nil {
		return state, err
	}
	if state.Phase == contract.PhaseActive {
		if err := p.Verify(n.ctrl.Config().Scheme, state.OraclePublicKey); err != nil {
			n.metrics.Observe(contract.OpIngestFixture.String(), contract.Reason(err), 0)
			return state, err
		}
	}
	return n.seq.Submit(ctx, contract.ProposeFixture(state, f, sig))
}

// IngestStatus submits an oracle status payload, pinned to the current
// oracle key and fixture. Forged payloads are dropped like in IngestFixture.
func (n *Node) IngestStatus(ctx context.Context, p oracle.StatusPayload) (contract.State, error) {
	state := n.State()
	layout := n.ctrl.Policy().StatusMessage
	f, st, sig, err := p.Decode(layout)
	if err != nil {
		return state, err
	}
	if state.Phase == contract.PhaseActive {
		if err := p.Verify(n.ctrl.Config().Scheme, state.OraclePublicKey, layout); err != nil {
			n.metrics.Observe(contract.OpIngestStatus.String(), contract.Reason(err), 0)
			return state, err
		}
	}
	return n.seq.Submit(ctx, contract.ProposeStatus(state, f, st, sig))
}

// PlaceBet authenticates sb and submits it.
func (n *Node) PlaceBet(ctx context.Context, sb SignedBet) (contract.State, error) {
	p, err := sb.Proposal(n.ctrl.Config().Scheme)
	if err != nil {
		n.metrics.Observe(contract.OpPlaceBet.String(), contract.Reason(err), 0)
		return n.State(), err
	}
	return n.seq.Submit(ctx, p)
}

// NextSlot returns the next free slot, its emptiness witness and the
// committed root the witness is valid against.
func (n *Node) NextSlot() (uint64, ledger.Witness, ledger.Hash, error) {
	root := n.State().BetsRoot
	mirror := n.ledgerMirror()
	if err := mirror.Sync(root); err != nil {
		return 0, ledger.Witness{}, root, err
	}
	idx, w, err := mirror.NextWitness()
	return idx, w, root, err
}

// Witness returns the authentication path for index under the committed root.
func (n *Node) Witness(index uint64) (ledger.Witness, error) {
	return n.ledgerMirror().WitnessFor(index)
}

// Bets returns the committed bets in placement order.
func (n *Node) Bets() []ledger.Placement { return n.ledgerMirror().Bets() }

func (n *Node) ledgerMirror() *ledger.Mirror {
	n.mirrorMu.RLock()
	defer n.mirrorMu.RUnlock()
	return n.mirror
}
