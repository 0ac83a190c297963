package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/ledger"
	"github.com/dar7an/zk-cricket-trader/log"
	"github.com/dar7an/zk-cricket-trader/node"
	"github.com/dar7an/zk-cricket-trader/oracle"
)

// withNode opens the node, runs its sequencer for the duration of fn and
// closes it again.
func withNode(c *cli.Context, fn func(ctx context.Context, n *node.Node) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// One-shot commands never serve metrics or poll.
	cfg.MetricsAddr = ""
	cfg.OracleURL = ""
	n, err := node.New(cfg, log.Default())
	if err != nil {
		return err
	}
	defer n.Close()

	ctx, cancel := context.WithCancel(c.Context)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return n.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return fn(gctx, n)
	})
	return g.Wait()
}

type stateView struct {
	Phase     string                  `json:"phase"`
	Oracle    crypto.PublicKey        `json:"oracle,omitempty"`
	Fixture   *contract.Fixture       `json:"fixture,omitempty"`
	Status    *contract.FixtureStatus `json:"status,omitempty"`
	BetsRoot  ledger.Hash             `json:"betsRoot"`
	BetCount  int                     `json:"betCount"`
	NextIndex uint64                  `json:"nextIndex"`
}

func viewOf(n *node.Node, s contract.State) stateView {
	v := stateView{
		Phase:    s.Phase.String(),
		Oracle:   s.OraclePublicKey,
		BetsRoot: s.BetsRoot,
		BetCount: len(n.Bets()),
	}
	if s.HasFixture {
		f := s.Fixture
		v.Fixture = &f
	}
	if s.HasStatus {
		st := s.Status
		v.Status = &st
	}
	if idx, _, _, err := n.NextSlot(); err == nil {
		v.NextIndex = idx
	}
	return v
}

func runState(c *cli.Context) error {
	return withNode(c, func(_ context.Context, n *node.Node) error {
		return printJSON(c.App.Writer, viewOf(n, n.State()))
	})
}

func runInit(c *cli.Context) error {
	sig, err := crypto.DecodeHex(c.String("signature"))
	if err != nil {
		return err
	}
	return withNode(c, func(ctx context.Context, n *node.Node) error {
		s, err := n.Initialize(ctx, sig)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, viewOf(n, s))
	})
}

func readPayload(c *cli.Context, v any, fetch func(ctx context.Context, cl *oracle.Client) error) error {
	switch {
	case c.IsSet("file"):
		data, err := os.ReadFile(c.String("file"))
		if err != nil {
			return err
		}
		return json.Unmarshal(data, v)
	case c.IsSet("from"):
		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()
		return fetch(ctx, oracle.NewClient(c.String("from"), nil))
	default:
		return errors.New("one of --file or --from is required")
	}
}

func runIngestFixture(c *cli.Context) error {
	var p oracle.FixturePayload
	err := readPayload(c, &p, func(ctx context.Context, cl *oracle.Client) (err error) {
		p, err = cl.Fixture(ctx)
		return err
	})
	if err != nil {
		return err
	}
	return withNode(c, func(ctx context.Context, n *node.Node) error {
		s, err := n.IngestFixture(ctx, p)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, viewOf(n, s))
	})
}

func runIngestStatus(c *cli.Context) error {
	var p oracle.StatusPayload
	return withNode(c, func(ctx context.Context, n *node.Node) error {
		// The status to fetch is the one for the committed fixture.
		err := readPayload(c, &p, func(fctx context.Context, cl *oracle.Client) (err error) {
			p, err = cl.Status(fctx, n.State().Fixture.FixtureID)
			return err
		})
		if err != nil {
			return err
		}
		s, err := n.IngestStatus(ctx, p)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, viewOf(n, s))
	})
}

type betResult struct {
	Index uint64      `json:"index"`
	Root  ledger.Hash `json:"root"`
}

func runBet(c *cli.Context) error {
	k, err := signerFromFlag(c)
	if err != nil {
		return err
	}
	team, err := field.FromDecimal(c.String("team"))
	if err != nil {
		return fmt.Errorf("--team: %w", err)
	}
	amount, err := field.FromDecimal(c.String("amount"))
	if err != nil {
		return fmt.Errorf("--amount: %w", err)
	}
	bet := ledger.Bet{User: k.Public(), TeamID: team, Amount: amount}

	return withNode(c, func(ctx context.Context, n *node.Node) error {
		idx, w, root, err := n.NextSlot()
		if err != nil {
			return err
		}
		sb, err := node.SignBet(k, bet, w, root)
		if err != nil {
			return err
		}
		s, err := n.PlaceBet(ctx, sb)
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, betResult{Index: idx, Root: s.BetsRoot})
	})
}

func runWitness(c *cli.Context) error {
	return withNode(c, func(_ context.Context, n *node.Node) error {
		w, err := n.Witness(c.Uint64("index"))
		if err != nil {
			return err
		}
		return printJSON(c.App.Writer, w)
	})
}

func runNode(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	n, err := node.New(cfg, log.Default())
	if err != nil {
		return err
	}
	defer n.Close()

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log.Info("zkbet starting", "version", version, "datadir", cfg.DataDir, "db", cfg.DB,
		"height", cfg.Height, "scheme", cfg.Scheme, "oracle_url", cfg.OracleURL, "metrics", cfg.MetricsAddr)
	return n.Run(ctx)
}
