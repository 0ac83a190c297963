package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/field"
	"github.com/dar7an/zk-cricket-trader/log"
	"github.com/dar7an/zk-cricket-trader/node"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "YAML config `FILE`"},
		&cli.StringFlag{Name: "datadir", Usage: "data directory `PATH`"},
		&cli.StringFlag{Name: "db", Usage: "storage backend `NAME` (memory, leveldb, bolt)"},
		&cli.IntFlag{Name: "height", Usage: "bets tree `HEIGHT`"},
		&cli.StringFlag{Name: "scheme", Usage: "signature scheme `NAME`"},
		&cli.StringFlag{Name: "oracle-key", Usage: "oracle public key `HEX`"},
		&cli.StringFlag{Name: "authority-key", Usage: "deploy authority public key `HEX`"},
		&cli.StringFlag{Name: "fixture-policy", Usage: "`POLICY` (full, id-only)"},
		&cli.StringFlag{Name: "status-policy", Usage: "`POLICY` (persist, check-only)"},
		&cli.StringFlag{Name: "status-message", Usage: "`LAYOUT` (status, status+fixture)"},
		&cli.StringFlag{Name: "oracle-url", Usage: "oracle feed `URL`"},
		&cli.DurationFlag{Name: "poll-interval", Usage: "oracle poll `INTERVAL`"},
		&cli.StringFlag{Name: "metrics-addr", Usage: "serve /metrics on `ADDR`"},
		&cli.StringFlag{Name: "log-level", Value: "info", Usage: "`LEVEL` (debug, info, warn, error)"},
	}
}

// loadConfig reads the config file, applies flag overrides and resets the
// default logger to the configured level.
func loadConfig(c *cli.Context) (node.Config, error) {
	cfg, err := node.LoadConfig(c.String("config"))
	if err != nil {
		return cfg, err
	}
	strs := []struct {
		flag string
		dst  *string
	}{
		{"datadir", &cfg.DataDir},
		{"db", &cfg.DB},
		{"scheme", &cfg.Scheme},
		{"oracle-key", &cfg.OracleKey},
		{"authority-key", &cfg.AuthorityKey},
		{"fixture-policy", &cfg.FixturePolicy},
		{"status-policy", &cfg.StatusPolicy},
		{"status-message", &cfg.StatusMessage},
		{"oracle-url", &cfg.OracleURL},
		{"metrics-addr", &cfg.MetricsAddr},
		{"log-level", &cfg.LogLevel},
	}
	for _, s := range strs {
		if c.IsSet(s.flag) {
			*s.dst = c.String(s.flag)
		}
	}
	if c.IsSet("height") {
		cfg.Height = c.Int("height")
	}
	if c.IsSet("poll-interval") {
		cfg.PollInterval = c.Duration("poll-interval")
	}
	log.SetDefault(log.NewText(c.App.ErrWriter, log.ParseLevel(cfg.LogLevel)))
	return cfg, nil
}

func keyFlag() cli.Flag {
	return &cli.StringFlag{Name: "key", Aliases: []string{"k"}, Required: true, Usage: "private key `HEX`"}
}

func layoutFlag() cli.Flag {
	return &cli.StringFlag{Name: "layout", Value: contract.StatusOnly.String(), Usage: "status message `LAYOUT` (status, status+fixture)"}
}

func fixtureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Required: true, Usage: "fixture `ID`"},
		&cli.StringFlag{Name: "local", Value: "0", Usage: "local team `ID`"},
		&cli.StringFlag{Name: "visitor", Value: "0", Usage: "visitor team `ID`"},
		&cli.StringFlag{Name: "starting-at", Value: "0", Usage: "kickoff as unix millis or RFC3339 `TIME`"},
	}
}

func statusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "status", Required: true, Usage: "status `CODE`"},
		&cli.StringFlag{Name: "winner", Value: "0", Usage: "winning team `ID`"},
	}
}

func optionalStatusFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "status", Usage: "status `CODE`; omit to serve no status"},
		&cli.StringFlag{Name: "winner", Value: "0", Usage: "winning team `ID`"},
	}
}

func payloadFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "file", Usage: "payload JSON `FILE`"},
		&cli.StringFlag{Name: "from", Usage: "oracle feed `URL`"},
		&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "fetch `TIMEOUT`"},
	}
}

func scalarFlag(c *cli.Context, name string) (field.Scalar, error) {
	return field.FromDecimal(c.String(name))
}

func fixtureFromFlags(c *cli.Context) (contract.Fixture, error) {
	var (
		f   contract.Fixture
		err error
	)
	if f.FixtureID, err = scalarFlag(c, "id"); err != nil {
		return f, err
	}
	if f.LocalTeamID, err = scalarFlag(c, "local"); err != nil {
		return f, err
	}
	if f.VisitorTeamID, err = scalarFlag(c, "visitor"); err != nil {
		return f, err
	}
	f.StartingAt, err = timeFlag(c, "starting-at")
	return f, err
}

// timeFlag reads an instant given either as unix milliseconds or as an
// RFC3339 timestamp.
func timeFlag(c *cli.Context, name string) (field.Scalar, error) {
	v := c.String(name)
	if !strings.ContainsAny(v, "-:T") {
		return field.FromDecimal(v)
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return field.Scalar{}, fmt.Errorf("--%s: %w", name, err)
	}
	return field.FromMillis(t)
}

func statusFromFlags(c *cli.Context) (contract.FixtureStatus, error) {
	var (
		st  contract.FixtureStatus
		err error
	)
	if st.Status, err = scalarFlag(c, "status"); err != nil {
		return st, err
	}
	st.WinnerTeamID, err = scalarFlag(c, "winner")
	return st, err
}
