// Command zkbet hosts and drives an oracle-fed betting ledger.
//
// Usage:
//
//	zkbet [global flags] <command> [flags]
//
// Node commands open the data directory directly, so they cannot share a
// leveldb or bolt store with a running "zkbet run".
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dar7an/zk-cricket-trader/log"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0"
var version = "v0.1.0-dev"

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run is the actual entry point, returning an exit code. args includes the
// program name so it can be tested in isolation.
func run(args []string, stdout, stderr io.Writer) int {
	app := newApp(stdout, stderr)
	if err := app.Run(args); err != nil {
		fmt.Fprintf(stderr, "zkbet: %v\n", err)
		return 1
	}
	return 0
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "zkbet",
		Usage:     "oracle-fed betting ledger",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     globalFlags(),
		Before: func(c *cli.Context) error {
			log.SetDefault(log.NewText(stderr, log.ParseLevel(c.String("log-level"))))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "keygen",
				Usage:  "generate a signing key pair",
				Action: runKeygen,
			},
			{
				Name:  "oracle",
				Usage: "oracle-side tools",
				Subcommands: []*cli.Command{
					{
						Name:   "sign-fixture",
						Usage:  "sign a fixture payload",
						Flags:  append([]cli.Flag{keyFlag()}, fixtureFlags()...),
						Action: runSignFixture,
					},
					{
						Name:   "sign-status",
						Usage:  "sign a status payload",
						Flags:  append(append([]cli.Flag{keyFlag(), layoutFlag()}, fixtureFlags()...), statusFlags()...),
						Action: runSignStatus,
					},
					{
						Name:  "serve",
						Usage: "serve a signed fixture (and status) over HTTP",
						Flags: append(append([]cli.Flag{
							keyFlag(),
							layoutFlag(),
							&cli.StringFlag{Name: "addr", Value: "127.0.0.1:8080", Usage: "listen `ADDR`"},
						}, fixtureFlags()...), optionalStatusFlags()...),
						Action: runOracleServe,
					},
				},
			},
			{
				Name:   "init-sig",
				Usage:  "sign the initialization message as the deploy authority",
				Flags:  []cli.Flag{keyFlag()},
				Action: runInitSig,
			},
			{
				Name:  "init",
				Usage: "initialize the ledger",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "signature", Required: true, Usage: "authority `SIG` from init-sig"},
				},
				Action: runInit,
			},
			{
				Name:   "ingest-fixture",
				Usage:  "ingest a signed fixture from a file or the oracle",
				Flags:  payloadFlags(),
				Action: runIngestFixture,
			},
			{
				Name:   "ingest-status",
				Usage:  "ingest a signed status from a file or the oracle",
				Flags:  payloadFlags(),
				Action: runIngestStatus,
			},
			{
				Name:  "bet",
				Usage: "place a bet in the next free slot",
				Flags: []cli.Flag{
					keyFlag(),
					&cli.StringFlag{Name: "team", Required: true, Usage: "team `ID`"},
					&cli.StringFlag{Name: "amount", Required: true, Usage: "`AMOUNT`"},
				},
				Action: runBet,
			},
			{
				Name:   "state",
				Usage:  "print the committed state",
				Action: runState,
			},
			{
				Name:  "witness",
				Usage: "print the witness for a ledger slot",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "index", Usage: "slot `INDEX`"},
				},
				Action: runWitness,
			},
			{
				Name:   "run",
				Usage:  "run the node until interrupted",
				Action: runNode,
			},
		},
	}
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}
