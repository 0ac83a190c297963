package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/log"
	"github.com/dar7an/zk-cricket-trader/oracle"
)

func runSignFixture(c *cli.Context) error {
	k, err := signerFromFlag(c)
	if err != nil {
		return err
	}
	f, err := fixtureFromFlags(c)
	if err != nil {
		return err
	}
	p, err := oracle.SignFixture(k, f)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, p)
}

func runSignStatus(c *cli.Context) error {
	k, err := signerFromFlag(c)
	if err != nil {
		return err
	}
	layout, err := contract.ParseStatusMessage(c.String("layout"))
	if err != nil {
		return err
	}
	f, err := fixtureFromFlags(c)
	if err != nil {
		return err
	}
	st, err := statusFromFlags(c)
	if err != nil {
		return err
	}
	p, err := oracle.SignStatus(k, layout, f, st)
	if err != nil {
		return err
	}
	return printJSON(c.App.Writer, p)
}

func runOracleServe(c *cli.Context) error {
	k, err := signerFromFlag(c)
	if err != nil {
		return err
	}
	layout, err := contract.ParseStatusMessage(c.String("layout"))
	if err != nil {
		return err
	}
	f, err := fixtureFromFlags(c)
	if err != nil {
		return err
	}

	feed := oracle.NewFeed(k, layout, log.Default())
	if _, err := feed.PublishFixture(f); err != nil {
		return err
	}
	if c.IsSet("status") {
		st, err := statusFromFlags(c)
		if err != nil {
			return err
		}
		if _, err := feed.PublishStatus(f, st); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	srv := &http.Server{Addr: c.String("addr"), Handler: feed, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()
	log.Info("oracle feed listening", "addr", srv.Addr, "oracle", k.Public())
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
