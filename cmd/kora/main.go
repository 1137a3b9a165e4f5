// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/korachain/kora/executor"
	"github.com/korachain/kora/genesis"
	"github.com/korachain/kora/kora"
	"github.com/korachain/kora/log"
	"github.com/korachain/kora/metrics"
	"github.com/korachain/kora/node"
	"github.com/korachain/kora/txpool"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Kora",
		Usage:     "Kora validator node",
		Copyright: "2026 The Kora developers",
		Flags: []cli.Flag{
			dataDirFlag,
			beneficiaryFlag,
			chainTagFlag,
			gasLimitFlag,
			poolLimitFlag,
			poolLimitPerAccountFlag,
			blockIntervalFlag,
			onDemandFlag,
			verbosityFlag,
			metricsAddrFlag,
		},
		Action: soloAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func soloAction(ctx *cli.Context) error {
	initLogger(ctx.Int(verbosityFlag.Name))

	if addr := ctx.String(metricsAddrFlag.Name); addr != "" {
		metrics.InitializePrometheusMetrics()
		go func() {
			if err := http.ListenAndServe(addr, metrics.HTTPHandler()); err != nil {
				logger.Warn("metrics server stopped", "err", err)
			}
		}()
	}

	var beneficiary kora.Address
	if str := ctx.String(beneficiaryFlag.Name); str != "" {
		parsed, err := kora.ParseAddress(str)
		if err != nil {
			return err
		}
		beneficiary = parsed
	}

	gene := genesis.Devnet(uint64(time.Now().Unix()))
	n, err := node.New(gene, executor.New(), node.Options{
		DataDir:     ctx.String(dataDirFlag.Name),
		ChainTag:    byte(ctx.Uint(chainTagFlag.Name)),
		GasLimit:    ctx.Uint64(gasLimitFlag.Name),
		Beneficiary: beneficiary,
		Pool: txpool.Options{
			Limit:           ctx.Int(poolLimitFlag.Name),
			LimitPerAccount: ctx.Int(poolLimitPerAccountFlag.Name),
			MaxLifetime:     20 * time.Minute,
		},
	})
	if err != nil {
		return err
	}
	defer n.Close()

	logger.Info("starting solo node",
		"version", fullVersion(),
		"height", n.Ledger().DurableHeight(),
		"root", n.Ledger().DurableRoot().AbbrevString(),
	)

	runCtx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	solo := newSolo(n, executor.New(), soloOptions{
		interval: time.Duration(ctx.Uint64(blockIntervalFlag.Name)) * time.Second,
		onDemand: ctx.Bool(onDemandFlag.Name),
		gasLimit: ctx.Uint64(gasLimitFlag.Name),
	})
	go solo.loop(runCtx)

	return n.Run(runCtx)
}

func initLogger(verbosity int) {
	var level slog.Level
	switch {
	case verbosity <= 0:
		level = slog.LevelError + 4
	case verbosity == 1:
		level = slog.LevelError
	case verbosity == 2:
		level = slog.LevelWarn
	case verbosity == 3:
		level = slog.LevelInfo
	case verbosity == 4:
		level = slog.LevelDebug
	default:
		level = log.LevelTrace
	}
	log.SetRootHandler(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
