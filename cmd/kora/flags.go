// Copyright (c) 2026 The Kora developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Usage: "directory for chain databases, empty for in-memory",
	}
	beneficiaryFlag = cli.StringFlag{
		Name:  "beneficiary",
		Usage: "address credited with block fees",
	}
	chainTagFlag = cli.UintFlag{
		Name:  "chain-tag",
		Value: 0xf6,
		Usage: "chain tag admitted transactions must carry",
	}
	gasLimitFlag = cli.Uint64Flag{
		Name:  "gas-limit",
		Value: 10_000_000,
		Usage: "block gas limit",
	}
	poolLimitFlag = cli.IntFlag{
		Name:  "pool-limit",
		Value: 10000,
		Usage: "max transactions held in the pool",
	}
	poolLimitPerAccountFlag = cli.IntFlag{
		Name:  "pool-limit-per-account",
		Value: 16,
		Usage: "max transactions per sender held in the pool",
	}
	blockIntervalFlag = cli.Uint64Flag{
		Name:  "block-interval",
		Value: 10,
		Usage: "seconds between solo blocks",
	}
	onDemandFlag = cli.BoolFlag{
		Name:  "on-demand",
		Usage: "produce a solo block whenever the pool holds pending transactions",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-5)",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "prometheus metrics listening address, empty to disable",
	}
)
