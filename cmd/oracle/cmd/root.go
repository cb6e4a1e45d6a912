// Copyright 2021-2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd is the tax-oracle CLI: trade (stdin/stdout, spec.md §6's
// primary transport), withdraw (the max-withdrawal binary search) and
// serve (the fiber HTTP surface), built the way cmd/root.go and
// cmd/serve.go structure pv-api's cobra tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/penny-vault/tax-oracle/internal/config"
)

// cfg is the configuration every subcommand reads from, resolved once by
// loadConfig after cobra has parsed flags but before any command runs. This
// is the one place the cmd tree calls config.Load; nothing below should
// call viper.Get* directly.
var cfg config.Config

func init() {
	rootCmd.PersistentFlags().String("cache-dir", "/var/cache/tax-oracle", "Directory the tax artifact store writes under")
	viper.BindPFlag("cache_dir", rootCmd.PersistentFlags().Lookup("cache-dir"))

	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string for --source=postgres")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	cobra.OnInitialize(loadConfig, setupLogging)
}

var rootCmd = &cobra.Command{
	Use:   "oracle",
	Short: "Tax-aware multi-strategy rebalancing engine",
	Long:  `Computes tax-aware, drift-minimizing rebalance trades across TAX_AWARE, PAIRS_TLH, DIRECT_INDEX, HOLD and LIQUIDATE strategies.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves cfg once, after cobra has parsed persistent and
// per-command flags (which are bound into viper via BindPFlag in each
// command's init) but before Run fires.
func loadConfig() {
	resolved, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg = resolved
}

func setupLogging() {
	switch cfg.LogLevel {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
	out := os.Stderr
	if cfg.LogOutput == "stdout" {
		out = os.Stdout
	}
	log.Logger = log.Output(out)
	if cfg.LogReportCaller {
		log.Logger = log.Logger.With().Caller().Logger()
	}
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}
