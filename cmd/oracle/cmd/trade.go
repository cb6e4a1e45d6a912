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

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/tax-oracle/internal/account"
	"github.com/penny-vault/tax-oracle/internal/ingest"
	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/store"
	"github.com/penny-vault/tax-oracle/internal/taxledger"
)

var (
	tradeInputPath string
	tradeSource    string
	tradeAccountID string
	tradeLotsCSV   string
	tradePricesCSV string
)

func init() {
	tradeCmd.Flags().StringVar(&tradeInputPath, "input", "", "Read the request from this file instead of stdin")
	tradeCmd.Flags().StringVar(&tradeSource, "source", "stdin", `Where to load tax lots from: "stdin" (the request body) or "postgres" (--account-id via --database-url)`)
	tradeCmd.Flags().StringVar(&tradeAccountID, "account-id", "", `Account to load lots for when --source=postgres`)
	tradeCmd.Flags().StringVar(&tradeLotsCSV, "lots-csv", "", "Load tax lots from this CSV instead of the request body")
	tradeCmd.Flags().StringVar(&tradePricesCSV, "prices-csv", "", "Merge prices from this CSV into the request")
	rootCmd.AddCommand(tradeCmd)
}

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Compute rebalance trades for one account",
	Long:  `Reads a trade request from stdin (or --input), computes tax-aware rebalance trades for every strategy, and writes the response to stdout. Exit code 0 on success, nonzero on malformed input.`,
	Run: func(cmd *cobra.Command, args []string) {
		requestID := uuid.New().String()
		sublog := log.With().Str("requestID", requestID).Logger()
		ctx := context.Background()

		req, err := readRequest(tradeInputPath)
		if err != nil {
			sublog.Error().Err(err).Msg("could not read trade request")
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := applyLotsAndPrices(ctx, &req); err != nil {
			sublog.Error().Err(err).Msg("could not source lots/prices")
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if req.WashSaleWindowDays == 0 {
			req.WashSaleWindowDays = cfg.WashSaleWindowDays
		}
		req.Store = taxledger.NewStore(cfg.TaxArtifactDir)

		resp, err := account.ComputeOptimalTrades(req)
		if err != nil {
			sublog.Error().Err(err).Msg("compute trades failed")
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := json.NewEncoder(os.Stdout).Encode(resp); err != nil {
			log.Error().Err(err).Msg("could not encode response")
			os.Exit(1)
		}
	},
}

// applyLotsAndPrices layers --source=postgres and/or --lots-csv/--prices-csv
// on top of the lots and prices the request body already carries, the way
// SPEC_FULL.md §13 describes: an alternative ingestion path, not a new
// shape of request. Lot sourcing replaces a single strategy's lot list
// wholesale (there is no lot->strategy mapping in Postgres or a CSV file,
// only account-wide positions), so it requires exactly one strategy in the
// request; price sourcing merges into every strategy, since market data
// isn't sleeve-specific.
func applyLotsAndPrices(ctx context.Context, req *account.Request) error {
	switch tradeSource {
	case "stdin":
	case "postgres":
		if tradeAccountID == "" {
			return fmt.Errorf("trade: --account-id is required when --source=postgres")
		}
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("trade: --database-url (or DATABASE_URL) is required when --source=postgres")
		}
		if len(req.Strategies) != 1 {
			return fmt.Errorf("trade: --source=postgres requires exactly one strategy in the request, got %d", len(req.Strategies))
		}

		st, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("trade: %w", err)
		}
		defer st.Close()

		lots, err := st.LoadLots(ctx, tradeAccountID)
		if err != nil {
			return fmt.Errorf("trade: %w", err)
		}
		req.Strategies[0].Strategy.Lots = lots

		ids := identifiersOf(req.Strategies[0].Strategy.Target)
		prices, err := st.LoadPrices(ctx, ids)
		if err != nil {
			return fmt.Errorf("trade: %w", err)
		}
		mergePrices(&req.Strategies[0].Prices, prices)
	default:
		return fmt.Errorf("trade: unknown --source %q, want \"stdin\" or \"postgres\"", tradeSource)
	}

	if tradeLotsCSV != "" {
		if len(req.Strategies) != 1 {
			return fmt.Errorf("trade: --lots-csv requires exactly one strategy in the request, got %d", len(req.Strategies))
		}
		f, err := os.Open(tradeLotsCSV)
		if err != nil {
			return fmt.Errorf("trade: opening %s: %w", tradeLotsCSV, err)
		}
		defer f.Close()
		lots, err := ingest.LoadLotsCSV(f)
		if err != nil {
			return fmt.Errorf("trade: %w", err)
		}
		req.Strategies[0].Strategy.Lots = lots
	}

	if tradePricesCSV != "" {
		f, err := os.Open(tradePricesCSV)
		if err != nil {
			return fmt.Errorf("trade: opening %s: %w", tradePricesCSV, err)
		}
		defer f.Close()
		prices, err := ingest.LoadPricesCSV(f)
		if err != nil {
			return fmt.Errorf("trade: %w", err)
		}
		for i := range req.Strategies {
			mergePrices(&req.Strategies[i].Prices, prices)
		}
	}

	return nil
}

// identifiersOf collects the distinct identifiers a strategy's target
// allocation references, for a price lookup scoped to what the solve
// actually needs.
func identifiersOf(target oracletypes.Target) []string {
	ids := make([]string, 0)
	for _, row := range target {
		ids = append(ids, row.Identifiers...)
	}
	return ids
}

// mergePrices layers src into *dst, initializing *dst if it was nil.
func mergePrices(dst *oracletypes.PriceBook, src oracletypes.PriceBook) {
	if *dst == nil {
		*dst = make(oracletypes.PriceBook, len(src))
	}
	for id, price := range src {
		(*dst)[id] = price
	}
}

func readRequest(path string) (account.Request, error) {
	var r io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return account.Request{}, fmt.Errorf("opening %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return account.Request{}, fmt.Errorf("reading request: %w", err)
	}

	var req account.Request
	if err := json.Unmarshal(data, &req); err != nil {
		return account.Request{}, fmt.Errorf("decoding request: %w", err)
	}
	return req, nil
}
