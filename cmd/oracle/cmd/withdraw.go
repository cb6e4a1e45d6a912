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
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/penny-vault/tax-oracle/internal/account"
)

var (
	withdrawInputPath  string
	withdrawStrategyID string
	withdrawMin        float64
	withdrawMax        float64
)

func init() {
	withdrawCmd.Flags().StringVar(&withdrawInputPath, "input", "", "Read the request from this file instead of stdin")
	withdrawCmd.Flags().StringVar(&withdrawStrategyID, "strategy-id", "", "Strategy to search a withdrawal amount for")
	withdrawCmd.Flags().Float64Var(&withdrawMin, "min", 0, "Minimum withdrawal amount to probe")
	withdrawCmd.Flags().Float64Var(&withdrawMax, "max", 0, "Maximum withdrawal amount to probe")
	withdrawCmd.MarkFlagRequired("strategy-id")
	withdrawCmd.MarkFlagRequired("max")
	rootCmd.AddCommand(withdrawCmd)
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw",
	Short: "Find the largest fundable withdrawal for one strategy",
	Long:  `Binary-searches [--min, --max] for the largest withdrawal_amount that strategy --strategy-id can still fund with a feasible rebalance-or-buy-only solve, and writes the funding trades to stdout.`,
	Run: func(cmd *cobra.Command, args []string) {
		req, err := readRequest(withdrawInputPath)
		if err != nil {
			log.Error().Err(err).Msg("could not read withdrawal request")
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if req.WashSaleWindowDays == 0 {
			req.WashSaleWindowDays = cfg.WashSaleWindowDays
		}

		result, err := account.ComputeMaxWithdrawal(req, account.MaxWithdrawalSettings{
			StrategyID: withdrawStrategyID,
			MinAmount:  withdrawMin,
			MaxAmount:  withdrawMax,
		})
		if err != nil {
			log.Error().Err(err).Msg("compute max withdrawal failed")
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
			log.Error().Err(err).Msg("could not encode response")
			os.Exit(1)
		}
	},
}
