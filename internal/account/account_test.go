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

package account_test

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/account"
	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/taxledger"
)

func rebalanceScenario(now time.Time) account.Request {
	strategy := oracletypes.Strategy{
		StrategyID:    "s1",
		Kind:          oracletypes.TaxAware,
		Cash:          0,
		MinCash:       0,
		TradeRounding: 0,
		Target: oracletypes.Target{
			{AssetClass: "Equity", TargetWeight: 0.5, Identifiers: []string{"VOO"}},
			{AssetClass: "Bond", TargetWeight: 0.5, Identifiers: []string{"BND"}},
		},
		Lots: []oracletypes.TaxLot{
			{LotID: "L1", Identifier: "VOO", AccountID: "acct-1", Quantity: 100, CostBasis: 40000, AcquiredDate: now.AddDate(0, 0, -400)},
			{LotID: "L2", Identifier: "BND", AccountID: "acct-1", Quantity: 200, CostBasis: 20000, AcquiredDate: now.AddDate(0, 0, -500)},
		},
	}
	settings := oracletypes.StrategySettings{
		WeightTax:          1,
		WeightDrift:        1,
		RebalanceThreshold: 0,
		BuyThreshold:       0.01,
		MinNotional:        100,
	}

	return account.Request{
		Version:     "test",
		CurrentDate: now,
		Rates: oracletypes.TaxRateTable{
			oracletypes.RateShortTerm: 0.24,
			oracletypes.RateLongTerm:  0.15,
			oracletypes.RateNIIT:      0.038,
		},
		AllocationID: "alloc-1",
		TaxYear:      now.Year(),
		STBrackets:   taxledger.Brackets{{UpTo: math.Inf(1), Rate: 0.24}},
		LTBrackets:   taxledger.Brackets{{UpTo: math.Inf(1), Rate: 0.15}},
		NIITRate:     0.038,
		Strategies: []account.StrategyInput{
			{
				Strategy: strategy,
				Settings: settings,
				Prices:   oracletypes.PriceBook{"VOO": 500, "BND": 100},
				Spreads:  oracletypes.SpreadBook{},
			},
		},
	}
}

var _ = Describe("ComputeOptimalTrades", func() {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	It("rebalances a badly drifted portfolio and reconciles tax impact", func() {
		resp, err := account.ComputeOptimalTrades(rebalanceScenario(now))
		Expect(err).NotTo(HaveOccurred())

		result, ok := resp.Results["s1"]
		Expect(ok).To(BeTrue())
		Expect(result.ShouldTrade).To(BeTrue())
		Expect(result.Status).NotTo(BeNil())
		Expect(*result.Status).To(Equal("OPTIMAL"))
		Expect(result.Trades).NotTo(BeEmpty())

		var sellsVOO, buysBND float64
		for _, t := range result.Trades {
			if t.Side == oracletypes.Sell && t.Identifier == "VOO" {
				sellsVOO += t.Quantity
			}
			if t.Side == oracletypes.Buy && t.Identifier == "BND" {
				buysBND += t.Quantity
			}
		}
		Expect(sellsVOO).To(BeNumerically(">", 0))
		Expect(buysBND).To(BeNumerically(">", 0))

		Expect(resp.NettedTrades).NotTo(BeEmpty())
		Expect(resp.TaxArtifactError).To(Equal(""))
		Expect(resp.TaxArtifact).NotTo(BeNil())
		Expect(resp.TaxArtifact.Checksum).To(HaveLen(16))

		var weightSum float64
		for _, p := range resp.TaxArtifact.Positions {
			weightSum += p.Weight
		}
		Expect(weightSum).To(BeNumerically("~", 1.0, 1e-6))
	})

	It("rejects a request with a price missing for a targeted identifier", func() {
		req := rebalanceScenario(now)
		req.Strategies[0].Prices = oracletypes.PriceBook{"VOO": 500} // BND price dropped
		_, err := account.ComputeOptimalTrades(req)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a request with duplicate strategy ids", func() {
		req := rebalanceScenario(now)
		req.Strategies = append(req.Strategies, req.Strategies[0])
		_, err := account.ComputeOptimalTrades(req)
		Expect(err).To(HaveOccurred())
	})

	It("is deterministic across repeated runs with identical input", func() {
		req := rebalanceScenario(now)
		resp1, err := account.ComputeOptimalTrades(req)
		Expect(err).NotTo(HaveOccurred())
		resp2, err := account.ComputeOptimalTrades(req)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp1.TaxArtifact.Checksum).To(Equal(resp2.TaxArtifact.Checksum))
		Expect(resp1.NettedTrades).To(Equal(resp2.NettedTrades))
	})
})

var _ = Describe("ComputeMaxWithdrawal", func() {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	It("finds zero feasible withdrawal when even the minimum amount cannot be funded", func() {
		req := rebalanceScenario(now)
		req.Strategies[0].Strategy.Kind = oracletypes.Liquidate
		result, err := account.ComputeMaxWithdrawal(req, account.MaxWithdrawalSettings{
			StrategyID: "s1",
			MinAmount:  1_000_000_000,
			MaxAmount:  2_000_000_000,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Feasible).To(BeFalse())
		Expect(result.MaxWithdrawal).To(Equal(0.0))
	})

	It("errors when the search range is inverted", func() {
		req := rebalanceScenario(now)
		_, err := account.ComputeMaxWithdrawal(req, account.MaxWithdrawalSettings{
			StrategyID: "s1",
			MinAmount:  100,
			MaxAmount:  10,
		})
		Expect(err).To(HaveOccurred())
	})
})
