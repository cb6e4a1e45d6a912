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

package constraints_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/constraints"
	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/variables"
	"github.com/penny-vault/tax-oracle/internal/washsale"
)

var _ = Describe("Build", func() {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	newStrategy := func() *oracletypes.Strategy {
		return &oracletypes.Strategy{
			StrategyID:    "s1",
			Kind:          oracletypes.TaxAware,
			Cash:          1000,
			MinCash:       100,
			TradeRounding: 2,
			Target: oracletypes.Target{
				{AssetClass: "equity", TargetWeight: 1, Identifiers: []string{"VTI", "ITOT"}},
			},
			Lots: []oracletypes.TaxLot{
				{LotID: "l1", Identifier: "VTI", Quantity: 10, CostBasis: 500, AcquiredDate: now.AddDate(0, 0, -1)},
			},
			Restrictions: []oracletypes.StockRestriction{
				{Identifier: "ITOT", Direction: oracletypes.RestrictBuy},
			},
		}
	}

	prices := oracletypes.PriceBook{"VTI": 100, "ITOT": 50}
	spreads := oracletypes.SpreadBook{"VTI": 0.001, "ITOT": 0.001}

	buildInputs := func(strategy *oracletypes.Strategy, settings oracletypes.StrategySettings) constraints.Inputs {
		vars := variables.Build(strategy)
		engine := washsale.New(washsale.Config{AsOf: now})
		return constraints.Inputs{
			Strategy:    strategy,
			Settings:    settings,
			Vars:        vars,
			Prices:      prices,
			Spreads:     spreads,
			WashSale:    engine,
			TotalValue:  2000,
			CurrentDate: now,
		}
	}

	It("pins a hard-restricted buy column to zero", func() {
		strategy := newStrategy()
		in := buildInputs(strategy, oracletypes.StrategySettings{})
		built, err := constraints.Build(in)
		Expect(err).NotTo(HaveOccurred())

		idx, _ := in.Vars.BuyIndex("ITOT")
		Expect(built.Model.Upper[idx]).To(Equal(0.0))
	})

	It("pins a sell column to zero when the lot hasn't cleared the holding-time floor", func() {
		strategy := newStrategy()
		in := buildInputs(strategy, oracletypes.StrategySettings{HoldingTimeDays: 5})
		built, err := constraints.Build(in)
		Expect(err).NotTo(HaveOccurred())

		idx, _ := in.Vars.SellIndex("l1")
		Expect(built.Model.Upper[idx]).To(Equal(0.0))
	})

	It("leaves the sell column open once the holding-time floor has cleared", func() {
		strategy := newStrategy()
		strategy.Lots[0].AcquiredDate = now.AddDate(0, 0, -30)
		in := buildInputs(strategy, oracletypes.StrategySettings{HoldingTimeDays: 5})
		built, err := constraints.Build(in)
		Expect(err).NotTo(HaveOccurred())

		idx, _ := in.Vars.SellIndex("l1")
		Expect(built.Model.Upper[idx]).To(Equal(10.0))
	})

	It("derives the cash floor constraint from min_cash, cash and withdrawal_amount", func() {
		strategy := newStrategy()
		strategy.WithdrawalAmount = 50
		in := buildInputs(strategy, oracletypes.StrategySettings{})
		built, err := constraints.Build(in)
		Expect(err).NotTo(HaveOccurred())

		found := false
		for _, c := range built.Model.Constraints {
			if c.Name == "cash_floor" {
				found = true
				Expect(c.RHS).To(BeNumerically("~", 100-1000+50, 1e-9))
			}
		}
		Expect(found).To(BeTrue())
	})

	It("pins every buy column to zero when the caller forces no-buy", func() {
		strategy := newStrategy()
		in := buildInputs(strategy, oracletypes.StrategySettings{})
		in.NoBuy = true
		built, err := constraints.Build(in)
		Expect(err).NotTo(HaveOccurred())

		for _, id := range in.Vars.Identifiers() {
			idx, _ := in.Vars.BuyIndex(id)
			Expect(built.Model.Upper[idx]).To(Equal(0.0))
		}
	})

	It("adds a binary indicator per column when min_notional is set", func() {
		strategy := newStrategy()
		in := buildInputs(strategy, oracletypes.StrategySettings{MinNotional: 500})
		before := variables.Build(strategy).NumVars()
		built, err := constraints.Build(in)
		Expect(err).NotTo(HaveOccurred())
		Expect(built.Model.NumVars).To(BeNumerically(">", before))
	})
})
