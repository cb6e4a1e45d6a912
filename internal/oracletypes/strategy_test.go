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

package oracletypes_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

var _ = Describe("Strategy", func() {
	var strategy *oracletypes.Strategy

	BeforeEach(func() {
		strategy = &oracletypes.Strategy{
			StrategyID:    "strat-1",
			Kind:          oracletypes.TaxAware,
			Cash:          100,
			MinCash:       0,
			TradeRounding: 2,
			Target: oracletypes.Target{
				{AssetClass: "us_equity", TargetWeight: 0.9, Identifiers: []string{"VTI"}},
				{AssetClass: oracletypes.CashAssetClass, TargetWeight: 0.1, Identifiers: []string{oracletypes.CashIdentifier}},
			},
			Lots: []oracletypes.TaxLot{
				{LotID: "lot-2", Identifier: "VTI", Quantity: 5, CostBasis: 500, AcquiredDate: time.Now().AddDate(0, 0, -10)},
				{LotID: "lot-1", Identifier: "VTI", Quantity: 10, CostBasis: 900, AcquiredDate: time.Now().AddDate(-2, 0, 0)},
			},
		}
	})

	It("validates a well-formed strategy", func() {
		Expect(strategy.Validate()).To(Succeed())
	})

	It("rejects an unknown strategy kind", func() {
		strategy.Kind = "BOGUS"
		Expect(strategy.Validate()).To(HaveOccurred())
	})

	It("rejects target weights that don't sum to 1", func() {
		strategy.Target[0].TargetWeight = 0.5
		Expect(strategy.Validate()).To(HaveOccurred())
	})

	It("rejects duplicate lot ids", func() {
		strategy.Lots = append(strategy.Lots, oracletypes.TaxLot{LotID: "lot-1", Identifier: "VTI", Quantity: 1, CostBasis: 100})
		Expect(strategy.Validate()).To(HaveOccurred())
	})

	It("rolls lots up into holdings by identifier", func() {
		Expect(strategy.Holdings()["VTI"]).To(Equal(15.0))
	})

	It("orders LotsFor oldest acquisition first", func() {
		lots := strategy.LotsFor("VTI")
		Expect(lots).To(HaveLen(2))
		Expect(lots[0].LotID).To(Equal("lot-1"))
		Expect(lots[1].LotID).To(Equal("lot-2"))
	})
})

var _ = Describe("TaxLot", func() {
	It("classifies a lot held over 365 days as long-term", func() {
		lot := oracletypes.TaxLot{Quantity: 1, CostBasis: 10, AcquiredDate: time.Now().AddDate(-1, -1, 0)}
		Expect(lot.IsLongTerm(time.Now())).To(BeTrue())
	})

	It("classifies a lot held under 365 days as short-term", func() {
		lot := oracletypes.TaxLot{Quantity: 1, CostBasis: 10, AcquiredDate: time.Now().AddDate(0, -1, 0)}
		Expect(lot.IsLongTerm(time.Now())).To(BeFalse())
	})

	It("computes unit cost basis, defaulting to 0 for an empty lot", func() {
		lot := oracletypes.TaxLot{Quantity: 0, CostBasis: 0}
		Expect(lot.UnitCostBasis()).To(Equal(0.0))

		lot = oracletypes.TaxLot{Quantity: 4, CostBasis: 40}
		Expect(lot.UnitCostBasis()).To(Equal(10.0))
	})
})

var _ = Describe("TaxRateTable", func() {
	It("sums federal, state and NIIT rates for long-term gains", func() {
		rates := oracletypes.TaxRateTable{
			oracletypes.RateLongTerm:  0.15,
			oracletypes.RateStateLong: 0.05,
			oracletypes.RateNIIT:      0.038,
		}
		Expect(rates.EffectiveRate(oracletypes.LongTerm)).To(BeNumerically("~", 0.238, 1e-9))
	})

	It("sums federal, state and NIIT rates for short-term gains", func() {
		rates := oracletypes.TaxRateTable{
			oracletypes.RateShortTerm:  0.24,
			oracletypes.RateStateShort: 0.05,
			oracletypes.RateNIIT:       0.038,
		}
		Expect(rates.EffectiveRate(oracletypes.ShortTerm)).To(BeNumerically("~", 0.328, 1e-9))
	})
})
