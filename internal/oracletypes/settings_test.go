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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

var _ = Describe("StrategySettings", func() {
	Describe("Defaulted", func() {
		It("fills in the range multipliers only when they're zero", func() {
			s := oracletypes.StrategySettings{}.Defaulted()
			Expect(s.RangeMinWeightMultiplier).To(Equal(0.5))
			Expect(s.RangeMaxWeightMultiplier).To(Equal(2.0))

			custom := oracletypes.StrategySettings{RangeMinWeightMultiplier: 0.8, RangeMaxWeightMultiplier: 1.5}.Defaulted()
			Expect(custom.RangeMinWeightMultiplier).To(Equal(0.8))
			Expect(custom.RangeMaxWeightMultiplier).To(Equal(1.5))
		})
	})

	Describe("AdjustedWeights", func() {
		base := oracletypes.StrategySettings{WeightTax: 1, WeightDrift: 1, WeightTransaction: 1, WeightFactorModel: 1, WeightCashDrag: 1}

		It("zeros every weight for HOLD", func() {
			s := base.AdjustedWeights(oracletypes.Hold)
			Expect(s.WeightTax).To(Equal(0.0))
			Expect(s.WeightDrift).To(Equal(0.0))
			Expect(s.WeightTransaction).To(Equal(0.0))
			Expect(s.WeightFactorModel).To(Equal(0.0))
			Expect(s.WeightCashDrag).To(Equal(0.0))
		})

		It("zeros drift and factor for LIQUIDATE, leaving tax and transaction alone", func() {
			s := base.AdjustedWeights(oracletypes.Liquidate)
			Expect(s.WeightDrift).To(Equal(0.0))
			Expect(s.WeightFactorModel).To(Equal(0.0))
			Expect(s.WeightTax).To(Equal(1.0))
			Expect(s.WeightTransaction).To(Equal(1.0))
		})

		It("defaults tax and drift to 1 for PAIRS_TLH when unset, and drops the factor term", func() {
			s := oracletypes.StrategySettings{}.AdjustedWeights(oracletypes.PairsTLH)
			Expect(s.WeightTax).To(Equal(1.0))
			Expect(s.WeightDrift).To(Equal(1.0))
			Expect(s.WeightFactorModel).To(Equal(0.0))
		})

		It("doesn't override an explicitly configured PAIRS_TLH weight", func() {
			s := oracletypes.StrategySettings{WeightTax: 0.4, WeightDrift: 0.6}.AdjustedWeights(oracletypes.PairsTLH)
			Expect(s.WeightTax).To(Equal(0.4))
			Expect(s.WeightDrift).To(Equal(0.6))
		})

		It("defaults the factor weight to 1 for DIRECT_INDEX when unset", func() {
			s := oracletypes.StrategySettings{}.AdjustedWeights(oracletypes.DirectIndex)
			Expect(s.WeightFactorModel).To(Equal(1.0))
		})

		It("leaves TAX_AWARE weights untouched", func() {
			s := base.AdjustedWeights(oracletypes.TaxAware)
			Expect(s).To(Equal(base))
		})
	})
})

var _ = Describe("ValidateRequest", func() {
	prices := oracletypes.PriceBook{"VTI": 100}
	spreads := oracletypes.SpreadBook{"VTI": 0.001}
	rates := oracletypes.TaxRateTable{oracletypes.RateLongTerm: 0.15}

	newStrategy := func(id string) oracletypes.Strategy {
		return oracletypes.Strategy{
			StrategyID: id,
			Kind:       oracletypes.TaxAware,
			Target:     oracletypes.Target{{AssetClass: "equity", TargetWeight: 1, Identifiers: []string{"VTI"}}},
		}
	}

	It("accepts a well-formed request", func() {
		err := oracletypes.ValidateRequest([]oracletypes.Strategy{newStrategy("s1")}, prices, spreads, rates)
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects duplicate strategy ids", func() {
		err := oracletypes.ValidateRequest([]oracletypes.Strategy{newStrategy("s1"), newStrategy("s1")}, prices, spreads, rates)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a target identifier with no price", func() {
		s := newStrategy("s1")
		s.Target = oracletypes.Target{{AssetClass: "equity", TargetWeight: 1, Identifiers: []string{"ITOT"}}}
		err := oracletypes.ValidateRequest([]oracletypes.Strategy{s}, prices, spreads, rates)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a held identifier with no price", func() {
		s := newStrategy("s1")
		s.Lots = []oracletypes.TaxLot{{LotID: "l1", Identifier: "ITOT", Quantity: 1, CostBasis: 10}}
		err := oracletypes.ValidateRequest([]oracletypes.Strategy{s}, prices, spreads, rates)
		Expect(err).To(HaveOccurred())
	})

	It("allows the cash identifier in a target without requiring a price entry", func() {
		s := newStrategy("s1")
		s.Target = oracletypes.Target{
			{AssetClass: "equity", TargetWeight: 0.9, Identifiers: []string{"VTI"}},
			{AssetClass: oracletypes.CashAssetClass, TargetWeight: 0.1, Identifiers: []string{oracletypes.CashIdentifier}},
		}
		err := oracletypes.ValidateRequest([]oracletypes.Strategy{s}, prices, spreads, rates)
		Expect(err).NotTo(HaveOccurred())
	})
})
