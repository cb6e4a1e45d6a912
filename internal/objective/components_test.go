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

package objective_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/objective"
	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/solver"
	"github.com/penny-vault/tax-oracle/internal/variables"
)

var _ = Describe("Components", func() {
	now := time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC)

	It("reconciles the sum of every term against the model's own objective value", func() {
		strategy := &oracletypes.Strategy{
			StrategyID: "s1",
			Kind:       oracletypes.TaxAware,
			Cash:       500,
			MinCash:    100,
			Target: oracletypes.Target{
				{AssetClass: "equity", TargetWeight: 1, Identifiers: []string{"VTI", "ITOT"}},
			},
			Lots: []oracletypes.TaxLot{
				{LotID: "l1", Identifier: "VTI", Quantity: 10, CostBasis: 500, AcquiredDate: now.AddDate(-2, 0, 0)},
			},
		}
		vars := variables.Build(strategy)
		model := solver.NewModel(vars.NumVars())

		drift := oracletypes.DriftReport{
			{AssetClass: "equity", TargetWeight: 1, ActualWeight: 0.8, Identifiers: []string{"VTI", "ITOT"}},
		}

		in := objective.Inputs{
			Strategy: strategy,
			Settings: oracletypes.StrategySettings{
				WeightTax:         1,
				WeightTransaction: 1,
				WeightDrift:       1,
				WeightCashDrag:    1,
				RankPenaltyFactor: 2,
			},
			Vars:        vars,
			Prices:      oracletypes.PriceBook{"VTI": 80, "ITOT": 50},
			Spreads:     oracletypes.SpreadBook{"VTI": 0.001, "ITOT": 0.002},
			Rates:       oracletypes.TaxRateTable{oracletypes.RateLongTerm: 0.15},
			Drift:       drift,
			TotalValue:  1300,
			CurrentDate: now,
		}
		b := objective.Attach(model, in)

		x := make([]float64, model.NumVars)
		buyIdx, _ := vars.BuyIndex("ITOT")
		sellIdx, _ := vars.SellIndex("l1")
		x[buyIdx] = 3
		x[sellIdx] = 2

		comps := b.Components(x)

		sum := 0.0
		for _, v := range comps {
			sum += v
		}
		objectiveValue := 0.0
		for i, c := range model.Objective {
			if i < len(x) {
				objectiveValue += c * x[i]
			}
		}
		Expect(sum).To(BeNumerically("~", objectiveValue, 1e-6))
	})

	It("attaches piecewise drift segment columns only when the drift weight is positive", func() {
		strategy := &oracletypes.Strategy{
			StrategyID: "s1",
			Kind:       oracletypes.TaxAware,
			Target:     oracletypes.Target{{AssetClass: "equity", TargetWeight: 1, Identifiers: []string{"VTI"}}},
		}
		vars := variables.Build(strategy)
		model := solver.NewModel(vars.NumVars())
		before := model.NumVars

		drift := oracletypes.DriftReport{
			{AssetClass: "equity", TargetWeight: 1, ActualWeight: 0.5, Identifiers: []string{"VTI"}},
		}
		in := objective.Inputs{
			Strategy:    strategy,
			Settings:    oracletypes.StrategySettings{WeightDrift: 1},
			Vars:        vars,
			Prices:      oracletypes.PriceBook{"VTI": 100},
			Spreads:     oracletypes.SpreadBook{},
			Rates:       oracletypes.TaxRateTable{},
			Drift:       drift,
			TotalValue:  1000,
			CurrentDate: now,
		}
		objective.Attach(model, in)
		Expect(model.NumVars).To(BeNumerically(">", before))
	})

	It("reports post-trade factor exposure relative to the benchmark target", func() {
		strategy := &oracletypes.Strategy{
			StrategyID: "s1",
			Kind:       oracletypes.DirectIndex,
			Target:     oracletypes.Target{{AssetClass: "equity", TargetWeight: 1, Identifiers: []string{"VTI", "ITOT"}}},
			Factors: &oracletypes.FactorModel{
				Benchmark: map[string]float64{"value": 0.2},
				Exposures: map[string][]oracletypes.FactorExposure{
					"VTI":  {{Factor: "value", Loading: 0.5}},
					"ITOT": {{Factor: "value", Loading: 0.1}},
				},
			},
		}
		vars := variables.Build(strategy)
		model := solver.NewModel(vars.NumVars())

		in := objective.Inputs{
			Strategy:    strategy,
			Settings:    oracletypes.StrategySettings{WeightFactorModel: 1},
			Vars:        vars,
			Prices:      oracletypes.PriceBook{"VTI": 100, "ITOT": 50},
			Spreads:     oracletypes.SpreadBook{},
			Rates:       oracletypes.TaxRateTable{},
			TotalValue:  1000,
			CurrentDate: now,
		}
		b := objective.Attach(model, in)

		x := make([]float64, model.NumVars)
		exposures := b.FactorExposures(x)
		Expect(exposures).To(HaveKeyWithValue("value", BeNumerically("~", 0.2, 1e-9)))
	})
})
