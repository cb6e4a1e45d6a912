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

package drift_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/drift"
	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

var _ = Describe("Report", func() {
	strategy := &oracletypes.Strategy{
		StrategyID: "s1",
		Cash:       100,
		Target: oracletypes.Target{
			{AssetClass: "us_equity", TargetWeight: 0.8, Identifiers: []string{"VTI"}},
			{AssetClass: "bonds", TargetWeight: 0.2, Identifiers: []string{"BND"}},
		},
		Lots: []oracletypes.TaxLot{
			{LotID: "l1", Identifier: "VTI", Quantity: 10, CostBasis: 800},
			{LotID: "l2", Identifier: "BND", Quantity: 5, CostBasis: 400},
		},
	}
	prices := oracletypes.PriceBook{"VTI": 90, "BND": 80}
	// total value = 100 (cash) + 10*90 (900) + 5*80 (400) = 1400

	It("computes total value as cash plus holdings at current prices", func() {
		total, err := drift.TotalValue(strategy, prices)
		Expect(err).NotTo(HaveOccurred())
		Expect(total).To(Equal(1400.0))
	})

	It("computes actual weight from holdings without renormalizing it", func() {
		report, err := drift.Report(strategy, prices)
		Expect(err).NotTo(HaveOccurred())

		row, ok := report.Row("us_equity")
		Expect(ok).To(BeTrue())
		Expect(row.ActualWeight).To(BeNumerically("~", 900.0/1400.0, 1e-9))
		Expect(row.TargetWeight).To(BeNumerically("~", 0.8, 1e-9))
	})

	It("includes an explicit cash row", func() {
		report, err := drift.Report(strategy, prices)
		Expect(err).NotTo(HaveOccurred())

		row, ok := report.Row(oracletypes.CashAssetClass)
		Expect(ok).To(BeTrue())
		Expect(row.ActualWeight).To(BeNumerically("~", 100.0/1400.0, 1e-9))
	})

	It("renormalizes target weights that don't already sum to 1", func() {
		skewed := &oracletypes.Strategy{
			Cash: 0,
			Target: oracletypes.Target{
				{AssetClass: "us_equity", TargetWeight: 0.4, Identifiers: []string{"VTI"}},
				{AssetClass: "bonds", TargetWeight: 0.4, Identifiers: []string{"BND"}},
			},
		}
		report, err := drift.Report(skewed, oracletypes.PriceBook{"VTI": 1, "BND": 1})
		Expect(err).NotTo(HaveOccurred())
		row, _ := report.Row("us_equity")
		Expect(row.TargetWeight).To(BeNumerically("~", 0.5, 1e-9))
	})

	It("errors when a held identifier has no price", func() {
		_, err := drift.Report(strategy, oracletypes.PriceBook{"VTI": 90})
		Expect(err).To(HaveOccurred())
	})
})
