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

package variables_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/variables"
)

var _ = Describe("Set", func() {
	strategy := &oracletypes.Strategy{
		Target: oracletypes.Target{
			{AssetClass: "us_equity", TargetWeight: 0.5, Identifiers: []string{"VTI", "ITOT"}},
			{AssetClass: "bonds", TargetWeight: 0.5, Identifiers: []string{"BND"}},
			{AssetClass: oracletypes.CashAssetClass, TargetWeight: 0, Identifiers: []string{oracletypes.CashIdentifier}},
		},
		Lots: []oracletypes.TaxLot{
			{LotID: "l1", Identifier: "VTI", Quantity: 10},
			{LotID: "l2", Identifier: "BND", Quantity: 5},
		},
	}
	vars := variables.Build(strategy)

	It("builds one sorted buy column per non-cash identifier", func() {
		Expect(vars.Identifiers()).To(Equal([]string{"BND", "ITOT", "VTI"}))
		Expect(vars.NumBuys()).To(Equal(3))
	})

	It("excludes the cash pseudo-identifier from buy columns", func() {
		_, ok := vars.BuyIndex(oracletypes.CashIdentifier)
		Expect(ok).To(BeFalse())
	})

	It("builds one sell column per held lot, in strategy order", func() {
		Expect(vars.NumSells()).To(Equal(2))
		idx, ok := vars.SellIndex("l1")
		Expect(ok).To(BeTrue())
		Expect(idx).To(Equal(vars.NumBuys()))
	})

	It("places sell columns after every buy column in the combined index space", func() {
		buyIdx, _ := vars.BuyIndex("VTI")
		sellIdx, _ := vars.SellIndex("l2")
		Expect(sellIdx).To(BeNumerically(">=", vars.NumBuys()))
		Expect(buyIdx).To(BeNumerically("<", vars.NumBuys()))
		Expect(vars.NumVars()).To(Equal(vars.NumBuys() + vars.NumSells()))
	})

	It("resolves a combined index back to its identifier or lot", func() {
		buyIdx, _ := vars.BuyIndex("VTI")
		id, ok := vars.IdentifierAt(buyIdx)
		Expect(ok).To(BeTrue())
		Expect(id).To(Equal("VTI"))
		Expect(vars.KindAt(buyIdx)).To(Equal(variables.BuyVar))

		sellIdx, _ := vars.SellIndex("l2")
		lot, ok := vars.LotAt(sellIdx)
		Expect(ok).To(BeTrue())
		Expect(lot.LotID).To(Equal("l2"))
		Expect(vars.KindAt(sellIdx)).To(Equal(variables.SellVar))
	})

	It("reports false for an unknown lot id", func() {
		_, ok := vars.SellIndex("nope")
		Expect(ok).To(BeFalse())
	})
})
