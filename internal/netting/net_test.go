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

package netting_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/penny-vault/tax-oracle/internal/netting"
	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

var _ = Describe("Net", func() {
	// S6: Strategy A buys 10 VOO, Strategy B buys 7 VOO, Strategy C sells
	// lot L_B of VOO qty 3. Expected: one netted buy of 17 VOO, one
	// unnetted sell of L_B qty 3.
	It("nets buys of the same identifier across strategies while leaving sells alone", func() {
		gain := -5.0
		gt := oracletypes.ShortTerm
		trades := []oracletypes.Trade{
			{StrategyID: "A", Identifier: "VOO", Side: oracletypes.Buy, Quantity: 10, Price: 400},
			{StrategyID: "B", Identifier: "VOO", Side: oracletypes.Buy, Quantity: 7, Price: 400},
			{StrategyID: "C", Identifier: "VOO", LotID: "L_B", Side: oracletypes.Sell, Quantity: 3, Price: 400, RealizedGain: &gain, GainType: &gt},
		}
		rounding := netting.Rounding{"A": 2, "B": 2, "C": 2}

		result := netting.Net(trades, rounding)

		var buys, sells []oracletypes.Trade
		for _, t := range result {
			if t.Side == oracletypes.Buy {
				buys = append(buys, t)
			} else {
				sells = append(sells, t)
			}
		}

		Expect(buys).To(HaveLen(1))
		Expect(buys[0].Quantity).To(Equal(17.0))
		Expect(buys[0].Identifier).To(Equal("VOO"))

		Expect(sells).To(HaveLen(1))
		Expect(sells[0].LotID).To(Equal("L_B"))
		Expect(sells[0].Quantity).To(Equal(3.0))
	})

	It("rounds a netted buy to the coarsest trade_rounding among contributing strategies", func() {
		trades := []oracletypes.Trade{
			{StrategyID: "A", Identifier: "VTI", Side: oracletypes.Buy, Quantity: 1.2345, Price: 100},
			{StrategyID: "B", Identifier: "VTI", Side: oracletypes.Buy, Quantity: 2.6789, Price: 100},
		}
		rounding := netting.Rounding{"A": 4, "B": 0}

		result := netting.Net(trades, rounding)
		Expect(result).To(HaveLen(1))
		Expect(result[0].Quantity).To(Equal(4.0)) // round(3.9134, 0)
	})

	It("keeps separate buys for separate identifiers", func() {
		trades := []oracletypes.Trade{
			{StrategyID: "A", Identifier: "VTI", Side: oracletypes.Buy, Quantity: 5, Price: 100},
			{StrategyID: "A", Identifier: "ITOT", Side: oracletypes.Buy, Quantity: 3, Price: 50},
		}
		result := netting.Net(trades, netting.Rounding{"A": 2})
		Expect(result).To(HaveLen(2))
	})

	It("drops a netted buy whose rounded quantity is zero", func() {
		trades := []oracletypes.Trade{
			{StrategyID: "A", Identifier: "VTI", Side: oracletypes.Buy, Quantity: 0.001, Price: 100},
		}
		result := netting.Net(trades, netting.Rounding{"A": 2})
		Expect(result).To(BeEmpty())
	})

	It("is associative and commutative when strategies share one trade_rounding", func() {
		a := []oracletypes.Trade{{StrategyID: "A", Identifier: "VOO", Side: oracletypes.Buy, Quantity: 10.125, Price: 400}}
		b := []oracletypes.Trade{{StrategyID: "B", Identifier: "VOO", Side: oracletypes.Buy, Quantity: 7.375, Price: 400}}
		rounding := netting.Rounding{"A": 2, "B": 2}

		direct := netting.Net(append(append([]oracletypes.Trade{}, a...), b...), rounding)

		netA := netting.Net(a, rounding)
		netB := netting.Net(b, rounding)
		staged := netting.Net(append(append([]oracletypes.Trade{}, netA...), netB...), netting.Rounding{"": 2})

		Expect(direct).To(HaveLen(1))
		Expect(staged).To(HaveLen(1))
		Expect(staged[0].Quantity).To(Equal(direct[0].Quantity))

		// commutative: order of the flat trade list doesn't matter
		reversed := netting.Net(append(append([]oracletypes.Trade{}, b...), a...), rounding)
		Expect(reversed[0].Quantity).To(Equal(direct[0].Quantity))
	})
})
