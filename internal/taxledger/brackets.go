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

package taxledger

import (
	"math"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// Bracket is one marginal tax bracket: income up to UpTo (exclusive of the
// prior bracket's ceiling) is taxed at Rate. The top bracket uses
// math.Inf(1) for UpTo.
type Bracket struct {
	UpTo float64
	Rate float64
}

// Brackets is a marginal bracket schedule, ascending by UpTo.
type Brackets []Bracket

// TaxOn computes the marginal tax on a nonnegative amount of gain. Amounts
// at or below zero owe nothing (losses don't generate a refund here; they
// net against gains before TaxOn is ever called).
func (b Brackets) TaxOn(amount float64) float64 {
	if amount <= 0 {
		return 0
	}
	var tax, lower float64
	for _, br := range b {
		if amount <= lower {
			break
		}
		ceiling := math.Min(amount, br.UpTo)
		if taxable := ceiling - lower; taxable > 0 {
			tax += taxable * br.Rate
		}
		lower = br.UpTo
	}
	return tax
}

// TaxLiability computes the liability breakdown spec.md §4.9 step 5
// describes: bracket tax on each positive gain bucket plus a flat NIIT rate
// on positive combined investment income.
func TaxLiability(stGain, ltGain float64, stBrackets, ltBrackets Brackets, niitRate float64) oracletypes.TaxLiabilityBreakdown {
	stTax := stBrackets.TaxOn(math.Max(0, stGain))
	ltTax := ltBrackets.TaxOn(math.Max(0, ltGain))

	var niit float64
	if investmentIncome := stGain + ltGain; investmentIncome > 0 {
		niit = investmentIncome * niitRate
	}

	return oracletypes.TaxLiabilityBreakdown{
		ShortTermTax: stTax,
		LongTermTax:  ltTax,
		NIIT:         niit,
		Total:        stTax + ltTax + niit,
	}
}
