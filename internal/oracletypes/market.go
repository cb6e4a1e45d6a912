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

package oracletypes

import (
	"fmt"
	"math"
)

// PriceBook is a snapshot mapping identifier -> nonnegative price, valid for
// one optimization run. Never mutated during a run.
type PriceBook map[string]float64

// Get returns the price for identifier, or (0, false) if unknown. Cash
// always prices at 1 regardless of what the book contains.
func (p PriceBook) Get(identifier string) (float64, bool) {
	if identifier == CashIdentifier {
		return 1.0, true
	}
	price, ok := p[identifier]
	return price, ok
}

// Validate checks that every price is finite and nonnegative.
func (p PriceBook) Validate() error {
	for id, price := range p {
		if math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
			return Wrap("price", ErrInputValidation, fmt.Sprintf("%s has negative or non-finite price %.4f", id, price))
		}
	}
	return nil
}

// SpreadBook is a mapping identifier -> transaction-cost rate, expressed as
// a fraction of notional (e.g. 0.001 = 10 bps).
type SpreadBook map[string]float64

// Get returns the spread for identifier, defaulting to 0 for cash or any
// identifier missing from the book (no spread data means assume free to
// trade, the same default the constraint/objective code uses).
func (s SpreadBook) Get(identifier string) float64 {
	if identifier == CashIdentifier {
		return 0
	}
	return s[identifier]
}

// Validate checks that every spread is finite and nonnegative.
func (s SpreadBook) Validate() error {
	for id, spread := range s {
		if math.IsNaN(spread) || math.IsInf(spread, 0) || spread < 0 {
			return Wrap("spread", ErrInputValidation, fmt.Sprintf("%s has negative or non-finite spread %.4f", id, spread))
		}
	}
	return nil
}

// TaxRateTable holds the rates used to compute effective tax on a realized
// gain, keyed by kind (short_term, long_term, state_short, state_long,
// niit).
type TaxRateTable map[string]float64

const (
	RateShortTerm  = "short_term"
	RateLongTerm   = "long_term"
	RateStateShort = "state_short"
	RateStateLong  = "state_long"
	RateNIIT       = "niit"
)

// EffectiveRate returns the combined federal+state (+NIIT, for gains) rate
// applicable to a disposition of the given gain type.
func (t TaxRateTable) EffectiveRate(gain GainType) float64 {
	if gain == LongTerm {
		return t[RateLongTerm] + t[RateStateLong] + t[RateNIIT]
	}
	return t[RateShortTerm] + t[RateStateShort] + t[RateNIIT]
}
