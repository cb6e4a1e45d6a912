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

import "time"

// TaxLot is an individually tracked purchase with its own cost basis and
// acquisition date. Invariants: Quantity >= 0, CostBasis >= 0, LotID unique
// within the account. A lot is owned by exactly one strategy; the account
// facade holds a read-only aggregate view of every strategy's lots for
// wash-sale purposes.
type TaxLot struct {
	LotID        string    `json:"lot_id"`
	Identifier   string    `json:"identifier"`
	AccountID    string    `json:"account_id"`
	Broker       string    `json:"broker"`
	Quantity     float64   `json:"quantity"`
	CostBasis    float64   `json:"cost_basis"`
	AcquiredDate time.Time `json:"acquired_date"`

	// StrategyID is populated by the account facade when it gathers all
	// lots across strategies for the wash-sale engine; it is not part of
	// the wire format for a strategy's own tax_lots list.
	StrategyID string `json:"-"`
}

// UnitCostBasis is the per-share cost basis, or 0 for an empty lot.
func (l *TaxLot) UnitCostBasis() float64 {
	if l.Quantity == 0 {
		return 0
	}
	return l.CostBasis / l.Quantity
}

// AgeDays is the number of whole days between acquisition and asOf.
func (l *TaxLot) AgeDays(asOf time.Time) int {
	return int(asOf.Sub(l.AcquiredDate).Hours() / 24)
}

// IsLongTerm reports whether a disposition of this lot as of asOf would be a
// long-term capital gain: held LongTermHoldingDays (365) days or more.
func (l *TaxLot) IsLongTerm(asOf time.Time) bool {
	return l.AgeDays(asOf) >= LongTermHoldingDays
}

// ClosedLot is a previously sold tax lot, supplied externally, used to
// derive wash-sale buy restrictions.
type ClosedLot struct {
	Identifier   string    `json:"identifier"`
	Quantity     float64   `json:"quantity"`
	CostBasis    float64   `json:"cost_basis"`
	DateAcquired time.Time `json:"date_acquired"`
	DateSold     time.Time `json:"date_sold"`
	Proceeds     float64   `json:"proceeds"`
	RealizedGain float64   `json:"realized_gain"`
}

// IsLossSale reports whether this closed lot realized a loss.
func (c *ClosedLot) IsLossSale() bool { return c.RealizedGain < 0 }
