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
	"time"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// BuyEvent is one purchase of identifier on Date, used as sale_history
// input to the wash-sale scan (spec.md §4.9 step 4). A lot's own
// acquired_date is itself a buy event.
type BuyEvent struct {
	Identifier string
	Date       time.Time
}

// BuyEventsFromLots derives the buy-event history implied by a lot book:
// one event per lot, at its acquired_date.
func BuyEventsFromLots(lots []oracletypes.TaxLot) []BuyEvent {
	out := make([]BuyEvent, 0, len(lots))
	for _, l := range lots {
		out = append(out, BuyEvent{Identifier: l.Identifier, Date: l.AcquiredDate})
	}
	return out
}

// washSaleWindowDays is the IRS wash-sale window half-width: 30 days
// before and after the sale, matching internal/washsale's window.
const washSaleWindowDays = 30

// SlicesFromTrades converts already-synthesized lot-level sell trades into
// LotSlices without re-deriving lot consumption: when the solver has
// already decided which lot each sell draws from, reconciliation must use
// that lot-level RealizedGain/GainType rather than recomputing FIFO
// against a symbol-level quantity (spec.md §9 "Lot identity and FIFO
// consumption"). Trades missing RealizedGain or GainType (not yet
// synthesized at the lot level) are skipped.
func SlicesFromTrades(trades []oracletypes.Trade) []LotSlice {
	out := make([]LotSlice, 0, len(trades))
	for _, t := range trades {
		if !t.IsSell() || t.RealizedGain == nil || t.GainType == nil {
			continue
		}
		proceeds := t.Notional()
		gain := *t.RealizedGain
		out = append(out, LotSlice{
			LotID:        t.LotID,
			Identifier:   t.Identifier,
			Proceeds:     proceeds,
			CostBasis:    proceeds - gain,
			GainLoss:     gain,
			IsLongTerm:   *t.GainType == oracletypes.LongTerm,
			QuantitySold: t.Quantity,
		})
	}
	return out
}

// Realized aggregates FIFO slices into short-term and long-term buckets,
// after scanning a rolling 61-day sale_history (30 days before the sale, the
// sale day itself, 30 days after) for any loss whose identifier had a buy in
// that window. Such a loss is disallowed — excluded from both buckets — and
// its magnitude is added back to the short-term bucket as a wash-sale
// adjustment, reported separately for the artifact's wash_sales field.
func Realized(slices []LotSlice, saleDate time.Time, history []BuyEvent) (gains oracletypes.RealizedGains, adjustments []oracletypes.WashSaleAdjustment) {
	windowStart := saleDate.AddDate(0, 0, -washSaleWindowDays)
	windowEnd := saleDate.AddDate(0, 0, washSaleWindowDays)

	byIdentifier := make(map[string]float64)

	for _, s := range slices {
		gain := s.GainLoss
		if gain < 0 && hasBuyInWindow(s.Identifier, windowStart, windowEnd, history) {
			byIdentifier[s.Identifier] += -gain
			continue
		}
		if s.IsLongTerm {
			gains.LongTerm += gain
		} else {
			gains.ShortTerm += gain
		}
	}

	for identifier, amount := range byIdentifier {
		gains.ShortTerm += amount
		adjustments = append(adjustments, oracletypes.WashSaleAdjustment{Identifier: identifier, Amount: amount})
	}
	gains.Total = gains.ShortTerm + gains.LongTerm
	return
}

func hasBuyInWindow(identifier string, start, end time.Time, history []BuyEvent) bool {
	for _, b := range history {
		if b.Identifier != identifier {
			continue
		}
		if !b.Date.Before(start) && !b.Date.After(end) {
			return true
		}
	}
	return false
}

// UnrealizedGain sums (market value − cost basis) across every held lot a
// price is available for, spec.md §4.9 step 6's Σ (weight·portfolio_value −
// cost_basis) expressed directly in per-lot terms rather than reconstructed
// through an intermediate weight.
func UnrealizedGain(lots []oracletypes.TaxLot, prices oracletypes.PriceBook) float64 {
	var total float64
	for _, lot := range lots {
		price, ok := prices.Get(lot.Identifier)
		if !ok {
			continue
		}
		total += lot.Quantity*price - lot.CostBasis
	}
	return total
}

// Positions derives the per-identifier weight allocation a lot book implies,
// the form a TaxArtifact records so a later verify_consistency call can
// compare against a freshly supplied allocation without re-deriving it from
// the trade list.
func Positions(lots []oracletypes.TaxLot, prices oracletypes.PriceBook) []oracletypes.Position {
	values := make(map[string]float64)
	order := make([]string, 0)
	var total float64
	for _, lot := range lots {
		price, ok := prices.Get(lot.Identifier)
		if !ok {
			continue
		}
		if _, seen := values[lot.Identifier]; !seen {
			order = append(order, lot.Identifier)
		}
		value := lot.Quantity * price
		values[lot.Identifier] += value
		total += value
	}

	out := make([]oracletypes.Position, 0, len(order))
	for _, id := range order {
		weight := 0.0
		if total != 0 {
			weight = values[id] / total
		}
		out = append(out, oracletypes.Position{Identifier: id, Weight: weight})
	}
	return out
}
