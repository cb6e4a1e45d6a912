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

// Package washsale derives wash-sale buy and sell restrictions from the
// account's recently closed lots and the full cross-strategy lot book. It
// runs once per account, ahead of the per-strategy solves, so a loss
// harvested in one strategy can block a wash-triggering buy in another.
package washsale

import (
	"sort"
	"time"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// DefaultWindowDays is the IRS wash-sale window: 30 days before or after the
// loss sale, inclusive on both ends.
const DefaultWindowDays = 30

// DefaultProtection shaves a small percentage off a lot's current market
// value before comparing it to cost basis, so a lot that is a whisker above
// water isn't treated as sellable-without-restriction only for the price to
// tick down before the trade executes.
const DefaultProtection = 0.001

// Engine holds the buy and sell restrictions derived as of one date.
type Engine struct {
	asOf       time.Time
	windowDays int
	protection float64

	buy  []oracletypes.WashSaleBuyRestriction
	sell []oracletypes.WashSaleSellRestriction
}

// Config carries the knobs the teacher's restriction class exposes as
// constructor arguments.
type Config struct {
	AsOf           time.Time
	WindowDays     int     // 0 -> DefaultWindowDays
	Protection     float64 // 0 -> DefaultProtection
	AllLots        []oracletypes.TaxLot
	RecentlyClosed []oracletypes.ClosedLot
	Prices         oracletypes.PriceBook
}

// New derives the full set of buy and sell restrictions active as of cfg.AsOf.
func New(cfg Config) *Engine {
	window := cfg.WindowDays
	if window == 0 {
		window = DefaultWindowDays
	}
	protection := cfg.Protection
	if protection == 0 {
		protection = DefaultProtection
	}

	e := &Engine{asOf: cfg.AsOf, windowDays: window, protection: protection}
	e.buy = identifyBuyRestrictions(cfg.AsOf, window, cfg.RecentlyClosed)
	e.sell = identifySellRestrictions(cfg.AsOf, window, protection, cfg.AllLots, cfg.Prices)
	return e
}

// identifyBuyRestrictions groups loss sales by identifier and keeps the
// furthest-out expiry per identifier, mirroring the teacher's groupby/max.
func identifyBuyRestrictions(asOf time.Time, window int, closed []oracletypes.ClosedLot) []oracletypes.WashSaleBuyRestriction {
	furthest := make(map[string]time.Time)
	for _, lot := range closed {
		if !lot.IsLossSale() {
			continue
		}
		ends := dateOnly(lot.DateSold).AddDate(0, 0, window)
		if ends.Before(asOf) {
			continue
		}
		if cur, ok := furthest[lot.Identifier]; !ok || ends.After(cur) {
			furthest[lot.Identifier] = ends
		}
	}

	out := make([]oracletypes.WashSaleBuyRestriction, 0, len(furthest))
	for id, ends := range furthest {
		out = append(out, oracletypes.WashSaleBuyRestriction{
			Identifier:           id,
			Reason:               oracletypes.BuySellBuy,
			RestrictionEndsAfter: ends,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Identifier > out[j].Identifier })
	return out
}

// identifySellRestrictions flags a lot as sell-restricted when another lot
// of the same identifier was purchased within the window and selling the
// flagged lot now would realize a loss.
func identifySellRestrictions(asOf time.Time, window int, protection float64, lots []oracletypes.TaxLot, prices oracletypes.PriceBook) []oracletypes.WashSaleSellRestriction {
	windowStart := asOf.AddDate(0, 0, -window)

	byIdentifier := make(map[string][]oracletypes.TaxLot)
	for _, lot := range lots {
		byIdentifier[lot.Identifier] = append(byIdentifier[lot.Identifier], lot)
	}

	out := make([]oracletypes.WashSaleSellRestriction, 0)
	for identifier, group := range byIdentifier {
		price, ok := prices.Get(identifier)
		if !ok {
			continue
		}
		for _, candidate := range group {
			var latestRecent time.Time
			found := false
			for _, other := range group {
				if other.LotID == candidate.LotID {
					continue
				}
				acquired := dateOnly(other.AcquiredDate)
				if acquired.Before(windowStart) {
					continue
				}
				if !found || acquired.After(latestRecent) {
					latestRecent = acquired
					found = true
				}
			}
			if !found {
				continue
			}
			endsAfter := latestRecent.AddDate(0, 0, window)

			currentValue := round2(price * candidate.Quantity)
			adjustedValue := round2(currentValue * (1 - protection))
			if adjustedValue > candidate.CostBasis*(1+1e-7) {
				// Current value still above cost basis: no loss, no restriction.
				continue
			}

			out = append(out, oracletypes.WashSaleSellRestriction{
				LotID:                candidate.LotID,
				Identifier:           identifier,
				Reason:               oracletypes.BuyBuySell,
				RestrictionEndsAfter: endsAfter,
				CurrentPrice:         price,
				AdjustedCurrentValue: adjustedValue,
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Identifier != out[j].Identifier {
			return out[i].Identifier > out[j].Identifier
		}
		return out[i].LotID > out[j].LotID
	})
	return out
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func round2(v float64) float64 {
	return float64(int64(v*100+sign(v)*0.5)) / 100
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// IsBuyRestricted reports whether identifier currently has an active buy
// restriction.
func (e *Engine) IsBuyRestricted(identifier string) bool {
	for _, r := range e.buy {
		if r.Identifier == identifier && r.Active(e.asOf) {
			return true
		}
	}
	return false
}

// IsLotSellRestricted reports whether the given lot currently has an active
// sell restriction.
func (e *Engine) IsLotSellRestricted(identifier, lotID string) bool {
	for _, r := range e.sell {
		if r.Identifier == identifier && r.LotID == lotID && r.Active(e.asOf) {
			return true
		}
	}
	return false
}

// ActiveBuyRestrictions returns every currently active buy restriction,
// identifier descending.
func (e *Engine) ActiveBuyRestrictions() []oracletypes.WashSaleBuyRestriction {
	out := make([]oracletypes.WashSaleBuyRestriction, 0, len(e.buy))
	for _, r := range e.buy {
		if r.Active(e.asOf) {
			out = append(out, r)
		}
	}
	return out
}

// ActiveSellRestrictions returns every currently active sell restriction,
// identifier then lot ID descending.
func (e *Engine) ActiveSellRestrictions() []oracletypes.WashSaleSellRestriction {
	out := make([]oracletypes.WashSaleSellRestriction, 0, len(e.sell))
	for _, r := range e.sell {
		if r.Active(e.asOf) {
			out = append(out, r)
		}
	}
	return out
}

// RestrictedLotsFor returns the active sell restrictions for one identifier.
func (e *Engine) RestrictedLotsFor(identifier string) []oracletypes.WashSaleSellRestriction {
	out := make([]oracletypes.WashSaleSellRestriction, 0)
	for _, r := range e.sell {
		if r.Identifier == identifier && r.Active(e.asOf) {
			out = append(out, r)
		}
	}
	return out
}

// RestrictedIdentifiers returns the union of identifiers with any active
// buy or sell restriction.
func (e *Engine) RestrictedIdentifiers() map[string]bool {
	out := make(map[string]bool)
	for _, r := range e.ActiveBuyRestrictions() {
		out[r.Identifier] = true
	}
	for _, r := range e.ActiveSellRestrictions() {
		out[r.Identifier] = true
	}
	return out
}
