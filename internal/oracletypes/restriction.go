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

// StockRestriction is a hard, externally supplied restriction on an
// identifier.
type StockRestriction struct {
	Identifier string               `json:"identifier"`
	Direction  RestrictionDirection `json:"direction"`
}

// ForbidsBuy reports whether this restriction pins the buy variable to zero.
func (r StockRestriction) ForbidsBuy() bool {
	return r.Direction == RestrictBuy || r.Direction == RestrictBoth
}

// ForbidsSell reports whether this restriction pins sell variables to zero.
func (r StockRestriction) ForbidsSell() bool {
	return r.Direction == RestrictSell || r.Direction == RestrictBoth
}

// WashSaleReason explains why a wash-sale restriction was derived.
type WashSaleReason string

const (
	// BuySellBuy: bought, sold at a loss, then bought again within the
	// window — blocks the re-buy.
	BuySellBuy WashSaleReason = "buy-sell-buy"
	// BuyBuySell: bought, bought more, then would sell the first lot at a
	// loss while a second purchase sits inside the window — blocks the
	// sell of the lot that would realize the loss.
	BuyBuySell WashSaleReason = "buy-buy-sell"
)

// WashSaleBuyRestriction derives from a recently closed loss sale. At most
// one active row exists per identifier (the one with the furthest expiry).
type WashSaleBuyRestriction struct {
	Identifier          string         `json:"identifier"`
	Reason              WashSaleReason `json:"reason"`
	RestrictionEndsAfter time.Time     `json:"restriction_ends_after"`
}

// Active reports whether the restriction still applies as of asOf
// (inclusive: the rule protects the sale day and both 30-day windows).
func (r WashSaleBuyRestriction) Active(asOf time.Time) bool {
	return !asOf.After(r.RestrictionEndsAfter)
}

// WashSaleSellRestriction derives from the coexistence of >=2 lots of the
// same identifier within the window, restricted only when selling the lot
// would realize a loss (current adjusted value <= cost basis).
type WashSaleSellRestriction struct {
	LotID                string         `json:"tax_lot_id"`
	Identifier           string         `json:"identifier"`
	Reason               WashSaleReason `json:"reason"`
	RestrictionEndsAfter time.Time      `json:"restriction_ends_after"`
	CurrentPrice         float64        `json:"price"`
	AdjustedCurrentValue float64        `json:"adjusted_current_value"`
}

// Active reports whether the restriction still applies as of asOf.
func (r WashSaleSellRestriction) Active(asOf time.Time) bool {
	return !asOf.After(r.RestrictionEndsAfter)
}
