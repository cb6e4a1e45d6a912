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

// Package oracletypes holds the domain model shared by every stage of the
// rebalancing engine: lots, prices, restrictions, strategies, trades and the
// tax artifact. Nothing in this package depends on the solver, the
// constraint system or the objective — they all depend on it.
package oracletypes

import (
	"fmt"

	"github.com/zeebo/blake3"
)

// CashIdentifier is the pseudo-identifier for the cash position: unit price
// 1, zero spread, its own asset class.
const CashIdentifier = "$CASH"

// CashAssetClass is the asset-class name the cash pseudo-identifier belongs to.
const CashAssetClass = "$CASH_CLASS"

// StrategyKind tags the behavior of a Strategy. Kept as a string enum (not a
// subclass hierarchy) so weight adjustment and validator activation can
// switch on it directly instead of dispatching through an interface.
type StrategyKind string

const (
	TaxAware     StrategyKind = "TAX_AWARE"
	PairsTLH     StrategyKind = "PAIRS_TLH"
	DirectIndex  StrategyKind = "DIRECT_INDEX"
	Hold         StrategyKind = "HOLD"
	Liquidate    StrategyKind = "LIQUIDATE"
)

// UsesDriftBand reports whether the drift-band post-trade constraint (spec
// §4.4 item 7) applies to this strategy kind.
func (k StrategyKind) UsesDriftBand() bool {
	return k == PairsTLH || k == DirectIndex
}

// ForcesNoBuy reports whether the strategy kind pins every buy variable to
// zero regardless of settings (LIQUIDATE; the buy-only fallback's sell-side
// sibling is handled separately by the solver driver, not here).
func (k StrategyKind) ForcesNoBuy() bool {
	return k == Liquidate
}

// Valid reports whether k is one of the five known strategy kinds.
func (k StrategyKind) Valid() bool {
	switch k {
	case TaxAware, PairsTLH, DirectIndex, Hold, Liquidate:
		return true
	default:
		return false
	}
}

// TradeSide is buy or sell.
type TradeSide string

const (
	Buy  TradeSide = "buy"
	Sell TradeSide = "sell"
)

// RestrictionDirection is the direction a StockRestriction forbids.
type RestrictionDirection string

const (
	RestrictBuy  RestrictionDirection = "buy"
	RestrictSell RestrictionDirection = "sell"
	RestrictBoth RestrictionDirection = "both"
)

// GainType classifies a realized gain/loss by holding period.
type GainType string

const (
	LongTerm  GainType = "long"
	ShortTerm GainType = "short"
)

// LongTermHoldingDays is the holding period, in days, at or above which a
// disposition is long-term (spec GLOSSARY: STCG/LTCG).
const LongTermHoldingDays = 365

// SourceID returns a deterministic content-addressed identifier for a trade,
// the same way the teacher computes a transaction SourceID: a hash of the
// fields that define the trade's identity, so re-synthesizing the same trade
// from the same inputs always yields the same ID (idempotent re-application).
func SourceID(strategyID string, side TradeSide, identifier string, lotID string, quantity, price float64) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%.8f|%.8f", strategyID, side, identifier, lotID, quantity, price)
	return fmt.Sprintf("%x", h.Sum(nil))[:32]
}
