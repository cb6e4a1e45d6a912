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
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/penny-vault/tax-oracle/internal/oracletypes"
)

// Inputs bundles everything Build needs to produce one reconciliation pass's
// artifact for a single account.
type Inputs struct {
	ArtifactID   string
	AllocationID string
	TaxYear      int
	GeneratedAt  time.Time

	Trades  []oracletypes.Trade
	Lots    []oracletypes.TaxLot // the post-trade lot book, for positions and unrealized gain
	Prices  oracletypes.PriceBook
	History []BuyEvent // sale_history input for the wash-sale scan

	// LotLevel selects which path produces the sold-lot slices consumed by
	// Realized. When true, Trades already name the lot each sell drew from
	// (the solver's own decision) and SlicesFromTrades is used directly.
	// When false, Trades are symbol-level revisions and FIFO consumption
	// against Lots derives the slices instead (spec.md §9 "Lot identity and
	// FIFO consumption" — the two paths must never both run).
	LotLevel bool

	STBrackets Brackets
	LTBrackets Brackets
	NIITRate   float64
}

// Build runs the full reconciliation algorithm (spec.md §4.9 steps 1-7) over
// Inputs and returns the checksummed, immutable TaxArtifact.
func Build(in Inputs) (oracletypes.TaxArtifact, error) {
	lots := append([]oracletypes.TaxLot(nil), in.Lots...)
	var allSlices []LotSlice

	if in.LotLevel {
		allSlices = SlicesFromTrades(in.Trades)
	} else {
		allSlices = make([]LotSlice, 0)
		for _, t := range in.Trades {
			if t.Side != oracletypes.Sell {
				continue
			}
			slices, remaining, err := ConsumeFIFO(lots, t.Identifier, t.Quantity, t.Price, in.GeneratedAt)
			if err != nil {
				return oracletypes.TaxArtifact{}, fmt.Errorf("taxledger: reconciling %s: %w", t.Identifier, err)
			}
			allSlices = append(allSlices, slices...)
			lots = remaining
		}
	}

	gains, adjustments := Realized(allSlices, in.GeneratedAt, in.History)
	liability := TaxLiability(gains.ShortTerm, gains.LongTerm, in.STBrackets, in.LTBrackets, in.NIITRate)
	unrealized := UnrealizedGain(lots, in.Prices)
	positions := Positions(lots, in.Prices)

	artifact := oracletypes.TaxArtifact{
		ArtifactID:      in.ArtifactID,
		GeneratedAt:     in.GeneratedAt,
		AllocationID:    in.AllocationID,
		TaxYear:         in.TaxYear,
		Positions:       positions,
		Trades:          in.Trades,
		RealizedGains:   gains,
		UnrealizedGains: unrealized,
		TaxLiability:    liability,
		WashSales:       adjustments,
	}

	checksum, err := Checksum(artifact)
	if err != nil {
		return oracletypes.TaxArtifact{}, err
	}
	return artifact.WithChecksum(checksum), nil
}

// Checksum computes the SHA-256 over the canonical JSON encoding of a's
// fields (Checksum itself excluded), truncated to 16 hex characters
// (spec.md §4.9 step 7).
//
// Canonical form is obtained by round-tripping through a generic
// map[string]interface{}: encoding/json sorts map keys alphabetically when
// marshaling, so re-marshaling the decoded artifact yields object keys in
// sorted order at every nesting level, deterministically, without a
// hand-written key walk. Array order (trades, positions) is preserved as
// given, since spec.md only requires field (object key) ordering to be
// canonical.
func Checksum(a oracletypes.TaxArtifact) (string, error) {
	raw, err := json.Marshal(a.Unchecksummed())
	if err != nil {
		return "", err
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", err
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:16], nil
}

// VerifyConsistency checks that artifact's recorded positions carry the
// same identifier set and per-identifier weights (within 1e-3) as
// allocation, then recomputes and compares the checksum. Returns (true, "")
// when everything reconciles, or (false, reason) on the first mismatch
// found (spec.md §4.9 "Consistency verification").
func VerifyConsistency(artifact oracletypes.TaxArtifact, allocation []oracletypes.Position) (bool, string) {
	byID := make(map[string]float64, len(artifact.Positions))
	for _, p := range artifact.Positions {
		byID[p.Identifier] = p.Weight
	}
	seen := make(map[string]bool, len(allocation))

	for _, p := range allocation {
		seen[p.Identifier] = true
		w, ok := byID[p.Identifier]
		if !ok {
			return false, fmt.Sprintf("allocation identifier %q absent from artifact positions", p.Identifier)
		}
		if math.Abs(w-p.Weight) > 1e-3 {
			return false, fmt.Sprintf("weight mismatch for %q: allocation %.6f vs artifact %.6f", p.Identifier, p.Weight, w)
		}
	}
	for id := range byID {
		if !seen[id] {
			return false, fmt.Sprintf("artifact position %q absent from allocation", id)
		}
	}

	recomputed, err := Checksum(artifact)
	if err != nil {
		return false, err.Error()
	}
	if recomputed != artifact.Checksum {
		return false, "checksum mismatch"
	}
	return true, ""
}
