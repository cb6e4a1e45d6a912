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

package objective

import (
	"fmt"
	"math"

	"github.com/penny-vault/tax-oracle/internal/solver"
)

// breakpointFractions and segmentSlopes implement spec.md §4.5's piecewise
// drift/factor penalty: a convex piecewise-linear stand-in for |deviation|
// with breakpoints at {0.25, 0.5, 1, 2} * scale and increasing slopes
// beyond each one, so small drift is nearly free and large drift is
// penalized steeply.
var breakpointFractions = []float64{0.25, 0.5, 1.0, 2.0}
var segmentSlopes = []float64{1, 2, 4, 8, 16}

// addPiecewiseDeviation encodes |coeffs.x + offset| as a convex
// piecewise-linear cost and adds weight*cost to the model's objective. It
// returns the segment columns' indices, so callers (e.g. Components) can
// recover this term's contribution from a solved point as
// sum(model.Objective[c] * x[c]) over the returned columns — each segment
// column is private to this term, so no other term's coefficient is mixed
// in.
func addPiecewiseDeviation(model *solver.Model, coeffs []float64, offset, scale, weight float64, namePrefix string) []int {
	if scale <= 0 {
		scale = 1
	}
	edges := make([]float64, len(breakpointFractions))
	for i, f := range breakpointFractions {
		edges[i] = f * scale
	}

	absIdx := model.AddColumn(0, math.Inf(1), 0, namePrefix+"_abs")

	posRow := model.NewRow()
	copy(posRow, coeffs)
	posRow[absIdx] = -1
	model.AddLE(namePrefix+"_pos", posRow, -offset)

	negRow := model.NewRow()
	for i, c := range coeffs {
		negRow[i] = -c
	}
	negRow[absIdx] = -1
	model.AddLE(namePrefix+"_neg", negRow, offset)

	segIdx := make([]int, len(segmentSlopes))
	eqRow := model.NewRow()
	eqRow[absIdx] = 1
	for i := range segmentSlopes {
		lowerEdge := 0.0
		if i > 0 {
			lowerEdge = edges[i-1]
		}
		upper := math.Inf(1)
		if i < len(edges) {
			upper = edges[i] - lowerEdge
		}
		segIdx[i] = model.AddColumn(0, upper, weight*segmentSlopes[i], fmt.Sprintf("%s_seg%d", namePrefix, i))
		eqRow = append(eqRow, 0) // grow eqRow to match model's new column count
		eqRow[segIdx[i]] = -1
	}
	model.AddEQ(namePrefix+"_segments", eqRow, 0)

	return segIdx
}
