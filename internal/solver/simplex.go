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

package solver

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Status classifies how a solve attempt ended.
type Status int

const (
	StatusOptimal Status = iota
	StatusInfeasible
	StatusUnbounded
	StatusIterationLimit
)

func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusInfeasible:
		return "infeasible"
	case StatusUnbounded:
		return "unbounded"
	default:
		return "iteration-limit"
	}
}

// Solution is the result of solving the LP relaxation of a Model.
type Solution struct {
	Status    Status
	X         []float64
	Objective float64
}

const (
	bigM        = 1e7
	epsilon     = 1e-9
	maxIterations = 20000
)

// solveRelaxation solves the LP relaxation of m (ignoring the Binary flags,
// treating every column as continuous within its box bounds) by a dense
// Big-M primal simplex with Bland's anti-cycling rule. Every structural
// variable is nonnegative; a positive lower bound (as branch-and-bound sets
// when it fixes a binary column to 1) is realized as an explicit >= row,
// and finite upper bounds as explicit <= rows.
func solveRelaxation(m *Model) Solution {
	rows := make([]Constraint, 0, len(m.Constraints)+m.NumVars)
	rows = append(rows, m.Constraints...)
	for i := 0; i < m.NumVars; i++ {
		if !math.IsInf(m.Upper[i], 1) {
			row := m.NewRow()
			row[i] = 1
			rows = append(rows, Constraint{Name: "ub", Coeffs: row, Op: LE, RHS: m.Upper[i]})
		}
		if m.Lower[i] > 0 {
			row := m.NewRow()
			row[i] = 1
			rows = append(rows, Constraint{Name: "lb", Coeffs: row, Op: GE, RHS: m.Lower[i]})
		}
	}

	n := m.NumVars
	nRows := len(rows)

	// Normalize so every RHS is nonnegative, flipping the operator's sense
	// (LE<->GE) when a row's RHS must be negated.
	norm := make([]Constraint, nRows)
	for i, r := range rows {
		if r.RHS < 0 {
			coeffs := make([]float64, n)
			for j, c := range r.Coeffs {
				coeffs[j] = -c
			}
			op := r.Op
			switch op {
			case LE:
				op = GE
			case GE:
				op = LE
			}
			norm[i] = Constraint{Name: r.Name, Coeffs: coeffs, Op: op, RHS: -r.RHS}
		} else {
			norm[i] = r
		}
	}

	// Column layout: [0,n) structural, [n, n+nRows) slack/surplus (one per
	// row), [n+nRows, n+nRows+numArtificial) artificial.
	slackCol := make([]int, nRows)
	artificialRow := make([]int, nRows)
	for i := range artificialRow {
		artificialRow[i] = -1
	}
	numArtificial := 0
	for i, r := range norm {
		slackCol[i] = n + i
		if r.Op == GE || r.Op == EQ {
			artificialRow[i] = numArtificial
			numArtificial++
		}
	}
	totalCols := n + nRows + numArtificial

	tableau := mat.NewDense(nRows+1, totalCols+1, nil)
	basis := make([]int, nRows)

	for i, r := range norm {
		for j, c := range r.Coeffs {
			tableau.Set(i, j, c)
		}
		switch r.Op {
		case LE:
			tableau.Set(i, slackCol[i], 1)
			basis[i] = slackCol[i]
		case GE:
			tableau.Set(i, slackCol[i], -1)
			artCol := n + nRows + artificialRow[i]
			tableau.Set(i, artCol, 1)
			basis[i] = artCol
		case EQ:
			artCol := n + nRows + artificialRow[i]
			tableau.Set(i, artCol, 1)
			basis[i] = artCol
		}
		tableau.Set(i, totalCols, r.RHS)
	}

	// Objective row: minimize c^T x, Big-M penalty on every artificial
	// column. Stored as (z-row) = cB^T B^-1 A - c, zeroed for the basis by
	// the reduction loop below.
	for j := 0; j < n; j++ {
		tableau.Set(nRows, j, m.Objective[j])
	}
	for i := 0; i < nRows; i++ {
		if artificialRow[i] >= 0 {
			tableau.Set(nRows, n+nRows+artificialRow[i], bigM)
		}
	}

	// Reduce the objective row so its entries under basic columns are zero.
	for i := 0; i < nRows; i++ {
		coeff := tableau.At(nRows, basis[i])
		if coeff == 0 {
			continue
		}
		for j := 0; j <= totalCols; j++ {
			tableau.Set(nRows, j, tableau.At(nRows, j)-coeff*tableau.At(i, j))
		}
	}

	for iter := 0; iter < maxIterations; iter++ {
		// Bland's rule: smallest-index column with a negative objective
		// coefficient enters.
		enter := -1
		for j := 0; j < totalCols; j++ {
			if tableau.At(nRows, j) < -epsilon {
				enter = j
				break
			}
		}
		if enter == -1 {
			break // optimal
		}

		leave := -1
		best := math.Inf(1)
		for i := 0; i < nRows; i++ {
			a := tableau.At(i, enter)
			if a <= epsilon {
				continue
			}
			ratio := tableau.At(i, totalCols) / a
			if ratio < best-epsilon || (ratio < best+epsilon && (leave == -1 || basis[i] < basis[leave])) {
				best = ratio
				leave = i
			}
		}
		if leave == -1 {
			return Solution{Status: StatusUnbounded}
		}

		pivot := tableau.At(leave, enter)
		for j := 0; j <= totalCols; j++ {
			tableau.Set(leave, j, tableau.At(leave, j)/pivot)
		}
		for i := 0; i <= nRows; i++ {
			if i == leave {
				continue
			}
			factor := tableau.At(i, enter)
			if factor == 0 {
				continue
			}
			for j := 0; j <= totalCols; j++ {
				tableau.Set(i, j, tableau.At(i, j)-factor*tableau.At(leave, j))
			}
		}
		basis[leave] = enter
	}

	// Any artificial variable left in the basis at a positive level means
	// the original program has no feasible point.
	for i := 0; i < nRows; i++ {
		if basis[i] >= n+nRows && tableau.At(i, totalCols) > epsilon {
			return Solution{Status: StatusInfeasible}
		}
	}

	x := make([]float64, n)
	for i := 0; i < nRows; i++ {
		if basis[i] < n {
			x[basis[i]] = tableau.At(i, totalCols)
		}
	}

	obj := 0.0
	for j := 0; j < n; j++ {
		obj += m.Objective[j] * x[j]
	}
	return Solution{Status: StatusOptimal, X: x, Objective: obj}
}
