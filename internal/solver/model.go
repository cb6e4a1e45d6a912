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

// Package solver implements the mixed-integer program the rest of the
// engine builds: continuous buy/sell variables, a handful of binary
// indicators for the min-notional and no-simultaneous-buy-sell
// constraints, and a linear objective assembled from piecewise-linear
// penalty terms. No off-the-shelf Go LP/MILP library exists in the
// reference stack, so this is a from-scratch bounded-variable primal
// simplex (Big-M method, Bland's rule for cycling) wrapped in a
// branch-and-bound driver that only ever branches on the binary columns —
// gonum's mat.Dense holds the simplex tableau underneath; no other package
// in this module imports gonum.
package solver

import "math"

// Op is a constraint's relational operator.
type Op int

const (
	LE Op = iota
	GE
	EQ
)

// Constraint is one row of the program: coeffs . x <op> rhs.
type Constraint struct {
	Name   string
	Coeffs []float64
	Op     Op
	RHS    float64
}

// Model is the full MILP: bounded continuous/binary columns, a linear
// minimization objective and a set of linear constraints.
type Model struct {
	NumVars   int
	Lower     []float64
	Upper     []float64
	Binary    []bool
	Objective []float64
	Constraints []Constraint
	VarNames  []string
}

// NewModel allocates a model with n columns, all defaulting to continuous,
// lower-bounded at 0 and unbounded above.
func NewModel(n int) *Model {
	m := &Model{
		NumVars:   n,
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
		Binary:    make([]bool, n),
		Objective: make([]float64, n),
		VarNames:  make([]string, n),
	}
	for i := range m.Upper {
		m.Upper[i] = math.Inf(1)
	}
	return m
}

// SetBounds fixes column i's [lower, upper] box bounds.
func (m *Model) SetBounds(i int, lower, upper float64) {
	m.Lower[i] = lower
	m.Upper[i] = upper
}

// MakeBinary marks column i as a 0/1 integer column; branch-and-bound will
// only ever branch on columns marked this way.
func (m *Model) MakeBinary(i int) {
	m.Binary[i] = true
	m.Lower[i] = 0
	m.Upper[i] = 1
}

// AddConstraint appends a row. coeffs must have length NumVars.
func (m *Model) AddConstraint(name string, coeffs []float64, op Op, rhs float64) {
	m.Constraints = append(m.Constraints, Constraint{Name: name, Coeffs: coeffs, Op: op, RHS: rhs})
}

// AddLE is shorthand for AddConstraint(name, coeffs, LE, rhs).
func (m *Model) AddLE(name string, coeffs []float64, rhs float64) {
	m.AddConstraint(name, coeffs, LE, rhs)
}

// AddGE is shorthand for AddConstraint(name, coeffs, GE, rhs).
func (m *Model) AddGE(name string, coeffs []float64, rhs float64) {
	m.AddConstraint(name, coeffs, GE, rhs)
}

// AddEQ is shorthand for AddConstraint(name, coeffs, EQ, rhs).
func (m *Model) AddEQ(name string, coeffs []float64, rhs float64) {
	m.AddConstraint(name, coeffs, EQ, rhs)
}

// NewRow returns a zeroed coefficient row sized for this model, a
// convenience for callers assembling sparse-in-spirit constraints.
func (m *Model) NewRow() []float64 { return make([]float64, m.NumVars) }

// AddColumn appends a new column (for an auxiliary variable introduced
// after the base decision variables are laid out, e.g. a piecewise-linear
// segment) and returns its index. Every existing constraint row is
// extended with a zero coefficient in the new column.
func (m *Model) AddColumn(lower, upper, objCoeff float64, name string) int {
	idx := m.NumVars
	m.NumVars++
	m.Lower = append(m.Lower, lower)
	m.Upper = append(m.Upper, upper)
	m.Binary = append(m.Binary, false)
	m.Objective = append(m.Objective, objCoeff)
	m.VarNames = append(m.VarNames, name)
	for i := range m.Constraints {
		m.Constraints[i].Coeffs = append(m.Constraints[i].Coeffs, 0)
	}
	return idx
}

// clone copies the model's bounds, binary flags, objective and constraint
// list so branch-and-bound can tighten bounds on a child node without
// disturbing its siblings. Each constraint's Coeffs slice and VarNames are
// shared with the original, not copied.
func (m *Model) clone() *Model {
	c := &Model{
		NumVars:   m.NumVars,
		Lower:     append([]float64(nil), m.Lower...),
		Upper:     append([]float64(nil), m.Upper...),
		Binary:    append([]bool(nil), m.Binary...),
		Objective: append([]float64(nil), m.Objective...),
		VarNames:  m.VarNames,
	}
	c.Constraints = make([]Constraint, len(m.Constraints))
	copy(c.Constraints, m.Constraints)
	return c
}
