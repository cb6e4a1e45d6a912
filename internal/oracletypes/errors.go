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

import "errors"

// Error taxonomy from spec §7. Sentinel errors, matched with errors.Is,
// rather than an error-code enum — mirrors portfolio/fsolve.go's
// ErrDidNotConverge.
var (
	ErrInputValidation  = errors.New("input validation failed")
	ErrInfeasibleProgram = errors.New("rebalance program is infeasible")
	ErrSuboptimalProgram = errors.New("solver returned without proof of optimality")
	ErrBelowThreshold    = errors.New("improvement below configured threshold")
	ErrTaxInconsistency  = errors.New("tax artifact inconsistent with allocation")
	ErrCheckpointCorruption = errors.New("tax artifact failed checksum verification")
)

// WashSaleBlocked is informational, not a failure: it records that a trade
// combination was filtered out pre-solve by the wash-sale engine. Callers
// that want to surface this to a human read it off the explanation context
// rather than treating it as an error.
type WashSaleBlocked struct {
	Identifier string
	LotID      string
	Reason     string
}

func (w *WashSaleBlocked) Error() string {
	if w.LotID != "" {
		return "wash sale restriction on lot " + w.LotID + " of " + w.Identifier + ": " + w.Reason
	}
	return "wash sale restriction on " + w.Identifier + ": " + w.Reason
}

// OracleError wraps one of the sentinel errors above with the field or
// component that triggered it, so validation failures can name the bad
// input instead of forcing the caller to re-derive it from a bare message.
type OracleError struct {
	Op   string // component/operation, e.g. "wash-sale", "constraints"
	Err  error
	Info string
}

func (e *OracleError) Error() string {
	if e.Info == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error() + ": " + e.Info
}

func (e *OracleError) Unwrap() error { return e.Err }

// Wrap builds an OracleError naming the component and offending detail.
func Wrap(op string, err error, info string) *OracleError {
	return &OracleError{Op: op, Err: err, Info: info}
}
