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

// Package account is the façade spec.md §6 describes as the engine's single
// synchronous entry point: it gathers every strategy's lots into one
// wash-sale view, solves each strategy in strategy_id order, nets the
// resulting trades across strategies, and reconciles the tax impact. It
// owns none of the math — drift, variables, constraints, objective, solver
// and tradesynth each do — it only wires them together in the order
// spec.md §5 mandates.
package account

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"

	"github.com/penny-vault/tax-oracle/internal/constraints"
	"github.com/penny-vault/tax-oracle/internal/drift"
	"github.com/penny-vault/tax-oracle/internal/netting"
	"github.com/penny-vault/tax-oracle/internal/objective"
	"github.com/penny-vault/tax-oracle/internal/oracletypes"
	"github.com/penny-vault/tax-oracle/internal/solver"
	"github.com/penny-vault/tax-oracle/internal/taxledger"
	"github.com/penny-vault/tax-oracle/internal/tradesynth"
	"github.com/penny-vault/tax-oracle/internal/variables"
	"github.com/penny-vault/tax-oracle/internal/washsale"
)

// StrategyInput bundles one strategy with the settings and market data its
// solve reads; the wire format nests prices/spreads under each strategy
// object, so the façade carries them the same way rather than forcing a
// single account-wide PriceBook on every strategy.
type StrategyInput struct {
	Strategy oracletypes.Strategy
	Settings oracletypes.StrategySettings
	Prices   oracletypes.PriceBook
	Spreads  oracletypes.SpreadBook
}

// Request is one call to ComputeOptimalTrades: spec.md §6's request object,
// flattened into Go values.
type Request struct {
	Version            string
	CurrentDate        time.Time
	Rates              oracletypes.TaxRateTable
	StockRestrictions  []oracletypes.StockRestriction
	RecentlyClosedLots []oracletypes.ClosedLot
	WashSaleProtection float64 // percentage_protection_from_inadvertent_wash_sales; 0 -> washsale.DefaultProtection
	WashSaleWindowDays int     // 0 -> washsale.DefaultWindowDays
	Strategies         []StrategyInput

	// AllocationID and TaxYear key the tax reconciliation artifact this run
	// produces. STBrackets/LTBrackets/NIITRate are the marginal bracket
	// schedule spec.md §4.9 step 5 reads tax_liability from — distinct from
	// Rates, which is the flat combined rate the solver's objective uses to
	// estimate tax cost per trade (spec.md §4.5's tax term).
	AllocationID string
	TaxYear      int
	STBrackets   taxledger.Brackets
	LTBrackets   taxledger.Brackets
	NIITRate     float64

	// Store persists the reconciliation artifact when non-nil; a nil Store
	// means the caller only wants the computed artifact, not its persistence
	// (e.g. a dry-run or ComputeMaxWithdrawal's repeated probing).
	Store *taxledger.Store
}

// Response is spec.md §6's response object.
type Response struct {
	Version          string
	Results          map[string]StrategyResult
	NettedTrades     []oracletypes.Trade
	TaxArtifact      *oracletypes.TaxArtifact
	TaxArtifactError string
}

// StrategyResult is one entry of Response.Results.
type StrategyResult struct {
	Label        string
	Status       *string // nil when no solve was attempted (per-strategy error)
	ShouldTrade  bool
	Trades       []oracletypes.Trade
	TradeSummary TradeSummary
}

// TradeSummary is spec.md §6's trade_summary object.
type TradeSummary struct {
	Execution           ExecutionSummary
	GainLoss             float64
	Drift                oracletypes.DriftReport
	FactorModel          map[string]float64
	OptimizationInfo     OptimizationInfo
	Explanation          string
	ExplanationContext   ExplanationContext
}

// ExecutionSummary reports the cash effect and trade counts of one
// strategy's synthesized trades.
type ExecutionSummary struct {
	CashBefore float64
	CashAfter  float64
	NumBuys    int
	NumSells   int
}

// OptimizationInfo carries the solver's own account of how it reached its
// answer: which case fired, whether the buy-only fallback was used, and
// the objective's per-term breakdown (Supplemented Feature 3).
type OptimizationInfo struct {
	Case        solver.CaseType
	UsedBuyOnly bool
	Components  map[string]float64
}

// ExplanationContext is the structured record behind Explanation, spec.md
// §7's "every no-trade outcome carries a structured explanation_context".
type ExplanationContext struct {
	CaseType             solver.CaseType
	BaselineValue        float64
	RebalanceImprovement float64
	BuyOnlyImprovement   float64
}

// ComputeOptimalTrades is spec.md §6 entry point (i): solve every strategy,
// net the results, and reconcile tax impact.
func ComputeOptimalTrades(req Request) (Response, error) {
	strategies := make([]oracletypes.Strategy, 0, len(req.Strategies))
	combinedPrices := make(oracletypes.PriceBook)
	combinedSpreads := make(oracletypes.SpreadBook)
	for _, in := range req.Strategies {
		strategies = append(strategies, withGlobalRestrictions(in.Strategy, req.StockRestrictions))
		for id, p := range in.Prices {
			combinedPrices[id] = p
		}
		for id, sp := range in.Spreads {
			combinedSpreads[id] = sp
		}
	}

	if err := oracletypes.ValidateRequest(strategies, combinedPrices, combinedSpreads, req.Rates); err != nil {
		return Response{}, err
	}

	allLots := make([]oracletypes.TaxLot, 0)
	for _, s := range strategies {
		for _, lot := range s.Lots {
			lot.StrategyID = s.StrategyID
			allLots = append(allLots, lot)
		}
	}

	washEngine := washsale.New(washsale.Config{
		AsOf:           req.CurrentDate,
		Protection:     req.WashSaleProtection,
		WindowDays:     req.WashSaleWindowDays,
		AllLots:        allLots,
		RecentlyClosed: req.RecentlyClosedLots,
		Prices:         combinedPrices,
	})

	ordered := make([]StrategyInput, len(req.Strategies))
	copy(ordered, req.Strategies)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Strategy.StrategyID < ordered[j].Strategy.StrategyID
	})

	results := make(map[string]StrategyResult, len(ordered))
	rounding := make(netting.Rounding, len(ordered))
	preNetted := make([]oracletypes.Trade, 0)
	postLots := make([]oracletypes.TaxLot, 0)

	for _, in := range ordered {
		strat := withGlobalRestrictions(in.Strategy, req.StockRestrictions)
		rounding[strat.StrategyID] = strat.TradeRounding

		result, trades, postStrategy, err := runStrategy(strategyRun{
			Strategy:    strat,
			Settings:    in.Settings,
			Prices:      in.Prices,
			Spreads:     in.Spreads,
			WashSale:    washEngine,
			Rates:       req.Rates,
			CurrentDate: req.CurrentDate,
		})
		if err != nil {
			log.Error().Err(err).Str("strategy_id", strat.StrategyID).Msg("strategy solve failed; recording null result")
			results[strat.StrategyID] = nullResult(strat.StrategyID)
			postLots = append(postLots, strat.Lots...)
			continue
		}

		results[strat.StrategyID] = result
		if result.ShouldTrade {
			preNetted = append(preNetted, trades...)
		}
		postLots = append(postLots, postStrategy.Lots...)
	}

	netted := netting.Net(preNetted, rounding)

	resp := Response{
		Version:      req.Version,
		Results:      results,
		NettedTrades: netted,
	}

	artifact, err := taxledger.Build(taxledger.Inputs{
		ArtifactID:   artifactID(req.AllocationID, req.CurrentDate),
		AllocationID: req.AllocationID,
		TaxYear:      req.TaxYear,
		GeneratedAt:  req.CurrentDate,
		Trades:       netted,
		Lots:         postLots,
		Prices:       combinedPrices,
		LotLevel:     true,
		STBrackets:   req.STBrackets,
		LTBrackets:   req.LTBrackets,
		NIITRate:     req.NIITRate,
	})
	if err != nil {
		resp.TaxArtifactError = err.Error()
		return resp, nil
	}
	resp.TaxArtifact = &artifact

	if req.Store != nil {
		if err := req.Store.Save(artifact); err != nil {
			resp.TaxArtifactError = err.Error()
		}
	}

	return resp, nil
}

// withGlobalRestrictions returns a copy of s with the request's
// account-wide stock_restrictions appended to its own restriction list.
func withGlobalRestrictions(s oracletypes.Strategy, global []oracletypes.StockRestriction) oracletypes.Strategy {
	out := s
	out.Restrictions = append(append([]oracletypes.StockRestriction(nil), s.Restrictions...), global...)
	return out
}

// nullResult is the recorded outcome for a strategy whose solve could not
// be attempted at all (spec.md §7 propagation policy).
func nullResult(strategyID string) StrategyResult {
	return StrategyResult{
		Label:       strategyID,
		Status:      nil,
		ShouldTrade: false,
		Trades:      []oracletypes.Trade{},
	}
}

// holdResult is the recorded outcome for a strategy short-circuited before
// any solve is attempted: HOLD kind (spec.md §4.6 hold_strategy) or a
// strategy carrying neither lots nor a target allocation (empty_portfolio).
// Running these through drift/constraints/objective/solver would either
// waste a solve whose objective is all-zero weights (HOLD) or operate on an
// asset-class-free model (empty target), so both short-circuit directly to
// their no-trade case.
func holdResult(strat oracletypes.Strategy, caseType solver.CaseType) StrategyResult {
	ctx := ExplanationContext{CaseType: caseType}
	return StrategyResult{
		Label:       strat.StrategyID,
		Status:      nil,
		ShouldTrade: false,
		Trades:      []oracletypes.Trade{},
		TradeSummary: TradeSummary{
			OptimizationInfo:   OptimizationInfo{Case: caseType},
			Explanation:        explain(ctx),
			ExplanationContext: ctx,
		},
	}
}

// artifactID derives a deterministic identifier for one reconciliation run,
// content-addressed on the allocation it belongs to and the date it was
// computed (spec.md Testable Property 8, determinism).
func artifactID(allocationID string, asOf time.Time) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s|%s", allocationID, asOf.Format("2006-01-02"))
	return strings.ToLower(fmt.Sprintf("%x", h.Sum(nil))[:32])
}

// strategyRun bundles the context one call to runStrategy needs.
type strategyRun struct {
	Strategy    oracletypes.Strategy
	Settings    oracletypes.StrategySettings
	Prices      oracletypes.PriceBook
	Spreads     oracletypes.SpreadBook
	WashSale    *washsale.Engine
	Rates       oracletypes.TaxRateTable
	CurrentDate time.Time
}

// runStrategy carries one strategy through drift -> variables -> pre/post
// trade constraints -> objective -> two-pass solve -> synthesis, in the
// fixed order spec.md §5 mandates. It returns the strategy's result entry,
// its synthesized trades (pre-netting), and the post-trade strategy
// snapshot for the tax ledger's positions/unrealized-gain inputs.
func runStrategy(run strategyRun) (StrategyResult, []oracletypes.Trade, *oracletypes.Strategy, error) {
	strat := run.Strategy

	if strat.Kind == oracletypes.Hold {
		return holdResult(strat, solver.CaseHoldStrategy), nil, &strat, nil
	}
	if len(strat.Lots) == 0 && len(strat.Target) == 0 {
		return holdResult(strat, solver.CaseEmptyPortfolio), nil, &strat, nil
	}

	settings := run.Settings.Defaulted()

	report, err := drift.Report(&strat, run.Prices)
	if err != nil {
		return StrategyResult{}, nil, nil, fmt.Errorf("drift: %w", err)
	}
	totalValue, err := drift.TotalValue(&strat, run.Prices)
	if err != nil {
		return StrategyResult{}, nil, nil, fmt.Errorf("total value: %w", err)
	}

	vars := variables.Build(&strat)

	built, err := constraints.Build(constraints.Inputs{
		Strategy:    &strat,
		Settings:    settings,
		Vars:        vars,
		Prices:      run.Prices,
		Spreads:     run.Spreads,
		WashSale:    run.WashSale,
		Drift:       report,
		TotalValue:  totalValue,
		CurrentDate: run.CurrentDate,
	})
	if err != nil {
		return StrategyResult{}, nil, nil, fmt.Errorf("constraints: %w", err)
	}

	builder := objective.Attach(built.Model, objective.Inputs{
		Strategy:    &strat,
		Settings:    settings,
		Vars:        vars,
		Prices:      run.Prices,
		Spreads:     run.Spreads,
		Rates:       run.Rates,
		Drift:       report,
		TotalValue:  totalValue,
		CurrentDate: run.CurrentDate,
	})

	thresholds := solver.Thresholds{
		RebalanceThreshold: settings.RebalanceThreshold,
		BuyThreshold:       settings.BuyThreshold,
		MinCash:            strat.MinCash,
		MinNotional:        settings.MinNotional,
	}
	tracer := &solver.Tracer{Log: &log.Logger, Trace: false}
	outcome := solver.RunTwoPass(built.Model, built.SellColumnStart, strat.Cash, thresholds, tracer)

	explanationCtx := ExplanationContext{
		CaseType:             outcome.Case,
		BaselineValue:        outcome.BaselineValue,
		RebalanceImprovement: outcome.RebalanceImprovement,
		BuyOnlyImprovement:   outcome.BuyOnlyImprovement,
	}

	shouldTrade := outcome.Case == solver.CaseRebalanced || outcome.Case == solver.CaseBuyOnly
	if !shouldTrade {
		summary := TradeSummary{
			Drift:              report,
			OptimizationInfo:   OptimizationInfo{Case: outcome.Case, UsedBuyOnly: outcome.UsedBuyOnly},
			Explanation:        explain(explanationCtx),
			ExplanationContext: explanationCtx,
		}
		return StrategyResult{
			Label:        strat.StrategyID,
			Status:       nil,
			ShouldTrade:  false,
			Trades:       []oracletypes.Trade{},
			TradeSummary: summary,
		}, nil, &strat, nil
	}

	result := tradesynth.Synthesize(outcome.Solution.X, tradesynth.Inputs{
		Strategy:    &strat,
		Vars:        vars,
		Prices:      run.Prices,
		Spreads:     run.Spreads,
		Settings:    settings,
		CurrentDate: run.CurrentDate,
	})

	status := statusLabel(outcome.Solution.Status)
	summary := buildTradeSummary(strat, report, result.Trades, builder.Components(outcome.Solution.X), outcome, explanationCtx)
	summary.FactorModel = builder.FactorExposures(outcome.Solution.X)

	return StrategyResult{
		Label:        strat.StrategyID,
		Status:       &status,
		ShouldTrade:  true,
		Trades:       result.Trades,
		TradeSummary: summary,
	}, result.Trades, result.PostStrategy, nil
}

// buildTradeSummary assembles the trade_summary object for a strategy that
// did trade.
func buildTradeSummary(strat oracletypes.Strategy, report oracletypes.DriftReport, trades []oracletypes.Trade, components map[string]float64, outcome solver.Outcome, ctx ExplanationContext) TradeSummary {
	cashAfter := strat.Cash - strat.WithdrawalAmount
	numBuys, numSells := 0, 0
	var gainLoss float64
	for _, t := range trades {
		cost := t.Notional() + t.TransactionCost
		switch t.Side {
		case oracletypes.Buy:
			numBuys++
			cashAfter -= cost
		case oracletypes.Sell:
			numSells++
			cashAfter += t.Notional() - t.TransactionCost
			if t.RealizedGain != nil {
				gainLoss += *t.RealizedGain
			}
		}
	}

	return TradeSummary{
		Execution: ExecutionSummary{
			CashBefore: strat.Cash,
			CashAfter:  cashAfter,
			NumBuys:    numBuys,
			NumSells:   numSells,
		},
		GainLoss: gainLoss,
		Drift:    report,
		OptimizationInfo: OptimizationInfo{
			Case:        outcome.Case,
			UsedBuyOnly: outcome.UsedBuyOnly,
			Components:  components,
		},
		Explanation:        explain(ctx),
		ExplanationContext: ctx,
	}
}

// statusLabel maps a solver.Status to the wire vocabulary spec.md §6 uses.
func statusLabel(s solver.Status) string {
	switch strings.ToLower(s.String()) {
	case "optimal":
		return "OPTIMAL"
	case "infeasible":
		return "INFEASIBLE"
	case "unbounded":
		return "UNBOUNDED"
	default:
		return "NO_SOLUTION"
	}
}

// explain generates the deterministic human-readable string spec.md §7
// requires alongside every no-trade explanation_context.
func explain(ctx ExplanationContext) string {
	switch ctx.CaseType {
	case solver.CaseRebalanced:
		return fmt.Sprintf("rebalanced: improvement %.4f cleared the rebalance threshold", ctx.RebalanceImprovement)
	case solver.CaseBuyOnly:
		return fmt.Sprintf("buy-only: rebalance improvement %.4f missed threshold, buy-only improvement %.4f cleared it", ctx.RebalanceImprovement, ctx.BuyOnlyImprovement)
	case solver.CaseBuyOnlyBelowThreshold:
		return fmt.Sprintf("no trade: rebalance improvement %.4f and buy-only improvement %.4f both missed their thresholds", ctx.RebalanceImprovement, ctx.BuyOnlyImprovement)
	case solver.CaseBuyOnlyFailed:
		return "no trade: rebalance missed threshold and the buy-only fallback had no feasible solution"
	case solver.CaseNotEnoughCashToBuyOnly:
		return fmt.Sprintf("no trade: rebalance improvement %.4f missed threshold and available cash cannot fund a buy-only fallback", ctx.RebalanceImprovement)
	case solver.CaseOptimizationFailed:
		return "no trade: rebalance program is infeasible and the buy-only fallback had no feasible solution"
	case solver.CaseHoldStrategy:
		return "no trade: strategy is held, no solve attempted"
	case solver.CaseEmptyPortfolio:
		return "no trade: strategy has no positions or target allocation"
	case solver.CaseNoTradeFailed:
		return "no trade: solve failed"
	default:
		return "no trade"
	}
}
