// Package finance computes plot balances. A plot's balance is its net
// financial movements (income minus expenses) minus its recorded
// treatment costs. Sums are exact decimals end to end.
package finance

import (
	"context"

	"github.com/shopspring/decimal"

	"agroledger.io/agroledger/internal/access"
	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// ScopeResolver yields the caller's plot scope.
type ScopeResolver interface {
	Resolve(ctx context.Context, caller access.Caller) (access.Scope, error)
}

// PlotLister enumerates every plot, used to expand an unrestricted scope.
type PlotLister interface {
	List(ctx context.Context) ([]domain.Plot, error)
}

// MovementSummer nets income against expenses per plot.
type MovementSummer interface {
	SumByPlots(ctx context.Context, plotIDs []int64) (map[int64]decimal.Decimal, error)
}

// TreatmentCoster totals recorded treatment costs per plot.
type TreatmentCoster interface {
	TotalCostByPlot(ctx context.Context, plotID int64) (decimal.Decimal, error)
	TotalCostByPlots(ctx context.Context, plotIDs []int64) (map[int64]decimal.Decimal, error)
}

// Aggregator composes repository sums into caller-scoped balances.
type Aggregator struct {
	scopes     ScopeResolver
	plots      PlotLister
	movements  MovementSummer
	treatments TreatmentCoster
}

func NewAggregator(scopes ScopeResolver, plots PlotLister, movements MovementSummer, treatments TreatmentCoster) *Aggregator {
	return &Aggregator{
		scopes:     scopes,
		plots:      plots,
		movements:  movements,
		treatments: treatments,
	}
}

// PlotBalance returns one plot's balance. Callers outside the plot's
// scope are refused; a plot with no records balances to zero.
func (a *Aggregator) PlotBalance(ctx context.Context, caller access.Caller, plotID int64) (decimal.Decimal, error) {
	scope, err := a.scopes.Resolve(ctx, caller)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if !scope.Allows(plotID) {
		return decimal.Decimal{}, apperrors.Forbidden(apperrors.CodePlotDenied, "plot is outside the caller's scope")
	}

	sums, err := a.movements.SumByPlots(ctx, []int64{plotID})
	if err != nil {
		return decimal.Decimal{}, err
	}
	cost, err := a.treatments.TotalCostByPlot(ctx, plotID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return sums[plotID].Sub(cost), nil
}

// Balances returns the balance of every plot the caller may see, keyed
// by plot id. Plots without records appear with a zero balance.
func (a *Aggregator) Balances(ctx context.Context, caller access.Caller) (map[int64]decimal.Decimal, error) {
	plotIDs, err := a.visiblePlotIDs(ctx, caller)
	if err != nil {
		return nil, err
	}
	return a.balances(ctx, plotIDs)
}

// BalancesFor returns balances for the requested plots, restricted to
// the caller's scope. Plots outside the scope are silently absent from
// the result.
func (a *Aggregator) BalancesFor(ctx context.Context, caller access.Caller, plotIDs []int64) (map[int64]decimal.Decimal, error) {
	scope, err := a.scopes.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	return a.balances(ctx, scope.Filter(plotIDs))
}

// VisibleBalance totals the balances of every plot in the caller's
// scope. An owner with no plots totals zero.
func (a *Aggregator) VisibleBalance(ctx context.Context, caller access.Caller) (decimal.Decimal, error) {
	balances, err := a.Balances(ctx, caller)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var total decimal.Decimal
	for _, b := range balances {
		total = total.Add(b)
	}
	return total, nil
}

func (a *Aggregator) visiblePlotIDs(ctx context.Context, caller access.Caller) ([]int64, error) {
	scope, err := a.scopes.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !scope.Unrestricted {
		return scope.PlotIDs, nil
	}

	plots, err := a.plots.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(plots))
	for _, p := range plots {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (a *Aggregator) balances(ctx context.Context, plotIDs []int64) (map[int64]decimal.Decimal, error) {
	out := make(map[int64]decimal.Decimal, len(plotIDs))
	if len(plotIDs) == 0 {
		return out, nil
	}

	sums, err := a.movements.SumByPlots(ctx, plotIDs)
	if err != nil {
		return nil, err
	}
	costs, err := a.treatments.TotalCostByPlots(ctx, plotIDs)
	if err != nil {
		return nil, err
	}

	for _, id := range plotIDs {
		out[id] = sums[id].Sub(costs[id])
	}
	return out, nil
}
