package finance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agroledger.io/agroledger/internal/access"
	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

type fakeScopes struct {
	scopes map[int64]access.Scope
}

func (f *fakeScopes) Resolve(_ context.Context, caller access.Caller) (access.Scope, error) {
	if !caller.Authenticated {
		return access.Scope{}, apperrors.Unauthorized(apperrors.CodeTokenInvalid, "caller is not authenticated")
	}
	return f.scopes[caller.AccountID], nil
}

type fakePlots struct {
	plots []domain.Plot
}

func (f *fakePlots) List(context.Context) ([]domain.Plot, error) {
	return f.plots, nil
}

type fakeSums struct {
	sums map[int64]decimal.Decimal
}

func (f *fakeSums) SumByPlots(_ context.Context, plotIDs []int64) (map[int64]decimal.Decimal, error) {
	out := map[int64]decimal.Decimal{}
	for _, id := range plotIDs {
		if v, ok := f.sums[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

type fakeCosts struct {
	costs map[int64]decimal.Decimal
}

func (f *fakeCosts) TotalCostByPlot(_ context.Context, plotID int64) (decimal.Decimal, error) {
	return f.costs[plotID], nil
}

func (f *fakeCosts) TotalCostByPlots(_ context.Context, plotIDs []int64) (map[int64]decimal.Decimal, error) {
	out := map[int64]decimal.Decimal{}
	for _, id := range plotIDs {
		if v, ok := f.costs[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestAggregator() *Aggregator {
	// Account 7 owns plots 3 and 5; account 1 is an admin; account 9 owns
	// nothing. Plot 8 belongs to someone else.
	scopes := &fakeScopes{scopes: map[int64]access.Scope{
		1: {Unrestricted: true},
		7: {PlotIDs: []int64{3, 5}},
		9: {},
	}}
	plots := &fakePlots{plots: []domain.Plot{{ID: 3}, {ID: 5}, {ID: 8}}}
	sums := &fakeSums{sums: map[int64]decimal.Decimal{
		3: dec("380.00"), // 500 income - 120 expense
		8: dec("-40.00"),
	}}
	costs := &fakeCosts{costs: map[int64]decimal.Decimal{
		3: dec("80.00"),
	}}
	return NewAggregator(scopes, plots, sums, costs)
}

func owner(id int64) access.Caller {
	return access.Caller{AccountID: id, Role: domain.RoleOwner, Authenticated: true}
}

func TestPlotBalance(t *testing.T) {
	agg := newTestAggregator()

	balance, err := agg.PlotBalance(context.Background(), owner(7), 3)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("300")), "got %s", balance)
}

func TestPlotBalance_NoRecordsIsZero(t *testing.T) {
	agg := newTestAggregator()

	balance, err := agg.PlotBalance(context.Background(), owner(7), 5)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())
}

func TestPlotBalance_OutOfScope(t *testing.T) {
	agg := newTestAggregator()

	_, err := agg.PlotBalance(context.Background(), owner(7), 8)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodePlotDenied, appErr.Code)
}

func TestPlotBalance_AdminSeesAnyPlot(t *testing.T) {
	agg := newTestAggregator()
	admin := access.Caller{AccountID: 1, Role: domain.RoleAdmin, Authenticated: true}

	balance, err := agg.PlotBalance(context.Background(), admin, 8)
	require.NoError(t, err)
	assert.True(t, balance.Equal(dec("-40")))
}

func TestVisibleBalance_Owner(t *testing.T) {
	agg := newTestAggregator()

	total, err := agg.VisibleBalance(context.Background(), owner(7))
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("300")), "got %s", total)
}

func TestVisibleBalance_OwnerWithoutPlots(t *testing.T) {
	agg := newTestAggregator()

	total, err := agg.VisibleBalance(context.Background(), owner(9))
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestVisibleBalance_AdminCoversAllPlots(t *testing.T) {
	agg := newTestAggregator()
	admin := access.Caller{AccountID: 1, Role: domain.RoleAdmin, Authenticated: true}

	total, err := agg.VisibleBalance(context.Background(), admin)
	require.NoError(t, err)
	assert.True(t, total.Equal(dec("260")), "got %s", total) // 300 + 0 - 40
}

func TestBalances_KeyedByPlot(t *testing.T) {
	agg := newTestAggregator()

	balances, err := agg.Balances(context.Background(), owner(7))
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances[3].Equal(dec("300")))
	assert.True(t, balances[5].IsZero())
}

func TestBalancesFor_DropsPlotsOutsideScope(t *testing.T) {
	agg := newTestAggregator()

	balances, err := agg.BalancesFor(context.Background(), owner(7), []int64{3, 8})
	require.NoError(t, err)
	require.Len(t, balances, 1)
	assert.True(t, balances[3].Equal(dec("300")))
	_, leaked := balances[8]
	assert.False(t, leaked)
}

func TestBalancesFor_AdminKeepsRequestedSet(t *testing.T) {
	agg := newTestAggregator()
	admin := access.Caller{AccountID: 1, Role: domain.RoleAdmin, Authenticated: true}

	balances, err := agg.BalancesFor(context.Background(), admin, []int64{3, 8})
	require.NoError(t, err)
	require.Len(t, balances, 2)
	assert.True(t, balances[8].Equal(dec("-40")))
}

func TestBalances_Unauthenticated(t *testing.T) {
	agg := newTestAggregator()

	_, err := agg.Balances(context.Background(), access.Caller{})
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.CodeTokenInvalid, appErr.Code)
}
