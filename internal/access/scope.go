// Package access decides which plots a caller may see. Admins see every
// plot; owners see only the plots registered to their account.
package access

import (
	"context"

	"agroledger.io/agroledger/internal/domain"
	apperrors "agroledger.io/agroledger/internal/pkg/errors"
)

// Caller identifies the account behind a request.
type Caller struct {
	AccountID     int64
	Role          domain.Role
	Authenticated bool
}

// Scope is the set of plots a caller may operate on. An unrestricted
// scope matches every plot; otherwise only the listed ids match.
type Scope struct {
	Unrestricted bool
	PlotIDs      []int64
}

// Allows reports whether the scope covers the given plot.
func (s Scope) Allows(plotID int64) bool {
	if s.Unrestricted {
		return true
	}
	for _, id := range s.PlotIDs {
		if id == plotID {
			return true
		}
	}
	return false
}

// Filter keeps only the plot ids the scope covers, preserving order.
func (s Scope) Filter(plotIDs []int64) []int64 {
	if s.Unrestricted {
		return plotIDs
	}
	var out []int64
	for _, id := range plotIDs {
		if s.Allows(id) {
			out = append(out, id)
		}
	}
	return out
}

// PlotLister is the slice of the plot repository the resolver needs.
type PlotLister interface {
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Plot, error)
}

// Resolver computes caller scopes from plot ownership.
type Resolver struct {
	plots PlotLister
}

func NewResolver(plots PlotLister) *Resolver {
	return &Resolver{plots: plots}
}

// Resolve returns the caller's plot scope. Admins are unrestricted;
// owners are scoped to the plots registered under their account, which
// may be empty.
func (r *Resolver) Resolve(ctx context.Context, caller Caller) (Scope, error) {
	if !caller.Authenticated {
		return Scope{}, apperrors.Unauthorized(apperrors.CodeTokenInvalid, "caller is not authenticated")
	}
	if caller.Role == domain.RoleAdmin {
		return Scope{Unrestricted: true}, nil
	}

	plots, err := r.plots.ListByOwner(ctx, caller.AccountID)
	if err != nil {
		return Scope{}, err
	}
	ids := make([]int64, 0, len(plots))
	for _, p := range plots {
		ids = append(ids, p.ID)
	}
	return Scope{PlotIDs: ids}, nil
}
