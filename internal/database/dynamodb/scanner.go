package dynamodb

import (
	"context"
	"math"

	"github.com/edgeflag/edgeflag/internal/api"
	"github.com/edgeflag/edgeflag/internal/constants"
	"github.com/edgeflag/edgeflag/internal/database"
	apperrors "github.com/edgeflag/edgeflag/internal/errors"
)

// Scan returns a lazy scanner over all identities of one environment.
// Pages are fetched on demand as the caller consumes items; nothing is
// requested for items the caller never pulls.
func (r *IdentityRepository) Scan(opts database.ScanOptions) database.IdentityScanner {
	budget := opts.CapacityBudget
	if budget <= 0 {
		budget = math.Inf(1)
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = constants.IdentitiesPageSize
	}

	return &identityScanner{
		repo:     r,
		opts:     opts,
		budget:   budget,
		pageSize: pageSize,
	}
}

// identityScanner iterates all pages of one environment partition, tracking
// the continuation key and cumulative consumed capacity. One instance serves
// one logical scan; it is not safe for concurrent use.
type identityScanner struct {
	repo     *IdentityRepository
	opts     database.ScanOptions
	budget   float64
	pageSize int32

	buf []api.IdentityDocument
	pos int

	startKey database.StartKey
	started  bool
	done     bool
	spent    float64
	err      error
}

// Next advances to the next identity, fetching the next page from the store
// when the buffered one is exhausted. It returns false when the scan is
// complete or failed; check Err afterwards.
func (s *identityScanner) Next(ctx context.Context) bool {
	for {
		if s.err != nil {
			return false
		}
		if s.pos < len(s.buf) {
			s.pos++
			return true
		}
		if s.done {
			return false
		}
		if !s.fetchPage(ctx) {
			return false
		}
	}
}

// Item returns the identity positioned by the last successful Next call.
func (s *identityScanner) Item() *api.IdentityDocument {
	if s.pos == 0 || s.pos > len(s.buf) {
		return nil
	}
	return &s.buf[s.pos-1]
}

// Err returns the error that terminated the scan, if any.
func (s *identityScanner) Err() error {
	return s.err
}

// fetchPage requests the next page, enforcing the capacity budget first.
// The first page is always attempted regardless of budget; the budget check
// gates every subsequent page. Capacity reporting is only requested from the
// store when the budget is finite, so unbounded scans pay no tracking
// overhead and the check stays advisory for pages that report no figure.
func (s *identityScanner) fetchPage(ctx context.Context) bool {
	if s.started && s.spent >= s.budget {
		s.err = apperrors.ErrCapacityBudgetExceeded(s.budget, s.spent)
		return false
	}

	page, err := s.repo.QueryPage(ctx, database.PageQuery{
		EnvironmentAPIKey:      s.opts.EnvironmentAPIKey,
		Limit:                  s.pageSize,
		StartKey:               s.startKey,
		OverridesOnly:          s.opts.OverridesOnly,
		Projection:             s.opts.Projection,
		ReturnConsumedCapacity: !math.IsInf(s.budget, 1),
	})
	if err != nil {
		// Transport errors are not retried here; the whole scan fails.
		s.err = err
		return false
	}

	s.started = true
	if page.ConsumedCapacity != nil {
		s.spent += *page.ConsumedCapacity
	}

	s.buf = page.Items
	s.pos = 0
	s.startKey = page.LastEvaluatedKey
	if s.startKey == nil {
		s.done = true
	}

	return true
}
