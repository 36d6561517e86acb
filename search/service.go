package search

import (
	"context"
	"errors"
	"time"

	"tonotes/contextutil"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultEngineTimeout bounds every call to the search index.
const DefaultEngineTimeout = 10 * time.Second

// Service answers search requests: it builds the query, runs it against
// the index and reconciles the hits with the record store.
type Service struct {
	index      Index
	reconciler *Reconciler
	timeout    time.Duration
}

func NewService(index Index, records RecordStore, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = DefaultEngineTimeout
	}
	return &Service{
		index:      index,
		reconciler: NewReconciler(records),
		timeout:    timeout,
	}
}

// Search returns a ValidationError for malformed requests, ErrNoCriteria
// when there is nothing to search for and ErrSearchUnavailable when the
// index fails. The index is not called in the first two cases.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	timer := prometheus.NewTimer(SearchDuration)
	defer timer.ObserveDuration()

	logger := contextutil.LoggerFromContext(ctx)

	req, err := NormalizeRequest(req)
	if err != nil {
		TrackSearchOutcome("invalid")
		return nil, err
	}
	q, err := BuildQuery(req)
	if err != nil {
		if errors.Is(err, ErrNoCriteria) {
			TrackSearchOutcome("no_criteria")
		} else {
			TrackSearchOutcome("invalid")
		}
		return nil, err
	}

	hits, err := s.runQuery(ctx, q)
	if err != nil {
		TrackSearchOutcome("unavailable")
		logger.Error("search index query failed", "user_id", req.RequestingUser, "error", err)
		return nil, err
	}

	result, err := s.reconciler.Reconcile(ctx, hits, req.RequestingUser, req.Page, req.PageSize)
	if err != nil {
		TrackSearchOutcome("error")
		return nil, err
	}

	TrackSearchOutcome("ok")
	logger.Debug("search completed",
		"user_id", req.RequestingUser,
		"hits", len(hits.Hits),
		"total", result.TotalCount,
	)
	return result, nil
}

func (s *Service) runQuery(ctx context.Context, q *Query) (*HitSet, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	hits, err := s.index.Search(ctx, q)
	if err != nil {
		if errors.Is(err, ErrSearchUnavailable) {
			return nil, err
		}
		return nil, unavailable("query", err)
	}
	if hits == nil {
		return nil, unavailable("query", errors.New("empty response"))
	}
	return hits, nil
}
