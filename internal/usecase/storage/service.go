package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/booksearch/internal/domain"
	"github.com/kailas-cloud/booksearch/internal/domain/action"
	"github.com/kailas-cloud/booksearch/internal/domain/query"
	"github.com/kailas-cloud/booksearch/internal/domain/result"
	"github.com/kailas-cloud/booksearch/internal/logger"
	"github.com/kailas-cloud/booksearch/internal/metrics"
)

// Result is the normalized outcome of one action.
type Result struct {
	Action  action.Kind
	Records []json.RawMessage
	// ID is set by single-document actions.
	ID string
	// IDs is set by bulk append.
	IDs []string
	// Affected is set by delete_by_query and update_by_query.
	Affected *int64
}

// Service executes storage actions against the book repository.
type Service struct {
	repo    Repository
	maxHits int
}

// New creates a storage service.
func New(repo Repository) *Service {
	return &Service{repo: repo, maxHits: query.DefaultMaxHits}
}

// WithMaxHits caps the number of hits returned by plain searches.
func (s *Service) WithMaxHits(n int) *Service {
	if n > 0 {
		s.maxHits = n
	}
	return s
}

// Execute runs a.
// Errors carry one of the domain sentinels: ErrBookNotFound, ErrUpstream or ErrUpstreamUnavailable.
func (s *Service) Execute(ctx context.Context, a action.Action) (Result, error) {
	start := time.Now()
	res, err := s.execute(ctx, a)
	res.Action = a.Kind()

	log := logger.FromContext(ctx).With(zap.String("action", string(a.Kind())))
	status := "ok"
	if err != nil {
		status = errorStatus(err)
		log.Warn("storage action failed",
			zap.Error(err),
			zap.String("status", status),
			zap.Duration("took", time.Since(start)),
		)
	} else {
		log.Debug("storage action done",
			zap.Int("records", len(res.Records)),
			zap.Duration("took", time.Since(start)),
		)
	}
	metrics.ActionsTotal.WithLabelValues(string(a.Kind()), status).Inc()
	return res, err
}

func errorStatus(err error) string {
	switch {
	case errors.Is(err, domain.ErrBookNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		return "unavailable"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream_error"
	default:
		return "error"
	}
}

func (s *Service) execute(ctx context.Context, a action.Action) (Result, error) {
	switch a := a.(type) {
	case action.AppendBook:
		return s.appendBook(ctx, a)
	case action.BulkAppendBooks:
		ids, err := s.repo.BulkAppend(ctx, a.Books)
		if err != nil {
			return Result{IDs: ids}, fmt.Errorf("bulk append: %w", err)
		}
		return Result{Records: []json.RawMessage{}, IDs: ids}, nil
	case action.RetrieveBookByID:
		doc, err := s.repo.Get(ctx, a.ID)
		if err != nil {
			return Result{}, fmt.Errorf("retrieve book: %w", err)
		}
		return Result{Records: result.FromDocument(doc), ID: a.ID}, nil
	case action.RemoveBookByID:
		if err := s.repo.Delete(ctx, a.ID); err != nil {
			return Result{}, fmt.Errorf("remove book: %w", err)
		}
		return Result{Records: []json.RawMessage{}, ID: a.ID}, nil
	case action.Match:
		return s.search(ctx, query.Match(a.Field, a.Value), s.maxHits)
	case action.Fuzzy:
		return s.search(ctx, query.Fuzzy(a.Query, a.Fields), query.FuzzyMaxHits)
	case action.Wildcard:
		return s.search(ctx, query.Wildcard(a.Field, a.Pattern), s.maxHits)
	case action.Regexp:
		return s.search(ctx, query.Regexp(a.Field, a.Pattern), s.maxHits)
	case action.Phrase:
		return s.search(ctx, query.Phrase(a.Query, a.Fields, a.Slop), s.maxHits)
	case action.PhrasePrefix:
		return s.search(ctx, query.PhrasePrefix(a.Query, a.Field, a.MaxExpansions), s.maxHits)
	case action.Term:
		return s.search(ctx, query.Term(a.Field, a.Value), s.maxHits)
	case action.Range:
		return s.search(ctx, query.Range(a.Field, a.Bounds), s.maxHits)
	case action.Bool:
		return s.search(ctx, query.Bool(clauses(a.Must), clauses(a.Should), clauses(a.MustNot)), s.maxHits)
	case action.DeleteByQuery:
		n, err := s.repo.DeleteByQuery(ctx, query.DeleteByQuery(multiMatch(a.Filter)))
		if err != nil {
			return Result{}, fmt.Errorf("delete by query: %w", err)
		}
		return Result{Records: []json.RawMessage{}, Affected: &n}, nil
	case action.UpdateByQuery:
		body := query.UpdateByQuery(multiMatch(a.Filter), query.AssignScript(a.Field, a.Value))
		n, err := s.repo.UpdateByQuery(ctx, body)
		if err != nil {
			return Result{}, fmt.Errorf("update by query: %w", err)
		}
		return Result{Records: []json.RawMessage{}, Affected: &n}, nil
	case action.MetricAggregation:
		return s.aggregate(ctx, query.MatchAll(), a.Name, query.MetricAgg(a.Metric, a.Field))
	case action.FilterAggregation:
		inner := query.AggregationName(a.Metric, a.Field)
		agg := query.FilterAgg(query.Term(a.FilterField, a.FilterValue), inner, query.MetricAgg(a.Metric, a.Field))
		return s.aggregate(ctx, query.MatchAll(), a.Name, agg)
	default:
		return Result{}, fmt.Errorf("%w: %T", domain.ErrUnknownAction, a)
	}
}

func (s *Service) appendBook(ctx context.Context, a action.AppendBook) (Result, error) {
	id, err := s.repo.Append(ctx, a.ID, a.Book)
	if err != nil {
		return Result{}, fmt.Errorf("append book: %w", err)
	}
	doc, err := json.Marshal(a.Book)
	if err != nil {
		return Result{}, fmt.Errorf("marshal book: %w", err)
	}
	return Result{Records: []json.RawMessage{doc}, ID: id}, nil
}

func (s *Service) search(ctx context.Context, q query.Clause, size int) (Result, error) {
	hits, err := s.repo.Search(ctx, query.NewSearch(q).Size(size).Build())
	if err != nil {
		return Result{}, fmt.Errorf("search: %w", err)
	}
	return Result{Records: result.FromHits(hits)}, nil
}

func (s *Service) aggregate(ctx context.Context, q query.Clause, name string, agg query.Aggregation) (Result, error) {
	body := query.NewSearch(q).Aggregate(name, agg).Build()
	value, err := s.repo.Aggregate(ctx, body, name)
	if err != nil {
		return Result{}, fmt.Errorf("aggregate %s: %w", name, err)
	}
	return Result{Records: result.FromDocument(value)}, nil
}

func multiMatch(c action.Clause) query.Clause {
	return query.MultiMatch(c.Query, c.Fields)
}

func clauses(in []action.Clause) []query.Clause {
	if len(in) == 0 {
		return nil
	}
	out := make([]query.Clause, len(in))
	for i, c := range in {
		out[i] = multiMatch(c)
	}
	return out
}
