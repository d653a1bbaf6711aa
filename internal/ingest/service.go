// Package ingest runs the fetch, extract and upsert pipeline that refreshes
// the article corpus.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	infraevents "github.com/jonesrussell/north-cloud/headlines/infrastructure/events"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
	"github.com/jonesrussell/north-cloud/headlines/internal/fetcher"
	"github.com/jonesrussell/north-cloud/headlines/internal/metrics"
)

// Fetcher retrieves the raw source page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Extractor turns markup into candidates.
type Extractor interface {
	Extract(markup []byte) iter.Seq[domain.Candidate]
}

// ArticleStore is the subset of the article repository ingestion needs.
type ArticleStore interface {
	UpsertByLink(ctx context.Context, c domain.Candidate) (*domain.Article, bool, error)
	ListAll(ctx context.Context) ([]domain.Article, error)
}

// EventPublisher is satisfied by *events.Publisher, which is nil-safe.
type EventPublisher interface {
	PublishAsync(event infraevents.Event)
}

// Result reports one ingestion run. Articles is the full corpus after the run.
type Result struct {
	Articles   []domain.Article
	Candidates int
	Created    int
	Existing   int
	Failed     int
}

// Service orchestrates a single ingestion run per Ingest call. Concurrent
// calls are safe; link uniqueness is left to the store.
type Service struct {
	sourceURL string
	fetcher   Fetcher
	extractor Extractor
	articles  ArticleStore
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    infralogger.Logger
}

// Option configures optional collaborators.
type Option func(*Service)

// WithPublisher sets the event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(
	sourceURL string,
	f Fetcher,
	x Extractor,
	articles ArticleStore,
	log infralogger.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		sourceURL: sourceURL,
		fetcher:   f,
		extractor: x,
		articles:  articles,
		logger:    log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SourceURL returns the page this service ingests.
func (s *Service) SourceURL() string {
	return s.sourceURL
}

// Ingest fetches the source once, upserts every extracted candidate in
// document order and returns the whole stored corpus. A fetch failure returns
// an error wrapping domain.ErrFetchFailed before anything is written. A
// failing candidate is logged and skipped.
func (s *Service) Ingest(ctx context.Context) (*Result, error) {
	start := time.Now()

	body, err := s.fetcher.Fetch(ctx, s.sourceURL)
	if err != nil {
		s.metrics.RecordIngestFailure(metrics.ResultFetchFailed, time.Since(start))
		s.logger.Warn("Source fetch failed",
			infralogger.String("source_url", s.sourceURL),
			infralogger.String("kind", string(fetcher.KindOf(err))),
			infralogger.Error(err),
		)
		if !errors.Is(err, domain.ErrFetchFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrFetchFailed, err)
		}
		return nil, fmt.Errorf("ingest %s: %w", s.sourceURL, err)
	}
	s.metrics.ObserveFetch(len(body))

	result := &Result{}
	for candidate := range s.extractor.Extract(body) {
		result.Candidates++
		s.upsert(ctx, candidate, result)
	}

	articles, err := s.articles.ListAll(ctx)
	if err != nil {
		s.metrics.RecordIngest(metrics.ResultStoreFailed, time.Since(start),
			result.Created, result.Existing, result.Failed, 0)
		return nil, fmt.Errorf("list articles: %w", err)
	}
	result.Articles = articles

	duration := time.Since(start)
	s.metrics.RecordIngest(metrics.ResultOK, duration,
		result.Created, result.Existing, result.Failed, len(articles))

	s.logger.Info("Ingestion complete",
		infralogger.String("source_url", s.sourceURL),
		infralogger.Int("candidates", result.Candidates),
		infralogger.Int("created", result.Created),
		infralogger.Int("existing", result.Existing),
		infralogger.Int("failed", result.Failed),
		infralogger.Duration("duration", duration),
	)

	if s.publisher != nil {
		s.publisher.PublishAsync(infraevents.Event{
			EventType: infraevents.ArticlesIngested,
			Payload: infraevents.IngestedPayload{
				SourceURL:  s.sourceURL,
				Candidates: result.Candidates,
				Created:    result.Created,
				Existing:   result.Existing,
				Failed:     result.Failed,
				DurationMS: duration.Milliseconds(),
			},
		})
	}

	return result, nil
}

func (s *Service) upsert(ctx context.Context, c domain.Candidate, result *Result) {
	_, created, err := s.articles.UpsertByLink(ctx, c)
	switch {
	case err != nil:
		result.Failed++
		s.logger.Warn("Skipping candidate",
			infralogger.String("link", c.Link),
			infralogger.Error(err),
		)
	case created:
		result.Created++
	default:
		result.Existing++
	}
}
