package ingest_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	infraevents "github.com/jonesrussell/north-cloud/headlines/infrastructure/events"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
	"github.com/jonesrussell/north-cloud/headlines/internal/extractor"
	"github.com/jonesrussell/north-cloud/headlines/internal/fetcher"
	"github.com/jonesrussell/north-cloud/headlines/internal/ingest"
	"github.com/jonesrussell/north-cloud/headlines/internal/metrics"
	"github.com/jonesrussell/north-cloud/headlines/internal/testhelpers"
)

const sourceURL = "https://www.bbc.com/"

const fixture = `<html><body>
<div><a class="media__link" href="/news/a">Alpha</a></div><p class="media__summary"> first </p>
<div><a class="media__link" href="/news/b">Beta</a></div><p class="media__summary">second</p>
<div><a class="media__link" href="/news/c">Gamma</a></div>
</body></html>`

type recordingPublisher struct {
	events []infraevents.Event
}

func (p *recordingPublisher) PublishAsync(e infraevents.Event) {
	p.events = append(p.events, e)
}

func newService(store *testhelpers.MemStore, f ingest.Fetcher, opts ...ingest.Option) *ingest.Service {
	return ingest.NewService(sourceURL, f, extractor.New(extractor.Selectors{}), store, infralogger.NewNop(), opts...)
}

func links(articles []domain.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Link)
	}
	return out
}

func TestIngest_CreatesArticlesInDocumentOrder(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	svc := newService(store, &testhelpers.StaticFetcher{Body: []byte(fixture)})

	res, err := svc.Ingest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 0, res.Existing)
	assert.Equal(t, []string{"/news/a", "/news/b", "/news/c"}, links(res.Articles))
	assert.Equal(t, "first", res.Articles[0].Summary)
	assert.Empty(t, res.Articles[2].Summary)
	for _, a := range res.Articles {
		assert.NotEmpty(t, a.ID)
		assert.Nil(t, a.NoteID)
	}
}

func TestIngest_IsIdempotent(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	svc := newService(store, &testhelpers.StaticFetcher{Body: []byte(fixture)})

	first, err := svc.Ingest(context.Background())
	require.NoError(t, err)
	second, err := svc.Ingest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 3, second.Existing)
	require.Len(t, second.Articles, 3)
	for i := range first.Articles {
		assert.Equal(t, first.Articles[i].ID, second.Articles[i].ID)
	}
}

func TestIngest_PreservesAttachedNote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := testhelpers.NewMemStore()
	svc := newService(store, &testhelpers.StaticFetcher{Body: []byte(fixture)})

	first, err := svc.Ingest(ctx)
	require.NoError(t, err)

	note, err := store.Create(ctx, domain.NoteFields{Title: "t", Body: "b"})
	require.NoError(t, err)
	_, err = store.SetNote(ctx, first.Articles[1].ID, note.ID)
	require.NoError(t, err)

	second, err := svc.Ingest(ctx)
	require.NoError(t, err)
	require.NotNil(t, second.Articles[1].Note)
	assert.Equal(t, note.ID, second.Articles[1].Note.ID)
}

func TestIngest_DuplicateLinksInOnePageCollapse(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	x := testhelpers.StaticExtractor{Candidates: []domain.Candidate{
		{Title: "One", Link: "/same"},
		{Title: "Two", Link: "/same"},
	}}
	svc := ingest.NewService(sourceURL, &testhelpers.StaticFetcher{Body: []byte("x")}, x, store, infralogger.NewNop())

	res, err := svc.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Existing)
	require.Len(t, res.Articles, 1)
	assert.Equal(t, "One", res.Articles[0].Title)
}

func TestIngest_ConcurrentRunsConvergeOnOneArticlePerLink(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	svc := newService(store, &testhelpers.StaticFetcher{Body: []byte(fixture)})

	const runs = 16
	var g errgroup.Group
	for range runs {
		g.Go(func() error {
			_, err := svc.Ingest(context.Background())
			return err
		})
	}
	require.NoError(t, g.Wait())

	all, err := store.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/news/a", "/news/b", "/news/c"}, links(all))
}

func TestIngest_FetchFailureLeavesStoreUntouched(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{name: "upstream status", err: fetcher.ClassifyStatus(http.StatusServiceUnavailable, sourceURL)},
		{name: "transport", err: fetcher.ClassifyTransport(errors.New("connection refused"), sourceURL, false)},
		{name: "untyped", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := testhelpers.NewMemStore()
			m := metrics.New()
			svc := newService(store, &testhelpers.StaticFetcher{Err: tt.err}, ingest.WithMetrics(m))

			res, err := svc.Ingest(context.Background())
			require.Error(t, err)
			assert.Nil(t, res)
			require.ErrorIs(t, err, domain.ErrFetchFailed)
			assert.Equal(t, 0, store.Upserts)
			assert.InDelta(t, 1, testutil.ToFloat64(m.IngestRuns.WithLabelValues(metrics.ResultFetchFailed)), 0)
		})
	}
}

func TestIngest_SkipsFailingCandidates(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	store.FailLinks["/news/b"] = domain.ErrStoreUnavailable
	svc := newService(store, &testhelpers.StaticFetcher{Body: []byte(fixture)})

	res, err := svc.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, []string{"/news/a", "/news/c"}, links(res.Articles))
}

func TestIngest_ListFailure(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	store.ListErr = domain.ErrStoreUnavailable
	svc := newService(store, &testhelpers.StaticFetcher{Body: []byte(fixture)})

	_, err := svc.Ingest(context.Background())
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestIngest_EmptyPage(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	svc := newService(store, &testhelpers.StaticFetcher{Body: []byte("<html><body></body></html>")})

	res, err := svc.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Candidates)
	assert.NotNil(t, res.Articles)
	assert.Empty(t, res.Articles)
}

func TestIngest_PublishesSummaryEvent(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	m := metrics.New()
	svc := newService(testhelpers.NewMemStore(), &testhelpers.StaticFetcher{Body: []byte(fixture)},
		ingest.WithPublisher(pub), ingest.WithMetrics(m))

	_, err := svc.Ingest(context.Background())
	require.NoError(t, err)

	require.Len(t, pub.events, 1)
	assert.Equal(t, infraevents.ArticlesIngested, pub.events[0].EventType)
	payload, ok := pub.events[0].Payload.(infraevents.IngestedPayload)
	require.True(t, ok)
	assert.Equal(t, 3, payload.Created)
	assert.Equal(t, sourceURL, payload.SourceURL)
	assert.InDelta(t, 3, testutil.ToFloat64(m.ArticlesStored), 0)
}

func TestIngest_AnchorsWithoutHrefDoNotMerge(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	page := `<div><a class="media__link">One</a></div><div><a class="media__link">Two</a></div>` +
		`<div><a class="media__link" href="/news/z">Zed</a></div>`
	svc := newService(store, &testhelpers.StaticFetcher{Body: []byte(page)})

	res, err := svc.Ingest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, []string{"/news/z"}, links(res.Articles))
}
