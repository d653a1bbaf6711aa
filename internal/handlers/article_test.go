package handlers_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
	"github.com/jonesrussell/north-cloud/headlines/internal/fetcher"
	"github.com/jonesrussell/north-cloud/headlines/internal/handlers"
	"github.com/jonesrussell/north-cloud/headlines/internal/ingest"
)

type mockIngester struct{ mock.Mock }

func (m *mockIngester) Ingest(ctx context.Context) (*ingest.Result, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*ingest.Result)
	return res, args.Error(1)
}

type mockArticles struct{ mock.Mock }

func (m *mockArticles) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*domain.Article)
	return a, args.Error(1)
}

func (m *mockArticles) ListAll(ctx context.Context) ([]domain.Article, error) {
	args := m.Called(ctx)
	a, _ := args.Get(0).([]domain.Article)
	return a, args.Error(1)
}

type mockNotes struct{ mock.Mock }

func (m *mockNotes) AttachNote(ctx context.Context, articleID string, fields domain.NoteFields) (*domain.Article, error) {
	args := m.Called(ctx, articleID, fields)
	a, _ := args.Get(0).(*domain.Article)
	return a, args.Error(1)
}

func (m *mockNotes) Note(ctx context.Context, id string) (*domain.Note, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*domain.Note)
	return n, args.Error(1)
}

type fixture struct {
	ingester *mockIngester
	articles *mockArticles
	notes    *mockNotes
	router   *gin.Engine
}

func setup() *fixture {
	gin.SetMode(gin.TestMode)

	f := &fixture{ingester: &mockIngester{}, articles: &mockArticles{}, notes: &mockNotes{}}
	h := handlers.NewArticleHandler(f.ingester, f.articles, f.notes, infralogger.NewNop())

	f.router = gin.New()
	f.router.GET("/articles", h.List)
	f.router.GET("/articles/:id", h.GetByID)
	f.router.POST("/articles/:id", h.AttachNote)
	f.router.GET("/api/v1/articles", h.ListStored)
	f.router.GET("/notes/:id", h.GetNote)
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func noted(id, noteID string) *domain.Article {
	return &domain.Article{
		ID:     id,
		Title:  "T",
		Link:   "/l",
		NoteID: &noteID,
		Note:   &domain.Note{ID: noteID, Title: "x", Body: "y"},
	}
}

func TestList_ReturnsCorpus(t *testing.T) {
	f := setup()
	f.ingester.On("Ingest", mock.Anything).Return(&ingest.Result{
		Articles: []domain.Article{{ID: "1", Title: "A", Link: "/a"}, {ID: "2", Title: "B", Link: "/b"}},
	}, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/articles", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got []domain.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "/a", got[0].Link)
	assert.Contains(t, w.Body.String(), `"noteId":null`)
}

func TestList_EmptyCorpusIsArray(t *testing.T) {
	f := setup()
	f.ingester.On("Ingest", mock.Anything).Return(&ingest.Result{}, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/articles", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestList_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{
			name:   "fetch failure",
			err:    fmt.Errorf("ingest: %w", fetcher.ClassifyStatus(http.StatusServiceUnavailable, "https://x")),
			status: http.StatusInternalServerError,
			code:   handlers.CodeFetchFailed,
		},
		{
			name:   "store failure",
			err:    fmt.Errorf("list articles: %w", domain.ErrStoreUnavailable),
			status: http.StatusInternalServerError,
			code:   handlers.CodeStoreUnavailable,
		},
		{
			name:   "unclassified",
			err:    assert.AnError,
			status: http.StatusInternalServerError,
			code:   handlers.CodeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup()
			f.ingester.On("Ingest", mock.Anything).Return(nil, tt.err)

			w := f.do(httptest.NewRequest(http.MethodGet, "/articles", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w)["code"])
		})
	}
}

func TestListStored(t *testing.T) {
	f := setup()
	f.articles.On("ListAll", mock.Anything).Return([]domain.Article{{ID: "1", Link: "/a"}}, nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/articles", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Articles []domain.Article `json:"articles"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
	f.ingester.AssertNotCalled(t, "Ingest", mock.Anything)
}

func TestGetByID(t *testing.T) {
	f := setup()
	f.articles.On("FindByID", mock.Anything, "a1").Return(noted("a1", "n1"), nil)

	w := f.do(httptest.NewRequest(http.MethodGet, "/articles/a1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Article
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.NotNil(t, got.Note)
	assert.Equal(t, "n1", got.Note.ID)
}

func TestGetByID_NotFound(t *testing.T) {
	f := setup()
	f.articles.On("FindByID", mock.Anything, "nope").Return(nil, domain.ErrNotFound)

	w := f.do(httptest.NewRequest(http.MethodGet, "/articles/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, handlers.CodeNotFound, decodeError(t, w)["code"])
}

func TestAttachNote_JSON(t *testing.T) {
	f := setup()
	f.notes.On("AttachNote", mock.Anything, "a1", domain.NoteFields{Title: "x", Body: "y"}).
		Return(noted("a1", "n1"), nil)

	req := httptest.NewRequest(http.MethodPost, "/articles/a1",
		strings.NewReader(`{"title":"x","body":"y","extra":"dropped"}`))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	f.notes.AssertExpectations(t)
}

func TestAttachNote_Form(t *testing.T) {
	f := setup()
	f.notes.On("AttachNote", mock.Anything, "a1", domain.NoteFields{Title: "x", Body: "y"}).
		Return(noted("a1", "n1"), nil)

	form := url.Values{"title": {"x"}, "body": {"y"}}
	req := httptest.NewRequest(http.MethodPost, "/articles/a1", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := f.do(req)

	require.Equal(t, http.StatusOK, w.Code)
	f.notes.AssertExpectations(t)
}

func TestAttachNote_TextIsBodyAlias(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		payload     string
		want        domain.NoteFields
	}{
		{
			name:        "json text",
			contentType: "application/json",
			payload:     `{"title":"x","text":"y"}`,
			want:        domain.NoteFields{Title: "x", Body: "y"},
		},
		{
			name:        "form text",
			contentType: "application/x-www-form-urlencoded",
			payload:     url.Values{"title": {"x"}, "text": {"y"}}.Encode(),
			want:        domain.NoteFields{Title: "x", Body: "y"},
		},
		{
			name:        "body wins over text",
			contentType: "application/json",
			payload:     `{"title":"x","body":"b","text":"t"}`,
			want:        domain.NoteFields{Title: "x", Body: "b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup()
			f.notes.On("AttachNote", mock.Anything, "a1", tt.want).Return(noted("a1", "n1"), nil)

			req := httptest.NewRequest(http.MethodPost, "/articles/a1", strings.NewReader(tt.payload))
			req.Header.Set("Content-Type", tt.contentType)
			w := f.do(req)

			require.Equal(t, http.StatusOK, w.Code)
			f.notes.AssertExpectations(t)
		})
	}
}

func TestAttachNote_MalformedBody(t *testing.T) {
	f := setup()

	req := httptest.NewRequest(http.MethodPost, "/articles/a1", strings.NewReader(`{"title":`))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, handlers.CodeBadRequest, decodeError(t, w)["code"])
	f.notes.AssertNotCalled(t, "AttachNote", mock.Anything, mock.Anything, mock.Anything)
}

func TestAttachNote_UnknownArticle(t *testing.T) {
	f := setup()
	f.notes.On("AttachNote", mock.Anything, "missing", mock.Anything).
		Return(nil, fmt.Errorf("attach note n1: %w", domain.ErrNotFound))

	req := httptest.NewRequest(http.MethodPost, "/articles/missing", strings.NewReader(`{"title":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	w := f.do(req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetNote(t *testing.T) {
	f := setup()
	f.notes.On("Note", mock.Anything, "n1").Return(&domain.Note{ID: "n1", Title: "x"}, nil)
	f.notes.On("Note", mock.Anything, "n2").Return(nil, domain.ErrNotFound)

	w := f.do(httptest.NewRequest(http.MethodGet, "/notes/n1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"x"`)

	w = f.do(httptest.NewRequest(http.MethodGet, "/notes/n2", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
