// Package handlers maps the headlines HTTP surface onto the ingest and notes
// services.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
	"github.com/jonesrussell/north-cloud/headlines/internal/ingest"
)

// Error codes carried in the "code" field of error bodies.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeNotFound         = "NOT_FOUND"
	CodeFetchFailed      = "FETCH_FAILED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

// Ingester refreshes and returns the corpus.
type Ingester interface {
	Ingest(ctx context.Context) (*ingest.Result, error)
}

// ArticleReader reads stored articles.
type ArticleReader interface {
	FindByID(ctx context.Context, id string) (*domain.Article, error)
	ListAll(ctx context.Context) ([]domain.Article, error)
}

// NoteAttacher owns the article to note association.
type NoteAttacher interface {
	AttachNote(ctx context.Context, articleID string, fields domain.NoteFields) (*domain.Article, error)
	Note(ctx context.Context, id string) (*domain.Note, error)
}

type ArticleHandler struct {
	ingester Ingester
	articles ArticleReader
	notes    NoteAttacher
	logger   infralogger.Logger
}

func NewArticleHandler(ingester Ingester, articles ArticleReader, notes NoteAttacher, log infralogger.Logger) *ArticleHandler {
	return &ArticleHandler{
		ingester: ingester,
		articles: articles,
		notes:    notes,
		logger:   log,
	}
}

// List ingests the source and returns the whole corpus.
func (h *ArticleHandler) List(c *gin.Context) {
	result, err := h.ingester.Ingest(c.Request.Context())
	if err != nil {
		h.respondError(c, "Ingestion failed", err)
		return
	}

	c.JSON(http.StatusOK, nonNil(result.Articles))
}

// ListStored returns the corpus without fetching.
func (h *ArticleHandler) ListStored(c *gin.Context) {
	articles, err := h.articles.ListAll(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list articles", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": nonNil(articles),
		"count":    len(articles),
	})
}

func (h *ArticleHandler) GetByID(c *gin.Context) {
	id := c.Param("id")

	article, err := h.articles.FindByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get article", err, infralogger.String("article_id", id))
		return
	}

	c.JSON(http.StatusOK, article)
}

// noteRequest is the bound request body. "text" is accepted as an alias for
// "body"; when both are sent, body wins.
type noteRequest struct {
	Title string `form:"title" json:"title"`
	Body  string `form:"body"  json:"body"`
	Text  string `form:"text"  json:"text"`
}

func (r noteRequest) fields() domain.NoteFields {
	body := r.Body
	if body == "" {
		body = r.Text
	}
	return domain.NoteFields{Title: r.Title, Body: body}
}

// AttachNote accepts a JSON or form-encoded {title, body} (or {title, text})
// and replaces the article's note with a new one.
func (h *ArticleHandler) AttachNote(c *gin.Context) {
	id := c.Param("id")

	var req noteRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.Debug("Invalid request body",
			infralogger.String("article_id", id),
			infralogger.Error(err),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "code": CodeBadRequest})
		return
	}

	article, err := h.notes.AttachNote(c.Request.Context(), id, req.fields())
	if err != nil {
		h.respondError(c, "Failed to attach note", err, infralogger.String("article_id", id))
		return
	}

	h.logger.Info("Note attached",
		infralogger.String("article_id", article.ID),
		infralogger.String("note_id", *article.NoteID),
	)

	c.JSON(http.StatusOK, article)
}

func (h *ArticleHandler) GetNote(c *gin.Context) {
	id := c.Param("id")

	note, err := h.notes.Note(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "Failed to get note", err, infralogger.String("note_id", id))
		return
	}

	c.JSON(http.StatusOK, note)
}

// respondError is the single place domain errors become HTTP statuses.
func (h *ArticleHandler) respondError(c *gin.Context, msg string, err error, fields ...infralogger.Field) {
	fields = append(fields, infralogger.Error(err))

	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.logger.Debug(msg, fields...)
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "code": CodeNotFound})
	case errors.Is(err, domain.ErrFetchFailed):
		h.logger.Warn(msg, fields...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch source", "code": CodeFetchFailed})
	case errors.Is(err, domain.ErrStoreUnavailable):
		h.logger.Error(msg, fields...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Store unavailable", "code": CodeStoreUnavailable})
	default:
		h.logger.Error(msg, fields...)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "code": CodeInternal})
	}
}

func nonNil(articles []domain.Article) []domain.Article {
	if articles == nil {
		return []domain.Article{}
	}
	return articles
}
