package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
)

const (
	articleColumns = `id, title, link, summary, note_id, created_at, updated_at`

	// articleJoinSelect reads articles with their note columns flattened.
	articleJoinSelect = `
		SELECT a.id, a.title, a.link, a.summary, a.note_id, a.created_at, a.updated_at,
		       n.title AS note_title, n.body AS note_body, n.created_at AS note_created_at
		FROM articles a
		LEFT JOIN notes n ON n.id = a.note_id`
)

// articleRow is an article joined with the note it references, if any.
type articleRow struct {
	domain.Article
	NoteTitle     sql.NullString `db:"note_title"`
	NoteBody      sql.NullString `db:"note_body"`
	NoteCreatedAt sql.NullTime   `db:"note_created_at"`
}

func (r *articleRow) toArticle() *domain.Article {
	a := r.Article
	if a.NoteID != nil && r.NoteCreatedAt.Valid {
		a.Note = &domain.Note{
			ID:        *a.NoteID,
			Title:     r.NoteTitle.String,
			Body:      r.NoteBody.String,
			CreatedAt: r.NoteCreatedAt.Time,
		}
	}
	return &a
}

// ArticleRepository stores articles. Link uniqueness is enforced by the
// articles_link_key constraint, so concurrent upserts of one link converge on
// a single row without application locking.
type ArticleRepository struct {
	db     *sqlx.DB
	logger infralogger.Logger
}

func NewArticleRepository(db *sqlx.DB, log infralogger.Logger) *ArticleRepository {
	return &ArticleRepository{db: db, logger: log}
}

// UpsertByLink creates an article for c.Link unless one exists. An existing
// article is returned untouched: its id, title, summary and note survive
// re-ingestion. created reports whether this call inserted the row.
func (r *ArticleRepository) UpsertByLink(ctx context.Context, c domain.Candidate) (*domain.Article, bool, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict;
	// xmax is 0 only for a freshly inserted tuple.
	query := `
		INSERT INTO articles (id, title, link, summary)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (link) DO UPDATE SET link = EXCLUDED.link
		RETURNING ` + articleColumns + `, (xmax = 0) AS inserted`

	var row struct {
		domain.Article
		Inserted bool `db:"inserted"`
	}
	if err := r.db.GetContext(ctx, &row, query, uuid.New().String(), c.Title, c.Link, c.Summary); err != nil {
		return nil, false, storeError("upsert article", err)
	}

	if row.Inserted {
		r.logger.Debug("Article created",
			infralogger.String("article_id", row.ID),
			infralogger.String("link", row.Link),
		)
	}

	article := row.Article
	return &article, row.Inserted, nil
}

// FindByID returns the article with its note embedded.
func (r *ArticleRepository) FindByID(ctx context.Context, id string) (*domain.Article, error) {
	if !validID(id) {
		return nil, fmt.Errorf("find article %q: %w", id, domain.ErrNotFound)
	}

	var row articleRow
	if err := r.db.GetContext(ctx, &row, articleJoinSelect+` WHERE a.id = $1`, id); err != nil {
		return nil, storeError("find article", err)
	}
	return row.toArticle(), nil
}

// ListAll returns every article in insertion order.
func (r *ArticleRepository) ListAll(ctx context.Context) ([]domain.Article, error) {
	var rows []articleRow
	if err := r.db.SelectContext(ctx, &rows, articleJoinSelect+` ORDER BY a.seq ASC`); err != nil {
		return nil, storeError("list articles", err)
	}

	articles := make([]domain.Article, 0, len(rows))
	for i := range rows {
		articles = append(articles, *rows[i].toArticle())
	}
	return articles, nil
}

// SetNote points the article at noteID, replacing any previous note, and
// returns the updated article with the note embedded. The previous note is
// left in place as an orphan.
func (r *ArticleRepository) SetNote(ctx context.Context, articleID, noteID string) (*domain.Article, error) {
	if !validID(articleID) {
		return nil, fmt.Errorf("set note on %q: %w", articleID, domain.ErrNotFound)
	}

	query := `
		WITH a AS (
			UPDATE articles SET note_id = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + articleColumns + `
		)
		SELECT a.id, a.title, a.link, a.summary, a.note_id, a.created_at, a.updated_at,
		       n.title AS note_title, n.body AS note_body, n.created_at AS note_created_at
		FROM a
		LEFT JOIN notes n ON n.id = a.note_id`

	var row articleRow
	if err := r.db.GetContext(ctx, &row, query, articleID, noteID); err != nil {
		return nil, storeError("set note", err)
	}
	return row.toArticle(), nil
}

func (r *ArticleRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM articles`); err != nil {
		return 0, storeError("count articles", err)
	}
	return n, nil
}
