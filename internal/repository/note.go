package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
)

// NoteRepository stores notes. Notes are written once and never updated.
type NoteRepository struct {
	db     *sqlx.DB
	logger infralogger.Logger
}

func NewNoteRepository(db *sqlx.DB, log infralogger.Logger) *NoteRepository {
	return &NoteRepository{db: db, logger: log}
}

// Create stores fields verbatim under a new id.
func (r *NoteRepository) Create(ctx context.Context, fields domain.NoteFields) (*domain.Note, error) {
	query := `
		INSERT INTO notes (id, title, body)
		VALUES ($1, $2, $3)
		RETURNING id, title, body, created_at`

	var note domain.Note
	if err := r.db.GetContext(ctx, &note, query, uuid.New().String(), fields.Title, fields.Body); err != nil {
		return nil, storeError("create note", err)
	}

	r.logger.Debug("Note created", infralogger.String("note_id", note.ID))
	return &note, nil
}

func (r *NoteRepository) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	if !validID(id) {
		return nil, fmt.Errorf("find note %q: %w", id, domain.ErrNotFound)
	}

	var note domain.Note
	err := r.db.GetContext(ctx, &note, `SELECT id, title, body, created_at FROM notes WHERE id = $1`, id)
	if err != nil {
		return nil, storeError("find note", err)
	}
	return &note, nil
}
