// Package notes attaches client notes to stored articles.
package notes

import (
	"context"
	"fmt"

	infraevents "github.com/jonesrussell/north-cloud/headlines/infrastructure/events"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
	"github.com/jonesrussell/north-cloud/headlines/internal/metrics"
)

// NoteStore persists notes.
type NoteStore interface {
	Create(ctx context.Context, fields domain.NoteFields) (*domain.Note, error)
	FindByID(ctx context.Context, id string) (*domain.Note, error)
}

// ArticleStore points an article at a note.
type ArticleStore interface {
	SetNote(ctx context.Context, articleID, noteID string) (*domain.Article, error)
}

// EventPublisher is satisfied by *events.Publisher.
type EventPublisher interface {
	PublishAsync(event infraevents.Event)
}

// Manager owns the article to note association.
type Manager struct {
	notes     NoteStore
	articles  ArticleStore
	publisher EventPublisher
	metrics   *metrics.Metrics
	logger    infralogger.Logger
}

func NewManager(
	notes NoteStore,
	articles ArticleStore,
	publisher EventPublisher,
	m *metrics.Metrics,
	log infralogger.Logger,
) *Manager {
	return &Manager{
		notes:     notes,
		articles:  articles,
		publisher: publisher,
		metrics:   m,
		logger:    log,
	}
}

// AttachNote creates a note from fields and makes it the article's only
// note, replacing any previous reference. The note is written first and is
// not rolled back, so an unknown articleID returns domain.ErrNotFound and
// leaves an orphan note behind.
func (m *Manager) AttachNote(ctx context.Context, articleID string, fields domain.NoteFields) (*domain.Article, error) {
	note, err := m.notes.Create(ctx, fields)
	if err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}

	article, err := m.articles.SetNote(ctx, articleID, note.ID)
	if err != nil {
		m.logger.Debug("Note left unattached",
			infralogger.String("note_id", note.ID),
			infralogger.String("article_id", articleID),
			infralogger.Error(err),
		)
		return nil, fmt.Errorf("attach note %s: %w", note.ID, err)
	}

	m.metrics.NoteAttached()
	if m.publisher != nil {
		m.publisher.PublishAsync(infraevents.Event{
			EventType: infraevents.NoteAttached,
			ArticleID: article.ID,
			Payload:   infraevents.NoteAttachedPayload{NoteID: note.ID},
		})
	}

	return article, nil
}

// Note returns a note by id.
func (m *Manager) Note(ctx context.Context, id string) (*domain.Note, error) {
	return m.notes.FindByID(ctx, id)
}
