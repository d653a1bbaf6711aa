// Package testhelpers provides in-memory doubles of the headlines stores.
package testhelpers

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
)

// MemStore is an in-memory article and note store with the same semantics as
// the Postgres repositories: atomic create-if-absent by link, insertion order
// listing and note embedding.
type MemStore struct {
	mu       sync.Mutex
	articles []domain.Article
	byLink   map[string]int
	byID     map[string]int
	notes    map[string]domain.Note

	// FailLinks makes UpsertByLink fail for the listed links.
	FailLinks map[string]error
	// ListErr is returned by ListAll when set.
	ListErr   error
	// Upserts counts UpsertByLink calls.
	Upserts   int
}

func NewMemStore() *MemStore {
	return &MemStore{
		byLink:    make(map[string]int),
		byID:      make(map[string]int),
		notes:     make(map[string]domain.Note),
		FailLinks: make(map[string]error),
	}
}

func (s *MemStore) UpsertByLink(_ context.Context, c domain.Candidate) (*domain.Article, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Upserts++
	if err, ok := s.FailLinks[c.Link]; ok {
		return nil, false, err
	}

	if i, ok := s.byLink[c.Link]; ok {
		a := s.withNote(s.articles[i])
		return &a, false, nil
	}

	now := time.Now().UTC()
	a := domain.Article{
		ID:        uuid.NewString(),
		Title:     c.Title,
		Link:      c.Link,
		Summary:   c.Summary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.articles = append(s.articles, a)
	s.byLink[a.Link] = len(s.articles) - 1
	s.byID[a.ID] = len(s.articles) - 1
	return &a, true, nil
}

func (s *MemStore) FindByID(_ context.Context, id string) (*domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a := s.withNote(s.articles[i])
	return &a, nil
}

func (s *MemStore) ListAll(_ context.Context) ([]domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ListErr != nil {
		return nil, s.ListErr
	}
	out := make([]domain.Article, 0, len(s.articles))
	for _, a := range s.articles {
		out = append(out, s.withNote(a))
	}
	return out, nil
}

func (s *MemStore) SetNote(_ context.Context, articleID, noteID string) (*domain.Article, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.byID[articleID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if _, ok = s.notes[noteID]; !ok {
		return nil, domain.ErrNotFound
	}
	id := noteID
	s.articles[i].NoteID = &id
	s.articles[i].UpdatedAt = time.Now().UTC()
	a := s.withNote(s.articles[i])
	return &a, nil
}

// Create stores a note. It satisfies the note store contract.
func (s *MemStore) Create(_ context.Context, fields domain.NoteFields) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := domain.Note{
		ID:        uuid.NewString(),
		Title:     fields.Title,
		Body:      fields.Body,
		CreatedAt: time.Now().UTC(),
	}
	s.notes[n.ID] = n
	return &n, nil
}

// Note looks a note up by id.
func (s *MemStore) Note(_ context.Context, id string) (*domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.notes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &n, nil
}

// NoteCount reports how many notes exist, attached or not.
func (s *MemStore) NoteCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.notes)
}

// withNote must be called with mu held.
func (s *MemStore) withNote(a domain.Article) domain.Article {
	if a.NoteID == nil {
		return a
	}
	if n, ok := s.notes[*a.NoteID]; ok {
		a.Note = &n
	}
	return a
}

// NoteStore adapts MemStore's notes to the repository's FindByID naming.
type NoteStore struct{ *MemStore }

func (n NoteStore) FindByID(ctx context.Context, id string) (*domain.Note, error) {
	return n.Note(ctx, id)
}
