package notes_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	infraevents "github.com/jonesrussell/north-cloud/headlines/infrastructure/events"
	infralogger "github.com/jonesrussell/north-cloud/headlines/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/headlines/internal/domain"
	"github.com/jonesrussell/north-cloud/headlines/internal/notes"
	"github.com/jonesrussell/north-cloud/headlines/internal/testhelpers"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishAsync(e infraevents.Event) {
	m.Called(e)
}

func seed(t *testing.T, store *testhelpers.MemStore, link string) *domain.Article {
	t.Helper()

	a, created, err := store.UpsertByLink(context.Background(), domain.Candidate{Title: "T", Link: link})
	require.NoError(t, err)
	require.True(t, created)
	return a
}

func TestAttachNote_EmbedsNote(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	article := seed(t, store, "/a")

	pub := &mockPublisher{}
	pub.On("PublishAsync", mock.MatchedBy(func(e infraevents.Event) bool {
		return e.EventType == infraevents.NoteAttached && e.ArticleID == article.ID
	})).Once()

	mgr := notes.NewManager(testhelpers.NoteStore{MemStore: store}, store, pub, nil, infralogger.NewNop())

	got, err := mgr.AttachNote(context.Background(), article.ID, domain.NoteFields{Title: "x", Body: "y"})
	require.NoError(t, err)
	require.NotNil(t, got.Note)
	assert.Equal(t, "x", got.Note.Title)
	assert.Equal(t, "y", got.Note.Body)
	assert.Equal(t, got.Note.ID, *got.NoteID)
	pub.AssertExpectations(t)
}

func TestAttachNote_OverwritesPreviousNote(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := testhelpers.NewMemStore()
	article := seed(t, store, "/a")
	mgr := notes.NewManager(testhelpers.NoteStore{MemStore: store}, store, nil, nil, infralogger.NewNop())

	first, err := mgr.AttachNote(ctx, article.ID, domain.NoteFields{Title: "x", Body: "y"})
	require.NoError(t, err)
	second, err := mgr.AttachNote(ctx, article.ID, domain.NoteFields{Title: "p", Body: "q"})
	require.NoError(t, err)

	assert.NotEqual(t, first.Note.ID, second.Note.ID)

	reread, err := store.FindByID(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, "p", reread.Note.Title)

	// The replaced note still exists on its own.
	old, err := mgr.Note(ctx, first.Note.ID)
	require.NoError(t, err)
	assert.Equal(t, "x", old.Title)
	assert.Equal(t, 2, store.NoteCount())
}

func TestAttachNote_UnknownArticleLeavesOrphan(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	pub := &mockPublisher{}
	mgr := notes.NewManager(testhelpers.NoteStore{MemStore: store}, store, pub, nil, infralogger.NewNop())

	_, err := mgr.AttachNote(context.Background(), "missing", domain.NoteFields{Title: "x"})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, 1, store.NoteCount())
	pub.AssertNotCalled(t, "PublishAsync", mock.Anything)
}

type failingNotes struct{}

func (failingNotes) Create(context.Context, domain.NoteFields) (*domain.Note, error) {
	return nil, domain.ErrStoreUnavailable
}

func (failingNotes) FindByID(context.Context, string) (*domain.Note, error) {
	return nil, domain.ErrStoreUnavailable
}

func TestAttachNote_NoteStoreFailure(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	article := seed(t, store, "/a")
	mgr := notes.NewManager(failingNotes{}, store, nil, nil, infralogger.NewNop())

	_, err := mgr.AttachNote(context.Background(), article.ID, domain.NoteFields{})
	require.ErrorIs(t, err, domain.ErrStoreUnavailable)

	reread, err := store.FindByID(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Nil(t, reread.NoteID)
}

func TestNote_NotFound(t *testing.T) {
	t.Parallel()

	store := testhelpers.NewMemStore()
	mgr := notes.NewManager(testhelpers.NoteStore{MemStore: store}, store, nil, nil, infralogger.NewNop())

	_, err := mgr.Note(context.Background(), "nope")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
