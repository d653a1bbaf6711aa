// Package events defines the envelope written to the headlines Redis stream.
package events

import (
	"time"

	"github.com/google/uuid"
)

// StreamName is the Redis stream every headlines event is appended to.
const StreamName = "headline-events"

// EventType names what happened.
type EventType string

const (
	// ArticlesIngested is emitted once per completed ingestion run.
	ArticlesIngested EventType = "ARTICLES_INGESTED"
	// NoteAttached is emitted when an article's note reference changes.
	NoteAttached EventType = "NOTE_ATTACHED"
)

// Event is the stream envelope. ArticleID is empty for run-level events.
type Event struct {
	EventID   uuid.UUID `json:"event_id"`
	EventType EventType `json:"event_type"`
	ArticleID string    `json:"article_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// IngestedPayload summarises one ingestion run.
type IngestedPayload struct {
	SourceURL  string `json:"source_url"`
	Candidates int    `json:"candidates"`
	Created    int    `json:"created"`
	Existing   int    `json:"existing"`
	Failed     int    `json:"failed"`
	DurationMS int64  `json:"duration_ms"`
}

// NoteAttachedPayload identifies the note that now hangs off ArticleID.
type NoteAttachedPayload struct {
	NoteID string `json:"note_id"`
}
