// Package domain holds the headlines records and the error taxonomy shared by
// every layer.
package domain

import "time"

// Article is one distinct headline. Link is its identity: the store never
// holds two articles with the same link.
type Article struct {
	ID        string    `db:"id"         json:"id"`
	Title     string    `db:"title"      json:"title"`
	Link      string    `db:"link"       json:"link"`
	Summary   string    `db:"summary"    json:"summary"`
	NoteID    *string   `db:"note_id"    json:"noteId"`
	Note      *Note     `db:"-"          json:"note,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Candidate is an extracted title/link/summary triple that has not yet been
// reconciled against stored articles.
type Candidate struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Summary string `json:"summary"`
}
