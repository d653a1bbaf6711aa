package domain

import "time"

// Note is free-form client text attached to at most one article at a time.
// A note with no article pointing at it is valid.
type Note struct {
	ID        string    `db:"id"         json:"id"`
	Title     string    `db:"title"      json:"title"`
	Body      string    `db:"body"       json:"body"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// NoteFields is the fixed set of client-supplied note fields. Unknown request
// keys never reach it. Body holds what clients may also send as "text".
type NoteFields struct {
	Title string `form:"title" json:"title"`
	Body  string `form:"body"  json:"body"`
}
