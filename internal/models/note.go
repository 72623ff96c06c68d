package models

import "time"

// DefaultNoteColor is applied when a note is created without a color.
const DefaultNoteColor = "#1e293b"

// Note is a free-form note owned by a user.
type Note struct {
	ID        string    `json:"id" bson:"_id"`
	UserID    string    `json:"userId" bson:"userId"`
	Title     string    `json:"title" bson:"title"`
	Content   string    `json:"content" bson:"content"`
	Tags      []string  `json:"tags" bson:"tags"`
	IsPinned  bool      `json:"isPinned" bson:"isPinned"`
	Color     string    `json:"color" bson:"color"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// NotePatch carries the fields of a partial note update. Nil fields are left unchanged.
type NotePatch struct {
	Title    *string
	Content  *string
	Tags     []string
	IsPinned *bool
	Color    *string
}
