package models

import "time"

// ForumPost is a message on the public board. AttachmentKey is the object
// storage key of an optional uploaded file.
type ForumPost struct {
	ID            string
	AccountID     string
	AuthorName    string
	Body          string
	AttachmentKey string
	CreatedAt     time.Time
}
