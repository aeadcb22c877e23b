// Package articles implements organization publications and the
// department-capability set that controls who may manage them.
package articles

import "time"

// Article is one published piece. AuthorID references the user who created it;
// authorship never transfers.
type Article struct {
	ID          int64
	Title       string
	Content     string
	AuthorID    int64
	PublishedAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateInput carries the fields for a new article.
type CreateInput struct {
	Title   string
	Content string
}

// UpdateInput mirrors CreateInput; edits replace title and content.
type UpdateInput = CreateInput
