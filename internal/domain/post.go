package domain

import "time"

// Post is a piece of content owned by a single user.
type Post struct {
	ID          int64
	UserID      int64
	Title       string
	Content     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Attachments []Attachment
}

// Attachment describes a file uploaded to object storage for a post.
type Attachment struct {
	ID          int64
	PostID      int64
	Key         string
	Name        string
	Size        int64
	ContentType string
	CreatedAt   time.Time
}
