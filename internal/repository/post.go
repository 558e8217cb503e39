package repository

import (
	"context"

	"postboard/internal/domain"
)

// PostRepository exposes persistence operations for Post aggregates.
type PostRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, post *domain.Post) (int64, error)
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id int64) error
	DeleteByUser(ctx context.Context, userID int64) error
	Get(ctx context.Context, id int64) (*domain.Post, error)
	// List returns every post, or only those owned by userID when it is non-zero.
	List(ctx context.Context, userID int64) ([]domain.Post, error)
}

// AttachmentRepository manages attachment metadata for posts.
type AttachmentRepository interface {
	Init(ctx context.Context) error
	Create(ctx context.Context, attachment *domain.Attachment) (int64, error)
	Get(ctx context.Context, id int64) (*domain.Attachment, error)
	ListByPost(ctx context.Context, postID int64) ([]domain.Attachment, error)
	DeleteByPost(ctx context.Context, postID int64) error
}
