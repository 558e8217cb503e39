package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

type PostRepository struct {
	mu     sync.RWMutex
	nextID int64
	posts  map[int64]domain.Post
}

func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[int64]domain.Post)}
}

var _ repository.PostRepository = (*PostRepository)(nil)

func (r *PostRepository) Init(context.Context) error { return nil }

func (r *PostRepository) Create(_ context.Context, post *domain.Post) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = now
	post.UpdatedAt = now
	stored := *post
	stored.Attachments = nil
	r.posts[post.ID] = stored
	return post.ID, nil
}

func (r *PostRepository) Update(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.posts[post.ID]
	if !ok {
		return fmt.Errorf("post %d: %w", post.ID, repository.ErrNotFound)
	}
	current.Title = post.Title
	current.Content = post.Content
	current.UpdatedAt = time.Now().UTC()
	post.UpdatedAt = current.UpdatedAt
	r.posts[post.ID] = current
	return nil
}

func (r *PostRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
	}
	delete(r.posts, id)
	return nil
}

func (r *PostRepository) DeleteByUser(_ context.Context, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, p := range r.posts {
		if p.UserID == userID {
			delete(r.posts, id)
		}
	}
	return nil
}

func (r *PostRepository) Get(_ context.Context, id int64) (*domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, fmt.Errorf("post %d: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (r *PostRepository) List(_ context.Context, userID int64) ([]domain.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var posts []domain.Post
	for _, p := range r.posts {
		if userID != 0 && p.UserID != userID {
			continue
		}
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].ID < posts[j].ID })
	return posts, nil
}

type AttachmentRepository struct {
	mu          sync.RWMutex
	nextID      int64
	attachments map[int64]domain.Attachment
}

func NewAttachmentRepository() *AttachmentRepository {
	return &AttachmentRepository{attachments: make(map[int64]domain.Attachment)}
}

var _ repository.AttachmentRepository = (*AttachmentRepository)(nil)

func (r *AttachmentRepository) Init(context.Context) error { return nil }

func (r *AttachmentRepository) Create(_ context.Context, a *domain.Attachment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	a.ID = r.nextID
	a.CreatedAt = time.Now().UTC()
	r.attachments[a.ID] = *a
	return a.ID, nil
}

func (r *AttachmentRepository) Get(_ context.Context, id int64) (*domain.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.attachments[id]
	if !ok {
		return nil, fmt.Errorf("attachment %d: %w", id, repository.ErrNotFound)
	}
	return &a, nil
}

func (r *AttachmentRepository) ListByPost(_ context.Context, postID int64) ([]domain.Attachment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Attachment
	for _, a := range r.attachments {
		if a.PostID == postID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *AttachmentRepository) DeleteByPost(_ context.Context, postID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.attachments {
		if a.PostID == postID {
			delete(r.attachments, id)
		}
	}
	return nil
}
