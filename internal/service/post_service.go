package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"postboard/internal/auth"
	"postboard/internal/domain"
	"postboard/internal/repository"
	"postboard/internal/storage"
)

// PostService coordinates post level operations backed by repositories.
type PostService interface {
	Create(ctx context.Context, actor *auth.Identity, title, content string) (*domain.Post, error)
	Get(ctx context.Context, id int64) (*domain.Post, error)
	List(ctx context.Context, userID int64) ([]domain.Post, error)
	Update(ctx context.Context, actor *auth.Identity, id int64, title, content string) (*domain.Post, error)
	Delete(ctx context.Context, actor *auth.Identity, id int64) error
	AddAttachment(ctx context.Context, actor *auth.Identity, postID int64, upload AttachmentUpload) (*domain.Attachment, error)
	AttachmentURL(ctx context.Context, postID, attachmentID int64) (string, error)
	DeleteAllForUser(ctx context.Context, userID int64) error
}

// AttachmentUpload is a file received for a post.
type AttachmentUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StorageConfig points attachment operations at a bucket. A nil Service
// disables attachments.
type StorageConfig struct {
	Service    storage.Service
	Bucket     string
	KeyPrefix  string
	PresignTTL time.Duration
}

type postService struct {
	posts       repository.PostRepository
	attachments repository.AttachmentRepository
	storage     StorageConfig
	logger      logrus.FieldLogger
}

func NewPostService(posts repository.PostRepository, attachments repository.AttachmentRepository, store StorageConfig, logger logrus.FieldLogger) PostService {
	if store.PresignTTL <= 0 {
		store.PresignTTL = 15 * time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &postService{
		posts:       posts,
		attachments: attachments,
		storage:     store,
		logger:      logger.WithField("component", "posts"),
	}
}

func (s *postService) Create(ctx context.Context, actor *auth.Identity, title, content string) (*domain.Post, error) {
	if actor == nil {
		return nil, ErrForbidden
	}
	userID, err := ParseSubject(actor.Subject)
	if err != nil {
		return nil, ErrForbidden
	}
	title, content, err = validatePost(title, content)
	if err != nil {
		return nil, err
	}

	post := &domain.Post{
		UserID:  userID,
		Title:   title,
		Content: content,
	}
	if _, err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *postService) Get(ctx context.Context, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByPost(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Attachments = attachments
	return post, nil
}

func (s *postService) List(ctx context.Context, userID int64) ([]domain.Post, error) {
	posts, err := s.posts.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		attachments, err := s.attachments.ListByPost(ctx, posts[i].ID)
		if err != nil {
			return nil, err
		}
		posts[i].Attachments = attachments
	}
	return posts, nil
}

func (s *postService) Update(ctx context.Context, actor *auth.Identity, id int64, title, content string) (*domain.Post, error) {
	post, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	post.Title, post.Content, err = validatePost(title, content)
	if err != nil {
		return nil, err
	}
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *postService) Delete(ctx context.Context, actor *auth.Identity, id int64) error {
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.remove(ctx, id)
}

func (s *postService) DeleteAllForUser(ctx context.Context, userID int64) error {
	posts, err := s.posts.List(ctx, userID)
	if err != nil {
		return err
	}
	for i := range posts {
		if err := s.remove(ctx, posts[i].ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *postService) AddAttachment(ctx context.Context, actor *auth.Identity, postID int64, upload AttachmentUpload) (*domain.Attachment, error) {
	if s.storage.Service == nil || s.storage.Bucket == "" {
		return nil, ErrStorageUnavailable
	}
	if _, err := s.owned(ctx, actor, postID); err != nil {
		return nil, err
	}

	name := path.Base(strings.ReplaceAll(strings.TrimSpace(upload.Name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}

	key := path.Join(s.postPrefix(postID), uuid.NewString()+"-"+name)
	if err := s.storage.Service.Put(ctx, upload.Body, storage.PutOptions{
		Bucket:      s.storage.Bucket,
		Key:         key,
		ContentType: upload.ContentType,
		Size:        upload.Size,
	}); err != nil {
		return nil, err
	}

	attachment := &domain.Attachment{
		PostID:      postID,
		Key:         key,
		Name:        name,
		Size:        upload.Size,
		ContentType: upload.ContentType,
	}
	if _, err := s.attachments.Create(ctx, attachment); err != nil {
		return nil, err
	}
	return attachment, nil
}

func (s *postService) AttachmentURL(ctx context.Context, postID, attachmentID int64) (string, error) {
	if s.storage.Service == nil || s.storage.Bucket == "" {
		return "", ErrStorageUnavailable
	}
	attachment, err := s.attachments.Get(ctx, attachmentID)
	if err != nil {
		return "", err
	}
	if attachment.PostID != postID {
		return "", fmt.Errorf("attachment %d: %w", attachmentID, ErrNotFound)
	}
	return s.storage.Service.GetObjectURL(ctx, s.storage.Bucket, attachment.Key, s.storage.PresignTTL)
}

func (s *postService) owned(ctx context.Context, actor *auth.Identity, id int64) (*domain.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Owns(SubjectFor(post.UserID)) {
		return nil, ErrForbidden
	}
	return post, nil
}

// remove deletes a post, its attachment rows and its stored objects.
// Object deletion failures are logged, not returned.
func (s *postService) remove(ctx context.Context, id int64) error {
	attachments, err := s.attachments.ListByPost(ctx, id)
	if err != nil {
		return err
	}
	if len(attachments) > 0 && s.storage.Service != nil && s.storage.Bucket != "" {
		if err := s.storage.Service.DeletePrefix(ctx, s.storage.Bucket, s.postPrefix(id)+"/"); err != nil {
			s.logger.WithError(err).WithField("post_id", id).Warn("delete attachment objects")
		}
	}
	if err := s.attachments.DeleteByPost(ctx, id); err != nil {
		return err
	}
	return s.posts.Delete(ctx, id)
}

func (s *postService) postPrefix(postID int64) string {
	return path.Join(strings.Trim(s.storage.KeyPrefix, "/"), "posts", fmt.Sprint(postID))
}

func validatePost(title, content string) (string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(content) == "" {
		return "", "", fmt.Errorf("%w: content is required", ErrValidation)
	}
	return title, content, nil
}
