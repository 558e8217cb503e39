package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

const createAttachmentsTable = `
CREATE TABLE IF NOT EXISTS attachments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	object_key TEXT NOT NULL,
	name TEXT NOT NULL,
	size INTEGER NOT NULL,
	content_type TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_attachments_post_id ON attachments(post_id);
`

type AttachmentRepository struct {
	db *sql.DB
}

func NewAttachmentRepository(db *sql.DB) repository.AttachmentRepository {
	return &AttachmentRepository{db: db}
}

func (r *AttachmentRepository) Init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, createAttachmentsTable); err != nil {
		return fmt.Errorf("create attachments table: %w", err)
	}
	return nil
}

func (r *AttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) (int64, error) {
	attachment.CreatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
INSERT INTO attachments (post_id, object_key, name, size, content_type, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		attachment.PostID,
		attachment.Key,
		attachment.Name,
		attachment.Size,
		attachment.ContentType,
		attachment.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("insert attachment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("attachment last insert id: %w", err)
	}
	attachment.ID = id
	return id, nil
}

func (r *AttachmentRepository) Get(ctx context.Context, id int64) (*domain.Attachment, error) {
	var a domain.Attachment
	err := r.db.QueryRowContext(ctx, `
SELECT id, post_id, object_key, name, size, content_type, created_at
FROM attachments
WHERE id=?`, id).Scan(&a.ID, &a.PostID, &a.Key, &a.Name, &a.Size, &a.ContentType, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("attachment %d: %w", id, repository.ErrNotFound)
		}
		return nil, fmt.Errorf("scan attachment: %w", err)
	}
	return &a, nil
}

func (r *AttachmentRepository) ListByPost(ctx context.Context, postID int64) ([]domain.Attachment, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, post_id, object_key, name, size, content_type, created_at
FROM attachments
WHERE post_id=?
ORDER BY id ASC`, postID)
	if err != nil {
		return nil, fmt.Errorf("query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []domain.Attachment
	for rows.Next() {
		var a domain.Attachment
		if err := rows.Scan(&a.ID, &a.PostID, &a.Key, &a.Name, &a.Size, &a.ContentType, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan attachment: %w", err)
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}

func (r *AttachmentRepository) DeleteByPost(ctx context.Context, postID int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM attachments WHERE post_id=?`, postID); err != nil {
		return fmt.Errorf("delete attachments: %w", err)
	}
	return nil
}
