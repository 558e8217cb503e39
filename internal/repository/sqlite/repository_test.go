package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postboard/internal/domain"
	"postboard/internal/repository"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	require.NoError(t, NewUserRepository(db).Init(ctx))
	require.NoError(t, NewPostRepository(db).Init(ctx))
	require.NoError(t, NewAttachmentRepository(db).Init(ctx))
	return db
}

func TestUserRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	ctx := context.Background()

	alice := &domain.User{Username: "alice", Email: "alice@example.com", FullName: "Alice A", PasswordHash: "$2a$04$hash"}
	id, err := users.Create(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
	assert.False(t, alice.CreatedAt.IsZero())

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, "$2a$04$hash", got.PasswordHash)

	_, err = users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "x"})
	assert.ErrorIs(t, err, repository.ErrConflict)

	got.FullName = "Alice Anderson"
	require.NoError(t, users.Update(ctx, got))
	require.NoError(t, users.UpdatePasswordHash(ctx, id, "$2a$04$other"))

	byID, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Alice Anderson", byID.FullName)
	assert.Equal(t, "$2a$04$other", byID.PasswordHash)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, users.Delete(ctx, id))
	_, err = users.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, users.Delete(ctx, id), repository.ErrNotFound)
	assert.ErrorIs(t, users.UpdatePasswordHash(ctx, id, "x"), repository.ErrNotFound)
}

func TestUserRepository_UpdateConflict(t *testing.T) {
	users := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	_, err := users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	bob := &domain.User{Username: "bob", PasswordHash: "x"}
	_, err = users.Create(ctx, bob)
	require.NoError(t, err)

	bob.Username = "alice"
	assert.ErrorIs(t, users.Update(ctx, bob), repository.ErrConflict)
}

func TestUserRepository_Search(t *testing.T) {
	users := NewUserRepository(openTestDB(t))
	ctx := context.Background()

	for _, u := range []domain.User{
		{Username: "Alice", Email: "alice@example.com"},
		{Username: "alicia", Email: "alicia@corp.test"},
		{Username: "bob", Email: "bob@example.com"},
	} {
		u := u
		u.PasswordHash = "x"
		_, err := users.Create(ctx, &u)
		require.NoError(t, err)
	}

	tests := []struct {
		name   string
		filter repository.UserFilter
		want   []string
	}{
		{name: "no filter", filter: repository.UserFilter{}, want: []string{"Alice", "alicia", "bob"}},
		{name: "case insensitive username", filter: repository.UserFilter{Username: "ALI"}, want: []string{"Alice", "alicia"}},
		{name: "email", filter: repository.UserFilter{Email: "example"}, want: []string{"Alice", "bob"}},
		{name: "both", filter: repository.UserFilter{Username: "ali", Email: "corp"}, want: []string{"alicia"}},
		{name: "no match", filter: repository.UserFilter{Username: "zed"}, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := users.Search(ctx, tt.filter)
			require.NoError(t, err)
			var names []string
			for _, u := range found {
				names = append(names, u.Username)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestPostRepository_CRUD(t *testing.T) {
	db := openTestDB(t)
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	attachments := NewAttachmentRepository(db)
	ctx := context.Background()

	aliceID, err := users.Create(ctx, &domain.User{Username: "alice", PasswordHash: "x"})
	require.NoError(t, err)
	bobID, err := users.Create(ctx, &domain.User{Username: "bob", PasswordHash: "x"})
	require.NoError(t, err)

	first := &domain.Post{UserID: aliceID, Title: "hello", Content: "world"}
	_, err = posts.Create(ctx, first)
	require.NoError(t, err)
	_, err = posts.Create(ctx, &domain.Post{UserID: bobID, Title: "bob's", Content: "post"})
	require.NoError(t, err)

	all, err := posts.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := posts.List(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "hello", mine[0].Title)

	first.Title = "hello again"
	require.NoError(t, posts.Update(ctx, first))
	got, err := posts.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello again", got.Title)
	assert.Equal(t, aliceID, got.UserID)

	_, err = attachments.Create(ctx, &domain.Attachment{PostID: first.ID, Key: "posts/1/a.txt", Name: "a.txt", Size: 3, ContentType: "text/plain"})
	require.NoError(t, err)
	list, err := attachments.ListByPost(ctx, first.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	fetched, err := attachments.Get(ctx, list[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "a.txt", fetched.Name)

	require.NoError(t, attachments.DeleteByPost(ctx, first.ID))
	require.NoError(t, posts.Delete(ctx, first.ID))
	_, err = posts.Get(ctx, first.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, posts.Delete(ctx, first.ID), repository.ErrNotFound)

	require.NoError(t, posts.DeleteByUser(ctx, bobID))
	all, err = posts.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUserRepository_InitUpgradesOldSchema(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "old.db"))
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	_, err = db.ExecContext(ctx, `
CREATE TABLE users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`)
	require.NoError(t, err)

	users := NewUserRepository(db)
	require.NoError(t, users.Init(ctx))

	_, err = users.Create(ctx, &domain.User{Username: "legacy", Email: "l@example.com", PasswordHash: "x"})
	require.NoError(t, err)
	got, err := users.GetByUsername(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, "l@example.com", got.Email)
}
