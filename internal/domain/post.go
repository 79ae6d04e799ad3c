package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID
	AuthorID  uuid.UUID
	Title     string
	Body      string
	CreatedAt time.Time
	UpdatedAt time.Time

	// AuthorUsername is populated on reads that join the users table.
	AuthorUsername string
}

type PostRepository interface {
	// List returns all posts, newest first, with AuthorUsername populated.
	List(ctx context.Context) ([]Post, error)
	GetByID(ctx context.Context, postID uuid.UUID) (*Post, error)
	Create(ctx context.Context, authorID uuid.UUID, title, body string) (*Post, error)
	Update(ctx context.Context, postID uuid.UUID, title, body string) error
	Delete(ctx context.Context, postID uuid.UUID) error
}
