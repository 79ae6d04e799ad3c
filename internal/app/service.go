// Package app is the application layer — the only component that references
// multiple domain components. It orchestrates all use cases.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/skoenig/inkpad/internal/crypto"
	"github.com/skoenig/inkpad/internal/domain"
	apperrors "github.com/skoenig/inkpad/internal/platform/errors"
)

type Service struct {
	users  domain.UserRepository
	posts  domain.PostRepository
	hasher crypto.Hasher
}

// NewService creates the application layer service.
func NewService(users domain.UserRepository, posts domain.PostRepository, hasher crypto.Hasher) *Service {
	return &Service{
		users:  users,
		posts:  posts,
		hasher: hasher,
	}
}

// Register validates and creates a new account. Validation is ordered and
// short-circuits: the credential store is not queried unless both fields are
// present. Usernames are case-sensitive and matched exactly.
func (s *Service) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" {
		return nil, apperrors.ValidationError("Username is required")
	}
	if password == "" {
		return nil, apperrors.ValidationError("Password is required")
	}

	_, err := s.users.GetByUsername(ctx, username)
	switch {
	case err == nil:
		return nil, apperrors.ValidationError(fmt.Sprintf("User %s is already registered", username))
	case !errors.Is(err, domain.ErrUserNotFound):
		return nil, apperrors.InternalError("failed to check username", err).WithField("username", username)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, apperrors.InternalError("failed to hash password", err)
	}

	user, err := s.users.Create(ctx, username, hash)
	if errors.Is(err, domain.ErrUsernameTaken) {
		// Lost a race with a concurrent registration; same outcome as the
		// lookup above.
		return nil, apperrors.ValidationError(fmt.Sprintf("User %s is already registered", username))
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to create user", err).WithField("username", username)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "username", username)
	return user, nil
}

// Authenticate checks credentials and returns the matching user. The error
// message distinguishes an unknown username from a wrong password, matching
// the forms this service backs.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperrors.ValidationError("Incorrect username")
	}
	if err != nil {
		return nil, apperrors.InternalError("failed to look up user", err).WithField("username", username)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, apperrors.ValidationError("Incorrect password")
	}

	return user, nil
}

// GetUserByID retrieves a user by internal ID. The current-user middleware
// calls this once per request to resolve the session.
func (s *Service) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// ListPosts returns all posts, newest first.
func (s *Service) ListPosts(ctx context.Context) ([]domain.Post, error) {
	return s.posts.List(ctx)
}

// GetPost retrieves a single post by ID.
func (s *Service) GetPost(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	return s.posts.GetByID(ctx, postID)
}

// CreatePost creates a post owned by authorID.
func (s *Service) CreatePost(ctx context.Context, authorID uuid.UUID, title, body string) (*domain.Post, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.ValidationError("Title is required")
	}

	post, err := s.posts.Create(ctx, authorID, title, body)
	if err != nil {
		return nil, apperrors.InternalError("failed to create post", err).WithField("author_id", authorID.String())
	}

	slog.InfoContext(ctx, "Post created", "post_id", post.ID, "author_id", authorID)
	return post, nil
}

// UpdatePost edits a post. Only the author may edit.
func (s *Service) UpdatePost(ctx context.Context, postID, editorID uuid.UUID, title, body string) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.ValidationError("Title is required")
	}

	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != editorID {
		return apperrors.ForbiddenError("only the author can edit this post").
			WithField("post_id", postID.String())
	}

	return s.posts.Update(ctx, postID, title, body)
}

// DeletePost removes a post. Only the author may delete.
func (s *Service) DeletePost(ctx context.Context, postID, editorID uuid.UUID) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != editorID {
		return apperrors.ForbiddenError("only the author can delete this post").
			WithField("post_id", postID.String())
	}

	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Post deleted", "post_id", postID, "editor_id", editorID)
	return nil
}
