package httpserver

import (
	"errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/skoenig/inkpad/internal/domain"
	apperrors "github.com/skoenig/inkpad/internal/platform/errors"
)

func (s *Server) registerPostRoutes(csrfMiddleware echo.MiddlewareFunc) {
	s.echo.GET("/posts/create", s.handleCreateForm, s.requireAuth, csrfMiddleware)
	s.echo.POST("/posts/create", s.handleCreatePost, s.requireAuth, csrfMiddleware)
	s.echo.GET("/posts/:id/update", s.handleUpdateForm, s.requireAuth, csrfMiddleware)
	s.echo.POST("/posts/:id/update", s.handleUpdatePost, s.requireAuth, csrfMiddleware)
	s.echo.POST("/posts/:id/delete", s.handleDeletePost, s.requireAuth, csrfMiddleware)
}

type postForm struct {
	Title string `form:"title"`
	Body  string `form:"body"`
}

func (s *Server) handleIndex(c echo.Context) error {
	posts, err := s.app.ListPosts(c.Request().Context())
	if err != nil {
		return apperrors.InternalError("failed to list posts", err)
	}

	return s.renderTemplate(c, "index.html", map[string]any{
		"Posts": posts,
	})
}

func (s *Server) handleCreateForm(c echo.Context) error {
	return s.renderTemplate(c, "create.html", nil)
}

func (s *Server) handleCreatePost(c echo.Context) error {
	var form postForm
	if err := c.Bind(&form); err != nil {
		return apperrors.ValidationError("invalid form submission")
	}

	user := currentUser(c)
	_, err := s.app.CreatePost(c.Request().Context(), user.ID, form.Title, form.Body)
	if msg, ok := apperrors.ValidationMessage(err); ok {
		return s.renderTemplate(c, "create.html", map[string]any{
			"Error": msg,
			"Title": form.Title,
			"Body":  form.Body,
		})
	}
	if err != nil {
		return err
	}

	return redirect(c, "/")
}

func (s *Server) handleUpdateForm(c echo.Context) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	post, err := s.app.GetPost(c.Request().Context(), postID)
	if errors.Is(err, domain.ErrPostNotFound) {
		return apperrors.NotFoundError("post not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load post", err).WithField("post_id", postID.String())
	}

	if post.AuthorID != currentUser(c).ID {
		return apperrors.ForbiddenError("only the author can edit this post")
	}

	return s.renderTemplate(c, "update.html", map[string]any{
		"Post":  post,
		"Title": post.Title,
		"Body":  post.Body,
	})
}

func (s *Server) handleUpdatePost(c echo.Context) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	var form postForm
	if err := c.Bind(&form); err != nil {
		return apperrors.ValidationError("invalid form submission")
	}

	err = s.app.UpdatePost(c.Request().Context(), postID, currentUser(c).ID, form.Title, form.Body)
	if msg, ok := apperrors.ValidationMessage(err); ok {
		return s.renderTemplate(c, "update.html", map[string]any{
			"Error": msg,
			"Post":  map[string]any{"ID": postID},
			"Title": form.Title,
			"Body":  form.Body,
		})
	}
	if errors.Is(err, domain.ErrPostNotFound) {
		return apperrors.NotFoundError("post not found")
	}
	if err != nil {
		return err
	}

	return redirect(c, "/")
}

func (s *Server) handleDeletePost(c echo.Context) error {
	postID, err := parsePostID(c)
	if err != nil {
		return err
	}

	err = s.app.DeletePost(c.Request().Context(), postID, currentUser(c).ID)
	if errors.Is(err, domain.ErrPostNotFound) {
		return apperrors.NotFoundError("post not found")
	}
	if err != nil {
		return err
	}

	return redirect(c, "/")
}

func parsePostID(c echo.Context) (uuid.UUID, error) {
	postID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.NotFoundError("post not found")
	}
	return postID, nil
}
