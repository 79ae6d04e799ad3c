package httpserver

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/skoenig/inkpad/internal/domain"
	"github.com/skoenig/inkpad/internal/platform/correlation"
	apperrors "github.com/skoenig/inkpad/internal/platform/errors"
)

// ctxKeyUser is the echo context key carrying the request's resolved user.
const ctxKeyUser = "currentUser"

func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := correlation.WithID(c.Request().Context(), correlation.NewID())
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// loadCurrentUser resolves the session to a user exactly once per request,
// before any handler runs. Handlers and requireAuth read the result from the
// echo context and never touch the store again.
func (s *Server) loadCurrentUser(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session, err := s.sessionStore.Get(c.Request(), sessionName)
		if err != nil {
			// Tampered or stale cookie: treat the request as anonymous.
			return next(c)
		}

		raw, ok := session.Values[sessionKeyUserID].(string)
		if !ok {
			return next(c)
		}

		userID, err := uuid.Parse(raw)
		if err != nil {
			return next(c)
		}

		user, err := s.app.GetUserByID(c.Request().Context(), userID)
		if errors.Is(err, domain.ErrUserNotFound) {
			// The account is gone; drop the stale session.
			slog.Warn("Session references unknown user, invalidating", "user_id", userID)
			session.Options.MaxAge = -1
			_ = session.Save(c.Request(), c.Response().Writer)
			return next(c)
		}
		if err != nil {
			return apperrors.InternalError("failed to resolve session user", err).WithField("user_id", userID.String())
		}

		c.Set(ctxKeyUser, user)
		return next(c)
	}
}

// currentUser returns the authenticated user for this request, or nil when
// the request is anonymous.
func currentUser(c echo.Context) *domain.User {
	user, _ := c.Get(ctxKeyUser).(*domain.User)
	return user
}

// requireAuth guards a handler: anonymous requests are redirected to the
// login page and the handler is never invoked.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if currentUser(c) == nil {
			return c.Redirect(http.StatusFound, "/auth/login")
		}
		return next(c)
	}
}

func (s *Server) errorHandlingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			if _, ok := errors.AsType[*echo.HTTPError](err); ok {
				return err
			}

			structuredErr := apperrors.AsStructuredError(err)
			logError(c, structuredErr)

			return s.renderErrorPage(c, structuredErr)
		}
	}
}

func (s *Server) renderErrorPage(c echo.Context, structuredErr *apperrors.Error) error {
	status := structuredErr.HTTPStatus()
	message := structuredErr.Message
	if structuredErr.Type == apperrors.TypeInternal {
		// Never leak internals to the page.
		message = "Something went wrong"
	}

	data := map[string]any{
		"Status":      status,
		"Message":     message,
		"CurrentUser": currentUser(c),
	}

	var buf bytes.Buffer
	if renderErr := s.templates.ExecuteTemplate(&buf, "error.html", data); renderErr != nil {
		slog.Error("Error page rendering failed", "error", renderErr)
		if err := c.String(status, message); err != nil {
			return fmt.Errorf("failed to write error response: %w", err)
		}
		return nil
	}
	if err := c.HTMLBlob(status, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write error response: %w", err)
	}
	return nil
}

func logError(c echo.Context, err *apperrors.Error) {
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}

	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}

	if user := currentUser(c); user != nil {
		attrs = append(attrs, "user_id", user.ID)
	}

	switch err.Type {
	case apperrors.TypeValidation:
		slog.Info("Validation error", attrs...)
	case apperrors.TypeNotFound:
		slog.Info("Not found", attrs...)
	case apperrors.TypeForbidden:
		slog.Warn("Forbidden", attrs...)
	case apperrors.TypeConflict:
		slog.Warn("Conflict", attrs...)
	case apperrors.TypeInternal:
		if err.Cause != nil {
			attrs = append(attrs, "cause", err.Cause)
		}
		slog.Error("Internal error", attrs...)
	default:
		slog.Error("Unknown error type", attrs...)
	}
}
