package httpserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/skoenig/inkpad/internal/platform/errors"
)

func (s *Server) registerAuthRoutes(csrfMiddleware echo.MiddlewareFunc) {
	s.echo.GET("/auth/register", s.handleRegisterForm, csrfMiddleware)
	s.echo.POST("/auth/register", s.handleRegister, csrfMiddleware)
	s.echo.GET("/auth/login", s.handleLoginForm, csrfMiddleware)
	s.echo.POST("/auth/login", s.handleLogin, csrfMiddleware)
	s.echo.GET("/auth/logout", s.handleLogout)
}

// credentialsForm is the typed shape of both auth forms. Missing fields bind
// to empty strings; the service layer decides what that means.
type credentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func (s *Server) handleRegisterForm(c echo.Context) error {
	if currentUser(c) != nil {
		return redirect(c, "/")
	}
	return s.renderTemplate(c, "register.html", nil)
}

func (s *Server) handleRegister(c echo.Context) error {
	var form credentialsForm
	if err := c.Bind(&form); err != nil {
		return apperrors.ValidationError("invalid form submission")
	}

	_, err := s.app.Register(c.Request().Context(), form.Username, form.Password)
	if msg, ok := apperrors.ValidationMessage(err); ok {
		// Re-render the form with the error; the attempted username is
		// preserved for re-display.
		return s.renderTemplate(c, "register.html", map[string]any{
			"Error":    msg,
			"Username": form.Username,
		})
	}
	if err != nil {
		return err
	}

	return redirect(c, "/auth/login")
}

func (s *Server) handleLoginForm(c echo.Context) error {
	if currentUser(c) != nil {
		return redirect(c, "/")
	}
	return s.renderTemplate(c, "login.html", nil)
}

func (s *Server) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	var form credentialsForm
	if err := c.Bind(&form); err != nil {
		return apperrors.ValidationError("invalid form submission")
	}

	user, err := s.app.Authenticate(ctx, form.Username, form.Password)
	if msg, ok := apperrors.ValidationMessage(err); ok {
		// The session is untouched on any failure path.
		return s.renderTemplate(c, "login.html", map[string]any{
			"Error":    msg,
			"Username": form.Username,
		})
	}
	if err != nil {
		return err
	}

	// Regenerate the session after successful authentication so a session ID
	// fixated before login cannot be replayed afterward. The old payload is
	// discarded entirely; user_id is the only value the new session carries.
	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		// Get still hands back a usable blank session on decode failure.
		slog.Warn("Discarding undecodable session during login", "error", err)
	}
	session.Options.MaxAge = -1 // Mark old session for deletion
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to invalidate old session", err)
	}

	// New decodes any incoming cookie into the fresh session, so the values
	// map is reset explicitly; user_id is the only value the session carries.
	session, _ = s.sessionStore.New(c.Request(), sessionName)
	session.Values = map[any]any{sessionKeyUserID: user.ID.String()}
	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save session", err)
	}

	slog.InfoContext(ctx, "User logged in", "user_id", user.ID, "username", user.Username)

	return redirect(c, "/")
}

// handleLogout clears the session unconditionally; it is safe to call when
// already anonymous.
func (s *Server) handleLogout(c echo.Context) error {
	ctx := c.Request().Context()

	session, err := s.sessionStore.Get(c.Request(), sessionName)
	if err != nil {
		// A tampered cookie still yields a blank session we can expire.
		slog.Warn("Discarding undecodable session during logout", "error", err)
	}
	session.Options.MaxAge = -1

	if err := session.Save(c.Request(), c.Response().Writer); err != nil {
		return apperrors.InternalError("failed to save logout session", err)
	}

	if user := currentUser(c); user != nil {
		slog.InfoContext(ctx, "User logged out", "user_id", user.ID)
	}

	return redirect(c, "/")
}

func redirect(c echo.Context, target string) error {
	if err := c.Redirect(http.StatusFound, target); err != nil {
		return fmt.Errorf("failed to redirect: %w", err)
	}
	return nil
}
