package httpserver

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/skoenig/inkpad/internal/domain"
	"github.com/skoenig/inkpad/internal/platform/config"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockAppService struct {
	registerFn     func(ctx context.Context, username, password string) (*domain.User, error)
	authenticateFn func(ctx context.Context, username, password string) (*domain.User, error)
	getUserByIDFn  func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	listPostsFn    func(ctx context.Context) ([]domain.Post, error)
	getPostFn      func(ctx context.Context, postID uuid.UUID) (*domain.Post, error)
	createPostFn   func(ctx context.Context, authorID uuid.UUID, title, body string) (*domain.Post, error)
	updatePostFn   func(ctx context.Context, postID, editorID uuid.UUID, title, body string) error
	deletePostFn   func(ctx context.Context, postID, editorID uuid.UUID) error
}

func (m *mockAppService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, username, password)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAppService) GetUserByID(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, userID)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockAppService) ListPosts(ctx context.Context) ([]domain.Post, error) {
	if m.listPostsFn != nil {
		return m.listPostsFn(ctx)
	}
	return nil, nil
}

func (m *mockAppService) GetPost(ctx context.Context, postID uuid.UUID) (*domain.Post, error) {
	if m.getPostFn != nil {
		return m.getPostFn(ctx, postID)
	}
	return nil, domain.ErrPostNotFound
}

func (m *mockAppService) CreatePost(ctx context.Context, authorID uuid.UUID, title, body string) (*domain.Post, error) {
	if m.createPostFn != nil {
		return m.createPostFn(ctx, authorID, title, body)
	}
	return &domain.Post{ID: uuid.New(), AuthorID: authorID, Title: title, Body: body}, nil
}

func (m *mockAppService) UpdatePost(ctx context.Context, postID, editorID uuid.UUID, title, body string) error {
	if m.updatePostFn != nil {
		return m.updatePostFn(ctx, postID, editorID, title, body)
	}
	return nil
}

func (m *mockAppService) DeletePost(ctx context.Context, postID, editorID uuid.UUID) error {
	if m.deletePostFn != nil {
		return m.deletePostFn(ctx, postID, editorID)
	}
	return nil
}

// --- Test helpers ---

func newTestServer(t *testing.T, app appService) *Server {
	t.Helper()

	tmpl := template.Must(template.New("index.html").Parse(`Index {{range .Posts}}{{.Title}};{{end}}`))
	template.Must(tmpl.New("register.html").Parse(`Register {{.Error}} [{{.Username}}]`))
	template.Must(tmpl.New("login.html").Parse(`Login {{.Error}} [{{.Username}}]`))
	template.Must(tmpl.New("create.html").Parse(`Create {{.Error}} [{{.Title}}]`))
	template.Must(tmpl.New("update.html").Parse(`Update {{.Error}} [{{.Title}}]`))
	template.Must(tmpl.New("error.html").Parse(`Error {{.Status}} {{.Message}}`))

	store := sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!!"))
	store.Options = &sessions.Options{
		Path:   "/",
		MaxAge: 3600,
	}

	e := echo.New()

	srv := &Server{
		echo:         e,
		config:       &config.Config{AppEnv: "test", SessionMaxAge: time.Hour},
		app:          app,
		sessionStore: store,
		templates:    tmpl,
		startTime:    time.Now(),
	}

	// Register routes so endpoints are available for testing
	srv.registerRoutes()

	return srv
}

// callHandler wraps a handler with the error middleware, matching production behavior
func callHandler(srv *Server, handler echo.HandlerFunc, c echo.Context) error {
	return srv.errorHandlingMiddleware()(handler)(c)
}

func newFormRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}

func setSessionUserID(t *testing.T, srv *Server, req *http.Request, rec *httptest.ResponseRecorder, userID uuid.UUID) {
	t.Helper()
	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUserID] = userID.String()
	require.NoError(t, session.Save(req, rec))
}

// copyCookies carries the recorder's Set-Cookie headers over to a follow-up
// request. Later headers override earlier ones with the same name, matching
// how a browser updates its jar (login rewrites the session cookie twice).
func copyCookies(rec *httptest.ResponseRecorder, req *http.Request) {
	latest := map[string]*http.Cookie{}
	var order []string
	for _, cookie := range rec.Result().Cookies() {
		if _, ok := latest[cookie.Name]; !ok {
			order = append(order, cookie.Name)
		}
		latest[cookie.Name] = cookie
	}
	for _, name := range order {
		req.AddCookie(latest[name])
	}
}
