package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/logging"
	"github.com/dmitrijs2005/taskboard/internal/server/auth"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskboard/internal/server/services"
	"github.com/dmitrijs2005/taskboard/internal/server/viewcache"
	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
	client *http.Client
	store  *repomanager.MemoryStore
}

func newTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	store := repomanager.NewMemoryStore()
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	as := services.NewAuthService(store, hasher, logging.Nop{}, 0)
	ts := services.NewTaskService(store, viewcache.NewMemory(), logging.Nop{})

	if opts.SessionSecret == "" {
		opts.SessionSecret = "test-secret-test-secret-test-sec"
	}
	srv := NewServer("", logging.Nop{}, as, ts, opts)

	hs := httptest.NewServer(srv.Routes())
	t.Cleanup(hs.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testServer{Server: hs, client: &http.Client{Jar: jar}, store: store}
}

func (ts *testServer) form(t *testing.T, method, path string, v url.Values) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(v.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return ts.send(t, req)
}

func (ts *testServer) json(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var r io.Reader = http.NoBody
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, ts.URL+path, r)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	return ts.send(t, req)
}

func (ts *testServer) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, ts.URL+path, nil)
	require.NoError(t, err)
	return ts.send(t, req)
}

func (ts *testServer) send(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	resp, err := ts.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "$2a$", "response leaks a password hash")
	assert.NotContains(t, string(raw), "passwordHash")

	body := map[string]any{}
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func (ts *testServer) signupAndLogin(t *testing.T, email, name string) {
	t.Helper()
	code, _ := ts.form(t, http.MethodPost, "/api/auth/signup", url.Values{
		"email": {email}, "password": {"password1"}, "name": {name},
	})
	require.Equal(t, http.StatusCreated, code)

	code, body := ts.form(t, http.MethodPost, "/api/auth/login", url.Values{
		"email": {email}, "password": {"password1"},
	})
	require.Equal(t, http.StatusOK, code, body)
}

func TestAuthFlow(t *testing.T) {
	ts := newTestServer(t, Options{})

	code, body := ts.form(t, http.MethodPost, "/api/auth/signup", url.Values{
		"email": {"ann@example.com"}, "password": {"password1"}, "name": {"Ann"},
	})
	require.Equal(t, http.StatusCreated, code)
	assert.Nil(t, body["error"])
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["message"])

	// signup does not log in
	_, body = ts.get(t, "/api/auth/me")
	assert.Nil(t, body["user"])

	code, body = ts.form(t, http.MethodPost, "/api/auth/signup", url.Values{
		"email": {"ann@example.com"}, "password": {"other"}, "name": {"Ann 2"},
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, common.ErrConflict.Error(), body["error"])
	assert.Equal(t, false, body["success"])

	_, wrongPassword := ts.form(t, http.MethodPost, "/api/auth/login", url.Values{
		"email": {"ann@example.com"}, "password": {"nope"},
	})
	code, unknownEmail := ts.form(t, http.MethodPost, "/api/auth/login", url.Values{
		"email": {"nobody@example.com"}, "password": {"nope"},
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, wrongPassword, unknownEmail)

	code, body = ts.json(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "ann@example.com", "password": "password1",
	})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	_, body = ts.get(t, "/api/auth/me")
	me, ok := body["user"].(map[string]any)
	require.True(t, ok, body)
	assert.Equal(t, "ann@example.com", me["email"])
	assert.Equal(t, "Ann", me["name"])

	code, body = ts.json(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	_, body = ts.get(t, "/api/auth/me")
	assert.Nil(t, body["user"])

	code, body = ts.get(t, "/api/tasks")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, common.ErrNotAuthenticated.Error(), body["error"])

	// logging out twice is fine
	code, _ = ts.json(t, http.MethodPost, "/api/auth/logout", nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestSignup_Validation(t *testing.T) {
	ts := newTestServer(t, Options{})

	code, body := ts.form(t, http.MethodPost, "/api/auth/signup", url.Values{
		"email": {"not-an-email"}, "password": {"password1"}, "name": {"Ann"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body["error"], "email")
	assert.Equal(t, false, body["success"])
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.signupAndLogin(t, "ann@example.com", "Ann")

	code, body := ts.form(t, http.MethodPost, "/api/tasks", url.Values{
		"name": {"Write report"}, "priority": {"high"}, "status": {"todo"},
	})
	require.Equal(t, http.StatusCreated, code, body)
	assert.Nil(t, body["error"])
	task := body["task"].(map[string]any)
	id := int64(task["id"].(float64))
	path := "/api/tasks/" + jsonID(id)

	_, body = ts.get(t, "/api/tasks")
	list := body["tasks"].([]any)
	require.Len(t, list, 1)
	first := list[0].(map[string]any)
	assert.Equal(t, "Write report", first["name"])
	assert.Nil(t, first["assigneeId"])
	assert.NotNil(t, first["creatorId"])

	code, body = ts.json(t, http.MethodPatch, path+"/status", map[string]any{"status": "bogus"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, false, body["success"])

	_, body = ts.get(t, path)
	assert.Equal(t, "todo", body["task"].(map[string]any)["status"])

	for _, status := range []string{"in_progress", "review", "done", "todo", "done"} {
		code, body = ts.form(t, http.MethodPatch, path+"/status", url.Values{"status": {status}})
		require.Equal(t, http.StatusOK, code, body)
		assert.Equal(t, status, body["task"].(map[string]any)["status"])
	}

	code, body = ts.json(t, http.MethodPut, path, map[string]any{
		"description": "quarterly", "dueDate": "2025-01-02", "assigneeId": nil,
	})
	require.Equal(t, http.StatusOK, code, body)
	updated := body["task"].(map[string]any)
	assert.Equal(t, "quarterly", updated["description"])
	assert.Equal(t, "Write report", updated["name"])
	assert.NotNil(t, updated["dueDate"])

	code, _ = ts.get(t, "/api/tasks?status=done")
	assert.Equal(t, http.StatusOK, code)

	code, _ = ts.get(t, "/api/tasks?status=later")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = ts.json(t, http.MethodDelete, path, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["success"])

	code, body = ts.json(t, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, common.ErrNotFound.Error(), body["error"])

	_, body = ts.get(t, "/api/tasks")
	assert.Empty(t, body["tasks"])
}

func TestCreateTask_RejectsBadFields(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.signupAndLogin(t, "ann@example.com", "Ann")

	cases := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"missing name", map[string]any{"priority": "high"}, "name"},
		{"bad priority", map[string]any{"name": "x", "priority": "urgent"}, "priority"},
		{"bad due date", map[string]any{"name": "x", "dueDate": "tomorrow"}, "dueDate"},
		{"bad assignee", map[string]any{"name": "x", "assigneeId": "abc"}, "assigneeId"},
		{"nested value", map[string]any{"name": map[string]any{"en": "x"}}, "name"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := ts.json(t, http.MethodPost, "/api/tasks", tc.body)
			assert.Equal(t, http.StatusBadRequest, code)
			assert.Contains(t, body["error"], tc.field)
		})
	}

	_, body := ts.get(t, "/api/tasks")
	assert.Empty(t, body["tasks"])
}

func TestViews(t *testing.T) {
	ts := newTestServer(t, Options{})
	ts.signupAndLogin(t, "ann@example.com", "Ann")

	for _, name := range []string{"a", "b", "c"} {
		code, _ := ts.form(t, http.MethodPost, "/api/tasks", url.Values{"name": {name}})
		require.Equal(t, http.StatusCreated, code)
	}

	code, body := ts.get(t, "/api/board")
	require.Equal(t, http.StatusOK, code)
	columns := body["board"].(map[string]any)["columns"].([]any)
	require.Len(t, columns, 4)
	todo := columns[0].(map[string]any)
	assert.Equal(t, "todo", todo["status"])
	assert.Len(t, todo["tasks"], 3)

	code, body = ts.get(t, "/api/dashboard")
	require.Equal(t, http.StatusOK, code)
	assert.EqualValues(t, 3, body["dashboard"].(map[string]any)["total"])

	_, first := ts.get(t, "/api/stats/priority")
	_, second := ts.get(t, "/api/stats/priority")
	assert.Equal(t, first, second)

	code, _ = ts.get(t, "/api/stats/colour")
	assert.Equal(t, http.StatusNotFound, code)

	_, body = ts.get(t, "/api/users")
	users := body["users"].([]any)
	require.Len(t, users, 1)
	ann := users[0].(map[string]any)
	assert.Equal(t, "Ann", ann["name"])
	assert.NotContains(t, ann, "email")
}

func TestConcurrentSessionsForOneUser(t *testing.T) {
	a := newTestServer(t, Options{})
	a.signupAndLogin(t, "ann@example.com", "Ann")

	// a second browser against the same server
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	b := &testServer{Server: a.Server, client: &http.Client{Jar: jar}}
	code, _ := b.form(t, http.MethodPost, "/api/auth/login", url.Values{
		"email": {"ann@example.com"}, "password": {"password1"},
	})
	require.Equal(t, http.StatusOK, code)

	codeA, _ := a.get(t, "/api/tasks")
	codeB, _ := b.get(t, "/api/tasks")
	assert.Equal(t, http.StatusOK, codeA)
	assert.Equal(t, http.StatusOK, codeB)
}

func TestTamperedCookieIsAnonymous(t *testing.T) {
	ts := newTestServer(t, Options{})

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/tasks", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: common.SessionCookieName, Value: "forged"})

	code, body := ts.send(t, req)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, common.ErrNotAuthenticated.Error(), body["error"])
}

func TestSessionCookieAttributes(t *testing.T) {
	ts := newTestServer(t, Options{CookieSecure: true})
	code, _ := ts.form(t, http.MethodPost, "/api/auth/signup", url.Values{
		"email": {"ann@example.com"}, "password": {"password1"}, "name": {"Ann"},
	})
	require.Equal(t, http.StatusCreated, code)

	resp, err := http.PostForm(ts.URL+"/api/auth/login", url.Values{
		"email": {"ann@example.com"}, "password": {"password1"},
	})
	require.NoError(t, err)
	defer resp.Body.Close()

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == common.SessionCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
}

func TestLoginRateLimit(t *testing.T) {
	ts := newTestServer(t, Options{LoginLimiter: NewLocalLimiter(2)})

	attempt := func() (*http.Response, error) {
		return ts.client.PostForm(ts.URL+"/api/auth/login", url.Values{
			"email": {"ann@example.com"}, "password": {"nope"},
		})
	}

	for i := 0; i < 2; i++ {
		resp, err := attempt()
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.NotEmpty(t, resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, err := attempt()
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestLoginRateLimit_IgnoresForwardedForByDefault(t *testing.T) {
	ts := newTestServer(t, Options{LoginLimiter: NewLocalLimiter(2)})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/auth/login",
			strings.NewReader(url.Values{"email": {"ann@example.com"}, "password": {"nope"}}.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
		req.Header.Set("X-Real-IP", fmt.Sprintf("198.51.100.%d", i+1))

		resp, err := ts.client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}

	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestLoginRateLimit_TrustProxyKeysOnForwardedFor(t *testing.T) {
	ts := newTestServer(t, Options{LoginLimiter: NewLocalLimiter(1), TrustProxy: true})

	login := func(ip string) int {
		req, err := http.NewRequest(http.MethodPost, ts.URL+"/api/auth/login",
			strings.NewReader(url.Values{"email": {"ann@example.com"}, "password": {"nope"}}.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", ip)
		resp, err := ts.client.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusUnauthorized, login("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, login("203.0.113.1"))
	assert.Equal(t, http.StatusUnauthorized, login("203.0.113.2"))
}

type tokenRecorder struct {
	AuthService
	tokens []string
}

func (a *tokenRecorder) Login(ctx context.Context, in services.LoginInput) (string, *models.User, error) {
	token, u, err := a.AuthService.Login(ctx, in)
	if err == nil {
		a.tokens = append(a.tokens, token)
	}
	return token, u, err
}

// unsavableStore signs cookies like the real store but cannot write them.
type unsavableStore struct {
	*sessions.CookieStore
}

func (s unsavableStore) New(r *http.Request, name string) (*sessions.Session, error) {
	sess := sessions.NewSession(s, name)
	opts := *s.CookieStore.Options
	sess.Options = &opts
	sess.IsNew = true
	return sess, nil
}

func (unsavableStore) Save(*http.Request, http.ResponseWriter, *sessions.Session) error {
	return errors.New("securecookie: the value is too long")
}

func TestLogin_CookieFailureDropsSession(t *testing.T) {
	store := repomanager.NewMemoryStore()
	hasher, err := auth.NewHasher(bcrypt.MinCost)
	require.NoError(t, err)
	as := services.NewAuthService(store, hasher, logging.Nop{}, 0)
	rec := &tokenRecorder{AuthService: as}

	opts := Options{SessionSecret: "test-secret-test-secret-test-sec"}
	srv := NewServer("", logging.Nop{}, rec, services.NewTaskService(store, viewcache.Nop{}, logging.Nop{}), opts)
	srv.sessions = unsavableStore{newSessionStore(opts)}

	hs := httptest.NewServer(srv.Routes())
	t.Cleanup(hs.Close)

	resp, err := http.PostForm(hs.URL+"/api/auth/signup", url.Values{
		"email": {"ann@example.com"}, "password": {"password1"}, "name": {"Ann"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = http.PostForm(hs.URL+"/api/auth/login", url.Values{
		"email": {"ann@example.com"}, "password": {"password1"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Empty(t, resp.Cookies())

	require.Len(t, rec.tokens, 1)
	assert.Nil(t, as.CurrentUser(context.Background(), rec.tokens[0]))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, Options{})
	code, body := ts.get(t, "/healthz")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	down := newTestServer(t, Options{Health: func(context.Context) error { return errors.New("dial tcp: refused") }})
	code, body = down.get(t, "/healthz")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, common.ErrStorage.Error(), body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, Options{})
	_, _ = ts.get(t, "/healthz")

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "taskboard_http_requests_total")
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
