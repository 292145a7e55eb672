package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/taskboard/internal/common"
	"github.com/dmitrijs2005/taskboard/internal/server/models"
	"github.com/dmitrijs2005/taskboard/internal/views"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const maxResponseBytes = 4 << 20

// HTTPClient talks to the taskboard server over its JSON API. The session
// cookie lives in a cookie jar, so the client behaves like a browser tab.
type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
}

func NewHTTPClient(serverURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("bad server url %q: %w", serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("bad server url %q: scheme must be http or https", serverURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &HTTPClient{
		baseURL: u,
		http:    &http.Client{Jar: jar, Timeout: timeout},
	}, nil
}

func (c *HTTPClient) Signup(ctx context.Context, email, password, name string) (*models.PublicUser, error) {
	var resp struct {
		User models.PublicUser `json:"user"`
	}
	form := url.Values{"email": {email}, "password": {password}, "name": {name}}
	if err := c.do(ctx, http.MethodPost, "/api/auth/signup", form, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) Login(ctx context.Context, email, password string) (*models.User, error) {
	var resp struct {
		User models.User `json:"user"`
	}
	form := url.Values{"email": {email}, "password": {password}}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", form, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

func (c *HTTPClient) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", url.Values{}, nil)
}

func (c *HTTPClient) CurrentUser(ctx context.Context) (*models.User, error) {
	var resp struct {
		User *models.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

func (c *HTTPClient) ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error) {
	q := url.Values{}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	if filter.Priority != "" {
		q.Set("priority", string(filter.Priority))
	}
	if filter.AssigneeID != nil {
		q.Set("assigneeId", strconv.FormatInt(*filter.AssigneeID, 10))
	}
	if filter.CreatorID != nil {
		q.Set("creatorId", strconv.FormatInt(*filter.CreatorID, 10))
	}

	path := "/api/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp struct {
		Tasks []*models.Task `json:"tasks"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Tasks == nil {
		resp.Tasks = []*models.Task{}
	}
	return resp.Tasks, nil
}

func (c *HTTPClient) GetTask(ctx context.Context, id int64) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodGet, taskPath(id), nil)
}

func (c *HTTPClient) CreateTask(ctx context.Context, fields url.Values) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPost, "/api/tasks", fields)
}

func (c *HTTPClient) UpdateTask(ctx context.Context, id int64, fields url.Values) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPut, taskPath(id), fields)
}

func (c *HTTPClient) UpdateTaskStatus(ctx context.Context, id int64, status models.Status) (*models.Task, error) {
	return c.taskCall(ctx, http.MethodPatch, taskPath(id)+"/status", url.Values{"status": {string(status)}})
}

func (c *HTTPClient) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func (c *HTTPClient) ListUsers(ctx context.Context) ([]models.PublicUser, error) {
	var resp struct {
		Users []models.PublicUser `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *HTTPClient) Board(ctx context.Context) (views.Board, error) {
	var resp struct {
		Board views.Board `json:"board"`
	}
	err := c.do(ctx, http.MethodGet, "/api/board", nil, &resp)
	return resp.Board, err
}

func (c *HTTPClient) Dashboard(ctx context.Context) (views.Dashboard, error) {
	var resp struct {
		Dashboard views.Dashboard `json:"dashboard"`
	}
	err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &resp)
	return resp.Dashboard, err
}

// Ping asks /healthz; an unhealthy server counts as unavailable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *HTTPClient) SessionCookie() string {
	for _, ck := range c.http.Jar.Cookies(c.baseURL) {
		if ck.Name == common.SessionCookieName {
			return ck.Value
		}
	}
	return ""
}

func (c *HTTPClient) SetSessionCookie(value string) {
	c.http.Jar.SetCookies(c.baseURL, []*http.Cookie{{
		Name:  common.SessionCookieName,
		Value: value,
		Path:  "/",
	}})
}

func (c *HTTPClient) taskCall(ctx context.Context, method, path string, form url.Values) (*models.Task, error) {
	var resp struct {
		Task *models.Task `json:"task"`
	}
	if err := c.do(ctx, method, path, form, &resp); err != nil {
		return nil, err
	}
	if resp.Task == nil {
		return nil, fmt.Errorf("%s %s: response carries no task", method, path)
	}
	return resp.Task, nil
}

func taskPath(id int64) string {
	return "/api/tasks/" + strconv.FormatInt(id, 10)
}

// do sends one request. A nil form means no body; out receives the decoded
// envelope of a 2xx answer.
func (c *HTTPClient) do(ctx context.Context, method, path string, form url.Values, out any) error {
	target, err := c.baseURL.Parse(path)
	if err != nil {
		return err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(chimiddleware.RequestIDHeader, uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var env struct {
		Error *string `json:"error"`
	}
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, &env); err == nil && env.Error != nil {
		apiErr.Message = *env.Error
	}
	return apiErr
}

// IsUnavailable reports whether err means the server could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
