// Package client talks to a running todo server over its JSON API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/existflow/todoapi/internal/model"
)

// DefaultServerURL is used when no server is configured
const DefaultServerURL = "http://localhost:8080"

// ErrNotFound is returned when the server answers 404
var ErrNotFound = errors.New("todo not found")

// APIError is a non-success answer from the server
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Detail)
}

// Is lets errors.Is match 404 answers against ErrNotFound
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// Client is the todo API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client for the server at baseURL
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultServerURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// List returns every todo
func (c *Client) List(ctx context.Context) ([]model.Todo, error) {
	var todos []model.Todo
	if err := c.do(ctx, http.MethodGet, "/todos", nil, http.StatusOK, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// Get returns a single todo
func (c *Client) Get(ctx context.Context, id string) (*model.Todo, error) {
	var todo model.Todo
	if err := c.do(ctx, http.MethodGet, todoPath(id), nil, http.StatusOK, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Create adds a todo with the given title
func (c *Client) Create(ctx context.Context, title string) (*model.Todo, error) {
	var todo model.Todo
	req := model.CreateTodoRequest{Title: title}
	if err := c.do(ctx, http.MethodPost, "/todos", req, http.StatusCreated, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Update changes the fields set in req
func (c *Client) Update(ctx context.Context, id string, req model.UpdateTodoRequest) (*model.Todo, error) {
	var todo model.Todo
	if err := c.do(ctx, http.MethodPut, todoPath(id), req, http.StatusOK, &todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// Delete removes a todo
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, todoPath(id), nil, http.StatusOK, nil)
}

func todoPath(id string) string {
	return "/todos/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// errorDetail extracts the message of {"detail": ...} or {"message": ...} bodies
func errorDetail(body []byte) string {
	var e struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if e.Detail != "" {
			return e.Detail
		}
		if e.Message != "" {
			return e.Message
		}
	}
	return strings.TrimSpace(string(body))
}
