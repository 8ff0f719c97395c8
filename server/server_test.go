package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/existflow/todoapi/internal/db"
	"github.com/existflow/todoapi/internal/model"
)

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

type todoBody struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()

	store, err := db.Open(context.Background(), db.Options{
		Driver: db.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "todos.db"),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	return New(store, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func createTodo(t *testing.T, h http.Handler, title string) todoBody {
	t.Helper()

	body, _ := json.Marshal(map[string]string{"title": title})
	rec := do(t, h, http.MethodPost, "/todos", string(body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create %q: status %d, body %s", title, rec.Code, rec.Body.String())
	}
	return decode[todoBody](t, rec)
}

func expectDetail(t *testing.T, rec *httptest.ResponseRecorder, status int, detail string) {
	t.Helper()

	if rec.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", rec.Code, status, rec.Body.String())
	}
	got := decode[map[string]string](t, rec)["detail"]
	if !strings.Contains(got, detail) {
		t.Errorf("detail = %q, want %q", got, detail)
	}
}

func TestTodoLifecycle(t *testing.T) {
	h := newTestServer(t, Options{}).Router()

	created := createTodo(t, h, "Test Todo")
	if created.ID == "" || created.Title != "Test Todo" || created.Completed {
		t.Fatalf("created = %+v", created)
	}
	if !timestampPattern.MatchString(created.CreatedAt) || !timestampPattern.MatchString(created.UpdatedAt) {
		t.Errorf("timestamps %q / %q not in wire format", created.CreatedAt, created.UpdatedAt)
	}

	rec := do(t, h, http.MethodPut, "/todos/"+created.ID, `{"completed": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decode[todoBody](t, rec)
	if updated.ID != created.ID || !updated.Completed || updated.Title != "Test Todo" {
		t.Errorf("updated = %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Errorf("created_at changed from %q to %q", created.CreatedAt, updated.CreatedAt)
	}

	rec = do(t, h, http.MethodDelete, "/todos/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("delete status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec); len(got) != 1 || got["message"] != "Todo deleted successfully" {
		t.Errorf("delete body = %v", got)
	}

	rec = do(t, h, http.MethodDelete, "/todos/"+created.ID, "")
	expectDetail(t, rec, http.StatusNotFound, "Todo not found")
}

func TestCreateTodoValidation(t *testing.T) {
	h := newTestServer(t, Options{}).Router()

	for _, body := range []string{
		`{"completed": false}`,
		`{"title": 123}`,
		`{"title": ""}`,
		`{"title": "   "}`,
		`{"title": null}`,
		`not json`,
		``,
	} {
		rec := do(t, h, http.MethodPost, "/todos", body)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("POST %q: status %d, want 422", body, rec.Code)
		}
	}

	rec := do(t, h, http.MethodGet, "/todos", "")
	if todos := decode[[]todoBody](t, rec); len(todos) != 0 {
		t.Errorf("rejected payloads created %d todos", len(todos))
	}
}

func TestCreateTodoIgnoresExtraFields(t *testing.T) {
	h := newTestServer(t, Options{}).Router()

	rec := do(t, h, http.MethodPost, "/todos",
		`{"title": "  Extra Fields ", "extra": "should be ignored", "completed": true, "id": "mine", "Title": "override"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	raw := decode[map[string]any](t, rec)
	if _, ok := raw["extra"]; ok {
		t.Error("unknown field echoed back")
	}
	if raw["title"] != "Extra Fields" || raw["completed"] != false || raw["id"] == "mine" {
		t.Errorf("body = %v", raw)
	}
	if len(raw) != 5 {
		t.Errorf("body has %d keys, want 5: %v", len(raw), raw)
	}
}

func TestPayloadKeysAreCaseSensitive(t *testing.T) {
	h := newTestServer(t, Options{}).Router()

	expectDetail(t, do(t, h, http.MethodPost, "/todos", `{"TITLE": "sneaky"}`),
		http.StatusUnprocessableEntity, "title: field required")

	rec := do(t, h, http.MethodPost, "/todos", `{"title": "real", "Title": "override"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	created := decode[todoBody](t, rec)
	if created.Title != "real" {
		t.Errorf("title = %q, want %q", created.Title, "real")
	}

	expectDetail(t, do(t, h, http.MethodPut, "/todos/"+created.ID, `{"COMPLETED": true}`),
		http.StatusUnprocessableEntity, "At least one field must be provided")

	got := decode[todoBody](t, do(t, h, http.MethodGet, "/todos/"+created.ID, ""))
	if got.Completed || got.Title != "real" {
		t.Errorf("todo changed by unknown keys: %+v", got)
	}
}

func TestListTodos(t *testing.T) {
	h := newTestServer(t, Options{}).Router()

	rec := do(t, h, http.MethodGet, "/todos", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("empty list: status %d body %q", rec.Code, rec.Body.String())
	}

	var want []string
	for _, title := range []string{"Bulk 0", "Bulk 1", "Bulk 2"} {
		want = append(want, createTodo(t, h, title).ID)
	}

	todos := decode[[]todoBody](t, do(t, h, http.MethodGet, "/todos", ""))
	if len(todos) != 3 {
		t.Fatalf("got %d todos, want 3", len(todos))
	}
	for i, todo := range todos {
		if todo.ID != want[i] || todo.Title != "Bulk "+string(rune('0'+i)) || todo.Completed {
			t.Errorf("todos[%d] = %+v", i, todo)
		}
	}
}

func TestCaseSensitiveTitlesAreDistinct(t *testing.T) {
	h := newTestServer(t, Options{}).Router()

	a := createTodo(t, h, "CaseTest")
	b := createTodo(t, h, "casetest")
	if a.ID == b.ID {
		t.Fatal("distinct todos share an id")
	}
}

func TestGetTodo(t *testing.T) {
	h := newTestServer(t, Options{}).Router()
	created := createTodo(t, h, "Fetch me")

	rec := do(t, h, http.MethodGet, "/todos/"+created.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[todoBody](t, rec); got != created {
		t.Errorf("got %+v, want %+v", got, created)
	}
}

func TestMalformedAndUnknownIDs(t *testing.T) {
	h := newTestServer(t, Options{}).Router()
	createTodo(t, h, "bystander")

	for _, id := range []string{"123", "not-a-uuid", "0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d"} {
		expectDetail(t, do(t, h, http.MethodGet, "/todos/"+id, ""), http.StatusNotFound, "Todo not found")
		expectDetail(t, do(t, h, http.MethodPut, "/todos/"+id, `{"title": "Doesn't exist", "completed": false}`),
			http.StatusNotFound, "Todo not found")
		expectDetail(t, do(t, h, http.MethodDelete, "/todos/"+id, ""), http.StatusNotFound, "Todo not found")
	}
}

func TestAlternateIDFormsAreNotFound(t *testing.T) {
	h := newTestServer(t, Options{}).Router()
	created := createTodo(t, h, "one path only")

	hex := strings.ReplaceAll(created.ID, "-", "")
	for _, id := range []string{"{" + created.ID + "}", "urn:uuid:" + created.ID, hex} {
		expectDetail(t, do(t, h, http.MethodGet, "/todos/"+url.PathEscape(id), ""), http.StatusNotFound, "Todo not found")
	}

	if rec := do(t, h, http.MethodGet, "/todos/"+strings.ToUpper(created.ID), ""); rec.Code != http.StatusOK {
		t.Errorf("upper-case id: status = %d, want 200", rec.Code)
	}
}

func TestUpdateTodoPartialFields(t *testing.T) {
	h := newTestServer(t, Options{}).Router()
	created := createTodo(t, h, "Partial Update Todo")

	rec := do(t, h, http.MethodPut, "/todos/"+created.ID, `{"title": "Title Only Update"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[todoBody](t, rec)
	if got.Title != "Title Only Update" || got.Completed {
		t.Errorf("after title update: %+v", got)
	}

	rec = do(t, h, http.MethodPut, "/todos/"+created.ID, `{"completed": true, "extra": 1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got = decode[todoBody](t, rec)
	if got.Title != "Title Only Update" || !got.Completed {
		t.Errorf("after completed update: %+v", got)
	}
	if got.UpdatedAt < created.UpdatedAt {
		t.Errorf("updated_at went backwards: %q < %q", got.UpdatedAt, created.UpdatedAt)
	}
}

func TestUpdateTodoValidation(t *testing.T) {
	h := newTestServer(t, Options{}).Router()
	created := createTodo(t, h, "To be malformed")

	expectDetail(t, do(t, h, http.MethodPut, "/todos/"+created.ID, `{}`),
		http.StatusUnprocessableEntity, "At least one field must be provided")
	expectDetail(t, do(t, h, http.MethodPut, "/todos/"+created.ID, `{"title": 123, "completed": "nope"}`),
		http.StatusUnprocessableEntity, "title")
	expectDetail(t, do(t, h, http.MethodPut, "/todos/"+created.ID, `{"title": "  "}`),
		http.StatusUnprocessableEntity, "title")

	// Validation wins over existence
	expectDetail(t, do(t, h, http.MethodPut, "/todos/0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d", `{}`),
		http.StatusUnprocessableEntity, "At least one field")
	expectDetail(t, do(t, h, http.MethodPut, "/todos/garbage", `{}`),
		http.StatusUnprocessableEntity, "At least one field")

	got := decode[todoBody](t, do(t, h, http.MethodGet, "/todos/"+created.ID, ""))
	if got != created {
		t.Errorf("rejected updates changed the todo: %+v", got)
	}
}

// failingStore fails every call with a storage fault
type failingStore struct {
	err error
}

func (f failingStore) CreateTodo(context.Context, model.CreateTodoRequest) (*model.Todo, error) {
	return nil, f.err
}

func (f failingStore) ListTodos(context.Context) ([]model.Todo, error) {
	return nil, f.err
}

func (f failingStore) GetTodo(context.Context, string) (*model.Todo, error) {
	return nil, f.err
}

func (f failingStore) UpdateTodo(context.Context, string, model.UpdateTodoRequest) (*model.Todo, error) {
	return nil, f.err
}

func (f failingStore) DeleteTodo(context.Context, string) error {
	return f.err
}

func (f failingStore) PingContext(context.Context) error {
	return f.err
}

func TestStorageFaultIsServerError(t *testing.T) {
	h := New(failingStore{err: errors.New("connection refused")}, Options{}).Router()

	cases := []struct{ method, path, body string }{
		{http.MethodPost, "/todos", `{"title": "x"}`},
		{http.MethodGet, "/todos", ""},
		{http.MethodGet, "/todos/0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d", ""},
		{http.MethodPut, "/todos/0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d", `{"completed": true}`},
		{http.MethodDelete, "/todos/0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d", ""},
	}
	for _, tc := range cases {
		rec := do(t, h, tc.method, tc.path, tc.body)
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s %s: status %d, want 500", tc.method, tc.path, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "connection refused") {
			t.Errorf("%s %s: storage error leaked to client", tc.method, tc.path)
		}
	}

	// Validation still happens before storage is touched
	if rec := do(t, h, http.MethodPost, "/todos", `{}`); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid create against failing store: status %d, want 422", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, Options{}).Router()
	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusOK {
		t.Errorf("healthy store: status %d", rec.Code)
	}

	h = New(failingStore{err: errors.New("down")}, Options{}).Router()
	if rec := do(t, h, http.MethodGet, "/health", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("failing store: status %d, want 503", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, Options{Metrics: true}).Router()

	created := createTodo(t, h, "measured")
	do(t, h, http.MethodDelete, "/todos/"+created.ID, "")
	do(t, h, http.MethodDelete, "/todos/"+created.ID, "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}

	out := rec.Body.String()
	for _, want := range []string{
		`todo_operations_total{operation="create",outcome="ok"} 1`,
		`todo_operations_total{operation="delete",outcome="not_found"} 1`,
		`todo_http_requests_total{method="DELETE",path="/todos/:id",status="404"} 1`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	h := newTestServer(t, Options{}).Router()
	if rec := do(t, h, http.MethodGet, "/metrics", ""); rec.Code != http.StatusNotFound {
		t.Errorf("metrics served while disabled: status %d", rec.Code)
	}
}

func TestOversizedBodyIsRejected(t *testing.T) {
	h := newTestServer(t, Options{}).Router()

	body := `{"title": "` + strings.Repeat("a", maxBodySize) + `"}`
	for _, method := range []string{http.MethodPost, http.MethodPut} {
		path := "/todos"
		if method == http.MethodPut {
			path = "/todos/0190b5d2-8c1e-7a3b-9c4d-5e6f7a8b9c0d"
		}
		rec := do(t, h, method, path, body)
		if rec.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("%s %s: status = %d, want 413", method, path, rec.Code)
		}
	}

	if todos := decode[[]todoBody](t, do(t, h, http.MethodGet, "/todos", "")); len(todos) != 0 {
		t.Errorf("oversized payload created %d todos", len(todos))
	}
}
