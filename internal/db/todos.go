package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/existflow/todoapi/internal/model"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrNotFound is returned when a todo id is malformed or has no row
var ErrNotFound = errors.New("todo not found")

// sqliteTimeLayout is fixed width so that TEXT columns sort chronologically
const sqliteTimeLayout = "2006-01-02 15:04:05.000000"

var tracer = otel.Tracer("github.com/existflow/todoapi/internal/db")

// timeNow is replaced in tests
var timeNow = func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

const selectTodo = `SELECT id, title, completed, created_at, updated_at FROM todos`

// ParseID validates a todo id and returns its canonical form.
// Only the hyphenated 36 character form is accepted, in either case.
func ParseID(id string) (string, bool) {
	u, err := uuid.Parse(id)
	if err != nil || u.String() != strings.ToLower(id) {
		return "", false
	}
	return u.String(), true
}

// CreateTodo inserts a new, not completed todo
func (db *DB) CreateTodo(ctx context.Context, req model.CreateTodoRequest) (_ *model.Todo, err error) {
	ctx, span := tracer.Start(ctx, "db.CreateTodo")
	defer func() { endSpan(span, err) }()

	title, err := model.ValidateTitle(req.Title)
	if err != nil {
		return nil, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate todo id: %w", err)
	}

	todo := model.NewTodo(id.String(), title, timeNow())
	span.SetAttributes(attribute.String("todo.id", todo.ID))

	_, err = db.ExecContext(ctx, db.rebind(`
		INSERT INTO todos (id, title, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`),
		todo.ID, todo.Title, todo.Completed, db.timeArg(todo.CreatedAt), db.timeArg(todo.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	return &todo, nil
}

// ListTodos returns every todo in insertion order
func (db *DB) ListTodos(ctx context.Context) (_ []model.Todo, err error) {
	ctx, span := tracer.Start(ctx, "db.ListTodos")
	defer func() { endSpan(span, err) }()

	rows, err := db.QueryContext(ctx, selectTodo+` ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	span.SetAttributes(attribute.Int("todo.count", len(todos)))
	return todos, nil
}

// GetTodo returns a single todo
func (db *DB) GetTodo(ctx context.Context, id string) (_ *model.Todo, err error) {
	ctx, span := tracer.Start(ctx, "db.GetTodo", trace.WithAttributes(attribute.String("todo.id", id)))
	defer func() { endSpan(span, err) }()

	id, ok := ParseID(id)
	if !ok {
		return nil, ErrNotFound
	}

	todo, err := scanTodo(db.QueryRowContext(ctx, db.rebind(selectTodo+` WHERE id = ?`), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}

	return &todo, nil
}

// UpdateTodo applies the fields present in req and refreshes updated_at
func (db *DB) UpdateTodo(ctx context.Context, id string, req model.UpdateTodoRequest) (_ *model.Todo, err error) {
	ctx, span := tracer.Start(ctx, "db.UpdateTodo", trace.WithAttributes(attribute.String("todo.id", id)))
	defer func() { endSpan(span, err) }()

	if req.IsEmpty() {
		return nil, &model.ValidationError{Message: "At least one field must be provided"}
	}
	if req.Title != nil {
		title, err := model.ValidateTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		req.Title = &title
	}

	id, ok := ParseID(id)
	if !ok {
		return nil, ErrNotFound
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := selectTodo + ` WHERE id = ?`
	if db.driver == DriverPostgres {
		query += ` FOR UPDATE`
	}

	todo, err := scanTodo(tx.QueryRowContext(ctx, db.rebind(query), id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load todo: %w", err)
	}

	todo.Apply(req)
	todo.Touch(timeNow())

	_, err = tx.ExecContext(ctx, db.rebind(`
		UPDATE todos SET title = ?, completed = ?, updated_at = ?
		WHERE id = ?`),
		todo.Title, todo.Completed, db.timeArg(todo.UpdatedAt), todo.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit todo update: %w", err)
	}

	return &todo, nil
}

// DeleteTodo removes a todo permanently
func (db *DB) DeleteTodo(ctx context.Context, id string) (err error) {
	ctx, span := tracer.Start(ctx, "db.DeleteTodo", trace.WithAttributes(attribute.String("todo.id", id)))
	defer func() { endSpan(span, err) }()

	id, ok := ParseID(id)
	if !ok {
		return ErrNotFound
	}

	res, err := db.ExecContext(ctx, db.rebind(`DELETE FROM todos WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTodo(row rowScanner) (model.Todo, error) {
	var todo model.Todo
	var createdAt, updatedAt timestamp
	if err := row.Scan(&todo.ID, &todo.Title, &todo.Completed, &createdAt, &updatedAt); err != nil {
		return model.Todo{}, err
	}
	todo.CreatedAt = createdAt.Time
	todo.UpdatedAt = updatedAt.Time
	return todo, nil
}

// timeArg encodes t for the active driver
func (db *DB) timeArg(t time.Time) any {
	if db.driver == DriverSQLite {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

// timestamp scans both TIMESTAMPTZ values and SQLite TEXT columns
type timestamp struct {
	time.Time
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *timestamp) parse(s string) error {
	parsed, err := time.ParseInLocation(sqliteTimeLayout, s, time.UTC)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
	}
	t.Time = parsed.UTC()
	return nil
}

func endSpan(span trace.Span, err error) {
	var verr *model.ValidationError
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.As(err, &verr) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
