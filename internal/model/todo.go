package model

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the wire format of created_at and updated_at
const TimestampLayout = "2006-01-02 15:04:05"

// Todo represents a single todo item
type Todo struct {
	ID        string
	Title     string
	Completed bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTodo creates a new todo with defaults
func NewTodo(id, title string, now time.Time) Todo {
	return Todo{
		ID:        id,
		Title:     title,
		Completed: false,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Apply copies the fields present in req onto the todo
func (t *Todo) Apply(req UpdateTodoRequest) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Completed != nil {
		t.Completed = *req.Completed
	}
}

// Touch refreshes UpdatedAt so that it is strictly after its previous value
func (t *Todo) Touch(now time.Time) {
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
}

type todoJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// MarshalJSON renders timestamps in UTC without zone or sub-second part
func (t Todo) MarshalJSON() ([]byte, error) {
	return json.Marshal(todoJSON{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		CreatedAt: t.CreatedAt.UTC().Format(TimestampLayout),
		UpdatedAt: t.UpdatedAt.UTC().Format(TimestampLayout),
	})
}

// UnmarshalJSON parses the wire format produced by MarshalJSON
func (t *Todo) UnmarshalJSON(data []byte) error {
	var raw todoJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	createdAt, err := time.ParseInLocation(TimestampLayout, raw.CreatedAt, time.UTC)
	if err != nil {
		return err
	}
	updatedAt, err := time.ParseInLocation(TimestampLayout, raw.UpdatedAt, time.UTC)
	if err != nil {
		return err
	}

	*t = Todo{
		ID:        raw.ID,
		Title:     raw.Title,
		Completed: raw.Completed,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}
	return nil
}
