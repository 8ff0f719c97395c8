package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ValidationError describes a rejected request payload
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CreateTodoRequest is the validated payload of a create call
type CreateTodoRequest struct {
	Title string `json:"title"`
}

// UpdateTodoRequest is the validated payload of an update call.
// Nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// IsEmpty reports whether the request changes nothing
func (r UpdateTodoRequest) IsEmpty() bool {
	return r.Title == nil && r.Completed == nil
}

// todoPayload holds the allowlisted keys of a request body
type todoPayload struct {
	Title     json.RawMessage
	Completed json.RawMessage
}

// DecodeCreate parses and validates a create payload
func DecodeCreate(body []byte) (CreateTodoRequest, error) {
	p, err := decodePayload(body)
	if err != nil {
		return CreateTodoRequest{}, err
	}

	if isAbsent(p.Title) {
		return CreateTodoRequest{}, &ValidationError{Field: "title", Message: "field required"}
	}
	title, err := decodeTitle(p.Title)
	if err != nil {
		return CreateTodoRequest{}, err
	}

	return CreateTodoRequest{Title: title}, nil
}

// DecodeUpdate parses and validates an update payload.
// At least one of title and completed must be present.
func DecodeUpdate(body []byte) (UpdateTodoRequest, error) {
	p, err := decodePayload(body)
	if err != nil {
		return UpdateTodoRequest{}, err
	}

	var req UpdateTodoRequest
	if !isAbsent(p.Title) {
		title, err := decodeTitle(p.Title)
		if err != nil {
			return UpdateTodoRequest{}, err
		}
		req.Title = &title
	}
	if !isAbsent(p.Completed) {
		var completed bool
		if err := json.Unmarshal(p.Completed, &completed); err != nil {
			return UpdateTodoRequest{}, &ValidationError{Field: "completed", Message: "must be a boolean"}
		}
		req.Completed = &completed
	}

	if req.IsEmpty() {
		return UpdateTodoRequest{}, &ValidationError{Message: "At least one field must be provided"}
	}
	return req, nil
}

// ValidateTitle trims title and rejects blank values
func ValidateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "title", Message: "must not be empty"}
	}
	return title, nil
}

func decodePayload(body []byte) (todoPayload, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return todoPayload{}, &ValidationError{Message: "request body required"}
	}

	// A map keeps key matching case-sensitive, unlike decoding into a tagged struct
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		if _, ok := err.(*json.UnmarshalTypeError); ok {
			return todoPayload{}, &ValidationError{Message: "request body must be a JSON object"}
		}
		return todoPayload{}, &ValidationError{Message: "invalid JSON body"}
	}
	if fields == nil {
		return todoPayload{}, &ValidationError{Message: "request body must be a JSON object"}
	}

	return todoPayload{Title: fields["title"], Completed: fields["completed"]}, nil
}

func decodeTitle(raw json.RawMessage) (string, error) {
	var title string
	if err := json.Unmarshal(raw, &title); err != nil {
		return "", &ValidationError{Field: "title", Message: "must be a string"}
	}
	return ValidateTitle(title)
}

func isAbsent(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(raw, []byte("null"))
}
