package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/existflow/todoapi/internal/logger"
	"github.com/existflow/todoapi/internal/model"
	"github.com/labstack/echo/v4"
)

// maxBodySize bounds request payloads
const maxBodySize = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

// handleCreateTodo handles POST /todos
func (s *Server) handleCreateTodo(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	req, err := model.DecodeCreate(body)
	if err != nil {
		s.metrics.recordOperation("create", err)
		return respondError(c, err)
	}

	todo, err := s.store.CreateTodo(c.Request().Context(), req)
	s.metrics.recordOperation("create", err)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Todo created", logger.F("id", todo.ID))
	return c.JSON(http.StatusCreated, todo)
}

// handleListTodos handles GET /todos
func (s *Server) handleListTodos(c echo.Context) error {
	todos, err := s.store.ListTodos(c.Request().Context())
	s.metrics.recordOperation("list", err)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, todos)
}

// handleGetTodo handles GET /todos/:id
func (s *Server) handleGetTodo(c echo.Context) error {
	todo, err := s.store.GetTodo(c.Request().Context(), c.Param("id"))
	s.metrics.recordOperation("get", err)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, todo)
}

// handleUpdateTodo handles PUT /todos/:id.
// The payload is validated before the lookup, so an empty update is 422 even for unknown ids.
func (s *Server) handleUpdateTodo(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	req, err := model.DecodeUpdate(body)
	if err != nil {
		s.metrics.recordOperation("update", err)
		return respondError(c, err)
	}

	todo, err := s.store.UpdateTodo(c.Request().Context(), c.Param("id"), req)
	s.metrics.recordOperation("update", err)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Todo updated", logger.F("id", todo.ID))
	return c.JSON(http.StatusOK, todo)
}

// handleDeleteTodo handles DELETE /todos/:id
func (s *Server) handleDeleteTodo(c echo.Context) error {
	id := c.Param("id")

	err := s.store.DeleteTodo(c.Request().Context(), id)
	s.metrics.recordOperation("delete", err)
	if err != nil {
		return respondError(c, err)
	}

	logger.Info("Todo deleted", logger.F("id", id))
	return c.JSON(http.StatusOK, messageResponse{Message: "Todo deleted successfully"})
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxBodySize))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
		}
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	return body, nil
}
