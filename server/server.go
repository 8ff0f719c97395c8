package server

import (
	"context"
	"net/http"

	"github.com/existflow/todoapi/internal/model"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// TodoStore is the storage the HTTP layer needs
type TodoStore interface {
	CreateTodo(ctx context.Context, req model.CreateTodoRequest) (*model.Todo, error)
	ListTodos(ctx context.Context) ([]model.Todo, error)
	GetTodo(ctx context.Context, id string) (*model.Todo, error)
	UpdateTodo(ctx context.Context, id string, req model.UpdateTodoRequest) (*model.Todo, error)
	DeleteTodo(ctx context.Context, id string) error
	PingContext(ctx context.Context) error
}

// Options configures optional server features
type Options struct {
	Metrics bool // Collect Prometheus metrics and serve /metrics
}

// Server is the todo HTTP server
type Server struct {
	store   TodoStore
	metrics *Metrics
	echo    *echo.Echo
}

// New creates a new server backed by store
func New(store TodoStore, opts Options) *Server {
	s := &Server{store: store}
	if opts.Metrics {
		s.metrics = NewMetrics()
	}

	s.setupEcho()
	return s
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleError

	if s.metrics != nil {
		e.Use(s.metrics.Middleware())
	}
	e.Use(requestLogger)
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())

	// Health check
	e.GET("/health", s.handleHealth)
	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	e.POST("/todos", s.handleCreateTodo)
	e.GET("/todos", s.handleListTodos)
	e.GET("/todos/:id", s.handleGetTodo)
	e.PUT("/todos/:id", s.handleUpdateTodo)
	e.DELETE("/todos/:id", s.handleDeleteTodo)

	s.echo = e
}

// Router returns the HTTP handler
func (s *Server) Router() http.Handler {
	return s.echo
}

// Start serves HTTP on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown stops accepting requests and waits for in-flight ones
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleHealth(c echo.Context) error {
	if err := s.store.PingContext(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
