package server

import (
	"errors"
	"net/http"

	"github.com/existflow/todoapi/internal/db"
	"github.com/existflow/todoapi/internal/logger"
	"github.com/existflow/todoapi/internal/model"
	"github.com/labstack/echo/v4"
)

const notFoundDetail = "Todo not found"

// respondError renders business outcomes. Anything else is returned to
// echo and ends up in handleError as a 500.
func respondError(c echo.Context, err error) error {
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		logger.Debug("Rejected payload",
			logger.F("uri", c.Request().RequestURI),
			logger.F("reason", verr.Error()))
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"detail": verr.Error()})
	case errors.Is(err, db.ErrNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"detail": notFoundDetail})
	default:
		return err
	}
}

// handleError logs server faults before delegating to echo's default rendering
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	if code >= http.StatusInternalServerError {
		logger.Error("Request failed",
			logger.F("method", c.Request().Method),
			logger.F("uri", c.Request().RequestURI),
			logger.F("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			logger.F("error", err))
	}

	s.echo.DefaultHTTPErrorHandler(err, c)
}
