package server

import (
	"time"

	"github.com/existflow/todoapi/internal/logger"
	"github.com/labstack/echo/v4"
)

// requestLogger logs every request once its response is final.
// Errors are rendered here so the logged status matches what the client sees.
func requestLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()

		if err := next(c); err != nil {
			c.Error(err)
		}

		res := c.Response()
		logger.Info("HTTP Request",
			logger.F("method", req.Method),
			logger.F("uri", req.RequestURI),
			logger.F("status", res.Status),
			logger.F("size", res.Size),
			logger.F("duration", time.Since(start).String()),
			logger.F("request_id", res.Header().Get(echo.HeaderXRequestID)))

		return nil
	}
}
