package server

import (
	"net/http"
	"time"

	"github.com/nconklindev/freightmap/internal/workbook"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	requestIDHeader = "X-Request-Id"
	loggerKey       = "logger"
)

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(logger logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)

		entry := logger.WithField("request_id", id)
		c.Set(loggerKey, entry)

		start := time.Now()
		c.Next()

		entry.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Info("request")
	}
}

func logEntry(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(loggerKey); ok {
		if entry, ok := v.(logrus.FieldLogger); ok {
			return entry
		}
	}
	return logrus.StandardLogger()
}

type badRequestError struct {
	err error
}

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

// statusFor maps pipeline errors to HTTP status codes: user input problems
// are 4xx, template defects 500.
func statusFor(err error) int {
	var (
		unreadable *workbook.UnreadableFileError
		badReq     *badRequestError
		tooLarge   *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &unreadable), errors.As(err, &badReq):
		return http.StatusBadRequest
	}
	// SchemaNotFoundError, MissingColumnError and anything unexpected.
	return http.StatusInternalServerError
}
