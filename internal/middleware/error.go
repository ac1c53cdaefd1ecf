package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-scheduler/internal/handler"
	"github.com/jwalitptl/clinic-scheduler/internal/service/appointment"
	apperrors "github.com/jwalitptl/clinic-scheduler/pkg/errors"
)

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last().Err
		status, body := render(lastErr)

		evt := log.Warn()
		if status >= http.StatusInternalServerError {
			evt = log.Error()
		}
		evt.Err(lastErr).
			Str("request_id", c.GetString(ContextRequestID)).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Int("status", status).
			Msg("Request error")

		c.JSON(status, body)
	}
}

func render(err error) (int, *handler.Response) {
	var invalid *appointment.ValidationError
	if errors.As(err, &invalid) {
		return http.StatusUnprocessableEntity, handler.NewValidationResponse("appointment validation failed", invalid.Reasons)
	}

	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.StatusCode()
		if status == http.StatusInternalServerError {
			return status, handler.NewErrorResponse("internal server error")
		}
		return status, handler.NewErrorResponse(appErr.Error())
	}

	return http.StatusInternalServerError, handler.NewErrorResponse("internal server error")
}
