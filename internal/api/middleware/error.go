package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/frostdev-ops/shelly-manager-go/pkg/errors"
	"github.com/frostdev-ops/shelly-manager-go/pkg/utils"
)

// ErrorHandlingMiddleware handles panics and converts deferred errors
// into the standard response envelope
func ErrorHandlingMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"query":       c.Request.URL.RawQuery,
			"ip":          c.ClientIP(),
			"user_agent":  c.GetHeader("User-Agent"),
			"panic":       fmt.Sprintf("%+v", recovered),
			"stack_trace": string(debug.Stack()),
		}).Error("Panic recovered in API middleware")

		utils.SendError(c, http.StatusInternalServerError, "Internal server error")
		c.Abort()
	})
}

// ErrorResponseMiddleware converts errors attached to the context into
// standardized responses
func ErrorResponseMiddleware(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := errors.GetStatusCode(err)

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"status": status,
		}).WithError(err).Warn("Request failed")

		if appErr, ok := err.(*errors.AppError); ok {
			message := appErr.Message
			if appErr.Details != "" {
				message = fmt.Sprintf("%s: %s", appErr.Message, appErr.Details)
			}
			utils.SendError(c, appErr.Code, message)
			return
		}

		utils.SendError(c, status, err.Error())
	}
}
