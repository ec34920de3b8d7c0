// Package response writes the API's JSON error envelope.
package response

import (
	"github.com/gin-gonic/gin"
	"github.com/justsurfingit/jobportal-admin/internal/apperrors"
	"github.com/justsurfingit/jobportal-admin/internal/dtos"
	"github.com/justsurfingit/jobportal-admin/internal/logger"
)

// Error sends {code, message} for err. Server errors are logged with their
// cause and reach the client only as the generic message.
func Error(c *gin.Context, log logger.Logger, err error) {
	appErr := apperrors.From(err)
	status := apperrors.HTTPStatus(appErr.Code)

	if appErr.Code == apperrors.CodeServerError && log != nil {
		log.Error("request failed", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"request_id": c.GetString(RequestIDKey),
			"error":      err.Error(),
		})
	}

	c.JSON(status, dtos.ErrorResponse{Code: string(appErr.Code), Message: appErr.Message})
}

// Abort is Error for middleware: the rest of the chain is skipped.
func Abort(c *gin.Context, log logger.Logger, err error) {
	Error(c, log, err)
	c.Abort()
}

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"
