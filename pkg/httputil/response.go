package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/physiome/admin-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a 200 envelope carrying data.
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// RespondWithMessage sends a 200 envelope with a message and optional data.
func RespondWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: message, Data: data})
}

// RespondWithStatus sends a success envelope with an explicit status code.
func RespondWithStatus(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, Response{Success: true, Message: message, Data: data})
}

// RespondWithError sends an error envelope. AppErrors keep their kind's
// status, anything else is reported as a 500 with its message.
func RespondWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		status = appErr.Kind.HTTPStatus()
		message = appErr.Message
	} else if err != nil {
		message = err.Error()
	}

	if err != nil {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}

// Abort sends an error envelope with an explicit status, used by middleware.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{Success: false, Message: message})
}
