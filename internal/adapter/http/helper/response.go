package helper

import (
	"errors"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"

	"taskmanager/internal/adapter/http/validation"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/response"
)

// DevelopmentKey is the gin context flag that lets internal error text
// through to clients.
const DevelopmentKey = "development"

const (
	MessageUnauthorized       = "Unauthorized"
	MessageForbidden          = "Forbidden"
	MessageTaskNotFound       = "Task not found"
	MessageInvalidBody        = "Invalid request body"
	MessageValidationFailed   = "Validation failed"
	MessageInvalidCredentials = "Invalid email or password"
)

// StatusFor maps an error from the core onto its HTTP status code.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// SendError writes the error body for err. failure is the client message
// used for server-side failures.
func SendError(c *gin.Context, err error, failure string) {
	status := StatusFor(err)

	body := response.ErrorResponse{Error: failure}

	switch status {
	case http.StatusUnauthorized:
		body.Error = MessageUnauthorized

		if errors.Is(err, domain.ErrInvalidCredentials) {
			body.Error = MessageInvalidCredentials
		}
	case http.StatusForbidden:
		body.Error = MessageForbidden
	case http.StatusNotFound:
		body.Error = MessageTaskNotFound
	case http.StatusBadRequest:
		body.Error = Reason(err)
	default:
		if c.GetBool(DevelopmentKey) {
			body.Details = err.Error()
		}
	}

	c.AbortWithStatusJSON(status, body)
}

func SendValidationError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorResponse{
		Error:   MessageValidationFailed,
		Details: validation.FormatValidationErrors(err),
	})
}

func SendBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, response.ErrorResponse{Error: message})
}

func SendUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.ErrorResponse{Error: MessageUnauthorized})
}

// Reason turns an invalid-input error into its client-facing sentence,
// e.g. "invalid input: title is required" becomes "Title is required".
func Reason(err error) string {
	msg := strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")

	r, size := utf8.DecodeRuneInString(msg)

	if r == utf8.RuneError {
		return msg
	}

	return string(unicode.ToUpper(r)) + msg[size:]
}
