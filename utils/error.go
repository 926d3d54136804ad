package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorKind classifies failures that cross the request boundary.
type ErrorKind string

const (
	KindRateLimited      ErrorKind = "rate_limited"
	KindNotAuthorized    ErrorKind = "not_authorized"
	KindSessionExpired   ErrorKind = "session_expired"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindValidation       ErrorKind = "validation_error"
	KindNotFound         ErrorKind = "not_found"
	KindInternal         ErrorKind = "internal"
)

// AppError is a classified error. Message is safe to show to callers.
type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(kind ErrorKind, msg string) *AppError {
	return &AppError{Kind: kind, Message: msg}
}

func RateLimited(msg string) error      { return newAppError(KindRateLimited, msg) }
func NotAuthorized(msg string) error    { return newAppError(KindNotAuthorized, msg) }
func SessionExpired(msg string) error   { return newAppError(KindSessionExpired, msg) }
func PermissionDenied(msg string) error { return newAppError(KindPermissionDenied, msg) }
func ValidationError(msg string) error  { return newAppError(KindValidation, msg) }
func NotFound(msg string) error         { return newAppError(KindNotFound, msg) }

// KindOf returns the kind of the first AppError in err's chain, or KindInternal.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

// StatusFor maps an error kind to its fixed HTTP status.
func StatusFor(kind ErrorKind) int {
	switch kind {
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNotAuthorized, KindSessionExpired:
		return http.StatusUnauthorized
	case KindPermissionDenied:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				Logger := GetLogger()
				Logger.Error("Unhandled panic", zap.Any("error", err))

				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "Internal Server Error",
					Details: "An unexpected error occurred. Please try again later.",
				})
			}
		}()
		c.Next()
	}
}

// RespondError writes err as a JSON error with the status of its kind and aborts the chain.
func RespondError(c *gin.Context, err error) {
	logger := GetLogger()
	var appErr *AppError
	if !errors.As(err, &appErr) {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal Server Error",
		})
		return
	}

	logger.Warn(appErr.Message,
		zap.String("kind", string(appErr.Kind)),
		zap.String("path", c.FullPath()),
		zap.Error(appErr.Err))
	c.AbortWithStatusJSON(StatusFor(appErr.Kind), ErrorResponse{
		Message: appErr.Message,
		Code:    string(appErr.Kind),
	})
}
