package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/himap/directory/internal/audit/domain"
	directorydomain "github.com/himap/directory/internal/directory/domain"
	identitydomain "github.com/himap/directory/internal/identity/domain"
	memberdomain "github.com/himap/directory/internal/member/domain"
)

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("not_found")
	ErrRateLimited    = errors.New("rate_limited")
	ErrLocalOnly      = errors.New("local_identity_only")
)

const msgInternal = "Internal server error"

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, body := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, body)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorResponse) {
	if err == nil {
		return http.StatusInternalServerError, errorResponse{Error: msgInternal}
	}

	var unauthenticated *memberdomain.UnauthenticatedError
	if errors.As(err, &unauthenticated) {
		details := unauthenticated.Reason
		if details == "" {
			details = "No user found"
		}
		return http.StatusUnauthorized, errorResponse{Error: "Unauthorized", Details: details}
	}
	var rejected *memberdomain.IdentityRejectedError
	if errors.As(err, &rejected) {
		return http.StatusBadRequest, errorResponse{Error: rejected.Message}
	}

	switch {
	case errors.Is(err, memberdomain.ErrMissingAuthorization):
		return http.StatusUnauthorized, errorResponse{Error: "Missing authorization header"}
	case errors.Is(err, identitydomain.ErrInvalidCredentials):
		return http.StatusBadRequest, errorResponse{Error: "Invalid login credentials"}
	case errors.Is(err, memberdomain.ErrAdminRequired):
		return http.StatusForbidden, errorResponse{Error: "Admin privileges required"}
	case errors.Is(err, memberdomain.ErrInactiveProfile):
		return http.StatusForbidden, errorResponse{Error: "Profile is inactive"}
	case errors.Is(err, memberdomain.ErrMissingFields):
		return http.StatusBadRequest, errorResponse{Error: "Missing required fields: email, password, bpoId"}
	case errors.Is(err, memberdomain.ErrProfileCreateFailed):
		return http.StatusInternalServerError, errorResponse{Error: "Failed to create user profile"}
	case errors.Is(err, memberdomain.ErrProfileNotFound):
		return http.StatusNotFound, errorResponse{Error: "Profile not found"}
	case errors.Is(err, memberdomain.ErrInvalidCompany),
		errors.Is(err, directorydomain.ErrInvalidID):
		return http.StatusBadRequest, errorResponse{Error: "Invalid company id"}
	case errors.Is(err, directorydomain.ErrInvalidFileURL):
		return http.StatusBadRequest, errorResponse{Error: "Invalid file URL"}
	case errors.Is(err, directorydomain.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "Company not found"}
	case errors.Is(err, directorydomain.ErrQueryFailed):
		return http.StatusServiceUnavailable, errorResponse{Error: "Directory temporarily unavailable"}
	case errors.Is(err, auditdomain.ErrInvalidPageToken),
		errors.Is(err, auditdomain.ErrInvalidTimeRange),
		errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorResponse{Error: "Invalid request"}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorResponse{Error: "Too many requests"}
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLocalOnly):
		return http.StatusNotFound, errorResponse{Error: "Not found"}
	default:
		return http.StatusInternalServerError, errorResponse{Error: msgInternal}
	}
}

// classifyErrorForLog returns the error type and a stable code for the
// request log. Messages are not logged.
func classifyErrorForLog(err error) (string, string) {
	status, _ := mapError(err)
	switch {
	case status == http.StatusUnauthorized:
		return "unauthorized", "unauthorized"
	case status == http.StatusForbidden:
		return "forbidden", "forbidden"
	case status == http.StatusNotFound:
		return "not_found", "not_found"
	case status == http.StatusTooManyRequests:
		return "rate_limited", "rate_limited"
	case status == http.StatusServiceUnavailable:
		return "unavailable", "directory_query_failed"
	case status >= http.StatusBadRequest && status < http.StatusInternalServerError:
		return "validation_error", "invalid_request"
	default:
		return "internal_error", "internal_error"
	}
}
