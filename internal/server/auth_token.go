package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type passwordGrantRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// IssueToken implements the password grant for the local identity backend,
// shaped like GoTrue's POST /auth/v1/token?grant_type=password so the
// browser code works against either backend.
func (s *Server) IssueToken(c *gin.Context) {
	if s.localAuth == nil {
		AbortWithError(c, ErrLocalOnly)
		return
	}
	if grant := c.Query("grant_type"); grant != "" && grant != "password" {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	var req passwordGrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	token, err := s.localAuth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, token)
}
