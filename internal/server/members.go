package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	memberdomain "github.com/himap/directory/internal/member/domain"
)

type createMemberResponse struct {
	Success bool                         `json:"success"`
	User    memberdomain.ProvisionResult `json:"user"`
}

func (s *Server) Preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}

// CreateMember provisions a member account. Credentials are checked before
// the body is looked at, so a malformed body from an unauthenticated caller
// still gets 401. An unreadable body is provisioned as an empty request and
// fails the required-field check.
func (s *Server) CreateMember(c *gin.Context) {
	var req memberdomain.ProvisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req = memberdomain.ProvisionRequest{}
	}

	result, err := s.memberSvc.Provision(c.Request.Context(), bearerToken(c), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, createMemberResponse{Success: true, User: *result})
}

func (s *Server) Me(c *gin.Context) {
	profile, err := s.memberSvc.Me(c.Request.Context(), bearerToken(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) ListCompanyMembers(c *gin.Context) {
	members, err := s.memberSvc.ListByCompany(c.Request.Context(), bearerToken(c), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": members})
}
