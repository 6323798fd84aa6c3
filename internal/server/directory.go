package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	directorydomain "github.com/himap/directory/internal/directory/domain"
)

func (s *Server) ListCompanies(c *gin.Context) {
	companies, err := s.directorySvc.ListActive(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (s *Server) SearchCompanies(c *gin.Context) {
	companies, err := s.directorySvc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (s *Server) FilterCompaniesByService(c *gin.Context) {
	companies, err := s.directorySvc.FilterByService(c.Request.Context(), c.Query("category"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, companies)
}

func (s *Server) GetCompany(c *gin.Context) {
	detail, err := s.directorySvc.GetDetail(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (s *Server) ListServiceCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.directorySvc.Categories(c.Request.Context()))
}

func (s *Server) SetCompanyLogo(c *gin.Context) {
	var req directorydomain.SetLogoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	media, err := s.directorySvc.SetPrimaryLogo(c.Request.Context(), strings.TrimSpace(c.Param("id")), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, media)
}
