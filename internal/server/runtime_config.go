package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RuntimeConfig serves the browser-safe configuration. The service role key
// is never part of it.
func (s *Server) RuntimeConfig(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, s.cfg.Public())
}
