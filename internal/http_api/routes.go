package http_api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes sets up the routes for the HTTP server.
func (s *HTTPServer) routes() {
	s.router.GET("/.well-known/lnurlp/:name", s.lnurlPay)
	s.router.POST("/grab", s.grab)

	api := s.router.Group("/api/v1", s.requirePIN)
	api.GET("/user", s.getUser)
	api.DELETE("/user", s.deleteUser)
	api.GET("/stats", s.getStats)

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.router.GET("/", s.index)
}

// index returns the site descriptor consumed by the front end.
func (s *HTTPServer) index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"siteName":    s.cfg.SiteName,
		"siteSubName": s.cfg.SiteSubName,
		"domains":     s.cfg.Domains,
	})
}
