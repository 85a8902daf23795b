package http_api

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sataddr/sataddr/internal/models"
	"github.com/sataddr/sataddr/internal/stats"
)

// requirePIN guards the admin API. The X-PIN header must carry the process
// secret; these endpoints are meant to be reached from localhost tooling
// only.
func (s *HTTPServer) requirePIN(c *gin.Context) {
	header := c.GetHeader("X-PIN")
	if subtle.ConstantTimeCompare([]byte(header), []byte(s.pinSecret)) != 1 {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "unauthorized"})
		return
	}
	c.Next()
}

func (s *HTTPServer) getUser(c *gin.Context) {
	name := c.Query("name")
	domain := c.Query("domain")
	if name == "" || domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name and domain are required"})
		return
	}

	rec, err := s.repo.Get(name, domain)
	if err != nil {
		if err == models.ErrNotFound {
			s.notFound(c)
			return
		}
		s.logger.Error("Failed to load record: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "store failure"})
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *HTTPServer) deleteUser(c *gin.Context) {
	name := c.Query("name")
	domain := c.Query("domain")
	if name == "" || domain == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "name and domain are required"})
		return
	}

	if err := s.repo.Delete(name, domain); err != nil {
		if err == models.ErrNotFound {
			s.notFound(c)
			return
		}
		s.logger.Error("Failed to delete record: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "store failure"})
		return
	}

	s.logger.Infof("Address %s@%s deleted", name, domain)
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (s *HTTPServer) getStats(c *gin.Context) {
	report, err := stats.Collect(s.repo)
	if err != nil {
		s.logger.Error("Failed to collect stats: ", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "store failure"})
		return
	}

	c.JSON(http.StatusOK, report)
}
