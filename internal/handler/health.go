package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary      Health check
// @Description  Reports liveness and whether the dashboard cache is in use
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) Health(c *gin.Context) {
	cache := "disabled"
	if h.cache != nil {
		cache = "enabled"
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "cache": cache})
}
