package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bulkwave/internal/repo"
)

// GetStats handles GET /stats: per-user messaging counts and total SMS spend.
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := repo.UserMessagingStats(c.Request.Context(), h.db, userID(c))
	if err != nil {
		fail(c, http.StatusInternalServerError, CodeInternalError, "internal server error")
		return
	}
	ok(c, http.StatusOK, gin.H{"stats": stats})
}
