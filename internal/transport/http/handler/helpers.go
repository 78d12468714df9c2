package handler

import (
	"github.com/gin-gonic/gin"

	"docvault/internal/transport/http/middleware"
)

func getAccountIDFromContext(c *gin.Context) (uint, bool) {
	idAny, exists := c.Get(middleware.ContextAccountIDKey)
	if !exists {
		return 0, false
	}
	id, ok := idAny.(uint)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}
