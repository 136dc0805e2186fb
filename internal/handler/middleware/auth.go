package middleware

import (
	"crypto/subtle"
	"net/http"

	"usdt-exchange-bot/internal/handler/httperr"
	"usdt-exchange-bot/internal/pkg/config"
	"usdt-exchange-bot/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

const adminTokenHeader = "X-Admin-Token"

var errAdminTokenMismatch = errs.New("admin token mismatch")

// AdminAuth guards the admin API with a shared token. An empty configured
// token disables the API entirely rather than leaving it open.
func AdminAuth(cfg config.Admin) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg.APIToken == "" {
			httperr.AbortWithError(c, http.StatusNotFound, errAdminTokenMismatch, "Not found", nil)
			return
		}
		got := c.GetHeader(adminTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(cfg.APIToken)) != 1 {
			httperr.AbortWithError(c, http.StatusUnauthorized, errAdminTokenMismatch, "Unauthorized", nil)
			return
		}
		c.Next()
	}
}
