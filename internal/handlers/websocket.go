package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/middleware"
	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/internal/services"
	"github.com/shipit/shipit-backend/pkg/utils"
)

// WebSocketHandler subscribes a wallet to its parcel updates. The wallet comes
// from the JWT when one is presented, otherwise from the wallet query param.
func WebSocketHandler(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, authenticated := middleware.AuthenticatedWallet(c)
		role := c.GetString(middleware.RoleKey)

		if !authenticated {
			normalized, ok := utils.NormalizeAddress(c.Query("wallet"))
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "wallet query parameter or token required"})
				return
			}
			wallet = normalized

			if requested, ok := models.ParseUserRole(c.Query("role")); ok {
				role = string(requested)
			}
		}

		if role == "" {
			if user, err := findUser(db, wallet); err == nil {
				role = string(user.Role)
			}
		}

		services.HandleWebSocket(hub, c.Writer, c.Request, wallet, role)
	}
}
