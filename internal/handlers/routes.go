package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/config"
	"github.com/shipit/shipit-backend/internal/middleware"
	"github.com/shipit/shipit-backend/internal/services"
	"github.com/shipit/shipit-backend/pkg/utils"
)

// Deps carries everything the handlers need. Reconciler is nil when no chain
// endpoint is configured.
type Deps struct {
	DB         *gorm.DB
	Hub        *services.Hub
	Storage    *services.Storage
	Reconciler *services.Reconciler
	Mailer     *utils.Mailer
	Config     *config.Config
}

// RegisterRoutes mounts the API under /api.
func RegisterRoutes(r *gin.Engine, d Deps) {
	db, hub, cfg := d.DB, d.Hub, d.Config

	optionalAuth := middleware.WalletAuth(cfg.JWTSecret, false)
	writeAuth := middleware.WalletAuth(cfg.JWTSecret, cfg.RequireWalletAuth)

	api := r.Group("/api")
	api.Use(optionalAuth)
	{
		auth := api.Group("/auth")
		{
			auth.GET("/user/:walletAddress", CheckUserExists(db))
			auth.GET("/profile/:walletAddress", GetUserProfile(db))
			auth.POST("/register/sender", RegisterSender(db))
			auth.POST("/register/driver", RegisterDriver(db))
			auth.GET("/nonce/:walletAddress", IssueLoginNonce())
			auth.POST("/verify", VerifyLogin(db, cfg.JWTSecret))
		}

		users := api.Group("/users")
		{
			users.POST("", UpsertUser(db))
			users.GET("/:walletAddress", GetUser(db))
		}

		parcels := api.Group("/parcels")
		{
			parcels.GET("/available", GetAvailableParcels(db))
			parcels.GET("/quote", QuoteFee(cfg))
			parcels.GET("/driver/:address", GetParcelsByDriver(db))
			parcels.GET("/sender/:address", GetParcelsBySender(db))
			parcels.GET("/:id", GetParcel(db))

			parcels.POST("", writeAuth, CreateParcel(db, hub, cfg))
			parcels.POST("/store", writeAuth, StoreParcel(db, hub, cfg))
			parcels.POST("/:id/accept", writeAuth, AcceptParcel(db, hub, d.Mailer))
			parcels.PUT("/:id/assign-driver", writeAuth, AssignDriver(db, hub))
			parcels.PUT("/:id/status", writeAuth, UpdateParcelStatus(db, hub))
			parcels.PUT("/:id/release-funds", writeAuth, ReleaseFunds(db, hub))
			parcels.POST("/:id/proof", writeAuth, UploadProof(db, hub, d.Storage, d.Mailer))
			parcels.POST("/:id/sync", SyncParcel(db, d.Reconciler))
		}

		photos := api.Group("/photos")
		{
			photos.POST("/upload-sender-photo", writeAuth, UploadSenderPhoto(db, d.Storage))
			photos.GET("/parcel/:parcelId/sender-photo", GetSenderPhoto(db, d.Storage))
		}

		analytics := api.Group("/analytics")
		{
			analytics.GET("", GetAnalytics(db))
			analytics.GET("/user/:address", GetAnalytics(db))
			analytics.GET("/summary", GetAnalyticsSummary(db))
		}

		// WebSocket connection
		api.GET("/ws", WebSocketHandler(db, hub))
	}
}
