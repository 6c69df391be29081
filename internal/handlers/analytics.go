package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/analytics"
	"github.com/shipit/shipit-backend/internal/models"
)

func loadAnalyticsParcels(db *gorm.DB, userAddress, timeframe string) ([]models.Parcel, error) {
	query := db.Model(&models.Parcel{})

	if since, ok := analytics.Since(timeframe, time.Now()); ok {
		query = query.Where("created_at >= ?", since)
	}
	if userAddress = strings.ToLower(strings.TrimSpace(userAddress)); userAddress != "" {
		query = query.Where("sender_address = ? OR driver_address = ?", userAddress, userAddress)
	}

	parcels := []models.Parcel{}
	err := query.Order("created_at DESC").Order("id DESC").Find(&parcels).Error
	return parcels, err
}

// GetAnalytics returns the full analytics report. The user filter comes from
// the :address path parameter or the userAddress query parameter.
func GetAnalytics(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userAddress := c.Param("address")
		if userAddress == "" {
			userAddress = c.Query("userAddress")
		}

		parcels, err := loadAnalyticsParcels(db, userAddress, c.DefaultQuery("timeframe", "all"))
		if err != nil {
			serverError(c, "Error fetching analytics data", err)
			return
		}

		c.JSON(http.StatusOK, analytics.Compute(parcels))
	}
}

func GetAnalyticsSummary(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		parcels, err := loadAnalyticsParcels(db, c.Query("userAddress"), c.DefaultQuery("timeframe", "all"))
		if err != nil {
			serverError(c, "Error fetching analytics data", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"overview": analytics.ComputeOverview(parcels)})
	}
}
