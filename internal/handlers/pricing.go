package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/shipit/shipit-backend/internal/config"
	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/pkg/utils"
)

// QuoteFee prices a delivery before the sender funds the escrow.
func QuoteFee(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tier, ok := models.ParseSizeTier(c.Query("sizeTier"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "sizeTier must be Small, Medium or Large"})
			return
		}

		weight, err := optionalNumber(c.Query("weight"))
		if err != nil || weight < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "weight must be a non-negative number"})
			return
		}

		itemValue, err := optionalNumber(c.Query("itemValue"))
		if err != nil || itemValue < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "itemValue must be a non-negative number"})
			return
		}

		c.JSON(http.StatusOK, utils.CalculateFee(tier, weight, itemValue, cfg.AVAXPerINR))
	}
}

func optionalNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return cast.ToFloat64E(s)
}
