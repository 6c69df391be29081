package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/pkg/utils"
)

// legacyUser is the flat user shape of the original /api/users endpoints.
type legacyUser struct {
	ID            uint      `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Name          string    `json:"name"`
	DefaultRole   string    `json:"defaultRole"`
	VehicleNumber string    `json:"vehicleNumber,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func toLegacyUser(u *models.User) legacyUser {
	return legacyUser{
		ID:            u.ID,
		WalletAddress: u.WalletAddress,
		Name:          u.ProfileData.Name,
		DefaultRole:   string(u.Role),
		VehicleNumber: u.ProfileData.VehicleNumber,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// UpsertUser creates a user or updates the fields supplied for an existing one.
func UpsertUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			WalletAddress string  `json:"walletAddress"`
			Name          *string `json:"name"`
			DefaultRole   *string `json:"defaultRole"`
			VehicleNumber *string `json:"vehicleNumber"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		wallet, ok := utils.NormalizeAddress(input.WalletAddress)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid wallet address"})
			return
		}
		if _, ok := actorAddress(c, wallet); !ok {
			return
		}

		user := models.User{WalletAddress: wallet, Role: models.UserRoleSender}
		columns := []string{"updated_at"}

		if input.Name != nil {
			user.ProfileData.Name = *input.Name
			columns = append(columns, "profile_name")
		}
		if input.DefaultRole != nil {
			role, ok := models.ParseUserRole(*input.DefaultRole)
			if !ok {
				c.JSON(http.StatusBadRequest, gin.H{"error": "defaultRole must be sender or driver"})
				return
			}
			user.Role = role
			columns = append(columns, "role")
		}
		if input.VehicleNumber != nil {
			user.ProfileData.VehicleNumber = *input.VehicleNumber
			columns = append(columns, "profile_vehicle_number")
		}

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "wallet_address"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).Create(&user).Error
		if err != nil {
			serverError(c, "Failed to save user", err)
			return
		}

		stored, err := findUser(db, wallet)
		if err != nil {
			serverError(c, "Failed to reload user", err)
			return
		}

		c.JSON(http.StatusCreated, toLegacyUser(stored))
	}
}

func GetUser(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := findUser(db, c.Param("walletAddress"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		if err != nil {
			serverError(c, "Failed to load user", err)
			return
		}

		c.JSON(http.StatusOK, toLegacyUser(user))
	}
}
