package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/internal/services"
	"github.com/shipit/shipit-backend/pkg/utils"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func internalError(c *gin.Context, message string, err error) {
	zap.L().Error(message, zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
}

func findUser(db *gorm.DB, wallet string) (*models.User, error) {
	var user models.User
	err := db.Where("wallet_address = ?", strings.ToLower(strings.TrimSpace(wallet))).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CheckUserExists reports whether a wallet is registered and with which role.
func CheckUserExists(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet := strings.TrimSpace(c.Param("walletAddress"))
		if wallet == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Wallet address is required"})
			return
		}

		user, err := findUser(db, wallet)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, gin.H{"success": true, "userExists": false})
			return
		}
		if err != nil {
			internalError(c, "failed to look up user", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"userExists": true,
			"role":       user.Role,
			"data":       user,
		})
	}
}

func GetUserProfile(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := findUser(db, c.Param("walletAddress"))
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "User not found"})
			return
		}
		if err != nil {
			internalError(c, "failed to load user profile", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": user})
	}
}

// registerUser inserts a new user unless the wallet is already registered.
func registerUser(c *gin.Context, db *gorm.DB, user *models.User, message string) {
	if _, ok := actorAddress(c, user.WalletAddress); !ok {
		return
	}

	_, err := findUser(db, user.WalletAddress)
	if err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "User already registered"})
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		internalError(c, "failed to look up user", err)
		return
	}

	if err := db.Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "User already registered"})
			return
		}
		internalError(c, "failed to register user", err)
		return
	}

	zap.L().Info("user registered", zap.String("wallet", user.WalletAddress), zap.String("role", string(user.Role)))
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message, "data": user})
}

func RegisterSender(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			WalletAddress       string `json:"walletAddress"`
			Name                string `json:"name"`
			Email               string `json:"email"`
			Phone               string `json:"phone"`
			PreferredPickupZone string `json:"preferredPickupZone"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		if input.WalletAddress == "" || input.Name == "" || input.Email == "" || input.Phone == "" || input.PreferredPickupZone == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
			return
		}
		wallet, ok := utils.NormalizeAddress(input.WalletAddress)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid wallet address"})
			return
		}
		if !emailPattern.MatchString(input.Email) {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid email address"})
			return
		}

		registerUser(c, db, &models.User{
			WalletAddress: wallet,
			Role:          models.UserRoleSender,
			ProfileData: models.Profile{
				Name:                input.Name,
				Email:               input.Email,
				Phone:               input.Phone,
				PreferredPickupZone: input.PreferredPickupZone,
			},
		}, "Sender registered successfully")
	}
}

func RegisterDriver(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			WalletAddress string      `json:"walletAddress"`
			Name          string      `json:"name"`
			Phone         string      `json:"phone"`
			VehicleType   string      `json:"vehicleType"`
			VehicleNumber string      `json:"vehicleNumber"`
			Capacity      interface{} `json:"capacity"`
			LicenseNumber string      `json:"licenseNumber"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
			return
		}

		if input.WalletAddress == "" || input.Name == "" || input.Phone == "" || input.VehicleType == "" ||
			input.Capacity == nil || input.Capacity == "" || input.LicenseNumber == "" {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "All fields are required"})
			return
		}

		capacity, err := cast.ToFloat64E(input.Capacity)
		if err != nil || capacity <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Capacity must be a positive number"})
			return
		}

		wallet, ok := utils.NormalizeAddress(input.WalletAddress)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid wallet address"})
			return
		}

		registerUser(c, db, &models.User{
			WalletAddress: wallet,
			Role:          models.UserRoleDriver,
			ProfileData: models.Profile{
				Name:          input.Name,
				Phone:         input.Phone,
				VehicleType:   input.VehicleType,
				VehicleNumber: input.VehicleNumber,
				Capacity:      capacity,
				LicenseNumber: input.LicenseNumber,
			},
		}, "Driver registered successfully")
	}
}

// IssueLoginNonce hands out a one-time nonce the wallet signs to log in.
func IssueLoginNonce() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet, ok := utils.NormalizeAddress(c.Param("walletAddress"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid wallet address"})
			return
		}
		if services.RedisClient == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Wallet login is not available"})
			return
		}

		nonce, err := services.IssueNonce(c.Request.Context(), wallet)
		if err != nil {
			internalError(c, "failed to issue login nonce", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"nonce":     nonce,
			"message":   utils.LoginMessage(nonce),
			"expiresIn": int(services.NonceTTL.Seconds()),
		})
	}
}

// VerifyLogin checks a personal_sign signature over the login message and
// returns a JWT for the wallet.
func VerifyLogin(db *gorm.DB, secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			WalletAddress string `json:"walletAddress" binding:"required"`
			Signature     string `json:"signature" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "walletAddress and signature are required"})
			return
		}

		wallet, ok := utils.NormalizeAddress(input.WalletAddress)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid wallet address"})
			return
		}
		if services.RedisClient == nil || secret == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Wallet login is not available"})
			return
		}

		nonce, err := services.ConsumeNonce(c.Request.Context(), wallet)
		if errors.Is(err, services.ErrNonceNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login nonce missing or expired"})
			return
		}
		if err != nil {
			internalError(c, "failed to read login nonce", err)
			return
		}

		if err := utils.VerifyWalletSignature(wallet, utils.LoginMessage(nonce), input.Signature); err != nil {
			zap.L().Warn("wallet signature rejected", zap.String("wallet", wallet), zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid signature"})
			return
		}

		user, err := findUser(db, wallet)
		userExists := err == nil
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			internalError(c, "failed to look up user", err)
			return
		}
		if !userExists {
			user = &models.User{WalletAddress: wallet}
		}

		token, err := utils.GenerateToken(user, secret)
		if err != nil {
			internalError(c, "failed to sign token", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":    true,
			"token":      token,
			"expiresAt":  time.Now().Add(utils.TokenLifetime).Unix(),
			"userExists": userExists,
			"role":       user.Role,
		})
	}
}
