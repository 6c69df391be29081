package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/middleware"
	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/pkg/utils"
)

var errParcelNotFound = errors.New("parcel not found")

// serverError logs err and answers 500. The raw error is only echoed outside
// release mode.
func serverError(c *gin.Context, message string, err error) {
	zap.L().Error(message,
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err))

	body := gin.H{"error": message}
	if gin.Mode() != gin.ReleaseMode {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// findParcel resolves a client supplied id: the escrow delivery id first,
// then the numeric store id.
func findParcel(db *gorm.DB, ref string) (*models.Parcel, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, errParcelNotFound
	}

	var parcel models.Parcel
	err := db.Where("delivery_id = ?", ref).First(&parcel).Error
	if err == nil {
		return &parcel, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	id, convErr := strconv.ParseUint(ref, 10, 64)
	if convErr != nil {
		return nil, errParcelNotFound
	}
	err = db.First(&parcel, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errParcelNotFound
	}
	if err != nil {
		return nil, err
	}
	return &parcel, nil
}

// loadParcel wraps findParcel and writes the 404/500 response itself.
func loadParcel(c *gin.Context, db *gorm.DB, ref string) (*models.Parcel, bool) {
	parcel, err := findParcel(db, ref)
	if errors.Is(err, errParcelNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Parcel not found"})
		return nil, false
	}
	if err != nil {
		serverError(c, "Failed to load parcel", err)
		return nil, false
	}
	return parcel, true
}

// actorAddress returns the caller's wallet. A JWT identity wins; a supplied
// address that contradicts it is rejected with 403.
func actorAddress(c *gin.Context, supplied string) (string, bool) {
	supplied = strings.ToLower(strings.TrimSpace(supplied))

	wallet, ok := middleware.AuthenticatedWallet(c)
	if !ok {
		return supplied, true
	}
	if supplied != "" && !utils.SameAddress(supplied, wallet) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Address does not match the authenticated wallet"})
		return "", false
	}
	return wallet, true
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
