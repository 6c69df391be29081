package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/internal/services"
)

// UploadSenderPhoto stores a photo of the parcel taken by the sender. When a
// parcelId form field names an existing parcel the photo is attached to it.
func UploadSenderPhoto(db *gorm.DB, storage *services.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("senderPhoto")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No file uploaded"})
			return
		}

		stored, err := storage.UploadImage(file, services.FolderParcelPhotos, services.SenderPhotoRule)
		if err != nil {
			if uploadRejected(c, err, "Only .jpg, .jpeg, and .png files are allowed") {
				return
			}
			zap.L().Error("failed to upload sender photo", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error uploading file"})
			return
		}

		if ref := strings.TrimSpace(c.PostForm("parcelId")); ref != "" {
			parcel, err := findParcel(db, ref)
			switch {
			case errors.Is(err, errParcelNotFound):
				zap.L().Warn("sender photo names unknown parcel", zap.String("parcelId", ref))
			case err != nil:
				zap.L().Error("failed to load parcel for sender photo", zap.Error(err))
			default:
				previous := parcel.SenderPhoto
				if err := db.Model(parcel).Update("sender_photo", stored.URL).Error; err != nil {
					zap.L().Error("failed to attach sender photo", zap.String("parcelId", ref), zap.Error(err))
				} else if replacedPhotoUnshared(db, previous, stored.URL) {
					removeReplacedPhoto(storage, previous)
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"photoUrl": stored.URL,
			"filename": stored.Filename,
		})
	}
}

// GetSenderPhoto returns the absolute URL of a parcel's sender photo.
func GetSenderPhoto(db *gorm.DB, storage *services.Storage) gin.HandlerFunc {
	return func(c *gin.Context) {
		parcel, err := findParcel(db, c.Param("parcelId"))
		if errors.Is(err, errParcelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Parcel not found"})
			return
		}
		if err != nil {
			zap.L().Error("failed to fetch sender photo", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to fetch sender photo"})
			return
		}

		if parcel.SenderPhoto == "" {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No sender photo available for this parcel"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"photoUrl": storage.AbsoluteURL(parcel.SenderPhoto),
			"parcelId": parcel.Ref(),
		})
	}
}

// replacedPhotoUnshared reports whether previous is an uploaded sender photo
// that no parcel references any more. Clients may store arbitrary senderPhoto
// URLs, so anything outside the parcel photo folder is left alone.
func replacedPhotoUnshared(db *gorm.DB, previous, current string) bool {
	if previous == "" || previous == current || !strings.Contains(previous, "/"+services.FolderParcelPhotos+"/") {
		return false
	}
	var refs int64
	if err := db.Model(&models.Parcel{}).Where("sender_photo = ?", previous).Count(&refs).Error; err != nil {
		zap.L().Warn("failed to count sender photo references", zap.Error(err))
		return false
	}
	return refs == 0
}
