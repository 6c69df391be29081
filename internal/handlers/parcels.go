package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/config"
	"github.com/shipit/shipit-backend/internal/models"
	"github.com/shipit/shipit-backend/internal/services"
	"github.com/shipit/shipit-backend/pkg/utils"
)

type parcelInput struct {
	DeliveryID            interface{} `json:"deliveryId"`
	SenderAddress         string      `json:"senderAddress"`
	SenderName            string      `json:"senderName"`
	SenderPhone           string      `json:"senderPhone"`
	SenderEmail           string      `json:"senderEmail"`
	FromAddress           string      `json:"fromAddress"`
	ToAddress             string      `json:"toAddress"`
	ItemDescription       string      `json:"itemDescription"`
	ItemValue             interface{} `json:"itemValue"`
	SizeTier              string      `json:"sizeTier"`
	Weight                interface{} `json:"weight"`
	PickupDate            string      `json:"pickupDate"`
	PickupTime            string      `json:"pickupTime"`
	SpecialInstructions   string      `json:"specialInstructions"`
	FeeInINR              interface{} `json:"feeInINR"`
	EscrowAmountInAVAX    interface{} `json:"escrowAmountInAVAX"`
	EscrowContractAddress string      `json:"escrowContractAddress"`
	TransactionHash       string      `json:"transactionHash"`
	SenderPhoto           string      `json:"senderPhoto"`
}

// toWhole coerces a JSON string or number to its integer part, 0 when it is
// not numeric.
func toWhole(v interface{}) float64 {
	return math.Trunc(toDecimal(v))
}

// toDecimal coerces a JSON string or number to a float, 0 when it is not
// numeric.
func toDecimal(v interface{}) float64 {
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// buildParcel validates input and maps it onto a new pending parcel. It writes
// the error response itself.
func buildParcel(c *gin.Context, db *gorm.DB, cfg *config.Config, input *parcelInput) (*models.Parcel, bool) {
	if strings.TrimSpace(input.SenderAddress) == "" || strings.TrimSpace(input.FromAddress) == "" ||
		strings.TrimSpace(input.ToAddress) == "" || strings.TrimSpace(input.ItemDescription) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "senderAddress, fromAddress, toAddress and itemDescription are required"})
		return nil, false
	}

	sender, ok := utils.NormalizeAddress(input.SenderAddress)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sender wallet address"})
		return nil, false
	}
	if _, ok := actorAddress(c, sender); !ok {
		return nil, false
	}

	tier, ok := models.ParseSizeTier(input.SizeTier)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sizeTier must be Small, Medium or Large"})
		return nil, false
	}

	parcel := &models.Parcel{
		SenderAddress:         sender,
		SenderName:            input.SenderName,
		SenderPhone:           input.SenderPhone,
		SenderEmail:           input.SenderEmail,
		FromAddress:           strings.TrimSpace(input.FromAddress),
		ToAddress:             strings.TrimSpace(input.ToAddress),
		ItemDescription:       strings.TrimSpace(input.ItemDescription),
		ItemValue:             toWhole(input.ItemValue),
		SizeTier:              tier,
		PickupDate:            input.PickupDate,
		PickupTime:            input.PickupTime,
		SpecialInstructions:   input.SpecialInstructions,
		FeeInINR:              toWhole(input.FeeInINR),
		EscrowAmountInAVAX:    toDecimal(input.EscrowAmountInAVAX),
		EscrowContractAddress: input.EscrowContractAddress,
		TransactionHash:       input.TransactionHash,
		SenderPhoto:           input.SenderPhoto,
		Status:                models.ParcelStatusPending,
		BlockchainStatus:      models.EscrowStatusPending,
	}

	if input.Weight != nil {
		w := toDecimal(input.Weight)
		parcel.Weight = &w
	}
	if parcel.EscrowContractAddress == "" {
		parcel.EscrowContractAddress = cfg.EscrowContractAddress
	}

	// Fill in the fee when the client did not send one
	if input.FeeInINR == nil {
		weight := 0.0
		if parcel.Weight != nil {
			weight = *parcel.Weight
		}
		quote := utils.CalculateFee(tier, weight, parcel.ItemValue, cfg.AVAXPerINR)
		parcel.FeeInINR = quote.FeeInINR
		if input.EscrowAmountInAVAX == nil {
			parcel.EscrowAmountInAVAX = quote.EscrowAmountInAVAX
		}
	}

	if input.DeliveryID != nil {
		if id := strings.TrimSpace(cast.ToString(input.DeliveryID)); id != "" {
			parcel.DeliveryID = &id

			var count int64
			if err := db.Model(&models.Parcel{}).Where("delivery_id = ?", id).Count(&count).Error; err != nil {
				serverError(c, "Failed to store parcel", err)
				return nil, false
			}
			if count > 0 {
				c.JSON(http.StatusConflict, gin.H{"error": "A parcel with this deliveryId already exists"})
				return nil, false
			}
		}
	}

	return parcel, true
}

func insertParcel(c *gin.Context, db *gorm.DB, hub *services.Hub, parcel *models.Parcel) bool {
	if err := db.Create(parcel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "A parcel with this deliveryId already exists"})
			return false
		}
		serverError(c, "Failed to store parcel", err)
		return false
	}

	services.ParcelsCreated.Inc()
	services.NotifyParcelUpdate(c.Request.Context(), hub, parcel, "created", parcel.TransactionHash)

	zap.L().Info("parcel stored",
		zap.Uint("id", parcel.ID),
		zap.String("deliveryId", parcel.Ref()),
		zap.String("sender", parcel.SenderAddress),
		zap.String("tx", parcel.TransactionHash))
	return true
}

// StoreParcel records a parcel the sender already created on chain.
func StoreParcel(db *gorm.DB, hub *services.Hub, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input parcelInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parcel, ok := buildParcel(c, db, cfg, &input)
		if !ok {
			return
		}
		if !insertParcel(c, db, hub, parcel) {
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"parcel":  parcel,
		})
	}
}

// CreateParcel is the legacy create endpoint; it answers with the bare parcel.
func CreateParcel(db *gorm.DB, hub *services.Hub, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input parcelInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parcel, ok := buildParcel(c, db, cfg, &input)
		if !ok {
			return
		}
		if !insertParcel(c, db, hub, parcel) {
			return
		}

		c.JSON(http.StatusCreated, parcel)
	}
}

func GetParcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		parcel, ok := loadParcel(c, db, c.Param("id"))
		if !ok {
			return
		}
		c.JSON(http.StatusOK, parcel)
	}
}

// GetAvailableParcels lists pending parcels, optionally filtered by a
// case-insensitive substring of the pickup and drop-off text.
func GetAvailableParcels(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Where("status = ?", models.ParcelStatusPending)

		if from := strings.TrimSpace(c.Query("from")); from != "" {
			query = query.Where(`LOWER(from_address) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(from))+"%")
		}
		if to := strings.TrimSpace(c.Query("to")); to != "" {
			query = query.Where(`LOWER(to_address) LIKE ? ESCAPE '\'`, "%"+escapeLike(strings.ToLower(to))+"%")
		}

		parcels := []models.Parcel{}
		if err := query.Order("created_at DESC").Order("id DESC").Find(&parcels).Error; err != nil {
			serverError(c, "Failed to fetch parcels", err)
			return
		}

		c.JSON(http.StatusOK, parcels)
	}
}

func listByAddress(db *gorm.DB, column string) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := strings.ToLower(strings.TrimSpace(c.Param("address")))

		parcels := []models.Parcel{}
		err := db.Where(column+" = ?", address).
			Order("updated_at DESC").
			Order("id DESC").
			Find(&parcels).Error
		if err != nil {
			serverError(c, "Failed to fetch parcels", err)
			return
		}

		c.JSON(http.StatusOK, parcels)
	}
}

func GetParcelsByDriver(db *gorm.DB) gin.HandlerFunc {
	return listByAddress(db, "driver_address")
}

func GetParcelsBySender(db *gorm.DB) gin.HandlerFunc {
	return listByAddress(db, "sender_address")
}

// AcceptParcel lets a driver claim a pending parcel. The pending check and the
// write are a single conditional update so only one driver can win.
func AcceptParcel(db *gorm.DB, hub *services.Hub, mailer *utils.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			DriverAddress   string `json:"driverAddress"`
			TransactionHash string `json:"transactionHash"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		actor, ok := actorAddress(c, input.DriverAddress)
		if !ok {
			return
		}
		driver, valid := utils.NormalizeAddress(actor)
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver wallet address"})
			return
		}

		parcel, ok := loadParcel(c, db, c.Param("id"))
		if !ok {
			return
		}

		claimed, err := claimParcel(db, parcel.ID, driver, input.TransactionHash)
		if err != nil {
			serverError(c, "Failed to accept parcel", err)
			return
		}
		if !claimed {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parcel not available"})
			return
		}

		if err := db.First(parcel, parcel.ID).Error; err != nil {
			serverError(c, "Failed to reload parcel", err)
			return
		}

		services.ParcelTransitions.WithLabelValues(string(parcel.Status)).Inc()
		services.NotifyParcelUpdate(c.Request.Context(), hub, parcel, "accepted", input.TransactionHash)
		if mailer.Enabled() && parcel.SenderEmail != "" {
			go sendMail(func() error {
				return mailer.SendParcelAcceptedEmail(parcel.SenderEmail, parcel.Ref(), driver)
			})
		}

		zap.L().Info("parcel accepted",
			zap.String("deliveryId", parcel.Ref()),
			zap.String("driver", driver),
			zap.String("tx", input.TransactionHash))

		c.JSON(http.StatusOK, parcel)
	}
}

// AssignDriver copies the driver's registration details onto the parcel and
// marks it accepted.
func AssignDriver(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			DriverAddress   string      `json:"driverAddress"`
			DriverName      string      `json:"driverName"`
			DriverPhone     string      `json:"driverPhone"`
			DriverCarNumber string      `json:"driverCarNumber"`
			DriverVehicle   string      `json:"driverVehicle"`
			DriverRating    interface{} `json:"driverRating"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		actor, ok := actorAddress(c, input.DriverAddress)
		if !ok {
			return
		}
		driver := ""
		if actor != "" {
			normalized, valid := utils.NormalizeAddress(actor)
			if !valid {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid driver wallet address"})
				return
			}
			driver = normalized
		}

		parcel, ok := loadParcel(c, db, c.Param("id"))
		if !ok {
			return
		}

		if parcel.DriverAddress != "" && driver != "" && parcel.DriverAddress != driver {
			zap.L().Warn("assign-driver replaces existing driver",
				zap.String("deliveryId", parcel.Ref()),
				zap.String("previous", parcel.DriverAddress),
				zap.String("driver", driver))
		}

		updates := map[string]interface{}{
			"driver_address":    driver,
			"driver_name":       input.DriverName,
			"driver_phone":      input.DriverPhone,
			"driver_car_number": input.DriverCarNumber,
			"driver_vehicle":    input.DriverVehicle,
			"driver_rating":     nil,
			"status":            models.ParcelStatusAccepted,
			"blockchain_status": models.EscrowStatusAccepted,
		}
		if input.DriverRating != nil {
			updates["driver_rating"] = toDecimal(input.DriverRating)
		}

		if err := db.Model(parcel).Updates(updates).Error; err != nil {
			serverError(c, "Failed to assign driver", err)
			return
		}
		if err := db.First(parcel, parcel.ID).Error; err != nil {
			serverError(c, "Failed to reload parcel", err)
			return
		}

		services.ParcelTransitions.WithLabelValues(string(parcel.Status)).Inc()
		services.NotifyParcelUpdate(c.Request.Context(), hub, parcel, "driver_assigned", "")

		zap.L().Info("driver assigned to parcel",
			zap.String("deliveryId", parcel.Ref()),
			zap.String("driver", driver),
			zap.String("driverName", input.DriverName))

		c.JSON(http.StatusOK, parcel)
	}
}

// UpdateParcelStatus moves a parcel through the delivery workflow. Only the
// assigned driver may call it.
func UpdateParcelStatus(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Status          string `json:"status"`
			TransactionHash string `json:"transactionHash"`
			DriverAddress   string `json:"driverAddress"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parcel, ok := loadParcel(c, db, c.Param("id"))
		if !ok {
			return
		}

		actor, ok := actorAddress(c, input.DriverAddress)
		if !ok {
			return
		}
		status, valid := models.ParseParcelStatus(input.Status)
		if !statusActorAllowed(parcel, actor, status, valid) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized: Not the assigned driver"})
			return
		}
		if !valid {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
		if parcel.FundsReleased() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Funds already released"})
			return
		}
		if !models.CanTransition(parcel.Status, status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status transition from " + string(parcel.Status) + " to " + string(status)})
			return
		}

		updates := map[string]interface{}{"status": status}
		if code, ok := models.StatusCode(status); ok {
			updates["blockchain_status"] = code
		}
		if status == models.ParcelStatusDelivered {
			// a repeated delivered update without a hash keeps the recorded one
			if parcel.Status != status || input.TransactionHash != "" {
				updates["delivery_transaction_hash"] = input.TransactionHash
			}
			if parcel.DeliveredAt == nil {
				updates["delivered_at"] = time.Now()
			}
		}

		result := db.Model(&models.Parcel{}).
			Where("id = ? AND status = ?", parcel.ID, parcel.Status).
			Updates(updates)
		if result.Error != nil {
			serverError(c, "Failed to update parcel status", result.Error)
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "Parcel status changed concurrently, retry"})
			return
		}
		if err := db.First(parcel, parcel.ID).Error; err != nil {
			serverError(c, "Failed to reload parcel", err)
			return
		}

		services.ParcelTransitions.WithLabelValues(string(parcel.Status)).Inc()
		services.NotifyParcelUpdate(c.Request.Context(), hub, parcel, "status_updated", input.TransactionHash)

		zap.L().Info("parcel status updated",
			zap.String("deliveryId", parcel.Ref()),
			zap.String("status", string(parcel.Status)),
			zap.String("tx", input.TransactionHash))

		c.JSON(http.StatusOK, parcel)
	}
}

// ReleaseFunds records the sender's escrow release after delivery.
func ReleaseFunds(db *gorm.DB, hub *services.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			TransactionHash string `json:"transactionHash"`
			SenderAddress   string `json:"senderAddress"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		parcel, ok := loadParcel(c, db, c.Param("id"))
		if !ok {
			return
		}

		actor, ok := actorAddress(c, input.SenderAddress)
		if !ok {
			return
		}
		if !utils.SameAddress(parcel.SenderAddress, actor) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Unauthorized: Not the original sender"})
			return
		}
		if parcel.Status != models.ParcelStatusDelivered {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parcel must be delivered before releasing funds"})
			return
		}
		if parcel.FundsReleased() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Funds already released"})
			return
		}

		result := db.Model(&models.Parcel{}).
			Where("id = ? AND funds_released_at IS NULL", parcel.ID).
			Updates(map[string]interface{}{
				"fund_release_transaction_hash": input.TransactionHash,
				"funds_released_at":             time.Now(),
			})
		if result.Error != nil {
			serverError(c, "Failed to release funds", result.Error)
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Funds already released"})
			return
		}
		if err := db.First(parcel, parcel.ID).Error; err != nil {
			serverError(c, "Failed to reload parcel", err)
			return
		}

		services.NotifyParcelUpdate(c.Request.Context(), hub, parcel, "funds_released", input.TransactionHash)

		zap.L().Info("funds released for parcel",
			zap.String("deliveryId", parcel.Ref()),
			zap.String("driver", parcel.DriverAddress),
			zap.String("tx", input.TransactionHash))

		c.JSON(http.StatusOK, parcel)
	}
}

// UploadProof stores the driver's proof-of-delivery photo. The status is left
// alone until the sender confirms.
func UploadProof(db *gorm.DB, hub *services.Hub, storage *services.Storage, mailer *utils.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		file, err := c.FormFile("proofPhoto")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "No file uploaded"})
			return
		}

		parcel, err := findParcel(db, c.Param("id"))
		if errors.Is(err, errParcelNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Parcel not found"})
			return
		}
		if err != nil {
			serverError(c, "Failed to load parcel", err)
			return
		}

		if wallet, ok := actorAddress(c, ""); ok && wallet != "" && !utils.SameAddress(wallet, parcel.DriverAddress) {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "Unauthorized: Not the assigned driver"})
			return
		}

		stored, err := storage.UploadImage(file, services.FolderProofs, services.ProofPhotoRule)
		if err != nil {
			if uploadRejected(c, err, "Only image files are allowed") {
				return
			}
			serverError(c, "Failed to store proof photo", err)
			return
		}

		previous := parcel.ProofPhoto
		now := time.Now()
		if err := db.Model(parcel).Updates(map[string]interface{}{
			"proof_photo":       stored.Filename,
			"proof_upload_time": now,
		}).Error; err != nil {
			serverError(c, "Failed to save proof of delivery", err)
			return
		}
		if previous != "" && previous != stored.Filename {
			removeReplacedPhoto(storage, storage.FileURL(services.FolderProofs, previous))
		}

		photoURL := storage.AbsoluteURL(stored.URL)
		services.NotifyParcelUpdate(c.Request.Context(), hub, parcel, "proof_uploaded", "")
		if mailer.Enabled() && parcel.SenderEmail != "" {
			go sendMail(func() error {
				return mailer.SendProofUploadedEmail(parcel.SenderEmail, parcel.Ref(), photoURL)
			})
		}

		zap.L().Info("proof of delivery uploaded",
			zap.String("deliveryId", parcel.Ref()),
			zap.String("file", stored.Filename))

		c.JSON(http.StatusOK, gin.H{
			"success":         true,
			"message":         "Proof of delivery uploaded successfully",
			"proofPhoto":      stored.Filename,
			"proofPhotoUrl":   photoURL,
			"proofUploadTime": now,
		})
	}
}

// claimParcel assigns driver to a parcel that is still pending. It reports
// false when another driver got there first.
func claimParcel(db *gorm.DB, id uint, driver, txHash string) (bool, error) {
	result := db.Model(&models.Parcel{}).
		Where("id = ? AND status = ?", id, models.ParcelStatusPending).
		Updates(map[string]interface{}{
			"driver_address":          driver,
			"status":                  models.ParcelStatusAccepted,
			"blockchain_status":       models.EscrowStatusAccepted,
			"accept_transaction_hash": txHash,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// statusActorAllowed reports whether actor may move parcel to status. The
// assigned driver drives every transition; the sender may only cancel a parcel
// nobody has accepted yet.
func statusActorAllowed(parcel *models.Parcel, actor string, status models.ParcelStatus, valid bool) bool {
	if utils.SameAddress(parcel.DriverAddress, actor) {
		return true
	}
	return valid &&
		status == models.ParcelStatusCancelled &&
		parcel.Status == models.ParcelStatusPending &&
		utils.SameAddress(parcel.SenderAddress, actor)
}

// removeReplacedPhoto deletes a superseded upload. Failures only leave an
// orphaned file behind.
func removeReplacedPhoto(storage *services.Storage, fileURL string) {
	if err := storage.DeleteImage(fileURL); err != nil {
		zap.L().Warn("failed to delete replaced photo", zap.String("url", fileURL), zap.Error(err))
	}
}

// uploadRejected answers 400 for validation failures from storage.
func uploadRejected(c *gin.Context, err error, typeMessage string) bool {
	switch {
	case errors.Is(err, services.ErrFileTooLarge):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File too large (max 5MB)"})
		return true
	case errors.Is(err, services.ErrUnsupportedFileType):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": typeMessage})
		return true
	}
	return false
}

// SyncParcel re-derives a parcel's status from the escrow contract.
func SyncParcel(db *gorm.DB, reconciler *services.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if reconciler == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Escrow contract reader not configured"})
			return
		}

		parcel, ok := loadParcel(c, db, c.Param("id"))
		if !ok {
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()

		changed, err := reconciler.SyncParcel(ctx, parcel)
		if errors.Is(err, services.ErrNoDeliveryID) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parcel has no deliveryId to sync"})
			return
		}
		if err != nil {
			serverError(c, "Failed to sync parcel from chain", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"changed": changed,
			"parcel":  parcel,
		})
	}
}

func sendMail(send func() error) {
	if err := send(); err != nil {
		zap.L().Warn("failed to send notification email", zap.Error(err))
	}
}
