package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/shipit/shipit-backend/internal/models"
)

var (
	ErrNoDeliveryID        = errors.New("parcel has no escrow delivery id")
	ErrUnknownEscrowStatus = errors.New("unknown escrow status code")
)

// Reconciler re-derives parcel state from the escrow contract.
type Reconciler struct {
	db         *gorm.DB
	reader     EscrowReader
	hub        *Hub
	interval   time.Duration
	avaxPerINR float64
}

func NewReconciler(db *gorm.DB, reader EscrowReader, hub *Hub, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reconciler{db: db, reader: reader, hub: hub, interval: interval}
}

// WithAVAXPerINR sets the rate used to price backfilled parcels in INR.
func (r *Reconciler) WithAVAXPerINR(rate float64) *Reconciler {
	r.avaxPerINR = rate
	return r
}

// SyncParcel reads the parcel's delivery from the chain and stores the derived
// status, driver and timestamps. It reports whether the status or driver
// changed.
func (r *Reconciler) SyncParcel(ctx context.Context, parcel *models.Parcel) (bool, error) {
	if parcel.DeliveryID == nil || *parcel.DeliveryID == "" {
		return false, ErrNoDeliveryID
	}

	id, ok := new(big.Int).SetString(*parcel.DeliveryID, 10)
	if !ok {
		ReconcileResults.WithLabelValues("error").Inc()
		return false, fmt.Errorf("delivery id %q is not numeric", *parcel.DeliveryID)
	}

	delivery, err := r.reader.GetDelivery(ctx, id)
	if err != nil {
		ReconcileResults.WithLabelValues("error").Inc()
		return false, fmt.Errorf("read delivery %s: %w", id, err)
	}

	status, ok := models.StatusFromCode(int(delivery.Status))
	if !ok {
		ReconcileResults.WithLabelValues("error").Inc()
		return false, fmt.Errorf("%w: %d", ErrUnknownEscrowStatus, delivery.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"blockchain_status": int(delivery.Status),
		"last_synced_at":    now,
	}

	// A parcel cancelled off-chain before anyone accepted stays cancelled
	if !(parcel.Status == models.ParcelStatusCancelled && status == models.ParcelStatusPending) {
		updates["status"] = status
	}

	if delivery.Driver != "" && delivery.Driver != parcel.DriverAddress {
		updates["driver_address"] = delivery.Driver
	}

	if status == models.ParcelStatusDelivered && parcel.DeliveredAt == nil {
		updates["delivered_at"] = now
	}

	prevStatus, prevDriver := parcel.Status, parcel.DriverAddress

	if err := r.db.WithContext(ctx).Model(parcel).Updates(updates).Error; err != nil {
		ReconcileResults.WithLabelValues("error").Inc()
		return false, fmt.Errorf("store synced parcel: %w", err)
	}
	if err := r.db.WithContext(ctx).First(parcel, parcel.ID).Error; err != nil {
		return false, err
	}

	changed := parcel.Status != prevStatus || parcel.DriverAddress != prevDriver
	if changed {
		ReconcileResults.WithLabelValues("updated").Inc()
		ParcelTransitions.WithLabelValues(string(parcel.Status)).Inc()
		NotifyParcelUpdate(ctx, r.hub, parcel, "synced", "")
		zap.L().Info("parcel reconciled from chain",
			zap.String("deliveryId", *parcel.DeliveryID),
			zap.String("from", string(prevStatus)),
			zap.String("to", string(parcel.Status)))
	} else {
		ReconcileResults.WithLabelValues("unchanged").Inc()
	}

	return changed, nil
}

// SyncOpen reconciles every parcel that has a delivery id and is not yet
// delivered or cancelled. It returns the number of parcels that changed.
func (r *Reconciler) SyncOpen(ctx context.Context) (int, error) {
	var parcels []models.Parcel
	err := r.db.WithContext(ctx).
		Where("delivery_id IS NOT NULL AND delivery_id <> ''").
		Where("status NOT IN ?", []models.ParcelStatus{models.ParcelStatusDelivered, models.ParcelStatusCancelled}).
		Find(&parcels).Error
	if err != nil {
		return 0, err
	}

	changed := 0
	for i := range parcels {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		ok, err := r.SyncParcel(ctx, &parcels[i])
		if err != nil {
			zap.L().Warn("failed to reconcile parcel",
				zap.String("deliveryId", parcels[i].Ref()),
				zap.Error(err))
			continue
		}
		if ok {
			changed++
		}
	}
	return changed, nil
}

// Backfill mirrors deliveries that exist on chain but were never stored, as
// happens when a client's store call fails after the escrow transaction. It
// returns the number of parcels created.
func (r *Reconciler) Backfill(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	counter, err := r.reader.DeliveryCounter(ctx)
	if err != nil {
		return 0, fmt.Errorf("read delivery counter: %w", err)
	}
	if !counter.IsUint64() || counter.Sign() == 0 {
		return 0, nil
	}

	var known []string
	if err := r.db.WithContext(ctx).Model(&models.Parcel{}).
		Where("delivery_id IS NOT NULL").
		Pluck("delivery_id", &known).Error; err != nil {
		return 0, err
	}
	mirrored := lo.SliceToMap(known, func(id string) (string, struct{}) { return id, struct{}{} })

	created := 0
	for i := uint64(1); i <= counter.Uint64(); i++ {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		id := strconv.FormatUint(i, 10)
		if _, ok := mirrored[id]; ok {
			continue
		}

		ok, err := r.backfillOne(ctx, i)
		if err != nil {
			ReconcileResults.WithLabelValues("error").Inc()
			zap.L().Warn("failed to backfill delivery", zap.String("deliveryId", id), zap.Error(err))
			continue
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (r *Reconciler) backfillOne(ctx context.Context, n uint64) (bool, error) {
	delivery, err := r.reader.GetDelivery(ctx, new(big.Int).SetUint64(n))
	if err != nil {
		return false, err
	}
	if delivery.Sender == "" {
		return false, nil
	}

	status, ok := models.StatusFromCode(int(delivery.Status))
	if !ok {
		return false, fmt.Errorf("%w: %d", ErrUnknownEscrowStatus, delivery.Status)
	}

	id := strconv.FormatUint(n, 10)
	now := time.Now()
	parcel := &models.Parcel{
		DeliveryID:         &id,
		SenderAddress:      delivery.Sender,
		DriverAddress:      delivery.Driver,
		FromAddress:        delivery.FromAddress,
		ToAddress:          delivery.ToAddress,
		ItemDescription:    delivery.ItemDescription,
		ItemValue:          bigToFloat(delivery.ItemValue),
		SizeTier:           models.SizeMedium,
		EscrowAmountInAVAX: weiToAVAX(delivery.EscrowAmount),
		Status:             status,
		BlockchainStatus:   int(delivery.Status),
		LastSyncedAt:       &now,
	}
	if r.avaxPerINR > 0 {
		parcel.FeeInINR = math.Round(weiToAVAX(delivery.DeliveryFee) / r.avaxPerINR)
	}
	if status == models.ParcelStatusDelivered {
		parcel.DeliveredAt = &now
	}

	if err := r.db.WithContext(ctx).Create(parcel).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("store backfilled parcel: %w", err)
	}

	ReconcileResults.WithLabelValues("backfilled").Inc()
	NotifyParcelUpdate(ctx, r.hub, parcel, "backfilled", "")
	zap.L().Info("parcel backfilled from chain",
		zap.String("deliveryId", id),
		zap.String("sender", parcel.SenderAddress),
		zap.String("status", string(parcel.Status)))
	return true, nil
}

func bigToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}

var weiPerAVAX = new(big.Float).SetFloat64(1e18)

func weiToAVAX(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(v), weiPerAVAX).Float64()
	return f
}

// Run reconciles open parcels every interval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	zap.L().Info("escrow reconciler started", zap.Duration("interval", r.interval))
	for {
		if n, err := r.SyncOpen(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("reconcile pass failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("reconcile pass updated parcels", zap.Int("count", n))
		}
		if n, err := r.Backfill(ctx); err != nil && !errors.Is(err, context.Canceled) {
			zap.L().Error("backfill pass failed", zap.Error(err))
		} else if n > 0 {
			zap.L().Info("backfilled parcels from chain", zap.Int("count", n))
		}

		select {
		case <-ctx.Done():
			zap.L().Info("escrow reconciler stopped")
			return
		case <-ticker.C:
		}
	}
}
