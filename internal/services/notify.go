package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/shipit/shipit-backend/internal/models"
)

// NewParcelEvent builds the push payload for a parcel change.
func NewParcelEvent(p *models.Parcel, action, txHash string) ParcelEvent {
	event := ParcelEvent{
		Type:             EventParcelUpdate,
		ParcelID:         p.Ref(),
		Status:           string(p.Status),
		BlockchainStatus: p.BlockchainStatus,
		SenderAddress:    p.SenderAddress,
		DriverAddress:    p.DriverAddress,
		TransactionHash:  txHash,
		Action:           action,
		Timestamp:        time.Now().UTC(),
	}
	if p.DeliveryID != nil {
		event.DeliveryID = *p.DeliveryID
	}
	return event
}

// NotifyParcelUpdate fans a parcel change out to websocket subscribers and the
// Redis channel. Delivery failures are logged, never returned.
func NotifyParcelUpdate(ctx context.Context, hub *Hub, p *models.Parcel, action, txHash string) {
	event := NewParcelEvent(p, action, txHash)

	hub.SendParcelUpdate(event)

	if err := PublishParcelUpdate(ctx, event); err != nil {
		zap.L().Warn("failed to publish parcel update",
			zap.String("parcel", event.ParcelID),
			zap.String("action", action),
			zap.Error(err))
	}
}
