package models

import (
	"strconv"
	"strings"
	"time"
)

// ParcelStatus is the off-chain workflow status of a parcel.
type ParcelStatus string

const (
	ParcelStatusPending   ParcelStatus = "pending"
	ParcelStatusAccepted  ParcelStatus = "accepted"
	ParcelStatusInTransit ParcelStatus = "in-transit"
	ParcelStatusDelivered ParcelStatus = "delivered"
	ParcelStatusCancelled ParcelStatus = "cancelled"

	// ParcelStatusPickedUp is accepted as input only and stored as in-transit.
	ParcelStatusPickedUp ParcelStatus = "picked-up"
)

// Escrow contract status codes mirrored in Parcel.BlockchainStatus.
const (
	EscrowStatusPending   = 0
	EscrowStatusAccepted  = 1
	EscrowStatusInTransit = 2
	EscrowStatusDelivered = 3
)

// SizeTier is the declared parcel size.
type SizeTier string

const (
	SizeSmall  SizeTier = "Small"
	SizeMedium SizeTier = "Medium"
	SizeLarge  SizeTier = "Large"
)

// Parcel is one delivery request and the backend's mirror of its escrow state.
type Parcel struct {
	ID         uint    `gorm:"primaryKey" json:"id"`
	DeliveryID *string `gorm:"column:delivery_id;uniqueIndex" json:"deliveryId,omitempty"`

	SenderAddress string `gorm:"column:sender_address;not null;index" json:"senderAddress"`
	DriverAddress string `gorm:"column:driver_address;index" json:"driverAddress,omitempty"`

	FromAddress         string   `gorm:"not null" json:"fromAddress"`
	ToAddress           string   `gorm:"not null" json:"toAddress"`
	ItemDescription     string   `gorm:"not null" json:"itemDescription"`
	ItemValue           float64  `gorm:"not null" json:"itemValue"`
	SizeTier            SizeTier `gorm:"not null;default:'Medium'" json:"sizeTier"`
	Weight              *float64 `json:"weight,omitempty"`
	PickupDate          string   `json:"pickupDate,omitempty"`
	PickupTime          string   `json:"pickupTime,omitempty"`
	SpecialInstructions string   `json:"specialInstructions,omitempty"`

	FeeInINR              float64 `gorm:"column:fee_in_inr;not null" json:"feeInINR"`
	EscrowAmountInAVAX    float64 `gorm:"column:escrow_amount_in_avax;not null" json:"escrowAmountInAVAX"`
	EscrowContractAddress string  `json:"escrowContractAddress"`

	Status           ParcelStatus `gorm:"not null;default:'pending';index" json:"status"`
	BlockchainStatus int          `gorm:"not null;default:0" json:"blockchainStatus"`

	TransactionHash            string `json:"transactionHash,omitempty"`
	AcceptTransactionHash      string `json:"acceptTransactionHash,omitempty"`
	DeliveryTransactionHash    string `json:"deliveryTransactionHash,omitempty"`
	FundReleaseTransactionHash string `json:"fundReleaseTransactionHash,omitempty"`

	ProofPhoto      string     `json:"proofPhoto,omitempty"`
	ProofUploadTime *time.Time `json:"proofUploadTime,omitempty"`
	SenderPhoto     string     `json:"senderPhoto,omitempty"`

	SenderName  string `json:"senderName,omitempty"`
	SenderPhone string `json:"senderPhone,omitempty"`
	SenderEmail string `json:"senderEmail,omitempty"`

	DriverName      string   `json:"driverName,omitempty"`
	DriverPhone     string   `json:"driverPhone,omitempty"`
	DriverCarNumber string   `json:"driverCarNumber,omitempty"`
	DriverVehicle   string   `json:"driverVehicle,omitempty"`
	DriverRating    *float64 `json:"driverRating,omitempty"`

	DeliveredAt     *time.Time `json:"deliveredAt,omitempty"`
	FundsReleasedAt *time.Time `json:"fundsReleasedAt,omitempty"`
	LastSyncedAt    *time.Time `json:"lastSyncedAt,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"creationDate"`
	UpdatedAt time.Time `json:"lastUpdated"`
}

// TableName specifies the table name
func (Parcel) TableName() string {
	return "parcels"
}

// Ref returns the identifier clients use for the parcel: the delivery id once
// the escrow contract has issued one, the store id before that.
func (p *Parcel) Ref() string {
	if p.DeliveryID != nil && *p.DeliveryID != "" {
		return *p.DeliveryID
	}
	return strconv.FormatUint(uint64(p.ID), 10)
}

// FundsReleased reports whether a fund release has been recorded.
func (p *Parcel) FundsReleased() bool {
	return p.FundReleaseTransactionHash != "" || p.FundsReleasedAt != nil
}

var statusCodes = map[ParcelStatus]int{
	ParcelStatusPending:   EscrowStatusPending,
	ParcelStatusAccepted:  EscrowStatusAccepted,
	ParcelStatusPickedUp:  EscrowStatusInTransit,
	ParcelStatusInTransit: EscrowStatusInTransit,
	ParcelStatusDelivered: EscrowStatusDelivered,
}

// StatusCode returns the escrow status code for a workflow status. Cancelled
// has no escrow code.
func StatusCode(status ParcelStatus) (int, bool) {
	code, ok := statusCodes[status]
	return code, ok
}

// StatusFromCode maps an escrow status code back to a workflow status.
func StatusFromCode(code int) (ParcelStatus, bool) {
	switch code {
	case EscrowStatusPending:
		return ParcelStatusPending, true
	case EscrowStatusAccepted:
		return ParcelStatusAccepted, true
	case EscrowStatusInTransit:
		return ParcelStatusInTransit, true
	case EscrowStatusDelivered:
		return ParcelStatusDelivered, true
	}
	return "", false
}

// ParseParcelStatus validates client input, folding picked-up into in-transit.
func ParseParcelStatus(s string) (ParcelStatus, bool) {
	switch st := ParcelStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ParcelStatusPickedUp:
		return ParcelStatusInTransit, true
	case ParcelStatusPending, ParcelStatusAccepted, ParcelStatusInTransit,
		ParcelStatusDelivered, ParcelStatusCancelled:
		return st, true
	}
	return "", false
}

var transitions = map[ParcelStatus][]ParcelStatus{
	ParcelStatusPending:   {ParcelStatusAccepted, ParcelStatusCancelled},
	ParcelStatusAccepted:  {ParcelStatusInTransit, ParcelStatusCancelled},
	ParcelStatusInTransit: {ParcelStatusDelivered},
}

// CanTransition reports whether a parcel may move from one status to another.
// Re-applying the current status is allowed so client retries are harmless.
func CanTransition(from, to ParcelStatus) bool {
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// ParseSizeTier normalises a size tier, defaulting to Medium when empty.
func ParseSizeTier(s string) (SizeTier, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return SizeMedium, true
	case "small":
		return SizeSmall, true
	case "medium":
		return SizeMedium, true
	case "large":
		return SizeLarge, true
	}
	return "", false
}
