package utils

import (
	"math"

	"github.com/shipit/shipit-backend/internal/models"
)

// FeeQuote contains the calculated delivery fee and breakdown
type FeeQuote struct {
	SizeTier           models.SizeTier `json:"sizeTier"`
	FeeInINR           float64         `json:"feeInINR"`
	EscrowAmountInAVAX float64         `json:"escrowAmountInAVAX"`
	Breakdown          FeeBreakdown    `json:"breakdown"`
}

// FeeBreakdown shows how each input scaled the base price
type FeeBreakdown struct {
	BasePrice        float64 `json:"basePrice"`
	WeightMultiplier float64 `json:"weightMultiplier"`
	ValueMultiplier  float64 `json:"valueMultiplier"`
	AVAXPerINR       float64 `json:"avaxPerINR"`
}

// Base prices in INR per size tier
var sizeBasePrice = map[models.SizeTier]float64{
	models.SizeSmall:  80,
	models.SizeMedium: 200,
	models.SizeLarge:  400,
}

const (
	WeightFactor = 0.5   // multiplier per kg, floored at 1
	ValueFactor  = 0.001 // multiplier per INR of declared value, floored at 1
)

// CalculateFee prices a delivery from its size, weight in kg and declared value
// in INR, and converts the fee into the escrow amount in AVAX.
func CalculateFee(tier models.SizeTier, weight, itemValue, avaxPerINR float64) FeeQuote {
	base, ok := sizeBasePrice[tier]
	if !ok {
		tier = models.SizeMedium
		base = sizeBasePrice[models.SizeMedium]
	}

	weightMultiplier := math.Max(1, weight*WeightFactor)
	valueMultiplier := math.Max(1, itemValue*ValueFactor)
	fee := math.Round(base * weightMultiplier * valueMultiplier)

	return FeeQuote{
		SizeTier:           tier,
		FeeInINR:           fee,
		EscrowAmountInAVAX: math.Round(fee*avaxPerINR*1e6) / 1e6,
		Breakdown: FeeBreakdown{
			BasePrice:        base,
			WeightMultiplier: weightMultiplier,
			ValueMultiplier:  valueMultiplier,
			AVAXPerINR:       avaxPerINR,
		},
	}
}
