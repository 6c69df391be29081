package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipit/shipit-backend/internal/models"
)

func parcel(from, to, sender, driver string, status models.ParcelStatus, fee float64, created time.Time) models.Parcel {
	return models.Parcel{
		FromAddress:   from,
		ToAddress:     to,
		SenderAddress: sender,
		DriverAddress: driver,
		Status:        status,
		FeeInINR:      fee,
		CreatedAt:     created,
	}
}

func TestComputeOverview(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	delivered := now.Add(5 * time.Hour)

	parcels := []models.Parcel{
		parcel("A", "B", "0xs1", "", models.ParcelStatusPending, 100, now),
		parcel("A", "B", "0xs1", "0xd1", models.ParcelStatusDelivered, 200, now),
		parcel("C", "D", "0xs2", "0xd1", models.ParcelStatusDelivered, 300, now),
	}
	parcels[1].DeliveredAt = &delivered
	parcels[2].DeliveredAt = &delivered

	overview := ComputeOverview(parcels)
	assert.Equal(t, 3, overview.TotalDeliveries)
	assert.Equal(t, 2, overview.CompletedDeliveries)
	assert.Equal(t, 1, overview.PendingDeliveries)
	assert.Equal(t, 0, overview.InProgressDeliveries)
	assert.Equal(t, 600.0, overview.TotalRevenue)
	assert.Equal(t, 66.67, overview.DeliverySuccessRate)
	assert.Equal(t, 5.0, overview.AverageDeliveryTime)
}

func TestComputeEmpty(t *testing.T) {
	report := Compute(nil)
	assert.Equal(t, 0, report.Overview.TotalDeliveries)
	assert.Equal(t, 0.0, report.Overview.DeliverySuccessRate)
	assert.Equal(t, 0.0, report.Overview.AverageDeliveryTime)
	assert.Empty(t, report.MonthlyData)
	assert.Empty(t, report.RecentDeliveries)
	assert.NotNil(t, report.RecentDeliveries)
}

func TestComputeBreakdowns(t *testing.T) {
	jan := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 7, 0, 0, 0, 0, time.UTC)
	rating := 4.5

	// newest first
	parcels := []models.Parcel{
		parcel("Pune", "Mumbai", "0xs1", "0xd1", models.ParcelStatusDelivered, 300, feb),
		parcel("Pune", "Mumbai", "0xs2", "0xd1", models.ParcelStatusInTransit, 200, feb),
		parcel("Delhi", "Agra", "0xs1", "0xd2", models.ParcelStatusAccepted, 150, jan),
		parcel("Pune", "Mumbai", "0xs1", "", models.ParcelStatusPending, 100, jan),
	}
	parcels[0].DriverRating = &rating

	report := Compute(parcels)

	assert.Equal(t, map[string]int{"delivered": 1, "in-transit": 1, "accepted": 1, "pending": 1}, report.StatusBreakdown)
	assert.Equal(t, 1, report.Overview.InProgressDeliveries)

	require.Len(t, report.MonthlyData, 2)
	assert.Equal(t, MonthlyStat{Month: "2025-01", Deliveries: 2, Revenue: 250, Completed: 0}, report.MonthlyData[0])
	assert.Equal(t, MonthlyStat{Month: "2025-02", Deliveries: 2, Revenue: 500, Completed: 1}, report.MonthlyData[1])

	require.Len(t, report.TopRoutes, 2)
	assert.Equal(t, RouteStat{Route: "Pune → Mumbai", Count: 3, Revenue: 600}, report.TopRoutes[0])

	require.Len(t, report.DriverPerformance, 2)
	d1 := report.DriverPerformance[0]
	assert.Equal(t, "0xd1", d1.Driver)
	assert.Equal(t, 2, d1.TotalDeliveries)
	assert.Equal(t, 50.0, d1.CompletionRate)
	assert.Equal(t, 4.5, d1.AverageRating)

	require.Len(t, report.CustomerInsights, 2)
	assert.Equal(t, "0xs1", report.CustomerInsights[0].Customer)
	assert.Equal(t, 3, report.CustomerInsights[0].TotalOrders)
	assert.Equal(t, 550.0, report.CustomerInsights[0].TotalSpent)
	assert.Equal(t, feb, report.CustomerInsights[0].LastOrderDate)

	assert.Len(t, report.RecentDeliveries, 4)
}

func TestRecentDeliveriesCapped(t *testing.T) {
	now := time.Now()
	parcels := make([]models.Parcel, 15)
	for i := range parcels {
		parcels[i] = parcel("A", "B", "0xs", "", models.ParcelStatusPending, 1, now)
	}
	assert.Len(t, Compute(parcels).RecentDeliveries, 10)
}

func TestSince(t *testing.T) {
	now := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	_, ok := Since("all", now)
	assert.False(t, ok)
	_, ok = Since("", now)
	assert.False(t, ok)

	tests := map[string]int{"7d": 7, "30d": 30, "90d": 365, "year": 365}
	for timeframe, days := range tests {
		since, ok := Since(timeframe, now)
		assert.True(t, ok, timeframe)
		assert.Equal(t, now.AddDate(0, 0, -days), since, timeframe)
	}
}
