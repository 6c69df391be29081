// Package analytics aggregates delivery statistics over a set of parcels.
package analytics

import (
	"math"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/shipit/shipit-backend/internal/models"
)

const (
	topRoutesLimit       = 10
	topCustomersLimit    = 20
	recentDeliveriesSize = 10
)

type Overview struct {
	TotalDeliveries      int     `json:"totalDeliveries"`
	CompletedDeliveries  int     `json:"completedDeliveries"`
	PendingDeliveries    int     `json:"pendingDeliveries"`
	InProgressDeliveries int     `json:"inProgressDeliveries"`
	TotalRevenue         float64 `json:"totalRevenue"`
	AverageDeliveryTime  float64 `json:"averageDeliveryTime"` // hours
	DeliverySuccessRate  float64 `json:"deliverySuccessRate"` // percent
}

type MonthlyStat struct {
	Month      string  `json:"month"`
	Deliveries int     `json:"deliveries"`
	Revenue    float64 `json:"revenue"`
	Completed  int     `json:"completed"`
}

type RouteStat struct {
	Route   string  `json:"route"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

type DriverStat struct {
	Driver              string  `json:"driver"`
	TotalDeliveries     int     `json:"totalDeliveries"`
	CompletedDeliveries int     `json:"completedDeliveries"`
	TotalRevenue        float64 `json:"totalRevenue"`
	AverageRating       float64 `json:"averageRating"`
	CompletionRate      float64 `json:"completionRate"`
}

type CustomerStat struct {
	Customer      string    `json:"customer"`
	TotalOrders   int       `json:"totalOrders"`
	TotalSpent    float64   `json:"totalSpent"`
	LastOrderDate time.Time `json:"lastOrderDate"`
}

// Report is the full analytics payload.
type Report struct {
	Overview          Overview        `json:"overview"`
	StatusBreakdown   map[string]int  `json:"statusBreakdown"`
	MonthlyData       []MonthlyStat   `json:"monthlyData"`
	TopRoutes         []RouteStat     `json:"topRoutes"`
	DriverPerformance []DriverStat    `json:"driverPerformance"`
	CustomerInsights  []CustomerStat  `json:"customerInsights"`
	RecentDeliveries  []models.Parcel `json:"recentDeliveries"`
}

// Since returns the lower creation-time bound for a timeframe. "7d" and "30d"
// select the last 7 and 30 days, "all" or empty selects everything, and any
// other value selects the last 365 days.
func Since(timeframe string, now time.Time) (time.Time, bool) {
	var days int
	switch timeframe {
	case "", "all":
		return time.Time{}, false
	case "7d":
		days = 7
	case "30d":
		days = 30
	default:
		days = 365
	}
	return now.Add(-time.Duration(days) * 24 * time.Hour), true
}

// Compute aggregates parcels. parcels must be ordered newest first.
func Compute(parcels []models.Parcel) Report {
	if parcels == nil {
		parcels = []models.Parcel{}
	}

	return Report{
		Overview:          ComputeOverview(parcels),
		StatusBreakdown:   statusBreakdown(parcels),
		MonthlyData:       monthlyBreakdown(parcels),
		TopRoutes:         topRoutes(parcels),
		DriverPerformance: driverPerformance(parcels),
		CustomerInsights:  customerInsights(parcels),
		RecentDeliveries:  parcels[:min(len(parcels), recentDeliveriesSize)],
	}
}

func ComputeOverview(parcels []models.Parcel) Overview {
	countStatus := func(status models.ParcelStatus) int {
		return lo.CountBy(parcels, func(p models.Parcel) bool { return p.Status == status })
	}

	total := len(parcels)
	completed := countStatus(models.ParcelStatusDelivered)

	overview := Overview{
		TotalDeliveries:      total,
		CompletedDeliveries:  completed,
		PendingDeliveries:    countStatus(models.ParcelStatusPending),
		InProgressDeliveries: countStatus(models.ParcelStatusInTransit),
		TotalRevenue:         lo.SumBy(parcels, func(p models.Parcel) float64 { return p.FeeInINR }),
		AverageDeliveryTime:  averageDeliveryHours(parcels),
	}
	if total > 0 {
		overview.DeliverySuccessRate = round2(float64(completed) / float64(total) * 100)
	}
	return overview
}

func averageDeliveryHours(parcels []models.Parcel) float64 {
	delivered := lo.Filter(parcels, func(p models.Parcel, _ int) bool {
		return p.Status == models.ParcelStatusDelivered && p.DeliveredAt != nil && !p.CreatedAt.IsZero()
	})
	if len(delivered) == 0 {
		return 0
	}

	total := lo.SumBy(delivered, func(p models.Parcel) time.Duration {
		return p.DeliveredAt.Sub(p.CreatedAt)
	})
	return math.Round((total / time.Duration(len(delivered))).Hours())
}

func statusBreakdown(parcels []models.Parcel) map[string]int {
	return lo.CountValuesBy(parcels, func(p models.Parcel) string { return string(p.Status) })
}

func monthlyBreakdown(parcels []models.Parcel) []MonthlyStat {
	groups := lo.GroupBy(parcels, func(p models.Parcel) string {
		return p.CreatedAt.UTC().Format("2006-01")
	})

	months := lo.MapToSlice(groups, func(month string, ps []models.Parcel) MonthlyStat {
		return MonthlyStat{
			Month:      month,
			Deliveries: len(ps),
			Revenue:    lo.SumBy(ps, func(p models.Parcel) float64 { return p.FeeInINR }),
			Completed:  lo.CountBy(ps, func(p models.Parcel) bool { return p.Status == models.ParcelStatusDelivered }),
		}
	})
	slices.SortFunc(months, func(a, b MonthlyStat) int { return strings.Compare(a.Month, b.Month) })
	return months
}

func topRoutes(parcels []models.Parcel) []RouteStat {
	groups := lo.GroupBy(parcels, func(p models.Parcel) string {
		return p.FromAddress + " → " + p.ToAddress
	})

	routes := lo.MapToSlice(groups, func(route string, ps []models.Parcel) RouteStat {
		return RouteStat{
			Route:   route,
			Count:   len(ps),
			Revenue: lo.SumBy(ps, func(p models.Parcel) float64 { return p.FeeInINR }),
		}
	})
	slices.SortFunc(routes, func(a, b RouteStat) int {
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Route, b.Route)
	})
	return routes[:min(len(routes), topRoutesLimit)]
}

func driverPerformance(parcels []models.Parcel) []DriverStat {
	assigned := lo.Filter(parcels, func(p models.Parcel, _ int) bool { return p.DriverAddress != "" })
	groups := lo.GroupBy(assigned, func(p models.Parcel) string { return p.DriverAddress })

	drivers := lo.MapToSlice(groups, func(driver string, ps []models.Parcel) DriverStat {
		stat := DriverStat{
			Driver:              driver,
			TotalDeliveries:     len(ps),
			CompletedDeliveries: lo.CountBy(ps, func(p models.Parcel) bool { return p.Status == models.ParcelStatusDelivered }),
			TotalRevenue:        lo.SumBy(ps, func(p models.Parcel) float64 { return p.FeeInINR }),
		}

		rated := lo.FilterMap(ps, func(p models.Parcel, _ int) (float64, bool) {
			if p.DriverRating == nil {
				return 0, false
			}
			return *p.DriverRating, true
		})
		if len(rated) > 0 {
			stat.AverageRating = round2(lo.Sum(rated) / float64(len(rated)))
		}

		stat.CompletionRate = round2(float64(stat.CompletedDeliveries) / float64(stat.TotalDeliveries) * 100)
		return stat
	})
	slices.SortFunc(drivers, func(a, b DriverStat) int {
		if a.TotalDeliveries != b.TotalDeliveries {
			return b.TotalDeliveries - a.TotalDeliveries
		}
		return strings.Compare(a.Driver, b.Driver)
	})
	return drivers
}

func customerInsights(parcels []models.Parcel) []CustomerStat {
	groups := lo.GroupBy(parcels, func(p models.Parcel) string { return p.SenderAddress })

	customers := lo.MapToSlice(groups, func(customer string, ps []models.Parcel) CustomerStat {
		latest := lo.MaxBy(ps, func(a, b models.Parcel) bool { return a.CreatedAt.After(b.CreatedAt) })
		return CustomerStat{
			Customer:      customer,
			TotalOrders:   len(ps),
			TotalSpent:    lo.SumBy(ps, func(p models.Parcel) float64 { return p.FeeInINR }),
			LastOrderDate: latest.CreatedAt,
		}
	})
	slices.SortFunc(customers, func(a, b CustomerStat) int {
		if a.TotalSpent != b.TotalSpent {
			if a.TotalSpent > b.TotalSpent {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Customer, b.Customer)
	})
	return customers[:min(len(customers), topCustomersLimit)]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
