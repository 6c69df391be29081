package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ParcelsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shipit_parcels_created_total",
		Help: "Parcels registered through the API.",
	})

	ParcelTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipit_parcel_transitions_total",
		Help: "Parcel status changes by resulting status.",
	}, []string{"status"})

	ReconcileResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipit_reconcile_total",
		Help: "Escrow reconciliation attempts by result.",
	}, []string{"result"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shipit_http_requests_total",
		Help: "HTTP requests by method, route and status code.",
	}, []string{"method", "route", "code"})
)
