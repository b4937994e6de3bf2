package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pipeline metrics, exported on /metrics by the dashboard server.
var (
	ListingsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phone_tracker_listings_dropped_total",
		Help: "Raw listings rejected by the validator, by rule.",
	}, []string{"rule"})

	ListingsAssembled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phone_tracker_listings_assembled_total",
		Help: "Listings that survived validation and were assembled, by category.",
	}, []string{"category"})

	BatteryBackfilled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "phone_tracker_battery_backfilled_total",
		Help: "Listings whose battery health was back-filled from the batch.",
	})

	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "phone_tracker_pages_fetched_total",
		Help: "Result pages written to the data lake, by keyword.",
	}, []string{"keyword"})

	ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "phone_tracker_scoring_duration_seconds",
		Help:    "Time spent scoring one candidate set.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
	})
)
