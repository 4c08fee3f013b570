package mealsync

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	savesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reciperater_meal_saves_total",
		Help: "Meal saves by branch and outcome.",
	}, []string{"branch", "outcome"})

	saveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reciperater_meal_save_duration_seconds",
		Help:    "Time from save request to the authoritative write, cleanup excluded.",
		Buckets: prometheus.DefBuckets,
	}, []string{"branch"})

	removalsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reciperater_meal_removals_total",
		Help: "Meal removals by outcome.",
	}, []string{"outcome"})

	cleanupFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reciperater_photo_cleanup_failures_total",
		Help: "Replaced photo blobs that could not be removed.",
	})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
