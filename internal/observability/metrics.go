package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	templatePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workout_service",
		Subsystem: "persistence",
		Name:      "last_template_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout template persisted to Postgres.",
	})
	postPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "workout_service",
		Subsystem: "persistence",
		Name:      "last_post_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent workout post persisted to Postgres.",
	})
)

func init() {
	prometheus.MustRegister(templatePersistGauge, postPersistGauge)
}

// RecordTemplatePersisted updates the template persistence watermark gauge.
func RecordTemplatePersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	templatePersistGauge.Set(float64(ts.Unix()))
}

// RecordPostPersisted updates the post persistence watermark gauge.
func RecordPostPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	postPersistGauge.Set(float64(ts.Unix()))
}
