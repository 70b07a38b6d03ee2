package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// LocationPings counts processed location updates.
	LocationPings = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geofence_location_pings_total",
		Help: "Location updates processed by the geofence monitor",
	})

	// ZoneMatches counts in-range zone hits across all pings.
	ZoneMatches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geofence_zone_matches_total",
		Help: "Hazard zones matched by location updates",
	})

	// NewAlerts counts first-time (user, zone) ledger transitions.
	NewAlerts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "geofence_new_alerts_total",
		Help: "Ledger entries transitioned from unsent to sent",
	})

	// Classifications counts classifier runs by resulting label.
	Classifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "audio_classifications_total",
		Help: "Audio classifications by label",
	}, []string{"label"})

	// SosTriggers counts durable SOS alerts created.
	SosTriggers = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sos_triggers_total",
		Help: "SOS alerts persisted",
	})

	// NotificationsSent counts successful channel deliveries.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_notifications_sent_total",
		Help: "Successful notification deliveries by channel",
	}, []string{"channel"})

	// NotificationFailures counts per-contact delivery failures.
	NotificationFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sos_notification_failures_total",
		Help: "Failed notification deliveries by channel",
	}, []string{"channel"})

	// AudioSessions tracks live audio-stream connections.
	AudioSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "audio_sessions_active",
		Help: "Active audio streaming sessions",
	})
)

// Handler exposes the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
