package geofence

import (
	"context"

	"Omnipresence/internal/models"
	"Omnipresence/pkg/geo"
	"Omnipresence/pkg/logger"
	"Omnipresence/pkg/metrics"
)

// Match returns every zone whose circle contains the location. A point on the
// boundary counts as inside.
func Match(loc geo.Point, zones []models.HazardZone) []models.HazardZone {
	var hits []models.HazardZone
	for _, zone := range zones {
		center := geo.Point{Lat: zone.CenterLat, Long: zone.CenterLong}
		if geo.Distance(loc, center) <= zone.RadiusM {
			hits = append(hits, zone)
		}
	}
	return hits
}

// CheckResult describes one processed location ping.
type CheckResult struct {
	// Alerts holds every zone the location falls inside, regardless of
	// whether the user was alerted before.
	Alerts []models.HazardZone
	// New holds the subset this ping was first to record an alert for.
	New []models.HazardZone
}

// Monitor evaluates location pings against the zone catalogue and dedupes
// alerts through the ledger.
type Monitor struct {
	source ZoneSource
	ledger *Ledger
}

func NewMonitor(source ZoneSource, ledger *Ledger) *Monitor {
	return &Monitor{source: source, ledger: ledger}
}

// CheckLocation matches the ping against all zones and records an alert for
// each hit. A ledger write failure fails the whole check: the caller must
// never believe a ping was processed when its durable mark was not.
func (m *Monitor) CheckLocation(ctx context.Context, userID string, loc geo.Point) (CheckResult, error) {
	metrics.LocationPings.Inc()

	zones, err := m.source.Zones(ctx)
	if err != nil {
		return CheckResult{}, err
	}

	result := CheckResult{Alerts: Match(loc, zones)}
	for _, zone := range result.Alerts {
		metrics.ZoneMatches.Inc()
		won, err := m.ledger.TryMarkSent(ctx, userID, zone.ID)
		if err != nil {
			logger.Errorf("mark alert user=%s zone=%d: %v", userID, zone.ID, err)
			return CheckResult{}, err
		}
		if won {
			metrics.NewAlerts.Inc()
			result.New = append(result.New, zone)
		}
	}
	return result, nil
}
