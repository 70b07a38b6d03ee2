package saferoute

import (
	"context"

	"Omnipresence/internal/geofence"
	"Omnipresence/pkg/geo"
)

// Plan is a route annotated with the hazard zones it crosses.
type Plan struct {
	Waypoints []geo.Point `json:"waypoints"`
	// Risky holds the indexes of waypoints inside a hazard zone.
	Risky []int `json:"risky_waypoints"`
	// Safe is true when no waypoint crosses a zone.
	Safe bool `json:"safe"`
}

// Planner fetches a route and checks every waypoint against the current zone
// catalogue.
type Planner struct {
	client RouteClient
	zones  geofence.ZoneSource
}

func NewPlanner(client RouteClient, zones geofence.ZoneSource) *Planner {
	return &Planner{client: client, zones: zones}
}

func (p *Planner) Plan(ctx context.Context, start, end geo.Point) (Plan, error) {
	waypoints, err := p.client.Route(ctx, start, end)
	if err != nil {
		return Plan{}, err
	}
	zones, err := p.zones.Zones(ctx)
	if err != nil {
		return Plan{}, err
	}

	plan := Plan{Waypoints: waypoints}
	for i, point := range waypoints {
		if len(geofence.Match(point, zones)) > 0 {
			plan.Risky = append(plan.Risky, i)
		}
	}
	plan.Safe = len(plan.Risky) == 0
	return plan, nil
}
