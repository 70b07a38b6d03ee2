package sos

import (
	"context"
	"time"

	"gorm.io/gorm"

	"Omnipresence/internal/contacts"
	"Omnipresence/internal/models"
	"Omnipresence/pkg/errors"
	"Omnipresence/pkg/logger"
	"Omnipresence/pkg/metrics"
	stores "Omnipresence/pkg/storage"
)

// ContactSource resolves a user's emergency contacts.
type ContactSource interface {
	GetContacts(ctx context.Context, userID string) ([]contacts.EmergencyContact, error)
}

// Notifier fans one event out to a contact list.
type Notifier interface {
	Notify(ctx context.Context, event Event, list []contacts.EmergencyContact) []Delivery
}

// incidentDocument is the pinned evidence record for one alert.
type incidentDocument struct {
	AlertID     uint             `json:"alert_id"`
	UserID      string           `json:"user_id"`
	Username    string           `json:"username"`
	Latitude    float64          `json:"latitude"`
	Longitude   float64          `json:"longitude"`
	TriggeredAt time.Time        `json:"triggered_at"`
	Deliveries  []deliveryRecord `json:"deliveries"`
}

type deliveryRecord struct {
	Channel string `json:"channel"`
	Contact string `json:"contact,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Coordinator owns the SOS lifecycle: persist the alert, then notify, then
// pin the incident report. Only a failure to persist the alert is fatal;
// everything after the alert exists is best-effort.
type Coordinator struct {
	db       *gorm.DB
	contacts ContactSource
	notifier Notifier
	reports  stores.Store
}

func NewCoordinator(db *gorm.DB, source ContactSource, notifier Notifier, reports stores.Store) *Coordinator {
	return &Coordinator{db: db, contacts: source, notifier: notifier, reports: reports}
}

// Trigger creates the alert record, fans out notifications, and records the
// incident. The returned id is valid whenever err is nil, even if every
// notification failed.
func (c *Coordinator) Trigger(ctx context.Context, userID, username string, latitude, longitude float64) (uint, error) {
	alert := models.SosAlert{
		UserID:    userID,
		Latitude:  latitude,
		Longitude: longitude,
		IsActive:  true,
	}
	if err := c.db.WithContext(ctx).Create(&alert).Error; err != nil {
		return 0, errors.WrapCode(err, errors.CodeStoreUnavailable, "persist sos alert")
	}
	metrics.SosTriggers.Inc()

	// The caller's context may be a websocket session about to close.
	// Notifications outlive it.
	fanoutCtx := context.WithoutCancel(ctx)

	var outcomes []Delivery
	list, err := c.contacts.GetContacts(fanoutCtx, userID)
	switch {
	case err != nil:
		logger.Errorf("sos contacts alert=%d user=%s: %v", alert.ID, userID, err)
	case len(list) == 0:
		logger.Warnf("sos alert=%d user=%s has no emergency contacts", alert.ID, userID)
	default:
		outcomes = c.notifier.Notify(fanoutCtx, Event{
			AlertID:   alert.ID,
			UserID:    userID,
			Username:  username,
			Latitude:  latitude,
			Longitude: longitude,
		}, list)
	}

	c.recordIncident(fanoutCtx, alert, username, outcomes)

	return alert.ID, nil
}

// recordIncident pins the evidence document and links it to the alert. The
// alert stands on its own if either step fails.
func (c *Coordinator) recordIncident(ctx context.Context, alert models.SosAlert, username string, outcomes []Delivery) {
	doc := incidentDocument{
		AlertID:     alert.ID,
		UserID:      alert.UserID,
		Username:    username,
		Latitude:    alert.Latitude,
		Longitude:   alert.Longitude,
		TriggeredAt: alert.CreatedAt,
	}
	for _, d := range outcomes {
		record := deliveryRecord{Channel: d.Channel, Contact: d.Contact}
		if d.Err != nil {
			record.Error = d.Err.Error()
		}
		doc.Deliveries = append(doc.Deliveries, record)
	}

	hash, err := c.reports.PutJSON(ctx, doc)
	if err != nil {
		logger.Errorf("pin incident report alert=%d: %v", alert.ID, err)
		return
	}
	report := models.IncidentReport{AlertID: alert.ID, Hash: hash}
	if err := c.db.WithContext(ctx).Create(&report).Error; err != nil {
		logger.Errorf("record incident report alert=%d: %v", alert.ID, err)
	}
}
