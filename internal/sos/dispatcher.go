package sos

import (
	"context"

	"Omnipresence/internal/contacts"
	"Omnipresence/pkg/logger"
	"Omnipresence/pkg/metrics"
	"Omnipresence/pkg/notification"
)

// Event is what gets fanned out to a user's emergency contacts.
type Event struct {
	AlertID   uint
	UserID    string
	Username  string
	Latitude  float64
	Longitude float64
}

// MessageChannel sends one text notification to one contact.
type MessageChannel interface {
	Send(ctx context.Context, phone string, fields notification.MessageFields) error
}

// VoiceChannel places calls to a batch of numbers.
type VoiceChannel interface {
	Call(ctx context.Context, numbers []string, script string) error
}

// Delivery is the outcome of one notification attempt.
type Delivery struct {
	Channel string
	Contact string
	Err     error
}

// Dispatcher fans an event out over the configured channels. One contact
// failing never blocks the others, and a failed message never removes the
// contact from the voice-call batch.
type Dispatcher struct {
	message MessageChannel
	voice   VoiceChannel
}

func NewDispatcher(message MessageChannel, voice VoiceChannel) *Dispatcher {
	return &Dispatcher{message: message, voice: voice}
}

// Notify sends a message to every contact, then places one batched voice
// call. It reports per-attempt outcomes and never returns an error itself.
func (d *Dispatcher) Notify(ctx context.Context, event Event, list []contacts.EmergencyContact) []Delivery {
	var outcomes []Delivery
	var numbers []string

	for _, contact := range list {
		numbers = append(numbers, contact.PhoneNumber)

		err := d.message.Send(ctx, contact.PhoneNumber, notification.MessageFields{
			Recipient: contact.Name,
			User:      event.Username,
			Latitude:  event.Latitude,
			Longitude: event.Longitude,
		})
		if err != nil {
			logger.Errorf("sos message alert=%d contact=%s: %v", event.AlertID, contact.Name, err)
			metrics.NotificationFailures.WithLabelValues("message").Inc()
		} else {
			metrics.NotificationsSent.WithLabelValues("message").Inc()
		}
		outcomes = append(outcomes, Delivery{Channel: "message", Contact: contact.PhoneNumber, Err: err})
	}

	if len(numbers) > 0 {
		err := d.voice.Call(ctx, numbers, notification.EmergencyCallScript(event.Username))
		if err != nil {
			logger.Errorf("sos voice alert=%d: %v", event.AlertID, err)
			metrics.NotificationFailures.WithLabelValues("voice").Inc()
		} else {
			metrics.NotificationsSent.WithLabelValues("voice").Inc()
		}
		outcomes = append(outcomes, Delivery{Channel: "voice", Err: err})
	}

	return outcomes
}
