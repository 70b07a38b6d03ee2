package audiostream

import (
	"context"
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"

	"Omnipresence/internal/classifier"
	"Omnipresence/pkg/errors"
	"Omnipresence/pkg/metrics"
)

// StatusMessage is pushed to the client after each protocol step. A nil
// SosTriggered means a distress prompt awaiting confirmation.
type StatusMessage struct {
	SosTriggered *bool  `json:"sos_triggered"`
	Message      string `json:"message"`
	AlertID      uint   `json:"alert_id,omitempty"`
}

// clientReply is what the client sends back after a distress prompt.
type clientReply struct {
	Action string `json:"action"`
}

const actionTriggerSos = "trigger_sos"

// frame is one inbound websocket message.
type frame struct {
	kind int // websocket message type
	data []byte
}

// conn abstracts the write side of the websocket so the protocol is testable
// without a network.
type conn interface {
	WriteStatus(msg StatusMessage) error
}

// SosTrigger raises a confirmed emergency.
type SosTrigger interface {
	Trigger(ctx context.Context, userID, username string, latitude, longitude float64) (uint, error)
}

// classifyFunc scores a buffer, typically on a shared worker pool.
type classifyFunc func(ctx context.Context, pcm []byte) (classifier.Result, error)

// Session drives the distress protocol for one connection. It owns the audio
// buffer and is the only goroutine touching it.
type Session struct {
	cfg      Config
	classify classifyFunc
	trigger  SosTrigger
	conn     conn
	frames   <-chan frame

	UserID    string
	Username  string
	Latitude  float64
	Longitude float64

	buffer []byte
}

// Run consumes frames until the channel closes or ctx is done. Binary frames
// grow the buffer and trigger classification; text frames outside a prompt
// are ignored.
func (s *Session) Run(ctx context.Context, binaryKind int) {
	metrics.AudioSessions.Inc()
	defer metrics.AudioSessions.Dec()

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-s.frames:
			if !ok {
				return
			}
			if f.kind != binaryKind {
				continue
			}
			if err := s.handleChunk(ctx, f.data, binaryKind); err != nil {
				log.Warnf("audio session user=%s: %v", s.UserID, err)
				return
			}
		}
	}
}

func (s *Session) handleChunk(ctx context.Context, chunk []byte, binaryKind int) error {
	s.append(chunk)

	result, err := s.classify(ctx, s.buffer)
	if err != nil {
		return err
	}
	metrics.Classifications.WithLabelValues(string(result.Label)).Inc()

	switch result.Label {
	case classifier.Distress:
		return s.confirmAndMaybeTrigger(ctx, binaryKind)
	case classifier.Indeterminate:
		log.Warnf("indeterminate audio user=%s bytes=%d", s.UserID, len(s.buffer))
		fallthrough
	default:
		no := false
		return s.conn.WriteStatus(StatusMessage{SosTriggered: &no, Message: "You are safe."})
	}
}

// confirmAndMaybeTrigger runs the prompt, waits for the reply, and raises the
// SOS on explicit confirmation. Timeouts and any other reply count as denial.
func (s *Session) confirmAndMaybeTrigger(ctx context.Context, binaryKind int) error {
	if err := s.conn.WriteStatus(StatusMessage{
		SosTriggered: nil,
		Message:      "Distress detected. Do you want to trigger an SOS?",
	}); err != nil {
		return err
	}

	confirmed := s.awaitReply(ctx, binaryKind)

	// the prompted audio has served its purpose either way
	s.buffer = nil

	if !confirmed {
		no := false
		return s.conn.WriteStatus(StatusMessage{SosTriggered: &no, Message: "No action taken."})
	}

	alertID, err := s.trigger.Trigger(ctx, s.UserID, s.Username, s.Latitude, s.Longitude)
	if err != nil {
		log.Errorf("trigger sos user=%s: %v", s.UserID, err)
		no := false
		return s.conn.WriteStatus(StatusMessage{SosTriggered: &no, Message: "SOS could not be triggered."})
	}

	yes := true
	return s.conn.WriteStatus(StatusMessage{
		SosTriggered: &yes,
		Message:      "SOS triggered. Your emergency contacts have been notified.",
		AlertID:      alertID,
	})
}

// awaitReply waits for the confirmation frame. Binary frames arriving during
// the wait are buffered for later classification, not interpreted as replies.
func (s *Session) awaitReply(ctx context.Context, binaryKind int) bool {
	deadline := time.NewTimer(s.cfg.ConfirmWait)
	defer deadline.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-deadline.C:
			log.Warnf("confirmation wait user=%s: %v", s.UserID,
				errors.WithCode(errors.CodeProtocolTimeout, "no reply before deadline"))
			return false
		case f, ok := <-s.frames:
			if !ok {
				return false
			}
			if f.kind == binaryKind {
				s.append(f.data)
				continue
			}
			var reply clientReply
			if err := json.Unmarshal(f.data, &reply); err != nil {
				log.Warnf("bad confirmation reply user=%s: %v", s.UserID, err)
				return false
			}
			return reply.Action == actionTriggerSos
		}
	}
}

func (s *Session) append(chunk []byte) {
	s.buffer = append(s.buffer, chunk...)
	if s.cfg.MaxBufferBytes > 0 && len(s.buffer) > s.cfg.MaxBufferBytes {
		s.buffer = s.buffer[len(s.buffer)-s.cfg.MaxBufferBytes:]
	}
}
