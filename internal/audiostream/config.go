package audiostream

import (
	"time"

	"Omnipresence/pkg/errors"
)

// Config tunes the websocket audio sessions.
type Config struct {
	ReadBufferSize  int
	WriteBufferSize int
	// MaxMessageSize caps one websocket frame, not the whole buffer.
	MaxMessageSize int64
	// ConfirmWait is how long a distress prompt waits for the client reply
	// before counting as a denial.
	ConfirmWait time.Duration
	// MaxBufferBytes caps the accumulated audio. Zero means unbounded.
	MaxBufferBytes int
	WriteTimeout   time.Duration
	// Workers and QueueSize size the shared classification pool.
	Workers   int
	QueueSize int
}

func DefaultConfig() Config {
	return Config{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		MaxMessageSize:  1 << 20,
		ConfirmWait:     15 * time.Second,
		WriteTimeout:    5 * time.Second,
		Workers:         4,
		QueueSize:       64,
	}
}

func (c Config) Validate() error {
	if c.ConfirmWait <= 0 {
		return errors.WithCode(errors.CodeBadRequest, "confirm wait must be positive")
	}
	if c.Workers <= 0 {
		return errors.WithCode(errors.CodeBadRequest, "worker count must be positive")
	}
	if c.MaxBufferBytes < 0 {
		return errors.WithCode(errors.CodeBadRequest, "buffer cap cannot be negative")
	}
	return nil
}
