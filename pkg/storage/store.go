package stores

import (
	"context"
	"time"
)

// Store is a content-addressed JSON document store: a put yields a hash, the
// hash retrieves the document. Contact sets and incident reports live here.
type Store interface {
	// PutJSON stores v and returns its content hash.
	PutJSON(ctx context.Context, v interface{}) (string, error)

	// GetJSON retrieves the document for hash into out.
	GetJSON(ctx context.Context, hash string, out interface{}) error
}

// Config selects and configures the content store backend.
type Config struct {
	// Backend is "ipfs" or "minio".
	Backend string `env:"CONTENT_STORE"`

	IPFS  IPFSConfig
	Minio MinioConfig
}

type IPFSConfig struct {
	APIKey     string `env:"PINATA_API_KEY"`
	SecretKey  string `env:"PINATA_API_SECRET"`
	PinURL     string `env:"PINATA_PIN_URL"`
	GatewayURL string `env:"PINATA_GATEWAY_URL"`
	Timeout    time.Duration
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET"`
	UseSSL    bool   `env:"MINIO_USE_SSL"`
}

// New builds the configured backend, defaulting to IPFS.
func New(cfg Config) Store {
	switch cfg.Backend {
	case "minio":
		return NewMinioStore(cfg.Minio)
	default:
		return NewIPFSStore(cfg.IPFS)
	}
}
