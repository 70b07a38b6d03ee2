package config

import (
	"time"

	"Omnipresence/internal/audiostream"
	"Omnipresence/internal/saferoute"
	"Omnipresence/pkg/cache"
	"Omnipresence/pkg/geo"
	"Omnipresence/pkg/logger"
	"Omnipresence/pkg/notification"
	stores "Omnipresence/pkg/storage"
	"Omnipresence/pkg/util"
)

// Config aggregates every tunable of the service. Values come from the
// environment, optionally seeded by a .env file.
type Config struct {
	Addr     string
	GinMode  string
	DBDriver string
	DSN      string

	// PingRate limits POST /api/location-update, in ulule format ("100-S").
	PingRate string

	ZoneCacheTTL time.Duration
	// ZoneRefreshSpec is the cron expression for the periodic zone reload.
	ZoneRefreshSpec string

	Log      logger.LogConfig
	Cache    cache.Config
	Store    stores.Config
	Geocoder geo.GeocoderConfig
	Routing  saferoute.ORSConfig
	Audio    audiostream.Config
	WhatsApp notification.WhatsAppConfig
	Twilio   notification.TwilioConfig
}

// Load reads the environment into a Config. A missing .env file is fine.
func Load() Config {
	_ = util.LoadEnv(util.GetEnv("APP_ENV"))

	audio := audiostream.DefaultConfig()
	audio.ConfirmWait = util.GetDurationEnv("AUDIO_CONFIRM_WAIT", audio.ConfirmWait)
	audio.MaxBufferBytes = int(util.GetIntEnvDefault("AUDIO_MAX_BUFFER_BYTES", 0))
	audio.Workers = int(util.GetIntEnvDefault("AUDIO_WORKERS", int64(audio.Workers)))
	audio.QueueSize = int(util.GetIntEnvDefault("AUDIO_QUEUE_SIZE", int64(audio.QueueSize)))

	return Config{
		Addr:     util.GetEnvDefault("ADDR", ":8080"),
		GinMode:  util.GetEnvDefault("GIN_MODE", "release"),
		DBDriver: util.GetEnvDefault("DB_DRIVER", "sqlite"),
		DSN:      util.GetEnvDefault("DB_DSN", "omnipresence.db"),

		PingRate: util.GetEnvDefault("PING_RATE", "120-M"),

		ZoneCacheTTL:    util.GetDurationEnv("ZONE_CACHE_TTL", time.Minute),
		ZoneRefreshSpec: util.GetEnvDefault("ZONE_REFRESH_SPEC", "@every 1m"),

		Log: logger.LogConfig{
			Level:      util.GetEnvDefault("LOG_LEVEL", "info"),
			Filename:   util.GetEnv("LOG_FILENAME"),
			MaxSize:    int(util.GetIntEnvDefault("LOG_MAX_SIZE", 100)),
			MaxAge:     int(util.GetIntEnvDefault("LOG_MAX_AGE", 7)),
			MaxBackups: int(util.GetIntEnvDefault("LOG_MAX_BACKUPS", 3)),
		},
		Cache: cache.Config{
			Type: util.GetEnvDefault("CACHE_TYPE", "local"),
			Redis: cache.RedisConfig{
				Addr:     util.GetEnv("REDIS_ADDR"),
				Password: util.GetEnv("REDIS_PASSWORD"),
				DB:       int(util.GetIntEnv("REDIS_DB")),
				PoolSize: int(util.GetIntEnv("REDIS_POOL_SIZE")),
			},
			Local: cache.LocalConfig{
				DefaultExpiration: util.GetDurationEnv("LOCAL_CACHE_DEFAULT_EXPIRATION", 5*time.Minute),
				CleanupInterval:   util.GetDurationEnv("LOCAL_CACHE_CLEANUP_INTERVAL", 10*time.Minute),
			},
		},
		Store: stores.Config{
			Backend: util.GetEnvDefault("CONTENT_STORE", "ipfs"),
			IPFS: stores.IPFSConfig{
				APIKey:     util.GetEnv("PINATA_API_KEY"),
				SecretKey:  util.GetEnv("PINATA_API_SECRET"),
				PinURL:     util.GetEnv("PINATA_PIN_URL"),
				GatewayURL: util.GetEnv("PINATA_GATEWAY_URL"),
			},
			Minio: stores.MinioConfig{
				Endpoint:  util.GetEnv("MINIO_ENDPOINT"),
				AccessKey: util.GetEnv("MINIO_ACCESS_KEY"),
				SecretKey: util.GetEnv("MINIO_SECRET_KEY"),
				Bucket:    util.GetEnvDefault("MINIO_BUCKET", "omnipresence"),
				UseSSL:    util.GetBoolEnv("MINIO_USE_SSL"),
			},
		},
		Geocoder: geo.GeocoderConfig{
			APIKey:  util.GetEnv("OPEN_CAGE_API"),
			BaseURL: util.GetEnv("OPEN_CAGE_URL"),
		},
		Routing: saferoute.ORSConfig{
			APIKey:  util.GetEnv("ORS_API_KEY"),
			BaseURL: util.GetEnv("ORS_URL"),
			Profile: util.GetEnvDefault("ORS_PROFILE", "driving-car"),
		},
		Audio: audio,
		WhatsApp: notification.WhatsAppConfig{
			AccessToken: util.GetEnv("META_ACCESS_TOKEN"),
			PhoneID:     util.GetEnv("META_PHONE_ID"),
			Template:    util.GetEnvDefault("META_SOS_TEMPLATE", "sos_alert"),
			BaseURL:     util.GetEnv("META_GRAPH_URL"),
		},
		Twilio: notification.TwilioConfig{
			AccountSID: util.GetEnv("TWILIO_ACCOUNT_SID"),
			AuthToken:  util.GetEnv("TWILIO_AUTH_TOKEN"),
			FromNumber: util.GetEnv("TWILIO_NUMBER"),
			BaseURL:    util.GetEnv("TWILIO_URL"),
		},
	}
}
