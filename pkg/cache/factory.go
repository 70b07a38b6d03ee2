package cache

// New builds the cache selected by config.Type, defaulting to the local
// backend.
func New(config Config) (Cache, error) {
	switch config.Type {
	case "redis":
		return NewRedisCache(config.Redis)
	default:
		return NewLocalCache(config.Local), nil
	}
}
