package geofence

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"

	"Omnipresence/internal/models"
	"Omnipresence/pkg/cache"
	"Omnipresence/pkg/errors"
	"Omnipresence/pkg/logger"
)

// ZoneStore is the persistence behind the hazard-zone catalogue.
type ZoneStore interface {
	ListZones(ctx context.Context) ([]models.HazardZone, error)
	InsertZone(ctx context.Context, zone *models.HazardZone) error
}

// ZoneSource is what the matching path reads from. It may serve cached data.
type ZoneSource interface {
	Zones(ctx context.Context) ([]models.HazardZone, error)
}

type gormZoneStore struct {
	db *gorm.DB
}

func NewZoneStore(db *gorm.DB) ZoneStore {
	return &gormZoneStore{db: db}
}

func (s *gormZoneStore) ListZones(ctx context.Context) ([]models.HazardZone, error) {
	var zones []models.HazardZone
	if err := s.db.WithContext(ctx).Find(&zones).Error; err != nil {
		return nil, errors.WrapCode(err, errors.CodeStoreUnavailable, "list hazard zones")
	}
	return zones, nil
}

func (s *gormZoneStore) InsertZone(ctx context.Context, zone *models.HazardZone) error {
	if err := s.db.WithContext(ctx).Create(zone).Error; err != nil {
		return errors.WrapCode(err, errors.CodeStoreUnavailable, "insert hazard zone")
	}
	return nil
}

const zoneCacheKey = "geofence:zones"

// CachedZoneSource keeps the zone list in a cache so the hot location path
// does not hit the database on every ping.
type CachedZoneSource struct {
	store ZoneStore
	cache cache.Cache
	ttl   time.Duration
}

func NewCachedZoneSource(store ZoneStore, c cache.Cache, ttl time.Duration) *CachedZoneSource {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedZoneSource{store: store, cache: c, ttl: ttl}
}

func (s *CachedZoneSource) Zones(ctx context.Context) ([]models.HazardZone, error) {
	if raw, ok := s.cache.Get(ctx, zoneCacheKey); ok {
		var zones []models.HazardZone
		if err := json.Unmarshal(raw, &zones); err == nil {
			return zones, nil
		}
		// poisoned entry, fall through to the store
		_ = s.cache.Delete(ctx, zoneCacheKey)
	}
	return s.Refresh(ctx)
}

// Refresh reloads from the store and replaces the cached copy.
func (s *CachedZoneSource) Refresh(ctx context.Context) ([]models.HazardZone, error) {
	zones, err := s.store.ListZones(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(zones)
	if err == nil {
		if err := s.cache.Set(ctx, zoneCacheKey, raw, s.ttl); err != nil {
			logger.Warnf("cache zone list: %v", err)
		}
	}
	return zones, nil
}

// InsertZone writes through and drops the cached list.
func (s *CachedZoneSource) InsertZone(ctx context.Context, zone *models.HazardZone) error {
	if err := s.store.InsertZone(ctx, zone); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, zoneCacheKey); err != nil {
		logger.Warnf("invalidate zone cache: %v", err)
	}
	return nil
}
