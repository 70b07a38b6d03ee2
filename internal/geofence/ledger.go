package geofence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"Omnipresence/internal/models"
	"Omnipresence/pkg/errors"
)

// Ledger records which user/zone pairs have already been alerted. TryMarkSent
// is the only write path and is safe under concurrent pings for the same pair.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// TryMarkSent inserts the alert record for the pair. It returns true exactly
// once per pair: the insert that wins the conflict. Losers see false, nil.
func (l *Ledger) TryMarkSent(ctx context.Context, userID string, zoneID uint) (bool, error) {
	alert := models.GeofenceAlert{
		UserID:  userID,
		ZoneID:  zoneID,
		Message: fmt.Sprintf("Alert for geofence %d", zoneID),
		IsSent:  true,
	}
	res := l.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&alert)
	if res.Error != nil {
		return false, errors.WrapCode(res.Error, errors.CodeStoreUnavailable, "record geofence alert")
	}
	return res.RowsAffected == 1, nil
}

// WasSent reports whether the pair has an alert on record.
func (l *Ledger) WasSent(ctx context.Context, userID string, zoneID uint) (bool, error) {
	var count int64
	err := l.db.WithContext(ctx).Model(&models.GeofenceAlert{}).
		Where("user_id = ? AND zone_id = ?", userID, zoneID).
		Count(&count).Error
	if err != nil {
		return false, errors.WrapCode(err, errors.CodeStoreUnavailable, "query geofence alert")
	}
	return count > 0, nil
}
