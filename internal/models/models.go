package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a registered person protected by the platform.
type User struct {
	ID           uint   `gorm:"primarykey" json:"id"`
	UserID       string `gorm:"uniqueIndex;size:64" json:"user_id"` // external identifier
	Email        string `gorm:"size:255" json:"email"`
	FirstName    string `gorm:"size:100" json:"first_name"`
	LastName     string `gorm:"size:100" json:"last_name"`
	Phone        string `gorm:"size:32" json:"phone"`
	Sex          string `gorm:"size:16" json:"sex"`
	ContactsHash string `gorm:"size:128" json:"contacts_hash"` // content hash of the emergency contact document
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HazardZone is a circular geofenced area considered dangerous.
type HazardZone struct {
	ID         uint    `gorm:"primarykey" json:"id"`
	Name       string  `gorm:"size:255" json:"name"`
	CenterLat  float64 `json:"center_lat"`
	CenterLong float64 `json:"center_long"`
	RadiusM    float64 `json:"radius_m"` // meters
	CreatedAt  time.Time
}

// GeofenceAlert records that a user was warned about a zone. The composite
// primary key carries the once-per-pair guarantee into the database.
type GeofenceAlert struct {
	UserID    string `gorm:"primaryKey;size:64" json:"user_id"`
	ZoneID    uint   `gorm:"primaryKey" json:"zone_id"`
	Message   string `gorm:"size:512" json:"message"`
	IsSent    bool   `json:"is_sent"`
	CreatedAt time.Time
}

// SosAlert is one confirmed emergency with the location it was raised from.
type SosAlert struct {
	ID        uint    `gorm:"primarykey" json:"id"`
	UserID    string  `gorm:"index;size:64" json:"user_id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	IsActive  bool    `json:"is_active"`
	CreatedAt time.Time
}

// IncidentReport links an alert to its pinned evidence document.
type IncidentReport struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	AlertID   uint   `gorm:"index" json:"alert_id"`
	Hash      string `gorm:"size:128" json:"hash"`
	CreatedAt time.Time
}

// AutoMigrate creates or updates every table the service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&HazardZone{},
		&GeofenceAlert{},
		&SosAlert{},
		&IncidentReport{},
	)
}
