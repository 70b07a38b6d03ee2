package contacts

import (
	"context"

	"gorm.io/gorm"

	"Omnipresence/internal/models"
	"Omnipresence/pkg/errors"
	stores "Omnipresence/pkg/storage"
)

// EmergencyContact is one person to notify when a user raises an SOS.
type EmergencyContact struct {
	Name        string `json:"name"`
	Relation    string `json:"relation"`
	PhoneNumber string `json:"phone_number"`
}

// contactDocument is the pinned JSON shape holding a user's contact list.
type contactDocument struct {
	FamilyMembers []EmergencyContact `json:"family_members"`
}

// Directory resolves a user's emergency contacts. The list itself lives in
// the content store; the user row only carries its hash.
type Directory struct {
	db    *gorm.DB
	store stores.Store
}

func NewDirectory(db *gorm.DB, store stores.Store) *Directory {
	return &Directory{db: db, store: store}
}

// GetContacts returns the user's contact list. A missing user or a user who
// never registered contacts yields an empty list, not an error.
func (d *Directory) GetContacts(ctx context.Context, userID string) ([]EmergencyContact, error) {
	var user models.User
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.WrapCode(err, errors.CodeStoreUnavailable, "load user")
	}
	if user.ContactsHash == "" {
		return nil, nil
	}

	var doc contactDocument
	if err := d.store.GetJSON(ctx, user.ContactsHash, &doc); err != nil {
		return nil, err
	}
	return doc.FamilyMembers, nil
}

// SetContacts pins the contact list and points the user row at the new hash.
func (d *Directory) SetContacts(ctx context.Context, userID string, list []EmergencyContact) (string, error) {
	hash, err := d.store.PutJSON(ctx, contactDocument{FamilyMembers: list})
	if err != nil {
		return "", err
	}

	res := d.db.WithContext(ctx).Model(&models.User{}).
		Where("user_id = ?", userID).
		Update("contacts_hash", hash)
	if res.Error != nil {
		return "", errors.WrapCode(res.Error, errors.CodeStoreUnavailable, "update contacts hash")
	}
	if res.RowsAffected == 0 {
		return "", errors.WithCodef(errors.CodeNotFound, "user %s not found", userID)
	}
	return hash, nil
}
