package contacts

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"Omnipresence/internal/models"
	"Omnipresence/pkg/errors"
)

// memStore keeps documents in a map so tests never reach the network.
type memStore struct {
	docs map[string][]byte
	n    int
}

func newMemStore() *memStore {
	return &memStore{docs: map[string][]byte{}}
}

func (s *memStore) PutJSON(_ context.Context, v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	s.n++
	hash := string(rune('a' + s.n))
	s.docs[hash] = raw
	return hash, nil
}

func (s *memStore) GetJSON(_ context.Context, hash string, out interface{}) error {
	raw, ok := s.docs[hash]
	if !ok {
		return errors.WithCode(errors.CodeStoreUnavailable, "document missing")
	}
	return json.Unmarshal(raw, out)
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	return db
}

func TestSetThenGetContacts(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&models.User{UserID: "alice"}).Error)

	dir := NewDirectory(db, newMemStore())
	ctx := context.Background()

	list := []EmergencyContact{
		{Name: "Bob", Relation: "brother", PhoneNumber: "+15550001"},
		{Name: "Carol", Relation: "friend", PhoneNumber: "+15550002"},
	}
	hash, err := dir.SetContacts(ctx, "alice", list)
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	got, err := dir.GetContacts(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, list, got)
}

func TestGetContactsMissingUserIsEmpty(t *testing.T) {
	dir := NewDirectory(testDB(t), newMemStore())

	got, err := dir.GetContacts(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetContactsNoHashIsEmpty(t *testing.T) {
	db := testDB(t)
	require.NoError(t, db.Create(&models.User{UserID: "dave"}).Error)

	dir := NewDirectory(db, newMemStore())
	got, err := dir.GetContacts(context.Background(), "dave")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSetContactsUnknownUser(t *testing.T) {
	dir := NewDirectory(testDB(t), newMemStore())

	_, err := dir.SetContacts(context.Background(), "ghost", nil)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}
