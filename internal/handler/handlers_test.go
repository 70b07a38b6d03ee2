package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"Omnipresence/internal/audiostream"
	"Omnipresence/internal/classifier"
	"Omnipresence/internal/contacts"
	"Omnipresence/internal/geofence"
	"Omnipresence/internal/models"
	"Omnipresence/internal/saferoute"
	"Omnipresence/internal/sos"
	"Omnipresence/pkg/cache"
	"Omnipresence/pkg/geo"
	"Omnipresence/pkg/notification"
)

type memStore struct {
	docs map[string][]byte
}

func (s *memStore) PutJSON(_ context.Context, v interface{}) (string, error) {
	raw, _ := json.Marshal(v)
	s.docs["h1"] = raw
	return "h1", nil
}

func (s *memStore) GetJSON(_ context.Context, hash string, out interface{}) error {
	return json.Unmarshal(s.docs[hash], out)
}

type noopMessenger struct{}

func (noopMessenger) Send(context.Context, string, notification.MessageFields) error { return nil }

type noopCaller struct{}

func (noopCaller) Call(context.Context, []string, string) error { return nil }

type straightLine struct{}

func (straightLine) Route(_ context.Context, start, end geo.Point) ([]geo.Point, error) {
	return []geo.Point{start, end}, nil
}

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	zones := geofence.NewCachedZoneSource(geofence.NewZoneStore(db), cache.NewLocalCache(cache.LocalConfig{}), time.Minute)
	monitor := geofence.NewMonitor(zones, geofence.NewLedger(db))
	store := &memStore{docs: map[string][]byte{}}
	directory := contacts.NewDirectory(db, store)
	coordinator := sos.NewCoordinator(db, directory, sos.NewDispatcher(noopMessenger{}, noopCaller{}), store)
	planner := saferoute.NewPlanner(straightLine{}, zones)
	audio, err := audiostream.NewManager(audiostream.DefaultConfig(), classifier.NewScreamClassifier(), coordinator)
	require.NoError(t, err)

	h := New(db, monitor, zones, geo.NewGeocoder(geo.GeocoderConfig{}), coordinator, directory, planner, audio)
	r := gin.New()
	h.Register(r, "100-S")
	return r, db
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLocationUpdateDedupesAlerts(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/geofences", gin.H{
		"name": "quarry", "latitude": 12.90, "longitude": 77.60, "radius_m": 500,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	ping := gin.H{"user_id": "alice", "latitude": 12.9001, "longitude": 77.6001}

	w = doJSON(t, r, http.MethodPost, "/api/location-update", ping)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Alerts       []models.HazardZone `json:"alerts"`
			ZonesMatched int                 `json:"zones_matched"`
			NewAlerts    []json.RawMessage   `json:"new_alerts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.ZonesMatched)
	require.Len(t, body.Data.Alerts, 1)
	assert.Equal(t, "quarry", body.Data.Alerts[0].Name)
	assert.Len(t, body.Data.NewAlerts, 1)

	// the repeat ping still reports the in-range zone, only the new-alert
	// marker goes away
	w = doJSON(t, r, http.MethodPost, "/api/location-update", ping)
	require.Equal(t, http.StatusOK, w.Code)
	var repeat struct {
		Data struct {
			Alerts       []models.HazardZone `json:"alerts"`
			ZonesMatched int                 `json:"zones_matched"`
			NewAlerts    []json.RawMessage   `json:"new_alerts"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &repeat))
	assert.Equal(t, 1, repeat.Data.ZonesMatched)
	require.Len(t, repeat.Data.Alerts, 1)
	assert.Equal(t, "quarry", repeat.Data.Alerts[0].Name)
	assert.Empty(t, repeat.Data.NewAlerts)
}

func TestLocationUpdateRejectsBadCoordinates(t *testing.T) {
	r, _ := testRouter(t)
	w := doJSON(t, r, http.MethodPost, "/api/location-update", gin.H{
		"user_id": "alice", "latitude": 99.0, "longitude": 200.0,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTriggerSosReturnsAlertID(t *testing.T) {
	r, db := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/trigger-sos", gin.H{
		"user_id": "alice", "username": "Alice", "latitude": 12.9, "longitude": 77.6,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		Data struct {
			AlertID uint `json:"alert_id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotZero(t, body.Data.AlertID)

	var alert models.SosAlert
	require.NoError(t, db.First(&alert, body.Data.AlertID).Error)
	assert.Equal(t, "alice", alert.UserID)
}

func TestContactsRoundTrip(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/users", gin.H{"user_id": "alice", "first_name": "Alice"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/users/alice/contacts", gin.H{
		"family_members": []gin.H{{"name": "Bob", "relation": "brother", "phone_number": "+1"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/users/alice/contacts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			FamilyMembers []contacts.EmergencyContact `json:"family_members"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data.FamilyMembers, 1)
	assert.Equal(t, "Bob", body.Data.FamilyMembers[0].Name)
}

func TestSafeRouteFlagsHazards(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/geofences", gin.H{
		"name": "flooded underpass", "latitude": 12.90, "longitude": 77.60, "radius_m": 400,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/safe-route?start_lat=12.90&start_long=77.60&end_lat=13.00&end_long=77.70", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Data saferoute.Plan `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Data.Safe)
	assert.Equal(t, []int{0}, body.Data.Risky)
}

func TestSafeRouteMissingParams(t *testing.T) {
	r, _ := testRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/safe-route?start_lat=12.90", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealth(t *testing.T) {
	r, _ := testRouter(t)
	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
