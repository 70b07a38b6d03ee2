package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"
	"gorm.io/gorm"

	"Omnipresence/internal/audiostream"
	"Omnipresence/internal/contacts"
	"Omnipresence/internal/geofence"
	"Omnipresence/internal/models"
	"Omnipresence/internal/saferoute"
	"Omnipresence/internal/sos"
	"Omnipresence/pkg/errors"
	"Omnipresence/pkg/geo"
	"Omnipresence/pkg/logger"
	"Omnipresence/pkg/metrics"
	"Omnipresence/pkg/middleware"
	"Omnipresence/pkg/response"
)

// Handlers wires the HTTP surface to the domain services.
type Handlers struct {
	db          *gorm.DB
	monitor     *geofence.Monitor
	zones       *geofence.CachedZoneSource
	geocoder    *geo.Geocoder
	coordinator *sos.Coordinator
	directory   *contacts.Directory
	planner     *saferoute.Planner
	audio       *audiostream.Manager
}

func New(
	db *gorm.DB,
	monitor *geofence.Monitor,
	zones *geofence.CachedZoneSource,
	geocoder *geo.Geocoder,
	coordinator *sos.Coordinator,
	directory *contacts.Directory,
	planner *saferoute.Planner,
	audio *audiostream.Manager,
) *Handlers {
	return &Handlers{
		db:          db,
		monitor:     monitor,
		zones:       zones,
		geocoder:    geocoder,
		coordinator: coordinator,
		directory:   directory,
		planner:     planner,
		audio:       audio,
	}
}

// Register mounts every route on the engine.
func (h *Handlers) Register(r *gin.Engine, pingRate string) {
	r.GET("/health", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws/audio-stream/:user_id/:username/:latitude/:longitude", h.audio.HandleAudioStream)

	api := r.Group("/api")
	api.POST("/location-update", middleware.RateLimiter(pingRate), h.LocationUpdate)
	api.POST("/trigger-sos", h.TriggerSos)
	api.POST("/geofences", h.CreateGeofence)
	api.GET("/geofences", h.ListGeofences)
	api.POST("/users", h.CreateUser)
	api.PUT("/users/:user_id/contacts", h.SetContacts)
	api.GET("/users/:user_id/contacts", h.GetContacts)
	api.GET("/safe-route", h.SafeRoute)
}

func (h *Handlers) Health(c *gin.Context) {
	response.Success(c, "ok", nil)
}

// respondError maps service error codes onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	switch errors.GetCode(err) {
	case errors.CodeBadRequest:
		response.FailWithStatus(c, http.StatusBadRequest, err.Error())
	case errors.CodeNotFound:
		response.FailWithStatus(c, http.StatusNotFound, err.Error())
	case errors.CodeInvalidLocation:
		response.FailWithStatus(c, http.StatusUnprocessableEntity, err.Error())
	case errors.CodeStoreUnavailable:
		response.FailWithStatus(c, http.StatusServiceUnavailable, err.Error())
	default:
		logger.Errorf("unhandled error: %v", err)
		response.FailWithStatus(c, http.StatusInternalServerError, "internal error")
	}
}

type locationUpdateRequest struct {
	UserID    string  `json:"user_id" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationUpdate matches one ping against the zone catalogue.
func (h *Handlers) LocationUpdate(c *gin.Context) {
	var req locationUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	loc := geo.Point{Lat: req.Latitude, Long: req.Longitude}
	if !loc.Valid() {
		response.FailWithStatus(c, http.StatusUnprocessableEntity, "coordinates out of range")
		return
	}

	result, err := h.monitor.CheckLocation(c.Request.Context(), req.UserID, loc)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "location processed", gin.H{
		"alerts":        result.Alerts,
		"zones_matched": len(result.Alerts),
		"new_alerts":    result.New,
	})
}

type triggerSosRequest struct {
	UserID    string  `json:"user_id" binding:"required"`
	Username  string  `json:"username" binding:"required"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// TriggerSos raises an SOS directly, without the audio protocol.
func (h *Handlers) TriggerSos(c *gin.Context) {
	var req triggerSosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}

	id, err := h.coordinator.Trigger(c.Request.Context(), req.UserID, req.Username, req.Latitude, req.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, "sos triggered", gin.H{"alert_id": id})
}

type createGeofenceRequest struct {
	Name      string   `json:"name"`
	Place     string   `json:"place"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	RadiusM   float64  `json:"radius_m" binding:"required,gt=0"`
}

// CreateGeofence registers a hazard zone, geocoding the place name when no
// coordinates are given.
func (h *Handlers) CreateGeofence(c *gin.Context) {
	var req createGeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}

	var center geo.Point
	switch {
	case req.Latitude != nil && req.Longitude != nil:
		center = geo.Point{Lat: *req.Latitude, Long: *req.Longitude}
		if !center.Valid() {
			response.FailWithStatus(c, http.StatusUnprocessableEntity, "coordinates out of range")
			return
		}
	case req.Place != "":
		resolved, err := h.geocoder.Resolve(c.Request.Context(), req.Place)
		if err != nil {
			respondError(c, err)
			return
		}
		center = resolved
	default:
		response.Fail(c, "either coordinates or a place name is required", nil)
		return
	}

	zone := models.HazardZone{
		Name:       req.Name,
		CenterLat:  center.Lat,
		CenterLong: center.Long,
		RadiusM:    req.RadiusM,
	}
	if err := h.zones.InsertZone(c.Request.Context(), &zone); err != nil {
		respondError(c, err)
		return
	}
	response.Created(c, "geofence created", zone)
}

func (h *Handlers) ListGeofences(c *gin.Context) {
	zones, err := h.zones.Zones(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "geofences", zones)
}

type createUserRequest struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
	Sex       string `json:"sex"`
}

func (h *Handlers) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}
	if req.UserID == "" {
		req.UserID = uuid.NewString()
	}

	user := models.User{
		UserID:    req.UserID,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Sex:       req.Sex,
	}
	if err := h.db.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		respondError(c, errors.WrapCode(err, errors.CodeStoreUnavailable, "create user"))
		return
	}
	response.Created(c, "user created", user)
}

type setContactsRequest struct {
	FamilyMembers []contacts.EmergencyContact `json:"family_members" binding:"required"`
}

func (h *Handlers) SetContacts(c *gin.Context) {
	var req setContactsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "invalid request body", nil)
		return
	}

	hash, err := h.directory.SetContacts(c.Request.Context(), c.Param("user_id"), req.FamilyMembers)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "contacts updated", gin.H{"contacts_hash": hash})
}

func (h *Handlers) GetContacts(c *gin.Context) {
	list, err := h.directory.GetContacts(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "contacts", gin.H{"family_members": list})
}

// SafeRoute plans a route and flags waypoints crossing hazard zones.
func (h *Handlers) SafeRoute(c *gin.Context) {
	start, ok := parsePoint(c, "start_lat", "start_long")
	if !ok {
		return
	}
	end, ok := parsePoint(c, "end_lat", "end_long")
	if !ok {
		return
	}

	plan, err := h.planner.Plan(c.Request.Context(), start, end)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, "route planned", plan)
}

func scanFloat(raw string, out *float64) error {
	if raw == "" {
		return errors.New("missing value")
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil {
		return err
	}
	*out = v
	return nil
}

func parsePoint(c *gin.Context, latKey, longKey string) (geo.Point, bool) {
	var p geo.Point
	if err := scanFloat(c.Query(latKey), &p.Lat); err != nil {
		response.Fail(c, latKey+" is required", nil)
		return p, false
	}
	if err := scanFloat(c.Query(longKey), &p.Long); err != nil {
		response.Fail(c, longKey+" is required", nil)
		return p, false
	}
	if !p.Valid() {
		response.FailWithStatus(c, http.StatusUnprocessableEntity, "coordinates out of range")
		return p, false
	}
	return p, true
}
