package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"Omnipresence/internal/audiostream"
	"Omnipresence/internal/classifier"
	"Omnipresence/internal/contacts"
	"Omnipresence/internal/geofence"
	handlers "Omnipresence/internal/handler"
	"Omnipresence/internal/models"
	"Omnipresence/internal/saferoute"
	"Omnipresence/internal/sos"
	"Omnipresence/pkg/cache"
	"Omnipresence/pkg/config"
	"Omnipresence/pkg/database"
	"Omnipresence/pkg/geo"
	"Omnipresence/pkg/logger"
	"Omnipresence/pkg/notification"
	"Omnipresence/pkg/scheduler"
	stores "Omnipresence/pkg/storage"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Log)
	defer logger.Sync()

	db, err := database.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		logger.Errorf("open database: %v", err)
		os.Exit(1)
	}
	if err := models.AutoMigrate(db); err != nil {
		logger.Errorf("migrate: %v", err)
		os.Exit(1)
	}

	c, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Errorf("open cache: %v", err)
		os.Exit(1)
	}
	defer c.Close()

	zones := geofence.NewCachedZoneSource(geofence.NewZoneStore(db), c, cfg.ZoneCacheTTL)
	monitor := geofence.NewMonitor(zones, geofence.NewLedger(db))

	store := stores.New(cfg.Store)
	directory := contacts.NewDirectory(db, store)

	dispatcher := sos.NewDispatcher(
		notification.NewWhatsAppSender(cfg.WhatsApp),
		notification.NewTwilioVoice(cfg.Twilio),
	)
	coordinator := sos.NewCoordinator(db, directory, dispatcher, store)

	audio, err := audiostream.NewManager(cfg.Audio, classifier.NewScreamClassifier(), coordinator)
	if err != nil {
		logger.Errorf("audio manager: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	audio.Start(ctx)
	defer audio.Stop()

	cr := scheduler.NewCron(nil)
	if _, err := cr.Add(cfg.ZoneRefreshSpec, func(ctx context.Context) {
		if _, err := zones.Refresh(ctx); err != nil {
			logger.Warnf("zone refresh: %v", err)
		}
	}); err != nil {
		logger.Warnf("schedule zone refresh: %v", err)
	}
	cr.Start()
	defer cr.Stop()

	planner := saferoute.NewPlanner(saferoute.NewORSClient(cfg.Routing), zones)

	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	h := handlers.New(db, monitor, zones, geo.NewGeocoder(cfg.Geocoder), coordinator, directory, planner, audio)
	h.Register(engine, cfg.PingRate)

	srv := &http.Server{Addr: cfg.Addr, Handler: engine}

	go func() {
		logger.Infof("listening on %s", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("serve: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
