package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"sensor-anomaly-engine/alerting"
	"sensor-anomaly-engine/analytics"
	"sensor-anomaly-engine/cache"
	"sensor-anomaly-engine/config"
	"sensor-anomaly-engine/handlers"
	"sensor-anomaly-engine/models"
	"sensor-anomaly-engine/ws"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfg, err := config.Load(".")
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
		logger.SetLevel(level)
	}

	redisClient, err := cache.NewRedisClient(cfg.Redis.Addr)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis at %s: %v", cfg.Redis.Addr, err)
	}
	defer redisClient.Close()
	logger.Infof("Connected to Redis at %s", cfg.Redis.Addr)

	hub := ws.NewHub(logger)
	go hub.Run()
	alerter := alerting.NewAlerter(hub, logger)

	engine := analytics.NewEngine(logger,
		analytics.WithBufferCapacity(cfg.Engine.BufferCapacity),
		analytics.WithAnomalyCallback(func(event models.AnomalyEvent) {
			handlers.CountAnomaly(event)
			alerter.Notify(event)
		}),
	)

	// Per-channel overrides from config.yaml.
	for name, dc := range cfg.Channels {
		channel, err := models.ParseChannel(name)
		if err != nil {
			logger.Fatalf("Invalid channel %q in config: %v", name, err)
		}
		if err := engine.Configure(channel, dc); err != nil {
			logger.Fatalf("Invalid config for channel %s: %v", name, err)
		}
	}

	r := mux.NewRouter()

	sensorHandler := handlers.NewSensorHandler(engine, redisClient, logger)

	r.HandleFunc("/health", handlers.HealthCheck).Methods("GET")
	r.HandleFunc("/readings", sensorHandler.HandleReading).Methods("POST")
	r.HandleFunc("/outcome", sensorHandler.HandleOutcome).Methods("GET")
	r.HandleFunc("/events", sensorHandler.HandleEvents).Methods("GET")
	r.HandleFunc("/events/acknowledge", sensorHandler.HandleAcknowledge).Methods("POST")
	r.HandleFunc("/statistics", sensorHandler.HandleStatistics).Methods("GET")
	r.HandleFunc("/config/{channel}", sensorHandler.HandleSetConfig).Methods("PUT")
	r.HandleFunc("/config/{channel}", sensorHandler.HandleGetConfig).Methods("GET")
	r.HandleFunc("/history/{device_id}", sensorHandler.HandleClearDevice).Methods("DELETE")
	r.HandleFunc("/history", sensorHandler.HandleClearAll).Methods("DELETE")
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		ws.ServeWS(hub, w, req)
	})

	r.Path("/metrics").Handler(promhttp.Handler())

	srv := &http.Server{
		Addr:           cfg.Server.Addr,
		Handler:        r,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1 MB
	}

	go func() {
		logger.Infof("Server starting on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}
