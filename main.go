package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"growledger-go/config"
	"growledger-go/database"
	"growledger-go/events"
	"growledger-go/handlers"
	"growledger-go/ledger"
	"growledger-go/logging"
	"growledger-go/metrics"
	"growledger-go/middleware"
	"growledger-go/scheduler"
	"growledger-go/store"
	"growledger-go/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	logrus.SetLevel(log.GetLevel())
	logrus.SetFormatter(log.Formatter)

	if envErr != nil {
		log.Debug("no .env file found")
	}
	warnings, err := config.Validate(cfg)
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	for _, w := range warnings {
		log.Warn(w)
	}

	if err := utils.InitializeJWT(cfg.JWTSecret); err != nil {
		log.WithError(err).Fatal("failed to initialize JWT")
	}
	cipher, err := utils.NewFieldCipher(cfg.EncryptionKey)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize encryption")
	}

	db, err := database.Initialize(cfg.DatabaseURL, logging.Gorm(log))
	if err != nil {
		log.WithError(err).Fatal("failed to initialize database")
	}
	if cfg.SeedPlans {
		n, err := database.SeedPlans(db)
		if err != nil {
			log.WithError(err).Fatal("failed to seed plans")
		}
		if n > 0 {
			log.WithField("plans", n).Info("seeded reference plans")
		}
	}

	s := store.NewGormStore(db)
	bus := events.NewBus(log)
	bus.Subscribe(events.NewNotifier(s))
	bus.Subscribe(metrics.Listener())

	l := ledger.New(s, ledger.Options{
		Config: &cfg.Ledger,
		Logger: log,
		Bus:    bus,
		Cipher: cipher,
	})

	sweeps, err := scheduler.New(cfg.SweepSchedule, l.Contracts, log)
	if err != nil {
		log.WithError(err).Fatal("failed to schedule maturity sweep")
	}
	sweeps.Start()

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer limiter.Close()

	r := mux.NewRouter()
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger(log))
	r.Use(metrics.InstrumentHandler)
	r.Use(limiter.Middleware)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	// Preflights need a matching route for the CORS middleware to run.
	r.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handlers.NewHandlers(l, cfg, sweeps, log).Routes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"port":        cfg.Port,
			"environment": cfg.Environment,
			"database":    cfg.DatabaseURL,
		}).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	sweeps.Stop(ctx)
	log.Info("server stopped")
}
