package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clinicgrid/hospital-booking/internal/api"
	"github.com/clinicgrid/hospital-booking/internal/availability"
	"github.com/clinicgrid/hospital-booking/internal/booking"
	"github.com/clinicgrid/hospital-booking/internal/config"
	"github.com/clinicgrid/hospital-booking/internal/db"
	"github.com/clinicgrid/hospital-booking/internal/directory"
	"github.com/clinicgrid/hospital-booking/internal/metrics"
	"github.com/clinicgrid/hospital-booking/internal/notify"
	redisclient "github.com/clinicgrid/hospital-booking/internal/redis"
)

const version = "1.0.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s data_dir=%s", cfg.Env, cfg.HTTPPort, cfg.DataDir)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	// Load reference data and the availability ledger
	dir, err := directory.Load(cfg.DataDir)
	if err != nil {
		log.Fatalf("load directory: %v", err)
	}
	log.Printf("directory loaded from %s", cfg.DataDir)

	slots, err := availability.NewFileStore(cfg.AvailabilityFile)
	if err != nil {
		log.Fatalf("load availability: %v", err)
	}
	log.Printf("availability templates loaded from %s", cfg.AvailabilityFile)

	var emailSender notify.Sender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.EmailFrom,
		FromName:  cfg.EmailFromName,
	}); sg != nil {
		emailSender = sg
		log.Println("confirmation emails enabled")
	}

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisTemplateLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(repo, dir, slots, locker, emailSender)

	httpMetrics := metrics.NewHTTPMetrics(prometheus.DefaultRegisterer)

	router := api.NewRouter(api.RouterConfig{
		Service:   svc,
		Directory: dir,
		PgPool:    pgPool,
		Redis:     rdb,
		Metrics:   httpMetrics,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	<-rootCtx.Done()

	log.Println("shutting down api-server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
