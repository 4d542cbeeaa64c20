package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicgrid/hospital-booking/internal/availability"
	"github.com/clinicgrid/hospital-booking/internal/booking"
	"github.com/clinicgrid/hospital-booking/internal/config"
	"github.com/clinicgrid/hospital-booking/internal/db"
	"github.com/clinicgrid/hospital-booking/internal/directory"
	redisclient "github.com/clinicgrid/hospital-booking/internal/redis"
)

// The reconciler periodically frees booked slots with no backing booking
// row, repairing drift between the availability file and the bookings
// table.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("reconciler starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running reconciler in env=%s interval=%s", cfg.Env, cfg.WorkerInterval)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

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

	dir, err := directory.Load(cfg.DataDir)
	if err != nil {
		log.Fatalf("load directory: %v", err)
	}

	slots, err := availability.NewFileStore(cfg.AvailabilityFile)
	if err != nil {
		log.Fatalf("load availability: %v", err)
	}

	repo := booking.NewPgRepository(pgPool)
	locker := redisclient.NewRedisTemplateLocker(rdb, cfg.LockTTL)
	svc := booking.NewService(repo, dir, slots, locker, nil)

	// Run once at startup
	runOnce(rootCtx, svc)

	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			log.Println("shutdown signal received, stopping reconciler")
			return
		case <-ticker.C:
			runOnce(rootCtx, svc)
		}
	}
}

func runOnce(ctx context.Context, svc *booking.Service) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	freed, err := svc.ReconcileSlots(runCtx)
	if err != nil {
		log.Printf("reconcile run error: %v", err)
		return
	}
	log.Printf("reconcile run complete in %s, freed %d orphan slots", time.Since(start), freed)
}
