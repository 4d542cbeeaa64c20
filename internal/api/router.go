package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/clinicgrid/hospital-booking/internal/booking"
	"github.com/clinicgrid/hospital-booking/internal/directory"
	"github.com/clinicgrid/hospital-booking/internal/metrics"
)

type RouterConfig struct {
	Service   *booking.Service
	Directory *directory.Store
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Metrics   *metrics.HTTPMetrics
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Metrics))

	// Health and metrics endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Directory endpoints
	r.Get("/hospitals", listHospitalsHandler(cfg.Directory))
	r.Get("/specializations", listSpecializationsHandler(cfg.Directory))
	r.Get("/doctors", listDoctorsHandler(cfg.Directory))
	r.Get("/doctors/{id}/availability", doctorAvailabilityHandler(cfg.Service, cfg.Directory))
	r.Get("/availability/{id}", templateAvailabilityHandler(cfg.Service))

	// Appointment endpoints
	r.Post("/appointments", createBookingHandler(cfg.Service))
	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/by-email/{email}", getAppointmentByEmailHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
	r.Put("/appointments/{id}", rescheduleHandler(cfg.Service))
	r.Delete("/appointments/{id}", cancelHandler(cfg.Service))

	return r
}
