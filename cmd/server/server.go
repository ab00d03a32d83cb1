package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/yourorg/locker-metrics/internal/circuitbreaker"
	"github.com/yourorg/locker-metrics/internal/compare"
	"github.com/yourorg/locker-metrics/internal/config"
	"github.com/yourorg/locker-metrics/internal/fetch"
	"github.com/yourorg/locker-metrics/internal/freshness"
	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/otel"
	"github.com/yourorg/locker-metrics/internal/security"
	"github.com/yourorg/locker-metrics/internal/view"
)

const version = "1.0.0"

// Server holds the current snapshot and serves views of it.
type Server struct {
	cfg config.Config

	source fetch.Client

	// breaker owns the last good snapshot
	breaker *circuitbreaker.CircuitBreaker

	memo *view.Memo

	metrics  *serverMetrics
	registry *prometheus.Registry

	rateLimit *rate.Limiter

	server *http.Server

	now       func() time.Time
	startTime time.Time

	mu          sync.RWMutex
	lastFetch   time.Time
	lastErr     error
	fingerprint security.Fingerprint
}

// serverMetrics holds Prometheus metrics for the server
type serverMetrics struct {
	requestCounter  *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	fetchErrors     prometheus.Counter
	guardTrips      *prometheus.CounterVec
}

// NewServer wires the guard, view cache, limiter and metrics around source.
func NewServer(cfg config.Config, source fetch.Client) (*Server, error) {
	mode, err := compare.ParseMode(cfg.CompareMode)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		source:    source,
		now:       time.Now,
		startTime: time.Now(),
		memo: view.NewMemo(view.Options{
			Pair:       model.Pair{A: cfg.EntityA, B: cfg.EntityB},
			Metrics:    cfg.TableMetrics,
			Compare:    compare.Options{Mode: mode, Exclude: cfg.ExcludedMetrics},
			StaleAfter: cfg.StaleAfter,
		}),
	}

	if cfg.RateLimitRPS > 0 {
		s.rateLimit = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	if cfg.EnableMetrics {
		s.registry = prometheus.NewRegistry()
		s.metrics = s.registerMetrics(s.registry)
	}

	s.breaker = circuitbreaker.New(circuitbreaker.Thresholds{
		MinEntities:       2,
		AllowEntityChange: cfg.GuardAllowEntityChange,
	}).
		WithResetDelay(cfg.GuardResetDelay).
		WithTripCallback(func(reason string, _ *model.Snapshot) {
			if s.metrics != nil {
				s.metrics.guardTrips.WithLabelValues(tripLabel(reason)).Inc()
			}
		})

	logrus.WithFields(logrus.Fields{
		"port":         cfg.Port,
		"source":       cfg.SnapshotURL,
		"compare_mode": mode.String(),
		"stale_after":  cfg.StaleAfter,
		"refresh":      cfg.RefreshInterval,
		"metrics":      cfg.EnableMetrics,
	}).Info("Server initialized")

	return s, nil
}

// registerMetrics sets up Prometheus metrics collection
func (s *Server) registerMetrics(reg *prometheus.Registry) *serverMetrics {
	m := &serverMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locker_requests_total",
				Help: "Total number of HTTP requests processed",
			},
			[]string{"path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "locker_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"path"},
		),
		fetchErrors: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "locker_snapshot_fetch_errors_total",
				Help: "Total number of failed snapshot fetches",
			},
		),
		guardTrips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "locker_snapshot_guard_trips_total",
				Help: "Total number of snapshots rejected by the regression guard",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(
		m.requestCounter,
		m.requestDuration,
		m.fetchErrors,
		m.guardTrips,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "locker_snapshot_age_seconds",
			Help: "Age of the served snapshot in seconds",
		}, func() float64 {
			snap := s.breaker.LastGood()
			if snap == nil {
				return 0
			}
			return s.now().Sub(snap.UpdatedTime()).Seconds()
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "locker_snapshot_stale",
			Help: "1 when the served snapshot is older than the stale threshold",
		}, func() float64 {
			snap := s.breaker.LastGood()
			if snap == nil || freshness.IsStale(snap.UpdatedAt, s.now(), s.cfg.StaleAfter) {
				return 1
			}
			return 0
		}),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "locker_snapshot_guard_state",
			Help: "Snapshot guard state (0=closed, 1=open, 2=half-open)",
		}, func() float64 {
			return float64(s.breaker.GetState())
		}),
	)
	return m
}

// Refresh fetches one snapshot and offers it to the guard.
func (s *Server) Refresh(ctx context.Context) error {
	ctx, span := otel.StartSpan(ctx, "snapshot.refresh")
	defer span.End()

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	snap, err := s.source.Fetch(ctx)
	if errors.Is(err, fetch.ErrNotModified) {
		s.recordFetch(nil)
		logrus.Debug("Snapshot unchanged")
		return nil
	}
	if err != nil {
		otel.RecordError(ctx, err)
		if s.metrics != nil {
			s.metrics.fetchErrors.Inc()
		}
		s.recordFetch(err)
		return fmt.Errorf("fetching snapshot: %w", err)
	}

	fp, err := security.Digest(snap)
	if err != nil {
		logrus.WithError(err).Warn("Failed to fingerprint snapshot")
	}

	// readers take the snapshot and its fingerprint under the same lock
	s.mu.Lock()
	err = s.breaker.Check(snap)
	if err == nil {
		s.fingerprint = fp
	}
	s.mu.Unlock()
	if err != nil {
		otel.RecordError(ctx, err)
		s.recordFetch(err)
		return fmt.Errorf("snapshot rejected: %w", err)
	}

	if ack, ok := s.source.(fetch.Acknowledger); ok {
		ack.Acknowledge()
	}

	s.recordFetch(nil)
	logrus.WithFields(logrus.Fields{
		"digest":     fp.Keccak256,
		"week":       snap.Week,
		"updated_at": snap.UpdatedTime().Format(time.RFC3339),
		"stale":      freshness.IsStale(snap.UpdatedAt, s.now(), s.cfg.StaleAfter),
	}).Info("Snapshot refreshed")
	return nil
}

func (s *Server) recordFetch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFetch = s.now()
	s.lastErr = err
}

// snapshot returns the snapshot being served, or nil before the first good fetch.
func (s *Server) snapshot() *model.Snapshot {
	return s.breaker.LastGood()
}

func (s *Server) currentFingerprint() security.Fingerprint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fingerprint
}

// served returns the snapshot being served together with its fingerprint.
func (s *Server) served() (*model.Snapshot, security.Fingerprint) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.breaker.LastGood(), s.fingerprint
}

// tripLabel keeps the guard trip metric's label set small.
func tripLabel(reason string) string {
	for _, prefix := range []string{"insufficient entity count", "snapshot older", "week went backwards", "entity set changed"} {
		if strings.HasPrefix(reason, prefix) {
			return prefix
		}
	}
	return "other"
}

// routes builds the HTTP handler tree.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/metrics", s.handleMetrics)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/circuit", s.handleCircuitStatus)

	mux.HandleFunc("/v1/dashboard", s.handleDashboard)
	mux.HandleFunc("/v1/comparison", s.handleComparison)
	mux.HandleFunc("/v1/charts", s.handleCharts)
	mux.HandleFunc("/v1/delegates", s.handleDelegates)
	mux.HandleFunc("/v1/emissions", s.handleEmissions)
	mux.HandleFunc("/v1/freshness", s.handleFreshness)

	return s.withRequestContext(mux)
}
