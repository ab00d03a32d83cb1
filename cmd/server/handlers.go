package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/yourorg/locker-metrics/internal/model"
	"github.com/yourorg/locker-metrics/internal/otel"
	"github.com/yourorg/locker-metrics/internal/ranking"
	"github.com/yourorg/locker-metrics/internal/view"
)

type ctxKey int

const requestIDKey ctxKey = iota

const (
	requestIDHeader = "X-Request-ID"
	digestHeader    = "X-Snapshot-Digest"
)

// statusRecorder captures the response status for metrics and logs.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// withRequestContext assigns a request ID, applies the rate limit, opens a
// span and records request metrics.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(requestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)

		ctx := context.WithValue(r.Context(), requestIDKey, id)
		ctx, span := otel.StartSpan(ctx, "http "+r.URL.Path, "request_id", id)
		defer span.End()
		r = r.WithContext(ctx)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if s.rateLimit != nil && !s.rateLimit.Allow() {
			s.errorResponse(rec, r, http.StatusTooManyRequests, "Rate limit exceeded")
		} else {
			next.ServeHTTP(rec, r)
		}

		if s.metrics != nil {
			s.metrics.requestCounter.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
			s.metrics.requestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
		}
		logrus.WithFields(logrus.Fields{
			"request_id": id,
			"path":       r.URL.Path,
			"status":     rec.status,
			"latency_ms": time.Since(start).Milliseconds(),
		}).Debug("Request served")
	})
}

// handleHealth is a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"version":   version,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics exposes Prometheus metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if s.registry == nil {
		http.Error(w, "Metrics disabled", http.StatusServiceUnavailable)
		return
	}
	promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}

// handleStatus provides detailed service status information
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	lastFetch, lastErr := s.lastFetch, s.lastErr
	s.mu.RUnlock()

	status := map[string]interface{}{
		"status":  "operational",
		"uptime":  s.now().Sub(s.startTime).String(),
		"version": version,
		"guard": map[string]interface{}{
			"state":  s.breaker.GetState().String(),
			"reason": s.breaker.LastReason(),
		},
		"configuration": map[string]interface{}{
			"source":       s.cfg.SnapshotURL,
			"compare_mode": s.cfg.CompareMode,
			"refresh":      s.cfg.RefreshInterval.String(),
			"stale_after":  s.cfg.StaleAfter.String(),
		},
	}
	if !lastFetch.IsZero() {
		status["last_fetch"] = lastFetch.UTC().Format(time.RFC3339)
	}
	if lastErr != nil {
		status["last_error"] = lastErr.Error()
	}
	if snap := s.snapshot(); snap != nil {
		status["snapshot"] = map[string]interface{}{
			"week":       snap.Week,
			"updated_at": snap.UpdatedTime().Format(time.RFC3339),
			"entities":   snap.EntityKeys(),
			"digest":     s.currentFingerprint(),
		}
	} else {
		status["status"] = "waiting_for_snapshot"
	}
	writeJSON(w, http.StatusOK, status)
}

// handleCircuitStatus shows the snapshot guard and resets it on POST ?action=reset.
func (s *Server) handleCircuitStatus(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{}

	if r.Method == http.MethodPost {
		if r.URL.Query().Get("action") != "reset" {
			s.errorResponse(w, r, http.StatusBadRequest, "Unknown action")
			return
		}
		s.breaker.Reset()
		response["message"] = "Circuit breaker reset"
	}

	response["state"] = s.breaker.GetState().String()
	response["reason"] = s.breaker.LastReason()
	if snap := s.breaker.LastGood(); snap != nil {
		response["last_good_week"] = snap.Week
		response["last_good_timestamp"] = snap.UpdatedTime().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, response)
}

// servedSnapshot writes the digest header for the snapshot being served.
// With conditional set, a matching If-None-Match is answered with 304 and
// ok is false.
func (s *Server) servedSnapshot(w http.ResponseWriter, r *http.Request, conditional bool) (*model.Snapshot, bool) {
	snap, fp := s.served()
	if snap == nil {
		s.errorResponse(w, r, http.StatusServiceUnavailable, "No snapshot available yet")
		return nil, false
	}
	if fp.Keccak256 == "" {
		return snap, true
	}
	w.Header().Set(digestHeader, fp.Keccak256)
	if conditional {
		w.Header().Set("ETag", fp.ETag())
		if r.Header.Get("If-None-Match") == fp.ETag() {
			w.WriteHeader(http.StatusNotModified)
			return nil, false
		}
	}
	return snap, true
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) (*view.Dashboard, bool) {
	snap, ok := s.servedSnapshot(w, r, false)
	if !ok {
		return nil, false
	}
	pair, err := queryPair(r)
	if err != nil {
		s.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return nil, false
	}

	_, span := otel.StartSpan(r.Context(), "view.dashboard")
	d, err := s.memo.Dashboard(snap, pair, s.now())
	span.End()
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidSnapshot) {
			code = http.StatusBadRequest
		}
		s.errorResponse(w, r, code, err.Error())
		return nil, false
	}
	return d, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if d, ok := s.dashboard(w, r); ok {
		writeJSON(w, http.StatusOK, d)
	}
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	if d, ok := s.dashboard(w, r); ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"header":     d.Header,
			"apr":        d.APR,
			"comparison": d.Comparison,
			"derived":    d.Derived,
		})
	}
}

// handleCharts returns every chart, or the one named by ?metric=.
func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	d, ok := s.dashboard(w, r)
	if !ok {
		return
	}
	metric := r.URL.Query().Get("metric")
	if metric == "" {
		writeJSON(w, http.StatusOK, d.Charts)
		return
	}
	for _, c := range d.Charts {
		if c.MetricID == metric {
			writeJSON(w, http.StatusOK, c)
			return
		}
	}
	s.errorResponse(w, r, http.StatusNotFound, "Unknown chart metric "+metric)
}

// handleDelegates supports ?sort=<key>&dir=asc|desc&min_allocation=<n>&filter=true.
func (s *Server) handleDelegates(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.servedSnapshot(w, r, true)
	if !ok {
		return
	}

	q := r.URL.Query()
	dir, err := ranking.ParseDirection(q.Get("dir"))
	if err != nil {
		s.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	query := view.DelegateQuery{
		Key:           q.Get("sort"),
		Direction:     dir,
		MinAllocation: s.cfg.DelegateMinAllocation,
		Filter:        queryBool(q.Get("filter")),
	}
	if raw := q.Get("min_allocation"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.errorResponse(w, r, http.StatusBadRequest, "Invalid min_allocation")
			return
		}
		query.MinAllocation = v
		query.Filter = true
	}

	rows, err := view.Delegates(snap, query)
	if err != nil {
		s.errorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sort":      map[string]string{"key": query.Key, "direction": query.Direction.String()},
		"keys":      ranking.DelegateKeys(),
		"delegates": rows,
	})
}

func (s *Server) handleEmissions(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.servedSnapshot(w, r, true)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view.Emissions(snap))
}

func (s *Server) handleFreshness(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.servedSnapshot(w, r, false)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, view.Freshness(snap, s.cfg.StaleAfter, s.now()))
}

// errorResponse writes a JSON error carrying the request ID.
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, statusCode int, msg string) {
	id, _ := r.Context().Value(requestIDKey).(string)
	logrus.WithFields(logrus.Fields{
		"request_id": id,
		"path":       r.URL.Path,
		"status":     statusCode,
	}).Warn(msg)

	writeJSON(w, statusCode, map[string]interface{}{
		"status":     "error",
		"error":      msg,
		"request_id": id,
	})
}
