package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"budgetbuddy/internal/log"
)

type appMetrics struct {
	entriesRecorded int64
	capsUpdated     int64
	evaluations     int64
	alertsRaised    int64
	sessionsReset   int64
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

// handleReady checks templates and the session store
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]interface{})

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status, httpStatus = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.ready == nil:
		checks["store"] = "ok"
	default:
		if err := s.ready(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status, httpStatus = "not_ready", http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]interface{}{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	writeJSON(w, httpStatus, map[string]interface{}{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	traceMetrics := s.traceMiddleware.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()

	counters := []struct {
		name, help string
		value      int64
	}{
		{"http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests},
		{"http_server_errors_total", "Responses with a 5xx status", traceMetrics.ServerErrors},
		{"entries_recorded_total", "Expense entries recorded", atomic.LoadInt64(&s.metrics.entriesRecorded)},
		{"caps_updated_total", "Category caps set", atomic.LoadInt64(&s.metrics.capsUpdated)},
		{"evaluations_total", "Monthly breakdowns computed", atomic.LoadInt64(&s.metrics.evaluations)},
		{"budget_alerts_total", "Exceeded and low-remaining alerts raised", atomic.LoadInt64(&s.metrics.alertsRaised)},
		{"sessions_reset_total", "Sessions ended by the user", atomic.LoadInt64(&s.metrics.sessionsReset)},
		{"rate_limit_hits_total", "Requests rejected by the rate limiter", rateLimitMetrics.TotalHits},
		{"suspicious_requests_total", "Requests blocked as probes", s.securityDetector.Blocked()},
	}
	for _, c := range counters {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", c.name, c.help, c.name, c.name, c.value)
	}
	fmt.Fprintf(w, "# HELP rate_limit_clients Clients tracked by the rate limiter\n# TYPE rate_limit_clients gauge\nrate_limit_clients %d\n",
		rateLimitMetrics.ClientCount)
}

// render executes a template into a buffer so a failure never leaves a
// half-written response.
func (s *Server) render(ctx context.Context, name string, data interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Template render failed",
			"template", name, log.FieldOperation, log.OpRender, log.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, name string, data interface{}) {
	body, err := s.render(r.Context(), name, data)
	if err != nil {
		InternalServerError("Could not render the page").Write(w)
		return
	}
	NewHTMXResponse().Header("Content-Type", "text/html; charset=utf-8").Body(body).Write(w)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
