package api

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status        HealthStatus           `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	EngineVersion string                 `json:"engine_version"`
	GitCommit     string                 `json:"git_commit,omitempty"`
	BuildTime     string                 `json:"build_time,omitempty"`
	Uptime        string                 `json:"uptime"`
	Checks        map[string]HealthCheck `json:"checks"`
	System        SystemInfo             `json:"system"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	MemoryTotal   uint64 `json:"memory_total_bytes"`
	MemorySys     uint64 `json:"memory_sys_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

// worse returns the more severe of two statuses.
func worse(a, b HealthStatus) HealthStatus {
	rank := map[HealthStatus]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// handleHealthCheck provides comprehensive health check endpoint
func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())
	start := time.Now()

	checks := map[string]HealthCheck{
		"database": s.checkDatabaseHealth(r.Context()),
		"contract": s.checkContractHealth(r.Context()),
		"events":   s.checkEventsHealth(),
	}
	overallStatus := HealthStatusHealthy
	for _, c := range checks {
		overallStatus = worse(overallStatus, c.Status)
	}

	response := HealthCheckResponse{
		Status:        overallStatus,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		Uptime:        time.Since(s.startTime).String(),
		Checks:        checks,
		System:        s.getSystemInfo(),
		RequestID:     requestID,
	}

	// Degraded still answers 200.
	statusCode := http.StatusOK
	if overallStatus == HealthStatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	s.logger.Printf("health_check request_id=%s status=%s checks=%d duration=%s",
		requestID, overallStatus, len(checks), time.Since(start))

	s.writeJSON(w, statusCode, response)
}

// handleReadiness provides readiness probe endpoint
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetReqID(r.Context())

	ready := true
	message := "Ready"
	if db := s.checkDatabaseHealth(r.Context()); db.Status == HealthStatusUnhealthy {
		ready = false
		message = db.Message
	}

	response := map[string]any{
		"ready":          ready,
		"message":        message,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"engine_version": EngineVersion,
		"request_id":     requestID,
	}

	statusCode := http.StatusOK
	if !ready {
		statusCode = http.StatusServiceUnavailable
	}
	s.writeJSON(w, statusCode, response)
}

// handleLiveness provides liveness probe endpoint
func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"alive":          true,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"engine_version": EngineVersion,
		"uptime":         time.Since(s.startTime).String(),
		"request_id":     middleware.GetReqID(r.Context()),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// probe times one check.
func probe(fn func() (HealthStatus, string)) HealthCheck {
	start := time.Now()
	status, message := fn()
	return HealthCheck{
		Status:      status,
		Message:     message,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}

func (s *Server) checkDatabaseHealth(ctx context.Context) HealthCheck {
	return probe(func() (HealthStatus, string) {
		if s.db == nil {
			return HealthStatusUnhealthy, "Database not initialized"
		}
		ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			return HealthStatusUnhealthy, fmt.Sprintf("Database ping failed: %v", err)
		}
		return HealthStatusHealthy, "Database connection healthy"
	})
}

// checkContractHealth reads the kart count through the contract.
func (s *Server) checkContractHealth(ctx context.Context) HealthCheck {
	return probe(func() (HealthStatus, string) {
		ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		defer cancel()
		n, err := s.contract.NumKarts(ctx)
		if err != nil {
			return HealthStatusUnhealthy, fmt.Sprintf("Contract state unreadable: %v", err)
		}
		return HealthStatusHealthy, fmt.Sprintf("%d karts minted", n)
	})
}

// dropWindow is how long a skipped delivery keeps the events check degraded.
const dropWindow = time.Minute

// checkEventsHealth reports the live event hub. A drop inside dropWindow
// degrades it.
func (s *Server) checkEventsHealth() HealthCheck {
	return probe(func() (HealthStatus, string) {
		if s.hub == nil {
			return HealthStatusHealthy, "Live events disabled"
		}
		return eventsStatus(s.hub.Subscribers(), s.hub.Dropped(), s.hub.LastDrop(), time.Now())
	})
}

func eventsStatus(subscribers int, dropped uint64, lastDrop, now time.Time) (HealthStatus, string) {
	msg := fmt.Sprintf("%d subscribers, %d dropped", subscribers, dropped)
	if !lastDrop.IsZero() && now.Sub(lastDrop) < dropWindow {
		return HealthStatusDegraded, msg + ", last " + now.Sub(lastDrop).Round(time.Second).String() + " ago"
	}
	return HealthStatusHealthy, msg
}

// getSystemInfo collects system information
func (s *Server) getSystemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		MemoryAlloc:   m.Alloc,
		MemoryTotal:   m.TotalAlloc,
		MemorySys:     m.Sys,
		GCCycles:      m.NumGC,
	}
}
