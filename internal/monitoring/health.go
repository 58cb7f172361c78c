package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/lewisedginton/agent_memory_service/internal/storage_manager"
	"github.com/lewisedginton/agent_memory_service/pkg/health"
	"github.com/lewisedginton/agent_memory_service/pkg/health/checkers"
	"github.com/lewisedginton/agent_memory_service/pkg/logger"
)

// Health status constants
const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusReady     = "ready"
	statusNotReady  = "not_ready"
)

// HealthMonitor manages health checks and monitoring endpoints for the application
type HealthMonitor struct {
	checker   *health.HealthChecker
	logger    logger.Logger
	version   string
	startTime time.Time
}

// Config holds configuration for the health monitor
type Config struct {
	Logger              logger.Logger
	Version             string
	EmbeddingServiceURL string                       // Optional: remote embedding service URL for readiness checks
	FileProvider        storage_manager.FileProvider // Optional: storage backend probed on readiness
	Timeout             time.Duration                // Health check timeout
	FailureThreshold    int                          // Number of consecutive failures before reporting unhealthy
}

// NewHealthMonitor creates a new health monitor with configured checks
func NewHealthMonitor(cfg Config) *HealthMonitor {
	// Set defaults
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	failureThreshold := cfg.FailureThreshold
	if failureThreshold == 0 {
		failureThreshold = 3
	}

	version := cfg.Version
	if version == "" {
		version = "dev"
	}

	checker := health.New(
		health.WithLogger(cfg.Logger),
		health.WithTimeout(timeout),
		health.WithFailureThreshold(failureThreshold),
	)

	// Add basic liveness checks
	checker.AddLivenessCheck(health.NewCheckFunc("process", func(ctx context.Context) error {
		// Process is running if we can execute this check
		return nil
	}))

	// Add readiness checks

	// Remote embedding service health check
	if cfg.EmbeddingServiceURL != "" {
		embeddingChecker := checkers.NewHTTPChecker(cfg.EmbeddingServiceURL, "embedding_service")
		checker.AddReadinessCheck(embeddingChecker)
	}

	// Storage backend probe
	if cfg.FileProvider != nil {
		checker.AddReadinessCheck(health.NewCheckFunc("storage", func(ctx context.Context) error {
			_, err := cfg.FileProvider.Exists(ctx, ".healthcheck")
			return err
		}))
	}

	return &HealthMonitor{
		checker:   checker,
		logger:    cfg.Logger,
		version:   version,
		startTime: time.Now(),
	}
}

// LivenessHandler returns an HTTP handler for Kubernetes liveness probes
// GET /health/live - Returns 200 if the process is alive and can handle requests
func (hm *HealthMonitor) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status, err := hm.checker.CheckLiveness(ctx)

		response := map[string]interface{}{
			"status":    statusHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(hm.startTime).String(),
			"checks":    status.Checks,
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response["status"] = statusUnhealthy
			response["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
			hm.logger.Error("Liveness check failed", logger.ErrorField(err))
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// ReadinessHandler returns an HTTP handler for Kubernetes readiness probes
// GET /health/ready - Returns 200 if the service can handle requests (dependencies are healthy)
func (hm *HealthMonitor) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		status, err := hm.checker.CheckReadiness(ctx)

		response := map[string]interface{}{
			"status":    statusReady,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"checks":    status.Checks,
		}

		w.Header().Set("Content-Type", "application/json")

		if err != nil {
			response["status"] = statusNotReady
			response["error"] = err.Error()
			w.WriteHeader(http.StatusServiceUnavailable)
			hm.logger.Error("Readiness check failed", logger.ErrorField(err))
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// HealthHandler returns a combined health endpoint that includes both liveness and readiness
// GET /health - Returns comprehensive health status
func (hm *HealthMonitor) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		livenessStatus, livenessErr := hm.checker.CheckLiveness(ctx)
		readinessStatus, readinessErr := hm.checker.CheckReadiness(ctx)

		response := map[string]interface{}{
			"status":    statusHealthy,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"uptime":    time.Since(hm.startTime).String(),
			"version":   hm.version,
			"liveness": map[string]interface{}{
				"status": statusHealthy,
				"checks": livenessStatus.Checks,
			},
			"readiness": map[string]interface{}{
				"status": statusReady,
				"checks": readinessStatus.Checks,
			},
		}

		w.Header().Set("Content-Type", "application/json")

		// Determine overall status
		overallHealthy := true

		if livenessErr != nil {
			response["liveness"].(map[string]interface{})["status"] = statusUnhealthy
			response["liveness"].(map[string]interface{})["error"] = livenessErr.Error()
			overallHealthy = false
		}

		if readinessErr != nil {
			response["readiness"].(map[string]interface{})["status"] = statusNotReady
			response["readiness"].(map[string]interface{})["error"] = readinessErr.Error()
			overallHealthy = false
		}

		if !overallHealthy {
			response["status"] = statusUnhealthy
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(response)
	}
}

// RegisterHandlers registers all health check endpoints on the provided mux
func (hm *HealthMonitor) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/health", hm.HealthHandler())
	mux.HandleFunc("/health/live", hm.LivenessHandler())
	mux.HandleFunc("/health/ready", hm.ReadinessHandler())
}

// ShutdownCheck adds a shutdown check to mark the service as not ready during shutdown
func (hm *HealthMonitor) ShutdownCheck() {
	// Add a readiness check that will fail once shutdown begins
	hm.checker.AddReadinessCheck(health.NewCheckFunc("shutdown", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			return nil
		}
	}))
}
