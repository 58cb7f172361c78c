// Package server provides the HTTP API server for the memory service.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-chi/chi/v5"
	appconfig "github.com/lewisedginton/agent_memory_service/internal/config"
	"github.com/lewisedginton/agent_memory_service/internal/embedding"
	"github.com/lewisedginton/agent_memory_service/internal/memory_service"
	"github.com/lewisedginton/agent_memory_service/internal/monitoring"
	"github.com/lewisedginton/agent_memory_service/internal/storage_manager"
	"github.com/lewisedginton/agent_memory_service/pkg/httpmiddleware"
	"github.com/lewisedginton/agent_memory_service/pkg/logger"
	"github.com/lewisedginton/agent_memory_service/pkg/metrics"
)

// Server encapsulates the memory service components and lifecycle management
type Server struct {
	cfg            *appconfig.AppConfig
	log            logger.Logger
	storageManager *storage_manager.StorageManager
	memoryService  *memory_service.Service
	healthMonitor  *monitoring.HealthMonitor
	metrics        metrics.Metrics
	router         chi.Router
	cancel         context.CancelFunc
}

// New creates a new Server instance with all components initialized
func New(ctx context.Context, cfg *appconfig.AppConfig, log logger.Logger) (*Server, error) {
	s := &Server{
		cfg: cfg,
		log: log,
	}

	// Create storage manager (handles persistence for memories, feedback and preferences)
	var err error
	s.storageManager, err = s.createStorageManager(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	// Create embedding backend
	embedder, err := s.createEmbedder()
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}

	// Create vector index backend
	index, err := s.createVectorIndex()
	if err != nil {
		return nil, fmt.Errorf("failed to create vector index: %w", err)
	}

	// Create memory service (uses storage manager with "memory" namespace)
	s.memoryService = memory_service.New(memory_service.Config{
		FileProvider: s.storageManager.GetProvider("memory"),
		Embedder:     embedder,
		VectorIndex:  index,
		Logger:       log,
	})

	// Create health monitor
	s.healthMonitor = monitoring.NewHealthMonitor(monitoring.Config{
		Logger:              log,
		Version:             cfg.Version,
		EmbeddingServiceURL: s.embeddingHealthURL(),
		FileProvider:        s.storageManager.GetProvider(""),
		Timeout:             cfg.Monitoring.HealthCheckTimeout,
	})

	// Create metrics registry with the configured collectors
	s.metrics = metrics.NewMetrics(cfg.Monitoring.EnableHTTPMetrics, cfg.Monitoring.EnableOpMetrics, log)

	// Create the API router
	s.router = s.createRouter()

	return s, nil
}

// Run starts the server and blocks until shutdown
func (s *Server) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	defer cancel()

	s.setupGracefulShutdown()

	// Start metrics listener on its own port
	if s.cfg.Monitoring.ExposeMetrics {
		s.metrics.Listen(s.cfg.Monitoring.Port)
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.HTTP.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.cfg.HTTP.ReadTimeout(),
		WriteTimeout:      s.cfg.HTTP.WriteTimeout(),
		IdleTimeout:       s.cfg.HTTP.IdleTimeout(),
		MaxHeaderBytes:    s.cfg.HTTP.MaxHeaderBytes,
	}

	errChan := make(chan error, 1)
	go func() {
		s.log.Info("API server listening", logger.IntField("port", s.cfg.HTTP.Port))
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		s.log.Info("Shutting down API server")
		s.healthMonitor.ShutdownCheck()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second) //nolint:contextcheck // New context needed for shutdown
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil { //nolint:contextcheck // Using new context for graceful shutdown
			s.log.Error("API server shutdown error", logger.ErrorField(err))
			return err
		}
	}

	s.log.Info("API server stopped")
	return nil
}

// Router exposes the configured HTTP handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// createRouter builds the Chi router with middleware and API routes
func (s *Server) createRouter() chi.Router {
	router := chi.NewRouter()

	middlewareConfig := httpmiddleware.DefaultConfig()
	middlewareConfig.Logger = s.log
	middlewareConfig.EnableLogging = true
	middlewareConfig.Timeout = s.cfg.RequestTimeout
	if len(s.cfg.Security.CORSAllowedOrigins) > 0 {
		middlewareConfig.CORS.AllowedOrigins = s.cfg.Security.CORSAllowedOrigins
	}
	httpmiddleware.ApplyToRouter(router, middlewareConfig)
	if s.cfg.Monitoring.EnableHTTPMetrics {
		router.Use(s.metrics.HTTPMiddleware())
	}

	s.registerRoutes(router)

	router.Get("/health", s.healthMonitor.HealthHandler())
	router.Get("/health/live", s.healthMonitor.LivenessHandler())
	router.Get("/health/ready", s.healthMonitor.ReadinessHandler())

	return router
}

// createStorageManager creates a storage manager based on configuration
func (s *Server) createStorageManager(ctx context.Context) (*storage_manager.StorageManager, error) {
	cfg := &s.cfg.Storage

	switch cfg.Backend {
	case "local":
		s.log.Info("Using local file-based storage", logger.StringField("directory", cfg.LocalDir))

		// Ensure directory exists (0750 needed for directory traversal)
		if err := os.MkdirAll(cfg.LocalDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}

		return storage_manager.New(storage_manager.Config{
			Backend: storage_manager.BackendLocal,
			LocalConfig: &storage_manager.LocalConfig{
				BaseDir: cfg.LocalDir,
			},
		})

	case "s3":
		s.log.Info("Using S3-based storage",
			logger.StringField("bucket", cfg.S3Bucket),
			logger.StringField("prefix", cfg.S3Prefix),
			logger.StringField("region", cfg.S3Region))

		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("S3 bucket is required when using S3 storage")
		}

		// Load AWS configuration
		configOptions := []func(*awsconfig.LoadOptions) error{}

		if cfg.S3Profile != "" {
			configOptions = append(configOptions, awsconfig.WithSharedConfigProfile(cfg.S3Profile))
		}

		if cfg.S3Region != "" {
			configOptions = append(configOptions, awsconfig.WithRegion(cfg.S3Region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, configOptions...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		// Create S3 client
		s3Client := s3.NewFromConfig(awsCfg)

		return storage_manager.New(storage_manager.Config{
			Backend: storage_manager.BackendS3,
			S3Config: &storage_manager.S3Config{
				Bucket: cfg.S3Bucket,
				Prefix: cfg.S3Prefix,
				Client: s3Client,
			},
		})

	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (must be 'local' or 's3')", cfg.Backend)
	}
}

// createEmbedder creates an embedding backend based on configuration
func (s *Server) createEmbedder() (embedding.Embedder, error) {
	cfg := &s.cfg.Embedding

	switch cfg.Backend {
	case "openai":
		s.log.Info("Using OpenAI embeddings", logger.StringField("model", cfg.Model))
		return embedding.NewOpenAIEmbedder(embedding.OpenAIConfig{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
		})

	case "http":
		s.log.Info("Using remote embedding service", logger.StringField("base_url", cfg.BaseURL))
		return embedding.NewHTTPClient(embedding.HTTPClientConfig{
			BaseURL:    cfg.BaseURL,
			Dimensions: cfg.Dimensions,
			Timeout:    cfg.Timeout,
		})

	case "mock":
		s.log.Info("Using mock embeddings")
		return embedding.NewMockEmbedder(cfg.Dimensions), nil

	default:
		return nil, fmt.Errorf("unsupported embedding backend: %s (must be 'openai', 'http' or 'mock')", cfg.Backend)
	}
}

// createVectorIndex creates a vector index backend based on configuration
func (s *Server) createVectorIndex() (embedding.VectorIndex, error) {
	cfg := &s.cfg.VectorIndex

	switch cfg.Backend {
	case "local":
		s.log.Info("Using in-process vector index")
		return embedding.NewLocalIndex(), nil

	case "http":
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = s.cfg.Embedding.BaseURL
		}
		s.log.Info("Using remote vector index", logger.StringField("endpoint", endpoint))
		return embedding.NewHTTPClient(embedding.HTTPClientConfig{
			BaseURL:    endpoint,
			Dimensions: s.cfg.Embedding.Dimensions,
			Timeout:    s.cfg.Embedding.Timeout,
		})

	default:
		return nil, fmt.Errorf("unsupported vector index backend: %s (must be 'local' or 'http')", cfg.Backend)
	}
}

// embeddingHealthURL returns the URL probed by the readiness check, empty
// when no remote embedding service is configured.
func (s *Server) embeddingHealthURL() string {
	if s.cfg.Embedding.Backend != "http" {
		return ""
	}
	return s.cfg.Embedding.BaseURL + "/health"
}

// setupGracefulShutdown sets up signal handling for graceful shutdown
func (s *Server) setupGracefulShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		s.log.Info("Received shutdown signal", logger.StringField("signal", sig.String()))

		// Start graceful shutdown
		if s.cancel != nil {
			s.cancel()
		}

		// Give processes time to shutdown gracefully, then force exit
		time.AfterFunc(30*time.Second, func() {
			s.log.Warn("Force exiting due to timeout")
			os.Exit(1)
		})
	}()
}
