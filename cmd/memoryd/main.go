// Command memoryd runs the agent memory service HTTP API.
package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	appconfig "github.com/lewisedginton/agent_memory_service/internal/config"
	"github.com/lewisedginton/agent_memory_service/internal/server"
	"github.com/lewisedginton/agent_memory_service/pkg/config"
	"github.com/lewisedginton/agent_memory_service/pkg/logger"
)

func main() {
	// Load .env if present; real environments set variables directly
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	var cfg appconfig.AppConfig
	if err := config.GetConfig(&cfg, configFile, true); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	appLogger := logger.NewLogger(logger.Config{
		Level:   cfg.GetLogLevel(),
		Format:  cfg.Logging.Format,
		Service: cfg.ServiceName,
	})

	cfg.LogConfig(appLogger)

	srv, err := server.New(context.Background(), &cfg, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize server", logger.ErrorField(err))
		os.Exit(1)
	}

	if err := srv.Run(); err != nil {
		appLogger.Error("Server exited with error", logger.ErrorField(err))
		os.Exit(1)
	}
}
