package main

import (
	"context"
	"os"

	"github.com/yigit/attendance/internal/bootstrap"
	"github.com/yigit/attendance/internal/pkg/logger"
	"github.com/yigit/attendance/internal/server"
)

// @title Attendance API
// @version 1.0
// @description QR code attendance: rotating signed tokens, sessions, reports

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	srv, err := server.NewServer(context.Background(), bootstrap.ConfigPath())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize server")
		os.Exit(1)
	}

	// Run blocks until SIGINT/SIGTERM
	if err := srv.Run(); err != nil {
		logger.Error().Err(err).Msg("Server execution failed or shutdown encountered errors")
		os.Exit(1)
	}

	logger.Info().Msg("Application finished gracefully.")
}
