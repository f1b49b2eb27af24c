package main

import (
	"os"

	"hrportal/internal/app/server"
	"hrportal/internal/platform/logger"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Global().Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}
