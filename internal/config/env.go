package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFiles loads .env and .env.local when present. Variables already set
// in the process environment are never overridden.
func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", "file", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "file", name)
	}
}
