package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// loadEnvFile loads a .env file next to the application map when present so
// ${VAR} references in the map can resolve. Absence is not an error.
func loadEnvFile(mapPath string) {
	envPath := filepath.Join(filepath.Dir(mapPath), ".env")
	if _, err := os.Stat(envPath); err != nil {
		return
	}
	if err := godotenv.Load(envPath); err != nil {
		slog.Debug("could not load .env file", "error", err)
	}
}
