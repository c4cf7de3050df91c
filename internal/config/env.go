package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "DOCNODES_LOG_LEVEL"

// loadEnvFiles loads .env.local then .env from dir and from the working
// directory. Variables already set in the process environment win, and an
// earlier file wins over a later one.
func loadEnvFiles(dir string) error {
	candidates := []string{
		filepath.Join(dir, ".env.local"),
		filepath.Join(dir, ".env"),
	}
	if dir != "." {
		candidates = append(candidates, ".env.local", ".env")
	}
	var existing []string
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			existing = append(existing, c)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}
