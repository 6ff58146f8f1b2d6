package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Environment overrides.
const (
	EnvDataDir    = "PLANTREE_DATA_DIR"
	EnvCaptureCmd = "PLANTREE_CAPTURE_CMD"
)

// LoadEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat env file: %w", err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv copies environment overrides into the widget section.
func ApplyEnv(cfg *FileConfig) {
	if v := os.Getenv(EnvDataDir); v != "" {
		cfg.Widget.DataDir = &v
	}
	if v := os.Getenv(EnvCaptureCmd); v != "" {
		cfg.Widget.CaptureCmd = &v
	}
}
