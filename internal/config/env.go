package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration overrides from environment variables
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("CORTEX_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("CORTEX_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}

	if fps := os.Getenv("CORTEX_TARGET_FPS"); fps != "" {
		if f, err := strconv.Atoi(fps); err == nil {
			cfg.Detection.TargetFPS = f
		}
	}

	if camera := os.Getenv("CORTEX_CAMERA_ID"); camera != "" {
		cfg.Detection.CameraID = camera
	}

	if endpoint := os.Getenv("CORTEX_OLLAMA_ENDPOINT"); endpoint != "" {
		cfg.Analysis.Endpoint = endpoint
	}

	if model := os.Getenv("CORTEX_VISION_MODEL"); model != "" {
		cfg.Analysis.Model = model
	}

	if timeout := os.Getenv("CORTEX_ANALYSIS_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.Analysis.Timeout = d
		}
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
