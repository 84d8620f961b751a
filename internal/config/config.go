package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Detection DetectionConfig `yaml:"detection"`
	Learning  LearningConfig  `yaml:"learning"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Analysis  AnalysisConfig  `yaml:"analysis"`
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`
}

type DetectionConfig struct {
	// TargetFPS drives the detection tick cadence.
	TargetFPS int    `yaml:"target_fps"`
	CameraID  string `yaml:"camera_id"`
}

type LearningConfig struct {
	HistorySize       int           `yaml:"history_size"`
	LearningPhase     time.Duration `yaml:"learning_phase"`
	MinHistory        int           `yaml:"min_history"`
	MatchThreshold    float64       `yaml:"match_threshold"`
	ConfidenceStep    float64       `yaml:"confidence_step"`
	MinBusinessEvents int           `yaml:"min_business_events"`
}

type SchedulerConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	MaxAttempts   int           `yaml:"max_attempts"`
	WarmupWindow  time.Duration `yaml:"warmup_window"`
	DeepRate      float64       `yaml:"deep_rate"`
	DeepBurst     int           `yaml:"deep_burst"`
	MaxQueueDepth int           `yaml:"max_queue_depth"`
	HistorySize   int           `yaml:"history_size"`
}

type AnalysisConfig struct {
	Endpoint string        `yaml:"endpoint"`
	Model    string        `yaml:"model"`
	Timeout  time.Duration `yaml:"timeout"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:     8080,
			LogLevel: "info",
		},
		Detection: DetectionConfig{
			TargetFPS: 12,
			CameraID:  "camera-0",
		},
		Learning: LearningConfig{
			HistorySize:       100,
			LearningPhase:     time.Hour,
			MinHistory:        10,
			MatchThreshold:    0.5,
			ConfidenceStep:    0.05,
			MinBusinessEvents: 10,
		},
		Scheduler: SchedulerConfig{
			TickInterval:  time.Second,
			MaxAttempts:   3,
			WarmupWindow:  10 * time.Minute,
			DeepRate:      1,
			DeepBurst:     2,
			MaxQueueDepth: 256,
			HistorySize:   1000,
		},
		Analysis: AnalysisConfig{
			Endpoint: "http://127.0.0.1:11434",
			Model:    "llava:7b",
			Timeout:  30 * time.Second,
		},
	}
}

// ApplyDefaults fills in zero values
func (c *Config) ApplyDefaults() {
	d := DefaultConfig()
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = d.Server.LogLevel
	}
	if c.Detection.TargetFPS == 0 {
		c.Detection.TargetFPS = d.Detection.TargetFPS
	}
	if c.Detection.CameraID == "" {
		c.Detection.CameraID = d.Detection.CameraID
	}
	if c.Learning.HistorySize == 0 {
		c.Learning.HistorySize = d.Learning.HistorySize
	}
	if c.Learning.LearningPhase == 0 {
		c.Learning.LearningPhase = d.Learning.LearningPhase
	}
	if c.Learning.MinHistory == 0 {
		c.Learning.MinHistory = d.Learning.MinHistory
	}
	if c.Learning.MatchThreshold == 0 {
		c.Learning.MatchThreshold = d.Learning.MatchThreshold
	}
	if c.Learning.ConfidenceStep == 0 {
		c.Learning.ConfidenceStep = d.Learning.ConfidenceStep
	}
	if c.Learning.MinBusinessEvents == 0 {
		c.Learning.MinBusinessEvents = d.Learning.MinBusinessEvents
	}
	if c.Scheduler.TickInterval == 0 {
		c.Scheduler.TickInterval = d.Scheduler.TickInterval
	}
	if c.Scheduler.MaxAttempts == 0 {
		c.Scheduler.MaxAttempts = d.Scheduler.MaxAttempts
	}
	if c.Scheduler.WarmupWindow == 0 {
		c.Scheduler.WarmupWindow = d.Scheduler.WarmupWindow
	}
	if c.Scheduler.DeepRate == 0 {
		c.Scheduler.DeepRate = d.Scheduler.DeepRate
	}
	if c.Scheduler.DeepBurst == 0 {
		c.Scheduler.DeepBurst = d.Scheduler.DeepBurst
	}
	if c.Scheduler.MaxQueueDepth == 0 {
		c.Scheduler.MaxQueueDepth = d.Scheduler.MaxQueueDepth
	}
	if c.Scheduler.HistorySize == 0 {
		c.Scheduler.HistorySize = d.Scheduler.HistorySize
	}
	if c.Analysis.Endpoint == "" {
		c.Analysis.Endpoint = d.Analysis.Endpoint
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = d.Analysis.Model
	}
	if c.Analysis.Timeout == 0 {
		c.Analysis.Timeout = d.Analysis.Timeout
	}
}

// Validate checks configuration
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Detection.TargetFPS < 1 || c.Detection.TargetFPS > 60 {
		return fmt.Errorf("config: target_fps must be 1-60, got %d", c.Detection.TargetFPS)
	}
	if c.Learning.HistorySize < 1 {
		return errors.New("config: history_size must be positive")
	}
	if c.Scheduler.MaxAttempts < 1 {
		return errors.New("config: max_attempts must be positive")
	}
	return nil
}

// Load reads configuration from a YAML file, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - operator-supplied path
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}

	cfg.ApplyDefaults()
	LoadFromEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
