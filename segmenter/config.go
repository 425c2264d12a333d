package segmenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.json"

// Model backends.
const (
	BackendCentroids = "centroids"
	BackendONNX      = "onnx"
)

// ArtifactConfig locates the files produced by training.
type ArtifactConfig struct {
	ScalerPath  string `json:"scalerPath" yaml:"scalerPath"`
	ModelPath   string `json:"modelPath" yaml:"modelPath"`
	SummaryPath string `json:"summaryPath" yaml:"summaryPath"`
}

// ModelConfig selects how cluster assignment is computed.
type ModelConfig struct {
	Backend      string `json:"backend" yaml:"backend"`
	ONNXPath     string `json:"onnxPath,omitempty" yaml:"onnxPath,omitempty"`
	OrtLibrary   string `json:"ortLibrary,omitempty" yaml:"ortLibrary,omitempty"`
	InputName    string `json:"inputName,omitempty" yaml:"inputName,omitempty"`
	LabelOutput  string `json:"labelOutput,omitempty" yaml:"labelOutput,omitempty"`
	ScoresOutput string `json:"scoresOutput,omitempty" yaml:"scoresOutput,omitempty"`
	Clusters     int    `json:"clusters,omitempty" yaml:"clusters,omitempty"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level       string `json:"level" yaml:"level"`
	Development bool   `json:"development" yaml:"development"`
}

// ServerConfig controls the local HTTP server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr"`
}

// Config aggregates runtime settings persisted to config.json (or config.yaml).
type Config struct {
	Artifacts   ArtifactConfig `json:"artifacts" yaml:"artifacts"`
	Model       ModelConfig    `json:"model" yaml:"model"`
	CatalogPath string         `json:"catalogPath,omitempty" yaml:"catalogPath,omitempty"`
	Log         LogConfig      `json:"log" yaml:"log"`
	Server      ServerConfig   `json:"server" yaml:"server"`
}

// DefaultConfig returns a Config with every default applied.
func DefaultConfig() Config {
	var cfg Config
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Artifacts.ScalerPath == "" {
		c.Artifacts.ScalerPath = "scalers/scaler.json"
	}
	if c.Artifacts.ModelPath == "" {
		c.Artifacts.ModelPath = "models/kmeans_model.json"
	}
	if c.Artifacts.SummaryPath == "" {
		c.Artifacts.SummaryPath = "data/cluster_summary.csv"
	}
	c.Model.Backend = strings.ToLower(strings.TrimSpace(c.Model.Backend))
	if c.Model.Backend == "" {
		c.Model.Backend = BackendCentroids
	}
	if c.Model.InputName == "" {
		c.Model.InputName = "input"
	}
	if c.Model.LabelOutput == "" {
		c.Model.LabelOutput = "label"
	}
	if c.Model.ScoresOutput == "" {
		c.Model.ScoresOutput = "scores"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8501"
	}
}

// Validate checks the settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Model.Backend {
	case BackendCentroids:
	case BackendONNX:
		if strings.TrimSpace(c.Model.ONNXPath) == "" {
			return errors.New("model.onnxPath is required for the onnx backend")
		}
	default:
		return fmt.Errorf("model.backend %q is not one of %s, %s", c.Model.Backend, BackendCentroids, BackendONNX)
	}
	if c.Model.Clusters < 0 {
		return errors.New("model.clusters must not be negative")
	}
	if strings.TrimSpace(c.Artifacts.ScalerPath) == "" {
		return errors.New("artifacts.scalerPath is required")
	}
	if strings.TrimSpace(c.Artifacts.SummaryPath) == "" {
		return errors.New("artifacts.summaryPath is required")
	}
	return nil
}

// LoadConfig loads configuration from the given path or the default config.json.
// A missing file yields the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = defaultConfigFile
	}
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := decodeByExt(path, data, &cfg); err != nil {
		return cfg, fmt.Errorf("decode config: %w", err)
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveConfig persists configuration to disk.
func SaveConfig(path string, cfg Config) error {
	if path == "" {
		path = defaultConfigFile
	}
	tmp := path + ".tmp"
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	cfg.ApplyDefaults()
	data, err := encodeByExt(path, cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp config: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename config: %w", err)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func decodeByExt(path string, data []byte, v any) error {
	if isYAML(path) {
		return yaml.Unmarshal(data, v)
	}
	return json.Unmarshal(data, v)
}

func encodeByExt(path string, v any) ([]byte, error) {
	if isYAML(path) {
		return yaml.Marshal(v)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
