package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"llmbench/internal/llm"
	"llmbench/internal/store"
)

// Config holds the parameters of a benchmark run. Generation settings are
// fixed for the whole run.
type Config struct {
	DBDriver    string   `json:"db_driver" yaml:"db_driver" toml:"db_driver"`
	DBDSN       string   `json:"db_dsn" yaml:"db_dsn" toml:"db_dsn"`
	ModelsDir   string   `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	ContextSize int      `json:"context_size" yaml:"context_size" toml:"context_size"`
	MaxTokens   int      `json:"max_tokens" yaml:"max_tokens" toml:"max_tokens"`
	Temperature float64  `json:"temperature" yaml:"temperature" toml:"temperature"`
	GPULayers   int      `json:"gpu_layers" yaml:"gpu_layers" toml:"gpu_layers"`
	Threads     int      `json:"threads" yaml:"threads" toml:"threads"`
	TopP        float64  `json:"top_p" yaml:"top_p" toml:"top_p"`
	TopK        int      `json:"top_k" yaml:"top_k" toml:"top_k"`
	Seed        int      `json:"seed" yaml:"seed" toml:"seed"`
	StatusAddr  string   `json:"status_addr" yaml:"status_addr" toml:"status_addr"`
	CORSOrigins []string `json:"cors_origins" yaml:"cors_origins" toml:"cors_origins"`
	Description string   `json:"description" yaml:"description" toml:"description"`
}

// Defaults returns the settings used when neither a file nor a flag says
// otherwise. Threads 0 means one per CPU; Seed -1 means random.
func Defaults() Config {
	return Config{
		DBDriver:    store.DriverSQLite,
		DBDSN:       "llm_benchmark.db",
		ModelsDir:   "./models",
		ContextSize: llm.DefaultContextSize,
		MaxTokens:   llm.DefaultMaxTokens,
		Temperature: llm.DefaultTemperature,
		GPULayers:   0,
		TopP:        0.95,
		TopK:        40,
		Seed:        -1,
	}
}

// Load reads a configuration file based on its extension, on top of
// Defaults. Keys absent from the file keep their default.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".json":
		err = json.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case store.DriverSQLite, store.DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("db_driver must be %s or %s, got %q", store.DriverSQLite, store.DriverPostgres, c.DBDriver))
	}
	if strings.TrimSpace(c.DBDSN) == "" {
		errs = append(errs, errors.New("db_dsn is required"))
	}
	if strings.TrimSpace(c.ModelsDir) == "" {
		errs = append(errs, errors.New("models_dir is required"))
	}
	if c.ContextSize <= 0 {
		errs = append(errs, fmt.Errorf("context_size must be positive, got %d", c.ContextSize))
	}
	if c.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens))
	}
	if c.Temperature < 0 {
		errs = append(errs, fmt.Errorf("temperature must be >= 0, got %g", c.Temperature))
	}
	if c.GPULayers < 0 {
		errs = append(errs, fmt.Errorf("gpu_layers must be >= 0, got %d", c.GPULayers))
	}
	if c.Threads < 0 {
		errs = append(errs, fmt.Errorf("threads must be >= 0, got %d", c.Threads))
	}
	if c.TopP < 0 || c.TopP > 1 {
		errs = append(errs, fmt.Errorf("top_p must be within [0,1], got %g", c.TopP))
	}
	if c.TopK < 0 {
		errs = append(errs, fmt.Errorf("top_k must be >= 0, got %d", c.TopK))
	}
	return errors.Join(errs...)
}

// LLMOptions maps the generation settings onto adapter options.
func (c Config) LLMOptions() llm.Options {
	return llm.Options{
		ContextSize: c.ContextSize,
		MaxTokens:   c.MaxTokens,
		Temperature: float32(c.Temperature),
		GPULayers:   c.GPULayers,
		Threads:     c.Threads,
		TopP:        float32(c.TopP),
		TopK:        c.TopK,
		Seed:        c.Seed,
	}
}
