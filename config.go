package gorus

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"

	"github.com/brunobiangulo/gorus/nlp"
	"github.com/brunobiangulo/gorus/relations"
	"github.com/brunobiangulo/gorus/schema"
)

// Config holds all configuration for the gorus engine.
type Config struct {
	// DBPath is the full path to the SQLite parse cache.
	// If empty, defaults to ~/.gorus/<DBName>.db
	DBPath string `json:"db_path" yaml:"db_path"`

	// DBName is the name for the database (used when DBPath is empty).
	DBName string `json:"db_name" yaml:"db_name"`

	// StorageDir controls where the database is created when DBPath
	// is not explicitly set. Options: "home" (default) uses ~/.gorus/,
	// "local" uses the current working directory.
	StorageDir string `json:"storage_dir" yaml:"storage_dir" validate:"omitempty,oneof=home local cwd"`

	// DisableCache keeps parses in memory only.
	DisableCache bool `json:"disable_cache" yaml:"disable_cache"`

	// MemoryCacheEntries bounds the in-process parse cache (default 1024).
	MemoryCacheEntries int `json:"memory_cache_entries" yaml:"memory_cache_entries" validate:"gte=0"`

	// Linguistic engine
	NLP nlp.Config `json:"nlp" yaml:"nlp"`

	// Languages extends the builtin languages (da, de, en, es, fr, it, ru).
	// Extra languages are served by the default schema.
	Languages []string `json:"languages" yaml:"languages" validate:"dive,required"`

	// Equality is the default duplicate detection: "semantic" or "literal".
	Equality string `json:"equality" yaml:"equality"`

	// StrictOrphans fails relation building on clusters without parent
	// instead of dropping them.
	StrictOrphans bool `json:"strict_orphans" yaml:"strict_orphans"`

	// Concurrency limits parallel sentence builds (default: one per CPU).
	Concurrency int `json:"concurrency" yaml:"concurrency" validate:"gte=0"`

	// Patterns is an optional YAML file of entity patterns used when
	// callers supply no entities.
	Patterns string `json:"patterns" yaml:"patterns"`
}

// DefaultConfig returns a Config using the public UDPipe service and a
// parse cache in ~/.gorus/gorus.db.
func DefaultConfig() Config {
	return Config{
		DBName:     "gorus",
		StorageDir: "home",
		NLP: nlp.Config{
			Provider:       "udpipe",
			BaseURL:        nlp.DefaultUDPipeURL,
			TimeoutSeconds: 60,
		},
		Equality: "semantic",
	}
}

// LoadConfig reads a YAML (or JSON) config file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// ApplyEnv overrides config values from GORUS_* environment variables.
// Malformed numbers and booleans are logged and leave the value unchanged.
func (c *Config) ApplyEnv() {
	envString("GORUS_DB_PATH", &c.DBPath)
	envString("GORUS_DB_NAME", &c.DBName)
	envString("GORUS_STORAGE_DIR", &c.StorageDir)
	envBool("GORUS_DISABLE_CACHE", &c.DisableCache)
	envInt("GORUS_MEMORY_CACHE_ENTRIES", &c.MemoryCacheEntries)

	envString("GORUS_NLP_PROVIDER", &c.NLP.Provider)
	envString("GORUS_NLP_BASE_URL", &c.NLP.BaseURL)
	envString("GORUS_NLP_DIR", &c.NLP.Dir)
	envInt("GORUS_NLP_TIMEOUT", &c.NLP.TimeoutSeconds)
	// GORUS_NLP_MODELS=en=english-ewt,de=german-gsd
	if v := os.Getenv("GORUS_NLP_MODELS"); v != "" {
		models := make(map[string]string)
		for _, pair := range strings.Split(v, ",") {
			lang, model, ok := strings.Cut(strings.TrimSpace(pair), "=")
			if !ok || lang == "" || model == "" {
				slog.Warn("config: ignoring malformed model entry", "var", "GORUS_NLP_MODELS", "entry", pair)
				continue
			}
			models[lang] = model
		}
		c.NLP.Models = models
	}

	if v := os.Getenv("GORUS_LANGUAGES"); v != "" {
		c.Languages = nil
		for _, code := range strings.Split(v, ",") {
			if code = strings.TrimSpace(code); code != "" {
				c.Languages = append(c.Languages, code)
			}
		}
	}
	envString("GORUS_EQUALITY", &c.Equality)
	envBool("GORUS_STRICT_ORPHANS", &c.StrictOrphans)
	envInt("GORUS_CONCURRENCY", &c.Concurrency)
	envString("GORUS_PATTERNS", &c.Patterns)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("config: ignoring malformed integer", "var", key, "value", v)
		return
	}
	*dst = n
}

func envBool(key string, dst *bool) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		slog.Warn("config: ignoring malformed boolean", "var", key, "value", v)
		return
	}
	*dst = b
}

// Validate checks field constraints and cross-field rules.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	switch c.NLP.Provider {
	case "udpipe":
	case "recorded":
		if c.NLP.Dir == "" {
			return fmt.Errorf("%w: recorded nlp provider needs nlp.dir", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown nlp provider %q", ErrInvalidConfig, c.NLP.Provider)
	}
	if _, err := relations.ParseEquality(c.Equality); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if _, err := schema.NewAllowList(c.Languages...); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// resolveDBPath computes the final database path from config fields.
func (c *Config) resolveDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}

	name := c.DBName
	if name == "" {
		name = "gorus"
	}

	switch c.StorageDir {
	case "local", "cwd":
		return name + ".db"
	default: // "home" or empty
		home, err := os.UserHomeDir()
		if err != nil {
			return name + ".db" // fallback to cwd
		}
		return filepath.Join(home, ".gorus", name+".db")
	}
}

// CachePath returns the parse cache database the engine opens.
func (c Config) CachePath() string {
	return c.resolveDBPath()
}
