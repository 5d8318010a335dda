// Package config loads runtime settings from CHIRON_* environment
// variables, with an optional .env file picked up from the working
// directory.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	defaultModel         = "claude-sonnet-4-20250514"
	defaultMaxTokens     = 8192
	defaultMaxIterations = 32
	defaultServerAddr    = "localhost:8742"
	defaultMaxWorkers    = 4
)

// Config is the full runtime configuration. Zero values mean "use the
// in-memory store" for the DSN fields.
type Config struct {
	// DataDir holds lesson and progress artifacts. Defaults to ~/.chiron.
	DataDir string

	// Model provider and generation settings.
	Provider      string
	Model         string
	MaxTokens     int
	MaxIterations int

	// PostgresDSN backs both the relational store and pgvector when set.
	PostgresDSN string

	// MongoURI selects the Mongo vector store when set and PostgresDSN is
	// not.
	MongoURI  string
	MongoDB   string
	MongoColl string

	// ServerAddr is the websocket tool endpoint listen address.
	ServerAddr string

	// MaxWorkers bounds the research fan-out.
	MaxWorkers int
}

// Load reads the environment, after merging a .env file if one exists.
// Missing variables fall back to defaults; nothing here is required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DataDir:       envStr("CHIRON_DATA_DIR", defaultDataDir()),
		Provider:      envStr("CHIRON_PROVIDER", "anthropic"),
		Model:         envStr("CHIRON_MODEL", defaultModel),
		MaxTokens:     defaultMaxTokens,
		MaxIterations: defaultMaxIterations,
		PostgresDSN:   envStr("CHIRON_POSTGRES_DSN", os.Getenv("DATABASE_URL")),
		MongoURI:      envStr("CHIRON_MONGO_URI", ""),
		MongoDB:       envStr("CHIRON_MONGO_DB", "chiron"),
		MongoColl:     envStr("CHIRON_MONGO_COLLECTION", "knowledge_chunks"),
		ServerAddr:    envStr("CHIRON_SERVER_ADDR", defaultServerAddr),
		MaxWorkers:    defaultMaxWorkers,
	}

	var err error
	if cfg.MaxTokens, err = envInt("CHIRON_MAX_TOKENS", defaultMaxTokens); err != nil {
		return nil, err
	}
	if cfg.MaxIterations, err = envInt("CHIRON_MAX_ITERATIONS", defaultMaxIterations); err != nil {
		return nil, err
	}
	if cfg.MaxWorkers, err = envInt("CHIRON_MAX_WORKERS", defaultMaxWorkers); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureDirectories creates the data directory tree.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.DataDir, c.LessonsDir(), c.ProgressDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

// LessonsDir is where generated lessons land.
func (c *Config) LessonsDir() string { return filepath.Join(c.DataDir, "lessons") }

// ProgressDir is where progress exports land.
func (c *Config) ProgressDir() string { return filepath.Join(c.DataDir, "progress") }

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".chiron"
	}
	return filepath.Join(home, ".chiron")
}

func envStr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &ParseError{Key: key, Value: v, Err: err}
	}
	return n, nil
}

// ParseError reports a malformed environment variable.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return "config: invalid " + e.Key + "=" + strconv.Quote(e.Value) + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }
