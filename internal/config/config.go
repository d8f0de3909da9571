package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendOxiDB    = "oxidb"
	BackendPostgres = "postgres"
	BackendGCS      = "gcs"
)

// DefaultFile is the YAML config read when CHECKINDESK_CONFIG is unset.
const DefaultFile = "checkindesk.yaml"

type Config struct {
	HTTPAddr   string      `yaml:"http_addr"`
	StorageKey string      `yaml:"storage_key"`
	Store      StoreConfig `yaml:"store"`
	NATS       NATSConfig  `yaml:"nats"`
	InboxDir   string      `yaml:"inbox_dir"`
	Log        LogConfig   `yaml:"log"`
}

type StoreConfig struct {
	Backend    string      `yaml:"backend"`
	Dir        string      `yaml:"dir"`
	SQLitePath string      `yaml:"sqlite_path"`
	DSN        string      `yaml:"dsn"`
	OxiDB      OxiDBConfig `yaml:"oxidb"`
	GCS        GCSConfig   `yaml:"gcs"`
}

type OxiDBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	PoolSize int    `yaml:"pool_size"`
	Bucket   string `yaml:"bucket"`
}

type GCSConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type LogConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	GelfAddr string `yaml:"gelf_addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		HTTPAddr:   ":8080",
		StorageKey: "submissions",
		Store: StoreConfig{
			Backend:    BackendFile,
			Dir:        "data",
			SQLitePath: "checkindesk.db",
			OxiDB: OxiDBConfig{
				Host:     "127.0.0.1",
				Port:     4444,
				PoolSize: 3,
				Bucket:   "checkindesk",
			},
		},
		NATS: NATSConfig{SubjectPrefix: "checkindesk.submissions"},
		Log:  LogConfig{Level: "info", Format: "text"},
	}
}

// Load layers defaults, an optional .env file, an optional YAML file and
// environment variables, in that order, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFrom(getEnv("CHECKINDESK_CONFIG", DefaultFile))
}

// LoadFrom is Load without the .env step, reading the YAML file at path
// if it exists.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	// unmarshalling onto the defaults keeps every key the file leaves out
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.StorageKey = getEnv("STORAGE_KEY", c.StorageKey)
	c.Store.Backend = getEnv("STORE_BACKEND", c.Store.Backend)
	c.Store.Dir = getEnv("STORE_DIR", c.Store.Dir)
	c.Store.SQLitePath = getEnv("SQLITE_PATH", c.Store.SQLitePath)
	c.Store.DSN = getEnv("DB_DSN", c.Store.DSN)
	c.Store.OxiDB.Host = getEnv("OXIDB_HOST", c.Store.OxiDB.Host)
	c.Store.OxiDB.Port = getEnvInt("OXIDB_PORT", c.Store.OxiDB.Port)
	c.Store.OxiDB.PoolSize = getEnvInt("OXIDB_POOL_SIZE", c.Store.OxiDB.PoolSize)
	c.Store.OxiDB.Bucket = getEnv("OXIDB_BUCKET", c.Store.OxiDB.Bucket)
	c.Store.GCS.Bucket = getEnv("GCS_BUCKET", c.Store.GCS.Bucket)
	c.Store.GCS.Prefix = getEnv("GCS_PREFIX", c.Store.GCS.Prefix)
	c.NATS.URL = getEnv("NATS_URL", c.NATS.URL)
	c.NATS.SubjectPrefix = getEnv("NATS_SUBJECT_PREFIX", c.NATS.SubjectPrefix)
	c.InboxDir = getEnv("INBOX_DIR", c.InboxDir)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
	c.Log.GelfAddr = getEnv("GELF_ADDR", c.Log.GelfAddr)
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	if c.StorageKey == "" {
		return errors.New("config: storage key is required")
	}
	switch c.Store.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Store.Dir == "" {
			return errors.New("config: file backend needs STORE_DIR")
		}
	case BackendSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("config: sqlite backend needs SQLITE_PATH")
		}
	case BackendOxiDB:
		if c.Store.OxiDB.Host == "" || c.Store.OxiDB.Port <= 0 {
			return errors.New("config: oxidb backend needs OXIDB_HOST and OXIDB_PORT")
		}
		if c.Store.OxiDB.Bucket == "" {
			return errors.New("config: oxidb backend needs OXIDB_BUCKET")
		}
	case BackendPostgres:
		if c.Store.DSN == "" {
			return errors.New("config: postgres backend needs DB_DSN")
		}
	case BackendGCS:
		if c.Store.GCS.Bucket == "" {
			return errors.New("config: gcs backend needs GCS_BUCKET")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return fallback
		}
		n = n*10 + int(c-'0')
	}
	return n
}
