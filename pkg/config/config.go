package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type EnvConfig map[string]string

const (
	DefaultAdminEmail  = "admin@communityportal.com"
	DefaultAdminSecret = "admin123"
)

// Config is read once at startup and treated as immutable.
type Config struct {
	Store       string // memory|file|redis|mongo|postgres|sqlite
	StorePath   string
	RedisAddr   string
	MongoURI    string
	MongoDB     string
	PostgresDSN string

	SecretKey string
	LogLevel  string

	AdminEmail  string
	AdminSecret string
}

var defaults = EnvConfig{
	"STORE":        "file",
	"STORE_PATH":   "data",
	"REDIS_ADDR":   "redis://localhost:6379",
	"MONGODB_URI":  "mongodb://localhost:27017",
	"MONGODB_DB":   "portal",
	"LOG_LEVEL":    "info",
	"ADMIN_EMAIL":  DefaultAdminEmail,
	"ADMIN_SECRET": DefaultAdminSecret,
}

// Load reads the dotenv file at path (a missing file is fine) and overlays
// the process environment on top of it.
func Load(path string) (*Config, error) {
	env, err := readDotenv(path)
	if err != nil {
		return nil, err
	}
	return fromEnv(env)
}

func readDotenv(path string) (EnvConfig, error) {
	env := EnvConfig{}
	if path != "" {
		fileEnv, err := godotenv.Read(path)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: failed reading %s: %w", path, err)
		}
		for k, v := range fileEnv {
			env[k] = v
		}
	}
	for k := range defaults {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	for _, k := range []string{"POSTGRES_DSN", "SECRET_KEY"} {
		if v, ok := os.LookupEnv(k); ok {
			env[k] = v
		}
	}
	return env, nil
}

func fromEnv(env EnvConfig) (*Config, error) {
	get := func(key string) string {
		if v := strings.TrimSpace(env[key]); v != "" {
			return v
		}
		return defaults[key]
	}

	cfg := &Config{
		Store:       strings.ToLower(get("STORE")),
		StorePath:   get("STORE_PATH"),
		RedisAddr:   get("REDIS_ADDR"),
		MongoURI:    get("MONGODB_URI"),
		MongoDB:     get("MONGODB_DB"),
		PostgresDSN: get("POSTGRES_DSN"),
		SecretKey:   get("SECRET_KEY"),
		LogLevel:    get("LOG_LEVEL"),
		AdminEmail:  get("ADMIN_EMAIL"),
		AdminSecret: get("ADMIN_SECRET"),
	}

	switch cfg.Store {
	case "memory", "file", "redis", "mongo", "sqlite":
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, errors.New("config: POSTGRES_DSN is required for the postgres store")
		}
	default:
		return nil, fmt.Errorf("config: unknown STORE %q", cfg.Store)
	}
	return cfg, nil
}
