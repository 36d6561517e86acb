package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	BackendBleve      = "bleve"
	BackendOpenSearch = "opensearch"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Search   SearchConfig
	RedisURL string
}

type ServerConfig struct {
	Port           string
	GinMode        string
	LogLevel       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URI             string
	MaxPoolSize     uint64
	MinPoolSize     uint64
	MaxConnIdleTime time.Duration
	DatabaseName    string
	RetryWrites     bool
	NotesCollection string
	UsersCollection string
}

type AuthConfig struct {
	JWTSecretKey string
	Issuer       string
	AdminUserIDs []string
}

type SearchConfig struct {
	Backend            string
	BlevePath          string
	OpenSearchURLs     []string
	OpenSearchUsername string
	OpenSearchPassword string
	OpenSearchIndex    string
	OpenSearchInsecure bool
	EngineTimeout      time.Duration
	ResyncBatchSize    int
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "release")
	v.SetDefault("log_level", "info")
	v.SetDefault("cors_allowed_origins", "")

	v.SetDefault("mongo_uri", "")
	v.SetDefault("mongo_db", "tonotes")
	v.SetDefault("mongo_max_pool_size", 100)
	v.SetDefault("mongo_min_pool_size", 10)
	v.SetDefault("mongo_max_conn_idle_time", 60)
	v.SetDefault("mongo_retry_writes", true)
	v.SetDefault("notes_collection", "notes")
	v.SetDefault("users_collection", "users")

	v.SetDefault("jwt_secret_key", "")
	v.SetDefault("jwt_issuer", "toNotes")
	v.SetDefault("admin_user_ids", "")

	v.SetDefault("search_backend", BackendBleve)
	v.SetDefault("bleve_path", "")
	v.SetDefault("opensearch_url", "http://localhost:9200")
	v.SetDefault("opensearch_username", "")
	v.SetDefault("opensearch_password", "")
	v.SetDefault("opensearch_index", "notes")
	v.SetDefault("opensearch_insecure", false)
	v.SetDefault("engine_timeout", 10*time.Second)
	v.SetDefault("resync_batch_size", 200)

	v.SetDefault("redis_url", "")
}

// Load reads configuration from the environment, a .env file and any flags
// already bound to v. Environment variables already set take precedence
// over .env file values.
func Load(v *viper.Viper) (*Config, error) {
	loadDotEnv()

	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("port"),
			GinMode:        v.GetString("gin_mode"),
			LogLevel:       strings.ToLower(v.GetString("log_level")),
			AllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		},
		Database: DatabaseConfig{
			URI:             v.GetString("mongo_uri"),
			MaxPoolSize:     v.GetUint64("mongo_max_pool_size"),
			MinPoolSize:     v.GetUint64("mongo_min_pool_size"),
			MaxConnIdleTime: time.Duration(v.GetInt("mongo_max_conn_idle_time")) * time.Second,
			DatabaseName:    v.GetString("mongo_db"),
			RetryWrites:     v.GetBool("mongo_retry_writes"),
			NotesCollection: v.GetString("notes_collection"),
			UsersCollection: v.GetString("users_collection"),
		},
		Auth: AuthConfig{
			JWTSecretKey: v.GetString("jwt_secret_key"),
			Issuer:       v.GetString("jwt_issuer"),
			AdminUserIDs: splitList(v.GetString("admin_user_ids")),
		},
		Search: SearchConfig{
			Backend:            strings.ToLower(v.GetString("search_backend")),
			BlevePath:          v.GetString("bleve_path"),
			OpenSearchURLs:     splitList(v.GetString("opensearch_url")),
			OpenSearchUsername: v.GetString("opensearch_username"),
			OpenSearchPassword: v.GetString("opensearch_password"),
			OpenSearchIndex:    v.GetString("opensearch_index"),
			OpenSearchInsecure: v.GetBool("opensearch_insecure"),
			EngineTimeout:      v.GetDuration("engine_timeout"),
			ResyncBatchSize:    v.GetInt("resync_batch_size"),
		},
		RedisURL: v.GetString("redis_url"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.Database.URI == "" {
		return errors.New("MONGO_URI is required")
	}
	if c.Database.DatabaseName == "" {
		return errors.New("MONGO_DB is required")
	}
	switch c.Search.Backend {
	case BackendBleve:
	case BackendOpenSearch:
		if len(c.Search.OpenSearchURLs) == 0 {
			return errors.New("OPENSEARCH_URL is required for the opensearch backend")
		}
	default:
		return fmt.Errorf("SEARCH_BACKEND must be %q or %q, got %q", BackendBleve, BackendOpenSearch, c.Search.Backend)
	}
	if c.Search.EngineTimeout <= 0 {
		return errors.New("ENGINE_TIMEOUT must be greater than 0")
	}
	if c.Search.ResyncBatchSize <= 0 {
		return errors.New("RESYNC_BATCH_SIZE must be greater than 0")
	}
	return nil
}

// RequireAuth checks the settings the HTTP server needs on top of Validate.
func (c *Config) RequireAuth() error {
	if c.Auth.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// loadDotEnv loads the nearest .env file walking up from the working
// directory, if any.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
