package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DB        DBConfig
	Server    ServerConfig
	Upstream  UpstreamConfig
	Cache     CacheConfig
	Locale    LocaleConfig
	Selection SelectionConfig
	Widget    WidgetConfig
}

// DBType represents database type
type DBType string

const (
	DBTypePostgreSQL DBType = "postgres"
	DBTypeMemory     DBType = "memory"
)

// CacheBackend selects where search responses are cached
type CacheBackend string

const (
	CacheBackendMemory   CacheBackend = "memory"
	CacheBackendRedis    CacheBackend = "redis"
	CacheBackendDatabase CacheBackend = "database"
)

// DBConfig holds database configuration
type DBConfig struct {
	Type     DBType
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// DSN returns the database connection string
func (c DBConfig) DSN() string {
	if c.Type == DBTypeMemory {
		// SQLite in-memory database
		if c.Name != "" && c.Name != "sportslocations" {
			return fmt.Sprintf("file:%s?mode=memory&cache=shared", c.Name)
		}
		return "file::memory:?cache=shared"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// IsMemory returns true if using in-memory database
func (c DBConfig) IsMemory() bool {
	return c.Type == DBTypeMemory
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           string
	RateLimitRPS   float64
	RateLimitBurst int
	// TrustedProxies lists IPs/CIDRs whose X-Forwarded-For is believed
	TrustedProxies []string
}

// UpstreamConfig describes the graph-search backend
type UpstreamConfig struct {
	URL            string
	Timeout        time.Duration
	OntologyTreeID int
	ResultLimit    int
	RootField      string
}

// CacheConfig holds cache backend and TTL settings
type CacheConfig struct {
	Backend  CacheBackend
	RedisURL string
	RawTTL   time.Duration
	QueryTTL time.Duration
}

// LocaleConfig holds language resolution settings
type LocaleConfig struct {
	Current string
	Default string
	Allowed []string
}

// SelectionConfig bounds the persisted selection and result pages
type SelectionConfig struct {
	Min         int
	Max         int
	ResultLimit int
}

// WidgetConfig holds client-side widget settings
type WidgetConfig struct {
	Debounce time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbType := DBType(getEnv("DB_TYPE", "memory"))
	if dbType != DBTypePostgreSQL && dbType != DBTypeMemory {
		dbType = DBTypeMemory
	}

	backend := CacheBackend(getEnv("CACHE_BACKEND", "memory"))
	switch backend {
	case CacheBackendMemory, CacheBackendRedis, CacheBackendDatabase:
	default:
		backend = CacheBackendMemory
	}

	allowed := getEnvAsSlice("LANG_ALLOWED")
	if len(allowed) == 0 {
		allowed = []string{"fi", "sv", "en"}
	}

	config := &Config{
		DB: DBConfig{
			Type:     dbType,
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "sportslocations"),
			Password: getEnv("DB_PASSWORD", "sportslocations_password"),
			Name:     getEnv("DB_NAME", "sportslocations"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port:           getEnv("APP_PORT", "8080"),
			RateLimitRPS:   float64(getEnvAsInt("RATE_LIMIT_RPS", 20)),
			RateLimitBurst: getEnvAsInt("RATE_LIMIT_BURST", 40),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES"),
		},
		Upstream: UpstreamConfig{
			URL:            getEnv("UPSTREAM_URL", "http://localhost:8081/graphql"),
			Timeout:        getEnvAsDuration("UPSTREAM_TIMEOUT", 10*time.Second),
			OntologyTreeID: getEnvAsInt("UPSTREAM_ONTOLOGY_TREE_ID", 551),
			ResultLimit:    getEnvAsInt("UPSTREAM_RESULT_LIMIT", 50),
			RootField:      getEnv("UPSTREAM_ROOT_FIELD", "unifiedSearch"),
		},
		Cache: CacheConfig{
			Backend:  backend,
			RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
			RawTTL:   getEnvAsDuration("CACHE_RAW_TTL", time.Hour),
			QueryTTL: getEnvAsDuration("CACHE_QUERY_TTL", 15*time.Minute),
		},
		Locale: LocaleConfig{
			Current: getEnv("LANG_CURRENT", "fi"),
			Default: getEnv("LANG_DEFAULT", "fi"),
			Allowed: allowed,
		},
		Selection: SelectionConfig{
			Min:         getEnvAsInt("SELECTION_MIN", 0),
			Max:         getEnvAsInt("SELECTION_MAX", 100),
			ResultLimit: getEnvAsInt("RESULT_LIMIT", 100),
		},
		Widget: WidgetConfig{
			Debounce: getEnvAsDuration("WIDGET_DEBOUNCE", 500*time.Millisecond),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") and bare integers as seconds.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

func getEnvAsSlice(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
