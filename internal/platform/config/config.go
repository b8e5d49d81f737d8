package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public DataJud API root.
	DefaultBaseURL = "https://api-publica.datajud.cnj.jus.br"

	// DefaultPageSize is the per-court page size.
	DefaultPageSize = 50

	// MaxPageSize is the largest page the backend is asked for.
	MaxPageSize = 100

	// DefaultCacheTTL bounds how long a court page is reused.
	DefaultCacheTTL = 5 * time.Minute

	// DefaultTimeout bounds one backend call.
	DefaultTimeout = 30 * time.Second
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Addr string

	DataJud DataJudConfig
	Search  SearchConfig
	Cache   CacheConfig
	Redis   RedisConfig
	Log     LogConfig
	Proxy   ProxyConfig
}

// DataJudConfig describes how the backend is reached.
type DataJudConfig struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	Timeout   time.Duration
	// ProxyURL routes queries through the credential proxy when set.
	ProxyURL string
	// BreakerThreshold consecutive failures skip a court for BreakerCooldown.
	// Zero, the default, disables the breaker.
	BreakerThreshold int
	BreakerCooldown  time.Duration
}

type SearchConfig struct {
	PageSize       int
	MaxConcurrency int
}

type CacheConfig struct {
	TTL     time.Duration
	Backend string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

// ProxyConfig configures the credential proxy process.
type ProxyConfig struct {
	Addr      string
	RateRPS   float64
	RateBurst int
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var errs []string
	r := envReader{errs: &errs}

	cfg := Config{
		Addr: r.str("JURISEARCH_ADDR", ":8080"),
		DataJud: DataJudConfig{
			BaseURL:   strings.TrimRight(r.str("DATAJUD_BASE_URL", DefaultBaseURL), "/"),
			APIKey:    r.str("DATAJUD_API_KEY", ""),
			UserAgent: r.str("DATAJUD_USER_AGENT", "jurisearch/1.0"),
			Timeout:   r.duration("DATAJUD_TIMEOUT", DefaultTimeout),
			ProxyURL:  r.str("DATAJUD_PROXY_URL", ""),

			BreakerThreshold: r.integer("DATAJUD_BREAKER_THRESHOLD", 0),
			BreakerCooldown:  r.duration("DATAJUD_BREAKER_COOLDOWN", 30*time.Second),
		},
		Search: SearchConfig{
			PageSize:       r.integer("SEARCH_PAGE_SIZE", DefaultPageSize),
			MaxConcurrency: r.integer("SEARCH_MAX_CONCURRENCY", 0),
		},
		Cache: CacheConfig{
			TTL:     r.duration("CACHE_TTL", DefaultCacheTTL),
			Backend: strings.ToLower(r.str("CACHE_BACKEND", CacheMemory)),
		},
		Redis: RedisConfig{
			URL:          r.str("REDIS_URL", ""),
			PoolSize:     r.integer("REDIS_POOL_SIZE", 10),
			MinIdleConns: r.integer("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  r.duration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  r.duration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: r.duration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Log: LogConfig{
			Level:  r.str("LOG_LEVEL", "info"),
			Format: r.str("LOG_FORMAT", "json"),
		},
		Proxy: ProxyConfig{
			Addr:      r.str("PROXY_ADDR", ":8081"),
			RateRPS:   r.float("PROXY_RATE_RPS", 10),
			RateBurst: r.integer("PROXY_RATE_BURST", 20),
		},
	}

	if cfg.Search.PageSize < 1 {
		errs = append(errs, "SEARCH_PAGE_SIZE must be positive")
	}
	if cfg.Search.PageSize > MaxPageSize {
		cfg.Search.PageSize = MaxPageSize
	}
	if cfg.DataJud.BreakerThreshold < 0 {
		errs = append(errs, "DATAJUD_BREAKER_THRESHOLD must not be negative")
	}
	if cfg.Search.MaxConcurrency < 0 {
		errs = append(errs, "SEARCH_MAX_CONCURRENCY must not be negative")
	}
	if cfg.Cache.TTL <= 0 {
		errs = append(errs, "CACHE_TTL must be positive")
	}
	switch cfg.Cache.Backend {
	case CacheMemory:
	case CacheRedis:
		if cfg.Redis.URL == "" {
			errs = append(errs, "REDIS_URL is required when CACHE_BACKEND=redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("CACHE_BACKEND %q is not one of memory, redis", cfg.Cache.Backend))
	}

	if len(errs) > 0 {
		return Config{}, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// envReader collects parse failures instead of stopping at the first one.
type envReader struct {
	errs *[]string
}

func (r envReader) str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func (r envReader) integer(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (r envReader) float(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %q is not a number", key, v))
		return def
	}
	return f
}

func (r envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*r.errs = append(*r.errs, fmt.Sprintf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}
