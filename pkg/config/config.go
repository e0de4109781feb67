package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	applogger "SignalDesk/pkg/logger"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string           `yaml:"environment" default:"development"`
	Log         applogger.Config `yaml:"log"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"90s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		BodyLimit       string        `yaml:"body_limit" default:"12M"`
		CORSOrigins     []string      `yaml:"cors_origins"`
		RateLimit       struct {
			RPS   float64 `yaml:"rps" default:"2"`
			Burst int     `yaml:"burst" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Inference struct {
		APIKey      string        `yaml:"api_key"`
		Model       string        `yaml:"model" default:"gemini-2.5-flash"`
		Timeout     time.Duration `yaml:"timeout" default:"60s"`
		MaxRetries  int           `yaml:"max_retries" default:"3"`
		RPS         float64       `yaml:"rps" default:"1"`
		Temperature float32       `yaml:"temperature" default:"0.2"`
	} `yaml:"inference"`
	Symbols struct {
		Timeout      time.Duration `yaml:"timeout" default:"8s"`
		CacheTTL     time.Duration `yaml:"cache_ttl" default:"24h"`
		HeuristicTTL time.Duration `yaml:"heuristic_ttl" default:"5m"`
	} `yaml:"symbols"`
	Quotes struct {
		APIKey   string        `yaml:"api_key"`
		BaseURL  string        `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		Deadline time.Duration `yaml:"deadline" default:"3s"`
	} `yaml:"quotes"`
	Redis struct {
		Enabled   bool          `yaml:"enabled"`
		Addr      string        `yaml:"addr" default:"localhost:6379"`
		Password  string        `yaml:"password"`
		DB        int           `yaml:"db"`
		MemoryTTL time.Duration `yaml:"memory_ttl" default:"1m"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled          bool     `yaml:"enabled"`
		Brokers          []string `yaml:"brokers"`
		RequestsTopic    string   `yaml:"requests_topic" default:"analysis.requests"`
		ReportsTopic     string   `yaml:"reports_topic" default:"analysis.reports"`
		DiagnosticsTopic string   `yaml:"diagnostics_topic" default:"analysis.diagnostics"`
		Compression      string   `yaml:"compression" default:"gzip"`
		Consumer         struct {
			GroupID    string        `yaml:"group_id" default:"signaldesk"`
			Workers    int           `yaml:"workers" default:"4"`
			BufferSize int           `yaml:"buffer_size" default:"16"`
			RetryMax   int           `yaml:"retry_max" default:"2"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"200ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic   string        `yaml:"dlq_topic" default:"analysis.requests.dlq"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled     bool          `yaml:"enabled"`
		Host        string        `yaml:"host" default:"localhost"`
		Port        int           `yaml:"port" default:"9000"`
		Database    string        `yaml:"database" default:"default"`
		User        string        `yaml:"user" default:"default"`
		Password    string        `yaml:"password"`
		UseHTTP     bool          `yaml:"use_http"`
		AsyncInsert bool          `yaml:"async_insert" default:"true"`
		DialTimeout time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout time.Duration `yaml:"read_timeout" default:"10s"`
		AuditTable  string        `yaml:"audit_table" default:"report_audit"`
		AuditTTL    time.Duration `yaml:"audit_ttl" default:"2160h"`
	} `yaml:"clickhouse"`
	Diagnostics struct {
		FlushInterval  time.Duration `yaml:"flush_interval" default:"30s"`
		CountThreshold int           `yaml:"count_threshold" default:"50"`
	} `yaml:"diagnostics"`
}

// Load reads a YAML file (if path is non-empty), fills zero values from `default` tags and
// validates the result.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads .env files when present, then the YAML config, then applies environment
// overrides.
func LoadWithEnv(path string) (*Config, error) {
	for _, f := range []string{".env", ".env.local"} {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, fmt.Errorf("load %s: %w", f, err)
			}
		}
	}

	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Inference.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		c.Inference.Model = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Quotes.APIKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = splitList(v)
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
		c.Redis.Enabled = true
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("kafka.brokers cannot be empty when kafka is enabled"))
	}
	if c.Inference.MaxRetries < 0 {
		errs = append(errs, errors.New("inference.max_retries must be >= 0"))
	}
	if c.Quotes.Deadline <= 0 {
		errs = append(errs, errors.New("quotes.deadline must be positive"))
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		errs = append(errs, fmt.Errorf("log.format must be 'json' or 'console', got '%s'", c.Log.Format))
	}
	return errors.Join(errs...)
}
