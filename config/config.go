package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Booking   BookingConfig   `yaml:"booking"`
	Worker    WorkerConfig    `yaml:"worker"`
	Auth      AuthConfig      `yaml:"auth"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	Concierge ConciergeConfig `yaml:"concierge"`
	Messaging MessagingConfig `yaml:"messaging"`
	Log       LogConfig       `yaml:"log"`
	Timezone  string          `yaml:"timezone"`
}

type HTTPConfig struct {
	Address        string   `yaml:"address"`
	SwaggerDir     string   `yaml:"swagger_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	Migrate  bool   `yaml:"migrate"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type BookingConfig struct {
	LockTTLSeconds        int `yaml:"lock_ttl_seconds"`
	SearchCacheTTLSeconds int `yaml:"search_cache_ttl_seconds"`
	PageSize              int `yaml:"page_size"`
}

func (b BookingConfig) LockTTL() time.Duration {
	return time.Duration(b.LockTTLSeconds) * time.Second
}

func (b BookingConfig) SearchCacheTTL() time.Duration {
	return time.Duration(b.SearchCacheTTLSeconds) * time.Second
}

type WorkerConfig struct {
	CompletionSweepMinutes int `yaml:"completion_sweep_minutes"`
	WaitlistSweepMinutes   int `yaml:"waitlist_sweep_minutes"`
}

type AuthConfig struct {
	JWTSecret      string   `yaml:"jwt_secret"`
	TokenTTLHours  int      `yaml:"token_ttl_hours"`
	AllowedDomains []string `yaml:"allowed_domains"`
}

type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

// Enabled reports whether outgoing mail should go through SMTP.
func (s SMTPConfig) Enabled() bool {
	return s.Host != "" && s.From != ""
}

type ConciergeConfig struct {
	Provider       string `yaml:"provider"` // ollama, openai or gemini
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	ContextDir     string `yaml:"context_dir"`
	MaxResources   int    `yaml:"max_resources"`
	MaxDocSnippets int    `yaml:"max_doc_snippets"`
}

func (c ConciergeConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type MessagingConfig struct {
	PollIntervalSeconds int `yaml:"poll_interval_seconds"`
	FeedLimit           int `yaml:"feed_limit"`
	MaxContentLength    int `yaml:"max_content_length"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// PathFromEnv returns CONFIG_PATH or the default config.yaml.
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yaml"
}

func (c *Config) applyEnv() {
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		c.SMTP.Password = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.Concierge.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Booking.LockTTLSeconds <= 0 {
		c.Booking.LockTTLSeconds = 10
	}
	if c.Booking.SearchCacheTTLSeconds <= 0 {
		c.Booking.SearchCacheTTLSeconds = 30
	}
	if c.Booking.PageSize <= 0 {
		c.Booking.PageSize = 9
	}
	if c.Worker.CompletionSweepMinutes <= 0 {
		c.Worker.CompletionSweepMinutes = 5
	}
	if c.Worker.WaitlistSweepMinutes <= 0 {
		c.Worker.WaitlistSweepMinutes = 5
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
	if len(c.Auth.AllowedDomains) == 0 {
		c.Auth.AllowedDomains = []string{"iu.edu"}
	}
	if c.SMTP.Port == 0 {
		c.SMTP.Port = 587
	}
	if c.Concierge.Provider == "" {
		c.Concierge.Provider = "ollama"
	}
	if c.Concierge.TimeoutSeconds <= 0 {
		c.Concierge.TimeoutSeconds = 60
	}
	if c.Concierge.MaxResources <= 0 {
		c.Concierge.MaxResources = 4
	}
	if c.Concierge.MaxDocSnippets <= 0 {
		c.Concierge.MaxDocSnippets = 2
	}
	if c.Messaging.PollIntervalSeconds <= 0 {
		c.Messaging.PollIntervalSeconds = 4
	}
	if c.Messaging.FeedLimit <= 0 {
		c.Messaging.FeedLimit = 50
	}
	if c.Messaging.MaxContentLength <= 0 {
		c.Messaging.MaxContentLength = 2000
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Timezone == "" {
		c.Timezone = "America/Indiana/Indianapolis"
	}
}

// Location resolves the configured campus timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
