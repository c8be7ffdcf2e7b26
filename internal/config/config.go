package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ignite/emailvision/internal/emailvision"
)

// Config holds all configuration for the application
type Config struct {
	EmailVision EmailVisionConfig `yaml:"emailvision"`
	Logging     LoggingConfig     `yaml:"logging"`
	Stub        StubConfig        `yaml:"stub"`
}

// EmailVisionConfig holds EmailVision API credentials and endpoint settings
type EmailVisionConfig struct {
	API            string `yaml:"api"`    // REST namespace, e.g. "apiccmd"
	Server         string `yaml:"server"` // host only, no scheme
	Login          string `yaml:"login"`
	Password       string `yaml:"password"`
	APIKey         string `yaml:"api_key"`
	Secure         *bool  `yaml:"secure"` // https unless explicitly false
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c EmailVisionConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// IsSecure reports whether the API is reached over https.
func (c EmailVisionConfig) IsSecure() bool {
	return c.Secure == nil || *c.Secure
}

// ClientConfig converts the settings into the client's own Config.
func (c EmailVisionConfig) ClientConfig() emailvision.Config {
	return emailvision.Config{
		API:      c.API,
		Server:   c.Server,
		Login:    c.Login,
		Password: c.Password,
		APIKey:   c.APIKey,
		Insecure: !c.IsSecure(),
		Timeout:  c.Timeout(),
	}
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether secrets and emails are masked in logs.
func (c LoggingConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// StubConfig holds settings for the local fake API server
type StubConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads and parses the configuration file. An empty path yields the
// defaults only.
func Load(path string) (*Config, error) {
	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.EmailVision.API == "" {
		cfg.EmailVision.API = "apiccmd"
	}
	if cfg.EmailVision.TimeoutSeconds == 0 {
		cfg.EmailVision.TimeoutSeconds = 30
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Stub.Addr == "" {
		cfg.Stub.Addr = ":8089"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so credentials can live in .env locally and in real env vars in CI.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	// Override with environment variables if present
	if api := os.Getenv("EMAILVISION_API"); api != "" {
		cfg.EmailVision.API = api
	}
	if server := os.Getenv("EMAILVISION_SERVER_URL"); server != "" {
		cfg.EmailVision.Server = server
	}
	if login := os.Getenv("EMAILVISION_API_LOGIN"); login != "" {
		cfg.EmailVision.Login = login
	}
	if password := os.Getenv("EMAILVISION_API_PASSWORD"); password != "" {
		cfg.EmailVision.Password = password
	}
	if apiKey := os.Getenv("EMAILVISION_API_KEY"); apiKey != "" {
		cfg.EmailVision.APIKey = apiKey
	}
	if secure := os.Getenv("EMAILVISION_SECURE"); secure != "" {
		if v, err := strconv.ParseBool(secure); err == nil {
			cfg.EmailVision.Secure = &v
		}
	}
	if timeout := os.Getenv("EMAILVISION_TIMEOUT_SECONDS"); timeout != "" {
		if v, err := strconv.Atoi(timeout); err == nil && v > 0 {
			cfg.EmailVision.TimeoutSeconds = v
		}
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}

	return cfg, nil
}
