package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig    `yaml:"server"`
	Database DatabaseConfig  `yaml:"database"`
	Kiosk    KioskConfig     `yaml:"kiosk"`
	Printer  PrinterConfig   `yaml:"printer"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
	Logging  LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type KioskConfig struct {
	SessionTimeout time.Duration `yaml:"session_timeout"`
	SampleInterval time.Duration `yaml:"sample_interval"`
	PulseValue     int64         `yaml:"pulse_value"`
	CoinPin        int           `yaml:"coin_pin"`
}

type PrinterConfig struct {
	Destination    string        `yaml:"destination"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxPollRetries int           `yaml:"max_poll_retries"`
	WorkDir        string        `yaml:"work_dir"`
	ConverterCmd   string        `yaml:"converter_cmd"`
}

type WebhookConfig struct {
	Name   string   `yaml:"name"`
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret"`
	Events []string `yaml:"events"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/kiosk.db",
		},
		Kiosk: KioskConfig{
			SessionTimeout: 5 * time.Minute,
			SampleInterval: 10 * time.Millisecond,
			PulseValue:     1,
			CoinPin:        26,
		},
		Printer: PrinterConfig{
			Destination:    "Epson_L5290",
			PollInterval:   2 * time.Second,
			MaxPollRetries: 3,
			WorkDir:        os.TempDir(),
			ConverterCmd:   "libreoffice",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()

	if v := os.Getenv("KIOSK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("KIOSK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("KIOSK_PRINTER"); v != "" {
		cfg.Printer.Destination = v
	}

	if v := os.Getenv("KIOSK_SESSION_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Kiosk.SessionTimeout = d
		}
	}

	if v := os.Getenv("KIOSK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	return cfg
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Kiosk.SessionTimeout <= 0 {
		return fmt.Errorf("session timeout must be positive")
	}

	if c.Kiosk.SampleInterval <= 0 {
		return fmt.Errorf("sample interval must be positive")
	}

	if c.Kiosk.PulseValue < 1 {
		return fmt.Errorf("pulse value must be at least 1")
	}

	if c.Printer.Destination == "" {
		return fmt.Errorf("printer destination is required")
	}

	if c.Printer.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}

	if c.Printer.MaxPollRetries < 0 {
		return fmt.Errorf("max poll retries must be non-negative")
	}

	for i, w := range c.Webhooks {
		if w.URL == "" {
			return fmt.Errorf("webhook %d: url is required", i)
		}
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}
