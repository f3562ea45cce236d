package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

// DefaultCloudBaseURL is the public cloud device registry endpoint.
const DefaultCloudBaseURL = "https://api.smartthings.com"

// Config holds all configuration for roomdash.
//
// It is built once at startup and passed by value into constructors; nothing
// mutates it afterwards.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Hub      HubConfig      `yaml:"hub"`
	Cloud    CloudConfig    `yaml:"cloud"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
}

// ServerConfig contains the inbound HTTP server settings.
type ServerConfig struct {
	Host      string        `yaml:"host"`
	Port      int           `yaml:"port"`
	StaticDir string        `yaml:"static_dir"` // Empty serves the embedded placeholder
	Timeouts  TimeoutConfig `yaml:"timeouts"`
	CORS      CORSConfig    `yaml:"cors"`
}

// handlerWriteMargin is reserved out of WriteTimeout for encoding and
// writing a response.
const handlerWriteMargin = time.Second

// TimeoutConfig contains HTTP server timeouts in seconds.
type TimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
// An empty AllowedOrigins list allows every origin.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// HubConfig configures the local home-automation hub provider.
type HubConfig struct {
	BaseURL  string `yaml:"base_url"`
	Token    string `yaml:"token"`
	EntityID string `yaml:"entity_id"`
	Timeout  int    `yaml:"timeout"` // Seconds per outbound request
}

// Configured reports whether every setting the hub provider needs is present.
func (h HubConfig) Configured() bool {
	return h.BaseURL != "" && h.Token != "" && h.EntityID != ""
}

// Partial reports whether some, but not all, hub settings are present.
func (h HubConfig) Partial() bool {
	set := 0
	for _, v := range []string{h.BaseURL, h.Token, h.EntityID} {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < 3
}

// CloudConfig configures the cloud device registry provider.
type CloudConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Timeout int    `yaml:"timeout"` // Seconds per outbound request

	// RateLimit caps outbound requests per second. Zero disables it.
	RateLimit float64 `yaml:"rate_limit"`
}

// Configured reports whether a cloud token is present.
func (c CloudConfig) Configured() bool {
	return c.Token != ""
}

// DefaultsConfig supplies names used when upstream data lacks them.
type DefaultsConfig struct {
	RoomName   string `yaml:"room_name"`
	DeviceName string `yaml:"device_name"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"` // json or text
	Output string            `yaml:"output"` // stdout, stderr or file
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains rotation settings for file output.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"` // Megabytes
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"` // Days
	Compress   bool   `yaml:"compress"`
}

// MQTTConfig configures the optional retained-state publisher.
type MQTTConfig struct {
	Enabled     bool             `yaml:"enabled"`
	Broker      MQTTBrokerConfig `yaml:"broker"`
	Auth        MQTTAuthConfig   `yaml:"auth"`
	QoS         int              `yaml:"qos"`
	TopicPrefix string           `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection settings.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// InfluxDBConfig configures the optional climate telemetry export.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"` // Seconds
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment. Variables that are already set keep their value, and files
// that do not exist are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := gotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from path, applies environment overrides and
// validates the result.
//
// An empty path skips the file and starts from defaults. A non-empty path
// that cannot be read is an error.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 3000,
			Timeouts: TimeoutConfig{
				Read:  30,
				Write: 60,
				Idle:  120,
			},
		},
		Hub: HubConfig{
			Timeout: 10,
		},
		Cloud: CloudConfig{
			BaseURL: DefaultCloudBaseURL,
			Timeout: 10,
		},
		Defaults: DefaultsConfig{
			DeviceName: "Air Conditioner",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				Path:       "./logs/roomdash.log",
				MaxSize:    50,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "roomdash",
			},
			QoS:         1,
			TopicPrefix: "roomdash",
		},
		InfluxDB: InfluxDBConfig{
			URL:           "http://localhost:8086",
			Bucket:        "roomdash",
			BatchSize:     100,
			FlushInterval: 10,
		},
	}
}

// applyEnvOverrides applies environment variable overrides.
//
// Variables follow ROOMDASH_SECTION_KEY. PORT and SMARTTHINGS_TOKEN are
// accepted as fallbacks for deployments that predate the prefix.
func applyEnvOverrides(cfg *Config) {
	// Server
	if v := firstEnv("ROOMDASH_SERVER_PORT", "PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		} else {
			cfg.Server.Port = -1 // surfaced by Validate
		}
	}
	if v := os.Getenv("ROOMDASH_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("ROOMDASH_STATIC_DIR"); v != "" {
		cfg.Server.StaticDir = v
	}

	// Hub
	if v := os.Getenv("ROOMDASH_HUB_BASE_URL"); v != "" {
		cfg.Hub.BaseURL = v
	}
	if v := os.Getenv("ROOMDASH_HUB_TOKEN"); v != "" {
		cfg.Hub.Token = v
	}
	if v := os.Getenv("ROOMDASH_HUB_ENTITY_ID"); v != "" {
		cfg.Hub.EntityID = v
	}

	// Cloud
	if v := os.Getenv("ROOMDASH_CLOUD_BASE_URL"); v != "" {
		cfg.Cloud.BaseURL = v
	}
	if v := firstEnv("ROOMDASH_CLOUD_TOKEN", "SMARTTHINGS_TOKEN"); v != "" {
		cfg.Cloud.Token = v
	}

	// Defaults
	if v := os.Getenv("ROOMDASH_DEFAULT_ROOM"); v != "" {
		cfg.Defaults.RoomName = v
	}
	if v := os.Getenv("ROOMDASH_DEFAULT_DEVICE"); v != "" {
		cfg.Defaults.DeviceName = v
	}

	// Logging
	if v := os.Getenv("ROOMDASH_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// MQTT
	if v := os.Getenv("ROOMDASH_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("ROOMDASH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("ROOMDASH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("ROOMDASH_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks the configuration for errors.
//
// Provider settings are not required; only values that would make the
// process misbehave are rejected.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, "server.port must be between 1 and 65535")
	}
	if c.Hub.Timeout < 1 {
		errs = append(errs, "hub.timeout must be at least 1 second")
	}
	if c.Cloud.Timeout < 1 {
		errs = append(errs, "cloud.timeout must be at least 1 second")
	}
	if c.Cloud.RateLimit < 0 {
		errs = append(errs, "cloud.rate_limit cannot be negative")
	}
	if c.Cloud.BaseURL == "" {
		errs = append(errs, "cloud.base_url is required")
	}

	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr", "":
	case "file":
		if c.Logging.File.Path == "" {
			errs = append(errs, "logging.file.path is required when logging.output is file")
		}
	default:
		errs = append(errs, "logging.output must be stdout, stderr or file")
	}

	if c.MQTT.Enabled {
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Broker.Host == "" {
			errs = append(errs, "mqtt.broker.host is required when mqtt is enabled")
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, "mqtt.topic_prefix is required when mqtt is enabled")
		}
	}

	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Org == "" || c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.org and influxdb.bucket are required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// ReadTimeout returns the server read timeout as a Duration.
func (t TimeoutConfig) ReadTimeout() time.Duration {
	return time.Duration(t.Read) * time.Second
}

// WriteTimeout returns the server write timeout as a Duration.
func (t TimeoutConfig) WriteTimeout() time.Duration {
	return time.Duration(t.Write) * time.Second
}

// IdleTimeout returns the server idle timeout as a Duration.
func (t TimeoutConfig) IdleTimeout() time.Duration {
	return time.Duration(t.Idle) * time.Second
}

// HandlerBudget is how long a handler may spend on upstream calls while
// still leaving room to write its response before WriteTimeout. Zero
// means no limit.
func (t TimeoutConfig) HandlerBudget() time.Duration {
	write := t.WriteTimeout()
	switch {
	case write <= 0:
		return 0
	case write <= 2*handlerWriteMargin:
		return write / 2
	default:
		return write - handlerWriteMargin
	}
}

// HubTimeout returns the per-request timeout for hub calls.
func (c *Config) HubTimeout() time.Duration {
	return time.Duration(c.Hub.Timeout) * time.Second
}

// CloudTimeout returns the per-request timeout for cloud calls.
func (c *Config) CloudTimeout() time.Duration {
	return time.Duration(c.Cloud.Timeout) * time.Second
}

// Redacted returns a copy with every secret replaced, suitable for logging.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***"
	}
	c.Hub.Token = mask(c.Hub.Token)
	c.Cloud.Token = mask(c.Cloud.Token)
	c.MQTT.Auth.Password = mask(c.MQTT.Auth.Password)
	c.InfluxDB.Token = mask(c.InfluxDB.Token)
	return c
}
