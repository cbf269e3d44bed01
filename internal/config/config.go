package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"bmrbridge/internal/bmr"
)

// Defaults mirroring the controller's sensible ranges.
const (
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultDBPath          = "bmrbridge.db"
	defaultTimeoutSeconds  = 30
	defaultPollSeconds     = 60
	defaultAwayTemperature = 18.0
	defaultMinTemperature  = 18.0
	defaultMaxTemperature  = 24.0
	defaultTokenTTLMinutes = 60
	defaultDiscoveryPrefix = "homeassistant"
	defaultTopicPrefix     = "bmrbridge"

	minAllowedTemperature = 7.0
	maxAllowedTemperature = 35.0
)

// Config is the whole bridge configuration, loaded from configs/config.yml.
type Config struct {
	Port       string           `mapstructure:"port"`
	LogLevel   string           `mapstructure:"log_level"`
	DB         DBConfig         `mapstructure:"db"`
	Controller ControllerConfig `mapstructure:"controller"`
	Circuits   []CircuitConfig  `mapstructure:"circuits"`
	MQTT       MQTTConfig       `mapstructure:"mqtt"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// ControllerConfig is the connection and behaviour configuration of one
// HC64 controller.
type ControllerConfig struct {
	Name            string  `mapstructure:"name"`
	URL             string  `mapstructure:"url"`
	Username        string  `mapstructure:"username"`
	Password        string  `mapstructure:"password"`
	TimeoutSeconds  int     `mapstructure:"timeout_seconds"`
	PollSeconds     int     `mapstructure:"poll_interval_seconds"`
	AwayTemperature float64 `mapstructure:"away_temperature"`
	EnableCooling   bool    `mapstructure:"enable_cooling"`
	Simulate        bool    `mapstructure:"simulate"`
}

// Timeout is the per-call device timeout.
func (c ControllerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval is the coordinator refresh cadence.
func (c ControllerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollSeconds) * time.Second
}

// CircuitConfig describes one heating circuit exposed by the bridge.
type CircuitConfig struct {
	ID   int    `mapstructure:"id"`
	Name string `mapstructure:"name"`

	MinTemperature float64 `mapstructure:"min_temperature"`
	MaxTemperature float64 `mapstructure:"max_temperature"`

	// AutoModeSchedules is the normal day schedule rotation of the
	// circuit, restored when leaving manual mode.
	AutoModeSchedules   []int `mapstructure:"auto_mode_schedules"`
	AutoModeStartingDay int   `mapstructure:"auto_mode_starting_day"`

	// ManualModeSchedule is the schedule slot repurposed to hold the
	// constant manual target temperature.
	ManualModeSchedule int `mapstructure:"manual_mode_schedule"`
}

type MQTTConfig struct {
	Enabled         bool   `mapstructure:"enabled"`
	Broker          string `mapstructure:"broker"`
	ClientID        string `mapstructure:"client_id"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	TopicPrefix     string `mapstructure:"topic_prefix"`
	DiscoveryPrefix string `mapstructure:"discovery_prefix"`
	QoS             int    `mapstructure:"qos"`
}

type AuthConfig struct {
	SigningKey      string `mapstructure:"signing_key"`
	TokenTTLMinutes int    `mapstructure:"token_ttl_minutes"`
}

// TokenTTL is the JWT lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

// Load reads config.yml from the given directory, applies defaults and
// validates the result.
func Load(dir string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(dir)
	v.SetConfigName("config")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", defaultPort)
	v.SetDefault("log_level", defaultLogLevel)
	v.SetDefault("db.path", defaultDBPath)
	v.SetDefault("controller.timeout_seconds", defaultTimeoutSeconds)
	v.SetDefault("controller.poll_interval_seconds", defaultPollSeconds)
	v.SetDefault("controller.away_temperature", defaultAwayTemperature)
	v.SetDefault("auth.token_ttl_minutes", defaultTokenTTLMinutes)
	v.SetDefault("mqtt.discovery_prefix", defaultDiscoveryPrefix)
	v.SetDefault("mqtt.topic_prefix", defaultTopicPrefix)
	v.SetDefault("mqtt.qos", 1)
}

// Validate checks the loaded configuration for the mistakes that would
// otherwise surface as confusing controller behaviour.
func (c *Config) Validate() error {
	if !c.Controller.Simulate && c.Controller.URL == "" {
		return errors.New("controller.url is required unless controller.simulate is set")
	}
	if c.Controller.TimeoutSeconds <= 0 {
		return errors.New("controller.timeout_seconds must be positive")
	}
	if c.Controller.PollSeconds <= 0 {
		return errors.New("controller.poll_interval_seconds must be positive")
	}
	if len(c.Circuits) == 0 {
		return errors.New("at least one circuit must be configured")
	}
	if c.Auth.SigningKey == "" {
		return errors.New("auth.signing_key is required")
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return errors.New("mqtt.broker is required when mqtt is enabled")
	}

	seen := make(map[int]bool, len(c.Circuits))
	for i := range c.Circuits {
		cc := &c.Circuits[i]
		if err := cc.validate(); err != nil {
			return fmt.Errorf("circuit %d: %w", cc.ID, err)
		}
		if seen[cc.ID] {
			return fmt.Errorf("circuit %d: duplicate id", cc.ID)
		}
		seen[cc.ID] = true
	}
	return nil
}

func (cc *CircuitConfig) validate() error {
	if cc.ID < 0 || cc.ID >= bmr.MaxCircuits {
		return fmt.Errorf("id must be in [0, %d)", bmr.MaxCircuits)
	}
	if cc.Name == "" {
		return errors.New("name is required")
	}
	if cc.MinTemperature == 0 {
		cc.MinTemperature = defaultMinTemperature
	}
	if cc.MaxTemperature == 0 {
		cc.MaxTemperature = defaultMaxTemperature
	}
	if cc.MinTemperature < minAllowedTemperature || cc.MaxTemperature > maxAllowedTemperature {
		return fmt.Errorf("temperature bounds must be within [%.1f, %.1f]", minAllowedTemperature, maxAllowedTemperature)
	}
	if cc.MinTemperature >= cc.MaxTemperature {
		return errors.New("min_temperature must be below max_temperature")
	}
	if len(cc.AutoModeSchedules) == 0 {
		return errors.New("auto_mode_schedules is required")
	}
	for _, sid := range cc.AutoModeSchedules {
		if sid == cc.ManualModeSchedule {
			return errors.New("manual_mode_schedule must not appear in auto_mode_schedules")
		}
	}
	return nil
}
