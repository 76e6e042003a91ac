package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	HomeAssistant HomeAssistantConfig `mapstructure:"home_assistant"`
	Shelly        ShellyConfig        `mapstructure:"shelly"`
	Logging       LoggingConfig       `mapstructure:"logging"`
	Metrics       MetricsConfig       `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Host string `mapstructure:"host"`
	Mode string `mapstructure:"mode"`
}

// HomeAssistantConfig describes how to reach the hub's REST and
// WebSocket APIs. Inside an add-on container the supervisor proxy at
// http://supervisor/core is used together with SUPERVISOR_TOKEN.
type HomeAssistantConfig struct {
	URL     string `mapstructure:"url"`
	Token   string `mapstructure:"token"`
	Timeout int    `mapstructure:"timeout"` // seconds, hub API calls
}

type ShellyConfig struct {
	AdminPassword   string     `mapstructure:"admin_password"`
	ProbeTimeout    int        `mapstructure:"probe_timeout"`   // seconds, generation probes
	CommandTimeout  int        `mapstructure:"command_timeout"` // seconds, device commands
	ScanConcurrency int        `mapstructure:"scan_concurrency"`
	MDNS            MDNSConfig `mapstructure:"mdns"`
}

type MDNSConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Timeout int  `mapstructure:"timeout"` // seconds, browse window
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Prefix  string `mapstructure:"prefix"`
}

// HubTimeout returns the hub API timeout as a duration
func (c *HomeAssistantConfig) HubTimeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Timeout) * time.Second
}

// ProbeTimeoutDuration returns the generation probe timeout
func (c *ShellyConfig) ProbeTimeoutDuration() time.Duration {
	if c.ProbeTimeout <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.ProbeTimeout) * time.Second
}

// CommandTimeoutDuration returns the device command timeout
func (c *ShellyConfig) CommandTimeoutDuration() time.Duration {
	if c.CommandTimeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.CommandTimeout) * time.Second
}

// MDNSTimeoutDuration returns the mDNS browse window
func (c *ShellyConfig) MDNSTimeoutDuration() time.Duration {
	if c.MDNS.Timeout <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.MDNS.Timeout) * time.Second
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()

	// Override specific values from env
	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("home_assistant.url", "HA_URL")
	viper.BindEnv("home_assistant.token", "SUPERVISOR_TOKEN")
	viper.BindEnv("shelly.admin_password", "ADMIN_PASSWORD")
	viper.BindEnv("logging.level", "LOG_LEVEL")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8099)
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.mode", "production")

	viper.SetDefault("home_assistant.url", "http://supervisor/core")
	viper.SetDefault("home_assistant.timeout", 10)

	viper.SetDefault("shelly.probe_timeout", 2)
	viper.SetDefault("shelly.command_timeout", 5)
	viper.SetDefault("shelly.scan_concurrency", 4)
	viper.SetDefault("shelly.mdns.enabled", true)
	viper.SetDefault("shelly.mdns.timeout", 5)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prefix", "shelly_manager")
}
