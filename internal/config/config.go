package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the server runtime settings.
type Config struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	Debug         bool          `mapstructure:"debug"`
	EnableCORS    bool          `mapstructure:"enable_cors"`
	SweepAge      time.Duration `mapstructure:"sweep_age"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	StepDelay     time.Duration `mapstructure:"step_delay"`
}

// Addr returns the host:port listen address.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load reads configuration from tradingagents-config.json in $HOME or the
// working directory, then applies TRADINGAGENTS_* environment overrides. A
// missing config file is fine; defaults carry the server.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("tradingagents-config")
	v.SetConfigType("json")
	v.AddConfigPath("$HOME")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TRADINGAGENTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8000)
	v.SetDefault("debug", false)
	v.SetDefault("enable_cors", true)
	v.SetDefault("sweep_age", time.Hour)
	v.SetDefault("sweep_interval", 10*time.Minute)
	v.SetDefault("step_delay", 150*time.Millisecond)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
