package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/deploymenttheory/go-keysalvage/internal/search"
	"github.com/deploymenttheory/go-keysalvage/internal/wallet"
)

// Config holds every tunable the commands recognize. Flag values win
// over file values, file values over defaults.
type Config struct {
	// Scan settings
	WindowSize int `mapstructure:"window_size"`

	// Search settings
	Iterations         int    `mapstructure:"iterations"`
	MinLength          int    `mapstructure:"min_passwd"`
	MaxLength          int    `mapstructure:"max_passwd"`
	Charset            string `mapstructure:"charset"`
	Processes          int    `mapstructure:"processes"`
	MaxConsecutive     int    `mapstructure:"max_consecutive"`
	CheckpointInterval int    `mapstructure:"checkpoint_interval"`

	// Output settings
	Testnet bool `mapstructure:"testnet"`
}

// Load reads keysalvage configuration using Viper. A missing config file
// is fine; defaults and KEYSALVAGE_* environment variables apply.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("keysalvage")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.keysalvage")
	v.AddConfigPath("/etc/keysalvage")

	v.SetDefault("window_size", 1<<20)
	v.SetDefault("iterations", wallet.DefaultIterations)
	v.SetDefault("min_passwd", 4)
	v.SetDefault("max_passwd", 8)
	v.SetDefault("charset", search.DefaultCharset)
	v.SetDefault("processes", 0) // 0 means CPU count
	v.SetDefault("max_consecutive", 0)
	v.SetDefault("checkpoint_interval", 60)
	v.SetDefault("testnet", false)

	v.SetEnvPrefix("KEYSALVAGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// No config file is fine, defaults apply.
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}
