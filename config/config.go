package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Output    OutputConfig
	Thumbnail ThumbnailConfig
	Log       LogConfig
}

type OutputConfig struct {
	PageSize string
	Quality  int
	MarginMM float64
	TailPage string
}

type ThumbnailConfig struct {
	Width int
}

type LogConfig struct {
	Level string
}

// Load returns the application configuration from environment variables
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// A missing .env is fine; defaults and the environment still apply.
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	unmarshalConfig(&config)

	return &config, nil
}

func setDefaults() {
	// Output defaults
	viper.SetDefault("output.page.size", "native")
	viper.SetDefault("output.quality", 90)
	viper.SetDefault("output.margin.mm", 0.0)
	viper.SetDefault("output.tail.page", "")

	// Thumbnail defaults
	viper.SetDefault("thumbnail.width", 300)

	// Log defaults
	viper.SetDefault("log.level", "info")
}

func unmarshalConfig(config *Config) {
	// Output config
	config.Output.PageSize = viper.GetString("output.page.size")
	config.Output.Quality = viper.GetInt("output.quality")
	config.Output.MarginMM = viper.GetFloat64("output.margin.mm")
	config.Output.TailPage = viper.GetString("output.tail.page")

	// Thumbnail config
	config.Thumbnail.Width = viper.GetInt("thumbnail.width")

	// Log config
	config.Log.Level = viper.GetString("log.level")
}
