package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds the service configuration. Orchestration behavior itself is
// driven per batch by the submitted options; everything here is environment
// wiring.
type Config struct {
	Server struct {
		Addr string `mapstructure:"addr"`
	} `mapstructure:"server"`
	DB struct {
		Path string `mapstructure:"path"`
	} `mapstructure:"db"`
	Stages struct {
		BaseURL string `mapstructure:"base_url"`
		Timeout string `mapstructure:"timeout"` // e.g. "30s"
	} `mapstructure:"stages"`
	Output struct {
		Dir string `mapstructure:"dir"`
	} `mapstructure:"output"`
	Guard struct {
		MaxSubmissions int    `mapstructure:"max_submissions"`
		Window         string `mapstructure:"window"` // e.g. "1m"
	} `mapstructure:"guard"`
}

// LoadConfig loads configuration from config.yaml (working dir or ./config)
// and the environment. A missing file is fine; defaults cover everything
// except the stage service URL.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.SetEnvPrefix("chequebatch")
	viper.AutomaticEnv()

	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("db.path", "batches.db")
	viper.SetDefault("stages.timeout", "30s")
	viper.SetDefault("output.dir", "output")
	viper.SetDefault("guard.max_submissions", 10)
	viper.SetDefault("guard.window", "1m")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	return &config, nil
}
