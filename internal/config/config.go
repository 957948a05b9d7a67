package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the runtime settings of the exchange server. Values come from
// an optional config file and EXCHANGE_* environment variables.
type Config struct {
	ListenAddr  string        `mapstructure:"listen_addr"`
	BotInterval time.Duration `mapstructure:"bot_interval"`
	BotCount    int           `mapstructure:"bot_count"`
	// MySQLDSN selects durable storage; empty runs on in-memory stores.
	MySQLDSN string `mapstructure:"mysql_dsn"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("bot_interval", 10*time.Second)
	v.SetDefault("bot_count", 3)
	v.SetDefault("mysql_dsn", "")

	v.SetConfigName("exchange")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvPrefix("EXCHANGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
