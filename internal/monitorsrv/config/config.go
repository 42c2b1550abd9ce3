package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type DBConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DBName   string `toml:"dbname"`
	SSLMode  string `toml:"sslmode"`
}

type ConfigParam struct {
	ServerPort              string   `toml:"server_port"`
	HandleCORS              bool     `toml:"handle_cors"`
	DefaultStalenessSeconds int      `toml:"default_staleness_seconds"`
	MaxBatchItems           int      `toml:"max_batch_items"`
	BundleSigningSecret     string   `toml:"bundle_signing_secret"`
	DetailCompressThreshold int      `toml:"detail_compress_threshold"`
	NotifyRetryAttempts     uint     `toml:"notify_retry_attempts"`
	DB                      DBConfig `toml:"db"`
}

// DefaultConfigFile is where the server looks when no -config flag is given.
const DefaultConfigFile = "/etc/nodewatch/nodewatch.conf"

var cfg *ConfigParam

func Config() *ConfigParam {
	return cfg
}

// DefaultStaleness returns the fleet-wide staleness window applied to assets
// without a per-asset override.
func (c *ConfigParam) DefaultStaleness() time.Duration {
	if c.DefaultStalenessSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.DefaultStalenessSeconds) * time.Second
}

func LoadConfig(filename string) error {
	if filename == "" {
		cfg = defaults()
		return nil
	}
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}
	cp := *defaults()
	if _, err := toml.Decode(string(content), &cp); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}
	cfg = &cp
	return nil
}

func defaults() *ConfigParam {
	return &ConfigParam{
		ServerPort:              "8196",
		HandleCORS:              true,
		DefaultStalenessSeconds: 300,
		MaxBatchItems:           1000,
		BundleSigningSecret:     "nodewatch-dev-only",
		DetailCompressThreshold: 1024,
		NotifyRetryAttempts:     3,
		DB: DBConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "nodewatch_api",
			DBName:  "nodewatch",
			SSLMode: "disable",
		},
	}
}

func init() {
	if err := LoadConfig(""); err != nil {
		panic(err)
	}
}
