// Package config loads the node's configuration file with
// github.com/spf13/viper, the same library and unified-entry pattern
// the teacher's config.go uses (exe-dir then cwd lookup of a default
// filename, or an explicit path override).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultConfigName = "sharechaind"
	defaultConfigType = "yml"

	DefaultListenPort   = "9347"
	defaultLogLevel     = "info"
	defaultLogDirname   = "logs"
	defaultLogFilename  = "sharechaind.log"
	defaultMaxPeers     = 64
	defaultBanThreshold = 100
	defaultBanDuration  = time.Hour
)

// Config is the top-level, mapstructure-tagged configuration shape.
type Config struct {
	Network    string   `mapstructure:"network"`
	ListenAddr string   `mapstructure:"listenAddr"`
	Seeds      []string `mapstructure:"seeds"`
	MaxPeers   int      `mapstructure:"maxPeers"`

	Proxy struct {
		Enable  bool   `mapstructure:"enable"`
		Address string `mapstructure:"address"`
	} `mapstructure:"proxy"`

	Ban struct {
		Threshold int           `mapstructure:"threshold"`
		Duration  time.Duration `mapstructure:"duration"`
	} `mapstructure:"ban"`

	Log struct {
		Level string `mapstructure:"level"`
		Dir   string `mapstructure:"dir"`
	} `mapstructure:"log"`

	DataDir string `mapstructure:"dataDir"`

	SubVersion string `mapstructure:"subVersion"`
}

// defaults fills in the zero-value fields a freshly-unmarshaled Config
// would otherwise leave empty.
func defaults() Config {
	var cfg Config
	cfg.Network = "mainnet"
	cfg.ListenAddr = ":" + DefaultListenPort
	cfg.MaxPeers = defaultMaxPeers
	cfg.Ban.Threshold = defaultBanThreshold
	cfg.Ban.Duration = defaultBanDuration
	cfg.Log.Level = defaultLogLevel
	cfg.Log.Dir = defaultLogDirname
	cfg.DataDir = "data"
	cfg.SubVersion = "sharechaind:0.1.0"
	return cfg
}

// Load reads configFile if given, or searches the executable's
// directory then the current directory for sharechaind.yml.
// Environment variables prefixed SHARECHAIND_ override file values.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SHARECHAIND")
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		baseDir := "."
		if exe, err := os.Executable(); err == nil {
			baseDir = filepath.Dir(exe)
		}
		v.SetConfigName(defaultConfigName)
		v.SetConfigType(defaultConfigType)
		v.AddConfigPath(baseDir)
		v.AddConfigPath(".")
	}

	cfg := defaults()
	if err := v.ReadInConfig(); err != nil {
		if configFile != "" {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
		// No config file found anywhere searched; run on defaults.
		return &cfg, nil
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) LogFilePath() string {
	return filepath.Join(c.Log.Dir, defaultLogFilename)
}
