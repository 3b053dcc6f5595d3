package config

import (
	"os"
	"time"
)

type Config struct {
	RemoteEndpoint string
	RemoteKey      string
	RemoteMigrate  bool

	LocalDBPath  string
	ProbeTimeout time.Duration
	SessionTTL   time.Duration

	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
	S3AccessKey    string
	S3SecretKey    string

	LogLevel    string
	MetricsAddr string
}

// LoadDefaults populates c with defaults that select the local backend.
func (c *Config) LoadDefaults() {
	c.RemoteMigrate = true
	c.LocalDBPath = "poreview.db"
	c.ProbeTimeout = 5 * time.Second
	c.SessionTTL = 24 * time.Hour
	c.S3Bucket = "po-files"
	c.S3Region = "us-east-1"
	c.LogLevel = "info"
}

// RemoteConfigured reports whether both remote credentials are present.
func (c *Config) RemoteConfigured() bool {
	return c.RemoteEndpoint != "" && c.RemoteKey != ""
}

// LoadConfig applies defaults, then the JSON file, then flags from os.Args.
// Unreadable files and bad flag values panic.
func LoadConfig() *Config {
	return Load(os.Args[1:])
}

func Load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
