package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/poreview/internal/flagx"
	"github.com/dmitrijs2005/poreview/internal/timex"
)

// JsonConfig is the on-disk form of Config. Zero values leave the current
// setting untouched.
type JsonConfig struct {
	RemoteEndpoint string         `json:"remote_endpoint"`
	RemoteKey      string         `json:"remote_key"`
	RemoteMigrate  *bool          `json:"remote_migrate"`
	LocalDBPath    string         `json:"local_db_path"`
	ProbeTimeout   timex.Duration `json:"probe_timeout"`
	SessionTTL     timex.Duration `json:"session_ttl"`
	S3Bucket       string         `json:"s3_bucket"`
	S3Region       string         `json:"s3_region"`
	S3BaseEndpoint string         `json:"s3_base_endpoint"`
	S3AccessKey    string         `json:"s3_access_key"`
	S3SecretKey    string         `json:"s3_secret_key"`
	LogLevel       string         `json:"log_level"`
	MetricsAddr    string         `json:"metrics_addr"`
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.RemoteEndpoint, jc.RemoteEndpoint)
	setString(&cfg.RemoteKey, jc.RemoteKey)
	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)

	if jc.RemoteMigrate != nil {
		cfg.RemoteMigrate = *jc.RemoteMigrate
	}
	if jc.ProbeTimeout.Duration > 0 {
		cfg.ProbeTimeout = jc.ProbeTimeout.Duration
	}
	if jc.SessionTTL.Duration > 0 {
		cfg.SessionTTL = jc.SessionTTL.Duration
	}
}
