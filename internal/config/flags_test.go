package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		expected    *Config
		expectPanic bool
	}{
		{
			name: "all flags",
			args: []string{
				"-r", "postgres://po@db/po", "-k", "secret", "-m=false", "-d", "/tmp/po.db",
				"-t", "2s", "-s", "1h", "-b", "docs", "-g", "eu-west-1", "-e", "http://minio:9000",
				"-u", "minio", "-p", "minio123", "-l", "debug", "-x", ":9100",
			},
			expected: &Config{
				RemoteEndpoint: "postgres://po@db/po",
				RemoteKey:      "secret",
				RemoteMigrate:  false,
				LocalDBPath:    "/tmp/po.db",
				ProbeTimeout:   2 * time.Second,
				SessionTTL:     time.Hour,
				S3Bucket:       "docs",
				S3Region:       "eu-west-1",
				S3BaseEndpoint: "http://minio:9000",
				S3AccessKey:    "minio",
				S3SecretKey:    "minio123",
				LogLevel:       "debug",
				MetricsAddr:    ":9100",
			},
		},
		{
			name:     "unknown flags are ignored",
			args:     []string{"-c", "cfg.json", "-d", "x.db", "--verbose"},
			expected: &Config{LocalDBPath: "x.db"},
		},
		{name: "bad duration", args: []string{"-t", "soon"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg, tt.args) })
				return
			}
			require.NotPanics(t, func() { parseFlags(cfg, tt.args) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}
