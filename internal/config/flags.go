package config

import (
	"flag"

	"github.com/dmitrijs2005/poreview/internal/flagx"
)

var knownFlags = []string{"-r", "-k", "-m", "-d", "-t", "-s", "-b", "-g", "-e", "-u", "-p", "-l", "-x"}

// parseFlags overlays cfg with the flags it knows about; everything else in
// args is ignored.
func parseFlags(cfg *Config, args []string) {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("poreview", flag.ContinueOnError)

	fs.StringVar(&cfg.RemoteEndpoint, "r", cfg.RemoteEndpoint, "remote endpoint (Postgres DSN)")
	fs.StringVar(&cfg.RemoteKey, "k", cfg.RemoteKey, "remote key")
	fs.BoolVar(&cfg.RemoteMigrate, "m", cfg.RemoteMigrate, "apply remote migrations on startup")
	fs.StringVar(&cfg.LocalDBPath, "d", cfg.LocalDBPath, "local store path")
	fs.DurationVar(&cfg.ProbeTimeout, "t", cfg.ProbeTimeout, "remote probe timeout")
	fs.DurationVar(&cfg.SessionTTL, "s", cfg.SessionTTL, "remote session lifetime")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket")
	fs.StringVar(&cfg.S3Region, "g", cfg.S3Region, "S3 region")
	fs.StringVar(&cfg.S3BaseEndpoint, "e", cfg.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&cfg.S3AccessKey, "u", cfg.S3AccessKey, "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "p", cfg.S3SecretKey, "S3 secret key")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.MetricsAddr, "x", cfg.MetricsAddr, "metrics listen address")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
