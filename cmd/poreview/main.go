package main

import (
	"context"
	"log"
	"net"
	"os"

	"github.com/dmitrijs2005/poreview/internal/app"
	"github.com/dmitrijs2005/poreview/internal/cli"
	"github.com/dmitrijs2005/poreview/internal/config"
	"github.com/dmitrijs2005/poreview/internal/logging"
	"github.com/dmitrijs2005/poreview/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	cfg := config.LoadConfig()
	logger := logging.NewJSON(os.Stderr, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := app.Initialize(ctx, cfg, logger, reg)
	if err != nil {
		log.Fatalf("%v", err)
		return
	}
	defer a.Close()

	if cfg.MetricsAddr != "" {
		l, err := net.Listen("tcp", cfg.MetricsAddr)
		if err != nil {
			logger.Error(ctx, "metrics listener failed", "addr", cfg.MetricsAddr, "error", err)
		} else {
			go func() {
				if err := metrics.Serve(ctx, l, reg, logger); err != nil {
					logger.Error(ctx, "metrics server failed", "error", err)
				}
			}()
		}
	}

	cli.NewShell(a, os.Stdin, os.Stdout).Run(ctx)
}
