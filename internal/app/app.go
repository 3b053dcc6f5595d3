// Package app selects the backend once at startup and wires the stores on
// top of it.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/backend/local"
	"github.com/dmitrijs2005/poreview/internal/backend/remote"
	"github.com/dmitrijs2005/poreview/internal/common"
	"github.com/dmitrijs2005/poreview/internal/config"
	"github.com/dmitrijs2005/poreview/internal/files"
	"github.com/dmitrijs2005/poreview/internal/filex"
	"github.com/dmitrijs2005/poreview/internal/logging"
	"github.com/dmitrijs2005/poreview/internal/metrics"
	"github.com/dmitrijs2005/poreview/internal/models"
	"github.com/dmitrijs2005/poreview/internal/notifications"
	"github.com/dmitrijs2005/poreview/internal/records"
	"github.com/dmitrijs2005/poreview/internal/session"
	"github.com/prometheus/client_golang/prometheus"
)

// openRemote is replaced in tests.
var openRemote = func(ctx context.Context, cfg remote.Config, tokens remote.TokenStore) (backend.Backend, error) {
	b, err := remote.Open(ctx, cfg, tokens)
	if err != nil {
		return nil, err
	}
	return b, nil
}

type App struct {
	Backend       backend.Backend
	Session       *session.Manager
	Records       *records.Store
	Notifications *notifications.Store
	Files         *files.Store
	Metrics       *metrics.Metrics

	local       *local.Backend
	logger      logging.Logger
	unsubscribe func()
}

// Initialize opens the local store, then tries the remote backend when both
// of its credentials are configured. Any remote failure is logged and the
// local store is used for the rest of the process. The restored identity,
// if any, is available from Session.CurrentUser.
func Initialize(ctx context.Context, cfg *config.Config, logger logging.Logger, reg prometheus.Registerer) (*App, error) {
	if err := filex.EnsureParentDir(cfg.LocalDBPath); err != nil {
		return nil, fmt.Errorf("prepare local store: %w", err)
	}
	lb, err := local.Open(ctx, cfg.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	a := &App{
		Metrics: metrics.New(reg),
		local:   lb,
		logger:  logger,
	}

	u, err := a.selectBackend(ctx, cfg)
	if err != nil {
		_ = lb.Close()
		return nil, err
	}

	if n, ok := a.Backend.(backend.AuthNotifier); ok {
		a.unsubscribe = n.SubscribeAuth(a.Session.HandleExternal)
	}

	a.Notifications = notifications.NewStore(a.Backend, a.Session, a.Metrics, logger)
	a.Files = files.NewStore(a.Backend, a.Session, a.Metrics, logger)
	a.Records = records.NewStore(a.Backend, a.Session, a.Notifications, a.Files, a.Metrics, logger)

	a.Metrics.IncBackendSelected(a.Backend.Mode())
	attrs := []any{"mode", a.Backend.Mode()}
	if u != nil {
		attrs = append(attrs, "user_id", u.ID)
	}
	logger.Info(ctx, "backend selected", attrs...)

	return a, nil
}

func (a *App) selectBackend(ctx context.Context, cfg *config.Config) (*models.User, error) {
	if !cfg.RemoteConfigured() {
		a.logger.Info(ctx, "remote backend not configured, using local store")
		return a.use(ctx, a.local)
	}

	u, err := a.probeRemote(ctx, cfg)
	if err == nil {
		return u, nil
	}
	a.logger.Warn(ctx, "remote backend unavailable, falling back to local store", "error", err)
	a.Metrics.IncBackendFallback()
	return a.use(ctx, a.local)
}

// probeRemote connects and restores the persisted session within
// cfg.ProbeTimeout.
func (a *App) probeRemote(ctx context.Context, cfg *config.Config) (*models.User, error) {
	pctx, cancel := context.WithTimeout(ctx, cfg.ProbeTimeout)
	defer cancel()

	rb, err := openRemote(pctx, RemoteConfig(cfg), a.local.TokenStore())
	if err != nil {
		return nil, err
	}
	u, err := a.use(pctx, rb)
	if err != nil {
		_ = rb.Close()
		return nil, fmt.Errorf("%w: restore session: %w", common.ErrBackendUnavailable, err)
	}
	return u, nil
}

func (a *App) use(ctx context.Context, b backend.Backend) (*models.User, error) {
	a.Backend = b
	a.Session = session.NewManager(b, a.local, a.logger)
	return a.Session.Restore(ctx)
}

func RemoteConfig(cfg *config.Config) remote.Config {
	return remote.Config{
		Endpoint:       cfg.RemoteEndpoint,
		Key:            cfg.RemoteKey,
		SessionTTL:     cfg.SessionTTL,
		Migrate:        cfg.RemoteMigrate,
		S3Bucket:       cfg.S3Bucket,
		S3Region:       cfg.S3Region,
		S3BaseEndpoint: cfg.S3BaseEndpoint,
		S3AccessKey:    cfg.S3AccessKey,
		S3SecretKey:    cfg.S3SecretKey,
	}
}

func (a *App) Mode() backend.Mode {
	return a.Backend.Mode()
}

// Close stops forwarding backend auth events and closes both stores.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	var errs []error
	if a.Backend != backend.Backend(a.local) {
		errs = append(errs, a.Backend.Close())
	}
	errs = append(errs, a.local.Close())
	return errors.Join(errs...)
}
