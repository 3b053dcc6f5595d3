package app

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/backend/local"
	"github.com/dmitrijs2005/poreview/internal/backend/remote"
	"github.com/dmitrijs2005/poreview/internal/config"
	"github.com/dmitrijs2005/poreview/internal/logging"
	"github.com/dmitrijs2005/poreview/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRemote stands in for a reachable remote backend.
type fakeRemote struct {
	*local.Backend
	restoreErr error
	closed     bool
	subs       []func(*models.User)
}

func (f *fakeRemote) Mode() backend.Mode { return backend.ModeRemote }

func (f *fakeRemote) RestoreSession(ctx context.Context) (*models.User, error) {
	if f.restoreErr != nil {
		return nil, f.restoreErr
	}
	return f.Backend.RestoreSession(ctx)
}

func (f *fakeRemote) Close() error {
	f.closed = true
	return f.Backend.Close()
}

func (f *fakeRemote) SubscribeAuth(fn func(*models.User)) func() {
	f.subs = append(f.subs, fn)
	return func() { f.subs = nil }
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.LocalDBPath = ":memory:"
	cfg.ProbeTimeout = 2 * time.Second
	return cfg
}

func stubRemote(t *testing.T, f *fakeRemote) *remote.Config {
	t.Helper()
	lb, err := local.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	f.Backend = lb

	var got remote.Config
	old := openRemote
	openRemote = func(ctx context.Context, cfg remote.Config, tokens remote.TokenStore) (backend.Backend, error) {
		got = cfg
		return f, nil
	}
	t.Cleanup(func() { openRemote = old })
	return &got
}

func TestInitialize_NoRemoteConfigured(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := Initialize(context.Background(), testConfig(), logging.Discard(), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, backend.ModeLocal, a.Mode())
	assert.Nil(t, a.Session.CurrentUser())
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.BackendSelected.WithLabelValues("local")))
	assert.Equal(t, 0.0, testutil.ToFloat64(a.Metrics.BackendFallbacks))
}

func TestInitialize_UnreachableRemoteFallsBackToLocal(t *testing.T) {
	cfg := testConfig()
	cfg.RemoteEndpoint = "postgres://po:po@127.0.0.1:1/po?sslmode=disable&connect_timeout=1"
	cfg.RemoteKey = "secret"

	var buf bytes.Buffer
	a, err := Initialize(context.Background(), cfg, logging.NewJSON(&buf, "info"), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, backend.ModeLocal, a.Mode())
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.BackendFallbacks))
	assert.Contains(t, buf.String(), "falling back to local store")

	ctx := context.Background()
	u, err := a.Session.SignUp(ctx, "u1@example.com", "pw", "U1")
	require.NoError(t, err)
	require.NoError(t, a.Session.SignOut(ctx))

	again, err := a.Session.SignIn(ctx, "u1@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
}

func TestInitialize_RemoteSelected(t *testing.T) {
	f := &fakeRemote{}
	got := stubRemote(t, f)

	cfg := testConfig()
	cfg.RemoteEndpoint = "postgres://remote"
	cfg.RemoteKey = "secret"
	cfg.S3Bucket = "bucket"

	a, err := Initialize(context.Background(), cfg, logging.Discard(), prometheus.NewRegistry())
	require.NoError(t, err)

	assert.Equal(t, backend.ModeRemote, a.Mode())
	assert.Equal(t, "postgres://remote", got.Endpoint)
	assert.Equal(t, "bucket", got.S3Bucket)
	assert.True(t, got.Migrate)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.BackendSelected.WithLabelValues("remote")))

	ctx := context.Background()
	_, err = a.Session.SignUp(ctx, "u1@example.com", "pw", "")
	require.NoError(t, err)

	var events []*models.User
	a.Session.OnAuthStateChange(func(u *models.User) { events = append(events, u) })

	// Expiry reported by the backend reaches session listeners.
	require.Len(t, f.subs, 1)
	f.subs[0](nil)
	require.Len(t, events, 1)
	assert.Nil(t, events[0])
	assert.Nil(t, a.Session.CurrentUser())

	require.NoError(t, a.Close())
	assert.True(t, f.closed)
	assert.Empty(t, f.subs)
}

func TestInitialize_RestoreFailureFallsBack(t *testing.T) {
	f := &fakeRemote{restoreErr: errors.New("connection reset")}
	stubRemote(t, f)

	cfg := testConfig()
	cfg.RemoteEndpoint = "postgres://remote"
	cfg.RemoteKey = "secret"

	a, err := Initialize(context.Background(), cfg, logging.Discard(), prometheus.NewRegistry())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	assert.Equal(t, backend.ModeLocal, a.Mode())
	assert.True(t, f.closed)
	assert.Equal(t, 1.0, testutil.ToFloat64(a.Metrics.BackendFallbacks))
}

func TestInitialize_GuestIsStableInEitherMode(t *testing.T) {
	run := func(t *testing.T, cfg *config.Config) {
		a, err := Initialize(context.Background(), cfg, logging.Discard(), prometheus.NewRegistry())
		require.NoError(t, err)
		t.Cleanup(func() { _ = a.Close() })

		ctx := context.Background()
		first, err := a.Session.SignIn(ctx, "guest", "guest")
		require.NoError(t, err)
		require.NoError(t, a.Session.SignOut(ctx))
		second, err := a.Session.SignIn(ctx, "guest", "guest")
		require.NoError(t, err)
		assert.Equal(t, first.ID, second.ID)
	}

	t.Run("local", func(t *testing.T) {
		run(t, testConfig())
	})
	t.Run("remote", func(t *testing.T) {
		stubRemote(t, &fakeRemote{})
		cfg := testConfig()
		cfg.RemoteEndpoint = "postgres://remote"
		cfg.RemoteKey = "secret"
		run(t, cfg)
	})
}
