// Package session owns the current identity of the process and notifies
// subscribers whenever it changes.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/common"
	"github.com/dmitrijs2005/poreview/internal/logging"
	"github.com/dmitrijs2005/poreview/internal/models"
)

// Listener receives the new identity, or nil after sign-out.
type Listener func(*models.User)

// GuestResolver resolves the reserved guest credentials. It is always the
// local store, whichever backend is active.
type GuestResolver interface {
	SignInGuest(ctx context.Context) (*models.User, error)
	SignOut(ctx context.Context) error
}

type Manager struct {
	auth   backend.Auth
	guest  GuestResolver
	logger logging.Logger

	mu      sync.RWMutex
	current *models.User

	listenersMu sync.Mutex
	listeners   map[int]Listener
	nextID      int
}

func NewManager(auth backend.Auth, guest GuestResolver, logger logging.Logger) *Manager {
	return &Manager{
		auth:      auth,
		guest:     guest,
		logger:    logger,
		listeners: make(map[int]Listener),
	}
}

// Restore loads the identity of a surviving session without notifying
// listeners. It is called once at startup.
func (m *Manager) Restore(ctx context.Context) (*models.User, error) {
	u, err := m.auth.RestoreSession(ctx)
	if err != nil {
		return nil, err
	}
	m.set(u)
	return clone(u), nil
}

func IsGuest(email, password string) bool {
	return models.NormalizeEmail(email) == common.GuestEmail && password == common.GuestPassword
}

func validateCredentials(email, password string) error {
	if models.NormalizeEmail(email) == "" {
		return fmt.Errorf("%w: email is required", common.ErrValidation)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	return nil
}

func (m *Manager) SignUp(ctx context.Context, email, password, displayName string) (*models.User, error) {
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}
	if models.NormalizeEmail(email) == common.GuestEmail {
		return nil, fmt.Errorf("%w: %q is reserved", common.ErrValidation, common.GuestEmail)
	}
	if strings.TrimSpace(displayName) == "" {
		displayName, _, _ = strings.Cut(models.NormalizeEmail(email), "@")
	}

	u, err := m.auth.SignUp(ctx, email, password, strings.TrimSpace(displayName))
	if err != nil {
		return nil, err
	}
	m.logger.Info(ctx, "signed up", "user_id", u.ID)
	m.change(u)
	return clone(u), nil
}

// SignIn resolves the reserved guest pair against the local store and
// everything else against the active backend. Signing in as guest ends any
// remote session first.
func (m *Manager) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	if IsGuest(email, password) {
		return m.signInGuest(ctx)
	}
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	u, err := m.auth.SignIn(ctx, email, password)
	if err != nil {
		m.logger.Debug(ctx, "sign-in rejected", "error", err)
		return nil, err
	}
	m.logger.Info(ctx, "signed in", "user_id", u.ID)
	m.change(u)
	return clone(u), nil
}

func (m *Manager) signInGuest(ctx context.Context) (*models.User, error) {
	if err := m.auth.SignOut(ctx); err != nil {
		m.logger.Warn(ctx, "failed to end session before guest sign-in", "error", err)
	}

	u, err := m.guest.SignInGuest(ctx)
	if err != nil {
		return nil, err
	}
	m.logger.Info(ctx, "signed in as guest", "user_id", u.ID)
	m.change(u)
	return clone(u), nil
}

// SignOut always clears the identity; errors from the stores are returned
// after listeners have been told.
func (m *Manager) SignOut(ctx context.Context) error {
	err := errors.Join(m.auth.SignOut(ctx), m.guest.SignOut(ctx))
	m.change(nil)
	m.logger.Info(ctx, "signed out")
	return err
}

// CurrentUser returns the cached identity; it never calls a backend.
func (m *Manager) CurrentUser() *models.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return clone(m.current)
}

// RequireUser is CurrentUser that fails with common.ErrAuthRequired.
func (m *Manager) RequireUser() (*models.User, error) {
	u := m.CurrentUser()
	if u == nil {
		return nil, common.ErrAuthRequired
	}
	return u, nil
}

// OnAuthStateChange registers l and returns a func that removes it.
func (m *Manager) OnAuthStateChange(l Listener) (unsubscribe func()) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()

	id := m.nextID
	m.nextID++
	m.listeners[id] = l

	var once sync.Once
	return func() {
		once.Do(func() {
			m.listenersMu.Lock()
			defer m.listenersMu.Unlock()
			delete(m.listeners, id)
		})
	}
}

// HandleExternal applies an identity change the backend made on its own,
// such as an expired remote session.
func (m *Manager) HandleExternal(u *models.User) {
	m.change(u)
}

func (m *Manager) set(u *models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = clone(u)
}

func (m *Manager) change(u *models.User) {
	m.set(u)

	m.listenersMu.Lock()
	fns := make([]Listener, 0, len(m.listeners))
	// Registration order.
	for id := 0; id < m.nextID; id++ {
		if l, ok := m.listeners[id]; ok {
			fns = append(fns, l)
		}
	}
	m.listenersMu.Unlock()

	for _, l := range fns {
		l(clone(u))
	}
}

func clone(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
