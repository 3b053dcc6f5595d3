package backend

import (
	"context"

	"github.com/dmitrijs2005/poreview/internal/models"
)

type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// Auth manages identities and the backend's own session.
type Auth interface {
	// RestoreSession returns the identity of a session that survived a
	// restart, or (nil, nil) if there is none.
	RestoreSession(ctx context.Context) (*models.User, error)
	SignUp(ctx context.Context, email, password, displayName string) (*models.User, error)
	SignIn(ctx context.Context, email, password string) (*models.User, error)
	SignOut(ctx context.Context) error
}

type Users interface {
	// FindUserByEmail returns common.ErrNotFound for unknown addresses.
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Records interface {
	// InsertRecord assigns ID and timestamps and returns the stored record.
	InsertRecord(ctx context.Context, rec *models.PoRecord) (*models.PoRecord, error)
	GetRecord(ctx context.Context, id string) (*models.PoRecord, error)
	// UpdateRecord persists Status and Assignees of rec, bumps UpdatedAt and
	// returns the stored record. Other fields are immutable.
	UpdateRecord(ctx context.Context, rec *models.PoRecord) (*models.PoRecord, error)
	// ListOwnedRecords and ListAssignedRecords order by UpdatedAt, newest first.
	ListOwnedRecords(ctx context.Context, ownerID string) ([]*models.PoRecord, error)
	ListAssignedRecords(ctx context.Context, userID string) ([]*models.PoRecord, error)
}

type Notifications interface {
	InsertNotification(ctx context.Context, n *models.Notification) (*models.Notification, error)
	// ListNotifications orders by CreatedAt, newest first.
	ListNotifications(ctx context.Context, recipientID string) ([]*models.Notification, error)
	// MarkNotificationRead flips the read flag of a notification addressed to
	// recipientID. Missing or foreign ids are ignored locally.
	MarkNotificationRead(ctx context.Context, id, recipientID string) error
}

type Files interface {
	// PutFile stores data under name and makes it the record's latest file.
	PutFile(ctx context.Context, recordID, name string, data []byte) error
	// GetFile returns the latest file or common.ErrNotFound.
	GetFile(ctx context.Context, recordID string) (*models.AttachedFile, error)
}

// Backend is the full operation set every variant implements.
type Backend interface {
	Auth
	Users
	Records
	Notifications
	Files

	Mode() Mode
	Close() error
}

// AuthNotifier is implemented by variants that can lose or change their
// session on their own, e.g. when a token expires.
type AuthNotifier interface {
	SubscribeAuth(fn func(*models.User)) (unsubscribe func())
}
