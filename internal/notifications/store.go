// Package notifications is the per-user inbox of review requests and
// feedback.
package notifications

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/common"
	"github.com/dmitrijs2005/poreview/internal/logging"
	"github.com/dmitrijs2005/poreview/internal/metrics"
	"github.com/dmitrijs2005/poreview/internal/models"
)

// Identity yields the signed-in user or common.ErrAuthRequired.
type Identity interface {
	RequireUser() (*models.User, error)
}

type Store struct {
	backend  backend.Notifications
	identity Identity
	metrics  *metrics.Metrics
	logger   logging.Logger
}

func NewStore(b backend.Notifications, identity Identity, m *metrics.Metrics, logger logging.Logger) *Store {
	return &Store{backend: b, identity: identity, metrics: m, logger: logger}
}

// FetchNotifications returns the current user's inbox, newest first.
func (s *Store) FetchNotifications(ctx context.Context) ([]*models.Notification, error) {
	u, err := s.identity.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.backend.ListNotifications(ctx, u.ID)
}

// MarkNotificationRead is a no-op for ids that are missing or addressed to
// someone else.
func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	u, err := s.identity.RequireUser()
	if err != nil {
		return err
	}
	return s.backend.MarkNotificationRead(ctx, id, u.ID)
}

func (s *Store) UnreadCount(ctx context.Context) (int, error) {
	list, err := s.FetchNotifications(ctx)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, item := range list {
		if !item.Read {
			n++
		}
	}
	return n, nil
}

// Send writes n on behalf of the current user. Record mutations call it;
// it is not part of the inbox API.
func (s *Store) Send(ctx context.Context, n *models.Notification) (*models.Notification, error) {
	u, err := s.identity.RequireUser()
	if err != nil {
		return nil, err
	}
	switch n.Type {
	case models.NotificationReviewRequest, models.NotificationReviewFeedback:
	default:
		return nil, fmt.Errorf("%w: notification type %q", common.ErrValidation, n.Type)
	}

	out := *n
	out.SenderID = u.ID
	saved, err := s.backend.InsertNotification(ctx, &out)
	if err != nil {
		return nil, err
	}
	s.metrics.IncNotificationSent(saved.Type)
	s.logger.Debug(ctx, "notification sent",
		"notification_id", saved.ID, "type", saved.Type, "recipient_id", saved.RecipientID, "record_id", saved.RecordID)
	return saved, nil
}
