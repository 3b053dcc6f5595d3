// Package records implements the purchase-order review workflow on top of
// whichever backend was selected at startup.
//
// Status changes are permissive: any valid status may follow any other.
// Callers that need stricter transitions enforce them themselves.
//
// When a mutation persists but a follow-up step (file upload, notification)
// fails, the stored record is returned together with the error.
package records

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/common"
	"github.com/dmitrijs2005/poreview/internal/files"
	"github.com/dmitrijs2005/poreview/internal/logging"
	"github.com/dmitrijs2005/poreview/internal/metrics"
	"github.com/dmitrijs2005/poreview/internal/models"
	"github.com/dmitrijs2005/poreview/internal/notifications"
)

// Identity yields the signed-in user or common.ErrAuthRequired.
type Identity interface {
	RequireUser() (*models.User, error)
}

// Backend is the slice of backend.Backend the record store needs.
type Backend interface {
	backend.Users
	backend.Records
}

type Store struct {
	backend  Backend
	identity Identity
	notes    *notifications.Store
	files    *files.Store
	metrics  *metrics.Metrics
	logger   logging.Logger
}

func NewStore(b Backend, identity Identity, notes *notifications.Store, fs *files.Store, m *metrics.Metrics, logger logging.Logger) *Store {
	return &Store{
		backend:  b,
		identity: identity,
		notes:    notes,
		files:    fs,
		metrics:  m,
		logger:   logger,
	}
}

// SavePoRecord creates a pending record owned by the current user. A non-empty
// fileBlob is uploaded as the record's first document.
func (s *Store) SavePoRecord(ctx context.Context, draft models.Draft, fileBlob []byte) (*models.PoRecord, error) {
	u, err := s.identity.RequireUser()
	if err != nil {
		return nil, err
	}

	meta, err := draft.EncodeMetadata()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	saved, err := s.backend.InsertRecord(ctx, &models.PoRecord{
		OwnerID:   u.ID,
		Status:    models.StatusPending,
		Title:     draft.Title,
		PONumber:  draft.PONumber,
		Summary:   draft.Summary,
		Metadata:  meta,
		Assignees: []string{},
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncRecordSaved()
	s.logger.Info(ctx, "record saved", "record_id", saved.ID, "owner_id", u.ID)

	if len(fileBlob) == 0 {
		return saved, nil
	}
	f, err := s.files.Upload(ctx, saved, fileBlob)
	if err != nil {
		return saved, err
	}
	saved.LatestFile = f.Name
	return saved, nil
}

func (s *Store) GetRecord(ctx context.Context, id string) (*models.PoRecord, error) {
	if _, err := s.identity.RequireUser(); err != nil {
		return nil, err
	}
	return s.backend.GetRecord(ctx, id)
}

// AddAssignee puts the user registered under email on the record, moves it to
// in_review and sends them a review request. Every call sends a request,
// including repeats for someone already assigned.
func (s *Store) AddAssignee(ctx context.Context, recordID, email string) (*models.PoRecord, error) {
	u, err := s.identity.RequireUser()
	if err != nil {
		return nil, err
	}

	assignee, err := s.backend.FindUserByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	rec, err := s.backend.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if assignee.ID == rec.OwnerID {
		return nil, fmt.Errorf("%w: owner cannot review their own record", common.ErrValidation)
	}

	added := rec.AddAssignee(assignee.ID)
	rec.Status = models.StatusInReview
	updated, err := s.backend.UpdateRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	if added {
		s.metrics.IncAssigneeAdded()
	}
	s.metrics.IncStatusUpdate(updated.Status)
	s.logger.Info(ctx, "assignee added",
		"record_id", updated.ID, "assignee_id", assignee.ID, "new", added)

	_, err = s.notes.Send(ctx, &models.Notification{
		RecipientID: assignee.ID,
		SenderID:    u.ID,
		Type:        models.NotificationReviewRequest,
		RecordID:    updated.ID,
	})
	if err != nil {
		return updated, fmt.Errorf("notify assignee: %w", err)
	}
	return updated, nil
}

// UpdateRecordStatus sets any valid status. A change made by someone other
// than the owner is reported to the owner.
func (s *Store) UpdateRecordStatus(ctx context.Context, recordID string, status models.Status) (*models.PoRecord, error) {
	u, err := s.identity.RequireUser()
	if err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", common.ErrValidation, status)
	}

	rec, err := s.backend.GetRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	prev := rec.Status
	rec.Status = status
	updated, err := s.backend.UpdateRecord(ctx, rec)
	if err != nil {
		return nil, err
	}
	s.metrics.IncStatusUpdate(status)
	s.logger.Info(ctx, "record status updated",
		"record_id", updated.ID, "from", prev, "to", status, "actor_id", u.ID)

	if u.ID == updated.OwnerID {
		return updated, nil
	}

	payload, err := json.Marshal(models.FeedbackPayload{Status: status})
	if err != nil {
		return updated, err
	}
	_, err = s.notes.Send(ctx, &models.Notification{
		RecipientID: updated.OwnerID,
		SenderID:    u.ID,
		Type:        models.NotificationReviewFeedback,
		RecordID:    updated.ID,
		Payload:     payload,
	})
	if err != nil {
		return updated, fmt.Errorf("notify owner: %w", err)
	}
	return updated, nil
}

// FetchMyRecords lists records owned by the current user, most recently
// updated first.
func (s *Store) FetchMyRecords(ctx context.Context) ([]*models.PoRecord, error) {
	u, err := s.identity.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.backend.ListOwnedRecords(ctx, u.ID)
}

// FetchAssignedRecords lists records the current user reviews but does not
// own, most recently updated first.
func (s *Store) FetchAssignedRecords(ctx context.Context) ([]*models.PoRecord, error) {
	u, err := s.identity.RequireUser()
	if err != nil {
		return nil, err
	}
	return s.backend.ListAssignedRecords(ctx, u.ID)
}
