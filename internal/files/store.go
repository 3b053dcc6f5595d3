// Package files keeps the generated document of each record. Only the latest
// export is retrievable.
package files

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/poreview/internal/backend"
	"github.com/dmitrijs2005/poreview/internal/logging"
	"github.com/dmitrijs2005/poreview/internal/metrics"
	"github.com/dmitrijs2005/poreview/internal/models"
)

const extension = ".docx"

// Identity yields the signed-in user or common.ErrAuthRequired.
type Identity interface {
	RequireUser() (*models.User, error)
}

type Store struct {
	backend  backend.Files
	identity Identity
	metrics  *metrics.Metrics
	logger   logging.Logger
	now      func() time.Time
}

func NewStore(b backend.Files, identity Identity, m *metrics.Metrics, logger logging.Logger) *Store {
	return &Store{
		backend:  b,
		identity: identity,
		metrics:  m,
		logger:   logger,
		now:      time.Now,
	}
}

// FileName builds "<po-number-or-id>-<unix-seconds>.docx".
func FileName(rec *models.PoRecord, at time.Time) string {
	base := strings.TrimSpace(rec.PONumber)
	if base == "" {
		base = rec.ID
	}
	return fmt.Sprintf("%s-%d%s", sanitize(base), at.Unix(), extension)
}

// sanitize keeps names safe as object keys and local file names.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, s)
}

// Upload stores blob as the latest document of rec.
func (s *Store) Upload(ctx context.Context, rec *models.PoRecord, blob []byte) (*models.AttachedFile, error) {
	if _, err := s.identity.RequireUser(); err != nil {
		return nil, err
	}

	name := FileName(rec, s.now())
	if err := s.backend.PutFile(ctx, rec.ID, name, blob); err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	s.metrics.ObserveFileUpload(len(blob))
	s.logger.Info(ctx, "file uploaded", "record_id", rec.ID, "name", name, "size", len(blob))

	return &models.AttachedFile{RecordID: rec.ID, Name: name, Data: blob}, nil
}

// DownloadFile returns the latest document of the record, or
// common.ErrNotFound when none was uploaded.
func (s *Store) DownloadFile(ctx context.Context, recordID string) (*models.AttachedFile, error) {
	if _, err := s.identity.RequireUser(); err != nil {
		return nil, err
	}
	return s.backend.GetFile(ctx, recordID)
}
