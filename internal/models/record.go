package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Status is a position in the review state machine:
//
//	pending -> in_review -> approved | changes_requested -> in_review (resubmit) | finalized | canceled
//
// Transitions are not validated here; any valid status may follow any other.
type Status string

const (
	StatusPending          Status = "pending"
	StatusInReview         Status = "in_review"
	StatusChangesRequested Status = "changes_requested"
	StatusApproved         Status = "approved"
	StatusFinalized        Status = "finalized"
	StatusCanceled         Status = "canceled"
)

var statuses = []Status{
	StatusPending,
	StatusInReview,
	StatusChangesRequested,
	StatusApproved,
	StatusFinalized,
	StatusCanceled,
}

// Statuses lists every known status in lifecycle order.
func Statuses() []Status {
	return slices.Clone(statuses)
}

func (s Status) Valid() bool {
	return slices.Contains(statuses, s)
}

// Terminal reports finalized and canceled. Nothing blocks leaving them.
func (s Status) Terminal() bool {
	return s == StatusFinalized || s == StatusCanceled
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// PoRecord is a purchase-order or contract under review.
type PoRecord struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Status    Status    `json:"status"`
	Title     string    `json:"title"`
	PONumber  string    `json:"po_number"`
	Summary   string    `json:"summary"`

	// Metadata is the wizard payload (see Payload). It is stored and
	// returned byte for byte.
	Metadata []byte `json:"metadata"`

	// Assignees holds reviewer identities in the order they were added.
	Assignees []string `json:"assignees"`

	// LatestFile names the most recent export, empty when none was uploaded.
	LatestFile string `json:"latest_file,omitempty"`
}

// HasAssignee reports set membership of userID.
func (r *PoRecord) HasAssignee(userID string) bool {
	return slices.Contains(r.Assignees, userID)
}

// AddAssignee appends userID unless already present and reports whether the
// set changed.
func (r *PoRecord) AddAssignee(userID string) bool {
	if r.HasAssignee(userID) {
		return false
	}
	r.Assignees = append(r.Assignees, userID)
	return true
}

// Payload decodes Metadata.
func (r *PoRecord) Payload() (Payload, error) {
	var p Payload
	if len(r.Metadata) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(r.Metadata, &p); err != nil {
		return Payload{}, fmt.Errorf("decode record metadata: %w", err)
	}
	return p, nil
}

// Clone returns a deep copy so callers never alias backend state.
func (r *PoRecord) Clone() *PoRecord {
	c := *r
	c.Metadata = slices.Clone(r.Metadata)
	c.Assignees = slices.Clone(r.Assignees)
	return &c
}
