package models

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	// NotificationReviewRequest goes to an assignee when a record is assigned.
	NotificationReviewRequest NotificationType = "review_request"
	// NotificationReviewFeedback goes to the owner when someone else changes the status.
	NotificationReviewFeedback NotificationType = "review_feedback"
)

// Notification is an inbox item. Only Read ever changes after creation.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	SenderID    string           `json:"sender_id"`
	Type        NotificationType `json:"type"`
	RecordID    string           `json:"record_id"`
	CreatedAt   time.Time        `json:"created_at"`
	Read        bool             `json:"read"`
	Payload     json.RawMessage  `json:"payload,omitempty"`
}

// FeedbackPayload is the payload of a review_feedback notification.
type FeedbackPayload struct {
	Status Status `json:"status"`
}

// AttachedFile is the latest generated document of a record.
type AttachedFile struct {
	RecordID string
	Name     string
	Data     []byte
}
