package backend

import (
	"time"

	"github.com/bulkmsg/bulkmsg/internal/ingest"
)

// MessageType selects the outbound channel for a send.
type MessageType string

const (
	MessageSMS   MessageType = "sms"
	MessageEmail MessageType = "email"
)

// Valid reports whether t is one of the known message types.
func (t MessageType) Valid() bool {
	return t == MessageSMS || t == MessageEmail
}

// RequiredChannel returns the contact channel a recipient must carry
// to receive this message type.
func (t MessageType) RequiredChannel() ingest.Channel {
	if t == MessageSMS {
		return ingest.ChannelPhone
	}
	return ingest.ChannelEmail
}

// MessageStatus is the delivery state the backend reports for a
// historical message.
type MessageStatus string

const (
	StatusSent    MessageStatus = "sent"
	StatusFailed  MessageStatus = "failed"
	StatusPending MessageStatus = "pending"
)

// Contact is a stored recipient owned by the backend.
type Contact struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Email       string    `json:"email,omitempty"`
	PhoneNumber string    `json:"phoneNumber,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// MessageRecord is a historical message, read-only from this client's
// perspective.
type MessageRecord struct {
	ID              string        `json:"_id"`
	Type            MessageType   `json:"type"`
	Content         string        `json:"content"`
	TotalRecipients int           `json:"totalRecipients"`
	Status          MessageStatus `json:"status"`
	CreatedAt       time.Time     `json:"createdAt"`
}

// ContactRecord is the payload for creating or updating a contact.
type ContactRecord struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// SendRequest carries one compose action: existing contacts by
// reference plus inline validated recipients.
type SendRequest struct {
	Type             MessageType        `json:"type"`
	Content          string             `json:"content"`
	Subject          string             `json:"subject,omitempty"`
	RecipientIDs     []string           `json:"recipientIds"`
	DirectRecipients []ingest.Recipient `json:"directRecipients"`
}

// SendResult is the backend's acknowledgement of a send.
type SendResult struct {
	ID              string        `json:"_id"`
	Status          MessageStatus `json:"status"`
	TotalRecipients int           `json:"totalRecipients"`
}

// MessageFilter narrows a message listing.
type MessageFilter struct {
	Page   int
	Limit  int
	Type   MessageType
	Status MessageStatus
}

// OverallStats is the backend's lifetime aggregate.
type OverallStats struct {
	TotalMessages   int `json:"totalMessages"`
	TotalRecipients int `json:"totalRecipients"`
	SuccessfulSends int `json:"successfulSends"`
	FailedSends     int `json:"failedSends"`
}

// TodayStats is the backend's current-day aggregate.
type TodayStats struct {
	TodayMessages int `json:"todayMessages"`
}

// MessageStats is the response of GET /messages/stats.
type MessageStats struct {
	Overall OverallStats `json:"overall"`
	Today   TodayStats   `json:"today"`
}
