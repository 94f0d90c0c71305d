// Package compose assembles the deduplicated recipient set for one
// outbound message from selected contacts and manually entered
// recipients.
package compose

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bulkmsg/bulkmsg/internal/backend"
	"github.com/bulkmsg/bulkmsg/internal/ingest"
)

var (
	// ErrIneligibleRecipient marks a selected contact that lacks the
	// channel required by the message type. Selection eligibility is
	// enforced at presentation time; the builder re-checks
	// defensively.
	ErrIneligibleRecipient = errors.New("selected contact lacks the required channel")

	// ErrEmptyRecipientSet is returned when zero recipients remain
	// after validation and deduplication.
	ErrEmptyRecipientSet = errors.New("no valid recipients selected")
)

// Source tells which input list a rejected member came from.
type Source string

const (
	SourceContact Source = "contact"
	SourceManual  Source = "manual"
)

// Problem describes one rejected member of a recipient-set build.
type Problem struct {
	Source Source `json:"source"`
	Index  int    `json:"index"` // position within its source list
	Label  string `json:"label"` // recipient name, for user-facing messages
	Err    error  `json:"-"`
}

// Reason is the user-facing message for the problem.
func (p Problem) Reason() string {
	return p.Err.Error()
}

// BuildError aggregates per-record problems so the caller can point
// the user at each invalid entry instead of one opaque failure.
type BuildError struct {
	Problems []Problem
}

func (e *BuildError) Error() string {
	if len(e.Problems) == 1 {
		p := e.Problems[0]
		return fmt.Sprintf("invalid recipient %q: %v", p.Label, p.Err)
	}
	return fmt.Sprintf("%d invalid recipients", len(e.Problems))
}

// RecipientSet is the deduplicated, channel-validated collection
// assembled for one send: existing contacts by reference plus inline
// validated recipients.
type RecipientSet struct {
	Type       backend.MessageType
	ContactIDs []string
	Direct     []ingest.Recipient
}

// Size is the number of members in the set.
func (s *RecipientSet) Size() int {
	return len(s.ContactIDs) + len(s.Direct)
}

// SendRequest assembles the backend request for this set. Content and
// subject preconditions are the caller's to check.
func (s *RecipientSet) SendRequest(content, subject string) *backend.SendRequest {
	req := &backend.SendRequest{
		Type:             s.Type,
		Content:          content,
		RecipientIDs:     s.ContactIDs,
		DirectRecipients: s.Direct,
	}
	if s.Type == backend.MessageEmail {
		req.Subject = subject
	}
	return req
}

// Build merges selected contacts with manually entered recipients
// into one recipient set for msgType. Any per-record problem blocks
// the build and is reported in a *BuildError; an otherwise clean
// build with zero remaining members fails with ErrEmptyRecipientSet.
//
// Duplicates across both sources are detected by the message type's
// dedup key (digits-only phone for sms, lowercased email otherwise);
// the first occurrence wins and later duplicates are dropped
// silently. Contacts are keyed before manual entries.
func Build(msgType backend.MessageType, contacts []backend.Contact, manual []ingest.Candidate) (*RecipientSet, error) {
	required := msgType.RequiredChannel()

	var be BuildError
	seen := make(map[string]bool, len(contacts)+len(manual))
	set := &RecipientSet{Type: msgType}

	for i, contact := range contacts {
		key := dedupKey(msgType, contact.Email, contact.PhoneNumber)
		if key == "" {
			be.Problems = append(be.Problems, Problem{
				Source: SourceContact,
				Index:  i,
				Label:  contact.Name,
				Err:    fmt.Errorf("%w: %s", ErrIneligibleRecipient, required),
			})
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		set.ContactIDs = append(set.ContactIDs, contact.ID)
	}

	for i, entry := range manual {
		rec, err := ingest.Validate(entry, required)
		if err != nil {
			be.Problems = append(be.Problems, Problem{
				Source: SourceManual,
				Index:  i,
				Label:  strings.TrimSpace(entry.Name),
				Err:    err,
			})
			continue
		}
		key := dedupKey(msgType, rec.Email, rec.Phone)
		if seen[key] {
			continue
		}
		seen[key] = true
		set.Direct = append(set.Direct, rec)
	}

	if len(be.Problems) > 0 {
		return nil, &be
	}
	if set.Size() == 0 {
		return nil, ErrEmptyRecipientSet
	}
	return set, nil
}

// dedupKey returns the normalized channel value for msgType, or ""
// when the required channel is absent.
func dedupKey(msgType backend.MessageType, email, phone string) string {
	if msgType == backend.MessageSMS {
		return digitsOnly(phone)
	}
	return strings.ToLower(strings.TrimSpace(email))
}

func digitsOnly(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}
