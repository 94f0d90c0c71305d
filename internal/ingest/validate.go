package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// Channel identifies a contact channel a recipient can be reached on.
type Channel string

const (
	// ChannelAny accepts either channel. Import validation is
	// channel-agnostic; the required channel only matters when a
	// recipient set is assembled for a specific message type.
	ChannelAny   Channel = ""
	ChannelEmail Channel = "email"
	ChannelPhone Channel = "phone"
)

var (
	ErrMissingName     = errors.New("recipient name is required")
	ErrMissingChannel  = errors.New("recipient needs an email address or a phone number")
	ErrChannelMismatch = errors.New("recipient lacks the channel required by the message type")
)

// Validate checks a candidate against the domain rules and returns a
// validated recipient with trimmed fields. It performs no I/O and is
// total over any candidate.
func Validate(c Candidate, required Channel) (Recipient, error) {
	name := strings.TrimSpace(c.Name)
	email := strings.TrimSpace(c.Email)
	phone := strings.TrimSpace(c.Phone)

	if name == "" {
		return Recipient{}, ErrMissingName
	}
	if email == "" && phone == "" {
		return Recipient{}, ErrMissingChannel
	}

	switch required {
	case ChannelEmail:
		if email == "" {
			return Recipient{}, fmt.Errorf("%w: no email address", ErrChannelMismatch)
		}
	case ChannelPhone:
		if phone == "" {
			return Recipient{}, fmt.Errorf("%w: no phone number", ErrChannelMismatch)
		}
	}

	return Recipient{Name: name, Email: email, Phone: phone}, nil
}
