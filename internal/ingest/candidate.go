package ingest

// Candidate is an unvalidated recipient produced by import parsing or
// manual entry. Any field may be empty; candidates are consumed
// immediately by validation and never persisted.
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phoneNumber,omitempty"`
}

// Recipient is a Candidate that passed validation: the name is
// non-empty and at least one contact channel is present. The fields
// are trimmed; downstream code does not re-validate.
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phoneNumber,omitempty"`
}
