// Package ingest turns raw delimited import files into validated
// recipient records.
package ingest

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"
)

// column roles a header label can map to
const (
	colName = iota
	colEmail
	colPhone
)

// headerAliases maps lowercased header labels to column roles.
// Unrecognized headers are ignored.
var headerAliases = map[string]int{
	"name":          colName,
	"full name":     colName,
	"fullname":      colName,
	"email":         colEmail,
	"email address": colEmail,
	"phone":         colPhone,
	"phone number":  colPhone,
	"phonenumber":   colPhone,
	"mobile":        colPhone,
}

// ParseResult holds the outcome of parsing one import file.
type ParseResult struct {
	Candidates []Candidate `json:"candidates"`
	Total      int         `json:"total"`   // data rows seen, header excluded
	Skipped    int         `json:"skipped"` // rows dropped: malformed, no name, or no channel
}

// Parser reads delimited text with a header row and emits candidate
// recipients. It holds no state between calls: identical input always
// yields identical output.
type Parser struct {
	// Comma is the cell delimiter. Zero value means ','.
	Comma rune
}

// Parse consumes r to EOF. Empty input, or input with no data rows,
// yields an empty result rather than an error. Rows that are
// malformed, lack a name, or lack both channels are dropped and
// counted in Skipped, never surfaced individually.
func (p Parser) Parse(r io.Reader) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	if p.Comma != 0 {
		cr.Comma = p.Comma
	}

	result := &ParseResult{}

	header, err := cr.Read()
	if err == io.EOF {
		return result, nil
	}
	if err != nil {
		if isRowError(err) {
			return result, nil
		}
		return nil, err
	}

	// Map column index -> role from the header row.
	columns := make(map[int]int, len(header))
	for i, label := range header {
		if role, ok := headerAliases[strings.ToLower(strings.TrimSpace(label))]; ok {
			columns[i] = role
		}
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if isRowError(err) {
				result.Total++
				result.Skipped++
				continue
			}
			return nil, err
		}

		result.Total++

		var c Candidate
		for i, role := range columns {
			if i >= len(row) {
				continue // short row: missing trailing cells read as empty
			}
			value := strings.TrimSpace(row[i])
			switch role {
			case colName:
				c.Name = value
			case colEmail:
				c.Email = value
			case colPhone:
				c.Phone = value
			}
		}

		if _, err := Validate(c, ChannelAny); err != nil {
			result.Skipped++
			continue
		}
		result.Candidates = append(result.Candidates, c)
	}

	return result, nil
}

// isRowError reports whether err is a per-row CSV syntax problem that
// should drop the row, as opposed to a failure of the underlying
// reader.
func isRowError(err error) bool {
	var pe *csv.ParseError
	return errors.As(err, &pe)
}
