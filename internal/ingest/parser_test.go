package ingest

import (
	"reflect"
	"strings"
	"testing"
)

func parseString(t *testing.T, p Parser, input string) *ParseResult {
	t.Helper()
	result, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	return result
}

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		comma       rune
		want        []Candidate
		wantTotal   int
		wantSkipped int
	}{
		{
			name:  "valid rows with one drop",
			input: "name,email,phone\nAlice,a@x.com,\n,b@x.com,555\nBob,,555-1\n",
			want: []Candidate{
				{Name: "Alice", Email: "a@x.com"},
				{Name: "Bob", Phone: "555-1"},
			},
			wantTotal:   3,
			wantSkipped: 1,
		},
		{
			name:  "header aliases case-insensitive",
			input: "Full Name,EMAIL ADDRESS,Mobile\nAlice,a@x.com,123\n",
			want: []Candidate{
				{Name: "Alice", Email: "a@x.com", Phone: "123"},
			},
			wantTotal: 1,
		},
		{
			name:  "unknown headers ignored",
			input: "name,company,email\nAlice,Acme,a@x.com\n",
			want: []Candidate{
				{Name: "Alice", Email: "a@x.com"},
			},
			wantTotal: 1,
		},
		{
			name:  "short row pads missing cells",
			input: "name,email,phone\nAlice,a@x.com\n",
			want: []Candidate{
				{Name: "Alice", Email: "a@x.com"},
			},
			wantTotal: 1,
		},
		{
			name:  "cells trimmed",
			input: "name, email ,phone\n  Alice  , a@x.com ,\n",
			want: []Candidate{
				{Name: "Alice", Email: "a@x.com"},
			},
			wantTotal: 1,
		},
		{
			name:        "row without channel dropped",
			input:       "name,email,phone\nAlice,,\n",
			wantTotal:   1,
			wantSkipped: 1,
		},
		{
			name:  "empty input",
			input: "",
		},
		{
			name:  "header only",
			input: "name,email,phone\n",
		},
		{
			name:  "no header mapping drops everything",
			input: "foo,bar\na,b\nc,d\n",
			wantTotal:   2,
			wantSkipped: 2,
		},
		{
			name:  "semicolon delimiter",
			input: "name;email;phone\nAlice;a@x.com;\n",
			comma: ';',
			want: []Candidate{
				{Name: "Alice", Email: "a@x.com"},
			},
			wantTotal: 1,
		},
		{
			name:  "blank lines skipped entirely",
			input: "name,email\n\nAlice,a@x.com\n\n",
			want: []Candidate{
				{Name: "Alice", Email: "a@x.com"},
			},
			wantTotal: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parser{Comma: tt.comma}
			got := parseString(t, p, tt.input)

			if !reflect.DeepEqual(got.Candidates, tt.want) {
				t.Errorf("Candidates = %+v, want %+v", got.Candidates, tt.want)
			}
			if got.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", got.Total, tt.wantTotal)
			}
			if got.Skipped != tt.wantSkipped {
				t.Errorf("Skipped = %d, want %d", got.Skipped, tt.wantSkipped)
			}
		})
	}
}

func TestParseDeterministic(t *testing.T) {
	input := "name,email,phone\nAlice,a@x.com,\nBob,,555\n,x@y.com,\n"

	var p Parser
	first := parseString(t, p, input)
	second := parseString(t, p, input)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeat parse differs: %+v vs %+v", first, second)
	}
}
