// Package workflow defines the application status vocabulary and the rules
// for which status may be recorded next.
//
// Status graph (furthest stage reached wins):
//
//	Applied ──► Screen ──► Interview ──► Offer
//	   │                       ├──────► NoOffer
//	   └──► Rejected           └──────► Withdrawn
package workflow

import (
	"fmt"
	"strings"
)

// Status is one value of the fixed application lifecycle vocabulary.
type Status string

const (
	StatusApplied   Status = "Applied"
	StatusRejected  Status = "Rejected"
	StatusScreen    Status = "Screen"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
	StatusWithdrawn Status = "Withdrawn"
	StatusNoOffer   Status = "NoOffer"
)

// All returns the vocabulary in declaration order.
func All() []Status {
	return []Status{
		StatusApplied,
		StatusRejected,
		StatusScreen,
		StatusInterview,
		StatusOffer,
		StatusWithdrawn,
		StatusNoOffer,
	}
}

// ParseStatus converts a raw string to a Status, ignoring case and
// surrounding whitespace. Unknown values are an error.
func ParseStatus(s string) (Status, error) {
	trimmed := strings.TrimSpace(s)
	for _, st := range All() {
		if strings.EqualFold(string(st), trimmed) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown application status %q", s)
}

// Valid reports whether s belongs to the vocabulary.
func (s Status) Valid() bool {
	switch s {
	case StatusApplied, StatusRejected, StatusScreen, StatusInterview,
		StatusOffer, StatusWithdrawn, StatusNoOffer:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// UnmarshalText rejects statuses outside the vocabulary.
func (s *Status) UnmarshalText(text []byte) error {
	st, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = st
	return nil
}
