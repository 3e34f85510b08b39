package handler

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/choreify/internal/apperr"
)

func TestParseRange(t *testing.T) {
	start, end, err := parseRange("2025-03-01", "2025-03-07")
	if err != nil {
		t.Fatalf("parse dates: %v", err)
	}
	if !start.Equal(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("start = %v", start)
	}
	if !end.Equal(time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v, want the day after the end date", end)
	}

	_, end, err = parseRange("2025-03-01T00:00:00Z", "2025-03-01T12:00:00Z")
	if err != nil {
		t.Fatalf("parse timestamps: %v", err)
	}
	if !end.Equal(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("end = %v", end)
	}

	for _, tc := range [][2]string{
		{"", "2025-03-01"},
		{"yesterday", "2025-03-01"},
		{"2025-03-01", "soon"},
		{"2025-03-02T00:00:00Z", "2025-03-01T00:00:00Z"},
	} {
		if _, _, err := parseRange(tc[0], tc[1]); !errors.Is(err, apperr.ErrValidation) {
			t.Errorf("parseRange(%q, %q) = %v, want ErrValidation", tc[0], tc[1], err)
		}
	}
}
