package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-02-28")
	if err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if d.String() != "2025-02-28" {
		t.Fatalf("round trip = %s", d)
	}
	if _, err := ParseDate("28/02/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateOf_DropsTime(t *testing.T) {
	loc := time.FixedZone("X", -5*3600)
	d := DateOf(time.Date(2025, 6, 1, 22, 15, 0, 0, loc))
	if d.String() != "2025-06-01" || d.Location() != time.UTC || d.Hour() != 0 {
		t.Fatalf("unexpected date %v", d.Time)
	}
}

func TestNewAccountValidate(t *testing.T) {
	neg := int64(-1)
	bads := []NewAccount{
		{ChatID: 0, Username: "ann"},
		{ChatID: 1, Username: "  "},
		{ChatID: 1, Username: "ann", Budget: &neg},
	}
	for i, a := range bads {
		if err := a.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
	if err := (NewAccount{ChatID: 1, Username: "ann"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
}

func TestErrorClasses(t *testing.T) {
	cases := []struct {
		err   error
		class error
	}{
		{ErrInvalidAmount, ErrValidation},
		{ErrUsernameTaken, ErrConflict},
		{ErrCategoryExists, ErrConflict},
		{ErrCategoryNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, tc.class) {
			t.Errorf("%v should be %v", tc.err, tc.class)
		}
	}
}
