package core

import (
	"errors"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"500", 500, true},
		{"0", 0, true},
		{"25k", 25000, true},
		{"25K", 25000, true},
		{"1.5k", 1500, true},
		{" 1.5k ", 1500, true},
		{"0.5k", 500, true},
		{"1.2345k", 1234, true}, // truncated, not rounded
		{"0.0009k", 0, true},
		{"1.5", 0, false},
		{"-5", 0, false},
		{"+5", 0, false},
		{"-1k", 0, false},
		{"abc", 0, false},
		{"k", 0, false},
		{"1kk", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"12 000", 0, false},
		{"99999999999999999999", 0, false},
		{"99999999999999999k", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
			continue
		}
		if err == nil {
			t.Fatalf("%q expected error, got %d", tc.in, got)
		}
		if !errors.Is(err, ErrInvalidAmount) || !errors.Is(err, ErrValidation) {
			t.Fatalf("%q expected ErrInvalidAmount, got %v", tc.in, err)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		500:     "500",
		25000:   "25,000",
		1234567: "1,234,567",
	}
	for in, want := range cases {
		if got := FormatAmount(in); got != want {
			t.Errorf("FormatAmount(%d) = %q, want %q", in, got, want)
		}
	}
}
