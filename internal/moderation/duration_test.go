package moderation

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"30m", 30 * time.Minute, false},
		{"2h", 2 * time.Hour, false},
		{"3d", 72 * time.Hour, false},
		{"1.5d", 36 * time.Hour, false},
		{"2w", 14 * 24 * time.Hour, false},
		{" 1D ", 24 * time.Hour, false},
		{"", 0, true},
		{"abc", 0, true},
		{"-1h", 0, true},
		{"-2d", 0, true},
	}

	for _, tc := range cases {
		got, err := ParseDuration(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseDuration(%q) = %v, want error", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDuration(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseDuration(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
