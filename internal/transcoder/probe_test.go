package transcoder

import (
	"math"
	"testing"
)

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"integer rational", "30/1", 30},
		{"ntsc rational", "30000/1001", 29.97002997002997},
		{"plain number", "25", 25},
		{"zero denominator", "30/0", 0},
		{"garbage", "abc", 0},
		{"empty", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFrameRate(tt.raw)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parseFrameRate(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "00:00"},
		{"sub-minute", 42.7, "00:42"},
		{"minutes and seconds", 83, "01:23"},
		{"over an hour keeps minutes", 3723, "62:03"},
		{"negative clamps", -5, "00:00"},
		{"NaN clamps", math.NaN(), "00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.seconds); got != tt.want {
				t.Errorf("FormatDuration(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}
