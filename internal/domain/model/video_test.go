package model

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTitle(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		wantErr error
	}{
		{name: "valid", title: "My first video"},
		{name: "empty", title: "", wantErr: ErrEmptyTitle},
		{name: "too long", title: strings.Repeat("a", 256), wantErr: ErrTitleTooLong},
		{name: "exactly max", title: strings.Repeat("a", 255)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTitle(tt.title)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestMergeVariants(t *testing.T) {
	v := &VideoRecord{VideoID: "2024-03-01_tour"}

	v.MergeVariants(map[string]QualityVariant{
		"360p": {Path: "@alice/videos/2024-03-01_tour_360p.mp4", Resolution: "640x360", Bitrate: "800k"},
		"720p": {Path: "@alice/videos/2024-03-01_tour_720p.mp4", Resolution: "1280x720", Bitrate: "2500k"},
	})

	if len(v.QualityVariants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(v.QualityVariants))
	}
	if v.HighestQuality != "720p" {
		t.Errorf("expected highest quality 720p, got %s", v.HighestQuality)
	}
	want := []string{"360p", "720p"}
	for i, q := range want {
		if v.AvailableQualities[i] != q {
			t.Fatalf("expected available qualities %v, got %v", want, v.AvailableQualities)
		}
	}

	// A later merge must not drop earlier renditions.
	v.MergeVariants(map[string]QualityVariant{
		"1080p": {Path: "@alice/videos/2024-03-01_tour_1080p.mp4", Resolution: "1920x1080", Bitrate: "5000k"},
	})

	if len(v.QualityVariants) != 3 {
		t.Fatalf("expected 3 variants after second merge, got %d", len(v.QualityVariants))
	}
	if v.HighestQuality != "1080p" {
		t.Errorf("expected highest quality 1080p, got %s", v.HighestQuality)
	}
	if len(v.AvailableQualities) != 3 || v.AvailableQualities[2] != "1080p" {
		t.Errorf("unexpected available qualities: %v", v.AvailableQualities)
	}
}

func TestMergeVariantsEmptyIsNoOp(t *testing.T) {
	v := &VideoRecord{VideoID: "2024-03-01_tour"}
	v.MergeVariants(nil)
	v.MergeVariants(map[string]QualityVariant{})

	if v.HasVariants() || v.HighestQuality != "" || v.AvailableQualities != nil {
		t.Errorf("empty merge must leave record untouched: %+v", v)
	}
}

func TestMergeVariantsOrdersNumerically(t *testing.T) {
	v := &VideoRecord{}
	v.MergeVariants(map[string]QualityVariant{
		"2160p": {}, "360p": {}, "1080p": {}, "720p": {},
	})
	want := []string{"360p", "720p", "1080p", "2160p"}
	for i, q := range want {
		if v.AvailableQualities[i] != q {
			t.Fatalf("expected order %v, got %v", want, v.AvailableQualities)
		}
	}
	if v.HighestQuality != "2160p" {
		t.Errorf("expected 2160p, got %s", v.HighestQuality)
	}
}
