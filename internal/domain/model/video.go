package model

import (
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"
)

// StatusPublished is the status of a live video record. Deletion removes the
// record outright, so no other status value exists.
const StatusPublished = "published"

var (
	ErrEmptyTitle   = errors.New("title cannot be empty")
	ErrTitleTooLong = errors.New("title exceeds maximum length of 255 characters")
)

const maxTitleLength = 255

// QualityVariant is one transcoded rendition of a video.
type QualityVariant struct {
	Path       string `json:"path"`
	Resolution string `json:"resolution"`
	Bitrate    string `json:"bitrate"`
}

// VideoRecord is the JSON document stored per video under
// {tenant}/metadata/{videoID}.json. Field names are part of the external
// contract and must not change.
type VideoRecord struct {
	VideoID     string    `json:"video_id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	UploadDate  time.Time `json:"upload_date"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
	MimeType    string    `json:"mime_type"`
	Views       int64     `json:"views"`
	Likes       int64     `json:"likes"`
	Dislikes    int64     `json:"dislikes"`
	Duration    string    `json:"duration"`
	Status      string    `json:"status"`

	ThumbnailPath     string `json:"thumbnail_path,omitempty"`
	ThumbnailMimeType string `json:"thumbnail_mime_type,omitempty"`

	QualityVariants    map[string]QualityVariant `json:"quality_variants,omitempty"`
	AvailableQualities []string                  `json:"available_qualities,omitempty"`
	HighestQuality     string                    `json:"highest_quality,omitempty"`
}

// ValidateTitle checks title constraints shared by upload and edit flows.
func ValidateTitle(title string) error {
	if title == "" {
		return ErrEmptyTitle
	}
	if len(title) > maxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

// HasVariants reports whether any quality renditions are recorded.
func (v *VideoRecord) HasVariants() bool {
	return len(v.QualityVariants) > 0
}

// MergeVariants merges newly produced renditions into the record without
// clobbering unrelated fields, then recomputes available_qualities and
// highest_quality. A nil or empty map is a no-op.
func (v *VideoRecord) MergeVariants(variants map[string]QualityVariant) {
	if len(variants) == 0 {
		return
	}
	if v.QualityVariants == nil {
		v.QualityVariants = make(map[string]QualityVariant, len(variants))
	}
	for name, variant := range variants {
		v.QualityVariants[name] = variant
	}

	qualities := make([]string, 0, len(v.QualityVariants))
	for name := range v.QualityVariants {
		qualities = append(qualities, name)
	}
	sort.Slice(qualities, func(i, j int) bool {
		return qualityRank(qualities[i]) < qualityRank(qualities[j])
	})
	v.AvailableQualities = qualities
	v.HighestQuality = qualities[len(qualities)-1]
}

// qualityRank orders preset names like "360p" < "720p" < "1080p" < "2160p".
// Unparseable names sort first so a well-formed name always wins highest.
func qualityRank(name string) int {
	n, err := strconv.Atoi(strings.TrimSuffix(name, "p"))
	if err != nil {
		return -1
	}
	return n
}
