package model

import "time"

// ProfileStats are the aggregate counters recomputed from the tenant's
// video records.
type ProfileStats struct {
	VideosCount int   `json:"videos_count"`
	TotalViews  int64 `json:"total_views"`
}

// UserProfile is the JSON document stored per tenant under
// {tenant}/bio/user_meta.json.
type UserProfile struct {
	UserID          string       `json:"user_id"`
	CreatedAt       time.Time    `json:"created_at"`
	DisplayName     string       `json:"display_name"`
	AvatarPath      string       `json:"avatar_path"`
	IsDefaultAvatar bool         `json:"is_default_avatar"`
	Stats           ProfileStats `json:"stats"`
	HasBio          bool         `json:"has_bio,omitempty"`
	LastUpdated     time.Time    `json:"last_updated"`

	// Bio and AvatarURL are populated on read from the bio.txt object and
	// the signer; they are not part of the stored document.
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// Name returns the profile's display name, falling back to the bare handle.
func (p *UserProfile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	if len(p.UserID) > 1 && p.UserID[0] == '@' {
		return p.UserID[1:]
	}
	return p.UserID
}
