package docstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/TheRizaev/kronik/internal/domain/model"
	"github.com/TheRizaev/kronik/internal/domain/repository"
	"github.com/TheRizaev/kronik/internal/infrastructure/metrics"
	"github.com/TheRizaev/kronik/internal/namespace"
)

const welcomeTextFormat = "Welcome to KRONIK, %s! This is your personal storage space."

// CreateTenant provisions the per-tenant namespace: the five collection
// markers, the profile document, the welcome text and the default avatar.
// The operation is idempotent; a tenant that already has a profile is left
// untouched.
func (s *Store) CreateTenant(ctx context.Context, tenant string) error {
	if !namespace.ValidTenant(tenant) {
		return fmt.Errorf("%w: %q", namespace.ErrInvalidTenant, tenant)
	}

	profileKey := namespace.ProfileKey(tenant)
	unlock := s.locks.lock(profileKey)
	defer unlock()

	exists, err := s.storage.Exists(ctx, profileKey)
	if err != nil {
		return fmt.Errorf("failed to check tenant %s: %w", tenant, err)
	}
	if exists {
		return nil
	}

	for _, collection := range namespace.Collections {
		marker := namespace.MarkerKey(tenant, collection)
		if err := s.storage.Put(ctx, marker, bytes.NewReader(nil), 0, "application/octet-stream"); err != nil {
			return fmt.Errorf("failed to create collection marker %s: %w", marker, err)
		}
	}

	welcome := fmt.Sprintf(welcomeTextFormat, strings.TrimPrefix(tenant, namespace.TenantMarker))
	welcomeKey := namespace.WelcomeKey(tenant)
	if err := s.storage.Put(ctx, welcomeKey, strings.NewReader(welcome), int64(len(welcome)), "text/plain"); err != nil {
		return fmt.Errorf("failed to create welcome text: %w", err)
	}

	profile := &model.UserProfile{
		UserID:      tenant,
		CreatedAt:   s.now().UTC(),
		LastUpdated: s.now().UTC(),
	}

	if len(s.config.DefaultAvatar) > 0 {
		avatarKey := namespace.AvatarKey(tenant, extForContentType(s.config.DefaultAvatarContentType), true)
		if err := s.storage.Put(ctx, avatarKey, bytes.NewReader(s.config.DefaultAvatar), int64(len(s.config.DefaultAvatar)), s.config.DefaultAvatarContentType); err != nil {
			return fmt.Errorf("failed to upload default avatar: %w", err)
		}
		profile.AvatarPath = avatarKey
		profile.IsDefaultAvatar = true
	}

	if err := s.putJSON(ctx, profileKey, profile); err != nil {
		return err
	}

	slog.Info("tenant provisioned", "tenant", tenant)
	return nil
}

// GetProfile reads the tenant's profile document, enriched with the bio text
// and a presigned avatar URL. Enrichment is best-effort; a missing bio object
// or a signer failure never fails the read.
func (s *Store) GetProfile(ctx context.Context, tenant string) (*model.UserProfile, error) {
	var profile model.UserProfile
	if err := s.getJSON(ctx, namespace.ProfileKey(tenant), &profile); err != nil {
		if isNotFound(err) {
			return nil, repository.ErrProfileNotFound
		}
		return nil, err
	}

	if profile.HasBio {
		if bio, err := s.readBio(ctx, tenant); err == nil {
			profile.Bio = bio
		} else if !isNotFound(err) {
			slog.Warn("failed to read bio", "tenant", tenant, "error", err)
		}
	}

	if profile.AvatarPath != "" {
		url, err := s.storage.PresignedGetURL(ctx, profile.AvatarPath, s.config.AvatarURLTTL)
		if err != nil {
			metrics.SignedURLsTotal.WithLabelValues(string(namespace.CollectionBio), metrics.ResultError).Inc()
			slog.Warn("failed to sign avatar URL", "tenant", tenant, "error", err)
		} else {
			metrics.SignedURLsTotal.WithLabelValues(string(namespace.CollectionBio), metrics.ResultSuccess).Inc()
			profile.AvatarURL = url
		}
	}

	return &profile, nil
}

// UpdateProfileInput carries the mutable profile fields. Nil pointers leave
// the corresponding field untouched.
type UpdateProfileInput struct {
	DisplayName *string
	Bio         *string

	// Avatar replaces the tenant's avatar when non-nil.
	Avatar            io.Reader
	AvatarSize        int64
	AvatarContentType string
}

// UpdateProfile applies in to the tenant's profile document.
// Replacing the avatar deletes the previous upload unless it was the default.
func (s *Store) UpdateProfile(ctx context.Context, tenant string, in UpdateProfileInput) (*model.UserProfile, error) {
	profileKey := namespace.ProfileKey(tenant)
	unlock := s.locks.lock(profileKey)
	defer unlock()

	var profile model.UserProfile
	if err := s.getJSON(ctx, profileKey, &profile); err != nil {
		if isNotFound(err) {
			return nil, repository.ErrProfileNotFound
		}
		return nil, err
	}

	if in.DisplayName != nil {
		profile.DisplayName = *in.DisplayName
	}

	if in.Bio != nil {
		bioKey := namespace.BioKey(tenant)
		if *in.Bio == "" {
			if err := s.storage.Delete(ctx, bioKey); err != nil {
				return nil, fmt.Errorf("failed to delete bio: %w", err)
			}
			profile.HasBio = false
		} else {
			if err := s.storage.Put(ctx, bioKey, strings.NewReader(*in.Bio), int64(len(*in.Bio)), "text/plain"); err != nil {
				return nil, fmt.Errorf("failed to store bio: %w", err)
			}
			profile.HasBio = true
		}
	}

	if in.Avatar != nil {
		newKey := namespace.AvatarKey(tenant, extForContentType(in.AvatarContentType), false)
		if err := s.storage.Put(ctx, newKey, in.Avatar, in.AvatarSize, in.AvatarContentType); err != nil {
			return nil, fmt.Errorf("%w: avatar: %v", repository.ErrUploadFailed, err)
		}
		if profile.AvatarPath != "" && profile.AvatarPath != newKey && !profile.IsDefaultAvatar {
			if err := s.storage.Delete(ctx, profile.AvatarPath); err != nil {
				slog.Warn("failed to delete replaced avatar", "tenant", tenant, "key", profile.AvatarPath, "error", err)
			}
		}
		profile.AvatarPath = newKey
		profile.IsDefaultAvatar = false
	}

	profile.LastUpdated = s.now().UTC()

	if err := s.putJSON(ctx, profileKey, &profile); err != nil {
		return nil, err
	}

	updated := profile
	if updated.HasBio && in.Bio != nil {
		updated.Bio = *in.Bio
	}
	return &updated, nil
}

// RecomputeStats rescans the tenant's video records and rewrites the
// profile's aggregate counters. The scan is O(records); callers invoke it
// after record mutations, not on reads.
func (s *Store) RecomputeStats(ctx context.Context, tenant string) (model.ProfileStats, error) {
	records, err := s.ListVideos(ctx, tenant)
	if err != nil {
		return model.ProfileStats{}, err
	}

	stats := model.ProfileStats{VideosCount: len(records)}
	for _, rec := range records {
		stats.TotalViews += rec.Views
	}

	profileKey := namespace.ProfileKey(tenant)
	unlock := s.locks.lock(profileKey)
	defer unlock()

	var profile model.UserProfile
	if err := s.getJSON(ctx, profileKey, &profile); err != nil {
		if isNotFound(err) {
			return model.ProfileStats{}, repository.ErrProfileNotFound
		}
		return model.ProfileStats{}, err
	}

	profile.Stats = stats
	profile.LastUpdated = s.now().UTC()
	if err := s.putJSON(ctx, profileKey, &profile); err != nil {
		return model.ProfileStats{}, err
	}

	return stats, nil
}

func (s *Store) readBio(ctx context.Context, tenant string) (string, error) {
	rc, err := s.storage.Get(ctx, namespace.BioKey(tenant))
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("failed to read bio: %w", err)
	}
	return string(data), nil
}

// extForContentType maps an image content type to its file extension.
func extForContentType(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
