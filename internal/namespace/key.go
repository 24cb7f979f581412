// Package namespace encodes and decodes the object key grammar that turns
// the flat bucket key space into a tenant/collection/record hierarchy.
// The package is a pure codec: no state, no I/O.
package namespace

import (
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

// Collection is one of the fixed per-tenant sub-collections.
type Collection string

const (
	CollectionVideos   Collection = "videos"
	CollectionPreviews Collection = "previews"
	CollectionMetadata Collection = "metadata"
	CollectionComments Collection = "comments"
	CollectionBio      Collection = "bio"
)

// Collections lists every per-tenant collection in creation order.
var Collections = []Collection{
	CollectionVideos,
	CollectionPreviews,
	CollectionMetadata,
	CollectionComments,
	CollectionBio,
}

const (
	// TenantMarker is the leading character every tenant handle carries.
	// It is part of the identity, not a display decoration.
	TenantMarker = "@"

	// SystemPrefix is the reserved top-level prefix for derived system
	// objects such as the catalog cache. Never a tenant.
	SystemPrefix = "system/"

	// CatalogCacheKey is the single process-wide catalog cache document.
	CatalogCacheKey = "system/cache/videos_metadata_cache.json"

	// FolderMarkerName is the placeholder object that materializes a
	// collection "folder" in a store that has no real folders.
	FolderMarkerName = ".keep"

	profileName = "user_meta.json"
	bioName     = "bio.txt"
	welcomeName = "welcome.txt"
)

var (
	ErrInvalidTenant     = errors.New("invalid tenant handle")
	ErrInvalidCollection = errors.New("invalid collection")
	ErrInvalidFilename   = errors.New("invalid filename")
	ErrInvalidKey        = errors.New("key does not match namespace grammar")
)

// Valid reports whether c is one of the five fixed collections.
func (c Collection) Valid() bool {
	switch c {
	case CollectionVideos, CollectionPreviews, CollectionMetadata, CollectionComments, CollectionBio:
		return true
	default:
		return false
	}
}

// ValidTenant reports whether handle is a well-formed tenant handle:
// leading marker, non-empty remainder, no path separators.
func ValidTenant(handle string) bool {
	if !strings.HasPrefix(handle, TenantMarker) {
		return false
	}
	rest := strings.TrimPrefix(handle, TenantMarker)
	if rest == "" {
		return false
	}
	return !strings.ContainsAny(handle, "/\\")
}

// Key is a parsed object key.
type Key struct {
	Tenant     string
	Collection Collection
	Filename   string
}

// ObjectKey builds the canonical key for a record within a tenant collection.
func ObjectKey(tenant string, collection Collection, filename string) (string, error) {
	if !ValidTenant(tenant) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTenant, tenant)
	}
	if !collection.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCollection, collection)
	}
	if filename == "" || strings.Contains(filename, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidFilename, filename)
	}
	return tenant + "/" + string(collection) + "/" + filename, nil
}

// ParseKey decomposes a key into tenant, collection and filename.
// Keys outside the five-collection grammar are rejected.
func ParseKey(key string) (Key, error) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) != 3 || parts[2] == "" || strings.Contains(parts[2], "/") {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	k := Key{Tenant: parts[0], Collection: Collection(parts[1]), Filename: parts[2]}
	if !ValidTenant(k.Tenant) {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidTenant, k.Tenant)
	}
	if !k.Collection.Valid() {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidCollection, k.Collection)
	}
	return k, nil
}

// TenantPrefix returns the prefix under which all of a tenant's objects live.
func TenantPrefix(tenant string) string {
	return tenant + "/"
}

// CollectionPrefix returns the prefix of one collection within a tenant.
func CollectionPrefix(tenant string, collection Collection) string {
	return tenant + "/" + string(collection) + "/"
}

// MarkerKey returns the folder marker object for a collection.
func MarkerKey(tenant string, collection Collection) string {
	return CollectionPrefix(tenant, collection) + FolderMarkerName
}

// MetadataKey returns the key of a video's JSON record.
func MetadataKey(tenant, videoID string) string {
	return tenant + "/" + string(CollectionMetadata) + "/" + videoID + ".json"
}

// CommentsKey returns the key of a video's comment thread document.
func CommentsKey(tenant, videoID string) string {
	return tenant + "/" + string(CollectionComments) + "/" + videoID + "_comments.json"
}

// VideoKey returns the key of a video's primary media object.
// ext must include the leading dot.
func VideoKey(tenant, videoID, ext string) string {
	return tenant + "/" + string(CollectionVideos) + "/" + videoID + ext
}

// RenditionKey returns the key of a transcoded quality rendition.
func RenditionKey(tenant, videoID, preset string) string {
	return tenant + "/" + string(CollectionVideos) + "/" + videoID + "_" + preset + ".mp4"
}

// PreviewKey returns the key of a video's thumbnail.
func PreviewKey(tenant, videoID, ext string) string {
	return tenant + "/" + string(CollectionPreviews) + "/" + videoID + ext
}

// ProfileKey returns the key of the tenant's profile document.
func ProfileKey(tenant string) string {
	return tenant + "/" + string(CollectionBio) + "/" + profileName
}

// BioKey returns the key of the tenant's free-text bio object.
func BioKey(tenant string) string {
	return tenant + "/" + string(CollectionBio) + "/" + bioName
}

// WelcomeKey returns the key of the tenant's welcome text object.
func WelcomeKey(tenant string) string {
	return tenant + "/" + string(CollectionBio) + "/" + welcomeName
}

// AvatarKey returns the key of a tenant avatar object. Default avatars are
// stored under a distinct name so user uploads never shadow them.
func AvatarKey(tenant, ext string, isDefault bool) string {
	name := "avatar"
	if isDefault {
		name = "default_avatar"
	}
	return tenant + "/" + string(CollectionBio) + "/" + name + ext
}

// VideoID derives the deterministic video identifier from the upload date
// and the source filename. Two same-day uploads of a same-named file yield
// the same identifier; collision handling is the document store's concern.
func VideoID(uploadedAt time.Time, filename string) string {
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	return uploadedAt.Format("2006-01-02") + "_" + base
}

// IsVideoIDValid rejects identifiers that would escape the key grammar.
func IsVideoIDValid(videoID string) bool {
	return videoID != "" && !strings.ContainsAny(videoID, "/\\")
}

// IsTenantKey reports whether a top-level prefix (as returned by a
// delimiter listing, with or without trailing slash) belongs to a tenant.
func IsTenantKey(prefix string) bool {
	return ValidTenant(strings.TrimSuffix(prefix, "/"))
}
