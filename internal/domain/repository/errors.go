package repository

import "errors"

var (
	// ErrObjectNotFound is returned when a storage key is absent.
	// Expected and recoverable; distinct from infrastructure failure.
	ErrObjectNotFound = errors.New("object not found")

	// ErrStorageUnavailable is returned for transient storage failures
	// (network, auth). Callers may retry at their discretion.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrBucketNotFound is returned when the configured bucket is absent.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrMalformedDocument is returned when a stored JSON record fails to
	// parse. Surfaced, never auto-repaired.
	ErrMalformedDocument = errors.New("malformed document")

	// ErrVideoNotFound is returned when a video record cannot be found.
	ErrVideoNotFound = errors.New("video not found")

	// ErrProfileNotFound is returned when a tenant profile document is absent.
	ErrProfileNotFound = errors.New("profile not found")

	// ErrUploadFailed is returned when an upload fails as a whole. No video
	// record may be left published without its primary media present.
	ErrUploadFailed = errors.New("upload failed")

	// ErrEncodeFailed is returned per rendition; never fatal to the upload.
	ErrEncodeFailed = errors.New("encode failed")
)
