package domain

import "errors"

var (
	// ErrScanNotFound is returned when no pending scan exists for the owner/id pair.
	// Also covers already-confirmed scans: from the caller's view the pending
	// record no longer exists.
	ErrScanNotFound = errors.New("pending scan not found")

	// ErrScanExpired is returned when the scan exists but its lifetime elapsed
	ErrScanExpired = errors.New("scan expired")

	// ErrProcessing is returned when enhancement or recognition fails internally
	ErrProcessing = errors.New("image processing failed")

	// ErrUnsupportedImage is returned when the upload is not a decodable image
	ErrUnsupportedImage = errors.New("unsupported image format")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrStorageFailed is returned when a repository or image store write fails
	ErrStorageFailed = errors.New("storage operation failed")
)
