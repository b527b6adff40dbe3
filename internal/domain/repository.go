package domain

import "context"

// Enhancer converts a raw card photo into an OCR-friendly raster using the
// given strategy. Implementations must be deterministic and must not mutate
// the input buffer.
type Enhancer interface {
	Enhance(raw []byte, strategy EnhanceStrategy) ([]byte, error)
}

// RecognitionEngine is a single OCR engine instance. Instances are configured
// once at construction and support sequential reuse only; callers serialize
// access.
type RecognitionEngine interface {
	Recognize(ctx context.Context, image []byte) (RecognitionAttempt, error)
	Close() error
}

// Recognizer dispatches recognition work onto a pooled set of engines.
// A failing or panicking engine invocation surfaces as an empty attempt,
// never as an error.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) RecognitionAttempt
}

// ScanRepository persists staged scans and enforces the single-use confirm
// transition.
type ScanRepository interface {
	Save(ctx context.Context, scan *ScanResult) error
	Get(ctx context.Context, ownerID, scanID string) (*ScanResult, error)

	// Confirm atomically flips PENDING -> CONFIRMED when the scan exists for
	// the owner, is still PENDING and is unexpired. Returns the scan as it was
	// before the flip, or ErrScanNotFound / ErrScanExpired.
	Confirm(ctx context.Context, ownerID, scanID string) (*ScanResult, error)

	// Reopen reverts a just-confirmed scan to PENDING. Compensation path used
	// when permanent-record creation fails after a successful Confirm.
	Reopen(ctx context.Context, ownerID, scanID string) error
}

// ContactRepository persists permanent contact records
type ContactRepository interface {
	Create(ctx context.Context, record *ContactRecord) error
}

// ImageStore is the external image-persistence capability. Save stores one
// blob under the given key and returns a permanent URL for it.
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
