package domain

import "time"

// ScanStatus tracks the lifecycle of a staged scan
type ScanStatus string

const (
	// ScanStatusPending means the scan awaits human confirmation
	ScanStatusPending ScanStatus = "PENDING"
	// ScanStatusConfirmed means the scan was converted into a permanent contact
	ScanStatusConfirmed ScanStatus = "CONFIRMED"
)

// EnhanceStrategy selects one of the two preprocessing pipelines
type EnhanceStrategy string

const (
	// StrategyLight targets cards printed on a light background
	StrategyLight EnhanceStrategy = "light"
	// StrategyDark targets dark or reversed-contrast cards (inverts tones first)
	StrategyDark EnhanceStrategy = "dark"
)

// RecognitionToken is one recognized word with its raw engine confidence (0-100)
type RecognitionToken struct {
	Text          string  `json:"text"`
	ConfidenceRaw float64 `json:"confidenceRaw"`
}

// RecognitionAttempt is the full output of a single engine invocation.
// Discarded after scoring; only the winning transcript travels upward.
type RecognitionAttempt struct {
	Transcript string             `json:"transcript"`
	Tokens     []RecognitionToken `json:"tokens"`
}

// OcrOutcome is one scored recognition attempt. Confidence is normalized to [0,1].
type OcrOutcome struct {
	RawText    string          `json:"rawText"`
	Confidence float64         `json:"confidence"`
	Strategy   EnhanceStrategy `json:"strategy"`
}

// ContactType classifies a single contact point extracted from a card
type ContactType string

const (
	ContactTypeEmail  ContactType = "EMAIL"
	ContactTypePhone  ContactType = "PHONE"
	ContactTypeMobile ContactType = "MOBILE"
	ContactTypeFax    ContactType = "FAX"
)

// ContactPoint is a single typed contact value (email address, phone number, ...)
type ContactPoint struct {
	Type  ContactType `json:"type" binding:"required"`
	Value string      `json:"value" binding:"required"`
}

// FieldCandidate is the heuristic parse of a card transcript.
// Every field is best-effort; Contacts is always non-nil (may be empty).
type FieldCandidate struct {
	Name     string         `json:"name,omitempty"`
	Company  string         `json:"company,omitempty"`
	JobTitle string         `json:"jobTitle,omitempty"`
	Contacts []ContactPoint `json:"contacts"`
	Address  string         `json:"address,omitempty"`
	Website  string         `json:"website,omitempty"`
}

// ScanResult is a staged scan awaiting confirmation. It is created at upload
// and mutated exactly once, when confirm flips Status PENDING -> CONFIRMED.
type ScanResult struct {
	ID           string         `json:"scanId"`
	OwnerID      string         `json:"ownerId"`
	ImageURL     string         `json:"imageUrl"`
	ThumbnailURL string         `json:"thumbnailUrl"`
	RawText      string         `json:"rawText"`
	Confidence   float64        `json:"confidence"`
	Parsed       FieldCandidate `json:"parsed"`
	Status       ScanStatus     `json:"status"`
	CreatedAt    time.Time      `json:"createdAt"`
	ExpiresAt    time.Time      `json:"expiresAt"`
}

// Expired reports whether the scan's lifetime has elapsed at the given instant
func (s *ScanResult) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// OcrResult is the recognition portion of the upload payload
type OcrResult struct {
	RawText    string         `json:"rawText"`
	Confidence float64        `json:"confidence"`
	Parsed     FieldCandidate `json:"parsed"`
}

// UploadResult is returned to the caller after a successful upload
type UploadResult struct {
	ScanID       string    `json:"scanId"`
	ImageURL     string    `json:"imageUrl"`
	ThumbnailURL string    `json:"thumbnailUrl"`
	ExpiresAt    time.Time `json:"expiresAt"`
	OcrResult    `json:"ocrResult"`
}

// ConfirmRequest carries the user-edited fields for confirm
type ConfirmRequest struct {
	Name     string         `json:"name,omitempty"`
	Company  string         `json:"company,omitempty"`
	JobTitle string         `json:"jobTitle,omitempty"`
	Contacts []ContactPoint `json:"contacts,omitempty" binding:"dive"`
	Address  string         `json:"address,omitempty"`
	Website  string         `json:"website,omitempty"`
}
