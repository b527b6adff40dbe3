package domain

import "time"

// ContactRecord is the permanent record created from a confirmed scan.
// It merges the user-edited fields with the scan's image references and raw
// OCR metadata, kept for audit.
type ContactRecord struct {
	ID           string         `json:"id"`
	OwnerID      string         `json:"ownerId"`
	Name         string         `json:"name,omitempty"`
	Company      string         `json:"company,omitempty"`
	JobTitle     string         `json:"jobTitle,omitempty"`
	Contacts     []ContactPoint `json:"contacts"`
	Address      string         `json:"address,omitempty"`
	Website      string         `json:"website,omitempty"`
	ImageURL     string         `json:"imageUrl,omitempty"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
	RawText      string         `json:"rawText,omitempty"`
	Confidence   float64        `json:"confidence"`
	CreatedAt    time.Time      `json:"createdAt"`
}
