package usecase

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log"

	// Register decoders for the formats the upload boundary accepts
	_ "image/gif"
	_ "image/png"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"github.com/cardlens/backend/internal/domain"
)

// ScanServiceConfig holds configuration for the scan service
type ScanServiceConfig struct {
	ScanTTL         time.Duration
	ThumbnailMaxDim int
	Debug           bool
}

// ScanService owns the staged-scan lifecycle: upload creates a PENDING scan
// with a bounded lifetime, confirm converts it into a permanent contact
// exactly once.
type ScanService struct {
	selector  *ResultSelector
	extractor *FieldExtractor
	scans     domain.ScanRepository
	contacts  domain.ContactRepository
	images    domain.ImageStore

	scanTTL         time.Duration
	thumbnailMaxDim int
	debug           bool

	// Injected for tests; defaults to time.Now
	now func() time.Time
}

// NewScanService creates a scan service with its collaborators
func NewScanService(
	selector *ResultSelector,
	extractor *FieldExtractor,
	scans domain.ScanRepository,
	contacts domain.ContactRepository,
	images domain.ImageStore,
	config ScanServiceConfig,
) *ScanService {
	ttl := config.ScanTTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	thumbDim := config.ThumbnailMaxDim
	if thumbDim <= 0 {
		thumbDim = 320
	}

	return &ScanService{
		selector:        selector,
		extractor:       extractor,
		scans:           scans,
		contacts:        contacts,
		images:          images,
		scanTTL:         ttl,
		thumbnailMaxDim: thumbDim,
		debug:           config.Debug,
		now:             time.Now,
	}
}

// Upload persists the card image (original + thumbnail tiers), runs the
// recognition pipeline and the field extractor, and stages a PENDING scan
// with an expiry. An empty, zero-confidence OCR outcome is a normal result,
// not an error: the caller shows a blank confirmation screen.
func (s *ScanService) Upload(ctx context.Context, ownerID string, imageBytes []byte, filename string) (*domain.UploadResult, error) {
	if ownerID == "" || len(imageBytes) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	// Reject uploads the pipeline cannot decode before paying for storage
	if _, _, err := image.Decode(bytes.NewReader(imageBytes)); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedImage, err)
	}

	scanID := uuid.NewString()

	imageURL, err := s.images.Save(ctx, imageKey(ownerID, scanID, filename), imageBytes, contentTypeFor(filename))
	if err != nil {
		return nil, fmt.Errorf("%w: store original: %v", domain.ErrStorageFailed, err)
	}

	thumbnailURL := imageURL
	if thumb, err := s.renderThumbnail(imageBytes); err == nil {
		thumbnailURL, err = s.images.Save(ctx, thumbnailKey(ownerID, scanID), thumb, "image/jpeg")
		if err != nil {
			return nil, fmt.Errorf("%w: store thumbnail: %v", domain.ErrStorageFailed, err)
		}
	} else {
		// Thumbnail is a derived tier; fall back to the original reference
		log.Printf("[SCAN] thumbnail render failed for %s: %v", scanID, err)
	}

	outcome := s.selector.Select(ctx, imageBytes)
	parsed := s.extractor.Parse(outcome.RawText)

	now := s.now()
	scan := &domain.ScanResult{
		ID:           scanID,
		OwnerID:      ownerID,
		ImageURL:     imageURL,
		ThumbnailURL: thumbnailURL,
		RawText:      outcome.RawText,
		Confidence:   outcome.Confidence,
		Parsed:       parsed,
		Status:       domain.ScanStatusPending,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.scanTTL),
	}

	if err := s.scans.Save(ctx, scan); err != nil {
		return nil, fmt.Errorf("%w: stage scan: %v", domain.ErrStorageFailed, err)
	}

	if s.debug {
		log.Printf("[SCAN] staged %s owner=%s confidence=%.4f contacts=%d",
			scanID, ownerID, outcome.Confidence, len(parsed.Contacts))
	}

	return &domain.UploadResult{
		ScanID:       scanID,
		ImageURL:     imageURL,
		ThumbnailURL: thumbnailURL,
		ExpiresAt:    scan.ExpiresAt,
		OcrResult: domain.OcrResult{
			RawText:    outcome.RawText,
			Confidence: outcome.Confidence,
			Parsed:     parsed,
		},
	}, nil
}

// Get returns a staged scan for re-display, enforcing the same not-found vs
// expired distinction as confirm
func (s *ScanService) Get(ctx context.Context, ownerID, scanID string) (*domain.ScanResult, error) {
	if ownerID == "" || scanID == "" {
		return nil, domain.ErrInvalidRequest
	}

	scan, err := s.scans.Get(ctx, ownerID, scanID)
	if err != nil {
		return nil, err
	}
	if scan.Status != domain.ScanStatusPending {
		return nil, domain.ErrScanNotFound
	}
	if scan.Expired(s.now()) {
		return nil, domain.ErrScanExpired
	}
	return scan, nil
}

// Confirm converts a staged scan into a permanent contact record exactly
// once. The PENDING -> CONFIRMED transition is a single atomic conditional
// update at the repository; a second confirm for the same id fails because
// the status is no longer PENDING. The permanent record merges the
// user-edited fields with the scan's image references and raw OCR metadata.
func (s *ScanService) Confirm(ctx context.Context, ownerID, scanID string, finalFields domain.ConfirmRequest) (*domain.ContactRecord, error) {
	if ownerID == "" || scanID == "" {
		return nil, domain.ErrInvalidRequest
	}

	scan, err := s.scans.Confirm(ctx, ownerID, scanID)
	if err != nil {
		return nil, err
	}

	record := &domain.ContactRecord{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Name:         finalFields.Name,
		Company:      finalFields.Company,
		JobTitle:     finalFields.JobTitle,
		Contacts:     finalFields.Contacts,
		Address:      finalFields.Address,
		Website:      finalFields.Website,
		ImageURL:     scan.ImageURL,
		ThumbnailURL: scan.ThumbnailURL,
		RawText:      scan.RawText,
		Confidence:   scan.Confidence,
		CreatedAt:    s.now(),
	}
	if record.Contacts == nil {
		record.Contacts = []domain.ContactPoint{}
	}

	if err := s.contacts.Create(ctx, record); err != nil {
		// Compensate so the user can retry confirm instead of losing the scan
		if reopenErr := s.scans.Reopen(ctx, ownerID, scanID); reopenErr != nil {
			log.Printf("[SCAN] reopen after failed contact create: %v", reopenErr)
		}
		return nil, fmt.Errorf("%w: create contact: %v", domain.ErrStorageFailed, err)
	}

	if s.debug {
		log.Printf("[SCAN] confirmed %s owner=%s contact=%s", scanID, ownerID, record.ID)
	}

	return record, nil
}

// renderThumbnail downsizes the original into a bounded JPEG tier
func (s *ScanService) renderThumbnail(imageBytes []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, err
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	longest := w
	if h > longest {
		longest = h
	}

	if longest > s.thumbnailMaxDim {
		scale := float64(s.thumbnailMaxDim) / float64(longest)
		nw, nh := int(float64(w)*scale), int(float64(h)*scale)
		if nw < 1 {
			nw = 1
		}
		if nh < 1 {
			nh = 1
		}
		dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// imageKey builds the storage key for the original tier
func imageKey(ownerID, scanID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif":
	default:
		ext = ".jpg"
	}
	return fmt.Sprintf("scans/%s/%s%s", ownerID, scanID, ext)
}

// thumbnailKey builds the storage key for the thumbnail tier
func thumbnailKey(ownerID, scanID string) string {
	return fmt.Sprintf("scans/%s/%s_thumb.jpg", ownerID, scanID)
}

// contentTypeFor maps an upload filename to the stored content type
func contentTypeFor(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}
