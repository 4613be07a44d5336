package kyc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kwick/backend/internal/models"
)

// MaxUploadSize is the per-document limit enforced before any store write
const MaxUploadSize = 5 * 1024 * 1024

// DefaultRejectionReason is used when an admin rejects without a reason
const DefaultRejectionReason = "Documents do not meet requirements"

var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

// BlobStore persists raw bytes under a path prefix and returns a locator
type BlobStore interface {
	Store(subpath, filename string, r io.Reader) (string, error)
	BaseDir() string
}

// Renderer turns a verification record plus owner profile into a PDF
type Renderer interface {
	VerificationPDF(kyc *models.KYCVerification, user *models.User) ([]byte, error)
}

// Mailer sends workflow notices; failures are absorbed by the engine
type Mailer interface {
	SubmissionNotice(userName, userEmail string, userID uint) error
	ApprovalNotice(userName, userEmail string) error
	RejectionNotice(userName, userEmail, reason string) error
}

// Publisher broadcasts verification status events to live subscribers
type Publisher interface {
	KYCStatus(kycID, userID uint, status string)
}

// Service orchestrates the verification workflow. It holds no mutable
// state of its own; everything lives in the record store.
type Service struct {
	db        *gorm.DB
	records   *RecordStore
	blobs     BlobStore
	renderer  Renderer
	mailer    Mailer
	publisher Publisher
}

// NewService wires the engine with its collaborators
func NewService(db *gorm.DB, blobs BlobStore, renderer Renderer, mailer Mailer, publisher Publisher) *Service {
	return &Service{
		db:        db,
		records:   NewRecordStore(db),
		blobs:     blobs,
		renderer:  renderer,
		mailer:    mailer,
		publisher: publisher,
	}
}

// Records exposes the underlying store
func (s *Service) Records() *RecordStore {
	return s.records
}

// FileMeta describes an upload before its bytes are consumed
type FileMeta struct {
	Filename    string
	ContentType string
	Size        int64
}

// UploadDocument validates and stores one document into the named slot.
// Validation happens before the blob store is touched; an oversized or
// mistyped file never reaches it.
func (s *Service) UploadDocument(userID uint, slot models.DocumentSlot, meta FileMeta, r io.Reader) (string, error) {
	if meta.Size <= 0 {
		return "", &FileError{"No file uploaded"}
	}
	if meta.Size > MaxUploadSize {
		return "", &FileError{"File too large (max 5MB)"}
	}
	if !allowedContentTypes[meta.ContentType] {
		return "", &FileError{"Invalid file type. Only JPEG, PNG, or PDF allowed."}
	}

	rec, err := s.records.EnsureForUser(userID)
	if err != nil {
		return "", err
	}

	// Approved records are terminal for the subject.
	if rec.VerificationStatus == models.KYCStatusApproved {
		return "", ErrInvalidTransition
	}

	locator, err := s.blobs.Store(fmt.Sprintf("kyc/%d/%s", userID, slot.Category()), meta.Filename, r)
	if err != nil {
		return "", &StorageError{err}
	}

	rec.SetDocument(slot, models.Document{
		URL:         locator,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Size:        meta.Size,
	})
	if err := s.records.SaveDocument(rec, slot); err != nil {
		return "", err
	}

	log.Printf("kyc: %s uploaded for user %d", slot, userID)
	return locator, nil
}

// SubmissionDetails carries the personal details of a submission
type SubmissionDetails struct {
	AadhaarNumber     string
	LicenseNumber     string
	Address           string
	City              string
	State             string
	Pincode           string
	LicenseExpiryDate *time.Time
}

// SubmitForReview overwrites personal details, moves the record to pending
// and clears any previous decision. Rendering and the ops notice run as
// best-effort side effects that never fail the submission.
func (s *Service) SubmitForReview(userID uint, details SubmissionDetails) (*models.KYCVerification, error) {
	required := []struct {
		field string
		value string
	}{
		{"aadhaarNumber", details.AadhaarNumber},
		{"licenseNumber", details.LicenseNumber},
		{"address", details.Address},
		{"city", details.City},
		{"state", details.State},
		{"pincode", details.Pincode},
	}
	for _, req := range required {
		if strings.TrimSpace(req.value) == "" {
			return nil, &ValidationError{req.field}
		}
	}

	rec, err := s.records.EnsureForUser(userID)
	if err != nil {
		return nil, err
	}

	// Approved is terminal; only a rejected record may go back to pending.
	if rec.VerificationStatus == models.KYCStatusApproved {
		return nil, ErrInvalidTransition
	}

	rec.AadhaarNumber = details.AadhaarNumber
	rec.DrivingLicenseNumber = details.LicenseNumber
	rec.StreetAddress = details.Address
	rec.City = details.City
	rec.State = details.State
	rec.Pincode = details.Pincode
	if details.LicenseExpiryDate != nil {
		rec.LicenseExpiryDate = details.LicenseExpiryDate
	}
	rec.VerificationStatus = models.KYCStatusPending
	rec.RejectionReason = ""
	rec.VerifiedByAdmin = nil
	rec.VerifiedAt = nil

	if err := s.records.Save(rec); err != nil {
		return nil, err
	}

	user, err := s.userByID(userID)
	if err != nil {
		// Side effects need the profile; the submission itself stands.
		log.Printf("WARN: kyc: submit side effects skipped for user %d: %v", userID, err)
		return rec, nil
	}

	user.KYCStatus = models.KYCStatusPending
	if err := s.db.Save(user).Error; err != nil {
		log.Printf("WARN: kyc: could not sync user %d status: %v", userID, err)
	}

	s.renderAndPersist(rec, user)

	if err := s.mailer.SubmissionNotice(user.Name, user.Email, userID); err != nil {
		log.Printf("WARN: kyc: submission notice for user %d: %v", userID, err)
	}

	log.Printf("kyc: submitted for user %d, status pending", userID)
	return rec, nil
}

// renderAndPersist generates the verification PDF and stores its locator.
// Any failure is logged and swallowed.
func (s *Service) renderAndPersist(rec *models.KYCVerification, user *models.User) {
	pdfBytes, err := s.renderer.VerificationPDF(rec, user)
	if err != nil {
		log.Printf("WARN: kyc: could not render PDF for user %d: %v", rec.UserID, err)
		return
	}

	name := fmt.Sprintf("kyc_%d_%d.pdf", rec.UserID, time.Now().UnixMilli())
	locator, err := s.blobs.Store(fmt.Sprintf("kyc/%d", rec.UserID), name, bytes.NewReader(pdfBytes))
	if err != nil {
		log.Printf("WARN: kyc: could not store PDF for user %d: %v", rec.UserID, err)
		return
	}

	rec.KYCPDFURL = locator
	if err := s.records.Save(rec); err != nil {
		log.Printf("WARN: kyc: could not save PDF locator for user %d: %v", rec.UserID, err)
	}
}

// GetStatus returns the subject's record, materializing a fresh incomplete
// one on first read
func (s *Service) GetStatus(userID uint) (*models.KYCVerification, error) {
	return s.records.EnsureForUser(userID)
}

// Verdict is an admin decision on a pending record
type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictReject  Verdict = "reject"
)

func (v Verdict) status() models.KYCStatus {
	if v == VerdictApprove {
		return models.KYCStatusApproved
	}
	return models.KYCStatusRejected
}

// Decide applies an admin verdict: stamps the decision metadata, syncs the
// owner's cached status and fires the notice + broadcast side channels.
// Repeating an identical verdict is allowed and re-stamps; any other
// transition outside pending is refused.
func (s *Service) Decide(adminID, recordID uint, verdict Verdict, reason string) (*models.KYCVerification, error) {
	rec, err := s.records.ByID(recordID)
	if err != nil {
		return nil, err
	}

	user, err := s.userByID(rec.UserID)
	if err != nil {
		return nil, err
	}

	target := verdict.status()
	if rec.VerificationStatus != models.KYCStatusPending && rec.VerificationStatus != target {
		return nil, ErrInvalidTransition
	}

	if verdict == VerdictReject {
		if strings.TrimSpace(reason) == "" {
			reason = DefaultRejectionReason
		}
		rec.RejectionReason = reason
	} else {
		rec.RejectionReason = ""
	}

	now := time.Now()
	rec.VerificationStatus = target
	rec.VerifiedByAdmin = &adminID
	rec.VerifiedAt = &now
	if err := s.records.Save(rec); err != nil {
		return nil, err
	}

	user.KYCStatus = target
	if err := s.db.Save(user).Error; err != nil {
		return nil, &StorageError{err}
	}

	if verdict == VerdictApprove {
		if err := s.mailer.ApprovalNotice(user.Name, user.Email); err != nil {
			log.Printf("WARN: kyc: approval notice for user %d: %v", user.ID, err)
		}
	} else {
		if err := s.mailer.RejectionNotice(user.Name, user.Email, rec.RejectionReason); err != nil {
			log.Printf("WARN: kyc: rejection notice for user %d: %v", user.ID, err)
		}
	}

	s.publisher.KYCStatus(rec.ID, user.ID, string(target))

	log.Printf("kyc: record %d %s by admin %d", recordID, target, adminID)
	return rec, nil
}

func (s *Service) userByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, &StorageError{err}
	}
	return &user, nil
}
