package kyc

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kwick/backend/internal/models"
)

// RecordStore is the keyed persistence layer for verification records
type RecordStore struct {
	db *gorm.DB
}

// NewRecordStore wraps a database handle
func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// EnsureForUser is the idempotent resolve-or-create operation. It always
// attempts the insert and lets the user_id uniqueness constraint arbitrate:
// on conflict nothing is written and the re-fetch returns whichever record
// won, so concurrent first-touch can never create two records.
func (s *RecordStore) EnsureForUser(userID uint) (*models.KYCVerification, error) {
	fresh := models.KYCVerification{
		UserID:             userID,
		VerificationStatus: models.KYCStatusIncomplete,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&fresh).Error
	if err != nil {
		return nil, &StorageError{err}
	}

	var rec models.KYCVerification
	if err := s.db.Where("user_id = ?", userID).First(&rec).Error; err != nil {
		return nil, &StorageError{err}
	}
	return &rec, nil
}

// ByID fetches a record by primary key
func (s *RecordStore) ByID(id uint) (*models.KYCVerification, error) {
	var rec models.KYCVerification
	if err := s.db.First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{err}
	}
	return &rec, nil
}

// ByUser fetches the record owned by a subject, if any
func (s *RecordStore) ByUser(userID uint) (*models.KYCVerification, error) {
	var rec models.KYCVerification
	if err := s.db.Where("user_id = ?", userID).First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &StorageError{err}
	}
	return &rec, nil
}

// SaveDocument persists only the four columns of the named slot. Slot
// writes stay field-disjoint this way: a stale read of the rest of the
// row can never overwrite another slot's concurrent upload.
func (s *RecordStore) SaveDocument(rec *models.KYCVerification, slot models.DocumentSlot) error {
	if err := s.db.Model(rec).Select(slotColumns(slot)).Updates(*rec).Error; err != nil {
		return &StorageError{err}
	}
	return nil
}

func slotColumns(slot models.DocumentSlot) []string {
	switch slot {
	case models.SlotAadhaarFront:
		return []string{"aadhaar_front_url", "aadhaar_front_filename", "aadhaar_front_type", "aadhaar_front_size"}
	case models.SlotAadhaarBack:
		return []string{"aadhaar_back_url", "aadhaar_back_filename", "aadhaar_back_type", "aadhaar_back_size"}
	case models.SlotLicenseFront:
		return []string{"license_front_url", "license_front_filename", "license_front_type", "license_front_size"}
	case models.SlotLicenseBack:
		return []string{"license_back_url", "license_back_filename", "license_back_type", "license_back_size"}
	default:
		return []string{"selfie_url", "selfie_filename", "selfie_type", "selfie_size"}
	}
}

// Save persists the full record
func (s *RecordStore) Save(rec *models.KYCVerification) error {
	if err := s.db.Save(rec).Error; err != nil {
		return &StorageError{err}
	}
	return nil
}

// All returns every record; admin listing filters and paginates in memory
func (s *RecordStore) All() ([]models.KYCVerification, error) {
	var recs []models.KYCVerification
	if err := s.db.Find(&recs).Error; err != nil {
		return nil, &StorageError{err}
	}
	return recs, nil
}

// Count returns the number of stored records
func (s *RecordStore) Count() (int64, error) {
	var n int64
	if err := s.db.Model(&models.KYCVerification{}).Count(&n).Error; err != nil {
		return 0, &StorageError{err}
	}
	return n, nil
}
