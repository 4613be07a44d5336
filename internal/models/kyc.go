package models

import (
	"time"
)

// KYCStatus represents the lifecycle state of a verification record
type KYCStatus string

const (
	KYCStatusIncomplete KYCStatus = "incomplete"
	KYCStatusPending    KYCStatus = "pending"
	KYCStatusApproved   KYCStatus = "approved"
	KYCStatusRejected   KYCStatus = "rejected"
)

// DocumentSlot identifies one of the five upload categories
type DocumentSlot string

const (
	SlotAadhaarFront DocumentSlot = "aadhaar-front"
	SlotAadhaarBack  DocumentSlot = "aadhaar-back"
	SlotLicenseFront DocumentSlot = "license-front"
	SlotLicenseBack  DocumentSlot = "license-back"
	SlotSelfie       DocumentSlot = "selfie"
)

// ParseDocumentSlot validates a slot selector taken from the request path
func ParseDocumentSlot(s string) (DocumentSlot, bool) {
	switch DocumentSlot(s) {
	case SlotAadhaarFront, SlotAadhaarBack, SlotLicenseFront, SlotLicenseBack, SlotSelfie:
		return DocumentSlot(s), true
	}
	return "", false
}

// Category returns the storage subdirectory for a slot
func (s DocumentSlot) Category() string {
	switch s {
	case SlotAadhaarFront, SlotAadhaarBack:
		return "aadhaar"
	case SlotLicenseFront, SlotLicenseBack:
		return "license"
	default:
		return "selfie"
	}
}

// Document holds the stored metadata of one uploaded file
type Document struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// KYCVerification is the single verification record kept per user.
// The unique index on user_id is the source of truth for the
// one-record-per-subject invariant.
type KYCVerification struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	UserID uint `gorm:"uniqueIndex;not null" json:"user_id"`

	AadhaarNumber        string     `gorm:"type:varchar(20)" json:"aadhaar_number"`
	DrivingLicenseNumber string     `gorm:"type:varchar(50)" json:"driving_license_number"`
	LicenseExpiryDate    *time.Time `json:"license_expiry_date"`
	StreetAddress        string     `gorm:"type:text" json:"street_address"`
	City                 string     `gorm:"type:varchar(100)" json:"city"`
	State                string     `gorm:"type:varchar(100)" json:"state"`
	Pincode              string     `gorm:"type:varchar(10)" json:"pincode"`

	AadhaarFrontURL      string `gorm:"type:text" json:"aadhaar_front_url"`
	AadhaarFrontFilename string `gorm:"type:varchar(255)" json:"aadhaar_front_filename"`
	AadhaarFrontType     string `gorm:"type:varchar(100)" json:"aadhaar_front_type"`
	AadhaarFrontSize     int64  `json:"aadhaar_front_size"`

	AadhaarBackURL      string `gorm:"type:text" json:"aadhaar_back_url"`
	AadhaarBackFilename string `gorm:"type:varchar(255)" json:"aadhaar_back_filename"`
	AadhaarBackType     string `gorm:"type:varchar(100)" json:"aadhaar_back_type"`
	AadhaarBackSize     int64  `json:"aadhaar_back_size"`

	LicenseFrontURL      string `gorm:"type:text" json:"license_front_url"`
	LicenseFrontFilename string `gorm:"type:varchar(255)" json:"license_front_filename"`
	LicenseFrontType     string `gorm:"type:varchar(100)" json:"license_front_type"`
	LicenseFrontSize     int64  `json:"license_front_size"`

	LicenseBackURL      string `gorm:"type:text" json:"license_back_url"`
	LicenseBackFilename string `gorm:"type:varchar(255)" json:"license_back_filename"`
	LicenseBackType     string `gorm:"type:varchar(100)" json:"license_back_type"`
	LicenseBackSize     int64  `json:"license_back_size"`

	SelfieURL      string `gorm:"type:text" json:"selfie_url"`
	SelfieFilename string `gorm:"type:varchar(255)" json:"selfie_filename"`
	SelfieType     string `gorm:"type:varchar(100)" json:"selfie_type"`
	SelfieSize     int64  `json:"selfie_size"`

	// Locator of the rendered verification PDF; empty means not yet rendered.
	KYCPDFURL string `gorm:"column:kyc_pdf_url;type:text" json:"kyc_pdf_url"`

	VerificationStatus KYCStatus  `gorm:"type:varchar(20);not null;default:'incomplete'" json:"verification_status"`
	RejectionReason    string     `gorm:"type:text" json:"rejection_reason"`
	VerifiedByAdmin    *uint      `json:"verified_by_admin"`
	VerifiedAt         *time.Time `json:"verified_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentFor returns the stored metadata for a slot
func (k *KYCVerification) DocumentFor(slot DocumentSlot) Document {
	switch slot {
	case SlotAadhaarFront:
		return Document{k.AadhaarFrontURL, k.AadhaarFrontFilename, k.AadhaarFrontType, k.AadhaarFrontSize}
	case SlotAadhaarBack:
		return Document{k.AadhaarBackURL, k.AadhaarBackFilename, k.AadhaarBackType, k.AadhaarBackSize}
	case SlotLicenseFront:
		return Document{k.LicenseFrontURL, k.LicenseFrontFilename, k.LicenseFrontType, k.LicenseFrontSize}
	case SlotLicenseBack:
		return Document{k.LicenseBackURL, k.LicenseBackFilename, k.LicenseBackType, k.LicenseBackSize}
	default:
		return Document{k.SelfieURL, k.SelfieFilename, k.SelfieType, k.SelfieSize}
	}
}

// SetDocument writes exactly the four fields of the named slot
func (k *KYCVerification) SetDocument(slot DocumentSlot, doc Document) {
	switch slot {
	case SlotAadhaarFront:
		k.AadhaarFrontURL, k.AadhaarFrontFilename, k.AadhaarFrontType, k.AadhaarFrontSize = doc.URL, doc.Filename, doc.ContentType, doc.Size
	case SlotAadhaarBack:
		k.AadhaarBackURL, k.AadhaarBackFilename, k.AadhaarBackType, k.AadhaarBackSize = doc.URL, doc.Filename, doc.ContentType, doc.Size
	case SlotLicenseFront:
		k.LicenseFrontURL, k.LicenseFrontFilename, k.LicenseFrontType, k.LicenseFrontSize = doc.URL, doc.Filename, doc.ContentType, doc.Size
	case SlotLicenseBack:
		k.LicenseBackURL, k.LicenseBackFilename, k.LicenseBackType, k.LicenseBackSize = doc.URL, doc.Filename, doc.ContentType, doc.Size
	case SlotSelfie:
		k.SelfieURL, k.SelfieFilename, k.SelfieType, k.SelfieSize = doc.URL, doc.Filename, doc.ContentType, doc.Size
	}
}
