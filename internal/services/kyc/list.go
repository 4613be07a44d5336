package kyc

import (
	"sort"
	"strings"
	"time"

	"github.com/kwick/backend/internal/models"
)

// Summary is one row of the admin review queue
type Summary struct {
	KycID              uint             `json:"kycId"`
	UserID             uint             `json:"userId"`
	UserName           string           `json:"userName"`
	UserEmail          string           `json:"userEmail"`
	AadhaarLast4       string           `json:"aadhaarLast4"`
	City               string           `json:"city"`
	State              string           `json:"state"`
	VerificationStatus models.KYCStatus `json:"verificationStatus"`
	RejectionReason    string           `json:"rejectionReason,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
	VerifiedAt         *time.Time       `json:"verifiedAt,omitempty"`
	VerifiedByAdmin    *uint            `json:"verifiedByAdmin,omitempty"`
}

// ListResult is a page of the review queue
type ListResult struct {
	Items []Summary `json:"items"`
	Total int       `json:"total"`
	Page  int       `json:"page"`
	Size  int       `json:"size"`
}

// ListForAdmin scans all records, filters by status ("all" bypasses) and a
// case-insensitive query against owner name/email and record city/state,
// sorts newest first with zero creation times last, then paginates.
func (s *Service) ListForAdmin(status, q string, page, size int) (*ListResult, error) {
	recs, err := s.records.All()
	if err != nil {
		return nil, err
	}

	users, err := s.usersByID(recs)
	if err != nil {
		return nil, err
	}

	qq := strings.ToLower(strings.TrimSpace(q))
	filtered := recs[:0]
	for _, rec := range recs {
		if !strings.EqualFold(status, "all") && !strings.EqualFold(status, string(rec.VerificationStatus)) {
			continue
		}
		if qq != "" && !matchesQuery(&rec, users[rec.UserID], qq) {
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		a, b := filtered[i].CreatedAt, filtered[j].CreatedAt
		if a.IsZero() {
			return false
		}
		if b.IsZero() {
			return true
		}
		return a.After(b)
	})

	if page < 0 {
		page = 0
	}
	if size < 1 {
		size = 1
	}
	total := len(filtered)
	from := min(page*size, total)
	to := min(from+size, total)

	items := make([]Summary, 0, to-from)
	for _, rec := range filtered[from:to] {
		items = append(items, summarize(&rec, users[rec.UserID]))
	}

	return &ListResult{Items: items, Total: total, Page: page, Size: size}, nil
}

func matchesQuery(rec *models.KYCVerification, user *models.User, qq string) bool {
	if user != nil {
		if strings.Contains(strings.ToLower(user.Name), qq) ||
			strings.Contains(strings.ToLower(user.Email), qq) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(rec.City), qq) ||
		strings.Contains(strings.ToLower(rec.State), qq)
}

func summarize(rec *models.KYCVerification, user *models.User) Summary {
	name, email := "Unknown", "N/A"
	if user != nil {
		name, email = user.Name, user.Email
	}
	return Summary{
		KycID:              rec.ID,
		UserID:             rec.UserID,
		UserName:           name,
		UserEmail:          email,
		AadhaarLast4:       MaskNumber(rec.AadhaarNumber),
		City:               rec.City,
		State:              rec.State,
		VerificationStatus: rec.VerificationStatus,
		RejectionReason:    rec.RejectionReason,
		CreatedAt:          rec.CreatedAt,
		VerifiedAt:         rec.VerifiedAt,
		VerifiedByAdmin:    rec.VerifiedByAdmin,
	}
}

// usersByID loads the owners of the given records in one query
func (s *Service) usersByID(recs []models.KYCVerification) (map[uint]*models.User, error) {
	ids := make([]uint, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.UserID)
	}
	out := make(map[uint]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var users []models.User
	if err := s.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, &StorageError{err}
	}
	for i := range users {
		out[users[i].ID] = &users[i]
	}
	return out, nil
}

// Details is the full admin view of one record, identity numbers masked
type Details struct {
	KycID                uint             `json:"kycId"`
	UserID               uint             `json:"userId"`
	UserName             string           `json:"userName"`
	UserEmail            string           `json:"userEmail"`
	UserPhone            string           `json:"userPhone"`
	AadhaarNumber        string           `json:"aadhaarNumber"`
	DrivingLicenseNumber string           `json:"drivingLicenseNumber"`
	LicenseExpiryDate    *time.Time       `json:"licenseExpiryDate,omitempty"`
	StreetAddress        string           `json:"streetAddress"`
	City                 string           `json:"city"`
	State                string           `json:"state"`
	Pincode              string           `json:"pincode"`
	VerificationStatus   models.KYCStatus `json:"verificationStatus"`
	RejectionReason      string           `json:"rejectionReason,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	VerifiedAt           *time.Time       `json:"verifiedAt,omitempty"`
	VerifiedByAdmin      *uint            `json:"verifiedByAdmin,omitempty"`
	KYCPDFURL            string           `json:"kycPdfUrl,omitempty"`
}

// RecordDetails returns the admin detail view for one record
func (s *Service) RecordDetails(recordID uint) (*Details, error) {
	rec, err := s.records.ByID(recordID)
	if err != nil {
		return nil, err
	}

	name, email, phone := "Unknown", "N/A", "N/A"
	if user, err := s.userByID(rec.UserID); err == nil {
		name, email, phone = user.Name, user.Email, user.Phone
	}

	return &Details{
		KycID:                rec.ID,
		UserID:               rec.UserID,
		UserName:             name,
		UserEmail:            email,
		UserPhone:            phone,
		AadhaarNumber:        MaskNumber(rec.AadhaarNumber),
		DrivingLicenseNumber: MaskNumber(rec.DrivingLicenseNumber),
		LicenseExpiryDate:    rec.LicenseExpiryDate,
		StreetAddress:        rec.StreetAddress,
		City:                 rec.City,
		State:                rec.State,
		Pincode:              rec.Pincode,
		VerificationStatus:   rec.VerificationStatus,
		RejectionReason:      rec.RejectionReason,
		CreatedAt:            rec.CreatedAt,
		VerifiedAt:           rec.VerifiedAt,
		VerifiedByAdmin:      rec.VerifiedByAdmin,
		KYCPDFURL:            rec.KYCPDFURL,
	}, nil
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
