package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kwick/backend/internal/models"
	"github.com/kwick/backend/internal/services/kyc"
)

// ErrorResponse is the uniform error payload
type ErrorResponse struct {
	Error string `json:"error"`
}

// UploadResponse acknowledges a stored document
type UploadResponse struct {
	Message string `json:"message"`
	URL     string `json:"url"`
}

// SubmitResponse acknowledges a submission moved to pending
type SubmitResponse struct {
	Message string `json:"message"`
	KycID   uint   `json:"kycId"`
	UserID  uint   `json:"userId"`
}

// StatusResponse is the subject's own view of their record, identity
// numbers masked
type StatusResponse struct {
	Status          models.KYCStatus `json:"status"`
	KycID           uint             `json:"kycId"`
	AadhaarNumber   string           `json:"aadhaarNumber"`
	LicenseNumber   string           `json:"licenseNumber"`
	Address         string           `json:"address"`
	City            string           `json:"city"`
	State           string           `json:"state"`
	Pincode         string           `json:"pincode"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
}

// SubmitRequest carries the personal details of a submission
type SubmitRequest struct {
	AadhaarNumber     string `json:"aadhaarNumber"`
	LicenseNumber     string `json:"licenseNumber"`
	Address           string `json:"address"`
	City              string `json:"city"`
	State             string `json:"state"`
	Pincode           string `json:"pincode"`
	LicenseExpiryDate string `json:"licenseExpiryDate"`
}

// KYCHandler handles the subject-facing verification endpoints
type KYCHandler struct {
	service *kyc.Service
}

// NewKYCHandler creates a new KYC handler
func NewKYCHandler(service *kyc.Service) *KYCHandler {
	return &KYCHandler{service: service}
}

// currentUserID reads the authenticated subject from the gin context
func currentUserID(c *gin.Context) (uint, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// UploadDocument stores one document into the slot named by the path
func (h *KYCHandler) UploadDocument(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{"Unauthorized"})
		return
	}

	slot, ok := models.ParseDocumentSlot(c.Param("slot"))
	if !ok {
		c.JSON(http.StatusBadRequest, ErrorResponse{"Unknown document type"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{"No file uploaded"})
		return
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{"No file uploaded"})
		return
	}
	defer file.Close()

	meta := kyc.FileMeta{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}

	locator, err := h.service.UploadDocument(userID, slot, meta, file)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Message: "Document uploaded successfully",
		URL:     locator,
	})
}

// SubmitKYC records personal details and moves the record to pending
func (h *KYCHandler) SubmitKYC(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{"Unauthorized"})
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{"Invalid request body"})
		return
	}

	details := kyc.SubmissionDetails{
		AadhaarNumber: req.AadhaarNumber,
		LicenseNumber: req.LicenseNumber,
		Address:       req.Address,
		City:          req.City,
		State:         req.State,
		Pincode:       req.Pincode,
	}
	if req.LicenseExpiryDate != "" {
		if expiry, err := time.Parse("2006-01-02", req.LicenseExpiryDate); err == nil {
			details.LicenseExpiryDate = &expiry
		}
	}

	rec, err := h.service.SubmitForReview(userID, details)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SubmitResponse{
		Message: "KYC submitted for verification",
		KycID:   rec.ID,
		UserID:  rec.UserID,
	})
}

// GetStatus returns the subject's record, creating a fresh incomplete one
// on first read
func (h *KYCHandler) GetStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{"Unauthorized"})
		return
	}

	rec, err := h.service.GetStatus(userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Status:          rec.VerificationStatus,
		KycID:           rec.ID,
		AadhaarNumber:   kyc.MaskNumber(rec.AadhaarNumber),
		LicenseNumber:   kyc.MaskNumber(rec.DrivingLicenseNumber),
		Address:         rec.StreetAddress,
		City:            rec.City,
		State:           rec.State,
		Pincode:         rec.Pincode,
		RejectionReason: rec.RejectionReason,
	})
}

// DownloadPDF serves the subject's verification PDF
func (h *KYCHandler) DownloadPDF(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{"Unauthorized"})
		return
	}

	data, err := h.service.GeneratedDocument(userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="kyc_verification.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}

// ServeFile serves an uploaded document. Subjects may only read their own
// files; admins may read anyone's.
func (h *KYCHandler) ServeFile(c *gin.Context) {
	callerID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{"Unauthorized"})
		return
	}

	ownerID, err := strconv.ParseUint(c.Param("userId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{"Invalid user ID"})
		return
	}

	if uint(ownerID) != callerID && !c.GetBool("is_admin") {
		c.JSON(http.StatusForbidden, ErrorResponse{"forbidden"})
		return
	}

	content, err := h.service.FetchDocument(uint(ownerID), c.Param("docType"), c.Param("filename"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.Data(http.StatusOK, content.ContentType, content.Data)
}

// writeServiceError maps engine errors onto HTTP statuses. Messages stay
// generic; filesystem details never leave the engine.
func writeServiceError(c *gin.Context, err error) {
	var validationErr *kyc.ValidationError
	var fileErr *kyc.FileError

	switch {
	case errors.As(err, &validationErr), errors.As(err, &fileErr):
		c.JSON(http.StatusBadRequest, ErrorResponse{err.Error()})
	case errors.Is(err, kyc.ErrPathTraversal):
		c.JSON(http.StatusForbidden, ErrorResponse{"forbidden"})
	case errors.Is(err, kyc.ErrNotFound), errors.Is(err, kyc.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{err.Error()})
	case errors.Is(err, kyc.ErrInvalidTransition):
		c.JSON(http.StatusConflict, ErrorResponse{err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{"Internal server error"})
	}
}
