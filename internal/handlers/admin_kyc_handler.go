package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kwick/backend/internal/models"
	"github.com/kwick/backend/internal/services/kyc"
)

// DecideRequest carries an optional rejection reason
type DecideRequest struct {
	Reason string `json:"reason"`
}

// DecideResponse summarizes an applied verdict
type DecideResponse struct {
	Message         string           `json:"message"`
	KycID           uint             `json:"kycId"`
	UserID          uint             `json:"userId"`
	Status          models.KYCStatus `json:"status"`
	RejectionReason string           `json:"rejectionReason,omitempty"`
}

// AdminKYCHandler handles the review-queue endpoints
type AdminKYCHandler struct {
	service *kyc.Service
}

// NewAdminKYCHandler creates a new admin KYC handler
func NewAdminKYCHandler(service *kyc.Service) *AdminKYCHandler {
	return &AdminKYCHandler{service: service}
}

// List returns a filtered, paginated page of the review queue
func (h *AdminKYCHandler) List(c *gin.Context) {
	status := c.DefaultQuery("status", "pending")
	q := c.Query("q")
	page, err := strconv.Atoi(c.DefaultQuery("page", "0"))
	if err != nil || page < 0 {
		page = 0
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 {
		size = 20
	}

	result, err := h.service.ListForAdmin(status, q, page, size)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Details returns the full view of one record
func (h *AdminKYCHandler) Details(c *gin.Context) {
	recordID, ok := recordParam(c)
	if !ok {
		return
	}

	details, err := h.service.RecordDetails(recordID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// Approve marks a record approved
func (h *AdminKYCHandler) Approve(c *gin.Context) {
	h.decide(c, kyc.VerdictApprove)
}

// Reject marks a record rejected, defaulting the reason when absent
func (h *AdminKYCHandler) Reject(c *gin.Context) {
	h.decide(c, kyc.VerdictReject)
}

func (h *AdminKYCHandler) decide(c *gin.Context, verdict kyc.Verdict) {
	adminID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{"Unauthorized"})
		return
	}

	recordID, ok := recordParam(c)
	if !ok {
		return
	}

	var req DecideRequest
	if verdict == kyc.VerdictReject {
		// Reason is optional; an empty body is fine.
		_ = c.ShouldBindJSON(&req)
	}

	rec, err := h.service.Decide(adminID, recordID, verdict, req.Reason)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, DecideResponse{
		Message:         fmt.Sprintf("KYC %s", rec.VerificationStatus),
		KycID:           rec.ID,
		UserID:          rec.UserID,
		Status:          rec.VerificationStatus,
		RejectionReason: rec.RejectionReason,
	})
}

// RecordPDF serves the verification PDF for one record
func (h *AdminKYCHandler) RecordPDF(c *gin.Context) {
	recordID, ok := recordParam(c)
	if !ok {
		return
	}

	data, err := h.service.GeneratedDocumentByRecord(recordID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="kyc_%d.pdf"`, recordID))
	c.Data(http.StatusOK, "application/pdf", data)
}

func recordParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("kycId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{"Invalid KYC ID"})
		return 0, false
	}
	return uint(id), true
}
