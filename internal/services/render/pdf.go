package render

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/kwick/backend/internal/models"
)

// PDFRenderer produces the verification summary document for a record
type PDFRenderer struct{}

// NewPDFRenderer returns a renderer with default layout
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// VerificationPDF renders the record + owner profile into a one-page PDF.
// Identity numbers are masked the same way API responses mask them.
func (r *PDFRenderer) VerificationPDF(kyc *models.KYCVerification, user *models.User) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "KYC Verification Document")
	pdf.Ln(14)

	// QR code linking back to the record in the admin console
	qrPng, err := qrcode.Encode(fmt.Sprintf("kwick://kyc/%d/user/%d", kyc.ID, kyc.UserID), qrcode.Low, 256)
	if err == nil {
		opts := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader("kyc_qr", opts, bytes.NewReader(qrPng))
		pdf.ImageOptions("kyc_qr", 165, 10, 30, 30, false, opts, 0, "")
	}

	section(pdf, "Personal Information")
	line(pdf, "Name:", user.Name)
	line(pdf, "Email:", user.Email)
	line(pdf, "Phone:", user.Phone)
	line(pdf, "Address:", kyc.StreetAddress)
	line(pdf, "City, State, Pincode:", fmt.Sprintf("%s, %s %s", kyc.City, kyc.State, kyc.Pincode))
	pdf.Ln(4)

	section(pdf, "Document Information")
	line(pdf, "Aadhaar Number:", maskNumber(kyc.AadhaarNumber))
	line(pdf, "Driving License Number:", maskNumber(kyc.DrivingLicenseNumber))
	expiry := "N/A"
	if kyc.LicenseExpiryDate != nil {
		expiry = kyc.LicenseExpiryDate.Format("2006-01-02")
	}
	line(pdf, "License Expiry Date:", expiry)
	pdf.Ln(4)

	section(pdf, "Uploaded Documents")
	for _, slot := range []models.DocumentSlot{
		models.SlotAadhaarFront, models.SlotAadhaarBack,
		models.SlotLicenseFront, models.SlotLicenseBack, models.SlotSelfie,
	} {
		doc := kyc.DocumentFor(slot)
		state := "missing"
		if doc.URL != "" {
			state = fmt.Sprintf("%s (%d bytes)", doc.Filename, doc.Size)
		}
		line(pdf, string(slot)+":", state)
	}
	pdf.Ln(4)

	section(pdf, "Verification Status")
	line(pdf, "Status:", string(kyc.VerificationStatus))
	if kyc.VerificationStatus == models.KYCStatusRejected && kyc.RejectionReason != "" {
		line(pdf, "Rejection Reason:", kyc.RejectionReason)
	}
	if kyc.VerifiedAt != nil {
		line(pdf, "Verified On:", kyc.VerifiedAt.Format("2006-01-02 15:04:05"))
	}
	if !kyc.CreatedAt.IsZero() {
		line(pdf, "Submitted On:", kyc.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render verification pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, title)
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
}

func line(pdf *gofpdf.Fpdf, label, value string) {
	if value == "" {
		value = "N/A"
	}
	pdf.Cell(0, 6, label+" "+value)
	pdf.Ln(6)
}

func maskNumber(number string) string {
	if number == "" {
		return "N/A"
	}
	if len(number) <= 4 {
		return number
	}
	return "****" + number[len(number)-4:]
}
