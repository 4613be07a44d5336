package mailer

import (
	"errors"
	"fmt"
	"net/smtp"

	"github.com/kwick/backend/internal/config"
)

// ErrNotConfigured is returned when SMTP settings are absent; callers treat
// mail as a best-effort side channel and log this instead of failing.
var ErrNotConfigured = errors.New("mailer: smtp not configured")

// SMTPMailer sends workflow notices over plain SMTP
type SMTPMailer struct {
	cfg config.SMTPConfig
}

// NewSMTPMailer creates a mailer from config
func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// SubmissionNotice tells operations staff a new submission needs review
func (m *SMTPMailer) SubmissionNotice(userName, userEmail string, userID uint) error {
	subject := fmt.Sprintf("New KYC Submission - User ID: %d", userID)
	body := fmt.Sprintf(
		"User Details:\nName: %s\nEmail: %s\nUser ID: %d\n\n"+
			"A new KYC verification has been submitted. Please review and approve/reject.\n",
		userName, userEmail, userID)
	return m.send(m.cfg.OpsEmail, subject, body)
}

// ApprovalNotice tells the user their verification passed
func (m *SMTPMailer) ApprovalNotice(userName, userEmail string) error {
	subject := "KYC Verification Approved"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour KYC verification has been approved!\n"+
			"You can now access all features of the Kwick platform.\n\n"+
			"Best regards,\nThe Kwick Team\n",
		userName)
	return m.send(userEmail, subject, body)
}

// RejectionNotice tells the user to resubmit, with the reason
func (m *SMTPMailer) RejectionNotice(userName, userEmail, reason string) error {
	subject := "KYC Verification Status - Requires Resubmission"
	body := fmt.Sprintf(
		"Dear %s,\n\nYour KYC verification request has been reviewed and requires resubmission.\n\n"+
			"Reason: %s\n\n"+
			"Please log in and submit your documents again.\n\n"+
			"Best regards,\nThe Kwick Team\n",
		userName, reason)
	return m.send(userEmail, subject, body)
}

func (m *SMTPMailer) send(toEmail, subject, body string) error {
	if m.cfg.Host == "" || m.cfg.Username == "" || m.cfg.Password == "" {
		return ErrNotConfigured
	}

	msg := []byte(fmt.Sprintf("From: Kwick <%s>\nTo: %s\nSubject: %s\n\n%s",
		m.cfg.FromEmail, toEmail, subject, body))

	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)

	return smtp.SendMail(addr, auth, m.cfg.FromEmail, []string{toEmail}, msg)
}
