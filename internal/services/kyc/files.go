package kyc

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// FileContent is a resolved document ready to be written to a response
type FileContent struct {
	Data        []byte
	ContentType string
	Placeholder bool
}

var documentCategories = map[string]bool{
	"aadhaar": true,
	"license": true,
	"selfie":  true,
}

// FetchDocument resolves an uploaded document from disk. The category must
// be one of the known storage subdirectories and the filename is
// URL-decoded before the traversal check so an encoded "../" cannot slip
// through; anything that escapes the per-user directory is refused.
// A missing file yields the placeholder image rather than an error.
func (s *Service) FetchDocument(userID uint, docType, filename string) (*FileContent, error) {
	if !documentCategories[docType] {
		return nil, ErrPathTraversal
	}

	decoded, err := url.PathUnescape(filename)
	if err != nil {
		decoded = filename
	}

	base := filepath.Join(s.blobs.BaseDir(), "kyc", fmt.Sprint(userID), docType)
	resolved := filepath.Join(base, decoded)
	if filepath.Dir(resolved) != filepath.Clean(base) {
		return nil, ErrPathTraversal
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return &FileContent{
				Data:        placeholderPNG(),
				ContentType: "image/png",
				Placeholder: true,
			}, nil
		}
		return nil, &StorageError{err}
	}

	return &FileContent{Data: data, ContentType: contentTypeFor(decoded, data)}, nil
}

func contentTypeFor(name string, data []byte) string {
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}

// GeneratedDocument returns the subject's verification PDF. The persisted
// copy is served when present; otherwise the PDF is rendered on the fly
// from the current record so the download never depends on the best-effort
// side effect having succeeded.
func (s *Service) GeneratedDocument(userID uint) ([]byte, error) {
	rec, err := s.records.ByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.documentFor(rec.KYCPDFURL, userID)
}

// GeneratedDocumentByRecord is the admin variant, addressed by record ID
func (s *Service) GeneratedDocumentByRecord(recordID uint) ([]byte, error) {
	rec, err := s.records.ByID(recordID)
	if err != nil {
		return nil, err
	}
	return s.documentFor(rec.KYCPDFURL, rec.UserID)
}

func (s *Service) documentFor(locator string, userID uint) ([]byte, error) {
	if locator != "" {
		path := filepath.Join(s.blobs.BaseDir(), filepath.FromSlash(locator))
		if data, err := os.ReadFile(path); err == nil {
			return data, nil
		}
	}

	rec, err := s.records.ByUser(userID)
	if err != nil {
		return nil, err
	}
	user, err := s.userByID(userID)
	if err != nil {
		return nil, err
	}
	data, err := s.renderer.VerificationPDF(rec, user)
	if err != nil {
		return nil, fmt.Errorf("render verification pdf: %w", err)
	}
	return data, nil
}
