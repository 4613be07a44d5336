package kyc

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwick/backend/internal/models"
	"github.com/kwick/backend/internal/storage"
)

func newDiskEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	env.service = NewService(env.db, blobs, env.renderer, env.mailer, env.publisher)
	return env
}

func TestFetchDocumentRejectsTraversal(t *testing.T) {
	env := newDiskEnv(t)

	for _, name := range []string{
		"../../secret.txt",
		"..%2F..%2Fsecret.txt",
		"nested/secret.txt",
	} {
		content, err := env.service.FetchDocument(42, "aadhaar", name)
		assert.ErrorIs(t, err, ErrPathTraversal, "filename %q", name)
		assert.Nil(t, content)
	}
}

func TestFetchDocumentRejectsUnknownCategory(t *testing.T) {
	env := newDiskEnv(t)

	for _, docType := range []string{"..", ".", "passport", "aadhaar/.."} {
		content, err := env.service.FetchDocument(42, docType, "scan.jpg")
		assert.ErrorIs(t, err, ErrPathTraversal, "docType %q", docType)
		assert.Nil(t, content)
	}
}

func TestFetchDocumentMissingFileYieldsPlaceholder(t *testing.T) {
	env := newDiskEnv(t)

	content, err := env.service.FetchDocument(42, "aadhaar", "nothing-here.jpg")
	require.NoError(t, err)
	assert.True(t, content.Placeholder)
	assert.Equal(t, "image/png", content.ContentType)
	assert.NotEmpty(t, content.Data)
	// PNG signature.
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, content.Data[:4])
}

func TestFetchDocumentServesStoredBytes(t *testing.T) {
	env := newDiskEnv(t)

	meta := FileMeta{Filename: "front.jpg", ContentType: "image/jpeg", Size: 9}
	locator, err := env.service.UploadDocument(42, models.SlotAadhaarFront, meta, strings.NewReader("jpegbytes"))
	require.NoError(t, err)

	stored := filepath.Base(locator)
	content, err := env.service.FetchDocument(42, "aadhaar", stored)
	require.NoError(t, err)
	assert.False(t, content.Placeholder)
	assert.Equal(t, []byte("jpegbytes"), content.Data)
	assert.Contains(t, content.ContentType, "image/jpeg")
}

func TestFetchDocumentDecodesEncodedFilename(t *testing.T) {
	env := newDiskEnv(t)

	base := env.service.blobs.BaseDir()
	dir := filepath.Join(base, "kyc", "42", "selfie")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "my photo.png"), []byte("pngbytes"), 0o644))

	content, err := env.service.FetchDocument(42, "selfie", "my%20photo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("pngbytes"), content.Data)
	assert.Contains(t, content.ContentType, "image/png")
}

func TestGeneratedDocumentServesPersistedPDF(t *testing.T) {
	env := newDiskEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	_, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)

	data, err := env.service.GeneratedDocument(42)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestGeneratedDocumentRendersWhenArtifactAbsent(t *testing.T) {
	env := newDiskEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")
	env.renderer.fail = true

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)
	require.Empty(t, rec.KYCPDFURL)

	env.renderer.fail = false
	data, err := env.service.GeneratedDocumentByRecord(rec.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}

func TestGeneratedDocumentMissingRecord(t *testing.T) {
	env := newDiskEnv(t)

	_, err := env.service.GeneratedDocument(404)
	assert.ErrorIs(t, err, ErrNotFound)
}
