package kyc

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kwick/backend/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled :memory: handle would open a second, empty database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.KYCVerification{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, id uint, name, email string) *models.User {
	t.Helper()
	user := &models.User{ID: id, Name: name, Email: email}
	require.NoError(t, db.Create(user).Error)
	return user
}

// fakeBlobStore keeps blobs in memory and records every store call
type fakeBlobStore struct {
	mu      sync.Mutex
	baseDir string
	stored  []storedBlob
	failErr error
}

type storedBlob struct {
	subpath  string
	filename string
	data     []byte
}

func (f *fakeBlobStore) Store(subpath, filename string, r io.Reader) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return "", f.failErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.stored = append(f.stored, storedBlob{subpath, filename, data})
	return subpath + "/" + filename, nil
}

func (f *fakeBlobStore) BaseDir() string {
	if f.baseDir == "" {
		return "testdata-uploads"
	}
	return f.baseDir
}

func (f *fakeBlobStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}

type fakeRenderer struct {
	fail bool
}

func (f *fakeRenderer) VerificationPDF(*models.KYCVerification, *models.User) ([]byte, error) {
	if f.fail {
		return nil, fmt.Errorf("renderer down")
	}
	return []byte("%PDF-1.4 fake"), nil
}

type fakeMailer struct {
	mu          sync.Mutex
	submissions []string
	approvals   []string
	rejections  []string
	fail        bool
}

func (f *fakeMailer) SubmissionNotice(name, email string, userID uint) error {
	return f.record(&f.submissions, email)
}

func (f *fakeMailer) ApprovalNotice(name, email string) error {
	return f.record(&f.approvals, email)
}

func (f *fakeMailer) RejectionNotice(name, email, reason string) error {
	return f.record(&f.rejections, email+":"+reason)
}

func (f *fakeMailer) record(dst *[]string, entry string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("smtp down")
	}
	*dst = append(*dst, entry)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []string
}

func (f *fakePublisher) KYCStatus(kycID, userID uint, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fmt.Sprintf("%d/%d/%s", kycID, userID, status))
}

type testEnv struct {
	db        *gorm.DB
	blobs     *fakeBlobStore
	renderer  *fakeRenderer
	mailer    *fakeMailer
	publisher *fakePublisher
	service   *Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		db:        newTestDB(t),
		blobs:     &fakeBlobStore{},
		renderer:  &fakeRenderer{},
		mailer:    &fakeMailer{},
		publisher: &fakePublisher{},
	}
	env.service = NewService(env.db, env.blobs, env.renderer, env.mailer, env.publisher)
	return env
}

func validDetails() SubmissionDetails {
	return SubmissionDetails{
		AadhaarNumber: "123456789012",
		LicenseNumber: "DL0420211234567",
		Address:       "12 Gandhi Road",
		City:          "Pune",
		State:         "Maharashtra",
		Pincode:       "411001",
	}
}

func TestUploadDocumentStoresIntoSlot(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	meta := FileMeta{Filename: "front.jpg", ContentType: "image/jpeg", Size: 1024}
	locator, err := env.service.UploadDocument(42, models.SlotAadhaarFront, meta, strings.NewReader("jpegbytes"))
	require.NoError(t, err)
	assert.Equal(t, "kyc/42/aadhaar/front.jpg", locator)

	rec, err := env.service.Records().ByUser(42)
	require.NoError(t, err)
	doc := rec.DocumentFor(models.SlotAadhaarFront)
	assert.Equal(t, locator, doc.URL)
	assert.Equal(t, "front.jpg", doc.Filename)
	assert.Equal(t, "image/jpeg", doc.ContentType)
	assert.Equal(t, int64(1024), doc.Size)
	assert.Equal(t, models.KYCStatusIncomplete, rec.VerificationStatus)
}

func TestUploadDocumentSlotWritesAreDisjoint(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.UploadDocument(7, models.SlotAadhaarFront, FileMeta{Filename: "a.jpg", ContentType: "image/jpeg", Size: 10}, strings.NewReader("a"))
	require.NoError(t, err)
	_, err = env.service.UploadDocument(7, models.SlotSelfie, FileMeta{Filename: "s.png", ContentType: "image/png", Size: 20}, strings.NewReader("s"))
	require.NoError(t, err)

	rec, err := env.service.Records().ByUser(7)
	require.NoError(t, err)
	assert.NotEmpty(t, rec.AadhaarFrontURL)
	assert.NotEmpty(t, rec.SelfieURL)
	assert.Empty(t, rec.LicenseFrontURL)
	assert.Empty(t, rec.AadhaarBackURL)
}

func TestUploadDocumentRejectsBeforeStorage(t *testing.T) {
	cases := []struct {
		name string
		meta FileMeta
	}{
		{"empty file", FileMeta{Filename: "a.jpg", ContentType: "image/jpeg", Size: 0}},
		{"oversized file", FileMeta{Filename: "a.jpg", ContentType: "image/jpeg", Size: 6 * 1024 * 1024}},
		{"wrong type", FileMeta{Filename: "a.gif", ContentType: "image/gif", Size: 100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)

			_, err := env.service.UploadDocument(1, models.SlotSelfie, tc.meta, bytes.NewReader(make([]byte, 8)))
			var fileErr *FileError
			require.ErrorAs(t, err, &fileErr)

			// Validation precedes any store interaction.
			assert.Zero(t, env.blobs.calls())

			// And no record is materialized for a rejected upload.
			_, err = env.service.Records().ByUser(1)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSubmitForReviewValidatesFieldsInOrder(t *testing.T) {
	env := newTestEnv(t)

	order := []string{"aadhaarNumber", "licenseNumber", "address", "city", "state", "pincode"}
	for i, field := range order {
		details := validDetails()
		switch i {
		case 0:
			details.AadhaarNumber = " "
		case 1:
			details.LicenseNumber = ""
		case 2:
			details.Address = ""
		case 3:
			details.City = ""
		case 4:
			details.State = ""
		case 5:
			details.Pincode = ""
		}
		_, err := env.service.SubmitForReview(5, details)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, field, validationErr.Field)
		assert.Equal(t, field+" is required", err.Error())
	}
}

func TestSubmitForReviewMovesToPendingAndFiresSideEffects(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusPending, rec.VerificationStatus)

	var user models.User
	require.NoError(t, env.db.First(&user, 42).Error)
	assert.Equal(t, models.KYCStatusPending, user.KYCStatus)

	// PDF rendered and persisted through the blob store.
	stored, err := env.service.Records().ByUser(42)
	require.NoError(t, err)
	assert.NotEmpty(t, stored.KYCPDFURL)
	assert.Equal(t, 1, env.blobs.calls())

	assert.Equal(t, []string{"asha@example.com"}, env.mailer.submissions)
}

func TestSubmitForReviewSurvivesSideEffectFailures(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")
	env.renderer.fail = true
	env.mailer.fail = true

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusPending, rec.VerificationStatus)

	stored, err := env.service.Records().ByUser(42)
	require.NoError(t, err)
	assert.Empty(t, stored.KYCPDFURL)
}

func TestSubmitForReviewWithoutUserStillStandsButSkipsSideEffects(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.service.SubmitForReview(99, validDetails())
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusPending, rec.VerificationStatus)
	assert.Empty(t, env.mailer.submissions)
	assert.Zero(t, env.blobs.calls())
}

func TestResubmissionAfterRejectionClearsDecision(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)

	_, err = env.service.Decide(1, rec.ID, VerdictReject, "blurry scan")
	require.NoError(t, err)

	rec, err = env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusPending, rec.VerificationStatus)
	assert.Empty(t, rec.RejectionReason)
	assert.Nil(t, rec.VerifiedByAdmin)
	assert.Nil(t, rec.VerifiedAt)
}

func TestGetStatusAutoProvisions(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.service.GetStatus(11)
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusIncomplete, rec.VerificationStatus)
	assert.Equal(t, uint(11), rec.UserID)

	again, err := env.service.GetStatus(11)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, again.ID)

	n, err := env.service.Records().Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestFirstTouchThroughDifferentPathsYieldsOneRecord(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _ = env.service.GetStatus(42)
			} else {
				meta := FileMeta{Filename: "f.jpg", ContentType: "image/jpeg", Size: 8}
				_, _ = env.service.UploadDocument(42, models.SlotSelfie, meta, strings.NewReader("x"))
			}
		}(i)
	}
	wg.Wait()

	n, err := env.service.Records().Count()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestDecideApproveStampsAndSyncs(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)

	before := time.Now().Add(-time.Second)
	decided, err := env.service.Decide(7, rec.ID, VerdictApprove, "")
	require.NoError(t, err)

	assert.Equal(t, models.KYCStatusApproved, decided.VerificationStatus)
	require.NotNil(t, decided.VerifiedByAdmin)
	assert.Equal(t, uint(7), *decided.VerifiedByAdmin)
	require.NotNil(t, decided.VerifiedAt)
	assert.True(t, decided.VerifiedAt.After(before))
	assert.Empty(t, decided.RejectionReason)

	var user models.User
	require.NoError(t, env.db.First(&user, 42).Error)
	assert.Equal(t, models.KYCStatusApproved, user.KYCStatus)

	assert.Equal(t, []string{"asha@example.com"}, env.mailer.approvals)
	assert.Equal(t, []string{fmt.Sprintf("%d/42/approved", rec.ID)}, env.publisher.events)
}

func TestDecideRejectDefaultsReason(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)

	decided, err := env.service.Decide(7, rec.ID, VerdictReject, "   ")
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusRejected, decided.VerificationStatus)
	assert.Equal(t, DefaultRejectionReason, decided.RejectionReason)
	assert.Equal(t, []string{"asha@example.com:" + DefaultRejectionReason}, env.mailer.rejections)
}

func TestDecideIsIdempotentForSameVerdict(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)

	_, err = env.service.Decide(7, rec.ID, VerdictApprove, "")
	require.NoError(t, err)

	again, err := env.service.Decide(8, rec.ID, VerdictApprove, "")
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusApproved, again.VerificationStatus)
	require.NotNil(t, again.VerifiedByAdmin)
	assert.Equal(t, uint(8), *again.VerifiedByAdmin)
}

func TestDecideRefusesOutOfMachineTransitions(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	// Deciding an incomplete record.
	rec, err := env.service.GetStatus(42)
	require.NoError(t, err)
	_, err = env.service.Decide(7, rec.ID, VerdictApprove, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Flipping approved to rejected.
	_, err = env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)
	_, err = env.service.Decide(7, rec.ID, VerdictApprove, "")
	require.NoError(t, err)
	_, err = env.service.Decide(7, rec.ID, VerdictReject, "changed my mind")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApprovedRecordIsTerminalForSubject(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)
	_, err = env.service.Decide(7, rec.ID, VerdictApprove, "")
	require.NoError(t, err)

	// Resubmission is refused and the decision metadata survives.
	_, err = env.service.SubmitForReview(42, validDetails())
	assert.ErrorIs(t, err, ErrInvalidTransition)

	stored, err := env.service.Records().ByUser(42)
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusApproved, stored.VerificationStatus)
	assert.NotNil(t, stored.VerifiedByAdmin)
	assert.NotNil(t, stored.VerifiedAt)

	// Slot writes are refused too, before the blob store is touched.
	stores := env.blobs.calls()
	meta := FileMeta{Filename: "late.jpg", ContentType: "image/jpeg", Size: 8}
	_, err = env.service.UploadDocument(42, models.SlotSelfie, meta, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, stores, env.blobs.calls())

	again, err := env.service.Records().ByUser(42)
	require.NoError(t, err)
	assert.Empty(t, again.SelfieURL)
}

func TestRejectedRecordAcceptsResubmission(t *testing.T) {
	env := newTestEnv(t)
	seedUser(t, env.db, 42, "Asha", "asha@example.com")

	rec, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)
	_, err = env.service.Decide(7, rec.ID, VerdictReject, "blurry")
	require.NoError(t, err)

	meta := FileMeta{Filename: "retake.jpg", ContentType: "image/jpeg", Size: 8}
	_, err = env.service.UploadDocument(42, models.SlotSelfie, meta, strings.NewReader("x"))
	require.NoError(t, err)

	again, err := env.service.SubmitForReview(42, validDetails())
	require.NoError(t, err)
	assert.Equal(t, models.KYCStatusPending, again.VerificationStatus)
}

func TestStaleReadCannotClobberOtherSlot(t *testing.T) {
	env := newTestEnv(t)

	// Two copies of the record read before either write, as two
	// interleaved uploads would see it.
	first, err := env.service.Records().EnsureForUser(9)
	require.NoError(t, err)
	second, err := env.service.Records().ByUser(9)
	require.NoError(t, err)

	first.SetDocument(models.SlotAadhaarFront, models.Document{URL: "kyc/9/aadhaar/a.jpg", Filename: "a.jpg", ContentType: "image/jpeg", Size: 10})
	require.NoError(t, env.service.Records().SaveDocument(first, models.SlotAadhaarFront))

	second.SetDocument(models.SlotSelfie, models.Document{URL: "kyc/9/selfie/s.png", Filename: "s.png", ContentType: "image/png", Size: 20})
	require.NoError(t, env.service.Records().SaveDocument(second, models.SlotSelfie))

	stored, err := env.service.Records().ByUser(9)
	require.NoError(t, err)
	assert.Equal(t, "kyc/9/aadhaar/a.jpg", stored.AadhaarFrontURL, "aadhaar-front slot lost")
	assert.Equal(t, "kyc/9/selfie/s.png", stored.SelfieURL)
}

func TestDecideMissingRecordAndOwner(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Decide(7, 999, VerdictApprove, "")
	assert.ErrorIs(t, err, ErrNotFound)

	// Record exists but its owner does not.
	rec, err := env.service.SubmitForReview(50, validDetails())
	require.NoError(t, err)
	_, err = env.service.Decide(7, rec.ID, VerdictApprove, "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
