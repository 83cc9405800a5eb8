package application

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RentalBee/service-rental/internal/common/domain"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUserRepo, *recordingNotifier, *userDomain.User) {
	t.Helper()
	u, err := userDomain.NewClient("jane@example.com", "Jane", "Doe", "hash")
	require.NoError(t, err)
	repo := newFakeUserRepo(u)
	notifier := &recordingNotifier{}
	svc := NewUserService(repo, notifier, nopLogger())
	svc.now = fixedClock
	return svc, repo, notifier, u
}

func TestUpdatePersonalInfo(t *testing.T) {
	svc, _, _, u := newUserFixture(t)
	phone := "+49 30 1234"
	empty := " "

	dto, err := svc.UpdatePersonalInfo(context.Background(), u.ID, UpdatePersonalInfoRequest{
		Phone:   &phone,
		Address: &userDomain.Address{City: "Berlin", Country: "DE"},
	})
	require.NoError(t, err)
	assert.Equal(t, phone, dto.Phone)
	assert.Equal(t, "Berlin", dto.Address.City)
	assert.Equal(t, "Jane", dto.FirstName)

	_, err = svc.UpdatePersonalInfo(context.Background(), u.ID, UpdatePersonalInfoRequest{FirstName: &empty})
	assert.True(t, domain.IsKind(err, domain.KindValidation))

	_, err = svc.GetPersonalInfo(context.Background(), uuid.New())
	assert.True(t, domain.IsKind(err, domain.KindNotFound))
}

func TestDocumentVerificationFlow(t *testing.T) {
	svc, _, notifier, u := newUserFixture(t)
	ctx := context.Background()
	agent := uuid.New()

	_, err := svc.SetDocumentStatus(ctx, u.ID, "drivingLicense", SetDocumentStatusRequest{Status: "VERIFIED"}, agent)
	assert.Equal(t, "DOCUMENT_MISSING", domain.CodeOf(err))

	_, err = svc.UploadDocument(ctx, u.ID, "aadhaarCard", UploadDocumentRequest{DocumentURL: "https://files/id.png"})
	require.NoError(t, err)
	_, err = svc.UploadDocument(ctx, u.ID, "drivingLicense", UploadDocumentRequest{DocumentURL: "https://files/dl.png"})
	require.NoError(t, err)

	docs, err := svc.SetDocumentStatus(ctx, u.ID, "identity", SetDocumentStatusRequest{Status: "VERIFIED"}, agent)
	require.NoError(t, err)
	assert.Equal(t, "UNVERIFIED", docs.VerificationStatus)
	docs, err = svc.SetDocumentStatus(ctx, u.ID, "license", SetDocumentStatusRequest{Status: "VERIFIED"}, agent)
	require.NoError(t, err)
	assert.Equal(t, "VERIFIED", docs.VerificationStatus)
	assert.Equal(t, []string{"Document Verified", "Document Verified"}, notifier.titles())

	// a new upload needs a new review
	docs, err = svc.UploadDocument(ctx, u.ID, "license", UploadDocumentRequest{DocumentURL: "https://files/dl2.png"})
	require.NoError(t, err)
	assert.Equal(t, "UNVERIFIED", docs.VerificationStatus)
	assert.Equal(t, userDomain.Verified, docs.IdentityDocument.Status)

	_, err = svc.UploadDocument(ctx, u.ID, "passport", UploadDocumentRequest{DocumentURL: "https://files/p.png"})
	assert.True(t, domain.IsKind(err, domain.KindValidation))
}

func TestGetDocuments_ReconcilesStaleStatus(t *testing.T) {
	svc, repo, _, u := newUserFixture(t)
	u.LicenseDocument.Status = userDomain.Verified

	docs, err := svc.GetDocuments(context.Background(), u.ID)
	require.NoError(t, err)
	assert.Equal(t, userDomain.Unverified, docs.LicenseDocument.Status)
	assert.Equal(t, 1, repo.updates)
}
