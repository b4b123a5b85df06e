package onboarding

import (
	"context"
	"errors"
	"testing"
	"time"

	"brokerkyc/internal/domain"
	"brokerkyc/internal/extraction"
	"brokerkyc/internal/identity"
	"brokerkyc/internal/idgen"
	pkgerrors "brokerkyc/pkg/errors"
	"brokerkyc/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mocks

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) OnboardBatch(ctx context.Context, profile *domain.ClientProfile, opening *domain.Balance) error {
	args := m.Called(ctx, profile, opening)
	return args.Error(0)
}

func (m *MockRepository) FindByID(ctx context.Context, clientID string) (*domain.ClientProfile, error) {
	args := m.Called(ctx, clientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ClientProfile), args.Error(1)
}

func (m *MockRepository) UpdateKYCDates(ctx context.Context, clientID string, lastUpdated, expiry time.Time) error {
	args := m.Called(ctx, clientID, lastUpdated, expiry)
	return args.Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, selfie, idFront []byte, declaredName string) identity.Verification {
	args := m.Called(ctx, selfie, idFront, declaredName)
	return args.Get(0).(identity.Verification)
}

type MockTextExtractor struct {
	mock.Mock
}

func (m *MockTextExtractor) ExtractText(ctx context.Context, image []byte) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

const (
	idFrontText = "Government of India\nASHA PATEL\nDate of Birth: 05/06/1988"
	panCardText = "Income Tax Department\nABCDE1234F\n01/01/1990"
	idBackText  = "Address: 7, Lake Road,\nKolkata 700029"
)

var docs = Documents{
	Selfie:  []byte("selfie"),
	PANCard: []byte("pan"),
	IDFront: []byte("front"),
	IDBack:  []byte("back"),
}

func acceptedVerification() identity.Verification {
	return identity.Verification{Outcome: domain.Accepted(), IDFrontText: idFrontText}
}

func newTestService(repo *MockRepository, verifier *MockVerifier, ocr *MockTextExtractor) *Service {
	svc := NewService(verifier, ocr, extraction.NewRegexParser(), idgen.NewMemorySequence(), repo, domain.KYCValidityDays, logger.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestOnboardAccepted(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	verifier.On("Verify", mock.Anything, docs.Selfie, docs.IDFront, "Asha Patel").Return(acceptedVerification())
	ocr.On("ExtractText", mock.Anything, docs.PANCard).Return(panCardText, nil)
	ocr.On("ExtractText", mock.Anything, docs.IDBack).Return(idBackText, nil)
	repo.On("OnboardBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, verifier, ocr)
	result, err := svc.Onboard(context.Background(), OnboardRequest{
		DeclaredName:   "Asha Patel",
		OpeningDeposit: decimal.RequireFromString("75000"),
		Documents:      docs,
	})

	require.NoError(t, err)
	assert.True(t, result.Outcome.Accepted)
	require.NotNil(t, result.Profile)

	p := result.Profile
	assert.Equal(t, "CL1001", p.ClientID)
	assert.Equal(t, "ASHA PATEL", p.FullName)
	assert.Equal(t, "ABCDE1234F", p.PANNumber)
	assert.Equal(t, "XXXXXX234F", p.PANNumberMasked)
	// DOB prefers the ID front over the PAN card.
	assert.Equal(t, "05/06/1988", p.DateOfBirth)
	assert.Equal(t, "Address: 7, Lake Road, Kolkata 700029", p.Address)
	assert.Equal(t, "Medium", p.RiskCategory)
	assert.Equal(t, p.KYCLastUpdated.AddDate(0, 0, domain.KYCValidityDays), p.KYCExpiryDate)

	repo.AssertExpectations(t)
}

func TestOnboardSequentialClientIDs(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(acceptedVerification())
	ocr.On("ExtractText", mock.Anything, mock.Anything).Return("", nil)
	repo.On("OnboardBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, verifier, ocr)
	req := OnboardRequest{DeclaredName: "Asha Patel", Documents: docs}

	first, err := svc.Onboard(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Onboard(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "CL1001", first.Profile.ClientID)
	assert.Equal(t, "CL1002", second.Profile.ClientID)
}

func TestOnboardMissingRequiredDocument(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	svc := newTestService(repo, verifier, ocr)
	_, err := svc.Onboard(context.Background(), OnboardRequest{
		DeclaredName: "Asha Patel",
		Documents:    Documents{IDFront: []byte("front")},
	})

	assert.ErrorIs(t, err, pkgerrors.ErrMissingDocument)
	verifier.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOnboardHonorsConfiguredValidityWindow(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(acceptedVerification())
	ocr.On("ExtractText", mock.Anything, mock.Anything).Return("", nil)
	repo.On("OnboardBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := NewService(verifier, ocr, extraction.NewRegexParser(), idgen.NewMemorySequence(), repo, 100, logger.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC) }

	result, err := svc.Onboard(context.Background(), OnboardRequest{DeclaredName: "Asha Patel", Documents: docs})

	require.NoError(t, err)
	p := result.Profile
	assert.Equal(t, p.KYCLastUpdated.AddDate(0, 0, 100), p.KYCExpiryDate)
}

func TestOnboardRejectedStopsPipeline(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(identity.Verification{Outcome: domain.Rejected(domain.RejectFaceMismatch, "")})

	svc := newTestService(repo, verifier, ocr)
	result, err := svc.Onboard(context.Background(), OnboardRequest{DeclaredName: "Asha Patel", Documents: docs})

	require.NoError(t, err)
	assert.False(t, result.Outcome.Accepted)
	assert.Equal(t, domain.RejectFaceMismatch, result.Outcome.Reason)
	assert.Nil(t, result.Profile)
	repo.AssertNotCalled(t, "OnboardBatch", mock.Anything, mock.Anything, mock.Anything)
	ocr.AssertNotCalled(t, "ExtractText", mock.Anything, mock.Anything)
}

func TestOnboardUnreadableSupportingDocumentPropagatesAbsence(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(acceptedVerification())
	ocr.On("ExtractText", mock.Anything, docs.PANCard).Return("", errors.New("ocr timeout"))
	ocr.On("ExtractText", mock.Anything, docs.IDBack).Return("", errors.New("ocr timeout"))
	repo.On("OnboardBatch", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, verifier, ocr)
	result, err := svc.Onboard(context.Background(), OnboardRequest{DeclaredName: "Asha Patel", Documents: docs})

	require.NoError(t, err)
	require.NotNil(t, result.Profile)
	assert.Empty(t, result.Profile.Address)
	assert.Empty(t, result.Profile.PANNumber)
}

func TestOnboardPersistenceFailure(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(acceptedVerification())
	ocr.On("ExtractText", mock.Anything, mock.Anything).Return("", nil)
	repo.On("OnboardBatch", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("store unreachable"))

	svc := newTestService(repo, verifier, ocr)
	result, err := svc.Onboard(context.Background(), OnboardRequest{DeclaredName: "Asha Patel", Documents: docs})

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestOnboardOpeningBalancePersistedWithProfile(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	verifier.On("Verify", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(acceptedVerification())
	ocr.On("ExtractText", mock.Anything, mock.Anything).Return("", nil)
	repo.On("OnboardBatch", mock.Anything, mock.Anything, mock.MatchedBy(func(b *domain.Balance) bool {
		return b.ClientID == "CL1001" && b.Amount.Equal(decimal.RequireFromString("50000"))
	})).Return(nil)

	svc := newTestService(repo, verifier, ocr)
	_, err := svc.Onboard(context.Background(), OnboardRequest{
		DeclaredName:   "Asha Patel",
		OpeningDeposit: decimal.RequireFromString("50000"),
		Documents:      docs,
	})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRenewKYCUpdatesDatesOnly(t *testing.T) {
	repo := new(MockRepository)
	verifier := new(MockVerifier)
	ocr := new(MockTextExtractor)

	existing := &domain.ClientProfile{
		ClientID:       "CL1005",
		FullName:       "ASHA PATEL",
		KYCLastUpdated: time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC),
		KYCExpiryDate:  time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
	}
	repo.On("FindByID", mock.Anything, "CL1005").Return(existing, nil)
	repo.On("UpdateKYCDates", mock.Anything, "CL1005", mock.Anything, mock.Anything).Return(nil)

	svc := newTestService(repo, verifier, ocr)
	profile, err := svc.RenewKYC(context.Background(), "CL1005")

	require.NoError(t, err)
	assert.Equal(t, "ASHA PATEL", profile.FullName)
	assert.Equal(t, time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC), profile.KYCLastUpdated)
	assert.Equal(t, profile.KYCLastUpdated.AddDate(0, 0, domain.KYCValidityDays), profile.KYCExpiryDate)
	repo.AssertExpectations(t)
}
