// Package onboarding runs the client onboarding pipeline: identity
// verification as the gate, field extraction across the submitted documents,
// and the atomic write of the canonical profile with its opening balance.
package onboarding

import (
	"context"
	"time"

	"brokerkyc/internal/domain"
	"brokerkyc/internal/extraction"
	"brokerkyc/internal/identity"
	"brokerkyc/internal/idgen"
	"brokerkyc/pkg/errors"
	"brokerkyc/pkg/logger"

	"github.com/shopspring/decimal"
)

// Repository is the persistence boundary for onboarding. OnboardBatch must
// write the profile and its opening balance all-or-nothing; the service
// never performs partial commits.
type Repository interface {
	OnboardBatch(ctx context.Context, profile *domain.ClientProfile, opening *domain.Balance) error
	FindByID(ctx context.Context, clientID string) (*domain.ClientProfile, error)
	UpdateKYCDates(ctx context.Context, clientID string, lastUpdated, expiry time.Time) error
}

// IdentityVerifier gates onboarding on the applicant's identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, selfie, idFront []byte, declaredName string) identity.Verification
}

// Documents are the four images an applicant submits. They are owned by the
// caller and never persisted here.
type Documents struct {
	Selfie  []byte
	PANCard []byte
	IDFront []byte
	IDBack  []byte
}

type OnboardRequest struct {
	DeclaredName   string `validate:"required,min=3,max=120"`
	OpeningDeposit decimal.Decimal
	Documents      Documents
}

// Result is the terminal outcome of one onboarding attempt. Profile is set
// only when the applicant was accepted and persisted.
type Result struct {
	Outcome domain.VerificationOutcome `json:"outcome"`
	Profile *domain.ClientProfile      `json:"profile,omitempty"`
}

type Service struct {
	verifier     IdentityVerifier
	ocr          identity.TextExtractor
	parser       extraction.FieldParser
	sequence     idgen.Sequence
	repo         Repository
	validityDays int
	logger       logger.Logger
	now          func() time.Time
}

func NewService(
	verifier IdentityVerifier,
	ocr identity.TextExtractor,
	parser extraction.FieldParser,
	sequence idgen.Sequence,
	repo Repository,
	validityDays int,
	log logger.Logger,
) *Service {
	return &Service{
		verifier:     verifier,
		ocr:          ocr,
		parser:       parser,
		sequence:     sequence,
		repo:         repo,
		validityDays: validityDays,
		logger:       log,
		now:          time.Now,
	}
}

// Onboard verifies the applicant and, on acceptance, builds and persists the
// canonical client profile together with the opening balance. A rejection is
// a normal result, not an error; errors mean the attempt could not complete
// and may be retried by the caller.
func (s *Service) Onboard(ctx context.Context, req OnboardRequest) (*Result, error) {
	// The selfie and ID front gate identity verification; without them there
	// is nothing to verify.
	if len(req.Documents.Selfie) == 0 || len(req.Documents.IDFront) == 0 {
		return nil, errors.ErrMissingDocument
	}

	verification := s.verifier.Verify(ctx, req.Documents.Selfie, req.Documents.IDFront, req.DeclaredName)
	if !verification.Outcome.Accepted {
		s.logger.Info("onboarding rejected", map[string]interface{}{
			"reason": string(verification.Outcome.Reason),
		})
		return &Result{Outcome: verification.Outcome}, nil
	}

	panFields := s.parser.Parse(s.extractOrEmpty(ctx, req.Documents.PANCard, domain.DocumentPANCard), domain.DocumentPANCard)
	frontFields := s.parser.Parse(verification.IDFrontText, domain.DocumentIDFront)
	backFields := s.parser.Parse(s.extractOrEmpty(ctx, req.Documents.IDBack, domain.DocumentIDBack), domain.DocumentIDBack)

	clientID, err := s.sequence.Next(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to allocate client id")
	}

	now := s.now()
	profile := BuildProfile(clientID, req.DeclaredName, panFields, frontFields, backFields, now, s.validityDays)
	opening := &domain.Balance{
		ClientID:    clientID,
		Amount:      req.OpeningDeposit,
		LastUpdated: now,
	}

	if err := s.repo.OnboardBatch(ctx, &profile, opening); err != nil {
		return nil, errors.Wrap(err, "failed to persist client record")
	}

	s.logger.Info("client onboarded", map[string]interface{}{
		"client_id":  profile.ClientID,
		"pan_masked": profile.PANNumberMasked,
		"expires":    profile.KYCExpiryDate.Format("2006-01-02"),
	})

	return &Result{Outcome: verification.Outcome, Profile: &profile}, nil
}

// RenewKYC moves an existing client's KYC window forward from today. Only
// the two KYC dates change; the rest of the profile is immutable after
// onboarding.
func (s *Service) RenewKYC(ctx context.Context, clientID string) (*domain.ClientProfile, error) {
	profile, err := s.repo.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	profile.Renew(s.now(), s.validityDays)
	if err := s.repo.UpdateKYCDates(ctx, clientID, profile.KYCLastUpdated, profile.KYCExpiryDate); err != nil {
		return nil, errors.Wrap(err, "failed to update kyc dates")
	}

	s.logger.Info("kyc renewed", map[string]interface{}{
		"client_id": clientID,
		"expires":   profile.KYCExpiryDate.Format("2006-01-02"),
	})

	return profile, nil
}

// extractOrEmpty OCRs a supporting document, treating capability failures as
// an unreadable document: the fields it would have contributed stay absent.
func (s *Service) extractOrEmpty(ctx context.Context, image []byte, docType domain.DocumentType) string {
	if len(image) == 0 {
		return ""
	}
	text, err := s.ocr.ExtractText(ctx, image)
	if err != nil {
		s.logger.Warn("document text extraction failed", map[string]interface{}{
			"document": string(docType),
			"error":    err.Error(),
		})
		return ""
	}
	return text
}
