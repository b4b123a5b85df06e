// Package identity decides whether an applicant's submitted documents belong
// to the person they claim to be. OCR and face similarity are consumed as
// opaque capabilities; this package owns only the decision logic.
package identity

import (
	"context"
	"strings"

	"brokerkyc/internal/domain"
	"brokerkyc/internal/extraction"
	"brokerkyc/pkg/logger"
)

// TextExtractor turns a document image into recognized text.
type TextExtractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// FaceMatcher compares the faces on two images. A failed face detection is
// not a rejection by itself; only an explicit not-verified verdict is.
type FaceMatcher interface {
	Compare(ctx context.Context, imageA, imageB []byte) (verified bool, err error)
}

// Verification is the verifier's result. IDFrontText carries the recognized
// ID-front text so callers can reuse it for field extraction without a
// second OCR round trip.
type Verification struct {
	Outcome     domain.VerificationOutcome
	IDFrontText string
}

type Verifier struct {
	ocr    TextExtractor
	faces  FaceMatcher
	parser extraction.FieldParser
	logger logger.Logger
}

func NewVerifier(ocr TextExtractor, faces FaceMatcher, parser extraction.FieldParser, log logger.Logger) *Verifier {
	return &Verifier{
		ocr:    ocr,
		faces:  faces,
		parser: parser,
		logger: log,
	}
}

// Verify runs the short-circuiting identity checks: face similarity between
// the selfie and the ID front, then the ID-front name against the declared
// name. The first failure wins. Rejections come back as structured outcomes;
// capability errors map to the EXTRACTION_FAILURE reason and are never
// retried here.
func (v *Verifier) Verify(ctx context.Context, selfie, idFront []byte, declaredName string) Verification {
	verified, err := v.faces.Compare(ctx, selfie, idFront)
	if err != nil {
		v.logger.Warn("face comparison capability error", map[string]interface{}{
			"error": err.Error(),
		})
		return Verification{Outcome: domain.Rejected(domain.RejectExtractionFailure, "face comparison failed: "+err.Error())}
	}
	if !verified {
		return Verification{Outcome: domain.Rejected(domain.RejectFaceMismatch, "selfie does not match the ID photograph")}
	}

	text, err := v.ocr.ExtractText(ctx, idFront)
	if err != nil {
		v.logger.Warn("id-front text extraction error", map[string]interface{}{
			"error": err.Error(),
		})
		return Verification{Outcome: domain.Rejected(domain.RejectExtractionFailure, "id document unreadable: "+err.Error())}
	}

	fields := v.parser.Parse(text, domain.DocumentIDFront)
	if fields.Name == nil {
		return Verification{
			Outcome:     domain.Rejected(domain.RejectNameMismatch, "no name found on the id document"),
			IDFrontText: text,
		}
	}
	if !namesEqual(declaredName, *fields.Name) {
		return Verification{
			Outcome:     domain.Rejected(domain.RejectNameMismatch, "declared name does not match the id document"),
			IDFrontText: text,
		}
	}

	return Verification{Outcome: domain.Accepted(), IDFrontText: text}
}

// namesEqual compares names case-insensitively after collapsing runs of
// whitespace, so OCR spacing noise does not fail a genuine match.
func namesEqual(declared, extracted string) bool {
	return strings.EqualFold(normalizeName(declared), normalizeName(extracted))
}

func normalizeName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
