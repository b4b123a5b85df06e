package onboarding

import (
	"strings"
	"time"

	"brokerkyc/internal/domain"
)

// BuildProfile merges the fields extracted from the three identity documents
// into one canonical client record. First non-nil wins, in document priority
// order: PAN number and date of birth prefer the ID front over the PAN card;
// the address only ever comes from the ID back; the name is always the
// verified declared name, upper-cased.
func BuildProfile(clientID, declaredName string, panCard, idFront, idBack domain.ExtractedFields, now time.Time, validityDays int) domain.ClientProfile {
	profile := domain.ClientProfile{
		ClientID:     clientID,
		FullName:     strings.ToUpper(strings.TrimSpace(declaredName)),
		PANNumber:    firstNonNil(idFront.PANNumber, panCard.PANNumber),
		DateOfBirth:  firstNonNil(idFront.DateOfBirth, panCard.DateOfBirth),
		Address:      firstNonNil(idBack.Address),
		RiskCategory: domain.DefaultRiskCategory,
	}
	profile.PANNumberMasked = domain.MaskPAN(profile.PANNumber)
	profile.Renew(now, validityDays)
	return profile
}

func firstNonNil(candidates ...*string) string {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return ""
}
