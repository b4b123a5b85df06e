// Package extraction parses typed candidate fields out of raw recognized
// document text. Extraction is regex-driven and inherently sensitive to
// document-layout drift, so it sits behind the FieldParser interface and
// callers never depend on a concrete strategy.
package extraction

import (
	"regexp"
	"strings"

	"brokerkyc/internal/domain"
)

// FieldParser turns recognized text from one document into candidate fields.
// Implementations must be pure: identical input yields identical output.
type FieldParser interface {
	Parse(text string, docType domain.DocumentType) domain.ExtractedFields
}

var (
	panPattern  = regexp.MustCompile(`[A-Z]{5}[0-9]{4}[A-Z]`)
	dobPattern  = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)
	addrPattern = regexp.MustCompile(`(?i)(address|addres)[\s\S]*?\d{6}`)
	namePattern = regexp.MustCompile(`\b[A-Z]{2,}\s[A-Z\s]+\b`)
)

// Tokens that disqualify an uppercase run from being a person's name on the
// ID front; these come from the document's printed header.
var nameStopTokens = []string{"GOVERNMENT", "INDIA"}

// RegexParser is the default FieldParser.
type RegexParser struct{}

func NewRegexParser() *RegexParser {
	return &RegexParser{}
}

// Parse extracts PAN, date of birth and address from any document type; the
// holder name is only meaningful on the ID front, where it appears as a run
// of uppercase tokens. No field is mandatory at this layer.
func (p *RegexParser) Parse(text string, docType domain.DocumentType) domain.ExtractedFields {
	fields := domain.ExtractedFields{
		PANNumber:   firstMatch(panPattern, text),
		DateOfBirth: firstMatch(dobPattern, text),
		Address:     parseAddress(text),
	}

	if docType == domain.DocumentIDFront {
		fields.Name = parseName(text)
	}

	return fields
}

func firstMatch(re *regexp.Regexp, text string) *string {
	m := re.FindString(text)
	if m == "" {
		return nil
	}
	return &m
}

// parseAddress captures from the "address" label through the first six-digit
// postal code, with line breaks normalized to spaces.
func parseAddress(text string) *string {
	m := addrPattern.FindString(text)
	if m == "" {
		return nil
	}
	addr := strings.TrimSpace(strings.ReplaceAll(m, "\n", " "))
	return &addr
}

// parseName returns the first run of two or more consecutive uppercase
// tokens that is not part of the issuer header, or nil when none is found.
func parseName(text string) *string {
	for _, candidate := range namePattern.FindAllString(text, -1) {
		if containsStopToken(candidate) {
			continue
		}
		name := strings.TrimSpace(candidate)
		if name != "" {
			return &name
		}
	}
	return nil
}

func containsStopToken(s string) bool {
	for _, tok := range nameStopTokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
