package services

import (
	"regexp"

	"honeypot-lab/internal/domain/models"
	"honeypot-lab/pkg/logger"
)

// PatternExtractor pulls deterministic intelligence out of raw message text
// using fixed regex matchers. It is stateless and safe for concurrent use.
type PatternExtractor struct {
	patterns map[models.Category][]*regexp.Regexp
	logger   *logger.Logger
}

// NewPatternExtractor creates a new pattern extractor
func NewPatternExtractor(log *logger.Logger) *PatternExtractor {
	pe := &PatternExtractor{
		patterns: make(map[models.Category][]*regexp.Regexp),
		logger:   log.WithComponent("pattern-extractor"),
	}
	pe.compilePatterns()
	return pe
}

func (pe *PatternExtractor) compilePatterns() {
	// UPI handle: local@handle. A token matching both this and the email
	// pattern may be reported under both categories.
	pe.patterns[models.CategoryUPIIDs] = []*regexp.Regexp{
		regexp.MustCompile(`[a-zA-Z0-9.\-_]{2,256}@[a-zA-Z0-9.\-_]{2,64}`),
	}

	// Indian mobile number, optional +91 prefix
	pe.patterns[models.CategoryPhoneNumbers] = []*regexp.Regexp{
		regexp.MustCompile(`(?:\+91[\-\s]?)?[6-9]\d{4}[\-\s]?\d{5}`),
	}

	// Anything link-shaped up to the next whitespace
	pe.patterns[models.CategorySusLinks] = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:https?://|www\.)[^\s]+`),
	}

	// IFSC codes plus bare 9-18 digit runs. The digit run deliberately also
	// catches phone numbers and amounts; downstream consolidation keeps the
	// over-inclusive behavior for recall.
	pe.patterns[models.CategoryBankAccounts] = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b[A-Z]{4}0[A-Z0-9]{6}\b`),
		regexp.MustCompile(`\b\d{9,18}\b`),
	}

	// Currency-marked numeric tokens (prefix or suffix marker), plus bare
	// 3-8 digit runs. The cap keeps 9+ digit runs (accounts, phone numbers)
	// out of amounts; thousands-separated values match as a whole.
	pe.patterns[models.CategoryAmounts] = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:rs\.?|inr|₹)\s*[\d,]+|\b\d{3,}\s*(?:rs|inr|rupees)\b`),
		regexp.MustCompile(`\b\d+(?:,\d{3})+\b|\b\d{3,8}\b`),
	}

	// Standard email with a 2+ letter TLD
	pe.patterns[models.CategoryEmailAddresses] = []*regexp.Regexp{
		regexp.MustCompile(`(?i)[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`),
	}
}

// Extract returns an EntityRecord populated only with categories that
// matched. Matches are deduplicated within the call; a category with no
// matches is absent from the result. Amounts are collapsed to one rendering
// per digit-group, since the marked and bare matchers overlap.
func (pe *PatternExtractor) Extract(text string) models.EntityRecord {
	record := make(models.EntityRecord)
	for cat, patterns := range pe.patterns {
		for _, pattern := range patterns {
			for _, match := range pattern.FindAllString(text, -1) {
				record.Add(cat, match)
			}
		}
	}
	if amounts := record[models.CategoryAmounts]; len(amounts) > 0 {
		record[models.CategoryAmounts] = canonicalizeAmounts(amounts)
	}
	return record
}
