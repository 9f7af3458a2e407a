package payment

import (
	"strings"
	"unicode"
)

var (
	successKeywords = []string{"confirmed", "complete", "paid", "success", "succeeded"}
	failureKeywords = []string{"fail", "cancel", "expire", "invalid"}
)

// ClassifyStatus maps a provider status string onto the canonical Status.
// A keyword matches words that start with it, so "COMPLETED" and
// "successful" count as success while "unpaid" or "incomplete" do not.
// Success keywords win over failure keywords, and a handful of words get a
// more specific failure state.
func ClassifyStatus(raw string) Status {
	words := statusWords(raw)
	if len(words) == 0 {
		return StatusUnknown
	}

	if hasWordPrefix(words, successKeywords...) {
		return StatusConfirmed
	}
	switch {
	case hasWordPrefix(words, "refund"):
		return StatusRefunded
	case hasWordPrefix(words, "expire"):
		return StatusExpired
	case hasWordPrefix(words, "cancel"):
		return StatusCancelled
	case hasWordPrefix(words, failureKeywords...):
		return StatusFailed
	case hasWordPrefix(words, "new", "pending", "processing", "waiting", "unpaid", "incomplete"):
		return StatusPending
	default:
		return StatusUnknown
	}
}

// statusWords lower-cases raw and splits it on separators and camelCase
// boundaries: "PaidLate" and "paid_late" both yield [paid late].
func statusWords(raw string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}
	runes := []rune(strings.TrimSpace(raw))
	for i, r := range runes {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
			continue
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(runes[i-1]):
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func hasWordPrefix(words []string, keywords ...string) bool {
	for _, w := range words {
		for _, kw := range keywords {
			if strings.HasPrefix(w, kw) {
				return true
			}
		}
	}
	return false
}

// terminalStatusValues lists the stored values a non-terminal update must not overwrite.
func terminalStatusValues() []string {
	return []string{
		string(StatusConfirmed),
		string(StatusFailed),
		string(StatusCancelled),
		string(StatusExpired),
		string(StatusRefunded),
	}
}
