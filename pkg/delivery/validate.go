package delivery

import "strings"

// Recipient numbers must normalize to this digit range; anything outside is
// rejected before the browser is touched.
const (
	minNumberDigits = 10
	maxNumberDigits = 15
)

// Attempt carries the normalized fields of a record that passed validation.
// Normalization happens per attempt, not at load time, so the store always
// keeps the raw fields for later reprocessing.
type Attempt struct {
	// Digits is the recipient number reduced to digits only.
	Digits string

	// Text is the message body with surrounding whitespace trimmed.
	// Interior newlines are preserved.
	Text string
}

// NormalizeNumber strips every non-digit rune from raw and reports whether
// the remaining digit count is acceptable.
func NormalizeNumber(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) < minNumberDigits || len(digits) > maxNumberDigits {
		return digits, false
	}
	return digits, true
}

// Validate runs the local, synchronous checks on a raw record. When the
// record fails, ok is false and failure holds the fail-fast outcome; the
// session is never consulted. Validation is idempotent.
func Validate(number, message string) (att Attempt, failure Outcome, ok bool) {
	digits, numberOK := NormalizeNumber(number)
	if !numberOK {
		return Attempt{}, OutcomeInvalidNumber, false
	}

	text := strings.TrimSpace(message)
	if text == "" {
		return Attempt{}, OutcomeEmptyMessage, false
	}

	return Attempt{Digits: digits, Text: text}, "", true
}
