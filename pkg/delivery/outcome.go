// Package delivery implements the per-record message delivery engine: local
// validation, deep-link construction, the ordered locator fallback chain,
// and classification of every attempt into a terminal outcome.
package delivery

import "strings"

// Outcome is the terminal classification of one delivery attempt. A record
// starts Pending and is assigned exactly one non-Pending outcome; outcomes
// are values, never errors, so a failed record can never abort a batch.
type Outcome string

const (
	OutcomePending        Outcome = "Pending"
	OutcomeSent           Outcome = "Sent"
	OutcomeInvalidNumber  Outcome = "InvalidNumber"
	OutcomeEmptyMessage   Outcome = "EmptyMessage"
	OutcomeTimeout        Outcome = "Timeout"
	OutcomeTransportError Outcome = "TransportError"
	OutcomeUnknownError   Outcome = "UnknownError"
)

func (o Outcome) String() string { return string(o) }

// IsValid reports whether o is one of the known outcomes.
func (o Outcome) IsValid() bool {
	switch o {
	case OutcomePending, OutcomeSent, OutcomeInvalidNumber, OutcomeEmptyMessage,
		OutcomeTimeout, OutcomeTransportError, OutcomeUnknownError:
		return true
	}
	return false
}

// Terminal reports whether o is a final state. Every outcome except Pending
// is terminal; once set it is never rewritten.
func (o Outcome) Terminal() bool {
	return o.IsValid() && o != OutcomePending
}

// displayLabels are the localized strings written to the status column.
// They map 1:1 to the outcome taxonomy.
var displayLabels = map[Outcome]string{
	OutcomePending:        "Pendente",
	OutcomeSent:           "Mensagem Enviada",
	OutcomeInvalidNumber:  "Número inválido",
	OutcomeEmptyMessage:   "Mensagem vazia",
	OutcomeTimeout:        "Tempo esgotado",
	OutcomeTransportError: "Erro de conexão",
	OutcomeUnknownError:   "Erro desconhecido",
}

// Display returns the localized label for the status column.
func (o Outcome) Display() string {
	if label, ok := displayLabels[o]; ok {
		return label
	}
	return string(o)
}

// ParseOutcome resolves a status string back into an outcome. Both the
// canonical token and the localized display label are accepted, matched
// case-insensitively after trimming.
func ParseOutcome(s string) (Outcome, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return OutcomePending, false
	}

	for outcome, label := range displayLabels {
		if normalized == strings.ToLower(string(outcome)) || normalized == strings.ToLower(label) {
			return outcome, true
		}
	}
	return OutcomePending, false
}
