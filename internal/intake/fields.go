package intake

import (
	"strings"

	"github.com/terra-clan/recruitment-portal/internal/models"
)

// requiredMessages holds the message shown when a required fixed field is blank
var requiredMessages = map[string]string{
	models.FieldName:          "Name is required",
	models.FieldEmail:         "Email is required",
	models.FieldPhone:         "Phone number is required",
	models.FieldRollNumber:    "Roll number is required",
	models.FieldBranch:        "Branch is required",
	models.FieldYear:          "Year is required",
	models.FieldPrimaryDomain: "Primary domain is required",
	models.FieldWhyGDG:        "This field is required",
	models.FieldExperience:    "This field is required",
}

const (
	msgQuestionRequired = "This field is required"
	msgInvalidEmail     = "Please use your official institutional email address"
	msgUnknownDomain    = "Please select a domain from the list"
	msgSameDomain       = "Secondary domain must differ from the primary domain"
)

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// checkFixed returns the message for an invalid fixed field, or "" when valid
func (f *Form) checkFixed(name string) string {
	value := f.values[name]

	if msg, required := requiredMessages[name]; required && blank(value) {
		return msg
	}

	switch name {
	case models.FieldEmail:
		if !f.emails.Match(value) {
			return msgInvalidEmail
		}
	case models.FieldPrimaryDomain:
		if !f.catalog.Has(value) {
			return msgUnknownDomain
		}
	case models.FieldSecondaryDomain:
		if value == "" {
			return ""
		}
		if value == f.values[models.FieldPrimaryDomain] {
			return msgSameDomain
		}
		if !f.catalog.Has(value) {
			return msgUnknownDomain
		}
	}
	return ""
}

// checkAnswer returns the message for an invalid active question answer
func (f *Form) checkAnswer(questionID string) string {
	if blank(f.answers[questionID]) {
		return msgQuestionRequired
	}
	return ""
}

// validateLocked evaluates every registered field, records field states and
// returns the invalid ones. Caller holds f.mu.
func (f *Form) validateLocked() map[string]string {
	invalid := make(map[string]string)

	for _, name := range models.FixedFieldOrder {
		f.record(name, f.checkFixed(name), invalid)
	}
	for _, q := range f.activeQuestionsLocked() {
		f.record(q.ID, f.checkAnswer(q.ID), invalid)
	}
	return invalid
}

func (f *Form) record(name, msg string, invalid map[string]string) {
	if msg == "" {
		f.fieldStates[name] = models.FieldState{Status: models.FieldValid}
		return
	}
	f.fieldStates[name] = models.FieldState{Status: models.FieldInvalid, Reason: msg}
	invalid[name] = msg
}

// revalidateLocked re-checks a field after a change, once it has been validated before
func (f *Form) revalidateLocked(name string) {
	state, ok := f.fieldStates[name]
	if !ok || state.Status == models.FieldUntouched {
		return
	}

	var msg string
	if models.IsFixedField(name) {
		msg = f.checkFixed(name)
	} else {
		msg = f.checkAnswer(name)
	}
	f.record(name, msg, map[string]string{})
}
