package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// Fixed form field names. They are also the keys of the flat wire shape.
const (
	FieldName            = "name"
	FieldEmail           = "email"
	FieldPhone           = "phone"
	FieldRollNumber      = "rollNumber"
	FieldBranch          = "branch"
	FieldYear            = "year"
	FieldPrimaryDomain   = "primaryDomain"
	FieldSecondaryDomain = "secondaryDomain"
	FieldWhyGDG          = "whyGDG"
	FieldExperience      = "experience"
	FieldPortfolio       = "portfolio"
)

// FixedFieldOrder is the order of the fixed fields on the wire and in the sheet row.
var FixedFieldOrder = []string{
	FieldName,
	FieldEmail,
	FieldPhone,
	FieldRollNumber,
	FieldBranch,
	FieldYear,
	FieldPrimaryDomain,
	FieldSecondaryDomain,
	FieldWhyGDG,
	FieldExperience,
	FieldPortfolio,
}

// AnswerKeyMarker marks question-answer keys in the flat wire shape.
const AnswerKeyMarker = "_q"

// IsFixedField reports whether name is one of the fixed form fields
func IsFixedField(name string) bool {
	for _, f := range FixedFieldOrder {
		if f == name {
			return true
		}
	}
	return false
}

// FixedFields holds the fixed part of an application.
// PrimaryDomain and SecondaryDomain carry display names, not ids.
type FixedFields struct {
	Name            string
	Email           string
	Phone           string
	RollNumber      string
	Branch          string
	Year            string
	PrimaryDomain   string
	SecondaryDomain string
	WhyGDG          string
	Experience      string
	Portfolio       string
}

// Values returns the fixed fields in FixedFieldOrder
func (f FixedFields) Values() []string {
	return []string{
		f.Name,
		f.Email,
		f.Phone,
		f.RollNumber,
		f.Branch,
		f.Year,
		f.PrimaryDomain,
		f.SecondaryDomain,
		f.WhyGDG,
		f.Experience,
		f.Portfolio,
	}
}

func (f *FixedFields) set(name, value string) {
	switch name {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldPhone:
		f.Phone = value
	case FieldRollNumber:
		f.RollNumber = value
	case FieldBranch:
		f.Branch = value
	case FieldYear:
		f.Year = value
	case FieldPrimaryDomain:
		f.PrimaryDomain = value
	case FieldSecondaryDomain:
		f.SecondaryDomain = value
	case FieldWhyGDG:
		f.WhyGDG = value
	case FieldExperience:
		f.Experience = value
	case FieldPortfolio:
		f.Portfolio = value
	}
}

// Answer is the answer to one domain question
type Answer struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// ApplicationRecord is one submitted application: fixed fields followed by
// domain question answers in catalog order. It is not mutated after construction.
type ApplicationRecord struct {
	Fixed   FixedFields
	Answers []Answer
}

// NewApplicationRecord builds a record owning a private copy of answers
func NewApplicationRecord(fixed FixedFields, answers []Answer) *ApplicationRecord {
	own := make([]Answer, len(answers))
	copy(own, answers)
	return &ApplicationRecord{Fixed: fixed, Answers: own}
}

// MarshalJSON encodes the record in the flat wire shape, keeping key order:
// fixed fields first, then one key per answered question.
func (r ApplicationRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	values := r.Fixed.Values()
	for i, key := range FixedFieldOrder {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writePair(&buf, key, values[i]); err != nil {
			return nil, err
		}
	}

	for _, a := range r.Answers {
		buf.WriteByte(',')
		if err := writePair(&buf, a.QuestionID, a.Answer); err != nil {
			return nil, err
		}
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writePair(buf *bytes.Buffer, key, value string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}

// ErrInvalidRecord is returned when a wire payload is not a JSON object
var ErrInvalidRecord = errors.New("application record must be a JSON object")

// UnmarshalJSON decodes the flat wire shape. Keys containing AnswerKeyMarker
// become answers in document order; unknown keys are ignored. A repeated
// answer key keeps its first position and its last value.
func (r *ApplicationRecord) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("%w: malformed JSON", ErrInvalidRecord)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return ErrInvalidRecord
	}

	var fixed FixedFields
	var answers []Answer
	seen := make(map[string]int)

	doc.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		switch {
		case IsFixedField(name):
			fixed.set(name, wireString(value))
		case strings.Contains(name, AnswerKeyMarker):
			if i, ok := seen[name]; ok {
				answers[i].Answer = wireString(value)
				return true
			}
			seen[name] = len(answers)
			answers = append(answers, Answer{QuestionID: name, Answer: wireString(value)})
		}
		return true
	})

	r.Fixed = fixed
	r.Answers = answers
	return nil
}

// wireString maps a JSON value to a cell string; null becomes empty.
func wireString(v gjson.Result) string {
	if v.Type == gjson.Null {
		return ""
	}
	return v.String()
}

// SubmissionStatus is the lifecycle state of a form submission
type SubmissionStatus string

const (
	SubmissionIdle      SubmissionStatus = "idle"
	SubmissionPending   SubmissionStatus = "pending"
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// SubmissionState is the transient submission attempt owned by one form
type SubmissionState struct {
	Status SubmissionStatus `json:"status"`
	Reason string           `json:"reason,omitempty"`
}

// IsPending returns true while a submission is in flight
func (s SubmissionState) IsPending() bool {
	return s.Status == SubmissionPending
}

// FieldStatus is the validation state of a single form field
type FieldStatus string

const (
	FieldUntouched FieldStatus = "untouched"
	FieldValid     FieldStatus = "valid"
	FieldInvalid   FieldStatus = "invalid"
)

// FieldState is the validation state of a field with the reason when invalid
type FieldState struct {
	Status FieldStatus `json:"status"`
	Reason string      `json:"reason,omitempty"`
}

// SubmitResponse is the wire response of the submission endpoint
type SubmitResponse struct {
	Success bool   `json:"success,omitempty"`
	Error   string `json:"error,omitempty"`
}
