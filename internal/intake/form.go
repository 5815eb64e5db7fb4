package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/recruitment-portal/internal/models"
)

// DefaultSubmitTimeout bounds a single gateway call
const DefaultSubmitTimeout = 20 * time.Second

// Catalog is the part of the domain catalog the form reads
type Catalog interface {
	Has(id string) bool
	ResolveDomainName(id string) (string, bool)
	QuestionsFor(primaryID, secondaryID string) []models.Question
	SecondaryOptions(primaryID string) []models.DomainSummary
	Summaries() []models.DomainSummary
	Branches() []string
	Years() []string
}

// Gateway delivers a finished application
type Gateway interface {
	Append(ctx context.Context, record *models.ApplicationRecord) error
}

// EmailMatcher validates institutional emails
type EmailMatcher interface {
	Match(candidate string) bool
}

// OutcomeRecorder counts submit attempts stopped before the gateway
type OutcomeRecorder interface {
	ObserveSubmission(outcome string)
}

const outcomeRejected = "rejected"

// Config holds the dependencies shared by all forms
type Config struct {
	Catalog       Catalog
	Gateway       Gateway
	Emails        EmailMatcher
	Recorder      OutcomeRecorder
	SubmitTimeout time.Duration
	Now           func() time.Time
}

// Form is the intake form of one visitor. All methods are safe for
// concurrent use; at most one submission is in flight at a time.
type Form struct {
	catalog  Catalog
	gateway  Gateway
	emails   EmailMatcher
	recorder OutcomeRecorder
	timeout  time.Duration
	now      func() time.Time

	mu          sync.Mutex
	clientID    string
	mounted     bool
	values      map[string]string
	answers     map[string]string
	fieldStates map[string]models.FieldState
	state       models.SubmissionState
	touched     time.Time
}

// NewForm creates an unmounted form for clientID
func NewForm(clientID string, cfg Config) *Form {
	if cfg.SubmitTimeout <= 0 {
		cfg.SubmitTimeout = DefaultSubmitTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	f := &Form{
		catalog:  cfg.Catalog,
		gateway:  cfg.Gateway,
		emails:   cfg.Emails,
		recorder: cfg.Recorder,
		timeout:  cfg.SubmitTimeout,
		now:      cfg.Now,
		clientID: clientID,
		state:    models.SubmissionState{Status: models.SubmissionIdle},
	}
	f.clearLocked()
	f.touched = f.now()
	return f
}

// Mount binds the form to an established session. Without one the caller
// must send the visitor to the login page. The email field is filled from
// the session and stays read-only. A known department preselects the
// primary domain when none is chosen yet.
func (f *Form) Mount(sess *models.Session, department string) error {
	if sess == nil || !sess.Authenticated || sess.Email == "" {
		return ErrNoSession
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = f.now()

	f.mounted = true
	f.values[models.FieldEmail] = sess.Email
	if department != "" && f.values[models.FieldPrimaryDomain] == "" && f.catalog.Has(department) {
		f.values[models.FieldPrimaryDomain] = department
	}
	return nil
}

// SetField changes one field value. Name is a fixed field name or the id of
// a currently active question.
func (f *Form) SetField(name, value string) error {
	return f.SetFields(map[string]string{name: value})
}

// SetFields applies several changes at once. Fixed fields are applied first,
// so a request may pick a domain and answer its questions together. Nothing
// is applied when any name is rejected.
func (f *Form) SetFields(changes map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = f.now()

	if !f.mounted {
		return ErrNoSession
	}

	primary := f.values[models.FieldPrimaryDomain]
	secondary := f.values[models.FieldSecondaryDomain]
	var answers []string
	for name, value := range changes {
		switch {
		case name == models.FieldEmail:
			return fmt.Errorf("%w: %s", ErrReadOnlyField, name)
		case name == models.FieldPrimaryDomain:
			primary = value
		case name == models.FieldSecondaryDomain:
			secondary = value
		case models.IsFixedField(name):
		default:
			answers = append(answers, name)
		}
	}

	active := make(map[string]bool)
	for _, q := range f.catalog.QuestionsFor(primary, secondary) {
		active[q.ID] = true
	}
	for _, id := range answers {
		if !active[id] {
			return fmt.Errorf("%w: %s", ErrUnknownField, id)
		}
	}

	for name, value := range changes {
		if models.IsFixedField(name) {
			f.values[name] = value
		} else {
			f.answers[name] = value
		}
	}
	for name := range changes {
		f.revalidateLocked(name)
	}
	if _, ok := changes[models.FieldPrimaryDomain]; ok {
		f.revalidateLocked(models.FieldSecondaryDomain)
	}
	return nil
}

// Value returns the current value of a fixed field
func (f *Form) Value(name string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values[name]
}

// Answer returns the stored answer of a question, active or not
func (f *Form) Answer(questionID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.answers[questionID]
	return v, ok
}

// ActiveQuestions returns the questions of the selected domains
func (f *Form) ActiveQuestions() []models.Question {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.activeQuestionsLocked()
}

func (f *Form) activeQuestionsLocked() []models.Question {
	return f.catalog.QuestionsFor(f.values[models.FieldPrimaryDomain], f.values[models.FieldSecondaryDomain])
}

// SecondaryOptions returns every domain except the selected primary
func (f *Form) SecondaryOptions() []models.DomainSummary {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.catalog.SecondaryOptions(f.values[models.FieldPrimaryDomain])
}

// Validate evaluates all fields and returns the invalid ones.
// The submission state is not changed.
func (f *Form) Validate() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.validateLocked()
}

// State returns the submission state
func (f *Form) State() models.SubmissionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Submit validates the form and hands the record to the gateway.
//
// It returns ErrSubmissionInFlight while another submission is pending,
// ErrMissingDomain when no primary domain is chosen, a *ValidationError when
// fields are invalid and a *SubmitError when the gateway fails. On success
// every field is reset; on failure all values are kept for a retry. The
// gateway call is not cancelled when ctx is, only bounded by the timeout.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	f.touched = f.now()

	if !f.mounted {
		f.mu.Unlock()
		return ErrNoSession
	}
	if f.state.IsPending() {
		f.mu.Unlock()
		return ErrSubmissionInFlight
	}

	invalid := f.validateLocked()
	if blank(f.values[models.FieldPrimaryDomain]) {
		f.state = models.SubmissionState{Status: models.SubmissionFailed, Reason: ReasonMissingDomain}
		f.mu.Unlock()
		f.observe(outcomeRejected)
		return ErrMissingDomain
	}
	if len(invalid) > 0 {
		f.mu.Unlock()
		f.observe(outcomeRejected)
		return &ValidationError{Fields: invalid}
	}

	record, err := f.buildRecordLocked()
	if err != nil {
		f.state = models.SubmissionState{Status: models.SubmissionFailed, Reason: ReasonSubmitFailed}
		f.mu.Unlock()
		slog.Error("failed to build application record", "client_id", f.clientID, "error", err)
		return &SubmitError{Err: err}
	}
	f.state = models.SubmissionState{Status: models.SubmissionPending}
	clientID := f.clientID
	f.mu.Unlock()

	submissionID := uuid.New().String()
	slog.Info("submitting application",
		"client_id", clientID,
		"submission_id", submissionID,
		"primary_domain", record.Fixed.PrimaryDomain,
		"answers", len(record.Answers),
	)

	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)
	err = f.gateway.Append(callCtx, record)
	cancel()

	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = f.now()

	if err != nil {
		slog.Error("application submission failed",
			"client_id", clientID,
			"submission_id", submissionID,
			"timeout", errors.Is(err, context.DeadlineExceeded),
			"error", err,
		)
		f.state = models.SubmissionState{Status: models.SubmissionFailed, Reason: ReasonSubmitFailed}
		return &SubmitError{Err: err}
	}

	slog.Info("application submitted", "client_id", clientID, "submission_id", submissionID)
	f.clearLocked()
	f.state = models.SubmissionState{Status: models.SubmissionSucceeded}
	return nil
}

// buildRecordLocked assembles the wire record. Domain ids are resolved to
// display names and answers follow the active question order.
func (f *Form) buildRecordLocked() (*models.ApplicationRecord, error) {
	primaryName, ok := f.catalog.ResolveDomainName(f.values[models.FieldPrimaryDomain])
	if !ok {
		return nil, fmt.Errorf("primary domain %q is not in the catalog", f.values[models.FieldPrimaryDomain])
	}

	var secondaryName string
	if id := f.values[models.FieldSecondaryDomain]; id != "" {
		if secondaryName, ok = f.catalog.ResolveDomainName(id); !ok {
			return nil, fmt.Errorf("secondary domain %q is not in the catalog", id)
		}
	}

	fixed := models.FixedFields{
		Name:            f.values[models.FieldName],
		Email:           f.values[models.FieldEmail],
		Phone:           f.values[models.FieldPhone],
		RollNumber:      f.values[models.FieldRollNumber],
		Branch:          f.values[models.FieldBranch],
		Year:            f.values[models.FieldYear],
		PrimaryDomain:   primaryName,
		SecondaryDomain: secondaryName,
		WhyGDG:          f.values[models.FieldWhyGDG],
		Experience:      f.values[models.FieldExperience],
		Portfolio:       f.values[models.FieldPortfolio],
	}

	questions := f.activeQuestionsLocked()
	answers := make([]models.Answer, 0, len(questions))
	for _, q := range questions {
		answers = append(answers, models.Answer{QuestionID: q.ID, Answer: f.answers[q.ID]})
	}
	return models.NewApplicationRecord(fixed, answers), nil
}

func (f *Form) observe(outcome string) {
	if f.recorder != nil {
		f.recorder.ObserveSubmission(outcome)
	}
}

// clearLocked resets every field, answer and field state
func (f *Form) clearLocked() {
	f.values = make(map[string]string, len(models.FixedFieldOrder))
	f.answers = make(map[string]string)
	f.fieldStates = make(map[string]models.FieldState)
}

func (f *Form) touch() {
	f.mu.Lock()
	f.touched = f.now()
	f.mu.Unlock()
}

// idleSince reports how long the form has been untouched, and whether a
// submission is in flight.
func (f *Form) idleSince(now time.Time) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return now.Sub(f.touched), f.state.IsPending()
}
