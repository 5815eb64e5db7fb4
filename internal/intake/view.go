package intake

import "github.com/terra-clan/recruitment-portal/internal/models"

// View is a snapshot of a form for rendering
type View struct {
	Fields           map[string]string            `json:"fields"`
	Answers          map[string]string            `json:"answers"`
	Questions        []models.Question            `json:"questions"`
	Domains          []models.DomainSummary       `json:"domains"`
	SecondaryOptions []models.DomainSummary       `json:"secondaryOptions"`
	Branches         []string                     `json:"branches"`
	Years            []string                     `json:"years"`
	FieldStates      map[string]models.FieldState `json:"fieldStates"`
	Submission       models.SubmissionState       `json:"submission"`
	SubmitDisabled   bool                         `json:"submitDisabled"`
	ReadOnly         []string                     `json:"readOnly"`
}

// View returns the current form snapshot. Only answers of active questions
// are included; answers of deselected domains are kept but hidden.
func (f *Form) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()

	fields := make(map[string]string, len(models.FixedFieldOrder))
	states := make(map[string]models.FieldState)
	for _, name := range models.FixedFieldOrder {
		fields[name] = f.values[name]
		states[name] = f.fieldStateLocked(name)
	}

	questions := f.activeQuestionsLocked()
	answers := make(map[string]string, len(questions))
	for _, q := range questions {
		answers[q.ID] = f.answers[q.ID]
		states[q.ID] = f.fieldStateLocked(q.ID)
	}
	if questions == nil {
		questions = []models.Question{}
	}

	return View{
		Fields:           fields,
		Answers:          answers,
		Questions:        questions,
		Domains:          f.catalog.Summaries(),
		SecondaryOptions: f.catalog.SecondaryOptions(f.values[models.FieldPrimaryDomain]),
		Branches:         f.catalog.Branches(),
		Years:            f.catalog.Years(),
		FieldStates:      states,
		Submission:       f.state,
		SubmitDisabled:   f.state.IsPending(),
		ReadOnly:         []string{models.FieldEmail},
	}
}

func (f *Form) fieldStateLocked(name string) models.FieldState {
	if s, ok := f.fieldStates[name]; ok {
		return s
	}
	return models.FieldState{Status: models.FieldUntouched}
}
