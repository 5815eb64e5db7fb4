package models

// Question is a domain-specific follow-up question shown on the application form.
// Question IDs are unique across the whole catalog and double as answer keys.
type Question struct {
	ID       string `yaml:"id" json:"id"`
	Question string `yaml:"question" json:"question"`
}

// Domain represents an application track (e.g., tech, design-ui-ux)
type Domain struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// QuestionsCount returns the number of follow-up questions for the domain
func (d *Domain) QuestionsCount() int {
	return len(d.Questions)
}

// DomainSummary is the list view of a domain used by selectors
type DomainSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Description    string `json:"description"`
	QuestionsCount int    `json:"questionsCount"`
}

// Summary returns the selector view of the domain
func (d *Domain) Summary() DomainSummary {
	return DomainSummary{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		QuestionsCount: len(d.Questions),
	}
}
