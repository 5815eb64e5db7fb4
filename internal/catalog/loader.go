package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/recruitment-portal/internal/models"
)

//go:embed default.yaml
var defaultCatalog []byte

// ErrInvalidCatalog is returned when catalog data violates its invariants
var ErrInvalidCatalog = errors.New("invalid catalog")

// Loader holds the domain catalog and form option lists.
// Data is replaced wholesale on load and read-only afterwards.
type Loader struct {
	mu       sync.RWMutex
	domains  []*models.Domain
	byID     map[string]*models.Domain
	branches []string
	years    []string
}

// NewLoader creates an empty catalog loader
func NewLoader() *Loader {
	return &Loader{
		byID: make(map[string]*models.Domain),
	}
}

// LoadDefault loads the catalog bundled with the binary
func (l *Loader) LoadDefault() error {
	return l.load(defaultCatalog, "embedded")
}

// LoadFromFile loads a catalog YAML file, replacing the current catalog
func (l *Loader) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	return l.load(data, path)
}

func (l *Loader) load(data []byte, source string) error {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return fmt.Errorf("failed to parse YAML: %w", err)
	}

	domains := make([]*models.Domain, 0, len(cf.Domains))
	byID := make(map[string]*models.Domain, len(cf.Domains))
	questionIDs := make(map[string]string)

	for i, df := range cf.Domains {
		id := strings.TrimSpace(df.ID)
		if id == "" {
			return fmt.Errorf("%w: domain #%d has no id", ErrInvalidCatalog, i+1)
		}
		if strings.TrimSpace(df.Name) == "" {
			return fmt.Errorf("%w: domain %q has no name", ErrInvalidCatalog, id)
		}
		if _, dup := byID[id]; dup {
			return fmt.Errorf("%w: duplicate domain id %q", ErrInvalidCatalog, id)
		}

		questions := make([]models.Question, 0, len(df.Questions))
		for _, q := range df.Questions {
			qid := strings.TrimSpace(q.ID)
			if qid == "" {
				return fmt.Errorf("%w: domain %q has a question without id", ErrInvalidCatalog, id)
			}
			// answers travel as flat keys next to the fixed fields
			if !strings.Contains(qid, models.AnswerKeyMarker) || models.IsFixedField(qid) {
				return fmt.Errorf("%w: question id %q must contain %q and not name a form field",
					ErrInvalidCatalog, qid, models.AnswerKeyMarker)
			}
			if owner, dup := questionIDs[qid]; dup {
				return fmt.Errorf("%w: question id %q used by %q and %q", ErrInvalidCatalog, qid, owner, id)
			}
			questionIDs[qid] = id
			questions = append(questions, models.Question{ID: qid, Question: q.Question})
		}

		d := &models.Domain{
			ID:          id,
			Name:        df.Name,
			Description: df.Description,
			Questions:   questions,
		}
		domains = append(domains, d)
		byID[id] = d
	}

	l.mu.Lock()
	l.domains = domains
	l.byID = byID
	l.branches = append([]string(nil), cf.Branches...)
	l.years = append([]string(nil), cf.Years...)
	l.mu.Unlock()

	slog.Info("catalog loaded",
		"source", source,
		"domains", len(domains),
		"questions", len(questionIDs),
	)
	return nil
}

// ListDomains returns all domains in catalog order
func (l *Loader) ListDomains() []models.Domain {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.Domain, 0, len(l.domains))
	for _, d := range l.domains {
		result = append(result, cloneDomain(d))
	}
	return result
}

// GetDomain returns a domain by ID, or nil when unknown
func (l *Loader) GetDomain(id string) *models.Domain {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, ok := l.byID[id]
	if !ok {
		return nil
	}
	c := cloneDomain(d)
	return &c
}

// Has reports whether id names a catalog domain
func (l *Loader) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.byID[id]
	return ok
}

// ResolveDomainName returns the display name of a domain
func (l *Loader) ResolveDomainName(id string) (string, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	d, ok := l.byID[id]
	if !ok {
		return "", false
	}
	return d.Name, true
}

// QuestionsFor returns the primary domain's questions followed by the
// secondary's. The secondary list is left out entirely when it is empty or
// equal to the primary. Unknown ids contribute no questions.
func (l *Loader) QuestionsFor(primaryID, secondaryID string) []models.Question {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var result []models.Question
	if d, ok := l.byID[primaryID]; ok {
		result = append(result, d.Questions...)
	}
	if secondaryID != "" && secondaryID != primaryID {
		if d, ok := l.byID[secondaryID]; ok {
			result = append(result, d.Questions...)
		}
	}
	return result
}

// SecondaryOptions returns the candidates for the secondary selector:
// every domain except the selected primary, in catalog order.
func (l *Loader) SecondaryOptions(primaryID string) []models.DomainSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.DomainSummary, 0, len(l.domains))
	for _, d := range l.domains {
		if d.ID == primaryID {
			continue
		}
		result = append(result, d.Summary())
	}
	return result
}

// Summaries returns the selector view of all domains
func (l *Loader) Summaries() []models.DomainSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]models.DomainSummary, 0, len(l.domains))
	for _, d := range l.domains {
		result = append(result, d.Summary())
	}
	return result
}

// Branches returns the branch options of the form
func (l *Loader) Branches() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.branches...)
}

// Years returns the year-of-study options of the form
func (l *Loader) Years() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.years...)
}

func cloneDomain(d *models.Domain) models.Domain {
	c := *d
	c.Questions = append([]models.Question(nil), d.Questions...)
	return c
}

// --- YAML file structs ---

// catalogFile represents the YAML structure of a catalog file
type catalogFile struct {
	Branches []string     `yaml:"branches"`
	Years    []string     `yaml:"years"`
	Domains  []domainFile `yaml:"domains"`
}

// domainFile represents one domain entry of a catalog file
type domainFile struct {
	ID          string            `yaml:"id"`
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Questions   []models.Question `yaml:"questions"`
}
