package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/sync/singleflight"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/terra-clan/recruitment-portal/internal/models"
)

// DefaultRange is the A1 range rows are appended to
const DefaultRange = "Sheet1!A:Z"

// Credentials is the service account and target sheet, read per call
type Credentials struct {
	ClientEmail   string
	PrivateKey    string
	SpreadsheetID string
	Range         string
}

// CredentialsSource returns the current credentials
type CredentialsSource func() Credentials

// NormalizePrivateKey expands literal \n sequences, as found in keys passed
// through single-line environment variables.
func NormalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

// ValuesAppender performs the remote append of one row
type ValuesAppender interface {
	AppendRow(ctx context.Context, spreadsheetID, a1Range string, row []interface{}) error
}

// ServiceFactory builds a ValuesAppender for a credential set
type ServiceFactory func(ctx context.Context, creds Credentials) (ValuesAppender, error)

// OutcomeRecorder observes the outcome of each append
type OutcomeRecorder interface {
	ObserveSubmission(outcome string)
}

// Option configures a SheetsAppender
type Option func(*SheetsAppender)

// WithClock overrides the timestamp source
func WithClock(now func() time.Time) Option {
	return func(a *SheetsAppender) {
		a.now = now
	}
}

// WithClientOptions appends options to the Sheets client, e.g. a custom endpoint
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(a *SheetsAppender) {
		a.clientOpts = append(a.clientOpts, opts...)
	}
}

// WithServiceFactory replaces the Sheets client construction
func WithServiceFactory(f ServiceFactory) Option {
	return func(a *SheetsAppender) {
		a.factory = f
	}
}

// WithRecorder reports outcomes to r
func WithRecorder(r OutcomeRecorder) Option {
	return func(a *SheetsAppender) {
		a.recorder = r
	}
}

// SheetsAppender appends application records to a Google Sheets spreadsheet.
// Credentials are read on every call; the derived client is cached per
// credential set.
type SheetsAppender struct {
	source     CredentialsSource
	now        func() time.Time
	clientOpts []option.ClientOption
	factory    ServiceFactory
	recorder   OutcomeRecorder

	mu       sync.Mutex
	services map[string]ValuesAppender
	group    singleflight.Group
}

// NewSheetsAppender creates a gateway reading credentials from source
func NewSheetsAppender(source CredentialsSource, opts ...Option) *SheetsAppender {
	a := &SheetsAppender{
		source:   source,
		now:      time.Now,
		services: make(map[string]ValuesAppender),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.factory == nil {
		a.factory = a.newSheetsService
	}
	return a
}

// Append writes record as one row. It returns a *ConfigurationError when the
// gateway is not set up and a *TransientError for every other failure. There
// is no retry and no idempotency key.
func (a *SheetsAppender) Append(ctx context.Context, record *models.ApplicationRecord) error {
	err := a.append(ctx, record)
	if a.recorder != nil {
		a.recorder.ObserveSubmission(outcome(err))
	}
	return err
}

func (a *SheetsAppender) append(ctx context.Context, record *models.ApplicationRecord) error {
	creds := a.source()
	if creds.SpreadsheetID == "" {
		return &ConfigurationError{Err: ErrNotConfigured}
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return &ConfigurationError{Err: ErrMissingCredentials}
	}
	if creds.Range == "" {
		creds.Range = DefaultRange
	}

	svc, err := a.service(ctx, creds)
	if err != nil {
		return &TransientError{Op: "client", Err: err}
	}

	row := BuildRow(record, a.now())
	if err := svc.AppendRow(ctx, creds.SpreadsheetID, creds.Range, row); err != nil {
		return &TransientError{Op: "append", Err: err}
	}

	slog.Info("application row appended",
		"spreadsheet_id", creds.SpreadsheetID,
		"range", creds.Range,
		"cells", len(row),
	)
	return nil
}

// service returns the cached client for creds, building it once even under
// concurrent first use.
func (a *SheetsAppender) service(ctx context.Context, creds Credentials) (ValuesAppender, error) {
	key := creds.ClientEmail + "\x00" + creds.PrivateKey

	a.mu.Lock()
	svc, ok := a.services[key]
	a.mu.Unlock()
	if ok {
		return svc, nil
	}

	v, err, _ := a.group.Do(key, func() (interface{}, error) {
		a.mu.Lock()
		cached, ok := a.services[key]
		a.mu.Unlock()
		if ok {
			return cached, nil
		}

		svc, err := a.factory(ctx, creds)
		if err != nil {
			return nil, err
		}
		a.mu.Lock()
		a.services[key] = svc
		a.mu.Unlock()
		return svc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(ValuesAppender), nil
}

// newSheetsService authenticates with the service account key pair
func (a *SheetsAppender) newSheetsService(ctx context.Context, creds Credentials) (ValuesAppender, error) {
	conf := &jwt.Config{
		Email:      creds.ClientEmail,
		PrivateKey: []byte(NormalizePrivateKey(creds.PrivateKey)),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	// The client outlives the request that built it.
	opts := append([]option.ClientOption{option.WithHTTPClient(conf.Client(context.Background()))}, a.clientOpts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &sheetsValues{svc: svc}, nil
}

// sheetsValues adapts the generated Sheets client to ValuesAppender
type sheetsValues struct {
	svc *sheets.Service
}

func (s *sheetsValues) AppendRow(ctx context.Context, spreadsheetID, a1Range string, row []interface{}) error {
	body := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := s.svc.Spreadsheets.Values.Append(spreadsheetID, a1Range, body).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}

func outcome(err error) string {
	switch Kind(err) {
	case KindNone:
		return "succeeded"
	case KindConfiguration:
		return "configuration_error"
	default:
		return "transient_error"
	}
}
