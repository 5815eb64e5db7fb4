package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/terra-clan/recruitment-portal/internal/models"
	"github.com/terra-clan/recruitment-portal/internal/storage"
)

var (
	// ErrInvalidEmail is returned when an email fails the institutional pattern
	ErrInvalidEmail = errors.New("please use your official institutional email address")
	// ErrMissingClient is returned when no client id scopes the marker
	ErrMissingClient = errors.New("client id is required")
)

// Gate records and reads the session marker of a browser client.
// The email pattern is the only identity check; nothing proves mailbox ownership.
type Gate struct {
	store   storage.Store
	matcher *Matcher
}

// NewGate creates a gate over the given store
func NewGate(store storage.Store, matcher *Matcher) *Gate {
	if matcher == nil {
		matcher = defaultMatcher
	}
	return &Gate{store: store, matcher: matcher}
}

// ValidateInstitutionalEmail reports whether candidate may establish a session
func (g *Gate) ValidateInstitutionalEmail(candidate string) bool {
	return g.matcher.Match(candidate)
}

// EmailDomain returns the institutional mail domain
func (g *Gate) EmailDomain() string {
	return g.matcher.Domain()
}

// Establish writes the marker for clientID. The email is checked here so the
// stored flag never outlives a failed match.
func (g *Gate) Establish(ctx context.Context, clientID, email string) (*models.Session, error) {
	if clientID == "" {
		return nil, ErrMissingClient
	}
	if !g.matcher.Match(email) {
		return nil, ErrInvalidEmail
	}

	if err := g.store.Set(ctx, markerKey(clientID, models.SessionEmailKey), email); err != nil {
		return nil, fmt.Errorf("failed to store session email: %w", err)
	}
	if err := g.store.Set(ctx, markerKey(clientID, models.SessionFlagKey), "true"); err != nil {
		return nil, fmt.Errorf("failed to store session flag: %w", err)
	}

	return &models.Session{Email: email, Authenticated: true}, nil
}

// Current returns the client's session, or nil when the flag is missing or
// falsy or the email is missing. The email is not re-validated.
func (g *Gate) Current(ctx context.Context, clientID string) (*models.Session, error) {
	if clientID == "" {
		return nil, nil
	}

	flag, err := g.store.Get(ctx, markerKey(clientID, models.SessionFlagKey))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session flag: %w", err)
	}
	if ok, _ := strconv.ParseBool(flag); !ok {
		return nil, nil
	}

	email, err := g.store.Get(ctx, markerKey(clientID, models.SessionEmailKey))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read session email: %w", err)
	}
	if email == "" {
		return nil, nil
	}

	return &models.Session{Email: email, Authenticated: true}, nil
}

// Clear removes the client's marker (logout)
func (g *Gate) Clear(ctx context.Context, clientID string) error {
	if clientID == "" {
		return nil
	}
	err := g.store.Delete(ctx,
		markerKey(clientID, models.SessionEmailKey),
		markerKey(clientID, models.SessionFlagKey),
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func markerKey(clientID, name string) string {
	return "client:" + clientID + ":" + name
}
