package intake

import (
	"sync"
	"time"
)

// Registry keeps one form per client
type Registry struct {
	cfg Config

	mu    sync.Mutex
	forms map[string]*Form
}

// NewRegistry creates an empty registry building forms from cfg
func NewRegistry(cfg Config) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Registry{
		cfg:   cfg,
		forms: make(map[string]*Form),
	}
}

// Get returns the form of clientID, creating it on first use. The form
// counts as touched, so a concurrent Sweep cannot drop it.
func (r *Registry) Get(clientID string) *Form {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.forms[clientID]
	if !ok {
		f = NewForm(clientID, r.cfg)
		r.forms[clientID] = f
		return f
	}
	f.touch()
	return f
}

// Lookup returns the form of clientID without creating one
func (r *Registry) Lookup(clientID string) (*Form, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[clientID]
	return f, ok
}

// Drop discards the form of clientID
func (r *Registry) Drop(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.forms, clientID)
}

// Len returns the number of live forms
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.forms)
}

// Sweep discards forms untouched for longer than idle. Forms with a
// submission in flight are kept. It returns the number of forms removed.
func (r *Registry) Sweep(idle time.Duration) int {
	now := r.cfg.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, f := range r.forms {
		age, pending := f.idleSince(now)
		if pending || age <= idle {
			continue
		}
		delete(r.forms, id)
		removed++
	}
	return removed
}
