package booking

import (
	"context"
	"sync"
	"time"

	"campusbook/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultDraftIdle        = 30 * time.Minute
	DefaultMaxDraftsPerUser = 5
)

// Registry owns the live draft sessions of the booking screens, keyed by draft id.
// Every draft belongs to the user who opened it.
type Registry struct {
	deps Deps
	idle time.Duration

	// MaxDraftsPerUser caps the live drafts one user may hold.
	MaxDraftsPerUser int

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewRegistry(deps Deps, idle time.Duration) *Registry {
	if idle <= 0 {
		idle = DefaultDraftIdle
	}
	return &Registry{
		deps:             deps.withDefaults(),
		idle:             idle,
		MaxDraftsPerUser: DefaultMaxDraftsPerUser,
		sessions:         make(map[string]*Session),
	}
}

// Open mounts a fresh, empty draft for a resource on behalf of owner.
func (r *Registry) Open(owner models.AuthContext, resourceID string, resource *models.Resource) (*Session, error) {
	s := NewSession(uuid.New().String(), resourceID, resource, r.deps)
	s.Owner = owner.UserID
	s.OwnerRole = owner.Role

	r.mu.Lock()
	if r.MaxDraftsPerUser > 0 && r.countLocked(owner.UserID) >= r.MaxDraftsPerUser {
		r.mu.Unlock()
		return nil, ErrTooManyDrafts
	}
	r.sessions[s.ID] = s
	r.mu.Unlock()

	r.deps.Logger.Debug("draft opened",
		zap.String("draftID", s.ID), zap.String("resourceID", resourceID), zap.String("userID", owner.UserID))
	return s, nil
}

func (r *Registry) countLocked(userID string) int {
	n := 0
	for _, s := range r.sessions {
		if s.Owner == userID {
			n++
		}
	}
	return n
}

// Get returns the live session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return s, nil
}

// Lookup returns the session for id only if userID owns it. Drafts of other
// users are reported as not found.
func (r *Registry) Lookup(id, userID string) (*Session, error) {
	s, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if s.Owner != userID {
		return nil, ErrDraftNotFound
	}
	return s, nil
}

// Discard drops a draft, e.g. when the user navigates away.
func (r *Registry) Discard(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// Renew replaces a finished draft with a fresh empty one for the same resource.
func (r *Registry) Renew(id string) (*Session, error) {
	old, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	r.Discard(id)
	return r.Open(models.AuthContext{UserID: old.Owner, Role: old.OwnerRole}, old.ResourceID(), old.Resource())
}

// Len reports the number of live drafts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep removes drafts idle for longer than the registry's idle limit.
// Drafts with a submission in flight are kept.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	candidates := make(map[string]*Session, len(r.sessions))
	for id, s := range r.sessions {
		candidates[id] = s
	}
	r.mu.Unlock()

	removed := 0
	for id, s := range candidates {
		if s.State() == models.StateSubmitting || now.Sub(s.LastTouched()) < r.idle {
			continue
		}
		if r.Discard(id) {
			removed++
		}
	}
	if removed > 0 {
		r.deps.Logger.Info("expired idle drafts", zap.Int("count", removed))
	}
	return removed
}

// StartJanitor sweeps idle drafts every interval until ctx is done.
func (r *Registry) StartJanitor(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.Sweep(r.deps.Clock.Now())
			}
		}
	}()
}
