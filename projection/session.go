// Package projection keeps a continuously updated read model of the
// account store for the presentation layer: the current profile (the one
// with the greatest last_played), the switch-user list, and the transient
// loading/error flags around register and login.
package projection

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/umape/trainerbase/domain"
	"github.com/umape/trainerbase/repository"
	"github.com/umape/trainerbase/service"
)

const (
	feedBuffer    = 16
	deriveTimeout = 5 * time.Second
)

// Session is a live view over the profile store. The current profile is a
// standing query: the store's change feed triggers re-derivation, so the
// view reflects every durable mutation without explicit re-query by the
// caller.
type Session struct {
	store *repository.ProfileStore
	svc   *service.AccountService
	log   *slog.Logger

	mu          sync.Mutex
	current     *domain.Profile
	profiles    []domain.Profile
	firstTime   bool
	loading     bool
	lastErr     error
	watchers    map[int]chan *domain.Profile
	nextWatcher int

	cancelFeed func()
	done       chan struct{}
}

// NewSession builds the projection and starts its subscription loop.
// The first-time flag is a one-shot snapshot taken here; it is not
// re-derived when profiles appear later through other paths.
func NewSession(ctx context.Context, store *repository.ProfileStore, svc *service.AccountService, logger *slog.Logger) (*Session, error) {
	firstTime, err := svc.IsFirstTimeUser(ctx)
	if err != nil {
		return nil, err
	}
	current, err := store.FindCurrent(ctx)
	if err != nil {
		return nil, domain.ErrStorage("derive current profile", err)
	}

	s := &Session{
		store:     store,
		svc:       svc,
		log:       logger,
		current:   current,
		firstTime: firstTime,
		watchers:  make(map[int]chan *domain.Profile),
		done:      make(chan struct{}),
	}
	s.refreshProfiles(ctx)

	changes, cancel := store.Watch(feedBuffer)
	s.cancelFeed = cancel
	go s.run(changes)

	return s, nil
}

// Close stops the subscription loop and closes every watcher channel.
// Mutations already dispatched to the store still complete; only their
// notifications are dropped.
func (s *Session) Close() {
	s.cancelFeed()
	<-s.done

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.watchers {
		delete(s.watchers, id)
		close(ch)
	}
}

func (s *Session) run(changes <-chan repository.Change) {
	defer close(s.done)
	for range changes {
		s.derive()
	}
}

// derive re-runs the standing current-profile query and notifies watchers
// when the result changed.
func (s *Session) derive() {
	ctx, cancel := context.WithTimeout(context.Background(), deriveTimeout)
	defer cancel()

	current, err := s.store.FindCurrent(ctx)
	if err != nil {
		s.log.Warn("current profile derivation failed", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if profilesEqual(s.current, current) {
		s.current = current
		return
	}
	s.current = current

	// Notify under the lock so a concurrent Watch cancel cannot close a
	// channel mid-send. derive is the only sender, so the coalescing loop
	// in notify terminates.
	for _, ch := range s.watchers {
		notify(ch, snapshot(current))
	}
}

// notify delivers the latest snapshot without blocking: a watcher that
// has not consumed the previous value gets it replaced.
func notify(ch chan *domain.Profile, p *domain.Profile) {
	for {
		select {
		case ch <- p:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Current returns the profile with the greatest last_played, or nil when
// no profile exists or every profile is logged out.
func (s *Session) Current() *domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.current)
}

// Watch returns a channel receiving current-profile snapshots (nil when
// the session ends) and a cancel function. Delivery is coalescing: a slow
// consumer sees the latest value, not every intermediate one.
func (s *Session) Watch() (<-chan *domain.Profile, func()) {
	ch := make(chan *domain.Profile, 1)

	s.mu.Lock()
	id := s.nextWatcher
	s.nextWatcher++
	s.watchers[id] = ch
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if w, ok := s.watchers[id]; ok {
			delete(s.watchers, id)
			close(w)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// IsFirstTime reports the one-shot first-run flag taken at construction,
// cleared by a successful Register through this projection.
func (s *Session) IsFirstTime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstTime
}

// Profiles returns the switch-user snapshot list, most recently played
// first. Refreshed after Register, Login and SwitchUser; empty when the
// last refresh failed.
func (s *Session) Profiles() []domain.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// IsLoading reports whether a Register or Login call is in flight.
func (s *Session) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// LastError returns the failure of the most recent Register or Login,
// or nil after a success or ClearError.
func (s *Session) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// ClearError resets the error flag, e.g. when the user edits the form.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Register runs the account service registration with the loading/error
// flag lifecycle and clears the first-time flag on success.
func (s *Session) Register(ctx context.Context, name, password, language string) (*domain.Profile, error) {
	s.setLoading(true)

	profile, err := s.svc.Register(ctx, name, password, language)
	if err != nil {
		s.finish(err)
		return nil, err
	}

	s.mu.Lock()
	s.firstTime = false
	s.mu.Unlock()
	s.refreshProfiles(ctx)
	s.finish(nil)
	return profile, nil
}

// Login runs the account service login with the loading/error flag
// lifecycle.
func (s *Session) Login(ctx context.Context, name, password string) (*domain.Profile, error) {
	s.setLoading(true)

	profile, err := s.svc.Login(ctx, name, password)
	if err != nil {
		s.finish(err)
		return nil, err
	}

	s.refreshProfiles(ctx)
	s.finish(nil)
	return profile, nil
}

// SwitchUser makes the target the current session and refreshes the
// switch-user list.
func (s *Session) SwitchUser(ctx context.Context, id uuid.UUID) error {
	if err := s.svc.SwitchUser(ctx, id); err != nil {
		return err
	}
	s.refreshProfiles(ctx)
	return nil
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	if v {
		s.lastErr = nil
	}
	s.mu.Unlock()
}

func (s *Session) finish(err error) {
	s.mu.Lock()
	s.loading = false
	s.lastErr = err
	s.mu.Unlock()
}

// refreshProfiles reloads the switch-user list. Best effort: a failure
// degrades to an empty list instead of blocking the rest of the UI.
func (s *Session) refreshProfiles(ctx context.Context) {
	profiles, err := s.svc.Profiles(ctx)
	if err != nil {
		s.log.Warn("profile list refresh failed", "error", err)
		profiles = nil
	}

	s.mu.Lock()
	s.profiles = profiles
	s.mu.Unlock()
}

func snapshot(p *domain.Profile) *domain.Profile {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

func profilesEqual(a, b *domain.Profile) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
