package state

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/api"
	"github.com/dondeestamimascota/mascotas/internal/bus"
	"github.com/dondeestamimascota/mascotas/internal/geo"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"go.uber.org/zap"
)

// Observer receives state snapshots. It must not modify them.
type Observer func(*AppState)

// SessionStorage is the persisted login. *session.Store implements it.
type SessionStorage interface {
	LoggedIn() bool
	UserID() (int64, bool, error)
	Clear() error
}

// UserFetcher loads a profile from the backend. *api.Client implements it.
type UserFetcher interface {
	User(ctx context.Context, id int64) (*model.User, error)
}

// Config wires a Store. Every field is optional.
type Config struct {
	Session        SessionStorage
	Users          UserFetcher
	Geocoder       geo.Geocoder
	GeocodeTimeout time.Duration
	Bus            *bus.Bus
	Logger         *zap.Logger
}

// Store is the single owner of AppState.
//
// Observers are called in commit order, each state exactly once. A commit made
// while another goroutine is delivering is queued and delivered by that
// goroutine, which keeps the order total; commits made from inside an observer
// are delivered after the current round finishes.
type Store struct {
	session SessionStorage
	users   UserFetcher
	bus     *bus.Bus
	logger  *zap.Logger

	enricher *Enricher

	mu        sync.Mutex
	state     *AppState
	seq       uint64
	observers []*observer
	nextID    uint64
	queue     []delivery
	draining  bool
}

type observer struct {
	id     uint64
	fn     Observer
	since  uint64
	active atomic.Bool
}

// delivery is a state to hand out. A non-zero target limits it to one
// observer; that is how a new subscriber receives the current state.
type delivery struct {
	seq    uint64
	state  *AppState
	target uint64
}

// Subscription cancels an observer.
type Subscription struct {
	store *Store
	obs   *observer
}

// Unsubscribe stops delivery. Calling it more than once is harmless.
func (sub *Subscription) Unsubscribe() {
	if sub == nil || !sub.obs.active.Swap(false) {
		return
	}
	s := sub.store
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = slices.DeleteFunc(s.observers, func(o *observer) bool { return o == sub.obs })
}

func New(cfg Config) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{
		session: cfg.Session,
		users:   cfg.Users,
		bus:     cfg.Bus,
		logger:  logger,
		state:   &AppState{},
	}
	s.enricher = newEnricher(s, cfg.Geocoder, cfg.GeocodeTimeout, logger.Named("enrich"))
	return s
}

// Enricher returns the store's geocoding coordinator.
func (s *Store) Enricher() *Enricher { return s.enricher }

// Snapshot returns the current state. The caller must not modify it.
func (s *Store) Snapshot() *AppState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn. It receives the current state first, then every
// later state.
func (s *Store) Subscribe(fn Observer) *Subscription {
	s.mu.Lock()
	s.nextID++
	obs := &observer{id: s.nextID, fn: fn, since: s.seq}
	obs.active.Store(true)
	s.observers = append(s.observers, obs)
	s.queue = append(s.queue, delivery{seq: s.seq, state: s.state, target: obs.id})
	s.mu.Unlock()

	s.drain()
	return &Subscription{store: s, obs: obs}
}

// update derives the next state from the current one under the lock and
// broadcasts it. When fn reports false nothing is committed.
func (s *Store) update(fn func(cur *AppState) (*AppState, bool)) bool {
	s.mu.Lock()
	next, ok := fn(s.state)
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.seq++
	s.state = next
	s.queue = append(s.queue, delivery{seq: s.seq, state: next})
	s.mu.Unlock()

	s.drain()
	return true
}

func (s *Store) drain() {
	s.mu.Lock()
	if s.draining {
		s.mu.Unlock()
		return
	}
	s.draining = true
	for len(s.queue) > 0 {
		d := s.queue[0]
		s.queue = s.queue[1:]
		targets := slices.Clone(s.observers)
		s.mu.Unlock()

		for _, o := range targets {
			if d.target != 0 && o.id != d.target {
				continue
			}
			if d.target == 0 && d.seq <= o.since {
				continue
			}
			s.deliver(o, d.state)
		}

		s.mu.Lock()
	}
	s.draining = false
	s.mu.Unlock()
}

func (s *Store) deliver(o *observer, st *AppState) {
	if !o.active.Load() {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("observer panicked", zap.Uint64("observer", o.id), zap.Any("panic", r))
		}
	}()
	o.fn(st)
}

// Patch merges the given changes over a copy of the current state.
func (s *Store) Patch(changes ...Change) {
	s.update(func(cur *AppState) (*AppState, bool) {
		next := *cur
		for _, c := range changes {
			if c != nil {
				c(&next)
			}
		}
		return &next, true
	})
}

// SetUser stores the logged-in user, or clears it when u is nil, and
// resolves the user's locality to coordinates in the background.
func (s *Store) SetUser(u *model.User) {
	s.Patch(WithUser(u), WithAuthenticated(u != nil))
	if u != nil {
		s.enricher.User(*u)
	}
}

// SetPostings replaces the postings list and ends any loading state.
func (s *Store) SetPostings(list []model.Posting) {
	s.Patch(WithPostings(list), WithPostingsLoading(false), WithPostingsError(""))
	s.enricher.Postings(list)
}

// SetSightings replaces the sightings list and ends any loading state.
func (s *Store) SetSightings(list []model.Sighting) {
	s.Patch(WithSightings(list), WithSightingsLoading(false), WithSightingsError(""))
	s.enricher.Sightings(list)
}

func (s *Store) AppendPosting(p model.Posting) {
	s.update(func(cur *AppState) (*AppState, bool) {
		next := *cur
		next.Postings = append(slices.Clone(cur.Postings), p)
		return &next, true
	})
	s.enricher.Posting(p)
}

// AppendSighting adds a sighting. A sighting linked to a known posting is
// also added to that posting's own list.
func (s *Store) AppendSighting(sg model.Sighting) {
	s.update(func(cur *AppState) (*AppState, bool) {
		next := *cur
		next.Sightings = append(slices.Clone(cur.Sightings), sg)
		if sg.Linked() {
			if i := postingIndex(cur.Postings, *sg.PostingID); i >= 0 {
				postings := slices.Clone(cur.Postings)
				postings[i].Sightings = append(slices.Clone(postings[i].Sightings), sg)
				next.Postings = postings
			}
		}
		return &next, true
	})
	s.enricher.Sighting(sg)
}

// ReplacePosting swaps the posting with the same id, appending it when absent.
func (s *Store) ReplacePosting(p model.Posting) {
	s.update(func(cur *AppState) (*AppState, bool) {
		next := *cur
		postings := slices.Clone(cur.Postings)
		if i := postingIndex(postings, p.ID); i >= 0 {
			postings[i] = p
		} else {
			postings = append(postings, p)
		}
		next.Postings = postings
		return &next, true
	})
	s.enricher.Posting(p)
}

// UpsertPostings replaces the postings with matching ids and appends the
// rest, in a single commit.
func (s *Store) UpsertPostings(list []model.Posting) {
	s.update(func(cur *AppState) (*AppState, bool) {
		next := *cur
		postings := slices.Clone(cur.Postings)
		for _, p := range list {
			if i := postingIndex(postings, p.ID); i >= 0 {
				postings[i] = p
			} else {
				postings = append(postings, p)
			}
		}
		next.Postings = postings
		return &next, true
	})
	s.enricher.Postings(list)
}

func (s *Store) RemovePosting(id int64) {
	s.update(func(cur *AppState) (*AppState, bool) {
		next := *cur
		next.Postings = slices.DeleteFunc(slices.Clone(cur.Postings), func(p model.Posting) bool { return p.ID == id })
		return &next, true
	})
}

// Logout forgets the persisted session and the user, then announces it on
// the bus so views can return to the login screen.
func (s *Store) Logout() {
	if s.session != nil {
		if err := s.session.Clear(); err != nil {
			s.logger.Warn("clear session failed", zap.Error(err))
		}
	}
	s.Patch(WithUser(nil), WithAuthenticated(false))
	if s.bus != nil {
		s.bus.Emit(bus.KindLoggedOut, nil)
	}
}

// InitializeFromStorage restores a persisted login by fetching the user's
// profile in the background. The returned channel closes when the attempt
// ends; the user is not yet loaded when this returns. Only a rejected token
// (401/403) or an unknown user (404) clears the stored session.
func (s *Store) InitializeFromStorage(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if s.session == nil || s.users == nil || !s.session.LoggedIn() {
		close(done)
		return done
	}
	id, _, err := s.session.UserID()
	if err != nil {
		s.logger.Warn("read stored user id", zap.Error(err))
		close(done)
		return done
	}

	go func() {
		defer close(done)
		u, err := s.users.User(ctx, id)
		switch {
		case err == nil:
		case api.IsUnauthorized(err) || api.IsNotFound(err):
			s.logger.Warn("stored session rejected", zap.Int64("user_id", id), zap.Error(err))
			if cerr := s.session.Clear(); cerr != nil {
				s.logger.Warn("clear session failed", zap.Error(cerr))
			}
			s.Patch(WithUser(nil), WithAuthenticated(false))
			if s.bus != nil {
				s.bus.Emit(bus.KindSessionExpiry, err)
			}
			return
		case errors.Is(err, context.Canceled):
			s.logger.Debug("session restore cancelled", zap.Int64("user_id", id))
			return
		default:
			// The token may still be good; keep it for the next start.
			s.logger.Warn("restore session failed", zap.Int64("user_id", id), zap.Error(err))
			return
		}
		s.logger.Info("session restored", zap.Int64("user_id", u.ID))
		s.SetUser(u)
	}()
	return done
}

// Wait blocks until background enrichment has finished.
func (s *Store) Wait() { s.enricher.Wait() }

// Close cancels background enrichment and waits for it.
func (s *Store) Close() { s.enricher.Close() }

func postingIndex(list []model.Posting, id int64) int {
	return slices.IndexFunc(list, func(p model.Posting) bool { return p.ID == id })
}
