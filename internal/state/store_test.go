package state

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/api"
	"github.com/dondeestamimascota/mascotas/internal/bus"
	"github.com/dondeestamimascota/mascotas/internal/geo"
	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/session"
)

// fakeGeo answers lookups from a table keyed by query key. When gate is set,
// calls block until it is closed or their context ends.
type fakeGeo struct {
	mu     sync.Mutex
	calls  map[string]int
	points map[string]geo.Point
	err    error
	gate   chan struct{}
}

func newFakeGeo() *fakeGeo {
	return &fakeGeo{calls: map[string]int{}, points: map[string]geo.Point{}}
}

func (f *fakeGeo) Address(ctx context.Context, q geo.AddressQuery) (*geo.Point, error) {
	return f.answer(ctx, q.Key())
}

func (f *fakeGeo) Locality(ctx context.Context, q geo.LocalityQuery) (*geo.Point, error) {
	return f.answer(ctx, q.Key())
}

func (f *fakeGeo) answer(ctx context.Context, key string) (*geo.Point, error) {
	f.mu.Lock()
	f.calls[key]++
	gate, err := f.gate, f.err
	p, ok := f.points[key]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *fakeGeo) set(q interface{ Key() string }, lat, lon float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points[q.Key()] = geo.Point{Lat: lat, Lon: lon}
}

func (f *fakeGeo) count(q interface{ Key() string }) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[q.Key()]
}

func (f *fakeGeo) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func posting(id int64, street string) model.Posting {
	return model.Posting{
		ID:       id,
		Name:     "Luna",
		Status:   lifecycle.LostOwn,
		Province: "Buenos Aires",
		Locality: "La Plata",
		Street:   street,
		Number:   "100",
	}
}

func addrOf(p model.Posting) geo.AddressQuery {
	return geo.AddressQuery{Street: p.Street, Number: p.Number, Locality: p.Locality, Province: p.Province}
}

// recorder collects delivered states.
type recorder struct {
	mu     sync.Mutex
	states []*AppState
}

func (r *recorder) observe(s *AppState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) all() []*AppState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*AppState(nil), r.states...)
}

func TestSubscribeReceivesCurrentThenChanges(t *testing.T) {
	s := New(Config{})
	s.Patch(WithPostingsLoading(true))

	var rec recorder
	sub := s.Subscribe(rec.observe)
	s.Patch(WithPostingsError("boom"))
	s.Patch(WithPostingsLoading(false))

	got := rec.all()
	if len(got) != 3 {
		t.Fatalf("got %d deliveries, want 3", len(got))
	}
	if !got[0].PostingsLoading || got[0].PostingsError != "" {
		t.Errorf("first delivery = %+v, want current state", got[0])
	}
	if got[1].PostingsError != "boom" || !got[1].PostingsLoading {
		t.Errorf("second delivery = %+v", got[1])
	}
	if got[2].PostingsLoading || got[2].PostingsError != "boom" {
		t.Errorf("third delivery = %+v", got[2])
	}
	if got[2] != s.Snapshot() {
		t.Error("last delivery is not the current snapshot")
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	s.Patch(WithPostingsError(""))
	if n := len(rec.all()); n != 3 {
		t.Errorf("got %d deliveries after unsubscribe, want 3", n)
	}
}

func TestPatchKeepsOtherFieldsAndNeverMutates(t *testing.T) {
	s := New(Config{})
	s.SetPostings([]model.Posting{posting(1, "Calle 7")})
	before := s.Snapshot()

	s.Patch(WithSightingsLoading(true))
	after := s.Snapshot()

	if before == after {
		t.Fatal("Patch did not replace the state")
	}
	if before.SightingsLoading {
		t.Error("previous snapshot was mutated")
	}
	if len(after.Postings) != 1 || after.Postings[0].ID != 1 {
		t.Errorf("postings lost by Patch: %+v", after.Postings)
	}
}

func TestSetPostingsClearsLoadingAndError(t *testing.T) {
	s := New(Config{})
	s.Patch(WithPostingsLoading(true), WithPostingsError("old"))
	s.SetPostings(nil)
	st := s.Snapshot()
	if st.PostingsLoading || st.PostingsError != "" {
		t.Errorf("state = %+v", st)
	}
}

func TestReentrantCommitsKeepOrder(t *testing.T) {
	s := New(Config{})
	var first, second recorder

	s.Subscribe(func(st *AppState) {
		first.observe(st)
		if st.PostingsLoading && st.PostingsError == "" {
			s.Patch(WithPostingsError("from observer"))
		}
	})
	s.Subscribe(second.observe)

	s.Patch(WithPostingsLoading(true))

	for name, rec := range map[string]*recorder{"first": &first, "second": &second} {
		got := rec.all()
		if len(got) < 3 {
			t.Fatalf("%s observer got %d states, want at least 3", name, len(got))
		}
		last := got[len(got)-1]
		prev := got[len(got)-2]
		if !prev.PostingsLoading || prev.PostingsError != "" {
			t.Errorf("%s observer: loading state not delivered before nested commit: %+v", name, prev)
		}
		if last.PostingsError != "from observer" {
			t.Errorf("%s observer: last state = %+v", name, last)
		}
	}
}

func TestConcurrentCommitsDeliveredOnceInOrder(t *testing.T) {
	s := New(Config{})
	var rec recorder
	s.Subscribe(rec.observe)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Patch(WithPostingsError(strconv.Itoa(i)))
		}()
	}
	wg.Wait()

	got := rec.all()
	if len(got) != n+1 {
		t.Fatalf("got %d deliveries, want %d", len(got), n+1)
	}
	seen := map[*AppState]bool{}
	for _, st := range got {
		if seen[st] {
			t.Fatal("state delivered twice")
		}
		seen[st] = true
	}
	if got[n] != s.Snapshot() {
		t.Error("last delivery is not the final state")
	}
}

func TestObserverPanicDoesNotStopDelivery(t *testing.T) {
	s := New(Config{})
	var rec recorder
	s.Subscribe(func(st *AppState) {
		if st.PostingsLoading {
			panic("view bug")
		}
	})
	s.Subscribe(rec.observe)

	s.Patch(WithPostingsLoading(true))
	s.Patch(WithPostingsLoading(false))

	if n := len(rec.all()); n != 3 {
		t.Errorf("got %d deliveries, want 3", n)
	}
}

func TestSetUserSetsAuthenticated(t *testing.T) {
	s := New(Config{})
	s.SetUser(&model.User{ID: 1, Name: "Ana"})
	if st := s.Snapshot(); !st.Authenticated || st.UserID() != 1 {
		t.Errorf("state = %+v", st)
	}
	s.SetUser(nil)
	if st := s.Snapshot(); st.Authenticated || st.User != nil {
		t.Errorf("state after SetUser(nil) = %+v", st)
	}
}

func TestAppendSightingLinksToPosting(t *testing.T) {
	s := New(Config{})
	s.SetPostings([]model.Posting{posting(1, "Calle 7"), posting(2, "Calle 8")})
	before := s.Snapshot()

	pid := int64(2)
	s.AppendSighting(model.Sighting{ID: 10, PostingID: &pid})
	s.AppendSighting(model.Sighting{ID: 11})

	st := s.Snapshot()
	if len(st.Sightings) != 2 {
		t.Fatalf("sightings = %d, want 2", len(st.Sightings))
	}
	p2, _ := st.Posting(2)
	if len(p2.Sightings) != 1 || p2.Sightings[0].ID != 10 {
		t.Errorf("posting 2 sightings = %+v", p2.Sightings)
	}
	p1, _ := st.Posting(1)
	if len(p1.Sightings) != 0 {
		t.Errorf("posting 1 got sightings: %+v", p1.Sightings)
	}
	if old, _ := before.Posting(2); len(old.Sightings) != 0 {
		t.Error("earlier snapshot was mutated")
	}
}

func TestReplaceAndRemovePosting(t *testing.T) {
	s := New(Config{})
	s.SetPostings([]model.Posting{posting(1, "Calle 7"), posting(2, "Calle 8")})

	upd := posting(2, "Calle 8")
	upd.Status = lifecycle.Recovered
	s.ReplacePosting(upd)
	s.ReplacePosting(posting(3, "Calle 9"))

	st := s.Snapshot()
	if p, _ := st.Posting(2); p.Status != lifecycle.Recovered {
		t.Errorf("posting 2 status = %s", p.Status)
	}
	if len(st.Postings) != 3 {
		t.Errorf("postings = %d, want 3", len(st.Postings))
	}

	s.RemovePosting(1)
	if _, ok := s.Snapshot().Posting(1); ok {
		t.Error("posting 1 still present")
	}
	if _, ok := st.Posting(1); !ok {
		t.Error("earlier snapshot lost posting 1")
	}
}

func TestLogout(t *testing.T) {
	sess := session.New(session.NewMemory())
	_ = sess.Save("jwt", 4)
	b := bus.New()
	events, cancel := b.Subscribe("session.", 4)
	defer cancel()

	s := New(Config{Session: sess, Bus: b})
	s.SetUser(&model.User{ID: 4})
	s.Logout()

	if st := s.Snapshot(); st.User != nil || st.Authenticated {
		t.Errorf("state = %+v", st)
	}
	if sess.LoggedIn() {
		t.Error("session not cleared")
	}
	select {
	case evt := <-events:
		if evt.Kind != bus.KindLoggedOut {
			t.Errorf("event = %s", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no logout event")
	}
}

type fakeUsers struct {
	user *model.User
	err  error
	got  int64
}

func (f *fakeUsers) User(_ context.Context, id int64) (*model.User, error) {
	f.got = id
	return f.user, f.err
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for bootstrap")
	}
}

func TestInitializeFromStorage(t *testing.T) {
	sess := session.New(session.NewMemory())
	_ = sess.Save("jwt", 7)
	users := &fakeUsers{user: &model.User{ID: 7, Name: "Ana"}}

	s := New(Config{Session: sess, Users: users})
	waitDone(t, s.InitializeFromStorage(context.Background()))

	if users.got != 7 {
		t.Errorf("fetched user %d, want 7", users.got)
	}
	if st := s.Snapshot(); !st.Authenticated || st.UserID() != 7 {
		t.Errorf("state = %+v", st)
	}
}

func TestInitializeFromStorageFailureClearsSession(t *testing.T) {
	sess := session.New(session.NewMemory())
	_ = sess.Save("expired", 7)
	b := bus.New()
	events, cancel := b.Subscribe("session.", 4)
	defer cancel()

	s := New(Config{Session: sess, Users: &fakeUsers{err: &api.StatusError{Code: 401}}, Bus: b})
	var seen []*AppState
	s.Subscribe(func(st *AppState) { seen = append(seen, st) })
	waitDone(t, s.InitializeFromStorage(context.Background()))

	if s.Snapshot().User != nil || s.Snapshot().Authenticated {
		t.Error("user set despite failure")
	}
	if len(seen) != 2 {
		t.Errorf("observer saw %d states, want the initial one and one after the failure", len(seen))
	}
	if sess.LoggedIn() {
		t.Error("session not cleared")
	}
	select {
	case evt := <-events:
		if evt.Kind != bus.KindSessionExpiry {
			t.Errorf("event = %s", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no expiry event")
	}
}

func TestInitializeFromStorageKeepsSessionOnTransientError(t *testing.T) {
	sess := session.New(session.NewMemory())
	_ = sess.Save("valid", 5)
	b := bus.New()
	events, cancel := b.Subscribe("session.", 4)
	defer cancel()

	s := New(Config{Session: sess, Users: &fakeUsers{err: errors.New("dial tcp: connection refused")}, Bus: b})
	waitDone(t, s.InitializeFromStorage(context.Background()))

	if !sess.LoggedIn() {
		t.Error("network failure cleared the stored session")
	}
	select {
	case evt := <-events:
		t.Errorf("unexpected event %s", evt.Kind)
	default:
	}
}

// blockingUsers answers only when the context ends.
type blockingUsers struct{}

func (blockingUsers) User(ctx context.Context, _ int64) (*model.User, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestInitializeFromStorageKeepsSessionWhenCancelled(t *testing.T) {
	sess := session.New(session.NewMemory())
	_ = sess.Save("valid", 5)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(Config{Session: sess, Users: blockingUsers{}})
	done := s.InitializeFromStorage(ctx)
	cancel()
	waitDone(t, done)

	if !sess.LoggedIn() {
		t.Error("shutdown during restore cleared the stored session")
	}
}

func TestInitializeFromStorageWithoutSession(t *testing.T) {
	sess := session.New(session.NewMemory())
	_ = sess.SaveToken("jwt")
	users := &fakeUsers{user: &model.User{ID: 1}}

	s := New(Config{Session: sess, Users: users})
	waitDone(t, s.InitializeFromStorage(context.Background()))

	if users.got != 0 {
		t.Error("profile fetched without a stored user id")
	}
	if s.Snapshot().Authenticated {
		t.Error("authenticated without session")
	}
}
