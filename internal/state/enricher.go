package state

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/geo"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const DefaultGeocodeTimeout = 10 * time.Second

// Enricher fills in missing coordinates of users, postings and sightings.
//
// An entity has at most one lookup in flight per address, and lookups for the
// same address share one request. A result is merged only when the entity is
// still in the state, still has no coordinates and still has the address the
// lookup was made for; otherwise it is dropped. Failures and misses are logged
// and not retried.
type Enricher struct {
	store   *Store
	geo     geo.Geocoder
	timeout time.Duration
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	group  singleflight.Group
	wg     sync.WaitGroup

	mu       sync.Mutex
	inflight map[string]struct{}
}

func newEnricher(s *Store, g geo.Geocoder, timeout time.Duration, logger *zap.Logger) *Enricher {
	if timeout <= 0 {
		timeout = DefaultGeocodeTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Enricher{
		store:    s,
		geo:      g,
		timeout:  timeout,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		inflight: make(map[string]struct{}),
	}
}

// lookup is one geocoding request. key identifies the address and doubles as
// the fingerprint compared at merge time.
type lookup struct {
	key string
	run func(ctx context.Context, g geo.Geocoder) (*geo.Point, error)
}

func addressLookup(q geo.AddressQuery) lookup {
	return lookup{key: q.Key(), run: func(ctx context.Context, g geo.Geocoder) (*geo.Point, error) {
		return g.Address(ctx, q)
	}}
}

func localityLookup(q geo.LocalityQuery) lookup {
	return lookup{key: q.Key(), run: func(ctx context.Context, g geo.Geocoder) (*geo.Point, error) {
		return g.Locality(ctx, q)
	}}
}

// placeLookup prefers the street address and falls back to the locality
// centroid when there is no street.
func placeLookup(street, number, locality, province string) (lookup, bool) {
	if aq := (geo.AddressQuery{Street: street, Number: number, Locality: locality, Province: province}); aq.Complete() {
		return addressLookup(aq), true
	}
	if lq := (geo.LocalityQuery{Name: locality, Province: province}); lq.Complete() {
		return localityLookup(lq), true
	}
	return lookup{}, false
}

func userLookup(u *model.User) (lookup, bool) {
	lq := geo.LocalityQuery{Name: u.Locality, Province: u.Province}
	if !lq.Complete() {
		return lookup{}, false
	}
	return localityLookup(lq), true
}

func postingLookup(p *model.Posting) (lookup, bool) {
	return placeLookup(p.Street, p.Number, p.Locality, p.Province)
}

func sightingLookup(s *model.Sighting) (lookup, bool) {
	return placeLookup(s.Street, s.Number, s.Locality, s.Province)
}

// User geocodes the user's locality when coordinates are missing.
func (e *Enricher) User(u model.User) {
	if u.HasCoordinates() {
		return
	}
	l, ok := userLookup(&u)
	if !ok {
		return
	}
	id := u.ID
	e.dispatch(fmt.Sprintf("user:%d", id), l, func(cur *AppState, p geo.Point) (*AppState, bool) {
		return mergeUser(cur, id, l.key, p)
	})
}

// Posting geocodes p and its embedded sightings.
func (e *Enricher) Posting(p model.Posting) {
	for _, sg := range p.Sightings {
		e.Sighting(sg)
	}
	if p.HasCoordinates() {
		return
	}
	l, ok := postingLookup(&p)
	if !ok {
		return
	}
	id := p.ID
	e.dispatch(fmt.Sprintf("posting:%d", id), l, func(cur *AppState, pt geo.Point) (*AppState, bool) {
		return mergePosting(cur, id, l.key, pt)
	})
}

func (e *Enricher) Postings(list []model.Posting) {
	for _, p := range list {
		e.Posting(p)
	}
}

func (e *Enricher) Sighting(s model.Sighting) {
	if s.HasCoordinates() {
		return
	}
	l, ok := sightingLookup(&s)
	if !ok {
		return
	}
	id := s.ID
	e.dispatch(fmt.Sprintf("sighting:%d", id), l, func(cur *AppState, pt geo.Point) (*AppState, bool) {
		return mergeSighting(cur, id, l.key, pt)
	})
}

func (e *Enricher) Sightings(list []model.Sighting) {
	for _, s := range list {
		e.Sighting(s)
	}
}

func (e *Enricher) dispatch(entity string, l lookup, merge func(*AppState, geo.Point) (*AppState, bool)) {
	if e.geo == nil || e.ctx.Err() != nil {
		return
	}
	entity += "@" + l.key
	e.mu.Lock()
	if _, busy := e.inflight[entity]; busy {
		e.mu.Unlock()
		return
	}
	e.inflight[entity] = struct{}{}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		defer func() {
			e.mu.Lock()
			delete(e.inflight, entity)
			e.mu.Unlock()
		}()

		v, err, shared := e.group.Do(l.key, func() (any, error) {
			ctx, cancel := context.WithTimeout(e.ctx, e.timeout)
			defer cancel()
			return l.run(ctx, e.geo)
		})
		if err != nil {
			e.logger.Warn("geocoding failed", zap.String("entity", entity), zap.String("query", l.key), zap.Error(err))
			return
		}
		pt, _ := v.(*geo.Point)
		if pt == nil {
			e.logger.Debug("no geocoding match", zap.String("entity", entity), zap.String("query", l.key))
			return
		}
		if !e.store.update(func(cur *AppState) (*AppState, bool) { return merge(cur, *pt) }) {
			e.logger.Debug("stale geocoding result dropped", zap.String("entity", entity))
			return
		}
		e.logger.Debug("coordinates merged", zap.String("entity", entity), zap.Bool("shared", shared))
	}()
}

// Pending returns the number of entities with a lookup in flight.
func (e *Enricher) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.inflight)
}

// Wait blocks until every dispatched lookup has finished.
func (e *Enricher) Wait() { e.wg.Wait() }

// Close aborts in-flight lookups and stops accepting new ones.
func (e *Enricher) Close() {
	e.cancel()
	e.wg.Wait()
}

func coords(p geo.Point) (*float64, *float64) {
	lat, lon := p.Lat, p.Lon
	return &lat, &lon
}

func mergeUser(cur *AppState, id int64, key string, p geo.Point) (*AppState, bool) {
	u := cur.User
	if u == nil || u.ID != id || u.HasCoordinates() {
		return nil, false
	}
	if l, ok := userLookup(u); !ok || l.key != key {
		return nil, false
	}
	nu := *u
	nu.Latitude, nu.Longitude = coords(p)
	next := *cur
	next.User = &nu
	return &next, true
}

func mergePosting(cur *AppState, id int64, key string, p geo.Point) (*AppState, bool) {
	i := postingIndex(cur.Postings, id)
	if i < 0 {
		return nil, false
	}
	old := cur.Postings[i]
	if old.HasCoordinates() {
		return nil, false
	}
	if l, ok := postingLookup(&old); !ok || l.key != key {
		return nil, false
	}
	postings := slices.Clone(cur.Postings)
	postings[i].Latitude, postings[i].Longitude = coords(p)
	next := *cur
	next.Postings = postings
	return &next, true
}

// mergeSighting updates the sighting in the top-level list and inside any
// posting that embeds it.
func mergeSighting(cur *AppState, id int64, key string, p geo.Point) (*AppState, bool) {
	matches := func(s *model.Sighting) bool {
		if s.ID != id || s.HasCoordinates() {
			return false
		}
		l, ok := sightingLookup(s)
		return ok && l.key == key
	}
	next := *cur
	changed := false

	if i := slices.IndexFunc(cur.Sightings, func(s model.Sighting) bool { return matches(&s) }); i >= 0 {
		sightings := slices.Clone(cur.Sightings)
		sightings[i].Latitude, sightings[i].Longitude = coords(p)
		next.Sightings = sightings
		changed = true
	}

	var postings []model.Posting
	for pi := range cur.Postings {
		nested := cur.Postings[pi].Sightings
		si := slices.IndexFunc(nested, func(s model.Sighting) bool { return matches(&s) })
		if si < 0 {
			continue
		}
		if postings == nil {
			postings = slices.Clone(cur.Postings)
		}
		ns := slices.Clone(nested)
		ns[si].Latitude, ns[si].Longitude = coords(p)
		postings[pi].Sightings = ns
		changed = true
	}
	if postings != nil {
		next.Postings = postings
	}
	return &next, changed
}
