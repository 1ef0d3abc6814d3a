// Package state holds the client-side application state and notifies
// observers of every replacement.
package state

import "github.com/dondeestamimascota/mascotas/internal/model"

// AppState is an immutable snapshot. A new value replaces it on every change;
// neither the struct nor its slices are modified after publication.
type AppState struct {
	User          *model.User
	Authenticated bool

	Postings        []model.Posting
	PostingsLoading bool
	PostingsError   string

	Sightings        []model.Sighting
	SightingsLoading bool
	SightingsError   string
}

// Posting returns the posting with id from the snapshot.
func (s *AppState) Posting(id int64) (model.Posting, bool) {
	for _, p := range s.Postings {
		if p.ID == id {
			return p, true
		}
	}
	return model.Posting{}, false
}

// UserID returns the logged-in user's id, or 0.
func (s *AppState) UserID() int64 {
	if s.User == nil {
		return 0
	}
	return s.User.ID
}

// Change sets one or more fields of the next state. Changes receive a fresh
// shallow copy and must replace slices rather than write into them.
type Change func(*AppState)

func WithUser(u *model.User) Change {
	return func(s *AppState) { s.User = u }
}

func WithAuthenticated(v bool) Change {
	return func(s *AppState) { s.Authenticated = v }
}

func WithPostings(list []model.Posting) Change {
	return func(s *AppState) { s.Postings = list }
}

func WithPostingsLoading(v bool) Change {
	return func(s *AppState) { s.PostingsLoading = v }
}

func WithPostingsError(msg string) Change {
	return func(s *AppState) { s.PostingsError = msg }
}

func WithSightings(list []model.Sighting) Change {
	return func(s *AppState) { s.Sightings = list }
}

func WithSightingsLoading(v bool) Change {
	return func(s *AppState) { s.SightingsLoading = v }
}

func WithSightingsError(msg string) Change {
	return func(s *AppState) { s.SightingsError = msg }
}
