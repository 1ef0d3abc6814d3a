package bus

import (
	"time"

	"github.com/google/uuid"
)

// Event kinds published by the engine.
const (
	KindLoggedOut     = "session.logged_out"
	KindSessionExpiry = "session.expired"
	KindStatusChanged = "posting.status_changed"
	KindPostingSaved  = "posting.saved"
	KindPostingGone   = "posting.deleted"
	KindSightingAdded = "sighting.created"
	KindRefreshed     = "sync.refreshed"
	KindRefreshFailed = "sync.failed"
)

// Event is a domain notification. Payload type depends on Kind.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}

func newEvent(kind string, payload any) Event {
	return Event{ID: uuid.NewString(), Kind: kind, Timestamp: time.Now(), Payload: payload}
}
