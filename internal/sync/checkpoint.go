package sync

import (
	"strconv"
	"time"
)

const (
	CheckpointPostings  = "sync.postings_at"
	CheckpointSightings = "sync.sightings_at"
)

// KV is where checkpoints are kept. *store.DB implements it.
type KV interface {
	GetValue(key string) (string, bool, error)
	SetValue(key, value string) error
}

// Checkpoints remembers when each list was last loaded successfully.
type Checkpoints struct {
	kv KV
}

func NewCheckpoints(kv KV) *Checkpoints {
	return &Checkpoints{kv: kv}
}

func (c *Checkpoints) Mark(key string, at time.Time) error {
	return c.kv.SetValue(key, strconv.FormatInt(at.UnixMilli(), 10))
}

// Last returns the recorded time for key, or the zero time.
func (c *Checkpoints) Last(key string) (time.Time, error) {
	v, ok, err := c.kv.GetValue(key)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(ms), nil
}
