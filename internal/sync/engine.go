// Package sync keeps the state store in line with the backend.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/api"
	"github.com/dondeestamimascota/mascotas/internal/bus"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/state"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	PostingsFailed  = "failed to load postings"
	SightingsFailed = "failed to load sightings"
)

// Source is the part of the backend the engine reads. *api.Client implements it.
type Source interface {
	Postings(ctx context.Context) ([]model.Posting, error)
	Posting(ctx context.Context, id int64) (*model.Posting, error)
	PostingsByAuthor(ctx context.Context, authorID int64) ([]model.Posting, error)
	Sightings(ctx context.Context) ([]model.Sighting, error)
}

// Engine loads postings and sightings into the store, on demand and on a timer.
type Engine struct {
	store       *state.Store
	src         Source
	bus         *bus.Bus
	logger      *zap.Logger
	checkpoints *Checkpoints
	interval    time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Engine)

// WithInterval sets the periodic refresh interval. Zero disables the timer.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) { e.interval = d }
}

// WithCheckpoints records successful loads.
func WithCheckpoints(c *Checkpoints) Option {
	return func(e *Engine) { e.checkpoints = c }
}

func NewEngine(st *state.Store, src Source, b *bus.Bus, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{store: st, src: src, bus: b, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadPostings fetches all postings. On failure the store keeps the previous
// list and carries an error message instead.
func (e *Engine) LoadPostings(ctx context.Context) error {
	e.store.Patch(state.WithPostingsLoading(true), state.WithPostingsError(""))
	list, err := e.src.Postings(ctx)
	if err != nil {
		e.store.Patch(state.WithPostingsLoading(false), state.WithPostingsError(PostingsFailed))
		e.failed("postings", err)
		return fmt.Errorf("load postings: %w", err)
	}
	e.store.SetPostings(list)
	e.checkpoint(CheckpointPostings)
	return nil
}

func (e *Engine) LoadSightings(ctx context.Context) error {
	e.store.Patch(state.WithSightingsLoading(true), state.WithSightingsError(""))
	list, err := e.src.Sightings(ctx)
	if err != nil {
		e.store.Patch(state.WithSightingsLoading(false), state.WithSightingsError(SightingsFailed))
		e.failed("sightings", err)
		return fmt.Errorf("load sightings: %w", err)
	}
	e.store.SetSightings(list)
	e.checkpoint(CheckpointSightings)
	return nil
}

// LoadPosting refreshes one posting. A 404 removes it from the store.
func (e *Engine) LoadPosting(ctx context.Context, id int64) (*model.Posting, error) {
	p, err := e.src.Posting(ctx, id)
	if api.IsNotFound(err) {
		e.store.RemovePosting(id)
		return nil, fmt.Errorf("load posting %d: %w", id, err)
	}
	if err != nil {
		e.failed("posting", err)
		return nil, fmt.Errorf("load posting %d: %w", id, err)
	}
	e.store.ReplacePosting(*p)
	return p, nil
}

// LoadAuthorPostings fetches the postings written by authorID and merges them
// into the store without touching anyone else's.
func (e *Engine) LoadAuthorPostings(ctx context.Context, authorID int64) ([]model.Posting, error) {
	list, err := e.src.PostingsByAuthor(ctx, authorID)
	if err != nil {
		e.failed("author postings", err)
		return nil, fmt.Errorf("load postings of author %d: %w", authorID, err)
	}
	e.store.UpsertPostings(list)
	return list, nil
}

// Refresh loads postings and sightings concurrently. Each list reports its
// own failure; one failing load does not cancel the other.
func (e *Engine) Refresh(ctx context.Context) error {
	var g errgroup.Group
	var postingsErr, sightingsErr error
	g.Go(func() error {
		postingsErr = e.LoadPostings(ctx)
		return nil
	})
	g.Go(func() error {
		sightingsErr = e.LoadSightings(ctx)
		return nil
	})
	_ = g.Wait()
	err := multierr.Combine(postingsErr, sightingsErr)
	if e.bus != nil {
		if err != nil {
			e.bus.Emit(bus.KindRefreshFailed, err)
		} else {
			e.bus.Emit(bus.KindRefreshed, nil)
		}
	}
	return err
}

func (e *Engine) failed(what string, err error) {
	if errors.Is(err, context.Canceled) {
		e.logger.Debug("sync cancelled", zap.String("what", what))
		return
	}
	e.logger.Warn("sync failed", zap.String("what", what), zap.Error(err))
	if api.IsUnauthorized(err) && e.bus != nil {
		e.bus.Emit(bus.KindSessionExpiry, err)
	}
}

func (e *Engine) checkpoint(key string) {
	if e.checkpoints == nil {
		return
	}
	if err := e.checkpoints.Mark(key, time.Now()); err != nil {
		e.logger.Warn("record sync checkpoint", zap.String("key", key), zap.Error(err))
	}
}

// Start refreshes once and then every interval until Stop.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)
	e.done = make(chan struct{})
	go e.loop(ctx)
}

// Stop ends the refresh loop and waits for an ongoing refresh.
func (e *Engine) Stop() {
	if e.cancel == nil {
		return
	}
	e.cancel()
	<-e.done
}

func (e *Engine) loop(ctx context.Context) {
	defer close(e.done)
	_ = e.Refresh(ctx)
	if e.interval <= 0 {
		return
	}

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_ = e.Refresh(ctx)
		case <-ctx.Done():
			return
		}
	}
}
