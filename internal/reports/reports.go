// Package reports creates and maintains postings and sightings.
package reports

import (
	"context"
	"errors"
	"fmt"

	"github.com/dondeestamimascota/mascotas/internal/account"
	"github.com/dondeestamimascota/mascotas/internal/bus"
	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/state"
	"github.com/dondeestamimascota/mascotas/internal/validate"
	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated = account.ErrNotAuthenticated
	ErrNotAuthor        = errors.New("only the author can change this posting")
	ErrUnknownPosting   = errors.New("posting not loaded")
)

// Backend is the subset of the API used here. *api.Client implements it.
type Backend interface {
	CreatePosting(ctx context.Context, authorID int64, d model.PostingDraft) (*model.Posting, error)
	EditPosting(ctx context.Context, id int64, d model.PostingDraft) (*model.Posting, error)
	DeletePosting(ctx context.Context, id int64) error
	CreateSighting(ctx context.Context, reporterID int64, d model.SightingDraft) (*model.Sighting, error)
}

// Service applies report changes on the backend first and mirrors them into
// the store only after the backend accepted them.
type Service struct {
	api    Backend
	store  *state.Store
	bus    *bus.Bus
	logger *zap.Logger
}

func NewService(api Backend, st *state.Store, b *bus.Bus, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, store: st, bus: b, logger: logger}
}

func (s *Service) userID() (int64, error) {
	id := s.store.Snapshot().UserID()
	if id == 0 {
		return 0, ErrNotAuthenticated
	}
	return id, nil
}

// owned looks posting id up in the current snapshot and checks that the
// logged-in user wrote it.
func (s *Service) owned(id int64) (model.Posting, error) {
	uid, err := s.userID()
	if err != nil {
		return model.Posting{}, err
	}
	p, ok := s.store.Snapshot().Posting(id)
	if !ok {
		return model.Posting{}, fmt.Errorf("posting %d: %w", id, ErrUnknownPosting)
	}
	if p.Author.ID != uid {
		return model.Posting{}, ErrNotAuthor
	}
	return p, nil
}

func (s *Service) emit(kind string, payload any) {
	if s.bus != nil {
		s.bus.Emit(kind, payload)
	}
}

func (s *Service) CreatePosting(ctx context.Context, d model.PostingDraft) (*model.Posting, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(d); err != nil {
		return nil, err
	}
	p, err := s.api.CreatePosting(ctx, uid, d)
	if err != nil {
		return nil, fmt.Errorf("create posting: %w", err)
	}
	s.store.AppendPosting(*p)
	s.emit(bus.KindPostingSaved, p.ID)
	s.logger.Info("posting created", zap.Int64("posting_id", p.ID))
	return p, nil
}

// EditPosting saves d over posting id. A status change must be a valid
// transition from the posting's current status.
func (s *Service) EditPosting(ctx context.Context, id int64, d model.PostingDraft) (*model.Posting, error) {
	cur, err := s.owned(id)
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(d); err != nil {
		return nil, err
	}
	return s.save(ctx, cur, d)
}

// ChangeStatus moves a posting to next, keeping its other fields as they are.
func (s *Service) ChangeStatus(ctx context.Context, id int64, next lifecycle.Status) (*model.Posting, error) {
	cur, err := s.owned(id)
	if err != nil {
		return nil, err
	}
	d := model.DraftOf(cur)
	d.Status = next
	return s.save(ctx, cur, d)
}

func (s *Service) save(ctx context.Context, cur model.Posting, d model.PostingDraft) (*model.Posting, error) {
	if err := lifecycle.Check(cur.Status, d.Status); err != nil {
		return nil, err
	}
	p, err := s.api.EditPosting(ctx, cur.ID, d)
	if err != nil {
		return nil, fmt.Errorf("edit posting %d: %w", cur.ID, err)
	}
	s.store.ReplacePosting(*p)
	s.emit(bus.KindPostingSaved, p.ID)
	if p.Status != cur.Status {
		change := lifecycle.StatusChange{PostingID: p.ID, From: cur.Status, To: p.Status}
		s.emit(bus.KindStatusChanged, change)
		s.logger.Info("posting status changed",
			zap.Int64("posting_id", p.ID),
			zap.String("from", string(cur.Status)),
			zap.String("to", string(p.Status)),
		)
	}
	return p, nil
}

func (s *Service) DeletePosting(ctx context.Context, id int64) error {
	if _, err := s.owned(id); err != nil {
		return err
	}
	if err := s.api.DeletePosting(ctx, id); err != nil {
		return fmt.Errorf("delete posting %d: %w", id, err)
	}
	s.store.RemovePosting(id)
	s.emit(bus.KindPostingGone, id)
	s.logger.Info("posting deleted", zap.Int64("posting_id", id))
	return nil
}

func (s *Service) ReportSighting(ctx context.Context, d model.SightingDraft) (*model.Sighting, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	if err := validate.Struct(d); err != nil {
		return nil, err
	}
	sg, err := s.api.CreateSighting(ctx, uid, d)
	if err != nil {
		return nil, fmt.Errorf("report sighting: %w", err)
	}
	s.store.AppendSighting(*sg)
	s.emit(bus.KindSightingAdded, sg.ID)
	return sg, nil
}
