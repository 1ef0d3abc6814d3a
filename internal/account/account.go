// Package account implements login, registration and profile management.
package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/session"
	"github.com/dondeestamimascota/mascotas/internal/state"
	"github.com/dondeestamimascota/mascotas/internal/validate"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ErrNotAuthenticated is returned by operations that need a logged-in user.
var ErrNotAuthenticated = errors.New("not logged in")

// Backend is the subset of the API used here. *api.Client implements it.
type Backend interface {
	Login(ctx context.Context, creds model.Credentials) (*model.AuthResponse, error)
	Register(ctx context.Context, reg model.Registration) (*model.AuthResponse, error)
	User(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, upd model.ProfileUpdate) (*model.User, error)
	ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword string) error
	RecoverPassword(ctx context.Context, email string) error
}

type Service struct {
	api     Backend
	session *session.Store
	store   *state.Store
	logger  *zap.Logger
}

func NewService(api Backend, sess *session.Store, st *state.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{api: api, session: sess, store: st, logger: logger}
}

// Login authenticates, persists the session and loads the user's profile.
func (s *Service) Login(ctx context.Context, creds model.Credentials) (*model.User, error) {
	if err := validate.Struct(creds); err != nil {
		return nil, err
	}
	resp, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, resp)
}

// Register creates the account and logs in with it.
func (s *Service) Register(ctx context.Context, reg model.Registration) (*model.User, error) {
	if err := validate.Struct(reg); err != nil {
		return nil, err
	}
	resp, err := s.api.Register(ctx, reg)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return s.establish(ctx, resp)
}

// establish stores the token, fetches the profile with it and only then
// records the user id. A failed fetch removes the token again.
func (s *Service) establish(ctx context.Context, resp *model.AuthResponse) (*model.User, error) {
	if err := s.session.SaveToken(resp.Token); err != nil {
		return nil, err
	}
	u, err := s.api.User(ctx, resp.UserID)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("load profile: %w", err), s.session.RemoveToken())
	}
	if err := s.session.SaveUserID(u.ID); err != nil {
		return nil, multierr.Append(err, s.session.RemoveToken())
	}
	s.store.SetUser(u)
	s.logger.Info("logged in", zap.Int64("user_id", u.ID))
	return u, nil
}

func (s *Service) UpdateProfile(ctx context.Context, upd model.ProfileUpdate) (*model.User, error) {
	id := s.store.Snapshot().UserID()
	if id == 0 {
		return nil, ErrNotAuthenticated
	}
	if err := validate.Struct(upd); err != nil {
		return nil, err
	}
	u, err := s.api.UpdateUser(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.store.SetUser(u)
	return u, nil
}

func (s *Service) ChangePassword(ctx context.Context, change model.PasswordChange) error {
	id := s.store.Snapshot().UserID()
	if id == 0 {
		return ErrNotAuthenticated
	}
	if err := validate.Struct(change); err != nil {
		return err
	}
	if err := s.api.ChangePassword(ctx, id, change.OldPassword, change.NewPassword); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

func (s *Service) RecoverPassword(ctx context.Context, email string) error {
	if err := validate.Struct(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); err != nil {
		return err
	}
	if err := s.api.RecoverPassword(ctx, email); err != nil {
		return fmt.Errorf("recover password: %w", err)
	}
	return nil
}

func (s *Service) Logout() {
	s.store.Logout()
}
