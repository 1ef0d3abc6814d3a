// Package session keeps the authentication token and user id across runs.
package session

import (
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/multierr"
)

const (
	TokenKey  = "auth_token"
	UserIDKey = "user_id"
)

// Backend is durable key-value storage. *store.DB implements it.
type Backend interface {
	GetValue(key string) (string, bool, error)
	SetValue(key, value string) error
	DeleteValues(keys ...string) error
}

// Store reads and writes the persisted session.
type Store struct {
	backend Backend
}

func New(b Backend) *Store {
	return &Store{backend: b}
}

// Token returns the stored token, or "" when absent.
func (s *Store) Token() (string, error) {
	v, _, err := s.backend.GetValue(TokenKey)
	if err != nil {
		return "", fmt.Errorf("read token: %w", err)
	}
	return v, nil
}

// UserID returns the stored user id and whether one is present.
func (s *Store) UserID() (int64, bool, error) {
	v, ok, err := s.backend.GetValue(UserIDKey)
	if err != nil {
		return 0, false, fmt.Errorf("read user id: %w", err)
	}
	if !ok || v == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse user id %q: %w", v, err)
	}
	return id, true, nil
}

func (s *Store) SaveToken(token string) error {
	if err := s.backend.SetValue(TokenKey, token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}

func (s *Store) SaveUserID(id int64) error {
	if err := s.backend.SetValue(UserIDKey, strconv.FormatInt(id, 10)); err != nil {
		return fmt.Errorf("save user id: %w", err)
	}
	return nil
}

// Save stores both halves of a session.
func (s *Store) Save(token string, userID int64) error {
	return multierr.Append(s.SaveToken(token), s.SaveUserID(userID))
}

// RemoveToken drops only the token, leaving any user id in place.
func (s *Store) RemoveToken() error {
	if err := s.backend.DeleteValues(TokenKey); err != nil {
		return fmt.Errorf("remove token: %w", err)
	}
	return nil
}

// Clear removes the token and the user id.
func (s *Store) Clear() error {
	if err := s.backend.DeleteValues(TokenKey, UserIDKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// LoggedIn reports whether both token and user id are stored.
func (s *Store) LoggedIn() bool {
	token, err := s.Token()
	if err != nil || token == "" {
		return false
	}
	_, ok, err := s.UserID()
	return err == nil && ok
}

// Memory is a Backend that lives only as long as the process.
type Memory struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemory() *Memory {
	return &Memory{values: make(map[string]string)}
}

func (m *Memory) GetValue(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *Memory) SetValue(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *Memory) DeleteValues(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}
