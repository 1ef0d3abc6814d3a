package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
)

type staticToken string

func (s staticToken) Token() (string, error) { return string(s), nil }

type brokenToken struct{}

func (brokenToken) Token() (string, error) { return "", errors.New("db locked") }

func newTestServer(t *testing.T, h http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginSendsCredentials(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header %q", r.Header.Get("Authorization"))
		}
		var creds model.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Email != "ana@email.com" || creds.Password != "secreto" {
			t.Errorf("creds = %+v", creds)
		}
		_, _ = io.WriteString(w, `{"token":"jwt-1","userId":9}`)
	})

	c := NewClient(WithBaseURL(srv.URL + "/api/"))
	resp, err := c.Login(context.Background(), model.Credentials{Email: "ana@email.com", Password: "secreto"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if resp.Token != "jwt-1" || resp.UserID != 9 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestBearerAndRequestID(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer jwt-xyz" {
			t.Errorf("Authorization = %q", got)
		}
		if r.Header.Get("X-Request-Id") == "" {
			t.Error("missing X-Request-Id")
		}
		_, _ = io.WriteString(w, `{"id":3,"nombre":"Ana","latitud":-34.6}`)
	})

	u, err := NewClient(WithBaseURL(srv.URL), WithTokenSource(staticToken("jwt-xyz"))).User(context.Background(), 3)
	if err != nil {
		t.Fatalf("User() error = %v", err)
	}
	if u.ID != 3 || u.Name != "Ana" || u.Latitude == nil || *u.Latitude != -34.6 || u.Longitude != nil {
		t.Errorf("user = %+v", u)
	}
}

func TestEmptyTokenSendsNoHeader(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if _, ok := r.Header["Authorization"]; ok {
			t.Error("Authorization header sent without token")
		}
		_, _ = io.WriteString(w, `[]`)
	})
	if _, err := NewClient(WithBaseURL(srv.URL), WithTokenSource(staticToken(""))).Postings(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestTokenSourceError(t *testing.T) {
	c := NewClient(WithBaseURL("http://127.0.0.1:1"), WithTokenSource(brokenToken{}))
	if _, err := c.Sightings(context.Background()); err == nil {
		t.Fatal("expected token error")
	}
}

func TestStatusErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantMsg      string
		unauthorized bool
		notFound     bool
	}{
		{"json message", http.StatusBadRequest, `{"message":"email ya registrado"}`, "email ya registrado", false, false},
		{"spanish key", http.StatusConflict, `{"mensaje":"conflicto"}`, "conflicto", false, false},
		{"plain text", http.StatusUnauthorized, "Credenciales inválidas\n", "Credenciales inválidas", true, false},
		{"forbidden", http.StatusForbidden, "", "", true, false},
		{"not found", http.StatusNotFound, `{"error":"Not Found"}`, "Not Found", false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			_, err := NewClient(WithBaseURL(srv.URL)).Posting(context.Background(), 1)
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("error = %v, want *StatusError", err)
			}
			if se.Code != tt.status || se.Message != tt.wantMsg {
				t.Errorf("got %d %q, want %d %q", se.Code, se.Message, tt.status, tt.wantMsg)
			}
			if IsUnauthorized(err) != tt.unauthorized {
				t.Errorf("IsUnauthorized = %v", IsUnauthorized(err))
			}
			if IsNotFound(err) != tt.notFound {
				t.Errorf("IsNotFound = %v", IsNotFound(err))
			}
		})
	}
}

func TestPostingRoutes(t *testing.T) {
	type call struct{ method, path string }
	var (
		mu    sync.Mutex
		calls []call
	)
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, call{r.Method, r.URL.Path})
		mu.Unlock()
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/publicaciones/autor/4":
			_, _ = io.WriteString(w, `[{"id":1,"estado":"PERDIDO_PROPIO"}]`)
		default:
			var d model.PostingDraft
			_ = json.NewDecoder(r.Body).Decode(&d)
			_ = json.NewEncoder(w).Encode(model.Posting{ID: 1, Name: d.Name, Status: d.Status})
		}
	})
	c := NewClient(WithBaseURL(srv.URL))
	ctx := context.Background()

	created, err := c.CreatePosting(ctx, 4, model.PostingDraft{Name: "Luna", Status: lifecycle.LostOther})
	if err != nil || created.Name != "Luna" || created.Status != lifecycle.LostOther {
		t.Fatalf("CreatePosting() = %+v, %v", created, err)
	}
	if _, err := c.EditPosting(ctx, 1, model.PostingDraft{Name: "Luna", Status: lifecycle.Recovered}); err != nil {
		t.Fatal(err)
	}
	mine, err := c.PostingsByAuthor(ctx, 4)
	if err != nil || len(mine) != 1 || mine[0].Status != lifecycle.LostOwn {
		t.Fatalf("PostingsByAuthor() = %+v, %v", mine, err)
	}
	if err := c.DeletePosting(ctx, 1); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []call{
		{"POST", "/publicaciones/4"},
		{"PUT", "/publicaciones/1"},
		{"GET", "/publicaciones/autor/4"},
		{"DELETE", "/publicaciones/1"},
	}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v", calls)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("call %d = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestChangePasswordIgnoresTextBody(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/usuarios/5/cambiar-password" || r.Method != http.MethodPut {
			http.NotFound(w, r)
			return
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["oldPassword"] != "vieja1" || body["newPassword"] != "nueva12" {
			t.Errorf("body = %v", body)
		}
		_, _ = io.WriteString(w, "Contraseña actualizada")
	})
	if err := NewClient(WithBaseURL(srv.URL)).ChangePassword(context.Background(), 5, "vieja1", "nueva12"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
}

func TestCreateSightingRoute(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/avistamientos/8" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, `{"id":20,"publicacionId":3,"fecha":"2024-12-01","hora":"10:00:00"}`)
	})
	postingID := int64(3)
	s, err := NewClient(WithBaseURL(srv.URL)).CreateSighting(context.Background(), 8, model.SightingDraft{PostingID: &postingID})
	if err != nil {
		t.Fatal(err)
	}
	if s.ID != 20 || !s.Linked() || *s.PostingID != 3 {
		t.Errorf("sighting = %+v", s)
	}
}
