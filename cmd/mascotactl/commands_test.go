package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/app"
	"github.com/dondeestamimascota/mascotas/internal/config"
	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/profile"
	"github.com/dondeestamimascota/mascotas/internal/session"
	"github.com/dondeestamimascota/mascotas/internal/store"
	"go.uber.org/fx"
)

// fakeBackend records what the commands send and answers like the REST API
// for user 7, who owns posting 41.
type fakeBackend struct {
	mu       sync.Mutex
	created  *model.PostingDraft
	edited   *model.PostingDraft
	sighting *model.SightingDraft
	calls    map[string]int
}

func recovered() model.Posting {
	return model.Posting{
		ID: 41, Name: "Luna", Color: "negro", Size: "Chico",
		Description: "perdida cerca de la plaza", Phone: "221 555-1234",
		Status: lifecycle.Recovered, Province: "Buenos Aires", Locality: "La Plata",
		Street: "Calle 7", Number: "100", Author: model.Author{ID: 7, Name: "Ana"},
	}
}

func (b *fakeBackend) count(key string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[key]
}

func (b *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")
	b.calls[key]++
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)

	switch {
	case strings.HasPrefix(r.URL.Path, "/georef/"):
		_, _ = w.Write([]byte(`{}`))
	case key == "GET /usuarios/7":
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = enc.Encode(model.User{ID: 7, Name: "Ana", Email: "ana@example.com"})
	case key == "POST /publicaciones/7":
		var d model.PostingDraft
		_ = json.NewDecoder(r.Body).Decode(&d)
		b.created = &d
		_ = enc.Encode(model.Posting{ID: 40, Name: d.Name, Status: d.Status, Author: model.Author{ID: 7}})
	case key == "GET /publicaciones/41":
		_ = enc.Encode(recovered())
	case key == "PUT /publicaciones/41":
		var d model.PostingDraft
		_ = json.NewDecoder(r.Body).Decode(&d)
		b.edited = &d
		p := recovered()
		p.Color, p.Status = d.Color, d.Status
		_ = enc.Encode(p)
	case key == "GET /publicaciones/autor/7":
		_ = enc.Encode([]model.Posting{recovered()})
	case key == "POST /avistamientos/7":
		var d model.SightingDraft
		_ = json.NewDecoder(r.Body).Decode(&d)
		b.sighting = &d
		_ = enc.Encode(model.Sighting{ID: 90, PostingID: d.PostingID, Date: d.Date, Time: d.Time})
	default:
		_, _ = w.Write([]byte(`[]`))
	}
}

// testEnv starts the client against b with user 7 logged in.
func testEnv(t *testing.T, b *fakeBackend) *env {
	t.Helper()
	b.calls = map[string]int{}
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)

	t.Setenv(profile.HomeEnv, t.TempDir())
	cfg := config.Default()
	cfg.APIBaseURL = srv.URL + "/api"
	cfg.GeorefBaseURL = srv.URL + "/georef"
	cfg.GeocodeRate = 0

	const name = "test"
	if err := profile.EnsureDir(name); err != nil {
		t.Fatal(err)
	}
	db, _, err := store.OpenMigrated(profile.DBPath(name))
	if err != nil {
		t.Fatal(err)
	}
	if err := session.New(db).Save("tok", 7); err != nil {
		t.Fatal(err)
	}
	_ = db.Close()

	e := &env{profile: name, cfg: cfg}
	fxApp := fx.New(
		app.Module(app.Params{Profile: name, Binary: "mascotactl-test", Config: cfg}),
		app.Logger(),
		fx.Populate(&e.store, &e.engine, &e.accounts, &e.reports, &e.checkpoints, &e.restored),
	)
	ctx := context.Background()
	if err := fxApp.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = fxApp.Stop(ctx) })

	select {
	case <-e.restored.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session restore did not finish")
	}
	if e.store.Snapshot().UserID() != 7 {
		t.Fatal("user 7 not restored")
	}
	return e
}

func TestReportPublishesPosting(t *testing.T) {
	b := &fakeBackend{}
	e := testEnv(t, b)

	err := cmdReport(context.Background(), e, []string{
		"--name", "Luna", "--color", "negro", "--size", "Chico",
		"--description", "perdida cerca de la plaza", "--phone", "221 555-1234",
		"--province", "Buenos Aires", "--locality", "La Plata",
		"--street", "Calle 7", "--number", "100",
	})
	if err != nil {
		t.Fatalf("report error = %v", err)
	}
	b.mu.Lock()
	d := b.created
	b.mu.Unlock()
	if d == nil || d.Name != "Luna" || d.Status != lifecycle.LostOwn {
		t.Fatalf("created draft = %+v, want Luna as %s", d, lifecycle.LostOwn)
	}
	if _, ok := e.store.Snapshot().Posting(40); !ok {
		t.Error("new posting missing from the store")
	}
}

func TestReportRejectsInvalidDraft(t *testing.T) {
	b := &fakeBackend{}
	e := testEnv(t, b)

	if err := cmdReport(context.Background(), e, []string{"--name", "L"}); err == nil {
		t.Fatal("expected a validation error")
	}
	if n := b.count("POST /publicaciones/7"); n != 0 {
		t.Errorf("backend called %d times for an invalid draft", n)
	}
}

func TestEditKeepsFieldsNotGiven(t *testing.T) {
	b := &fakeBackend{}
	e := testEnv(t, b)

	if err := cmdEdit(context.Background(), e, []string{"41", "--color", "marrón"}); err != nil {
		t.Fatalf("edit error = %v", err)
	}
	b.mu.Lock()
	d := b.edited
	b.mu.Unlock()
	if d == nil {
		t.Fatal("no edit sent")
	}
	if d.Color != "marrón" || d.Name != "Luna" || d.Street != "Calle 7" || d.Status != lifecycle.Recovered {
		t.Errorf("edited draft = %+v", d)
	}
}

func TestEditRefusesReversal(t *testing.T) {
	b := &fakeBackend{}
	e := testEnv(t, b)

	err := cmdEdit(context.Background(), e, []string{"41", "--status", "perdido_propio"})
	if err == nil || !strings.Contains(err.Error(), "--yes") {
		t.Fatalf("edit error = %v, want a pointer to transition --yes", err)
	}
	if n := b.count("PUT /publicaciones/41"); n != 0 {
		t.Errorf("PUT sent %d times", n)
	}
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	b := &fakeBackend{}
	e := testEnv(t, b)

	if err := cmdDelete(context.Background(), e, []string{"41"}); err == nil {
		t.Fatal("expected an error without --yes")
	}
	if n := b.count("DELETE /publicaciones/41"); n != 0 {
		t.Errorf("DELETE sent %d times", n)
	}
}

func TestPostingsMineUsesAuthorEndpoint(t *testing.T) {
	b := &fakeBackend{}
	e := testEnv(t, b)

	if err := cmdPostings(context.Background(), e, []string{"--mine"}); err != nil {
		t.Fatalf("postings error = %v", err)
	}
	if n := b.count("GET /publicaciones/autor/7"); n != 1 {
		t.Errorf("author endpoint calls = %d, want 1", n)
	}
	if n := b.count("GET /publicaciones"); n != 0 {
		t.Errorf("full list fetched %d times", n)
	}
	if _, ok := e.store.Snapshot().Posting(41); !ok {
		t.Error("author posting missing from the store")
	}
}

func TestSightingLinksPosting(t *testing.T) {
	b := &fakeBackend{}
	e := testEnv(t, b)

	err := cmdSighting(context.Background(), e, []string{
		"--posting", "41", "--description", "lo vi en la esquina del club",
		"--province", "Buenos Aires", "--locality", "La Plata",
		"--street", "Calle 8", "--number", "200",
	})
	if err != nil {
		t.Fatalf("sighting error = %v", err)
	}
	b.mu.Lock()
	d := b.sighting
	b.mu.Unlock()
	if d == nil || d.PostingID == nil || *d.PostingID != 41 || d.Date == "" || d.Time == "" {
		t.Fatalf("sighting draft = %+v", d)
	}
}

func TestProfileUpdateNeedsAField(t *testing.T) {
	e := testEnv(t, &fakeBackend{})
	if err := cmdProfile(context.Background(), e, []string{"update"}); err == nil {
		t.Fatal("expected an error for an empty update")
	}
}

func TestImageFilesEncodes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "luna.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0o600); err != nil {
		t.Fatal(err)
	}
	var images []string
	f := imageFiles{&images}
	if err := f.Set(path); err != nil {
		t.Fatal(err)
	}
	if len(images) != 1 || images[0] != base64.StdEncoding.EncodeToString([]byte("jpeg")) {
		t.Errorf("images = %v", images)
	}
	if err := f.Set(filepath.Join(t.TempDir(), "missing.jpg")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestStatusReportsSession(t *testing.T) {
	e := testEnv(t, &fakeBackend{})
	e.jsonOut = true
	if err := cmdStatus(context.Background(), e, nil); err != nil {
		t.Fatalf("status error = %v", err)
	}
}
