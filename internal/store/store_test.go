package store

import (
	"path/filepath"
	"testing"
	"time"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, _, err := OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := testDB(t)

	result, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed {
		t.Error("second Migrate() should report Changed=false")
	}
	if result.Version != 1 {
		t.Errorf("version = %d, want 1", result.Version)
	}
	if result.Dirty {
		t.Error("schema is dirty")
	}
}

func TestFreshMigrateReportsChange(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "fresh.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = db.Close() }()

	res, err := db.Migrate()
	if err != nil {
		t.Fatal(err)
	}
	if !res.Changed {
		t.Error("first Migrate() should report Changed=true")
	}
}

func TestSessionValues(t *testing.T) {
	db := testDB(t)

	if _, ok, err := db.GetValue("auth_token"); err != nil || ok {
		t.Fatalf("GetValue on empty table = ok %v, err %v", ok, err)
	}
	if err := db.SetValue("auth_token", "abc"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetValue("auth_token", "def"); err != nil {
		t.Fatal(err)
	}
	v, ok, err := db.GetValue("auth_token")
	if err != nil || !ok || v != "def" {
		t.Errorf("GetValue = %q, %v, %v; want def, true, nil", v, ok, err)
	}

	if err := db.SetValue("user_id", "7"); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteValues("auth_token", "user_id", "missing"); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"auth_token", "user_id"} {
		if _, ok, _ := db.GetValue(k); ok {
			t.Errorf("%s still present after delete", k)
		}
	}
}

func TestGeocodeCache(t *testing.T) {
	db := testDB(t)

	if p, err := db.LookupPoint("calle 7 123|la plata|buenos aires", 0); err != nil || p != nil {
		t.Fatalf("LookupPoint on empty cache = %v, %v", p, err)
	}

	err := db.SavePoint(CachedPoint{Query: "q1", Kind: "address", Lat: -34.92, Lon: -57.95})
	if err != nil {
		t.Fatal(err)
	}
	p, err := db.LookupPoint("q1", time.Hour)
	if err != nil || p == nil {
		t.Fatalf("LookupPoint = %v, %v", p, err)
	}
	if p.Lat != -34.92 || p.Lon != -57.95 || p.Kind != "address" {
		t.Errorf("point = %+v", p)
	}

	old := CachedPoint{Query: "q2", Kind: "locality", Lat: 1, Lon: 2, CreatedAt: time.Now().Add(-48 * time.Hour).UnixMilli()}
	if err := db.SavePoint(old); err != nil {
		t.Fatal(err)
	}
	if p, _ := db.LookupPoint("q2", 24*time.Hour); p != nil {
		t.Error("expired entry should not be returned")
	}
	if p, _ := db.LookupPoint("q2", 0); p == nil {
		t.Error("zero maxAge should return any entry")
	}

	n, err := db.PrunePoints(time.Now().Add(-24 * time.Hour))
	if err != nil || n != 1 {
		t.Errorf("PrunePoints = %d, %v; want 1", n, err)
	}
	if c, _ := db.CountPoints(); c != 1 {
		t.Errorf("CountPoints = %d, want 1", c)
	}
}
