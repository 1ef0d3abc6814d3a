package store

import (
	"database/sql"
	"errors"
	"time"
)

// CachedPoint is a geocoding result kept across sessions.
type CachedPoint struct {
	Query     string
	Kind      string
	Lat       float64
	Lon       float64
	CreatedAt int64
}

// LookupPoint returns the cached point for query, or nil when absent or
// older than maxAge. A zero maxAge never expires entries.
func (db *DB) LookupPoint(query string, maxAge time.Duration) (*CachedPoint, error) {
	var p CachedPoint
	err := db.QueryRow(`
		SELECT query, kind, lat, lon, created_at
		FROM geocode_cache WHERE query = ?`, query).
		Scan(&p.Query, &p.Kind, &p.Lat, &p.Lon, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if maxAge > 0 && time.Since(time.UnixMilli(p.CreatedAt)) > maxAge {
		return nil, nil
	}
	return &p, nil
}

// SavePoint stores or refreshes a geocoding result.
func (db *DB) SavePoint(p CachedPoint) error {
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO geocode_cache (query, kind, lat, lon, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(query) DO UPDATE SET
			kind = excluded.kind,
			lat = excluded.lat,
			lon = excluded.lon,
			created_at = excluded.created_at`,
		p.Query, p.Kind, p.Lat, p.Lon, p.CreatedAt)
	return err
}

// PrunePoints deletes cache entries created before cutoff and returns how many went.
func (db *DB) PrunePoints(cutoff time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM geocode_cache WHERE created_at < ?`, cutoff.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountPoints returns the number of cached points.
func (db *DB) CountPoints() (int, error) {
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM geocode_cache`).Scan(&n)
	return n, err
}
