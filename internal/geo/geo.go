// Package geo resolves Argentine addresses and localities to coordinates
// using the Georef API of datos.gob.ar.
package geo

import (
	"context"
	"strings"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// AddressQuery identifies a street address.
type AddressQuery struct {
	Street   string
	Number   string
	Locality string
	Province string
}

// Line returns the "street number" form Georef expects in direccion.
func (q AddressQuery) Line() string {
	return strings.TrimSpace(strings.TrimSpace(q.Street) + " " + strings.TrimSpace(q.Number))
}

// Key normalizes the query for caching and request collapsing.
func (q AddressQuery) Key() string {
	return "addr|" + normalize(q.Line()) + "|" + normalize(q.Locality) + "|" + normalize(q.Province)
}

// Complete reports whether the query has enough data for an address lookup.
func (q AddressQuery) Complete() bool {
	return strings.TrimSpace(q.Street) != "" && strings.TrimSpace(q.Province) != ""
}

// LocalityQuery identifies a locality within a province.
type LocalityQuery struct {
	Name     string
	Province string
}

func (q LocalityQuery) Key() string {
	return "loc|" + normalize(q.Name) + "|" + normalize(q.Province)
}

func (q LocalityQuery) Complete() bool {
	return strings.TrimSpace(q.Name) != "" && strings.TrimSpace(q.Province) != ""
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Geocoder resolves queries. A nil point with a nil error means no match.
type Geocoder interface {
	Address(ctx context.Context, q AddressQuery) (*Point, error)
	Locality(ctx context.Context, q LocalityQuery) (*Point, error)
}
