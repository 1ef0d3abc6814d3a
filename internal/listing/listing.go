// Package listing filters and pages postings and sightings for display.
package listing

import (
	"slices"
	"strings"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
)

// DefaultPerPage is the page size of the listing screens.
const DefaultPerPage = 12

// PostingFilter selects postings. Zero fields match everything.
type PostingFilter struct {
	Status   lifecycle.Status
	Province string
	Locality string
	AuthorID int64
	// Query matches name, colour, description and locality, ignoring case.
	Query string
}

func (f PostingFilter) Active() bool {
	return f != PostingFilter{}
}

func (f PostingFilter) match(p *model.Posting) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if f.Province != "" && p.Province != f.Province {
		return false
	}
	if f.Locality != "" && !strings.EqualFold(p.Locality, f.Locality) {
		return false
	}
	if f.AuthorID != 0 && p.Author.ID != f.AuthorID {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		for _, field := range []string{p.Name, p.Color, p.Description, p.Locality} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	}
	return true
}

// FilterPostings returns the matching postings in their original order.
func FilterPostings(list []model.Posting, f PostingFilter) []model.Posting {
	out := make([]model.Posting, 0, len(list))
	for i := range list {
		if f.match(&list[i]) {
			out = append(out, list[i])
		}
	}
	return out
}

// SightingFilter selects sightings. From and To are inclusive YYYY-MM-DD dates.
type SightingFilter struct {
	ReporterID int64
	Province   string
	From       string
	To         string
}

func (f SightingFilter) Active() bool {
	return f != SightingFilter{}
}

func (f SightingFilter) match(s *model.Sighting) bool {
	if f.ReporterID != 0 && s.Reporter.ID != f.ReporterID {
		return false
	}
	if f.Province != "" && s.Province != f.Province {
		return false
	}
	if f.From != "" && s.Date < f.From {
		return false
	}
	if f.To != "" && s.Date > f.To {
		return false
	}
	return true
}

// FilterSightings returns the matching sightings, newest first.
func FilterSightings(list []model.Sighting, f SightingFilter) []model.Sighting {
	out := make([]model.Sighting, 0, len(list))
	for i := range list {
		if f.match(&list[i]) {
			out = append(out, list[i])
		}
	}
	slices.SortStableFunc(out, func(a, b model.Sighting) int {
		return strings.Compare(b.Date+"T"+b.Time, a.Date+"T"+a.Time)
	})
	return out
}

// Page is one page of a list.
type Page[T any] struct {
	Items []T
	// Number is 1-based.
	Number int
	Pages  int
	Total  int
}

func (p Page[T]) HasPrev() bool { return p.Number > 1 }
func (p Page[T]) HasNext() bool { return p.Number < p.Pages }

// Paginate cuts items into pages of perPage and returns page number n,
// clamped to the valid range. perPage <= 0 means DefaultPerPage.
func Paginate[T any](items []T, n, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(items)
	pages := (total + perPage - 1) / perPage
	n = min(max(n, 1), max(pages, 1))

	start := min((n-1)*perPage, total)
	end := min(start+perPage, total)
	return Page[T]{Items: items[start:end], Number: n, Pages: pages, Total: total}
}

// Window returns up to size page numbers centred on current, shifted to stay
// within 1..pages.
func Window(current, pages, size int) []int {
	if pages <= 0 || size <= 0 {
		return nil
	}
	start := max(1, current-size/2)
	end := min(pages, start+size-1)
	if end-start < size-1 {
		start = max(1, end-size+1)
	}
	out := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		out = append(out, i)
	}
	return out
}
