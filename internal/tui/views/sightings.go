package views

import (
	"fmt"

	"github.com/dondeestamimascota/mascotas/internal/listing"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/rivo/tview"
)

// SightingList is the paginated table of sightings, newest first.
type SightingList struct {
	*tview.Table
	theme   *ui.Theme
	all     []model.Sighting
	filter  listing.SightingFilter
	page    listing.Page[model.Sighting]
	number  int
	loading bool
	problem string
}

// NewSightingList creates the sightings table.
func NewSightingList(theme *ui.Theme) *SightingList {
	return &SightingList{
		Table:  newTable(theme, " Sightings "),
		theme:  theme,
		number: 1,
	}
}

// Name implements ui.Component.
func (sl *SightingList) Name() string { return "sightings" }

// Update replaces the data shown by the table.
func (sl *SightingList) Update(list []model.Sighting, loading bool, problem string) {
	sl.all = list
	sl.loading = loading
	sl.problem = problem
	sl.render()
}

// ToggleMine shows only sightings reported by userID, or everything again.
// It reports whether the list is now restricted.
func (sl *SightingList) ToggleMine(userID int64) bool {
	if sl.filter.ReporterID != 0 || userID == 0 {
		sl.filter.ReporterID = 0
	} else {
		sl.filter.ReporterID = userID
	}
	sl.number = 1
	sl.render()
	return sl.filter.ReporterID != 0
}

// SetProvince filters by province; empty shows all.
func (sl *SightingList) SetProvince(p string) {
	sl.filter.Province = p
	sl.number = 1
	sl.render()
}

// NextPage moves forward one page if possible.
func (sl *SightingList) NextPage() {
	if sl.page.HasNext() {
		sl.number++
		sl.render()
	}
}

// PrevPage moves back one page if possible.
func (sl *SightingList) PrevPage() {
	if sl.page.HasPrev() {
		sl.number--
		sl.render()
	}
}

// Selected returns the sighting under the cursor.
func (sl *SightingList) Selected() (model.Sighting, bool) {
	row, _ := sl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(sl.page.Items) {
		return model.Sighting{}, false
	}
	return sl.page.Items[idx], true
}

func (sl *SightingList) render() {
	row, _ := sl.GetSelection()
	sl.Clear()
	headerRow(sl.Table, sl.theme, "WHEN", "LOCATION", "ADDRESS", "REPORTER", "POSTING", "MAP")

	shown := listing.FilterSightings(sl.all, sl.filter)
	sl.page = listing.Paginate(shown, sl.number, listing.DefaultPerPage)
	sl.number = sl.page.Number

	switch {
	case sl.problem != "" && len(sl.all) == 0:
		messageRow(sl.Table, sl.theme.FlashErrColor, sl.problem)
	case sl.loading && len(sl.all) == 0:
		messageRow(sl.Table, sl.theme.FgColor, "Loading sightings…")
	case len(shown) == 0:
		messageRow(sl.Table, sl.theme.FgColor, "No sightings match.")
	}

	for i, s := range sl.page.Items {
		r := i + 1
		linked := "-"
		if s.Linked() {
			linked = fmt.Sprintf("#%d", *s.PostingID)
		}
		sl.SetCell(r, 0, cell(sl.theme, s.Date+" "+s.Time))
		sl.SetCell(r, 1, cell(sl.theme, place(s.Locality, s.Province)))
		sl.SetCell(r, 2, cell(sl.theme, address(s.Street, s.Number)))
		sl.SetCell(r, 3, cell(sl.theme, author(s.Reporter)))
		sl.SetCell(r, 4, cell(sl.theme, linked))
		sl.SetCell(r, 5, cell(sl.theme, mapMark(s.HasCoordinates())))
	}
	if n := len(sl.page.Items); n > 0 {
		sl.Select(min(max(row, 1), n), 0)
	}

	title := fmt.Sprintf(" Sightings (%d/%d)", len(shown), len(sl.all))
	if sl.filter.ReporterID != 0 {
		title += " mine"
	}
	if sl.filter.Province != "" {
		title += " " + sl.filter.Province
	}
	if p := pager(sl.page); p != "" {
		title += " " + p
	}
	sl.SetTitle(tview.Escape(title + " "))
}
