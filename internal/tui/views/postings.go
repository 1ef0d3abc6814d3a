package views

import (
	"fmt"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/listing"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/rivo/tview"
)

// PostingList is the paginated table of postings.
type PostingList struct {
	*tview.Table
	theme   *ui.Theme
	all     []model.Posting
	filter  listing.PostingFilter
	page    listing.Page[model.Posting]
	number  int
	loading bool
	problem string
}

// NewPostingList creates the postings table.
func NewPostingList(theme *ui.Theme) *PostingList {
	return &PostingList{
		Table:  newTable(theme, " Postings "),
		theme:  theme,
		number: 1,
	}
}

// Name implements ui.Component.
func (pl *PostingList) Name() string { return "postings" }

// Update replaces the data shown by the table.
func (pl *PostingList) Update(list []model.Posting, loading bool, problem string) {
	pl.all = list
	pl.loading = loading
	pl.problem = problem
	pl.render()
}

// SetQuery sets the free-text filter and returns to the first page.
func (pl *PostingList) SetQuery(q string) {
	pl.filter.Query = q
	pl.number = 1
	pl.render()
}

// Query returns the free-text filter.
func (pl *PostingList) Query() string { return pl.filter.Query }

// CycleStatus advances the status filter through every status and back to
// none, returning the new filter.
func (pl *PostingList) CycleStatus() lifecycle.Status {
	next := lifecycle.Status("")
	switch i := indexOf(lifecycle.All, pl.filter.Status); {
	case i < 0:
		next = lifecycle.All[0]
	case i+1 < len(lifecycle.All):
		next = lifecycle.All[i+1]
	}
	pl.SetStatus(next)
	return next
}

// SetStatus filters by status; the empty status shows all.
func (pl *PostingList) SetStatus(s lifecycle.Status) {
	pl.filter.Status = s
	pl.number = 1
	pl.render()
}

// ToggleAuthor restricts the list to postings by authorID, or lifts the
// restriction when it is already set. It reports whether the list is now
// restricted.
func (pl *PostingList) ToggleAuthor(authorID int64) bool {
	if pl.filter.AuthorID != 0 || authorID == 0 {
		pl.filter.AuthorID = 0
	} else {
		pl.filter.AuthorID = authorID
	}
	pl.number = 1
	pl.render()
	return pl.filter.AuthorID != 0
}

// ClearFilter drops every filter.
func (pl *PostingList) ClearFilter() {
	pl.filter = listing.PostingFilter{}
	pl.number = 1
	pl.render()
}

// NextPage moves forward one page if possible.
func (pl *PostingList) NextPage() {
	if pl.page.HasNext() {
		pl.number++
		pl.render()
	}
}

// PrevPage moves back one page if possible.
func (pl *PostingList) PrevPage() {
	if pl.page.HasPrev() {
		pl.number--
		pl.render()
	}
}

// Selected returns the posting under the cursor.
func (pl *PostingList) Selected() (model.Posting, bool) {
	row, _ := pl.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(pl.page.Items) {
		return model.Posting{}, false
	}
	return pl.page.Items[idx], true
}

func (pl *PostingList) render() {
	row, _ := pl.GetSelection()
	pl.Clear()
	headerRow(pl.Table, pl.theme, "NAME", "STATUS", "SIZE", "COLOR", "LOCATION", "AUTHOR", "MAP")

	shown := listing.FilterPostings(pl.all, pl.filter)
	pl.page = listing.Paginate(shown, pl.number, listing.DefaultPerPage)
	pl.number = pl.page.Number

	switch {
	case pl.problem != "" && len(pl.all) == 0:
		messageRow(pl.Table, pl.theme.FlashErrColor, pl.problem)
	case pl.loading && len(pl.all) == 0:
		messageRow(pl.Table, pl.theme.FgColor, "Loading postings…")
	case len(shown) == 0:
		messageRow(pl.Table, pl.theme.FgColor, "No postings match.")
	}

	for i, p := range pl.page.Items {
		r := i + 1
		pl.SetCell(r, 0, cell(pl.theme, truncate(p.Name, 24)))
		pl.SetCell(r, 1, statusCell(pl.theme, p.Status))
		pl.SetCell(r, 2, cell(pl.theme, p.Size))
		pl.SetCell(r, 3, cell(pl.theme, p.Color))
		pl.SetCell(r, 4, cell(pl.theme, place(p.Locality, p.Province)))
		pl.SetCell(r, 5, cell(pl.theme, author(p.Author)))
		pl.SetCell(r, 6, cell(pl.theme, mapMark(p.HasCoordinates())))
	}
	if n := len(pl.page.Items); n > 0 {
		pl.Select(min(max(row, 1), n), 0)
	}

	title := fmt.Sprintf(" Postings (%d/%d)", len(shown), len(pl.all))
	if pl.filter.Status != "" {
		title += " " + lifecycle.Label(pl.filter.Status)
	}
	if pl.filter.AuthorID != 0 {
		title += " mine"
	}
	if pl.filter.Query != "" {
		title += " /" + pl.filter.Query
	}
	if p := pager(pl.page); p != "" {
		title += " " + p
	}
	pl.SetTitle(tview.Escape(title + " "))
}

func mapMark(ok bool) string {
	if ok {
		return "●"
	}
	return "○"
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}
