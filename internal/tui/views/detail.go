package views

import (
	"fmt"
	"strings"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/rivo/tview"
)

// PostingDetail shows one posting with its sightings and a contact QR code.
type PostingDetail struct {
	*tview.TextView
	theme   *ui.Theme
	posting *model.Posting
	owned   bool
}

// NewPostingDetail creates the detail view.
func NewPostingDetail(theme *ui.Theme) *PostingDetail {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitleColor(theme.TitleColor)
	return &PostingDetail{TextView: tv, theme: theme}
}

// Name implements ui.Component.
func (d *PostingDetail) Name() string { return "detail" }

// Posting returns the posting on display, or nil.
func (d *PostingDetail) Posting() *model.Posting { return d.posting }

// Owned reports whether the logged-in user wrote the posting on display.
func (d *PostingDetail) Owned() bool { return d.owned }

// Show renders p. owned enables the author actions in the footer.
func (d *PostingDetail) Show(p model.Posting, owned bool) {
	d.posting = &p
	d.owned = owned
	d.SetTitle(fmt.Sprintf(" #%d %s ", p.ID, clean(p.Name)))
	d.Clear()

	label := ui.ColorName(d.theme.MenuKeyColor)
	field := func(name, value string) {
		_, _ = fmt.Fprintf(d, " [%s::b]%-12s[-:-:-] %s\n", label, name, clean(value))
	}
	_, _ = fmt.Fprintf(d, " [%s::b]%-12s[-:-:-] [%s]%s[-]\n",
		label, "Status", ui.ColorName(d.theme.StatusColor(p.Status)), lifecycle.Label(p.Status))
	field("Published", p.Date)
	field("Size", p.Size)
	field("Color", p.Color)
	field("Location", place(p.Locality, p.Province))
	field("Address", address(p.Street, p.Number))
	field("Coordinates", coordinates(p.Latitude, p.Longitude))
	field("Author", author(p.Author))
	field("Phone", p.Phone)
	field("Photos", fmt.Sprint(len(p.Images)))
	_, _ = fmt.Fprintf(d, "\n %s\n", clean(p.Description))

	if len(p.Sightings) > 0 {
		_, _ = fmt.Fprintf(d, "\n [%s::b]Sightings (%d)[-:-:-]\n", label, len(p.Sightings))
		for _, s := range p.Sightings {
			_, _ = fmt.Fprintf(d, "  %s %s  %s  %s  %s\n",
				clean(s.Date), clean(s.Time),
				clean(place(s.Locality, s.Province)),
				clean(address(s.Street, s.Number)),
				coordinates(s.Latitude, s.Longitude))
		}
	}

	if uri := telURI(p.Phone); uri != "" {
		_, _ = fmt.Fprintf(d, "\n [%s::b]Contact[-:-:-] %s\n%s", label, uri, renderQR(uri))
	}

	if owned {
		var names []string
		for _, s := range lifecycle.Allowed(p.Status) {
			if s != p.Status {
				names = append(names, lifecycle.Label(s))
			}
		}
		if len(names) == 0 {
			names = append(names, "none, "+lifecycle.Label(p.Status)+" is final")
		}
		_, _ = fmt.Fprintf(d, "\n [::d]Status can move to: %s[-:-:-]\n", strings.Join(names, ", "))
	}
	d.ScrollToBeginning()
}

// Reset drops the posting on display.
func (d *PostingDetail) Reset() {
	d.posting = nil
	d.owned = false
	d.Clear()
}
