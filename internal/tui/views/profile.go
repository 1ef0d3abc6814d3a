package views

import (
	"fmt"

	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/rivo/tview"
)

// ProfileView shows the logged-in user.
type ProfileView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewProfileView creates the profile page.
func NewProfileView(theme *ui.Theme) *ProfileView {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Profile ")
	tv.SetTitleColor(theme.TitleColor)
	return &ProfileView{TextView: tv, theme: theme}
}

// Name implements ui.Component.
func (pv *ProfileView) Name() string { return "profile" }

// Show renders u, or a placeholder when nil.
func (pv *ProfileView) Show(u *model.User) {
	pv.Clear()
	if u == nil {
		_, _ = fmt.Fprint(pv, "\n Not logged in.")
		return
	}
	label := ui.ColorName(pv.theme.MenuKeyColor)
	rows := [][2]string{
		{"Name", u.Name + " " + u.Surname},
		{"Email", u.Email},
		{"DNI", u.DNI},
		{"Phone", u.Phone},
		{"Location", place(u.Locality, u.Province)},
		{"Coordinates", coordinates(u.Latitude, u.Longitude)},
		{"Postings", fmt.Sprint(len(u.Postings))},
		{"Sightings", fmt.Sprint(len(u.Sightings))},
	}
	_, _ = fmt.Fprintln(pv)
	for _, r := range rows {
		_, _ = fmt.Fprintf(pv, " [%s::b]%-12s[-:-:-] %s\n", label, r[0], clean(r[1]))
	}
}
