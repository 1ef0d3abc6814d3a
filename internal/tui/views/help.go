package views

import (
	"fmt"
	"strings"

	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpSection is a titled group of key hints.
type HelpSection struct {
	Title string
	Hints []ui.MenuHint
}

// HelpView lists every key binding and command.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates the help page.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)
	return &HelpView{TextView: tv, theme: theme}
}

// Name implements ui.Component.
func (hv *HelpView) Name() string { return "help" }

// Show renders the sections.
func (hv *HelpView) Show(sections []HelpSection) {
	hv.Clear()
	kc := ui.ColorName(hv.theme.MenuKeyColor)
	var b strings.Builder
	for _, s := range sections {
		fmt.Fprintf(&b, "\n  [::b]%s[-:-:-]\n\n", s.Title)
		for _, h := range s.Hints {
			fmt.Fprintf(&b, "  [%s]%-22s[-:-:-] %s\n", kc, tview.Escape(h.Key), h.Description)
		}
	}
	_, _ = fmt.Fprint(hv, b.String())
	hv.ScrollToBeginning()
}
