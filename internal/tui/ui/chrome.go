package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// Crumbs is a breadcrumb bar showing the page stack.
type Crumbs struct {
	*tview.TextView
	theme *Theme
}

// NewCrumbs creates a new breadcrumb bar.
func NewCrumbs(theme *Theme) *Crumbs {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &Crumbs{TextView: tv, theme: theme}
}

// Update renders the breadcrumb trail.
func (c *Crumbs) Update(stack []string) {
	c.Clear()
	parts := make([]string, 0, len(stack))
	for i, name := range stack {
		fg, bg := c.theme.CrumbInactiveFg, c.theme.CrumbInactiveBg
		attr := ""
		if i == len(stack)-1 {
			fg, bg, attr = c.theme.CrumbActiveFg, c.theme.CrumbActiveBg, "b"
		}
		parts = append(parts, fmt.Sprintf("[%s:%s:%s] %s [-:-:-]", ColorName(fg), ColorName(bg), attr, name))
	}
	_, _ = fmt.Fprint(c, strings.Join(parts, " "))
}

// Menu lists the key hints of the current page.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)
	return &Menu{TextView: tv, theme: theme}
}

// Update renders hints in two columns.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	kc := ColorName(m.theme.MenuKeyColor)
	for i, h := range hints {
		sep := "\n"
		if i%2 == 0 && i+1 < len(hints) {
			sep = "  "
		}
		_, _ = fmt.Fprintf(m, "[%s::b]<%s>[-:-:-] %-14s%s", kc, h.Key, h.Description, sep)
	}
}

// Summary is the header panel describing the profile and the loaded data.
type Summary struct {
	Profile   string
	User      string
	Postings  int
	Sightings int
	Loading   bool
	Problem   string
}

// Header renders a Summary.
type Header struct {
	*tview.TextView
	theme *Theme
}

// NewHeader creates a new header panel.
func NewHeader(theme *Theme) *Header {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)
	return &Header{TextView: tv, theme: theme}
}

// Update renders s.
func (h *Header) Update(s Summary) {
	h.Clear()
	fg := ColorName(h.theme.FgColor)
	val := ColorName(h.theme.CounterColor)

	user := s.User
	if user == "" {
		user = "(not logged in)"
	}
	sync := "idle"
	switch {
	case s.Loading:
		sync = "loading"
	case s.Problem != "":
		sync = "[" + ColorName(h.theme.FlashErrColor) + "]" + tview.Escape(s.Problem)
	}
	_, _ = fmt.Fprintf(h,
		"[%s::b]Profile:[-:-:-]   [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]      [%s]%s[-]\n"+
			"[%s::b]Postings:[-:-:-]  [%s]%d[-]\n"+
			"[%s::b]Sightings:[-:-:-] [%s]%d[-]\n"+
			"[%s::b]Sync:[-:-:-]      [%s]%s[-]",
		fg, val, tview.Escape(s.Profile),
		fg, val, tview.Escape(user),
		fg, val, s.Postings,
		fg, val, s.Sightings,
		fg, val, sync,
	)
}
