package views

import (
	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusPicker lists the statuses a posting may move to, centred over the
// page below.
type StatusPicker struct {
	*tview.Flex
	list *tview.List
}

// NewStatusPicker creates the status selector.
func NewStatusPicker(theme *ui.Theme) *StatusPicker {
	l := tview.NewList().ShowSecondaryText(false)
	l.SetBorder(true)
	l.SetBorderColor(theme.BorderColor)
	l.SetBackgroundColor(theme.BgColor)
	l.SetTitle(" Change status ")
	l.SetTitleColor(theme.TitleColor)
	return &StatusPicker{Flex: centred(l, 40, 7), list: l}
}

func centred(p tview.Primitive, width, height int) *tview.Flex {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

// Name implements ui.Component.
func (sp *StatusPicker) Name() string { return "status" }

// Len returns the number of choices on display.
func (sp *StatusPicker) Len() int { return sp.list.GetItemCount() }

// Show fills the list with the statuses allowed from current, current first.
func (sp *StatusPicker) Show(current lifecycle.Status, onPick func(lifecycle.Status)) {
	sp.list.Clear()
	for i, s := range lifecycle.Allowed(current) {
		s := s
		text := lifecycle.Label(s)
		if s == current {
			text += " (current)"
		}
		shortcut := rune('1' + i)
		sp.list.AddItem(text, "", shortcut, func() { onPick(s) })
	}
}

// Confirm is a yes/no modal.
type Confirm struct {
	*tview.Modal
}

// NewConfirm creates the confirmation modal.
func NewConfirm(theme *ui.Theme) *Confirm {
	m := tview.NewModal().AddButtons([]string{"Cancel", "Confirm"})
	m.SetBackgroundColor(theme.BgColor)
	m.SetBorderColor(theme.FlashWarnColor)
	return &Confirm{Modal: m}
}

// Name implements ui.Component.
func (c *Confirm) Name() string { return "confirm" }

// Ask shows text and calls done with the answer.
func (c *Confirm) Ask(text string, done func(ok bool)) {
	c.SetText(text)
	c.SetFocus(0)
	c.SetDoneFunc(func(_ int, label string) {
		done(label == "Confirm")
	})
}
