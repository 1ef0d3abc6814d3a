// Package keys maps key events to actions per page.
package keys

import (
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
)

// Action represents a keybinding action.
type Action struct {
	Key     tcell.Key
	Rune    rune
	Label   string
	Help    string
	Handler func()
	// Hidden actions work but are not listed in the menu.
	Hidden bool
}

// Matches reports whether ev triggers the action.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings for every page plus global ones. Actions keep
// registration order so menus are stable.
type Registry struct {
	global []*Action
	pages  map[string][]*Action
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{pages: make(map[string][]*Action)}
}

// Global registers an action available on every page.
func (r *Registry) Global(a *Action) {
	r.global = append(r.global, a)
}

// Page registers an action for a single page.
func (r *Registry) Page(page string, a *Action) {
	r.pages[page] = append(r.pages[page], a)
}

// Hints lists the visible actions of page, page actions first.
func (r *Registry) Hints(page string) []ui.MenuHint {
	return hints(r.pages[page], r.global)
}

// PageHints lists the visible actions registered for page only.
func (r *Registry) PageHints(page string) []ui.MenuHint {
	return hints(r.pages[page])
}

func hints(sets ...[]*Action) []ui.MenuHint {
	var out []ui.MenuHint
	for _, set := range sets {
		for _, a := range set {
			if !a.Hidden {
				out = append(out, ui.MenuHint{Key: a.Label, Description: a.Help})
			}
		}
	}
	return out
}

// Handle runs the first action of page, then of the global set, matching ev.
func (r *Registry) Handle(page string, ev *tcell.EventKey) bool {
	for _, set := range [][]*Action{r.pages[page], r.global} {
		for _, a := range set {
			if a.Matches(ev) {
				a.Handler()
				return true
			}
		}
	}
	return false
}

// Rune is a shorthand for a printable-key action.
func Rune(r rune, help string, fn func()) *Action {
	return &Action{Key: tcell.KeyRune, Rune: r, Label: string(r), Help: help, Handler: fn}
}
