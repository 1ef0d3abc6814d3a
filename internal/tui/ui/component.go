package ui

import "github.com/rivo/tview"

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
}

// Component is a page of the TUI. Name is both the page name and its
// breadcrumb label.
type Component interface {
	tview.Primitive
	Name() string
}
