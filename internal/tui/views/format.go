package views

import (
	"fmt"
	"strings"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/listing"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

func headerRow(table *tview.Table, theme *ui.Theme, cols ...string) {
	for i, text := range cols {
		table.SetCell(0, i, tview.NewTableCell(" "+text).
			SetSelectable(false).
			SetTextColor(theme.TableHeaderFg).
			SetBackgroundColor(theme.BgColor).
			SetAttributes(tcell.AttrBold).
			SetExpansion(1))
	}
}

func newTable(theme *ui.Theme, title string) *tview.Table {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(title)
	table.SetTitleColor(theme.TitleColor)
	return table
}

func cell(theme *ui.Theme, text string) *tview.TableCell {
	return tview.NewTableCell(" " + clean(text)).SetTextColor(theme.FgColor).SetExpansion(1)
}

func statusCell(theme *ui.Theme, s lifecycle.Status) *tview.TableCell {
	return tview.NewTableCell(" " + lifecycle.Label(s)).SetTextColor(theme.StatusColor(s)).SetExpansion(1)
}

// messageRow fills the first data row with a single unselectable message.
func messageRow(table *tview.Table, color tcell.Color, msg string) {
	table.SetCell(1, 0, tview.NewTableCell(" "+tview.Escape(msg)).SetSelectable(false).SetTextColor(color))
}

func place(locality, province string) string {
	switch {
	case locality == "":
		return province
	case province == "":
		return locality
	}
	return locality + ", " + province
}

func address(street, number string) string {
	return strings.TrimSpace(street + " " + number)
}

func coordinates(lat, lon *float64) string {
	if lat == nil || lon == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f, %.4f", *lat, *lon)
}

// pager renders "‹ 1 [2] 3 ›" for the title of a paginated table.
func pager[T any](p listing.Page[T]) string {
	if p.Pages <= 1 {
		return ""
	}
	var b strings.Builder
	if p.HasPrev() {
		b.WriteString("‹ ")
	}
	for _, n := range listing.Window(p.Number, p.Pages, 5) {
		if n == p.Number {
			fmt.Fprintf(&b, "[%d] ", n)
		} else {
			fmt.Fprintf(&b, "%d ", n)
		}
	}
	if p.HasNext() {
		b.WriteString("›")
	}
	return strings.TrimSpace(b.String())
}

func author(a model.Author) string {
	if name := a.FullName(); name != "" {
		return name
	}
	return a.Email
}
