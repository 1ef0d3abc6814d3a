package ui

import (
	"fmt"

	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/gdamore/tcell/v2"
)

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor           tcell.Color
	FgColor           tcell.Color
	BorderColor       tcell.Color
	TableHeaderFg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
	Status            map[lifecycle.Status]tcell.Color
}

// DefaultTheme returns the dark theme used by the client.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorWhiteSmoke,
		BorderColor:       tcell.ColorTeal,
		TableHeaderFg:     tcell.ColorWhite,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorMediumAquamarine,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorGold,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorMediumAquamarine,
		MenuKeyColor:      tcell.ColorTeal,
		TitleColor:        tcell.ColorGold,
		CounterColor:      tcell.ColorPapayaWhip,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorTeal,
		Status: map[lifecycle.Status]tcell.Color{
			lifecycle.LostOwn:   tcell.ColorOrangeRed,
			lifecycle.LostOther: tcell.ColorOrange,
			lifecycle.Recovered: tcell.ColorLimeGreen,
			lifecycle.Adopted:   tcell.ColorDeepSkyBlue,
		},
	}
}

// StatusColor returns the color of a posting status, FgColor when unknown.
func (t *Theme) StatusColor(s lifecycle.Status) tcell.Color {
	if c, ok := t.Status[s]; ok {
		return c
	}
	return t.FgColor
}

// ColorName returns a tview-compatible color tag for c.
func ColorName(c tcell.Color) string {
	for name, val := range tcell.ColorNames {
		if val == c {
			return name
		}
	}
	return fmt.Sprintf("#%06x", c.Hex())
}
