package ui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// PromptMode indicates what the prompt input is used for.
type PromptMode int

const (
	PromptCommand PromptMode = iota
	PromptFilter
)

// Prompt is the command/filter input bar.
type Prompt struct {
	*tview.InputField
	mode        PromptMode
	completions map[PromptMode][]string
	onSubmit func(mode PromptMode, text string)
	onCancel func()
}

// NewPrompt creates a new prompt input bar.
func NewPrompt(theme *Theme) *Prompt {
	input := tview.NewInputField()
	input.SetBorder(true)
	input.SetBorderColor(theme.PromptBorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	p := &Prompt{InputField: input, completions: make(map[PromptMode][]string)}
	input.SetAutocompleteFunc(p.complete)
	input.SetDoneFunc(func(key tcell.Key) {
		text := strings.TrimSpace(p.GetText())
		p.SetText("")
		switch key {
		case tcell.KeyEnter:
			// An empty filter clears the current one; an empty command does nothing.
			if p.onSubmit != nil && (text != "" || p.mode == PromptFilter) {
				p.onSubmit(p.mode, text)
				return
			}
			if p.onCancel != nil {
				p.onCancel()
			}
		case tcell.KeyEscape:
			if p.onCancel != nil {
				p.onCancel()
			}
		}
	})
	return p
}

// SetCompletions sets the suggestions offered in mode. Entries are whole
// inputs, e.g. "status RECUPERADO".
func (p *Prompt) SetCompletions(mode PromptMode, entries []string) {
	p.completions[mode] = entries
}

func (p *Prompt) complete(current string) []string {
	current = strings.ToLower(strings.TrimLeft(current, " "))
	if current == "" {
		return nil
	}
	var out []string
	for _, e := range p.completions[p.mode] {
		if lower := strings.ToLower(e); strings.HasPrefix(lower, current) && lower != current {
			out = append(out, e)
		}
	}
	return out
}

// SetOnSubmit sets the callback when the prompt is submitted.
func (p *Prompt) SetOnSubmit(fn func(mode PromptMode, text string)) {
	p.onSubmit = fn
}

// SetOnCancel sets the callback when the prompt is dismissed.
func (p *Prompt) SetOnCancel(fn func()) {
	p.onCancel = fn
}

// Activate prepares the prompt for mode, prefilled with initial.
func (p *Prompt) Activate(mode PromptMode, initial string) {
	p.mode = mode
	p.SetText(initial)
	switch mode {
	case PromptCommand:
		p.SetLabel(":")
		p.SetTitle(" Command ")
	case PromptFilter:
		p.SetLabel("/")
		p.SetTitle(" Filter ")
	}
}

// Mode returns the current prompt mode.
func (p *Prompt) Mode() PromptMode {
	return p.mode
}
