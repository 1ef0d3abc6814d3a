package ui

import "github.com/rivo/tview"

// Pages is a stack of Components on top of tview.Pages.
type Pages struct {
	*tview.Pages
	components map[string]Component
	stack      []string
	onChange   func(top Component, stack []string)
}

// NewPages creates an empty page stack.
func NewPages() *Pages {
	return &Pages{
		Pages:      tview.NewPages(),
		components: make(map[string]Component),
	}
}

// Add registers c as a hidden page.
func (p *Pages) Add(c Component) {
	p.components[c.Name()] = c
	p.AddPage(c.Name(), c, true, false)
}

// SetOnChange sets a callback that fires when the stack changes.
func (p *Pages) SetOnChange(fn func(top Component, stack []string)) {
	p.onChange = fn
}

// Push shows the named page on top of the stack. Pushing the current top is
// a no-op; pushing a page already deeper in the stack pops back to it.
func (p *Pages) Push(name string) {
	p.push(name, true)
}

// Overlay pushes the named page without hiding the one below, for modals.
func (p *Pages) Overlay(name string) {
	p.push(name, false)
}

func (p *Pages) push(name string, hide bool) {
	if _, ok := p.components[name]; !ok {
		return
	}
	for i, n := range p.stack {
		if n == name {
			for _, above := range p.stack[i+1:] {
				p.HidePage(above)
			}
			p.stack = p.stack[:i+1]
			p.show(name)
			return
		}
	}
	if hide && len(p.stack) > 0 {
		p.HidePage(p.stack[len(p.stack)-1])
	}
	p.stack = append(p.stack, name)
	p.show(name)
}

// Pop removes the top page unless it is the last one and returns the new top.
func (p *Pages) Pop() string {
	if len(p.stack) <= 1 {
		return p.Current()
	}
	p.HidePage(p.stack[len(p.stack)-1])
	p.stack = p.stack[:len(p.stack)-1]
	top := p.stack[len(p.stack)-1]
	p.show(top)
	return top
}

// Reset clears the stack and shows only the named page.
func (p *Pages) Reset(name string) {
	if _, ok := p.components[name]; !ok {
		return
	}
	for _, n := range p.stack {
		p.HidePage(n)
	}
	p.stack = []string{name}
	p.show(name)
}

// Current returns the name of the top page.
func (p *Pages) Current() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// Top returns the top component, or nil.
func (p *Pages) Top() Component {
	return p.components[p.Current()]
}

// Stack returns a copy of the page names, bottom first.
func (p *Pages) Stack() []string {
	return append([]string(nil), p.stack...)
}

func (p *Pages) show(name string) {
	p.ShowPage(name)
	p.SendToFront(name)
	if p.onChange != nil {
		p.onChange(p.components[name], p.Stack())
	}
}
