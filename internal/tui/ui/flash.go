package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/rivo/tview"
)

// FlashLevel represents the severity of a flash message.
type FlashLevel int

const (
	FlashInfo FlashLevel = iota
	FlashWarn
	FlashErr
)

// FlashMessage is a flash notification with a level and expiry.
type FlashMessage struct {
	Text    string
	Level   FlashLevel
	Expires time.Time
}

// Flash holds the current transient notification.
type Flash struct {
	mu      sync.RWMutex
	current FlashMessage
	now     func() time.Time
	watchCh chan struct{}
}

// NewFlash creates an empty flash.
func NewFlash() *Flash {
	return &Flash{now: time.Now, watchCh: make(chan struct{}, 1)}
}

// Info sets an info-level message.
func (f *Flash) Info(format string, args ...any) {
	f.set(fmt.Sprintf(format, args...), FlashInfo, 4*time.Second)
}

// Warn sets a warn-level message.
func (f *Flash) Warn(format string, args ...any) {
	f.set(fmt.Sprintf(format, args...), FlashWarn, 8*time.Second)
}

// Err sets an error-level message. A nil error is ignored.
func (f *Flash) Err(err error) {
	if err == nil {
		return
	}
	f.set(err.Error(), FlashErr, 10*time.Second)
}

// Post sets msg at level with that level's default duration.
func (f *Flash) Post(level FlashLevel, msg string) {
	switch level {
	case FlashWarn:
		f.set(msg, level, 8*time.Second)
	case FlashErr:
		f.set(msg, level, 10*time.Second)
	default:
		f.set(msg, FlashInfo, 4*time.Second)
	}
}

func (f *Flash) set(msg string, level FlashLevel, d time.Duration) {
	f.mu.Lock()
	f.current = FlashMessage{Text: msg, Level: level, Expires: f.now().Add(d)}
	f.mu.Unlock()
	select {
	case f.watchCh <- struct{}{}:
	default:
	}
}

// Current returns the active message, or nil once it has expired.
func (f *Flash) Current() *FlashMessage {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.current.Text == "" || f.now().After(f.current.Expires) {
		return nil
	}
	m := f.current
	return &m
}

// Changed signals when a new message is set.
func (f *Flash) Changed() <-chan struct{} {
	return f.watchCh
}

// FlashBar displays the current flash message.
type FlashBar struct {
	*tview.TextView
	theme *Theme
}

// NewFlashBar creates a new flash notification bar.
func NewFlashBar(theme *Theme) *FlashBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	return &FlashBar{TextView: tv, theme: theme}
}

// Update renders msg, clearing the bar when msg is nil.
func (fb *FlashBar) Update(msg *FlashMessage) {
	fb.Clear()
	if msg == nil {
		return
	}
	color := fb.theme.FlashInfoColor
	switch msg.Level {
	case FlashWarn:
		color = fb.theme.FlashWarnColor
	case FlashErr:
		color = fb.theme.FlashErrColor
	}
	_, _ = fmt.Fprintf(fb, " [%s]%s[-]", ColorName(color), tview.Escape(msg.Text))
}
