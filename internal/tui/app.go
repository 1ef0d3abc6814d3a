// Package tui is the terminal client built on tview.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dondeestamimascota/mascotas/internal/account"
	"github.com/dondeestamimascota/mascotas/internal/bus"
	"github.com/dondeestamimascota/mascotas/internal/lifecycle"
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/reports"
	"github.com/dondeestamimascota/mascotas/internal/state"
	intsync "github.com/dondeestamimascota/mascotas/internal/sync"
	"github.com/dondeestamimascota/mascotas/internal/tui/keys"
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/dondeestamimascota/mascotas/internal/tui/views"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Deps are the services the TUI drives.
type Deps struct {
	Profile  string
	Store    *state.Store
	Engine   *intsync.Engine
	Accounts *account.Service
	Reports  *reports.Service
	Bus      *bus.Bus
	Logger   *zap.Logger
}

// App is the main TUI application shell.
type App struct {
	app      *tview.Application
	deps     Deps
	logger   *zap.Logger
	theme    *ui.Theme
	registry *keys.Registry
	flash    *ui.Flash

	body     *tview.Flex
	pages    *ui.Pages
	header   *ui.Header
	menu     *ui.Menu
	crumbs   *ui.Crumbs
	flashBar *ui.FlashBar
	prompt   *ui.Prompt

	login     *views.LoginView
	postings  *views.PostingList
	sightings *views.SightingList
	detail    *views.PostingDetail
	profile   *views.ProfileView
	help      *views.HelpView
	picker    *views.StatusPicker
	confirm   *views.Confirm

	// Touched only on the UI goroutine.
	state     *state.AppState
	authed    bool
	prompting bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewApp builds the TUI for deps.
func NewApp(deps Deps) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &App{
		app:       tview.NewApplication(),
		deps:      deps,
		logger:    logger,
		theme:     theme,
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlash(),
		pages:     ui.NewPages(),
		header:    ui.NewHeader(theme),
		menu:      ui.NewMenu(theme),
		crumbs:    ui.NewCrumbs(theme),
		flashBar:  ui.NewFlashBar(theme),
		prompt:    ui.NewPrompt(theme),
		login:     views.NewLoginView(theme),
		postings:  views.NewPostingList(theme),
		sightings: views.NewSightingList(theme),
		detail:    views.NewPostingDetail(theme),
		profile:   views.NewProfileView(theme),
		help:      views.NewHelpView(theme),
		picker:    views.NewStatusPicker(theme),
		confirm:   views.NewConfirm(theme),
		state:     &state.AppState{},
		ctx:       ctx,
		cancel:    cancel,
	}
	a.setupBindings()
	a.setupCallbacks()
	a.setupLayout()
	return a
}

func (a *App) setupBindings() {
	r := a.registry
	r.Global(keys.Rune(':', "Command", func() { a.showPrompt(ui.PromptCommand) }))
	r.Global(keys.Rune('1', "Postings", func() { a.goTo("postings") }))
	r.Global(keys.Rune('2', "Sightings", func() { a.goTo("sightings") }))
	r.Global(keys.Rune('3', "Profile", func() { a.goTo("profile") }))
	r.Global(keys.Rune('r', "Refresh", a.refresh))
	r.Global(keys.Rune('?', "Help", func() { a.pages.Push("help") }))
	r.Global(keys.Rune('q', "Back/Quit", a.back))

	r.Page("postings", &keys.Action{Key: tcell.KeyEnter, Label: "Enter", Help: "Open", Handler: a.openSelectedPosting})
	r.Page("postings", keys.Rune('/', "Filter", func() { a.showPrompt(ui.PromptFilter) }))
	r.Page("postings", keys.Rune('f', "Status filter", func() {
		if s := a.postings.CycleStatus(); s != "" {
			a.flash.Info("Showing %s", lifecycle.Label(s))
		} else {
			a.flash.Info("Showing every status")
		}
	}))
	r.Page("postings", keys.Rune('m', "Mine", func() {
		uid := a.state.UserID()
		if !a.postings.ToggleAuthor(uid) {
			a.flash.Info("Showing every posting")
			return
		}
		go func() {
			if _, err := a.deps.Engine.LoadAuthorPostings(a.ctx, uid); err != nil {
				a.flash.Err(err)
			}
		}()
	}))
	r.Page("postings", keys.Rune('0', "Clear filters", a.postings.ClearFilter))
	r.Page("postings", keys.Rune('n', "Next page", a.postings.NextPage))
	r.Page("postings", keys.Rune('p', "Prev page", a.postings.PrevPage))

	r.Page("sightings", &keys.Action{Key: tcell.KeyEnter, Label: "Enter", Help: "Open posting", Handler: a.openSelectedSighting})
	r.Page("sightings", keys.Rune('m', "Mine", func() { a.sightings.ToggleMine(a.state.UserID()) }))
	r.Page("sightings", keys.Rune('n', "Next page", a.sightings.NextPage))
	r.Page("sightings", keys.Rune('p', "Prev page", a.sightings.PrevPage))

	r.Page("detail", keys.Rune('s', "Status", a.pickStatus))
	r.Page("detail", keys.Rune('x', "Delete", a.deletePosting))
	r.Page("detail", keys.Rune('r', "Reload", a.reloadPosting))

	r.Page("profile", keys.Rune('x', "Log out", a.logout))
}

func (a *App) setupCallbacks() {
	a.login.SetOnLogin(func(creds model.Credentials) {
		a.login.ShowInfo("Logging in…")
		go func() {
			_, err := a.deps.Accounts.Login(a.ctx, creds)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.login.ShowError(err.Error())
					return
				}
				a.login.Reset()
			})
		}()
	})
	a.login.SetOnRecover(func(email string) {
		go func() {
			err := a.deps.Accounts.RecoverPassword(a.ctx, email)
			a.app.QueueUpdateDraw(func() {
				if err != nil {
					a.login.ShowError(err.Error())
					return
				}
				a.login.ShowInfo("Check " + email + " for a recovery link.")
			})
		}()
	})

	a.prompt.SetOnSubmit(func(mode ui.PromptMode, text string) {
		a.hidePrompt()
		if mode == ui.PromptFilter {
			a.postings.SetQuery(text)
			return
		}
		if err := a.runCommand(ParseCommand(text)); err != nil {
			a.flash.Err(err)
		}
	})
	a.prompt.SetOnCancel(a.hidePrompt)
	a.prompt.SetCompletions(ui.PromptCommand, commandCompletions())

	a.pages.SetOnChange(func(top ui.Component, stack []string) {
		a.crumbs.Update(stack)
		a.menu.Update(a.registry.Hints(top.Name()))
		a.app.SetFocus(top)
	})
}

func (a *App) setupLayout() {
	for _, c := range []ui.Component{a.login, a.postings, a.sightings, a.detail, a.profile, a.help, a.picker, a.confirm} {
		a.pages.Add(c)
	}
	a.help.Show(a.helpSections())

	top := tview.NewFlex().
		AddItem(a.header, 44, 0, false).
		AddItem(a.menu, 0, 1, false)
	a.body = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 5, 0, false).
		AddItem(a.crumbs, 1, 0, false).
		AddItem(a.body, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false)

	a.app.SetRoot(root, true)
	a.app.SetInputCapture(a.capture)
}

func (a *App) capture(ev *tcell.EventKey) *tcell.EventKey {
	if a.prompting {
		return ev
	}
	page := a.pages.Current()
	switch page {
	case "login":
		return ev
	case "status", "confirm":
		if ev.Key() == tcell.KeyEscape {
			a.pages.Pop()
			return nil
		}
		return ev
	}
	if ev.Key() == tcell.KeyEscape {
		a.back()
		return nil
	}
	if a.registry.Handle(page, ev) {
		return nil
	}
	return ev
}

// Run blocks until the user quits.
func (a *App) Run() error {
	sub := a.deps.Store.Subscribe(func(st *state.AppState) {
		a.app.QueueUpdateDraw(func() { a.render(st) })
	})
	defer sub.Unsubscribe()

	events, stop := a.deps.Bus.Subscribe("", 32)
	defer stop()
	go a.watchEvents(events)
	go a.watchFlash()

	a.header.Update(a.summary())
	a.showLogin("")
	err := a.app.Run()
	a.cancel()
	return err
}

// Stop ends Run.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}

// render applies a new store state. Runs on the UI goroutine.
func (a *App) render(st *state.AppState) {
	a.state = st
	a.postings.Update(st.Postings, st.PostingsLoading, st.PostingsError)
	a.sightings.Update(st.Sightings, st.SightingsLoading, st.SightingsError)
	a.profile.Show(st.User)
	a.header.Update(a.summary())

	if p := a.detail.Posting(); p != nil {
		if cur, ok := st.Posting(p.ID); ok {
			a.detail.Show(cur, cur.Author.ID == st.UserID())
		} else if a.pages.Current() == "detail" {
			a.detail.Reset()
			a.pages.Pop()
		}
	}

	if st.Authenticated != a.authed {
		a.authed = st.Authenticated
		if a.authed {
			a.pages.Reset("postings")
			if st.User != nil {
				a.flash.Info("Welcome, %s", st.User.Name)
			}
			a.refresh()
		} else {
			a.showLogin("")
		}
	}
}

func (a *App) summary() ui.Summary {
	s := ui.Summary{
		Profile:   a.deps.Profile,
		Postings:  len(a.state.Postings),
		Sightings: len(a.state.Sightings),
		Loading:   a.state.PostingsLoading || a.state.SightingsLoading,
		Problem:   a.state.PostingsError,
	}
	if s.Problem == "" {
		s.Problem = a.state.SightingsError
	}
	if u := a.state.User; u != nil {
		s.User = u.Name + " " + u.Surname + " <" + u.Email + ">"
	}
	return s
}

func (a *App) watchEvents(events <-chan bus.Event) {
	for evt := range events {
		msg, level, toLogin := notice(evt)
		if msg == "" {
			continue
		}
		a.flash.Post(level, msg)
		if toLogin {
			a.app.QueueUpdateDraw(func() {
				if evt.Kind == bus.KindSessionExpiry && a.authed {
					go a.deps.Accounts.Logout()
				}
				a.showLogin(msg)
			})
		}
	}
}

func (a *App) watchFlash() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-a.flash.Changed():
		case <-ticker.C:
		case <-a.ctx.Done():
			return
		}
		msg := a.flash.Current()
		a.app.QueueUpdateDraw(func() { a.flashBar.Update(msg) })
	}
}

// notice turns a bus event into a flash message. toLogin is set for events
// that end the session.
func notice(evt bus.Event) (msg string, level ui.FlashLevel, toLogin bool) {
	switch evt.Kind {
	case bus.KindLoggedOut:
		return "Logged out.", ui.FlashInfo, true
	case bus.KindSessionExpiry:
		return "Session expired, log in again.", ui.FlashWarn, true
	case bus.KindStatusChanged:
		if c, ok := evt.Payload.(lifecycle.StatusChange); ok {
			return fmt.Sprintf("Posting #%d is now %s.", c.PostingID, lifecycle.Label(c.To)), ui.FlashInfo, false
		}
	case bus.KindPostingSaved:
		return fmt.Sprintf("Posting #%v saved.", evt.Payload), ui.FlashInfo, false
	case bus.KindPostingGone:
		return fmt.Sprintf("Posting #%v deleted.", evt.Payload), ui.FlashInfo, false
	case bus.KindSightingAdded:
		return fmt.Sprintf("Sighting #%v reported.", evt.Payload), ui.FlashInfo, false
	case bus.KindRefreshFailed:
		return fmt.Sprintf("Refresh failed: %v", evt.Payload), ui.FlashWarn, false
	}
	return "", ui.FlashInfo, false
}

func (a *App) showLogin(msg string) {
	a.login.Reset()
	if msg != "" {
		a.login.ShowInfo(msg)
	}
	a.pages.Reset("login")
}

func (a *App) goTo(page string) {
	if !a.authed {
		return
	}
	a.pages.Reset(page)
}

func (a *App) back() {
	if len(a.pages.Stack()) > 1 {
		a.pages.Pop()
		return
	}
	a.Stop()
}

func (a *App) showPrompt(mode ui.PromptMode) {
	initial := ""
	if mode == ui.PromptFilter {
		initial = a.postings.Query()
	}
	a.prompt.Activate(mode, initial)
	a.prompting = true
	a.body.Clear().
		AddItem(a.prompt, 3, 0, true).
		AddItem(a.pages, 0, 1, false)
	a.app.SetFocus(a.prompt)
}

func (a *App) hidePrompt() {
	a.prompting = false
	a.body.Clear().AddItem(a.pages, 0, 1, true)
	if top := a.pages.Top(); top != nil {
		a.app.SetFocus(top)
	}
}

func (a *App) refresh() {
	go func() {
		if err := a.deps.Engine.Refresh(a.ctx); err != nil {
			a.logger.Debug("refresh", zap.Error(err))
		}
	}()
}

func (a *App) logout() {
	go a.deps.Accounts.Logout()
}

func (a *App) openPosting(p model.Posting) {
	a.detail.Show(p, p.Author.ID == a.state.UserID())
	a.pages.Push("detail")
}

func (a *App) openSelectedPosting() {
	if p, ok := a.postings.Selected(); ok {
		a.openPosting(p)
	}
}

func (a *App) openSelectedSighting() {
	s, ok := a.sightings.Selected()
	if !ok {
		return
	}
	if !s.Linked() {
		a.flash.Info("Sighting #%d is not linked to a posting", s.ID)
		return
	}
	a.openPostingID(*s.PostingID)
}

// openPostingID shows a posting from the store, loading it first if needed.
func (a *App) openPostingID(id int64) {
	if p, ok := a.state.Posting(id); ok {
		a.openPosting(p)
		return
	}
	go func() {
		p, err := a.deps.Engine.LoadPosting(a.ctx, id)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.flash.Err(err)
				return
			}
			a.openPosting(*p)
		})
	}()
}

func (a *App) reloadPosting() {
	p := a.detail.Posting()
	if p == nil {
		return
	}
	id := p.ID
	go func() {
		if _, err := a.deps.Engine.LoadPosting(a.ctx, id); err != nil {
			a.flash.Err(err)
		}
	}()
}

func (a *App) pickStatus() {
	p := a.detail.Posting()
	if p == nil {
		return
	}
	if !a.detail.Owned() {
		a.flash.Warn("Only the author can change the status")
		return
	}
	if lifecycle.Terminal(p.Status) {
		a.flash.Warn("%s is final", lifecycle.Label(p.Status))
		return
	}
	cur := *p
	a.picker.Show(cur.Status, func(next lifecycle.Status) {
		a.pages.Pop()
		if next != cur.Status {
			a.changeStatus(cur, next)
		}
	})
	a.pages.Overlay("status")
}

func (a *App) changeStatus(p model.Posting, next lifecycle.Status) {
	if !lifecycle.RequiresConfirmation(p.Status, next) {
		a.applyStatus(p.ID, next)
		return
	}
	text := fmt.Sprintf("Posting #%d was %s.\nMove it back to %s?",
		p.ID, lifecycle.Label(p.Status), lifecycle.Label(next))
	a.confirm.Ask(text, func(ok bool) {
		a.pages.Pop()
		if ok {
			a.applyStatus(p.ID, next)
		}
	})
	a.pages.Overlay("confirm")
}

func (a *App) applyStatus(id int64, next lifecycle.Status) {
	go func() {
		if _, err := a.deps.Reports.ChangeStatus(a.ctx, id, next); err != nil {
			a.flash.Err(err)
		}
	}()
}

func (a *App) deletePosting() {
	p := a.detail.Posting()
	if p == nil {
		return
	}
	if !a.detail.Owned() {
		a.flash.Warn("Only the author can delete a posting")
		return
	}
	id := p.ID
	a.confirm.Ask(fmt.Sprintf("Delete posting #%d %q?", id, p.Name), func(ok bool) {
		a.pages.Pop()
		if !ok {
			return
		}
		go func() {
			if err := a.deps.Reports.DeletePosting(a.ctx, id); err != nil {
				a.flash.Err(err)
			}
		}()
	})
	a.pages.Overlay("confirm")
}

func (a *App) runCommand(cmd Command) error {
	switch canonical(cmd.Name) {
	case "quit":
		a.Stop()
	case "help":
		a.pages.Push("help")
	case "postings", "sightings", "profile":
		if !a.authed {
			return errors.New("log in first")
		}
		a.goTo(canonical(cmd.Name))
	case "refresh":
		a.refresh()
	case "logout":
		a.logout()
	case "open":
		id, err := strconv.ParseInt(cmd.Args, 10, 64)
		if err != nil {
			return fmt.Errorf("open: %q is not a posting id", cmd.Args)
		}
		a.openPostingID(id)
	case "status":
		p := a.detail.Posting()
		if p == nil || a.pages.Current() != "detail" {
			return errors.New("status: open a posting first")
		}
		next, err := lifecycle.Parse(cmd.Args)
		if err != nil {
			return err
		}
		if !a.detail.Owned() {
			return reports.ErrNotAuthor
		}
		if err := lifecycle.Check(p.Status, next); err != nil {
			return err
		}
		if next != p.Status {
			a.changeStatus(*p, next)
		}
	case "province":
		a.sightings.SetProvince(cmd.Args)
		a.goTo("sightings")
	default:
		return fmt.Errorf("unknown command %q", cmd.Name)
	}
	return nil
}

func (a *App) helpSections() []views.HelpSection {
	return []views.HelpSection{
		{Title: "Global", Hints: a.registry.Hints("")},
		{Title: "Postings", Hints: a.registry.PageHints("postings")},
		{Title: "Sightings", Hints: a.registry.PageHints("sightings")},
		{Title: "Posting detail", Hints: a.registry.PageHints("detail")},
		{Title: "Profile", Hints: a.registry.PageHints("profile")},
		{Title: "Commands", Hints: []ui.MenuHint{
			{Key: ":postings  :p", Description: "Postings"},
			{Key: ":sightings :s", Description: "Sightings"},
			{Key: ":profile   :me", Description: "Your profile"},
			{Key: ":open <id>", Description: "Open a posting"},
			{Key: ":status <STATUS>", Description: "Change the open posting's status"},
			{Key: ":province <name>", Description: "Sightings in a province"},
			{Key: ":refresh", Description: "Reload postings and sightings"},
			{Key: ":logout", Description: "Log out"},
			{Key: ":quit      :q", Description: "Quit"},
		}},
	}
}
