package views

import (
	"github.com/dondeestamimascota/mascotas/internal/model"
	"github.com/dondeestamimascota/mascotas/internal/tui/ui"
	"github.com/rivo/tview"
)

// LoginView is the email/password form shown while logged out.
type LoginView struct {
	*tview.Flex
	form      *tview.Form
	message   *tview.TextView
	theme     *ui.Theme
	onLogin   func(model.Credentials)
	onRecover func(email string)
}

// NewLoginView creates the login page.
func NewLoginView(theme *ui.Theme) *LoginView {
	lv := &LoginView{
		form:    tview.NewForm(),
		message: tview.NewTextView().SetDynamicColors(true).SetTextAlign(tview.AlignCenter),
		theme:   theme,
	}
	lv.form.
		AddInputField("Email", "", 40, nil, nil).
		AddPasswordField("Password", "", 40, '*', nil).
		AddButton("Log in", lv.submit).
		AddButton("Forgot password", lv.recover)
	lv.form.SetBorder(true)
	lv.form.SetBorderColor(theme.BorderColor)
	lv.form.SetTitle(" Log in ")
	lv.form.SetTitleColor(theme.TitleColor)
	lv.form.SetBackgroundColor(theme.BgColor)
	lv.form.SetFieldBackgroundColor(tview.Styles.MoreContrastBackgroundColor)
	lv.message.SetBackgroundColor(theme.BgColor)

	column := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(lv.form, 9, 0, true).
		AddItem(lv.message, 2, 0, false).
		AddItem(nil, 0, 1, false)
	lv.Flex = tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(column, 60, 0, true).
		AddItem(nil, 0, 1, false)
	return lv
}

// Name implements ui.Component.
func (lv *LoginView) Name() string { return "login" }

// SetOnLogin sets the callback for the login button.
func (lv *LoginView) SetOnLogin(fn func(model.Credentials)) { lv.onLogin = fn }

// SetOnRecover sets the callback for the password recovery button.
func (lv *LoginView) SetOnRecover(fn func(email string)) { lv.onRecover = fn }

// Credentials returns what the form currently holds.
func (lv *LoginView) Credentials() model.Credentials {
	return model.Credentials{
		Email:    lv.form.GetFormItemByLabel("Email").(*tview.InputField).GetText(),
		Password: lv.form.GetFormItemByLabel("Password").(*tview.InputField).GetText(),
	}
}

// ShowError displays msg under the form.
func (lv *LoginView) ShowError(msg string) {
	lv.message.SetText("[" + ui.ColorName(lv.theme.FlashErrColor) + "]" + tview.Escape(msg))
}

// ShowInfo displays msg under the form.
func (lv *LoginView) ShowInfo(msg string) {
	lv.message.SetText("[" + ui.ColorName(lv.theme.FlashInfoColor) + "]" + tview.Escape(msg))
}

// Reset clears the password and any message.
func (lv *LoginView) Reset() {
	lv.form.GetFormItemByLabel("Password").(*tview.InputField).SetText("")
	lv.message.Clear()
	lv.form.SetFocus(0)
}

func (lv *LoginView) submit() {
	if lv.onLogin != nil {
		lv.onLogin(lv.Credentials())
	}
}

func (lv *LoginView) recover() {
	if lv.onRecover != nil {
		lv.onRecover(lv.Credentials().Email)
	}
}
