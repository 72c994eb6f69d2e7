// Package login is the page object for the shop's login page.
//
// Every wait is bounded by the configured timeouts. A wait that expires is a
// normal outcome and is reported through booleans or empty results; only
// failures of the browser session itself come back as errors.
package login

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shopqa/logintests/browser"
	"github.com/shopqa/logintests/shared/config"
)

// LogoutLabel is the text of the header link shown to a logged-in user.
const LogoutLabel = "安全退出"

// ErrUnexpectedPopup is matched by a *PopupMismatchError.
var ErrUnexpectedPopup = errors.New("login: unexpected popup message")

// PopupMismatchError reports a popup whose text lacks the expected message.
type PopupMismatchError struct {
	Expected string
	Actual   string
}

func (e *PopupMismatchError) Error() string {
	return fmt.Sprintf("expected popup to contain %q, got %q", e.Expected, e.Actual)
}

func (e *PopupMismatchError) Unwrap() error {
	return ErrUnexpectedPopup
}

// Page exposes the login page's interactions as named operations.
type Page struct {
	session  Session
	locators config.Locators
	timeouts config.Timeouts
	defaults config.Credentials
	logger   *zap.Logger

	loggedIn bool
}

// New creates a login page object on session. defaults supplies credentials
// that a Login call leaves out.
func New(session Session, locators config.Locators, timeouts config.Timeouts, defaults config.Credentials, logger *zap.Logger) *Page {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Page{
		session:  session,
		locators: locators,
		timeouts: timeouts,
		defaults: defaults,
		logger:   logger,
	}
}

// NewFromConfig reads locators, timeouts and default credentials from cfg.
func NewFromConfig(session Session, cfg config.IConfig, logger *zap.Logger) (*Page, error) {
	locators, err := cfg.Locators()
	if err != nil {
		return nil, fmt.Errorf("read locators: %w", err)
	}
	timeouts, err := cfg.Timeouts()
	if err != nil {
		return nil, fmt.Errorf("read timeouts: %w", err)
	}
	defaults, err := cfg.Credentials()
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return New(session, locators, timeouts, defaults, logger), nil
}

// Locators returns the selectors this page object uses.
func (p *Page) Locators() config.Locators {
	return p.locators
}

// IsLoggedIn reports the outcome of the last login or logout.
func (p *Page) IsLoggedIn() bool {
	return p.loggedIn
}

// Load opens the login page.
func (p *Page) Load(url string) error {
	if err := p.session.Navigate(url); err != nil {
		return fmt.Errorf("load login page: %w", err)
	}
	return nil
}

func (p *Page) EnterUsername(username string) error {
	return p.session.Fill(p.locators.Username, username)
}

func (p *Page) EnterPassword(password string) error {
	return p.session.Fill(p.locators.Password, password)
}

func (p *Page) EnterVerifyCode(code string) error {
	return p.session.Fill(p.locators.VerifyCode, code)
}

// ClickLogin submits the form. The outcome is only observable through the
// waits that follow.
func (p *Page) ClickLogin() error {
	return p.session.Click(p.locators.LoginButton, p.timeouts.Action)
}

// Login fills all three fields, submits and waits for the success indicator.
// It reports whether the login succeeded; a failed login is not an error.
func (p *Page) Login(opts ...Option) (bool, error) {
	creds := Resolve(p.defaults, opts...)

	if err := p.EnterUsername(creds.Username); err != nil {
		return false, fmt.Errorf("enter username: %w", err)
	}
	if err := p.EnterPassword(creds.Password); err != nil {
		return false, fmt.Errorf("enter password: %w", err)
	}
	if err := p.EnterVerifyCode(creds.VerifyCode); err != nil {
		return false, fmt.Errorf("enter verify code: %w", err)
	}
	if err := p.ClickLogin(); err != nil {
		return false, fmt.Errorf("submit login: %w", err)
	}
	return p.WaitLoggedIn(), nil
}

// WaitLoggedIn waits for the success indicator and records the result.
func (p *Page) WaitLoggedIn() bool {
	err := p.session.WaitVisible(p.locators.SuccessIndicator, p.timeouts.LoginSuccess)
	if err == nil {
		p.loggedIn = true
		p.logger.Debug("Login succeeded")
		return true
	}

	p.loggedIn = false
	if browser.IsTimeout(err) {
		p.logger.Debug("Success indicator did not appear", zap.Duration("timeout", p.timeouts.LoginSuccess))
	} else {
		p.logger.Warn("Waiting for success indicator failed", zap.Error(err))
	}
	return false
}

// SuccessText returns the text of the success indicator once it is visible.
func (p *Page) SuccessText() (string, error) {
	if err := p.session.WaitVisible(p.locators.SuccessIndicator, p.timeouts.LoginSuccess); err != nil {
		return "", fmt.Errorf("success indicator: %w", err)
	}
	text, err := p.session.Text(p.locators.SuccessIndicator)
	if err != nil {
		return "", fmt.Errorf("success indicator: %w", err)
	}
	return strings.TrimSpace(text), nil
}

// WaitLoginForm waits for the submit control, i.e. for the login form to be shown.
func (p *Page) WaitLoginForm(timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.timeouts.Action
	}
	return p.session.WaitVisible(p.locators.LoginButton, timeout)
}

// HandleErrorPopup reads the error popup, acknowledges it and returns its
// trimmed text. found is false when no popup showed up in time. When expected
// is non-empty and the text does not contain it, the popup is still
// acknowledged and a *PopupMismatchError is returned alongside the text.
func (p *Page) HandleErrorPopup(expected string) (message string, found bool, err error) {
	if err := p.session.WaitVisible(p.locators.ErrorContent, p.timeouts.ErrorPopup); err != nil {
		if browser.IsTimeout(err) {
			p.logger.Info("Error popup did not appear", zap.Duration("timeout", p.timeouts.ErrorPopup))
			return "", false, nil
		}
		return "", false, fmt.Errorf("wait for error popup: %w", err)
	}

	text, err := p.session.Text(p.locators.ErrorContent)
	if err != nil {
		if browser.IsTimeout(err) {
			p.logger.Info("Error popup vanished before it could be read")
			return "", false, nil
		}
		return "", false, fmt.Errorf("read error popup: %w", err)
	}
	message = strings.TrimSpace(text)
	p.logger.Info("Error popup", zap.String("message", message))

	if err := p.session.Click(p.locators.ErrorConfirm, p.timeouts.ErrorConfirm); err != nil {
		if browser.IsTimeout(err) {
			p.logger.Info("Error popup confirm button not clickable", zap.Duration("timeout", p.timeouts.ErrorConfirm))
			return "", false, nil
		}
		return "", false, fmt.Errorf("confirm error popup: %w", err)
	}

	if expected != "" && !strings.Contains(message, expected) {
		return message, true, &PopupMismatchError{Expected: expected, Actual: message}
	}
	return message, true, nil
}

// ErrorMessages returns the text of every visible popup, or an empty slice
// when none showed up in time.
func (p *Page) ErrorMessages() ([]string, error) {
	texts, err := p.session.VisibleTexts(p.locators.AnyErrorContent, p.timeouts.ErrorPopup)
	if err != nil {
		if browser.IsTimeout(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read error popups: %w", err)
	}
	return texts, nil
}

// Logout signs out when logged in. It never fails: any problem is logged and
// the page is considered logged out afterwards.
func (p *Page) Logout() {
	if !p.loggedIn {
		return
	}
	defer func() { p.loggedIn = false }()

	if err := p.session.Click(p.locators.LogoutLink, p.timeouts.LogoutClick); err != nil {
		p.logger.Warn("Logout click failed, state reset anyway", zap.Error(err))
		return
	}
	if err := p.session.WaitVisible(p.locators.LoginEntry, p.timeouts.LogoutEntry); err != nil {
		p.logger.Warn("Login entry did not reappear after logout, state reset anyway", zap.Error(err))
		return
	}
	p.logger.Debug("Logged out")
}
