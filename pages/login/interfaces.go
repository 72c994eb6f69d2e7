//go:generate mockgen -source=interfaces.go -destination=interfaces_mock.go -package=login

package login

import "time"

// Session is the slice of a browser session the login page drives.
// *browser.Page implements it.
type Session interface {
	Navigate(url string) error
	Fill(selector, value string) error
	Click(selector string, timeout time.Duration) error
	WaitVisible(selector string, timeout time.Duration) error
	Text(selector string) (string, error)
	VisibleTexts(selector string, timeout time.Duration) ([]string, error)
}
