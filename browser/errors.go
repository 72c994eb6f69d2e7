package browser

import (
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
)

var (
	// ErrTimeout reports that a bounded wait expired.
	ErrTimeout = errors.New("browser: wait timed out")
	// ErrNotFound reports that a selector matched nothing in the current DOM.
	ErrNotFound = errors.New("browser: element not found")
)

// IsTimeout reports whether err is a wait timeout, from this package or from playwright.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, playwright.ErrTimeout)
}

// wrap annotates err with the operation and selector, translating playwright
// timeouts into ErrTimeout so callers need not import playwright.
func wrap(op, selector string, err error) error {
	if err == nil {
		return nil
	}
	if IsTimeout(err) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%s %q: %w: %v", op, selector, ErrTimeout, err)
	}
	return fmt.Errorf("%s %q: %w", op, selector, err)
}
