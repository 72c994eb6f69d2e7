package tests

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/shopqa/logintests/pages/login"
)

var (
	testRunTimestamp string
	onceTimestamp    sync.Once
)

// getTestRunTimestamp returns the timestamp shared by the whole test run.
func getTestRunTimestamp() string {
	onceTimestamp.Do(func() {
		testRunTimestamp = time.Now().Format("20060102150405")
	})
	return testRunTimestamp
}

// ArtifactManager stores screenshots, HTML and console output of one test.
type ArtifactManager struct {
	Logger      *zap.Logger
	TestName    string
	ArtifactDir string
	T           *testing.T
	Page        playwright.Page

	consoleMu   sync.Mutex
	consoleFile *os.File
}

// NewArtifactManager prepares the artifact directory of t and records the
// browser console while t runs.
func NewArtifactManager(t *testing.T) *ArtifactManager {
	t.Helper()
	requireBrowser(t)

	baseDir, _ := cfg.ArtifactsDir()
	testName := strings.ReplaceAll(t.Name(), "/", "_")
	artifactDir := filepath.Join(baseDir, getTestRunTimestamp(), testName)
	if err := os.MkdirAll(artifactDir, 0o755); err != nil {
		t.Fatalf("Failed to create test artifact directory: %v", err)
	}

	am := &ArtifactManager{
		Logger:      zaptest.NewLogger(t),
		TestName:    testName,
		ArtifactDir: artifactDir,
		T:           t,
		Page:        session.Page.Raw(),
	}
	am.setupConsoleLogging()
	return am
}

// CaptureOnFailure saves a screenshot and the HTML when the test fails.
// Cleanups registered earlier run after the capture.
func (am *ArtifactManager) CaptureOnFailure() {
	am.T.Cleanup(func() {
		if am.T.Failed() {
			am.SaveScreenshot("failure")
			am.SaveHTML("failure")
		}
	})
}

// requireBrowser skips t when no browser session was set up.
func requireBrowser(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping browser test in short mode")
	}
	if session == nil {
		t.Skip("browser session not available")
	}
}

// newLoginPage returns a fresh login page object on the shared session with
// the login page loaded. The page is logged out again when t ends.
func newLoginPage(t *testing.T) (*login.Page, *ArtifactManager) {
	t.Helper()
	requireBrowser(t)

	am := NewArtifactManager(t)
	page, err := login.NewFromConfig(session.Page, cfg, am.Logger)
	require.NoError(t, err)
	t.Cleanup(page.Logout)
	am.CaptureOnFailure()

	if err := page.Load(loginURL); err != nil {
		am.SaveScreenshot("load_error")
		am.SaveHTML("load_error")
		t.Fatalf("could not open login page %s: %v", loginURL, err)
	}
	return page, am
}

// SaveScreenshot takes a screenshot and saves it to the artifacts directory.
func (am *ArtifactManager) SaveScreenshot(name string) string {
	filename := filepath.Join(am.ArtifactDir, fmt.Sprintf("%s.png", name))

	_, err := am.Page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(filename),
		FullPage: playwright.Bool(true),
	})
	if err != nil {
		am.T.Logf("Failed to save screenshot: %v", err)
		return ""
	}

	am.T.Logf("Screenshot saved to %s", filename)
	return filename
}

// SaveHTML saves the page HTML to the artifacts directory.
func (am *ArtifactManager) SaveHTML(name string) string {
	filename := filepath.Join(am.ArtifactDir, fmt.Sprintf("%s.html", name))

	content, err := am.Page.Content()
	if err != nil {
		am.T.Logf("Failed to get page content: %v", err)
		return ""
	}
	if err := os.WriteFile(filename, []byte(content), 0o644); err != nil {
		am.T.Logf("Failed to save HTML content: %v", err)
		return ""
	}

	am.T.Logf("HTML content saved to %s", filename)
	return filename
}

// SaveLocatorDebugInfo captures the page and notes the selector that was
// expected but not found.
func (am *ArtifactManager) SaveLocatorDebugInfo(selector string, description string) {
	am.SaveScreenshot(fmt.Sprintf("locator_not_found_%s", description))
	am.SaveHTML(fmt.Sprintf("locator_not_found_%s", description))

	filename := filepath.Join(am.ArtifactDir, fmt.Sprintf("locator_debug_%s.txt", description))
	debugInfo := fmt.Sprintf("Selector: %s\nDescription: %s\nURL: %s\nTimestamp: %s\n",
		selector, description, am.Page.URL(), time.Now().Format(time.RFC3339))

	if err := os.WriteFile(filename, []byte(debugInfo), 0o644); err != nil {
		am.T.Logf("Failed to save debug info: %v", err)
		return
	}
	am.T.Logf("Locator debug info saved to %s", filename)
}

// setupConsoleLogging writes the page's console messages to console.log
// until the test ends. The page is shared, so the listener is removed then.
func (am *ArtifactManager) setupConsoleLogging() {
	logFile := filepath.Join(am.ArtifactDir, "console.log")
	file, err := os.Create(logFile)
	if err != nil {
		am.T.Logf("Failed to create console log file: %v", err)
		return
	}
	am.consoleFile = file

	handler := func(msg playwright.ConsoleMessage) {
		am.consoleMu.Lock()
		defer am.consoleMu.Unlock()
		if am.consoleFile == nil {
			return
		}
		entry := fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format(time.RFC3339), msg.Type(), msg.Text())
		if _, err := am.consoleFile.WriteString(entry); err != nil {
			fmt.Fprintf(os.Stderr, "[Console Logger Error] Failed to write to console log for test %s: %v\n", am.TestName, err)
		}
	}
	am.Page.On("console", handler)

	am.T.Cleanup(func() {
		am.Page.RemoveListener("console", handler)
		am.consoleMu.Lock()
		defer am.consoleMu.Unlock()
		am.consoleFile.Close()
		am.consoleFile = nil
	})
}
