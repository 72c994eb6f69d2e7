package config

import (
	"context"
	"strings"
	"time"
)

// ShopBaseURL is the shop test host the suite was written against.
const ShopBaseURL = "https://hmshop-test.itheima.net"

// DefaultLoginPath is the login page path on the shop host.
const DefaultLoginPath = "/Home/user/login.html"

// DefaultVerifyCode is the verification code accepted by the test environment.
const DefaultVerifyCode = "8888"

// BrowserEngine names a playwright browser type.
type BrowserEngine string

const (
	EngineChromium BrowserEngine = "chromium"
	EngineFirefox  BrowserEngine = "firefox"
	EngineWebkit   BrowserEngine = "webkit"
)

// Credentials are the fallback values used when a test does not pass its own.
type Credentials struct {
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	VerifyCode string `yaml:"verify_code"`
}

// Locators holds the selectors of the login page and its header.
type Locators struct {
	Username         string `yaml:"username"`
	Password         string `yaml:"password"`
	VerifyCode       string `yaml:"verify_code"`
	LoginButton      string `yaml:"login_button"`
	SuccessIndicator string `yaml:"success_indicator"`
	LogoutLink       string `yaml:"logout_link"`
	LoginEntry       string `yaml:"login_entry"`
	ErrorContent     string `yaml:"error_content"`
	ErrorConfirm     string `yaml:"error_confirm"`
	AnyErrorContent  string `yaml:"any_error_content"`
}

// Timeouts bounds every wait the page object performs.
type Timeouts struct {
	LoginSuccess time.Duration `yaml:"login_success"`
	ErrorPopup   time.Duration `yaml:"error_popup"`
	ErrorConfirm time.Duration `yaml:"error_confirm"`
	LogoutClick  time.Duration `yaml:"logout_click"`
	LogoutEntry  time.Duration `yaml:"logout_entry"`
	Action       time.Duration `yaml:"action"`
	Navigation   time.Duration `yaml:"navigation"`
}

// BrowserSettings selects and configures the browser the suite drives.
type BrowserSettings struct {
	Engine          BrowserEngine `yaml:"engine"`
	Channel         string        `yaml:"channel"`
	Headless        bool          `yaml:"headless"`
	Remote          bool          `yaml:"remote"`
	RemoteImage     string        `yaml:"remote_image"`
	InstallBrowsers bool          `yaml:"install_browsers"`
}

// Settings is the complete, plain-data view of a configuration.
type Settings struct {
	BaseURL      string          `yaml:"base_url"`
	LoginPath    string          `yaml:"login_path"`
	Credentials  Credentials     `yaml:"credentials"`
	Locators     Locators        `yaml:"locators"`
	Timeouts     Timeouts        `yaml:"timeouts"`
	Browser      BrowserSettings `yaml:"browser"`
	LogLevel     string          `yaml:"log_level"`
	ScenarioTags string          `yaml:"scenario_tags"`
	ArtifactsDir string          `yaml:"artifacts_dir"`
}

// DefaultLocators returns the selectors of the shop login page.
func DefaultLocators() Locators {
	return Locators{
		Username:         "#username",
		Password:         "#password",
		VerifyCode:       "#verify_code",
		LoginButton:      "#loginform > div > div.login_bnt > a",
		SuccessIndicator: "body > div.tpshop-tm-hander.home-index-top.p > div > div > div > div.fl.islogin.hide > a:nth-child(2)",
		LogoutLink:       "a:text-is('安全退出')",
		LoginEntry:       "a:text-is('登录')",
		ErrorContent:     ".layui-layer-content.layui-layer-padding",
		ErrorConfirm:     ".layui-layer-btn0",
		AnyErrorContent:  "[id^='layui-layer'] > div.layui-layer-content",
	}
}

// DefaultTimeouts returns the waits used when nothing else is configured.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		LoginSuccess: 3 * time.Second,
		ErrorPopup:   10 * time.Second,
		ErrorConfirm: 5 * time.Second,
		LogoutClick:  3 * time.Second,
		LogoutEntry:  3 * time.Second,
		Action:       5 * time.Second,
		Navigation:   30 * time.Second,
	}
}

// DefaultSettings targets the local shop stub with a headless chromium.
func DefaultSettings() Settings {
	return Settings{
		LoginPath:   DefaultLoginPath,
		Credentials: Credentials{VerifyCode: DefaultVerifyCode},
		Locators:    DefaultLocators(),
		Timeouts:    DefaultTimeouts(),
		Browser: BrowserSettings{
			Engine:      EngineChromium,
			Headless:    true,
			RemoteImage: "mcr.microsoft.com/playwright:v1.52.0-noble",
		},
		LogLevel:     "info",
		ArtifactsDir: "artifacts",
	}
}

// LoginURL joins a base URL and the login path.
func LoginURL(baseURL, loginPath string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(loginPath, "/")
}

type IConfig interface {
	// Target
	BaseURL() (string, error)
	LoginPath() (string, error)

	// Page object
	Credentials() (Credentials, error)
	Locators() (Locators, error)
	Timeouts() (Timeouts, error)

	// Suite
	Browser() (BrowserSettings, error)
	LogLevel() (string, error)
	ScenarioTags() (string, error)
	ArtifactsDir() (string, error)

	// Lifecycle & Status
	Status(ctx context.Context) error
	Close() error
}
