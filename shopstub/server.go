// Package shopstub serves a stand-in for the shop's login page. It keeps the
// DOM contract the page object relies on (field ids, submit control, header
// login/logout links, layer popups) so the suite can run without the shop host.
package shopstub

import (
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed templates/page.html
var templatesFS embed.FS

// Paths served by the stub.
const (
	LoginPath   = "/Home/user/login.html"
	DoLoginPath = "/Home/user/do_login"
	LogoutPath  = "/Home/user/logout.html"
	HealthPath  = "/healthz"

	SessionCookie = "shop_session"
)

// Popup messages, as the shop phrases them.
const (
	MsgUsernameRequired   = "用户名不能为空!"
	MsgPasswordRequired   = "密码不能为空!"
	MsgVerifyCodeRequired = "验证码不能为空!"
	MsgVerifyCodeWrong    = "验证码错误!"
	MsgAccountMissing     = "账号不存在!"
	MsgPasswordWrong      = "密码错误!"
	MsgLoginOK            = "登陆成功"
)

// Default account accepted by a stub built with zero Options.
const (
	DefaultUsername   = "13800000001"
	DefaultPassword   = "123456"
	DefaultVerifyCode = "8888"
)

// Account is a username/password pair the stub accepts.
type Account struct {
	Username string
	Password string
}

// Options configures a Server.
type Options struct {
	Accounts   []Account
	VerifyCode string
	Logger     *zap.Logger
}

// LoginResult is the JSON body of a do_login response.
type LoginResult struct {
	Status int    `json:"status"`
	Msg    string `json:"msg"`
	URL    string `json:"url,omitempty"`
}

type pageData struct {
	Title    string
	LoggedIn bool
	Username string
	ShowForm bool
}

// Server is the stub's HTTP handler and in-memory session store.
type Server struct {
	accounts   map[string]string
	verifyCode string
	logger     *zap.Logger
	tmpl       *template.Template

	mu       sync.Mutex
	sessions map[string]string // token -> username
}

// New creates a stub server. Missing options fall back to the default account
// and verification code.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	accounts := opts.Accounts
	if len(accounts) == 0 {
		accounts = []Account{{Username: DefaultUsername, Password: DefaultPassword}}
	}
	code := opts.VerifyCode
	if code == "" {
		code = DefaultVerifyCode
	}

	s := &Server{
		accounts:   make(map[string]string, len(accounts)),
		verifyCode: code,
		logger:     logger,
		tmpl:       template.Must(template.ParseFS(templatesFS, "templates/page.html")),
		sessions:   make(map[string]string),
	}
	for _, a := range accounts {
		s.accounts[a.Username] = a.Password
	}
	return s
}

// Handler returns the stub's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET "+HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", s.handleHome)
	mux.HandleFunc("GET /Home/Index/index.html", s.handleHome)
	mux.HandleFunc("GET "+LoginPath, s.handleLoginPage)
	mux.HandleFunc("POST "+DoLoginPath, s.handleDoLogin)
	mux.HandleFunc("GET "+LogoutPath, s.handleLogout)
	return mux
}

// ActiveSessions reports how many sessions are currently logged in.
func (s *Server) ActiveSessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Authenticate applies the shop's validation order and returns the popup
// message for a rejected attempt, or "" when the attempt succeeds.
func (s *Server) Authenticate(username, password, verifyCode string) string {
	username = strings.TrimSpace(username)
	switch {
	case username == "":
		return MsgUsernameRequired
	case password == "":
		return MsgPasswordRequired
	case strings.TrimSpace(verifyCode) == "":
		return MsgVerifyCodeRequired
	case strings.TrimSpace(verifyCode) != s.verifyCode:
		return MsgVerifyCodeWrong
	}
	want, ok := s.accounts[username]
	if !ok {
		return MsgAccountMissing
	}
	if want != password {
		return MsgPasswordWrong
	}
	return ""
}

func (s *Server) currentUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil || c.Value == "" {
		return "", false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.sessions[c.Value]
	return user, ok
}

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		s.logger.Error("Failed to render page", zap.String("title", data.Title), zap.Error(err))
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	s.render(w, pageData{Title: "TPshop商城", LoggedIn: ok, Username: user})
}

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	user, ok := s.currentUser(r)
	s.render(w, pageData{Title: "登录-TPshop商城", LoggedIn: ok, Username: user, ShowForm: true})
}

func (s *Server) handleDoLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	username := r.PostFormValue("username")
	msg := s.Authenticate(username, r.PostFormValue("password"), r.PostFormValue("verify_code"))

	result := LoginResult{Status: -1, Msg: msg}
	if msg == "" {
		token := uuid.NewString()
		s.mu.Lock()
		s.sessions[token] = strings.TrimSpace(username)
		s.mu.Unlock()
		http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: token, Path: "/", HttpOnly: true})
		result = LoginResult{Status: 1, Msg: MsgLoginOK, URL: "/"}
		s.logger.Debug("Login accepted", zap.String("username", username))
	} else {
		s.logger.Debug("Login rejected", zap.String("username", username), zap.String("msg", msg))
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		s.logger.Error("Failed to write login result", zap.Error(err))
	}
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, LoginPath, http.StatusFound)
}
