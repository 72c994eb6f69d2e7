package shopstub

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server, *http.Client) {
	t.Helper()
	stub := New(Options{Logger: zaptest.NewLogger(t)})
	ts := httptest.NewServer(stub.Handler())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return stub, ts, &http.Client{Jar: jar}
}

func postLogin(t *testing.T, client *http.Client, base, username, password, code string) LoginResult {
	t.Helper()
	resp, err := client.PostForm(base+DoLoginPath, url.Values{
		"username":    {username},
		"password":    {password},
		"verify_code": {code},
	})
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result LoginResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	return result
}

func getBody(t *testing.T, client *http.Client, u string) string {
	t.Helper()
	resp, err := client.Get(u)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestAuthenticateValidationOrder(t *testing.T) {
	stub := New(Options{})

	tests := []struct {
		name                     string
		username, password, code string
		want                     string
	}{
		{"all empty", "", "", "", MsgUsernameRequired},
		{"blank username", "   ", DefaultPassword, DefaultVerifyCode, MsgUsernameRequired},
		{"empty password", DefaultUsername, "", DefaultVerifyCode, MsgPasswordRequired},
		{"empty code", DefaultUsername, DefaultPassword, "", MsgVerifyCodeRequired},
		{"wrong code", DefaultUsername, DefaultPassword, "1234", MsgVerifyCodeWrong},
		{"unknown account", "13900000000", DefaultPassword, DefaultVerifyCode, MsgAccountMissing},
		{"wrong password", DefaultUsername, "654321", DefaultVerifyCode, MsgPasswordWrong},
		{"ok", DefaultUsername, DefaultPassword, DefaultVerifyCode, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stub.Authenticate(tt.username, tt.password, tt.code))
		})
	}
}

func TestCustomAccountsAndCode(t *testing.T) {
	stub := New(Options{Accounts: []Account{{Username: "alice", Password: "pw"}}, VerifyCode: "0000"})
	assert.Equal(t, "", stub.Authenticate("alice", "pw", "0000"))
	assert.Equal(t, MsgVerifyCodeWrong, stub.Authenticate("alice", "pw", DefaultVerifyCode))
	assert.Equal(t, MsgAccountMissing, stub.Authenticate(DefaultUsername, DefaultPassword, "0000"))
}

func TestLoginPageCarriesSelectors(t *testing.T) {
	_, ts, client := newTestServer(t)

	body := getBody(t, client, ts.URL+LoginPath)
	for _, fragment := range []string{
		`id="loginform"`,
		`id="username"`,
		`id="password"`,
		`id="verify_code"`,
		`class="login_bnt"`,
		`class="fl islogin hide"`,
		`layui-layer-content layui-layer-padding`,
		`layui-layer-btn0`,
		">登录</a>",
	} {
		assert.Contains(t, body, fragment)
	}
}

func TestLoginLogoutRoundTrip(t *testing.T) {
	stub, ts, client := newTestServer(t)

	failed := postLogin(t, client, ts.URL, DefaultUsername, "654321", DefaultVerifyCode)
	assert.Equal(t, -1, failed.Status)
	assert.Equal(t, MsgPasswordWrong, failed.Msg)
	assert.Zero(t, stub.ActiveSessions())

	ok := postLogin(t, client, ts.URL, DefaultUsername, DefaultPassword, DefaultVerifyCode)
	assert.Equal(t, 1, ok.Status)
	assert.Equal(t, "/", ok.URL)
	assert.Equal(t, 1, stub.ActiveSessions())

	home := getBody(t, client, ts.URL+"/")
	assert.Contains(t, home, `class="fl islogin hide" style="display:block"`)
	assert.Contains(t, home, "安全退出")
	assert.NotContains(t, home, `class="fl nologin"`)

	after := getBody(t, client, ts.URL+LogoutPath)
	assert.Zero(t, stub.ActiveSessions())
	assert.True(t, strings.Contains(after, `id="loginform"`), "logout lands on the login page")
	assert.Contains(t, after, `class="fl nologin"`)
}

func TestHealth(t *testing.T) {
	_, ts, client := newTestServer(t)
	assert.Equal(t, "ok", getBody(t, client, ts.URL+HealthPath))

	resp, err := client.Get(ts.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
