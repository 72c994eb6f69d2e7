package login

import "github.com/shopqa/logintests/shared/config"

// Option sets one credential for a Login call. A credential with no option
// falls back to the configured default; an option carrying "" is kept as "".
type Option func(*loginArgs)

type loginArgs struct {
	username   *string
	password   *string
	verifyCode *string
}

func WithUsername(v string) Option {
	return func(a *loginArgs) { a.username = &v }
}

func WithPassword(v string) Option {
	return func(a *loginArgs) { a.password = &v }
}

func WithVerifyCode(v string) Option {
	return func(a *loginArgs) { a.verifyCode = &v }
}

// Resolve applies opts over defaults. Only an absent option triggers the
// fallback.
func Resolve(defaults config.Credentials, opts ...Option) config.Credentials {
	var a loginArgs
	for _, opt := range opts {
		opt(&a)
	}

	out := defaults
	if a.username != nil {
		out.Username = *a.username
	}
	if a.password != nil {
		out.Password = *a.password
	}
	if a.verifyCode != nil {
		out.VerifyCode = *a.verifyCode
	}
	return out
}
