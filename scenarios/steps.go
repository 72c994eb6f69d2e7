package scenarios

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	messages "github.com/cucumber/messages/go/v21"
	"go.uber.org/zap"

	"github.com/shopqa/logintests/pages/login"
)

var (
	ErrUndefinedStep = errors.New("undefined step")
	ErrAmbiguousStep = errors.New("ambiguous step")
)

// Actions is the part of the login page object the steps drive.
// *login.Page implements it.
type Actions interface {
	Load(url string) error
	Login(opts ...login.Option) (bool, error)
	IsLoggedIn() bool
	SuccessText() (string, error)
	HandleErrorPopup(expected string) (message string, found bool, err error)
	ErrorMessages() ([]string, error)
	WaitLoginForm(timeout time.Duration) error
	Logout()
}

// State is what the steps of one scenario share.
type State struct {
	Actions  Actions
	LoginURL string

	loginOK bool
}

// StepFunc runs one step. args are the pattern's capture groups.
type StepFunc func(ctx context.Context, st *State, args ...string) error

type stepDef struct {
	pattern *regexp.Regexp
	fn      StepFunc
}

// StepError reports the step a scenario failed on.
type StepError struct {
	Scenario string
	Step     string
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("scenario %q, step %q: %v", e.Scenario, e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Steps maps step text to step functions.
type Steps struct {
	defs   []stepDef
	logger *zap.Logger
}

func NewSteps(logger *zap.Logger) *Steps {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Steps{logger: logger}
}

// Register adds a step. The pattern is anchored at both ends. Registering
// the same pattern twice panics.
func (s *Steps) Register(pattern string, fn StepFunc) *Steps {
	anchored := "^" + strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$") + "$"
	for _, d := range s.defs {
		if d.pattern.String() == anchored {
			panic("step already registered: " + pattern)
		}
	}
	s.defs = append(s.defs, stepDef{pattern: regexp.MustCompile(anchored), fn: fn})
	return s
}

// Match finds the single step definition matching text.
func (s *Steps) Match(text string) (StepFunc, []string, error) {
	var (
		found StepFunc
		args  []string
		hits  int
	)
	for _, d := range s.defs {
		m := d.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		hits++
		found, args = d.fn, m[1:]
	}
	switch hits {
	case 0:
		return nil, nil, fmt.Errorf("%w: %s", ErrUndefinedStep, text)
	case 1:
		return found, args, nil
	default:
		return nil, nil, fmt.Errorf("%w: %s matches %d definitions", ErrAmbiguousStep, text, hits)
	}
}

// Run executes the pickle's steps in order and stops at the first failure.
func (s *Steps) Run(ctx context.Context, pickle *messages.Pickle, st *State) error {
	for _, step := range pickle.Steps {
		if err := ctx.Err(); err != nil {
			return &StepError{Scenario: pickle.Name, Step: step.Text, Err: err}
		}
		fn, args, err := s.Match(step.Text)
		if err != nil {
			return &StepError{Scenario: pickle.Name, Step: step.Text, Err: err}
		}
		s.logger.Debug("Step", zap.String("scenario", pickle.Name), zap.String("step", step.Text))
		if err := fn(ctx, st, args...); err != nil {
			return &StepError{Scenario: pickle.Name, Step: step.Text, Err: err}
		}
	}
	return nil
}

// LoginSteps returns the step definitions used by the login features.
func LoginSteps(logger *zap.Logger) *Steps {
	return NewSteps(logger).
		Register(`the login page is open`, func(_ context.Context, st *State, _ ...string) error {
			return st.Actions.Load(st.LoginURL)
		}).
		Register(`I log in with the default credentials`, func(_ context.Context, st *State, _ ...string) error {
			return st.login()
		}).
		Register(`I log in with password "([^"]*)"`, func(_ context.Context, st *State, args ...string) error {
			return st.login(login.WithPassword(args[0]))
		}).
		Register(`I log in with an empty (username|password|verify code)`, func(_ context.Context, st *State, args ...string) error {
			switch args[0] {
			case "username":
				return st.login(login.WithUsername(""))
			case "password":
				return st.login(login.WithPassword(""))
			default:
				return st.login(login.WithVerifyCode(""))
			}
		}).
		Register(`the login succeeds`, func(_ context.Context, st *State, _ ...string) error {
			if !st.loginOK {
				return errors.New("login did not succeed")
			}
			return nil
		}).
		Register(`the login fails`, func(_ context.Context, st *State, _ ...string) error {
			if st.loginOK {
				return errors.New("login succeeded unexpectedly")
			}
			return nil
		}).
		Register(`the success indicator contains "([^"]*)"`, func(_ context.Context, st *State, args ...string) error {
			text, err := st.Actions.SuccessText()
			if err != nil {
				return err
			}
			if !strings.Contains(text, args[0]) {
				return fmt.Errorf("success indicator %q does not contain %q", text, args[0])
			}
			return nil
		}).
		Register(`an error popup says "([^"]*)"`, func(_ context.Context, st *State, args ...string) error {
			_, found, err := st.Actions.HandleErrorPopup(args[0])
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("no error popup appeared, expected %q", args[0])
			}
			return nil
		}).
		Register(`the error messages include "([^"]*)"`, func(_ context.Context, st *State, args ...string) error {
			msgs, err := st.Actions.ErrorMessages()
			if err != nil {
				return err
			}
			if !slices.Contains(msgs, args[0]) {
				return fmt.Errorf("error messages %q do not include %q", msgs, args[0])
			}
			return nil
		}).
		Register(`the login form is shown again`, func(_ context.Context, st *State, _ ...string) error {
			return st.Actions.WaitLoginForm(0)
		}).
		Register(`I am logged out`, func(_ context.Context, st *State, _ ...string) error {
			st.Actions.Logout()
			return nil
		}).
		Register(`I log out`, func(_ context.Context, st *State, _ ...string) error {
			st.Actions.Logout()
			return nil
		}).
		Register(`I am not logged in`, func(_ context.Context, st *State, _ ...string) error {
			if st.Actions.IsLoggedIn() {
				return errors.New("still logged in")
			}
			return nil
		})
}

func (st *State) login(opts ...login.Option) error {
	ok, err := st.Actions.Login(opts...)
	if err != nil {
		return err
	}
	st.loginOK = ok
	return nil
}
