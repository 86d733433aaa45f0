package session

import (
	"net/url"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

// State is the outcome of a route gate check.
type State int

const (
	// StateLoading means the session has not been restored yet.
	StateLoading State = iota
	StateUnauthorized
	StateAuthorized
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateUnauthorized:
		return "unauthorized"
	case StateAuthorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// DefaultLoginPath is where unauthorized navigations are sent.
const DefaultLoginPath = "/login"

// Navigator performs the redirect, replacing the current history entry.
type Navigator interface {
	Replace(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Replace(path string) { f(path) }

// Gate decides, per navigation, whether a protected view renders.
// Nothing is cached between checks.
type Gate struct {
	guard     *Guard
	nav       Navigator
	loginPath string
}

func NewGate(guard *Guard, nav Navigator, loginPath string) *Gate {
	if loginPath == "" {
		loginPath = DefaultLoginPath
	}
	return &Gate{guard: guard, nav: nav, loginPath: loginPath}
}

// Evaluate returns the gate state for a view requiring role. It has no side
// effects.
func (g *Gate) Evaluate(role domain.Role) State {
	if !g.guard.Ready() {
		return StateLoading
	}
	if !g.guard.IsAuthenticated() || !g.guard.CanAccess(role) {
		return StateUnauthorized
	}
	return StateAuthorized
}

// Enter evaluates the gate for a navigation to from and redirects to the
// login view when unauthorized.
func (g *Gate) Enter(from string, role domain.Role) State {
	state := g.Evaluate(role)
	if state == StateUnauthorized && g.nav != nil {
		g.nav.Replace(g.LoginURL(from))
	}
	return state
}

// LoginURL returns the login path carrying from as the return location.
func (g *Gate) LoginURL(from string) string {
	if from == "" {
		return g.loginPath
	}
	return g.loginPath + "?from=" + url.QueryEscape(from)
}
