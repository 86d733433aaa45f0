package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/tekvoro/web-platform/internal/core/ports"
	"github.com/tekvoro/web-platform/internal/session"
	"github.com/tekvoro/web-platform/internal/telemetry"
)

// Exit codes.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

const flushTimeout = 10 * time.Second

// Deps are the collaborators of an App. Build assembles them from
// configuration; tests pass their own.
type Deps struct {
	Store     ports.SessionStore
	Verifier  ports.CredentialVerifier
	Telemetry *telemetry.Client

	StorageKey string
	LoginPath  string
	Version    string

	In  io.Reader
	Out io.Writer
	Err io.Writer
	Log zerolog.Logger
}

// App runs one tekvoro command against a restored session.
type App struct {
	store    ports.SessionStore
	verifier ports.CredentialVerifier
	tele     *telemetry.Client
	guard    *session.Guard
	gate     *session.Gate
	tokenKey string
	version  string

	in  *bufio.Reader
	out io.Writer
	err io.Writer
	log zerolog.Logger
}

func New(d Deps) *App {
	key := d.StorageKey
	if key == "" {
		key = session.DefaultStorageKey
	}
	a := &App{
		store:    d.Store,
		verifier: d.Verifier,
		tele:     d.Telemetry,
		tokenKey: key + "_token",
		version:  d.Version,
		in:       bufio.NewReader(d.In),
		out:      d.Out,
		err:      d.Err,
		log:      d.Log,
	}
	a.guard = session.NewGuard(d.Store, d.Verifier, d.Log,
		session.WithStorageKey(key),
		session.WithObserver(d.Telemetry),
	)
	a.gate = session.NewGate(a.guard, session.NavigatorFunc(func(path string) {
		fmt.Fprintf(a.out, "redirect: %s\n", path)
	}), d.LoginPath)
	return a
}

type command struct {
	name string
	run  func(ctx context.Context, args []string) int
}

func (a *App) commands() []command {
	return []command{
		{"login", a.login},
		{"logout", a.logout},
		{"whoami", a.whoami},
		{"gate", a.gateCmd},
		{"track", a.track},
		{"visit", a.visit},
		{"summary", a.summary},
		{"popular", a.popular},
		{"journey", a.journey},
		{"version", a.versionCmd},
	}
}

// Run restores the persisted session, executes args[0] and waits for the
// telemetry it produced. It returns the process exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		a.usage()
		return exitUsage
	}

	a.guard.RestoreSession(ctx)
	if user, ok := a.guard.CurrentUser(); ok {
		a.tele.Identify(user.ID)
	}
	defer a.flush()

	for _, c := range a.commands() {
		if c.name == args[0] {
			return c.run(ctx, args[1:])
		}
	}
	fmt.Fprintf(a.err, "unknown command %q\n", args[0])
	a.usage()
	return exitUsage
}

func (a *App) usage() {
	fmt.Fprintln(a.err, "usage: tekvoro <command> [flags]")
	fmt.Fprint(a.err, "commands:")
	for _, c := range a.commands() {
		fmt.Fprint(a.err, " ", c.name)
	}
	fmt.Fprintln(a.err)
}

func (a *App) flush() {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	if err := a.tele.Flush(ctx); err != nil {
		a.log.Debug().Err(err).Msg("telemetry flush incomplete")
	}
}

func (a *App) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.err)
	return fs
}

func (a *App) printJSON(v any) int {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(a.err, "encode output: %v\n", err)
		return exitFail
	}
	return exitOK
}
