package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tekvoro/web-platform/internal/core/domain"
	"github.com/tekvoro/web-platform/internal/session"
	"github.com/tekvoro/web-platform/internal/telemetry"
)

// tokenHolder is implemented by verifiers that obtain a bearer token on login.
type tokenHolder interface {
	Token() string
}

func (a *App) login(ctx context.Context, args []string) int {
	fs := a.newFlagSet("login")
	username := fs.String("u", "", "username")
	fromStdin := fs.Bool("password-stdin", false, "read the password from stdin")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	var err error
	if *username == "" {
		if *username, err = readLine(a.in, "Username: ", a.err); err != nil {
			fmt.Fprintf(a.err, "read username: %v\n", err)
			return exitFail
		}
	}
	var password string
	if *fromStdin {
		password, err = readLine(a.in, "", a.err)
	} else {
		password, err = promptPassword(a.err)
	}
	if err != nil {
		fmt.Fprintf(a.err, "read password: %v\n", err)
		return exitFail
	}

	if !a.guard.Login(ctx, *username, password) {
		fmt.Fprintln(a.err, "login failed")
		return exitFail
	}
	if th, ok := a.verifier.(tokenHolder); ok && th.Token() != "" {
		if err := a.store.Set(ctx, a.tokenKey, []byte(th.Token())); err != nil {
			a.log.Warn().Err(err).Msg("persist collector token failed")
		}
	}

	user, _ := a.guard.CurrentUser()
	fmt.Fprintf(a.out, "logged in as %s (%s)\n", user.Username, user.Role)
	return exitOK
}

func (a *App) logout(ctx context.Context, _ []string) int {
	_, wasIn := a.guard.CurrentUser()
	a.guard.Logout(ctx)
	if err := a.store.Delete(ctx, a.tokenKey); err != nil {
		a.log.Warn().Err(err).Msg("remove collector token failed")
	}
	if wasIn {
		fmt.Fprintln(a.out, "logged out")
	} else {
		fmt.Fprintln(a.out, "not logged in")
	}
	return exitOK
}

func (a *App) whoami(_ context.Context, _ []string) int {
	user, ok := a.guard.CurrentUser()
	if !ok {
		fmt.Fprintln(a.out, "not logged in")
		return exitFail
	}
	fmt.Fprintf(a.out, "%s\t%s\t%s\n", user.Username, user.Role, user.ID)
	return exitOK
}

func (a *App) gateCmd(_ context.Context, args []string) int {
	fs := a.newFlagSet("gate")
	role := fs.String("role", "", "role required by the view (admin, client, subscriber)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.err, "usage: tekvoro gate [-role r] <path>")
		return exitUsage
	}
	required := domain.Role(*role)
	if required != "" && !required.Valid() {
		fmt.Fprintf(a.err, "unknown role %q\n", *role)
		return exitUsage
	}

	state := a.gate.Enter(fs.Arg(0), required)
	fmt.Fprintln(a.out, state)
	if state != session.StateAuthorized {
		return exitFail
	}
	return exitOK
}

// metaFlag collects repeated key=value pairs.
type metaFlag map[string]any

func (m metaFlag) String() string {
	parts := make([]string, 0, len(m))
	for k, v := range m {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, ",")
}

func (m metaFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return errors.New("expected key=value")
	}
	m[k] = v
	return nil
}

func (a *App) track(_ context.Context, args []string) int {
	fs := a.newFlagSet("track")
	path := fs.String("path", "", "page path the event belongs to")
	meta := metaFlag{}
	fs.Var(meta, "meta", "metadata key=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.err, "usage: tekvoro track [-path p] [-meta k=v] <type>")
		return exitUsage
	}

	var md map[string]any
	if len(meta) > 0 {
		md = meta
	}
	a.tele.TrackEvent(fs.Arg(0), *path, md)
	fmt.Fprintf(a.out, "tracked %s (session %s)\n", fs.Arg(0), a.tele.SessionID())
	return exitOK
}

// clickFlag collects repeated kind=value click targets.
type clickFlag []*telemetry.Element

func (c *clickFlag) String() string { return strconv.Itoa(len(*c)) }

func (c *clickFlag) Set(s string) error {
	kind, v, ok := strings.Cut(s, "=")
	if !ok {
		return errors.New("expected cta=text, service=id or blog=id")
	}
	var el *telemetry.Element
	switch kind {
	case "cta":
		el = &telemetry.Element{Attrs: map[string]string{telemetry.AttrCTA: ""}, Text: v}
	case "service":
		el = &telemetry.Element{Attrs: map[string]string{telemetry.AttrService: v}, Text: v}
	case "blog":
		el = &telemetry.Element{Attrs: map[string]string{telemetry.AttrBlog: v}, Text: v}
	default:
		return fmt.Errorf("unknown click target %q", kind)
	}
	*c = append(*c, el)
	return nil
}

func (a *App) visit(_ context.Context, args []string) int {
	fs := a.newFlagSet("visit")
	scroll := fs.String("scroll", "", "comma separated scroll percentages, in order")
	var clicks clickFlag
	fs.Var(&clicks, "click", "click target cta=text, service=id or blog=id, repeatable")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.err, "usage: tekvoro visit [-scroll 25,50] [-click kind=value] <path>")
		return exitUsage
	}

	var depths []float64
	if *scroll != "" {
		for _, s := range strings.Split(*scroll, ",") {
			p, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				fmt.Fprintf(a.err, "invalid scroll value %q\n", s)
				return exitUsage
			}
			depths = append(depths, p)
		}
	}

	t := a.tele.Initialize(fs.Arg(0))
	for _, el := range clicks {
		t.Click(el)
	}
	for _, p := range depths {
		t.Scroll(p)
	}
	t.Unload()
	fmt.Fprintf(a.out, "visited %s (session %s)\n", fs.Arg(0), a.tele.SessionID())
	return exitOK
}

func (a *App) summary(ctx context.Context, args []string) int {
	fs := a.newFlagSet("summary")
	from := fs.String("from", "", "start date, YYYY-MM-DD or RFC3339")
	to := fs.String("to", "", "end date, YYYY-MM-DD (inclusive) or RFC3339")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	var q telemetry.SummaryQuery
	var err error
	if q.StartDate, err = parseDate(*from, false); err != nil {
		fmt.Fprintf(a.err, "invalid -from: %v\n", err)
		return exitUsage
	}
	if q.EndDate, err = parseDate(*to, true); err != nil {
		fmt.Fprintf(a.err, "invalid -to: %v\n", err)
		return exitUsage
	}

	s := a.tele.GetAnalyticsSummary(ctx, q)
	if s == nil {
		fmt.Fprintln(a.err, "analytics unavailable")
		return exitFail
	}
	return a.printJSON(s)
}

func (a *App) popular(ctx context.Context, args []string) int {
	fs := a.newFlagSet("popular")
	limit := fs.Int("limit", 0, "number of pages, collector default when 0")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	pages := a.tele.GetPopularPages(ctx, *limit)
	if pages == nil {
		fmt.Fprintln(a.err, "analytics unavailable")
		return exitFail
	}
	return a.printJSON(pages)
}

func (a *App) journey(ctx context.Context, args []string) int {
	fs := a.newFlagSet("journey")
	sessionID := fs.String("session", "", "visit session id")
	userID := fs.String("user", "", "user id")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *sessionID == "" && *userID == "" {
		fmt.Fprintln(a.err, "usage: tekvoro journey (-session id | -user id)")
		return exitUsage
	}
	events := a.tele.GetUserJourney(ctx, telemetry.JourneyQuery{SessionID: *sessionID, UserID: *userID})
	if events == nil {
		fmt.Fprintln(a.err, "analytics unavailable")
		return exitFail
	}
	return a.printJSON(events)
}

func (a *App) versionCmd(_ context.Context, _ []string) int {
	fmt.Fprintf(a.out, "tekvoro %s\n", a.version)
	return exitOK
}

// parseDate accepts RFC3339 or a bare date. A bare end date covers the whole
// day.
func parseDate(raw string, endOfDay bool) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a date", raw)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
