// Package shell is a terminal front-end for the portal. It renders routes
// as prompts and wires user input into the orchestration core: the same
// guards, login machine, and flows a graphical front-end would drive.
package shell

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gookit/color"
	"golang.org/x/sync/errgroup"

	"github.com/communication-ltd/portal-front/internal/account"
	"github.com/communication-ltd/portal-front/internal/api"
	"github.com/communication-ltd/portal-front/internal/config"
	"github.com/communication-ltd/portal-front/internal/guard"
	"github.com/communication-ltd/portal-front/internal/log"
	"github.com/communication-ltd/portal-front/internal/login"
	"github.com/communication-ltd/portal-front/internal/nav"
	"github.com/communication-ltd/portal-front/internal/recovery"
	"github.com/communication-ltd/portal-front/internal/session"
)

// Shell runs the interactive loop. It is the Navigator for every flow it
// constructs: flows decide where the user goes, the shell decides what a
// route looks like.
type Shell struct {
	cfg    config.Config
	client *api.Client
	oracle session.Oracle

	in    *bufio.Scanner
	out   io.Writer
	route string
}

var _ nav.Navigator = (*Shell)(nil)

// New builds a shell over the given client.
func New(cfg config.Config, client *api.Client, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		cfg:    cfg,
		client: client,
		oracle: session.NewOracle(client),
		in:     bufio.NewScanner(in),
		out:    out,
		route:  cfg.Routes.Login,
	}
}

// Push implements nav.Navigator.
func (s *Shell) Push(route string) {
	s.route = route
	s.sayf(color.Cyan, "-> %s", route)
}

// Replace implements nav.Navigator. The shell keeps no history, so replace
// and push land in the same place; the distinction matters to browser
// front-ends, not this one.
func (s *Shell) Replace(route string) {
	s.route = route
	s.sayf(color.Cyan, "=> %s", route)
}

// Run reads commands until EOF or "quit".
func (s *Shell) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "portal-front interactive shell. Type \"help\" for commands.")
	s.visit(ctx, s.route)

	for {
		fmt.Fprintf(s.out, "[%s] > ", s.route)
		line, ok := s.readLine()
		if !ok {
			return nil
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		cmd, args := fields[0], fields[1:]

		switch cmd {
		case "quit", "exit":
			return nil
		case "help":
			s.printHelp()
		case "open":
			if len(args) != 1 {
				s.say(color.Yellow, "usage: open <route>")
				continue
			}
			s.visit(ctx, args[0])
		case "login":
			s.runLogin(ctx)
		case "logout":
			session.End(ctx, s.client)
			s.Replace(s.cfg.Routes.Login)
		case "whoami":
			s.runWhoami(ctx)
		case "register":
			s.runRegister(ctx)
		case "forgot":
			s.runForgot(ctx)
		case "reset":
			if len(args) != 1 {
				s.say(color.Yellow, "usage: reset <token>")
				continue
			}
			s.runReset(ctx, args[0])
		case "passwd":
			s.runChange(ctx)
		case "policy":
			s.runPolicy(ctx)
		case "customers":
			s.runCustomers(ctx, args)
		case "doctor":
			s.runDoctor(ctx)
		default:
			s.sayf(color.Yellow, "unknown command %q, try \"help\"", cmd)
		}
	}
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `commands:
  open <route>            navigate (guards may redirect you)
  login                   sign in (two-step)
  logout                  end the session
  whoami                  show the current session
  register                create an account
  forgot                  request a password-reset link
  reset <token>           consume a reset link
  passwd                  change the password
  policy                  show the server password policy
  customers search <q>    search customers
  customers add           create a customer
  doctor                  check backend connectivity
  quit
`)
}

// visit routes through a guard the way page mounts do: protected routes
// demand a session, the public auth pages demand its absence, and the
// recovery pages are reachable either way.
func (s *Shell) visit(ctx context.Context, route string) {
	routes := s.cfg.Routes
	var g *guard.Guard
	switch route {
	case routes.Landing, routes.Dashboard:
		g = guard.RequireAuthenticated(s.oracle, s, routes.Login)
	case routes.Login, routes.Register:
		g = guard.RequireAnonymous(s.oracle, s, routes.Landing)
	case routes.Forgot, routes.Reset:
		// Reachable with or without a session.
		s.route = route
		return
	default:
		s.sayf(color.Yellow, "no such route %q", route)
		return
	}
	defer g.Close()

	if g.Evaluate(ctx) == guard.StateAuthorized {
		s.route = route
		if identity, ok := g.Identity(); ok {
			s.sayf(color.Green, "signed in as %s", identity.Username)
		}
	}
}

func (s *Shell) runLogin(ctx context.Context) {
	machine := login.NewMachine(s.client, s, login.Config{
		LandingRoute:  s.cfg.Routes.Landing,
		RedirectDelay: s.cfg.LoginRedirectDelay,
	}, login.WithScheduler(s.runAfter))
	defer machine.Close()

	identifier := s.prompt("email or username: ")
	password := s.prompt("password: ")

	snap := machine.SubmitCredentials(ctx, identifier, password)
	if snap.ErrorMessage != "" {
		s.say(color.Red, snap.ErrorMessage)
		return
	}

	for snap.Step == login.StepOneTimeCode && !snap.Completed {
		if snap.ExpiresInMinutes > 0 {
			fmt.Fprintf(s.out, "a code was sent by %s, valid about %d minutes\n", snap.Method, snap.ExpiresInMinutes)
		}
		code := s.prompt("code (empty to go back): ")
		if code == "" {
			machine.Back()
			return
		}
		snap = machine.SubmitCode(ctx, code)
		if snap.ErrorMessage != "" {
			s.say(color.Red, snap.ErrorMessage)
		}
	}
	if snap.Completed {
		s.say(color.Green, snap.InfoMessage)
	}
}

func (s *Shell) runWhoami(ctx context.Context) {
	outcome := s.oracle.Probe(ctx)
	if !outcome.Authenticated {
		s.say(color.Yellow, "not signed in")
		return
	}
	fmt.Fprintf(s.out, "user #%d %s\n", outcome.Identity.ID, outcome.Identity.Username)
}

func (s *Shell) runRegister(ctx context.Context) {
	in := account.RegisterInput{
		Username: s.prompt("username: "),
		Email:    s.prompt("email: "),
		Password: s.prompt("password: "),
		Confirm:  s.prompt("confirm password: "),
	}
	outcome := account.Register(ctx, s.client, in)
	if outcome.Success {
		s.say(color.Green, outcome.Message)
		s.Push(s.cfg.Routes.Login)
		return
	}
	s.say(color.Red, outcome.Message)
}

func (s *Shell) runForgot(ctx context.Context) {
	email := s.prompt("account email: ")
	outcome := recovery.RequestLink(ctx, s.client, email)
	if outcome.LocalError {
		s.say(color.Red, outcome.Message)
		return
	}
	fmt.Fprintln(s.out, outcome.Message)
}

func (s *Shell) runReset(ctx context.Context, token string) {
	flow := recovery.NewResetFlow(s.client, s, token, recovery.ResetConfig{
		LoginRoute:    s.cfg.Routes.Login,
		RedirectDelay: s.cfg.SuccessRedirectDelay,
	}, recovery.WithResetScheduler(s.runAfter))
	defer flow.Close()

	snap := flow.Snapshot()
	if snap.State == recovery.ResetMissingToken {
		s.say(color.Red, snap.Message)
		return
	}

	password := s.prompt("new password: ")
	snap = flow.Submit(ctx, password)
	if snap.State == recovery.ResetDone {
		s.say(color.Green, snap.Message)
		return
	}
	s.say(color.Red, snap.Message)
}

func (s *Shell) runChange(ctx context.Context) {
	flow := account.NewChangeFlow(s.client, s, account.ChangeConfig{
		LandingRoute:  s.cfg.Routes.Landing,
		RedirectDelay: s.cfg.SuccessRedirectDelay,
	}, account.WithChangeScheduler(s.runAfter))
	defer flow.Close()

	old := s.prompt("current password: ")
	next := s.prompt("new password: ")
	confirm := s.prompt("confirm new password: ")

	snap := flow.Submit(ctx, old, next, confirm)
	if snap.Done {
		s.say(color.Green, snap.Message)
		return
	}
	s.say(color.Red, snap.Message)
}

func (s *Shell) runPolicy(ctx context.Context) {
	policy, err := s.client.Policy(ctx)
	if err != nil {
		s.say(color.Red, api.DisplayMessage(err))
		return
	}
	fmt.Fprintf(s.out, "minimum length %d, upper=%v lower=%v digit=%v special=%v\n",
		policy.MinLength, policy.RequireUpper, policy.RequireLower, policy.RequireDigit, policy.RequireSpecial)
	if policy.History > 0 {
		fmt.Fprintf(s.out, "last %d passwords cannot be reused\n", policy.History)
	}
}

func (s *Shell) runCustomers(ctx context.Context, args []string) {
	if len(args) == 0 {
		s.say(color.Yellow, "usage: customers search <q> | customers add")
		return
	}
	switch args[0] {
	case "search":
		q := strings.Join(args[1:], " ")
		page, err := s.client.SearchCustomers(ctx, q, 1, 20)
		if err != nil {
			s.say(color.Red, api.DisplayMessage(err))
			return
		}
		for _, c := range page.Items {
			fmt.Fprintf(s.out, "#%d %s <%s>\n", c.ID, c.Name, c.Email)
		}
		fmt.Fprintf(s.out, "%d of %d result(s)\n", len(page.Items), page.Total)
	case "add":
		cust := api.Customer{
			Name:  s.prompt("name: "),
			Email: s.prompt("email: "),
			Phone: s.prompt("phone (optional): "),
		}
		created, err := s.client.CreateCustomer(ctx, cust)
		if err != nil {
			s.say(color.Red, api.DisplayMessage(err))
			return
		}
		s.sayf(color.Green, "created customer #%d", created.ID)
	default:
		s.say(color.Yellow, "usage: customers search <q> | customers add")
	}
}

// runDoctor probes the backend's health and policy endpoints concurrently.
func (s *Shell) runDoctor(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.client.Health(gctx); err != nil {
			return fmt.Errorf("health: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if _, err := s.client.Policy(gctx); err != nil {
			return fmt.Errorf("policy: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.LogWarnWithFields("shell", "Backend check failed", map[string]any{
			"error": err.Error(),
		})
		s.sayf(color.Red, "backend check failed: %v", err)
		return
	}
	s.sayf(color.Green, "backend at %s is reachable", s.cfg.APIBaseURL)
}

// runAfter is the scheduler the shell hands to its flows. A terminal shell
// blocks on its user anyway, so the post-success delay runs inline instead
// of on a timer goroutine.
func (s *Shell) runAfter(d time.Duration, fn func()) {
	time.Sleep(d)
	fn()
}

// say writes a colored line. Color codes go through Sprint so they land on
// s.out rather than the process stdout.
func (s *Shell) say(c color.Color, msg string) {
	fmt.Fprintln(s.out, c.Sprint(msg))
}

func (s *Shell) sayf(c color.Color, format string, a ...any) {
	fmt.Fprintln(s.out, c.Sprintf(format, a...))
}

func (s *Shell) prompt(label string) string {
	fmt.Fprint(s.out, label)
	line, _ := s.readLine()
	return strings.TrimSpace(line)
}

func (s *Shell) readLine() (string, bool) {
	if !s.in.Scan() {
		return "", false
	}
	return s.in.Text(), true
}
