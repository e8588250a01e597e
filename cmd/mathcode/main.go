// Command mathcode is the terminal client for the MathCode tutoring
// platform: sign in (email/password or Google), inspect the current
// session, and manage package, session, and billing resources.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/rs/zerolog"

	"github.com/mathcodehq/mathcode-client/auth"
	"github.com/mathcodehq/mathcode-client/backend"
	"github.com/mathcodehq/mathcode-client/booking"
	"github.com/mathcodehq/mathcode-client/entitlement"
	"github.com/mathcodehq/mathcode-client/handshake"
	"github.com/mathcodehq/mathcode-client/internal/config"
	"github.com/mathcodehq/mathcode-client/kv"
	"github.com/mathcodehq/mathcode-client/session"
	"github.com/mathcodehq/mathcode-client/users"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

type app struct {
	cfg     config.Config
	log     zerolog.Logger
	store   *session.Store
	client  *backend.Client
	auth    *auth.Service
	booking *booking.Service
	ent     *entitlement.Store
	in      *bufio.Reader
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	if !cfg.IsDev() {
		log = log.Level(zerolog.WarnLevel)
	}

	repo, err := kv.NewFileRepo(cfg.DataFolder)
	if err != nil {
		return err
	}

	client := backend.New(cfg.APIBaseURL, backend.WithLogger(log))

	store, err := session.NewStore(repo,
		session.WithLogger(log),
		session.WithProfileFetcher(func(ctx context.Context, token string) (*users.User, error) {
			var u users.User
			if err := client.GetWithToken(ctx, backend.RouteMe, token, &u); err != nil {
				return nil, err
			}
			return &u, nil
		}),
	)
	if err != nil {
		return err
	}

	// Authorized requests read the token from the same persisted session.
	tokenClient := backend.New(cfg.APIBaseURL,
		backend.WithLogger(log),
		backend.WithTokenSource(store.Token),
	)

	authSvc, err := auth.NewService(tokenClient, store, auth.WithLogger(log))
	if err != nil {
		return err
	}

	ent := entitlement.NewStore(repo, entitlement.WithLogger(log))

	bookingSvc, err := booking.NewService(tokenClient, store, ent,
		booking.WithLogger(log),
		booking.WithUploader(booking.NewFirebaseUploader(cfg.StorageBucket)),
	)
	if err != nil {
		return err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		store:   store,
		client:  tokenClient,
		auth:    authSvc,
		booking: bookingSvc,
		ent:     ent,
		in:      bufio.NewReader(os.Stdin),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store.Hydrate(ctx)

	if len(args) == 0 {
		usage(cfg.AppName)
		return nil
	}

	switch args[0] {
	case "login":
		return a.cmdLogin(ctx, args[1:])
	case "register":
		return a.cmdRegister(ctx, args[1:])
	case "google":
		return a.cmdGoogle(ctx, args[1:])
	case "logout":
		return a.cmdLogout(ctx)
	case "whoami":
		return a.cmdWhoami(ctx)
	case "packages":
		return a.cmdPackages(ctx, args[1:])
	case "sessions":
		return a.cmdSessions(ctx, args[1:])
	case "billing":
		return a.cmdBilling(ctx)
	case "inquiry":
		return a.cmdInquiry(ctx, args[1:])
	case "help", "-h", "--help":
		usage(cfg.AppName)
		return nil
	default:
		usage(cfg.AppName)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(appName string) {
	figure.NewFigure(appName, "cybermedium", true).Print()
	fmt.Println()
	fmt.Println(`Usage: mathcode <command>

Commands:
  login                 Sign in with email and password
  register              Create an account
  google [signup]       Sign in (or up) with Google
  logout                Sign out and clear the local session
  whoami                Show the current session
  packages [request]    List or request tutoring packages
  sessions [book|free]  List or book tutoring sessions
  billing               List billing records
  inquiry               Send a contact inquiry`)
}

func (a *app) prompt(label string) string {
	fmt.Printf("%s: ", label)
	line, _ := a.in.ReadString('\n')
	return strings.TrimSpace(line)
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	email := ""
	if len(args) > 0 {
		email = args[0]
	} else {
		email = a.prompt("Email")
	}
	password := a.prompt("Password")

	user, err := a.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", user.DisplayName())
	return nil
}

func (a *app) cmdRegister(ctx context.Context, _ []string) error {
	reg := auth.Registration{
		FirstName: a.prompt("First name"),
		LastName:  a.prompt("Last name"),
		Email:     a.prompt("Email"),
		Phone:     a.prompt("Phone (optional)"),
		Password:  a.prompt("Password"),
	}
	if confirm := a.prompt("Confirm password"); confirm != reg.Password {
		return errors.New("passwords do not match")
	}

	user, err := a.auth.Register(ctx, reg)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s\n", user.DisplayName())
	return nil
}

func (a *app) cmdGoogle(ctx context.Context, args []string) error {
	mode := handshake.ModeLogin
	if len(args) > 0 && args[0] == "signup" {
		mode = handshake.ModeSignup
	}

	server := handshake.NewCallbackServer(a.cfg.CallbackAddr, handshake.WithCallbackLogger(a.log))
	if err := server.Start(); err != nil {
		return err
	}
	defer func() {
		_ = server.Shutdown(context.Background())
	}()

	controller, err := handshake.NewController(a.client, server, handshake.SystemBrowser{},
		handshake.WithLogger(a.log))
	if err != nil {
		return err
	}

	results := make(chan handshake.Result, 1)
	attempt, err := controller.Start(ctx, mode, func(r handshake.Result) {
		results <- r
	})
	if err != nil {
		return err
	}

	fmt.Println("Waiting for the browser... press Ctrl-C to cancel.")

	var result handshake.Result
	select {
	case result = <-results:
	case <-ctx.Done():
		attempt.Cancel()
		result = <-results
	}

	switch result.Action {
	case handshake.ActionCompleted:
		return a.finishGoogleLogin(ctx, result)
	case handshake.ActionNewUser:
		return a.finishGoogleSignup(ctx, result)
	default:
		return errors.New(result.Reason)
	}
}

func (a *app) finishGoogleLogin(ctx context.Context, result handshake.Result) error {
	user := result.User
	if user == nil {
		fetched, err := a.auth.FetchMe(ctx, result.Token)
		if err != nil {
			return err
		}
		user = fetched
	}
	if err := a.store.Set(user, result.Token); err != nil {
		return err
	}
	fmt.Printf("Signed in as %s\n", user.DisplayName())
	return nil
}

func (a *app) finishGoogleSignup(ctx context.Context, result handshake.Result) error {
	fmt.Println("Almost there. Choose a password to finish creating your account.")
	password := a.prompt("Password")
	if confirm := a.prompt("Confirm password"); confirm != password {
		return errors.New("passwords do not match")
	}
	phone := a.prompt("Phone (optional)")

	user, err := a.auth.CompleteGoogleSignup(ctx, result.Token, password, phone)
	if err != nil {
		return err
	}
	fmt.Printf("Welcome, %s\n", user.DisplayName())
	return nil
}

func (a *app) cmdLogout(ctx context.Context) error {
	if !a.auth.Logout(ctx) {
		fmt.Println("Signed out (local storage could not be fully cleared)")
		return nil
	}
	fmt.Println("Signed out")
	return nil
}

func (a *app) cmdWhoami(ctx context.Context) error {
	user := a.auth.GetCurrentUser(ctx)
	if user == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s <%s>\n", user.DisplayName(), user.Email)
	if user.Role != nil {
		fmt.Printf("Role:    %s\n", *user.Role)
	}
	fmt.Printf("Credits: %d\n", user.CreditBalance())
	return nil
}

func (a *app) cmdPackages(ctx context.Context, args []string) error {
	if len(args) > 0 && args[0] == "request" {
		req := booking.PackageRequest{
			PackageType: a.prompt("Package type"),
			ChildName:   a.prompt("Child name (optional)"),
		}
		fmt.Sscanf(a.prompt("Hours"), "%d", &req.Hours)

		pkg, err := a.booking.CreatePackageRequest(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("Requested package %s (%s)\n", pkg.ID, pkg.Status)
		return nil
	}

	pkgs, err := a.booking.ListPackages(ctx)
	if err != nil {
		return err
	}
	if len(pkgs) == 0 {
		fmt.Println("No packages")
		return nil
	}
	for _, p := range pkgs {
		fmt.Printf("%s  %-12s %3dh  %s\n", p.ID, p.PackageType, p.Hours, p.Status)
	}
	return nil
}

func (a *app) cmdSessions(ctx context.Context, args []string) error {
	if len(args) > 0 && (args[0] == "book" || args[0] == "free") {
		req := booking.SessionRequest{
			Subject:   a.prompt("Subject"),
			ChildName: a.prompt("Child name (optional)"),
		}
		fmt.Sscanf(a.prompt("Minutes"), "%d", &req.Minutes)

		var booked *booking.Session
		var err error
		if args[0] == "free" {
			booked, err = a.booking.RequestFreeSession(ctx, req)
		} else {
			booked, err = a.booking.CreateSessionRequest(ctx, req)
		}
		if err != nil {
			return err
		}
		fmt.Printf("Booked session %s (%s)\n", booked.ID, booked.Status)
		return nil
	}

	sessions, err := a.booking.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No sessions")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %-12s %s  %s\n", s.ID, s.Subject, s.ScheduledAt.Format("2006-01-02 15:04"), s.Status)
	}
	return nil
}

func (a *app) cmdBilling(ctx context.Context) error {
	user, _ := a.store.Current()
	if user == nil {
		return errors.New("not signed in")
	}
	records, err := a.booking.ListBilling(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No billing records")
		return nil
	}
	for _, r := range records {
		fmt.Printf("%s  %8.2f %s  %s\n", r.ID, r.Amount, r.Currency, r.Status)
	}
	return nil
}

func (a *app) cmdInquiry(ctx context.Context, _ []string) error {
	inq := booking.Inquiry{
		Name:    a.prompt("Name"),
		Email:   a.prompt("Email"),
		Message: a.prompt("Message"),
	}
	if err := a.booking.SubmitInquiry(ctx, inq); err != nil {
		return err
	}
	fmt.Println("Inquiry sent. We'll be in touch!")
	return nil
}
