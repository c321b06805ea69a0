package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	"github.com/haitiwallet/console/libs/kafka"
	"github.com/haitiwallet/console/libs/logging"
	"github.com/haitiwallet/console/services/console/internal/backend"
	"github.com/haitiwallet/console/services/console/internal/config"
	"github.com/haitiwallet/console/services/console/internal/export"
	"github.com/haitiwallet/console/services/console/internal/fees"
	"github.com/haitiwallet/console/services/console/internal/guard"
	"github.com/haitiwallet/console/services/console/internal/service"
	"github.com/haitiwallet/console/services/console/internal/session"
	"github.com/haitiwallet/console/services/console/internal/state"
	"github.com/haitiwallet/console/services/console/internal/storage"
	"github.com/haitiwallet/console/services/console/internal/validation"
	"github.com/haitiwallet/console/services/console/internal/views"
)

const usage = `usage: walletctl [-v] [-backend URL] [-session FILE] <command>

commands:
  login <email> <password>
  logout
  whoami
  refresh
  fee <amount> [HTG|USD]
  export <transactions|topups|pending> [dir]
  restore-superadmin`

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	verbose := flag.Bool("v", false, "log backend calls to stderr")
	backendURL := flag.String("backend", cfg.Backend.BaseURL, "backend base URL")
	sessionFile := flag.String("session", cfg.Session.FilePath, "session file shared with the console")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	logger := logging.Discard()
	if *verbose {
		logger = logging.New(os.Stderr, "text", "debug", "walletctl", cfg.App.Env)
	}

	a, err := newApp(strings.TrimRight(*backendURL, "/"), *sessionFile, cfg, logger, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "walletctl: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := a.run(ctx, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "walletctl: %v\n", err)
		os.Exit(1)
	}
}

type app struct {
	console *service.Console
	session *session.Session
	api     *backend.Client
	out     io.Writer
}

func newApp(backendURL, sessionFile string, cfg *config.Config, logger *slog.Logger, out io.Writer) (*app, error) {
	store, err := storage.OpenFile(sessionFile)
	if err != nil {
		return nil, fmt.Errorf("open session file: %w", err)
	}
	sess := session.New(store, logger)
	api := backend.New(backendURL, cfg.Backend.Timeout, sess, logger)

	renderer := views.NewRenderer(views.DefaultRegistry(), fees.Default(), cfg.Payments, cfg.PageSize)
	console := service.New(api, sess, state.NewStore(cfg.FXFallback), renderer, guard.New(0), kafka.NopPublisher{}, logger, nil, service.Options{
		PublicURL: cfg.PublicURL,
		StatsDays: cfg.StatsDays,
	})
	return &app{console: console, session: sess, api: api, out: out}, nil
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		if len(rest) != 2 {
			return errors.New("login <email> <password>")
		}
		if err := a.session.Restore(ctx); err != nil {
			return err
		}
		report, err := a.console.Login(ctx, validation.LoginInput{Email: rest[0], Password: rest[1]})
		if err != nil {
			return describe(err)
		}
		a.printReport(report)
		return a.whoami(ctx)
	case "logout":
		if err := a.session.Restore(ctx); err != nil {
			return err
		}
		if err := a.console.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Déconnecté")
		return nil
	case "whoami":
		if err := a.session.Restore(ctx); err != nil {
			return err
		}
		return a.whoami(ctx)
	case "refresh":
		report, err := a.console.Start(ctx)
		if err != nil {
			return err
		}
		a.printReport(report)
		return nil
	case "fee":
		if len(rest) < 1 || len(rest) > 2 {
			return errors.New("fee <amount> [HTG|USD]")
		}
		currency := backend.CurrencyHTG
		if len(rest) == 2 {
			currency = strings.ToLower(rest[1])
		}
		p := a.console.FeePreview(rest[0], currency)
		fmt.Fprintln(a.out, p.Label)
		return nil
	case "export":
		return a.export(ctx, rest)
	case "restore-superadmin":
		if err := a.session.Restore(ctx); err != nil {
			return err
		}
		report, err := a.console.RestoreSuperadmin(ctx)
		if err != nil {
			return describe(err)
		}
		a.printReport(report)
		return a.whoami(ctx)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// whoami prints the current identity and, while impersonating, the superadmin behind it.
func (a *app) whoami(ctx context.Context) error {
	info := a.session.Info()
	if !info.LoggedIn {
		fmt.Fprintln(a.out, "Non connecté")
		return nil
	}
	me, err := a.api.Me(ctx)
	if err != nil {
		return describe(err)
	}
	fmt.Fprintf(a.out, "%s (%s)\n", me.Email, me.Role)
	fmt.Fprintf(a.out, "HTG %s | USD %s\n", me.Wallet.HTG.StringFixed(2), me.Wallet.USD.StringFixed(2))
	if !info.ExpiresAt.IsZero() {
		fmt.Fprintf(a.out, "expire %s\n", info.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}

	if info.Impersonating {
		root, err := a.api.WithToken(a.session.SuperadminToken()).Me(ctx)
		if err != nil {
			return describe(err)
		}
		fmt.Fprintf(a.out, "impersonation par %s\n", root.Email)
	}
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("export <transactions|topups|pending> [dir]")
	}
	domain, ok := export.ParseDomain(args[0])
	if !ok {
		return fmt.Errorf("unknown export %q", args[0])
	}
	dir := "."
	if len(args) == 2 {
		dir = args[1]
	}

	report, err := a.console.Start(ctx)
	if err != nil {
		return err
	}
	if report.LoggedOut {
		return describe(service.ErrNotAuthenticated)
	}

	file, err := a.console.Export(ctx, domain)
	if err != nil {
		return describe(err)
	}
	path := filepath.Join(dir, file.Name)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Fprintf(a.out, "%s (%d lignes)\n", path, file.Rows)
	return nil
}

func (a *app) printReport(report *service.Report) {
	if report == nil {
		return
	}
	if report.LoggedOut {
		fmt.Fprintln(a.out, "Session expirée")
		return
	}
	for _, step := range report.Steps {
		if step.Status == service.StepFailed {
			fmt.Fprintf(a.out, "! %s: %s\n", step.Name, step.Error)
		}
	}
}

func describe(err error) error {
	var actionErr *service.ActionError
	if errors.As(err, &actionErr) {
		return errors.New(actionErr.Message)
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return errors.New(backend.DetailOr(err, "Action échouée"))
	}
	return err
}
