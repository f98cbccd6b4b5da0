// Package main is the crm command: an interactive shell over the CRM REST API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/meucrm/crmdesk/internal/client/api"
	"github.com/meucrm/crmdesk/internal/client/shell"
	"github.com/meucrm/crmdesk/internal/client/storage"
	"github.com/meucrm/crmdesk/internal/client/view"
	"github.com/meucrm/crmdesk/internal/config"
	"github.com/meucrm/crmdesk/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

var cfgPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crm",
		Short:         "CRM desktop shell",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShell(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to YAML config file")

	root.AddCommand(
		&cobra.Command{
			Use:   "shell",
			Short: "Start the interactive shell (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShell(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "login [email]",
			Short: "Sign in and store the session",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				line := "login"
				if len(args) == 1 {
					line += " " + args[0]
				}
				return runOnce(cmd.Context(), line)
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Drop the stored session",
			RunE: func(cmd *cobra.Command, args []string) error {
				a, cleanup, err := newApp()
				if err != nil {
					return err
				}
				defer cleanup()
				return a.client.Logout()
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Show the signed-in user",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runOnce(cmd.Context(), "whoami")
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "crm %s (built %s)\n", orNA(version), orNA(buildDate))
			},
		},
	)
	return root
}

// app bundles the wired client components.
type app struct {
	cfg    config.ClientConfig
	log    *zap.Logger
	client *api.Client
	ctrl   *view.Controller
}

func newApp() (*app, func(), error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	cc := cfg.Client
	if err := cc.Validate(); err != nil {
		return nil, nil, err
	}
	cc.SessionFile = resolveHome(cc.SessionFile)
	cc.LogFile = resolveHome(cc.LogFile)

	l := logger.New()
	if cc.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cc.LogFile), 0o700); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		if err := l.Init(cc.LogLevel, cc.LogFile); err != nil {
			return nil, nil, fmt.Errorf("init logger: %w", err)
		}
	}
	zl := l.Log
	cleanup := func() { _ = zl.Sync() }

	ls := storage.NewLocalStorage(cc.SessionFile)
	if err := ls.Load(); err != nil {
		zl.Warn("session file unreadable, starting logged out", zap.Error(err))
	}

	hc, err := storage.NewHTTPClient(cc.CAFile, cc.Timeout)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("http client: %w", err)
	}

	client := api.New(cc.BaseURL, storage.NewSessionStore(ls), api.WithHTTPClient(hc), api.WithLogger(zl))
	ctrl := view.New(client, zl)
	zl.Info("client started",
		zap.String("base_url", cc.BaseURL),
		zap.String("version", orNA(version)),
	)
	return &app{cfg: cc, log: zl, client: client, ctrl: ctrl}, cleanup, nil
}

func (a *app) shell() *shell.Shell {
	return shell.New(a.ctrl, os.Stdin, os.Stdout, shell.Options{
		Version:     version,
		BuildDate:   buildDate,
		AutoRefresh: a.cfg.AutoRefresh,
		Logger:      a.log,
	})
}

func runShell(ctx context.Context) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.shell().Run(ctx)
}

func runOnce(ctx context.Context, line string) error {
	a, cleanup, err := newApp()
	if err != nil {
		return err
	}
	defer cleanup()
	return a.shell().Exec(ctx, line)
}

func defaultConfigPath() string {
	return resolveHome(filepath.Join(".crmdesk", "config.yaml"))
}

// resolveHome makes a relative path relative to the user's home directory.
func resolveHome(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path)
}

func orNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
