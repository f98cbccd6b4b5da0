// Package main is the crmd command: the reference CRM REST API server backed
// by PostgreSQL.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nethttp "net/http"

	"github.com/meucrm/crmdesk/internal/certgen"
	"github.com/meucrm/crmdesk/internal/config"
	"github.com/meucrm/crmdesk/internal/db"
	"github.com/meucrm/crmdesk/internal/logger"
	"github.com/meucrm/crmdesk/internal/metrics"
	"github.com/meucrm/crmdesk/internal/repository"
	"github.com/meucrm/crmdesk/internal/server/handler/http"
	"github.com/meucrm/crmdesk/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

const shutdownTimeout = 10 * time.Second

var cfgPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "crmd",
		Short:         "CRM REST API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")

	var email, name, password string
	addUser := &cobra.Command{
		Use:   "adduser",
		Short: "Create a login account",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAddUser(cmd.Context(), email, name, password)
		},
	}
	addUser.Flags().StringVar(&email, "email", "", "login e-mail")
	addUser.Flags().StringVar(&name, "name", "", "display name")
	addUser.Flags().StringVar(&password, "password", "", "password")
	_ = addUser.MarkFlagRequired("email")
	_ = addUser.MarkFlagRequired("name")
	_ = addUser.MarkFlagRequired("password")

	var certDir string
	var hosts []string
	certGen := &cobra.Command{
		Use:   "certgen",
		Short: "Write a development CA and server certificate",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := certgen.WriteDevBundle(certDir, hosts)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "server.tls_cert: %s\nserver.tls_key: %s\nclient.ca_file: %s\n", b.ServerCert, b.ServerKey, b.CACert)
			return nil
		},
	}
	certGen.Flags().StringVar(&certDir, "out", "certs", "output directory")
	certGen.Flags().StringSliceVar(&hosts, "host", []string{"localhost", "127.0.0.1"}, "DNS names or IPs of the server")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, log, err := setup()
				if err != nil {
					return err
				}
				defer func() { _ = log.Sync() }()
				conn, err := db.InitPostgres(cmd.Context(), cfg.DatabaseDSN)
				if err != nil {
					return err
				}
				log.Info("schema applied")
				return conn.Close()
			},
		},
		addUser,
		certGen,
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "Build version: %s\nBuild date: %s\n",
					cmp.Or(version, "N/A"), cmp.Or(buildDate, "N/A"))
			},
		},
	)
	return root
}

// setup loads and validates the server configuration and initializes logging.
func setup() (config.ServerConfig, *zap.Logger, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.ServerConfig{}, nil, fmt.Errorf("load config: %w", err)
	}
	sc := cfg.Server
	if err := sc.Validate(); err != nil {
		return config.ServerConfig{}, nil, err
	}

	l := logger.New()
	if err := l.Init(sc.LogLevel); err != nil {
		return config.ServerConfig{}, nil, fmt.Errorf("init logger: %w", err)
	}
	return sc, l.Log, nil
}

func runServe(ctx context.Context) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting crmd",
		zap.String("version", cmp.Or(version, "N/A")),
		zap.String("build_date", cmp.Or(buildDate, "N/A")),
	)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	postgresDB, err := db.InitPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer postgresDB.Close()

	metrics.MustRegister(prometheus.DefaultRegisterer)
	db.StartSoftDeleteCleaner(ctx, postgresDB, cfg.PurgeInterval, cfg.PurgeRetention, log)

	userRepo := repository.NewPostgresUserRepository(postgresDB)
	customerRepo := repository.NewPostgresCustomerRepository(postgresDB)
	salesRepo := repository.NewPostgresSalesRepository(postgresDB)

	secret := []byte(cfg.JWTSecret)
	authService := service.NewAuthService(userRepo, secret, cfg.TokenTTL)
	customerService := service.NewCustomerService(customerRepo)
	salesService := service.NewSalesService(salesRepo, customerRepo)

	router := http.NewRouter(
		&http.AuthHandler{AuthService: authService},
		&http.CustomerHandler{CustomerService: customerService},
		&http.SalesHandler{SalesService: salesService},
		secret,
		log,
	)

	server := &nethttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if cfg.TLSCert != "" {
			log.Info("starting HTTPS server", zap.String("addr", cfg.Addr))
			errCh <- server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
			return
		}
		log.Info("starting HTTP server", zap.String("addr", cfg.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, nethttp.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func runAddUser(ctx context.Context, email, name, password string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	postgresDB, err := db.InitPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("cannot init database: %w", err)
	}
	defer postgresDB.Close()

	svc := service.NewAuthService(repository.NewPostgresUserRepository(postgresDB), []byte(cfg.JWTSecret), cfg.TokenTTL)
	u, err := svc.CreateUser(ctx, email, name, password)
	if err != nil {
		return err
	}
	log.Info("user created", zap.String("id", u.ID), zap.String("email", u.Email))
	return nil
}
