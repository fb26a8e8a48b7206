// Package main is the entry point for the SimpleMail relay.
//
// Usage:
//
//	simplemail-relay [-config file] [-env-file file] [serve]
//	simplemail-relay [-config file] [-env-file file] test [address...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/shineum/simplemail-relay/internal/config"
	"github.com/shineum/simplemail-relay/internal/httpapi"
	"github.com/shineum/simplemail-relay/internal/mailer"
	"github.com/shineum/simplemail-relay/internal/provider"
	"github.com/shineum/simplemail-relay/internal/provider/graph"
	"github.com/shineum/simplemail-relay/internal/provider/ses"
	"github.com/shineum/simplemail-relay/internal/provider/simplemail"
	"github.com/shineum/simplemail-relay/internal/provider/stdout"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file (optional)")
	envFile := flag.String("env-file", "", "path to a .env file loaded before configuration (optional)")
	flag.Parse()

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			slog.Error("failed to load env file", "path", *envFile, "error", err)
			os.Exit(1)
		}
	}

	// Load configuration
	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	setupLogger(cfg.Logging.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	m, err := newMailer(ctx, cfg)
	if err != nil {
		slog.Error("failed to set up mail delivery", "error", err)
		os.Exit(1)
	}

	args := flag.Args()
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		err = serve(ctx, cfg, m)
	case "test":
		err = sendTest(ctx, os.Stdout, m, args, cfg.Site.AdminEmail)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q (want serve or test)\n", cmd)
		os.Exit(2)
	}

	if err != nil {
		if !errors.Is(err, errTestFailed) {
			slog.Error("command failed", "command", cmd, "error", err)
		}
		os.Exit(1)
	}
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from environment variables only if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger configures the global slog logger with JSON output and the
// specified log level.
func setupLogger(level string) {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}

// newMailer wires the SimpleMail provider, the default transport and the
// debug failure logger.
func newMailer(ctx context.Context, cfg *config.Config) (*mailer.Mailer, error) {
	primary := simplemail.New(simplemail.Config{
		APIKey:      cfg.SimpleMail.APIKey,
		Defaults:    cfg.SenderDefaults(),
		Endpoint:    cfg.SimpleMail.Endpoint,
		Timeout:     cfg.SimpleMail.Timeout,
		CheckStatus: cfg.SimpleMail.CheckStatus,
	})

	opts := []mailer.Option{
		mailer.OnFailure(mailer.DebugLogHandler(slog.Default(), cfg.Debug.Enabled, cfg.Debug.Log)),
	}

	fallback, err := selectFallback(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if fallback != nil {
		opts = append(opts, mailer.WithFallback(fallback))
	}

	if !cfg.SimpleMailConfigured() {
		slog.Warn("SIMPLEMAIL_API_KEY not set, mail goes to the default transport",
			"fallback", providerName(fallback),
		)
	}

	slog.Info("mail delivery configured",
		"simplemail_configured", primary.Configured(),
		"check_status", cfg.SimpleMail.CheckStatus,
		"fallback", providerName(fallback),
	)

	return mailer.New(primary, opts...), nil
}

// selectFallback chooses the default transport used when no SimpleMail API
// key is set. An explicit FALLBACK_PROVIDER wins; otherwise Graph, then SES,
// then stdout are tried in that order.
func selectFallback(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Fallback {
	case "ses":
		if !cfg.SESConfigured() {
			return nil, errors.New("SES fallback selected but SES_REGION and SES_SENDER are required")
		}
		return newSES(ctx, cfg)

	case "graph":
		if !cfg.GraphConfigured() {
			return nil, errors.New("Graph fallback selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET, and GRAPH_SENDER are required")
		}
		return newGraph(cfg), nil

	case "stdout":
		return stdout.New(cfg.SenderDefaults()), nil

	case "none":
		return nil, nil

	case "":
		if cfg.GraphConfigured() {
			return newGraph(cfg), nil
		}
		if cfg.SESConfigured() {
			return newSES(ctx, cfg)
		}
		return stdout.New(cfg.SenderDefaults()), nil

	default:
		return nil, fmt.Errorf("unknown fallback provider %q", cfg.Fallback)
	}
}

func newSES(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	defaults := cfg.SenderDefaults()
	defaults.Email = cfg.SES.Sender

	p, err := ses.New(ctx, ses.Config{
		Region:          cfg.SES.Region,
		AccessKeyID:     cfg.SES.AccessKeyID,
		SecretAccessKey: cfg.SES.SecretAccessKey,
		Defaults:        defaults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SES provider: %w", err)
	}
	return p, nil
}

func newGraph(cfg *config.Config) provider.Provider {
	return graph.New(graph.Config{
		TenantID:     cfg.Graph.TenantID,
		ClientID:     cfg.Graph.ClientID,
		ClientSecret: cfg.Graph.ClientSecret,
		Sender:       cfg.Graph.Sender,
	})
}

func providerName(p provider.Provider) string {
	if p == nil {
		return "none"
	}
	return p.Name()
}

// serve runs the HTTP relay until the context is cancelled.
func serve(ctx context.Context, cfg *config.Config, m *mailer.Mailer) error {
	server := httpapi.New(httpapi.Config{
		ListenAddr: cfg.HTTP.Listen,
		Sender:     m,
		AdminEmail: cfg.Site.AdminEmail,
		Username:   cfg.HTTP.Username,
		Password:   cfg.HTTP.Password,
	})
	if err := server.Listen(); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", cfg.HTTP.Listen, err)
	}

	slog.Info("starting simplemail-relay",
		"addr", server.Addr(),
		"auth_enabled", cfg.AuthEnabled(),
	)

	if err := server.Serve(ctx); err != nil {
		return err
	}

	slog.Info("simplemail-relay stopped")
	return nil
}

var errTestFailed = errors.New("test email failed")

// maxConcurrentTests bounds parallel sends from the test command.
const maxConcurrentTests = 4

// sendTest sends the fixed test message to each address (or the site admin
// when none are given) and reports one line per recipient on out, in the
// order the addresses were given.
func sendTest(ctx context.Context, out io.Writer, m *mailer.Mailer, to []string, adminEmail string) error {
	if len(to) == 0 {
		to = []string{""}
	}

	lines := make([]string, len(to))
	var g errgroup.Group
	g.SetLimit(maxConcurrentTests)

	for i, addr := range to {
		i, addr := i, addr
		g.Go(func() error {
			req := mailer.NewTestRequest(addr, adminEmail)
			if err := req.Validate(); err != nil {
				lines[i] = "Error: no recipient given and no site admin email configured."
				return errTestFailed
			}

			res, err := m.Send(ctx, req)
			if err != nil {
				lines[i] = fmt.Sprintf("Error: failed to send test email to %s: %v", req.To[0], err)
				return errTestFailed
			}

			lines[i] = fmt.Sprintf("Success: test email sent to %s via %s (id %s).", req.To[0], res.Provider, res.ID)
			return nil
		})
	}

	err := g.Wait()
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	return err
}
