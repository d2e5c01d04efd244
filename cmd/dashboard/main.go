package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/camclient"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/config"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/dashboard"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/logger"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/metrics"
	"github.com/dj-oyu/rdk-x5_smart-pet-camera/ivss-dashboard/internal/webui"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatalf("dashboard: %v", err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "dashboard",
		Usage: "camera monitoring dashboard",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "YAML config file",
				EnvVars: []string{"DASHBOARD_CONFIG"},
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "dotenv file loaded before DASHBOARD_* variables are read",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:  "http",
				Usage: "HTTP server address",
			},
			&cli.StringFlag{
				Name:  "backend",
				Usage: "camera backend base URL",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error, silent)",
			},
			&cli.BoolFlag{
				Name:  "log-color",
				Usage: "enable colored log output",
				Value: true,
			},
			&cli.StringFlag{
				Name:  "time-zone",
				Usage: "IANA time zone for detection times",
			},
		},
		Action: runServe,
		Commands: []*cli.Command{
			{
				Name:      "hash-password",
				Usage:     "print a bcrypt hash for auth.password_hash",
				ArgsUsage: "<password>",
				Action:    runHashPassword,
			},
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if c.IsSet("http") {
		cfg.Addr = c.String("http")
	}
	if c.IsSet("backend") {
		cfg.BackendURL = c.String("backend")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("log-color") {
		cfg.LogColor = c.Bool("log-color")
	}
	if c.IsSet("time-zone") {
		cfg.TimeZone = c.String("time-zone")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func runServe(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	// Initialize logger
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	logger.Init(level, os.Stderr, cfg.LogColor)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	m := metrics.New()
	client := camclient.New(cfg.BackendURL, cfg.RequestTimeout)
	ctrl := dashboard.New(client, dashboard.Options{
		PollInterval:           cfg.PollInterval,
		PollFailureThreshold:   cfg.PollFailureThreshold,
		StreamFailureThreshold: cfg.StreamFailureThreshold,
		StreamErrorTimeout:     cfg.StreamErrorTimeout,
		AlertCapacity:          cfg.AlertCapacity,
		Location:               loc,
		Observer:               m,
	})

	server, err := webui.NewServer(ctrl, webui.Options{
		BackendURL: cfg.BackendURL,
		Probe: func(ctx context.Context) error {
			_, err := client.RecentDetections(ctx)
			return err
		},
		Metrics: m.Handler(),
		Clients: m,
		Auth:    cfg.Auth,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	resumeCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	if err := ctrl.Resume(resumeCtx); err != nil {
		logger.Warn("Main", "Backend not reachable at startup: %v", err)
	}
	cancel()

	logger.Info("Main", "Dashboard listening on %s", cfg.Addr)
	logger.Info("Main", "Backend: %s (poll every %s)", cfg.BackendURL, cfg.PollInterval)
	logger.Info("Main", "Log level: %s", level)
	if cfg.Auth.Enabled() {
		logger.Info("Main", "Basic auth enabled for user %q", cfg.Auth.Username)
	}

	g, gctx := errgroup.WithContext(ctx)

	// Request contexts end with gctx so SSE streams close on shutdown.
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          logger.Default().StdLogger(logger.WARN, "HTTP"),
		BaseContext:       func(net.Listener) context.Context { return gctx },
	}

	g.Go(func() error {
		return ctrl.Run(gctx)
	})
	g.Go(func() error {
		return server.Run(gctx)
	})
	g.Go(func() error {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Main", "Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func runHashPassword(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("usage: dashboard hash-password <password>", 2)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(c.Args().First()), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	fmt.Fprintln(c.App.Writer, string(hash))
	return nil
}
