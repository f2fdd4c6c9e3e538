package main

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-dash-client/internal/api"
	"github.com/noah-isme/sma-dash-client/internal/session"
	"github.com/noah-isme/sma-dash-client/internal/store"
	"github.com/noah-isme/sma-dash-client/pkg/config"
	"github.com/noah-isme/sma-dash-client/pkg/logger"
)

// app wires the configured collaborators for one command invocation.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	client   *api.Client
	store    store.Store
	manager  *session.Manager
	validate *validator.Validate
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	var st store.Store
	switch cfg.Store.Backend {
	case config.StoreRedis:
		st, err = store.NewRedisStore(cfg.Redis, "smadash")
		if err != nil {
			return nil, err
		}
	default:
		st, err = store.NewFileStore(cfg.Store.FileDir)
		if err != nil {
			return nil, err
		}
	}

	client := api.NewClient(api.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Logger:  logr,
	})

	// Interactive runs get console toasts; json-logging runs keep
	// notifications in the structured log stream.
	var notifier session.Notifier = newConsoleNotifier()
	if cfg.Log.Format == "json" {
		notifier = session.NewZapNotifier(logr)
	}

	validate := validator.New()
	manager := session.NewManager(client, st, notifier, validate, logr, session.Config{
		BootstrapTimeout: cfg.Session.BootstrapTimeout,
	})

	return &app{
		cfg:      cfg,
		logger:   logr,
		client:   client,
		store:    st,
		manager:  manager,
		validate: validate,
	}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "smadash",
		Short:         "Headless client for the SMA school dashboard",
		Long:          "smadash talks to the school dashboard REST API: sign in, inspect your session, and compute, validate, export or submit result sheets.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newRegisterCmd(),
		newWhoamiCmd(),
		newProfileCmd(),
		newPasswordCmd(),
		newResultsCmd(),
	)

	return root
}
