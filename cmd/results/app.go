package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/noah-isme/results-app/internal/account"
	"github.com/noah-isme/results-app/internal/client"
	"github.com/noah-isme/results-app/pkg/config"
	"github.com/noah-isme/results-app/pkg/logger"
)

const (
	apiFlag     = "api"
	accountFlag = "account"
)

// env is shared by every command once Before has run.
type env struct {
	cfg      *config.Config
	logger   *zap.Logger
	api      *client.Client
	accounts *account.Provider
	out      io.Writer
	now      func() time.Time
}

func newApp(out io.Writer) *cli.App {
	e := &env{out: out, now: time.Now}
	return &cli.App{
		Name:      "results",
		Usage:     "Read your course results and manage the results crawler",
		Version:   version,
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    apiFlag,
				Usage:   "Base URL of the results API",
				EnvVars: []string{"API_BASE_URL"},
			},
			&cli.StringFlag{
				Name:    accountFlag,
				Usage:   "Path of the saved account file",
				EnvVars: []string{"ACCOUNT_FILE"},
			},
		},
		Before: func(cCtx *cli.Context) error {
			return e.setup(cCtx)
		},
		After: func(cCtx *cli.Context) error {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			loginCommand(e),
			registerCommand(e),
			logoutCommand(e),
			sessionsCommand(e),
			resultsCommand(e),
			refreshCommand(e),
			configCommand(e),
			classesCommand(e),
			exportCommand(e),
			tuiCommand(e),
		},
	}
}

func (e *env) setup(cCtx *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := cCtx.String(apiFlag); v != "" {
		cfg.Client.BaseURL = v
	}
	if v := cCtx.String(accountFlag); v != "" {
		cfg.Client.AccountFile = v
	}
	e.cfg = cfg

	if e.logger, err = logger.New(cfg); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	e.api, err = client.New(client.Config{BaseURL: cfg.Client.BaseURL, Timeout: cfg.Client.Timeout}, client.WithLogger(e.logger))
	if err != nil {
		return err
	}
	e.accounts = account.NewProvider(e.api, account.NewStore(cfg.Client.AccountFile), nil, e.logger, cfg.Client.BaseURL)
	return nil
}

// signedIn applies the saved token to the client.
func (e *env) signedIn() (*account.File, error) {
	f, err := e.accounts.Bootstrap()
	if errors.Is(err, account.ErrNoAccount) {
		return nil, errors.New("not signed in, run `results login` first")
	}
	return f, err
}

// authFailure rewrites an expired or revoked token into a hint.
func authFailure(err error) error {
	if account.IsSignedOut(err) {
		return fmt.Errorf("%w (sign in again with `results login`)", err)
	}
	return err
}
