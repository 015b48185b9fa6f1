package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"

	"biwenger-tracker/internal/config"
	"biwenger-tracker/internal/constants"
	fxmodules "biwenger-tracker/internal/fx"
	"biwenger-tracker/internal/server"
	"biwenger-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

func main() {
	var creds service.Credentials
	var serve bool

	flag.StringVar(&creds.Email, "u", "", "account email (shorthand)")
	flag.StringVar(&creds.Email, "user", "", "account email")
	flag.StringVar(&creds.Password, "p", "", "account password (shorthand)")
	flag.StringVar(&creds.Password, "pass", "", "account password")
	flag.BoolVar(&serve, "serve", false, "serve the league views over HTTP instead of printing balances")
	flag.Parse()

	if creds.Email == "" || creds.Password == "" {
		fmt.Fprintln(os.Stderr, "both -u/--user and -p/--pass are required")
		flag.Usage()
		os.Exit(2)
	}

	if serve {
		fx.New(
			fxmodules.Module,
			fx.Supply(creds),
			fx.Invoke(runServer),
		).Run()
		return
	}

	if err := printBalances(creds, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func printBalances(creds service.Credentials, out io.Writer) error {
	var balances *service.BalanceService
	app := fx.New(
		fxmodules.Module,
		fx.Supply(creds),
		fx.NopLogger,
		fx.Populate(&balances),
	)
	if err := app.Err(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.RequestTimeout)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	records, err := balances.Balances(ctx)
	if err != nil {
		return err
	}
	return writeBalanceTable(out, records)
}

func runServer(
	lc fx.Lifecycle,
	leagueServer *server.LeagueServer,
	cfg *config.Config,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.ServerPort),
		Handler:           leagueServer.Handler(),
		ReadHeaderTimeout: constants.ExternalAPITimeout,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
