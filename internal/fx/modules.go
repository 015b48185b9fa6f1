package fx

import (
	"database/sql"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/config"
	"biwenger-tracker/internal/database"
	"biwenger-tracker/internal/logger"
	"biwenger-tracker/internal/repository"
	"biwenger-tracker/internal/server"
	"biwenger-tracker/internal/service"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideDatabase returns a nil *sql.DB when DB_PATH is empty or the file
// cannot be opened; balances are then computed without being archived.
func ProvideDatabase(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) *sql.DB {
	if cfg.DBPath == "" {
		logger.Debug().Msg("DB_PATH not set, balance archive disabled")
		return nil
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.DBPath).Msg("balance archive unavailable, continuing without it")
		return nil
	}
	lc.Append(fx.StopHook(db.Close))
	return db
}

func ProvideArchive(db *sql.DB, logger zerolog.Logger) *repository.BalanceSnapshotRepository {
	if db == nil {
		return nil
	}
	return repository.NewBalanceSnapshotRepository(db, logger)
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(ProvideDatabase),
	// archive
	fx.Provide(ProvideArchive),
	// api client
	fx.Provide(api.NewBiwengerClient),
	// svc
	fx.Provide(service.NewSessionService),
	fx.Provide(service.NewCatalogService),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewMarketService),
	fx.Provide(service.NewTransferService),
	fx.Provide(service.NewBalanceService),
	// server
	fx.Provide(server.NewLeagueServer),
)
