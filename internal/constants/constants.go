package constants

import "time"

const (
	ExternalAPITimeout = 10 * time.Second
	DatabaseTimeout    = 5 * time.Second
	RequestTimeout     = 30 * time.Second
)

const (
	DBMaxOpenConns    = 1
	DBMaxIdleConns    = 1
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	StartingBudget = 20_000_000
	TopPlayersN    = 20
	SeasonMatches  = 34
	MatchMinutes   = 90
	PriceWindow    = 5

	PlayerDetailConcurrency = 4
	HistoryLimit            = 50
)

const (
	MarketParty = "Market"
	BonusPool   = "Point bonus"
	DefaultMove = "transfer"

	RoundFinished = "roundFinished"
)

// partner "2" is sofascore; its bare homepage means the player has no page there
const SofascoreHome = "https://www.sofascore.com"
