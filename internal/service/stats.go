package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/config"
	"biwenger-tracker/internal/constants"
	"biwenger-tracker/internal/domain"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	errTooFewPrices  = errors.New("fewer than five price points")
	errZeroBasePrice = errors.New("base price is zero")
	errSeasonMissing = errors.New("season not listed")
	errCrossTier     = errors.New("season belongs to another competition")
)

// SeasonFilter selects the prior season used for per-match averages.
type SeasonFilter struct {
	ID   string
	Name string // ignored when empty
}

type StatsService struct {
	sessions *SessionService
	bw       *api.BiwengerClient
	season   SeasonFilter
	logger   zerolog.Logger
}

func NewStatsService(sessions *SessionService, bw *api.BiwengerClient, cfg *config.Config, logger zerolog.Logger) *StatsService {
	return &StatsService{
		sessions: sessions,
		bw:       bw,
		season:   SeasonFilter{ID: cfg.PriorSeasonID, Name: cfg.PriorSeasonName},
		logger:   logger,
	}
}

func (s *StatsService) PlayerExtendedInfo(ctx context.Context, playerID int64) (*domain.ExtendedStats, error) {
	sess, err := s.sessions.Context(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.bw.GetPlayerDetail(ctx, sess.Headers, playerID)
	if err != nil {
		s.sessions.Expire(err)
		s.logger.Error().Err(err).Int64("player_id", playerID).Msg("failed to fetch player detail")
		return nil, fmt.Errorf("failed to fetch player %d detail: %w", playerID, err)
	}

	return analyzePlayer(&resp.Data, s.season, s.logger.With().Int64("player_id", playerID).Logger()), nil
}

func analyzePlayer(detail *api.PlayerDetail, season SeasonFilter, logger zerolog.Logger) *domain.ExtendedStats {
	ratio, bench := minutesAnalysis(detail.Reports)

	variance, err := priceVariance(detail.Prices)
	if err != nil {
		logger.Warn().Err(err).Msg("price variance defaulted to zero")
	}

	games, points, raw, err := priorSeason(detail.Seasons, season)
	if err != nil {
		logger.Warn().Err(err).Str("season_id", season.ID).Msg("prior season treated as zero games")
	}

	avgPerMatch := decimal.Zero
	if games > 0 {
		avgPerMatch = points.Div(decimal.NewFromInt(int64(games)))
	}
	avgTotal := points.Div(decimal.NewFromInt(constants.SeasonMatches))

	return &domain.ExtendedStats{
		URL:                playerURL(detail),
		PriceIncrement:     variance.StringFixed(2),
		AvgPointsPerMatch:  avgPerMatch.StringFixed(2),
		AvgTotalPoints:     avgTotal.StringFixed(2),
		TotalPointsLast:    raw,
		MatchesPlayedLast:  games,
		MinutesPlayedRatio: ratio,
		MatchesBench:       bench,
	}
}

// minutesAnalysis divides minutes of finished matches by 90 per report.
// Reports without minute data count as zero minutes.
func minutesAnalysis(reports []api.ReportData) (string, int) {
	if len(reports) == 0 {
		return decimal.Zero.StringFixed(2), 0
	}

	total := decimal.Zero
	bench := 0
	for _, r := range reports {
		if r.Match == nil || r.Match.Status != "finished" {
			continue
		}
		minutes := 0.0
		if r.RawStats != nil && r.RawStats.MinutesPlayed != nil {
			minutes = *r.RawStats.MinutesPlayed
		}
		if minutes <= 0 {
			bench++
			continue
		}
		total = total.Add(decimal.NewFromFloat(minutes))
	}

	absolute := decimal.NewFromInt(int64(len(reports) * constants.MatchMinutes))
	ratio := total.Div(absolute)
	if ratio.GreaterThan(decimal.NewFromInt(1)) {
		ratio = decimal.NewFromInt(1)
	}
	return ratio.StringFixed(2), bench
}

// priceVariance is the percentage change between the fifth most recent and
// the most recent price point. Each point is a [date, price] pair.
func priceVariance(prices []jsoniter.RawMessage) (decimal.Decimal, error) {
	if len(prices) < constants.PriceWindow {
		return decimal.Zero, errTooFewPrices
	}

	window := prices[len(prices)-constants.PriceWindow:]
	values := make([]decimal.Decimal, len(window))
	for i, raw := range window {
		var point []float64
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(raw, &point); err != nil || len(point) < 2 {
			return decimal.Zero, &domain.UpstreamFormatError{Endpoint: "player", Field: "prices", Err: err}
		}
		values[i] = decimal.NewFromFloat(point[1])
	}

	first, last := values[0], values[len(values)-1]
	if first.IsZero() {
		return decimal.Zero, errZeroBasePrice
	}
	return last.Sub(first).Div(first).Mul(decimal.NewFromInt(100)), nil
}

// priorSeason returns games, points and the points text of the selected
// season. Missing, malformed or cross-tier seasons yield zero games and points.
func priorSeason(seasons []api.SeasonData, filter SeasonFilter) (int, decimal.Decimal, string, error) {
	var season *api.SeasonData
	for i := range seasons {
		id := strings.Trim(strings.TrimSpace(string(seasons[i].ID)), `"`)
		if id != filter.ID {
			continue
		}
		if filter.Name != "" && seasons[i].Name != filter.Name {
			continue
		}
		season = &seasons[i]
		break
	}
	if season == nil {
		return 0, decimal.Zero, "0", errSeasonMissing
	}

	if present(season.Competition) {
		return 0, decimal.Zero, "0", errCrossTier
	}

	games, err := strconv.Atoi(strings.TrimSpace(string(season.Games)))
	if err != nil || games < 0 {
		return 0, decimal.Zero, "0", &domain.UpstreamFormatError{Endpoint: "player", Field: "seasons.games", Err: err}
	}

	var text string
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(season.Points, &text); err != nil {
		return 0, decimal.Zero, "0", &domain.UpstreamFormatError{Endpoint: "player", Field: "seasons.points", Err: err}
	}
	points, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return 0, decimal.Zero, "0", &domain.UpstreamFormatError{Endpoint: "player", Field: "seasons.points", Err: err}
	}

	return games, points, text, nil
}

func playerURL(detail *api.PlayerDetail) string {
	if link, ok := detail.Partner["2"]; ok && link.URL != "" && link.URL != constants.SofascoreHome {
		return link.URL
	}
	return detail.CanonicalURL
}

func present(raw jsoniter.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v != "" && v != "null"
}
