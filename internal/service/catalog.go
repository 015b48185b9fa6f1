package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type CatalogService struct {
	sessions *SessionService
	bw       *api.BiwengerClient
	logger   zerolog.Logger
}

func NewCatalogService(sessions *SessionService, bw *api.BiwengerClient, logger zerolog.Logger) *CatalogService {
	return &CatalogService{sessions: sessions, bw: bw, logger: logger}
}

func (s *CatalogService) AllPlayers(ctx context.Context) (*domain.Catalog, error) {
	data, err := s.competition(ctx)
	if err != nil {
		return nil, err
	}
	return buildCatalog(data, s.logger), nil
}

func (s *CatalogService) Teams(ctx context.Context) (map[int64]string, error) {
	data, err := s.competition(ctx)
	if err != nil {
		return nil, err
	}
	return buildTeams(data), nil
}

func (s *CatalogService) NextRound(ctx context.Context) (*domain.RoundInfo, error) {
	data, err := s.competition(ctx)
	if err != nil {
		return nil, err
	}
	return nextRound(data)
}

func (s *CatalogService) competition(ctx context.Context) (*api.CompetitionData, error) {
	sess, err := s.sessions.Context(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := s.bw.GetCompetitionData(ctx, sess.Headers)
	if err != nil {
		s.sessions.Expire(err)
		s.logger.Error().Err(err).Msg("failed to fetch competition data")
		return nil, fmt.Errorf("failed to fetch competition data: %w", err)
	}

	s.logger.Debug().Int("players", len(resp.Data.Players.Order)).Int("teams", len(resp.Data.Teams)).Msg("competition data fetched")
	return &resp.Data, nil
}

func buildCatalog(data *api.CompetitionData, logger zerolog.Logger) *domain.Catalog {
	catalog := &domain.Catalog{
		Players: make(map[int64]*domain.Player, len(data.Players.Order)),
		Order:   make([]int64, 0, len(data.Players.Order)),
	}

	for _, key := range data.Players.Order {
		pd := data.Players.ByID[key]
		id := pd.ID
		if id == 0 {
			parsed, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				logger.Warn().Str("key", key).Msg("skipping catalog entry without a numeric id")
				continue
			}
			id = parsed
		}
		if _, dup := catalog.Players[id]; dup {
			continue
		}

		catalog.Players[id] = toPlayer(id, pd)
		catalog.Order = append(catalog.Order, id)
	}
	return catalog
}

func toPlayer(id int64, pd api.PlayerData) *domain.Player {
	price := pd.Price
	if price == 0 {
		price = pd.FantasyPrice
	}

	fitness := make([]string, len(pd.Fitness))
	for i, f := range pd.Fitness {
		v := strings.TrimSpace(string(f))
		if v == "null" {
			v = ""
		}
		fitness[i] = strings.Trim(v, `"`)
	}

	return &domain.Player{
		ID:               id,
		Name:             pd.Name,
		Slug:             pd.Slug,
		TeamID:           pd.TeamID,
		Position:         pd.Position,
		Price:            price,
		PriceIncrement:   pd.PriceIncrement,
		Points:           pd.Points,
		PointsHome:       pd.PointsHome,
		PointsAway:       pd.PointsAway,
		PointsLastSeason: pd.PointsLastSeason,
		PlayedHome:       pd.PlayedHome,
		PlayedAway:       pd.PlayedAway,
		Fitness:          fitness,
		Status:           pd.Status,
	}
}

func buildTeams(data *api.CompetitionData) map[int64]string {
	teams := make(map[int64]string, len(data.Teams))
	for key, t := range data.Teams {
		id := t.ID
		if id == 0 {
			parsed, err := strconv.ParseInt(key, 10, 64)
			if err != nil {
				continue
			}
			id = parsed
		}
		teams[id] = t.Name
	}
	return teams
}

func nextRound(data *api.CompetitionData) (*domain.RoundInfo, error) {
	for _, r := range data.Season.Rounds {
		if r.Status == "active" {
			return &domain.RoundInfo{Active: true, ID: r.ID, Name: r.Name, Status: r.Status}, nil
		}
	}

	if len(data.Events) == 0 {
		return nil, &domain.UpstreamFormatError{Endpoint: "competition", Field: "events", Err: fmt.Errorf("no upcoming events")}
	}
	event := data.Events[0]

	for _, r := range data.Season.Rounds {
		if r.ID != event.Round.ID {
			continue
		}
		return &domain.RoundInfo{
			ID:     r.ID,
			Name:   r.Name,
			Status: r.Status,
			Date:   time.Unix(event.Date, 0),
			Blog:   data.Social.BlogLineup,
		}, nil
	}

	return nil, &domain.UpstreamFormatError{
		Endpoint: "competition",
		Field:    "season.rounds",
		Err:      fmt.Errorf("round %d of next event not listed", event.Round.ID),
	}
}
