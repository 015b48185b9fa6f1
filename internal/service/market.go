package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/constants"
	"biwenger-tracker/internal/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type MarketService struct {
	sessions *SessionService
	bw       *api.BiwengerClient
	stats    *StatsService
	logger   zerolog.Logger
}

func NewMarketService(sessions *SessionService, bw *api.BiwengerClient, stats *StatsService, logger zerolog.Logger) *MarketService {
	return &MarketService{sessions: sessions, bw: bw, stats: stats, logger: logger}
}

// MarketOffers lists the sales of free agents (onlyFree) or of league users,
// in upstream order, with catalog, team and stats data attached.
func (s *MarketService) MarketOffers(ctx context.Context, onlyFree bool) ([]domain.MarketOffer, error) {
	sess, err := s.sessions.Context(ctx)
	if err != nil {
		return nil, err
	}

	var market *api.MarketResponse
	var competition *api.CompetitionResponse

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		market, err = s.bw.GetMarket(gCtx, sess.Headers)
		return err
	})
	g.Go(func() error {
		var err error
		competition, err = s.bw.GetCompetitionData(gCtx, sess.Headers)
		return err
	})
	if err := g.Wait(); err != nil {
		s.sessions.Expire(err)
		s.logger.Error().Err(err).Msg("failed to fetch market data")
		return nil, fmt.Errorf("failed to fetch market data: %w", err)
	}

	catalog := buildCatalog(&competition.Data, s.logger)
	teams := buildTeams(&competition.Data)
	sales := filterSales(market.Data.Sales, onlyFree)

	s.logger.Info().Bool("only_free", onlyFree).Int("sales", len(sales)).Msg("enriching market offers")

	offers := joinOffers(sales, catalog, teams, s.logger)
	s.attachStats(ctx, offers)

	return keepResolved(offers), nil
}

func filterSales(sales []api.Sale, onlyFree bool) []api.Sale {
	kept := make([]api.Sale, 0, len(sales))
	for _, sale := range sales {
		if (sale.User == nil) == onlyFree {
			kept = append(kept, sale)
		}
	}
	return kept
}

func joinOffers(sales []api.Sale, catalog *domain.Catalog, teams map[int64]string, logger zerolog.Logger) []domain.MarketOffer {
	highCost := topN(catalog, constants.TopPlayersN, func(p *domain.Player) int64 { return p.Price })
	topPoints := topN(catalog, constants.TopPlayersN, func(p *domain.Player) int64 { return int64(p.Points) })

	offers := make([]domain.MarketOffer, len(sales))
	for i, sale := range sales {
		offer := domain.MarketOffer{
			Date:     time.Unix(sale.Date, 0),
			Until:    time.Unix(sale.Until, 0),
			Price:    sale.Price,
			PlayerID: sale.Player.ID,
		}
		if sale.User != nil {
			offer.Owner = &domain.UserRef{ID: sale.User.ID, Name: sale.User.Name}
		}

		player, ok := catalog.Get(sale.Player.ID)
		if !ok {
			logger.Warn().Err(&domain.JoinFailure{Entity: "player", ID: sale.Player.ID}).Msg("market offer without catalog player")
			offers[i] = offer
			continue
		}
		offer.Player = player

		if name, ok := teams[player.TeamID]; ok {
			offer.TeamName = &name
		} else if player.TeamID != 0 {
			logger.Warn().Err(&domain.JoinFailure{Entity: "team", ID: player.TeamID}).Int64("player_id", player.ID).Msg("player team not in catalog")
		}

		offer.IsHighCost = highCost[player.ID]
		offer.IsTopPlayer = topPoints[player.ID]
		offers[i] = offer
	}
	return offers
}

func (s *MarketService) attachStats(ctx context.Context, offers []domain.MarketOffer) {
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(constants.PlayerDetailConcurrency)

	for i := range offers {
		if offers[i].Player == nil {
			continue
		}
		g.Go(func() error {
			id := offers[i].PlayerID
			stats, err := s.stats.PlayerExtendedInfo(gCtx, id)
			if err != nil {
				// a failed stats join keeps the offer with a gap
				s.logger.Warn().Err(&domain.JoinFailure{Entity: "player stats", ID: id, Err: err}).Msg("offer kept without stats")
				return nil
			}
			offers[i].Stats = stats
			return nil
		})
	}
	_ = g.Wait()
}

// keepResolved drops offers whose joins essentially all failed.
func keepResolved(offers []domain.MarketOffer) []domain.MarketOffer {
	kept := make([]domain.MarketOffer, 0, len(offers))
	for _, o := range offers {
		if o.ResolvedFields() > 5 {
			kept = append(kept, o)
		}
	}
	return kept
}

// topN marks the n highest ranked players; ties keep catalog order.
func topN(catalog *domain.Catalog, n int, key func(*domain.Player) int64) map[int64]bool {
	players := catalog.Ordered()
	sort.SliceStable(players, func(i, j int) bool {
		return key(players[i]) > key(players[j])
	})
	if len(players) > n {
		players = players[:n]
	}

	top := make(map[int64]bool, len(players))
	for _, p := range players {
		top[p.ID] = true
	}
	return top
}
