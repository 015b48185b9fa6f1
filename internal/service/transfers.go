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

var transferTypes = []string{"transfer", "market", "loan"}

type TransferService struct {
	sessions *SessionService
	bw       *api.BiwengerClient
	catalog  *CatalogService
	logger   zerolog.Logger
}

func NewTransferService(sessions *SessionService, bw *api.BiwengerClient, catalog *CatalogService, logger zerolog.Logger) *TransferService {
	return &TransferService{sessions: sessions, bw: bw, catalog: catalog, logger: logger}
}

// Transfers returns the league's recent movements grouped by day, newest first.
func (s *TransferService) Transfers(ctx context.Context) ([]domain.LedgerDay, error) {
	sess, err := s.sessions.Context(ctx)
	if err != nil {
		return nil, err
	}

	var board *api.BoardResponse
	var catalog *domain.Catalog

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		board, err = s.bw.GetLeagueBoard(gCtx, sess.Headers, sess.LeagueID, transferTypes)
		if err != nil {
			return fmt.Errorf("failed to fetch league board: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		catalog, err = s.catalog.AllPlayers(gCtx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.sessions.Expire(err)
		s.logger.Error().Err(err).Int64("league_id", sess.LeagueID).Msg("failed to fetch transfers")
		return nil, err
	}

	days := joinLedger(board.Data, catalog, s.logger)
	s.logger.Info().Int("days", len(days)).Msg("transfers joined")
	return days, nil
}

func joinLedger(events []api.BoardEvent, catalog *domain.Catalog, logger zerolog.Logger) []domain.LedgerDay {
	days := make([]domain.LedgerDay, 0, len(events))
	for _, ev := range events {
		if ev.Type == constants.RoundFinished {
			continue
		}

		movs, err := api.DecodeMovements(ev.Content)
		if err != nil {
			logger.Warn().
				Err(&domain.UpstreamFormatError{Endpoint: "board", Field: "content", Err: err}).
				Str("type", ev.Type).
				Int64("date", ev.Date).
				Msg("skipping board event")
			continue
		}

		day := domain.LedgerDay{Date: time.Unix(ev.Date, 0), Type: ev.Type}
		for _, m := range movs {
			mov := toMovement(m)
			if player, ok := catalog.Get(m.Player); ok {
				mov.Player = player
				mov.MovType = m.Type
				if mov.MovType == "" {
					mov.MovType = constants.DefaultMove
				}
			} else {
				logger.Warn().Err(&domain.JoinFailure{Entity: "player", ID: m.Player}).Msg("movement without catalog player")
			}

			if mov.ResolvedFields() > 4 {
				day.Movements = append(day.Movements, mov)
			}
		}
		days = append(days, day)
	}

	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Date.After(days[j].Date)
	})
	return days
}

func toMovement(m api.BoardMovement) domain.Movement {
	mov := domain.Movement{
		PlayerID: m.Player,
		Amount:   m.Amount,
		Type:     m.Type,
	}
	if m.From != nil {
		mov.From = &domain.UserRef{ID: m.From.ID, Name: m.From.Name}
	}
	if m.To != nil {
		mov.To = &domain.UserRef{ID: m.To.ID, Name: m.To.Name}
	}
	return mov
}
