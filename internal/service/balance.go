package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/constants"
	"biwenger-tracker/internal/domain"
	"biwenger-tracker/internal/repository"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

var balanceTypes = []string{"transfer", "market", "loan", constants.RoundFinished}

type BalanceService struct {
	sessions *SessionService
	bw       *api.BiwengerClient
	archive  *repository.BalanceSnapshotRepository
	logger   zerolog.Logger
}

func NewBalanceService(sessions *SessionService, bw *api.BiwengerClient, archive *repository.BalanceSnapshotRepository, logger zerolog.Logger) *BalanceService {
	return &BalanceService{sessions: sessions, bw: bw, archive: archive, logger: logger}
}

// Balances recomputes every standings user's balance from the league board.
func (s *BalanceService) Balances(ctx context.Context) ([]domain.BalanceRecord, error) {
	entries, standings, err := s.fetch(ctx, true)
	if err != nil {
		return nil, err
	}

	records := ComputeBalances(entries, standings)
	s.logger.Info().Int("users", len(records)).Int("movements", len(entries)).Msg("balances computed")

	if s.archive != nil {
		archiveCtx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
		defer cancel()
		if id, err := s.archive.Save(archiveCtx, time.Now(), records); err != nil {
			s.logger.Warn().Err(err).Msg("failed to archive balances")
		} else {
			s.logger.Debug().Str("snapshot_id", id).Msg("balances archived")
		}
	}

	return records, nil
}

// Ledger returns the flattened board movements, newest first.
func (s *BalanceService) Ledger(ctx context.Context) ([]domain.LedgerEntry, error) {
	entries, _, err := s.fetch(ctx, false)
	return entries, err
}

func (s *BalanceService) History(ctx context.Context, user string, limit int) ([]domain.BalanceSnapshotRow, error) {
	if s.archive == nil {
		return nil, fmt.Errorf("balance archive is not configured")
	}
	if limit <= 0 {
		limit = constants.HistoryLimit
	}
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.archive.History(ctx, user, limit)
}

func (s *BalanceService) fetch(ctx context.Context, withStandings bool) ([]domain.LedgerEntry, []domain.Standing, error) {
	sess, err := s.sessions.Context(ctx)
	if err != nil {
		return nil, nil, err
	}

	var board *api.BoardResponse
	var league *api.LeagueResponse

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		board, err = s.bw.GetLeagueBoard(gCtx, sess.Headers, sess.LeagueID, balanceTypes)
		if err != nil {
			return fmt.Errorf("failed to fetch league board: %w", err)
		}
		return nil
	})
	if withStandings {
		g.Go(func() error {
			var err error
			league, err = s.bw.GetLeague(gCtx, sess.Headers)
			if err != nil {
				return fmt.Errorf("failed to fetch league: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.sessions.Expire(err)
		s.logger.Error().Err(err).Int64("league_id", sess.LeagueID).Msg("failed to fetch ledger data")
		return nil, nil, err
	}

	entries := FlattenLedger(board.Data, s.logger)

	var standings []domain.Standing
	if league != nil {
		standings = make([]domain.Standing, 0, len(league.Data.Standings))
		for _, st := range league.Data.Standings {
			standings = append(standings, domain.Standing{
				UserID:    st.ID,
				Name:      st.Name,
				Points:    st.Points,
				TeamValue: st.TeamValue,
				TeamSize:  st.TeamSize,
			})
		}
	}
	return entries, standings, nil
}

// FlattenLedger turns board events into uniform movements sorted by date,
// newest first. Round results become transfers from the bonus pool; a
// missing counterparty is the market.
func FlattenLedger(events []api.BoardEvent, logger zerolog.Logger) []domain.LedgerEntry {
	var entries []domain.LedgerEntry

	for _, ev := range events {
		date := time.Unix(ev.Date, 0)

		switch ev.Type {
		case "transfer", "market", "loan":
			movs, err := api.DecodeMovements(ev.Content)
			if err != nil {
				logger.Warn().Err(&domain.UpstreamFormatError{Endpoint: "board", Field: "content", Err: err}).Str("type", ev.Type).Msg("skipping board event")
				continue
			}
			for _, m := range movs {
				entries = append(entries, domain.LedgerEntry{
					Date:   date,
					From:   partyName(m.From),
					To:     partyName(m.To),
					Amount: m.Amount,
				})
			}

		case constants.RoundFinished:
			content, err := api.DecodeRoundFinished(ev.Content)
			if err != nil {
				logger.Warn().Err(&domain.UpstreamFormatError{Endpoint: "board", Field: "content", Err: err}).Str("type", ev.Type).Msg("skipping round results")
				continue
			}
			for _, r := range content.Results {
				var bonus int64
				if r.Bonus != nil {
					bonus = *r.Bonus
				}
				entries = append(entries, domain.LedgerEntry{
					Date:   date,
					From:   constants.BonusPool,
					To:     r.User.Name,
					Amount: bonus,
				})
			}
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.After(entries[j].Date)
	})
	return entries
}

func partyName(u *api.UserRef) string {
	if u == nil || u.Name == "" {
		return constants.MarketParty
	}
	return u.Name
}

// ComputeBalances returns one record per standings user, in standings order.
func ComputeBalances(entries []domain.LedgerEntry, standings []domain.Standing) []domain.BalanceRecord {
	income := make(map[string]int64)
	expenses := make(map[string]int64)
	bonuses := make(map[string]int64)

	for _, e := range entries {
		if e.From == constants.BonusPool {
			bonuses[e.To] += e.Amount
			continue
		}
		if e.From != constants.MarketParty {
			income[e.From] += e.Amount
		}
		expenses[e.To] += e.Amount
	}

	records := make([]domain.BalanceRecord, 0, len(standings))
	for _, st := range standings {
		r := domain.BalanceRecord{
			User:      st.Name,
			Points:    st.Points,
			TeamValue: st.TeamValue,
			TeamSize:  st.TeamSize,
			Income:    income[st.Name],
			Expenses:  expenses[st.Name],
			Bonuses:   bonuses[st.Name],
		}
		r.Balance = constants.StartingBudget + r.Income + r.Bonuses - r.Expenses
		r.MaxBid = float64(r.Balance) + float64(r.TeamValue)/4
		records = append(records, r)
	}
	return records
}
