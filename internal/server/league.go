package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/domain"
	"biwenger-tracker/internal/middleware"
	"biwenger-tracker/internal/service"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type LeagueServer struct {
	marketSvc   *service.MarketService
	transferSvc *service.TransferService
	balanceSvc  *service.BalanceService
	catalogSvc  *service.CatalogService
	statsSvc    *service.StatsService
	logger      zerolog.Logger
}

func NewLeagueServer(
	marketSvc *service.MarketService,
	transferSvc *service.TransferService,
	balanceSvc *service.BalanceService,
	catalogSvc *service.CatalogService,
	statsSvc *service.StatsService,
	logger zerolog.Logger,
) *LeagueServer {
	return &LeagueServer{
		marketSvc:   marketSvc,
		transferSvc: transferSvc,
		balanceSvc:  balanceSvc,
		catalogSvc:  catalogSvc,
		statsSvc:    statsSvc,
		logger:      logger,
	}
}

func (s *LeagueServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /market", s.GetMarket)
	mux.HandleFunc("GET /transfers", s.GetTransfers)
	mux.HandleFunc("GET /balances", s.GetBalances)
	mux.HandleFunc("GET /balances/history", s.GetBalanceHistory)
	mux.HandleFunc("GET /ledger", s.GetLedger)
	mux.HandleFunc("GET /next-round", s.GetNextRound)
	mux.HandleFunc("GET /players/{id}/stats", s.GetPlayerStats)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	})

	return middleware.RequestID(s.logger)(middleware.Recover(s.logger)(c.Handler(mux)))
}

func (s *LeagueServer) GetMarket(w http.ResponseWriter, r *http.Request) {
	onlyFree := true
	if v := r.URL.Query().Get("free"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, errors.New("free must be true or false"))
			return
		}
		onlyFree = b
	}

	offers, err := s.marketSvc.MarketOffers(r.Context(), onlyFree)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := make([]marketOfferResponse, 0, len(offers))
	for _, o := range offers {
		resp = append(resp, toMarketOffer(o))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *LeagueServer) GetTransfers(w http.ResponseWriter, r *http.Request) {
	days, err := s.transferSvc.Transfers(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := make([]ledgerDayResponse, 0, len(days))
	for _, d := range days {
		resp = append(resp, toLedgerDay(d))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *LeagueServer) GetBalances(w http.ResponseWriter, r *http.Request) {
	records, err := s.balanceSvc.Balances(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := make([]balanceResponse, 0, len(records))
	for _, rec := range records {
		resp = append(resp, toBalance(rec))
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *LeagueServer) GetBalanceHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, r, http.StatusBadRequest, errors.New("limit must be a positive integer"))
			return
		}
		limit = n
	}

	rows, err := s.balanceSvc.History(r.Context(), r.URL.Query().Get("user"), limit)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	resp := make([]historyResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, historyResponse{
			SnapshotID:      row.SnapshotID,
			TakenAt:         row.TakenAt.Format(time.RFC3339),
			balanceResponse: toBalance(row.Record),
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *LeagueServer) GetLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.balanceSvc.Ledger(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := make([]ledgerEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, ledgerEntryResponse{
			Date:   e.Date.Format(time.RFC3339),
			From:   e.From,
			To:     e.To,
			Amount: e.Amount,
		})
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *LeagueServer) GetNextRound(w http.ResponseWriter, r *http.Request) {
	round, err := s.catalogSvc.NextRound(r.Context())
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}

	resp := roundResponse{Active: round.Active, ID: round.ID, Name: round.Name, Status: round.Status, Blog: round.Blog}
	if !round.Date.IsZero() {
		resp.Date = round.Date.Format(time.RFC3339)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *LeagueServer) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, http.StatusBadRequest, errors.New("player id must be a positive integer"))
		return
	}

	stats, err := s.statsSvc.PlayerExtendedInfo(r.Context(), id)
	if err != nil {
		writeError(w, r, statusFor(err), err)
		return
	}
	writeJSON(w, r, http.StatusOK, toStats(stats))
}

func statusFor(err error) int {
	var authErr *domain.AuthError
	var cfgErr *domain.ConfigurationError
	var statusErr *api.StatusError
	var formatErr *domain.UpstreamFormatError

	switch {
	case errors.As(err, &cfgErr):
		return http.StatusInternalServerError
	case errors.As(err, &authErr), errors.As(err, &statusErr), errors.As(err, &formatErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Int("status", status).Msg("request failed")
	writeJSON(w, r, status, errorResponse{Error: err.Error()})
}
