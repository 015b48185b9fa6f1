package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/config"
	"biwenger-tracker/internal/domain"

	"github.com/rs/zerolog"
)

type Credentials struct {
	Email    string
	Password string
}

// Session is built once per client and never mutated afterwards.
type Session struct {
	Token    string
	LeagueID int64
	UserID   int64
	Account  *api.AccountResponse
	Headers  api.Headers
}

type SessionService struct {
	bw     *api.BiwengerClient
	cfg    *config.Config
	creds  Credentials
	logger zerolog.Logger

	mu      sync.Mutex
	token   string
	current *Session
}

func NewSessionService(bw *api.BiwengerClient, cfg *config.Config, creds Credentials, logger zerolog.Logger) *SessionService {
	return &SessionService{bw: bw, cfg: cfg, creds: creds, logger: logger}
}

func (s *SessionService) Authenticate(ctx context.Context) (string, error) {
	s.logger.Info().Str("email", s.creds.Email).Msg("logging in")

	resp, err := s.bw.Login(ctx, s.creds.Email, s.creds.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("login request failed")
		return "", fmt.Errorf("failed to login: %w", err)
	}

	if resp.Token == "" {
		s.logger.Warn().Int("status", resp.Status).Str("message", resp.Message).Msg("login rejected")
		return "", &domain.AuthError{Status: resp.Status, Message: resp.Message}
	}

	s.logger.Info().Msg("login ok")
	return resp.Token, nil
}

// Context returns the cached session, logging in and resolving the configured
// league on first use.
func (s *SessionService) Context(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return s.current, nil
	}

	if s.token == "" {
		token, err := s.Authenticate(ctx)
		if err != nil {
			return nil, err
		}
		s.token = token
	}

	auth := "Bearer " + s.token
	headers := api.Headers{
		"Content-Type":  "application/json",
		"Accept":        "application/json, text/plain, */*",
		"X-Lang":        s.cfg.Lang,
		"Authorization": auth,
	}

	account, err := s.bw.GetAccount(ctx, headers)
	if err != nil {
		if tokenRejected(err) {
			s.token = ""
		}
		s.logger.Error().Err(err).Msg("failed to fetch account")
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}

	league, err := findLeague(account, s.cfg.LeagueName)
	if err != nil {
		s.logger.Error().Err(err).Str("league", s.cfg.LeagueName).Msg("league not found in account")
		return nil, err
	}

	leagueHeaders := make(api.Headers, len(headers)+2)
	for k, v := range headers {
		leagueHeaders[k] = v
	}
	leagueHeaders["X-League"] = strconv.FormatInt(league.ID, 10)
	leagueHeaders["X-User"] = strconv.FormatInt(league.User.ID, 10)

	s.current = &Session{
		Token:    s.token,
		LeagueID: league.ID,
		UserID:   league.User.ID,
		Account:  account,
		Headers:  leagueHeaders,
	}

	s.logger.Info().
		Int64("league_id", league.ID).
		Int64("user_id", league.User.ID).
		Msg("session ready")

	return s.current, nil
}

// Invalidate drops the cached session and token; the next Context call logs in again.
func (s *SessionService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = nil
	s.token = ""
}

// Expire invalidates the session when err shows the upstream rejected its token.
func (s *SessionService) Expire(err error) {
	if !tokenRejected(err) {
		return
	}
	s.logger.Warn().Err(err).Msg("session token rejected, logging in again on next call")
	s.Invalidate()
}

func tokenRejected(err error) bool {
	var statusErr *api.StatusError
	return errors.As(err, &statusErr) && statusErr.Status == http.StatusUnauthorized
}

func findLeague(account *api.AccountResponse, name string) (*api.AccountLeague, error) {
	for i := range account.Data.Leagues {
		if account.Data.Leagues[i].Name == name {
			return &account.Data.Leagues[i], nil
		}
	}
	return nil, &domain.ConfigurationError{
		Key:    "BIWENGER_LEAGUE_NAME",
		Reason: fmt.Sprintf("no league named %q in account", name),
	}
}
