package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/config"

	"github.com/rs/zerolog"
)

const (
	testToken    = "tok-123"
	testLeague   = "Liga Amigos"
	testLeagueID = 77
	testUserID   = 501
)

// fakeBiwenger serves canned responses for every endpoint the client calls.
type fakeBiwenger struct {
	t *testing.T

	mu          sync.Mutex
	token       string // accepted bearer token
	loginStatus int
	loginBody   any
	leagues     []any
	standings   []any
	sales       []any
	players     []map[string]any // catalog order
	teams       map[string]any
	events      []any
	rounds      []any
	details     map[string]any
	board       []any
	boardTypes  []string

	logins   atomic.Int32
	accounts atomic.Int32
	comps    atomic.Int32
}

func newFakeBiwenger(t *testing.T) *fakeBiwenger {
	t.Helper()
	return &fakeBiwenger{
		t:           t,
		token:       testToken,
		loginStatus: http.StatusOK,
		loginBody:   map[string]any{"token": testToken},
		leagues: []any{
			map[string]any{"id": 12, "name": "Other League", "user": map[string]any{"id": 9}},
			map[string]any{"id": testLeagueID, "name": testLeague, "user": map[string]any{"id": testUserID}},
		},
		teams:   map[string]any{},
		details: map[string]any{},
	}
}

func (f *fakeBiwenger) start() *httptest.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		f.logins.Add(1)
		f.mu.Lock()
		status, body := f.loginStatus, f.loginBody
		f.mu.Unlock()
		writeFake(w, status, body)
	})

	mux.HandleFunc("GET /account", func(w http.ResponseWriter, r *http.Request) {
		f.accounts.Add(1)
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+f.token {
			writeFake(w, http.StatusUnauthorized, map[string]any{"status": 401})
			return
		}
		writeFake(w, http.StatusOK, map[string]any{"status": 200, "data": map[string]any{"leagues": f.leagues}})
	})

	mux.HandleFunc("GET /league", f.withLeague(func(w http.ResponseWriter, r *http.Request) {
		writeFake(w, http.StatusOK, map[string]any{"status": 200, "data": map[string]any{"standings": f.standings}})
	}))

	mux.HandleFunc("GET /market", f.withLeague(func(w http.ResponseWriter, r *http.Request) {
		writeFake(w, http.StatusOK, map[string]any{"status": 200, "data": map[string]any{"sales": f.sales}})
	}))

	mux.HandleFunc("GET /competitions/la-liga/data", f.withLeague(func(w http.ResponseWriter, r *http.Request) {
		f.comps.Add(1)
		data := map[string]any{
			"players": orderedPlayers(f.players),
			"teams":   f.teams,
			"events":  f.events,
			"season":  map[string]any{"rounds": f.rounds},
			"social":  map[string]any{"blogLineup": "https://blog.example/lineups"},
		}
		writeFake(w, http.StatusOK, map[string]any{"status": 200, "data": data})
	}))

	mux.HandleFunc("GET /players/la-liga/{id}", f.withLeague(func(w http.ResponseWriter, r *http.Request) {
		detail, ok := f.details[r.PathValue("id")]
		if !ok {
			writeFake(w, http.StatusNotFound, map[string]any{"status": 404})
			return
		}
		writeFake(w, http.StatusOK, map[string]any{"status": 200, "data": detail})
	}))

	mux.HandleFunc("GET /league/{id}/board", f.withLeague(func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != strconv.Itoa(testLeagueID) {
			writeFake(w, http.StatusNotFound, map[string]any{"status": 404})
			return
		}
		f.boardTypes = append(f.boardTypes, r.URL.Query().Get("type"))
		writeFake(w, http.StatusOK, map[string]any{"status": 200, "data": f.board})
	}))

	srv := httptest.NewServer(mux)
	f.t.Cleanup(srv.Close)
	return srv
}

// withLeague rejects requests without the session routing headers.
func (f *fakeBiwenger) withLeague(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+f.token ||
			r.Header.Get("X-League") != strconv.Itoa(testLeagueID) ||
			r.Header.Get("X-User") != strconv.Itoa(testUserID) {
			writeFake(w, http.StatusUnauthorized, map[string]any{"status": 401})
			return
		}
		next(w, r)
	}
}

// rotateToken expires the current token; the next login hands out token.
func (f *fakeBiwenger) rotateToken(token string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = token
	f.loginBody = map[string]any{"token": token}
}

// orderedPlayers renders the catalog as a JSON object keeping slice order.
func orderedPlayers(players []map[string]any) json.RawMessage {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range players {
		if i > 0 {
			buf.WriteByte(',')
		}
		body, _ := json.Marshal(p)
		fmt.Fprintf(&buf, `"%v":%s`, p["id"], body)
	}
	buf.WriteByte('}')
	return buf.Bytes()
}

func writeFake(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func fakePlayer(id, teamID, price, points int) map[string]any {
	return map[string]any{
		"id":       id,
		"name":     fmt.Sprintf("Player %d", id),
		"slug":     fmt.Sprintf("player-%d", id),
		"teamID":   teamID,
		"position": 2,
		"price":    price,
		"points":   points,
		"status":   "ok",
		"fitness":  []any{6, nil, "injured", 2, nil},
	}
}

func fakeDetail(minutes ...int) map[string]any {
	reports := make([]any, 0, len(minutes))
	for _, m := range minutes {
		reports = append(reports, map[string]any{
			"match":    map[string]any{"status": "finished"},
			"rawStats": map[string]any{"minutesPlayed": m},
		})
	}
	return map[string]any{
		"canonicalURL": "https://biwenger.as.com/player/x",
		"partner":      map[string]any{"2": map[string]any{"url": "https://www.sofascore.com"}},
		"prices":       []any{[]any{220101, 100}, []any{220102, 110}, []any{220103, 120}, []any{220104, 130}, []any{220105, 150}},
		"seasons":      []any{map[string]any{"id": "2022", "name": "Temporada 2021/2022", "games": 10, "points": "50"}},
		"reports":      reports,
	}
}

type testEnv struct {
	cfg       *config.Config
	client    *api.BiwengerClient
	sessions  *SessionService
	catalog   *CatalogService
	stats     *StatsService
	market    *MarketService
	transfers *TransferService
	balances  *BalanceService
}

func newTestEnv(t *testing.T, srv *httptest.Server) *testEnv {
	t.Helper()

	cfg := &config.Config{
		LeagueName:      testLeague,
		BaseURL:         srv.URL,
		Competition:     "la-liga",
		Lang:            "es",
		Score:           "5",
		PriorSeasonID:   "2022",
		PriorSeasonName: "Temporada 2021/2022",
		RequestTimeout:  5 * time.Second,
	}
	logger := zerolog.Nop()
	client := api.NewBiwengerClient(cfg)
	sessions := NewSessionService(client, cfg, Credentials{Email: "me@example.com", Password: "secret"}, logger)
	catalog := NewCatalogService(sessions, client, logger)
	stats := NewStatsService(sessions, client, cfg, logger)

	return &testEnv{
		cfg:       cfg,
		client:    client,
		sessions:  sessions,
		catalog:   catalog,
		stats:     stats,
		market:    NewMarketService(sessions, client, stats, logger),
		transfers: NewTransferService(sessions, client, catalog, logger),
		balances:  NewBalanceService(sessions, client, nil, logger),
	}
}
