package service

import (
	"context"
	"testing"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/domain"

	"github.com/rs/zerolog"
)

func catalogOf(players ...*domain.Player) *domain.Catalog {
	c := &domain.Catalog{Players: make(map[int64]*domain.Player)}
	for _, p := range players {
		c.Players[p.ID] = p
		c.Order = append(c.Order, p.ID)
	}
	return c
}

func sale(playerID int64, owner *api.UserRef) api.Sale {
	s := api.Sale{Date: 1700000000, Until: 1700086400, Price: 1_000_000, User: owner}
	s.Player.ID = playerID
	return s
}

// ---------------------------------------------------------------------------
// topN
// ---------------------------------------------------------------------------

func TestTopN_MarksExactlyN(t *testing.T) {
	var players []*domain.Player
	for i := int64(1); i <= 30; i++ {
		players = append(players, &domain.Player{ID: i, Price: i * 100_000})
	}
	catalog := catalogOf(players...)

	top := topN(catalog, 20, func(p *domain.Player) int64 { return p.Price })

	if len(top) != 20 {
		t.Fatalf("marked %d players, want 20", len(top))
	}
	for i := int64(1); i <= 10; i++ {
		if top[i] {
			t.Errorf("player %d marked but is among the cheapest ten", i)
		}
	}
	for i := int64(11); i <= 30; i++ {
		if !top[i] {
			t.Errorf("player %d not marked", i)
		}
	}
}

func TestTopN_TiesKeepCatalogOrder(t *testing.T) {
	catalog := catalogOf(
		&domain.Player{ID: 5, Points: 10},
		&domain.Player{ID: 3, Points: 10},
		&domain.Player{ID: 9, Points: 10},
	)

	top := topN(catalog, 2, func(p *domain.Player) int64 { return int64(p.Points) })

	if !top[5] || !top[3] || top[9] {
		t.Errorf("top = %v, want players 5 and 3", top)
	}
}

func TestTopN_SmallCatalog(t *testing.T) {
	catalog := catalogOf(&domain.Player{ID: 1}, &domain.Player{ID: 2})
	top := topN(catalog, 20, func(p *domain.Player) int64 { return p.Price })
	if len(top) != 2 {
		t.Errorf("marked %d players, want 2", len(top))
	}
}

// ---------------------------------------------------------------------------
// joinOffers / keepResolved
// ---------------------------------------------------------------------------

func TestFilterSales(t *testing.T) {
	sales := []api.Sale{
		sale(1, nil),
		sale(2, &api.UserRef{ID: 4, Name: "Ana"}),
		sale(3, nil),
	}

	free := filterSales(sales, true)
	if len(free) != 2 || free[0].Player.ID != 1 || free[1].Player.ID != 3 {
		t.Errorf("free sales = %+v, want players 1 and 3 in order", free)
	}
	owned := filterSales(sales, false)
	if len(owned) != 1 || owned[0].Player.ID != 2 {
		t.Errorf("owned sales = %+v, want player 2", owned)
	}
}

func TestJoinOffers_UnknownPlayerIsDropped(t *testing.T) {
	catalog := catalogOf(&domain.Player{ID: 1, TeamID: 10, Price: 5})
	teams := map[int64]string{10: "Real Betis"}

	offers := joinOffers([]api.Sale{sale(1, nil), sale(2, nil)}, catalog, teams, zerolog.Nop())

	if len(offers) != 2 {
		t.Fatalf("joined %d offers, want 2", len(offers))
	}
	if offers[0].TeamName == nil || *offers[0].TeamName != "Real Betis" {
		t.Errorf("team = %v, want Real Betis", offers[0].TeamName)
	}
	if !offers[0].IsHighCost || !offers[0].IsTopPlayer {
		t.Error("only catalog player should be flagged on both lists")
	}
	if offers[1].Player != nil {
		t.Error("unknown player was joined")
	}

	kept := keepResolved(offers)
	if len(kept) != 1 || kept[0].PlayerID != 1 {
		t.Errorf("kept = %+v, want only player 1", kept)
	}
}

func TestKeepResolved_Boundary(t *testing.T) {
	team := "Sevilla"
	five := domain.MarketOffer{PlayerID: 1}
	six := domain.MarketOffer{PlayerID: 2, Player: &domain.Player{ID: 2}}
	teamOnly := domain.MarketOffer{PlayerID: 3, TeamName: &team}

	if five.ResolvedFields() != 5 || six.ResolvedFields() != 6 {
		t.Fatalf("resolved = %d / %d, want 5 / 6", five.ResolvedFields(), six.ResolvedFields())
	}

	kept := keepResolved([]domain.MarketOffer{five, six, teamOnly})
	if len(kept) != 2 || kept[0].PlayerID != 2 || kept[1].PlayerID != 3 {
		t.Errorf("kept = %+v, want players 2 and 3", kept)
	}
}

// ---------------------------------------------------------------------------
// MarketOffers
// ---------------------------------------------------------------------------

func marketFixture(t *testing.T) *fakeBiwenger {
	t.Helper()
	fake := newFakeBiwenger(t)
	fake.players = []map[string]any{
		fakePlayer(1, 10, 8_000_000, 40),
		fakePlayer(2, 11, 2_000_000, 12),
		fakePlayer(3, 10, 500_000, 2),
	}
	fake.teams = map[string]any{
		"10": map[string]any{"id": 10, "name": "Real Betis"},
		"11": map[string]any{"id": 11, "name": "Sevilla"},
	}
	fake.sales = []any{
		map[string]any{"date": 1700000000, "until": 1700086400, "price": 8_100_000, "player": map[string]any{"id": 1}},
		map[string]any{"date": 1700000100, "until": 1700086500, "price": 2_100_000, "player": map[string]any{"id": 2}, "user": map[string]any{"id": 4, "name": "Ana"}},
		map[string]any{"date": 1700000200, "until": 1700086600, "price": 100_000, "player": map[string]any{"id": 999}},
		map[string]any{"date": 1700000300, "until": 1700086700, "price": 600_000, "player": map[string]any{"id": 3}},
	}
	fake.details["1"] = fakeDetail(90, 90)
	fake.details["2"] = fakeDetail(45)
	// player 3 has no detail: its offer keeps a stats gap
	return fake
}

func TestMarketOffers_FreeAgents(t *testing.T) {
	fake := marketFixture(t)
	env := newTestEnv(t, fake.start())

	offers, err := env.market.MarketOffers(context.Background(), true)
	if err != nil {
		t.Fatalf("MarketOffers: %v", err)
	}

	if len(offers) != 2 {
		t.Fatalf("got %d offers, want 2", len(offers))
	}
	if offers[0].PlayerID != 1 || offers[1].PlayerID != 3 {
		t.Errorf("order = %d, %d, want 1, 3", offers[0].PlayerID, offers[1].PlayerID)
	}
	for _, o := range offers {
		if o.Owner != nil {
			t.Errorf("free agent offer %d has owner %+v", o.PlayerID, o.Owner)
		}
		if o.ResolvedFields() <= 5 {
			t.Errorf("offer %d resolved %d fields", o.PlayerID, o.ResolvedFields())
		}
	}

	if offers[0].Stats == nil || offers[0].Stats.MinutesPlayedRatio != "1.00" {
		t.Errorf("stats for player 1 = %+v", offers[0].Stats)
	}
	if offers[1].Stats != nil {
		t.Errorf("player 3 has stats %+v, want gap", offers[1].Stats)
	}
	if offers[1].TeamName == nil || *offers[1].TeamName != "Real Betis" {
		t.Errorf("team for player 3 = %v", offers[1].TeamName)
	}
	if offers[0].Date.Unix() != 1700000000 || offers[0].Until.Unix() != 1700086400 {
		t.Errorf("date = %v", offers[0].Date)
	}
}

func TestMarketOffers_UserSales(t *testing.T) {
	fake := marketFixture(t)
	env := newTestEnv(t, fake.start())

	offers, err := env.market.MarketOffers(context.Background(), false)
	if err != nil {
		t.Fatalf("MarketOffers: %v", err)
	}

	if len(offers) != 1 {
		t.Fatalf("got %d offers, want 1", len(offers))
	}
	o := offers[0]
	if o.Owner == nil || o.Owner.Name != "Ana" {
		t.Errorf("owner = %+v, want Ana", o.Owner)
	}
	if o.Player == nil || o.Player.Name != "Player 2" {
		t.Errorf("player = %+v", o.Player)
	}
	if o.Stats == nil || o.Stats.MinutesPlayedRatio != "0.50" {
		t.Errorf("stats = %+v", o.Stats)
	}
}
