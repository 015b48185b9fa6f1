package service

import (
	"context"
	"encoding/json"
	"testing"

	"biwenger-tracker/internal/api"
	"biwenger-tracker/internal/domain"

	"github.com/rs/zerolog"
)

func boardEvent(t *testing.T, typ string, date int64, content any) api.BoardEvent {
	t.Helper()
	raw, err := json.Marshal(content)
	if err != nil {
		t.Fatalf("marshal content: %v", err)
	}
	return api.BoardEvent{Type: typ, Date: date, Content: raw}
}

func TestJoinLedger_JoinsAndOrdersDays(t *testing.T) {
	catalog := catalogOf(&domain.Player{ID: 1, Name: "Joaquín"}, &domain.Player{ID: 2, Name: "Canales"})
	events := []api.BoardEvent{
		boardEvent(t, "market", 100, []any{
			map[string]any{"player": 1, "amount": 500, "to": map[string]any{"id": 4, "name": "Ana"}},
		}),
		boardEvent(t, "transfer", 300, []any{
			map[string]any{"player": 2, "amount": 900, "from": map[string]any{"id": 4, "name": "Ana"}, "to": map[string]any{"id": 5, "name": "Luis"}, "type": "clause"},
		}),
		boardEvent(t, "roundFinished", 200, map[string]any{"results": []any{}}),
	}

	days := joinLedger(events, catalog, zerolog.Nop())

	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if days[0].Date.Unix() != 300 || days[1].Date.Unix() != 100 {
		t.Errorf("days = %v, %v, want newest first", days[0].Date.Unix(), days[1].Date.Unix())
	}

	clause := days[0].Movements[0]
	if clause.MovType != "clause" || clause.Player.Name != "Canales" {
		t.Errorf("movement = %+v, want clause of Canales", clause)
	}

	signing := days[1].Movements[0]
	if signing.MovType != "transfer" {
		t.Errorf("MovType = %q, want default transfer", signing.MovType)
	}
	if signing.From != nil {
		t.Errorf("From = %+v, want market signing", signing.From)
	}
}

func TestJoinLedger_DropsUnresolvedMovements(t *testing.T) {
	catalog := catalogOf(&domain.Player{ID: 1})
	events := []api.BoardEvent{
		boardEvent(t, "market", 100, []any{
			map[string]any{"player": 1, "amount": 500, "to": map[string]any{"id": 4, "name": "Ana"}},
			map[string]any{"player": 77, "amount": 500, "to": map[string]any{"id": 4, "name": "Ana"}},
			map[string]any{"player": 78, "amount": 500, "from": map[string]any{"id": 4, "name": "Ana"}, "to": map[string]any{"id": 5, "name": "Luis"}, "type": "loan"},
		}),
	}

	days := joinLedger(events, catalog, zerolog.Nop())

	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}
	movs := days[0].Movements
	if len(movs) != 2 {
		t.Fatalf("kept %d movements, want 2", len(movs))
	}
	if movs[0].PlayerID != 1 || movs[1].PlayerID != 78 {
		t.Errorf("kept players %d, %d, want 1, 78", movs[0].PlayerID, movs[1].PlayerID)
	}
	if movs[1].Player != nil || movs[1].MovType != "" {
		t.Errorf("unjoined movement = %+v, want no player or movType", movs[1])
	}
}

func TestJoinLedger_SkipsMalformedContent(t *testing.T) {
	events := []api.BoardEvent{
		{Type: "transfer", Date: 100, Content: []byte(`{"not":"a list"}`)},
	}
	if days := joinLedger(events, catalogOf(), zerolog.Nop()); len(days) != 0 {
		t.Errorf("got %d days, want 0", len(days))
	}
}

func TestTransfers_FetchesBoardForSessionLeague(t *testing.T) {
	fake := newFakeBiwenger(t)
	fake.players = []map[string]any{fakePlayer(1, 10, 1_000_000, 3)}
	fake.board = []any{
		map[string]any{"type": "market", "date": 1700000000, "content": []any{
			map[string]any{"player": 1, "amount": 1_200_000, "to": map[string]any{"id": 4, "name": "Ana"}},
		}},
	}
	env := newTestEnv(t, fake.start())

	days, err := env.transfers.Transfers(context.Background())
	if err != nil {
		t.Fatalf("Transfers: %v", err)
	}
	if len(days) != 1 || len(days[0].Movements) != 1 {
		t.Fatalf("days = %+v", days)
	}
	if days[0].Movements[0].Player == nil || days[0].Movements[0].Player.Name != "Player 1" {
		t.Errorf("movement player = %+v", days[0].Movements[0].Player)
	}
	if len(fake.boardTypes) != 1 || fake.boardTypes[0] != "transfer,market,loan" {
		t.Errorf("board types = %v", fake.boardTypes)
	}
}
