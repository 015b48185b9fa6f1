package server

import (
	"time"

	"biwenger-tracker/internal/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type userResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type playerResponse struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	TeamID           int64    `json:"teamID"`
	Position         int      `json:"position"`
	Price            int64    `json:"price"`
	PriceIncrement   int64    `json:"priceIncrement"`
	Points           int      `json:"points"`
	PointsLastSeason int      `json:"pointsLastSeason"`
	Fitness          []string `json:"fitness"`
	Status           string   `json:"status"`
}

type statsResponse struct {
	URL                string `json:"url"`
	PriceIncrement     string `json:"price_increment"`
	AvgPointsPerMatch  string `json:"avg_points_per_match"`
	AvgTotalPoints     string `json:"avg_total_points"`
	TotalPointsLast    string `json:"total_points_last"`
	MatchesPlayedLast  int    `json:"matches_played_last"`
	MinutesPlayedRatio string `json:"per_min_played"`
	MatchesBench       int    `json:"matches_bench"`
}

type marketOfferResponse struct {
	Date        string          `json:"date"`
	Until       string          `json:"until"`
	Price       int64           `json:"price"`
	PlayerID    int64           `json:"playerID"`
	Owner       *userResponse   `json:"owner"`
	Player      *playerResponse `json:"player,omitempty"`
	Team        *string         `json:"team,omitempty"`
	Stats       *statsResponse  `json:"stats,omitempty"`
	IsHighCost  bool            `json:"is_high_cost"`
	IsTopPlayer bool            `json:"is_top_player"`
}

type movementResponse struct {
	PlayerID int64           `json:"player"`
	Amount   int64           `json:"amount"`
	From     *userResponse   `json:"from,omitempty"`
	To       *userResponse   `json:"to,omitempty"`
	MovType  string          `json:"mov_type,omitempty"`
	Player   *playerResponse `json:"player_info,omitempty"`
}

type ledgerDayResponse struct {
	Date    string             `json:"date"`
	Type    string             `json:"type"`
	Content []movementResponse `json:"content"`
}

type ledgerEntryResponse struct {
	Date   string `json:"date"`
	From   string `json:"from"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type balanceResponse struct {
	User      string  `json:"user"`
	Points    int     `json:"points"`
	TeamValue int64   `json:"teamValue"`
	TeamSize  int     `json:"teamSize"`
	Income    int64   `json:"income"`
	Expenses  int64   `json:"expenses"`
	Bonuses   int64   `json:"bonuses"`
	Balance   int64   `json:"balance"`
	MaxBid    float64 `json:"maxBid"`
}

type historyResponse struct {
	SnapshotID string `json:"snapshot_id"`
	TakenAt    string `json:"taken_at"`
	balanceResponse
}

type roundResponse struct {
	Active bool   `json:"active"`
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Status string `json:"status,omitempty"`
	Date   string `json:"date,omitempty"`
	Blog   string `json:"blog,omitempty"`
}

func toUser(u *domain.UserRef) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{ID: u.ID, Name: u.Name}
}

func toPlayer(p *domain.Player) *playerResponse {
	if p == nil {
		return nil
	}
	return &playerResponse{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		TeamID:           p.TeamID,
		Position:         p.Position,
		Price:            p.Price,
		PriceIncrement:   p.PriceIncrement,
		Points:           p.Points,
		PointsLastSeason: p.PointsLastSeason,
		Fitness:          p.Fitness,
		Status:           p.Status,
	}
}

func toStats(s *domain.ExtendedStats) *statsResponse {
	if s == nil {
		return nil
	}
	return &statsResponse{
		URL:                s.URL,
		PriceIncrement:     s.PriceIncrement,
		AvgPointsPerMatch:  s.AvgPointsPerMatch,
		AvgTotalPoints:     s.AvgTotalPoints,
		TotalPointsLast:    s.TotalPointsLast,
		MatchesPlayedLast:  s.MatchesPlayedLast,
		MinutesPlayedRatio: s.MinutesPlayedRatio,
		MatchesBench:       s.MatchesBench,
	}
}

func toMarketOffer(o domain.MarketOffer) marketOfferResponse {
	return marketOfferResponse{
		Date:        o.Date.Format(time.RFC3339),
		Until:       o.Until.Format(time.RFC3339),
		Price:       o.Price,
		PlayerID:    o.PlayerID,
		Owner:       toUser(o.Owner),
		Player:      toPlayer(o.Player),
		Team:        o.TeamName,
		Stats:       toStats(o.Stats),
		IsHighCost:  o.IsHighCost,
		IsTopPlayer: o.IsTopPlayer,
	}
}

func toLedgerDay(d domain.LedgerDay) ledgerDayResponse {
	content := make([]movementResponse, 0, len(d.Movements))
	for _, m := range d.Movements {
		content = append(content, movementResponse{
			PlayerID: m.PlayerID,
			Amount:   m.Amount,
			From:     toUser(m.From),
			To:       toUser(m.To),
			MovType:  m.MovType,
			Player:   toPlayer(m.Player),
		})
	}
	return ledgerDayResponse{Date: d.Date.Format(time.RFC3339), Type: d.Type, Content: content}
}

func toBalance(r domain.BalanceRecord) balanceResponse {
	return balanceResponse{
		User:      r.User,
		Points:    r.Points,
		TeamValue: r.TeamValue,
		TeamSize:  r.TeamSize,
		Income:    r.Income,
		Expenses:  r.Expenses,
		Bonuses:   r.Bonuses,
		Balance:   r.Balance,
		MaxBid:    r.MaxBid,
	}
}
