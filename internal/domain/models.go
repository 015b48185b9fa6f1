package domain

import (
	"time"
)

type UserRef struct {
	ID   int64
	Name string
}

type Player struct {
	ID               int64
	Name             string
	Slug             string
	TeamID           int64
	Position         int
	Price            int64
	PriceIncrement   int64
	Points           int
	PointsHome       int
	PointsAway       int
	PointsLastSeason int
	PlayedHome       int
	PlayedAway       int
	Fitness          []string // "" for rounds without data
	Status           string
}

// Catalog keeps players in the order the competition payload lists them.
type Catalog struct {
	Players map[int64]*Player
	Order   []int64
}

func (c *Catalog) Get(id int64) (*Player, bool) {
	if c == nil {
		return nil, false
	}
	p, ok := c.Players[id]
	return p, ok
}

// Ordered returns the players in catalog order.
func (c *Catalog) Ordered() []*Player {
	players := make([]*Player, 0, len(c.Order))
	for _, id := range c.Order {
		if p, ok := c.Players[id]; ok {
			players = append(players, p)
		}
	}
	return players
}

type ExtendedStats struct {
	URL                string
	PriceIncrement     string // % change over the last five price points
	AvgPointsPerMatch  string
	AvgTotalPoints     string
	TotalPointsLast    string
	MatchesPlayedLast  int
	MinutesPlayedRatio string
	MatchesBench       int
}

// offerBaseFields: date, until, price, player reference and the owner slot.
const offerBaseFields = 5

type MarketOffer struct {
	Date        time.Time
	Until       time.Time
	Price       int64
	PlayerID    int64
	Owner       *UserRef // nil = free agent
	Player      *Player
	TeamName    *string
	Stats       *ExtendedStats
	IsHighCost  bool
	IsTopPlayer bool
}

func (o *MarketOffer) ResolvedFields() int {
	n := offerBaseFields
	if o.Player != nil {
		n++
	}
	if o.TeamName != nil {
		n++
	}
	if o.Stats != nil {
		n++
	}
	return n
}

type Movement struct {
	PlayerID int64
	Amount   int64
	From     *UserRef
	To       *UserRef
	Type     string // as sent upstream, may be empty
	MovType  string
	Player   *Player
}

func (m *Movement) ResolvedFields() int {
	n := 2
	if m.From != nil {
		n++
	}
	if m.To != nil {
		n++
	}
	if m.Type != "" {
		n++
	}
	if m.Player != nil {
		n++
	}
	if m.MovType != "" {
		n++
	}
	return n
}

type LedgerDay struct {
	Date      time.Time
	Type      string
	Movements []Movement
}

type LedgerEntry struct {
	Date   time.Time
	From   string
	To     string
	Amount int64
}

type Standing struct {
	UserID    int64
	Name      string
	Points    int
	TeamValue int64
	TeamSize  int
}

type BalanceRecord struct {
	User      string
	Points    int
	TeamValue int64
	TeamSize  int
	Income    int64
	Expenses  int64
	Bonuses   int64
	Balance   int64
	MaxBid    float64
}

type BalanceSnapshotRow struct {
	SnapshotID string
	TakenAt    time.Time
	Record     BalanceRecord
}

type RoundInfo struct {
	Active bool
	ID     int64
	Name   string
	Status string
	Date   time.Time
	Blog   string
}
