package api

import (
	"io"

	jsoniter "github.com/json-iterator/go"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token   string `json:"token"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type UserRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type AccountResponse struct {
	Status int         `json:"status"`
	Data   AccountData `json:"data"`
}

type AccountData struct {
	Account struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"account"`
	Leagues []AccountLeague `json:"leagues"`
}

type AccountLeague struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Competition string  `json:"competition"`
	User        UserRef `json:"user"`
}

type LeagueResponse struct {
	Status int        `json:"status"`
	Data   LeagueData `json:"data"`
}

type LeagueData struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Standings []StandingData      `json:"standings"`
	Settings  jsoniter.RawMessage `json:"settings"`
}

type StandingData struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	TeamValue int64  `json:"teamValue"`
	TeamSize  int    `json:"teamSize"`
}

type MarketResponse struct {
	Status int `json:"status"`
	Data   struct {
		Sales []Sale `json:"sales"`
	} `json:"data"`
}

type Sale struct {
	Date   int64 `json:"date"`
	Until  int64 `json:"until"`
	Price  int64 `json:"price"`
	Player struct {
		ID int64 `json:"id"`
	} `json:"player"`
	User *UserRef `json:"user"`
}

type CompetitionResponse struct {
	Status int             `json:"status"`
	Data   CompetitionData `json:"data"`
}

type CompetitionData struct {
	Players PlayerIndex         `json:"players"`
	Teams   map[string]TeamData `json:"teams"`
	Events  []EventData         `json:"events"`
	Season  struct {
		Rounds []RoundData `json:"rounds"`
	} `json:"season"`
	Social struct {
		BlogLineup string `json:"blogLineup"`
	} `json:"social"`
}

type PlayerData struct {
	ID               int64                 `json:"id"`
	Name             string                `json:"name"`
	Slug             string                `json:"slug"`
	TeamID           int64                 `json:"teamID"`
	Position         int                   `json:"position"`
	Price            int64                 `json:"price"`
	FantasyPrice     int64                 `json:"fantasyPrice"`
	Status           string                `json:"status"`
	PriceIncrement   int64                 `json:"priceIncrement"`
	PlayedHome       int                   `json:"playedHome"`
	PlayedAway       int                   `json:"playedAway"`
	Fitness          []jsoniter.RawMessage `json:"fitness"`
	Points           int                   `json:"points"`
	PointsHome       int                   `json:"pointsHome"`
	PointsAway       int                   `json:"pointsAway"`
	PointsLastSeason int                   `json:"pointsLastSeason"`
}

// PlayerIndex is the players object of the competition payload, keyed by id
// as a string. Order keeps the keys in payload order.
type PlayerIndex struct {
	Order []string
	ByID  map[string]PlayerData
}

func (p *PlayerIndex) UnmarshalJSON(data []byte) error {
	iter := json.BorrowIterator(data)
	defer json.ReturnIterator(iter)

	p.Order = nil
	p.ByID = make(map[string]PlayerData)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		var pd PlayerData
		it.ReadVal(&pd)
		if it.Error != nil {
			return false
		}
		p.Order = append(p.Order, key)
		p.ByID[key] = pd
		return true
	})
	if iter.Error != nil && iter.Error != io.EOF {
		return iter.Error
	}
	return nil
}

type TeamData struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type EventData struct {
	Date  int64 `json:"date"`
	Round struct {
		ID int64 `json:"id"`
	} `json:"round"`
}

type RoundData struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type PlayerDetailResponse struct {
	Status int          `json:"status"`
	Data   PlayerDetail `json:"data"`
}

type PlayerDetail struct {
	ID           int64                  `json:"id"`
	Name         string                 `json:"name"`
	CanonicalURL string                 `json:"canonicalURL"`
	Partner      map[string]PartnerLink `json:"partner"`
	Prices       []jsoniter.RawMessage  `json:"prices"`
	Seasons      []SeasonData           `json:"seasons"`
	Reports      []ReportData           `json:"reports"`
}

type PartnerLink struct {
	URL string `json:"url"`
}

// Season fields arrive with inconsistent types, so they are decoded lazily.
type SeasonData struct {
	ID          jsoniter.RawMessage `json:"id"`
	Name        string              `json:"name"`
	Games       jsoniter.RawMessage `json:"games"`
	Points      jsoniter.RawMessage `json:"points"`
	Competition jsoniter.RawMessage `json:"competition"`
}

type ReportData struct {
	Match *struct {
		Status string `json:"status"`
	} `json:"match"`
	RawStats *struct {
		MinutesPlayed *float64 `json:"minutesPlayed"`
	} `json:"rawStats"`
}

type BoardResponse struct {
	Status int          `json:"status"`
	Data   []BoardEvent `json:"data"`
}

// Content is a list of BoardMovement for transfer, market and loan events
// and a RoundFinishedContent for roundFinished.
type BoardEvent struct {
	Type    string              `json:"type"`
	Date    int64               `json:"date"`
	Content jsoniter.RawMessage `json:"content"`
}

type BoardMovement struct {
	Player int64    `json:"player"`
	Amount int64    `json:"amount"`
	From   *UserRef `json:"from"`
	To     *UserRef `json:"to"`
	Type   string   `json:"type"`
}

type RoundFinishedContent struct {
	Round struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"round"`
	Results []RoundResult `json:"results"`
}

type RoundResult struct {
	User   UserRef `json:"user"`
	Points int     `json:"points"`
	Bonus  *int64  `json:"bonus"`
}

func DecodeMovements(raw jsoniter.RawMessage) ([]BoardMovement, error) {
	var movs []BoardMovement
	if err := json.Unmarshal(raw, &movs); err != nil {
		return nil, err
	}
	return movs, nil
}

func DecodeRoundFinished(raw jsoniter.RawMessage) (*RoundFinishedContent, error) {
	var content RoundFinishedContent
	if err := json.Unmarshal(raw, &content); err != nil {
		return nil, err
	}
	return &content, nil
}
