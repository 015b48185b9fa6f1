package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"biwenger-tracker/internal/config"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const playerDetailFields = "*,team,fitness,reports(points,home,events,status(status,statusInfo),match(*,round,home,away),star),prices,competition,seasons,news,threads"

const leagueFields = "*,standings,tournaments,group,settings(description)"

// Headers are sent verbatim on every request that needs a session.
type Headers map[string]string

type StatusError struct {
	Method string
	Path   string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API error: %s %s: %d", e.Method, e.Path, e.Status)
}

type BiwengerClient struct {
	baseURL     string
	competition string
	lang        string
	score       string
	timeout     time.Duration
	client      *fasthttp.Client
}

func NewBiwengerClient(cfg *config.Config) *BiwengerClient {
	return &BiwengerClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		competition: cfg.Competition,
		lang:        cfg.Lang,
		score:       cfg.Score,
		timeout:     cfg.RequestTimeout,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         cfg.RequestTimeout,
			WriteTimeout:        cfg.RequestTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
	}
}

// Login never fails on a rejected password: callers inspect Token.
func (c *BiwengerClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body, err := json.Marshal(LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	status, raw, err := c.do(ctx, fasthttp.MethodPost, "/auth/login", baseHeaders(), body)
	if err != nil {
		return nil, err
	}

	var result LoginResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		if status != fasthttp.StatusOK {
			return nil, &StatusError{Method: fasthttp.MethodPost, Path: "/auth/login", Status: status}
		}
		return nil, err
	}
	if result.Status == 0 {
		result.Status = status
	}
	return &result, nil
}

func (c *BiwengerClient) GetAccount(ctx context.Context, h Headers) (*AccountResponse, error) {
	return doRequest[AccountResponse](ctx, c, "/account", h)
}

func (c *BiwengerClient) GetLeague(ctx context.Context, h Headers) (*LeagueResponse, error) {
	path := "/league?include=all&fields=" + leagueFields
	return doRequest[LeagueResponse](ctx, c, path, h)
}

func (c *BiwengerClient) GetMarket(ctx context.Context, h Headers) (*MarketResponse, error) {
	return doRequest[MarketResponse](ctx, c, "/market", h)
}

func (c *BiwengerClient) GetCompetitionData(ctx context.Context, h Headers) (*CompetitionResponse, error) {
	path := fmt.Sprintf("/competitions/%s/data?lang=%s&score=%s",
		url.PathEscape(c.competition), url.QueryEscape(c.lang), url.QueryEscape(c.score))
	return doRequest[CompetitionResponse](ctx, c, path, h)
}

func (c *BiwengerClient) GetPlayerDetail(ctx context.Context, h Headers, playerID int64) (*PlayerDetailResponse, error) {
	path := fmt.Sprintf("/players/%s/%d?lang=%s&fields=%s",
		url.PathEscape(c.competition), playerID, url.QueryEscape(c.lang), playerDetailFields)
	return doRequest[PlayerDetailResponse](ctx, c, path, h)
}

func (c *BiwengerClient) GetLeagueBoard(ctx context.Context, h Headers, leagueID int64, types []string) (*BoardResponse, error) {
	path := "/league/" + strconv.FormatInt(leagueID, 10) + "/board"
	if len(types) > 0 {
		path += "?type=" + strings.Join(types, ",")
	}
	return doRequest[BoardResponse](ctx, c, path, h)
}

func baseHeaders() Headers {
	return Headers{
		"Content-Type": "application/json",
		"Accept":       "application/json, text/plain, */*",
	}
}

func (c *BiwengerClient) do(ctx context.Context, method, path string, h Headers, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(method)
	for k, v := range h {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.SetBody(body)
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	// the response is released on return
	raw := append([]byte(nil), resp.Body()...)
	return resp.StatusCode(), raw, nil
}

func doRequest[T any](ctx context.Context, client *BiwengerClient, path string, h Headers) (*T, error) {
	status, raw, err := client.do(ctx, fasthttp.MethodGet, path, h, nil)
	if err != nil {
		return nil, err
	}

	if status != fasthttp.StatusOK {
		return nil, &StatusError{Method: fasthttp.MethodGet, Path: path, Status: status}
	}

	var result T
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &result, nil
}
