package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/uttam-in/gridstats/stats"
)

// StatsAPIConfig configures the secondary stats API provider.
type StatsAPIConfig struct {
	// BaseURL is the API root.
	BaseURL string

	// APIKey, when set, is sent as the X-Api-Key header.
	APIKey string

	// RequestsPerSecond throttles outbound calls so bursty multi-player
	// queries do not trip the upstream's rate limit. Default 2.
	RequestsPerSecond float64

	// Client is the HTTP client used for requests.
	Client *http.Client
}

// StatsAPI is the last-resort secondary source: an external stats API
// with client-side rate limiting.
type StatsAPI struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

// NewStatsAPI creates a stats API provider.
func NewStatsAPI(cfg StatsAPIConfig) *StatsAPI {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	return &StatsAPI{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		now:     time.Now,
	}
}

// Name returns the canonical provider name.
func (p *StatsAPI) Name() string { return NameStatsAPI }

// apiResponse is the API's envelope shape.
type apiResponse struct {
	Athletes []stats.Row `json:"athletes"`
}

// Fetch retrieves rows for one player, waiting on the client-side rate
// limiter first.
func (p *StatsAPI) Fetch(ctx context.Context, req FetchRequest) (*stats.Result, error) {
	if req.Player == "" {
		return nil, NewInvalid(NameStatsAPI, "player is required")
	}
	if p.baseURL == "" {
		return nil, NewInvalid(NameStatsAPI, "stats API base URL not configured")
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, NewTransient(NameStatsAPI, "rate limiter wait aborted", err)
	}

	raw, err := p.getAthletes(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := filterRows(stats.NormalizeRows(raw), req)
	if len(rows) == 0 {
		return nil, NewNotFound(NameStatsAPI,
			fmt.Sprintf("no rows for %q at the stats API", req.Player))
	}
	return &stats.Result{
		Rows:      rows,
		Source:    NameStatsAPI,
		FetchedAt: p.now(),
	}, nil
}

func (p *StatsAPI) getAthletes(ctx context.Context, req FetchRequest) ([]stats.Row, error) {
	u, err := url.Parse(p.baseURL + "/athletes/statistics")
	if err != nil {
		return nil, NewInvalid(NameStatsAPI, "malformed base URL")
	}
	q := u.Query()
	q.Set("name", stats.TitleCase(req.Player))
	r := req.Range.Normalized()
	if r.StartSeason != 0 {
		q.Set("season", strconv.Itoa(r.EndSeason))
	}
	if r.Week != 0 {
		q.Set("week", strconv.Itoa(r.Week))
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, NewInvalid(NameStatsAPI, "building request failed")
	}
	httpReq.Header.Set("User-Agent", defaultUserAgent)
	httpReq.Header.Set("Accept", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("X-Api-Key", p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewTransient(NameStatsAPI, "api request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, FromHTTPStatus(NameStatsAPI, resp.StatusCode, "api request rejected")
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, NewTransient(NameStatsAPI, "decoding api response failed", err)
	}
	return envelope.Athletes, nil
}

// Available probes the API status endpoint with a short deadline.
func (p *StatsAPI) Available(ctx context.Context) bool {
	if p.baseURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/status", nil)
	if err != nil {
		return false
	}
	httpReq.Header.Set("User-Agent", defaultUserAgent)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return resp.StatusCode < http.StatusInternalServerError
}

var _ Provider = (*StatsAPI)(nil)
