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

	"github.com/uttam-in/gridstats/stats"
)

const defaultUserAgent = "gridstats/1.0"

// LiveFeedConfig configures the live weekly feed provider.
type LiveFeedConfig struct {
	// BaseURL is the feed root, e.g. https://feed.example.com/nfl.
	BaseURL string

	// Client is the HTTP client used for requests. Per-attempt deadlines
	// come from the caller's context; the client itself carries no
	// timeout by default.
	Client *http.Client
}

// LiveFeed fetches current-season weekly rows from the live feed over
// HTTP. Rows arrive as a JSON array of column-keyed objects.
type LiveFeed struct {
	baseURL string
	client  *http.Client
	now     func() time.Time
}

// NewLiveFeed creates a live feed provider.
func NewLiveFeed(cfg LiveFeedConfig) *LiveFeed {
	client := cfg.Client
	if client == nil {
		client = http.DefaultClient
	}
	return &LiveFeed{
		baseURL: cfg.BaseURL,
		client:  client,
		now:     time.Now,
	}
}

// Name returns the canonical provider name.
func (p *LiveFeed) Name() string { return NameLiveFeed }

// Fetch retrieves and normalizes rows for one player. Network and
// server failures are transient; a well-formed empty answer is
// not-found.
func (p *LiveFeed) Fetch(ctx context.Context, req FetchRequest) (*stats.Result, error) {
	if req.Player == "" {
		return nil, NewInvalid(NameLiveFeed, "player is required")
	}
	if p.baseURL == "" {
		return nil, NewInvalid(NameLiveFeed, "live feed base URL not configured")
	}

	raw, err := p.getRows(ctx, req)
	if err != nil {
		return nil, err
	}

	rows := filterRows(stats.NormalizeRows(raw), req)
	if len(rows) == 0 {
		return nil, NewNotFound(NameLiveFeed,
			fmt.Sprintf("no rows for %q on the live feed", req.Player))
	}
	return &stats.Result{
		Rows:      rows,
		Source:    NameLiveFeed,
		FetchedAt: p.now(),
	}, nil
}

func (p *LiveFeed) getRows(ctx context.Context, req FetchRequest) ([]stats.Row, error) {
	u, err := url.Parse(p.baseURL + "/player_stats")
	if err != nil {
		return nil, NewInvalid(NameLiveFeed, "malformed base URL")
	}
	q := u.Query()
	q.Set("player", stats.TitleCase(req.Player))
	r := req.Range.Normalized()
	if r.StartSeason != 0 {
		q.Set("season_start", strconv.Itoa(r.StartSeason))
		q.Set("season_end", strconv.Itoa(r.EndSeason))
	}
	if r.Week != 0 {
		q.Set("week", strconv.Itoa(r.Week))
	}
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, NewInvalid(NameLiveFeed, "building request failed")
	}
	httpReq.Header.Set("User-Agent", defaultUserAgent)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewTransient(NameLiveFeed, "feed request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, FromHTTPStatus(NameLiveFeed, resp.StatusCode, "feed request rejected")
	}

	var rows []stats.Row
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, NewTransient(NameLiveFeed, "decoding feed response failed", err)
	}
	return rows, nil
}

// Available probes the feed's health endpoint with a short deadline.
func (p *LiveFeed) Available(ctx context.Context) bool {
	if p.baseURL == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
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

var _ Provider = (*LiveFeed)(nil)
