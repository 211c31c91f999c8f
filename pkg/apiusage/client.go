package apiusage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/avidel/ccstatusline/pkg/config"
)

// DefaultBaseURL is the claude.ai origin serving the usage endpoint.
const DefaultBaseURL = "https://claude.ai"

// Fetcher retrieves a quota-utilization snapshot from the remote API.
type Fetcher interface {
	Fetch(ctx context.Context) (*Snapshot, error)
}

// client implements Fetcher against the claude.ai organizations usage
// endpoint. Authentication is cookie-based: the browser session key
// plus the active organization.
type client struct {
	baseURL    string
	orgID      string
	sessionKey string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a usage API client from configuration.
func NewClient(cfg config.APIConfig) Fetcher {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.FetchTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &client{
		baseURL:    baseURL,
		orgID:      cfg.OrgID,
		sessionKey: cfg.SessionKey,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// usageLimit is one quota window in the wire response.
type usageLimit struct {
	Utilization float64 `json:"utilization"`
	ResetsAt    *string `json:"resets_at"`
}

// usageResponse is the wire shape of the usage endpoint.
type usageResponse struct {
	FiveHour usageLimit `json:"five_hour"`
	SevenDay usageLimit `json:"seven_day"`
}

// Fetch implements Fetcher.Fetch.
func (c *client) Fetch(ctx context.Context) (*Snapshot, error) {
	if c.orgID == "" || c.sessionKey == "" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/api/organizations/%s/usage", c.baseURL, c.orgID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	req.Header.Set("Cookie",
		fmt.Sprintf("sessionKey=%s; lastActiveOrg=%s", c.sessionKey, c.orgID))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", ErrFetchFailed, resp.StatusCode)
	}

	var wire usageResponse
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	return &Snapshot{
		FiveHourPercent:  wire.FiveHour.Utilization,
		FiveHourResetsAt: parseReset(wire.FiveHour.ResetsAt),
		SevenDayPercent:  wire.SevenDay.Utilization,
		SevenDayResetsAt: parseReset(wire.SevenDay.ResetsAt),
		FetchedAt:        c.now(),
	}, nil
}

// parseReset decodes an optional RFC 3339 reset instant; unparseable
// values are dropped rather than failing the whole snapshot.
func parseReset(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	return &t
}
