package apiusage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avidel/ccstatusline/pkg/config"
)

func TestClientFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/organizations/org-123/usage", r.URL.Path)
			assert.Contains(t, r.Header.Get("Cookie"), "sessionKey=sk-test")
			assert.Contains(t, r.Header.Get("Cookie"), "lastActiveOrg=org-123")

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"five_hour": {"utilization": 37.5, "resets_at": "2026-03-10T18:00:00Z"},
				"seven_day": {"utilization": 62.0, "resets_at": null}
			}`))
		}))
	defer server.Close()

	c := NewClient(config.APIConfig{
		BaseURL:      server.URL,
		OrgID:        "org-123",
		SessionKey:   "sk-test",
		FetchTimeout: 2 * time.Second,
	})

	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 37.5, snap.FiveHourPercent, 1e-9)
	assert.InDelta(t, 62.0, snap.SevenDayPercent, 1e-9)
	require.NotNil(t, snap.FiveHourResetsAt)
	assert.Equal(t, time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC), snap.FiveHourResetsAt.UTC())
	assert.Nil(t, snap.SevenDayResetsAt)
	assert.False(t, snap.FetchedAt.IsZero())
}

func TestClientFetch_MissingCredentials(t *testing.T) {
	t.Parallel()

	c := NewClient(config.APIConfig{})
	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestClientFetch_HTTPError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "forbidden", http.StatusForbidden)
		}))
	defer server.Close()

	c := NewClient(config.APIConfig{
		BaseURL:    server.URL,
		OrgID:      "org-123",
		SessionKey: "sk-test",
	})

	_, err := c.Fetch(context.Background())
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestClientFetch_UnparseableReset(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{
				"five_hour": {"utilization": 10.0, "resets_at": "soon"},
				"seven_day": {"utilization": 20.0}
			}`))
		}))
	defer server.Close()

	c := NewClient(config.APIConfig{
		BaseURL:    server.URL,
		OrgID:      "org-123",
		SessionKey: "sk-test",
	})

	snap, err := c.Fetch(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap.FiveHourResetsAt)
	assert.InDelta(t, 10.0, snap.FiveHourPercent, 1e-9)
}
