// opensky/client.go
package opensky

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/gewnthar/flightbrief/config"
	"github.com/gewnthar/flightbrief/models"
)

// StatusError reports a non-200 answer from the OpenSky API.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("OpenSky request to %s failed: status code %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client fetches flight records from the OpenSky REST API using the OAuth2
// client-credentials flow.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client whose HTTP transport obtains a bearer token from
// cfg.TokenURL before the first request.
func NewClient(ctx context.Context, cfg config.OpenSkyConfig) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	// Token requests go through a client with the same timeout
	ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := cc.Client(ctx)
	httpClient.Timeout = timeout

	return &Client{baseURL: cfg.BaseURL, httpClient: httpClient}
}

// FetchFlights returns the raw departure or arrival records for airport
// between begin and end. The provider does not guarantee any ordering.
func (c *Client) FetchFlights(ctx context.Context, kind models.ReportKind, airport string, begin, end time.Time) ([]models.RawFlightRecord, error) {
	endpoint := "departure"
	if kind == models.ArrivalsReport {
		endpoint = "arrival"
	}

	q := url.Values{}
	q.Set("airport", airport)
	q.Set("begin", strconv.FormatInt(begin.Unix(), 10))
	q.Set("end", strconv.FormatInt(end.Unix(), 10))
	reqURL := fmt.Sprintf("%s/flights/%s?%s", c.baseURL, endpoint, q.Encode())

	log.Printf("OpenSky: Fetching %s %s from %s to %s\n", airport, kind,
		begin.Format(time.RFC3339), end.Format(time.RFC3339))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenSky request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make GET request to %s: %w", reqURL, err)
	}
	defer resp.Body.Close()

	// OpenSky answers 404 when the interval holds no flights
	if resp.StatusCode == http.StatusNotFound {
		log.Printf("OpenSky: No %s found for %s in the requested interval\n", kind, airport)
		return []models.RawFlightRecord{}, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{URL: reqURL, StatusCode: resp.StatusCode, Body: string(body)}
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var records []models.RawFlightRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode OpenSky response from %s: %w", reqURL, err)
	}

	log.Printf("OpenSky: Received %d %s records for %s\n", len(records), kind, airport)
	return records, nil
}
