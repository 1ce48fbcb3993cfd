package opensky

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/flightbrief/config"
	"github.com/gewnthar/flightbrief/models"
)

// fakeOpenSky serves a token endpoint and the flights endpoints.
func fakeOpenSky(t *testing.T, flights http.HandlerFunc) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var tokenCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "id", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret", r.PostForm.Get("client_secret"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-123",
			"token_type":   "Bearer",
			"expires_in":   1800,
		})
	})
	mux.HandleFunc("/api/flights/", flights)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenCalls
}

func testClient(srv *httptest.Server) *Client {
	return NewClient(context.Background(), config.OpenSkyConfig{
		BaseURL:      srv.URL + "/api",
		TokenURL:     srv.URL + "/token",
		Timeout:      5 * time.Second,
		ClientID:     "id",
		ClientSecret: "secret",
	})
}

func TestFetchFlightsDepartures(t *testing.T) {
	begin := time.Unix(1760500000, 0)
	end := begin.Add(2 * time.Hour)

	srv, tokenCalls := fakeOpenSky(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/flights/departure", r.URL.Path)
		assert.Equal(t, "KLAX", r.URL.Query().Get("airport"))
		assert.Equal(t, "1760500000", r.URL.Query().Get("begin"))
		assert.Equal(t, "1760507200", r.URL.Query().Get("end"))
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"icao24":"a1b2c3","callsign":"UAL123  ","estDepartureAirport":"KLAX","estArrivalAirport":null,"firstSeen":1760500100,"lastSeen":1760503700},
			{"icao24":"d4e5f6","callsign":null,"firstSeen":1760500200}
		]`))
	})

	records, err := testClient(srv).FetchFlights(context.Background(), models.DeparturesReport, "KLAX", begin, end)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "UAL123  ", records[0]["callsign"])
	assert.Equal(t, json.Number("1760500100"), records[0]["firstSeen"])
	assert.Nil(t, records[0]["estArrivalAirport"])
	assert.Nil(t, records[1]["callsign"])
	assert.Equal(t, int32(1), tokenCalls.Load())
}

func TestFetchFlightsArrivalsEndpoint(t *testing.T) {
	srv, _ := fakeOpenSky(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/flights/arrival", r.URL.Path)
		w.Write([]byte(`[]`))
	})

	records, err := testClient(srv).FetchFlights(context.Background(), models.ArrivalsReport, "KSFO", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchFlightsNotFoundIsEmpty(t *testing.T) {
	srv, _ := fakeOpenSky(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	records, err := testClient(srv).FetchFlights(context.Background(), models.DeparturesReport, "KLAX", time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchFlightsServerError(t *testing.T) {
	srv, _ := fakeOpenSky(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance"))
	})

	_, err := testClient(srv).FetchFlights(context.Background(), models.DeparturesReport, "KLAX", time.Now().Add(-time.Hour), time.Now())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr), "got %v", err)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, "maintenance", statusErr.Body)
}

func TestFetchFlightsAuthFailure(t *testing.T) {
	var flightCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	})
	mux.HandleFunc("/api/flights/", func(w http.ResponseWriter, r *http.Request) {
		flightCalls.Add(1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	_, err := testClient(srv).FetchFlights(context.Background(), models.DeparturesReport, "KLAX", time.Now().Add(-time.Hour), time.Now())
	assert.Error(t, err)
	assert.Equal(t, int32(0), flightCalls.Load())
}

func TestFetchFlightsBadJSON(t *testing.T) {
	srv, _ := fakeOpenSky(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"a list"}`))
	})

	_, err := testClient(srv).FetchFlights(context.Background(), models.DeparturesReport, "KLAX", time.Now().Add(-time.Hour), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode")
}
