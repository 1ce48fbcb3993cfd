package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gewnthar/flightbrief/models"
)

func TestFlightsCSV(t *testing.T) {
	data, err := FlightsCSV([]models.FlightEntry{
		{Airline: "UAL", Callsign: "UAL123", DepartureAirport: "KLAX", ArrivalAirport: "KSFO", DepartureTime: "14:05", ArrivalTime: "15:20", Seen: "1 hour ago"},
		{Airline: "N/A", Callsign: "N/A", DepartureAirport: "KLAX", ArrivalAirport: "Unknown", DepartureTime: "14:10", ArrivalTime: "16:00", Seen: "now"},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "airline,callsign,departure_airport,arrival_airport,departure_time,arrival_time,seen", lines[0])
	assert.Equal(t, "UAL,UAL123,KLAX,KSFO,14:05,15:20,1 hour ago", lines[1])
	assert.Equal(t, "N/A,N/A,KLAX,Unknown,14:10,16:00,now", lines[2])
}

func TestFlightsCSVEmptyHasHeader(t *testing.T) {
	data, err := FlightsCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, "airline,callsign,departure_airport,arrival_airport,departure_time,arrival_time,seen\n", string(data))
}

func TestHTMLToPlainText(t *testing.T) {
	html := `<html><head><style>td { color: red; }</style></head><body>
<h1>KLAX departures</h1>
<p>Hi Artem,<br>12 flights in the last 2 hours.</p>
<table>
<tr><th>Airline</th><th>From</th></tr>
<tr><td>UAL</td><td>KLAX</td></tr>
</table>
</body></html>`

	text := HTMLToPlainText(html)
	assert.Contains(t, text, "KLAX departures")
	assert.Contains(t, text, "Hi Artem,\n12 flights in the last 2 hours.")
	assert.Contains(t, text, "Airline | From")
	assert.Contains(t, text, "UAL | KLAX")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "\n\n\n")
}
