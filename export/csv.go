// export/csv.go
package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/gewnthar/flightbrief/models"
)

// FlightsCSV encodes the detail list as CSV with a header row taken from the
// `csv:"..."` tags of models.FlightEntry. An empty list still gets a header.
func FlightsCSV(entries []models.FlightEntry) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteFlightsCSV(&buf, entries); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFlightsCSV streams the CSV form of entries to w.
func WriteFlightsCSV(w io.Writer, entries []models.FlightEntry) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)

	if len(entries) == 0 {
		if err := enc.EncodeHeader(models.FlightEntry{}); err != nil {
			return fmt.Errorf("failed to encode CSV header: %w", err)
		}
	}
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("failed to encode flight %s: %w", e.Callsign, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to write flight CSV: %w", err)
	}
	return nil
}
