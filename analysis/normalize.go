// analysis/normalize.go
package analysis

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gewnthar/flightbrief/models"
	"github.com/gewnthar/flightbrief/utils"
)

// Defaults substituted for missing or unusable raw fields.
const (
	DefaultCallsign         = "N/A"
	DefaultDepartureAirport = "KLAX"
	DefaultArrivalAirport   = "Unknown"
)

// Normalize converts a raw provider record into a FlightEvent with times in
// the local zone. It never fails.
func Normalize(raw models.RawFlightRecord) models.FlightEvent {
	return NormalizeIn(raw, time.Local)
}

// NormalizeIn is Normalize with an explicit display location.
func NormalizeIn(raw models.RawFlightRecord, loc *time.Location) models.FlightEvent {
	if loc == nil {
		loc = time.Local
	}
	callsign := strings.TrimSpace(stringField(raw, models.RawCallsign, DefaultCallsign))
	return models.FlightEvent{
		AirlineCode:      utils.AirlineCode(callsign),
		Callsign:         callsign,
		DepartureAirport: stringField(raw, models.RawDepartureAirport, DefaultDepartureAirport),
		ArrivalAirport:   stringField(raw, models.RawArrivalAirport, DefaultArrivalAirport),
		DepartureTime:    time.Unix(epochField(raw, models.RawFirstSeen), 0).In(loc),
		ArrivalTime:      time.Unix(epochField(raw, models.RawLastSeen), 0).In(loc),
	}
}

// NormalizeAll normalizes every record, preserving order.
func NormalizeAll(raws []models.RawFlightRecord, loc *time.Location) []models.FlightEvent {
	events := make([]models.FlightEvent, 0, len(raws))
	for _, raw := range raws {
		events = append(events, NormalizeIn(raw, loc))
	}
	return events
}

// stringField returns raw[key] when it is a non-empty string, else def.
func stringField(raw models.RawFlightRecord, key, def string) string {
	if s, ok := raw[key].(string); ok && s != "" {
		return s
	}
	return def
}

// epochField reads an epoch-seconds value of any numeric JSON shape. Missing,
// null, non-numeric and non-finite values give 0.
func epochField(raw models.RawFlightRecord, key string) int64 {
	switch v := raw[key].(type) {
	case float64:
		return floatSeconds(v)
	case float32:
		return floatSeconds(float64(v))
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return uintSeconds(uint64(v))
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return uintSeconds(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return floatSeconds(f)
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return i
		}
	}
	return 0
}

func uintSeconds(u uint64) int64 {
	if u > math.MaxInt64 {
		return 0
	}
	return int64(u)
}

func floatSeconds(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f > math.MaxInt64/2 || f < math.MinInt64/2 {
		return 0
	}
	return int64(f)
}
