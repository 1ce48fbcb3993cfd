// utils/airports.go
package utils

import "strings"

// NormalizeAirportCode converts 4-letter US ICAO codes (e.g., "KLAX") to 3-letter codes ("LAX").
// Other codes are returned as is. Converts to uppercase.
func NormalizeAirportCode(code string) string {
	upperCode := strings.ToUpper(strings.TrimSpace(code))
	if len(upperCode) == 4 && strings.HasPrefix(upperCode, "K") {
		return upperCode[1:]
	}
	return upperCode
}

// AirlineCode returns the ICAO airline designator of a callsign: its first
// three characters after trimming. Shorter callsigns are returned whole.
func AirlineCode(callsign string) string {
	trimmed := []rune(strings.TrimSpace(callsign))
	if len(trimmed) > 3 {
		trimmed = trimmed[:3]
	}
	return string(trimmed)
}
