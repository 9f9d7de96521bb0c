package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.Encode(data)
}

// WriteDetail writes the {"detail": ...} error body used by every endpoint.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, map[string]string{"detail": detail})
}

// ParseBoolFlag interprets a query flag the way the API always has:
// "1", "true" and "yes" (case-insensitive) are true, everything else false.
func ParseBoolFlag(value string) bool {
	switch strings.ToLower(value) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// ParseLimit clamps a limit parameter to [1, max]. Invalid or absent values
// return max, leaving the result set untouched.
func ParseLimit(value string, max int) int {
	if value == "" {
		return max
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return max
	}
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}
