package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

const DateLayout = "2006-01-02"
const MonthLayout = "2006-01"

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// WriteError writes a JSON ErrorResponse with the given status code.
func WriteError(w http.ResponseWriter, status int, message string, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message, Details: details}); err != nil {
		log.Errorf("failed to encode error response: %v", err)
	}
}

// WriteJSON encodes body as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Errorf("failed to encode response: %v", err)
	}
}

// ParseDate parses a YYYY-MM-DD string as midnight in loc.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, value, loc)
}

// ParseOptionalInt returns 0 for an empty value.
func ParseOptionalInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// ParseDayRange parses optional inclusive YYYY-MM-DD bounds into [from, to) instants in loc.
// Empty values stay zero.
func ParseDayRange(fromValue, toValue string, loc *time.Location) (from, to time.Time, err error) {
	if fromValue != "" {
		if from, err = ParseDate(fromValue, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("from must be YYYY-MM-DD: %w", err)
		}
	}
	if toValue != "" {
		if to, err = ParseDate(toValue, loc); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("to must be YYYY-MM-DD: %w", err)
		}
		to = to.AddDate(0, 0, 1)
	}
	if !from.IsZero() && !to.IsZero() && !to.After(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("from %s is after to %s", fromValue, toValue)
	}
	return from, to, nil
}

// ParseMonth accepts YYYY-MM or YYYY-MM-DD. An empty value yields the zero time.
func ParseMonth(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(MonthLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(DateLayout, value)
}
