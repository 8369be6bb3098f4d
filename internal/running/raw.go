package running

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Raw* types are the wire format of the backend API and of the fixture file.

type RawHeartRate struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

type RawSession struct {
	Date           string        `json:"date"`
	Distance       float64       `json:"distance"`
	Duration       float64       `json:"duration"`
	HeartRate      *RawHeartRate `json:"heartRate,omitempty"`
	CaloriesBurned float64       `json:"caloriesBurned"`
}

type RawProfile struct {
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	CreatedAt      string  `json:"createdAt"`
	Age            int     `json:"age"`
	Weight         float64 `json:"weight"`
	Height         float64 `json:"height"`
	ProfilePicture string  `json:"profilePicture"`
}

type RawStatistics struct {
	TotalDistance OneDecimal `json:"totalDistance"`
	TotalSessions int        `json:"totalSessions"`
	TotalDuration float64    `json:"totalDuration"`
}

type RawUserInfo struct {
	Profile    *RawProfile    `json:"profile"`
	Statistics *RawStatistics `json:"statistics"`
}

// OneDecimal is written as a one-decimal string ("2250.2") and read from either a string or a number.
type OneDecimal float64

func (d OneDecimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(strconv.FormatFloat(float64(d), 'f', 1, 64))), nil
}

func (d *OneDecimal) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*d = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*d = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("parse decimal %q: %w", s, err)
		}
		*d = OneDecimal(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*d = OneDecimal(v)
	return nil
}
