package running

import (
	"math"
	"sort"
)

type HeartRate struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
}

// Session is one mapped running activity.
type Session struct {
	DateIso     string    `json:"dateIso"`
	DistanceKm  float64   `json:"distanceKm"`
	DurationMin float64   `json:"durationMin"`
	Calories    float64   `json:"calories"`
	HeartRate   HeartRate `json:"heartRate"`
}

type User struct {
	FirstName         string  `json:"firstName"`
	LastName          string  `json:"lastName"`
	CreatedAt         string  `json:"createdAt,omitempty"`
	Age               int     `json:"age"`
	WeightKg          float64 `json:"weightKg"`
	HeightCm          float64 `json:"heightCm"`
	ProfilePictureURL string  `json:"profilePictureUrl,omitempty"`
}

type UserStats struct {
	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalSessions    int     `json:"totalSessions"`
	TotalDurationMin float64 `json:"totalDurationMin"`
}

type UserInfo struct {
	User  User      `json:"user"`
	Stats UserStats `json:"stats"`
}

// SortByDate sorts sessions by dateIso ascending, keeping the input order for equal dates.
func SortByDate(sessions []Session) []Session {
	sorted := make([]Session, len(sessions))
	copy(sorted, sessions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].DateIso < sorted[j].DateIso
	})
	return sorted
}

// LastSessions returns the n most recent sessions, oldest first.
func LastSessions(sessions []Session, n int) []Session {
	sorted := SortByDate(sessions)
	if n <= 0 {
		return []Session{}
	}
	if len(sorted) <= n {
		return sorted
	}
	return sorted[len(sorted)-n:]
}

// roundOneDecimal rounds half away from zero on v*10, so 0.15 gives 0.2.
// Number.toFixed(1) works on the binary value and gives 0.1 for the same input.
func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
