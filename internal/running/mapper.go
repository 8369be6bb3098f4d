package running

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidUserInfo        = errors.New("invalid user-info payload")
	ErrInvalidActivityPayload = errors.New("invalid user-activity payload")
)

func MapSession(raw RawSession) Session {
	s := Session{
		DateIso:     raw.Date,
		DistanceKm:  raw.Distance,
		DurationMin: raw.Duration,
		Calories:    raw.CaloriesBurned,
	}
	if raw.HeartRate != nil {
		s.HeartRate = HeartRate{
			Min:     raw.HeartRate.Min,
			Max:     raw.HeartRate.Max,
			Average: raw.HeartRate.Average,
		}
	}
	return s
}

func MapUserActivity(raw []RawSession) []Session {
	sessions := make([]Session, 0, len(raw))
	for _, r := range raw {
		sessions = append(sessions, MapSession(r))
	}
	return sessions
}

// DecodeUserActivity reads a JSON array of raw sessions and maps it.
func DecodeUserActivity(r io.Reader) ([]Session, error) {
	var raw []RawSession
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidActivityPayload, err)
	}
	// a JSON null decodes without error but is not an array
	if raw == nil {
		return nil, fmt.Errorf("%w: null payload", ErrInvalidActivityPayload)
	}
	return MapUserActivity(raw), nil
}

func MapUserInfo(raw *RawUserInfo) (*UserInfo, error) {
	if raw == nil || raw.Profile == nil || raw.Statistics == nil {
		return nil, ErrInvalidUserInfo
	}

	p, st := raw.Profile, raw.Statistics
	return &UserInfo{
		User: User{
			FirstName:         p.FirstName,
			LastName:          p.LastName,
			CreatedAt:         p.CreatedAt,
			Age:               p.Age,
			WeightKg:          p.Weight,
			HeightCm:          p.Height,
			ProfilePictureURL: p.ProfilePicture,
		},
		Stats: UserStats{
			TotalDistanceKm:  float64(st.TotalDistance),
			TotalSessions:    st.TotalSessions,
			TotalDurationMin: st.TotalDuration,
		},
	}, nil
}

func DecodeUserInfo(r io.Reader) (*UserInfo, error) {
	var raw RawUserInfo
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidUserInfo, err)
	}
	return MapUserInfo(&raw)
}

// BuildRawUserInfo computes the statistics block the backend serves for a user.
func BuildRawUserInfo(profile RawProfile, sessions []RawSession) RawUserInfo {
	stats := &RawStatistics{TotalSessions: len(sessions)}
	var totalDistance float64
	for _, s := range sessions {
		totalDistance += s.Distance
		stats.TotalDuration += s.Duration
	}
	stats.TotalDistance = OneDecimal(roundOneDecimal(totalDistance))

	return RawUserInfo{
		Profile:    &profile,
		Statistics: stats,
	}
}
