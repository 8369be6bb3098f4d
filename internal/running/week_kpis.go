package running

import "errors"

var ErrEmptyRange = errors.New("range start and end are required")

type WeekKpis struct {
	DistanceKm    float64 `json:"distanceKm"`
	DurationMin   float64 `json:"durationMin"`
	SessionsCount int     `json:"sessionsCount"`
}

// BuildWeekKpis sums distance and duration of sessions within rng.
// A range with an empty bound matches every session.
func BuildWeekKpis(sessions []Session, rng DateRange) WeekKpis {
	var kpis WeekKpis
	for _, s := range sessions {
		if !rng.IsEmpty() && (!IsValidDate(s.DateIso) || !rng.Contains(s.DateIso)) {
			continue
		}
		kpis.DistanceKm += s.DistanceKm
		kpis.DurationMin += s.DurationMin
		kpis.SessionsCount++
	}
	return kpis
}

// BuildWeekKpisStrict is BuildWeekKpis without the match-all fallback.
func BuildWeekKpisStrict(sessions []Session, rng DateRange) (WeekKpis, error) {
	if rng.IsEmpty() {
		return WeekKpis{}, ErrEmptyRange
	}
	return BuildWeekKpis(sessions, rng), nil
}
