package running

import (
	"fmt"
)

const DefaultWeekCount = 4

type WeekBucket struct {
	WeekLabel string  `json:"weekLabel"`
	StartIso  string  `json:"startIso"`
	EndIso    string  `json:"endIso"`
	TotalKm   float64 `json:"totalKm"`
	AverageKm float64 `json:"averageKm"`
}

type bucketAcc struct {
	rng        DateRange
	totalKm    float64
	activeDays int
}

// BuildWeeklyAverageDistance buckets sessions into weekCount consecutive ISO weeks,
// the last one being the week that contains endDateIso. Buckets are ordered oldest first.
func BuildWeeklyAverageDistance(sessions []Session, endDateIso string, weekCount int) ([]WeekBucket, error) {
	if weekCount < 1 {
		weekCount = DefaultWeekCount
	}

	endDate, err := ParseLocalDate(endDateIso)
	if err != nil {
		return nil, fmt.Errorf("weekly average end date: %w", err)
	}

	endWeekStart := StartOfISOWeek(endDate)
	accs := make([]bucketAcc, 0, weekCount)
	for i := weekCount - 1; i >= 0; i-- {
		accs = append(accs, bucketAcc{
			rng: ISOWeekRange(AddDays(endWeekStart, -7*i)),
		})
	}

	for _, s := range sessions {
		if !IsValidDate(s.DateIso) {
			continue
		}
		// buckets never overlap, so at most one matches
		for i := range accs {
			if !accs[i].rng.Contains(s.DateIso) {
				continue
			}
			accs[i].totalKm += s.DistanceKm
			if s.DistanceKm > 0 {
				accs[i].activeDays++
			}
			break
		}
	}

	buckets := make([]WeekBucket, 0, len(accs))
	for i, acc := range accs {
		denom := acc.activeDays
		if denom == 0 {
			denom = 1
		}
		buckets = append(buckets, WeekBucket{
			WeekLabel: fmt.Sprintf("S%d", i+1),
			StartIso:  acc.rng.StartIso,
			EndIso:    acc.rng.EndIso,
			TotalKm:   roundOneDecimal(acc.totalKm),
			AverageKm: roundOneDecimal(acc.totalKm / float64(denom)),
		})
	}

	return buckets, nil
}

// WeeklyWindow returns the full range covered by BuildWeeklyAverageDistance for the same args.
func WeeklyWindow(endDateIso string, weekCount int) (DateRange, error) {
	if weekCount < 1 {
		weekCount = DefaultWeekCount
	}
	endDate, err := ParseLocalDate(endDateIso)
	if err != nil {
		return DateRange{}, fmt.Errorf("weekly window end date: %w", err)
	}
	endWeekStart := StartOfISOWeek(endDate)
	return DateRange{
		StartIso: FormatLocalDate(AddDays(endWeekStart, -7*(weekCount-1))),
		EndIso:   FormatLocalDate(AddDays(endWeekStart, 6)),
	}, nil
}
