package running

import (
	"fmt"
	"strings"
)

type Locale string

const (
	LocaleFR Locale = "fr"
	LocaleEN Locale = "en"

	DefaultLocale = LocaleFR
)

var dayLabels = map[Locale][7]string{
	LocaleFR: {"Lun", "Mar", "Mer", "Jeu", "Ven", "Sam", "Dim"},
	LocaleEN: {"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
}

func ParseLocale(s string) (Locale, error) {
	l := Locale(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := dayLabels[l]; !ok {
		return "", fmt.Errorf("unknown locale: %q", s)
	}
	return l, nil
}

type HeartRateDay struct {
	DayLabel string  `json:"dayLabel"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Avg      float64 `json:"avg"`
}

type HeartRateWeek struct {
	Range DateRange      `json:"range"`
	Days  []HeartRateDay `json:"days"`
}

func emptyHeartRateWeek() HeartRateWeek {
	return HeartRateWeek{Days: []HeartRateDay{}}
}

// BuildLastISOWeekHeartRate uses the default (french) day labels.
func BuildLastISOWeekHeartRate(sessions []Session, weekOffset int) HeartRateWeek {
	return BuildLastISOWeekHeartRateLocalized(sessions, weekOffset, DefaultLocale)
}

// BuildLastISOWeekHeartRateLocalized picks the ISO week holding the latest session,
// moved by weekOffset weeks, and returns one heart rate entry per day, Monday first.
func BuildLastISOWeekHeartRateLocalized(sessions []Session, weekOffset int, locale Locale) HeartRateWeek {
	if len(sessions) == 0 {
		return emptyHeartRateWeek()
	}

	labels, ok := dayLabels[locale]
	if !ok {
		labels = dayLabels[DefaultLocale]
	}

	lastIso := ""
	for _, s := range sessions {
		if s.DateIso > lastIso {
			lastIso = s.DateIso
		}
	}

	refDate, err := ParseLocalDate(lastIso)
	if err != nil {
		return emptyHeartRateWeek()
	}
	refDate = AddDays(refDate, weekOffset*7)

	week := ISOWeekRange(refDate)
	weekStart := StartOfISOWeek(refDate)

	// last session of a date wins
	byIso := make(map[string]Session)
	for _, s := range sessions {
		if week.Contains(s.DateIso) {
			byIso[s.DateIso] = s
		}
	}

	days := make([]HeartRateDay, 0, 7)
	for i, label := range labels {
		day := HeartRateDay{DayLabel: label}
		if s, ok := byIso[FormatLocalDate(AddDays(weekStart, i))]; ok {
			day.Min = s.HeartRate.Min
			day.Max = s.HeartRate.Max
			day.Avg = s.HeartRate.Average
		}
		days = append(days, day)
	}

	return HeartRateWeek{
		Range: week,
		Days:  days,
	}
}
