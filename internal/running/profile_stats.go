package running

type ProfileStats struct {
	TotalSessions    int     `json:"totalSessions"`
	TotalDurationMin float64 `json:"totalDurationMin"`
	TotalCalories    float64 `json:"totalCalories"`
	RestDays         int     `json:"restDays"`
	Hours            int     `json:"hours"`
	Minutes          int     `json:"minutes"`
}

type WeeklyGoal struct {
	Done      int `json:"done"`
	Goal      int `json:"goal"`
	Remaining int `json:"remaining"`
}

// ComputeRestDays counts the days without a session between the first and the last session.
func ComputeRestDays(sessions []Session) int {
	if len(sessions) < 2 {
		return 0
	}

	sorted := SortByDate(sessions)
	start, err := ParseLocalDate(sorted[0].DateIso)
	if err != nil {
		return 0
	}
	end, err := ParseLocalDate(sorted[len(sorted)-1].DateIso)
	if err != nil {
		return 0
	}

	activeDates := make(map[string]struct{}, len(sorted))
	for _, s := range sorted {
		activeDates[s.DateIso] = struct{}{}
	}

	return max(0, DaysBetween(start, end)-len(activeDates))
}

func BuildProfileStats(sessions []Session) ProfileStats {
	stats := ProfileStats{
		TotalSessions: len(sessions),
		RestDays:      ComputeRestDays(sessions),
	}
	for _, s := range sessions {
		stats.TotalDurationMin += s.DurationMin
		stats.TotalCalories += s.Calories
	}

	totalMinutes := int(stats.TotalDurationMin)
	stats.Hours = totalMinutes / 60
	stats.Minutes = totalMinutes % 60

	return stats
}

// BuildWeeklyGoal clamps done into [0, goal], goal being at least 1.
func BuildWeeklyGoal(done, goal int) WeeklyGoal {
	goal = max(1, goal)
	done = min(goal, max(0, done))
	return WeeklyGoal{
		Done:      done,
		Goal:      goal,
		Remaining: goal - done,
	}
}
