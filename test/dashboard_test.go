package test

import (
	"net/http"

	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/users"
)

func (s *IntegrationTestSuite) login() string {
	loginResp, status := s.doLogin(testUsername, testPassword)
	s.Require().Equal(http.StatusOK, status)
	return loginResp.Token
}

func (s *IntegrationTestSuite) TestUserInfo() {
	token := s.login()

	var info running.RawUserInfo
	s.Require().Equal(http.StatusOK, s.doRequest(http.MethodGet, "/api/user-info", token, &info))
	s.Require().NotNil(info.Profile)
	s.Require().NotNil(info.Statistics)
	s.Equal("Sophie", info.Profile.FirstName)
	s.Equal("Martin", info.Profile.LastName)
	s.Equal(32, info.Profile.Age)
	s.Equal(4, info.Statistics.TotalSessions)
	s.InDelta(120.0, info.Statistics.TotalDuration, 0.001)
}

func (s *IntegrationTestSuite) TestUserActivity() {
	token := s.login()

	var activity []running.RawSession
	s.Require().Equal(http.StatusOK, s.doRequest(
		http.MethodGet, "/api/user-activity?startWeek=2025-12-01&endWeek=2025-12-07", token, &activity,
	))
	s.Require().Len(activity, 3)
	s.Equal("2025-12-01", activity[0].Date)
	s.Equal("2025-12-07", activity[2].Date)
	s.Require().NotNil(activity[1].HeartRate)
	s.InDelta(160.0, activity[1].HeartRate.Average, 0.001)

	// end of range is clamped to today
	activity = nil
	s.Require().Equal(http.StatusOK, s.doRequest(
		http.MethodGet, "/api/user-activity?startWeek=2025-12-08&endWeek=3000-01-01", token, &activity,
	))
	s.Require().Len(activity, 1)
	s.Equal("2025-12-14", activity[0].Date)
	s.Nil(activity[0].HeartRate)

	s.Equal(http.StatusBadRequest, s.doRequest(http.MethodGet, "/api/user-activity?startWeek=2025-12-01", token, nil))
	s.Equal(http.StatusBadRequest, s.doRequest(
		http.MethodGet, "/api/user-activity?startWeek=01/12/2025&endWeek=2025-12-07", token, nil,
	))
}

func (s *IntegrationTestSuite) TestDashboard_Kpis() {
	token := s.login()

	var kpis running.WeekKpis
	s.Require().Equal(http.StatusOK, s.doRequest(
		http.MethodGet, "/api/dashboard/kpis?startIso=2025-12-01&endIso=2025-12-07", token, &kpis,
	))
	s.Equal(3, kpis.SessionsCount)
	s.InDelta(14.5, kpis.DistanceKm, 0.001)
	s.InDelta(95.0, kpis.DurationMin, 0.001)
}

func (s *IntegrationTestSuite) TestDashboard_HeartRate() {
	token := s.login()

	var week running.HeartRateWeek
	s.Require().Equal(http.StatusOK, s.doRequest(
		http.MethodGet, "/api/dashboard/heart-rate?weekOffset=-1&lang=en", token, &week,
	))
	s.Equal("2025-12-01", week.Range.StartIso)
	s.Equal("2025-12-07", week.Range.EndIso)
	s.Require().Len(week.Days, 7)
	s.Equal("Mon", week.Days[0].DayLabel)
	s.InDelta(143.0, week.Days[0].Min, 0.001)
	s.InDelta(179.0, week.Days[0].Max, 0.001)
	s.Zero(week.Days[1].Avg)
	s.InDelta(166.0, week.Days[6].Avg, 0.001)

	// the week of the latest session has no heart rate data
	week = running.HeartRateWeek{}
	s.Require().Equal(http.StatusOK, s.doRequest(http.MethodGet, "/api/dashboard/heart-rate", token, &week))
	s.Equal("2025-12-08", week.Range.StartIso)
	s.Require().Len(week.Days, 7)
	s.Equal("Lun", week.Days[0].DayLabel)
	s.Zero(week.Days[6].Max)
}

func (s *IntegrationTestSuite) TestDashboard_ProfileStats() {
	loginResp, status := s.doLogin(storeUser.Username, storeUser.Password)
	s.Require().Equal(http.StatusOK, status)

	var stats running.ProfileStats
	s.Require().Equal(http.StatusOK, s.doRequest(http.MethodGet, "/api/profile/stats", loginResp.Token, &stats))
	s.Equal(1, stats.TotalSessions)
	s.InDelta(45.0, stats.TotalDurationMin, 0.001)
	s.InDelta(610.0, stats.TotalCalories, 0.001)
	s.Equal(0, stats.Hours)
	s.Equal(45, stats.Minutes)
}

func (s *IntegrationTestSuite) TestStore_InsertDuplicate() {
	err := s.store.Insert(s.T().Context(), storeUser)
	s.Require().Error(err)
	s.ErrorIs(err, users.ErrUserExists)
}
