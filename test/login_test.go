package test

import (
	"net/http"
)

func (s *IntegrationTestSuite) TestLogin() {
	loginResp, status := s.doLogin(testUsername, testPassword)
	s.Require().Equal(http.StatusOK, status)
	s.Require().NotNil(loginResp)
	s.NotEmpty(loginResp.Token)
	s.Equal(testUserID, loginResp.UserID)

	_, status = s.doLogin(testUsername, "wrong-password")
	s.Equal(http.StatusUnauthorized, status)

	_, status = s.doLogin("nobody", testPassword)
	s.Equal(http.StatusUnauthorized, status)

	_, status = s.doLogin("", "")
	s.Equal(http.StatusBadRequest, status)
}

func (s *IntegrationTestSuite) TestLogin_StoreInsertedUser() {
	loginResp, status := s.doLogin(storeUser.Username, storeUser.Password)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(storeUser.ID, loginResp.UserID)
}

func (s *IntegrationTestSuite) TestLogout() {
	loginResp, status := s.doLogin(testUsername, testPassword)
	s.Require().Equal(http.StatusOK, status)
	token := loginResp.Token

	s.Equal(http.StatusOK, s.doRequest(http.MethodGet, "/api/user-info", token, nil))

	var msg messageResponse
	s.Require().Equal(http.StatusOK, s.doRequest(http.MethodPost, "/api/logout", token, &msg))
	s.Equal("logged out", msg.Message)

	// revoked token is kept in redis
	s.Equal(http.StatusForbidden, s.doRequest(http.MethodGet, "/api/user-info", token, nil))
	s.Equal(http.StatusForbidden, s.doRequest(http.MethodPost, "/api/logout", token, nil))

	// a fresh login still works
	loginResp, status = s.doLogin(testUsername, testPassword)
	s.Require().Equal(http.StatusOK, status)
	s.Equal(http.StatusOK, s.doRequest(http.MethodGet, "/api/user-info", loginResp.Token, nil))
}

func (s *IntegrationTestSuite) TestUnauthorized() {
	s.Equal(http.StatusUnauthorized, s.doRequest(http.MethodGet, "/api/user-info", "", nil))
	s.Equal(http.StatusUnauthorized, s.doRequest(http.MethodGet, "/api/dashboard/kpis", "", nil))
	s.Equal(http.StatusForbidden, s.doRequest(http.MethodGet, "/api/user-info", "not-a-jwt", nil))
}
