package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/2beens/sportsee/internal/running"
	"github.com/2beens/sportsee/internal/users"
)

var storeUser = users.User{
	ID:       "user789",
	Username: "lucasdubois",
	Password: "runfast",
	UserInfos: running.RawProfile{
		FirstName: "Lucas",
		LastName:  "Dubois",
		CreatedAt: "2025-03-10",
		Age:       41,
		Weight:    78,
		Height:    181,
	},
	RunningData: []running.RawSession{
		{
			Date:           "2025-12-02",
			Distance:       8,
			Duration:       45,
			CaloriesBurned: 610,
			HeartRate:      &running.RawHeartRate{Min: 138, Max: 182, Average: 161},
		},
	},
}

type messageResponse struct {
	Message string `json:"message"`
}

func (s *IntegrationTestSuite) doLogin(username, password string) (*users.LoginResponse, int) {
	body, err := json.Marshal(users.LoginRequest{
		Username: username,
		Password: password,
	})
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, serverEndpoint+"/api/login", bytes.NewReader(body))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode
	}

	var loginResp users.LoginResponse
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&loginResp))
	return &loginResp, resp.StatusCode
}

// doRequest sends an authorized request and decodes a JSON body into out, if given.
func (s *IntegrationTestSuite) doRequest(method, path, token string, out any) int {
	req, err := http.NewRequest(method, serverEndpoint+path, nil)
	s.Require().NoError(err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)

	if out != nil && resp.StatusCode == http.StatusOK {
		s.Require().NoError(json.Unmarshal(respBody, out), fmt.Sprintf("body: %s", respBody))
	}
	return resp.StatusCode
}
