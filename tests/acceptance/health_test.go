package acceptance

import (
	"io"
	"net/http"
)

func (s *Suite) TestHealthEndpoint() {
	var body map[string]any
	status := s.newClient().do(http.MethodGet, "/health", nil, &body)

	s.Equal(http.StatusOK, status, "Expected status 200")
	s.Equal("pass", body["status"])
}

func (s *Suite) TestMetricsEndpoint() {
	resp, err := http.Get(s.BaseURL + "/metrics")
	s.Require().NoError(err)
	defer resp.Body.Close()

	s.Equal(http.StatusOK, resp.StatusCode)
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Contains(string(raw), "go_goroutines")
}

func (s *Suite) TestUnknownRoute() {
	s.Equal(http.StatusNotFound, s.newClient().do(http.MethodGet, "/api/nowhere", nil, nil))
}
