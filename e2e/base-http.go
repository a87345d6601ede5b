package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"

	"talkboard/auth"
)

// BaseHTTPSuite carries the shared plumbing for end-to-end scenarios run
// against a live server: configuration, an HTTP client, and token minting
// with the server's shared secret.
type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	Client *http.Client
	Tokens *auth.TokenManager
}

// SetupSuite loads the environment configuration before running tests. The
// whole suite is skipped unless BASE_URL points at a running server.
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)

	if s.Config.BaseURL == "" {
		s.T().Skip("BASE_URL not set, skipping end-to-end suite")
	}

	s.Client = &http.Client{Timeout: 30 * time.Second}
	s.Tokens = auth.NewTokenManager(s.Config.AuthSecret, time.Hour)
}

// Do issues one authenticated request and logs a colorized summary.
func (s *BaseHTTPSuite) Do(method, path, userID string, body any) *http.Response {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, s.Config.BaseURL+path, &buf)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		token, err := s.Tokens.Generate(userID)
		s.Require().NoError(err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := s.Client.Do(req)
	s.Require().NoError(err, "Failed to reach server at "+s.Config.BaseURL)

	logBuilder := strings.Builder{}
	fmt.Fprintf(&logBuilder, "HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON && buf.Len() > 0 {
		fmt.Fprintln(&logBuilder, "\nREQUEST:")
		fmt.Fprintln(&logBuilder, buf.String())
	}
	s.T().Log(color.New(color.FgGreen).Render(logBuilder.String()))
	return resp
}

// Decode reads and closes the response body into v.
func (s *BaseHTTPSuite) Decode(resp *http.Response, v any) {
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(v))
}
