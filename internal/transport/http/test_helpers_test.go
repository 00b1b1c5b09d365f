package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sidechat/sidechat-server/internal/auth"
	"github.com/sidechat/sidechat-server/internal/config"
	"github.com/sidechat/sidechat-server/internal/core"
	"github.com/sidechat/sidechat-server/internal/log"
	"github.com/sidechat/sidechat-server/internal/service/dispatch"
	"github.com/sidechat/sidechat-server/internal/service/requests"
	"github.com/sidechat/sidechat-server/internal/store/sqlite"
)

// startTestServer wires the full stack against an in-memory database.
func startTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := log.Nop()

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret-change-me"),
		Issuer:   "test",
		Audience: "test",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub(32)
	requestService := requests.New(st, hub)
	dispatcher := dispatch.New(st, hub)

	server := NewServer(hub, authService, requestService, dispatcher, st, config.Config{
		Addr:              ":0",
		ReadHeaderTimeout: time.Second,
		ShutdownTimeout:   time.Second,
	}, logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts
}

// doJSON performs a JSON request and decodes the response body into out.
func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body, out any) int {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, ts.URL+path, reqBody)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
			t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

// registerUser creates a user through the API and returns their token.
func registerUser(t *testing.T, ts *httptest.Server, username, password string) string {
	t.Helper()

	var resp AuthResponse
	status := doJSON(t, ts, http.MethodPost, "/api/register", "", RegisterRequest{
		Username: username,
		Password: password,
	}, &resp)
	if status != http.StatusCreated {
		t.Fatalf("register %s: unexpected status %d", username, status)
	}
	return resp.Token
}
