package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tekvoro/web-platform/internal/core/domain"
)

const remoteTimeout = 10 * time.Second

// RemoteVerifier validates credentials against the collector's /auth/login
// endpoint. The token of the last successful login is kept for admin queries.
type RemoteVerifier struct {
	baseURL string
	client  *http.Client

	mu    sync.RWMutex
	token string
}

// NewRemoteVerifier returns a verifier for baseURL. A nil client gets a
// default with a 10s timeout.
func NewRemoteVerifier(baseURL string, client *http.Client) *RemoteVerifier {
	if client == nil {
		client = &http.Client{Timeout: remoteTimeout}
	}
	return &RemoteVerifier{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

type remoteLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type remoteLoginResponse struct {
	Token string `json:"token"`
	User  struct {
		ID       string      `json:"id"`
		Username string      `json:"username"`
		Role     domain.Role `json:"role"`
	} `json:"user"`
}

func (v *RemoteVerifier) Verify(ctx context.Context, username, password string) (*domain.User, error) {
	body, err := json.Marshal(remoteLoginRequest{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, v.baseURL+"/auth/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote login: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote login: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, domain.ErrInvalidCredentials
	case resp.StatusCode != http.StatusOK:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("remote login: unexpected status %d", resp.StatusCode)
	}

	var out remoteLoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("remote login: decode: %w", err)
	}
	if out.User.ID == "" || out.User.Username == "" || !out.User.Role.Valid() {
		return nil, fmt.Errorf("remote login: incomplete user in response")
	}

	v.mu.Lock()
	v.token = out.Token
	v.mu.Unlock()

	return &domain.User{ID: out.User.ID, Username: out.User.Username, Role: out.User.Role}, nil
}

// Token returns the bearer token of the last successful login.
func (v *RemoteVerifier) Token() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.token
}
