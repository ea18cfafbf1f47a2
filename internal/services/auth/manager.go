// Package auth manages AutoBlog account credentials: login, registration,
// token refresh, and the on-disk credential state the backend client
// attaches to requests.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"autoblog/internal/config"
	"autoblog/internal/services"
)

// ErrNotSignedIn is returned when an operation requires a stored account session.
var ErrNotSignedIn = errors.New("not signed in")

const tokenRefreshLeeway = time.Minute

// ManagerOption customises Manager construction.
type ManagerOption func(*Manager)

// WithHTTPClient overrides the HTTP client used for auth API calls.
func WithHTTPClient(client *http.Client) ManagerOption {
	return func(m *Manager) {
		if client != nil {
			m.httpClient = client
		}
	}
}

// WithBaseURL overrides the base URL for auth API calls (used in tests).
func WithBaseURL(baseURL string) ManagerOption {
	return func(m *Manager) {
		m.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithTokenStore injects a custom persistence layer.
func WithTokenStore(store TokenStore) ManagerOption {
	return func(m *Manager) {
		m.store = store
	}
}

// Manager persists account credentials and keeps the access token current.
type Manager struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore

	stateMu sync.RWMutex
	state   credentialState
}

// NewManager builds a Manager using the provided configuration.
func NewManager(cfg *config.Config, opts ...ManagerOption) (*Manager, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	mgr := &Manager{
		baseURL:    strings.TrimRight(cfg.AuthBaseURL(), "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		store:      NewFileTokenStore(cfg.Auth.TokenPath),
	}
	for _, opt := range opts {
		opt(mgr)
	}
	if mgr.httpClient == nil {
		mgr.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if mgr.store == nil {
		mgr.store = NewFileTokenStore(cfg.Auth.TokenPath)
	}

	state, err := mgr.store.Load()
	if err != nil {
		return nil, err
	}
	mgr.state = state
	return mgr, nil
}

// SignedIn reports whether an account session is stored.
func (m *Manager) SignedIn() bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return strings.TrimSpace(m.state.Token) != ""
}

// Email returns the signed-in account email, or empty when signed out.
func (m *Manager) Email() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.Email
}

// Token returns the stored access token for request authorization.
// It satisfies the backend client's TokenSource contract and never blocks;
// expired tokens are refreshed via Refresh, not here.
func (m *Manager) Token() string {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state.Token
}

type sessionResponse struct {
	Token        string  `json:"token"`
	RefreshToken string  `json:"refreshToken"`
	ExpiresIn    float64 `json:"expiresIn"`
	User         struct {
		Email string `json:"email"`
	} `json:"user"`
}

// Login exchanges credentials for an account session and persists it.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	return m.establishSession(ctx, "/api/v1/auth/login", email, password)
}

// Register creates a new account and persists the resulting session.
func (m *Manager) Register(ctx context.Context, email, password string) error {
	return m.establishSession(ctx, "/api/v1/auth/register", email, password)
}

func (m *Manager) establishSession(ctx context.Context, path, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return errors.New("auth: email required")
	}
	if password == "" {
		return errors.New("auth: password required")
	}

	payload := struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}{Email: email, Password: password}

	var resp sessionResponse
	if err := m.call(ctx, http.MethodPost, path, payload, "", &resp); err != nil {
		return err
	}
	if strings.TrimSpace(resp.Token) == "" {
		return errors.New("auth: backend returned no token")
	}

	state := credentialState{
		Email:          firstNonEmpty(resp.User.Email, email),
		Token:          resp.Token,
		RefreshToken:   resp.RefreshToken,
		TokenExpiresAt: deriveExpiration(resp.ExpiresIn),
	}
	return m.persist(state)
}

// Refresh exchanges the stored refresh token for a new access token.
// It is a no-op while the current token still has comfortable lifetime.
func (m *Manager) Refresh(ctx context.Context) error {
	m.stateMu.RLock()
	state := m.state
	m.stateMu.RUnlock()

	if state.Token == "" {
		return ErrNotSignedIn
	}
	if !state.TokenExpiresAt.IsZero() && time.Until(state.TokenExpiresAt) > tokenRefreshLeeway {
		return nil
	}
	if state.RefreshToken == "" {
		return services.Wrap(services.ErrUnauthorized, "auth", "refresh",
			"Session expired and no refresh token stored; sign in again", nil)
	}

	payload := struct {
		RefreshToken string `json:"refreshToken"`
	}{RefreshToken: state.RefreshToken}

	var resp sessionResponse
	if err := m.call(ctx, http.MethodPost, "/api/v1/auth/refresh", payload, "", &resp); err != nil {
		return err
	}
	state.Token = resp.Token
	if resp.RefreshToken != "" {
		state.RefreshToken = resp.RefreshToken
	}
	state.TokenExpiresAt = deriveExpiration(resp.ExpiresIn)
	return m.persist(state)
}

// Account describes the signed-in account as reported by the backend.
type Account struct {
	Email string `json:"email"`
}

// CurrentUser fetches the account profile behind the stored token.
func (m *Manager) CurrentUser(ctx context.Context) (Account, error) {
	token := m.Token()
	if token == "" {
		return Account{}, ErrNotSignedIn
	}
	var account Account
	if err := m.call(ctx, http.MethodGet, "/api/v1/auth/me", nil, token, &account); err != nil {
		return Account{}, err
	}
	return account, nil
}

// Logout invalidates the backend session and clears local credentials.
// Local state is cleared even when the backend call fails.
func (m *Manager) Logout(ctx context.Context) error {
	token := m.Token()
	var callErr error
	if token != "" {
		callErr = m.call(ctx, http.MethodPost, "/api/v1/auth/logout", nil, token, nil)
	}

	m.stateMu.Lock()
	m.state = credentialState{}
	m.stateMu.Unlock()
	if err := m.store.Clear(); err != nil {
		return err
	}
	if callErr != nil && !errors.Is(callErr, services.ErrUnauthorized) {
		return callErr
	}
	return nil
}

func (m *Manager) persist(state credentialState) error {
	m.stateMu.Lock()
	defer m.stateMu.Unlock()
	if err := m.store.Save(state); err != nil {
		return err
	}
	m.state = state
	return nil
}

func (m *Manager) call(ctx context.Context, method, path string, payload any, token string, target any) error {
	var reader io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("auth request: encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, m.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("auth request: new request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("auth request: read body: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return services.Wrap(services.ErrUnauthorized, "auth", path,
			"Backend rejected credentials", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("auth request: http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("auth request: decode response: %w", err)
	}
	return nil
}

func deriveExpiration(expiresIn float64) time.Time {
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return time.Time{}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
