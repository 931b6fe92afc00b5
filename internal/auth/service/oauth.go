package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/domain"
	"github.com/D-Arox/BluFox-Studio-sub000/internal/auth/store"
	"github.com/D-Arox/BluFox-Studio-sub000/pkg/cryptox"

	"golang.org/x/time/rate"
)

// DefaultStateTTL bounds how long a pending authorization round-trip stays
// valid before the state row is considered stale.
const DefaultStateTTL = 10 * time.Minute

// ProviderConfig describes the external OAuth2 provider endpoints.
type ProviderConfig struct {
	ClientID     string
	ClientSecret string
	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string

	// ProfileURL optionally enriches the identity with display name and
	// avatar. Failures here degrade gracefully instead of failing login.
	ProfileURL string

	// RevokeURL, when set, is where discarded provider tokens are revoked.
	RevokeURL string

	RedirectURI string
	Prompt      string
	Scopes      []string
}

// PKCEChallenge holds a PKCE verifier and challenge pair. The verifier
// stays server-side in the oauth_states table; only the challenge is sent
// to the provider's authorize endpoint.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// GeneratePKCEChallenge creates a new code verifier and its S256 challenge
// per RFC 7636.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	hash := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(hash[:])

	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: challenge,
		Method:    "S256",
	}, nil
}

// OAuthService drives the authorization-code flow against the external
// provider: it creates single-use state rows, exchanges callback codes for
// provider tokens, and fetches the authenticated identity.
type OAuthService struct {
	Provider ProviderConfig
	Store    store.Store
	Logger   *slog.Logger

	// HTTPClient talks to the provider. Defaults to a 30s-timeout client.
	HTTPClient *http.Client

	// StateTTL defaults to DefaultStateTTL.
	StateTTL time.Duration

	// limiter throttles outbound provider calls so a burst of callbacks
	// cannot trip the provider's own rate limits.
	limiter *rate.Limiter
}

func NewOAuthService(provider ProviderConfig, st store.Store, logger *slog.Logger) *OAuthService {
	return &OAuthService{
		Provider:   provider,
		Store:      st,
		Logger:     logger,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		StateTTL:   DefaultStateTTL,
		limiter:    rate.NewLimiter(rate.Limit(10), 20),
	}
}

// BuildAuthorizationURL persists a pending state row and returns the
// provider authorize URL the browser should be redirected to.
func (s *OAuthService) BuildAuthorizationURL(ctx context.Context, rc domain.RequestContext, remember bool) (string, error) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	pkce, err := GeneratePKCEChallenge()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	err = s.Store.OAuthStates().CreateOAuthState(ctx, domain.OAuthState{
		State:       state,
		Verifier:    pkce.Verifier,
		ClientIP:    rc.ClientIP,
		UserAgent:   rc.UserAgent,
		RedirectURI: s.Provider.RedirectURI,
		Remember:    remember,
		ExpiresAt:   now.Add(s.stateTTL()),
		CreatedAt:   now,
	})
	if err != nil {
		return "", fmt.Errorf("failed to persist oauth state: %w", err)
	}

	params := url.Values{}
	params.Set("response_type", "code")
	params.Set("client_id", s.Provider.ClientID)
	params.Set("redirect_uri", s.Provider.RedirectURI)
	params.Set("state", state)
	params.Set("code_challenge", pkce.Challenge)
	params.Set("code_challenge_method", pkce.Method)
	if len(s.Provider.Scopes) > 0 {
		params.Set("scope", strings.Join(s.Provider.Scopes, " "))
	}
	if s.Provider.Prompt != "" {
		params.Set("prompt", s.Provider.Prompt)
	}

	return s.Provider.AuthorizeURL + "?" + params.Encode(), nil
}

// ExchangeCode consumes the state row (single use) and exchanges the
// authorization code for provider tokens. The consumed state is returned so
// the caller can honor its remember flag.
func (s *OAuthService) ExchangeCode(ctx context.Context, code, state string) (domain.TokenResponse, domain.OAuthState, error) {
	if code == "" || state == "" {
		return domain.TokenResponse{}, domain.OAuthState{}, ErrInvalidState
	}

	pending, err := s.Store.OAuthStates().ConsumeOAuthState(ctx, state)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenResponse{}, domain.OAuthState{}, ErrInvalidState
		}
		return domain.TokenResponse{}, domain.OAuthState{}, err
	}

	if pending.Expired(time.Now().UTC()) {
		return domain.TokenResponse{}, domain.OAuthState{}, ErrStateExpired
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", pending.RedirectURI)
	form.Set("client_id", s.Provider.ClientID)
	form.Set("client_secret", s.Provider.ClientSecret)
	form.Set("code_verifier", pending.Verifier)

	body, err := s.postForm(ctx, s.Provider.TokenURL, form)
	if err != nil {
		return domain.TokenResponse{}, domain.OAuthState{}, err
	}

	var tokens domain.TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil || tokens.AccessToken == "" {
		return domain.TokenResponse{}, domain.OAuthState{}, ErrTokenExchange
	}

	return tokens, pending, nil
}

// Refresh exchanges a provider refresh token for a fresh token set.
func (s *OAuthService) Refresh(ctx context.Context, refreshToken string) (domain.TokenResponse, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", s.Provider.ClientID)
	form.Set("client_secret", s.Provider.ClientSecret)

	body, err := s.postForm(ctx, s.Provider.TokenURL, form)
	if err != nil {
		return domain.TokenResponse{}, err
	}

	var tokens domain.TokenResponse
	if err := json.Unmarshal(body, &tokens); err != nil || tokens.AccessToken == "" {
		return domain.TokenResponse{}, ErrTokenExchange
	}
	return tokens, nil
}

// FetchIdentity resolves the provider access token to an identity. A
// missing subject is an error; missing profile enrichment is not.
func (s *OAuthService) FetchIdentity(ctx context.Context, accessToken string) (domain.Identity, error) {
	var claims struct {
		Sub               string `json:"sub"`
		Username          string `json:"username"`
		PreferredUsername string `json:"preferred_username"`
		Email             string `json:"email"`
		Name              string `json:"name"`
		Picture           string `json:"picture"`
	}

	body, err := s.getJSON(ctx, s.Provider.UserInfoURL, accessToken)
	if err != nil {
		if errors.Is(err, ErrProviderUnavailable) {
			return domain.Identity{}, err
		}
		return domain.Identity{}, ErrIdentityFetch
	}
	if err := json.Unmarshal(body, &claims); err != nil {
		return domain.Identity{}, ErrIdentityFetch
	}
	if claims.Sub == "" {
		return domain.Identity{}, ErrIdentityFetch
	}

	id := domain.Identity{
		Subject:     claims.Sub,
		Username:    claims.Username,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
	}
	if id.Username == "" {
		id.Username = claims.PreferredUsername
	}
	if id.Username == "" {
		id.Username = claims.Sub
	}

	s.enrichProfile(ctx, accessToken, &id)
	return id, nil
}

// enrichProfile best-effort fills display name and avatar from the
// provider's profile endpoint. Any failure is logged and ignored.
func (s *OAuthService) enrichProfile(ctx context.Context, accessToken string, id *domain.Identity) {
	if s.Provider.ProfileURL == "" {
		return
	}

	body, err := s.getJSON(ctx, s.Provider.ProfileURL, accessToken)
	if err != nil {
		s.Logger.Warn("profile enrichment failed", "error", err)
		return
	}

	var profile struct {
		DisplayName string `json:"display_name"`
		AvatarURL   string `json:"avatar_url"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		s.Logger.Warn("profile enrichment returned malformed body", "error", err)
		return
	}

	if profile.DisplayName != "" {
		id.DisplayName = profile.DisplayName
	}
	if profile.AvatarURL != "" {
		id.AvatarURL = profile.AvatarURL
	}
}

// Revoke best-effort invalidates a provider token. Errors are logged only;
// login and logout never depend on the provider's revoke endpoint being
// reachable, and a missing RevokeURL makes this a no-op.
func (s *OAuthService) Revoke(ctx context.Context, token, tokenType string) {
	if s.Provider.RevokeURL == "" || token == "" {
		return
	}

	form := url.Values{}
	form.Set("token", token)
	if tokenType != "" {
		form.Set("token_type_hint", tokenType)
	}
	form.Set("client_id", s.Provider.ClientID)
	form.Set("client_secret", s.Provider.ClientSecret)

	if _, err := s.postForm(ctx, s.Provider.RevokeURL, form); err != nil {
		s.Logger.Warn("provider token revocation failed", "error", err)
	}
}

func (s *OAuthService) stateTTL() time.Duration {
	if s.StateTTL > 0 {
		return s.StateTTL
	}
	return DefaultStateTTL
}

func (s *OAuthService) httpClient() *http.Client {
	if s.HTTPClient != nil {
		return s.HTTPClient
	}
	return &http.Client{Timeout: 30 * time.Second}
}

func (s *OAuthService) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}

func (s *OAuthService) postForm(ctx context.Context, endpoint string, form url.Values) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, ErrProviderUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, ErrProviderUnavailable
	}

	if resp.StatusCode >= 500 {
		return nil, ErrProviderUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		s.Logger.Warn("provider rejected request", "status", resp.StatusCode, "endpoint", endpoint)
		return nil, ErrTokenExchange
	}
	return body, nil
}

func (s *OAuthService) getJSON(ctx context.Context, endpoint, accessToken string) ([]byte, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient().Do(req)
	if err != nil {
		return nil, ErrProviderUnavailable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, ErrProviderUnavailable
	}

	if resp.StatusCode >= 500 {
		return nil, ErrProviderUnavailable
	}
	if resp.StatusCode != http.StatusOK {
		return nil, ErrIdentityFetch
	}
	return body, nil
}
