package firebase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"take-a-paw/internal/platform/httpclient"
	"take-a-paw/internal/ports/auth"
)

var (
	ErrNotConfigured = errors.New("firebase client not configured")
	ErrUnauthorized  = errors.New("firebase token rejected")
	ErrUpstream      = errors.New("firebase upstream error")
)

const defaultBaseURL = "https://identitytoolkit.googleapis.com/v1"

// Config del cliente de Identity Toolkit. APIKey viene de env.
type Config struct {
	APIKey  string
	BaseURL string // override para tests; vacío = producción
	Timeout time.Duration
}

type Client struct {
	apiKey string
	http   *httpclient.Client
}

func NewClient(cfg Config) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	hc, err := httpclient.NewWithBaseURL(base, timeout)
	if err != nil {
		hc = httpclient.New(timeout)
		hc.BaseURL = defaultBaseURL
	}
	return &Client{
		apiKey: strings.TrimSpace(cfg.APIKey),
		http:   hc,
	}
}

func (c *Client) IsConfigured() bool {
	return c != nil && c.apiKey != ""
}

type lookupRequest struct {
	IDToken string `json:"idToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID          string `json:"localId"`
		Email            string `json:"email"`
		DisplayName      string `json:"displayName"`
		PhotoURL         string `json:"photoUrl"`
		ProviderUserInfo []struct {
			ProviderID string `json:"providerId"`
		} `json:"providerUserInfo"`
	} `json:"users"`
}

// Lookup valida el ID token contra accounts:lookup y devuelve los claims.
func (c *Client) Lookup(ctx context.Context, idToken string) (auth.Claims, error) {
	if !c.IsConfigured() {
		return auth.Claims{}, ErrNotConfigured
	}

	var out lookupResponse
	path := fmt.Sprintf("/accounts:lookup?key=%s", c.apiKey)
	err := c.http.DoJSON(ctx, "POST", path, nil, lookupRequest{IDToken: idToken}, &out)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 {
			// Token vencido o inválido: el backend lo trata como 401.
			return auth.Claims{}, ErrUnauthorized
		}
		return auth.Claims{}, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if len(out.Users) == 0 {
		return auth.Claims{}, ErrUnauthorized
	}

	u := out.Users[0]
	claims := auth.Claims{
		UID:     u.LocalID,
		Email:   u.Email,
		Name:    u.DisplayName,
		Picture: u.PhotoURL,
	}
	if len(u.ProviderUserInfo) > 0 {
		claims.Provider = u.ProviderUserInfo[0].ProviderID
	}
	return claims, nil
}
