package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"FlightSentinel/internal/model"
)

// AmadeusFetcher implements Fetcher against the Amadeus self-service
// flight-offers API using the OAuth2 client-credentials grant.
type AmadeusFetcher struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	Client       *http.Client

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewAmadeusFetcher creates a new fetcher with optional proxy support.
func NewAmadeusFetcher(baseURL, clientID, clientSecret, proxyURL string) *AmadeusFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &AmadeusFetcher{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *AmadeusFetcher) Name() string { return "amadeus" }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached token, requesting a new one shortly before expiry.
func (f *AmadeusFetcher) accessToken(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.token != "" && time.Now().Before(f.tokenExpiry) {
		return f.token, nil
	}
	if f.ClientID == "" || f.ClientSecret == "" {
		return "", fmt.Errorf("%w: client id and secret are required", ErrAuthRequired)
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", f.ClientID)
	form.Set("client_secret", f.ClientSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.BaseURL+"/v1/security/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: token request: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	if err := classifyStatus(resp, "token request"); err != nil {
		return "", err
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", ErrAuthRequired)
	}
	f.token = tok.AccessToken
	f.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - 30*time.Second)
	return f.token, nil
}

// FetchOffers runs one flight-offer search and returns the raw offer records.
func (f *AmadeusFetcher) FetchOffers(ctx context.Context, params model.SearchParams) ([]map[string]any, error) {
	token, err := f.accessToken(ctx)
	if err != nil {
		return nil, err
	}
	endpoint := f.BaseURL + "/v2/shopping/flight-offers?" + searchQuery(params).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := f.Client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: fetch offers: %v", ErrTransient, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusUnauthorized {
		f.mu.Lock()
		f.token = ""
		f.mu.Unlock()
	}
	if err := classifyStatus(resp, "fetch offers"); err != nil {
		return nil, err
	}

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode offers: %w", err)
	}
	return payload.Data, nil
}

func searchQuery(p model.SearchParams) url.Values {
	v := url.Values{}
	v.Set("originLocationCode", p.Origin)
	v.Set("destinationLocationCode", p.Destination)
	v.Set("departureDate", p.DepartDate)
	if p.ReturnDate != "" {
		v.Set("returnDate", p.ReturnDate)
	}
	adults := p.Adults
	if adults <= 0 {
		adults = 1
	}
	v.Set("adults", strconv.Itoa(adults))
	if p.Currency != "" {
		v.Set("currencyCode", p.Currency)
	}
	if p.NonStop {
		v.Set("nonStop", "true")
	}
	if p.MaxResults > 0 {
		v.Set("max", strconv.Itoa(p.MaxResults))
	}
	return v
}

func classifyStatus(resp *http.Response, op string) error {
	if resp.StatusCode < 400 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	msg := strings.TrimSpace(string(body))
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: %s: status %d, body: %s", ErrAuthRequired, op, resp.StatusCode, msg)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: status %d, body: %s", ErrRateLimited, op, resp.StatusCode, msg)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s: status %d, body: %s", ErrTransient, op, resp.StatusCode, msg)
	default:
		return fmt.Errorf("%s: status %d, body: %s", op, resp.StatusCode, msg)
	}
}
