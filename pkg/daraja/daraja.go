// Package daraja wraps the Safaricom Daraja REST API for Lipa Na
// M-Pesa online (STK push) payments.
package daraja

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"
)

// API base URLs per environment.
const (
	SandboxBaseURL    = "https://sandbox.safaricom.co.ke"
	ProductionBaseURL = "https://api.safaricom.co.ke"
)

// Config holds the Daraja app credentials and till settings.
type Config struct {
	Environment     string        `mapstructure:"environment"`
	ConsumerKey     string        `mapstructure:"consumer_key"`
	ConsumerSecret  string        `mapstructure:"consumer_secret"`
	ShortCode       string        `mapstructure:"short_code"`
	Passkey         string        `mapstructure:"passkey"`
	CallbackURL     string        `mapstructure:"callback_url"`
	TransactionType string        `mapstructure:"transaction_type"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// Client is a Daraja API client. It caches the OAuth access token
// until shortly before expiry and is safe for concurrent use.
type Client struct {
	config     *Config
	baseURL    string
	httpClient *http.Client
	now        func() time.Time

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a Daraja client.
func NewClient(config *Config) *Client {
	baseURL := SandboxBaseURL
	if config.Environment == "production" {
		baseURL = ProductionBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		config:     config,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		now:        time.Now,
	}
}

// SetBaseURL overrides the API base URL, mainly for tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// APIError is a non-2xx response from the Daraja API.
type APIError struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	HTTPStatus   int    `json:"-"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("daraja: %s (code=%s, request=%s, http=%d)",
		e.ErrorMessage, e.ErrorCode, e.RequestID, e.HTTPStatus)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// accessToken returns a cached OAuth token, refreshing when it is
// within 30 seconds of expiry.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && c.now().Before(c.tokenExpiry.Add(-30*time.Second)) {
		return c.token, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.config.ConsumerKey, c.config.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("daraja: token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", decodeAPIError(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("daraja: decode token: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("daraja: empty access token")
	}

	ttl := 3600 * time.Second
	if secs, err := time.ParseDuration(tr.ExpiresIn + "s"); err == nil && secs > 0 {
		ttl = secs
	}
	c.token = tr.AccessToken
	c.tokenExpiry = c.now().Add(ttl)
	return c.token, nil
}

// postJSON sends an authenticated POST and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("daraja: %s: %w", path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return decodeAPIError(resp.StatusCode, respBody)
	}
	return json.Unmarshal(respBody, out)
}

func decodeAPIError(status int, body []byte) error {
	apiErr := &APIError{HTTPStatus: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.ErrorMessage == "" {
		apiErr.ErrorMessage = strings.TrimSpace(string(body))
	}
	return apiErr
}

// timestampLayout is the Daraja password timestamp format.
const timestampLayout = "20060102150405"

// GeneratePassword builds the STK push password for the given instant:
// base64(shortcode + passkey + timestamp). It returns the password and
// the timestamp string that must accompany it.
func GeneratePassword(shortCode, passkey string, t time.Time) (password, timestamp string) {
	timestamp = t.Format(timestampLayout)
	password = base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
	return password, timestamp
}

var phonePattern = regexp.MustCompile(`^254(7|1)\d{8}$`)

// FormatPhone normalizes a Kenyan MSISDN to the 2547XXXXXXXX /
// 2541XXXXXXXX form the API requires. Accepts 07..., +2547...,
// 2547... and bare 7.../1... inputs.
func FormatPhone(raw string) (string, error) {
	phone := strings.Map(func(r rune) rune {
		if r == ' ' || r == '-' {
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "0") {
		phone = "254" + phone[1:]
	}
	if len(phone) == 9 && (phone[0] == '7' || phone[0] == '1') {
		phone = "254" + phone
	}
	if !phonePattern.MatchString(phone) {
		return "", fmt.Errorf("daraja: invalid phone number %q", raw)
	}
	return phone, nil
}
