// Package twilio sends WhatsApp messages through the Twilio Messages API.
package twilio

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Client sends WhatsApp messages for one Twilio account.
type Client struct {
	httpClient *http.Client
	baseURL    string
	accountSID string
	authToken  string
	from       string
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL overrides the API endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = baseURL
		}
	}
}

// NewClient creates a Twilio WhatsApp client. The from number is the
// WhatsApp-enabled sender, with or without the whatsapp: prefix.
func NewClient(accountSID, authToken, from string, opts ...Option) (*Client, error) {
	if accountSID == "" || authToken == "" {
		return nil, eris.New("twilio: credentials not configured")
	}
	if from == "" {
		return nil, eris.New("twilio: from number not configured")
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://api.twilio.com",
		accountSID: accountSID,
		authToken:  authToken,
		from:       whatsappAddr(from),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func whatsappAddr(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}

// SendWhatsApp delivers one message and returns the Twilio message SID.
func (c *Client) SendWhatsApp(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("From", c.from)
	form.Set("To", whatsappAddr(to))
	form.Set("Body", body)

	endpoint := c.baseURL + "/2010-04-01/Accounts/" + c.accountSID + "/Messages.json"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "twilio: build request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "twilio: send request")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", eris.Errorf("twilio: send returned %d", resp.StatusCode)
	}

	var payload struct {
		SID string `json:"sid"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", eris.Wrap(err, "twilio: decode response")
	}

	zap.L().Info("whatsapp message sent",
		zap.String("message_sid", payload.SID))
	return payload.SID, nil
}
