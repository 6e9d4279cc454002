// Package telegram provides the delivery gateway client for the Telegram
// Bot API: captioned photos and plain messages with inline link keyboards.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Button is a single inline keyboard link button.
type Button struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// Message is a formatted notification ready for delivery. When PhotoURL is
// set the text travels as a photo caption; otherwise as a plain message.
type Message struct {
	Text     string
	PhotoURL string
	Buttons  [][]Button
}

// Client defines the delivery gateway operations.
type Client interface {
	// Send delivers a message to the configured chat. Delivery is not
	// retried; the error is surfaced to the caller.
	Send(ctx context.Context, msg Message) error
}

// Option configures the Telegram client.
type Option func(*httpClient)

// WithBaseURL sets a custom API base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles outbound sends. Telegram caps bot messages per
// chat; the default of one send per two seconds stays well under it.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

type httpClient struct {
	botToken string
	chatID   string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
}

// NewClient creates a Telegram Bot API client bound to a single chat.
func NewClient(botToken, chatID string, opts ...Option) Client {
	c := &httpClient{
		botToken: botToken,
		chatID:   chatID,
		baseURL:  "https://api.telegram.org",
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(0.5), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

func (c *httpClient) Send(ctx context.Context, msg Message) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "telegram: rate limit wait")
	}

	method := "sendMessage"
	payload := map[string]any{
		"chat_id":    c.chatID,
		"parse_mode": "HTML",
	}
	if msg.PhotoURL != "" {
		method = "sendPhoto"
		payload["photo"] = msg.PhotoURL
		payload["caption"] = msg.Text
	} else {
		payload["text"] = msg.Text
		payload["disable_web_page_preview"] = true
	}
	if len(msg.Buttons) > 0 {
		payload["reply_markup"] = map[string]any{"inline_keyboard": msg.Buttons}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return eris.Wrap(err, "telegram: marshal payload")
	}

	reqURL := fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return eris.Wrap(err, "telegram: create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "telegram: request failed")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "telegram: read response")
	}

	var result apiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return eris.Wrapf(err, "telegram: unmarshal response (status %d)", resp.StatusCode)
	}
	if !result.OK {
		return eris.Errorf("telegram: %s rejected (status %d): %s", method, resp.StatusCode, result.Description)
	}

	return nil
}
