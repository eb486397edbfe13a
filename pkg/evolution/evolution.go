// Package evolution is a minimal client for the Evolution API, the WhatsApp
// gateway that delivers the agent's replies.
package evolution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Config struct {
	URL        string        `split_words:"true" required:"true"`
	InstanceID string        `split_words:"true" required:"true"`
	APIKey     string        `split_words:"true" required:"true"`
	Timeout    time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL    string
	instanceID string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.URL)
	if baseURL == "" {
		return nil, errors.New("evolution url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(cfg.InstanceID) == "" {
		return nil, errors.New("evolution instance id is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		instanceID: strings.TrimSpace(cfg.InstanceID),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func MustNew(cfg Config) *Client {
	client, err := NewClient(cfg)
	if err != nil {
		panic(err)
	}
	return client
}

type sendTextRequest struct {
	Number   string `json:"number"`
	Text     string `json:"text"`
	Delay    int    `json:"delay"`
	Presence string `json:"presence"`
}

// SendText delivers one text message. A short delay with a composing presence
// makes the reply read as typed rather than instantaneous.
func (c *Client) SendText(ctx context.Context, to, text string) error {
	payload := sendTextRequest{
		Number:   NormalizeJID(to),
		Text:     text,
		Delay:    1200,
		Presence: "composing",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("evolution: encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/message/sendText/%s", c.baseURL, url.PathEscape(c.instanceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("evolution: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("evolution: send text: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("evolution: send text: unexpected status %d", resp.StatusCode)
	}
	return nil
}

// NormalizeJID converts a WhatsApp address to the form the API expects.
// Hidden-list JIDs (@lid) pass through whole; standard JIDs are reduced to
// the bare number.
func NormalizeJID(to string) string {
	to = strings.TrimSpace(to)
	if strings.HasSuffix(to, "@lid") {
		return to
	}
	to = strings.TrimSuffix(to, "@s.whatsapp.net")
	to = strings.TrimPrefix(to, "+")
	return strings.ReplaceAll(to, " ", "")
}
