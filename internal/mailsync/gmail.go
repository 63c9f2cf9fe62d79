package mailsync

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://gmail.googleapis.com"

// Client is a thin wrapper over the two Gmail REST calls the sync job
// needs: message search and message fetch. It holds no credentials; the
// caller passes the current access token on each call.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL overrides the Gmail API endpoint, used by tests.
func WithBaseURL(u string) ClientOption {
	return func(cl *Client) {
		cl.baseURL = u
	}
}

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Message is a fetched email reduced to the fields the parsers care about.
type Message struct {
	ID       string
	Subject  string
	From     string
	Received time.Time
	Body     string
}

type listResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type messageResponse struct {
	ID           string `json:"id"`
	InternalDate string `json:"internalDate"`
	Payload      struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
		Body struct {
			Data string `json:"data"`
		} `json:"body"`
		Parts []struct {
			MimeType string `json:"mimeType"`
			Body     struct {
				Data string `json:"data"`
			} `json:"body"`
		} `json:"parts"`
	} `json:"payload"`
}

// Search returns message IDs matching a Gmail search query.
func (c *Client) Search(ctx context.Context, accessToken, query string, max int) ([]string, error) {
	u := fmt.Sprintf("%s/gmail/v1/users/me/messages?q=%s&maxResults=%d",
		c.baseURL, url.QueryEscape(query), max)

	var list listResponse
	if err := c.get(ctx, accessToken, u, &list); err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	ids := make([]string, 0, len(list.Messages))
	for _, m := range list.Messages {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// Get fetches one message and flattens it to subject, sender, and the
// first text/plain body.
func (c *Client) Get(ctx context.Context, accessToken, id string) (*Message, error) {
	u := fmt.Sprintf("%s/gmail/v1/users/me/messages/%s?format=full", c.baseURL, id)

	var raw messageResponse
	if err := c.get(ctx, accessToken, u, &raw); err != nil {
		return nil, fmt.Errorf("get message %s: %w", id, err)
	}

	msg := &Message{ID: raw.ID}
	for _, h := range raw.Payload.Headers {
		switch h.Name {
		case "Subject":
			msg.Subject = h.Value
		case "From":
			msg.From = h.Value
		}
	}
	if ms, err := strconv.ParseInt(raw.InternalDate, 10, 64); err == nil {
		msg.Received = time.UnixMilli(ms).UTC()
	}

	data := raw.Payload.Body.Data
	if data == "" {
		for _, p := range raw.Payload.Parts {
			if p.MimeType == "text/plain" && p.Body.Data != "" {
				data = p.Body.Data
				break
			}
		}
	}
	if data != "" {
		if decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(data); err == nil {
			msg.Body = string(decoded)
		}
	}
	return msg, nil
}

func (c *Client) get(ctx context.Context, accessToken, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("gmail request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("gmail API error: status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
