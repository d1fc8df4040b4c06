// Package line is a minimal client for the LINE Messaging API text
// endpoints. Delivery is single-attempt: a non-2xx response is reported in
// the Result, never retried.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"
)

const (
	apiBase = "https://api.line.me"

	pushPath      = "/v2/bot/message/push"
	broadcastPath = "/v2/bot/message/broadcast"

	// summaryLimit caps how much of a response body is surfaced to the
	// operator.
	summaryLimit = 200
)

// Message is a single text message in the Messaging API wire shape.
type Message struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type pushPayload struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

type broadcastPayload struct {
	Messages []Message `json:"messages"`
}

// Result reports the outcome of one send attempt.
type Result struct {
	Route   string // "push" or "broadcast"
	Status  int    // HTTP status code
	OK      bool   // 2xx
	Summary string // clipped response body
}

// Client talks to the Messaging API with a channel access token. Zero-value
// fields of a hand-built Client are not usable; construct it with New.
type Client struct {
	Token   string
	BaseURL string
	HTTP    *http.Client
}

// New returns a Client for the given channel access token.
func New(token string) *Client {
	return &Client{
		Token:   token,
		BaseURL: apiBase,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Push sends one text message to a single recipient ID.
func (c *Client) Push(ctx context.Context, to, text string) (Result, error) {
	if to == "" {
		return Result{Route: "push"}, errors.New("push requires a recipient ID")
	}
	payload := pushPayload{To: to, Messages: textMessages(text)}
	return c.send(ctx, "push", pushPath, payload)
}

// Broadcast sends one text message to all subscribers of the channel.
func (c *Client) Broadcast(ctx context.Context, text string) (Result, error) {
	payload := broadcastPayload{Messages: textMessages(text)}
	return c.send(ctx, "broadcast", broadcastPath, payload)
}

func (c *Client) send(ctx context.Context, route, path string, payload any) (Result, error) {
	res := Result{Route: route}

	body, err := json.Marshal(payload)
	if err != nil {
		return res, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return res, err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	res.Status = resp.StatusCode
	res.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	res.Summary = Clip(string(respBody), summaryLimit)
	return res, nil
}

func textMessages(text string) []Message {
	return []Message{{Type: "text", Text: text}}
}

// Clip bounds s to limit runes total, replacing the tail with "…" when the
// text is longer.
func Clip(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
