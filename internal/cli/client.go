package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"idlegalaxy/internal/api"
	"idlegalaxy/internal/game"
	"idlegalaxy/internal/syncq"

	"github.com/gorilla/websocket"
)

// StatusError is a non-2xx reply. Anything else coming back from a request
// means the server was not reached.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Code, e.Body)
}

// IsOffline reports whether err means the request never got an answer.
func IsOffline(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	return !errors.As(err, &se) && !errors.Is(err, context.Canceled)
}

type Client struct {
	BaseURL  string
	ClientID string
	HTTP     *http.Client
}

func NewClient(baseURL, clientID string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		ClientID: clientID,
		HTTP: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) State(ctx context.Context) (game.View, error) {
	var out game.View
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/state", nil, &out, "")
	return out, err
}

func (c *Client) Trigger(ctx context.Context, a game.Action, idem string) (api.ActionResult, error) {
	var out api.ActionResult
	path := api.ActionPath(a)
	if path == "" {
		return out, fmt.Errorf("%w: %q", game.ErrUnknownAction, a)
	}
	err := c.jsonRequest(ctx, http.MethodPost, path, nil, &out, idem)
	return out, err
}

type ReplayResult struct {
	Action         string `json:"action"`
	IdempotencyKey string `json:"idempotency_key"`
	Changed        bool   `json:"changed"`
	Replayed       bool   `json:"replayed"`
	Error          string `json:"error,omitempty"`
}

type ReplayResponse struct {
	Results []ReplayResult `json:"results"`
	State   game.View      `json:"state"`
}

func (c *Client) SyncReplay(ctx context.Context, commands []syncq.Command) (ReplayResponse, error) {
	var out ReplayResponse
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/sync/replay", map[string]any{
		"commands": commands,
	}, &out, "")
	return out, err
}

// Stream calls fn with every state pushed by the server until ctx ends,
// the connection drops or fn returns an error.
func (c *Client) Stream(ctx context.Context, fn func(game.View) error) error {
	url := "ws" + strings.TrimPrefix(c.BaseURL, "http") + "/v1/stream"
	header := http.Header{}
	if c.ClientID != "" {
		header.Set("X-Client-ID", c.ClientID)
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return fmt.Errorf("dial stream: %w", err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var msg struct {
			Type  string    `json:"type"`
			State game.View `json:"state"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		if msg.Type != "state" {
			continue
		}
		if err := fn(msg.State); err != nil {
			return err
		}
	}
}

func (c *Client) jsonRequest(ctx context.Context, method, path string, in any, out any, idem string) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.ClientID != "" {
		req.Header.Set("X-Client-ID", c.ClientID)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
