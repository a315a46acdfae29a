package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) Register(ctx context.Context, username, password string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/register", "", map[string]any{
		"username": username,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Login(ctx context.Context, username, password string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/auth/login", "", map[string]any{
		"username": username,
		"password": password,
	}, &out, "")
	return out, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.jsonRequest(ctx, http.MethodPost, "/v1/auth/logout", token, map[string]any{}, nil, "")
}

func (c *Client) ListPlayers(ctx context.Context, token, sport string, all bool) (map[string]any, error) {
	q := url.Values{}
	if sport != "" {
		q.Set("sport", sport)
	}
	if all {
		q.Set("all", "1")
	}
	path := "/v1/players"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, token, nil, &out, "")
	return out, err
}

func (c *Client) PlayerDetail(ctx context.Context, token string, playerID int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/players/"+strconv.FormatInt(playerID, 10), token, nil, &out, "")
	return out, err
}

func (c *Client) Quote(ctx context.Context, token string, playerID int64, side string, shares int64) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/quotes", token, map[string]any{
		"player_id": playerID,
		"side":      side,
		"shares":    shares,
	}, &out, "")
	return out, err
}

func (c *Client) Trade(ctx context.Context, token string, playerID int64, side string, shares, expectedTotal int64, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/trades", token, map[string]any{
		"player_id":      playerID,
		"side":           side,
		"shares":         shares,
		"expected_total": expectedTotal,
	}, &out, idem)
	return out, err
}

func (c *Client) Portfolio(ctx context.Context, token string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, "/v1/portfolio", token, nil, &out, "")
	return out, err
}

func (c *Client) Transactions(ctx context.Context, token string, limit int) (map[string]any, error) {
	path := "/v1/transactions"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodGet, path, token, nil, &out, "")
	return out, err
}

func (c *Client) LaunchPlayer(ctx context.Context, token string, body map[string]any, idem string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/players", token, body, &out, idem)
	return out, err
}

func (c *Client) SetListing(ctx context.Context, token string, playerID int64, listed bool) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost,
		fmt.Sprintf("/v1/admin/players/%d/listing", playerID), token,
		map[string]any{"listed": listed}, &out, "")
	return out, err
}

func (c *Client) RecordStats(ctx context.Context, token string, stats []map[string]any) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost, "/v1/admin/stats", token, map[string]any{
		"stats": stats,
	}, &out, "")
	return out, err
}

func (c *Client) SettleWeek(ctx context.Context, token string, week int) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost,
		"/v1/admin/settlements/weeks/"+strconv.Itoa(week), token, map[string]any{}, &out, "")
	return out, err
}

func (c *Client) CloseSeason(ctx context.Context, token, season string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost,
		"/v1/admin/seasons/"+url.PathEscape(season)+"/close", token, map[string]any{}, &out, "")
	return out, err
}

func (c *Client) ResetSeason(ctx context.Context, token, season string) (map[string]any, error) {
	var out map[string]any
	err := c.jsonRequest(ctx, http.MethodPost,
		"/v1/admin/seasons/"+url.PathEscape(season)+"/reset", token, map[string]any{}, &out, "")
	return out, err
}

func (c *Client) jsonRequest(ctx context.Context, method, path, token string, in any, out any, idem string) error {
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
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
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
		return fmt.Errorf("api status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
