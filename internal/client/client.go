// Package client talks to a running watchroom server on behalf of one
// actor. The session cookie lives in the client's jar, so Login must
// come before anything else.
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"

	"github.com/dkeye/watchroom/internal/command"
	"github.com/dkeye/watchroom/internal/core"
	"github.com/dkeye/watchroom/internal/domain"
)

// LogPage is a slice of the audit log plus its full length.
type LogPage struct {
	Lines []string `json:"lines"`
	Total int      `json:"total"`
}

// Client is the watchroom API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a client with its own cookie jar.
func New(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// Login binds this client to an existing room member.
func (c *Client) Login(ctx context.Context, username string) error {
	body := struct {
		Username string `json:"username"`
	}{username}
	if err := c.doRequest(ctx, http.MethodPost, "/api/session", body, nil); err != nil {
		return fmt.Errorf("client.Login: %w", err)
	}
	return nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodDelete, "/api/session", nil, nil); err != nil {
		return fmt.Errorf("client.Logout: %w", err)
	}
	return nil
}

// Command executes one command line. A command that the room rejects is
// not an error: its Result says why. err is reserved for transport and
// session failures.
func (c *Client) Command(ctx context.Context, line string) (command.Result, error) {
	body := struct {
		Line string `json:"line"`
	}{line}
	var res command.Result
	err := c.doRequest(ctx, http.MethodPost, "/api/commands", body, &res)
	if err != nil && (res.Status == "" || IsStatus(err, http.StatusUnauthorized)) {
		return res, fmt.Errorf("client.Command: %w", err)
	}
	return res, nil
}

// Room returns the full room snapshot.
func (c *Client) Room(ctx context.Context) (*domain.Room, error) {
	var room domain.Room
	if err := c.get(ctx, "/api/room", &room); err != nil {
		return nil, fmt.Errorf("client.Room: %w", err)
	}
	return &room, nil
}

func (c *Client) Members(ctx context.Context) ([]core.MemberDTO, error) {
	var members []core.MemberDTO
	if err := c.get(ctx, "/api/members", &members); err != nil {
		return nil, fmt.Errorf("client.Members: %w", err)
	}
	return members, nil
}

// Log fetches the audit log; tail <= 0 fetches all of it.
func (c *Client) Log(ctx context.Context, tail int) (*LogPage, error) {
	path := "/api/log"
	if tail > 0 {
		params := url.Values{}
		params.Set("tail", strconv.Itoa(tail))
		path += "?" + params.Encode()
	}
	var page LogPage
	if err := c.get(ctx, path, &page); err != nil {
		return nil, fmt.Errorf("client.Log: %w", err)
	}
	return &page, nil
}

func (c *Client) Health(ctx context.Context) error {
	if err := c.get(ctx, "/health", nil); err != nil {
		return fmt.Errorf("client.Health: %w", err)
	}
	return nil
}

// doRequest decodes the body into out even on error statuses when it is
// JSON, so command Results survive 4xx responses.
func (c *Client) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if readErr != nil {
			return &HTTPError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		var apiErr struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if json.Unmarshal(respBody, &apiErr) == nil {
			if out != nil {
				_ = json.Unmarshal(respBody, out)
			}
			msg := apiErr.Message
			if msg == "" {
				msg = apiErr.Error
			}
			if msg != "" || apiErr.Code != "" {
				return &HTTPError{StatusCode: resp.StatusCode, Code: apiErr.Code, Message: msg}
			}
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.doRequest(ctx, http.MethodGet, path, nil, out)
}
