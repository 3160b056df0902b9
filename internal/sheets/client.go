package sheets

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/shinyes/pastpaper/internal/config"
)

var ErrDisabled = errors.New("spreadsheet sync is not configured")

const maxRedirects = 5

// Payload is the spreadsheet endpoint's JSON envelope.
type Payload struct {
	Data      string `json:"data"`
	UserGroup string `json:"userGroup"`
	Error     bool   `json:"error"`
	Message   string `json:"message"`
}

type Client struct {
	endpoint string
	username string
	timeout  time.Duration
}

func NewClient(cfg config.SheetsConfig) *Client {
	return &Client{
		endpoint: strings.TrimSpace(cfg.URL),
		username: strings.TrimSpace(cfg.Username),
		timeout:  cfg.Timeout,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.endpoint != ""
}

// Fetch downloads the raw question table for the configured user.
func (c *Client) Fetch(ctx context.Context) (Payload, error) {
	if !c.Enabled() {
		return Payload{}, ErrDisabled
	}
	body, err := c.get(ctx, url.Values{"username": {c.username}})
	if err != nil {
		return Payload{}, err
	}
	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Payload{}, fmt.Errorf("decode spreadsheet response: %w", err)
	}
	if payload.Error {
		msg := strings.TrimSpace(payload.Message)
		if msg == "" {
			msg = "verification failed"
		}
		return Payload{}, fmt.Errorf("spreadsheet rejected request: %s", msg)
	}
	return payload, nil
}

// VerifyAdmin asks the endpoint whether password is the admin password. Only
// the SHA-256 hex digest leaves the process.
func (c *Client) VerifyAdmin(ctx context.Context, password string) (bool, error) {
	if !c.Enabled() {
		return false, ErrDisabled
	}
	sum := sha256.Sum256([]byte(password))
	body, err := c.get(ctx, url.Values{
		"action": {"verify_admin"},
		"hash":   {hex.EncodeToString(sum[:])},
	})
	if err != nil {
		return false, err
	}
	var result struct {
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("decode verify response: %w", err)
	}
	return result.Success, nil
}

func (c *Client) get(ctx context.Context, query url.Values) ([]byte, error) {
	target, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse spreadsheet url: %w", err)
	}
	q := target.Query()
	for k, v := range query {
		q[k] = v
	}
	target.RawQuery = q.Encode()

	next := target.String()
	for i := 0; i <= maxRedirects; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		code, body, location, err := c.do(ctx, next)
		if err != nil {
			return nil, err
		}
		if code >= 300 && code < 400 && location != "" {
			ref, err := url.Parse(location)
			if err != nil {
				return nil, fmt.Errorf("parse redirect: %w", err)
			}
			next = target.ResolveReference(ref).String()
			continue
		}
		if code < 200 || code >= 300 {
			return nil, fmt.Errorf("spreadsheet HTTP %d", code)
		}
		return body, nil
	}
	return nil, fmt.Errorf("spreadsheet: too many redirects")
}

func (c *Client) do(ctx context.Context, target string) (int, []byte, string, error) {
	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)

	agent := fiber.Get(target).SetResponse(resp)
	if timeout := c.requestTimeout(ctx); timeout > 0 {
		agent.Timeout(timeout)
	}
	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return 0, nil, "", fmt.Errorf("fetch spreadsheet: %w", errors.Join(errs...))
	}
	return code, body, string(resp.Header.Peek(fiber.HeaderLocation)), nil
}

func (c *Client) requestTimeout(ctx context.Context) time.Duration {
	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); timeout <= 0 || left < timeout {
			timeout = left
		}
	}
	return timeout
}
