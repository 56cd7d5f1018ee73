package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"campusbook/utils"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client talks to the university booking REST backend.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{},
		Timeout:    timeout,
	}
}

type messageBody struct {
	Message string `json:"message"`
}

// do issues one request bounded by the client timeout and returns the status and raw body.
func (c *Client) do(ctx context.Context, op, method, path, token string, body io.Reader, contentType string) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return 0, nil, &Error{Op: op, Kind: KindNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	started := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		kind := KindNetwork
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			kind = KindTimeout
		}
		utils.GetLogger().Warn("backend call failed",
			zap.String("op", op), zap.String("kind", string(kind)), zap.Error(err))
		return 0, nil, &Error{Op: op, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		kind := KindNetwork
		if errors.Is(err, context.DeadlineExceeded) {
			kind = KindTimeout
		}
		return resp.StatusCode, nil, &Error{Op: op, Kind: kind, StatusCode: resp.StatusCode, Err: err}
	}

	utils.GetLogger().Debug("backend call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(started)))
	return resp.StatusCode, raw, nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path, token string, in any) (int, []byte, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, op, method, path, token, body, contentType)
}

// serverMessage extracts the {message} field of an error body, if any.
func serverMessage(raw []byte) string {
	var m messageBody
	if len(raw) == 0 || json.Unmarshal(raw, &m) != nil {
		return ""
	}
	return m.Message
}
