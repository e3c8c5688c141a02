// Package remote implements the engine contract against an HTTP scoring
// backend. The wire contract is a single POST: {kind, payload} in,
// {fakeScore, realScore} or a structured error out.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"truthguard-backend/internal/engine"
)

// Client scores submissions via a remote backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a remote engine client for the given base URL.
func NewClient(baseURL string) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, fmt.Errorf("ENGINE_URL is required for the remote engine")
	}
	timeout := 20 * time.Second
	if raw := strings.TrimSpace(os.Getenv("ENGINE_TIMEOUT_SECONDS")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			timeout = time.Duration(parsed) * time.Second
		}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type scoreRequest struct {
	Kind    string `json:"kind"`
	Payload string `json:"payload,omitempty"`
}

type scoreResponse struct {
	FakeScore *int `json:"fakeScore"`
	RealScore *int `json:"realScore"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Score posts the input to the backend and maps transport, timeout, and
// protocol failures onto the engine error taxonomy.
func (c *Client) Score(ctx context.Context, input engine.Input) (engine.Scores, error) {
	body, err := json.Marshal(scoreRequest{Kind: input.Kind, Payload: input.Text})
	if err != nil {
		return engine.Scores{}, fmt.Errorf("encode score request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/score", bytes.NewReader(body))
	if err != nil {
		return engine.Scores{}, fmt.Errorf("build score request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return engine.Scores{}, classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return engine.Scores{}, fmt.Errorf("%w: read response: %v", engine.ErrUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return engine.Scores{}, fmt.Errorf("%w: backend status %d", engine.ErrUnavailable, resp.StatusCode)
	}

	var parsed scoreResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return engine.Scores{}, fmt.Errorf("%w: malformed response: %v", engine.ErrUnavailable, err)
	}
	if parsed.Error != nil {
		return engine.Scores{}, fmt.Errorf("%w: %s: %s", engine.ErrUnavailable, parsed.Error.Code, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || parsed.FakeScore == nil || parsed.RealScore == nil {
		return engine.Scores{}, fmt.Errorf("%w: backend status %d", engine.ErrUnavailable, resp.StatusCode)
	}

	fake := *parsed.FakeScore
	real := *parsed.RealScore
	if fake < 0 || fake > 100 || fake+real != 100 {
		return engine.Scores{}, fmt.Errorf("%w: invalid score pair %d/%d", engine.ErrUnavailable, fake, real)
	}
	return engine.Scores{Fake: fake, Real: real}, nil
}

func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return context.DeadlineExceeded
	}
	if errors.Is(err, context.Canceled) {
		return context.Canceled
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("%w: %v", engine.ErrUnreachable, err)
}

var _ engine.Engine = (*Client)(nil)
