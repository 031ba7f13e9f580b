package remote

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

	"github.com/rs/zerolog"

	apperrors "github.com/p-blackswan/intake-agent/internal/errors"
	"github.com/p-blackswan/intake-agent/internal/retry"
)

const (
	chatPath     = "/api/chat"
	proposalPath = "/api/generate-proposal"
	healthPath   = "/health"

	maxResponseBytes = 4 << 20
)

// HTTPClient calls a JSON backend exposing the chat and proposal endpoints.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	retry   retry.Config
	logger  zerolog.Logger
}

// HTTPOption configures an HTTPClient.
type HTTPOption func(*HTTPClient)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *HTTPClient) { c.client.Timeout = d }
}

// WithRetry sets the retry policy for retryable failures.
func WithRetry(cfg retry.Config) HTTPOption {
	return func(c *HTTPClient) { c.retry = cfg }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) HTTPOption {
	return func(c *HTTPClient) { c.client = hc }
}

// NewHTTPClient creates a backend client rooted at baseURL.
func NewHTTPClient(baseURL string, logger zerolog.Logger, opts ...HTTPOption) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
		retry:   retry.WithRetries(2),
		logger:  logger.With().Str("component", "remote-http").Logger(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Chat implements ChatClient.
func (c *HTTPClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	if err := c.post(ctx, chatPath, req, &resp); err != nil {
		return nil, err
	}
	if err := CheckChat(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateProposal implements ProposalClient.
func (c *HTTPClient) GenerateProposal(ctx context.Context, req ProposalRequest) (*ProposalResponse, error) {
	var resp ProposalResponse
	if err := c.post(ctx, proposalPath, req, &resp); err != nil {
		return nil, err
	}
	if err := CheckProposal(&resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ping checks that the backend answers at all. Any response below 500
// counts as reachable.
func (c *HTTPClient) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("ping backend: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return apperrors.NewAPIError("backend", resp.StatusCode, "health check failed")
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	cfg := c.retry
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		c.logger.Warn().Err(err).Str("path", path).Int("attempt", attempt).Dur("backoff", delay).Msg("retrying backend call")
	}

	return retry.Do(ctx, cfg, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
				return fmt.Errorf("%s: %w", path, apperrors.ErrTimeout)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%s: %w: %v", path, apperrors.ErrUnavailable, err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return fmt.Errorf("%s: read body: %w", path, err)
		}
		if resp.StatusCode >= 300 {
			return &apperrors.APIError{
				Service:    "backend",
				StatusCode: resp.StatusCode,
				Message:    errorMessage(raw, resp.StatusCode),
				Err:        apperrors.ErrRemoteFailure,
			}
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: %w: %v", path, apperrors.ErrMalformedResult, err)
		}
		return nil
	})
}

type timeoutError interface{ Timeout() bool }

func isTimeout(err error) bool {
	var te timeoutError
	return errors.As(err, &te) && te.Timeout()
}

// errorMessage pulls {"error": "..."} out of a failed response when present.
func errorMessage(raw []byte, status int) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return http.StatusText(status)
}
