package backend

import (
	"PropDesk/internal/core/ports"
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

	"github.com/rs/zerolog"
)

const (
	DefaultTimeout = 10 * time.Second

	credentialsPath = "/api/challenges/credentials"
	statusPath      = "/api/challenges/status"

	// Cap on how much of an error body ends up in logs and errors.
	maxErrorBody = 1 << 10
)

// ErrRejected is returned when the backend answers 2xx with success:false.
var ErrRejected = errors.New("backend rejected request")

// envelope is the response shape every backend endpoint uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Client implements ports.Backend over the backend's JSON API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

var _ ports.Backend = (*Client)(nil)

// NewClient creates a backend client. A zero timeout uses DefaultTimeout.
func NewClient(baseURL, apiKey string, timeout time.Duration, baseLogger *zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        baseLogger.With().Str("component", "backend_client").Logger(),
	}
}

// SendCredentials asks the backend to email released trading credentials.
func (c *Client) SendCredentials(ctx context.Context, notice ports.CredentialsNotice) error {
	return c.post(ctx, credentialsPath, notice)
}

// NotifyStatus reports a status change (breach, rejection, pass...).
func (c *Client) NotifyStatus(ctx context.Context, notice ports.StatusNotice) error {
	return c.post(ctx, statusPath, notice)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	log := c.log.With().Str("path", path).Logger()
	url := c.baseURL + path

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			log.Warn().Err(ctx.Err()).Msg("Backend request cancelled")
			return fmt.Errorf("backend %s cancelled: %w", path, ctx.Err())
		}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			log.Warn().Err(err).Msg("Backend request timed out")
			return fmt.Errorf("backend %s timed out: %w", path, err)
		}
		log.Error().Err(err).Msg("Backend request failed")
		return fmt.Errorf("backend %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if decodeErr != nil || msg == "" {
			msg = snippet(raw)
		}
		log.Error().Int("status_code", resp.StatusCode).Str("response_body", snippet(raw)).Msg("Backend returned non-2xx status")
		return &StatusError{Path: path, StatusCode: resp.StatusCode, Message: msg}
	}

	if decodeErr != nil {
		log.Error().Err(decodeErr).Str("response_body", snippet(raw)).Msg("Backend returned malformed body")
		return fmt.Errorf("decode %s response: %w", path, decodeErr)
	}
	if !env.Success {
		log.Error().Str("error", env.Error).Msg("Backend reported failure")
		if env.Error == "" {
			return fmt.Errorf("%w: %s", ErrRejected, path)
		}
		return fmt.Errorf("%w: %s: %s", ErrRejected, path, env.Error)
	}

	log.Debug().Int("status_code", resp.StatusCode).Msg("Backend request succeeded")
	return nil
}

// StatusError is returned for any non-2xx answer.
type StatusError struct {
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s returned status %d: %s", e.Path, e.StatusCode, e.Message)
}

func snippet(b []byte) string {
	if len(b) > maxErrorBody {
		b = b[:maxErrorBody]
	}
	return strings.TrimSpace(string(b))
}
