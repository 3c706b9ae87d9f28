package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/marcelsud/leadhub/webhook"
)

const (
	DefaultTimeout   = 10 * time.Second
	DefaultUserAgent = "LeadHub-Webhook/1.0"

	maxResponseBody int64 = 64 << 10 // only the excerpt is kept
)

// HTTPDoer is satisfied by *http.Client
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Outcome is the classified result of one POST
type Outcome struct {
	HTTPStatus *int   // nil when no response was received
	Excerpt    string // response body, truncated to webhook.MaxResponseExcerpt
	Err        error  // nil only for 2xx responses
}

// OK reports whether the attempt succeeded
func (o Outcome) OK() bool {
	return o.Err == nil
}

/* Sender performs a single delivery attempt
 * A timeout is reported exactly like a network failure: Err set, no HTTPStatus
 */
type Sender struct {
	Client    HTTPDoer
	UserAgent string
	Timeout   time.Duration
}

// NewSender creates a Sender with its own http.Client
func NewSender(timeout time.Duration, userAgent string) *Sender {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Sender{
		Client:    &http.Client{Timeout: timeout},
		UserAgent: userAgent,
		Timeout:   timeout,
	}
}

// Send POSTs body to url and classifies the response
func (s *Sender) Send(ctx context.Context, url string, body []byte) Outcome {
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Outcome{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := s.Client.Do(req)
	if err != nil {
		return Outcome{Err: fmt.Errorf("sending request: %w", err)}
	}
	defer resp.Body.Close()

	status := resp.StatusCode
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return Outcome{HTTPStatus: &status, Err: fmt.Errorf("reading response body: %w", err)}
	}
	excerpt := webhook.Excerpt(string(raw))

	if status < 200 || status >= 300 {
		return Outcome{HTTPStatus: &status, Err: fmt.Errorf("HTTP %d: %s", status, excerpt)}
	}
	return Outcome{HTTPStatus: &status, Excerpt: excerpt}
}
