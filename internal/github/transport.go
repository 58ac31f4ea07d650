package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/cfech/github-dashboard/internal/config"
)

// RawResponse is a successful GraphQL payload. Data is left unparsed for the
// normalizer.
type RawResponse struct {
	Data json.RawMessage
}

type graphqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphqlEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Transport sends GraphQL documents to a single POST endpoint with a bearer
// credential, paces requests, and retries retryable failures with bounded
// exponential backoff. It holds no request state beyond rate-limit pacing.
type Transport struct {
	client   *http.Client
	endpoint string
	logger   *logrus.Logger
	limiter  *rate.Limiter

	maxRetries      int
	initialBackoff  time.Duration
	maxBackoff      time.Duration
	retryMultiplier float64
}

// TransportOption allows configuring the transport
type TransportOption func(*Transport)

// WithRetryConfig configures retry behavior
func WithRetryConfig(maxRetries int, initialBackoff, maxBackoff time.Duration) TransportOption {
	return func(t *Transport) {
		t.maxRetries = maxRetries
		t.initialBackoff = initialBackoff
		t.maxBackoff = maxBackoff
	}
}

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func WithHTTPClient(client *http.Client) TransportOption {
	return func(t *Transport) {
		t.client = client
	}
}

// NewTransport creates a transport for the configured GraphQL endpoint.
func NewTransport(cfg *config.GitHubConfig, logger *logrus.Logger, opts ...TransportOption) *Transport {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	httpClient := oauth2.NewClient(context.Background(), ts)
	httpClient.Timeout = cfg.RequestTimeout

	rps := cfg.RateLimit.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	transport := &Transport{
		client:          httpClient,
		endpoint:        cfg.APIBaseURL,
		logger:          logger,
		limiter:         rate.NewLimiter(rate.Limit(rps), 1),
		maxRetries:      cfg.RateLimit.MaxRetries,
		initialBackoff:  cfg.RateLimit.InitialBackoff,
		maxBackoff:      cfg.RateLimit.MaxBackoff,
		retryMultiplier: cfg.RateLimit.RetryMultiplier,
	}
	if transport.maxRetries < 1 {
		transport.maxRetries = 1
	}
	if transport.retryMultiplier <= 1 {
		transport.retryMultiplier = 2
	}

	for _, opt := range opts {
		opt(transport)
	}

	return transport
}

// Execute sends one query, retrying rate-limited and transient failures with
// exponential backoff. Retries stop once the context is done.
func (t *Transport) Execute(ctx context.Context, query Query) (*RawResponse, error) {
	payload, err := json.Marshal(graphqlRequest{Query: query.Document, Variables: query.Variables})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query payload: %w", err)
	}

	var lastErr error
	backoff := t.initialBackoff

	for attempt := 0; attempt < t.maxRetries; attempt++ {
		if attempt > 0 {
			wait := retryWait(backoff, lastErr)
			t.logger.WithFields(logrus.Fields{
				"attempt": attempt + 1,
				"wait":    wait,
			}).Warnf("Retrying GraphQL request after error: %v", lastErr)

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			backoff = time.Duration(math.Min(float64(backoff)*t.retryMultiplier, float64(t.maxBackoff)))
		}

		if err := t.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		resp, err := t.doOnce(ctx, payload)
		if err == nil {
			return resp, nil
		}
		if !isRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (t *Transport) doOnce(ctx context.Context, payload []byte) (*RawResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		// Timeouts and connection failures are retryable.
		return nil, &TransientError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{StatusCode: resp.StatusCode, Message: "failed to read response body", Err: err}
	}

	if err := classifyStatus(resp, body); err != nil {
		return nil, err
	}

	var envelope graphqlEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &MalformedResponseError{Message: "response is not valid JSON", Err: err}
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, gqlErr := range envelope.Errors {
			messages = append(messages, gqlErr.Message)
		}
		// Any partial data rides along; the caller decides whether it is
		// still usable.
		return nil, &GraphQLError{Messages: messages, Partial: envelope.Data}
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil, &MalformedResponseError{Message: "response has no data field"}
	}

	return &RawResponse{Data: envelope.Data}, nil
}

// classifyStatus maps non-200 responses onto the transport error taxonomy.
func classifyStatus(resp *http.Response, body []byte) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized:
		return &AuthError{StatusCode: resp.StatusCode, Message: string(body)}
	case resp.StatusCode == http.StatusForbidden:
		if rateLimited(resp) {
			return rateLimitError(resp)
		}
		return &AuthError{StatusCode: resp.StatusCode, Message: string(body)}
	case resp.StatusCode == http.StatusTooManyRequests:
		return rateLimitError(resp)
	case resp.StatusCode >= 500:
		return &TransientError{StatusCode: resp.StatusCode, Message: string(body)}
	default:
		return &MalformedResponseError{Message: fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, string(body))}
	}
}

// rateLimited reports whether a 403 carries a rate-limit indication rather
// than a permission failure.
func rateLimited(resp *http.Response) bool {
	return resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.Header.Get("Retry-After") != ""
}

func rateLimitError(resp *http.Response) *RateLimitError {
	rlErr := &RateLimitError{StatusCode: resp.StatusCode}
	if reset := resp.Header.Get("X-RateLimit-Reset"); reset != "" {
		if resetUnix, err := strconv.ParseInt(reset, 10, 64); err == nil {
			rlErr.ResetTime = time.Unix(resetUnix, 0)
		}
	}
	if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
		if seconds, err := strconv.ParseInt(retryAfter, 10, 64); err == nil {
			rlErr.ResetTime = time.Now().Add(time.Duration(seconds) * time.Second)
		}
	}
	return rlErr
}

// retryWait extends the backoff to a rate limit's reset time when one is
// known, capped at one minute so a distant reset does not stall the caller's
// deadline budget.
func retryWait(backoff time.Duration, lastErr error) time.Duration {
	var rlErr *RateLimitError
	if errors.As(lastErr, &rlErr) && !rlErr.ResetTime.IsZero() {
		if untilReset := time.Until(rlErr.ResetTime); untilReset > backoff {
			if untilReset > time.Minute {
				return time.Minute
			}
			return untilReset
		}
	}
	return backoff
}
