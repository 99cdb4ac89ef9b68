// Package warehouse talks to the remote asynchronous analytics query
// service. The engine treats it as an opaque job API: submit compiled
// SQL, poll the job, fetch a result location when done.
package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/google/wire"
	"go.uber.org/zap"
)

var Provider = wire.NewSet(NewClient, NewPermitPool)

// JobAPI is the narrow surface the engine consumes.
type JobAPI interface {
	SubmitQuery(ctx context.Context, sql string, targetInstance string) (*SubmitResult, error)
	PollJob(ctx context.Context, jobID string) (*PollResult, error)
	CancelJob(ctx context.Context, jobID string) error
}

// CircuitBreaker guards submissions against a flapping remote endpoint.
type CircuitBreaker struct {
	mu              sync.Mutex
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	state           string // "closed", "open", "half-open"
	threshold       int
	resetTimeout    time.Duration
}

func NewCircuitBreaker() *CircuitBreaker {
	return &CircuitBreaker{
		state:        "closed",
		threshold:    3,
		resetTimeout: 60 * time.Second,
	}
}

// Call runs fn through the breaker.
func (cb *CircuitBreaker) Call(fn func() error) error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state == "open" {
		if time.Since(cb.lastFailureTime) > cb.resetTimeout {
			cb.state = "half-open"
			cb.failureCount = 0
			cb.successCount = 0
		} else {
			return fmt.Errorf("circuit breaker is open")
		}
	}

	err := fn()
	if err != nil {
		cb.failureCount++
		cb.lastFailureTime = time.Now()
		if cb.failureCount >= cb.threshold {
			cb.state = "open"
		}
		return err
	}

	if cb.state == "half-open" {
		cb.successCount++
		if cb.successCount >= 2 {
			cb.state = "closed"
			cb.failureCount = 0
		}
	}
	return nil
}

// Client is the HTTP implementation of JobAPI. All calls carry a
// bounded timeout via the underlying http.Client.
type Client struct {
	baseURL    string
	tenant     string
	httpClient *http.Client
	breaker    *CircuitBreaker
	logger     *zap.Logger
}

type ClientConfig struct {
	BaseURL        string
	Tenant         string
	RequestTimeout time.Duration
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		tenant:  cfg.Tenant,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		breaker: NewCircuitBreaker(),
		logger:  logger,
	}
}

type submitRequest struct {
	SQL            string `json:"sql"`
	TargetInstance string `json:"target_instance"`
	Tenant         string `json:"tenant"`
}

func (c *Client) SubmitQuery(ctx context.Context, sql string, targetInstance string) (*SubmitResult, error) {
	body, err := json.Marshal(submitRequest{
		SQL:            sql,
		TargetInstance: targetInstance,
		Tenant:         c.tenant,
	})
	if err != nil {
		return nil, err
	}

	var result SubmitResult
	err = c.breaker.Call(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/queries", bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Request-ID", uuid.NewString())

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusForbidden:
			detail, _ := io.ReadAll(resp.Body)
			c.logger.Warn("query submission rejected",
				zap.Int("status", resp.StatusCode),
				zap.ByteString("detail", detail))
			return fmt.Errorf("%w: %s", ErrRemoteRejected, string(detail))
		case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted:
			return fmt.Errorf("unexpected status %d from query submission", resp.StatusCode)
		}

		return json.NewDecoder(resp.Body).Decode(&result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) PollJob(ctx context.Context, jobID string) (*PollResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/jobs/"+jobID, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d polling job %s", resp.StatusCode, jobID)
	}

	var result PollResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) CancelJob(ctx context.Context, jobID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/jobs/"+jobID+"/cancel", nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusAccepted:
		return nil
	case http.StatusConflict:
		return ErrNotCancellable
	default:
		return fmt.Errorf("unexpected status %d cancelling job %s", resp.StatusCode, jobID)
	}
}
