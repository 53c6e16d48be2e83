// Package apiclient is the typed client for the TaskMaster REST backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"taskmaster/internal/session"
	"taskmaster/pkg/config"
	"taskmaster/pkg/metrics"
	"taskmaster/pkg/trace"
	"taskmaster/pkg/util"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxBodyBytes = 4 << 20

// Client talks to the backend on behalf of one session. WithSession returns
// a copy that shares the HTTP client and the circuit breaker.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	session    *session.Session
	logger     *zap.Logger
}

func New(cfg config.BackendConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	failures := cfg.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	openFor := cfg.BreakerOpenFor
	if openFor <= 0 {
		openFor = 30 * time.Second
	}
	halfOpen := cfg.BreakerHalfOpen
	if halfOpen == 0 {
		halfOpen = 3
	}

	settings := gobreaker.Settings{
		Name:        "taskmaster-backend",
		MaxRequests: halfOpen,
		Timeout:     openFor,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// 4xx 是调用方的问题，不应触发熔断
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && se.Code < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		breaker:    gobreaker.NewCircuitBreaker(settings),
		logger:     logger,
	}
}

func (c *Client) WithSession(s *session.Session) *Client {
	cp := *c
	cp.session = s
	return &cp
}

func (c *Client) Session() *session.Session { return c.session }

// BreakerState is exposed for readiness checks.
func (c *Client) BreakerState() gobreaker.State { return c.breaker.State() }

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in any) ([]byte, error) {
	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.roundTrip(ctx, method, path, query, in)
	})

	outcome := "ok"
	if err != nil {
		outcome = util.ErrorKind(err)
	}
	metrics.RecordBackendCall(op, outcome, time.Since(start))

	if err != nil {
		if errors.Is(err, ErrUnauthorized) && c.session != nil {
			c.session.Clear()
		}
		c.logger.Debug("backend call failed",
			zap.String("op", op),
			zap.String("method", method),
			zap.String("path", path),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
		return nil, err
	}
	body, _ := res.([]byte)
	return body, nil
}

func (c *Client) roundTrip(ctx context.Context, method, path string, query url.Values, in any) ([]byte, error) {
	var reader io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if tok := c.session.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	if traceID := trace.FromContext(ctx); traceID != "" {
		req.Header.Set(trace.HeaderName(), traceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
