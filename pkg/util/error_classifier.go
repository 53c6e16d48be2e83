package util

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/url"

	"github.com/sony/gobreaker"
)

// statusCoder is implemented by HTTP errors that carry the upstream status.
type statusCoder interface {
	StatusCode() int
}

// IsRetryableError determines if an error is retryable
// Returns: (isRetryable, errorType)
func IsRetryableError(err error) (bool, string) {
	if err == nil {
		return false, ""
	}

	// JSON decode errors - 不可重试（数据格式错误）
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false, "json_decode_error"
	}

	// 熔断器打开 - 稍后可重试
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return true, "circuit_open"
	}

	// Context timeout - 可重试
	if errors.Is(err, context.DeadlineExceeded) {
		return true, "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return false, "context_canceled"
	}

	// HTTP errors - 根据状态码判断
	var sc statusCoder
	if errors.As(err, &sc) {
		code := sc.StatusCode()
		switch {
		case code == 401 || code == 403:
			return false, "unauthorized"
		case code == 404:
			return false, "not_found"
		case code == 409:
			return false, "conflict"
		case code == 429:
			return true, "rate_limited"
		case code >= 500:
			return true, "upstream_5xx"
		case code >= 400:
			return false, "upstream_4xx"
		}
	}

	// URL errors wrap network errors; check timeout first
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true, "network_timeout"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true, "network_timeout"
		}
		return true, "network_error"
	}
	if urlErr != nil {
		return true, "network_error"
	}

	// 默认：未知错误，保守处理 - 不重试
	return false, "unknown_error"
}

// ErrorKind returns only the classification label.
func ErrorKind(err error) string {
	_, kind := IsRetryableError(err)
	return kind
}
