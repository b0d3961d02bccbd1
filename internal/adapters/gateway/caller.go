package gateway

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	"github.com/uzpos/payment-service/pkg/observability"
	"go.uber.org/zap"
)

// CallerConfig contains transport configuration for one gateway endpoint.
type CallerConfig struct {
	// Per-call timeout. One attempt is a single HTTP request bounded by this;
	// the retry policy lives in the orchestrator.
	Timeout time.Duration

	// Connection pool settings. Each gateway is a single host, so the pool is
	// tuned for concurrency against one endpoint.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// TLS
	InsecureSkipVerify bool
}

// DefaultCallerConfig returns transport defaults for wallet gateways.
func DefaultCallerConfig() *CallerConfig {
	return &CallerConfig{
		Timeout:             15 * time.Second,
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 50,
		IdleConnTimeout:     90 * time.Second,
		InsecureSkipVerify:  false,
	}
}

// Caller performs single signed HTTP calls against one gateway. It captures
// wall-clock timing and classifies transport failures as GATEWAY_TIMEOUT or
// GATEWAY_NETWORK_ERROR; an HTTP response with a business-error body is not a
// caller error. A per-gateway circuit breaker stops hammering a provider that
// is hard down.
type Caller struct {
	kind       domain.GatewayKind
	httpClient *http.Client
	breaker    *CircuitBreaker
	logger     *zap.Logger
}

// NewCaller creates a caller for one gateway.
func NewCaller(kind domain.GatewayKind, cfg *CallerConfig, logger *zap.Logger) *Caller {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		},
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		ForceAttemptHTTP2:   true,
	}

	return &Caller{
		kind: kind,
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
		logger:  logger,
	}
}

// Do executes one signed request and returns the transport-level result.
func (c *Caller) Do(ctx context.Context, req *ports.SignedRequest) (*ports.CallResult, error) {
	var result *ports.CallResult

	err := c.breaker.Call(func() error {
		httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Body))
		if err != nil {
			return domain.WrapError(domain.ErrorCodeInternalError, "build gateway request", err)
		}

		httpReq.Header.Set("Content-Type", "application/json")
		for k, v := range req.Headers {
			httpReq.Header.Set(k, v)
		}

		startTime := time.Now()
		httpResp, err := c.httpClient.Do(httpReq)
		elapsed := time.Since(startTime)
		if err != nil {
			derr := c.classify(err)
			observability.RecordGatewayCallError(string(c.kind), errorKind(derr))
			c.logger.Warn("gateway call failed",
				zap.String("gateway", string(c.kind)),
				zap.String("operation", req.Operation),
				zap.Duration("elapsed", elapsed),
				zap.Error(err),
			)
			return derr
		}
		defer httpResp.Body.Close()

		body, err := io.ReadAll(httpResp.Body)
		if err != nil {
			return domain.WrapError(domain.ErrorCodeGatewayNetwork, "read gateway response", err)
		}

		observability.RecordGatewayCall(string(c.kind), req.Operation, elapsed)
		c.logger.Info("gateway call completed",
			zap.String("gateway", string(c.kind)),
			zap.String("operation", req.Operation),
			zap.Int("http_status", httpResp.StatusCode),
			zap.Duration("elapsed", elapsed),
			zap.Int("body_length", len(body)),
		)

		result = &ports.CallResult{
			HTTPStatus:    httpResp.StatusCode,
			Body:          body,
			ElapsedMillis: elapsed.Milliseconds(),
		}
		return nil
	})

	if err != nil {
		if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
			c.logger.Warn("circuit breaker rejected gateway call",
				zap.String("gateway", string(c.kind)),
				zap.String("circuit_state", c.breaker.State().String()),
			)
			return nil, domain.WrapError(domain.ErrorCodeGatewayNetwork, "gateway circuit open", err)
		}
		return nil, err
	}

	return result, nil
}

// classify maps a transport error to the domain taxonomy. Timeouts are
// distinguished so the transaction can record timeout_occurred.
func (c *Caller) classify(err error) *domain.DomainError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return domain.WrapError(domain.ErrorCodeGatewayTimeout, "gateway request timed out", err)
	}
	return domain.WrapError(domain.ErrorCodeGatewayNetwork, "gateway request failed", err)
}

func errorKind(err *domain.DomainError) string {
	if err.Code == domain.ErrorCodeGatewayTimeout {
		return "timeout"
	}
	return "network"
}
