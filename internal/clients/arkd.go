package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sony/gobreaker"

	"arkboot/internal/config"
	"arkboot/internal/orchestrator"
)

const infoPath = "/v1/info"

// ArkdClient talks to the Ark service info endpoint.
type ArkdClient struct {
	infoURL string
	cb      *gobreaker.CircuitBreaker

	// probeHTTP never retries: the readiness poll owns the retry budget.
	probeHTTP *retryablehttp.Client
	fetchHTTP *retryablehttp.Client
}

// NewArkdClient constructs an ArkdClient. No request is made at
// construction time.
func NewArkdClient(cfg config.ServiceConfig, cb *gobreaker.CircuitBreaker) *ArkdClient {
	return &ArkdClient{
		infoURL:   strings.TrimRight(cfg.URL, "/") + infoPath,
		cb:        cb,
		probeHTTP: newHTTPClient(0, cfg.RequestTimeout, slog.LevelDebug),
		fetchHTTP: newHTTPClient(cfg.FetchRetries, cfg.RequestTimeout, slog.LevelWarn),
	}
}

func newHTTPClient(retries int, timeout time.Duration, errLevel slog.Level) *retryablehttp.Client {
	hc := retryablehttp.NewClient()
	hc.RetryMax = retries
	hc.HTTPClient.Timeout = timeout
	hc.Logger = &retryLogger{errLevel: errLevel}
	// Hand back the last response as-is instead of an opaque "giving up"
	// error, so a 5xx answer still counts as "the server is up".
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return hc
}

// retryLogger adapts slog to retryablehttp.LeveledLogger. Its ERROR
// messages are logged at errLevel.
type retryLogger struct {
	logger   *slog.Logger // nil means slog.Default()
	errLevel slog.Level
}

var _ retryablehttp.LeveledLogger = (*retryLogger)(nil)

func (l *retryLogger) log(level slog.Level, msg string, kv ...interface{}) {
	logger := l.logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Log(context.Background(), level, msg, kv...)
}

func (l *retryLogger) Error(msg string, kv ...interface{}) { l.log(l.errLevel, msg, kv...) }
func (l *retryLogger) Info(msg string, kv ...interface{})  { l.log(slog.LevelDebug, msg, kv...) }
func (l *retryLogger) Debug(msg string, kv ...interface{}) { l.log(slog.LevelDebug, msg, kv...) }
func (l *retryLogger) Warn(msg string, kv ...interface{}) {
	l.log(min(slog.LevelWarn, l.errLevel), msg, kv...)
}

// Probe issues GET /v1/info and succeeds as soon as any HTTP response comes
// back. Status code and body are ignored.
func (c *ArkdClient) Probe(ctx context.Context) error {
	_, err := c.cb.Execute(func() (any, error) {
		resp, err := c.get(ctx, c.probeHTTP)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, nil
	})
	return breakerErr(err)
}

// Info fetches and decodes the service info. A non-2xx answer, a malformed
// body and a missing pubkey are all errors.
func (c *ArkdClient) Info(ctx context.Context) (*orchestrator.ServerInfo, error) {
	out, err := c.cb.Execute(func() (any, error) {
		resp, err := c.get(ctx, c.fetchHTTP)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("GET %s returned HTTP %d", c.infoURL, resp.StatusCode)
		}

		var info orchestrator.ServerInfo
		if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
			return nil, fmt.Errorf("decoding server info: %w", err)
		}
		if info.Pubkey == "" {
			return nil, errors.New("server info has no pubkey")
		}
		return &info, nil
	})
	if err != nil {
		return nil, breakerErr(err)
	}
	return out.(*orchestrator.ServerInfo), nil
}

func (c *ArkdClient) get(ctx context.Context, hc *retryablehttp.Client) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.infoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", c.infoURL, err)
	}
	return resp, nil
}

// breakerErr labels an open breaker so it reads clearly in poll logs.
func breakerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) {
		return fmt.Errorf("circuit open: %w", err)
	}
	return err
}
