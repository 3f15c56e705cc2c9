package client

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Defaults applied by New when the config leaves a field zero.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultRetryWait    = 500 * time.Millisecond
	DefaultRetryMaxWait = 5 * time.Second
)

type GuardlyClient struct {
	HTTP   *resty.Client
	Config ClientConfig
	log    *slog.Logger
}

type ClientConfig struct {
	BaseURL      string // REST root, e.g. http://127.0.0.1:8000
	WSURL        string // live socket root; derived from BaseURL when empty
	Timeout      time.Duration
	RetryCount   int // retries on top of the first attempt, idempotent requests only
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	Logger       *slog.Logger
}

func New(cfg ClientConfig) *GuardlyClient {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryWait == 0 {
		cfg.RetryWait = DefaultRetryWait
	}
	if cfg.RetryMaxWait == 0 {
		cfg.RetryMaxWait = DefaultRetryMaxWait
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := resty.New()
	r.SetBaseURL(cfg.BaseURL)
	r.SetHeader("Content-Type", "application/json")
	r.SetHeader("Accept", "application/json")
	r.SetTimeout(cfg.Timeout)
	r.SetLogger(restyLogger{logger})

	// Bounded exponential backoff: resty doubles the wait from RetryWait up to RetryMaxWait.
	r.SetRetryCount(cfg.RetryCount)
	r.SetRetryWaitTime(cfg.RetryWait)
	r.SetRetryMaxWaitTime(cfg.RetryMaxWait)
	r.AddRetryCondition(retryTransient)

	r.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		logger.Debug("api response",
			slog.String("method", resp.Request.Method),
			slog.String("url", resp.Request.URL),
			slog.Int("status", resp.StatusCode()),
			slog.Duration("duration", resp.Time()),
			slog.Int("attempt", resp.Request.Attempt),
		)
		return nil
	})

	return &GuardlyClient{
		HTTP:   r,
		Config: cfg,
		log:    logger,
	}
}

// retryTransient retries network errors, 5xx and 429, but only for methods that are safe to
// repeat. POST /register or POST /cameras must never be sent twice.
func retryTransient(resp *resty.Response, err error) bool {
	if resp == nil || resp.Request == nil {
		return false
	}
	switch resp.Request.Method {
	case http.MethodGet, http.MethodHead, http.MethodPut:
	default:
		return false
	}
	if err != nil {
		return true
	}
	code := resp.StatusCode()
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

// LiveURL returns the socket address of a camera's live feed.
func (c *GuardlyClient) LiveURL(cameraID int64) (string, error) {
	base := c.Config.WSURL
	if base == "" {
		base = c.Config.BaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid live feed base %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("invalid live feed base %q: unsupported scheme %q", base, u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + fmt.Sprintf("/camera/%d/live", cameraID)
	return u.String(), nil
}

// restyLogger routes resty's own diagnostics (retries, warnings) into slog.
type restyLogger struct {
	l *slog.Logger
}

func (r restyLogger) Errorf(format string, v ...interface{}) {
	r.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}

func (r restyLogger) Warnf(format string, v ...interface{}) {
	r.l.Warn(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}

func (r restyLogger) Debugf(format string, v ...interface{}) {
	r.l.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "resty"))
}
