// Package httpfetch retrieves store pages with browser-like headers,
// bounded retries and a capped body size.
package httpfetch

import (
	"bytes"
	"compress/gzip"
	"compress/zlib"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"buywise/config"
	"buywise/internal/metrics"
)

var ErrBodyTooLarge = errors.New("response body exceeds limit")

// StatusError is the cause recorded for a non-2xx response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.Code)
}

// FetchError is returned once every attempt for URL has failed.
type FetchError struct {
	URL      string
	Attempts int
	Cause    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

type Options struct {
	Timeout      time.Duration
	MaxRetries   int
	BaseDelay    time.Duration
	MaxBodyBytes int64
	UserAgents   []string
	// HostRPS limits requests per host. Zero disables the limiter.
	HostRPS float64
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Timeout:      cfg.Scrape.Timeout,
		MaxRetries:   cfg.Scrape.MaxRetries,
		BaseDelay:    cfg.Scrape.RetryBaseDelay,
		MaxBodyBytes: cfg.Scrape.MaxBodyBytes,
		UserAgents:   cfg.Scrape.UserAgents,
		HostRPS:      cfg.Scrape.HostRPS,
	}
}

type Fetcher struct {
	client   *http.Client
	opts     Options
	log      *zap.SugaredLogger
	recorder metrics.Recorder

	// pickUA is swapped in tests for a deterministic choice.
	pickUA func([]string) string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func New(opts Options, log *zap.SugaredLogger, recorder metrics.Recorder) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.BaseDelay < 0 {
		opts.BaseDelay = 0
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 5 << 20
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if recorder == nil {
		recorder = metrics.Nop
	}
	return &Fetcher{
		client:   &http.Client{},
		opts:     opts,
		log:      log,
		recorder: recorder,
		pickUA:   randomUserAgent,
		limiters: make(map[string]*rate.Limiter),
	}
}

func NewFromConfig(cfg *config.Config, log *zap.SugaredLogger, recorder metrics.Recorder) *Fetcher {
	return New(OptionsFromConfig(cfg), log, recorder)
}

// Fetch GETs rawURL and returns the decoded body. Before attempt N+1 it
// waits BaseDelay*N, returning early if ctx is cancelled.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, &FetchError{URL: rawURL, Attempts: 0, Cause: fmt.Errorf("invalid url: %q", rawURL)}
	}

	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxRetries; attempt++ {
		if attempt > 1 {
			if err := sleep(ctx, f.opts.BaseDelay*time.Duration(attempt-1)); err != nil {
				return nil, &FetchError{URL: rawURL, Attempts: attempt - 1, Cause: err}
			}
		}
		if err := f.wait(ctx, u.Host); err != nil {
			return nil, &FetchError{URL: rawURL, Attempts: attempt - 1, Cause: err}
		}

		body, status, err := f.attempt(ctx, rawURL)
		f.recorder.RecordFetchAttempt(u.Host, status)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if errors.Is(err, ErrBodyTooLarge) {
			return nil, &FetchError{URL: rawURL, Attempts: attempt, Cause: err}
		}
		if ctx.Err() != nil {
			return nil, &FetchError{URL: rawURL, Attempts: attempt, Cause: ctx.Err()}
		}
		f.log.Warnw("fetch_attempt_failed",
			"url", rawURL,
			"attempt", attempt,
			"max_attempts", f.opts.MaxRetries,
			"err", err,
		)
	}
	return nil, &FetchError{URL: rawURL, Attempts: f.opts.MaxRetries, Cause: lastErr}
}

func (f *Fetcher) attempt(ctx context.Context, rawURL string) ([]byte, int, error) {
	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, err
	}
	if ua := f.pickUA(f.opts.UserAgents); ua != "" {
		req.Header.Set("User-Agent", ua)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Connection", "keep-alive")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return nil, resp.StatusCode, &StatusError{Code: resp.StatusCode}
	}

	raw, err := readCapped(resp.Body, f.opts.MaxBodyBytes)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	body, err := decode(resp.Header.Get("Content-Encoding"), raw, f.opts.MaxBodyBytes)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func (f *Fetcher) wait(ctx context.Context, host string) error {
	if f.opts.HostRPS <= 0 {
		return nil
	}
	f.mu.Lock()
	lim, ok := f.limiters[host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.opts.HostRPS), 1)
		f.limiters[host] = lim
	}
	f.mu.Unlock()
	return lim.Wait(ctx)
}

func readCapped(r io.Reader, limit int64) ([]byte, error) {
	b, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(b)) > limit {
		return nil, ErrBodyTooLarge
	}
	return b, nil
}

func decode(encoding string, raw []byte, limit int64) ([]byte, error) {
	var (
		r   io.ReadCloser
		err error
	)
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "identity":
		return raw, nil
	case "gzip", "x-gzip":
		r, err = gzip.NewReader(bytes.NewReader(raw))
	case "deflate":
		r, err = zlib.NewReader(bytes.NewReader(raw))
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", encoding, err)
	}
	defer r.Close()
	return readCapped(r, limit)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomUserAgent(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	return pool[rand.IntN(len(pool))]
}
