package client

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"market/crawler/internal/config"
	"market/crawler/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// ErrAbsent marks a 403/404 response: the endpoint categorically does not
// exist or is blocked for us. It is returned immediately, without retrying,
// so the caller can fall back to the other strategy. A 403/404 usually means
// "this strategy is not supported here", not "try again later".
var ErrAbsent = errors.New("endpoint absent")

// ErrExhausted marks a transient failure that survived every retry attempt.
var ErrExhausted = errors.New("retries exhausted")

// Fetcher issues HTTP GET requests with bounded retry and backoff, and
// classifies responses into absent / transient failure / success.
type Fetcher interface {
	GetJSON(ctx context.Context, url string, params map[string]string) (any, error)
	GetHTML(ctx context.Context, url string, params map[string]string) (string, error)
}

type fetcher struct {
	cfg        config.MarketConfig
	rl         ratelimit.Limiter
	httpClient *resty.Client
	proxies    proxy.Pool
}

// NewFetcher builds a Fetcher sharing one session (cookies, headers) across
// all requests of a run.
func NewFetcher(cfg config.MarketConfig, proxies proxy.Pool) Fetcher {
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	rps := cfg.MaxRequestsPerSecond
	if rps < 1 {
		rps = 1
	}

	httpClient := resty.New().
		SetTimeout(time.Duration(cfg.Timeout)*time.Second).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7").
		SetHeader("Referer", cfg.BaseURL+"/").
		SetTLSClientConfig(&tls.Config{
			InsecureSkipVerify: true,
		})

	if proxies != nil {
		if proxyURL := proxies.Get(); proxyURL != "" {
			httpClient.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	return &fetcher{
		cfg:        cfg,
		rl:         ratelimit.New(rps),
		httpClient: httpClient,
		proxies:    proxies,
	}
}

// GetJSON fetches and decodes a JSON endpoint.
func (f *fetcher) GetJSON(ctx context.Context, url string, params map[string]string) (any, error) {
	resp, err := f.get(ctx, url, params)
	if err != nil {
		return nil, err
	}

	var data any
	if err := json.Unmarshal([]byte(resp.String()), &data); err != nil {
		return nil, fmt.Errorf("failed to decode JSON from %s: %w", url, err)
	}
	return data, nil
}

// GetHTML fetches an HTML endpoint and returns the raw document.
func (f *fetcher) GetHTML(ctx context.Context, url string, params map[string]string) (string, error) {
	resp, err := f.get(ctx, url, params)
	if err != nil {
		return "", err
	}
	return resp.String(), nil
}

// get performs the classified retry loop. Absent responses return
// immediately; transient failures are retried with a wait that grows with the
// attempt index; exhaustion wraps ErrExhausted.
func (f *fetcher) get(ctx context.Context, url string, params map[string]string) (*resty.Response, error) {
	var lastErr error

	for attempt := 1; attempt <= f.cfg.MaxRetries; attempt++ {
		f.rl.Take()

		resp, err := f.httpClient.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(url)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
			}
			lastErr = err
			log.Warnf("attempt %d/%d failed for %s: %v", attempt, f.cfg.MaxRetries, url, err)

		case resp.StatusCode() == http.StatusForbidden || resp.StatusCode() == http.StatusNotFound:
			log.Debugf("%s answered %d, endpoint treated as absent", url, resp.StatusCode())
			return nil, fmt.Errorf("%s: %w", resp.Status(), ErrAbsent)

		case resp.IsError():
			lastErr = fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
			log.Warnf("attempt %d/%d for %s: %v", attempt, f.cfg.MaxRetries, url, lastErr)

		default:
			log.Debugf("fetched %s (attempt %d)", url, attempt)
			return resp, nil
		}

		if attempt < f.cfg.MaxRetries {
			f.rotateProxy()
			wait := time.Duration(f.cfg.RetryBackoff * float64(attempt) * float64(time.Second))
			log.Debugf("retrying %s in %s", url, wait)
			if err := Sleep(ctx, wait); err != nil {
				return nil, err
			}
		}
	}

	log.Errorf("❌ all %d attempts failed for %s: %v", f.cfg.MaxRetries, url, lastErr)
	return nil, fmt.Errorf("all %d attempts failed for %s (%v): %w", f.cfg.MaxRetries, url, lastErr, ErrExhausted)
}

// rotateProxy switches the session to the next proxy in the pool, if any.
func (f *fetcher) rotateProxy() {
	if f.proxies == nil {
		return
	}
	if proxyURL := f.proxies.Get(); proxyURL != "" {
		f.httpClient.SetProxy(proxyURL)
		log.Debugf("🔄 switched to proxy %s", proxyURL)
	}
}

// Sleep waits for d or until ctx is cancelled, whichever comes first.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
