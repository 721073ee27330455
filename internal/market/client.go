package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const (
	retryBaseWait = 1 * time.Second
	retryCapWait  = 30 * time.Second
)

// Client is the resty-based HTTP client against the upstream provider,
// built the same way the exchange client builds its resty.Client
// (SetBaseURL/SetTimeout plus a custom retry policy), generalized from a
// signed private API to a single header-based API key. Retry is
// composed entirely from resty's own hooks rather than a hand-rolled
// loop: SetRetryCount/SetRetryWaitTime/SetRetryMaxWaitTime give the
// jittered exponential backoff, AddRetryCondition decides which
// responses are retried at all, and SetRetryAfter lets an upstream
// Retry-After header override resty's computed wait.
type Client struct {
	http        *resty.Client
	apiKey      string
	rateLimiter *RateLimiter
	logger      *logrus.Logger
}

type Config struct {
	BaseURL      string
	APIKey       string
	Timeout      time.Duration
	Retries      int
	RateLimitRPS float64
}

func NewClient(cfg Config, logger *logrus.Logger) *Client {
	c := &Client{
		apiKey:      cfg.APIKey,
		rateLimiter: NewRateLimiter(cfg.RateLimitRPS),
		logger:      logger,
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(cfg.BaseURL)
	httpClient.SetTimeout(cfg.Timeout)
	// Runs before every attempt, including retries, so the rate limiter
	// gates each individual HTTP call rather than only the first one.
	httpClient.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		return c.rateLimiter.Wait(r.Context())
	})
	// A Retry-After header overrides resty's own computed backoff for
	// the next attempt; returning 0 falls back to the client's
	// configured exponential wait.
	httpClient.SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
		return parseRetryAfter(resp.Header().Get("Retry-After")), nil
	})
	c.http = httpClient

	return c
}

func (c *Client) Close() {
	c.rateLimiter.Close()
}

// FetchPage issues one page request with retry/backoff per the fetcher's
// documented policy: base 1s, exponential, cap 30s, up to maxAttempts.
// A Retry-After header, when present, overrides resty's computed wait.
// HTTP 4xx other than 429 is terminal for the page and returned without
// further retries.
func (c *Client) FetchPage(ctx context.Context, page, perPage, maxAttempts int) ([]Asset, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var terminalErr error

	// resty's retry knobs (SetRetryCount/SetRetryWaitTime/SetRetryMaxWaitTime)
	// live on *Client, not *Request, so maxAttempts (which varies per call)
	// is applied to a clone of the shared client scoped to this one request.
	reqClient := c.http.Clone()
	reqClient.SetRetryCount(maxAttempts - 1).
		SetRetryWaitTime(retryBaseWait).
		SetRetryMaxWaitTime(retryCapWait)

	req := reqClient.R().
		SetContext(ctx).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			status := resp.StatusCode()
			if status >= 200 && status < 300 {
				return false
			}
			if status >= 400 && status < 500 && status != http.StatusTooManyRequests {
				terminalErr = fmt.Errorf("terminal HTTP %d on page %d: %s", status, page, resp.String())
				return false
			}
			c.logger.WithFields(logrus.Fields{
				"page":   page,
				"status": status,
			}).Warn("retrying upstream page fetch")
			return true
		}).
		SetQueryParams(map[string]string{
			"vs_currency":             "usd",
			"order":                   "market_cap_desc",
			"per_page":                strconv.Itoa(perPage),
			"page":                    strconv.Itoa(page),
			"sparkline":               "false",
			"price_change_percentage": "24h,7d,30d",
		})
	if c.apiKey != "" {
		req.SetHeader("x-cg-pro-api-key", c.apiKey)
	}

	resp, err := req.Get("/coins/markets")
	if terminalErr != nil {
		return nil, terminalErr
	}
	if err != nil {
		return nil, fmt.Errorf("page %d failed after %d attempts: %w", page, maxAttempts, err)
	}
	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return nil, fmt.Errorf("page %d failed after %d attempts: HTTP %d: %s", page, maxAttempts, status, resp.String())
	}

	var assets []Asset
	if jsonErr := json.Unmarshal(resp.Body(), &assets); jsonErr != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, jsonErr)
	}
	return assets, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		return time.Duration(secs) * time.Second
	}
	if when, err := http.ParseTime(header); err == nil {
		return time.Until(when)
	}
	return 0
}
