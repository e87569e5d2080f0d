// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package starter talks to the Web of Science Starter API: one rate-limited,
// retrying GET per logical request, and a paginated fetch loop on top of it.
package starter

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

	"github.com/rs/zerolog"

	"github.com/pdiddy/starter-export/internal/httputil"
	"github.com/pdiddy/starter-export/internal/metrics"
	"github.com/pdiddy/starter-export/pkg/types"
)

// maxErrorBody bounds how much of an error response is kept for messages.
const maxErrorBody = 512

// Client issues logical requests against the Starter API. It is not safe
// for concurrent use; a run issues one request at a time.
type Client struct {
	cfg     types.StarterConfig
	http    *http.Client
	pacer   *httputil.Pacer
	sleep   httputil.Sleeper
	rand    func() float64
	now     func() time.Time
	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// Options carries the collaborators a Client may be given. Zero values
// select production defaults.
type Options struct {
	HTTPClient *http.Client
	Sleep      httputil.Sleeper
	Rand       func() float64
	Now        func() time.Time
	Logger     *zerolog.Logger
	Metrics    *metrics.Recorder
}

// NewClient creates a Client from cfg.
func NewClient(cfg types.StarterConfig, opts Options) *Client {
	c := &Client{
		cfg:     cfg,
		http:    opts.HTTPClient,
		pacer:   httputil.NewPacer(cfg.Retry.MinInterval),
		sleep:   opts.Sleep,
		rand:    opts.Rand,
		now:     opts.Now,
		logger:  zerolog.Nop(),
		metrics: opts.Metrics,
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	if c.sleep == nil {
		c.sleep = httputil.Sleep
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.Logger != nil {
		c.logger = opts.Logger.With().Str("component", "starter").Logger()
	}
	return c
}

// Get requests path with params and returns the decoded JSON object.
//
// Every call first waits for the min-interval pacer. A 400 fails at once
// with *ClientQueryError. A 429 is retried after Retry-After or the
// throttle backoff. Transient statuses, network failures, and unparsable
// bodies are retried with jittered backoff. Each class has its own retry
// ceiling inside a shared budget of RetryConfig.MaxAttempts attempts;
// running out yields *ExhaustedRetriesError.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (map[string]any, error) {
	reqURL := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if err := c.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	retry := c.cfg.Retry
	budget := retry.MaxAttempts()
	failures := make(map[types.ErrorClass]int)

	var (
		lastErr   error
		lastClass types.ErrorClass
		attempts  int
	)
	for attempt := 0; attempt < budget; attempt++ {
		attempts = attempt + 1
		body, class, delay, err := c.attempt(ctx, reqURL, params.Get("q"))
		if err == nil {
			if attempt > 0 {
				c.logger.Info().Str("path", path).Int("attempt", attempts).Msg("request succeeded after retry")
			}
			return body, nil
		}
		if class == "" {
			return nil, err
		}

		lastErr, lastClass = err, class
		failures[class]++
		policy := retry.Backoff[class]
		if failures[class] > policy.MaxRetries || attempt == budget-1 {
			break
		}

		if delay == noRetryAfter {
			delay = httputil.Backoff(policy, attempt, retry.MinInterval, c.rand)
		} else {
			delay = max(delay, retry.MinInterval)
		}
		c.metrics.Retry(string(class), delay)
		c.logger.Warn().
			Str("path", path).
			Str("error_class", string(class)).
			Int("attempt", attempts).
			Dur("backoff", delay).
			Err(err).
			Msg("retrying request after backoff")

		if err := c.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	c.metrics.Exhausted(string(lastClass))
	c.logger.Error().
		Str("path", path).
		Str("error_class", string(lastClass)).
		Int("attempts", attempts).
		Err(lastErr).
		Msg("retry attempts exhausted")
	return nil, &ExhaustedRetriesError{URL: reqURL, Class: lastClass, Attempts: attempts, Err: lastErr}
}

// noRetryAfter marks a retryable failure without a usable Retry-After.
const noRetryAfter time.Duration = -1

// attempt performs one HTTP exchange. On a retryable failure it returns
// the error class and, for throttles with Retry-After, the server's delay
// (zero included); otherwise the delay is noRetryAfter.
// A terminal failure comes back with an empty class.
func (c *Client) attempt(ctx context.Context, reqURL, query string) (map[string]any, types.ErrorClass, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if c.cfg.APIKey != "" {
		req.Header.Set("X-ApiKey", c.cfg.APIKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", 0, ctxErr
		}
		c.metrics.Response(0)
		return nil, types.ClassNetwork, noRetryAfter, &attemptError{msg: "request failed", err: err}
	}
	defer resp.Body.Close()
	c.metrics.Response(resp.StatusCode)

	c.logger.Debug().Str("url", reqURL).Int("status", resp.StatusCode).Msg("starter response")

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		drain(resp.Body)
		return nil, "", 0, &ClientQueryError{
			Status:           resp.StatusCode,
			Query:            query,
			SearchableFields: c.cfg.SearchableFields,
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		drain(resp.Body)
		delay, ok := httputil.RetryAfter(resp.Header, c.now())
		if !ok {
			delay = noRetryAfter
		}
		return nil, types.ClassThrottled, delay, &attemptError{status: resp.StatusCode, msg: "throttled"}

	case c.cfg.Retry.IsTransientStatus(resp.StatusCode):
		drain(resp.Body)
		return nil, types.ClassServer, noRetryAfter, &attemptError{status: resp.StatusCode, msg: "transient server error"}

	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", 0, &StatusError{Status: resp.StatusCode, Body: readSnippet(resp.Body)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", 0, ctxErr
		}
		return nil, types.ClassNetwork, noRetryAfter, &attemptError{status: resp.StatusCode, msg: "reading body", err: err}
	}
	body, err := decodeObject(data)
	if err != nil {
		return nil, types.ClassMalformed, noRetryAfter, &attemptError{status: resp.StatusCode, msg: "parsing response", err: err}
	}
	return body, "", 0, nil
}

// decodeObject parses a JSON object keeping numbers as json.Number. An
// empty body or a literal null decodes to an empty object.
func decodeObject(data []byte) (map[string]any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if v == nil {
		return map[string]any{}, nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("response is not a JSON object")
	}
	return obj, nil
}

func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}

func readSnippet(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, maxErrorBody))
	drain(r)
	return strings.TrimSpace(string(data))
}
