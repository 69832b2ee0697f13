package pinterest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"pindl/pkg/auth"
	"pindl/pkg/config"
	errs "pindl/pkg/errors"
	"pindl/pkg/logger"
	"pindl/pkg/ratelimit"
	"pindl/pkg/retry"
)

// streamURLPattern extracts a direct media URL out of a raw resource body
// when the response carries no story pin data.
var streamURLPattern = regexp.MustCompile(`url"\s?:([^},]+(?:m3u8|mp4|gif))`)

// Client talks to the Pinterest web API using a captured session cookie set.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	userAgent   string
	cookies     auth.CookieSet
	rateLimiter ratelimit.Limiter
	retrier     *retry.Retrier
	logger      logger.Logger
}

// NewClient creates an API client from the loaded configuration and session
// cookies.
func NewClient(cfg *config.Config, cookies auth.CookieSet, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Download.DownloadTimeout,
		},
		baseURL:     cfg.Pinterest.BaseURL,
		userAgent:   cfg.Pinterest.UserAgent,
		cookies:     cookies,
		rateLimiter: ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute),
		retrier: retry.NewRetrier(
			cfg.Retry.MaxAttempts,
			cfg.Retry.BaseDelay,
			cfg.Retry.MaxDelay,
			log.WithField("component", "pinterest"),
		),
		logger: log.WithField("component", "pinterest"),
	}
}

// PinResource looks up the metadata of a single pin and returns its resolved
// media. Story pins yield the original image of every page; video and gif
// pins yield a direct stream URL.
func (c *Client) PinResource(ctx context.Context, pinID string) (*Resource, error) {
	var body []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		body, reqErr = c.get(ctx, ResourceURL(c.baseURL, pinID), map[string]string{
			"x-pinterest-pws-handler": resourceHandler,
		})
		return reqErr
	})
	if err != nil {
		return nil, err
	}

	var parsed resourceResponse
	if jsonErr := json.Unmarshal(body, &parsed); jsonErr == nil {
		if images := parsed.originalImages(); len(images) > 0 {
			return &Resource{StoryImages: images}, nil
		}
	}

	match := streamURLPattern.FindSubmatch(body)
	if match == nil {
		return nil, errs.New(errs.ErrorTypeResolution,
			"no playable media in resource response for pin %s", pinID)
	}
	streamURL := strings.Trim(string(match[1]), `" `)
	streamURL = strings.ReplaceAll(streamURL, `\/`, "/")

	return &Resource{StreamURL: streamURL}, nil
}

// DeletePin removes a pin from its board. The response body is discarded;
// only the status code is checked.
func (c *Client) DeletePin(ctx context.Context, pinID string) error {
	return c.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost,
			DeleteURL(c.baseURL), strings.NewReader(DeleteBody(pinID)))
		if err != nil {
			return errs.New(errs.ErrorTypeUnknown, "failed to create request: %v", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("x-csrftoken", c.cookies.CSRFToken())
		c.applyHeaders(req, nil)

		resp, err := c.do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)

		return checkStatus(resp.StatusCode)
	})
}

// Fetch downloads the raw bytes behind a media URL.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := c.retrier.Do(ctx, func() error {
		var reqErr error
		body, reqErr = c.get(ctx, url, nil)
		return reqErr
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

// get performs a rate limited GET and returns the full body.
func (c *Client) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeUnknown, "failed to create request: %v", err)
	}
	c.applyHeaders(req, headers)

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if statusErr := checkStatus(resp.StatusCode); statusErr != nil {
		return nil, statusErr
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, "failed to read response body: %v", err)
	}
	return body, nil
}

// do waits for a rate limit slot and executes the request.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if err := c.rateLimiter.Wait(req.Context()); err != nil {
		return nil, err
	}

	c.logger.DebugWithFields("API request", map[string]interface{}{
		"method": req.Method,
		"url":    req.URL.Path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.New(errs.ErrorTypeNetwork, "request failed: %v", err)
	}
	return resp, nil
}

func (c *Client) applyHeaders(req *http.Request, extra map[string]string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*, q=0.01")
	req.Header.Set("Cookie", c.cookies.Header())
	for k, v := range extra {
		req.Header.Set(k, v)
	}
}

// checkStatus maps an HTTP status code to a typed error.
func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusTooManyRequests:
		return errs.NewWithCode(errs.ErrorTypeRateLimit, code, "rate limited by server")
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return errs.NewWithCode(errs.ErrorTypeAuth, code, "session rejected")
	case code == http.StatusNotFound:
		return errs.NewWithCode(errs.ErrorTypeNotFound, code, "pin not found")
	case code >= 500:
		return errs.NewWithCode(errs.ErrorTypeServerError, code, "server error")
	default:
		return errs.NewWithCode(errs.ErrorTypeUnknown, code, "unexpected status %d", code)
	}
}
