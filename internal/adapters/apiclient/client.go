package apiclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"hotel_inventory/internal/domain"
)

const maxAttempts = 4

// Client talks to the hotel inventory HTTP API.
type Client struct {
	base string
	hc   *http.Client
	lang string
	rl   *rate.Limiter
}

func New(base string, rps int) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q", base)
	}
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// WithLanguage sets the Accept-Language sent with every request.
func (c *Client) WithLanguage(lang string) *Client {
	c.lang = lang
	return c
}

// ---- Public API ----

func (c *Client) CreateHotel(ctx context.Context, in domain.HotelInput) (domain.HotelView, error) {
	var out domain.HotelView
	return out, c.do(ctx, http.MethodPost, "/v1/hotels", in, &out)
}

func (c *Client) UpdateHotel(ctx context.Context, id int64, in domain.HotelInput) (domain.HotelView, error) {
	var out domain.HotelView
	return out, c.do(ctx, http.MethodPut, fmt.Sprintf("/v1/hotels/%d", id), in, &out)
}

func (c *Client) GetHotel(ctx context.Context, id int64) (domain.HotelView, error) {
	var out domain.HotelView
	return out, c.do(ctx, http.MethodGet, fmt.Sprintf("/v1/hotels/%d", id), nil, &out)
}

func (c *Client) DeleteHotel(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/v1/hotels/%d", id), nil, nil)
}

func (c *Client) ListHotels(ctx context.Context, page, perPage int) (domain.HotelsPage, error) {
	var out domain.HotelsPage
	path := fmt.Sprintf("/v1/hotels?page=%d&per_page=%d", page, perPage)
	return out, c.do(ctx, http.MethodGet, path, nil, &out)
}

func (c *Client) Parameters(ctx context.Context) (domain.CatalogData, error) {
	var out domain.CatalogData
	return out, c.do(ctx, http.MethodGet, "/v1/parametricas", nil, &out)
}

// ---- Errors ----

var (
	ErrNotFound = errors.New("apiclient: not found")
	ErrConflict = errors.New("apiclient: conflict")
)

// ProblemError is a problem+json answer from the API.
type ProblemError struct {
	Status   int               `json:"status"`
	Title    string            `json:"title"`
	Detail   string            `json:"detail"`
	Kind     string            `json:"kind"`
	Field    string            `json:"field"`
	Codes    []string          `json:"codes"`
	Total    *int              `json:"total"`
	Capacity *int              `json:"capacity"`
	Errors   map[string]string `json:"errors"`
}

func (e *ProblemError) Error() string {
	if e.Kind != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Kind, e.Detail)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Detail)
}

func (e *ProblemError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// ---- Internals ----

// do sends one request with client-side rate limiting and retries, decoding
// a 2xx body into out. Retries on 429 and transient 5xx, honoring Retry-After
// when provided.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}

	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		// build a fresh request each attempt
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "hotelctl/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.lang != "" {
			req.Header.Set("Accept-Language", c.lang)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			if i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}

		switch {
		case resp.StatusCode == http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			var err error
			if out != nil {
				err = json.NewDecoder(resp.Body).Decode(out)
			}
			resp.Body.Close()
			return err

		case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusBadGateway,
			resp.StatusCode == http.StatusServiceUnavailable, resp.StatusCode == http.StatusGatewayTimeout:
			// Prefer server-provided Retry-After; otherwise exponential backoff.
			wait := retryAfter(resp)
			lastErr = readProblem(resp)
			if wait == 0 {
				wait = backoff(i)
			}
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			return readProblem(resp)
		}
	}

	return lastErr
}

// readProblem decodes a problem document, keeping a short raw body when the
// answer is not one. It closes the body.
func readProblem(resp *http.Response) error {
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 16<<10))
	p := &ProblemError{}
	if err := json.Unmarshal(b, p); err != nil || p.Status == 0 {
		p = &ProblemError{Title: http.StatusText(resp.StatusCode), Detail: strings.TrimSpace(string(b))}
	}
	p.Status = resp.StatusCode
	return p
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date). Returns 0 if absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 100ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 100 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
