package ctftime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public CTFtime API root.
	DefaultBaseURL = "https://ctftime.org/api/v1"

	// pageLimit bounds a single feed request.
	pageLimit = 100

	// maxLogoBytes caps logo downloads so a misbehaving CDN can't balloon memory.
	maxLogoBytes = 8 << 20
)

var ErrBadStatus = errors.New("ctftime: unexpected status")

// Client fetches upcoming events from the CTFtime feed.
//
// It performs no retries and keeps no state beyond the HTTP client;
// retry policy belongs to the caller's schedule.
type Client struct {
	baseURL string
	http    *http.Client
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests, custom timeouts).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithBaseURL points the client at a different feed root (tests).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if strings.TrimSpace(base) != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Events performs one feed request (limit=100) and parses the response
// into Event records. It does not filter; malformed records (missing id
// or title) fail the whole fetch.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	u := c.baseURL + "/events/?limit=" + strconv.Itoa(pageLimit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("ctftime: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ctftime: fetch events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: http=%d", ErrBadStatus, resp.StatusCode)
	}

	var events []Event
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&events); err != nil {
		return nil, fmt.Errorf("ctftime: decode events: %w", err)
	}

	for i := range events {
		if events[i].ID <= 0 {
			return nil, fmt.Errorf("ctftime: event #%d has no id", i)
		}
		if strings.TrimSpace(events[i].Title) == "" {
			return nil, fmt.Errorf("ctftime: event %d has no title", events[i].ID)
		}
	}
	return events, nil
}

// Logo downloads an event logo. Callers treat failures as "no image";
// nothing here is fatal to an announcement.
func (c *Client) Logo(ctx context.Context, rawURL string) ([]byte, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, errors.New("ctftime: empty logo url")
	}
	if _, err := url.ParseRequestURI(rawURL); err != nil {
		return nil, fmt.Errorf("ctftime: bad logo url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("ctftime: build logo request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ctftime: fetch logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("%w: http=%d", ErrBadStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ctftime: read logo: %w", err)
	}
	if len(data) > maxLogoBytes {
		return nil, errors.New("ctftime: logo too large")
	}
	if len(data) == 0 {
		return nil, errors.New("ctftime: empty logo body")
	}
	return data, nil
}
