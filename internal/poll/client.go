// Package poll talks to the diff server: it fetches content over HTTP,
// parses the tagged wire format and tracks the long-poll session.
package poll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/henri123lemoine/asmdw/internal/debug"
)

// ErrNoLinkerMap is returned by LinkerMap when the server has no map file
// configured.
var ErrNoLinkerMap = errors.New("server has no linker map")

// TransportError is a network failure or a non-2xx response. It is always
// retryable.
type TransportError struct {
	Query  string
	Status int // 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("GET ?%s: server returned %d", e.Query, e.Status)
	}
	return fmt.Sprintf("GET ?%s: %v", e.Query, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client issues requests against one diff server.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient returns a client for the server at rawURL. Long-poll requests
// can legitimately block for minutes, so the underlying http.Client has no
// timeout; callers bound requests with their context.
func NewClient(rawURL string) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server url %q: scheme must be http or https", rawURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return &Client{base: u, http: &http.Client{}}, nil
}

// URL returns the server URL with query appended.
func (c *Client) URL(query string) string {
	u := *c.base
	u.RawQuery = query
	return u.String()
}

// Content performs one long-poll request. With noWait the server answers
// immediately even if the diff has not changed.
func (c *Client) Content(ctx context.Context, noWait bool) (string, error) {
	query := "diff"
	if noWait {
		query += "&nowait"
	}
	return c.get(ctx, query)
}

// LinkerMap fetches the symbol dump. A 404 means no map is configured and
// is reported as ErrNoLinkerMap.
func (c *Client) LinkerMap(ctx context.Context) (string, error) {
	body, err := c.get(ctx, "linkermap")
	var te *TransportError
	if errors.As(err, &te) && te.Status == http.StatusNotFound {
		return "", ErrNoLinkerMap
	}
	return body, err
}

// Info fetches the session info dump.
func (c *Client) Info(ctx context.Context) (string, error) {
	return c.get(ctx, "info")
}

// SetStart asks the server to diff function fn from now on.
func (c *Client) SetStart(ctx context.Context, fn string) error {
	_, err := c.get(ctx, "set&start="+url.QueryEscape(fn))
	return err
}

func (c *Client) get(ctx context.Context, query string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(query), nil)
	if err != nil {
		return "", &TransportError{Query: query, Err: err}
	}

	done := debug.Timed(debug.CatPoll, "GET ?"+query)
	resp, err := c.http.Do(req)
	done()
	if err != nil {
		return "", &TransportError{Query: query, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &TransportError{Query: query, Status: resp.StatusCode}
	}
	if err != nil {
		return "", &TransportError{Query: query, Err: fmt.Errorf("reading body: %w", err)}
	}
	return string(body), nil
}
