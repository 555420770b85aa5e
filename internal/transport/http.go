// Package transport executes request envelopes over HTTP.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/youyo/clapikit/internal/request"
)

var ErrTransport = errors.New("transport: request failed")

// TransportError wraps network, DNS and TLS failures. A non-2xx status is not
// an error.
type TransportError struct {
	Method string
	URL    string
	Cause  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport: %s %s: %v", e.Method, e.URL, e.Cause)
}

func (e *TransportError) Unwrap() error        { return e.Cause }
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Response is the read-only result of a dispatch. ContentType is empty when
// the server sent none. RequestID is set by the caller that correlates the
// exchange in its logs.
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        string
	ContentType string
	RequestID   string
}

// Dispatcher sends one envelope and blocks until the response is read.
type Dispatcher interface {
	Send(ctx context.Context, env *request.Envelope) (*Response, error)
}

// HTTP is the net/http Dispatcher. Zero Timeout means none; a nil Client uses
// a fresh client with default redirect handling.
type HTTP struct {
	Client  *http.Client
	Timeout time.Duration
}

var _ Dispatcher = (*HTTP)(nil)

func (h *HTTP) client() *http.Client {
	if h.Client != nil {
		return h.Client
	}
	return &http.Client{Timeout: h.Timeout}
}

// Send performs the request exactly once.
func (h *HTTP) Send(ctx context.Context, env *request.Envelope) (*Response, error) {
	target := withQuery(env)

	var body io.Reader
	if env.HasBody {
		body = bytes.NewReader(env.Body)
	}

	if h.Client != nil && h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, env.HTTPMethod(), target, body)
	if err != nil {
		return nil, &TransportError{Method: env.HTTPMethod(), URL: target, Cause: err}
	}
	for key, values := range env.Header {
		// net/http ignores Header["Host"] on outgoing requests.
		if http.CanonicalHeaderKey(key) == "Host" {
			if len(values) > 0 {
				req.Host = values[len(values)-1]
			}
			continue
		}
		req.Header[key] = append([]string(nil), values...)
	}

	resp, err := h.client().Do(req)
	if err != nil {
		return nil, &TransportError{Method: env.HTTPMethod(), URL: target, Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Method: env.HTTPMethod(), URL: target, Cause: err}
	}
	return &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        string(data),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// withQuery appends the envelope query to its URL without re-encoding the path.
func withQuery(env *request.Envelope) string {
	if len(env.Query) == 0 {
		return env.URL
	}
	sep := "?"
	if strings.Contains(env.URL, "?") {
		sep = "&"
	}
	return env.URL + sep + env.Query.Encode()
}
