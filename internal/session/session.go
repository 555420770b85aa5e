// Package session holds the loaded specification, its registry and the
// effective server URL for one run of the tool.
package session

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/projectdiscovery/gologger"

	"github.com/youyo/clapikit/internal/registry"
	"github.com/youyo/clapikit/internal/request"
	"github.com/youyo/clapikit/internal/spec"
	"github.com/youyo/clapikit/internal/transport"
)

type snapshot struct {
	spec     *spec.Specification
	registry *registry.Registry
	baseURL  string
}

// Session is safe for concurrent readers. Reload replaces the whole snapshot
// at once.
type Session struct {
	current    atomic.Pointer[snapshot]
	dispatcher transport.Dispatcher
	server     string
}

// Option configures a Session.
type Option func(*Session)

// WithServer overrides the first server entry of every loaded spec.
func WithServer(url string) Option {
	return func(s *Session) { s.server = strings.TrimSpace(url) }
}

// WithDispatcher replaces the default HTTP dispatcher.
func WithDispatcher(d transport.Dispatcher) Option {
	return func(s *Session) { s.dispatcher = d }
}

// New builds a session around an already decoded specification.
func New(sp *spec.Specification, opts ...Option) *Session {
	s := &Session{}
	for _, opt := range opts {
		opt(s)
	}
	if s.dispatcher == nil {
		s.dispatcher = &transport.HTTP{}
	}
	s.current.Store(s.build(sp))
	return s
}

// Open loads the spec at input and returns a ready session.
func Open(ctx context.Context, input string, loadOpts []spec.Option, opts ...Option) (*Session, error) {
	sp, err := spec.Open(ctx, input, loadOpts...)
	if err != nil {
		return nil, err
	}
	return New(sp, opts...), nil
}

func (s *Session) build(sp *spec.Specification) *snapshot {
	if s.server != "" {
		gologger.Debug().Msgf("Overriding server URL with: %s", s.server)
		sp.SetServerURL(s.server)
	}
	return &snapshot{
		spec:     sp,
		registry: registry.Derive(sp),
		baseURL:  sp.ServerURL(),
	}
}

// Reload derives a fresh registry from sp and swaps it in. Callers holding the
// previous registry keep a consistent view.
func (s *Session) Reload(sp *spec.Specification) {
	s.current.Store(s.build(sp))
}

func (s *Session) Spec() *spec.Specification   { return s.current.Load().spec }
func (s *Session) Registry() *registry.Registry { return s.current.Load().registry }
func (s *Session) BaseURL() string              { return s.current.Load().baseURL }

// Invoke looks up name, builds the request and sends it. Nothing is sent when
// the lookup or the build fails.
func (s *Session) Invoke(ctx context.Context, name string, raw request.Raw) (*transport.Response, error) {
	snap := s.current.Load()
	op, err := snap.registry.Lookup(name)
	if err != nil {
		return nil, err
	}
	env, err := request.Build(op, snap.baseURL, raw)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	gologger.Debug().Msgf("Using server: %s", snap.baseURL)
	resp, err := s.dispatcher.Send(ctx, env)
	logExchange(id, env, resp, err)
	if err != nil {
		return nil, err
	}
	resp.RequestID = id
	return resp, nil
}

// logExchange writes the request and its outcome under one correlation id.
func logExchange(id string, env *request.Envelope, resp *transport.Response, err error) {
	gologger.Debug().Msgf("[%s] %s %s", id, env.HTTPMethod(), env.URL)
	if env.HasBody {
		gologger.Debug().Msgf("[%s] body %s", id, env.Body)
	}
	if err != nil {
		gologger.Debug().Msgf("[%s] failed: %v", id, err)
		return
	}
	gologger.Debug().Msgf("[%s] status %d (%d bytes)", id, resp.StatusCode, len(resp.Body))
}
