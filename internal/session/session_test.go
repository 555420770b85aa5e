package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fulldump/biff"
	"github.com/google/uuid"

	"github.com/youyo/clapikit/internal/registry"
	"github.com/youyo/clapikit/internal/request"
	"github.com/youyo/clapikit/internal/spec"
	"github.com/youyo/clapikit/internal/transport"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []*request.Envelope
}

func (d *recordingDispatcher) Send(_ context.Context, env *request.Envelope) (*transport.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, env)
	return &transport.Response{StatusCode: 200, Body: "[]", ContentType: "application/json"}, nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

const usersSpec = `openapi: 3.0.0
info: {title: Users, version: "1"}
servers:
  - url: http://api.test
paths:
  /users:
    get:
      operationId: listUsers
`

func mustDecode(t *testing.T, raw string) *spec.Specification {
	t.Helper()
	sp, err := spec.Decode([]byte(raw), spec.FormatYAML)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return sp
}

func TestInvoke_UsesSpecServer(t *testing.T) {
	t.Parallel()
	d := &recordingDispatcher{}
	s := New(mustDecode(t, usersSpec), WithDispatcher(d))

	resp, err := s.Invoke(context.Background(), "listUsers", request.Raw{})
	biff.AssertNil(err)
	biff.AssertEqual(resp.StatusCode, 200)
	biff.AssertEqual(d.count(), 1)
	biff.AssertEqual(d.calls[0].HTTPMethod(), "GET")
	biff.AssertEqual(d.calls[0].URL, "http://api.test/users")
}

func TestInvoke_ServerOverride(t *testing.T) {
	t.Parallel()
	d := &recordingDispatcher{}
	s := New(mustDecode(t, usersSpec), WithDispatcher(d), WithServer("http://mock:4010"))

	_, err := s.Invoke(context.Background(), "listUsers", request.Raw{})
	biff.AssertNil(err)
	biff.AssertEqual(s.BaseURL(), "http://mock:4010")
	biff.AssertEqual(d.calls[0].URL, "http://mock:4010/users")
	biff.AssertEqual(len(s.Spec().Servers), 1)
}

func TestInvoke_CorrelatesEachExchange(t *testing.T) {
	t.Parallel()
	d := &recordingDispatcher{}
	s := New(mustDecode(t, usersSpec), WithDispatcher(d))

	first, err := s.Invoke(context.Background(), "listUsers", request.Raw{})
	biff.AssertNil(err)
	second, err := s.Invoke(context.Background(), "listUsers", request.Raw{})
	biff.AssertNil(err)

	if _, err := uuid.Parse(first.RequestID); err != nil {
		t.Fatalf("request id %q: %v", first.RequestID, err)
	}
	if first.RequestID == second.RequestID {
		t.Fatalf("request ids repeat: %s", first.RequestID)
	}
}

func TestInvoke_BodyPassesThroughUnchanged(t *testing.T) {
	t.Parallel()
	d := &recordingDispatcher{}
	s := New(mustDecode(t, usersSpec), WithDispatcher(d))

	body := `{"id":9007199254740993,"z":1,"a":2}`
	_, err := s.Invoke(context.Background(), "listUsers", request.Raw{Body: body})
	biff.AssertNil(err)
	biff.AssertEqual(string(d.calls[0].Body), body)
}

func TestInvoke_BadBodyNeverDispatches(t *testing.T) {
	t.Parallel()
	d := &recordingDispatcher{}
	s := New(mustDecode(t, usersSpec), WithDispatcher(d))

	_, err := s.Invoke(context.Background(), "listUsers", request.Raw{Body: "{bad json"})
	if !errors.Is(err, request.ErrBuild) {
		t.Fatalf("expected build error, got %v", err)
	}
	if d.count() != 0 {
		t.Fatalf("dispatcher invoked %d times", d.count())
	}
}

func TestInvoke_UnknownOperation(t *testing.T) {
	t.Parallel()
	d := &recordingDispatcher{}
	s := New(mustDecode(t, "openapi: 3.0.0\ninfo: {}\npaths: {}\n"), WithDispatcher(d))

	_, err := s.Invoke(context.Background(), "listUsers", request.Raw{})
	if !errors.Is(err, registry.ErrUnknownOperation) {
		t.Fatalf("expected unknown operation, got %v", err)
	}
	biff.AssertEqual(d.count(), 0)
}

func TestReload_SwapsWholeSnapshot(t *testing.T) {
	t.Parallel()
	d := &recordingDispatcher{}
	s := New(mustDecode(t, usersSpec), WithDispatcher(d))
	before := s.Registry()

	s.Reload(mustDecode(t, `openapi: 3.0.0
info: {}
servers: [{url: "http://other.test/v2/"}]
paths:
  /pets:
    get: {operationId: listPets}
`))

	if _, err := before.Lookup("listUsers"); err != nil {
		t.Fatalf("old registry changed: %v", err)
	}
	if _, err := s.Registry().Lookup("listUsers"); !errors.Is(err, registry.ErrUnknownOperation) {
		t.Fatalf("new registry still has old operation")
	}
	_, err := s.Invoke(context.Background(), "listPets", request.Raw{})
	biff.AssertNil(err)
	biff.AssertEqual(d.calls[0].URL, "http://other.test/v2/pets")
}

func TestReload_ConcurrentReaders(t *testing.T) {
	t.Parallel()
	s := New(mustDecode(t, usersSpec), WithDispatcher(&recordingDispatcher{}))
	next := mustDecode(t, usersSpec)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if s.Registry().Len() != 1 {
					t.Errorf("observed partial registry")
					return
				}
			}
		}()
	}
	for i := 0; i < 10; i++ {
		s.Reload(next)
	}
	wg.Wait()
}
