// Package registry derives the invokable operations of a specification.
package registry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/youyo/clapikit/internal/spec"
)

// DefaultSummary is used when an operation declares no summary.
const DefaultSummary = "No description"

var ErrUnknownOperation = errors.New("unknown operation")

// UnknownOperationError is returned by Lookup for names absent from the
// registry. Matching is exact; no suggestions are made.
type UnknownOperationError struct {
	Name string
}

func (e *UnknownOperationError) Error() string {
	return fmt.Sprintf("unknown operation %q", e.Name)
}

func (e *UnknownOperationError) Is(target error) bool { return target == ErrUnknownOperation }

// Operation is one invokable (path, method) entry. Method is lower-case.
type Operation struct {
	ID      string
	Path    string
	Method  string
	Summary string
	Details map[string]any
}

// Registry maps operation ids to operations. It is read-only once Derive
// returns.
type Registry struct {
	ops   map[string]*Operation
	order []string
}

// Derive walks paths and methods in document order. Operations whose ids
// collide replace the earlier entry; the id keeps its first listing position.
func Derive(s *spec.Specification) *Registry {
	r := &Registry{ops: make(map[string]*Operation, s.OperationCount())}
	for _, item := range s.Paths {
		for _, mo := range item.Operations {
			op := &Operation{
				ID:      operationID(item.Path, mo),
				Path:    item.Path,
				Method:  mo.Method,
				Summary: DefaultSummary,
				Details: mo.Details,
			}
			if summary, ok := mo.Details["summary"].(string); ok && summary != "" {
				op.Summary = summary
			}
			if _, exists := r.ops[op.ID]; !exists {
				r.order = append(r.order, op.ID)
			}
			r.ops[op.ID] = op
		}
	}
	return r
}

func operationID(path string, mo spec.MethodOperation) string {
	if id, ok := mo.Details["operationId"].(string); ok && id != "" {
		return id
	}
	return mo.Method + "_" + sanitizePath(path)
}

func sanitizePath(path string) string {
	return strings.Trim(strings.ReplaceAll(path, "/", "_"), "_")
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (*Operation, error) {
	if r != nil {
		if op, ok := r.ops[name]; ok {
			return op, nil
		}
	}
	return nil, &UnknownOperationError{Name: name}
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.ops)
}

// Operations returns every operation in listing order.
func (r *Registry) Operations() []*Operation {
	if r == nil {
		return nil
	}
	out := make([]*Operation, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.ops[id])
	}
	return out
}

// Tags returns the operation's declared tags.
func (op *Operation) Tags() []string {
	list, _ := op.Details["tags"].([]any)
	tags := make([]string, 0, len(list))
	for _, t := range list {
		if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
			tags = append(tags, strings.TrimSpace(s))
		}
	}
	return tags
}

// String renders the listing line for the operation.
func (op *Operation) String() string {
	return fmt.Sprintf("%s %s - %s: %s", strings.ToUpper(op.Method), op.Path, op.ID, op.Summary)
}
