// Package request turns a registry operation plus raw user overrides into a
// transport-ready envelope.
package request

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/youyo/clapikit/internal/registry"
)

// Field names the override that failed to build.
type Field string

const (
	FieldBody    Field = "body"
	FieldQuery   Field = "query"
	FieldHeaders Field = "headers"
)

// Reason classifies a build failure.
type Reason string

const (
	ReasonInvalidJSON Reason = "invalid-json"
	ReasonNotObject   Reason = "not-an-object"
)

var ErrBuild = errors.New("request: build failed")

// BuildError identifies which override could not be turned into request data.
type BuildError struct {
	Field  Field
	Reason Reason
	Cause  error
}

func (e *BuildError) Error() string {
	msg := fmt.Sprintf("build request: %s: %s", e.Field, e.Reason)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *BuildError) Unwrap() error        { return e.Cause }
func (e *BuildError) Is(target error) bool { return target == ErrBuild }

// Raw holds the JSON text supplied by the user. Blank strings are treated as
// absent.
type Raw struct {
	Body    string
	Query   string
	Headers string
}

// Envelope is a fully formed request. Method is lower-case; Query and Header
// are nil when the caller supplied none. Body holds the caller's JSON text
// as written.
type Envelope struct {
	Method  string
	URL     string
	Query   url.Values
	Header  http.Header
	Body    jsontext.Value
	HasBody bool
}

// HTTPMethod returns the method as it goes on the wire.
func (e *Envelope) HTTPMethod() string { return strings.ToUpper(e.Method) }

// Build combines the operation with baseURL and the decoded overrides. Nothing
// beyond what the caller supplied is added to the request.
func Build(op *registry.Operation, baseURL string, raw Raw) (*Envelope, error) {
	env := &Envelope{
		Method: strings.ToLower(op.Method),
		URL:    JoinURL(baseURL, op.Path),
	}

	if present(raw.Body) {
		var body jsontext.Value
		if err := json.Unmarshal([]byte(raw.Body), &body, allowDuplicates); err != nil {
			return nil, &BuildError{Field: FieldBody, Reason: ReasonInvalidJSON, Cause: err}
		}
		env.Body = body
		env.HasBody = true
	}

	if present(raw.Query) {
		fields, err := decodeObject(FieldQuery, raw.Query)
		if err != nil {
			return nil, err
		}
		env.Query = url.Values{}
		if err := flatten(FieldQuery, fields, env.Query.Add); err != nil {
			return nil, err
		}
	}

	if present(raw.Headers) {
		fields, err := decodeObject(FieldHeaders, raw.Headers)
		if err != nil {
			return nil, err
		}
		env.Header = http.Header{}
		if err := flatten(FieldHeaders, fields, env.Header.Add); err != nil {
			return nil, err
		}
	}

	return env, nil
}

// JoinURL joins base and path with exactly one slash. Path templates such as
// {id} are passed through untouched.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// Repeated member names are valid JSON text; the last one wins.
var allowDuplicates = jsontext.AllowDuplicateNames(true)

func present(s string) bool { return strings.TrimSpace(s) != "" }

func decodeObject(field Field, raw string) (map[string]jsontext.Value, error) {
	var v jsontext.Value
	if err := json.Unmarshal([]byte(raw), &v, allowDuplicates); err != nil {
		return nil, &BuildError{Field: field, Reason: ReasonInvalidJSON, Cause: err}
	}
	if v.Kind() != '{' {
		return nil, &BuildError{Field: field, Reason: ReasonNotObject, Cause: fmt.Errorf("got JSON %s", kindName(v.Kind()))}
	}
	var fields map[string]jsontext.Value
	if err := json.Unmarshal(v, &fields, allowDuplicates); err != nil {
		return nil, &BuildError{Field: field, Reason: ReasonInvalidJSON, Cause: err}
	}
	return fields, nil
}

func flatten(field Field, fields map[string]jsontext.Value, add func(key, value string)) error {
	for key, v := range fields {
		if err := addValue(key, v, add); err != nil {
			return &BuildError{Field: field, Reason: ReasonInvalidJSON, Cause: err}
		}
	}
	return nil
}

// addValue writes one JSON value under key. Arrays repeat the key, null is
// skipped, objects are sent as compact JSON text.
func addValue(key string, v jsontext.Value, add func(key, value string)) error {
	switch v.Kind() {
	case 'n':
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		add(key, s)
	case 't', 'f', '0':
		add(key, string(v))
	case '[':
		var items []jsontext.Value
		if err := json.Unmarshal(v, &items); err != nil {
			return err
		}
		for _, item := range items {
			if err := addValue(key, item, add); err != nil {
				return err
			}
		}
	case '{':
		compact := v.Clone()
		if err := compact.Compact(allowDuplicates); err != nil {
			return err
		}
		add(key, string(compact))
	default:
		return fmt.Errorf("unexpected JSON value for %q", key)
	}
	return nil
}

func kindName(k jsontext.Kind) string {
	switch k {
	case 'n':
		return "null"
	case 't', 'f':
		return "boolean"
	case '"':
		return "string"
	case '0':
		return "number"
	case '[':
		return "array"
	}
	return "value"
}
