package spec

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"gopkg.in/yaml.v3"
)

// DecodeReason classifies why a document could not be decoded.
type DecodeReason string

const (
	ReasonUnsupportedFormat DecodeReason = "unsupported-format"
	ReasonMalformed         DecodeReason = "malformed"
	ReasonInvalidShape      DecodeReason = "invalid-shape"
)

var ErrDecode = errors.New("spec: decode failed")

// DecodeError reports unsupported or malformed spec content.
type DecodeError struct {
	Reason   DecodeReason
	Detail   string
	Location string
	Cause    error
}

func (e *DecodeError) Error() string {
	msg := "decode spec: " + string(e.Reason)
	if e.Location != "" {
		msg = fmt.Sprintf("decode spec %s: %s", e.Location, e.Reason)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *DecodeError) Unwrap() error        { return e.Cause }
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// shapeError marks a document that parsed but does not look like a spec. It
// stops the strategy trial instead of falling through to the next format.
type shapeError struct{ detail string }

func (e *shapeError) Error() string { return e.detail }

func shapef(format string, args ...any) error {
	return &shapeError{detail: fmt.Sprintf(format, args...)}
}

var errNotMapping = errors.New("top-level value is not a mapping")

// document is the format-neutral result of a structural parse.
type document struct {
	fields   map[string]any
	paths    []PathItem
	hasPaths bool
}

type strategy struct {
	format Format
	decode func([]byte) (*document, error)
}

// strategies are tried in order when the format hint is unknown.
var strategies = []strategy{
	{format: FormatJSON, decode: decodeJSON},
	{format: FormatYAML, decode: decodeYAML},
}

// Decode turns raw bytes into a Specification. A JSON or YAML hint selects
// that parser only; an unknown hint tries JSON first, then YAML.
func Decode(raw []byte, hint Format) (*Specification, error) {
	var doc *document
	switch hint {
	case FormatJSON, FormatYAML:
		for _, s := range strategies {
			if s.format != hint {
				continue
			}
			d, err := s.decode(raw)
			if err != nil {
				var se *shapeError
				if errors.As(err, &se) || errors.Is(err, errNotMapping) {
					return nil, &DecodeError{Reason: ReasonInvalidShape, Detail: err.Error()}
				}
				return nil, &DecodeError{Reason: ReasonMalformed, Detail: fmt.Sprintf("%s: %v", hint, err), Cause: err}
			}
			doc = d
		}
	default:
		var failures []string
		for _, s := range strategies {
			d, err := s.decode(raw)
			if err == nil {
				doc = d
				break
			}
			var se *shapeError
			if errors.As(err, &se) {
				return nil, &DecodeError{Reason: ReasonInvalidShape, Detail: se.detail}
			}
			failures = append(failures, fmt.Sprintf("%s: %v", s.format, err))
		}
		if doc == nil {
			return nil, &DecodeError{Reason: ReasonUnsupportedFormat, Detail: strings.Join(failures, "; ")}
		}
	}
	return assemble(doc)
}

func assemble(doc *document) (*Specification, error) {
	s := &Specification{}

	version, fromSwagger, err := documentVersion(doc.fields)
	if err != nil {
		return nil, err
	}
	s.Version = version

	info, ok := doc.fields["info"]
	if !ok {
		return nil, &DecodeError{Reason: ReasonInvalidShape, Detail: `missing required field "info"`}
	}
	if s.Info, ok = info.(map[string]any); !ok {
		return nil, &DecodeError{Reason: ReasonInvalidShape, Detail: fmt.Sprintf(`"info" must be a mapping, got %s`, typeName(info))}
	}

	if !doc.hasPaths {
		return nil, &DecodeError{Reason: ReasonInvalidShape, Detail: `missing required field "paths"`}
	}
	s.Paths = doc.paths

	if s.Servers, err = documentServers(doc.fields["servers"]); err != nil {
		return nil, err
	}
	if len(s.Servers) == 0 && fromSwagger {
		s.Servers = swaggerServers(doc.fields)
	}
	return s, nil
}

func documentVersion(fields map[string]any) (string, bool, error) {
	for _, key := range []string{"openapi", "swagger"} {
		v, ok := fields[key]
		if !ok {
			continue
		}
		str, isStr := v.(string)
		if !isStr || strings.TrimSpace(str) == "" {
			return "", false, &DecodeError{Reason: ReasonInvalidShape, Detail: fmt.Sprintf("%q must be a non-empty string, got %s", key, typeName(v))}
		}
		return str, key == "swagger", nil
	}
	return "", false, &DecodeError{Reason: ReasonInvalidShape, Detail: `missing required field "openapi"`}
}

func documentServers(v any) ([]ServerEntry, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil, &DecodeError{Reason: ReasonInvalidShape, Detail: fmt.Sprintf(`"servers" must be a sequence, got %s`, typeName(v))}
	}
	servers := make([]ServerEntry, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, &DecodeError{Reason: ReasonInvalidShape, Detail: fmt.Sprintf(`"servers[%d]" must be a mapping, got %s`, i, typeName(item))}
		}
		u, _ := m["url"].(string)
		d, _ := m["description"].(string)
		servers = append(servers, ServerEntry{URL: strings.TrimSpace(u), Description: d})
	}
	return servers, nil
}

func decodeJSON(data []byte) (*document, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data), jsontext.AllowDuplicateNames(true))
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, err
	}
	if tok.Kind() != '{' {
		return nil, errNotMapping
	}

	doc := &document{fields: map[string]any{}}
	for dec.PeekKind() != '}' {
		name, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		key := name.String()
		if key == "paths" {
			if doc.paths, err = decodeJSONPaths(dec); err != nil {
				return nil, err
			}
			doc.hasPaths = true
			continue
		}
		val, err := dec.ReadValue()
		if err != nil {
			return nil, err
		}
		var v any
		if err := json.Unmarshal(val, &v, jsontext.AllowDuplicateNames(true)); err != nil {
			return nil, err
		}
		doc.fields[key] = v
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}
	if _, err := dec.ReadToken(); !errors.Is(err, io.EOF) {
		if err == nil {
			err = errors.New("unexpected data after top-level value")
		}
		return nil, err
	}
	return doc, nil
}

func decodeJSONPaths(dec *jsontext.Decoder) ([]PathItem, error) {
	if k := dec.PeekKind(); k != '{' {
		if _, err := dec.ReadValue(); err != nil {
			return nil, err
		}
		return nil, shapef(`"paths" must be a mapping, got %s`, jsonKindName(k))
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}

	var items []PathItem
	for dec.PeekKind() != '}' {
		name, err := dec.ReadToken()
		if err != nil {
			return nil, err
		}
		path := name.String()
		if k := dec.PeekKind(); k != '{' {
			if _, err := dec.ReadValue(); err != nil {
				return nil, err
			}
			return nil, shapef("paths[%q] must be a mapping, got %s", path, jsonKindName(k))
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}

		var ops []MethodOperation
		for dec.PeekKind() != '}' {
			name, err := dec.ReadToken()
			if err != nil {
				return nil, err
			}
			method := strings.ToLower(name.String())
			k := dec.PeekKind()
			val, err := dec.ReadValue()
			if err != nil {
				return nil, err
			}
			if !isHTTPMethod(method) {
				continue
			}
			if k != '{' {
				return nil, shapef("paths[%q].%s must be a mapping, got %s", path, method, jsonKindName(k))
			}
			var details map[string]any
			if err := json.Unmarshal(val, &details, jsontext.AllowDuplicateNames(true)); err != nil {
				return nil, err
			}
			ops = putOperation(ops, MethodOperation{Method: method, Details: details})
		}
		if _, err := dec.ReadToken(); err != nil {
			return nil, err
		}
		items = putPath(items, PathItem{Path: path, Operations: ops})
	}
	if _, err := dec.ReadToken(); err != nil {
		return nil, err
	}
	return items, nil
}

func decodeYAML(data []byte) (*document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	n := &root
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	n = resolveAlias(n)
	if n.Kind != yaml.MappingNode {
		return nil, errNotMapping
	}

	doc := &document{fields: map[string]any{}}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		val := resolveAlias(n.Content[i+1])
		if key == "paths" {
			paths, err := decodeYAMLPaths(val)
			if err != nil {
				return nil, err
			}
			doc.paths, doc.hasPaths = paths, true
			continue
		}
		var v any
		if err := val.Decode(&v); err != nil {
			return nil, err
		}
		doc.fields[key] = normalizeValue(v)
	}
	return doc, nil
}

func decodeYAMLPaths(n *yaml.Node) ([]PathItem, error) {
	if n.Kind != yaml.MappingNode {
		return nil, shapef(`"paths" must be a mapping, got %s`, yamlKindName(n))
	}
	var items []PathItem
	for i := 0; i+1 < len(n.Content); i += 2 {
		path := n.Content[i].Value
		item := resolveAlias(n.Content[i+1])
		if item.Kind != yaml.MappingNode {
			return nil, shapef("paths[%q] must be a mapping, got %s", path, yamlKindName(item))
		}
		var ops []MethodOperation
		for j := 0; j+1 < len(item.Content); j += 2 {
			method := strings.ToLower(item.Content[j].Value)
			if !isHTTPMethod(method) {
				continue
			}
			opNode := resolveAlias(item.Content[j+1])
			if opNode.Kind != yaml.MappingNode {
				return nil, shapef("paths[%q].%s must be a mapping, got %s", path, method, yamlKindName(opNode))
			}
			var details map[string]any
			if err := opNode.Decode(&details); err != nil {
				return nil, err
			}
			for k, v := range details {
				details[k] = normalizeValue(v)
			}
			ops = putOperation(ops, MethodOperation{Method: method, Details: details})
		}
		items = putPath(items, PathItem{Path: path, Operations: ops})
	}
	return items, nil
}

// putPath appends item, or replaces an earlier item with the same path in
// place, matching dictionary semantics for duplicate keys.
func putPath(items []PathItem, item PathItem) []PathItem {
	for i := range items {
		if items[i].Path == item.Path {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

func putOperation(ops []MethodOperation, op MethodOperation) []MethodOperation {
	for i := range ops {
		if ops[i].Method == op.Method {
			ops[i] = op
			return ops
		}
	}
	return append(ops, op)
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

// normalizeValue rewrites YAML-decoded values into the JSON data model so the
// rest of the program only ever sees map[string]any.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, item := range val {
			val[k] = normalizeValue(item)
		}
		return val
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = normalizeValue(item)
		}
		return out
	case []any:
		for i, item := range val {
			val[i] = normalizeValue(item)
		}
		return val
	}
	return v
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	}
	return "number"
}

func jsonKindName(k jsontext.Kind) string {
	switch k {
	case '{':
		return "mapping"
	case '[':
		return "sequence"
	case '"':
		return "string"
	case '0':
		return "number"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "invalid value"
}

func yamlKindName(n *yaml.Node) string {
	switch n.Kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "null"
		}
		return "scalar"
	}
	return "empty value"
}
