package registry

import (
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-json-experiment/json"
)

// Description is a typed view of an operation's declared details.
type Description struct {
	Operation   *Operation
	Description string
	Tags        []string
	Deprecated  bool
	Parameters  []Parameter
	RequestBody *RequestBody
	Responses   []string
}

type Parameter struct {
	Name        string
	In          string // path|query|header|cookie
	Required    bool
	Description string
	Ref         string
}

type RequestBody struct {
	Required     bool
	ContentTypes []string
	Ref          string
}

// Describe interprets the operation's raw details as an OpenAPI operation
// object. Unresolved $ref entries are reported by reference only.
func Describe(op *Operation) (*Description, error) {
	data, err := json.Marshal(op.Details, json.Deterministic(true))
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", op.ID, err)
	}
	oa := openapi3.NewOperation()
	if err := oa.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("describe %s: %w", op.ID, err)
	}

	d := &Description{
		Operation:   op,
		Description: oa.Description,
		Tags:        op.Tags(),
		Deprecated:  oa.Deprecated,
	}
	for _, pref := range oa.Parameters {
		if pref == nil {
			continue
		}
		if pref.Value == nil {
			d.Parameters = append(d.Parameters, Parameter{Ref: pref.Ref})
			continue
		}
		p := pref.Value
		d.Parameters = append(d.Parameters, Parameter{
			Name:        p.Name,
			In:          p.In,
			Required:    p.Required,
			Description: p.Description,
			Ref:         pref.Ref,
		})
	}
	if rb := oa.RequestBody; rb != nil {
		body := &RequestBody{Ref: rb.Ref}
		if rb.Value != nil {
			body.Required = rb.Value.Required
			for mime := range rb.Value.Content {
				body.ContentTypes = append(body.ContentTypes, mime)
			}
			sort.Strings(body.ContentTypes)
		}
		d.RequestBody = body
	}
	for status := range oa.Responses {
		d.Responses = append(d.Responses, status)
	}
	sort.Strings(d.Responses)
	return d, nil
}
