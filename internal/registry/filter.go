package registry

import "strings"

// FilterOption narrows the set of operations returned by Filter.
type FilterOption func(*filterConfig)

type filterConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[string]struct{}
}

// WithIncludeTags keeps only operations that have at least one of the given tags.
func WithIncludeTags(tags []string) FilterOption {
	return func(c *filterConfig) {
		c.includeTags = addAll(c.includeTags, tags, false)
	}
}

// WithExcludeTags removes operations that have any of the given tags.
func WithExcludeTags(tags []string) FilterOption {
	return func(c *filterConfig) {
		c.excludeTags = addAll(c.excludeTags, tags, false)
	}
}

// WithMethods keeps only operations using one of the provided HTTP methods.
func WithMethods(methods []string) FilterOption {
	return func(c *filterConfig) {
		c.methods = addAll(c.methods, methods, true)
	}
}

func addAll(set map[string]struct{}, values []string, lower bool) map[string]struct{} {
	for _, v := range values {
		v = strings.TrimSpace(v)
		if lower {
			v = strings.ToLower(v)
		}
		if v == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(values))
		}
		set[v] = struct{}{}
	}
	return set
}

// Filter returns the registry's operations, in listing order, that pass every
// option. The registry itself is not modified.
func (r *Registry) Filter(opts ...FilterOption) []*Operation {
	cfg := &filterConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	var out []*Operation
	for _, op := range r.Operations() {
		if cfg.methods != nil {
			if _, ok := cfg.methods[op.Method]; !ok {
				continue
			}
		}
		if !allowByTags(op.Tags(), cfg) {
			continue
		}
		out = append(out, op)
	}
	return out
}

func allowByTags(tags []string, cfg *filterConfig) bool {
	for _, t := range tags {
		if _, ok := cfg.excludeTags[t]; ok {
			return false
		}
	}
	if len(cfg.includeTags) == 0 {
		return true
	}
	for _, t := range tags {
		if _, ok := cfg.includeTags[t]; ok {
			return true
		}
	}
	return false
}
