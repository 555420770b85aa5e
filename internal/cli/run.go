package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/projectdiscovery/gologger"

	"github.com/youyo/clapikit/internal/registry"
	"github.com/youyo/clapikit/internal/render"
	"github.com/youyo/clapikit/internal/session"
	"github.com/youyo/clapikit/internal/spec"
	"github.com/youyo/clapikit/internal/transport"
)

type runner func(ctx context.Context, w io.Writer, cfg *Config) error

var (
	listRunner     runner = runList
	dispatchRunner runner = runDispatch
	describeRunner runner = runDescribe
)

// loadOptions applies --timeout to the spec fetch as well, so 0 disables it
// there too.
func loadOptions(cfg *Config) []spec.Option {
	return []spec.Option{spec.WithHTTPTimeout(cfg.Timeout)}
}

func openSession(ctx context.Context, cfg *Config) (*session.Session, error) {
	return session.Open(ctx, cfg.Spec, loadOptions(cfg),
		session.WithServer(cfg.Server),
		session.WithDispatcher(&transport.HTTP{Timeout: cfg.Timeout}),
	)
}

func runList(ctx context.Context, w io.Writer, cfg *Config) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}

	var opts []registry.FilterOption
	if len(cfg.Tags) > 0 {
		opts = append(opts, registry.WithIncludeTags(cfg.Tags))
	}
	ops := sess.Registry().Filter(opts...)

	gologger.Debug().Msgf("Loaded %q with %d operations", sess.Spec().Title(), sess.Registry().Len())
	gologger.Debug().Msgf("Using server: %s", sess.BaseURL())
	fmt.Fprintln(w, "Available endpoints:")
	for _, op := range ops {
		fmt.Fprintf(w, "  %s\n", op)
	}
	return nil
}

func runDispatch(ctx context.Context, w io.Writer, cfg *Config) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	resp, err := sess.Invoke(ctx, cfg.Operation, cfg.Raw())
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, render.Render(resp, cfg.Mode()))
	return err
}

func runDescribe(ctx context.Context, w io.Writer, cfg *Config) error {
	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	op, err := sess.Registry().Lookup(cfg.Operation)
	if err != nil {
		return err
	}
	d, err := registry.Describe(op)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, op)
	fmt.Fprintf(w, "Server: %s\n", sess.BaseURL())
	if d.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", d.Description)
	}
	if len(d.Tags) > 0 {
		fmt.Fprintf(w, "Tags: %s\n", strings.Join(d.Tags, ", "))
	}
	if d.Deprecated {
		fmt.Fprintln(w, "Deprecated: true")
	}
	if len(d.Parameters) > 0 {
		fmt.Fprintln(w, "Parameters:")
		for _, p := range d.Parameters {
			if p.Name == "" {
				fmt.Fprintf(w, "  $ref %s\n", p.Ref)
				continue
			}
			attrs := p.In
			if p.Required {
				attrs += ", required"
			}
			line := fmt.Sprintf("  %s (%s)", p.Name, attrs)
			if p.Description != "" {
				line += " " + p.Description
			}
			fmt.Fprintln(w, line)
		}
	}
	if rb := d.RequestBody; rb != nil {
		switch {
		case rb.Ref != "" && len(rb.ContentTypes) == 0:
			fmt.Fprintf(w, "Request body: $ref %s\n", rb.Ref)
		case rb.Required:
			fmt.Fprintf(w, "Request body: %s (required)\n", strings.Join(rb.ContentTypes, ", "))
		default:
			fmt.Fprintf(w, "Request body: %s\n", strings.Join(rb.ContentTypes, ", "))
		}
	}
	if len(d.Responses) > 0 {
		fmt.Fprintf(w, "Responses: %s\n", strings.Join(d.Responses, ", "))
	}
	return nil
}
