package spec

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	InputError ErrorCode = "InputError"
	NotFound   ErrorCode = "SpecNotFound"
)

var (
	ErrInput    = errors.New("spec: invalid input")
	ErrNotFound = errors.New("spec: not found")
)

// SpecError is a structured loader error carrying the offending location.
type SpecError struct {
	Code     ErrorCode
	Message  string
	Location string // file path or URL
	Cause    error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

func (e *SpecError) Is(target error) bool {
	switch e.Code {
	case InputError:
		return target == ErrInput
	case NotFound:
		return target == ErrNotFound
	}
	return false
}

// Format is the declared or sniffed encoding of a spec document.
type Format int

const (
	FormatUnknown Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return "unknown"
}

// Source is a fetched spec document before decoding.
type Source struct {
	Location string
	Raw      []byte
	Format   Format
}

// Settings configures loader behavior.
type Settings struct {
	// HTTPTimeout bounds the remote fetch. Zero means no timeout.
	HTTPTimeout time.Duration
	// Client overrides the HTTP client used for remote documents.
	Client *http.Client
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{HTTPTimeout: 30 * time.Second}
}

// Option mutates Settings.
type Option func(*Settings)

func WithHTTPTimeout(d time.Duration) Option { return func(s *Settings) { s.HTTPTimeout = d } }
func WithHTTPClient(c *http.Client) Option   { return func(s *Settings) { s.Client = c } }

// Load reads a spec document from a filesystem path or an http/https URL and
// reports the format hint derived from its extension or Content-Type.
func Load(ctx context.Context, input string, opts ...Option) (*Source, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &SpecError{Code: InputError, Message: "spec: input is empty"}
	}

	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	u, uerr := url.Parse(input)
	isURL := uerr == nil && u.Scheme != "" && u.Host != ""

	if isURL {
		scheme := strings.ToLower(u.Scheme)
		if scheme != "http" && scheme != "https" {
			return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: unsupported URL scheme %q (only http/https allowed)", scheme), Location: input}
		}
		raw, contentType, err := fetch(ctx, input, settings)
		if err != nil {
			return nil, &SpecError{Code: NotFound, Message: fmt.Sprintf("spec not found: fetch %s: %v", input, err), Location: input, Cause: err}
		}
		format := formatFromExtension(u.Path)
		if format == FormatUnknown {
			format = formatFromContentType(contentType)
		}
		return &Source{Location: input, Raw: raw, Format: format}, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return nil, &SpecError{Code: InputError, Message: fmt.Sprintf("spec: resolve path: %v", err), Location: input, Cause: err}
	}
	raw, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &SpecError{Code: NotFound, Message: fmt.Sprintf("spec not found: %s", abs), Location: abs, Cause: err}
		}
		return nil, &SpecError{Code: NotFound, Message: fmt.Sprintf("spec not found: read file %s: %v", abs, err), Location: abs, Cause: err}
	}
	return &Source{Location: abs, Raw: raw, Format: formatFromExtension(abs)}, nil
}

// Open loads and decodes a spec document in one step.
func Open(ctx context.Context, input string, opts ...Option) (*Specification, error) {
	src, err := Load(ctx, input, opts...)
	if err != nil {
		return nil, err
	}
	doc, err := Decode(src.Raw, src.Format)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Location = src.Location
		}
		return nil, err
	}
	return doc, nil
}

func fetch(ctx context.Context, rawURL string, settings Settings) ([]byte, string, error) {
	client := settings.Client
	if client == nil {
		client = &http.Client{Timeout: settings.HTTPTimeout}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, "", fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return raw, resp.Header.Get("Content-Type"), nil
}

func formatFromExtension(p string) Format {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatUnknown
}

func formatFromContentType(ct string) Format {
	if ct == "" {
		return FormatUnknown
	}
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return FormatUnknown
	}
	switch {
	case mt == "application/json" || strings.HasSuffix(mt, "+json"):
		return FormatJSON
	case strings.Contains(mt, "yaml"):
		return FormatYAML
	}
	return FormatUnknown
}
