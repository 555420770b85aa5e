package spec

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const petsYAML = `openapi: 3.0.0
info:
  title: Pets
  version: "1.0.0"
servers:
  - url: http://api.test
paths:
  /pets:
    get:
      operationId: listPets
      summary: List pets
`

func TestLoad_EmptyInput(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "   ")
	if !errors.Is(err, ErrInput) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestLoad_BlocksFileURL(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "file://localhost/etc/hosts")
	if err == nil {
		t.Fatalf("expected error for file:// URL")
	}
	var se *SpecError
	if !errors.As(err, &se) {
		t.Fatalf("expected SpecError, got %T", err)
	}
	if se.Code != InputError {
		t.Fatalf("expected InputError, got %v", se.Code)
	}
}

func TestLoad_UnsupportedScheme(t *testing.T) {
	t.Parallel()
	_, err := Load(context.Background(), "ftp://example.com/spec.yaml")
	var se *SpecError
	if !errors.As(err, &se) || se.Code != InputError {
		t.Fatalf("expected InputError, got %v (%T)", err, err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Load(context.Background(), path)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	var se *SpecError
	if !errors.As(err, &se) || se.Location == "" {
		t.Fatalf("expected location to be set, got %v", err)
	}
}

func TestLoad_NetworkError(t *testing.T) {
	t.Parallel()
	// Unused port to provoke a quick network failure.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err := Load(ctx, "http://127.0.0.1:1/spec.yaml", WithHTTPTimeout(200*time.Millisecond))
	var se *SpecError
	if !errors.As(err, &se) || se.Code != NotFound {
		t.Fatalf("expected SpecNotFound, got %v (%T)", err, err)
	}
}

func TestLoad_FormatFromExtension(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	cases := map[string]Format{
		"spec.json": FormatJSON,
		"spec.YAML": FormatYAML,
		"spec.yml":  FormatYAML,
		"spec.txt":  FormatUnknown,
		"spec":      FormatUnknown,
	}
	for name, want := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(petsYAML), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		src, err := Load(context.Background(), path)
		if err != nil {
			t.Fatalf("load %s: %v", name, err)
		}
		if src.Format != want {
			t.Errorf("%s: want %v got %v", name, want, src.Format)
		}
	}
}

func TestLoad_RemoteUsesContentType(t *testing.T) {
	t.Parallel()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/openapi":
			w.Header().Set("Content-Type", "application/yaml")
			_, _ = w.Write([]byte(petsYAML))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src, err := Load(context.Background(), srv.URL+"/openapi")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if src.Format != FormatYAML {
		t.Fatalf("expected yaml hint from content type, got %v", src.Format)
	}

	_, err = Load(context.Background(), srv.URL+"/missing.json")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found for 404, got %v", err)
	}
}

func TestOpen_File(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "pets.yaml")
	if err := os.WriteFile(path, []byte(petsYAML), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if doc.Title() != "Pets" || doc.ServerURL() != "http://api.test" {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestOpen_DecodeErrorCarriesLocation(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Open(context.Background(), path)
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected DecodeError, got %T: %v", err, err)
	}
	if de.Reason != ReasonMalformed {
		t.Fatalf("expected malformed, got %s", de.Reason)
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("expected location in message, got %q", err.Error())
	}
}
