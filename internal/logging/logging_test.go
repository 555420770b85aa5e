package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/projectdiscovery/gologger"
)

// These tests share gologger.DefaultLogger and must not run in parallel.

func TestConfigure_DebugGatesDebugEvents(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, Options{NoColor: true})
	gologger.Debug().Msgf("hidden %d", 1)
	if buf.Len() != 0 {
		t.Fatalf("debug event leaked at info level: %q", buf.String())
	}

	Configure(&buf, Options{Debug: true, NoColor: true})
	gologger.Debug().Msgf("Using server: %s", "http://api.test")
	if !strings.Contains(buf.String(), "Using server: http://api.test") {
		t.Fatalf("debug event missing: %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\n") {
		t.Fatalf("expected newline-terminated line: %q", buf.String())
	}
}

func TestConfigure_SilentWins(t *testing.T) {
	var buf bytes.Buffer
	Configure(&buf, Options{Debug: true, Silent: true, NoColor: true})
	gologger.Info().Msgf("info")
	gologger.Debug().Msgf("debug")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}
