// Package logging configures the process-wide gologger instance for one
// command invocation.
package logging

import (
	"io"
	"sync"

	"github.com/projectdiscovery/gologger"
	"github.com/projectdiscovery/gologger/formatter"
	"github.com/projectdiscovery/gologger/levels"
)

// Options mirror the global output flags.
type Options struct {
	Debug   bool
	Silent  bool
	NoColor bool
}

// Configure routes log output to w and sets the level. Silent wins over Debug.
func Configure(w io.Writer, opts Options) {
	gologger.DefaultLogger.SetWriter(&streamWriter{out: w})
	gologger.DefaultLogger.SetFormatter(formatter.NewCLI(opts.NoColor))

	level := levels.LevelInfo
	if opts.Debug {
		level = levels.LevelDebug
	}
	if opts.Silent {
		level = levels.LevelSilent
	}
	gologger.DefaultLogger.SetMaxLevel(level)
}

// streamWriter adapts an io.Writer to gologger's writer interface.
type streamWriter struct {
	mu  sync.Mutex
	out io.Writer
}

func (w *streamWriter) Write(data []byte, _ levels.Level) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.out.Write(data)
	w.out.Write([]byte("\n"))
}
