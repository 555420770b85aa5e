// Package render formats dispatch responses for the terminal.
package render

import (
	"fmt"
	"mime"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/youyo/clapikit/internal/transport"
)

// Mode selects how the response body is printed.
type Mode string

const (
	Structured Mode = "structured"
	Raw        Mode = "raw"
)

// ParseMode accepts "structured" or "raw"; blank means structured.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Structured:
		return Structured, nil
	case Raw:
		return Raw, nil
	}
	return "", fmt.Errorf("unknown output mode %q (want structured or raw)", s)
}

var prettyOptions = &pretty.Options{Indent: "  "}

// Render returns the body followed by a line holding the status code. In
// structured mode a JSON body is re-indented; anything that does not parse is
// printed as received.
func Render(resp *transport.Response, mode Mode) string {
	body := resp.Body
	if mode != Raw && IsJSON(resp.ContentType) && gjson.Valid(body) {
		body = string(pretty.PrettyOptions([]byte(body), prettyOptions))
	}

	var b strings.Builder
	b.WriteString(body)
	if body != "" && !strings.HasSuffix(body, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(strconv.Itoa(resp.StatusCode))
	b.WriteByte('\n')
	return b.String()
}

// IsJSON reports whether contentType names application/json or a +json type.
func IsJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
