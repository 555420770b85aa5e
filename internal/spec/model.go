package spec

// DefaultServerURL is used when a document declares no usable server.
const DefaultServerURL = "http://localhost"

// Specification is the decoded API description. Paths keep document order.
type Specification struct {
	Version string
	Info    map[string]any
	Servers []ServerEntry
	Paths   []PathItem
}

type ServerEntry struct {
	URL         string
	Description string
}

type PathItem struct {
	Path       string
	Operations []MethodOperation
}

// MethodOperation is one verb entry under a path. Method is lower-case.
type MethodOperation struct {
	Method  string
	Details map[string]any
}

// ServerURL returns the effective base URL: the first server entry when it
// carries a URL, DefaultServerURL otherwise.
func (s *Specification) ServerURL() string {
	if len(s.Servers) > 0 && s.Servers[0].URL != "" {
		return s.Servers[0].URL
	}
	return DefaultServerURL
}

// SetServerURL overrides the first server entry, creating it when the list is
// empty. Additional entries are left untouched.
func (s *Specification) SetServerURL(url string) {
	if len(s.Servers) == 0 {
		s.Servers = []ServerEntry{{URL: url}}
		return
	}
	s.Servers[0].URL = url
}

// Title returns info.title when it is a string.
func (s *Specification) Title() string {
	t, _ := s.Info["title"].(string)
	return t
}

// OperationCount is the number of declared (path, method) pairs.
func (s *Specification) OperationCount() int {
	n := 0
	for _, p := range s.Paths {
		n += len(p.Operations)
	}
	return n
}

var httpMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"options": {},
	"head":    {},
	"patch":   {},
	"trace":   {},
}

func isHTTPMethod(key string) bool {
	_, ok := httpMethods[key]
	return ok
}
