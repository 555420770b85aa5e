package spec

import (
	"strings"

	openapi2 "github.com/getkin/kin-openapi/openapi2"
	"github.com/getkin/kin-openapi/openapi2conv"
)

// swaggerServers derives server entries for a Swagger 2.0 document from its
// host, basePath and schemes, using the same rules kin-openapi applies when
// converting v2 documents to v3.
func swaggerServers(fields map[string]any) []ServerEntry {
	host := asString(fields["host"])
	if host == "" {
		return nil
	}
	v2 := &openapi2.T{
		Swagger:  asString(fields["swagger"]),
		Host:     host,
		BasePath: asString(fields["basePath"]),
	}
	if schemes, ok := fields["schemes"].([]any); ok {
		for _, s := range schemes {
			if str := asString(s); str != "" {
				v2.Schemes = append(v2.Schemes, str)
			}
		}
	}
	v3, err := openapi2conv.ToV3(v2)
	if err != nil || v3 == nil {
		return nil
	}
	servers := make([]ServerEntry, 0, len(v3.Servers))
	for _, s := range v3.Servers {
		if s == nil {
			continue
		}
		servers = append(servers, ServerEntry{URL: s.URL, Description: s.Description})
	}
	return servers
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
