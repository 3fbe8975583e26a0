package resolve

import (
	"sort"
	"strings"
)

const (
	HeaderContentDisposition = "Content-Disposition"
	HeaderContentType        = "Content-Type"
)

// Headers maps a response header name to every value it had, in order.
// http.Header converts to it directly.
type Headers map[string][]string

// Values returns the values stored under name. The exact key comes first,
// followed by keys that differ only in case, in sorted key order.
func (h Headers) Values(name string) []string {
	if len(h) == 0 {
		return nil
	}
	var out []string
	if vs, ok := h[name]; ok {
		out = append(out, vs...)
	}

	var folded []string
	for key := range h {
		if key != name && strings.EqualFold(key, name) {
			folded = append(folded, key)
		}
	}
	sort.Strings(folded)
	for _, key := range folded {
		out = append(out, h[key]...)
	}
	return out
}

// Add appends a value under name.
func (h Headers) Add(name, value string) {
	h[name] = append(h[name], value)
}

// mediaType strips any ";"-delimited parameters from a Content-Type value.
func mediaType(contentType string) string {
	if i := strings.IndexByte(contentType, ';'); i > -1 {
		contentType = contentType[:i]
	}
	return strings.TrimSpace(contentType)
}
