// Package plugin provides an explicit registry of HTTP plugins. Each plugin
// owns a set of routes served under /plugins/<name>.
package plugin

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Plugin is a named, versioned bundle of HTTP routes.
type Plugin interface {
	Name() string
	Description() string
	Version() string
	Routes() []Route
}

// Route is one endpoint of a plugin. Path is relative to the plugin prefix
// and "/" addresses the prefix itself.
type Route struct {
	Method      string
	Path        string
	Description string
	Handler     http.HandlerFunc
}

// Endpoint renders the route as "METHOD /path".
func (r Route) Endpoint() string {
	return r.Method + " " + r.Path
}

// Summary is the listing entry of a registered plugin.
type Summary struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Endpoints   []string `json:"endpoints"`
}

// Summarize describes p for listings.
func Summarize(p Plugin) Summary {
	routes := p.Routes()
	endpoints := make([]string, len(routes))
	for i, r := range routes {
		endpoints[i] = r.Endpoint()
	}
	return Summary{
		Name:        p.Name(),
		Description: p.Description(),
		Version:     p.Version(),
		Endpoints:   endpoints,
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"error": msg})
}
