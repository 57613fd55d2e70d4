package plugin

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Prefix is the URL path under which plugins are served.
const Prefix = "/plugins"

var (
	// ErrAlreadyRegistered is returned when a plugin name is taken.
	ErrAlreadyRegistered = errors.New("plugin already registered")
	// ErrNotRegistered is returned when no plugin has the given name.
	ErrNotRegistered = errors.New("plugin not registered")
	// ErrInvalidPlugin is returned for plugins that cannot be served.
	ErrInvalidPlugin = errors.New("invalid plugin")
)

// Registry holds the plugins of one application. It is safe for concurrent
// use, and plugins registered after Mount are served immediately.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	logger  log.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger log.Logger) *Registry {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Registry{
		plugins: make(map[string]Plugin),
		logger:  logger,
	}
}

// Register adds p. Names must be unique and routes well formed.
func (r *Registry) Register(p Plugin) error {
	if err := validate(p); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, ok := r.plugins[name]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, name)
	}
	r.plugins[name] = p

	level.Info(r.logger).Log("msg", "plugin registered", "plugin", name, "version", p.Version(), "routes", len(p.Routes()))
	return nil
}

// Unregister removes the plugin with the given name.
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.plugins[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}
	delete(r.plugins, name)

	level.Info(r.logger).Log("msg", "plugin unregistered", "plugin", name)
	return nil
}

// Lookup returns the plugin with the given name.
func (r *Registry) Lookup(name string) (Plugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[name]
	return p, ok
}

// List returns the registered plugins sorted by name.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name() < list[j].Name() })
	return list
}

// Mount serves the registry on mux under Prefix.
func (r *Registry) Mount(mux *http.ServeMux) {
	mux.Handle(Prefix, r)
	mux.Handle(Prefix+"/", r)
}

// ServeHTTP dispatches /plugins/<name><path> to the matching route and
// answers GET /plugins with the plugin listing.
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rest := strings.TrimPrefix(req.URL.Path, Prefix)
	if rest == "" || rest == "/" {
		r.serveList(w, req)
		return
	}

	name, path, _ := strings.Cut(strings.TrimPrefix(rest, "/"), "/")
	path = "/" + path

	p, ok := r.Lookup(name)
	if !ok {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("plugin %q not found", name))
		return
	}

	var allowed []string
	for _, route := range p.Routes() {
		if route.Path != path {
			continue
		}
		if route.Method == req.Method {
			route.Handler(w, req)
			return
		}
		allowed = append(allowed, route.Method)
	}

	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
		WriteError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", req.Method))
		return
	}
	WriteError(w, http.StatusNotFound, fmt.Sprintf("route %s not found in plugin %q", path, name))
}

func (r *Registry) serveList(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		WriteError(w, http.StatusMethodNotAllowed, fmt.Sprintf("method %s not allowed", req.Method))
		return
	}

	plugins := r.List()
	summaries := make([]Summary, len(plugins))
	for i, p := range plugins {
		summaries[i] = Summarize(p)
	}
	WriteJSON(w, http.StatusOK, map[string]any{"plugins": summaries})
}

func validate(p Plugin) error {
	if p == nil {
		return fmt.Errorf("%w: nil plugin", ErrInvalidPlugin)
	}

	name := p.Name()
	if name == "" || strings.ContainsAny(name, "/ ") {
		return fmt.Errorf("%w: bad name %q", ErrInvalidPlugin, name)
	}

	var errs []error
	seen := make(map[string]bool)
	for _, route := range p.Routes() {
		key := route.Endpoint()
		switch {
		case route.Method == "":
			errs = append(errs, fmt.Errorf("route %s has no method", route.Path))
		case !strings.HasPrefix(route.Path, "/"):
			errs = append(errs, fmt.Errorf("route %q must start with /", route.Path))
		case route.Handler == nil:
			errs = append(errs, fmt.Errorf("route %s has no handler", key))
		case seen[key]:
			errs = append(errs, fmt.Errorf("route %s declared twice", key))
		}
		seen[key] = true
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w %s: %w", ErrInvalidPlugin, name, errors.Join(errs...))
	}
	return nil
}
