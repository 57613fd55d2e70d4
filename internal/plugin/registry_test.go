package plugin

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePlugin struct {
	name   string
	routes []Route
}

func (f *fakePlugin) Name() string        { return f.name }
func (f *fakePlugin) Description() string { return "fake " + f.name }
func (f *fakePlugin) Version() string     { return "0.1.0" }
func (f *fakePlugin) Routes() []Route     { return f.routes }

func text(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}
}

func newFake(name string) *fakePlugin {
	return &fakePlugin{name: name, routes: []Route{
		{Method: http.MethodGet, Path: "/", Description: "info", Handler: text(name + " info")},
		{Method: http.MethodPost, Path: "/echo", Description: "echo", Handler: func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.Copy(w, r.Body)
		}},
	}}
}

func TestRegistry_Register(t *testing.T) {
	t.Run("rejects duplicates", func(t *testing.T) {
		r := NewRegistry(nil)
		require.NoError(t, r.Register(newFake("calc")))

		err := r.Register(newFake("calc"))
		assert.ErrorIs(t, err, ErrAlreadyRegistered)
	})

	t.Run("rejects invalid plugins", func(t *testing.T) {
		r := NewRegistry(nil)

		tests := []struct {
			name   string
			plugin Plugin
		}{
			{"nil", nil},
			{"empty name", &fakePlugin{name: ""}},
			{"slash in name", &fakePlugin{name: "a/b"}},
			{"relative path", &fakePlugin{name: "p", routes: []Route{{Method: "GET", Path: "x", Handler: text("")}}}},
			{"missing method", &fakePlugin{name: "p", routes: []Route{{Path: "/x", Handler: text("")}}}},
			{"missing handler", &fakePlugin{name: "p", routes: []Route{{Method: "GET", Path: "/x"}}}},
			{"duplicate route", &fakePlugin{name: "p", routes: []Route{
				{Method: "GET", Path: "/x", Handler: text("")},
				{Method: "GET", Path: "/x", Handler: text("")},
			}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				assert.ErrorIs(t, r.Register(tt.plugin), ErrInvalidPlugin)
			})
		}
		assert.Empty(t, r.List())
	})
}

func TestRegistry_UnregisterLookupList(t *testing.T) {
	r := NewRegistry(nil)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(newFake(name)))
	}

	var names []string
	for _, p := range r.List() {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)

	p, ok := r.Lookup("mid")
	require.True(t, ok)
	assert.Equal(t, "mid", p.Name())

	require.NoError(t, r.Unregister("mid"))
	_, ok = r.Lookup("mid")
	assert.False(t, ok)
	assert.ErrorIs(t, r.Unregister("mid"), ErrNotRegistered)
}

func TestRegistry_Mount(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(newFake("calc")))

	mux := http.NewServeMux()
	r.Mount(mux)
	server := httptest.NewServer(mux)
	defer server.Close()

	get := func(t *testing.T, path string) (int, string) {
		t.Helper()
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(body)
	}

	t.Run("info route with and without trailing slash", func(t *testing.T) {
		code, body := get(t, "/plugins/calc/")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "calc info", body)

		code, body = get(t, "/plugins/calc")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "calc info", body)
	})

	t.Run("post route", func(t *testing.T) {
		resp, err := http.Post(server.URL+"/plugins/calc/echo", "text/plain", strings.NewReader("ping"))
		require.NoError(t, err)
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "ping", string(body))
	})

	t.Run("wrong method", func(t *testing.T) {
		code, body := get(t, "/plugins/calc/echo")
		assert.Equal(t, http.StatusMethodNotAllowed, code)
		assert.Contains(t, body, "not allowed")
	})

	t.Run("unknown plugin and route", func(t *testing.T) {
		code, _ := get(t, "/plugins/nope/")
		assert.Equal(t, http.StatusNotFound, code)

		code, _ = get(t, "/plugins/calc/missing")
		assert.Equal(t, http.StatusNotFound, code)
	})

	t.Run("listing", func(t *testing.T) {
		code, body := get(t, "/plugins")
		require.Equal(t, http.StatusOK, code)

		var listing struct {
			Plugins []Summary `json:"plugins"`
		}
		require.NoError(t, json.Unmarshal([]byte(body), &listing))
		require.Len(t, listing.Plugins, 1)
		assert.Equal(t, "calc", listing.Plugins[0].Name)
		assert.Equal(t, []string{"GET /", "POST /echo"}, listing.Plugins[0].Endpoints)
	})

	t.Run("registration after mount is served", func(t *testing.T) {
		require.NoError(t, r.Register(newFake("late")))
		code, body := get(t, "/plugins/late/")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "late info", body)

		require.NoError(t, r.Unregister("late"))
		code, _ = get(t, "/plugins/late/")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestRegistry_Concurrent(t *testing.T) {
	r := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Register(newFake("shared"))
			r.List()
			r.Lookup("shared")
		}()
	}
	wg.Wait()

	assert.Len(t, r.List(), 1)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad input")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"bad input"}`, rec.Body.String())
}
