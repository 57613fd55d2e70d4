package cmd

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cameronsjo/toolcat/internal/plugin"
	"github.com/cameronsjo/toolcat/internal/service"
)

// newConversionService starts the conversion service on a loopback port.
func newConversionService(t *testing.T) *httptest.Server {
	t.Helper()
	registry := plugin.NewRegistry(nil)
	require.NoError(t, registry.Register(service.NewFormatConverter(0, nil)))
	server := httptest.NewServer(service.NewServer(registry, service.Options{}).Handler())
	t.Cleanup(server.Close)
	return server
}

func TestConvert_Local(t *testing.T) {
	isolate(t)

	t.Run("json to yaml from stdin", func(t *testing.T) {
		out, status, err := executeCmd(t, strings.NewReader(`{"a": 1, "b": [true, null]}`),
			"convert", "json-to-yaml", "--local")
		require.NoError(t, err)
		assert.Equal(t, "a: 1\nb:\n  - true\n  - null\n", out)
		assert.NotContains(t, status, "converted locally", "skipping the service is not a fallback")
	})

	t.Run("json with comments and trailing commas", func(t *testing.T) {
		input := "{\n  // note title\n  \"title\": \"groceries\",\n  \"items\": [\"milk\", \"eggs\",],\n}"
		out, _, err := executeCmd(t, strings.NewReader(input), "convert", "json-to-yaml", "--local")
		require.NoError(t, err)
		assert.Equal(t, "title: groceries\nitems:\n  - milk\n  - eggs\n", out)
	})

	t.Run("yaml to json from file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "note.yaml", "title: groceries\nitems:\n  - milk\ndone: false\n")
		out, _, err := executeCmd(t, nil, "convert", "yaml-to-json", path, "--local")
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"groceries","items":["milk"],"done":false}`, out)
		assert.True(t, strings.HasSuffix(out, "\n"))
		assert.True(t, strings.Index(out, "title") < strings.Index(out, "items"), "key order kept")
	})

	t.Run("dash reads stdin", func(t *testing.T) {
		out, _, err := executeCmd(t, strings.NewReader("x: 1\n"), "convert", "yaml-to-json", "-", "--local")
		require.NoError(t, err)
		assert.JSONEq(t, `{"x":1}`, out)
	})

	t.Run("output file", func(t *testing.T) {
		dst := filepath.Join(t.TempDir(), "out", "note.yaml")
		out, status, err := executeCmd(t, strings.NewReader(`{"a":"b"}`),
			"convert", "json-to-yaml", "--local", "--output", dst, "--verbose")
		require.NoError(t, err)
		assert.Empty(t, out)
		assert.Contains(t, status, "json-to-yaml [local]")
		assert.Contains(t, status, "Wrote "+dst)

		got, err := os.ReadFile(dst)
		require.NoError(t, err)
		assert.Equal(t, "a: b\n", string(got))
	})

	t.Run("invalid json", func(t *testing.T) {
		_, _, err := executeCmd(t, strings.NewReader(`{"a":`), "convert", "json-to-yaml", "--local")
		assert.ErrorContains(t, err, "invalid JSON input")
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := executeCmd(t, nil, "convert", "json-to-yaml", "nope.json", "--local")
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("protobuf needs the service", func(t *testing.T) {
		_, _, err := executeCmd(t, strings.NewReader(`{"a":1}`), "convert", "json-to-protobuf", "--local")
		assert.ErrorIs(t, err, ErrUnavailable)

		_, _, err = executeCmd(t, strings.NewReader("\x0a\x00"), "convert", "protobuf-to-json", "--local")
		assert.ErrorIs(t, err, ErrUnavailable)
	})

	t.Run("local and remote are exclusive", func(t *testing.T) {
		_, _, err := executeCmd(t, strings.NewReader("{}"),
			"convert", "json-to-yaml", "--local", "--remote", "http://localhost:1")
		assert.Error(t, err)
	})

	t.Run("too many arguments", func(t *testing.T) {
		_, _, err := executeCmd(t, nil, "convert", "json-to-yaml", "a.json", "b.json")
		assert.Error(t, err)
	})
}

func TestConvert_Remote(t *testing.T) {
	isolate(t)
	server := newConversionService(t)

	t.Run("json to yaml", func(t *testing.T) {
		out, status, err := executeCmd(t, strings.NewReader(`{"name":"toolcat","tags":["a"]}`),
			"convert", "json-to-yaml", "--remote", server.URL, "-v")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "name: toolcat\ntags:\n"), out)
		assert.Contains(t, out, "- a\n")
		assert.Contains(t, status, "[remote]")
	})

	t.Run("protobuf round trip", func(t *testing.T) {
		pb := filepath.Join(t.TempDir(), "note.pb")
		_, _, err := executeCmd(t, strings.NewReader(`{"title":"groceries","count":2,"done":true}`),
			"convert", "json-to-protobuf", "--remote", server.URL, "-o", pb)
		require.NoError(t, err)

		info, err := os.Stat(pb)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())

		out, _, err := executeCmd(t, nil, "convert", "protobuf-to-json", pb, "--remote", server.URL)
		require.NoError(t, err)
		assert.JSONEq(t, `{"title":"groceries","count":2,"done":true}`, out)
	})

	t.Run("remote url from config", func(t *testing.T) {
		dir := isolate(t)
		writeFile(t, dir, ".toolcat.yaml", "remote:\n  url: "+server.URL+"\n")

		_, status, err := executeCmd(t, strings.NewReader("a: 1\n"), "convert", "yaml-to-json", "-v")
		require.NoError(t, err)
		assert.Contains(t, status, "yaml-to-json [remote]")
	})
}

func TestConvert_Fallback(t *testing.T) {
	isolate(t)
	server := newConversionService(t)
	url := server.URL
	server.Close()

	out, status, err := executeCmd(t, strings.NewReader(`{"a":[1,2]}`), "convert", "json-to-yaml", "--remote", url)
	require.NoError(t, err)
	assert.Equal(t, "a:\n  - 1\n  - 2\n", out)
	assert.Contains(t, status, "converted locally")

	_, _, err = executeCmd(t, strings.NewReader(`{"a":1}`), "convert", "json-to-protobuf", "--remote", url, "-o", filepath.Join(t.TempDir(), "x.pb"))
	assert.ErrorIs(t, err, ErrUnavailable)
}
