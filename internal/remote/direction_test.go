package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection(t *testing.T) {
	tests := []struct {
		dir      Direction
		name     string
		request  string
		response string
	}{
		{JSONToYAML, "json-to-yaml", MediaJSON, MediaYAML},
		{YAMLToJSON, "yaml-to-json", MediaYAML, MediaJSON},
		{JSONToProtobuf, "json-to-protobuf", MediaJSON, MediaProtobuf},
		{ProtobufToJSON, "protobuf-to-json", MediaProtobuf, MediaJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.dir.String())
			assert.Equal(t, "/convert/"+tt.name, tt.dir.Route())
			assert.Equal(t, "/plugins/format_converter/convert/"+tt.name, tt.dir.Path())
			assert.Equal(t, tt.request, tt.dir.RequestType())
			assert.Equal(t, tt.response, tt.dir.ResponseType())

			parsed, err := ParseDirection(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.dir, parsed)
		})
	}

	t.Run("unknown", func(t *testing.T) {
		_, err := ParseDirection("xml-to-json")
		assert.Error(t, err)
		assert.Equal(t, "direction(9)", Direction(9).String())
		assert.Empty(t, Direction(9).ResponseType())
	})
}

func TestDirection_acceptsMediaType(t *testing.T) {
	assert.True(t, JSONToYAML.acceptsMediaType(""))
	assert.True(t, JSONToYAML.acceptsMediaType("text/yaml; charset=utf-8"))
	assert.True(t, JSONToYAML.acceptsMediaType("application/x-yaml"))
	assert.False(t, JSONToYAML.acceptsMediaType("application/json"))
	assert.True(t, YAMLToJSON.acceptsMediaType("Application/JSON"))
	assert.False(t, YAMLToJSON.acceptsMediaType("text/plain"))
	assert.True(t, JSONToProtobuf.acceptsMediaType("application/protobuf"))
	assert.False(t, JSONToProtobuf.acceptsMediaType(";;"))
}
