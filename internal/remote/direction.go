package remote

import (
	"fmt"
	"mime"
)

// PluginName is the name the conversion service registers under.
const PluginName = "format_converter"

// PluginPath is the URL prefix of every conversion service route.
const PluginPath = "/plugins/" + PluginName

// Media types exchanged with the conversion service.
const (
	MediaJSON     = "application/json"
	MediaYAML     = "text/yaml"
	MediaProtobuf = "application/x-protobuf"
)

// Direction identifies one conversion offered by the service.
type Direction int

const (
	JSONToYAML Direction = iota
	YAMLToJSON
	JSONToProtobuf
	ProtobufToJSON
)

type directionInfo struct {
	name     string
	request  string
	response string
}

var directions = [...]directionInfo{
	JSONToYAML:     {"json-to-yaml", MediaJSON, MediaYAML},
	YAMLToJSON:     {"yaml-to-json", MediaYAML, MediaJSON},
	JSONToProtobuf: {"json-to-protobuf", MediaJSON, MediaProtobuf},
	ProtobufToJSON: {"protobuf-to-json", MediaProtobuf, MediaJSON},
}

// Aliases accepted for a response media type.
var mediaAliases = map[string][]string{
	MediaYAML:     {"application/yaml", "application/x-yaml", "text/x-yaml"},
	MediaProtobuf: {"application/protobuf"},
}

// Directions returns every known direction in declaration order.
func Directions() []Direction {
	return []Direction{JSONToYAML, YAMLToJSON, JSONToProtobuf, ProtobufToJSON}
}

// ParseDirection resolves a direction from its name, e.g. "json-to-yaml".
func ParseDirection(name string) (Direction, error) {
	for _, d := range Directions() {
		if d.String() == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown conversion direction %q", name)
}

func (d Direction) valid() bool {
	return d >= 0 && int(d) < len(directions)
}

func (d Direction) String() string {
	if !d.valid() {
		return fmt.Sprintf("direction(%d)", int(d))
	}
	return directions[d].name
}

// Route is the direction's path relative to the plugin prefix.
func (d Direction) Route() string {
	return "/convert/" + d.String()
}

// Path is the absolute request path of the direction.
func (d Direction) Path() string {
	return PluginPath + d.Route()
}

// RequestType is the media type of the request body.
func (d Direction) RequestType() string {
	if !d.valid() {
		return ""
	}
	return directions[d].request
}

// ResponseType is the media type the service answers with.
func (d Direction) ResponseType() string {
	if !d.valid() {
		return ""
	}
	return directions[d].response
}

// acceptsMediaType reports whether a Content-Type header value is a valid
// response for d. An absent header is accepted.
func (d Direction) acceptsMediaType(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	want := d.ResponseType()
	if mt == want {
		return true
	}
	for _, alias := range mediaAliases[want] {
		if mt == alias {
			return true
		}
	}
	return false
}
