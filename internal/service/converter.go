// Package service implements the format conversion service: the
// format_converter plugin and the HTTP server hosting the plugin registry.
package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
	"gopkg.in/yaml.v3"

	"github.com/cameronsjo/toolcat/internal/plugin"
	"github.com/cameronsjo/toolcat/internal/remote"
	"github.com/cameronsjo/toolcat/internal/value"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes = 4 << 20

// FormatConverter is the plugin converting between JSON, YAML and binary
// google.protobuf.Value documents.
type FormatConverter struct {
	maxBodyBytes int64
	logger       log.Logger
}

var _ plugin.Plugin = (*FormatConverter)(nil)

// NewFormatConverter creates the plugin. maxBodyBytes <= 0 selects
// DefaultMaxBodyBytes.
func NewFormatConverter(maxBodyBytes int64, logger log.Logger) *FormatConverter {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &FormatConverter{maxBodyBytes: maxBodyBytes, logger: logger}
}

func (c *FormatConverter) Name() string { return remote.PluginName }

func (c *FormatConverter) Description() string {
	return "Format conversion: JSON<->YAML, JSON<->Protobuf"
}

func (c *FormatConverter) Version() string { return "1.0.0" }

// Routes returns the info route and one POST route per direction.
func (c *FormatConverter) Routes() []plugin.Route {
	return []plugin.Route{
		{Method: http.MethodGet, Path: "/", Description: "Plugin info", Handler: c.handleInfo},
		{Method: http.MethodPost, Path: remote.JSONToYAML.Route(), Description: "Convert a JSON body to YAML", Handler: c.handleJSONToYAML},
		{Method: http.MethodPost, Path: remote.YAMLToJSON.Route(), Description: "Convert a YAML body to JSON", Handler: c.handleYAMLToJSON},
		{Method: http.MethodPost, Path: remote.JSONToProtobuf.Route(), Description: "Encode a JSON body as a google.protobuf.Value", Handler: c.handleJSONToProtobuf},
		{Method: http.MethodPost, Path: remote.ProtobufToJSON.Route(), Description: "Decode a google.protobuf.Value body to JSON", Handler: c.handleProtobufToJSON},
	}
}

// Info reports the plugin and its conversion endpoints.
func (c *FormatConverter) Info() remote.Info {
	info := remote.Info{
		Plugin:      c.Name(),
		Description: c.Description(),
		Version:     c.Version(),
	}
	for _, d := range remote.Directions() {
		info.Endpoints = append(info.Endpoints, http.MethodPost+" "+d.Route())
	}
	return info
}

func (c *FormatConverter) handleInfo(w http.ResponseWriter, _ *http.Request) {
	plugin.WriteJSON(w, http.StatusOK, c.Info())
}

func (c *FormatConverter) handleJSONToYAML(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}

	v, err := value.ParseJSON(body)
	if err != nil {
		plugin.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	out, err := EncodeYAML(v)
	if err != nil {
		c.fail(w, remote.JSONToYAML, err)
		return
	}
	writeBody(w, "text/yaml; charset=utf-8", out)
}

func (c *FormatConverter) handleYAMLToJSON(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}

	v, err := DecodeYAML(body)
	if err != nil {
		plugin.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid YAML: %v", err))
		return
	}

	out, err := v.MarshalJSON()
	if err != nil {
		c.fail(w, remote.YAMLToJSON, err)
		return
	}
	writeBody(w, "application/json; charset=utf-8", out)
}

func (c *FormatConverter) handleJSONToProtobuf(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}

	v, err := value.ParseJSON(body)
	if err != nil {
		plugin.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	pb, err := structpb.NewValue(v.Interface())
	if err != nil {
		c.fail(w, remote.JSONToProtobuf, err)
		return
	}
	out, err := proto.Marshal(pb)
	if err != nil {
		c.fail(w, remote.JSONToProtobuf, err)
		return
	}
	writeBody(w, remote.MediaProtobuf, out)
}

func (c *FormatConverter) handleProtobufToJSON(w http.ResponseWriter, r *http.Request) {
	body, ok := c.readBody(w, r)
	if !ok {
		return
	}

	var pb structpb.Value
	if err := proto.Unmarshal(body, &pb); err != nil {
		plugin.WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid protobuf: %v", err))
		return
	}
	if pb.GetKind() == nil {
		plugin.WriteError(w, http.StatusBadRequest, "invalid protobuf: value has no kind set")
		return
	}

	out, err := protojson.Marshal(&pb)
	if err != nil {
		c.fail(w, remote.ProtobufToJSON, err)
		return
	}
	writeBody(w, "application/json; charset=utf-8", out)
}

// readBody reads the request body within the configured size limit and
// answers the request itself when that fails.
func (c *FormatConverter) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, c.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			plugin.WriteError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return nil, false
		}
		plugin.WriteError(w, http.StatusBadRequest, fmt.Sprintf("failed to read request body: %v", err))
		return nil, false
	}
	return body, true
}

func (c *FormatConverter) fail(w http.ResponseWriter, dir remote.Direction, err error) {
	level.Error(c.logger).Log("msg", "conversion failed", "direction", dir, "err", err)
	plugin.WriteError(w, http.StatusInternalServerError, fmt.Sprintf("%s failed: %v", dir, err))
}

func writeBody(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// EncodeYAML renders v as a YAML document with two-space indentation.
func EncodeYAML(v *value.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toNode(v)); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeYAML reads the first document of data. An empty document is null.
func DecodeYAML(data []byte) (*value.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromNode(&doc)
}
