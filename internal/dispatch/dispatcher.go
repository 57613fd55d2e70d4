// Package dispatch routes format conversions to the conversion service and
// falls back to the local codec when the service cannot deliver.
//
// JSON to YAML and YAML to JSON always produce a value. The Protobuf
// directions have no local implementation; when the service fails they
// return an empty placeholder tagged SourceUnavailable.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cameronsjo/toolcat/internal/remote"
	"github.com/cameronsjo/toolcat/internal/value"
	"github.com/cameronsjo/toolcat/internal/yamlcodec"
)

// ErrNoRemote is reported for remote-only conversions when no conversion
// service is configured.
var ErrNoRemote = errors.New("no conversion service configured")

// LocalInfo is the plugin info reported when the service is unreachable.
var LocalInfo = remote.Info{
	Plugin:      remote.PluginName,
	Description: "local mode",
	Version:     "1.0.0",
}

// Dispatcher runs conversions remote first. It holds no per-call state and
// is safe for concurrent use.
type Dispatcher struct {
	remote  remote.Remote
	logger  log.Logger
	metrics *metrics
}

// Option configures a Dispatcher.
type Option func(*dispatcherOptions)

type dispatcherOptions struct {
	logger     log.Logger
	registerer prometheus.Registerer
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(logger log.Logger) Option {
	return func(o *dispatcherOptions) {
		o.logger = logger
	}
}

// WithRegisterer registers the dispatcher metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *dispatcherOptions) {
		o.registerer = reg
	}
}

// New creates a Dispatcher. A nil r skips the remote attempt entirely.
func New(r remote.Remote, opts ...Option) *Dispatcher {
	o := dispatcherOptions{logger: log.NewNopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	return &Dispatcher{
		remote:  r,
		logger:  o.logger,
		metrics: newMetrics(o.registerer),
	}
}

// JSONToYAML renders v as YAML text.
func (d *Dispatcher) JSONToYAML(ctx context.Context, v *value.Value) Result[string] {
	dir := remote.JSONToYAML

	out, err := convert(ctx, d, dir, func() ([]byte, error) { return v.MarshalJSON() },
		func(b []byte) (string, error) { return string(b), nil })
	if err == nil {
		return finish(d, dir, Result[string]{Value: out, Source: SourceRemote})
	}
	return finish(d, dir, Result[string]{Value: yamlcodec.Emit(v), Source: SourceLocal, Err: skipped(err)})
}

// YAMLToJSON reads YAML text into a value.
func (d *Dispatcher) YAMLToJSON(ctx context.Context, text string) Result[*value.Value] {
	dir := remote.YAMLToJSON

	out, err := convert(ctx, d, dir, func() ([]byte, error) { return []byte(text), nil }, decodeJSON)
	if err == nil {
		return finish(d, dir, Result[*value.Value]{Value: out, Source: SourceRemote})
	}
	return finish(d, dir, Result[*value.Value]{Value: yamlcodec.Parse(text), Source: SourceLocal, Err: skipped(err)})
}

// JSONToProtobuf encodes v as a binary google.protobuf.Value. On failure the
// result holds a zero-length, non-nil buffer.
func (d *Dispatcher) JSONToProtobuf(ctx context.Context, v *value.Value) Result[[]byte] {
	dir := remote.JSONToProtobuf

	out, err := convert(ctx, d, dir, func() ([]byte, error) { return v.MarshalJSON() },
		func(b []byte) ([]byte, error) { return b, nil })
	if err == nil {
		return finish(d, dir, Result[[]byte]{Value: out, Source: SourceRemote})
	}
	return finish(d, dir, Result[[]byte]{Value: []byte{}, Source: SourceUnavailable, Err: err})
}

// ProtobufToJSON decodes a binary google.protobuf.Value. On failure the
// result holds an empty mapping.
func (d *Dispatcher) ProtobufToJSON(ctx context.Context, data []byte) Result[*value.Value] {
	dir := remote.ProtobufToJSON

	out, err := convert(ctx, d, dir, func() ([]byte, error) { return data, nil }, decodeJSON)
	if err == nil {
		return finish(d, dir, Result[*value.Value]{Value: out, Source: SourceRemote})
	}
	return finish(d, dir, Result[*value.Value]{Value: value.Mapping(), Source: SourceUnavailable, Err: err})
}

// Info reports the conversion plugin info, or LocalInfo when the service
// cannot answer.
func (d *Dispatcher) Info(ctx context.Context) Result[remote.Info] {
	if d.remote == nil {
		return Result[remote.Info]{Value: LocalInfo, Source: SourceLocal}
	}

	info, err := d.remote.Info(ctx)
	if err != nil {
		level.Warn(d.logger).Log("msg", "plugin info unavailable, reporting local mode", "err", err)
		return Result[remote.Info]{Value: LocalInfo, Source: SourceLocal, Err: err}
	}
	return Result[remote.Info]{Value: *info, Source: SourceRemote}
}

// convert performs the remote attempt for dir. It returns ErrNoRemote
// without calling anything when no service is configured.
func convert[T any](
	ctx context.Context,
	d *Dispatcher,
	dir remote.Direction,
	payload func() ([]byte, error),
	decode func([]byte) (T, error),
) (T, error) {
	var zero T
	if d.remote == nil {
		return zero, ErrNoRemote
	}

	body, err := payload()
	if err != nil {
		return zero, fmt.Errorf("failed to encode %s request: %w", dir, err)
	}

	start := time.Now()
	out, err := d.remote.Convert(ctx, dir, body)
	d.metrics.remoteLatency.WithLabelValues(dir.String()).Observe(time.Since(start).Seconds())
	if err != nil {
		return zero, err
	}
	if len(out) == 0 {
		return zero, fmt.Errorf("%w: empty %s response", remote.ErrMalformedResponse, dir)
	}

	v, err := decode(out)
	if err != nil {
		return zero, fmt.Errorf("%w: %s response: %w", remote.ErrMalformedResponse, dir, err)
	}
	return v, nil
}

func finish[T any](d *Dispatcher, dir remote.Direction, r Result[T]) Result[T] {
	d.metrics.conversions.WithLabelValues(dir.String(), r.Source.String()).Inc()

	switch {
	case r.Err == nil:
	case r.Source == SourceUnavailable:
		level.Warn(d.logger).Log("msg", "remote conversion failed, no local fallback", "direction", dir, "err", r.Err)
	default:
		level.Warn(d.logger).Log("msg", "remote conversion failed, using local codec", "direction", dir, "err", r.Err)
	}
	return r
}

// skipped hides ErrNoRemote for directions with a local codec: running
// locally is then the configured behavior, not a failure.
func skipped(err error) error {
	if errors.Is(err, ErrNoRemote) {
		return nil
	}
	return err
}

func decodeJSON(b []byte) (*value.Value, error) {
	return value.ParseJSON(b)
}
