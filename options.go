package ngl

import (
	"log/slog"

	"github.com/gogpu/ngl/internal/gpu"
)

// Option configures a Config.
//
// Example:
//
//	cfg := ngl.NewConfig(
//	    ngl.WithSize(1280, 720),
//	    ngl.WithClearColor(0, 0, 0, 1),
//	)
//	err := ctx.Configure(cfg)
type Option func(*Config)

// Default configuration values.
const (
	DefaultWidth  = 640
	DefaultHeight = 480
)

// NewConfig returns the default configuration with opts applied.
func NewConfig(opts ...Option) Config {
	cfg := Config{
		Backend: gpu.BackendNoop,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithSize sets the size of the rendered frame in pixels.
func WithSize(width, height uint32) Option {
	return func(c *Config) {
		c.Width, c.Height = width, height
	}
}

// WithBackend selects the GPU backend by name ("noop" or "vulkan").
func WithBackend(name string) Option {
	return func(c *Config) {
		c.Backend = name
	}
}

// WithProvider renders with the device of an existing GPU context, such as
// a gogpu window, instead of opening one. The provider must implement
// HalDevice() any and HalQueue() any.
//
// Example:
//
//	cfg := ngl.NewConfig(ngl.WithProvider(app.DeviceProvider()))
func WithProvider(p DeviceProvider) Option {
	return func(c *Config) {
		c.Provider = p
	}
}

// WithClearColor sets the color the frame is cleared to before drawing.
func WithClearColor(r, g, b, a float64) Option {
	return func(c *Config) {
		c.ClearColor = [4]float64{r, g, b, a}
	}
}

// WithSamples sets the MSAA sample count. 0 or 1 disables multisampling.
func WithSamples(n uint32) Option {
	return func(c *Config) {
		c.Samples = n
	}
}

// WithEvaluator replaces the keyframe evaluator of animated nodes.
func WithEvaluator(e Evaluator) Option {
	return func(c *Config) {
		c.Evaluator = e
	}
}

// WithLogger installs l as the package logger when the config is applied.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
