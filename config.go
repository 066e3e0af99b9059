package ngl

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/gogpu/gpucontext"
	"github.com/kelseyhightower/envconfig"

	"github.com/gogpu/ngl/internal/gpu"
)

// DeviceProvider supplies a shared GPU device. See WithProvider.
type DeviceProvider = gpucontext.DeviceProvider

// Config is the configuration applied by Context.Configure.
type Config struct {
	// Backend is the GPU backend name when Provider is nil.
	Backend string
	// Provider, if set, supplies the device to render with.
	Provider DeviceProvider
	// Width and Height are the frame size in pixels.
	Width, Height uint32
	// Samples is the MSAA sample count.
	Samples uint32
	// ClearColor is the RGBA color the frame is cleared to.
	ClearColor [4]float64
	// Evaluator evaluates animated nodes, nil selects the easing evaluator.
	Evaluator Evaluator
	// Logger, if set, is installed with SetLogger by Configure.
	Logger *slog.Logger
}

func (c *Config) validate() error {
	if c.Width == 0 || c.Height == 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidArg, c.Width, c.Height)
	}
	switch c.Samples {
	case 0, 1, 4:
	default:
		return fmt.Errorf("%w: %d samples", ErrUnsupported, c.Samples)
	}
	return nil
}

func (c *Config) gpuConfig() gpu.Config {
	var provider any
	if c.Provider != nil {
		provider = c.Provider
	}
	return gpu.Config{
		Backend:    c.Backend,
		Provider:   provider,
		Width:      c.Width,
		Height:     c.Height,
		Samples:    c.Samples,
		ClearColor: c.ClearColor,
	}
}

// envConfig is the environment representation of Config.
type envConfig struct {
	Backend    string    `envconfig:"BACKEND" default:"noop"`
	Width      uint32    `envconfig:"WIDTH" default:"640"`
	Height     uint32    `envconfig:"HEIGHT" default:"480"`
	Samples    uint32    `envconfig:"SAMPLES" default:"0"`
	ClearColor []float64 `envconfig:"CLEAR_COLOR"`
	LogLevel   string    `envconfig:"LOG_LEVEL"`
}

// ConfigFromEnv builds a Config from NGL_* environment variables, then
// applies opts:
//
//	NGL_BACKEND      GPU backend name (default "noop")
//	NGL_WIDTH        frame width (default 640)
//	NGL_HEIGHT       frame height (default 480)
//	NGL_SAMPLES      MSAA sample count (default 0)
//	NGL_CLEAR_COLOR  comma separated RGBA components
//	NGL_LOG_LEVEL    debug, info, warn or error; logs to stderr when set
func ConfigFromEnv(opts ...Option) (Config, error) {
	var env envConfig
	if err := envconfig.Process("ngl", &env); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidArg, err)
	}

	cfg := NewConfig(
		WithBackend(env.Backend),
		WithSize(env.Width, env.Height),
		WithSamples(env.Samples),
	)
	if len(env.ClearColor) != 0 {
		if len(env.ClearColor) != 4 {
			return Config{}, fmt.Errorf("%w: NGL_CLEAR_COLOR needs 4 components, got %d",
				ErrInvalidArg, len(env.ClearColor))
		}
		copy(cfg.ClearColor[:], env.ClearColor)
	}
	if env.LogLevel != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(strings.ToUpper(env.LogLevel))); err != nil {
			return Config{}, fmt.Errorf("%w: NGL_LOG_LEVEL: %w", ErrInvalidArg, err)
		}
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg, nil
}
