package ngl

import (
	"errors"
	"log/slog"
	"testing"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()
	if cfg.Backend != "noop" {
		t.Errorf("Backend = %q, want %q", cfg.Backend, "noop")
	}
	if cfg.Width != DefaultWidth || cfg.Height != DefaultHeight {
		t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, DefaultWidth, DefaultHeight)
	}
	if cfg.Evaluator != nil || cfg.Logger != nil || cfg.Provider != nil {
		t.Error("optional fields should be nil by default")
	}
}

func TestNewConfig_Options(t *testing.T) {
	l := slog.New(nopHandler{})
	cfg := NewConfig(
		WithSize(100, 50),
		WithClearColor(0.1, 0.2, 0.3, 1),
		WithSamples(4),
		WithEvaluator(constEvaluator(1)),
		WithLogger(l),
		WithBackend("vulkan"),
	)
	if cfg.Width != 100 || cfg.Height != 50 {
		t.Errorf("size = %dx%d, want 100x50", cfg.Width, cfg.Height)
	}
	if cfg.ClearColor != [4]float64{0.1, 0.2, 0.3, 1} {
		t.Errorf("ClearColor = %v", cfg.ClearColor)
	}
	if cfg.Samples != 4 || cfg.Backend != "vulkan" || cfg.Logger != l {
		t.Errorf("config = %+v", cfg)
	}
	if _, ok := cfg.Evaluator.(constEvaluator); !ok {
		t.Errorf("Evaluator = %T, want constEvaluator", cfg.Evaluator)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("NGL_WIDTH", "320")
	t.Setenv("NGL_HEIGHT", "200")
	t.Setenv("NGL_SAMPLES", "4")
	t.Setenv("NGL_CLEAR_COLOR", "0,0.5,1,1")
	t.Setenv("NGL_LOG_LEVEL", "warn")

	cfg, err := ConfigFromEnv(WithSamples(1))
	if err != nil {
		t.Fatalf("ConfigFromEnv() error = %v", err)
	}
	if cfg.Backend != "noop" {
		t.Errorf("Backend = %q, want the default", cfg.Backend)
	}
	if cfg.Width != 320 || cfg.Height != 200 {
		t.Errorf("size = %dx%d, want 320x200", cfg.Width, cfg.Height)
	}
	if cfg.Samples != 1 {
		t.Errorf("Samples = %d, want the option to win", cfg.Samples)
	}
	if cfg.ClearColor != [4]float64{0, 0.5, 1, 1} {
		t.Errorf("ClearColor = %v", cfg.ClearColor)
	}
	if cfg.Logger == nil {
		t.Fatal("Logger not set from NGL_LOG_LEVEL")
	}
	if cfg.Logger.Enabled(t.Context(), slog.LevelInfo) || !cfg.Logger.Enabled(t.Context(), slog.LevelWarn) {
		t.Error("Logger level is not warn")
	}
}

func TestConfigFromEnv_Errors(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"width", "NGL_WIDTH", "wide"},
		{"clear color", "NGL_CLEAR_COLOR", "1,1"},
		{"log level", "NGL_LOG_LEVEL", "loud"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := ConfigFromEnv(); !errors.Is(err, ErrInvalidArg) {
				t.Errorf("ConfigFromEnv() error = %v, want %v", err, ErrInvalidArg)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"default", NewConfig(), nil},
		{"single sample", NewConfig(WithSamples(1)), nil},
		{"zero height", NewConfig(WithSize(8, 0)), ErrInvalidArg},
		{"two samples", NewConfig(WithSamples(2)), ErrUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.validate(); !errors.Is(err, tt.want) {
				t.Errorf("validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}
