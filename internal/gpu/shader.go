package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// ErrInvalidShader is returned for WGSL source that does not compile.
var ErrInvalidShader = errors.New("gpu: invalid shader")

// ValidateWGSL compiles src without a device and reports any error.
func ValidateWGSL(src string) error {
	if src == "" {
		return fmt.Errorf("%w: empty source", ErrInvalidShader)
	}
	if _, err := naga.Compile(src); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidShader, err)
	}
	return nil
}

// ShaderModule is a compiled shader shared through the context cache.
type ShaderModule struct {
	source string
	raw    hal.ShaderModule
}

// AcquireShader returns the module compiled from src, creating it on first
// use. Each call must be paired with ReleaseShader.
func (c *Context) AcquireShader(label, src string) (*ShaderModule, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	raw, err := c.modules.Acquire(src, func() (hal.ShaderModule, error) {
		m, err := c.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
			Label:  label,
			Source: hal.ShaderSource{WGSL: src},
		})
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidShader, label, err)
		}
		slogger().Debug("gpu: shader module created", "label", label)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return &ShaderModule{source: src, raw: raw}, nil
}

// ReleaseShader drops a reference taken by AcquireShader. The module stays
// cached for reuse until evicted.
func (c *Context) ReleaseShader(m *ShaderModule) {
	if m == nil || m.raw == nil || c.modules == nil {
		return
	}
	c.modules.Release(m.source)
	m.raw = nil
}
