package gpu

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")

	// ErrInvalidBufferSize is returned when buffer size is invalid.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")

	// ErrWriteOutOfRange is returned when a write overruns a buffer.
	ErrWriteOutOfRange = errors.New("gpu: write out of buffer range")
)

// BufferKind selects how a buffer is bound.
type BufferKind int

// Buffer kinds.
const (
	BufferVertex BufferKind = iota
	BufferUniform
	BufferStorage
)

// String returns the buffer kind name.
func (k BufferKind) String() string {
	switch k {
	case BufferVertex:
		return "vertex"
	case BufferUniform:
		return "uniform"
	case BufferStorage:
		return "storage"
	default:
		return fmt.Sprintf("BufferKind(%d)", int(k))
	}
}

func (k BufferKind) usage() gputypes.BufferUsage {
	switch k {
	case BufferUniform:
		return gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
	case BufferStorage:
		return gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	default:
		return gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst
	}
}

// Buffer is a GPU buffer owned by a Context.
type Buffer struct {
	raw   hal.Buffer
	kind  BufferKind
	size  uint64
	label string
}

// Kind returns the buffer kind.
func (b *Buffer) Kind() BufferKind { return b.kind }

// Size returns the buffer size in bytes, as requested at creation.
func (b *Buffer) Size() uint64 { return b.size }

// CreateBuffer allocates a buffer of size bytes.
// The allocation is rounded up to 4 bytes as required by WebGPU.
func (c *Context) CreateBuffer(label string, kind BufferKind, size uint64) (*Buffer, error) {
	if c.destroyed {
		return nil, ErrDestroyed
	}
	if size == 0 {
		return nil, fmt.Errorf("%w: %s: size is zero", ErrInvalidBufferSize, label)
	}
	alignedSize := (size + 3) &^ 3
	raw, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  alignedSize,
		Usage: kind.usage(),
	})
	if err != nil {
		return nil, fmt.Errorf("create %s buffer %q: %w", kind, label, err)
	}
	return &Buffer{raw: raw, kind: kind, size: size, label: label}, nil
}

// WriteBuffer uploads data at offset.
func (c *Context) WriteBuffer(b *Buffer, offset uint64, data []byte) error {
	if b == nil || b.raw == nil {
		return ErrBufferDestroyed
	}
	if offset+uint64(len(data)) > b.size {
		return fmt.Errorf("%w: %q: %d bytes at %d, size %d",
			ErrWriteOutOfRange, b.label, len(data), offset, b.size)
	}
	if len(data) == 0 {
		return nil
	}
	// Writes must be a multiple of 4 bytes.
	if len(data)%4 != 0 {
		padded := make([]byte, (len(data)+3)&^3)
		copy(padded, data)
		data = padded
	}
	c.queue.WriteBuffer(b.raw, offset, data)
	return nil
}

// DestroyBuffer releases b. Destroying a nil or destroyed buffer is a no-op.
func (c *Context) DestroyBuffer(b *Buffer) {
	if b == nil || b.raw == nil || c.device == nil {
		return
	}
	c.device.DestroyBuffer(b.raw)
	b.raw = nil
}
