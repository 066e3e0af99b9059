package ngl

import (
	"errors"
	"fmt"

	"github.com/gogpu/ngl/internal/block"
	"github.com/gogpu/ngl/internal/darray"
	"github.com/gogpu/ngl/internal/gpu"
)

// Errors returned by the engine. Every error returned by a Context command
// wraps one of them, so callers can test it with errors.Is or map it to an
// integer with Code.
var (
	// ErrGeneric is returned for failures without a more specific kind.
	ErrGeneric = errors.New("ngl: generic error")

	// ErrMemory is returned when a container or block cannot grow.
	ErrMemory = errors.New("ngl: out of memory")

	// ErrInvalidArg is returned for an invalid node parameter or argument.
	ErrInvalidArg = errors.New("ngl: invalid argument")

	// ErrInvalidData is returned for malformed input data such as a shader
	// that does not compile.
	ErrInvalidData = errors.New("ngl: invalid data")

	// ErrInvalidUsage is returned when an operation is not allowed in the
	// current state.
	ErrInvalidUsage = errors.New("ngl: invalid usage")

	// ErrUnsupported is returned when the device lacks a capability.
	ErrUnsupported = errors.New("ngl: unsupported")

	// ErrGraphicsGeneric is returned when a GPU object cannot be created or
	// written.
	ErrGraphicsGeneric = errors.New("ngl: graphics error")

	// ErrExternal is returned when a media source fails to produce a frame.
	ErrExternal = errors.New("ngl: external error")

	// ErrNoImage is returned by an ImageSource built without an image.
	ErrNoImage = errors.New("ngl: no image")

	// ErrContextMismatch is returned when a node is already attached to
	// another context.
	ErrContextMismatch = errors.New("ngl: node attached to another context")

	// ErrCycle is returned when adding a child would create a cycle.
	ErrCycle = errors.New("ngl: graph cycle")

	// ErrNotConfigured is returned for commands needing a configured context.
	ErrNotConfigured = errors.New("ngl: context not configured")

	// ErrClosed is returned for commands sent to a closed context.
	ErrClosed = errors.New("ngl: context closed")
)

// Integer error codes returned by Code.
const (
	CodeOK              = 0
	CodeGeneric         = -1
	CodeExternal        = -4
	CodeInvalidArg      = -5
	CodeInvalidData     = -6
	CodeInvalidUsage    = -7
	CodeMemory          = -10
	CodeUnsupported     = -12
	CodeGraphicsGeneric = -13
)

// Code maps err to the integer convention of the command API: 0 on success,
// a negative code otherwise.
func Code(err error) int {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrMemory), errors.Is(err, darray.ErrOverflow):
		return CodeMemory
	case errors.Is(err, ErrInvalidArg),
		errors.Is(err, ErrCycle),
		errors.Is(err, block.ErrInvalidField),
		errors.Is(err, block.ErrFieldAfterVariadic),
		errors.Is(err, block.ErrShortBuffer):
		return CodeInvalidArg
	case errors.Is(err, ErrInvalidData), errors.Is(err, gpu.ErrInvalidShader):
		return CodeInvalidData
	case errors.Is(err, ErrInvalidUsage),
		errors.Is(err, ErrContextMismatch),
		errors.Is(err, ErrNotConfigured),
		errors.Is(err, ErrClosed):
		return CodeInvalidUsage
	case errors.Is(err, ErrUnsupported), errors.Is(err, gpu.ErrUnsupportedFormat):
		return CodeUnsupported
	case errors.Is(err, ErrExternal):
		return CodeExternal
	case errors.Is(err, ErrGraphicsGeneric):
		return CodeGraphicsGeneric
	}
	return CodeGeneric
}

// graphicsError wraps a GPU layer failure.
func graphicsError(err error) error {
	return fmt.Errorf("%w: %w", ErrGraphicsGeneric, err)
}
