package ngl

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/ngl/internal/darray"
	"github.com/gogpu/ngl/internal/gpu"
	"github.com/gogpu/ngl/internal/rnode"
)

// matrixAlign is the alignment of the matrix stacks, one cache line.
const matrixAlign = 64

// Context renders a scene graph.
//
// A Context splits the caller (controller) from a worker goroutine that owns
// the GPU device, the scene graph and the render tree. Every exported method
// is a command executed by the worker while the caller waits, so methods may
// be called from any goroutine but run strictly one after the other.
//
// Typical use:
//
//	ctx := ngl.NewContext()
//	defer ctx.Close()
//	if err := ctx.Configure(ngl.NewConfig(ngl.WithSize(640, 360))); err != nil { ... }
//	if err := ctx.SetScene(scene); err != nil { ... }
//	for t := 0.0; t < 5; t += 1.0 / 60 {
//	    if err := ctx.Draw(t); err != nil { ... }
//	}
type Context struct {
	// Command slot, shared by controller and worker.
	mu     sync.Mutex
	cmd    chan func() error
	ret    chan error
	exited chan struct{}
	closed bool // guarded by mu

	// Worker-only state.
	gpu        *gpu.Context
	config     Config
	evaluator  Evaluator
	scene      *Node
	rnodeRoot  rnode.RNode
	rnodePos   *rnode.RNode
	prepareGen uint64
	modelview  darray.Array[mgl32.Mat4]
	projection darray.Array[mgl32.Mat4]
	activity   darray.Array[*Node]
	stats      Stats
}

// Stats are engine counters, cumulative unless stated otherwise.
type Stats struct {
	Frames      uint64
	Prefetches  uint64
	Releases    uint64
	DrawCalls   int           // last frame
	ActiveNodes int           // last frame
	UpdateTime  time.Duration // last frame, visit to update passes
	DrawTime    time.Duration // last frame, draw pass and submission
}

// NewContext returns an unconfigured context and starts its worker.
// Close must be called to stop it.
func NewContext() *Context {
	c := &Context{
		cmd:        make(chan func() error),
		ret:        make(chan error),
		exited:     make(chan struct{}),
		modelview:  darray.NewAligned[mgl32.Mat4](matrixAlign),
		projection: darray.NewAligned[mgl32.Mat4](matrixAlign),
	}
	go c.worker()
	return c
}

// Configure opens the GPU device described by cfg. Configuring a configured
// context releases the scene resources, replaces the device and prepares
// the scene again; the scene is prefetched again by the next Draw.
func (c *Context) Configure(cfg Config) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	if cfg.Logger != nil {
		SetLogger(cfg.Logger)
	}
	return c.exec(func() error { return c.configure(cfg) })
}

// SetScene replaces the scene. The previous scene is detached, the new one
// attached and prepared. A nil root only detaches.
func (c *Context) SetScene(root *Node) error {
	return c.exec(func() error { return c.setScene(root) })
}

// Draw renders the scene at time t in seconds.
func (c *Context) Draw(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return fmt.Errorf("%w: time %v", ErrInvalidArg, t)
	}
	return c.exec(func() error { return c.draw(t) })
}

// Resize changes the frame size.
func (c *Context) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: frame size %dx%d", ErrInvalidArg, width, height)
	}
	return c.exec(func() error {
		if c.gpu == nil {
			return ErrNotConfigured
		}
		if err := c.gpu.Resize(width, height); err != nil {
			return fmt.Errorf("%w: %w", ErrGraphicsGeneric, err)
		}
		c.config.Width, c.config.Height = width, height
		return nil
	})
}

// ReadPixels copies the last drawn frame into dst as RGBA rows.
func (c *Context) ReadPixels(dst []byte) error {
	return c.exec(func() error {
		if c.gpu == nil {
			return ErrNotConfigured
		}
		if err := c.gpu.ReadPixels(dst); err != nil {
			return fmt.Errorf("%w: %w", ErrGraphicsGeneric, err)
		}
		return nil
	})
}

// Stats returns the engine counters.
func (c *Context) Stats() (Stats, error) {
	var s Stats
	err := c.exec(func() error {
		s = c.stats
		return nil
	})
	return s, err
}

// Close detaches the scene, releases the device and stops the worker.
// Commands issued after Close return ErrClosed.
func (c *Context) Close() error {
	return c.shutdown(func() error {
		c.teardown()
		return nil
	})
}

func (c *Context) configure(cfg Config) error {
	if c.gpu != nil {
		if c.scene != nil {
			releaseAll(c.scene, make(map[*Node]struct{}))
			c.rnodeRoot.Reset()
		}
		c.gpu.Destroy()
		c.gpu = nil
	}

	g, err := gpu.New(cfg.gpuConfig())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrGraphicsGeneric, err)
	}
	c.gpu = g
	c.config = cfg
	c.evaluator = cfg.Evaluator
	if c.evaluator == nil {
		c.evaluator = EasingEvaluator{}
	}
	Logger().Info("ngl: configured", "backend", g.Backend(), "width", cfg.Width, "height", cfg.Height)

	if c.scene != nil {
		return c.prepareScene(c.scene)
	}
	return nil
}

func (c *Context) setScene(root *Node) error {
	if c.gpu == nil {
		return ErrNotConfigured
	}
	if c.scene != nil {
		c.rnodeRoot.Reset()
		detachCtx(c.scene, c)
		c.scene = nil
	}
	if root == nil {
		return nil
	}
	if err := attachCtx(root, c); err != nil {
		return err
	}
	if err := c.prepareScene(root); err != nil {
		detachCtx(root, c)
		return err
	}
	c.scene = root
	return nil
}

// prepareScene builds the render tree of root.
func (c *Context) prepareScene(root *Node) error {
	c.rnodeRoot.Init()
	c.rnodePos = &c.rnodeRoot
	c.prepareGen++
	if err := c.PrepareNode(root); err != nil {
		c.rnodeRoot.Reset()
		return err
	}
	return nil
}

func (c *Context) draw(t float64) error {
	if c.gpu == nil {
		return ErrNotConfigured
	}

	start := time.Now()
	if c.scene != nil {
		if err := c.prepareDraw(t); err != nil {
			Logger().Warn("ngl: frame aborted", "t", t, "error", err)
			return err
		}
	}
	updated := time.Now()

	if err := c.gpu.BeginFrame(); err != nil {
		return fmt.Errorf("%w: %w", ErrGraphicsGeneric, err)
	}
	if c.scene != nil {
		c.resetStacks()
		c.rnodePos = &c.rnodeRoot
		if err := c.DrawNode(c.scene); err != nil {
			c.gpu.AbortFrame()
			Logger().Warn("ngl: draw failed", "t", t, "error", err)
			return err
		}
	}
	if err := c.gpu.EndFrame(); err != nil {
		return fmt.Errorf("%w: %w", ErrGraphicsGeneric, err)
	}

	gs := c.gpu.Stats()
	c.stats.Frames++
	c.stats.DrawCalls = gs.DrawCalls
	c.stats.UpdateTime = updated.Sub(start)
	c.stats.DrawTime = time.Since(updated)
	return nil
}

func (c *Context) teardown() {
	if c.scene != nil {
		c.rnodeRoot.Reset()
		detachCtx(c.scene, c)
		c.scene = nil
	}
	if c.gpu != nil {
		c.gpu.Destroy()
		c.gpu = nil
	}
	c.activity.Reset()
	c.modelview.Reset()
	c.projection.Reset()
}

// resetStacks leaves the identity matrix alone on both matrix stacks.
func (c *Context) resetStacks() {
	for _, s := range []*darray.Array[mgl32.Mat4]{&c.modelview, &c.projection} {
		s.Clear()
		// Growth failures surface from the next push.
		_, _ = s.Push(mgl32.Ident4())
	}
}

// Modelview returns the current modelview matrix.
func (c *Context) Modelview() mgl32.Mat4 { return topMatrix(&c.modelview) }

// Projection returns the current projection matrix.
func (c *Context) Projection() mgl32.Mat4 { return topMatrix(&c.projection) }

// PushModelview pushes the current modelview matrix multiplied by m.
func (c *Context) PushModelview(m mgl32.Mat4) error {
	return pushMatrix(&c.modelview, c.Modelview().Mul4(m))
}

// PopModelview restores the previous modelview matrix.
func (c *Context) PopModelview() { c.modelview.Pop() }

// PushProjection replaces the projection matrix until PopProjection.
func (c *Context) PushProjection(m mgl32.Mat4) error {
	return pushMatrix(&c.projection, m)
}

// PopProjection restores the previous projection matrix.
func (c *Context) PopProjection() { c.projection.Pop() }

// FrameSize returns the configured frame size.
func (c *Context) FrameSize() (width, height uint32) {
	return c.config.Width, c.config.Height
}

func topMatrix(s *darray.Array[mgl32.Mat4]) mgl32.Mat4 {
	if m := s.Tail(); m != nil {
		return *m
	}
	return mgl32.Ident4()
}

func pushMatrix(s *darray.Array[mgl32.Mat4], m mgl32.Mat4) error {
	if _, err := s.Push(m); err != nil {
		return fmt.Errorf("%w: %w", ErrMemory, err)
	}
	return nil
}
