package ngl

import (
	"errors"
	"math"
	"sync"
	"testing"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// =============================================================================
// Commands
// =============================================================================

func TestContext_NotConfigured(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	_, leaf := newCounter()
	if err := ctx.SetScene(leaf); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("SetScene() error = %v, want %v", err, ErrNotConfigured)
	}
	if err := ctx.Draw(0); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Draw() error = %v, want %v", err, ErrNotConfigured)
	}
	if err := ctx.Resize(10, 10); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Resize() error = %v, want %v", err, ErrNotConfigured)
	}
	if leaf.Context() != nil {
		t.Error("rejected scene was attached")
	}
}

func TestContext_Closed(t *testing.T) {
	ctx := NewContext()
	if err := ctx.Configure(NewConfig()); err != nil {
		t.Fatal(err)
	}
	c, leaf := newCounter()
	if err := ctx.SetScene(leaf); err != nil {
		t.Fatal(err)
	}
	if err := ctx.Draw(0); err != nil {
		t.Fatal(err)
	}

	if err := ctx.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if c.releases != 1 || c.uninits != 1 {
		t.Errorf("Close(): releases %d, uninits %d; want 1, 1", c.releases, c.uninits)
	}
	if err := ctx.Draw(1); !errors.Is(err, ErrClosed) {
		t.Errorf("Draw() after Close error = %v, want %v", err, ErrClosed)
	}
	if err := ctx.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want %v", err, ErrClosed)
	}
}

func TestContext_ConcurrentCommands(t *testing.T) {
	ctx := newTestContext(t)
	c, leaf := newCounter()
	mustSetScene(t, ctx, leaf)

	const goroutines, frames = 8, 25
	var wg sync.WaitGroup
	for g := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range frames {
				if err := ctx.Draw(float64(g*frames + i)); err != nil {
					t.Errorf("Draw() error = %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	s, err := ctx.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if s.Frames != goroutines*frames {
		t.Errorf("Frames = %d, want %d", s.Frames, goroutines*frames)
	}
	if c.draws != goroutines*frames {
		t.Errorf("draws = %d, want %d", c.draws, goroutines*frames)
	}
}

func TestContext_DrawInvalidTime(t *testing.T) {
	ctx := newTestContext(t)
	for _, tm := range []float64{math.NaN(), math.Inf(1)} {
		if err := ctx.Draw(tm); !errors.Is(err, ErrInvalidArg) {
			t.Errorf("Draw(%v) error = %v, want %v", tm, err, ErrInvalidArg)
		}
	}
}

func TestContext_ConfigureErrors(t *testing.T) {
	ctx := NewContext()
	defer ctx.Close()

	tests := []struct {
		name string
		cfg  Config
		want error
	}{
		{"zero size", NewConfig(WithSize(0, 10)), ErrInvalidArg},
		{"samples", NewConfig(WithSamples(3)), ErrUnsupported},
		{"backend", NewConfig(WithBackend("metal2")), ErrGraphicsGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ctx.Configure(tt.cfg); !errors.Is(err, tt.want) {
				t.Errorf("Configure() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestContext_Reconfigure(t *testing.T) {
	ctx := newTestContext(t)
	c, leaf := newCounter()
	mustSetScene(t, ctx, Group(leaf))
	mustDraw(t, ctx, 0)

	if err := ctx.Configure(NewConfig(WithSize(32, 32))); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	if c.releases != 1 || leaf.State() != StateInitialized {
		t.Errorf("after reconfigure: releases %d, state %s", c.releases, leaf.State())
	}

	mustDraw(t, ctx, 0)
	if c.prefetches != 2 || c.draws != 2 {
		t.Errorf("after redraw: prefetches %d, draws %d; want 2, 2", c.prefetches, c.draws)
	}
}

func TestContext_ResizeAndReadPixels(t *testing.T) {
	ctx := newTestContext(t)
	mustDraw(t, ctx, 0)

	if err := ctx.Resize(0, 4); !errors.Is(err, ErrInvalidArg) {
		t.Errorf("Resize(0, 4) error = %v, want %v", err, ErrInvalidArg)
	}
	if err := ctx.Resize(16, 8); err != nil {
		t.Fatalf("Resize() error = %v", err)
	}
	mustDraw(t, ctx, 0)

	if err := ctx.ReadPixels(make([]byte, 16*8*4)); err != nil {
		t.Errorf("ReadPixels() error = %v", err)
	}
	if err := ctx.ReadPixels(make([]byte, 4)); !errors.Is(err, ErrGraphicsGeneric) {
		t.Errorf("ReadPixels(short) error = %v, want %v", err, ErrGraphicsGeneric)
	}
}

// =============================================================================
// Matrix stacks
// =============================================================================

func TestContext_MatrixStacks(t *testing.T) {
	ctx := newTestContext(t)

	err := ctx.exec(func() error {
		ctx.resetStacks()
		if !ctx.Modelview().ApproxEqual(mgl32.Ident4()) {
			t.Error("Modelview() after reset is not the identity")
		}

		tr := mgl32.Translate3D(1, 2, 3)
		sc := mgl32.Scale3D(2, 2, 2)
		if err := ctx.PushModelview(tr); err != nil {
			return err
		}
		if err := ctx.PushModelview(sc); err != nil {
			return err
		}
		if got, want := ctx.Modelview(), tr.Mul4(sc); !got.ApproxEqual(want) {
			t.Errorf("Modelview() = %v, want %v", got, want)
		}
		if addr := uintptr(unsafe.Pointer(&ctx.modelview.Data()[0])); addr%matrixAlign != 0 {
			t.Errorf("modelview stack at %#x, not %d-byte aligned", addr, matrixAlign)
		}

		ctx.PopModelview()
		if !ctx.Modelview().ApproxEqual(tr) {
			t.Errorf("Modelview() after pop = %v, want %v", ctx.Modelview(), tr)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

// =============================================================================
// Errors
// =============================================================================

func TestCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, CodeOK},
		{errTest, CodeGeneric},
		{ErrMemory, CodeMemory},
		{ErrCycle, CodeInvalidArg},
		{ErrContextMismatch, CodeInvalidUsage},
		{ErrClosed, CodeInvalidUsage},
		{ErrExternal, CodeExternal},
		{ErrUnsupported, CodeUnsupported},
		{graphicsError(errTest), CodeGraphicsGeneric},
	}
	for _, tt := range tests {
		if got := Code(tt.err); got != tt.want {
			t.Errorf("Code(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
