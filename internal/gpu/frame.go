package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrFrameState is returned when frame calls are made out of order.
var ErrFrameState = errors.New("gpu: invalid frame state")

// fenceTimeout bounds the wait for a submitted frame.
const fenceTimeout = 5 * time.Second

// DrawCall is one non-indexed draw recorded into the frame.
type DrawCall struct {
	Pipeline      *Pipeline
	BindGroup     *BindGroup
	VertexBuffers []*Buffer
	VertexCount   uint32
}

// frame is the command recording state between BeginFrame and EndFrame.
type frame struct {
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	draws   int
}

func (f *frame) discard() {
	if f.pass != nil {
		f.pass.End()
		f.pass = nil
	}
	f.encoder.DiscardEncoding()
}

// BeginFrame starts recording a frame cleared to the configured color.
func (c *Context) BeginFrame() error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.frame != nil {
		return fmt.Errorf("%w: frame already begun", ErrFrameState)
	}

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "ngl_encoder",
	})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ngl_frame"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	color := hal.RenderPassColorAttachment{
		View:       c.target.colorView,
		LoadOp:     gputypes.LoadOpClear,
		StoreOp:    gputypes.StoreOpStore,
		ClearValue: c.clear,
	}
	if c.target.resolveView != nil {
		color.ResolveTarget = c.target.resolveView
	}
	pass := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "ngl_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{color},
		DepthStencilAttachment: &hal.RenderPassDepthStencilAttachment{
			View:              c.target.depthView,
			DepthLoadOp:       gputypes.LoadOpClear,
			DepthStoreOp:      gputypes.StoreOpDiscard,
			DepthClearValue:   1.0,
			StencilLoadOp:     gputypes.LoadOpClear,
			StencilStoreOp:    gputypes.StoreOpDiscard,
			StencilClearValue: 0,
		},
	})
	c.frame = &frame{encoder: encoder, pass: pass}
	return nil
}

// Draw records call into the current frame.
func (c *Context) Draw(call *DrawCall) error {
	if c.frame == nil {
		return fmt.Errorf("%w: draw outside of a frame", ErrFrameState)
	}
	if call.Pipeline == nil || call.Pipeline.raw == nil {
		return fmt.Errorf("%w: draw without pipeline", ErrInvalidPipeline)
	}
	if call.VertexCount == 0 {
		return nil
	}
	rp := c.frame.pass
	rp.SetPipeline(call.Pipeline.raw)
	if call.BindGroup != nil && call.BindGroup.raw != nil {
		rp.SetBindGroup(0, call.BindGroup.raw, nil)
	}
	for i, b := range call.VertexBuffers {
		if b == nil || b.raw == nil {
			return fmt.Errorf("%w: vertex buffer %d", ErrBufferDestroyed, i)
		}
		rp.SetVertexBuffer(uint32(i), b.raw, 0)
	}
	rp.Draw(call.VertexCount, 1, 0, 0)
	c.frame.draws++
	return nil
}

// EndFrame submits the recorded frame and waits for its completion.
func (c *Context) EndFrame() error {
	f := c.frame
	if f == nil {
		return fmt.Errorf("%w: no frame to end", ErrFrameState)
	}
	c.frame = nil

	f.pass.End()
	f.pass = nil

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)

	if err := c.submit(cmdBuf); err != nil {
		return err
	}
	c.stats.DrawCalls = f.draws
	c.stats.Frames++
	return nil
}

func (c *Context) submit(cmdBuf hal.CommandBuffer) error {
	fence, err := c.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer c.device.DestroyFence(fence)

	if err := c.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := c.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// ReadPixels copies the last frame into dst as tightly packed RGBA rows.
// dst must hold width*height*4 bytes.
func (c *Context) ReadPixels(dst []byte) error {
	if c.destroyed {
		return ErrDestroyed
	}
	if c.frame != nil {
		return fmt.Errorf("%w: read during frame", ErrFrameState)
	}
	w, h := c.width, c.height
	bytesPerRow := w * 4
	if len(dst) < int(bytesPerRow)*int(h) {
		return fmt.Errorf("%w: need %d bytes, got %d", ErrWriteOutOfRange, int(bytesPerRow)*int(h), len(dst))
	}

	// Copies require rows aligned to 256 bytes.
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := c.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "ngl_readback",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create staging buffer: %w", err)
	}
	defer c.device.DestroyBuffer(staging)

	encoder, err := c.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "ngl_readback"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("ngl_readback"); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}

	src := c.target.readable()
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: src,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(src, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: src, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: src,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer c.device.FreeCommandBuffer(cmdBuf)
	if err := c.submit(cmdBuf); err != nil {
		return err
	}

	readback := make([]byte, stagingSize)
	if err := c.queue.ReadBuffer(staging, 0, readback); err != nil {
		return fmt.Errorf("readback: %w", err)
	}
	for row := uint32(0); row < h; row++ {
		srcOff := int(row) * int(alignedBytesPerRow)
		dstOff := int(row) * int(bytesPerRow)
		copy(dst[dstOff:dstOff+int(bytesPerRow)], readback[srcOff:srcOff+int(bytesPerRow)])
	}
	return nil
}

// AbortFrame drops the frame being recorded without submitting it.
func (c *Context) AbortFrame() {
	if c.frame == nil {
		return
	}
	c.frame.discard()
	c.frame = nil
}
