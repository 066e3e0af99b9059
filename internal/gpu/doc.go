// Package gpu adapts gogpu/wgpu's HAL to the needs of the scene-graph
// engine: buffers, sampled textures, cached shader modules, render pipelines
// derived from the render-tree graphics state, and a single offscreen frame
// that draw calls are recorded into.
//
// A Context owns (or borrows, when created from a device provider) one HAL
// device and queue. It must only be used from the goroutine that created it;
// the engine runs every Context call on its worker.
//
//	ctx, err := gpu.New(gpu.Config{Backend: "noop", Width: 640, Height: 480})
//	...
//	_ = ctx.BeginFrame()
//	_ = ctx.Draw(&call)
//	_ = ctx.EndFrame()
package gpu
