// Package ngl is a declarative scene-graph engine for GPU rendering.
//
// # Overview
//
// Client code builds a directed acyclic graph of typed nodes (groups, time
// filters, transforms, variables, buffers, textures, programs and draws) and
// hands its root to a Context. At every requested time t the engine decides
// which nodes are active, acquires the GPU resources of the nodes that became
// active, releases those of the nodes that no longer are, updates
// time-dependent values and records the draw calls.
//
// # Quick Start
//
//	import "github.com/gogpu/ngl"
//
//	ctx := ngl.NewContext()
//	defer ctx.Close()
//
//	if err := ctx.Configure(ngl.NewConfig(ngl.WithSize(640, 360))); err != nil {
//	    log.Fatal(err)
//	}
//
//	quad := ngl.Quad(mgl32.Vec3{-1, -1, 0}, mgl32.Vec3{2, 0, 0}, mgl32.Vec3{0, 2, 0})
//	scene := ngl.TimeRangeFilter(ngl.Draw(quad, ngl.Program(src, src)), 0, 5)
//	if err := ctx.SetScene(scene); err != nil {
//	    log.Fatal(err)
//	}
//	for t := 0.0; t < 5; t += 1.0 / 60 {
//	    if err := ctx.Draw(t); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Node Lifecycle
//
// Every node moves between three states:
//
//	uninitialized --init--> initialized --prefetch--> ready
//	uninitialized <-uninit- initialized <--release--- ready
//
// Init runs when the node is attached to a context by SetScene, prefetch when
// it becomes active, release when it becomes inactive on every path reaching
// it, uninit when it is detached. The engine enforces the order: a class
// implementing only Prefetcher still gets initialized first.
//
// # Sharing
//
// A node may have several parents. It is a single object, active when any
// path reaching it is active, and prepared once per path in the render tree
// so that each occurrence can carry its own graphics state.
//
// # Threading
//
// A Context owns a worker goroutine locked to its OS thread. Every exported
// Context method is sent to it as a command and waits for its completion.
// Once a scene is set, its nodes belong to the worker and must not be
// modified by the caller; values are changed with Context.SetVariable.
//
// # Errors
//
// Commands return errors wrapping the Err* sentinels. Code converts an error
// to the integer convention of the C-style API: 0 on success, negative
// otherwise.
package ngl
