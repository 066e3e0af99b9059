// Command ngldemo renders a frame of an animated scene to a PNG file.
//
// The frame size, backend and clear color come from the NGL_* environment
// variables, see ngl.ConfigFromEnv.
package main

import (
	_ "embed"
	"flag"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/profile"

	"github.com/gogpu/ngl"
)

//go:embed scene.wgsl
var sceneShader string

func main() {
	var (
		t          = flag.Float64("t", 1, "scene time in seconds")
		output     = flag.String("output", "ngldemo.png", "output file")
		cpuprofile = flag.Bool("cpuprofile", false, "write a CPU profile to the current directory")
		frames     = flag.Int("frames", 1, "frames drawn up to -t, for profiling")
	)
	flag.Parse()

	if *cpuprofile {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	}

	cfg, err := ngl.ConfigFromEnv()
	if err != nil {
		log.Fatalf("Invalid environment: %v", err)
	}

	ctx := ngl.NewContext()
	defer ctx.Close()
	if err := ctx.Configure(cfg); err != nil {
		log.Fatalf("Failed to configure: %v", err)
	}
	if err := ctx.SetScene(buildScene()); err != nil {
		log.Fatalf("Failed to set scene: %v", err)
	}

	for i := 1; i <= *frames; i++ {
		if err := ctx.Draw(*t * float64(i) / float64(*frames)); err != nil {
			log.Fatalf("Failed to draw: %v", err)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, int(cfg.Width), int(cfg.Height)))
	if err := ctx.ReadPixels(img.Pix); err != nil {
		log.Fatalf("Failed to read pixels: %v", err)
	}
	if err := savePNG(*output, img); err != nil {
		log.Fatalf("Failed to save: %v", err)
	}

	stats, _ := ctx.Stats()
	log.Printf("Frame at t=%v saved to %s (%dx%d, %d draw calls)\n",
		*t, *output, cfg.Width, cfg.Height, stats.DrawCalls)
}

// buildScene returns two spinning checkerboard quads seen through a camera.
// The second one fades in after one second.
func buildScene() *ngl.Node {
	checker := ngl.Texture2D(64, 64, ngl.Media(ngl.ImageSource(checkerboard(8, 8))))
	quad := ngl.Quad(mgl32.Vec3{-0.5, -0.5, 0}, mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0})
	prog := ngl.Program(sceneShader, sceneShader)

	spin := ngl.AnimatedFloat(
		ngl.Keyframe{Time: 0, Value: 0},
		ngl.Keyframe{Time: 4, Value: 360, Easing: "quadratic_in_out"},
	)
	fade := ngl.AnimatedFloat(
		ngl.Keyframe{Time: 1, Value: 0},
		ngl.Keyframe{Time: 2, Value: 1, Easing: "sinus_out"},
	)

	left := ngl.Draw(quad, prog,
		ngl.WithResource(1, ngl.Block(ngl.Std140,
			ngl.Field("color", ngl.UniformVec4(mgl32.Vec4{1, 0.6, 0.2, 1})),
			ngl.Field("opacity", ngl.UniformFloat(1)),
		)),
		ngl.WithResource(2, checker),
	)
	right := ngl.Draw(quad, prog,
		ngl.WithResource(1, ngl.Block(ngl.Std140,
			ngl.Field("color", ngl.UniformVec4(mgl32.Vec4{0.2, 0.6, 1, 1})),
			ngl.Field("opacity", fade),
		)),
		ngl.WithResource(2, checker),
	)

	scene := ngl.Group(
		ngl.Translate(ngl.RotateBy(left, spin, mgl32.Vec3{0, 0, 1}), mgl32.Vec3{-0.6, 0, 0}),
		ngl.TimeRangeFilter(
			ngl.Translate(ngl.RotateBy(right, spin, mgl32.Vec3{0, 1, 0}), mgl32.Vec3{0.6, 0, 0}),
			1, 10, ngl.WithPrefetchTime(0.5),
		),
	)
	return ngl.Camera(
		ngl.GraphicConfig(scene, ngl.WithBlend(true)),
		mgl32.Vec3{0, 0, 3}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}, 45,
	).SetLabel("demo")
}

func checkerboard(cell, cells int) image.Image {
	size := cell * cells
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := range size {
		for x := range size {
			if (x/cell+y/cell)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			} else {
				img.SetGray(x, y, color.Gray{Y: 64})
			}
		}
	}
	return img
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
