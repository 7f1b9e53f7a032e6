// Package render draws trajectories as animated GIFs.
package render

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/orbitbake/internal/dynamo"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Width, Height int
	// Scale is pixels per world unit.
	Scale float64
	// Subframes is the number of samples folded into one GIF frame.
	Subframes int
	// Dots is how many of a frame's samples are drawn, evenly spaced.
	Dots       int
	DotRadius  float64
	Alpha      uint8
	Delay      int
	Background color.RGBA
	Colors     []color.RGBA
}

func DefaultOptions(subframes int) Options {
	return Options{
		Width:      400,
		Height:     400,
		Scale:      50,
		Subframes:  subframes,
		Dots:       10,
		DotRadius:  0.08,
		Alpha:      13,
		Delay:      2,
		Background: color.RGBA{100, 100, 100, 255},
		Colors: []color.RGBA{
			{255, 0, 0, 255},
			{0, 255, 0, 255},
			{0, 0, 255, 255},
		},
	}
}

func (o Options) validate() error {
	switch {
	case o.Width <= 0 || o.Height <= 0:
		return &dynamo.ConfigError{Field: "size", Reason: fmt.Sprintf("must be positive, got %dx%d", o.Width, o.Height)}
	case o.Scale <= 0:
		return &dynamo.ConfigError{Field: "scale", Reason: "must be positive"}
	case o.Subframes <= 0:
		return &dynamo.ConfigError{Field: "subframes", Reason: "must be positive"}
	case len(o.Colors) == 0:
		return &dynamo.ConfigError{Field: "colors", Reason: "at least one color is required"}
	}
	return nil
}

// transform maps world coordinates to pixels: origin at the image center,
// y pointing up.
func (o Options) transform() mgl64.Mat3 {
	return mgl64.Translate2D(float64(o.Width)/2, float64(o.Height)/2).
		Mul3(mgl64.Scale2D(o.Scale, -o.Scale))
}

// GIF renders one animation frame per Subframes samples of traj and writes
// the looping animation to w. Frames are drawn concurrently.
func GIF(ctx context.Context, w io.Writer, traj dynamo.Trajectory, opts Options) error {
	if len(traj) == 0 {
		return dynamo.ErrEmptyTrajectory
	}
	if err := opts.validate(); err != nil {
		return err
	}
	for i, f := range traj {
		if !f.IsValid() {
			return fmt.Errorf("sample %d: %w", i, dynamo.ErrNonFinite)
		}
	}

	chunks := (len(traj) + opts.Subframes - 1) / opts.Subframes
	images := make([]*image.Paletted, chunks)
	m := opts.transform()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for c := 0; c < chunks; c++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := c * opts.Subframes
			end := min(start+opts.Subframes, len(traj))
			images[c] = drawFrame(traj[start:end], m, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	anim := &gif.GIF{
		Image:     images,
		Delay:     make([]int, chunks),
		Disposal:  make([]byte, chunks),
		LoopCount: 0,
	}
	for i := range images {
		anim.Delay[i] = opts.Delay
		anim.Disposal[i] = gif.DisposalNone
	}
	return gif.EncodeAll(w, anim)
}

func drawFrame(samples dynamo.Trajectory, m mgl64.Mat3, opts Options) *image.Paletted {
	bounds := image.Rect(0, 0, opts.Width, opts.Height)
	film := image.NewRGBA(bounds)
	draw.Draw(film, bounds, image.NewUniform(opts.Background), image.Point{}, draw.Src)

	step := 1
	if opts.Dots > 0 {
		step = (len(samples) + opts.Dots - 1) / opts.Dots
	}
	radius := opts.DotRadius * opts.Scale

	for i := 0; i < len(samples); i += step {
		for body, p := range samples[i] {
			px := m.Mul3x1(mgl64.Vec3{p.X, p.Y, 1})
			col := opts.Colors[body%len(opts.Colors)]
			col.A = opts.Alpha
			fillCircle(film, px.X(), px.Y(), radius, col)
		}
	}

	out := image.NewPaletted(bounds, palette.Plan9)
	draw.Draw(out, bounds, film, image.Point{}, draw.Src)
	return out
}

// fillCircle blends col over every pixel whose center lies within r of
// (cx, cy). col.A is a straight alpha.
func fillCircle(img *image.RGBA, cx, cy, r float64, col color.RGBA) {
	b := img.Bounds()
	x0 := max(int(math.Floor(cx-r)), b.Min.X)
	x1 := min(int(math.Ceil(cx+r)), b.Max.X-1)
	y0 := max(int(math.Floor(cy-r)), b.Min.Y)
	y1 := min(int(math.Ceil(cy+r)), b.Max.Y-1)

	a := float64(col.A) / 255
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy > r*r {
				continue
			}
			i := img.PixOffset(x, y)
			img.Pix[i+0] = blend(img.Pix[i+0], col.R, a)
			img.Pix[i+1] = blend(img.Pix[i+1], col.G, a)
			img.Pix[i+2] = blend(img.Pix[i+2], col.B, a)
			img.Pix[i+3] = 255
		}
	}
}

func blend(dst, src uint8, a float64) uint8 {
	return uint8(math.Round(float64(dst) + (float64(src)-float64(dst))*a))
}
