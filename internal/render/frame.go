package render

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"lbm/internal/lattice"
)

// FrameOptions controls the size and styling of a saved frame.
type FrameOptions struct {
	Width, Height vg.Length
	Palette       Palette
	Streamlines   StreamlineOptions
}

// DefaultFrameOptions matches a 12x4 inch figure.
func DefaultFrameOptions() FrameOptions {
	return FrameOptions{
		Width:       12 * vg.Inch,
		Height:      4 * vg.Inch,
		Palette:     NewPalette("turbo"),
		Streamlines: DefaultStreamlineOptions(),
	}
}

// FrameName returns the file name of the frame for step.
func FrameName(step int) string {
	return fmt.Sprintf("step_%06d.png", step)
}

// SaveFrame writes dir/step_%06d.png with the velocity magnitude heat map on
// the left and streamlines on the right. It returns the written path.
func SaveFrame(dir string, step int, velocity lattice.VectorView, opts FrameOptions) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating frame directory: %w", err)
	}
	path := filepath.Join(dir, FrameName(step))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating frame: %w", err)
	}
	defer f.Close()

	if err := WriteFrame(f, step, velocity, opts); err != nil {
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing frame: %w", err)
	}
	return path, nil
}

// WriteFrame renders the two-panel figure as PNG into w.
func WriteFrame(w io.Writer, step int, velocity lattice.VectorView, opts FrameOptions) error {
	if len(opts.Palette) == 0 {
		opts.Palette = NewPalette("turbo")
	}
	speed := Field{NX: velocity.Width(), NY: velocity.Height(), Data: velocity.Magnitude()}
	heat := magnitudePlot(speed, step, opts.Palette)
	vf := VectorField{NX: speed.NX, NY: speed.NY, U: velocity.Component(0), V: velocity.Component(1)}
	lines, err := streamlinePlot(vf, step, opts.Streamlines)
	if err != nil {
		return err
	}

	img := vgimg.New(opts.Width, opts.Height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter * 4, PadY: vg.Millimeter * 2,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	plots := [][]*plot.Plot{{heat, lines}}
	canvases := plot.Align(plots, tiles, dc)
	heat.Draw(canvases[0][0])
	lines.Draw(canvases[0][1])

	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(w); err != nil {
		return fmt.Errorf("encoding frame: %w", err)
	}
	return nil
}

func magnitudePlot(speed Field, step int, pal Palette) *plot.Plot {
	p := plot.New()
	lo, hi := speed.Range()
	p.Title.Text = fmt.Sprintf("Velocity Magnitude - Step %d (max %.3g)", step, hi)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	hm := plotter.NewHeatMap(speed, pal)
	hm.Min, hm.Max = lo, hi
	if hi <= lo {
		hm.Max = lo + 1e-12
	}
	hm.NaN = color.Black
	p.Add(hm)
	return p
}

func streamlinePlot(vf VectorField, step int, opts StreamlineOptions) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Streamlines - Step %d", step)
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"
	p.X.Min, p.X.Max = 0, float64(vf.NX-1)
	p.Y.Min, p.Y.Max = 0, float64(vf.NY-1)

	for _, line := range Streamlines(vf, opts) {
		pts := make(plotter.XYs, len(line))
		for i, v := range line {
			pts[i].X, pts[i].Y = v.X, v.Y
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("building streamline: %w", err)
		}
		l.LineStyle.Color = color.RGBA{B: 255, A: 255}
		l.LineStyle.Width = vg.Points(0.5)
		p.Add(l)
	}
	return p, nil
}
