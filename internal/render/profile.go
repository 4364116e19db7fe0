package render

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// SaveProfile plots a measured channel profile u_x(y) against its analytic
// reference and writes it to path. The image format follows the extension.
func SaveProfile(path string, measured, analytic []float64) error {
	if len(measured) == 0 {
		return errors.New("empty profile")
	}
	p := plot.New()
	p.Title.Text = "Channel velocity profile"
	p.X.Label.Text = "u_x"
	p.Y.Label.Text = "Y"

	pts := make(plotter.XYs, len(measured))
	for y, u := range measured {
		pts[y].X, pts[y].Y = u, float64(y)
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return fmt.Errorf("building measured profile: %w", err)
	}
	sc.GlyphStyle.Color = color.RGBA{R: 200, A: 255}
	sc.GlyphStyle.Radius = vg.Points(2.5)
	sc.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(sc)
	p.Legend.Add("lattice", sc)

	if len(analytic) > 0 {
		ref := make(plotter.XYs, len(analytic))
		for y, u := range analytic {
			ref[y].X, ref[y].Y = u, float64(y)*float64(len(measured)-1)/float64(max(len(analytic)-1, 1))
		}
		line, err := plotter.NewLine(ref)
		if err != nil {
			return fmt.Errorf("building analytic profile: %w", err)
		}
		line.LineStyle.Color = color.Black
		line.LineStyle.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add("analytic", line)
	}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating profile directory: %w", err)
	}
	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("saving profile: %w", err)
	}
	return nil
}
