/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"image"
	"image/draw"
	"testing"

	xvector "golang.org/x/image/vector"
)

// rasterize fills the geometry into a 76x76 alpha mask. Curves are
// flattened here with fine, fixed steps so both conic evaluations go
// through the same line rasterization.
func rasterize(t *testing.T, g Geometry, opts ...Option) *image.Alpha {
	t.Helper()
	z := xvector.NewRasterizer(76, 76)
	z.DrawOp = draw.Src
	for _, s := range collect(t, g, opts...) {
		switch s.Type {
		case Move:
			z.MoveTo(s.Points[0].X, s.Points[0].Y)
		case Line:
			z.LineTo(s.Points[1].X, s.Points[1].Y)
		case Quadratic:
			flatten(z, 16, func(u float64) Pt { return evalConic(s.Points, 1, u) })
		case Conic:
			flatten(z, 256, func(u float64) Pt { return evalConic(s.Points, float64(s.Weight), u) })
		case Cubic:
			z.CubeTo(s.Points[1].X, s.Points[1].Y, s.Points[2].X, s.Points[2].Y, s.Points[3].X, s.Points[3].Y)
		case Close:
			z.ClosePath()
		}
	}
	dst := image.NewAlpha(z.Bounds())
	z.Draw(dst, dst.Bounds(), image.Opaque, image.Point{})
	return dst
}

func flatten(z *xvector.Rasterizer, steps int, at func(float64) Pt) {
	for i := 1; i <= steps; i++ {
		p := at(float64(i) / float64(steps))
		z.LineTo(p.X, p.Y)
	}
}

// evalConic evaluates a rational quadratic; weight 1 is a plain quadratic.
func evalConic(p []Pt, w, t float64) Pt {
	u := 1 - t
	a, b, c := u*u, 2*t*u*w, t*t
	d := a + b + c
	return Pt{
		X: float32((a*float64(p[0].X) + b*float64(p[1].X) + c*float64(p[2].X)) / d),
		Y: float32((a*float64(p[0].Y) + b*float64(p[1].Y) + c*float64(p[2].Y)) / d),
	}
}

func maxAlphaDiff(a, b *image.Alpha) (diff int, covered int) {
	for i := range a.Pix {
		d := int(a.Pix[i]) - int(b.Pix[i])
		if d < 0 {
			d = -d
		}
		diff = max(diff, d)
		if a.Pix[i] == 0xff {
			covered++
		}
	}
	return diff, covered
}

func TestRaster_QuadraticsMatchConics(t *testing.T) {
	var p Path
	p.AddRoundRect(6, 6, 70, 70, 12, 12, CW)
	p.AddCircle(38, 38, 16, CCW)

	conics := rasterize(t, &p)
	// At tolerance 0.001 the arcs reach the 32 quadratic cap and stay
	// within about a thousandth of a pixel of the true curve. Coverage
	// then moves by well under one alpha step, so only rounding can show.
	quads := rasterize(t, &p, WithConicEvaluation(AsQuadratics), WithTolerance(0.001))
	diff, covered := maxAlphaDiff(conics, quads)
	if covered < 1000 {
		t.Fatalf("rasterization covered only %d pixels", covered)
	}
	if diff > 1 {
		t.Fatalf("conic and quadratic rendering differ by %d/255", diff)
	}
}

func TestRaster_DefaultToleranceStaysClose(t *testing.T) {
	var p Path
	p.AddRoundRect(6, 6, 70, 70, 12, 12, CW)

	conics := rasterize(t, &p)
	// The default tolerance moves edges by up to ~0.04px at this radius.
	quads := rasterize(t, &p, WithConicEvaluation(AsQuadratics))
	if diff, _ := maxAlphaDiff(conics, quads); diff > 16 {
		t.Fatalf("conic and quadratic rendering differ by %d/255", diff)
	}
}
