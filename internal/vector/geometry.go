/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Basic 2D geometry and transforms.
// Coordinates are float32, the precision paths are stored and serialized with.

import "math"

// Pt is a 2D point.
type Pt struct{ X, Y float32 }

// Equal reports exact coordinate equality.
func (p Pt) Equal(o Pt) bool { return p.X == o.X && p.Y == o.Y }

// Finite reports whether both coordinates are neither NaN nor infinite.
func (p Pt) Finite() bool { return finite32(p.X) && finite32(p.Y) }

// Rect is an axis-aligned rectangle defined by min corner and size.
type Rect struct {
	X, Y float32
	W, H float32
}

// LTRB builds a rect from its edges.
func LTRB(l, t, r, b float32) Rect { return Rect{X: l, Y: t, W: r - l, H: b - t} }

func (r Rect) Left() float32   { return r.X }
func (r Rect) Top() float32    { return r.Y }
func (r Rect) Right() float32  { return r.X + r.W }
func (r Rect) Bottom() float32 { return r.Y + r.H }

// Empty reports a rect without area.
func (r Rect) Empty() bool { return !(r.W > 0 && r.H > 0) }

// Union returns the minimal rect containing both.
func (r Rect) Union(o Rect) Rect {
	minX := min(r.X, o.X)
	minY := min(r.Y, o.Y)
	maxX := max(r.X+r.W, o.X+o.W)
	maxY := max(r.Y+r.H, o.Y+o.H)
	return Rect{X: minX, Y: minY, W: maxX - minX, H: maxY - minY}
}

// Affine2D uses the SVG matrix(a b c d e f) layout:
//
//	x' = A*x + C*y + E
//	y' = B*x + D*y + F
//
// Products are formed in float64 and rounded once per coordinate, so a
// mapped point does not depend on whether the compiler fuses operations.
type Affine2D struct{ A, B, C, D, E, F float32 }

// Apply maps p.
func (m Affine2D) Apply(p Pt) Pt {
	x, y := float64(p.X), float64(p.Y)
	return Pt{
		X: float32(float64(m.A)*x + float64(m.C)*y + float64(m.E)),
		Y: float32(float64(m.B)*x + float64(m.D)*y + float64(m.F)),
	}
}

// Then returns the transform that applies m first and n second.
func (m Affine2D) Then(n Affine2D) Affine2D {
	a, b, c, d, e, f := f64(m.A), f64(m.B), f64(m.C), f64(m.D), f64(m.E), f64(m.F)
	na, nb, nc, nd, ne, nf := f64(n.A), f64(n.B), f64(n.C), f64(n.D), f64(n.E), f64(n.F)
	return Affine2D{
		A: float32(na*a + nc*b),
		B: float32(nb*a + nd*b),
		C: float32(na*c + nc*d),
		D: float32(nb*c + nd*d),
		E: float32(na*e + nc*f + ne),
		F: float32(nb*e + nd*f + nf),
	}
}

// Translation moves by (tx, ty).
func Translation(tx, ty float32) Affine2D { return Affine2D{A: 1, D: 1, E: tx, F: ty} }

// Scaling scales about the origin.
func Scaling(sx, sy float32) Affine2D { return Affine2D{A: sx, D: sy} }

// Rotation turns by deg degrees about c. Positive angles run from +x toward
// +y, clockwise on a y-down canvas. Quarter turns are exact.
func Rotation(deg float32, c Pt) Affine2D {
	var sin, cos float32
	switch q := math.Mod(float64(deg), 360); {
	case q == 0:
		cos = 1
	case q == 90 || q == -270:
		sin = 1
	case q == 180 || q == -180:
		cos = -1
	case q == 270 || q == -90:
		sin = -1
	default:
		rad := q * math.Pi / 180
		sin, cos = float32(math.Sin(rad)), float32(math.Cos(rad))
	}
	turn := Affine2D{A: cos, B: sin, C: -sin, D: cos}
	return Translation(-c.X, -c.Y).Then(turn).Then(Translation(c.X, c.Y))
}

func f64(v float32) float64 { return float64(v) }

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func sqrt32(v float32) float32 { return float32(math.Sqrt(float64(v))) }

func finite32(v float32) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
