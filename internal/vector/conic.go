/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "fmt"

// Conic to quadratic conversion.
//
// All arithmetic is float32 and every product is rounded explicitly so the
// output is identical on platforms that would otherwise fuse multiply-adds.

const (
	// DefaultTolerance is the conversion error allowed per conic, in
	// coordinate units.
	DefaultTolerance = float32(0.25)
	// MaxQuadraticsPow2 caps a conic at 2^5 quadratics.
	MaxQuadraticsPow2 = 5
	// MaxQuadraticPoints is the largest point count ConicToQuadratics emits.
	MaxQuadraticPoints = 1 + 2<<MaxQuadraticsPow2
)

type conic struct {
	p [3]Pt
	w float32
}

// quadPow2 estimates how many halvings bring the conic within tol of its
// quadratic approximation.
func (c conic) quadPow2(tol float32) int {
	if tol < 0 || !finite32(tol) || !c.p[0].Finite() || !c.p[1].Finite() || !c.p[2].Finite() {
		return 0
	}
	a := float32(c.w - 1)
	k := float32(a / float32(4*float32(2+a)))
	x := float32(k * float32(float32(c.p[0].X-float32(2*c.p[1].X))+c.p[2].X))
	y := float32(k * float32(float32(c.p[0].Y-float32(2*c.p[1].Y))+c.p[2].Y))
	e := sqrt32(float32(float32(x*x) + float32(y*y)))
	pow2 := 0
	for ; pow2 < MaxQuadraticsPow2; pow2++ {
		if e <= tol {
			break
		}
		e = float32(e * 0.25)
	}
	return pow2
}

// chop splits the conic at t=0.5. Both halves get the same new weight.
func (c conic) chop() (conic, conic) {
	w := c.w
	scale := float32(1 / float32(1+w))
	newW := sqrt32(float32(0.5 + float32(w*0.5)))
	p0, p1, p2 := c.p[0], c.p[1], c.p[2]
	wp1 := Pt{float32(w * p1.X), float32(w * p1.Y)}

	mid := func(v0, wv1, v2 float32) float32 {
		return float32(float32(float32(float32(v0+float32(wv1+wv1))+v2)*scale) * 0.5)
	}
	m := Pt{mid(p0.X, wp1.X, p2.X), mid(p0.Y, wp1.Y, p2.Y)}
	if !m.Finite() {
		wd := float64(w)
		half := 1 / (1 + wd) * 0.5
		m.X = float32((float64(p0.X) + 2*wd*float64(p1.X) + float64(p2.X)) * half)
		m.Y = float32((float64(p0.Y) + 2*wd*float64(p1.Y) + float64(p2.Y)) * half)
	}
	a := conic{w: newW}
	b := conic{w: newW}
	a.p[0] = p0
	a.p[1] = Pt{float32(float32(p0.X+wp1.X) * scale), float32(float32(p0.Y+wp1.Y) * scale)}
	a.p[2] = m
	b.p[0] = m
	b.p[1] = Pt{float32(float32(wp1.X+p2.X) * scale), float32(float32(wp1.Y+p2.Y) * scale)}
	b.p[2] = p2
	return a, b
}

// quadCount mirrors chopIntoQuads without producing points.
func (c conic) quadCount(tol float32) int {
	pow2 := c.quadPow2(tol)
	if pow2 == MaxQuadraticsPow2 {
		a, b := c.chop()
		if samePoint(a.p[1], a.p[2]) && samePoint(b.p[0], b.p[1]) {
			return 2
		}
	}
	return 1 << pow2
}

func between(a, b, c float32) bool { return float32(float32(a-b)*float32(c-b)) <= 0 }

// subdivide appends control and end point of 2^level quadratics.
func (c conic) subdivide(dst []Pt, level int) []Pt {
	if level == 0 {
		return append(dst, c.p[1], c.p[2])
	}
	a, b := c.chop()
	startY, endY := c.p[0].Y, c.p[2].Y
	if between(startY, c.p[1].Y, endY) {
		// keep y-monotonic input monotonic after rounding
		midY := a.p[2].Y
		if !between(startY, midY, endY) {
			closer := endY
			if abs32(midY-startY) < abs32(midY-endY) {
				closer = startY
			}
			a.p[2].Y = closer
			b.p[0].Y = closer
		}
		if !between(startY, a.p[1].Y, a.p[2].Y) {
			a.p[1].Y = startY
		}
		if !between(b.p[0].Y, b.p[1].Y, endY) {
			b.p[1].Y = endY
		}
	}
	dst = a.subdivide(dst, level-1)
	return b.subdivide(dst, level-1)
}

// chopIntoQuads appends 1+2n points for n = 2^pow2 quadratics and returns
// the extended slice and n.
func (c conic) chopIntoQuads(dst []Pt, pow2 int) ([]Pt, int) {
	start := len(dst)
	dst = append(dst, c.p[0])
	lines := false
	if pow2 == MaxQuadraticsPow2 {
		a, b := c.chop()
		if samePoint(a.p[1], a.p[2]) && samePoint(b.p[0], b.p[1]) {
			// the first chop already degenerated into two lines
			dst = append(dst, a.p[1], a.p[1], a.p[1], b.p[2])
			pow2 = 1
			lines = true
		}
	}
	if !lines {
		dst = c.subdivide(dst, pow2)
	}
	n := 1 << pow2
	out := dst[start:]
	for _, pt := range out {
		if !pt.Finite() {
			for i := 1; i < len(out)-1; i++ {
				out[i] = c.p[1]
			}
			break
		}
	}
	return dst, n
}

// samePoint treats points whose difference cannot be normalized as equal.
func samePoint(a, b Pt) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return !(finite32(dx) && finite32(dy) && (dx != 0 || dy != 0))
}

func checkConic(w float32) error {
	if !(w > 0) || !finite32(w) {
		return fmt.Errorf("%w: conic weight %v", ErrMalformedGeometry, w)
	}
	return nil
}

// QuadraticCount is the number of quadratics ConicToQuadratics produces for
// the conic at tolerance tol.
func QuadraticCount(p0, p1, p2 Pt, w, tol float32) int {
	return conic{p: [3]Pt{p0, p1, p2}, w: w}.quadCount(tol)
}

// ConicToQuadratics appends the points of quadratics approximating the conic
// (p0, p1, p2, w) to dst. The appended run has 1+2n points with shared
// endpoints: quadratic i is pts[2i], pts[2i+1], pts[2i+2]. The first and
// last appended points equal p0 and p2.
func ConicToQuadratics(dst []Pt, p0, p1, p2 Pt, w, tol float32) ([]Pt, error) {
	if err := checkConic(w); err != nil {
		return dst, err
	}
	if !(tol > 0) {
		return dst, fmt.Errorf("%w: tolerance %v", ErrInvalidArgument, tol)
	}
	c := conic{p: [3]Pt{p0, p1, p2}, w: w}
	dst, _ = c.chopIntoQuads(dst, c.quadPow2(tol))
	return dst, nil
}
