/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "fmt"

// Path commands and shapes.
//
// A Path stores verbs, points and conic weights in three flat arrays. Only
// the destination and control points of each verb are stored; the start
// point of a curve is the last point of the verb before it.

// QuarterWeight is the conic weight of a 90 degree circular arc.
const QuarterWeight = float32(0.707106781)

type Path struct {
	verbs   []SegmentType
	pts     []Pt
	weights []float32
	fill    FillRule
	// lastMove indexes pts at the current contour's move point. It is
	// negative (bitwise complement) after Close, meaning the next curve
	// needs an implicit move.
	lastMove int
	hasMove  bool
}

// NewPath returns an empty path with the given fill rule.
func NewPath(rule FillRule) *Path { return &Path{fill: rule} }

func (p *Path) FillRule() FillRule        { return p.fill }
func (p *Path) SetFillRule(rule FillRule) { p.fill = rule }

// IsEmpty reports a path without verbs.
func (p *Path) IsEmpty() bool { return len(p.verbs) == 0 }

// Len is the number of stored verbs. A conic counts once.
func (p *Path) Len() int { return len(p.verbs) }

func (p *Path) MoveTo(x, y float32) {
	p.lastMove = len(p.pts)
	p.hasMove = true
	p.verbs = append(p.verbs, Move)
	p.pts = append(p.pts, Pt{x, y})
}

func (p *Path) injectMoveIfNeeded() {
	if p.hasMove && p.lastMove >= 0 {
		return
	}
	var at Pt
	if p.hasMove {
		at = p.pts[^p.lastMove]
	}
	p.MoveTo(at.X, at.Y)
}

func (p *Path) LineTo(x, y float32) {
	p.injectMoveIfNeeded()
	p.verbs = append(p.verbs, Line)
	p.pts = append(p.pts, Pt{x, y})
}

func (p *Path) QuadTo(cx, cy, x, y float32) {
	p.injectMoveIfNeeded()
	p.verbs = append(p.verbs, Quadratic)
	p.pts = append(p.pts, Pt{cx, cy}, Pt{x, y})
}

// ConicTo appends a rational quadratic. A non-positive weight degrades to a
// line, an infinite one to two lines, and weight 1 is stored as a quadratic.
func (p *Path) ConicTo(cx, cy, x, y, w float32) {
	switch {
	case !(w > 0):
		p.LineTo(x, y)
	case !finite32(w):
		p.LineTo(cx, cy)
		p.LineTo(x, y)
	case w == 1:
		p.QuadTo(cx, cy, x, y)
	default:
		p.injectMoveIfNeeded()
		p.verbs = append(p.verbs, Conic)
		p.pts = append(p.pts, Pt{cx, cy}, Pt{x, y})
		p.weights = append(p.weights, w)
	}
}

func (p *Path) CubicTo(cx1, cy1, cx2, cy2, x, y float32) {
	p.injectMoveIfNeeded()
	p.verbs = append(p.verbs, Cubic)
	p.pts = append(p.pts, Pt{cx1, cy1}, Pt{cx2, cy2}, Pt{x, y})
}

// Close ends the current contour. It is a no-op on an empty path and
// directly after another Close.
func (p *Path) Close() {
	if n := len(p.verbs); n > 0 && p.verbs[n-1] != Close {
		p.verbs = append(p.verbs, Close)
	}
	if p.hasMove && p.lastMove >= 0 {
		p.lastMove = ^p.lastMove
	}
}

// AddRect appends a closed rectangle starting at its top-left corner.
func (p *Path) AddRect(l, t, r, b float32, dir Direction) {
	p.addRect(LTRB(l, t, r, b), dir, 0)
}

// AddOval appends a closed ellipse inscribed in the rect, made of four
// quarter conics starting at the right-center point.
func (p *Path) AddOval(l, t, r, b float32, dir Direction) {
	p.addOval(LTRB(l, t, r, b), dir, 1)
}

// AddCircle appends a circle; non-positive radii add nothing.
func (p *Path) AddCircle(cx, cy, radius float32, dir Direction) {
	if !(radius > 0) {
		return
	}
	p.AddOval(cx-radius, cy-radius, cx+radius, cy+radius, dir)
}

// AddRoundRect appends a rectangle with elliptical corners. Radii larger
// than half the size are scaled down proportionally; radii covering the
// whole rect produce an oval and zero radii a plain rect.
func (p *Path) AddRoundRect(l, t, r, b, rx, ry float32, dir Direction) {
	if rx < 0 || ry < 0 {
		return
	}
	rect := sortedRect(l, t, r, b)
	start := 6
	if dir == CCW {
		start = 7
	}
	if !finite32(rx) || !finite32(ry) {
		rx, ry = 0, 0
	}
	if rect.Empty() {
		p.addRect(rect, dir, (start+1)/2)
		return
	}
	if rect.W < rx+rx || rect.H < ry+ry {
		scale := min(rect.W/(rx+rx), rect.H/(ry+ry))
		rx *= scale
		ry *= scale
	}
	if rx <= 0 || ry <= 0 {
		p.addRect(rect, dir, (start+1)/2)
		return
	}
	if rx >= rect.W/2 && ry >= rect.H/2 {
		p.addOval(rect, dir, start/2)
		return
	}

	rr := roundRectPoints(rect, rx, ry)
	corners := rectPoints(rect)
	rrIdx := start
	rectIdx := start/2 + int(dir)
	step := func(i, n int) int {
		if dir == CW {
			return (i + 1) % n
		}
		return (i + n - 1) % n
	}
	rrIdx %= 8
	rectIdx %= 4
	p.MoveTo(rr[rrIdx].X, rr[rrIdx].Y)
	for i := 0; i < 4; i++ {
		rrIdx = step(rrIdx, 8)
		p.LineTo(rr[rrIdx].X, rr[rrIdx].Y)
		rectIdx = step(rectIdx, 4)
		rrIdx = step(rrIdx, 8)
		c := corners[rectIdx]
		p.ConicTo(c.X, c.Y, rr[rrIdx].X, rr[rrIdx].Y, QuarterWeight)
	}
	p.Close()
}

func (p *Path) addRect(rect Rect, dir Direction, start int) {
	pts := rectPoints(rect)
	i := start % 4
	p.MoveTo(pts[i].X, pts[i].Y)
	for k := 0; k < 3; k++ {
		if dir == CW {
			i = (i + 1) % 4
		} else {
			i = (i + 3) % 4
		}
		p.LineTo(pts[i].X, pts[i].Y)
	}
	p.Close()
}

func (p *Path) addOval(rect Rect, dir Direction, start int) {
	oval := ovalPoints(rect)
	corners := rectPoints(rect)
	oi := start % 4
	ci := oi
	if dir == CCW {
		ci = (oi + 1) % 4
	}
	p.MoveTo(oval[oi].X, oval[oi].Y)
	for k := 0; k < 4; k++ {
		if dir == CW {
			ci, oi = (ci+1)%4, (oi+1)%4
		} else {
			ci, oi = (ci+3)%4, (oi+3)%4
		}
		p.ConicTo(corners[ci].X, corners[ci].Y, oval[oi].X, oval[oi].Y, QuarterWeight)
	}
	p.Close()
}

func sortedRect(l, t, r, b float32) Rect {
	if l > r {
		l, r = r, l
	}
	if t > b {
		t, b = b, t
	}
	return LTRB(l, t, r, b)
}

// rectPoints lists the corners clockwise from top-left.
func rectPoints(r Rect) [4]Pt {
	return [4]Pt{
		{r.Left(), r.Top()},
		{r.Right(), r.Top()},
		{r.Right(), r.Bottom()},
		{r.Left(), r.Bottom()},
	}
}

// ovalPoints lists the edge midpoints clockwise from top-center.
func ovalPoints(r Rect) [4]Pt {
	cx := midpoint(r.Left(), r.Right())
	cy := midpoint(r.Top(), r.Bottom())
	return [4]Pt{
		{cx, r.Top()},
		{r.Right(), cy},
		{cx, r.Bottom()},
		{r.Left(), cy},
	}
}

// roundRectPoints lists the eight tangent points clockwise, starting at
// the top edge after the upper-left corner.
func roundRectPoints(r Rect, rx, ry float32) [8]Pt {
	l, t, rt, b := r.Left(), r.Top(), r.Right(), r.Bottom()
	return [8]Pt{
		{l + rx, t},
		{rt - rx, t},
		{rt, t + ry},
		{rt, b - ry},
		{rt - rx, b},
		{l + rx, b},
		{l, b - ry},
		{l, t + ry},
	}
}

func midpoint(a, b float32) float32 { return float32((float64(a) + float64(b)) * 0.5) }

// Bounds returns the bounding box of every stored point, control points
// included. The curves lie inside it but it may be larger than their tight
// bounds. An empty path has a zero rect.
func (p *Path) Bounds() Rect {
	if len(p.pts) == 0 {
		return Rect{}
	}
	minX, minY := p.pts[0].X, p.pts[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.pts[1:] {
		minX = min(minX, pt.X)
		minY = min(minY, pt.Y)
		maxX = max(maxX, pt.X)
		maxY = max(maxY, pt.Y)
	}
	return LTRB(minX, minY, maxX, maxY)
}

// Transform maps every point stored so far through m. Conic weights stay
// as they are since an affine map does not change them.
func (p *Path) Transform(m Affine2D) {
	for i, pt := range p.pts {
		p.pts[i] = m.Apply(pt)
	}
}

func (p *Path) String() string {
	return fmt.Sprintf("Path{verbs:%d pts:%d fill:%s}", len(p.verbs), len(p.pts), p.fill)
}

// Open returns a raw cursor over the verbs stored so far.
func (p *Path) Open() (GeometrySource, error) {
	return &pathSource{
		verbs:   p.verbs[:len(p.verbs):len(p.verbs)],
		pts:     p.pts[:len(p.pts):len(p.pts)],
		weights: p.weights[:len(p.weights):len(p.weights)],
	}, nil
}

// pathSource walks the flat arrays of a Path.
type pathSource struct {
	verbs   []SegmentType
	pts     []Pt
	weights []float32
	vi      int
	pi      int
	wi      int
	closed  bool
}

func (s *pathSource) HasNext() bool { return !s.closed && s.vi < len(s.verbs) }

func (s *pathSource) Peek() SegmentType {
	if !s.HasNext() {
		return Done
	}
	return s.verbs[s.vi]
}

func (s *pathSource) Next(buf *[BufferSize]float32) (SegmentType, error) {
	if !s.HasNext() {
		return Done, nil
	}
	v := s.verbs[s.vi]
	s.vi++
	switch v {
	case Move:
		setPt(buf, 0, s.pts[s.pi])
		s.pi++
	case Line, Quadratic, Conic, Cubic:
		n := v.Arity() - 1
		setPt(buf, 0, s.pts[s.pi-1])
		for i := 0; i < n; i++ {
			setPt(buf, i+1, s.pts[s.pi+i])
		}
		s.pi += n
		if v == Conic {
			w := s.weights[s.wi]
			s.wi++
			buf[6], buf[7] = w, w
		}
	}
	return v, nil
}

func (s *pathSource) Close() error {
	s.closed = true
	return nil
}

func setPt(buf *[BufferSize]float32, i int, p Pt) {
	buf[2*i] = p.X
	buf[2*i+1] = p.Y
}
