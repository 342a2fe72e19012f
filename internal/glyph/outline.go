/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package glyph turns text into outlines that can be iterated like any path.
package glyph

import (
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	applog "pathway/internal/log"
	"pathway/internal/vector"
)

type op struct {
	t   vector.SegmentType
	pts [3]vector.Pt
}

// Outline is the unhinted outline of a run of text, in pixels with the
// origin at the top-left of the first line and y growing downwards.
// Every contour ends with a Close.
type Outline struct {
	ops     []op
	bounds  vector.Rect
	seen    bool
	advance float32
	height  float32
}

func (o *Outline) FillRule() vector.FillRule { return vector.NonZero }

// Bounds is the box of all on- and off-curve points; zero when empty.
func (o *Outline) Bounds() vector.Rect { return o.bounds }

// Advance is the pen position after the widest line.
func (o *Outline) Advance() float32 { return o.advance }

// Height is the distance between the top of the first line and the baseline
// of the last one plus its descent.
func (o *Outline) Height() float32 { return o.height }

// Len is the number of stored segments.
func (o *Outline) Len() int { return len(o.ops) }

func (o *Outline) Open() (vector.GeometrySource, error) {
	return &outlineSource{ops: o.ops}, nil
}

func (o *Outline) add(t vector.SegmentType, pts ...vector.Pt) {
	x := op{t: t}
	copy(x.pts[:], pts)
	o.ops = append(o.ops, x)
	for _, p := range pts {
		r := vector.Rect{X: p.X, Y: p.Y}
		if !o.seen {
			o.bounds, o.seen = r, true
			continue
		}
		o.bounds = o.bounds.Union(r)
	}
}

type outlineSource struct {
	ops    []op
	i      int
	prev   vector.Pt
	closed bool
}

func (s *outlineSource) HasNext() bool { return !s.closed && s.i < len(s.ops) }

func (s *outlineSource) Peek() vector.SegmentType {
	if !s.HasNext() {
		return vector.Done
	}
	return s.ops[s.i].t
}

func (s *outlineSource) Next(buf *[vector.BufferSize]float32) (vector.SegmentType, error) {
	if !s.HasNext() {
		return vector.Done, nil
	}
	o := s.ops[s.i]
	s.i++
	if o.t == vector.Close {
		return o.t, nil
	}
	n := o.t.Arity()
	j := 0
	if o.t != vector.Move {
		buf[0], buf[1] = s.prev.X, s.prev.Y
		j = 1
		n--
	}
	for k := 0; k < n; k++ {
		buf[2*(j+k)] = o.pts[k].X
		buf[2*(j+k)+1] = o.pts[k].Y
	}
	s.prev = o.pts[n-1]
	return o.t, nil
}

func (s *outlineSource) Close() error {
	s.closed = true
	return nil
}

// Load returns the outline of a single rune at ppem pixels per em.
func Load(f *sfnt.Font, r rune, ppem float32) (*Outline, error) {
	return Text(f, string(r), ppem)
}

// Text lays out s on a single baseline per line with kerning and returns
// its outline at ppem pixels per em. A newline starts a new line.
func Text(f *sfnt.Font, s string, ppem float32) (*Outline, error) {
	if f == nil {
		return nil, errors.New("glyph: nil font")
	}
	if !(ppem > 0) {
		return nil, fmt.Errorf("%w: ppem %v", vector.ErrInvalidArgument, ppem)
	}
	l := applog.WithOperation(applog.WithComponent("glyph"), "text")
	var b sfnt.Buffer
	scale := fixed.Int26_6(ppem*64 + 0.5)
	m, err := f.Metrics(&b, scale, font.HintingNone)
	if err != nil {
		return nil, fmt.Errorf("font metrics: %w", err)
	}
	out := &Outline{}
	baseline := fix(m.Ascent)
	var pen fixed.Int26_6
	var prev sfnt.GlyphIndex
	hasPrev := false
	for _, r := range s {
		if r == '\n' {
			out.advance = max(out.advance, fix(pen))
			pen, hasPrev = 0, false
			baseline += fix(m.Height)
			continue
		}
		gi, err := f.GlyphIndex(&b, r)
		if err != nil {
			return nil, fmt.Errorf("glyph index %q: %w", r, err)
		}
		if gi == 0 {
			l.Debug("no glyph for rune", slog.String("rune", string(r)))
		}
		if hasPrev {
			k, err := f.Kern(&b, prev, gi, scale, font.HintingNone)
			if err != nil && !errors.Is(err, sfnt.ErrNotFound) {
				return nil, fmt.Errorf("kern %q: %w", r, err)
			}
			pen += k
		}
		segs, err := f.LoadGlyph(&b, gi, scale, nil)
		if err != nil {
			return nil, fmt.Errorf("load glyph %q: %w", r, err)
		}
		out.appendGlyph(segs, fix(pen), baseline)
		adv, err := f.GlyphAdvance(&b, gi, scale, font.HintingNone)
		if err != nil {
			return nil, fmt.Errorf("glyph advance %q: %w", r, err)
		}
		pen += adv
		prev, hasPrev = gi, true
	}
	out.advance = max(out.advance, fix(pen))
	out.height = baseline + fix(m.Descent)
	l.Debug("outline built", slog.Int("segments", len(out.ops)), slog.Float64("advance", float64(out.advance)))
	return out, nil
}

func (o *Outline) appendGlyph(segs sfnt.Segments, dx, dy float32) {
	pt := func(p fixed.Point26_6) vector.Pt { return vector.Pt{X: fix(p.X) + dx, Y: fix(p.Y) + dy} }
	open := false
	for _, sg := range segs {
		switch sg.Op {
		case sfnt.SegmentOpMoveTo:
			if open {
				o.add(vector.Close)
			}
			o.add(vector.Move, pt(sg.Args[0]))
			open = true
		case sfnt.SegmentOpLineTo:
			o.add(vector.Line, pt(sg.Args[0]))
		case sfnt.SegmentOpQuadTo:
			o.add(vector.Quadratic, pt(sg.Args[0]), pt(sg.Args[1]))
		case sfnt.SegmentOpCubeTo:
			o.add(vector.Cubic, pt(sg.Args[0]), pt(sg.Args[1]), pt(sg.Args[2]))
		}
	}
	if open {
		o.add(vector.Close)
	}
}

func fix(v fixed.Int26_6) float32 { return float32(v) / 64 }
