/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import (
	"fmt"
	"iter"
	"strings"
)

// ConicEvaluation selects how an Iterator reports conic segments.
type ConicEvaluation uint8

const (
	// AsConic reports conics unchanged, weight included.
	AsConic ConicEvaluation = iota
	// AsQuadratics replaces each conic by a run of quadratics.
	AsQuadratics
)

func (c ConicEvaluation) String() string {
	switch c {
	case AsConic:
		return "conic"
	case AsQuadratics:
		return "quadratics"
	}
	return fmt.Sprintf("ConicEvaluation(%d)", uint8(c))
}

// ParseConicEvaluation accepts "conic" or "quadratics"; empty means AsConic.
func ParseConicEvaluation(s string) (ConicEvaluation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "conic", "asconic":
		return AsConic, nil
	case "quadratics", "quadratic", "asquadratics":
		return AsQuadratics, nil
	}
	return AsConic, fmt.Errorf("%w: unknown conic evaluation %q", ErrInvalidArgument, s)
}

type iterOptions struct {
	mode ConicEvaluation
	tol  float32
}

// Option configures NewIterator.
type Option func(*iterOptions)

func WithConicEvaluation(mode ConicEvaluation) Option {
	return func(o *iterOptions) { o.mode = mode }
}

// WithTolerance sets the conic conversion tolerance used by AsQuadratics.
func WithTolerance(tol float32) Option {
	return func(o *iterOptions) { o.tol = tol }
}

// Iterator walks the segments of a Geometry. It is not safe for concurrent
// use; open one iterator per goroutine.
type Iterator struct {
	geom   Geometry
	src    GeometrySource
	mode   ConicEvaluation
	tol    float32
	closed bool
	err    error

	// pending quadratics of the conic being replaced
	quads [MaxQuadraticPoints]Pt
	quadN int
	quadI int
}

// NewIterator opens g and positions the iterator before its first segment.
// The caller must Close the iterator.
func NewIterator(g Geometry, opts ...Option) (*Iterator, error) {
	o := iterOptions{mode: AsConic, tol: DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	if g == nil {
		return nil, fmt.Errorf("%w: nil geometry", ErrInvalidArgument)
	}
	if o.mode != AsConic && o.mode != AsQuadratics {
		return nil, fmt.Errorf("%w: conic evaluation %d", ErrInvalidArgument, o.mode)
	}
	if !(o.tol > 0) || !finite32(o.tol) {
		return nil, fmt.Errorf("%w: tolerance %v", ErrInvalidArgument, o.tol)
	}
	src, err := g.Open()
	if err != nil {
		return nil, fmt.Errorf("open geometry: %w", err)
	}
	return &Iterator{geom: g, src: src, mode: o.mode, tol: o.tol}, nil
}

func (it *Iterator) ConicEvaluation() ConicEvaluation { return it.mode }
func (it *Iterator) Tolerance() float32               { return it.tol }

// HasNext reports whether another segment remains, pending quadratics of a
// split conic included.
func (it *Iterator) HasNext() bool {
	if it.closed {
		return false
	}
	return it.quadI < it.quadN || it.src.HasNext()
}

// Peek returns the type Next would return without advancing.
func (it *Iterator) Peek() SegmentType {
	if it.closed {
		return Done
	}
	if it.quadI < it.quadN {
		return Quadratic
	}
	t := it.src.Peek()
	if t == Conic && it.mode == AsQuadratics {
		return Quadratic
	}
	return t
}

// Next returns the next segment with its own copy of the points.
func (it *Iterator) Next() (Segment, error) {
	var buf [BufferSize]float32
	t, err := it.next(&buf)
	if err != nil {
		return DoneSegment, err
	}
	return segmentFromBuffer(t, &buf), nil
}

// NextInto writes the next segment's points into buf and returns its type.
// Point i goes to buf[2i], buf[2i+1]; a conic's weight goes to buf[6] and
// buf[7]. Slots a segment does not use are left as they were. buf must hold
// at least BufferSize floats, otherwise nothing is written or consumed.
func (it *Iterator) NextInto(buf []float32) (SegmentType, error) {
	if len(buf) < BufferSize {
		return Done, fmt.Errorf("%w: buffer holds %d floats, need %d", ErrInvalidArgument, len(buf), BufferSize)
	}
	return it.next((*[BufferSize]float32)(buf[:BufferSize]))
}

func (it *Iterator) next(buf *[BufferSize]float32) (SegmentType, error) {
	if it.closed {
		return Done, ErrClosed
	}
	if it.quadI < it.quadN {
		return it.nextQuad(buf), nil
	}
	if !it.src.HasNext() {
		return Done, nil
	}
	t, err := it.src.Next(buf)
	if err != nil {
		return Done, fmt.Errorf("read segment: %w", err)
	}
	if t != Conic {
		return t, nil
	}
	if err := checkConic(buf[6]); err != nil {
		return Done, err
	}
	if it.mode == AsConic {
		return Conic, nil
	}
	c := conic{p: [3]Pt{{buf[0], buf[1]}, {buf[2], buf[3]}, {buf[4], buf[5]}}, w: buf[6]}
	_, it.quadN = c.chopIntoQuads(it.quads[:0], c.quadPow2(it.tol))
	it.quadI = 0
	return it.nextQuad(buf), nil
}

func (it *Iterator) nextQuad(buf *[BufferSize]float32) SegmentType {
	i := 2 * it.quadI
	setPt(buf, 0, it.quads[i])
	setPt(buf, 1, it.quads[i+1])
	setPt(buf, 2, it.quads[i+2])
	it.quadI++
	if it.quadI == it.quadN {
		it.quadN, it.quadI = 0, 0
	}
	return Quadratic
}

// Size is the number of segments a full enumeration under this iterator's
// conic evaluation yields. It walks a separate cursor and does not move
// this iterator.
func (it *Iterator) Size() (int, error) {
	return it.count(it.mode)
}

// RawSize is the number of stored verbs; each conic counts once.
func (it *Iterator) RawSize() (int, error) {
	return it.count(AsConic)
}

func (it *Iterator) count(mode ConicEvaluation) (n int, err error) {
	if it.closed {
		return 0, ErrClosed
	}
	src, err := it.geom.Open()
	if err != nil {
		return 0, fmt.Errorf("open geometry: %w", err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close geometry: %w", cerr)
		}
	}()
	var buf [BufferSize]float32
	for src.HasNext() {
		t, err := src.Next(&buf)
		if err != nil {
			return 0, fmt.Errorf("read segment: %w", err)
		}
		if t == Done {
			break
		}
		if t == Conic {
			if err := checkConic(buf[6]); err != nil {
				return 0, err
			}
		}
		if t == Conic && mode == AsQuadratics {
			c := conic{p: [3]Pt{{buf[0], buf[1]}, {buf[2], buf[3]}, {buf[4], buf[5]}}, w: buf[6]}
			n += c.quadCount(it.tol)
			continue
		}
		n++
	}
	return n, nil
}

// Close releases the geometry source. Later calls are no-ops.
func (it *Iterator) Close() error {
	if it.closed {
		return nil
	}
	it.closed = true
	it.quadN, it.quadI = 0, 0
	if err := it.src.Close(); err != nil {
		return fmt.Errorf("close geometry: %w", err)
	}
	return nil
}

// All yields the remaining segments, Done excluded. Iteration stops at the
// first error, which Err reports afterwards.
func (it *Iterator) All() iter.Seq[Segment] {
	return func(yield func(Segment) bool) {
		for it.HasNext() {
			s, err := it.Next()
			if err != nil {
				it.err = err
				return
			}
			if s.Type == Done || !yield(s) {
				return
			}
		}
	}
}

// Err returns the error that ended the last All loop.
func (it *Iterator) Err() error { return it.err }
