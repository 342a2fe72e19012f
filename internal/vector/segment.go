/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "fmt"

// SegmentType identifies a path segment. The numeric values are stable and
// shared with every geometry source.
type SegmentType uint8

const (
	Move SegmentType = iota
	Line
	Quadratic
	Conic
	Cubic
	Close
	Done
)

// BufferSize is the number of floats NextInto writes: four points, or three
// points plus the conic weight twice.
const BufferSize = 8

// Arity is the number of points a segment of this type carries.
func (t SegmentType) Arity() int {
	switch t {
	case Move:
		return 1
	case Line:
		return 2
	case Quadratic, Conic:
		return 3
	case Cubic:
		return 4
	}
	return 0
}

func (t SegmentType) String() string {
	switch t {
	case Move:
		return "Move"
	case Line:
		return "Line"
	case Quadratic:
		return "Quadratic"
	case Conic:
		return "Conic"
	case Cubic:
		return "Cubic"
	case Close:
		return "Close"
	case Done:
		return "Done"
	}
	return fmt.Sprintf("SegmentType(%d)", uint8(t))
}

// Segment is one step of a path. Points holds Arity() points; for every
// type but Move the first point repeats the end of the previous segment.
// Weight is only meaningful for Conic.
type Segment struct {
	Type   SegmentType
	Points []Pt
	Weight float32
}

var (
	// DoneSegment is returned once a path is exhausted.
	DoneSegment = Segment{Type: Done}
	// CloseSegment is returned for every Close.
	CloseSegment = Segment{Type: Close}
)

// End returns the last point of the segment, or false for zero-arity types.
func (s Segment) End() (Pt, bool) {
	if len(s.Points) == 0 {
		return Pt{}, false
	}
	return s.Points[len(s.Points)-1], true
}

func (s Segment) String() string {
	if s.Type == Conic {
		return fmt.Sprintf("%s%v w=%v", s.Type, s.Points, s.Weight)
	}
	if len(s.Points) == 0 {
		return s.Type.String()
	}
	return fmt.Sprintf("%s%v", s.Type, s.Points)
}

// segmentFromBuffer copies a raw buffer into an owned Segment.
func segmentFromBuffer(t SegmentType, buf *[BufferSize]float32) Segment {
	switch t {
	case Done:
		return DoneSegment
	case Close:
		return CloseSegment
	}
	n := t.Arity()
	pts := make([]Pt, n)
	for i := range pts {
		pts[i] = Pt{X: buf[2*i], Y: buf[2*i+1]}
	}
	s := Segment{Type: t, Points: pts}
	if t == Conic {
		s.Weight = buf[6]
	}
	return s
}
