/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package svg

import (
	"bytes"
	"fmt"
	"io"

	"pathway/internal/vector"
)

// Shape is a geometry that can be written as an SVG path.
type Shape interface {
	vector.Geometry
	Bounds() vector.Rect
	FillRule() vector.FillRule
}

type options struct {
	tol float32
}

// Option configures serialization.
type Option func(*options)

// WithTolerance sets the tolerance used to turn conics into quadratics.
func WithTolerance(tol float32) Option { return func(o *options) { o.tol = tol } }

func buildOptions(opts []Option) options {
	o := options{tol: vector.DefaultTolerance}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// PathData returns the value of the d attribute for s. An empty shape
// yields "".
func PathData(s Shape, opts ...Option) (string, error) {
	var buf bytes.Buffer
	if _, err := writePathData(&buf, s, buildOptions(opts)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Document returns a minimal SVG document whose viewBox is the bounds of s.
func Document(s Shape, opts ...Option) (string, error) {
	var buf bytes.Buffer
	if err := writeDocument(&buf, s, buildOptions(opts)); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Write writes either the document or the bare path data of s to w.
func Write(w io.Writer, s Shape, document bool, opts ...Option) error {
	var buf bytes.Buffer
	o := buildOptions(opts)
	var err error
	if document {
		err = writeDocument(&buf, s, o)
	} else {
		_, err = writePathData(&buf, s, o)
	}
	if err != nil {
		return err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func writeDocument(buf *bytes.Buffer, s Shape, o options) error {
	var data bytes.Buffer
	n, err := writePathData(&data, s, o)
	if err != nil {
		return err
	}
	b := s.Bounds()
	num := make([]byte, 0, 64)
	for i, v := range [4]float32{b.X, b.Y, b.W, b.H} {
		if i > 0 {
			num = append(num, ' ')
		}
		if num, err = AppendFloat(num, v); err != nil {
			return fmt.Errorf("view box: %w", err)
		}
	}

	var werr error
	wf := func(format string, args ...any) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintf(buf, format, args...)
	}
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"%s\">\n", num)
	if n > 0 {
		wf("  <path ")
		if s.FillRule() == vector.EvenOdd {
			wf("fill-rule=\"evenodd\" ")
		}
		wf("d=\"%s\"/>\n", data.Bytes())
	}
	wf("</svg>\n")
	if werr != nil {
		return fmt.Errorf("build svg: %w", werr)
	}
	return nil
}

func command(t vector.SegmentType) (letter byte, first, last int, ok bool) {
	switch t {
	case vector.Move:
		return 'M', 0, 0, true
	case vector.Line:
		return 'L', 1, 1, true
	case vector.Quadratic:
		return 'Q', 1, 2, true
	case vector.Cubic:
		return 'C', 1, 3, true
	case vector.Close:
		return 'Z', 0, -1, true
	}
	return 0, 0, 0, false
}

// writePathData emits every segment of s and returns how many it wrote.
// A repeated command letter is replaced by a single space.
func writePathData(buf *bytes.Buffer, s Shape, o options) (n int, err error) {
	it, err := vector.NewIterator(s, vector.WithConicEvaluation(vector.AsQuadratics), vector.WithTolerance(o.tol))
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := it.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var pts [vector.BufferSize]float32
	out := buf.AvailableBuffer()
	var prev byte
	for {
		t, err := it.NextInto(pts[:])
		if err != nil {
			return n, err
		}
		if t == vector.Done {
			break
		}
		letter, first, last, ok := command(t)
		if !ok {
			return n, fmt.Errorf("%w: %s has no path data command", vector.ErrMalformedGeometry, t)
		}
		if letter == prev {
			out = append(out, ' ')
		} else {
			out = append(out, letter)
		}
		prev = letter
		for i := first; i <= last; i++ {
			if i > first {
				out = append(out, ' ')
			}
			if out, err = AppendFloat(out, pts[2*i]); err != nil {
				return n, err
			}
			out = append(out, ' ')
			if out, err = AppendFloat(out, pts[2*i+1]); err != nil {
				return n, err
			}
		}
		n++
	}
	buf.Write(out)
	return n, nil
}
