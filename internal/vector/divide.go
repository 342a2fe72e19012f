/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// fillRuled is implemented by geometries that carry a fill rule.
type fillRuled interface{ FillRule() FillRule }

// Divide drains it and appends one path per contour to dst. Every Move
// starts a new path. Conic segments are skipped, so iterate AsQuadratics to
// keep all geometry. The new paths take the fill rule of the iterated
// geometry when it has one.
func Divide(it *Iterator, dst []*Path) ([]*Path, error) {
	rule := NonZero
	if fr, ok := it.geom.(fillRuled); ok {
		rule = fr.FillRule()
	}
	var buf [BufferSize]float32
	var cur *Path
	for {
		t, err := it.next(&buf)
		if err != nil {
			return dst, err
		}
		if t == Done {
			break
		}
		if t == Move {
			if cur != nil {
				dst = append(dst, cur)
			}
			cur = NewPath(rule)
			cur.MoveTo(buf[0], buf[1])
			continue
		}
		if t == Conic {
			continue
		}
		if cur == nil {
			cur = NewPath(rule)
		}
		switch t {
		case Line:
			cur.LineTo(buf[2], buf[3])
		case Quadratic:
			cur.QuadTo(buf[2], buf[3], buf[4], buf[5])
		case Cubic:
			cur.CubicTo(buf[2], buf[3], buf[4], buf[5], buf[6], buf[7])
		case Close:
			cur.Close()
		}
	}
	if cur != nil {
		dst = append(dst, cur)
	}
	return dst, nil
}

// Divide splits the path into one path per contour. Conics are converted
// to quadratics with the default tolerance.
func (p *Path) Divide() ([]*Path, error) {
	it, err := NewIterator(p, WithConicEvaluation(AsQuadratics))
	if err != nil {
		return nil, err
	}
	defer it.Close()
	return Divide(it, nil)
}
