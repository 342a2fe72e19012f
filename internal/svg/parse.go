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
	"errors"
	"fmt"
	"math"
	"strconv"

	"pathway/internal/vector"
)

// ErrSyntax reports malformed path data.
var ErrSyntax = errors.New("svg: bad path data")

var argCounts = map[byte]int{
	'M': 2,
	'Z': 0,
	'L': 2,
	'H': 1,
	'V': 1,
	'C': 6,
	'S': 4,
	'Q': 4,
	'T': 2,
	'A': 7,
}

type point struct{ x, y float64 }

func (p point) add(o point) point { return point{p.x + o.x, p.y + o.y} }

// reflect mirrors c through p.
func (p point) reflect(c point) point { return point{2*p.x - c.x, 2*p.y - c.y} }

// ParsePathData parses the d attribute of an SVG path element. Absolute and
// relative forms of M L H V C S Q T A Z are accepted, commands may repeat
// implicitly, and elliptical arcs are stored as conics of at most 90
// degrees. The returned path uses the non-zero fill rule.
func ParsePathData(d string) (*vector.Path, error) {
	p := vector.NewPath(vector.NonZero)
	s := []byte(d)
	i := skipCommaWhitespace(s, 0)
	if i == len(s) {
		return p, nil
	}
	if bytes.IndexByte(s[:i], ',') >= 0 || !isCommand(s[i]) {
		return nil, fmt.Errorf("%w: must start with a command at position %d", ErrSyntax, i+1)
	}

	var args [7]float64
	var cur, start, ctrl point
	prev := byte('z')
	for {
		i = skipCommaWhitespace(s, i)
		if i >= len(s) {
			break
		}
		cmd := prev
		if cmd == 'z' || cmd == 'Z' || isCommand(s[i]) {
			cmd = s[i]
			i = skipCommaWhitespace(s, i+1)
		}
		upper := cmd
		if 'a' <= cmd && cmd <= 'z' {
			upper -= 'a' - 'A'
		}
		count, ok := argCounts[upper]
		if !ok {
			return nil, fmt.Errorf("%w: unknown command %q at position %d", ErrSyntax, cmd, i)
		}
		for j := 0; j < count; j++ {
			if upper == 'A' && (j == 3 || j == 4) {
				if i >= len(s) || (s[i] != '0' && s[i] != '1') {
					return nil, fmt.Errorf("%w: arc flags must be 0 or 1 at position %d", ErrSyntax, i+1)
				}
				args[j] = float64(s[i] - '0')
				i++
			} else {
				v, n, err := scanNumber(s[i:])
				if err != nil || n == 0 {
					return nil, fmt.Errorf("%w: command %q expects %d numbers at position %d", ErrSyntax, cmd, count, i+1)
				}
				args[j] = v
				i += n
			}
			i = skipCommaWhitespace(s, i)
		}

		rel := cmd != upper
		abs := func(x, y float64) point {
			if rel {
				return point{x, y}.add(cur)
			}
			return point{x, y}
		}
		next := cur
		switch upper {
		case 'M':
			next = abs(args[0], args[1])
			p.MoveTo(float32(next.x), float32(next.y))
			start = next
			// further pairs are implicit line commands
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'Z':
			p.Close()
			next = start
		case 'L':
			next = abs(args[0], args[1])
			p.LineTo(float32(next.x), float32(next.y))
		case 'H':
			next.x = args[0]
			if rel {
				next.x += cur.x
			}
			p.LineTo(float32(next.x), float32(next.y))
		case 'V':
			next.y = args[0]
			if rel {
				next.y += cur.y
			}
			p.LineTo(float32(next.x), float32(next.y))
		case 'C':
			c1 := abs(args[0], args[1])
			c2 := abs(args[2], args[3])
			next = abs(args[4], args[5])
			p.CubicTo(float32(c1.x), float32(c1.y), float32(c2.x), float32(c2.y), float32(next.x), float32(next.y))
			ctrl = c2
		case 'S':
			c1 := cur
			if prev == 'C' || prev == 'c' || prev == 'S' || prev == 's' {
				c1 = cur.reflect(ctrl)
			}
			c2 := abs(args[0], args[1])
			next = abs(args[2], args[3])
			p.CubicTo(float32(c1.x), float32(c1.y), float32(c2.x), float32(c2.y), float32(next.x), float32(next.y))
			ctrl = c2
		case 'Q':
			c := abs(args[0], args[1])
			next = abs(args[2], args[3])
			p.QuadTo(float32(c.x), float32(c.y), float32(next.x), float32(next.y))
			ctrl = c
		case 'T':
			c := cur
			if prev == 'Q' || prev == 'q' || prev == 'T' || prev == 't' {
				c = cur.reflect(ctrl)
			}
			next = abs(args[0], args[1])
			p.QuadTo(float32(c.x), float32(c.y), float32(next.x), float32(next.y))
			ctrl = c
		case 'A':
			next = abs(args[5], args[6])
			arcTo(p, cur, args[0], args[1], args[2], args[3] == 1, args[4] == 1, next)
		}
		cur = next
		prev = cmd
	}
	return p, nil
}

func isCommand(c byte) bool {
	_, ok := argCounts[c&^0x20]
	return ok && (c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z')
}

func skipCommaWhitespace(s []byte, i int) int {
	comma := false
	for i < len(s) {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\f':
		case ',':
			if comma {
				return i
			}
			comma = true
		default:
			return i
		}
		i++
	}
	return i
}

// scanNumber reads one number in path data syntax. "1.5.5" is two numbers
// and "1-2" too, so the scan stops at the second dot or a sign after a digit.
func scanNumber(s []byte) (float64, int, error) {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return 0, 0, nil
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && s[k] >= '0' && s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	v, err := strconv.ParseFloat(string(s[:i]), 32)
	if err != nil {
		return 0, 0, err
	}
	return v, i, nil
}

// arcTo appends an SVG elliptical arc from cur to end as conics spanning at
// most 90 degrees each.
func arcTo(p *vector.Path, cur point, rx, ry, rotDeg float64, large, sweep bool, end point) {
	if cur == end {
		return
	}
	rx, ry = math.Abs(rx), math.Abs(ry)
	if rx == 0 || ry == 0 {
		p.LineTo(float32(end.x), float32(end.y))
		return
	}
	sinPhi, cosPhi := math.Sincos(rotDeg * math.Pi / 180)
	dx, dy := (cur.x-end.x)/2, (cur.y-end.y)/2
	x1 := cosPhi*dx + sinPhi*dy
	y1 := -sinPhi*dx + cosPhi*dy

	// radii too small to reach the end point are scaled up
	if l := x1*x1/(rx*rx) + y1*y1/(ry*ry); l > 1 {
		s := math.Sqrt(l)
		rx *= s
		ry *= s
	}
	num := rx*rx*ry*ry - rx*rx*y1*y1 - ry*ry*x1*x1
	den := rx*rx*y1*y1 + ry*ry*x1*x1
	coef := 0.0
	if den != 0 && num > 0 {
		coef = math.Sqrt(num / den)
	}
	if large == sweep {
		coef = -coef
	}
	cxp := coef * rx * y1 / ry
	cyp := -coef * ry * x1 / rx
	cx := cosPhi*cxp - sinPhi*cyp + (cur.x+end.x)/2
	cy := sinPhi*cxp + cosPhi*cyp + (cur.y+end.y)/2

	ux, uy := (x1-cxp)/rx, (y1-cyp)/ry
	vx, vy := (-x1-cxp)/rx, (-y1-cyp)/ry
	theta := math.Atan2(uy, ux)
	delta := math.Atan2(ux*vy-uy*vx, ux*vx+uy*vy)
	if !sweep && delta > 0 {
		delta -= 2 * math.Pi
	} else if sweep && delta < 0 {
		delta += 2 * math.Pi
	}

	n := int(math.Ceil(math.Abs(delta)/(math.Pi/2) - 1e-9))
	n = max(n, 1)
	step := delta / float64(n)
	w := math.Cos(step / 2)
	onEllipse := func(a, scale float64) point {
		u, v := math.Cos(a)*scale, math.Sin(a)*scale
		return point{
			x: cx + rx*cosPhi*u - ry*sinPhi*v,
			y: cy + rx*sinPhi*u + ry*cosPhi*v,
		}
	}
	for k := 0; k < n; k++ {
		a := theta + float64(k)*step
		c := onEllipse(a+step/2, 1/w)
		e := end
		if k < n-1 {
			e = onEllipse(a+step, 1)
		}
		p.ConicTo(float32(c.x), float32(c.y), float32(e.x), float32(e.y), float32(w))
	}
}
