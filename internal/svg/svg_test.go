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
	"math"
	"testing"

	"pathway/internal/vector"
)

const (
	circle16 = "M52.0 36.0Q51.999992 42.62741 47.3137 47.3137 42.62741 51.999992 36.0 52.0 29.372581 51.999992 24.68629 47.3137 19.999998 42.62741 20.0 36.0 19.999998 29.372581 24.68629 24.68629 29.372581 20.0 36.0 20.0 42.62741 20.0 47.3137 24.68629 51.999992 29.372581 52.0 36.0Z"
	circle18 = "M54.0 36.0Q53.999992 39.580418 52.62982 42.888294 51.25965 46.19617 48.727917 48.727917 46.19617 51.25965 42.888294 52.62982 39.580418 53.999992 36.0 54.0 32.419575 53.999992 29.111696 52.62982 25.803814 51.25965 23.272076 48.727917 20.740335 46.19617 19.370167 42.888294 17.999998 39.580418 18.0 36.0 17.999998 32.419575 19.370167 29.111696 20.740335 25.803814 23.272076 23.272076 25.803814 20.740335 29.111694 19.370167 32.419575 18.0 36.0 18.0 39.580418 18.0 42.888294 19.370167 46.19617 20.740335 48.727917 23.272076 51.25965 25.803814 52.62982 29.111694 53.999992 32.419575 54.0 36.0Z"
	circle8  = "M44.0 36.0Q44.0 39.31371 41.656853 41.656853 39.31371 44.0 36.0 44.0 32.686287 44.0 30.343143 41.656853 27.999998 39.31371 28.0 36.0 27.999998 32.686287 30.343143 30.343143 32.686287 28.0 36.0 28.0 39.31371 28.0 41.656853 30.343143 44.0 32.686287 44.0 36.0Z"
)

func donut(rule vector.FillRule) *vector.Path {
	p := vector.NewPath(rule)
	p.AddCircle(36, 36, 18, vector.CW)
	p.AddCircle(36, 36, 8, vector.CW)
	return p
}

func TestDocument_Empty(t *testing.T) {
	p := vector.NewPath(vector.NonZero)
	doc, err := Document(p)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	want := "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0.0 0.0 0.0 0.0\">\n</svg>\n"
	if doc != want {
		t.Fatalf("unexpected document:\n%q\nwant\n%q", doc, want)
	}
	data, err := PathData(p)
	if err != nil || data != "" {
		t.Fatalf("expected empty data, got %q %v", data, err)
	}
}

func TestDocument_SingleMove(t *testing.T) {
	var p vector.Path
	p.MoveTo(10, 10)
	doc, err := Document(&p)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	want := "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"10.0 10.0 0.0 0.0\">\n" +
		"  <path d=\"M10.0 10.0\"/>\n" +
		"</svg>\n"
	if doc != want {
		t.Fatalf("unexpected document:\n%s\nwant\n%s", doc, want)
	}
}

func TestPathData_TwoRects(t *testing.T) {
	var p vector.Path
	p.AddRect(0, 0, 10, 10, vector.CW)
	p.AddRect(20, 20, 50, 50, vector.CW)
	data, err := PathData(&p)
	if err != nil {
		t.Fatalf("PathData: %v", err)
	}
	want := "M0.0 0.0L10.0 0.0 10.0 10.0 0.0 10.0ZM20.0 20.0L50.0 20.0 50.0 50.0 20.0 50.0Z"
	if data != want {
		t.Fatalf("unexpected data:\n%s\nwant\n%s", data, want)
	}
	doc, _ := Document(&p)
	if !bytes.Contains([]byte(doc), []byte(`viewBox="0.0 0.0 50.0 50.0"`)) {
		t.Fatalf("unexpected view box in %s", doc)
	}
}

func TestDocument_Circle(t *testing.T) {
	var p vector.Path
	p.AddCircle(36, 36, 16, vector.CW)
	doc, err := Document(&p)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	want := "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"20.0 20.0 32.0 32.0\">\n" +
		"  <path d=\"" + circle16 + "\"/>\n" +
		"</svg>\n"
	if doc != want {
		t.Fatalf("unexpected document:\n%s\nwant\n%s", doc, want)
	}
}

func TestDocument_Donut(t *testing.T) {
	for _, tc := range []struct {
		rule vector.FillRule
		attr string
	}{
		{vector.NonZero, ""},
		{vector.EvenOdd, `fill-rule="evenodd" `},
	} {
		doc, err := Document(donut(tc.rule))
		if err != nil {
			t.Fatalf("Document: %v", err)
		}
		want := "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"18.0 18.0 36.0 36.0\">\n" +
			"  <path " + tc.attr + "d=\"" + circle18 + circle8 + "\"/>\n" +
			"</svg>\n"
		if doc != want {
			t.Fatalf("%s: unexpected document:\n%s\nwant\n%s", tc.rule, doc, want)
		}
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, donut(vector.NonZero), false); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if buf.String() != circle18+circle8 {
		t.Fatalf("unexpected output %s", buf.String())
	}
}

func TestPathData_CubicAndElision(t *testing.T) {
	var p vector.Path
	p.MoveTo(0, 0)
	p.CubicTo(1, 2, 3, 4, 5, 6)
	p.CubicTo(7, 8, 9, 10, 11, 12)
	p.LineTo(-1.5, 0.25)
	data, err := PathData(&p)
	if err != nil {
		t.Fatalf("PathData: %v", err)
	}
	want := "M0.0 0.0C1.0 2.0 3.0 4.0 5.0 6.0 7.0 8.0 9.0 10.0 11.0 12.0L-1.5 0.25"
	if data != want {
		t.Fatalf("unexpected data:\n%s\nwant\n%s", data, want)
	}
}

// A Move after a Move is elided like any repeated letter, so the output
// reads back as a Move followed by a Line.
func TestPathData_ConsecutiveMovesReadBackAsLine(t *testing.T) {
	var p vector.Path
	p.MoveTo(0, 0)
	p.MoveTo(5, 5)
	data, err := PathData(&p)
	if err != nil {
		t.Fatalf("PathData: %v", err)
	}
	if want := "M0.0 0.0 5.0 5.0"; data != want {
		t.Fatalf("unexpected data:\n%s\nwant\n%s", data, want)
	}
	back, err := ParsePathData(data)
	if err != nil {
		t.Fatalf("ParsePathData: %v", err)
	}
	got := segments(t, back, vector.AsConic)
	if len(got) != 2 || got[0].Type != vector.Move || got[1].Type != vector.Line ||
		!got[1].Points[1].Equal(vector.Pt{X: 5, Y: 5}) {
		t.Fatalf("expected move then line to (5,5), got %v", got)
	}
}

func TestPathData_NonFinite(t *testing.T) {
	var p vector.Path
	p.MoveTo(float32(math.Inf(1)), 0)
	if _, err := PathData(&p); !errors.Is(err, vector.ErrMalformedGeometry) {
		t.Fatalf("expected ErrMalformedGeometry, got %v", err)
	}
}

func TestFormatFloat(t *testing.T) {
	cases := []struct {
		in   float32
		want string
	}{
		{10, "10.0"},
		{0, "0.0"},
		{-1.5, "-1.5"},
		{51.999992, "51.999992"},
		{0.70710677, "0.70710677"},
		{1e20, "100000000000000000000.0"},
		{1e-7, "0.0000001"},
	}
	for _, c := range cases {
		got, err := FormatFloat(c.in)
		if err != nil || got != c.want {
			t.Fatalf("FormatFloat(%v) = %q, %v; want %q", c.in, got, err, c.want)
		}
	}
}
