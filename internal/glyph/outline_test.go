/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package glyph

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"pathway/internal/svg"
	"pathway/internal/vector"
)

func mustDefault(t *testing.T) *Outline {
	t.Helper()
	f, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	o, err := Text(f, "O", 32)
	if err != nil {
		t.Fatalf("Text: %v", err)
	}
	return o
}

func TestTextContoursAreClosed(t *testing.T) {
	o := mustDefault(t)
	it, err := vector.NewIterator(o)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()
	moves, closes := 0, 0
	var last vector.SegmentType
	first := true
	for s := range it.All() {
		if first && s.Type != vector.Move {
			t.Fatalf("first segment = %v, want Move", s.Type)
		}
		first = false
		switch s.Type {
		case vector.Move:
			moves++
		case vector.Close:
			closes++
		case vector.Conic:
			t.Fatalf("glyph outline produced a conic")
		}
		last = s.Type
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	if moves != 2 || closes != 2 {
		t.Fatalf("O has %d moves, %d closes; want 2 and 2", moves, closes)
	}
	if last != vector.Close {
		t.Fatalf("last segment = %v, want Close", last)
	}
}

func TestTextSegmentsAreContinuous(t *testing.T) {
	o := mustDefault(t)
	it, err := vector.NewIterator(o)
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()
	var end vector.Pt
	for s := range it.All() {
		switch s.Type {
		case vector.Move:
			end = s.Points[0]
		case vector.Line, vector.Quadratic, vector.Cubic:
			if !s.Points[0].Equal(end) {
				t.Fatalf("%v starts at %v, previous end %v", s.Type, s.Points[0], end)
			}
			end, _ = s.End()
		}
	}
}

func TestTextBoundsAndAdvance(t *testing.T) {
	o := mustDefault(t)
	b := o.Bounds()
	if b.Empty() {
		t.Fatalf("empty bounds for O")
	}
	if b.Left() < 0 || b.Right() > o.Advance() {
		t.Fatalf("bounds %+v outside advance %v", b, o.Advance())
	}
	if b.Top() < 0 || b.Bottom() > o.Height() {
		t.Fatalf("bounds %+v outside height %v", b, o.Height())
	}
	if o.FillRule() != vector.NonZero {
		t.Fatalf("fill rule = %v", o.FillRule())
	}
}

func TestTextSplitsIntoContours(t *testing.T) {
	o := mustDefault(t)
	it, err := vector.NewIterator(o, vector.WithConicEvaluation(vector.AsQuadratics))
	if err != nil {
		t.Fatalf("NewIterator: %v", err)
	}
	defer it.Close()
	parts, err := vector.Divide(it, nil)
	if err != nil {
		t.Fatalf("Divide: %v", err)
	}
	if len(parts) != 2 {
		t.Fatalf("Divide gave %d paths, want 2", len(parts))
	}
}

func TestTextSerializesToSVG(t *testing.T) {
	o := mustDefault(t)
	d, err := svg.PathData(o)
	if err != nil {
		t.Fatalf("PathData: %v", err)
	}
	if !strings.HasPrefix(d, "M") || strings.Count(d, "Z") != 2 {
		t.Fatalf("unexpected path data %q", d)
	}
}

func TestTextNewlineAddsLine(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	one, err := Text(f, "ab", 20)
	if err != nil {
		t.Fatal(err)
	}
	two, err := Text(f, "ab\nab", 20)
	if err != nil {
		t.Fatal(err)
	}
	if two.Advance() != one.Advance() {
		t.Fatalf("advance %v, want %v", two.Advance(), one.Advance())
	}
	if !(two.Height() > one.Height()) || !(two.Bounds().Bottom() > one.Bounds().Bottom()) {
		t.Fatalf("second line did not move down: %v vs %v", two.Bounds(), one.Bounds())
	}
	if two.Len() != 2*one.Len() {
		t.Fatalf("segments %d, want %d", two.Len(), 2*one.Len())
	}
}

func TestTextEmptyAndSpaces(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	o, err := Text(f, " ", 16)
	if err != nil {
		t.Fatal(err)
	}
	if o.Len() != 0 || o.Advance() <= 0 {
		t.Fatalf("space: len %d advance %v", o.Len(), o.Advance())
	}
	it, err := vector.NewIterator(o)
	if err != nil {
		t.Fatal(err)
	}
	defer it.Close()
	if it.HasNext() {
		t.Fatalf("empty outline has segments")
	}
}

func TestTextRejectsBadInput(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Text(f, "x", 0); !errors.Is(err, vector.ErrInvalidArgument) {
		t.Fatalf("ppem 0: err = %v", err)
	}
	if _, err := Text(nil, "x", 12); err == nil {
		t.Fatalf("nil font accepted")
	}
}

func TestLibraryFind(t *testing.T) {
	lib := NewLibrary()
	if err := lib.Load("Go", 400, false, goregular.TTF); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := lib.Find("Go", 400, false); !ok {
		t.Fatalf("exact match missing")
	}
	if _, ok := lib.Find("Go", 700, true); !ok {
		t.Fatalf("family fallback missing")
	}
	if _, ok := lib.Find("Other", 400, false); ok {
		t.Fatalf("unexpected match for unknown family")
	}
	if err := lib.Load("Bad", 400, false, []byte("not a font")); err == nil {
		t.Fatalf("garbage accepted as font")
	}
}

func TestLibraryLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "go.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0o644); err != nil {
		t.Fatal(err)
	}
	lib := NewLibrary()
	if err := lib.LoadFile("Go", 400, false, path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if err := lib.LoadFile("Go", 400, false, filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Fatalf("missing file accepted")
	}
}

func TestLoadSingleRune(t *testing.T) {
	f, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	a, err := Load(f, 'O', 32)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if a.Len() != mustDefault(t).Len() {
		t.Fatalf("Load and Text disagree: %d vs %d", a.Len(), mustDefault(t).Len())
	}
}
