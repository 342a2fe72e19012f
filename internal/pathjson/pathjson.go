/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package pathjson reads and writes paths as schema-checked JSON documents.
package pathjson

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	applog "pathway/internal/log"
	"pathway/internal/vector"
)

//go:embed schema.json
var schemaJSON []byte

// ErrInvalidDocument is returned when a document does not match the schema.
var ErrInvalidDocument = errors.New("invalid path document")

// Document is the JSON form of a path.
type Document struct {
	FillRule string    `json:"fill_rule,omitempty"`
	Commands []Command `json:"commands"`
}

// Command is one builder call. Args depend on Op:
//
//	move, line   x y
//	quad         cx cy x y
//	conic        cx cy x y w
//	cubic        cx1 cy1 cx2 cy2 x y
//	close        -
//	rect, oval   l t r b
//	circle       cx cy r
//	round_rect   l t r b rx ry
//	transform    a b c d e f
//	translate    tx ty
//	scale        sx sy
//	rotate       deg cx cy
//
// The four transform ops map everything built by the commands before them,
// so a document draws a shape in place and then positions it.
type Command struct {
	Op   string    `json:"op"`
	Args []float32 `json:"args,omitempty"`
	Dir  string    `json:"dir,omitempty"`
}

var schema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// Schema returns the embedded JSON schema.
func Schema() []byte { return append([]byte(nil), schemaJSON...) }

// Validate checks raw JSON against the schema.
func Validate(data []byte) error {
	s, err := schema()
	if err != nil {
		return fmt.Errorf("load schema: %w", err)
	}
	res, err := s.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(msgs, "; "))
	}
	return nil
}

// Decode reads one document from r and builds the path it describes.
func Decode(r io.Reader) (*vector.Path, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	p, err := doc.Path()
	if err != nil {
		return nil, err
	}
	applog.WithOperation(applog.WithComponent("pathjson"), "decode").Debug("document decoded",
		slog.Int("commands", len(doc.Commands)), slog.Int("segments", p.Len()))
	return p, nil
}

// Path replays the commands on a new path.
func (d Document) Path() (*vector.Path, error) {
	rule, err := vector.ParseFillRule(d.FillRule)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	p := vector.NewPath(rule)
	for i, c := range d.Commands {
		if err := c.apply(p); err != nil {
			return nil, fmt.Errorf("command %d (%s): %w", i, c.Op, err)
		}
	}
	return p, nil
}

var arity = map[string]int{
	"move": 2, "line": 2, "quad": 4, "conic": 5, "cubic": 6, "close": 0,
	"rect": 4, "oval": 4, "circle": 3, "round_rect": 6,
	"transform": 6, "translate": 2, "scale": 2, "rotate": 3,
}

func (c Command) apply(p *vector.Path) error {
	n, ok := arity[c.Op]
	if !ok {
		return fmt.Errorf("%w: unknown op", ErrInvalidDocument)
	}
	if len(c.Args) != n {
		return fmt.Errorf("%w: %d args, want %d", ErrInvalidDocument, len(c.Args), n)
	}
	dir := vector.CW
	switch c.Dir {
	case "", "cw":
	case "ccw":
		dir = vector.CCW
	default:
		return fmt.Errorf("%w: direction %q", ErrInvalidDocument, c.Dir)
	}
	a := c.Args
	switch c.Op {
	case "move":
		p.MoveTo(a[0], a[1])
	case "line":
		p.LineTo(a[0], a[1])
	case "quad":
		p.QuadTo(a[0], a[1], a[2], a[3])
	case "conic":
		p.ConicTo(a[0], a[1], a[2], a[3], a[4])
	case "cubic":
		p.CubicTo(a[0], a[1], a[2], a[3], a[4], a[5])
	case "close":
		p.Close()
	case "rect":
		p.AddRect(a[0], a[1], a[2], a[3], dir)
	case "oval":
		p.AddOval(a[0], a[1], a[2], a[3], dir)
	case "circle":
		p.AddCircle(a[0], a[1], a[2], dir)
	case "round_rect":
		p.AddRoundRect(a[0], a[1], a[2], a[3], a[4], a[5], dir)
	case "transform":
		p.Transform(vector.Affine2D{A: a[0], B: a[1], C: a[2], D: a[3], E: a[4], F: a[5]})
	case "translate":
		p.Transform(vector.Translation(a[0], a[1]))
	case "scale":
		p.Transform(vector.Scaling(a[0], a[1]))
	case "rotate":
		p.Transform(vector.Rotation(a[0], vector.Pt{X: a[1], Y: a[2]}))
	}
	return nil
}

// FromGeometry records the raw segments of g as primitive commands.
// Conics keep their weight.
func FromGeometry(g vector.Geometry, rule vector.FillRule) (Document, error) {
	it, err := vector.NewIterator(g)
	if err != nil {
		return Document{}, err
	}
	defer it.Close()
	doc := Document{FillRule: rule.String(), Commands: []Command{}}
	for s := range it.All() {
		c := Command{}
		switch s.Type {
		case vector.Move:
			c.Op = "move"
		case vector.Line:
			c.Op = "line"
		case vector.Quadratic:
			c.Op = "quad"
		case vector.Conic:
			c.Op = "conic"
		case vector.Cubic:
			c.Op = "cubic"
		case vector.Close:
			doc.Commands = append(doc.Commands, Command{Op: "close"})
			continue
		}
		pts := s.Points
		if s.Type != vector.Move {
			pts = pts[1:]
		}
		for _, pt := range pts {
			if !pt.Finite() {
				return Document{}, fmt.Errorf("%w: point %v", vector.ErrMalformedGeometry, pt)
			}
			c.Args = append(c.Args, pt.X, pt.Y)
		}
		if s.Type == vector.Conic {
			c.Args = append(c.Args, s.Weight)
		}
		doc.Commands = append(doc.Commands, c)
	}
	if err := it.Err(); err != nil {
		return Document{}, err
	}
	return doc, nil
}

// Encode writes p as an indented document.
func Encode(w io.Writer, p *vector.Path) error {
	doc, err := FromGeometry(p, p.FillRule())
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}
