/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package glyph

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
)

// Library stores parsed OpenType fonts keyed by family, weight and italic.
type Library struct {
	mu    sync.RWMutex
	fonts map[fontKey]*sfnt.Font
}

type fontKey struct {
	family string
	weight int
	italic bool
}

func NewLibrary() *Library { return &Library{fonts: make(map[fontKey]*sfnt.Font)} }

// Load parses font data and registers it under family/weight/italic.
func (l *Library) Load(family string, weight int, italic bool, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return fmt.Errorf("parse font %s: %w", family, err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fonts == nil {
		l.fonts = make(map[fontKey]*sfnt.Font)
	}
	l.fonts[fontKey{family: family, weight: weight, italic: italic}] = f
	return nil
}

// LoadFile reads a TTF/OTF file and registers it like Load.
func (l *Library) LoadFile(family string, weight int, italic bool, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read font %s: %w", path, err)
	}
	return l.Load(family, weight, italic, data)
}

// Find returns the exact match, or any font of the same family.
func (l *Library) Find(family string, weight int, italic bool) (*sfnt.Font, bool) {
	if l == nil {
		return nil, false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	if f, ok := l.fonts[fontKey{family: family, weight: weight, italic: italic}]; ok {
		return f, true
	}
	for k, f := range l.fonts {
		if k.family == family {
			return f, true
		}
	}
	return nil, false
}

var defaultFont = sync.OnceValues(func() (*sfnt.Font, error) {
	return opentype.Parse(goregular.TTF)
})

// Default returns the bundled Go Regular face.
func Default() (*sfnt.Font, error) { return defaultFont() }
