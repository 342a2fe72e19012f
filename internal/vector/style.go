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
	"strings"
)

// FillRule decides which regions of a self-overlapping path are inside.
type FillRule uint8

const (
	NonZero FillRule = iota
	EvenOdd
)

func (r FillRule) String() string {
	switch r {
	case NonZero:
		return "nonzero"
	case EvenOdd:
		return "evenodd"
	}
	return fmt.Sprintf("FillRule(%d)", uint8(r))
}

// ParseFillRule accepts "nonzero" / "evenodd" in any case; empty means NonZero.
func ParseFillRule(s string) (FillRule, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nonzero", "non_zero", "winding":
		return NonZero, nil
	case "evenodd", "even_odd":
		return EvenOdd, nil
	}
	return NonZero, fmt.Errorf("%w: unknown fill rule %q", ErrInvalidArgument, s)
}

// Direction is the winding used when adding closed shapes.
type Direction uint8

const (
	CW Direction = iota
	CCW
)
