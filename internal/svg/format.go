/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package svg

import (
	"fmt"
	"math"
	"strconv"

	"pathway/internal/vector"
)

// AppendFloat appends the shortest decimal text that parses back to v as a
// float32. The text always has a decimal point and never an exponent, so
// 10 becomes "10.0" and 1e20 becomes "100000000000000000000.0".
func AppendFloat(dst []byte, v float32) ([]byte, error) {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return dst, fmt.Errorf("%w: non-finite coordinate %v", vector.ErrMalformedGeometry, v)
	}
	start := len(dst)
	dst = strconv.AppendFloat(dst, float64(v), 'f', -1, 32)
	for _, c := range dst[start:] {
		if c == '.' {
			return dst, nil
		}
	}
	return append(dst, '.', '0'), nil
}

// FormatFloat is AppendFloat returning a string.
func FormatFloat(v float32) (string, error) {
	b, err := AppendFloat(make([]byte, 0, 16), v)
	return string(b), err
}
