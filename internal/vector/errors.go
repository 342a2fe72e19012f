/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

import "errors"

var (
	// ErrInvalidArgument reports a caller error such as a short buffer.
	ErrInvalidArgument = errors.New("vector: invalid argument")
	// ErrClosed reports use of an iterator after Close.
	ErrClosed = errors.New("vector: iterator closed")
	// ErrMalformedGeometry reports data a geometry source cannot describe,
	// for example a conic with a non-positive weight.
	ErrMalformedGeometry = errors.New("vector: malformed geometry")
)
