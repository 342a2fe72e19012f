/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package vector

// Geometry is anything that can hand out raw segment cursors. Each Open
// call returns an independent cursor positioned at the first segment.
type Geometry interface {
	Open() (GeometrySource, error)
}

// GeometrySource is a raw cursor over stored verbs. Conics come out
// unconverted. Next fills the points of the segment it returns using the
// buffer layout of Iterator.NextInto and returns Done when exhausted.
// Close releases the cursor; it is called exactly once by the iterator.
type GeometrySource interface {
	HasNext() bool
	Peek() SegmentType
	Next(buf *[BufferSize]float32) (SegmentType, error)
	Close() error
}
