/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package curve defines the tracking-point data model shared by the store,
// session persistence and exporters. A curve is a named, frame-ordered
// sequence of points; points are immutable values.
package curve

import "fmt"

// PointStatus classifies how a tracking point came to be.
type PointStatus int

const (
	StatusNormal PointStatus = iota
	StatusInterpolated
	StatusKeyframe
	StatusTracked
	StatusEndframe
)

var statusNames = [...]string{"normal", "interpolated", "keyframe", "tracked", "endframe"}

func (s PointStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("status(%d)", int(s))
	}
	return statusNames[s]
}

// Valid reports whether s is one of the defined status values.
func (s PointStatus) Valid() bool { return s >= StatusNormal && s <= StatusEndframe }

// ParseStatus converts a status name back to its enum value. Used by the
// session I/O edge; business logic never sees the string form.
func ParseStatus(name string) (PointStatus, bool) {
	for i, n := range statusNames {
		if n == name {
			return PointStatus(i), true
		}
	}
	return StatusNormal, false
}

// Point is one sample of a tracked trajectory. X and Y are data-space
// coordinates; Frame numbers are unique within a curve.
type Point struct {
	Frame  int         `json:"frame"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Status PointStatus `json:"status"`
}

// Curve pairs a name with its point sequence. The store owns curve data
// exclusively; Curve values appear only at the session/export boundary.
type Curve struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}
