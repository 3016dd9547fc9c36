/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package curve

import (
	"errors"
	"fmt"
	"math"
)

// ValidationError reports malformed point or selection input. Operations
// that return it leave state unchanged.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// Validationf builds a ValidationError with a formatted reason.
func Validationf(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ValidatePoint checks a single point: finite coordinates and a known status.
func ValidatePoint(p Point) error {
	if math.IsNaN(p.X) || math.IsInf(p.X, 0) {
		return Validationf("point at frame %d has non-finite x %v", p.Frame, p.X)
	}
	if math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
		return Validationf("point at frame %d has non-finite y %v", p.Frame, p.Y)
	}
	if !p.Status.Valid() {
		return Validationf("point at frame %d has unknown status %d", p.Frame, int(p.Status))
	}
	return nil
}

// ValidatePoints checks a full point list: each point valid and frames
// strictly increasing, which also guarantees uniqueness.
func ValidatePoints(pts []Point) error {
	for i, p := range pts {
		if err := ValidatePoint(p); err != nil {
			return err
		}
		if i > 0 && pts[i-1].Frame >= p.Frame {
			return Validationf("frames not strictly increasing at index %d (%d then %d)", i, pts[i-1].Frame, p.Frame)
		}
	}
	return nil
}

// InsertIndex returns the position where a point with the given frame
// belongs in the frame-ordered list, and whether that frame already exists.
func InsertIndex(pts []Point, frame int) (int, bool) {
	lo, hi := 0, len(pts)
	for lo < hi {
		mid := (lo + hi) / 2
		if pts[mid].Frame < frame {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(pts) && pts[lo].Frame == frame {
		return lo, true
	}
	return lo, false
}
