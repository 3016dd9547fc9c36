/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package transform maps data-space coordinates to screen-space and back.
// A Transform is immutable for a fixed parameter snapshot; pan/zoom
// gestures construct new Transforms (usually through the Cache) rather
// than mutating one, which is what makes caching and the screen-space
// spatial index safe.
package transform

// Params is the full parameter snapshot defining the mapping. Every field
// affects the data-to-screen mapping; the cache keys on the whole struct.
type Params struct {
	Zoom      float64
	PanX      float64
	PanY      float64
	FlipY     bool
	ViewportW float64
	ViewportH float64
}

// DefaultParams returns a usable identity-ish snapshot for a viewport.
func DefaultParams(w, h float64) Params {
	return Params{Zoom: 1, ViewportW: w, ViewportH: h}
}

// Valid reports whether the snapshot describes an invertible mapping.
func (p Params) Valid() bool {
	return p.Zoom > 0 && p.ViewportW > 0 && p.ViewportH > 0
}

// Transform converts between data space and screen space for one Params
// snapshot. The zero value is not usable; construct via New.
type Transform struct {
	params Params
}

// New builds the transform for the snapshot. Callers doing repeated
// lookups should go through a Cache instead.
func New(p Params) *Transform {
	return &Transform{params: p}
}

// Params returns the snapshot this transform was built from.
func (t *Transform) Params() Params { return t.params }

// DataToScreen maps a data-space position to screen pixels. With FlipY set
// the screen y axis grows upward in data terms, anchored to the viewport
// height.
func (t *Transform) DataToScreen(x, y float64) (sx, sy float64) {
	sx = x*t.params.Zoom + t.params.PanX
	sy = y*t.params.Zoom + t.params.PanY
	if t.params.FlipY {
		sy = t.params.ViewportH - sy
	}
	return sx, sy
}

// ScreenToData is the exact inverse of DataToScreen for the same snapshot,
// up to floating-point tolerance.
func (t *Transform) ScreenToData(sx, sy float64) (x, y float64) {
	if t.params.FlipY {
		sy = t.params.ViewportH - sy
	}
	x = (sx - t.params.PanX) / t.params.Zoom
	y = (sy - t.params.PanY) / t.params.Zoom
	return x, y
}

// VisibleDataRect returns the data-space corners covered by the viewport,
// useful for culling before a spatial-index rebuild.
func (t *Transform) VisibleDataRect() (x0, y0, x1, y1 float64) {
	ax, ay := t.ScreenToData(0, 0)
	bx, by := t.ScreenToData(t.params.ViewportW, t.params.ViewportH)
	if ax > bx {
		ax, bx = bx, ax
	}
	if ay > by {
		ay, by = by, ay
	}
	return ax, ay, bx, by
}
