/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package export renders curve trajectories to PNG, SVG and PDF. It reads
// the store through its query API and projects points with a transform
// snapshot; it never mutates editor state.
package export

import (
	"fmt"

	"curvelab/internal/curve"
	"curvelab/internal/store"
	"curvelab/internal/transform"
)

// Options controls all three exporters.
type Options struct {
	// Curves to export; empty means the store's currently visible curves.
	Curves []string
	// PointRadius in output pixels; 0 uses a default.
	PointRadius float64
	// MarkSelection highlights selected points.
	MarkSelection bool
	// MarkFrame emphasizes the point at the current frame.
	MarkFrame bool
	// Labels draws the curve name next to its first point.
	Labels bool
}

const defaultPointRadius = 3.0

// CurvePlot is one curve projected to screen space, ready to draw.
type CurvePlot struct {
	Name     string
	Points   []curve.Point
	Screen   [][2]float64
	Selected map[int]bool
}

// Plot is the full drawable snapshot of the store for one transform.
type Plot struct {
	Width  int
	Height int
	Frame  int
	Curves []CurvePlot
}

// Snapshot captures everything the exporters need in one pass over the
// store, so rendering cannot observe a half-updated state.
func Snapshot(st *store.CurveStore, tf *transform.Transform, opt Options) (*Plot, error) {
	p := tf.Params()
	if !p.Valid() {
		return nil, fmt.Errorf("invalid transform parameters %+v", p)
	}
	names := opt.Curves
	if len(names) == 0 {
		names = st.VisibleCurves()
	}
	plot := &Plot{
		Width:  int(p.ViewportW),
		Height: int(p.ViewportH),
		Frame:  st.Frame(),
	}
	for _, name := range names {
		pts := st.CurveData(name)
		if pts == nil {
			continue
		}
		cp := CurvePlot{Name: name, Points: pts, Selected: make(map[int]bool)}
		for _, pt := range pts {
			sx, sy := tf.DataToScreen(pt.X, pt.Y)
			cp.Screen = append(cp.Screen, [2]float64{sx, sy})
		}
		if opt.MarkSelection {
			for _, i := range st.Selection(name) {
				cp.Selected[i] = true
			}
		}
		plot.Curves = append(plot.Curves, cp)
	}
	return plot, nil
}

func (o Options) pointRadius() float64 {
	if o.PointRadius > 0 {
		return o.PointRadius
	}
	return defaultPointRadius
}

// statusColor returns the marker color for a point status as 0..1 RGB.
func statusColor(s curve.PointStatus) (r, g, b float64) {
	switch s {
	case curve.StatusKeyframe:
		return 0.95, 0.55, 0.10
	case curve.StatusInterpolated:
		return 0.55, 0.55, 0.60
	case curve.StatusEndframe:
		return 0.85, 0.20, 0.20
	case curve.StatusTracked:
		return 0.15, 0.65, 0.30
	default:
		return 0.25, 0.45, 0.85
	}
}
